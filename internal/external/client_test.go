package external

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

func newTestClient(policy RetryPolicy) (*BaseClient, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	client := NewBaseClient(
		&http.Client{},
		"test-breaker",
		policy,
		"cropsense-test/1.0",
		WithSleepFunc(func(d time.Duration) { *sleeps = append(*sleeps, d) }),
	)
	return client, sleeps
}

func TestBaseClient_Do_Success(t *testing.T) {
	var gotUserAgent, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newTestClient(DefaultRetryPolicy())

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	req = req.WithContext(types.WithRequestID(req.Context(), "req-42"))

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cropsense-test/1.0", gotUserAgent)
	assert.Equal(t, "req-42", gotRequestID)
}

func TestBaseClient_Do_RetriesOn5xxThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, sleeps := newTestClient(RetryPolicy{MaxRetries: 2, MinWait: 10 * time.Millisecond, MaxWait: time.Second})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Len(t, *sleeps, 1)
}

func TestBaseClient_Do_ExhaustedRetriesMapTo502Error(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := newTestClient(RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Second})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
}

func TestBaseClient_Do_RateLimitMapsToRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := newTestClient(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Second})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
}

func TestBaseClient_Do_RespectsRetryAfterSeconds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, sleeps := newTestClient(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: 10 * time.Second})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Len(t, *sleeps, 1)
	assert.Equal(t, 3*time.Second, (*sleeps)[0])
}

func TestBaseClient_Do_NonRetryable4xxReturnedAsIs(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := newTestClient(RetryPolicy{MaxRetries: 3, MinWait: time.Millisecond, MaxWait: time.Second})

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestBaseClient_Do_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Second})

	// Six consecutive failures trip the breaker.
	for i := 0; i < 6; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		_, err := client.Do(req)
		require.Error(t, err)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := client.Do(req)
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeUpstreamRateLimited, appErr.Code)
}

func TestBaseClient_Do_BreakersAreIndependentPerClient(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	primary, _ := newTestClient(RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Second})
	secondary, _ := newTestClient(RetryPolicy{MaxRetries: 0, MinWait: time.Millisecond, MaxWait: time.Second})

	// Trip the primary's breaker.
	for i := 0; i < 7; i++ {
		req, _ := http.NewRequest(http.MethodGet, failing.URL, nil)
		_, err := primary.Do(req)
		require.Error(t, err)
	}

	req, _ := http.NewRequest(http.MethodGet, healthy.URL, nil)
	resp, err := secondary.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBaseClient_Do_ReplaysBodyOnRetry(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, _ := newTestClient(RetryPolicy{MaxRetries: 1, MinWait: time.Millisecond, MaxWait: time.Second})

	req, _ := http.NewRequest(http.MethodPost, server.URL, io.NopCloser(strings.NewReader(`{"lat":1}`)))
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Len(t, bodies, 2)
	assert.Equal(t, `{"lat":1}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}
