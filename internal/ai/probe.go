package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProbeState tracks where the model probe is in its lifecycle.
type ProbeState int

const (
	// StateUnprobed means no probe has run yet.
	StateUnprobed ProbeState = iota
	// StateProbing means a probe is in flight.
	StateProbing
	// StateAvailable means a model answered and is cached for the process.
	StateAvailable
	// StateUnavailable means the whole preference list was exhausted. The
	// state is sticky until restart; there is no background re-probe.
	StateUnavailable
)

// String returns the state name for logs.
func (s ProbeState) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unprobed"
	}
}

// ModelProbe establishes which model on the preference list answers, once,
// and caches the winner for the process lifetime. The working model is a
// single-assignment cell: after the first transition out of Probing the
// state never changes again. Concurrent callers that find the state Unprobed
// share one probe execution via singleflight, so at most one model can ever
// become the working model.
type ModelProbe struct {
	client       *ChatClient
	models       []string
	probeTimeout time.Duration
	logger       *slog.Logger

	mu    sync.RWMutex
	state ProbeState
	model string

	group singleflight.Group
}

// NewModelProbe creates a probe over the ordered model preference list.
func NewModelProbe(client *ChatClient, models []string, probeTimeout time.Duration, logger *slog.Logger) *ModelProbe {
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelProbe{
		client:       client,
		models:       models,
		probeTimeout: probeTimeout,
		logger:       logger,
		state:        StateUnprobed,
	}
}

// Available reports whether a working model is cached.
func (p *ModelProbe) Available() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state == StateAvailable
}

// Model returns the cached working model identifier, or "" when none exists.
func (p *ModelProbe) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// State returns the current lifecycle state.
func (p *ModelProbe) State() ProbeState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// EnsureProbed runs the probe if it has not run yet and returns whether a
// model is available. Concurrent callers collapse onto one probe execution.
// Once the state has settled it is returned without any network activity.
func (p *ModelProbe) EnsureProbed(ctx context.Context) bool {
	p.mu.RLock()
	settled := p.state == StateAvailable || p.state == StateUnavailable
	p.mu.RUnlock()
	if settled {
		return p.Available()
	}

	p.group.Do("probe", func() (any, error) {
		p.Probe(ctx)
		return nil, nil
	})
	return p.Available()
}

// Probe walks the preference list with a minimal prompt and caches the first
// model that answers. Intended to run once at startup; later calls return
// immediately once the state has settled.
func (p *ModelProbe) Probe(ctx context.Context) {
	p.mu.Lock()
	if p.state != StateUnprobed {
		p.mu.Unlock()
		return
	}
	p.state = StateProbing
	p.mu.Unlock()

	if !p.client.Configured() {
		p.logger.WarnContext(ctx, "ai token not configured, using fallback responses")
		p.settle(StateUnavailable, "")
		return
	}

	for _, model := range p.models {
		if err := p.tryModel(ctx, model); err != nil {
			p.logger.WarnContext(ctx, "ai model probe failed",
				"model", model,
				"error", err,
			)
			continue
		}
		p.logger.InfoContext(ctx, "ai model connected", "model", model)
		p.settle(StateAvailable, model)
		return
	}

	p.logger.WarnContext(ctx, "ai unavailable, all models failed probe")
	p.settle(StateUnavailable, "")
}

func (p *ModelProbe) tryModel(ctx context.Context, model string) error {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	_, err := p.client.Complete(probeCtx, model, []Message{
		{Role: RoleUser, Content: "Hi"},
	}, CompletionOpts{MaxTokens: 5})
	return err
}

func (p *ModelProbe) settle(state ProbeState, model string) {
	p.mu.Lock()
	p.state = state
	p.model = model
	p.mu.Unlock()
}
