// Package ai talks to an OpenAI-compatible chat-completion endpoint and keeps
// the service useful when that endpoint is down. A ModelProbe establishes at
// startup which model identifier, if any, answers on the configured endpoint;
// the Advisor then routes chat and recommendation traffic through that model,
// degrading to static answers whenever the model is missing, slow, or returns
// text that cannot be parsed. No failure on the AI path ever reaches a caller.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"

	"cropsense/internal/types"
)

// HTTPDoer is the outbound HTTP capability the chat client needs. Satisfied by
// *external.BaseClient and by plain *http.Client in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxChatResponseSize caps chat-completion response bodies (1 MB).
const maxChatResponseSize = 1 << 20

// Message is one chat turn in an OpenAI-compatible conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Role constants for Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatClient issues chat-completion calls against one endpoint. The model
// identifier varies per call so the probe can walk the preference list.
type ChatClient struct {
	client   HTTPDoer
	endpoint string
	token    string
}

// NewChatClient creates a ChatClient for the given endpoint and bearer token.
func NewChatClient(client HTTPDoer, endpoint, token string) *ChatClient {
	return &ChatClient{
		client:   client,
		endpoint: endpoint,
		token:    token,
	}
}

// Configured reports whether a token is present. Without one every completion
// call would be rejected, so the probe skips straight to Unavailable.
func (c *ChatClient) Configured() bool { return c.token != "" }

// completionRequest is the OpenAI-compatible request body.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
}

// completionResponse holds the subset of the response the client consumes.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompletionOpts tune one chat-completion call.
type CompletionOpts struct {
	Temperature *float64
	MaxTokens   int
}

// Complete sends the conversation to the named model and returns the first
// choice's content. An empty choice list is a malformed-response error.
func (c *ChatClient) Complete(ctx context.Context, model string, messages []Message, opts CompletionOpts) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamAI, "encoding chat completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamAI, "building chat completion request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamAI, "chat completion request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", types.NewAppError(
			types.ErrCodeUpstreamAI,
			fmt.Sprintf("chat completion endpoint returned %d", resp.StatusCode),
			nil,
		)
	}

	var payload completionResponse
	limited := http.MaxBytesReader(nil, resp.Body, maxChatResponseSize)
	if err := json.NewDecoder(limited).Decode(&payload); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamMalformed, "decoding chat completion response", err)
	}

	if len(payload.Choices) == 0 {
		return "", types.NewAppError(types.ErrCodeUpstreamMalformed, "chat completion response has no choices", nil)
	}

	return payload.Choices[0].Message.Content, nil
}
