package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // Fail after N requests (0 = never)
	ResponseText string
	ResponseJSON json.RawMessage

	// ResponseFunc, when set, computes the response text per request.
	// Takes precedence over ResponseText.
	ResponseFunc func(req *ChatRequest) (string, error)

	// State
	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns the number of requests served.
func (c *MockClient) RequestCount() int64 {
	return c.requestCount.Load()
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.ShouldFail {
		result.Success = false
		result.ErrorType = "mock_failure"
		result.ErrorMessage = "mock client configured to fail"
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("mock client configured to fail")
	}
	if c.FailAfter > 0 && int(count) > c.FailAfter {
		result.Success = false
		result.ErrorType = "mock_failure"
		result.ErrorMessage = fmt.Sprintf("mock client failed after %d requests", c.FailAfter)
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("mock client failed after %d requests", c.FailAfter)
	}

	// Simulate latency
	select {
	case <-time.After(c.Latency):
	case <-ctx.Done():
		result.Success = false
		result.ErrorType = "context_cancelled"
		result.ErrorMessage = ctx.Err().Error()
		result.TotalTime = time.Since(start)
		return result, ctx.Err()
	}

	content := c.ResponseText
	if c.ResponseFunc != nil {
		text, err := c.ResponseFunc(req)
		if err != nil {
			result.Success = false
			result.ErrorType = "mock_failure"
			result.ErrorMessage = err.Error()
			result.TotalTime = time.Since(start)
			return result, err
		}
		content = text
	}

	result.Success = true
	result.Content = content
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil {
		if c.ResponseJSON != nil {
			result.ParsedJSON = c.ResponseJSON
			result.Content = string(c.ResponseJSON)
		} else {
			var parsed json.RawMessage
			if err := json.Unmarshal([]byte(result.Content), &parsed); err == nil {
				result.ParsedJSON = parsed
			}
		}
	}

	return result, nil
}

// MockRenderer is an ImageRenderer for testing.
type MockRenderer struct {
	Latency    time.Duration
	ShouldFail bool // resolve to placeholder instead of a rendered URL

	// FailFor marks specific prompts that resolve to placeholders.
	FailFor map[string]bool

	// URLFunc, when set, computes the returned URL per prompt.
	URLFunc func(prompt string) string

	requestCount atomic.Int64
}

// NewMockRenderer creates a new mock renderer.
func NewMockRenderer() *MockRenderer {
	return &MockRenderer{Latency: time.Millisecond}
}

// Name returns the renderer identifier.
func (r *MockRenderer) Name() string {
	return MockClientName
}

// RequestCount returns the number of renders served.
func (r *MockRenderer) RequestCount() int64 {
	return r.requestCount.Load()
}

// Render returns a deterministic URL per prompt, or a placeholder when
// configured to fail. Like real renderers it never returns an error for a
// representable failure.
func (r *MockRenderer) Render(ctx context.Context, req *ImageRequest) (*ImageResult, error) {
	count := r.requestCount.Add(1)

	select {
	case <-time.After(r.Latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if r.ShouldFail || r.FailFor[req.Prompt] {
		return &ImageResult{
			URL:         PlaceholderURL(req.Prompt, req.Width, req.Height),
			Placeholder: true,
			Provider:    MockClientName,
			Attempts:    1,
		}, nil
	}

	url := fmt.Sprintf("https://img.mock/%d.png", count)
	if r.URLFunc != nil {
		url = r.URLFunc(req.Prompt)
	}
	return &ImageResult{
		URL:      url,
		Provider: MockClientName,
		Attempts: 1,
	}, nil
}

// Verify interfaces
var (
	_ LLMClient     = (*MockClient)(nil)
	_ ImageRenderer = (*MockRenderer)(nil)
)
