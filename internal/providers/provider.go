package providers

import (
	"context"
	"encoding/json"
	"time"
)

// LLMClient is the primary interface for chat/completion requests.
// Every devotional section generator and the chat companion go through it.
type LLMClient interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)

	// Name returns the client identifier (e.g., "openrouter").
	Name() string
}

// ImageRenderer turns a text prompt into a hosted image URL.
// Separate from LLM because it has different latency, retry behavior,
// and failure semantics (a failed render degrades to a placeholder URL,
// never an error the caller must handle).
type ImageRenderer interface {
	// Name returns the renderer identifier (e.g., "runware").
	Name() string

	// Render generates an image for the prompt and returns its URL.
	// Implementations return a placeholder URL rather than an error
	// whenever a terminal result can still be produced.
	Render(ctx context.Context, req *ImageRequest) (*ImageResult, error)
}

// SpeechClient synthesizes spoken audio from text (read-aloud).
type SpeechClient interface {
	// Name returns the client identifier (e.g., "openai").
	Name() string

	// Synthesize returns encoded audio bytes for the given text.
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResult, error)
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ResponseFormat specifies structured output format.
type ResponseFormat struct {
	Type       string          `json:"type"` // "json_schema"
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

// ChatRequest is a request to an LLM.
type ChatRequest struct {
	// Required
	Messages []Message `json:"messages"`

	// Model selection (uses client default if empty)
	Model string `json:"model,omitempty"`

	// Generation parameters
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Timeout     time.Duration

	// Structured output
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Request tracking
	RequestID string `json:"-"`
}

// ChatResult is the complete response from an LLM call.
type ChatResult struct {
	// Response content
	Content    string          `json:"content"`
	ParsedJSON json.RawMessage `json:"parsed_json,omitempty"` // Parsed if ResponseFormat was set

	// Token counts
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Timing
	ExecutionTime time.Duration `json:"execution_time"`
	TotalTime     time.Duration `json:"total_time"`

	// Provider info
	Provider  string `json:"provider"`
	ModelUsed string `json:"model_used"`

	// Request tracking
	RequestID string `json:"request_id"`
	Attempts  int    `json:"attempts"`

	// Success/error
	Success      bool   `json:"success"`
	ErrorType    string `json:"error_type,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ImageRequest describes one image render.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// AgeRange adjusts visual style (teen profiles get an anime treatment).
	AgeRange string `json:"age_range,omitempty"`
}

// ImageResult is the terminal result of a render. Placeholder is true when
// the URL points at a generated placeholder rather than a rendered image;
// callers treat both as valid results.
type ImageResult struct {
	URL         string        `json:"image_url"`
	Placeholder bool          `json:"placeholder,omitempty"`
	Provider    string        `json:"provider"`
	TotalTime   time.Duration `json:"total_time"`
	Attempts    int           `json:"attempts"`
}

// SpeechRequest describes one text-to-speech synthesis.
type SpeechRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// SpeechResult holds synthesized audio.
type SpeechResult struct {
	Audio     []byte        `json:"-"`
	Format    string        `json:"format"` // "mp3"
	Voice     string        `json:"voice"`
	Provider  string        `json:"provider"`
	TotalTime time.Duration `json:"total_time"`
}
