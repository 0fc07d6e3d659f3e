package providers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestMockClient(t *testing.T) {
	t.Run("chat", func(t *testing.T) {
		c := NewMockClient()
		c.ResponseText = "hello world"

		result, err := c.Chat(context.Background(), &ChatRequest{
			Model: "test-model",
			Messages: []Message{
				{Role: "user", Content: "test"},
			},
		})

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if !result.Success {
			t.Errorf("Success = false, want true")
		}
		if result.Content != "hello world" {
			t.Errorf("Content = %q, want %q", result.Content, "hello world")
		}
		if c.RequestCount() != 1 {
			t.Errorf("RequestCount = %d, want 1", c.RequestCount())
		}
	})

	t.Run("structured output", func(t *testing.T) {
		c := NewMockClient()
		c.ResponseJSON = json.RawMessage(`{"key": "value"}`)

		result, err := c.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "test"}},
			ResponseFormat: &ResponseFormat{
				Type: "json_schema",
			},
		})

		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.ParsedJSON == nil {
			t.Error("expected ParsedJSON")
		}
	})

	t.Run("failure", func(t *testing.T) {
		c := NewMockClient()
		c.ShouldFail = true

		result, err := c.Chat(context.Background(), &ChatRequest{})
		if err == nil {
			t.Error("expected error, got nil")
		}
		if result.Success {
			t.Error("expected Success = false")
		}
	})

	t.Run("response func", func(t *testing.T) {
		c := NewMockClient()
		c.ResponseFunc = func(req *ChatRequest) (string, error) {
			return "for: " + req.Messages[len(req.Messages)-1].Content, nil
		}

		result, err := c.Chat(context.Background(), &ChatRequest{
			Messages: []Message{{Role: "user", Content: "John 3:16"}},
		})
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if result.Content != "for: John 3:16" {
			t.Errorf("Content = %q", result.Content)
		}
	})
}

func TestMockRenderer(t *testing.T) {
	t.Run("render", func(t *testing.T) {
		r := NewMockRenderer()

		result, err := r.Render(context.Background(), &ImageRequest{
			Prompt: "a quiet shoreline at dawn",
			Width:  512,
			Height: 512,
		})
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if result.Placeholder {
			t.Error("expected rendered URL, got placeholder")
		}
		if result.URL == "" {
			t.Error("expected non-empty URL")
		}
	})

	t.Run("failure resolves to placeholder", func(t *testing.T) {
		r := NewMockRenderer()
		r.ShouldFail = true

		result, err := r.Render(context.Background(), &ImageRequest{
			Prompt: "anything",
			Width:  512,
			Height: 512,
		})
		if err != nil {
			t.Fatalf("Render() error = %v, want nil (failures resolve to placeholders)", err)
		}
		if !result.Placeholder {
			t.Error("expected placeholder result")
		}
		if !strings.HasPrefix(result.URL, "/placeholder.svg?") {
			t.Errorf("URL = %q, want placeholder URL", result.URL)
		}
	})
}

func TestPlaceholderURL(t *testing.T) {
	url := PlaceholderURL("golden light over the hills", 1024, 768)
	if !strings.Contains(url, "height=768") || !strings.Contains(url, "width=1024") {
		t.Errorf("PlaceholderURL = %q, missing dimensions", url)
	}
	if !strings.Contains(url, "golden+light") {
		t.Errorf("PlaceholderURL = %q, missing encoded prompt", url)
	}

	// Long prompts are truncated to keep the URL bounded.
	long := strings.Repeat("x", 300)
	url = PlaceholderURL(long, 512, 512)
	if strings.Contains(url, strings.Repeat("x", 101)) {
		t.Errorf("PlaceholderURL did not truncate long prompt")
	}
}

func TestStyledPrompt(t *testing.T) {
	base := "a shepherd on a hillside"
	if got := StyledPrompt(base, "adult"); got != base {
		t.Errorf("adult prompt changed: %q", got)
	}
	for _, age := range []string{"teen", "teens", "Teens"} {
		if got := StyledPrompt(base, age); !strings.Contains(got, "anime") {
			t.Errorf("StyledPrompt(%q) = %q, want anime styling", age, got)
		}
	}
}

func TestRegistryReload(t *testing.T) {
	r := NewRegistry()
	r.Reload(RegistryConfig{
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {Type: "openrouter", APIKey: "key", Enabled: true},
			"disabled":   {Type: "openrouter", APIKey: "key", Enabled: false},
		},
		ImageProviders: map[string]ImageProviderConfig{
			"runware": {Type: "runware", Enabled: true},
		},
	})

	if _, err := r.GetLLM("openrouter"); err != nil {
		t.Errorf("GetLLM(openrouter) error = %v", err)
	}
	if _, err := r.GetLLM("disabled"); err == nil {
		t.Error("expected disabled provider to be absent")
	}
	if _, err := r.DefaultRenderer(); err != nil {
		t.Errorf("DefaultRenderer() error = %v", err)
	}

	// Removing a provider from config unregisters it.
	r.Reload(RegistryConfig{})
	if _, err := r.GetLLM("openrouter"); err == nil {
		t.Error("expected openrouter to be unregistered after reload")
	}
}
