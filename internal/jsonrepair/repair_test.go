package jsonrepair

import (
	"testing"
)

type imageryPayload struct {
	Imagery []struct {
		Title       string `json:"title"`
		Sub         string `json:"sub"`
		Icon        string `json:"icon"`
		ImagePrompt string `json:"imagePrompt"`
	} `json:"imagery"`
}

func TestUnmarshal(t *testing.T) {
	t.Run("valid json passes through", func(t *testing.T) {
		var v map[string]string
		if err := Unmarshal(`{"a": "b"}`, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "b" {
			t.Errorf("v[a] = %q, want b", v["a"])
		}
	})

	t.Run("markdown fences stripped", func(t *testing.T) {
		var v map[string]string
		input := "```json\n{\"a\": \"b\"}\n```"
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "b" {
			t.Errorf("v[a] = %q, want b", v["a"])
		}
	})

	t.Run("prose around payload", func(t *testing.T) {
		var v map[string]string
		input := "Here is the JSON you asked for:\n{\"a\": \"b\"}\nHope that helps!"
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "b" {
			t.Errorf("v[a] = %q, want b", v["a"])
		}
	})

	t.Run("raw newline inside string", func(t *testing.T) {
		var v map[string]string
		input := "{\"a\": \"line one\nline two\"}"
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "line one\nline two" {
			t.Errorf("v[a] = %q", v["a"])
		}
	})

	t.Run("raw tab and control char inside string", func(t *testing.T) {
		var v map[string]string
		input := "{\"a\": \"col1\tcol2\x02end\"}"
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "col1\tcol2\x02end" {
			t.Errorf("v[a] = %q", v["a"])
		}
	})

	t.Run("already escaped sequences survive", func(t *testing.T) {
		var v map[string]string
		input := `{"a": "keeps \"quotes\" and \n escapes"}`
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "keeps \"quotes\" and \n escapes" {
			t.Errorf("v[a] = %q", v["a"])
		}
	})

	t.Run("trailing commas", func(t *testing.T) {
		var v map[string]any
		input := `{"a": "b", "list": [1, 2, 3,],}`
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if len(v["list"].([]any)) != 3 {
			t.Errorf("list = %v, want 3 elements", v["list"])
		}
	})

	t.Run("truncated mid-string", func(t *testing.T) {
		var v map[string]any
		input := `{"a": "b", "c": "the model ran out of tok`
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["a"] != "b" {
			t.Errorf("v[a] = %q, want b", v["a"])
		}
	})

	t.Run("truncated mid-array", func(t *testing.T) {
		var v map[string]any
		input := `{"items": [{"t": "one"}, {"t": "two"},`
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		items := v["items"].([]any)
		if len(items) != 2 {
			t.Errorf("items = %v, want 2 elements", items)
		}
	})

	t.Run("dangling property", func(t *testing.T) {
		var v map[string]any
		input := `{"a": "b", "c":`
		if err := Unmarshal(input, &v); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if v["c"] != "" {
			t.Errorf("v[c] = %v, want empty string", v["c"])
		}
	})

	t.Run("hopeless input errors", func(t *testing.T) {
		var v map[string]any
		if err := Unmarshal("not json at all", &v); err == nil {
			t.Error("expected error for unrepairable input")
		}
	})
}

// Four imagery items with an unescaped newline inside one of the string
// values must repair into all four items, not fall through to a fallback.
func TestUnmarshalImageryWithUnescapedNewline(t *testing.T) {
	input := "```json\n" + `{
  "imagery": [
    {"title": "Living Water", "sub": "In a desert culture water was survival itself.
Wells were wealth.", "icon": "water_drop", "imagePrompt": "spring in desert, NO TEXT"},
    {"title": "The Shepherd", "sub": "Shepherds slept across the pen gate.", "icon": "spa", "imagePrompt": "shepherd at dusk, NO TEXT"},
    {"title": "Light", "sub": "Lamps burned costly oil.", "icon": "wb_sunny", "imagePrompt": "oil lamp, NO TEXT"},
    {"title": "The Vine", "sub": "Vineyards took a generation to mature.", "icon": "park", "imagePrompt": "old vine, NO TEXT"}
  ]
}` + "\n```"

	var v imageryPayload
	if err := Unmarshal(input, &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(v.Imagery) != 4 {
		t.Fatalf("len(Imagery) = %d, want 4", len(v.Imagery))
	}
	if v.Imagery[0].Sub != "In a desert culture water was survival itself.\nWells were wealth." {
		t.Errorf("Imagery[0].Sub = %q", v.Imagery[0].Sub)
	}
}
