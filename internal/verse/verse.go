// Package verse resolves a devotional source to a concrete Bible verse.
//
// A source is one of:
//   - a direct reference query ("John 3:16"), answered via LLM lookup
//   - a named verse-of-the-day provider ("YouVersion", "Gateway", "Olive Tree")
//   - a theme pseudo-source ("Theme:Forgiveness"), mapped through a fixed
//     theme table to a reference and then looked up like a direct query
//
// Resolution failure is the one fatal error in a devotional session; every
// other failure downstream degrades to per-section fallbacks.
package verse

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/selahapp/selah/internal/jsonrepair"
	"github.com/selahapp/selah/internal/providers"
)

// Verse is a resolved Bible verse. Immutable once resolved.
type Verse struct {
	Reference string `json:"reference"`
	Version   string `json:"version"`
	Text      string `json:"text"`
}

// Resolution is the outcome of resolving a source.
type Resolution struct {
	Verse Verse
	// Theme is set when the source was a Theme: pseudo-source.
	Theme string
	// CacheRef is the reference string used for cache keying. For themes it
	// is "theme_<name>" so a theme devotional never collides with a direct
	// request for the same underlying verse.
	CacheRef string
	// Source is the entry point that produced this resolution.
	Source string
}

// ThemePrefix marks theme pseudo-sources.
const ThemePrefix = "Theme:"

// referencePattern matches direct verse reference queries like "John 3:16".
var referencePattern = regexp.MustCompile(`^[A-Za-z0-9\s]+\d+:\d+`)

// themeReferences maps theme names to their anchor verse.
var themeReferences = map[string]string{
	"Forgiveness": "Colossians 3:13",
	"Hope":        "Jeremiah 29:11",
	"Peace":       "Philippians 4:6",
	"Love":        "1 Corinthians 13:4",
	"Strength":    "Isaiah 41:10",
	"Gratitude":   "1 Thessalonians 5:18",
	"Anxiety":     "1 Peter 5:7",
	"Faith":       "Hebrews 11:1",
}

// ThemeReference returns the anchor verse reference for a theme.
func ThemeReference(theme string) (string, bool) {
	ref, ok := themeReferences[theme]
	return ref, ok
}

// Resolver resolves devotional sources to verses.
type Resolver struct {
	llm     providers.LLMClient
	sources *votdSources
}

// NewResolver creates a resolver backed by the given LLM client for
// reference lookups. Verse-of-the-day providers use their own HTTP client.
func NewResolver(llm providers.LLMClient) *Resolver {
	return &Resolver{
		llm:     llm,
		sources: newVOTDSources(),
	}
}

// Resolve turns a source string into a Resolution.
func (r *Resolver) Resolve(ctx context.Context, source string) (*Resolution, error) {
	switch {
	case strings.HasPrefix(source, ThemePrefix):
		return r.resolveTheme(ctx, strings.TrimPrefix(source, ThemePrefix))
	case referencePattern.MatchString(source):
		v, err := r.Lookup(ctx, source)
		if err != nil {
			return nil, err
		}
		return &Resolution{Verse: *v, CacheRef: v.Reference, Source: source}, nil
	default:
		v, err := r.sources.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		return &Resolution{Verse: *v, CacheRef: v.Reference, Source: source}, nil
	}
}

// resolveTheme maps a theme through the fixed table and fetches its verse.
func (r *Resolver) resolveTheme(ctx context.Context, theme string) (*Resolution, error) {
	ref, ok := ThemeReference(theme)
	if !ok {
		return nil, fmt.Errorf("unknown theme: %s", theme)
	}
	v, err := r.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Verse:    *v,
		Theme:    theme,
		CacheRef: "theme_" + theme,
		Source:   ThemePrefix + theme,
	}, nil
}

// Lookup fetches a specific verse by reference via the LLM.
func (r *Resolver) Lookup(ctx context.Context, query string) (*Verse, error) {
	prompt := fmt.Sprintf(`Return ONLY a JSON object for the Bible verse: %s

Return ONLY this JSON structure, no markdown, no explanation:
{
  "reference": "Book Chapter:Verse (exactly as requested or corrected if needed)",
  "version": "NIV",
  "text": "The exact NIV text of the verse"
}`, query)

	result, err := r.llm.Chat(ctx, &providers.ChatRequest{
		Messages:  []providers.Message{{Role: "user", Content: prompt}},
		MaxTokens: 500,
	})
	if err != nil {
		return nil, fmt.Errorf("verse lookup failed: %w", err)
	}

	var v Verse
	if err := jsonrepair.Unmarshal(result.Content, &v); err != nil {
		return nil, fmt.Errorf("verse lookup returned unparseable response: %w", err)
	}
	if v.Reference == "" || v.Text == "" {
		return nil, fmt.Errorf("verse lookup returned incomplete verse for %q", query)
	}
	if v.Version == "" {
		v.Version = "NIV"
	}
	return &v, nil
}
