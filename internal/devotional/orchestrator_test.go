package devotional

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/verse"
)

// fakeProvider produces canned sections with configurable latency and
// failure per kind.
type fakeProvider struct {
	delay map[content.SectionKind]time.Duration
	fail  map[content.SectionKind]bool
	// bareHero strips the hero image prompt from the interpretation.
	bareHero bool
	calls    atomic.Int64
}

func (p *fakeProvider) GenerateSection(ctx context.Context, req *content.Request) (*content.SectionResult, error) {
	p.calls.Add(1)
	if d := p.delay[req.Kind]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.fail[req.Kind] {
		return fakeFallback(req.Kind), nil
	}
	res := fakeSection(req.Kind)
	if p.bareHero && res.Interpretation != nil {
		res.Interpretation.HeroImagePrompt = ""
	}
	return res, nil
}

func (p *fakeProvider) Chat(ctx context.Context, req *content.ChatRequest) (string, error) {
	return "ok", nil
}

func fakeSection(kind content.SectionKind) *content.SectionResult {
	res := &content.SectionResult{Kind: kind}
	switch kind {
	case content.KindInterpretation:
		res.Interpretation = &content.Interpretation{Text: "A reflection on the verse.", HeroImagePrompt: "hero scene"}
	case content.KindContext:
		res.Context = &content.ContextSection{
			Context:     content.VerseContext{WhoIsSpeaking: "Jesus", OriginalListeners: "Nicodemus", WhyTheConversation: "a night visit", Setting: "Jerusalem", HistoricalBackdrop: "Roman rule", ImmediateImpact: "questions", LongTermImpact: "centuries of reflection"},
			ImagePrompt: "context scene",
		}
	case content.KindStoryContemporary:
		res.Story = &content.Story{Title: "Contemporary Story", Text: "A modern scene.", ImagePrompt: "contemporary scene"}
	case content.KindStoryHistorical:
		res.Story = &content.Story{Title: "Historical Story", Text: "An ancient scene.", ImagePrompt: "historical scene"}
	case content.KindPoemClassic:
		res.Poem = &content.Poem{Title: "Classic Poem", Type: "Sonnet", Text: "Lines of verse.", ImagePrompt: "classic art"}
	case content.KindPoemFreeVerse:
		res.Poem = &content.Poem{Title: "Free Verse Poem", Type: "Free Verse", Text: "Open lines.", ImagePrompt: "freeverse art"}
	case content.KindImagery:
		res.Imagery = []content.ImageryItem{
			{Title: "Light", Sub: "insight", Icon: "wb_sunny", ImagePrompt: "light"},
			{Title: "Water", Sub: "insight", Icon: "water_drop", ImagePrompt: "water"},
			{Title: "Path", Sub: "insight", Icon: "route", ImagePrompt: "path"},
			{Title: "Shield", Sub: "insight", Icon: "shield", ImagePrompt: "shield"},
		}
	case content.KindSongs:
		res.Song = &content.Song{Title: "A Song", Sub: "Pop", Lyrics: "la la", Prompt: "pop, 110 BPM", ImagePrompt: "album art"}
	}
	return res
}

func fakeFallback(kind content.SectionKind) *content.SectionResult {
	res := fakeSection(kind)
	res.Fallback = true
	switch {
	case res.Song != nil:
		res.Song.Lyrics = "Unable to generate songs. Please try again."
	case res.Story != nil:
		res.Story.Text = "Unable to generate story. Please try again."
	case res.Interpretation != nil:
		res.Interpretation.Text = "Unable to generate interpretation. Please try again."
	}
	return res
}

// fakeResolver resolves any source that looks like a reference and fails
// otherwise.
type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, source string) (*verse.Resolution, error) {
	if source == "unresolvable" {
		return nil, fmt.Errorf("no verse found for %q", source)
	}
	return &verse.Resolution{
		Verse:    verse.Verse{Reference: source, Version: "NIV", Text: "For God so loved the world..."},
		CacheRef: source,
		Source:   source,
	}, nil
}

func testOrchestrator(provider content.Provider, store cache.Store) *Orchestrator {
	return NewOrchestrator(provider, providers.NewMockRenderer(), fakeResolver{}, store, slog.Default())
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("event stream did not terminate; got %d events", len(out))
		}
	}
}

func states(events []Event) []State {
	out := make([]State, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.State)
	}
	return out
}

func indexOf(events []Event, state State) int {
	for i, ev := range events {
		if ev.State == state {
			return i
		}
	}
	return -1
}

func TestGenerateMissThenHit(t *testing.T) {
	store := cache.NewMemoryStore()
	provider := &fakeProvider{}
	o := testOrchestrator(provider, store)
	ctx := context.Background()
	profile := content.Profile{AgeRange: "adult", LifeSituation: "general"}

	events := collect(t, o.Generate(ctx, "John 3:16", profile))

	for _, want := range []State{StateResolvingSource, StateGenerating, StateCoreReady, StateAllReady, StateCached} {
		if indexOf(events, want) == -1 {
			t.Fatalf("missing state %s in %v", want, states(events))
		}
	}
	if indexOf(events, StateCoreReady) > indexOf(events, StateAllReady) {
		t.Fatalf("core ready after all ready: %v", states(events))
	}

	final := events[indexOf(events, StateAllReady)]
	if final.Key != "john_3:16_adult_general" {
		t.Fatalf("unexpected cache key: %s", final.Key)
	}
	if !final.Bundle.Complete() {
		t.Fatal("final bundle should be complete")
	}
	if final.Bundle.HeroImage == "" {
		t.Fatal("hero image not attached")
	}
	for i, item := range final.Bundle.Imagery {
		if item.Image == "" {
			t.Fatalf("imagery item %d has no image", i)
		}
	}

	callsAfterMiss := provider.calls.Load()
	if callsAfterMiss != 8 {
		t.Fatalf("expected 8 section calls, got %d", callsAfterMiss)
	}

	// Second identical request must serve the cached bundle without any
	// generation call.
	hit := collect(t, o.Generate(ctx, "John 3:16", profile))
	if got := states(hit); len(got) != 2 || got[0] != StateResolvingSource || got[1] != StateCacheHit {
		t.Fatalf("unexpected hit states: %v", got)
	}
	if provider.calls.Load() != callsAfterMiss {
		t.Fatalf("cache hit triggered %d extra calls", provider.calls.Load()-callsAfterMiss)
	}
	if hit[1].Bundle.Interpretation == "" {
		t.Fatal("cached bundle missing interpretation")
	}
}

func TestGenerateCoreReadyBeforeSlowSections(t *testing.T) {
	store := cache.NewMemoryStore()
	provider := &fakeProvider{delay: map[content.SectionKind]time.Duration{
		content.KindSongs:   150 * time.Millisecond,
		content.KindImagery: 150 * time.Millisecond,
	}}
	o := testOrchestrator(provider, store)

	start := time.Now()
	var coreAt, allAt time.Duration
	for ev := range o.Generate(context.Background(), "Psalm 23:1", content.Profile{AgeRange: "adult"}) {
		switch ev.State {
		case StateCoreReady:
			coreAt = time.Since(start)
			if ev.Bundle.Interpretation == "" || ev.Bundle.HeroImage == "" {
				t.Fatal("core-ready bundle missing core content")
			}
		case StateAllReady:
			allAt = time.Since(start)
		}
	}
	if coreAt == 0 || allAt == 0 {
		t.Fatal("missing core or all ready events")
	}
	if coreAt >= allAt {
		t.Fatalf("core ready (%v) should precede all ready (%v)", coreAt, allAt)
	}
}

func TestGenerateSectionFailureStillCompletes(t *testing.T) {
	store := cache.NewMemoryStore()
	provider := &fakeProvider{fail: map[content.SectionKind]bool{content.KindSongs: true}}
	o := testOrchestrator(provider, store)

	events := collect(t, o.Generate(context.Background(), "John 3:16", content.Profile{AgeRange: "adult"}))

	allIdx := indexOf(events, StateAllReady)
	if allIdx == -1 {
		t.Fatalf("session never reached all ready: %v", states(events))
	}
	bundle := events[allIdx].Bundle
	if bundle.Songs == nil || !strings.Contains(bundle.Songs.Lyrics, "Unable to generate") {
		t.Fatalf("expected fallback song, got %+v", bundle.Songs)
	}
	if bundle.Interpretation == "" {
		t.Fatal("other sections should be unaffected by the songs failure")
	}
	if indexOf(events, StateFailed) != -1 {
		t.Fatal("section failure must not fail the session")
	}
}

func TestGenerateResolutionFailureIsFatal(t *testing.T) {
	store := cache.NewMemoryStore()
	provider := &fakeProvider{}
	o := testOrchestrator(provider, store)

	events := collect(t, o.Generate(context.Background(), "unresolvable", content.Profile{}))

	if got := states(events); len(got) != 2 || got[1] != StateFailed {
		t.Fatalf("unexpected states: %v", got)
	}
	if events[1].Error == "" {
		t.Fatal("failed event should carry the error")
	}
	if provider.calls.Load() != 0 {
		t.Fatal("no section call should fire after a fatal resolution")
	}
	keys, _ := store.Keys(context.Background())
	if len(keys) != 0 {
		t.Fatalf("nothing should be cached: %v", keys)
	}
}

func TestGeneratePairOrderingInvariant(t *testing.T) {
	// The historical story and classic-form poem land first; index 0 must
	// still be the contemporary story and classic poem.
	store := cache.NewMemoryStore()
	provider := &fakeProvider{delay: map[content.SectionKind]time.Duration{
		content.KindStoryContemporary: 80 * time.Millisecond,
		content.KindPoemClassic:       80 * time.Millisecond,
	}}
	o := testOrchestrator(provider, store)

	events := collect(t, o.Generate(context.Background(), "John 3:16", content.Profile{AgeRange: "adult"}))
	bundle := events[indexOf(events, StateAllReady)].Bundle

	if bundle.Stories[0].Title != "Contemporary Story" || bundle.Stories[1].Title != "Historical Story" {
		t.Fatalf("story pair out of order: %q, %q", bundle.Stories[0].Title, bundle.Stories[1].Title)
	}
	if bundle.Poetry[0].Title != "Classic Poem" || bundle.Poetry[1].Title != "Free Verse Poem" {
		t.Fatalf("poetry pair out of order: %q, %q", bundle.Poetry[0].Title, bundle.Poetry[1].Title)
	}
}

func TestLookupEvictsIncompleteEntries(t *testing.T) {
	store := cache.NewMemoryStore()
	o := testOrchestrator(&fakeProvider{}, store)
	ctx := context.Background()

	key := cache.Key("John 3:16", "adult", "general")
	// An entry missing its hero image must be evicted on read.
	partial := newBundle(verse.Verse{Reference: "John 3:16"}, content.Profile{})
	partial.Interpretation = "text"
	data, err := partial.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		t.Fatalf("put: %v", err)
	}

	if _, err := o.Lookup(ctx, key); err != cache.ErrNotFound {
		t.Fatalf("expected ErrNotFound for incomplete entry, got %v", err)
	}
	if _, err := store.Get(ctx, key); err != cache.ErrNotFound {
		t.Fatal("incomplete entry should have been deleted")
	}
}

func TestGenerateImageFailureIsolation(t *testing.T) {
	store := cache.NewMemoryStore()
	renderer := providers.NewMockRenderer()
	renderer.FailFor = map[string]bool{"water": true}
	o := NewOrchestrator(&fakeProvider{}, renderer, fakeResolver{}, store, slog.Default())

	events := collect(t, o.Generate(context.Background(), "John 3:16", content.Profile{AgeRange: "adult"}))
	bundle := events[indexOf(events, StateAllReady)].Bundle

	var placeholders, rendered int
	for _, item := range bundle.Imagery {
		switch {
		case item.Image == "":
			t.Fatalf("imagery item %q has no image", item.Title)
		case strings.Contains(item.Image, "/placeholder.svg"):
			placeholders++
		default:
			rendered++
		}
	}
	if placeholders != 1 || rendered != 3 {
		t.Fatalf("expected 1 placeholder and 3 rendered images, got %d and %d", placeholders, rendered)
	}
	if indexOf(events, StateCached) == -1 {
		t.Fatalf("bundle with a placeholder image should still cache: %v", states(events))
	}
}

func TestGenerateContextRenderFailureStillCaches(t *testing.T) {
	store := cache.NewMemoryStore()
	renderer := providers.NewMockRenderer()
	renderer.FailFor = map[string]bool{"context scene": true}
	o := NewOrchestrator(&fakeProvider{}, renderer, fakeResolver{}, store, slog.Default())
	ctx := context.Background()

	events := collect(t, o.Generate(ctx, "John 3:16", content.Profile{AgeRange: "adult", LifeSituation: "general"}))

	allIdx := indexOf(events, StateAllReady)
	if allIdx == -1 {
		t.Fatalf("session never reached all ready: %v", states(events))
	}
	if img := events[allIdx].Bundle.ContextImage; !strings.Contains(img, "/placeholder.svg") {
		t.Fatalf("context image = %q, want placeholder", img)
	}
	if indexOf(events, StateCached) == -1 {
		t.Fatalf("session never cached: %v", states(events))
	}

	cached, err := o.Lookup(ctx, "john_3:16_adult_general")
	if err != nil {
		t.Fatalf("lookup cached bundle: %v", err)
	}
	if !strings.Contains(cached.ContextImage, "/placeholder.svg") {
		t.Fatalf("cached context image = %q, want placeholder", cached.ContextImage)
	}
}

func TestGenerateStalledSectionNeverCaches(t *testing.T) {
	store := cache.NewMemoryStore()
	provider := &fakeProvider{delay: map[content.SectionKind]time.Duration{
		content.KindSongs: time.Hour,
	}}
	o := testOrchestrator(provider, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := o.Generate(ctx, "John 3:16", content.Profile{AgeRange: "adult"})

	// Everything except songs settles; the session must hold its single
	// cache write until the stalled section resolves.
	timeout := time.After(10 * time.Second)
	for sawCore := false; !sawCore; {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("stream ended before core ready")
			}
			if ev.State == StateCoreReady {
				sawCore = true
			}
		case <-timeout:
			t.Fatal("never reached core ready")
		}
	}
	keys, err := store.Keys(context.Background())
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("stalled session wrote to cache: %v", keys)
	}

	cancel()
	for ev := range events {
		if ev.State == StateCached {
			t.Fatal("canceled session must not cache")
		}
	}
	keys, err = store.Keys(context.Background())
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("canceled session wrote to cache: %v", keys)
	}
}

func TestGenerateEmptyHeroPromptSkipsRender(t *testing.T) {
	store := cache.NewMemoryStore()
	renderer := providers.NewMockRenderer()
	var mu sync.Mutex
	var prompts []string
	renderer.URLFunc = func(prompt string) string {
		mu.Lock()
		prompts = append(prompts, prompt)
		mu.Unlock()
		return "https://img.mock/" + prompt + ".png"
	}
	o := NewOrchestrator(&fakeProvider{bareHero: true}, renderer, fakeResolver{}, store, slog.Default())

	events := collect(t, o.Generate(context.Background(), "John 3:16", content.Profile{AgeRange: "adult"}))

	allIdx := indexOf(events, StateAllReady)
	if allIdx == -1 {
		t.Fatalf("session never reached all ready: %v", states(events))
	}
	if img := events[allIdx].Bundle.HeroImage; !strings.Contains(img, "/placeholder.svg") {
		t.Fatalf("hero image = %q, want placeholder", img)
	}
	if indexOf(events, StateCached) == -1 {
		t.Fatalf("session never cached: %v", states(events))
	}

	mu.Lock()
	defer mu.Unlock()
	for _, prompt := range prompts {
		if prompt == "" {
			t.Fatal("renderer was called with an empty prompt")
		}
	}
}
