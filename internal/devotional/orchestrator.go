package devotional

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/selahapp/selah/internal/cache"
	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/providers"
	"github.com/selahapp/selah/internal/verse"
)

// State is one stage of a generation session.
type State string

const (
	StateResolvingSource State = "resolving_source"
	StateCacheHit        State = "cache_hit"
	StateGenerating      State = "generating"
	StateCoreReady       State = "core_ready"
	StateAllReady        State = "all_ready"
	StateCached          State = "cached"
	StateFailed          State = "failed"
)

// Event is one progress update delivered to the caller. Bundle is a
// snapshot safe to read while generation continues.
type Event struct {
	State  State   `json:"state"`
	Key    string  `json:"key,omitempty"`
	Bundle *Bundle `json:"bundle,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// SourceResolver resolves a requested source into a concrete verse.
type SourceResolver interface {
	Resolve(ctx context.Context, source string) (*verse.Resolution, error)
}

// Orchestrator runs devotional generation sessions: resolve the verse,
// check the cache, fan out every section call concurrently, attach images
// as they land, and write the finished bundle back to the cache.
type Orchestrator struct {
	provider content.Provider
	renderer providers.ImageRenderer
	resolver SourceResolver
	store    cache.Store
	logger   *slog.Logger
}

// NewOrchestrator wires an orchestrator. Stale cache versions are purged
// eagerly at startup, not lazily on read.
func NewOrchestrator(provider content.Provider, renderer providers.ImageRenderer, resolver SourceResolver, store cache.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if err := store.PurgeStaleVersions(context.Background()); err != nil {
		logger.Warn("purging stale cache versions", "error", err)
	}
	return &Orchestrator{
		provider: provider,
		renderer: renderer,
		resolver: resolver,
		store:    store,
		logger:   logger,
	}
}

// Generate starts a session and returns its event stream. The channel
// closes after the terminal event (Cached, CacheHit, or Failed). Verse
// resolution is the only fatal path: every section failure degrades to a
// fallback payload and the session still completes.
func (o *Orchestrator) Generate(ctx context.Context, source string, profile content.Profile) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.run(ctx, source, profile, events)
	}()
	return events
}

// Lookup reads a cached bundle by its key, evicting incomplete entries.
func (o *Orchestrator) Lookup(ctx context.Context, key string) (*Bundle, error) {
	data, err := o.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	bundle, err := UnmarshalBundle(data)
	if err != nil || !bundle.Complete() {
		o.logger.Warn("evicting incomplete cached bundle", "key", key)
		if delErr := o.store.Delete(ctx, key); delErr != nil {
			o.logger.Warn("evicting cached bundle", "key", key, "error", delErr)
		}
		return nil, cache.ErrNotFound
	}
	return bundle, nil
}

func (o *Orchestrator) run(ctx context.Context, source string, profile content.Profile, events chan<- Event) {
	emit := func(ev Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	emit(Event{State: StateResolvingSource})
	resolution, err := o.resolver.Resolve(ctx, source)
	if err != nil {
		o.logger.Error("verse resolution failed", "source", source, "error", err)
		emit(Event{State: StateFailed, Error: fmt.Sprintf("resolving verse: %v", err)})
		return
	}

	key := cache.Key(resolution.CacheRef, profile.AgeRange, profile.LifeSituation)
	if bundle, err := o.Lookup(ctx, key); err == nil {
		o.logger.Info("cache hit", "key", key)
		emit(Event{State: StateCacheHit, Key: key, Bundle: bundle})
		return
	} else if !errors.Is(err, cache.ErrNotFound) {
		o.logger.Warn("cache read failed", "key", key, "error", err)
	}

	s := &session{
		orchestrator: o,
		profile:      profile,
		key:          key,
		bundle:       newBundle(resolution.Verse, profile),
		emit:         emit,
	}
	s.tracker = NewTracker(s.onCoreReady, s.onAllReady)

	o.logger.Info("generating devotional", "key", key, "verse", resolution.Verse.Reference)
	emit(Event{State: StateGenerating, Key: key, Bundle: s.bundle.snapshot()})
	s.generate(ctx)
}

// session owns the in-flight state of one generation. All bundle mutation
// is serialized through mu; every update is a merge-and-replace that runs
// to completion before the next.
type session struct {
	orchestrator *Orchestrator
	profile      content.Profile
	key          string
	tracker      *Tracker
	emit         func(Event)

	mu     sync.Mutex
	bundle *Bundle
}

func (s *session) generate(ctx context.Context) {
	var wg sync.WaitGroup
	run := func(f func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(ctx)
		}()
	}

	run(s.interpretationGroup)
	run(s.contextGroup)
	run(func(ctx context.Context) {
		s.pairGroup(ctx, FlagStories, content.KindStoryContemporary, content.KindStoryHistorical)
	})
	run(func(ctx context.Context) {
		s.pairGroup(ctx, FlagPoetry, content.KindPoemClassic, content.KindPoemFreeVerse)
	})
	run(s.imageryGroup)
	run(s.songsGroup)

	wg.Wait()
}

func (s *session) generateSection(ctx context.Context, kind content.SectionKind) *content.SectionResult {
	res, err := s.orchestrator.provider.GenerateSection(ctx, &content.Request{
		Kind:           kind,
		VerseReference: s.bundle.Verse.Reference,
		VerseText:      s.bundle.Verse.Text,
		Profile:        s.profile,
	})
	if err != nil {
		// Providers resolve failures to fallbacks themselves; this path
		// covers broken provider implementations.
		s.orchestrator.logger.Error("section call errored", "kind", kind, "error", err)
		return &content.SectionResult{Kind: kind, Fallback: true}
	}
	return res
}

func (s *session) merge(res *content.SectionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bundle.merge(res); err != nil {
		s.orchestrator.logger.Error("merging section", "kind", res.Kind, "error", err)
	}
}

func (s *session) attach(ctx context.Context, jobs []imageJob, set func(index int, url string)) {
	attachImages(ctx, s.orchestrator.renderer, s.profile.AgeRange, jobs, func(index int, url string) {
		s.mu.Lock()
		set(index, url)
		s.mu.Unlock()
	})
}

func (s *session) interpretationGroup(ctx context.Context) {
	res := s.generateSection(ctx, content.KindInterpretation)
	if res.Interpretation == nil {
		s.tracker.MarkDone(FlagInterpretation)
		s.tracker.MarkDone(FlagHeroImage)
		return
	}
	s.merge(res)
	s.tracker.MarkDone(FlagInterpretation)

	// An empty prompt would only buy a junk render; take the placeholder
	// without a renderer round trip.
	if res.Interpretation.HeroImagePrompt == "" {
		s.mu.Lock()
		s.bundle.HeroImage = providers.PlaceholderURL(s.bundle.Verse.Reference, heroImageWidth, heroImageHeight)
		s.mu.Unlock()
		s.tracker.MarkDone(FlagHeroImage)
		return
	}
	jobs := []imageJob{{Prompt: res.Interpretation.HeroImagePrompt, Width: heroImageWidth, Height: heroImageHeight}}
	s.attach(ctx, jobs, func(_ int, url string) {
		s.bundle.HeroImage = url
	})
	s.tracker.MarkDone(FlagHeroImage)
}

func (s *session) contextGroup(ctx context.Context) {
	res := s.generateSection(ctx, content.KindContext)
	if res.Context == nil {
		s.tracker.MarkDone(FlagContext)
		return
	}
	s.merge(res)
	jobs := []imageJob{{Prompt: res.Context.ImagePrompt, Width: sectionImageSize, Height: sectionImageSize}}
	s.attach(ctx, jobs, func(_ int, url string) {
		s.bundle.ContextImage = url
	})
	s.tracker.MarkDone(FlagContext)
}

// pairGroup runs both calls of a paired section concurrently, merges each
// into its fixed slot as it lands, then attaches both images.
func (s *session) pairGroup(ctx context.Context, flag Flag, first, second content.SectionKind) {
	var wg sync.WaitGroup
	for _, kind := range []content.SectionKind{first, second} {
		wg.Add(1)
		go func(kind content.SectionKind) {
			defer wg.Done()
			res := s.generateSection(ctx, kind)
			if res.Story == nil && res.Poem == nil {
				return
			}
			s.merge(res)
		}(kind)
	}
	wg.Wait()

	var jobs []imageJob
	s.mu.Lock()
	if flag == FlagStories {
		for i, story := range s.bundle.Stories {
			if story.ImagePrompt != "" {
				jobs = append(jobs, imageJob{Index: i, Prompt: story.ImagePrompt, Width: sectionImageSize, Height: sectionImageSize})
			}
		}
	} else {
		for i, poem := range s.bundle.Poetry {
			if poem.ImagePrompt != "" {
				jobs = append(jobs, imageJob{Index: i, Prompt: poem.ImagePrompt, Width: sectionImageSize, Height: sectionImageSize})
			}
		}
	}
	s.mu.Unlock()

	s.attach(ctx, jobs, func(index int, url string) {
		if flag == FlagStories {
			s.bundle.Stories[index].Image = url
		} else {
			s.bundle.Poetry[index].Image = url
		}
	})
	s.tracker.MarkDone(flag)
}

func (s *session) imageryGroup(ctx context.Context) {
	res := s.generateSection(ctx, content.KindImagery)
	if res.Imagery == nil {
		s.tracker.MarkDone(FlagImagery)
		return
	}
	s.merge(res)

	jobs := make([]imageJob, 0, len(res.Imagery))
	for i, item := range res.Imagery {
		jobs = append(jobs, imageJob{Index: i, Prompt: item.ImagePrompt, Width: sectionImageSize, Height: sectionImageSize})
	}
	s.attach(ctx, jobs, func(index int, url string) {
		s.bundle.Imagery[index].Image = url
	})
	s.tracker.MarkDone(FlagImagery)
}

func (s *session) songsGroup(ctx context.Context) {
	res := s.generateSection(ctx, content.KindSongs)
	if res.Song == nil {
		s.tracker.MarkDone(FlagSongs)
		return
	}
	s.merge(res)
	jobs := []imageJob{{Prompt: res.Song.ImagePrompt, Width: sectionImageSize, Height: sectionImageSize}}
	s.attach(ctx, jobs, func(_ int, url string) {
		s.bundle.Songs.Image = url
	})
	s.tracker.MarkDone(FlagSongs)
}

func (s *session) snapshot() *Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bundle.snapshot()
}

func (s *session) onCoreReady() {
	s.emit(Event{State: StateCoreReady, Key: s.key, Bundle: s.snapshot()})
}

// onAllReady emits the finished bundle and performs the single cache write
// of the session. Two sessions racing on the same key overwrite each other
// with equivalent bundles, which is acceptable.
func (s *session) onAllReady() {
	bundle := s.snapshot()
	s.emit(Event{State: StateAllReady, Key: s.key, Bundle: bundle})

	if !bundle.Complete() {
		s.orchestrator.logger.Warn("bundle incomplete, skipping cache write", "key", s.key)
		return
	}
	data, err := bundle.Marshal()
	if err != nil {
		s.orchestrator.logger.Error("marshaling bundle for cache", "key", s.key, "error", err)
		return
	}
	if err := s.orchestrator.store.Put(context.Background(), s.key, data); err != nil {
		s.orchestrator.logger.Error("writing bundle to cache", "key", s.key, "error", err)
		return
	}
	s.orchestrator.logger.Info("bundle cached", "key", s.key)
	s.emit(Event{State: StateCached, Key: s.key})
}
