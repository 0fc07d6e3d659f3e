// Package devotional assembles personalized devotional bundles. The
// orchestrator fans out every section generation concurrently, attaches
// images as they resolve, and reveals core content early while the rest of
// the bundle is still loading.
package devotional

import "sync"

// Flag names one tracked unit of bundle completion.
type Flag string

const (
	FlagInterpretation Flag = "interpretation"
	FlagHeroImage      Flag = "heroImage"
	FlagContext        Flag = "context"
	FlagStories        Flag = "stories"
	FlagPoetry         Flag = "poetry"
	FlagImagery        Flag = "imagery"
	FlagSongs          Flag = "songs"
)

// Flags lists every tracked flag.
func Flags() []Flag {
	return []Flag{
		FlagInterpretation,
		FlagHeroImage,
		FlagContext,
		FlagStories,
		FlagPoetry,
		FlagImagery,
		FlagSongs,
	}
}

// coreFlags must all be done before the core-ready signal fires.
var coreFlags = []Flag{FlagInterpretation, FlagHeroImage}

// Tracker observes the fan-out of generation calls and derives two
// edge-triggered readiness signals: core ready (interpretation + hero image)
// and all ready (every flag). Each callback fires exactly once per session
// no matter how completions arrive or repeat.
type Tracker struct {
	mu        sync.Mutex
	done      map[Flag]bool
	coreFired bool
	allFired  bool

	onCoreReady func()
	onAllReady  func()
}

// NewTracker creates a tracker with all flags pending. Either callback may
// be nil.
func NewTracker(onCoreReady, onAllReady func()) *Tracker {
	return &Tracker{
		done:        make(map[Flag]bool, len(Flags())),
		onCoreReady: onCoreReady,
		onAllReady:  onAllReady,
	}
}

// MarkDone records completion of a flag. Marking an already-done flag is a
// no-op. Callbacks run on the caller's goroutine, outside the tracker lock,
// core before all when one call trips both.
func (t *Tracker) MarkDone(flag Flag) {
	t.mu.Lock()
	if t.done[flag] {
		t.mu.Unlock()
		return
	}
	t.done[flag] = true

	fireCore := !t.coreFired && t.coreReadyLocked()
	if fireCore {
		t.coreFired = true
	}
	fireAll := !t.allFired && t.allReadyLocked()
	if fireAll {
		t.allFired = true
	}
	t.mu.Unlock()

	if fireCore && t.onCoreReady != nil {
		t.onCoreReady()
	}
	if fireAll && t.onAllReady != nil {
		t.onAllReady()
	}
}

// Done reports whether a flag has completed.
func (t *Tracker) Done(flag Flag) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done[flag]
}

// CoreReady reports whether interpretation and hero image are both done.
func (t *Tracker) CoreReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.coreReadyLocked()
}

// AllReady reports whether every flag is done.
func (t *Tracker) AllReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allReadyLocked()
}

func (t *Tracker) coreReadyLocked() bool {
	for _, flag := range coreFlags {
		if !t.done[flag] {
			return false
		}
	}
	return true
}

func (t *Tracker) allReadyLocked() bool {
	for _, flag := range Flags() {
		if !t.done[flag] {
			return false
		}
	}
	return true
}
