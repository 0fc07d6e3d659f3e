// Package cache stores assembled devotional bundles keyed by verse and
// reader demographics. Entries are global rather than per-user: two readers
// with the same age range and life situation viewing the same verse share
// one entry. Entries never expire by age but are purged wholesale when the
// format version changes.
package cache

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Version is the cache format version. Bump it whenever the bundle layout
// changes; all entries under older versions are purged at startup.
const Version = "v1"

// ErrNotFound is returned by Get when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Store is a versioned key-value store for serialized bundles.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the entry under the current version, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes an entry under the current version.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes an entry. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys under the current version.
	Keys(ctx context.Context) ([]string, error)

	// Purge removes every entry under the current version.
	Purge(ctx context.Context) error

	// PurgeStaleVersions removes every entry written under a version other
	// than the current one. Called eagerly at startup, never lazily.
	PurgeStaleVersions(ctx context.Context) error
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Key derives the deterministic cache key for a verse (or theme reference)
// and demographic profile. Same inputs always produce the same key;
// changing any one of reference, age range, or life situation changes it.
func Key(reference, ageRange, lifeSituation string) string {
	if ageRange == "" {
		ageRange = "adult"
	}
	if lifeSituation == "" {
		lifeSituation = "general"
	}
	return normalize(reference) + "_" + normalize(ageRange) + "_" + normalize(lifeSituation)
}

// normalize lower-cases and collapses whitespace runs to underscores.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRun.ReplaceAllString(s, "_")
}
