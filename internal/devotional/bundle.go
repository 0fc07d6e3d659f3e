package devotional

import (
	"encoding/json"
	"fmt"

	"github.com/selahapp/selah/internal/content"
	"github.com/selahapp/selah/internal/verse"
)

// Bundle is the complete devotional payload for one verse and profile.
// Stories and poetry occupy fixed pair slots: index 0 is always the
// contemporary story / classic poem.
type Bundle struct {
	Verse   verse.Verse     `json:"verse"`
	Profile content.Profile `json:"profile"`

	Interpretation  string `json:"interpretation"`
	HeroImagePrompt string `json:"heroImagePrompt,omitempty"`
	HeroImage       string `json:"heroImage,omitempty"`

	Context            content.VerseContext  `json:"context"`
	ContextImagePrompt string                `json:"contextImagePrompt,omitempty"`
	ContextImage       string                `json:"contextImage,omitempty"`
	Stories            []content.Story       `json:"stories"`
	Poetry             []content.Poem        `json:"poetry"`
	Imagery            []content.ImageryItem `json:"imagery"`
	Songs              *content.Song         `json:"songs,omitempty"`
}

// newBundle initializes a bundle with the pair slots allocated.
func newBundle(v verse.Verse, profile content.Profile) *Bundle {
	return &Bundle{
		Verse:   v,
		Profile: profile,
		Stories: make([]content.Story, 2),
		Poetry:  make([]content.Poem, 2),
	}
}

// merge folds one section result into the bundle. Callers serialize merges;
// the bundle itself carries no lock.
func (b *Bundle) merge(res *content.SectionResult) error {
	switch res.Kind {
	case content.KindInterpretation:
		b.Interpretation = res.Interpretation.Text
		b.HeroImagePrompt = res.Interpretation.HeroImagePrompt
	case content.KindContext:
		b.Context = res.Context.Context
		b.ContextImagePrompt = res.Context.ImagePrompt
	case content.KindStoryContemporary, content.KindStoryHistorical:
		b.Stories[content.PairIndex(res.Kind)] = *res.Story
	case content.KindPoemClassic, content.KindPoemFreeVerse:
		b.Poetry[content.PairIndex(res.Kind)] = *res.Poem
	case content.KindImagery:
		b.Imagery = res.Imagery
	case content.KindSongs:
		b.Songs = res.Song
	default:
		return fmt.Errorf("unknown section kind %q", res.Kind)
	}
	return nil
}

// snapshot returns a deep enough copy for safe use outside the merge lock.
func (b *Bundle) snapshot() *Bundle {
	out := *b
	out.Stories = append([]content.Story(nil), b.Stories...)
	out.Poetry = append([]content.Poem(nil), b.Poetry...)
	out.Imagery = append([]content.ImageryItem(nil), b.Imagery...)
	if b.Songs != nil {
		song := *b.Songs
		out.Songs = &song
	}
	return &out
}

// Complete reports whether the bundle carries everything a cached entry
// must have: interpretation text, hero image, and an image on every story
// and poem. Incomplete cached entries are evicted rather than served.
func (b *Bundle) Complete() bool {
	if b.Interpretation == "" || b.HeroImage == "" {
		return false
	}
	if len(b.Stories) != 2 || len(b.Poetry) != 2 {
		return false
	}
	for _, s := range b.Stories {
		if s.Text == "" || s.Image == "" {
			return false
		}
	}
	for _, p := range b.Poetry {
		if p.Text == "" || p.Image == "" {
			return false
		}
	}
	return b.Songs != nil && len(b.Imagery) > 0
}

// Marshal encodes the bundle for the cache store.
func (b *Bundle) Marshal() ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshaling bundle: %w", err)
	}
	return data, nil
}

// UnmarshalBundle decodes a cached bundle.
func UnmarshalBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("unmarshaling bundle: %w", err)
	}
	return &b, nil
}
