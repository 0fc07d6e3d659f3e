// Package content generates the individual sections of a devotional bundle.
// Each section kind is an independent, stateless call against an LLM provider;
// failures always resolve to clearly labeled fallback payloads so callers never
// have to special-case a broken section.
package content

import "context"

// SectionKind identifies one generation call.
type SectionKind string

const (
	KindInterpretation    SectionKind = "interpretation"
	KindContext           SectionKind = "context"
	KindStoryContemporary SectionKind = "story_contemporary"
	KindStoryHistorical   SectionKind = "story_historical"
	KindPoemClassic       SectionKind = "poem_classic"
	KindPoemFreeVerse     SectionKind = "poem_freeverse"
	KindImagery           SectionKind = "imagery"
	KindSongs             SectionKind = "songs"
)

// Kinds lists every section kind in the order sections appear in a bundle.
func Kinds() []SectionKind {
	return []SectionKind{
		KindInterpretation,
		KindContext,
		KindStoryContemporary,
		KindStoryHistorical,
		KindPoemClassic,
		KindPoemFreeVerse,
		KindImagery,
		KindSongs,
	}
}

// PairIndex returns the fixed array position for paired kinds: the
// contemporary story and classic poem always occupy index 0 and the
// historical story and free-verse poem index 1, regardless of which call
// finishes first. Non-paired kinds return -1.
func PairIndex(kind SectionKind) int {
	switch kind {
	case KindStoryContemporary, KindPoemClassic:
		return 0
	case KindStoryHistorical, KindPoemFreeVerse:
		return 1
	default:
		return -1
	}
}

// Profile carries the reader demographics that condition generation.
type Profile struct {
	AgeRange      string `json:"ageRange"`
	Gender        string `json:"gender,omitempty"`
	LifeSituation string `json:"lifeSituation"`
	ContentStyle  string `json:"contentStyle,omitempty"`
	Language      string `json:"language,omitempty"`
}

// Request is the input to a single section generation call.
type Request struct {
	Kind           SectionKind
	VerseReference string
	VerseText      string
	Profile        Profile
}

// Interpretation is the core reflection plus the hero image prompt.
type Interpretation struct {
	Text            string `json:"text"`
	HeroImagePrompt string `json:"heroImagePrompt"`
}

// Story is one narrative, contemporary or historical.
type Story struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"`
	Image       string `json:"image,omitempty"`
}

// Poem is one poem, classic-form or free verse.
type Poem struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt"`
	Image       string `json:"image,omitempty"`
}

// ImageryItem is one symbol or image unpacked from the verse.
type ImageryItem struct {
	Title       string `json:"title"`
	Sub         string `json:"sub"`
	Icon        string `json:"icon"`
	ImagePrompt string `json:"imagePrompt"`
	Image       string `json:"image,omitempty"`
}

// Song is the single generated song for a bundle.
type Song struct {
	Title       string `json:"title"`
	Sub         string `json:"sub"`
	Lyrics      string `json:"lyrics"`
	Prompt      string `json:"prompt"`
	ImagePrompt string `json:"imagePrompt"`
	Image       string `json:"image,omitempty"`
}

// VerseContext holds the historical-context paragraphs.
type VerseContext struct {
	WhoIsSpeaking      string `json:"whoIsSpeaking"`
	OriginalListeners  string `json:"originalListeners"`
	WhyTheConversation string `json:"whyTheConversation"`
	Setting            string `json:"setting"`
	HistoricalBackdrop string `json:"historicalBackdrop"`
	ImmediateImpact    string `json:"immediateImpact"`
	LongTermImpact     string `json:"longTermImpact"`
}

// ContextSection pairs the context paragraphs with their image prompt.
type ContextSection struct {
	Context     VerseContext `json:"context"`
	ImagePrompt string       `json:"contextImagePrompt"`
	Image       string       `json:"contextImage,omitempty"`
}

// SectionResult is the outcome of one generation call. Exactly one payload
// field matching Kind is populated. Fallback marks a payload substituted
// after a generation or parse failure.
type SectionResult struct {
	Kind     SectionKind
	Fallback bool

	Interpretation *Interpretation
	Context        *ContextSection
	Story          *Story
	Poem           *Poem
	Imagery        []ImageryItem
	Song           *Song
}

// ChatTurn is one prior exchange in a chat conversation.
type ChatTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// ChatRequest asks the verse-scoped study companion a question.
type ChatRequest struct {
	Message        string     `json:"message"`
	VerseReference string     `json:"verseReference"`
	VerseText      string     `json:"verseText"`
	History        []ChatTurn `json:"history,omitempty"`
}

// Provider generates devotional sections and answers chat messages.
type Provider interface {
	GenerateSection(ctx context.Context, req *Request) (*SectionResult, error)
	Chat(ctx context.Context, req *ChatRequest) (string, error)
}
