package content

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/selahapp/selah/internal/jsonrepair"
	"github.com/selahapp/selah/internal/providers"
)

// Generator is the LLM-backed Provider. A generation or parse failure never
// surfaces as an error: the section resolves to a labeled fallback payload so
// the orchestrator treats every section uniformly.
type Generator struct {
	llm    providers.LLMClient
	model  string
	logger *slog.Logger
}

// NewGenerator creates a Generator on the given LLM client. An empty model
// uses the client default.
func NewGenerator(llm providers.LLMClient, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, model: model, logger: logger}
}

// GenerateSection produces one section of a devotional bundle.
func (g *Generator) GenerateSection(ctx context.Context, req *Request) (*SectionResult, error) {
	if req == nil || req.VerseReference == "" {
		return nil, fmt.Errorf("section request requires a verse reference")
	}
	switch req.Kind {
	case KindInterpretation:
		return g.generateInterpretation(ctx, req), nil
	case KindContext:
		return g.generateContext(ctx, req), nil
	case KindStoryContemporary, KindStoryHistorical:
		return g.generateStory(ctx, req), nil
	case KindPoemClassic, KindPoemFreeVerse:
		return g.generatePoem(ctx, req), nil
	case KindImagery:
		return g.generateImagery(ctx, req), nil
	case KindSongs:
		return g.generateSongs(ctx, req), nil
	default:
		return nil, fmt.Errorf("unknown section kind %q", req.Kind)
	}
}

func (g *Generator) chat(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	result, err := g.llm.Chat(ctx, &providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Model:     g.model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	return result.Content, nil
}

func (g *Generator) generateInterpretation(ctx context.Context, req *Request) *SectionResult {
	style := casualStyleInstruction
	maxTokens := 1000
	if strings.EqualFold(req.Profile.ContentStyle, "academic") {
		style = academicStyleInstruction
		maxTokens = 1500
	}

	system := fmt.Sprintf("%s\n\n%s%s\n\nNever be preachy. Never use clichés. Never tell people what they \"should\" do.",
		style, ageContextFor(interpretationAgeContext, req.Profile.AgeRange), languageNote(req.Profile.Language))

	prompt := fmt.Sprintf(`%s: "%s"

INTERPRETATION===
[Your reflection here]
===INTERPRETATION

IMAGE_PROMPT===
[Cinematic, evocative scene that captures the emotional essence of this verse. Specific, artistic, 25 words max]
===IMAGE_PROMPT`, req.VerseReference, req.VerseText)

	text, err := g.chat(ctx, system, prompt, maxTokens)
	if err != nil {
		g.logger.Warn("interpretation generation failed", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	body := delimited(text, "INTERPRETATION")
	if body == "" {
		g.logger.Warn("interpretation missing delimiters", "verse", req.VerseReference)
		return fallbackResult(req.Kind)
	}
	heroPrompt := delimited(text, "IMAGE_PROMPT")
	if heroPrompt == "" {
		heroPrompt = defaultHeroImagePrompt
	}
	return &SectionResult{
		Kind:           req.Kind,
		Interpretation: &Interpretation{Text: body, HeroImagePrompt: heroPrompt},
	}
}

const contextSystemPrompt = `You're a brilliant Bible scholar who makes history come alive. You love the details - the politics, the personalities, the drama. You write with depth and insight, not bullet points.

Each field should be a substantial paragraph (4-6 sentences) that gives real insight, not a one-liner summary. Include specific historical details, names, dates, political context, and interesting facts that illuminate the verse.`

func (g *Generator) generateContext(ctx context.Context, req *Request) *SectionResult {
	prompt := fmt.Sprintf(`Deep historical context for %s: "%s"

Return JSON only:
{
  "context": {
    "whoIsSpeaking": "Who is speaking and why their voice matters here. Give us the person, not just the title.",
    "originalListeners": "Who first heard these words? What were they going through? What did they need to hear?",
    "whyTheConversation": "What crisis, celebration, or turning point led to these words being spoken?",
    "setting": "Paint the scene vividly. Where are we? What would we see, hear, smell? What's the atmosphere?",
    "historicalBackdrop": "What's happening in the wider world? Politics, wars, empires, social conditions.",
    "immediateImpact": "How did people respond? What changed right away? Were there skeptics? Believers?",
    "longTermImpact": "How did this moment ripple through history? Why are we still talking about it?"
  },
  "contextImagePrompt": "Cinematic historical scene capturing this moment, specific and evocative, 25 words"
}`, req.VerseReference, req.VerseText)

	text, err := g.chat(ctx, contextSystemPrompt, prompt, 2500)
	if err != nil {
		g.logger.Warn("context generation failed", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	var payload ContextSection
	if err := parseValidated(text, contextSchema, &payload); err != nil {
		g.logger.Warn("context payload rejected", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}
	if payload.ImagePrompt == "" {
		payload.ImagePrompt = defaultContextImagePrompt
	}
	return &SectionResult{Kind: req.Kind, Context: &payload}
}

func (g *Generator) generateStory(ctx context.Context, req *Request) *SectionResult {
	scenario := "Modern day scenario - create a NEW original situation"
	if req.Kind == KindStoryHistorical {
		scenario = "Historical/biblical era scenario"
	}

	system := fmt.Sprintf(`You are a master storyteller creating deeply relatable, age-appropriate modern stories that connect Bible verses to real life.

%s

CRITICAL INSTRUCTION: Create a UNIQUE, ORIGINAL scenario. Do NOT repeat familiar examples.

Format your response with these delimiters:
STORY_TITLE===
[Story title here]
===STORY_TITLE

STORY_TEXT===
[Full story text here - minimum 500 words with dialogue, emotion, vivid detail]
===STORY_TEXT

STORY_IMAGE===
[Detailed image prompt matching the age and scenario]
===STORY_IMAGE`, ageContextFor(storyAgeGuidelines, req.Profile.AgeRange))

	langNote := ""
	if req.Profile.Language != "" && req.Profile.Language != "en" {
		langNote = fmt.Sprintf("\n\nCRITICAL: Write ALL story content in %s. Only the delimiter labels should be in English.", languageName(req.Profile.Language))
	}

	prompt := fmt.Sprintf(`Create a completely unique story that brings %s: "%s" to life for someone who is %s and %s.

%s

Requirements:
- The story MUST be 500+ words
- Rich dialogue showing authentic character voice
- Deep emotional moments that readers will feel
- Vivid sensory details (what characters see, hear, feel)
- Clear connection showing how the verse speaks to the situation
- Characters that match the age range EXACTLY%s

Be creative and original - surprise me with fresh scenarios!`,
		req.VerseReference, req.VerseText, req.Profile.AgeRange, req.Profile.LifeSituation, scenario, langNote)

	text, err := g.chat(ctx, system, prompt, 4000)
	if err != nil {
		g.logger.Warn("story generation failed", "kind", req.Kind, "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	title := delimited(text, "STORY_TITLE")
	body := delimited(text, "STORY_TEXT")
	if title == "" || body == "" {
		g.logger.Warn("story missing delimiters", "kind", req.Kind, "verse", req.VerseReference)
		return fallbackResult(req.Kind)
	}
	imagePrompt := delimited(text, "STORY_IMAGE")
	if imagePrompt == "" {
		imagePrompt = defaultStoryImagePrompt(req.Kind)
	}
	return &SectionResult{
		Kind:  req.Kind,
		Story: &Story{Title: title, Text: body, ImagePrompt: imagePrompt},
	}
}

func (g *Generator) generatePoem(ctx context.Context, req *Request) *SectionResult {
	system := "You are a gifted poet who writes beautiful, emotionally resonant poetry. Your poems have proper structure with line breaks, stanzas, and poetic rhythm. Write in a warm, accessible style that touches the heart." +
		personalizationContext(req.Profile)

	form := "SONNET or HYMN STYLE"
	formRules := "- Use rhyme and rhythm"
	if req.Kind == KindPoemFreeVerse {
		form = "FREE VERSE"
		formRules = "- Free verse style (no strict rhyme required)"
	}

	prompt := fmt.Sprintf(`Generate 1 beautiful %s poem inspired by %s: "%s"

Write a REAL POEM with proper poetic structure:
- 8-16 lines total
%s
- Include stanzas
- Use poetic devices like imagery and metaphor

Respond in this EXACT format with delimiters:
TITLE===Your Poem Title Here===TITLE
TYPE===%s===TYPE
POEM===
Line one of the poem
Line two of the poem

Line three (new stanza)
Line four
===POEM
IMAGE===Ethereal artistic visual description for this poem===IMAGE`,
		form, req.VerseReference, req.VerseText, formRules, poemTypeLabel(req.Kind))

	text, err := g.chat(ctx, system, prompt, 1000)
	if err != nil {
		g.logger.Warn("poem generation failed", "kind", req.Kind, "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	body := delimited(text, "POEM")
	if body == "" {
		g.logger.Warn("poem missing delimiters", "kind", req.Kind, "verse", req.VerseReference)
		return fallbackResult(req.Kind)
	}
	poem := &Poem{
		Title:       delimited(text, "TITLE"),
		Type:        delimited(text, "TYPE"),
		Text:        body,
		ImagePrompt: delimited(text, "IMAGE"),
	}
	if poem.Title == "" {
		poem.Title = "Untitled Poem"
	}
	if poem.Type == "" {
		poem.Type = poemTypeLabel(req.Kind)
	}
	if poem.ImagePrompt == "" {
		poem.ImagePrompt = defaultPoemImagePrompt
	}
	return &SectionResult{Kind: req.Kind, Poem: poem}
}

const imagerySystemPrompt = `You're a literary scholar who loves unpacking the rich imagery in ancient texts. You see the layers - the cultural context, the emotional resonance, the unexpected connections.

For each symbol or image, give REAL insight:
- What did this image mean to the original audience?
- What associations, fears, or hopes does it tap into?
- How does it work on us emotionally and spiritually?
- What's surprising or often missed about it?

Each "sub" field should be 3-4 sentences of genuine insight, not a dictionary definition.`

func (g *Generator) generateImagery(ctx context.Context, req *Request) *SectionResult {
	prompt := fmt.Sprintf(`Unpack 4 key images, symbols, or metaphors in %s: "%s"

Choose images that reward deeper exploration. Could be obvious ones (if there's depth to uncover) or subtle ones people miss.

Return JSON only:
{
  "imagery": [
    {
      "title": "The image/symbol name",
      "sub": "3-4 sentences of real insight - cultural context, emotional resonance, what's often missed, why it matters",
      "icon": "material_icon_name",
      "imagePrompt": "Evocative artistic visualization of this symbol, painterly, emotional, NO TEXT NO WORDS NO LETTERS NO WRITING, 25 words"
    }
  ]
}
Return exactly 4 entries in the imagery array.

IMPORTANT: Every imagePrompt MUST include "NO TEXT NO WORDS NO LETTERS" to prevent any writing from appearing in the generated images.

Good icon options: auto_awesome, water_drop, spa, wb_sunny, landscape, favorite, shield, local_fire_department, air, anchor, brightness_high, park, psychology, visibility, route`,
		req.VerseReference, req.VerseText)

	text, err := g.chat(ctx, imagerySystemPrompt, prompt, 1500)
	if err != nil {
		g.logger.Warn("imagery generation failed", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	var payload struct {
		Imagery []ImageryItem `json:"imagery"`
	}
	if err := parseValidated(text, imagerySchema, &payload); err != nil {
		g.logger.Warn("imagery payload rejected", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}
	return &SectionResult{Kind: req.Kind, Imagery: payload.Imagery}
}

func (g *Generator) generateSongs(ctx context.Context, req *Request) *SectionResult {
	langNote := ""
	if req.Profile.Language != "" && req.Profile.Language != "en" {
		langNote = fmt.Sprintf(" Write lyrics in %s.", languageName(req.Profile.Language))
	}

	system := fmt.Sprintf(`You're a professional songwriter writing for mainstream artists. Your songs get radio play - they're catchy, emotional, and well-crafted.

%s

SONGWRITING RULES:
- NO hymn language (thee/thou/thy/hath)
- NO cheesy clichés
- Hook should be memorable, singable, sticky
- Verses tell a story or paint a picture
- Pre-chorus builds tension
- Chorus releases with emotional punch
- Bridge offers a twist or deeper moment
- Professional structure: Verse/Pre/Chorus/Verse/Pre/Chorus/Bridge/Chorus
- 3-4 minute song length when performed%s

The spiritual truth should be woven in naturally - not preachy, just real. Think "Viva La Vida" not "Amazing Grace."`,
		ageContextFor(songStyleGuide, req.Profile.AgeRange), langNote)

	prompt := fmt.Sprintf(`Write a radio-ready song inspired by %s: "%s"

TITLE===
[Catchy, intriguing title - could chart]
===TITLE

SUBTITLE===
[Genre/style descriptor]
===SUBTITLE

LYRICS===
[Full song with clear structure: verses, pre-choruses, choruses, a bridge, final chorus]
===LYRICS

AUDIO_PROMPT===
[Detailed audio generation prompt: specific genre, tempo BPM, instruments, production style, mood, vocal style - 40 words]
===AUDIO_PROMPT

IMAGE_PROMPT===
[Album art: modern, streaming-worthy, cinematic - 25 words]
===IMAGE_PROMPT`, req.VerseReference, req.VerseText)

	text, err := g.chat(ctx, system, prompt, 1800)
	if err != nil {
		g.logger.Warn("songs generation failed", "verse", req.VerseReference, "error", err)
		return fallbackResult(req.Kind)
	}

	title := delimited(text, "TITLE")
	lyrics := delimited(text, "LYRICS")
	if title == "" || lyrics == "" {
		g.logger.Warn("songs missing delimiters", "verse", req.VerseReference)
		return fallbackResult(req.Kind)
	}
	song := &Song{
		Title:       title,
		Sub:         delimited(text, "SUBTITLE"),
		Lyrics:      lyrics,
		Prompt:      delimited(text, "AUDIO_PROMPT"),
		ImagePrompt: delimited(text, "IMAGE_PROMPT"),
	}
	if song.Sub == "" {
		song.Sub = "Contemporary Pop"
	}
	if song.Prompt == "" {
		song.Prompt = "uplifting pop song, professional production"
	}
	if song.ImagePrompt == "" {
		song.ImagePrompt = "modern album art, cinematic, atmospheric"
	}
	return &SectionResult{Kind: req.Kind, Song: song}
}

// Chat answers a verse-scoped study question, folding the last turns of
// history into the prompt. Failures return the apology fallback.
func (g *Generator) Chat(ctx context.Context, req *ChatRequest) (string, error) {
	if req == nil || req.Message == "" {
		return "", fmt.Errorf("chat request requires a message")
	}

	system := fmt.Sprintf(`You are a helpful, empathetic Bible study assistant. You are discussing the verse: %s ("%s").

Guidelines:
- Keep responses concise (under 100 words) and conversational
- Ask open-ended questions to help the user reflect
- Be warm, encouraging, and supportive
- Reference the specific verse when relevant
- If the user asks about other topics, gently guide back to scripture study`,
		req.VerseReference, req.VerseText)

	history := req.History
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	var prompt strings.Builder
	if len(history) > 0 {
		prompt.WriteString("Previous conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&prompt, "%s: %s\n", turn.Sender, turn.Text)
		}
		prompt.WriteString("\n")
	}
	fmt.Fprintf(&prompt, "User: %s\n\nRespond helpfully:", req.Message)

	text, err := g.chat(ctx, system, prompt.String(), 500)
	if err != nil {
		g.logger.Warn("chat failed", "verse", req.VerseReference, "error", err)
		return chatFallback, nil
	}
	return strings.TrimSpace(text), nil
}

// chatHistoryWindow is how many prior turns are folded into a chat prompt.
const chatHistoryWindow = 6

const chatFallback = "I apologize, but I had trouble responding. Please try again."

const casualStyleInstruction = `Write a warm, thoughtful reflection (250-300 words).
- Stream of consciousness style, like thinking out loud
- Third person perspective, observational
- Notice the nuances and tensions in the verse
- Connect to real human experience without being preachy
- Let insight emerge naturally, don't force application
- Write like a wise friend who reads deeply, not a pastor giving a sermon`

const academicStyleInstruction = `Write a substantive theological reflection (300-400 words). Include:
- Historical and literary context of the passage
- Key Greek or Hebrew words and their deeper meanings
- Cross-references to related scripture that illuminate the text
- Theological implications and how scholars have understood this
- Application that emerges naturally from the deeper understanding
Write with scholarly depth but accessible language. This is seminary-level insight made readable.`

// parseValidated repairs the raw LLM text, checks it against the section
// schema, then unmarshals it into out.
func parseValidated(text string, schema *jsonschema.Schema, out any) error {
	var raw any
	if err := jsonrepair.Unmarshal(text, &raw); err != nil {
		return err
	}
	if err := schema.Validate(raw); err != nil {
		return fmt.Errorf("payload schema: %w", err)
	}
	return jsonrepair.Unmarshal(text, out)
}

// Verify interface
var _ Provider = (*Generator)(nil)

var delimPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, label := range []string{
		"INTERPRETATION", "IMAGE_PROMPT",
		"STORY_TITLE", "STORY_TEXT", "STORY_IMAGE",
		"TITLE", "TYPE", "POEM", "IMAGE",
		"SUBTITLE", "LYRICS", "AUDIO_PROMPT",
	} {
		delimPatterns[label] = regexp.MustCompile(`(?s)` + label + `===\s*(.*?)\s*===` + label)
	}
}

// delimited extracts the text framed by LABEL=== ... ===LABEL.
func delimited(text, label string) string {
	re, ok := delimPatterns[label]
	if !ok {
		return ""
	}
	match := re.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
