package content

const (
	defaultHeroImagePrompt    = "A serene biblical scene with golden light"
	defaultContextImagePrompt = "Ancient biblical scene, cinematic atmosphere, warm historical light"
	defaultPoemImagePrompt    = "Abstract artistic representation of faith and hope"
)

func defaultStoryImagePrompt(kind SectionKind) string {
	if kind == KindStoryHistorical {
		return "A historical biblical scene"
	}
	return "A warm, relatable scene from the story"
}

func poemTypeLabel(kind SectionKind) string {
	if kind == KindPoemFreeVerse {
		return "Free Verse"
	}
	return "Sonnet"
}

// fallbackResult builds the labeled substitute payload for a failed section.
// Every section degrades to a well-formed value so downstream code never
// branches on failure.
func fallbackResult(kind SectionKind) *SectionResult {
	result := &SectionResult{Kind: kind, Fallback: true}
	switch kind {
	case KindInterpretation:
		result.Interpretation = &Interpretation{
			Text:            "Unable to generate interpretation. Please try again.",
			HeroImagePrompt: defaultHeroImagePrompt,
		}
	case KindContext:
		msg := "Unable to generate context. Please try again."
		result.Context = &ContextSection{
			Context: VerseContext{
				WhoIsSpeaking:      msg,
				OriginalListeners:  msg,
				WhyTheConversation: msg,
				Setting:            msg,
				HistoricalBackdrop: msg,
				ImmediateImpact:    msg,
				LongTermImpact:     msg,
			},
			ImagePrompt: defaultContextImagePrompt,
		}
	case KindStoryContemporary, KindStoryHistorical:
		result.Story = &Story{
			Title:       "Story Unavailable",
			Text:        "Unable to generate story. Please try again.",
			ImagePrompt: defaultStoryImagePrompt(kind),
		}
	case KindPoemClassic, KindPoemFreeVerse:
		result.Poem = &Poem{
			Title:       "Poem Unavailable",
			Type:        poemTypeLabel(kind),
			Text:        "Unable to generate poem. Please try again.",
			ImagePrompt: defaultPoemImagePrompt,
		}
	case KindImagery:
		result.Imagery = []ImageryItem{{
			Title:       "Imagery Unavailable",
			Sub:         "Unable to generate imagery. Please try again.",
			Icon:        "auto_awesome",
			ImagePrompt: defaultPoemImagePrompt,
		}}
	case KindSongs:
		result.Song = &Song{
			Title:       "Song Unavailable",
			Sub:         "Contemporary Pop",
			Lyrics:      "Unable to generate songs. Please try again.",
			Prompt:      "uplifting pop song, professional production",
			ImagePrompt: "modern album art, cinematic, atmospheric",
		}
	}
	return result
}
