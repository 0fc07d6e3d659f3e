package content

import (
	"fmt"
	"strings"
)

// Age-conditioned voice for the interpretation reflection.
var interpretationAgeContext = map[string]string{
	"teens":      "Write for teenagers. Reference their world naturally - school pressures, social dynamics, identity questions, family tensions, future uncertainty. Don't be preachy or talk down to them.",
	"university": "Write for young adults (18-23). Address the tensions of this season - independence vs. uncertainty, big decisions about career/relationships, questioning what they were taught, finding their own faith.",
	"adult":      "Write for adults navigating the full complexity of life - career pressures, relationship challenges, parenting struggles, financial stress, health concerns, caring for aging parents while raising kids.",
	"senior":     "Write for those with decades of life experience. Honor their wisdom while addressing real concerns - legacy, health, loss of friends/spouse, relevance, mortality, passing on faith to grandchildren.",
}

// Age-conditioned scenario guardrails for story generation. Teen characters
// in particular must never read like adults with careers and mortgages.
var storyAgeGuidelines = map[string]string{
	"teens": `Characters must be high school students (ages 14-18) dealing with school, friends, family, and identity. Authentic teen concerns: grades, fitting in, social media, crushes, parent pressure. Teen settings: school, bedroom, local coffee shop, park, family home. Part-time work only (babysitting, lifeguarding, retail).
Teen characters must never have professional careers, pay rent or mortgages, be parents, work in corporate offices, hold graduate degrees, or be over 19 years old.`,
	"university": `Characters are college/university students (ages 18-24): dorm life, roommate conflicts, first time away from home, part-time internships, campus jobs, identity exploration, relationships, future anxiety. Not yet established careers or married with kids.`,
	"adult":      `Characters are adults (ages 25-55): established careers with meetings, deadlines, promotions; family responsibilities with spouse, children, aging parents; financial concerns like mortgage, bills, savings; work-life balance and career pivots.`,
	"senior":     `Characters are seniors (ages 55+): retirement or late career, grandchildren, legacy, life reflection, health concerns, wisdom, mentoring younger generations.`,
}

// Age-conditioned musical direction for song generation.
var songStyleGuide = map[string]string{
	"teens": `Target: Current Billboard Hot 100 sound
Style: High-energy pop, synth-pop, or pop-punk
Tempo: 120+ BPM, energetic
Influences: Olivia Rodrigo, Billie Eilish, Twenty One Pilots
Lyrics: Raw emotion, identity struggles, authentic doubt and hope`,
	"university": `Target: Indie-pop crossover appeal
Style: Indie-pop with R&B influences, atmospheric
Tempo: 90-110 BPM, introspective but building
Influences: FINNEAS, Hozier, Phoebe Bridgers
Lyrics: Vulnerable, questioning, poetic imagery`,
	"adult": `Target: Anthemic crossover appeal
Style: Pop-rock, stadium-ready, emotional builds
Tempo: 100-120 BPM, powerful
Influences: Coldplay, OneRepublic, Imagine Dragons
Lyrics: Universal struggles, hope in darkness, resilience`,
	"senior": `Target: Adult contemporary, timeless
Style: Warm acoustic-pop, piano-driven, melodic
Tempo: 70-90 BPM, reflective
Influences: James Taylor, Sara Bareilles, acoustic worship
Lyrics: Wisdom, gratitude, peace in the journey`,
}

// Age-conditioned register for poetry personalization.
var poetryAgePrompts = map[string]string{
	"teens":      "Write a reflection on the scripture that a teenager might share. Use contemporary but not exaggerated teen language. Include relevant examples from school, social media, friendships, and family dynamics. Avoid slang that would sound forced. Don't use first-person perspective or directly address a reader. Keep sentences shorter and ideas relatable to teenage experiences while maintaining depth.",
	"university": "Write a reflection on the scripture using language familiar to college-aged young adults. Reference experiences like independence, finding identity, early career concerns, and navigating adult relationships. Use moderately complex vocabulary but keep the style conversational. No first-person or direct address.",
	"adult":      "Write a thoughtful reflection on the scripture using balanced, mature language that resonates with working adults. Include references to career, family responsibilities, and life's complexities. Use moderately sophisticated vocabulary with occasional metaphors drawn from everyday adult experiences. Avoid first-person perspective or addressing the reader.",
	"senior":     "Write a reflection on the scripture using language that resonates with older adults. Include references to life's accumulated wisdom and long-term perspective. Use slightly more traditional phrasing and established metaphors while avoiding outdated expressions. The tone should be thoughtful and measured. No first-person perspective or direct address to the reader.",
}

// Life-situation conditioning woven into poetry and story prompts.
var situationPrompts = map[string]string{
	"Getting married":                 "Include subtle references to partnership, commitment, shared futures, and balancing independence with togetherness. Reference the blend of excitement and adjustment that comes with merging lives.",
	"Having a baby":                   "Weave in themes of new responsibility, overwhelming love, exhaustion, identity shifts, and wonder at new life. Reference the contrast between preparation and the reality of parenting.",
	"Having young children":           "Include references to the beautiful chaos of daily routines, constant demands, finding moments of connection amid busyness, and the tension between nurturing others while maintaining self.",
	"Having teens":                    "Incorporate themes of evolving relationships, watching independence emerge, communication challenges, pride mixed with worry, and navigating when to hold tight versus when to release.",
	"Becoming an empty nester":        "Reference the rediscovery of personal identity, the bittersweetness of accomplishment mixed with absence, new rhythms of household life, and recalibration of purpose and relationship.",
	"Getting a divorce":               "Acknowledge themes of broken expectations, processing grief while finding strength, rebuilding identity, navigating practical changes, and finding hope amid disappointment.",
	"Grieving a loss":                 "Gently incorporate references to the disorientation of absence, conflicting emotions, changed perspectives on what matters, and finding meaning amid pain.",
	"Starting a new job":              "Include references to adaptation, proving oneself, balancing optimism with uncertainty, establishing new routines, and reconciling expectations with reality.",
	"Going through health challenges": "Weave in themes of vulnerability, dependence on others, adjusting expectations, finding strength in limitation, and shifting perspectives on time and priorities.",
	"Struggling financially":          "Reference the weight of uncertainty, managing competing needs, finding worth beyond material stability, practical creativity, and maintaining dignity amid constraints.",
	"Feeling lonely or isolated":      "Incorporate subtle references to the hunger for meaningful connection, the gap between social interaction and true belonging, self-discovery in solitude, and seeking community.",
}

var languageNames = map[string]string{
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"pt": "Portuguese",
	"zh": "Chinese",
	"vi": "Vietnamese",
	"ko": "Korean",
	"th": "Thai",
}

func normalizeAge(ageRange string) string {
	switch strings.ToLower(strings.TrimSpace(ageRange)) {
	case "teen", "teens":
		return "teens"
	case "university", "college":
		return "university"
	case "senior", "seniors":
		return "senior"
	default:
		return "adult"
	}
}

func ageContextFor(table map[string]string, ageRange string) string {
	if s, ok := table[normalizeAge(ageRange)]; ok {
		return s
	}
	return table["adult"]
}

// languageName maps an ISO code to the language name used in prompts.
// Unknown codes fall back to English.
func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

func languageNote(code string) string {
	if code == "" || code == "en" {
		return ""
	}
	return fmt.Sprintf(" Write entirely in %s.", languageName(code))
}

// personalizationContext builds the shared age/gender/situation block appended
// to poetry system prompts.
func personalizationContext(p Profile) string {
	var parts []string
	if p.AgeRange != "" {
		parts = append(parts, ageContextFor(poetryAgePrompts, p.AgeRange))
	}
	if p.Gender != "" && !strings.EqualFold(p.Gender, "other") {
		parts = append(parts, fmt.Sprintf("The reader identifies as %s.", p.Gender))
	}
	if s, ok := situationPrompts[p.LifeSituation]; ok && s != "" {
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\nPERSONALIZATION INSTRUCTIONS:\n" + strings.Join(parts, "\n\n")
}
