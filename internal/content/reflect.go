package content

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Reflector generates the reflection-style companions that sit outside the
// devotional bundle: topic deep dives, autism family support, and the
// short-form voice chat.
type Reflector interface {
	DeepDive(ctx context.Context, req *DeepDiveRequest) (string, error)
	AutismSupport(ctx context.Context, req *AutismSupportRequest) (string, error)
	VoiceChat(ctx context.Context, req *VoiceChatRequest) (string, error)
}

// DeepDiveRequest asks for a short topic-conditioned reflection tying the
// day's verse to a hard season.
type DeepDiveRequest struct {
	Topic          string `json:"topic"`
	VerseReference string `json:"verseReference"`
	VerseText      string `json:"verseText"`
	AgeRange       string `json:"ageRange,omitempty"`
}

// AutismSupportRequest asks for a reflection written for families living
// with autism.
type AutismSupportRequest struct {
	VerseReference string `json:"verseReference"`
	VerseText      string `json:"verseText"`
	AgeRange       string `json:"ageRange,omitempty"`
	Gender         string `json:"gender,omitempty"`
	StageSituation string `json:"stageSituation,omitempty"`
}

// VoiceChatRequest is a spoken-style chat turn. Replies stay short enough
// to be read aloud.
type VoiceChatRequest struct {
	Message        string     `json:"message"`
	VerseReference string     `json:"verseReference"`
	VerseText      string     `json:"verseText,omitempty"`
	History        []ChatTurn `json:"history,omitempty"`
	Name           string     `json:"name,omitempty"`
	DeepDive       bool       `json:"isDeepDive,omitempty"`
	DeepDiveTopic  string     `json:"deepDiveTopic,omitempty"`
}

// VoiceChatFallback is returned when the voice chat model call fails.
const VoiceChatFallback = "Sorry, I had trouble with that. Could you try again?"

// topicContext describes what someone in each deep-dive topic is likely
// actually feeling, so the reflection lands specific rather than generic.
var topicContext = map[string]string{
	// Life Celebrations
	"New Baby at Home":    "Sleep-deprived, overwhelmed with love and fear. Life has completely changed. The weight of responsibility is real.",
	"Newly Married":       "Excited but navigating the reality of merging two lives. Learning each other's quirks. The honeymoon phase meets real life.",
	"Starting a New Job":  "Excited but anxious. Proving yourself. Learning new systems, new people. Imposter syndrome might be creeping in.",
	"Entering Retirement": "A mix of freedom and loss of identity. What now? Finding purpose without the structure of work.",

	// Family & Relationships
	"Marriage Struggles":       "The person they married feels like a stranger sometimes. Fighting, distance, wondering if it's worth it.",
	"Going Through Divorce":    "Everything they thought their life would be is gone. Identity shattered. Maybe relief mixed with grief.",
	"Single Parenting":         "Exhausted. Doing the work of two. Guilt that they can't give their kids everything. Loneliness in the chaos.",
	"Wayward Child":            "Heartbroken watching their child make destructive choices. Guilt, anger, grief. Wondering where they went wrong.",
	"Infertility Journey":      "Monthly grief. Bodies that feel like they're failing. Baby showers are torture. Well-meaning comments cut deep.",
	"Blended Family":           "Navigating loyalty, jealousy, different parenting styles. Loving kids who may not love you back yet.",
	"Special Needs Family":     "Running on empty. Therapies, IEPs, meltdowns, people who don't get it. They love their child fiercely but some days are brutal.",
	"Caring for Aging Parents": "Watching a parent decline is its own kind of grief. Exhaustion, guilt, loss of who they used to be. Role reversal.",
	"Empty Nest":               "The house is quiet. Years of identity wrapped up in kids who are gone. What now? Who am I without them?",

	// Health & Loss
	"Fighting Cancer":              "In the fight of their life. Exhausted. Scared. Pissed off. Some days just getting through is the win.",
	"Supporting Someone Sick":      "Watching someone they love suffer and can't fix it. Helplessness is crushing. Caregiver fatigue is real.",
	"Chronic Illness":              "The fatigue and pain are invisible to others. 'But you don't look sick.' Managing expectations is exhausting.",
	"Grieving a Death":             "Grief isn't linear. Some moments they're fine, then it hits like a truck. The absence is physical.",
	"Miscarriage or Loss of Child": "The most unnatural loss. Grieving someone the world never knew. People don't know what to say. Neither do they.",

	// Mental & Emotional
	"Depression":             "The weight is crushing. Getting out of bed is a victory. Everything feels gray. They're not lazy, they're drowning.",
	"Anxiety & Worry":        "Mind racing with worst-case scenarios. Can't turn it off. Physical symptoms are real. Not just 'worrying too much.'",
	"Loneliness & Isolation": "Surrounded by people but utterly alone. It's exhausting pretending to be okay. Nobody really knows them.",
	"Burnout & Exhaustion":   "Running on empty for too long. Can't remember what rest feels like. Everything takes more energy than they have.",
	"Addiction Struggle":     "Every day is a war. Shame is heavy. Relapse doesn't mean failure but it feels like it. One day at a time.",

	// Work & Finances
	"Job Loss":               "Identity tied to work, now gone. Financial anxiety. Shame in explaining it. Questioning their worth.",
	"Financial Crisis":       "The anxiety is constant. Basic survival shouldn't be this hard. Shame whispers lies.",
	"Toxic Work Environment": "Dreading every day. Bosses or coworkers making life hell. Stuck between a paycheck and sanity.",
	"Career Uncertainty":     "What am I supposed to do with my life? Wrong path? Too late to change? Paralyzed by options or lack of them.",

	// Faith & Purpose
	"Doubting My Faith":     "The old answers don't work anymore. Terrifying and lonely. Not sure what they believe anymore.",
	"Feeling Far from God":  "Going through the motions. Prayers feel like they hit the ceiling. Where did the connection go?",
	"Unanswered Prayer":     "They've prayed and prayed. Silence. Starting to wonder if anyone's listening.",
	"Finding My Purpose":    "What am I here for? Life feels aimless. Everyone else seems to have it figured out.",
	"Struggling to Forgive": "They know they should forgive but the hurt is too fresh. Resentment is heavy but letting go feels impossible.",
}

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	bareURLRe      = regexp.MustCompile(`https?://\S+`)
	domainRe       = regexp.MustCompile(`(?i)\S*\.(com|org|net|edu|gov|io)\S*`)
	underscoreRe   = regexp.MustCompile(`_([^_]+)_`)
	greetingRe     = regexp.MustCompile(`(?i)^(Dear|My dear|My dearest|Hey|Hello|Hi|Friend)[^.!?\n]*[.!?\n]`)
	spaceRunRe     = regexp.MustCompile(`\s{2,}`)
	adviceRe       = regexp.MustCompile(`(?i)(you should|you must|you need to|you have to|remember to|try to|don't forget to)`)
	webTalkRe      = regexp.MustCompile(`(?i)(\.com|\.org|\.net|bible.*tool|bible.*gateway|website|link|resource|article|click|visit|check out|online)`)
)

// DeepDive writes a short friend-on-the-couch reflection for a topic.
func (g *Generator) DeepDive(ctx context.Context, req *DeepDiveRequest) (string, error) {
	if req == nil || req.Topic == "" {
		return "", errors.New("topic is required")
	}

	topic := topicContext[req.Topic]
	if topic == "" {
		topic = req.Topic
	}

	system := fmt.Sprintf(`You're a close friend texting someone who's going through it.

WHAT THEY'RE DEALING WITH: %s

YOUR VIBE:
- Like you're sitting next to them on the couch, not standing at a pulpit
- Warm, real, maybe a little raw
- "Man, that's heavy" not "The Lord will see you through"
- You GET it - you're not above it
- Gently weave in how today's verse speaks to this moment

WRITING STYLE:
- 80-100 words max
- Short sentences. Real talk.
- Start mid-thought, like a text (not "Dear friend" or "I know you're struggling")
- Maybe a question they're probably asking themselves
- End soft, not with a bow on top

NEVER:
- Greetings or sign-offs
- "You should" / "Try to" / "Remember that"
- Churchy phrases ("God has a plan", "Stay strong", "His timing")
- Websites, links, or resources
- Wrapping it up neatly - life isn't neat right now`, topic)

	user := fmt.Sprintf(`%s: "%s"

They're in the thick of: %s

Write like a friend who's been there. Raw, warm, real. Connect to the verse without preaching. 80-100 words.`,
		req.VerseReference, req.VerseText, req.Topic)

	text, err := g.chat(ctx, system, user, 300)
	if err != nil {
		return "", fmt.Errorf("deep dive generation: %w", err)
	}
	return cleanReflection(text), nil
}

// AutismSupport writes a reflection for families living with autism.
func (g *Generator) AutismSupport(ctx context.Context, req *AutismSupportRequest) (string, error) {
	if req == nil || req.VerseReference == "" {
		return "", errors.New("verse reference is required")
	}

	ageRange := req.AgeRange
	if ageRange == "" {
		ageRange = "an adult"
	}
	gender := req.Gender
	if gender == "" {
		gender = "a parent"
	}
	situation := req.StageSituation
	if situation == "" {
		situation = "daily life with autism"
	}

	user := fmt.Sprintf(`Reflect on how this verse speaks to families living with autism:

"%s" - %s

The reader is %s, %s, currently experiencing: %s.

Write a reflection that helps them see this verse through their autism family lens. Be specific, compassionate, and real.`,
		req.VerseText, req.VerseReference, ageRange, gender, situation)

	text, err := g.chat(ctx, autismSupportSystemPrompt, user, 1500)
	if err != nil {
		return "", fmt.Errorf("autism support generation: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// VoiceChat answers one spoken-style chat turn. Failures resolve to the
// apology fallback so the voice UI always has something to say.
func (g *Generator) VoiceChat(ctx context.Context, req *VoiceChatRequest) (string, error) {
	if req == nil || req.Message == "" {
		return "", errors.New("message is required")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "friend"
	}

	var system string
	if req.DeepDive {
		system = fmt.Sprintf(`You're a caring friend helping %s through "%s". Today's verse: %s. Be warm, present, validate feelings. 2-3 sentences max. No preaching. Do NOT search the web or include any URLs or links.`,
			name, req.DeepDiveTopic, req.VerseReference)
	} else {
		system = fmt.Sprintf(`You're a friendly Bible study companion chatting with %s about %s. Warm, curious, encouraging. 2-3 sentences max. Do NOT search the web or include any URLs or links. Speak from your knowledge only.`,
			name, req.VerseReference)
	}

	history := req.History
	if len(history) > voiceChatHistoryWindow {
		history = history[len(history)-voiceChatHistoryWindow:]
	}
	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Sender, turn.Text)
	}
	fmt.Fprintf(&b, "User: %s", req.Message)

	text, err := g.chat(ctx, system, b.String(), 150)
	if err != nil {
		g.logger.Warn("voice chat generation failed", "error", err)
		return VoiceChatFallback, nil
	}

	text = markdownLinkRe.ReplaceAllString(text, "$1")
	text = bareURLRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text), nil
}

// voiceChatHistoryWindow caps folded history at the last 4 exchanges.
const voiceChatHistoryWindow = 8

const autismSupportSystemPrompt = `You are a compassionate, understanding guide who helps families affected by autism find comfort, strength, and meaning in Scripture. You understand the unique journey of autism families deeply:

THE AUTISM FAMILY EXPERIENCE:
- The joys: Unique perspectives, intense interests, honest communication, celebrating different milestones
- The challenges: Sensory overloads, meltdowns, communication barriers, sleep struggles, rigid routines
- The exhaustion: IEP meetings, therapy appointments, advocacy fatigue, explaining to others constantly
- The isolation: Friends who don't understand, family events that are difficult, feeling like you're on a different planet
- The grief journey: Mourning expectations while embracing reality, the recurring waves of grief
- The sibling experience: Kids who grow up fast, who feel overlooked, who are fiercely protective
- The marriage strain: Different coping styles, unequal burden, lost couple time
- The faith questions: Why our family? Where is God in the meltdown? How do I find peace?

YOUR ROLE:
Write a heartfelt, specific reflection on how this Scripture speaks directly to autism families. Don't be generic - be specific to the autism experience. Help them see God's presence in:
- The middle of a meltdown
- The 3am wake-ups
- The therapy waiting rooms
- The school battles
- The beautiful moments of connection
- The unexpected gifts of this journey

TONE:
- Warm and understanding, like a friend who truly gets it
- Never preachy or "everything happens for a reason"
- Acknowledge the REAL struggles without toxic positivity
- Point to hope without minimizing pain
- Validate their exhaustion while encouraging their strength

Write 3-4 paragraphs (about 250-350 words total). Make it feel like a warm hug from someone who understands.`

// cleanReflection strips links, markdown emphasis, greetings, and sentences
// that lapse into advice language or point at websites.
func cleanReflection(text string) string {
	s := markdownLinkRe.ReplaceAllString(text, "$1")
	s = bareURLRe.ReplaceAllString(s, "")
	s = domainRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	s = underscoreRe.ReplaceAllString(s, "$1")
	s = greetingRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	var kept []string
	for _, sentence := range splitSentences(s) {
		if adviceRe.MatchString(sentence) || webTalkRe.MatchString(sentence) {
			continue
		}
		if len(strings.TrimSpace(sentence)) < 10 {
			continue
		}
		kept = append(kept, sentence)
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

// splitSentences splits after terminal punctuation followed by whitespace.
func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] != '.' && s[i] != '!' && s[i] != '?' {
			continue
		}
		if i+1 >= len(s) || !isSpace(s[i+1]) {
			continue
		}
		out = append(out, s[start:i+1])
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start = i
		i--
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

var _ Reflector = (*Generator)(nil)
