package companionsdk

import (
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// Directive Generator — ordered rules engine
// ──────────────────────────────────────────────

// LengthClass bounds the shape of the next response.
type LengthClass string

const (
	LengthBrief    LengthClass = "brief"
	LengthModerate LengthClass = "moderate"
	LengthDetailed LengthClass = "detailed"
)

// ResponseTone sets the emotional register of the next response.
type ResponseTone string

const (
	ToneGentle    ResponseTone = "gentle"
	ToneWarm      ResponseTone = "warm"
	ToneEnergetic ResponseTone = "energetic"
	ToneDirect    ResponseTone = "direct"
	TonePlayful   ResponseTone = "playful"
)

// MemoryCallbackStyle controls how past references may be phrased.
type MemoryCallbackStyle string

const (
	CallbackSubtle   MemoryCallbackStyle = "subtle"
	CallbackExplicit MemoryCallbackStyle = "explicit"
	CallbackNone     MemoryCallbackStyle = "none"
)

// OpeningStyle controls how the response should begin.
type OpeningStyle string

const (
	OpeningContinue      OpeningStyle = "continue"
	OpeningGentleCheckin OpeningStyle = "gentle_checkin"
	OpeningEnergyMatch   OpeningStyle = "energy_match"
	OpeningGrounding     OpeningStyle = "grounding"
)

// ResponseDirectives is the behavioral policy for one turn. Produced by the
// DirectiveGenerator, compiled into prompt text, then discarded.
type ResponseDirectives struct {
	ArtificialDelay time.Duration `json:"artificial_delay"`

	MaxLength      LengthClass  `json:"max_length"`
	Tone           ResponseTone `json:"tone"`
	AllowQuestions bool         `json:"allow_questions"`
	MaxQuestions   int          `json:"max_questions"` // 0, 1 or 2

	AllowMemoryCallback bool                `json:"allow_memory_callback"`
	MemoryCallbackStyle MemoryCallbackStyle `json:"memory_callback_style"`

	InsertAntiDependencyNudge bool `json:"insert_anti_dependency_nudge"`
	InsertBreathingPrompt     bool `json:"insert_breathing_prompt"`
	SuggestBreak              bool `json:"suggest_break"`

	AvoidPhrases []string     `json:"avoid_phrases"`
	OpeningStyle OpeningStyle `json:"opening_style"`

	CognitiveAdaptations CognitiveAdaptations `json:"cognitive_adaptations"`
}

// DefaultAvoidPhrases returns the banned stock phrases. Matching is
// case-insensitive substring.
func DefaultAvoidPhrases() []string {
	return []string{
		"i understand how you feel",
		"i'm here for you",
		"i'm sorry to hear that",
		"how does that make you feel",
		"it sounds like you",
		"thank you for sharing",
		"i appreciate you opening up",
		"is there anything else",
		"feel free to share",
		"as an ai",
	}
}

func defaultDirectives() *ResponseDirectives {
	return &ResponseDirectives{
		ArtificialDelay:      500 * time.Millisecond,
		MaxLength:            LengthModerate,
		Tone:                 ToneWarm,
		AllowQuestions:       true,
		MaxQuestions:         2,
		AllowMemoryCallback:  true,
		MemoryCallbackStyle:  CallbackSubtle,
		AvoidPhrases:         DefaultAvoidPhrases(),
		OpeningStyle:         OpeningContinue,
		CognitiveAdaptations: DefaultCognitiveAdaptations(),
	}
}

// DirectiveGenerator maps a ConversationContext to ResponseDirectives.
//
// Rules run in a fixed order and later rules overwrite earlier ones.
// Reordering the rule groups changes behavior.
type DirectiveGenerator struct{}

// NewDirectiveGenerator creates a generator.
func NewDirectiveGenerator() *DirectiveGenerator {
	return &DirectiveGenerator{}
}

// Generate produces directives for the turn. hints may be nil; safe
// defaults are used then.
func (g *DirectiveGenerator) Generate(ctx *ConversationContext, hints *CognitiveAdaptations) *ResponseDirectives {
	d := defaultDirectives()
	words := len(strings.Fields(ctx.LastUserMessage))

	// 1. Timing. Short-message pacing first; the heavy-topic branch runs
	// after it so the 2s crisis delay always wins.
	if words <= 5 {
		d.ArtificialDelay = 300 * time.Millisecond
	}
	if ctx.HeavyTopic {
		d.ArtificialDelay = 2000 * time.Millisecond
		d.Tone = ToneGentle
		d.MaxLength = LengthBrief
		d.AllowQuestions = false
		d.MaxQuestions = 0
	}

	// 2. Energy matching
	switch ctx.UserEnergy {
	case EnergyLow:
		d.Tone = ToneGentle
		d.MaxLength = LengthBrief
		d.AllowQuestions = false
		d.MaxQuestions = 0
	case EnergyHigh:
		d.Tone = ToneEnergetic
		d.ArtificialDelay = 300 * time.Millisecond
	}

	// 3. Mood adjustment
	switch ctx.UserMood {
	case MoodDistressed:
		d.Tone = ToneGentle
		d.MaxLength = LengthBrief
		d.InsertBreathingPrompt = true
		// Keep the focus on the present
		d.AllowMemoryCallback = false
		d.MemoryCallbackStyle = CallbackNone
	case MoodAnxious:
		d.Tone = ToneGentle
		if d.MaxQuestions > 1 {
			d.MaxQuestions = 1
		}
	case MoodPositive:
		if ctx.UserEnergy == EnergyHigh {
			d.Tone = TonePlayful
		}
	}

	// 4. Temporal awareness
	gap := ctx.TimeSinceLastSession
	if gap > 8*time.Hour && gap < 24*time.Hour && ctx.LastSessionMood == MoodDistressed {
		d.OpeningStyle = OpeningGentleCheckin
	}
	if gap > 48*time.Hour {
		d.OpeningStyle = OpeningGentleCheckin
	}
	if ctx.HourOfDay >= 22 || ctx.HourOfDay <= 4 {
		d.Tone = ToneGentle
		d.MaxLength = LengthBrief
	}

	// 5. Memory-callback throttling. Each condition alone disables.
	if ctx.RecentMemoryCallbacks >= 2 ||
		ctx.MessageCount < 3 ||
		(ctx.LastMemoryCallbackTurn >= 0 && ctx.MessageCount-ctx.LastMemoryCallbackTurn <= 2) {
		d.AllowMemoryCallback = false
		d.MemoryCallbackStyle = CallbackNone
	}

	// 6. Anti-dependency
	if ctx.MessageCount >= 10 && ctx.MessageCount%5 == 0 {
		d.InsertAntiDependencyNudge = true
	}
	if ctx.MessageCount >= 20 {
		d.SuggestBreak = true
	}

	// 7. Length clamp for terse users. Never upgrades.
	if words <= 10 && d.MaxLength == LengthDetailed {
		d.MaxLength = LengthModerate
	}

	// 8. Cognitive-adaptation merge, verbatim
	if hints != nil {
		d.CognitiveAdaptations = *hints
	}

	// Invariant: AllowQuestions false exactly when MaxQuestions is 0
	if !d.AllowQuestions {
		d.MaxQuestions = 0
	}
	if d.MaxQuestions == 0 {
		d.AllowQuestions = false
	}

	return d
}
