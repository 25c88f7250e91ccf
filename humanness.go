package companionsdk

import (
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────
// Local Humanness Scorer — fast deterministic heuristic
// ──────────────────────────────────────────────

// ScoreBreakdown is the 7-dimension humanness breakdown. The weighted
// maximums sum to 100 and match the external evaluator's rubric.
type ScoreBreakdown struct {
	NaturalLanguage        int `json:"natural_language"`        // max 20
	EmotionalTiming        int `json:"emotional_timing"`        // max 15
	BrevityControl         int `json:"brevity_control"`         // max 15
	MemoryUse              int `json:"memory_use"`              // max 10
	Imperfection           int `json:"imperfection"`            // max 10
	PersonalityConsistency int `json:"personality_consistency"` // max 10
	AvoidedStockPhrases    int `json:"avoided_stock_phrases"`   // max 20
}

var breakdownCaps = ScoreBreakdown{
	NaturalLanguage:        20,
	EmotionalTiming:        15,
	BrevityControl:         15,
	MemoryUse:              10,
	Imperfection:           10,
	PersonalityConsistency: 10,
	AvoidedStockPhrases:    20,
}

// HumannessScore rates how natural and non-robotic a response reads.
type HumannessScore struct {
	Total       int            `json:"total"` // 0-100
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Issues      []string       `json:"issues"`
	Suggestions []string       `json:"suggestions"`
}

// Validation phrases; more than one in the same reply reads scripted.
var validationPhrases = []string{
	"that's valid",
	"your feelings are valid",
	"it makes sense that",
	"that's completely understandable",
	"i hear you",
}

// LocalScorer is the synchronous deduction-based humanness scorer.
// Deterministic: same input, same score.
type LocalScorer struct {
	detector     *SignalDetector
	avoidPhrases []string
}

// NewLocalScorer creates a scorer. The energy detector is reused to compare
// the response's own energy against the user's.
func NewLocalScorer(detector *SignalDetector) *LocalScorer {
	if detector == nil {
		detector = NewSignalDetector()
	}
	return &LocalScorer{
		detector:     detector,
		avoidPhrases: DefaultAvoidPhrases(),
	}
}

// Score rates one completed exchange, starting from 100 and deducting per
// violation, floored at 0.
func (s *LocalScorer) Score(userMessage, response string, ctx *ConversationContext) *HumannessScore {
	total := 100
	var issues, suggestions []string

	deduct := func(points int, issue, suggestion string) {
		total -= points
		issues = append(issues, issue)
		suggestions = append(suggestions, suggestion)
	}

	lowerResp := strings.ToLower(response)

	// Banned stock phrases, 10 each
	for _, phrase := range s.avoidPhrases {
		if strings.Contains(lowerResp, phrase) {
			deduct(10,
				fmt.Sprintf("stock phrase: %q", phrase),
				"cut the canned phrasing; say it in plain words or not at all")
		}
	}

	// Leading first-person pronoun
	trimmed := strings.TrimSpace(response)
	if trimmed == "I" || strings.HasPrefix(trimmed, "I ") || strings.HasPrefix(trimmed, "I'") {
		deduct(5,
			"response opens with \"I\"",
			"start from the user's words, not from yourself")
	}

	lowEnergy := ctx != nil && ctx.UserEnergy == EnergyLow

	// Low-energy user, long reply
	if lowEnergy && len(strings.Fields(response)) > 50 {
		deduct(15,
			"long reply to a low-energy user",
			"when the user is flat, keep it to a sentence or two")
	}

	// Low-energy user, questions
	if lowEnergy && strings.Contains(response, "?") {
		deduct(10,
			"question asked of a low-energy user",
			"drop the question; leave space instead")
	}

	// Stacked validation phrases
	validations := 0
	for _, phrase := range validationPhrases {
		if strings.Contains(lowerResp, phrase) {
			validations++
		}
	}
	if validations > 1 {
		deduct(10,
			"multiple validation phrases in one reply",
			"validate once, then move on")
	}

	// Energy mismatch: flat user, peppy reply
	if lowEnergy && s.detector.DetectEnergy(response) == EnergyHigh {
		deduct(15,
			"high-energy reply to a low-energy user",
			"match the user's energy before anything else")
	}

	if total < 0 {
		total = 0
	}

	return &HumannessScore{
		Total:       total,
		Breakdown:   deriveBreakdown(total),
		Issues:      issues,
		Suggestions: suggestions,
	}
}

// deriveBreakdown splits the aggregate total proportionally across the
// fixed dimension caps. The dimensions are not scored independently; local
// and evaluator breakdowns are only comparable in total. Downstream
// statistics rely on this shape, so it stays as-is.
func deriveBreakdown(total int) ScoreBreakdown {
	scale := func(max int) int { return max * total / 100 }
	return ScoreBreakdown{
		NaturalLanguage:        scale(breakdownCaps.NaturalLanguage),
		EmotionalTiming:        scale(breakdownCaps.EmotionalTiming),
		BrevityControl:         scale(breakdownCaps.BrevityControl),
		MemoryUse:              scale(breakdownCaps.MemoryUse),
		Imperfection:           scale(breakdownCaps.Imperfection),
		PersonalityConsistency: scale(breakdownCaps.PersonalityConsistency),
		AvoidedStockPhrases:    scale(breakdownCaps.AvoidedStockPhrases),
	}
}
