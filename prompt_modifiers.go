package companionsdk

import (
	"fmt"
	"strings"
)

// ──────────────────────────────────────────────
// Prompt Modifier Compiler — directives to instruction text
// ──────────────────────────────────────────────

var toneInstructions = map[ResponseTone]string{
	ToneGentle:    "Speak softly and gently. No pressure, no pushing.",
	ToneWarm:      "Keep a warm, friendly tone.",
	ToneEnergetic: "Match the user's energy. It's fine to be upbeat.",
	ToneDirect:    "Be direct and to the point.",
	TonePlayful:   "A playful, lighter tone is welcome here.",
}

var lengthInstructions = map[LengthClass]string{
	LengthBrief:    "Keep the reply short, one or two sentences.",
	LengthModerate: "Keep the reply to a short paragraph at most.",
	LengthDetailed: "A longer, more detailed reply is fine.",
}

var openingInstructions = map[OpeningStyle]string{
	OpeningContinue:      "",
	OpeningGentleCheckin: "Open with a gentle check-in on how they have been since you last spoke.",
	OpeningEnergyMatch:   "Open by matching the user's current energy.",
	OpeningGrounding:     "Open with something grounding and present-focused.",
}

// BuildPromptModifiers compiles directives into a natural-language
// instruction block for the next language-model call. Pure function:
// identical directives always produce identical output.
func BuildPromptModifiers(d *ResponseDirectives) string {
	var lines []string
	lines = append(lines, "[Response guidance]")

	if t, ok := toneInstructions[d.Tone]; ok {
		lines = append(lines, "- "+t)
	}
	if l, ok := lengthInstructions[d.MaxLength]; ok {
		lines = append(lines, "- "+l)
	}

	if !d.AllowQuestions {
		lines = append(lines, "- Do not ask the user any questions this turn.")
	} else if d.MaxQuestions == 1 {
		lines = append(lines, "- At most one question, and only if it helps.")
	} else {
		lines = append(lines, fmt.Sprintf("- At most %d questions.", d.MaxQuestions))
	}

	if !d.AllowMemoryCallback || d.MemoryCallbackStyle == CallbackNone {
		lines = append(lines, "- Do not reference earlier sessions or past conversations this turn.")
	} else if d.MemoryCallbackStyle == CallbackExplicit {
		lines = append(lines, "- You may explicitly refer back to something the user told you before.")
	} else {
		lines = append(lines, "- You may subtly weave in something the user shared before, without making a point of remembering it.")
	}

	if d.InsertBreathingPrompt {
		lines = append(lines, "- Gently offer a short breathing or grounding moment.")
	}
	if d.InsertAntiDependencyNudge {
		lines = append(lines, "- Naturally encourage connecting with people in their life, not just this chat.")
	}
	if d.SuggestBreak {
		lines = append(lines, "- If it fits, softly suggest taking a break from the conversation.")
	}

	if o := openingInstructions[d.OpeningStyle]; o != "" {
		lines = append(lines, "- "+o)
	}

	if len(d.AvoidPhrases) > 0 {
		lines = append(lines, "- Never use these stock phrases: "+strings.Join(d.AvoidPhrases, "; ")+".")
	}

	lines = append(lines, cognitiveLines(d.CognitiveAdaptations)...)

	return strings.Join(lines, "\n")
}

func cognitiveLines(c CognitiveAdaptations) []string {
	var lines []string
	if c.UseMetaphors {
		lines = append(lines, "- Metaphors and imagery land well with this user.")
	}
	if c.PreferStepByStep {
		lines = append(lines, "- Break any suggestion into small, concrete steps.")
	}
	if c.UseExamples {
		lines = append(lines, "- Concrete examples help this user.")
	}
	if c.ValidateFirst {
		lines = append(lines, "- Acknowledge the feeling before anything practical.")
	}
	if c.AllowWandering {
		lines = append(lines, "- It's fine to let the conversation wander.")
	}
	return lines
}
