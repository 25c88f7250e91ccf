package companionsdk

import (
	"strings"
	"testing"
)

// ══════════════════════════════════════════════
// Prompt Modifier Compiler tests
// ══════════════════════════════════════════════

func TestBuildPromptModifiers_Pure(t *testing.T) {
	d := defaultDirectives()
	d.Tone = ToneGentle
	d.MaxLength = LengthBrief
	d.InsertBreathingPrompt = true
	d.OpeningStyle = OpeningGentleCheckin

	first := BuildPromptModifiers(d)
	second := BuildPromptModifiers(d)
	if first != second {
		t.Fatal("identical directives must compile to byte-identical output")
	}
	if first == "" {
		t.Fatal("output must not be empty")
	}
}

func TestBuildPromptModifiers_QuestionLines(t *testing.T) {
	d := defaultDirectives()
	d.AllowQuestions = false
	d.MaxQuestions = 0
	out := BuildPromptModifiers(d)
	if !strings.Contains(out, "Do not ask the user any questions") {
		t.Fatalf("expected no-question instruction, got:\n%s", out)
	}

	d = defaultDirectives()
	d.MaxQuestions = 1
	out = BuildPromptModifiers(d)
	if !strings.Contains(out, "At most one question") {
		t.Fatalf("expected one-question instruction, got:\n%s", out)
	}
}

func TestBuildPromptModifiers_MemoryLines(t *testing.T) {
	d := defaultDirectives()
	d.AllowMemoryCallback = false
	d.MemoryCallbackStyle = CallbackNone
	out := BuildPromptModifiers(d)
	if !strings.Contains(out, "Do not reference earlier sessions") {
		t.Fatalf("expected memory-off instruction, got:\n%s", out)
	}

	d = defaultDirectives()
	d.MemoryCallbackStyle = CallbackExplicit
	out = BuildPromptModifiers(d)
	if !strings.Contains(out, "explicitly refer back") {
		t.Fatalf("expected explicit callback instruction, got:\n%s", out)
	}
}

func TestBuildPromptModifiers_FlagsAndAvoidPhrases(t *testing.T) {
	d := defaultDirectives()
	d.InsertBreathingPrompt = true
	d.InsertAntiDependencyNudge = true
	d.SuggestBreak = true

	out := BuildPromptModifiers(d)
	for _, want := range []string{"breathing", "connecting with people", "taking a break", "Never use these stock phrases"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestBuildPromptModifiers_CognitiveLines(t *testing.T) {
	d := defaultDirectives()
	d.CognitiveAdaptations = CognitiveAdaptations{
		UseMetaphors:     true,
		PreferStepByStep: true,
	}
	out := BuildPromptModifiers(d)
	if !strings.Contains(out, "Metaphors") || !strings.Contains(out, "small, concrete steps") {
		t.Fatalf("expected cognitive adaptation lines, got:\n%s", out)
	}
}
