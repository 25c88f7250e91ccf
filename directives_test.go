package companionsdk

import (
	"testing"
	"time"
)

// ══════════════════════════════════════════════
// DirectiveGenerator tests
// ══════════════════════════════════════════════

func neutralContext() *ConversationContext {
	return &ConversationContext{
		SessionID:              "s1",
		MessageCount:           5,
		LastUserMessage:        "I had a pretty ordinary day at the office today overall",
		UserEnergy:             EnergyMedium,
		UserMood:               MoodNeutral,
		TimeSinceLastSession:   4 * time.Hour,
		HourOfDay:              14,
		LastMemoryCallbackTurn: -1,
	}
}

func TestGenerate_Defaults(t *testing.T) {
	g := NewDirectiveGenerator()
	d := g.Generate(neutralContext(), nil)

	if d.ArtificialDelay != 500*time.Millisecond {
		t.Fatalf("expected 500ms delay, got %v", d.ArtificialDelay)
	}
	if d.Tone != ToneWarm || d.MaxLength != LengthModerate {
		t.Fatalf("expected warm/moderate, got %s/%s", d.Tone, d.MaxLength)
	}
	if !d.AllowQuestions || d.MaxQuestions != 2 {
		t.Fatalf("expected questions allowed (2), got %v/%d", d.AllowQuestions, d.MaxQuestions)
	}
	if !d.AllowMemoryCallback || d.MemoryCallbackStyle != CallbackSubtle {
		t.Fatal("expected subtle memory callback allowed")
	}
}

func TestGenerate_HeavyTopic(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.HeavyTopic = true
	ctx.UserMood = MoodDistressed
	ctx.LastUserMessage = "I want to disappear"

	d := g.Generate(ctx, nil)

	if d.Tone != ToneGentle {
		t.Fatalf("expected gentle tone, got %s", d.Tone)
	}
	if d.MaxLength != LengthBrief {
		t.Fatalf("expected brief, got %s", d.MaxLength)
	}
	if d.AllowQuestions || d.MaxQuestions != 0 {
		t.Fatal("questions must be disallowed on heavy topics")
	}
	// Heavy-topic delay wins over short-message pacing
	if d.ArtificialDelay != 2000*time.Millisecond {
		t.Fatalf("expected 2000ms delay, got %v", d.ArtificialDelay)
	}
	if !d.InsertBreathingPrompt {
		t.Fatal("expected breathing prompt for distressed mood")
	}
	if d.AllowMemoryCallback {
		t.Fatal("memory callbacks must be off for distressed mood")
	}
}

func TestGenerate_ShortMessageTiming(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.LastUserMessage = "fine I guess honestly whatever"

	d := g.Generate(ctx, nil)
	if d.ArtificialDelay != 300*time.Millisecond {
		t.Fatalf("expected 300ms for short message, got %v", d.ArtificialDelay)
	}
}

func TestGenerate_LowEnergy(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.UserEnergy = EnergyLow

	d := g.Generate(ctx, nil)
	if d.Tone != ToneGentle || d.MaxLength != LengthBrief {
		t.Fatalf("expected gentle/brief for low energy, got %s/%s", d.Tone, d.MaxLength)
	}
	if d.AllowQuestions || d.MaxQuestions != 0 {
		t.Fatal("low energy must force questions to 0")
	}
}

func TestGenerate_HighEnergyPositiveIsPlayful(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.UserEnergy = EnergyHigh
	ctx.UserMood = MoodPositive

	d := g.Generate(ctx, nil)
	if d.Tone != TonePlayful {
		t.Fatalf("expected playful, got %s", d.Tone)
	}
	if d.ArtificialDelay != 300*time.Millisecond {
		t.Fatalf("expected 300ms for high energy, got %v", d.ArtificialDelay)
	}
}

func TestGenerate_AnxiousCapsQuestions(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.UserMood = MoodAnxious

	d := g.Generate(ctx, nil)
	if d.Tone != ToneGentle {
		t.Fatalf("expected gentle, got %s", d.Tone)
	}
	if d.MaxQuestions != 1 {
		t.Fatalf("expected question cap 1, got %d", d.MaxQuestions)
	}
}

func TestGenerate_QuestionInvariant(t *testing.T) {
	g := NewDirectiveGenerator()
	contexts := []*ConversationContext{
		neutralContext(),
		func() *ConversationContext { c := neutralContext(); c.HeavyTopic = true; return c }(),
		func() *ConversationContext { c := neutralContext(); c.UserEnergy = EnergyLow; return c }(),
		func() *ConversationContext { c := neutralContext(); c.UserMood = MoodAnxious; return c }(),
	}
	for i, ctx := range contexts {
		d := g.Generate(ctx, nil)
		if d.AllowQuestions != (d.MaxQuestions > 0) {
			t.Fatalf("case %d: allowQuestions=%v but maxQuestions=%d", i, d.AllowQuestions, d.MaxQuestions)
		}
	}
}

func TestGenerate_GentleCheckinAfterDistressedSession(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.TimeSinceLastSession = 12 * time.Hour
	ctx.LastSessionMood = MoodDistressed

	d := g.Generate(ctx, nil)
	if d.OpeningStyle != OpeningGentleCheckin {
		t.Fatalf("expected gentle_checkin, got %s", d.OpeningStyle)
	}
}

func TestGenerate_GentleCheckinAfterLongGap(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.TimeSinceLastSession = 72 * time.Hour

	d := g.Generate(ctx, nil)
	if d.OpeningStyle != OpeningGentleCheckin {
		t.Fatalf("expected gentle_checkin, got %s", d.OpeningStyle)
	}
}

func TestGenerate_LateNight(t *testing.T) {
	g := NewDirectiveGenerator()

	// The window is 22:00 through 04:59, boundary hours included
	for _, hour := range []int{22, 23, 0, 3, 4} {
		ctx := neutralContext()
		ctx.HourOfDay = hour
		d := g.Generate(ctx, nil)
		if d.Tone != ToneGentle || d.MaxLength != LengthBrief {
			t.Fatalf("hour %d: expected gentle/brief, got %s/%s", hour, d.Tone, d.MaxLength)
		}
	}

	for _, hour := range []int{5, 14, 21} {
		ctx := neutralContext()
		ctx.HourOfDay = hour
		d := g.Generate(ctx, nil)
		if d.Tone != ToneWarm {
			t.Fatalf("hour %d: daytime tone must stay warm, got %s", hour, d.Tone)
		}
	}
}

func TestGenerate_MemoryThrottle(t *testing.T) {
	g := NewDirectiveGenerator()

	// Two callbacks this session
	ctx := neutralContext()
	ctx.RecentMemoryCallbacks = 2
	if d := g.Generate(ctx, nil); d.AllowMemoryCallback {
		t.Fatal("2 prior callbacks must disable")
	}

	// Too early in the session
	ctx = neutralContext()
	ctx.MessageCount = 2
	if d := g.Generate(ctx, nil); d.AllowMemoryCallback {
		t.Fatal("messageCount<3 must disable")
	}

	// Callback within the previous 2 turns
	ctx = neutralContext()
	ctx.RecentMemoryCallbacks = 1
	ctx.LastMemoryCallbackTurn = 4 // current MessageCount is 5
	if d := g.Generate(ctx, nil); d.AllowMemoryCallback {
		t.Fatal("recent callback must disable")
	}

	// Old callback, enough turns: stays allowed
	ctx = neutralContext()
	ctx.MessageCount = 8
	ctx.RecentMemoryCallbacks = 1
	ctx.LastMemoryCallbackTurn = 2
	if d := g.Generate(ctx, nil); !d.AllowMemoryCallback {
		t.Fatal("old single callback should stay allowed")
	}
}

func TestGenerate_LowEnergyThirdTurnKeepsCallback(t *testing.T) {
	g := NewDirectiveGenerator()
	ctx := neutralContext()
	ctx.LastUserMessage = "yeah ok sure"
	ctx.UserEnergy = EnergyLow
	ctx.MessageCount = 3
	ctx.RecentMemoryCallbacks = 0

	d := g.Generate(ctx, nil)
	if !d.AllowMemoryCallback {
		t.Fatal("3rd turn with no prior callbacks should keep callbacks allowed")
	}
}

func TestGenerate_AntiDependency(t *testing.T) {
	g := NewDirectiveGenerator()

	ctx := neutralContext()
	ctx.MessageCount = 10
	d := g.Generate(ctx, nil)
	if !d.InsertAntiDependencyNudge {
		t.Fatal("nudge expected at turn 10")
	}
	if d.SuggestBreak {
		t.Fatal("no break suggestion before turn 20")
	}

	ctx.MessageCount = 12
	if d := g.Generate(ctx, nil); d.InsertAntiDependencyNudge {
		t.Fatal("no nudge at turn 12")
	}

	ctx.MessageCount = 20
	d = g.Generate(ctx, nil)
	if !d.InsertAntiDependencyNudge || !d.SuggestBreak {
		t.Fatal("nudge and break expected at turn 20")
	}
}

func TestGenerate_CognitiveMerge(t *testing.T) {
	g := NewDirectiveGenerator()
	hints := CognitiveAdaptations{UseMetaphors: true, PreferStepByStep: true}

	d := g.Generate(neutralContext(), &hints)
	if d.CognitiveAdaptations != hints {
		t.Fatalf("hints must be merged verbatim, got %+v", d.CognitiveAdaptations)
	}

	// nil hints fall back to safe defaults
	d = g.Generate(neutralContext(), nil)
	if d.CognitiveAdaptations != DefaultCognitiveAdaptations() {
		t.Fatal("expected default adaptations without a provider")
	}
}
