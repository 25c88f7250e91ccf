package companionsdk

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// Turn Pipeline — policy path + feedback path for one exchange
// ──────────────────────────────────────────────

// PromptFragments collects the instruction text and structured metadata the
// policy path produces for one turn.
type PromptFragments struct {
	// SystemAdditions holds instruction segments for LLM injection,
	// joined with "\n\n" by Text().
	SystemAdditions []string

	// KV holds policy.* namespaced metadata so integrators can read
	// decisions without parsing prompt text.
	KV map[string]interface{}

	// Warnings records each decision for debugging; never injected.
	Warnings []string
}

// NewPromptFragments creates an empty PromptFragments.
func NewPromptFragments() *PromptFragments {
	return &PromptFragments{KV: make(map[string]interface{})}
}

// Text returns all SystemAdditions joined for LLM injection.
func (f *PromptFragments) Text() string {
	if len(f.SystemAdditions) == 0 {
		return ""
	}
	return strings.Join(f.SystemAdditions, "\n\n")
}

// AddSystem appends an instruction segment.
func (f *PromptFragments) AddSystem(text string) {
	if text != "" {
		f.SystemAdditions = append(f.SystemAdditions, text)
	}
}

// AddWarning records a debug message.
func (f *PromptFragments) AddWarning(msg string) {
	f.Warnings = append(f.Warnings, msg)
}

// SetKV sets a namespaced key-value pair.
func (f *PromptFragments) SetKV(key string, value interface{}) {
	f.KV[key] = value
}

// TurnPlan is the policy output for one turn: everything needed before the
// language-model call, plus the context the feedback path scores against.
type TurnPlan struct {
	UserID      string
	SessionID   string
	UserMessage string

	Context    *ConversationContext
	Directives *ResponseDirectives
	Modifiers  string
	Fragments  *PromptFragments
}

// TurnPipeline wires the policy direction (detectors -> context ->
// directives -> prompt modifiers) and the feedback direction (local score
// -> store; background evaluator -> store).
type TurnPipeline struct {
	builder   *ContextBuilder
	generator *DirectiveGenerator
	scorer    *LocalScorer
	store     *ExchangeStore
	evaluator *BackgroundEvaluator // nil = background re-scoring disabled
	cognitive CognitiveProvider    // nil = safe defaults
	sessions  *SessionStore
}

// TurnPipelineOptions configures optional collaborators.
type TurnPipelineOptions struct {
	Evaluator *BackgroundEvaluator
	Cognitive CognitiveProvider
	Sessions  *SessionStore
}

// NewTurnPipeline creates a pipeline. store is required; everything else
// falls back to defaults.
func NewTurnPipeline(store *ExchangeStore, opts ...TurnPipelineOptions) *TurnPipeline {
	var o TurnPipelineOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	detector := NewSignalDetector()
	return &TurnPipeline{
		builder:   NewContextBuilder(detector, o.Sessions),
		generator: NewDirectiveGenerator(),
		scorer:    NewLocalScorer(detector),
		store:     store,
		evaluator: o.Evaluator,
		cognitive: o.Cognitive,
		sessions:  o.Sessions,
	}
}

// ProcessTurn runs the policy path for an incoming user message. It never
// fails: missing collaborators degrade to documented defaults.
func (p *TurnPipeline) ProcessTurn(userID, sessionID string, history []Turn, userMessage string, sessionStart time.Time) *TurnPlan {
	ctx := p.builder.Build(userID, sessionID, history, userMessage, sessionStart)

	var hints *CognitiveAdaptations
	if p.cognitive != nil {
		if h, err := p.cognitive.Adaptations(userID); err == nil {
			hints = &h
		} else {
			log.Printf("[TurnPipeline] Cognitive hints unavailable, using defaults | user=%s: %v", userID, err)
		}
	}

	directives := p.generator.Generate(ctx, hints)
	modifiers := BuildPromptModifiers(directives)

	fragments := NewPromptFragments()
	fragments.AddSystem(modifiers)
	fragments.SetKV("policy.user.energy", string(ctx.UserEnergy))
	fragments.SetKV("policy.user.mood", string(ctx.UserMood))
	fragments.SetKV("policy.turn.count", ctx.MessageCount)
	fragments.SetKV("policy.tone", string(directives.Tone))
	fragments.SetKV("policy.max_length", string(directives.MaxLength))
	fragments.SetKV("policy.delay_ms", directives.ArtificialDelay.Milliseconds())
	fragments.AddWarning("tone." + string(directives.Tone))
	if ctx.HeavyTopic {
		fragments.AddWarning("signal.heavy_topic")
	}
	if directives.InsertBreathingPrompt {
		fragments.AddWarning("flag.breathing_prompt")
	}
	if directives.SuggestBreak {
		fragments.AddWarning("flag.suggest_break")
	}
	fragments.AddWarning(fmt.Sprintf("memory.callback_allowed:%t", directives.AllowMemoryCallback))

	return &TurnPlan{
		UserID:      userID,
		SessionID:   sessionID,
		UserMessage: userMessage,
		Context:     ctx,
		Directives:  directives,
		Modifiers:   modifiers,
		Fragments:   fragments,
	}
}

// CompleteTurn runs the feedback path once the AI response is known: local
// scoring is synchronous, then the exchange is handed to the background
// evaluator without blocking. Returns the local score.
func (p *TurnPipeline) CompleteTurn(plan *TurnPlan, aiResponse string) *HumannessScore {
	score := p.scorer.Score(plan.UserMessage, aiResponse, plan.Context)
	if p.store != nil {
		p.store.Append(NewScoredExchange(plan.UserMessage, aiResponse, plan.Context, score, ScoredByLocal))
	}
	if p.evaluator != nil {
		p.evaluator.Submit(plan.UserMessage, aiResponse, plan.Context)
	}
	return score
}

// EndSession persists the session-end record used by the next session's
// temporal rules. No-op without a session store.
func (p *TurnPipeline) EndSession(userID string, lastMood Mood) {
	if p.sessions == nil {
		return
	}
	if err := p.sessions.EndSession(userID, lastMood, time.Now()); err != nil {
		log.Printf("[TurnPipeline] Session end persist failed | user=%s: %v", userID, err)
	}
}
