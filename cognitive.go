package companionsdk

// ──────────────────────────────────────────────
// Cognitive Adaptations — externally supplied hints
// ──────────────────────────────────────────────

// CognitiveAdaptations is the hint bundle supplied by an external provider
// and merged verbatim into directives. This subsystem never generates these
// itself.
type CognitiveAdaptations struct {
	UseMetaphors     bool `json:"use_metaphors"`
	PreferStepByStep bool `json:"prefer_step_by_step"`
	UseExamples      bool `json:"use_examples"`
	ValidateFirst    bool `json:"validate_first"`
	AllowWandering   bool `json:"allow_wandering"`
}

// DefaultCognitiveAdaptations returns the safe fallback used when no
// provider is available: no metaphors, examples on, validate-first on,
// wandering allowed.
func DefaultCognitiveAdaptations() CognitiveAdaptations {
	return CognitiveAdaptations{
		UseMetaphors:     false,
		PreferStepByStep: false,
		UseExamples:      true,
		ValidateFirst:    true,
		AllowWandering:   true,
	}
}

// CognitiveProvider supplies per-user cognitive adaptation hints.
type CognitiveProvider interface {
	Adaptations(userID string) (CognitiveAdaptations, error)
}

// StaticCognitiveProvider returns the same hints for every user.
type StaticCognitiveProvider struct {
	Hints CognitiveAdaptations
}

func (p *StaticCognitiveProvider) Adaptations(userID string) (CognitiveAdaptations, error) {
	return p.Hints, nil
}
