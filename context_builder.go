package companionsdk

import (
	"strings"
	"time"
)

// ──────────────────────────────────────────────
// Context Builder — per-turn conversation context
// ──────────────────────────────────────────────

// Turn is a single prior message in the session transcript.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ConversationContext holds everything the Directive Generator needs for
// one turn. Rebuilt from scratch on every user message, never persisted.
type ConversationContext struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"` // user turns, including the current one
	SessionStart time.Time `json:"session_start"`

	UserEnergy EnergyLevel `json:"user_energy"`
	UserMood   Mood        `json:"user_mood"`
	HeavyTopic bool        `json:"heavy_topic"`

	LastUserMessage string   `json:"last_user_message"`
	RecentTopics    []string `json:"recent_topics"`

	TimeSinceLastSession time.Duration `json:"time_since_last_session"`
	LastSessionMood      Mood          `json:"last_session_mood"` // "" = unknown

	DayOfWeek time.Weekday `json:"day_of_week"`
	HourOfDay int          `json:"hour_of_day"`

	RecentMemoryCallbacks  int `json:"recent_memory_callbacks"`
	LastMemoryCallbackTurn int `json:"last_memory_callback_turn"` // -1 = none
}

// Phrases that mark an assistant turn as referencing the past.
var memoryCallbackPhrases = []string{
	"last time",
	"you mentioned",
	"remember when",
	"earlier you said",
	"we talked about",
	"you told me",
	"like you said before",
}

const defaultSessionGap = 24 * time.Hour

// ContextBuilder assembles a ConversationContext from session history, the
// latest message, detector output and the persisted session-end record.
type ContextBuilder struct {
	detector *SignalDetector
	sessions *SessionStore
	now      func() time.Time
}

// NewContextBuilder creates a builder. sessions may be nil; the gap then
// defaults to 24h and the prior mood stays unknown.
func NewContextBuilder(detector *SignalDetector, sessions *SessionStore) *ContextBuilder {
	if detector == nil {
		detector = NewSignalDetector()
	}
	return &ContextBuilder{
		detector: detector,
		sessions: sessions,
		now:      time.Now,
	}
}

// Build populates a ConversationContext for the current user message.
// Missing session data degrades to defaults; Build never fails.
func (b *ContextBuilder) Build(userID, sessionID string, history []Turn, userMessage string, sessionStart time.Time) *ConversationContext {
	now := b.now()

	ctx := &ConversationContext{
		SessionID:              sessionID,
		SessionStart:           sessionStart,
		LastUserMessage:        userMessage,
		TimeSinceLastSession:   defaultSessionGap,
		DayOfWeek:              now.Weekday(),
		HourOfDay:              now.Hour(),
		LastMemoryCallbackTurn: -1,
	}

	// Prior session record
	if b.sessions != nil {
		if rec := b.sessions.LastSession(userID); rec != nil {
			ctx.LastSessionMood = rec.Mood
			if endedAt, err := time.Parse(time.RFC3339, rec.EndedAt); err == nil {
				gap := now.Sub(endedAt)
				if gap < 0 {
					gap = 0
				}
				ctx.TimeSinceLastSession = gap
			}
		}
	}

	// User-turn count, including the message being processed now
	userTurns := collectUserTurns(history)
	ctx.MessageCount = len(userTurns) + 1

	// Topics from the last 5 user turns (current message included)
	recent := append(append([]string{}, userTurns...), userMessage)
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	seen := make(map[string]bool)
	for _, msg := range recent {
		for _, tag := range b.detector.ExtractTopics(msg) {
			if !seen[tag] {
				seen[tag] = true
				ctx.RecentTopics = append(ctx.RecentTopics, tag)
			}
		}
	}

	// Memory callback scan over assistant turns. The recorded index is the
	// user-turn count at the time of the callback, so the throttle rule can
	// compare it against MessageCount directly.
	userIdx := 0
	for _, turn := range history {
		if turn.Role == "user" {
			userIdx++
			continue
		}
		if turn.Role == "assistant" && containsMemoryCallback(turn.Content) {
			ctx.RecentMemoryCallbacks++
			ctx.LastMemoryCallbackTurn = userIdx
		}
	}

	// Signal detection on the current message
	ctx.UserEnergy = b.detector.DetectEnergy(userMessage)
	ctx.UserMood = b.detector.DetectMood(userMessage)
	ctx.HeavyTopic = b.detector.DetectHeavyTopic(userMessage)

	return ctx
}

func collectUserTurns(history []Turn) []string {
	var msgs []string
	for _, t := range history {
		if t.Role == "user" {
			msgs = append(msgs, t.Content)
		}
	}
	return msgs
}

func containsMemoryCallback(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range memoryCallbackPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
