package companionsdk

import (
	"encoding/json"
	"fmt"
	"time"
)

// ──────────────────────────────────────────────
// Session Store — persisted session-end records
// ──────────────────────────────────────────────

const sessionEndKey = "session_end"

// SessionRecord is the persisted end-of-session state for one user.
// It is the only cross-session input to the Context Builder.
type SessionRecord struct {
	EndedAt string `json:"ended_at"` // RFC3339
	Mood    Mood   `json:"mood"`
}

// SessionStore reads and writes per-user session-end records through a
// KVStore. Missing or unreadable records degrade to nil, never to an error
// the turn path has to handle.
type SessionStore struct {
	store  KVStore
	prefix string
}

// NewSessionStore creates a session store. Prefix defaults to "companion".
func NewSessionStore(store KVStore, prefix ...string) *SessionStore {
	p := "companion"
	if len(prefix) > 0 && prefix[0] != "" {
		p = prefix[0]
	}
	return &SessionStore{store: store, prefix: p}
}

func (s *SessionStore) namespace(userID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, userID)
}

// EndSession records that the user's session ended with the given mood.
func (s *SessionStore) EndSession(userID string, mood Mood, endedAt time.Time) error {
	rec := SessionRecord{
		EndedAt: endedAt.Format(time.RFC3339),
		Mood:    mood,
	}
	data, _ := json.Marshal(rec)
	return s.store.Set(s.namespace(userID), sessionEndKey, string(data))
}

// LastSession returns the most recent session-end record, or nil if none
// exists or the stored value cannot be read.
func (s *SessionStore) LastSession(userID string) *SessionRecord {
	raw, err := s.store.Get(s.namespace(userID), sessionEndKey)
	if err != nil || raw == "" {
		return nil
	}
	var rec SessionRecord
	if json.Unmarshal([]byte(raw), &rec) != nil {
		return nil
	}
	return &rec
}
