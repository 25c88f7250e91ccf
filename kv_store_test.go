package companionsdk

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// ══════════════════════════════════════════════
// InMemoryKVStore and SessionStore tests
// ══════════════════════════════════════════════

func TestInMemoryKVStore_KVOps(t *testing.T) {
	s := NewInMemoryKVStore()

	if err := s.Set("ns", "k", "v"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	val, err := s.Get("ns", "k")
	if err != nil || val != "v" {
		t.Fatalf("get: %q / %v", val, err)
	}

	// Missing keys read as empty, not error
	val, err = s.Get("ns", "missing")
	if err != nil || val != "" {
		t.Fatalf("missing key: %q / %v", val, err)
	}

	if err := s.Delete("ns", "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	val, _ = s.Get("ns", "k")
	if val != "" {
		t.Fatalf("deleted key still readable: %q", val)
	}
}

func TestInMemoryKVStore_ListOps(t *testing.T) {
	s := NewInMemoryKVStore()

	for i := 0; i < 5; i++ {
		s.Append("ns", "items", fmt.Sprintf("item-%d", i))
	}

	n, _ := s.ListLength("ns", "items")
	if n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}

	page, err := s.GetList("ns", "items", 2, 1)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(page) != 2 || page[0] != "item-1" || page[1] != "item-2" {
		t.Fatalf("unexpected page: %v", page)
	}

	if err := s.TrimList("ns", "items", 2); err != nil {
		t.Fatalf("trim: %v", err)
	}
	all, _ := s.GetList("ns", "items", 0, 0)
	if len(all) != 2 || all[0] != "item-3" || all[1] != "item-4" {
		t.Fatalf("trim must keep newest entries, got %v", all)
	}

	s.ClearList("ns", "items")
	if n, _ := s.ListLength("ns", "items"); n != 0 {
		t.Fatalf("cleared list not empty: %d", n)
	}
}

func TestInMemoryKVStore_ConcurrentAccess(t *testing.T) {
	s := NewInMemoryKVStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			s.Set("ns", key, "v")
			s.Get("ns", key)
			s.Append("ns", "shared", "x")
		}(i)
	}
	wg.Wait()

	if n, _ := s.ListLength("ns", "shared"); n != 20 {
		t.Fatalf("expected 20 appends, got %d", n)
	}
}

func TestSessionStore_RoundTrip(t *testing.T) {
	s := NewSessionStore(NewInMemoryKVStore())
	ended := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)

	if err := s.EndSession("u1", MoodPositive, ended); err != nil {
		t.Fatalf("end session: %v", err)
	}
	rec := s.LastSession("u1")
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Mood != MoodPositive {
		t.Fatalf("expected positive mood, got %s", rec.Mood)
	}
	if rec.EndedAt != ended.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp %s", rec.EndedAt)
	}
}

func TestSessionStore_MissingAndCorrupt(t *testing.T) {
	kv := NewInMemoryKVStore()
	s := NewSessionStore(kv)

	if rec := s.LastSession("nobody"); rec != nil {
		t.Fatalf("expected nil for unknown user, got %+v", rec)
	}

	// Corrupt payloads degrade to nil, never error
	kv.Set("companion:u1", "session_end", "{not json")
	if rec := s.LastSession("u1"); rec != nil {
		t.Fatalf("expected nil for corrupt record, got %+v", rec)
	}
}

func TestSessionStore_PerUserIsolation(t *testing.T) {
	s := NewSessionStore(NewInMemoryKVStore())
	now := time.Now()
	s.EndSession("u1", MoodCalm, now)
	s.EndSession("u2", MoodAnxious, now)

	if s.LastSession("u1").Mood != MoodCalm || s.LastSession("u2").Mood != MoodAnxious {
		t.Fatal("records must not leak across users")
	}
}
