package history

import (
	"testing"
	"time"
)

func TestSessionsIsolateLedgers(t *testing.T) {
	s := NewSessions(16, time.Minute)

	a := s.Get("session-a")
	b := s.Get("session-b")
	if a == b {
		t.Fatal("distinct sessions share a ledger")
	}

	a.Append(entry("id-0", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00"))
	if b.Len() != 0 {
		t.Fatal("entry leaked across sessions")
	}
}

func TestSessionsGetIsStable(t *testing.T) {
	s := NewSessions(16, time.Minute)

	first := s.Get("session-a")
	first.Append(entry("id-0", "Braund, Mr. Owen Harris", "2026-08-26 10:00:00"))

	again := s.Get("session-a")
	if again != first {
		t.Fatal("repeated Get returned a different ledger")
	}
	if again.Len() != 1 {
		t.Fatalf("ledger lost entries: %d", again.Len())
	}
}

func TestSessionsPeekDoesNotCreate(t *testing.T) {
	s := NewSessions(16, time.Minute)
	if _, ok := s.Peek("never-seen"); ok {
		t.Fatal("Peek created a session")
	}
	s.Get("seen")
	if _, ok := s.Peek("seen"); !ok {
		t.Fatal("Peek missed an existing session")
	}
}

func TestSessionsCapacityEviction(t *testing.T) {
	s := NewSessions(2, time.Hour)
	s.Get("a")
	s.Get("b")
	s.Get("c") // evicts the least recently used

	if s.Len() != 2 {
		t.Fatalf("registry holds %d sessions, want 2", s.Len())
	}
	if _, ok := s.Peek("a"); ok {
		t.Fatal("oldest session survived past capacity")
	}
}
