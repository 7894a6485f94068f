package session

import (
	"testing"
	"time"
)

func TestSetGetClear(t *testing.T) {
	s := NewStore(0)

	if _, ok := s.Get(1); ok {
		t.Fatal("expected no flow for fresh user")
	}

	s.Set(1, Flow{Mode: ModeDelete, Step: StepItem})
	f, ok := s.Get(1)
	if !ok {
		t.Fatal("expected flow after Set")
	}
	if f.Mode != ModeDelete || f.Step != StepItem {
		t.Fatalf("unexpected flow %+v", f)
	}
	if f.StartedAt.IsZero() {
		t.Fatal("expected StartedAt to be stamped")
	}

	s.Clear(1)
	if _, ok := s.Get(1); ok {
		t.Fatal("expected no flow after Clear")
	}
	s.Clear(1) // second clear is a no-op
}

func TestUsersAreIndependent(t *testing.T) {
	s := NewStore(0)

	s.Set(1, Flow{Mode: ModeEdit, Step: StepEntry, Item: "milk"})
	s.Set(2, Flow{Mode: ModeDelete, Step: StepItem})

	f1, _ := s.Get(1)
	f2, _ := s.Get(2)
	if f1.Mode != ModeEdit || f2.Mode != ModeDelete {
		t.Fatalf("flows interfered: %+v / %+v", f1, f2)
	}

	s.Clear(1)
	if _, ok := s.Get(2); !ok {
		t.Fatal("clearing user 1 removed user 2's flow")
	}
}

func TestReentryOverwritesEarlierFlow(t *testing.T) {
	s := NewStore(0)

	s.Set(1, Flow{Mode: ModeEdit, Step: StepReplacement, Item: "milk", EntryID: 7})
	s.Set(1, Flow{Mode: ModeDelete, Step: StepItem})

	f, ok := s.Get(1)
	if !ok {
		t.Fatal("expected flow")
	}
	if f.Mode != ModeDelete || f.Step != StepItem || f.EntryID != 0 {
		t.Fatalf("expected earlier flow abandoned, got %+v", f)
	}
}

func TestExpiredFlowIsEvicted(t *testing.T) {
	s := NewStore(time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Set(1, Flow{Mode: ModeEdit, Step: StepItem})

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := s.Get(1); ok {
		t.Fatal("expected expired flow to be gone")
	}

	s.mu.Lock()
	_, still := s.flows[1]
	s.mu.Unlock()
	if still {
		t.Fatal("expected expired flow to be deleted from the map")
	}
}
