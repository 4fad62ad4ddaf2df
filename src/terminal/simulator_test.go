package terminal

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestSimulatorCompletesCommands(t *testing.T) {
	var changes atomic.Int32
	sim := New(20*time.Millisecond, func() { changes.Add(1) })
	defer sim.Close()

	sim.Submit([]string{"npm install lodash", "npm install lodash"})
	entries := sim.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Status != StatusRunning || e.Output != RunningOutput {
			t.Fatalf("unexpected initial entry %+v", e)
		}
	}
	if entries[0].ID == entries[1].ID {
		t.Fatalf("identical commands must get distinct ids")
	}

	waitFor(t, func() bool { return sim.Running() == 0 })
	for _, e := range sim.Entries() {
		if e.Status != StatusSuccess || e.Output != SuccessOutput {
			t.Fatalf("unexpected final entry %+v", e)
		}
	}
	waitFor(t, func() bool { return changes.Load() >= 3 })
}

func TestSimulatorCloseStopsTimers(t *testing.T) {
	sim := New(time.Hour, nil)
	sim.Submit([]string{"npm run build"})
	sim.Close()
	sim.Submit([]string{"ignored"})
	if got := len(sim.Entries()); got != 1 {
		t.Fatalf("expected 1 entry after close, got %d", got)
	}
	if sim.Running() != 1 {
		t.Fatalf("entry should remain running after close")
	}
}

func TestSimulatorClearKeepsRunning(t *testing.T) {
	sim := New(time.Hour, nil)
	defer sim.Close()
	sim.Submit([]string{"a"})
	sim.Clear()
	if len(sim.Entries()) != 1 {
		t.Fatalf("running entry dropped by Clear")
	}
}
