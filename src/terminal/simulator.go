// Package terminal simulates the execution of commands emitted by a
// generation turn. Nothing is ever executed.
package terminal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const (
	// DefaultDelay is how long a simulated command stays running.
	DefaultDelay = 1500 * time.Millisecond

	RunningOutput = "Running..."
	SuccessOutput = "Success: Processed package/command."
)

// Entry is one simulated command.
type Entry struct {
	ID        string
	Command   string
	Output    string
	Status    Status
	Timestamp time.Time
}

// Simulator records submitted commands and flips each one to success after
// a fixed delay.
type Simulator struct {
	delay    time.Duration
	now      func() time.Time
	onChange func()

	mu      sync.Mutex
	entries []Entry
	timers  map[string]*time.Timer
	closed  bool
}

func New(delay time.Duration, onChange func()) *Simulator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Simulator{
		delay:    delay,
		now:      time.Now,
		onChange: onChange,
		timers:   make(map[string]*time.Timer),
	}
}

// SetOnChange replaces the change callback.
func (s *Simulator) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Simulator) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Submit appends one running entry per command and schedules completion.
func (s *Simulator) Submit(commands []string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for _, cmd := range commands {
		e := Entry{
			ID:        uuid.NewString(),
			Command:   cmd,
			Output:    RunningOutput,
			Status:    StatusRunning,
			Timestamp: s.now(),
		}
		s.entries = append(s.entries, e)
		id := e.ID
		s.timers[id] = time.AfterFunc(s.delay, func() { s.complete(id) })
	}
	s.mu.Unlock()
	if len(commands) > 0 {
		s.changed()
	}
}

func (s *Simulator) complete(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	found := false
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Status = StatusSuccess
			s.entries[i].Output = SuccessOutput
			found = true
			break
		}
	}
	s.mu.Unlock()
	if found {
		s.changed()
	}
}

// Entries returns a snapshot in submission order.
func (s *Simulator) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Running reports how many entries have not completed yet.
func (s *Simulator) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.Status == StatusRunning {
			n++
		}
	}
	return n
}

// Clear drops completed entries.
func (s *Simulator) Clear() {
	s.mu.Lock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.Status == StatusRunning {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.mu.Unlock()
	s.changed()
}

// Close stops pending timers; running entries stay running.
func (s *Simulator) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
