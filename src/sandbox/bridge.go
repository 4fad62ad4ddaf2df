// Package sandbox hosts the preview document and receives the console bridge
// messages it emits.
package sandbox

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// BridgeMessageType tags console bridge messages.
const BridgeMessageType = "CONSOLE_LOG"

type Level string

const (
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a bridge level onto a known level; unknown values are log.
func ParseLevel(s string) Level {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case LevelInfo, LevelWarn, LevelError:
		return l
	}
	return LevelLog
}

// LogEntry is one console record received from the sandbox.
type LogEntry struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type bridgeMessage struct {
	Type     string `json:"type"`
	LogLevel string `json:"logLevel"`
	Level    string `json:"level"`
	Message  string `json:"message"`
}

// Decode turns a raw bridge message into a LogEntry stamped with now. It
// reports false for anything that is not a console bridge message.
func Decode(raw []byte, now time.Time) (LogEntry, bool) {
	var msg bridgeMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != BridgeMessageType {
		return LogEntry{}, false
	}
	level := msg.LogLevel
	if level == "" {
		level = msg.Level
	}
	return LogEntry{Level: ParseLevel(level), Message: msg.Message, Timestamp: now}, true
}

// LogBuffer keeps console entries in arrival order and fans them out to
// subscribers without ever blocking the sender.
type LogBuffer struct {
	mu      sync.Mutex
	limit   int
	entries []LogEntry
	subs    []chan LogEntry
}

// NewLogBuffer keeps at most limit entries; zero means unbounded.
func NewLogBuffer(limit int) *LogBuffer {
	return &LogBuffer{limit: limit}
}

// Publish appends e and offers it to every subscriber. Slow subscribers miss
// the entry.
func (b *LogBuffer) Publish(e LogEntry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	if b.limit > 0 && len(b.entries) > b.limit {
		b.entries = append([]LogEntry(nil), b.entries[len(b.entries)-b.limit:]...)
	}
	subs := append([]chan LogEntry(nil), b.subs...)
	b.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel receiving future entries.
func (b *LogBuffer) Subscribe(buffer int) <-chan LogEntry {
	ch := make(chan LogEntry, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]LogEntry(nil), b.entries...)
}

func (b *LogBuffer) Clear() {
	b.mu.Lock()
	b.entries = nil
	b.mu.Unlock()
}
