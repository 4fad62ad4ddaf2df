package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	for i, msg := range []string{"first", "second"} {
		log, closer, err := New(dir, slog.LevelInfo)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		log.Info(msg, "run", i)
		log.Debug("hidden")
		closer.Close()
	}
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "msg=first") || !strings.Contains(text, "msg=second") {
		t.Fatalf("log not appended: %q", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug line written at info level")
	}
}
