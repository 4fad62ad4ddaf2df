package src

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	lockPollStep   = 120 * time.Millisecond
	lockStaleAfter = 10 * time.Minute
	lockOwnerFile  = "owner.json"
)

type lockWaitHook func(wait time.Duration)

type lockOwner struct {
	PID      int       `json:"pid"`
	Acquired time.Time `json:"acquired"`
}

// acquireDirLock takes an exclusive lock by creating path as a directory and
// returns its release func. A lock whose owner acquired it more than
// lockStaleAfter ago is broken.
func acquireDirLock(ctx context.Context, path string, hook lockWaitHook) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(lockPollStep)
	defer ticker.Stop()
	start := time.Now()
	for {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			owner, _ := json.Marshal(lockOwner{PID: os.Getpid(), Acquired: time.Now()})
			_ = os.WriteFile(filepath.Join(path, lockOwnerFile), owner, 0o644)
			return func() error { return os.RemoveAll(path) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, err
		}
		if lockIsStale(path) {
			_ = os.RemoveAll(path)
			continue
		}
		if hook != nil {
			hook(time.Since(start))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// lockIsStale falls back to the directory mtime when the owner file is
// missing or unreadable.
func lockIsStale(path string) bool {
	acquired := time.Time{}
	if raw, err := os.ReadFile(filepath.Join(path, lockOwnerFile)); err == nil {
		var owner lockOwner
		if json.Unmarshal(raw, &owner) == nil {
			acquired = owner.Acquired
		}
	}
	if acquired.IsZero() {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		acquired = info.ModTime()
	}
	return time.Since(acquired) > lockStaleAfter
}
