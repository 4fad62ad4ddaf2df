package src

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

var (
	localLocksMu sync.Mutex
	localLocks   = map[string]*sync.Mutex{}
)

func localLock(key string) *sync.Mutex {
	localLocksMu.Lock()
	defer localLocksMu.Unlock()
	mu, ok := localLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		localLocks[key] = mu
	}
	return mu
}

// withCodegenLock runs fn while holding the workspace's generation lock, so
// two headless runs never write the same workspace at once.
func withCodegenLock(ctx context.Context, workspace string, log *slog.Logger, fn func() error) error {
	lockPath := filepath.Join(workspace, stateDirName, "codegen.lock")
	mu := localLock(lockPath)
	mu.Lock()
	defer mu.Unlock()

	warned := false
	release, err := acquireDirLock(ctx, lockPath, func(wait time.Duration) {
		if warned || wait < 500*time.Millisecond {
			return
		}
		warned = true
		log.Info("waiting for workspace generation lock", "workspace", workspace)
	})
	if err != nil {
		return fmt.Errorf("workspace lock: %w", err)
	}
	if warned {
		log.Info("workspace generation lock acquired", "workspace", workspace)
	}
	defer func() {
		if err := release(); err != nil {
			log.Warn("release workspace lock", "err", err)
		}
	}()

	return fn()
}
