package util

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// TempSuffix marks chapter folders that are still being downloaded.
const TempSuffix = "_tmp"

// InterruptContext returns a context cancelled on SIGINT or SIGTERM, or when
// parent is. Unless the returned cancel func was called first, the
// unfinished chapter folders under outputDir are then removed.
func InterruptContext(parent context.Context, outputDir string, log func(format string, args ...any)) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
		cancel()
	}

	go func() {
		defer signal.Stop(sig)

		select {
		case <-done:
			return
		case <-sig:
			cancel()
		case <-ctx.Done():
			select {
			case <-done:
				return
			default:
			}
		}

		log("interrupt received, cleaning up")
		for _, dir := range CleanupUnfinished(outputDir) {
			log("removed unfinished %s", dir)
		}
		RemoveIfEmpty(outputDir)
	}()

	return ctx, stop
}

// CleanupUnfinished removes temp chapter folders and partial archives in
// outputDir and returns what it removed.
func CleanupUnfinished(outputDir string) []string {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil
	}

	var removed []string
	for _, e := range entries {
		name := e.Name()

		unfinished := e.IsDir() && strings.HasSuffix(name, TempSuffix) ||
			!e.IsDir() && strings.HasSuffix(name, ".cbz.part")
		if !unfinished {
			continue
		}

		full := filepath.Join(outputDir, name)
		if err := os.RemoveAll(full); err == nil {
			removed = append(removed, full)
		}
	}

	return removed
}

// RemoveIfEmpty deletes dir when it has no entries.
func RemoveIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}

	return os.Remove(dir) == nil
}
