package util

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// EnsureRootDirectory creates the download directory if it does not exist.
func EnsureRootDirectory(dir string) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		if mkErr := os.MkdirAll(absPath, 0755); mkErr != nil {
			return fmt.Errorf("failed to create directory '%s': %w", absPath, mkErr)
		}
	}
	return nil
}

// GenerateRequestID returns a fresh id for jobs and anonymous viewers.
func GenerateRequestID() string {
	return uuid.NewString()
}

func DeleteFilesOlderThan(dir string, olderThan time.Duration) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) > olderThan {
			path := filepath.Join(dir, file.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("[CLEANUP] Failed to delete %s: %v", path, err)
			} else {
				log.Printf("[CLEANUP] Deleted old file: %s", path)
			}
		}
	}

	return nil
}

// SlotLimiter caps concurrent downloads. A nil or zero-sized limiter never
// blocks.
type SlotLimiter struct {
	slots chan struct{}
}

func NewSlotLimiter(max int) *SlotLimiter {
	if max <= 0 {
		return &SlotLimiter{}
	}
	return &SlotLimiter{slots: make(chan struct{}, max)}
}

// Block until slot is acquired
func (l *SlotLimiter) Acquire() {
	if l == nil || l.slots == nil {
		return
	}
	l.slots <- struct{}{}
}

func (l *SlotLimiter) Release() {
	if l == nil || l.slots == nil {
		return
	}
	select {
	case <-l.slots:
	default:
	}
}

// Full reports whether the next Acquire would block.
func (l *SlotLimiter) Full() bool {
	if l == nil || l.slots == nil {
		return false
	}
	return len(l.slots) == cap(l.slots)
}
