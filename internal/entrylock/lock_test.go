package entrylock_test

import (
	"errors"
	"testing"

	"tally/internal/entrylock"
	"tally/internal/services"
)

func TestAcquireIsExclusivePerEntry(t *testing.T) {
	dir := t.TempDir()
	first, err := entrylock.Acquire(dir, 10, 1)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	_, err = entrylock.Acquire(dir, 10, 1)
	if !errors.Is(err, entrylock.ErrLocked) || !errors.Is(err, services.ErrOperationInFlight) {
		t.Fatalf("expected entry to be locked, got %v", err)
	}

	other, err := entrylock.Acquire(dir, 10, 2)
	if err != nil {
		t.Fatalf("second entry should be independent: %v", err)
	}
	defer other.Release()

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	again, err := entrylock.Acquire(dir, 10, 1)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	_ = again.Release()
}
