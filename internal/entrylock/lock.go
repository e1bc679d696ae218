// Package entrylock keeps two tally processes from running operations on the
// same data entry at once.
package entrylock

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"tally/internal/services"
)

// ErrLocked is returned when another process holds the entry.
var ErrLocked = errors.New("data entry is in use by another tally process")

// Lock is an acquired per-entry lock.
type Lock struct {
	path string
	lock *flock.Flock
}

// Path returns the lock file location for an entry.
func Path(dir string, pollingStationID int64, entryNumber int) string {
	return filepath.Join(dir, fmt.Sprintf("ps%d-entry%d.lock", pollingStationID, entryNumber))
}

// Acquire takes the entry's lock without waiting. It fails with ErrLocked,
// also matching services.ErrOperationInFlight, when the entry is held.
func Acquire(dir string, pollingStationID int64, entryNumber int) (*Lock, error) {
	path := Path(dir, pollingStationID, entryNumber)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%w): %s", ErrLocked, services.ErrOperationInFlight, path)
	}
	return &Lock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
