package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// Lock holds an exclusive file handle over the workspace's lock file for
// the duration of a save, giving per-workspace last-writer-wins
// semantics. Cross-process exclusion uses syscall.Flock; the embedded
// mutex covers goroutines sharing one Lock value.
type Lock struct {
	mu   sync.Mutex
	file *os.File
}

// NewLock returns a Lock for the store's hidden directory.
func (s *Store) NewLock() *Lock {
	return &Lock{}
}

// Acquire blocks until the workspace's lock file can be exclusively held.
func (l *Lock) Acquire(s *Store) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIoFailed, err)
	}
	path := filepath.Join(s.dir, ".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening lock file: %v", domain.ErrIoFailed, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return fmt.Errorf("%w: acquiring lock: %v", domain.ErrIoFailed, err)
	}
	l.file = f
	return nil
}

// Release unlocks and closes the lock file handle. Safe to call on an
// unacquired Lock.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("%w: releasing lock: %v", domain.ErrIoFailed, err)
	}
	return closeErr
}
