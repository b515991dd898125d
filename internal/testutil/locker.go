package testutil

import (
	"errors"
	"os"
	"sync"
)

// ErrLocked is returned by LockedRemover while a file is held.
var ErrLocked = errors.New("file is locked by another process")

// LockedRemover simulates a file held open by another process, the way
// Windows refuses to delete it. The first Held calls for a path fail with
// ErrLocked; later calls delete the file with os.Remove.
//
// Held < 0 keeps the file locked forever.
type LockedRemover struct {
	Held int

	mu    sync.Mutex
	calls map[string]int
}

// NewLockedRemover returns a remover that fails the first held calls per
// path.
func NewLockedRemover(held int) *LockedRemover {
	return &LockedRemover{Held: held, calls: map[string]int{}}
}

// Remove deletes path once the simulated lock is released.
func (r *LockedRemover) Remove(path string) error {
	r.mu.Lock()
	if r.calls == nil {
		r.calls = map[string]int{}
	}
	r.calls[path]++
	n := r.calls[path]
	r.mu.Unlock()

	if r.Held < 0 || n <= r.Held {
		return &os.PathError{Op: "remove", Path: path, Err: ErrLocked}
	}
	return os.Remove(path)
}

// Calls returns how many times Remove was called for path.
func (r *LockedRemover) Calls(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[path]
}
