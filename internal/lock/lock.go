package lock

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock guards a project against concurrent CLI invocations racing on
// the same staged files or credential state.
type Lock struct {
	file *flock.Flock
}

// Acquire takes the per-project lock next to the config file. A second
// push or dev run against the same project fails immediately.
func Acquire(configDir string) (*Lock, error) {
	path := filepath.Join(configDir, ".playcast.lock")
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another playcast command is already running for this project (lock: %s)", path)
	}
	return &Lock{file: lock}, nil
}

// Release frees the lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Unlock()
}
