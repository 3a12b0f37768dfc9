// Package workspace manages the per-item scratch directories under the work root.
//
// Each source item gets <root>/<id>/. A sibling lock file <root>/<id>.lock is
// held while a run uses the directory, so two runs never share one item's
// scratch space at the same time.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/poiesic/scribe/core"
)

// ErrItemBusy is returned when another run holds the item's scratch directory.
var ErrItemBusy = errors.New("item is being processed by another run")

// Dir is a locked scratch directory for one source item.
type Dir struct {
	// Path is the scratch directory.
	Path string

	lock *flock.Flock
}

// Acquire creates and locks the scratch directory for id under root.
// It fails with ErrItemBusy instead of waiting when the lock is held.
func Acquire(root, id string) (*Dir, error) {
	if err := core.ValidateSourceID(id); err != nil {
		return nil, err
	}
	path := filepath.Join(root, id)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemBusy, id)
	}
	return &Dir{Path: path, lock: lock}, nil
}

// File returns the path of name inside the scratch directory.
func (d *Dir) File(name string) string {
	return filepath.Join(d.Path, name)
}

// Exists reports whether name is a regular file in the scratch directory.
func (d *Dir) Exists(name string) bool {
	info, err := os.Stat(d.File(name))
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes name from the scratch directory if present.
func (d *Dir) Remove(name string) error {
	if err := os.Remove(d.File(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear deletes the whole scratch directory. The lock stays held until Release.
func (d *Dir) Clear() error {
	return os.RemoveAll(d.Path)
}

// Release unlocks the directory. It is safe to call more than once.
func (d *Dir) Release() error {
	if d == nil || d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}
