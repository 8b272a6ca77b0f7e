// Package partial owns the on-disk ".part" artifact of an in-progress
// transfer: size accounting for resume decisions, truncate/append opens, and
// the atomic promotion to the final destination.
package partial

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const Suffix = ".part"

// Path returns the partial artifact path for a destination.
func Path(dest string) string {
	return dest + Suffix
}

// File is the handle for one destination's partial artifact. At most one
// File per destination may be writing at a time; callers serialize through
// Acquire.
type File struct {
	dest string
	path string
	f    *os.File
}

func For(dest string) *File {
	return &File{dest: dest, path: Path(dest)}
}

// Size reports the bytes flushed to the artifact so far, 0 when it does not
// exist yet. Only valid for resume decisions while the handle is closed or
// after Sync.
func (p *File) Size() (int64, error) {
	info, err := os.Stat(p.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("error statting partial file: %v", err)
	}
	return info.Size(), nil
}

// Create ensures the artifact exists, leaving existing bytes untouched.
func (p *File) Create() error {
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating partial file: %v", err)
	}
	return f.Close()
}

// OpenAppend opens the artifact for appending after previously flushed bytes.
func (p *File) OpenAppend() error {
	return p.open(os.O_CREATE | os.O_WRONLY | os.O_APPEND)
}

// OpenTruncate opens the artifact discarding any accumulated bytes.
func (p *File) OpenTruncate() error {
	return p.open(os.O_CREATE | os.O_WRONLY | os.O_TRUNC)
}

func (p *File) open(flags int) error {
	if p.f != nil {
		return fmt.Errorf("partial file already open: %s", p.path)
	}
	f, err := os.OpenFile(p.path, flags, 0644)
	if err != nil {
		return fmt.Errorf("error opening partial file: %v", err)
	}
	p.f = f
	return nil
}

// Write persists a chunk, verifying the full chunk reached the file.
func (p *File) Write(b []byte) error {
	n, err := p.f.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

func (p *File) Sync() error {
	if p.f == nil {
		return nil
	}
	return p.f.Sync()
}

// Close is safe to call on every exit path, open handle or not.
func (p *File) Close() error {
	if p.f == nil {
		return nil
	}
	err := p.f.Close()
	p.f = nil
	return err
}

// Promote renames the flushed artifact onto the destination. The handle must
// be closed first; the artifact ceases to exist on success.
func (p *File) Promote() error {
	if p.f != nil {
		return fmt.Errorf("partial file still open: %s", p.path)
	}
	if err := os.Rename(p.path, p.dest); err != nil {
		return fmt.Errorf("error renaming partial file to destination: %v", err)
	}
	return nil
}

var destLocks sync.Map // cleaned destination path -> *sync.Mutex

// Acquire serializes transfers targeting the same destination within this
// process. The returned release function must be called when the transfer
// exits.
func Acquire(dest string) func() {
	key := filepath.Clean(dest)
	mu, _ := destLocks.LoadOrStore(key, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}
