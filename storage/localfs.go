package storage

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/julea-project/julea-go/jerrors"
)

// LocalFS is a Backend that stores each blob as a file under root.
// Grounded on backend/local/local.go's Object.Open/Update/Remove: open the
// underlying file for random access, seek to offset, read or write, and
// leave flushing to an explicit Sync rather than closing between calls.
type LocalFS struct {
	root string

	mu    sync.Mutex
	files map[string]*os.File
}

// NewLocalFS opens a LocalFS backend rooted at root, creating the
// directory if it does not already exist.
func NewLocalFS(root string) (*LocalFS, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, jerrors.New(jerrors.KindBackend, "NewLocalFS", err)
	}
	return &LocalFS{root: root, files: map[string]*os.File{}}, nil
}

func (l *LocalFS) path(name string) string {
	return filepath.Join(l.root, name)
}

func (l *LocalFS) handle(name string, create bool) (*os.File, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.files[name]; ok {
		return f, nil
	}
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}
	f, err := os.OpenFile(l.path(name), flags, 0666)
	if err != nil {
		return nil, err
	}
	l.files[name] = f
	return f, nil
}

// Create makes name exist as a zero-length file, same shape as
// Object.mkdirAll + file.Open(O_CREATE) in backend/local/local.go.
func (l *LocalFS) Create(name string) error {
	if _, err := l.handle(name, true); err != nil {
		return jerrors.New(jerrors.KindBackend, "Create", err)
	}
	return nil
}

// Delete removes name's underlying file.
func (l *LocalFS) Delete(name string) error {
	l.mu.Lock()
	f, open := l.files[name]
	delete(l.files, name)
	l.mu.Unlock()
	if open {
		_ = f.Close()
	}
	if err := os.Remove(l.path(name)); err != nil && !os.IsNotExist(err) {
		return jerrors.New(jerrors.KindBackend, "Delete", err)
	}
	return nil
}

// Read implements Backend.Read via pread-style Seek+Read, matching
// Object.Open's offset seek in backend/local/local.go.
func (l *LocalFS) Read(name string, buf []byte, offset uint64) (uint64, error) {
	f, err := l.handle(name, false)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, jerrors.New(jerrors.KindNotFound, "Read", jerrors.ErrNotFound)
		}
		return 0, jerrors.New(jerrors.KindBackend, "Read", err)
	}
	n, err := f.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return uint64(n), jerrors.New(jerrors.KindBackend, "Read", err)
	}
	return uint64(n), nil
}

// Write implements Backend.Write via pwrite-style WriteAt, matching
// Object.Update's io.Copy into a file opened for writing.
func (l *LocalFS) Write(name string, buf []byte, offset uint64) (uint64, error) {
	f, err := l.handle(name, true)
	if err != nil {
		return 0, jerrors.New(jerrors.KindBackend, "Write", err)
	}
	n, err := f.WriteAt(buf, int64(offset))
	if err != nil {
		return uint64(n), jerrors.New(jerrors.KindBackend, "Write", err)
	}
	return uint64(n), nil
}

// Status reports the current file size and mtime, matching Object.lstat
// in backend/local/local.go.
func (l *LocalFS) Status(name string) (Status, error) {
	fi, err := os.Stat(l.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return Status{}, jerrors.New(jerrors.KindNotFound, "Status", jerrors.ErrNotFound)
		}
		return Status{}, jerrors.New(jerrors.KindBackend, "Status", err)
	}
	return Status{Size: uint64(fi.Size()), ModTime: fi.ModTime()}, nil
}

// Sync flushes name's open file descriptor to disk.
func (l *LocalFS) Sync(name string) error {
	l.mu.Lock()
	f, ok := l.files[name]
	l.mu.Unlock()
	if !ok {
		return nil
	}
	if err := f.Sync(); err != nil {
		return jerrors.New(jerrors.KindBackend, "Sync", err)
	}
	return nil
}

// Close closes every open file descriptor this backend holds.
func (l *LocalFS) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var first error
	for name, f := range l.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(l.files, name)
	}
	if first != nil {
		return jerrors.New(jerrors.KindBackend, "Close", first)
	}
	return nil
}
