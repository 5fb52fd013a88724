// Package storage is the back-end storage layer (C3): it turns named byte
// ranges into bytes on some actual medium - a local file, a remote JULEA
// server, or an S3 bucket - independent of anything the transform package
// does to those bytes first.
package storage

import (
	"time"

	"github.com/julea-project/julea-go/jerrors"
)

// Status is what a Backend reports about one blob: its current physical
// size and modification time. The transform and metadata layers above
// this one treat Size as non-authoritative (a size-changing codec's
// on-medium length is not the object's logical size) but ModTime has no
// other source - per spec.md section 4.5, mtime always comes from the
// back-end object itself.
type Status struct {
	Size    uint64
	ModTime time.Time
}

// Backend stores and retrieves named blobs of bytes by byte range. All
// offsets and lengths are relative to the transformed (on-medium)
// representation of an object; callers above this layer are responsible
// for any encode/decode step.
type Backend interface {
	// Create makes name exist as a zero-length blob. Creating a name
	// that already exists is not an error.
	Create(name string) error
	// Delete removes name. Deleting a name that does not exist is not
	// an error.
	Delete(name string) error
	// Read copies up to len(buf) bytes starting at offset into buf,
	// returning the number of bytes actually read. Reading past the
	// end of the blob returns fewer bytes than requested and a nil
	// error; it is the caller's job to notice a short read.
	Read(name string, buf []byte, offset uint64) (uint64, error)
	// Write stores buf at offset, extending the blob if necessary.
	Write(name string, buf []byte, offset uint64) (uint64, error)
	// Status reports the current size and modification time of name.
	Status(name string) (Status, error)
	// Sync flushes any buffered data for name to stable storage.
	Sync(name string) error
	// Close releases any resources the backend holds open.
	Close() error
}

// ErrNoSuchBackend is returned by the config-driven backend registry when
// asked for a backend module name nothing has registered.
var ErrNoSuchBackend = jerrors.New(jerrors.KindConfig, "Open", jerrors.ErrNotFound)
