// Package chunked is the chunked transformation object (C6): a logical
// byte stream split across fixed-size child flat objects, each one a
// standalone object.Object named "{name}_{k}".
package chunked

import (
	"fmt"
	"time"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/julog"
	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/object"
	"github.com/julea-project/julea-go/storage"
	"github.com/julea-project/julea-go/transform"
)

// Status is what Status() reports about a chunked object: sizes
// aggregated across every child, the latest child modification time, and
// the chunk geometry recorded in the parent's metadata record.
type Status struct {
	ModTime         time.Time
	OriginalSize    uint64
	TransformedSize uint64
	ChunkCount      uint64
	ChunkSize       uint64
}

// Object is a chunked transformation object: a name inside a namespace,
// whose bytes live across child flat objects named "{name}_0", "{name}_1",
// and so on, each at most ChunkSize bytes of logical (pre-transformation)
// data. Grounded on backend/chunker/chunker.go's composite-object model,
// narrowed from rclone's directory-of-chunks-plus-JSON-meta-object to
// storing chunk_count/chunk_size directly in the parent's metadata.Record.
type Object struct {
	Namespace string
	Name      string
	ChunkSize uint64

	store   *metadata.Store
	backend storage.Backend
}

// Open attaches to an existing or not-yet-created chunked object.
func Open(store *metadata.Store, backend storage.Backend, namespace, name string, chunkSize uint64) *Object {
	return &Object{Namespace: namespace, Name: name, ChunkSize: chunkSize, store: store, backend: backend}
}

// chunkName builds the name of the k-th child flat object, matching
// backend/chunker/chunker.go's makeChunkName convention of suffixing the
// parent name with the chunk index.
func (o *Object) chunkName(k uint64) string {
	return fmt.Sprintf("%s_%d", o.Name, k)
}

func (o *Object) child(k uint64) *object.Object {
	return object.Open(o.store, o.backend, o.Namespace, o.chunkName(k))
}

// Create makes the chunked object exist with one child chunk already
// live (name_0), the given transformation kind/mode applied to every
// child, and the given per-child chunk size. Per spec.md section 4.6,
// chunk_count is 1 immediately after create, not 0: a created-but-
// unwritten chunked object still has a chunk to grow from.
func (o *Object) Create(kind transform.Kind, mode transform.Mode) error {
	if _, err := o.store.Get(o.Namespace, o.Name); err == nil {
		return jerrors.New(jerrors.KindExists, "Create", jerrors.ErrExists)
	}
	if err := o.child(0).Create(kind, mode); err != nil {
		return err
	}
	rec := metadata.Record{
		Kind:       kind,
		Mode:       mode,
		IsChunked:  true,
		ChunkCount: 1,
		ChunkSize:  o.ChunkSize,
	}
	if err := o.store.Put(o.Namespace, o.Name, rec); err != nil {
		return err
	}
	julog.Debugf(o, "created chunked kind=%s mode=%s chunk_size=%d", kind, mode, o.ChunkSize)
	return nil
}

// Delete removes every child object and then the parent's own metadata
// record, in that order. A failure partway through leaves the parent
// record in place, listing some children that are already gone; calling
// Delete again finishes the job, since deleting an already-deleted child
// is not an error.
func (o *Object) Delete() error {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return err
	}
	for k := uint64(0); k < rec.ChunkCount; k++ {
		if err := o.child(k).Delete(); err != nil {
			return err
		}
	}
	if err := o.store.Delete(o.Namespace, o.Name); err != nil {
		return err
	}
	julog.Debugf(o, "deleted %d chunks", rec.ChunkCount)
	return nil
}

// Status aggregates every child's Status per spec.md section 4.6:
// original_size and transformed_size are summed across children, mtime
// is the latest child mtime, and chunk_count/chunk_size come straight
// from the parent's own metadata record.
func (o *Object) Status() (Status, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return Status{}, err
	}
	st := Status{ChunkCount: rec.ChunkCount, ChunkSize: rec.ChunkSize}
	for k := uint64(0); k < rec.ChunkCount; k++ {
		cs, err := o.child(k).Status()
		if err != nil {
			return Status{}, err
		}
		st.OriginalSize += cs.OriginalSize
		st.TransformedSize += cs.TransformedSize
		if cs.ModTime.After(st.ModTime) {
			st.ModTime = cs.ModTime
		}
	}
	return st, nil
}

func (o *Object) String() string {
	return o.Namespace + "/" + o.Name + " (chunked)"
}

// Write stores data at the given logical offset across as many children
// as it spans, creating new children (and bumping chunk_count) as needed.
func (o *Object) Write(caller transform.Caller, data []byte, offset uint64) (uint64, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return 0, err
	}
	if rec.ChunkSize == 0 {
		rec.ChunkSize = o.ChunkSize
	}

	var written uint64
	for written < uint64(len(data)) {
		absolute := offset + written
		k := absolute / rec.ChunkSize
		withinChunk := absolute % rec.ChunkSize
		n := rec.ChunkSize - withinChunk
		if remaining := uint64(len(data)) - written; n > remaining {
			n = remaining
		}

		for rec.ChunkCount <= k {
			if err := o.child(rec.ChunkCount).Create(rec.Kind, rec.Mode); err != nil {
				return written, err
			}
			rec.ChunkCount++
		}

		if _, err := o.child(k).Write(caller, data[written:written+n], withinChunk); err != nil {
			return written, err
		}
		written += n
	}

	if err := o.store.Put(o.Namespace, o.Name, rec); err != nil {
		return written, err
	}
	return written, nil
}

// Read retrieves up to len(buf) bytes starting at the given logical
// offset, spanning as many children as needed.
func (o *Object) Read(caller transform.Caller, buf []byte, offset uint64) (uint64, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return 0, err
	}
	if rec.ChunkSize == 0 {
		rec.ChunkSize = o.ChunkSize
	}

	var read uint64
	for read < uint64(len(buf)) {
		absolute := offset + read
		k := absolute / rec.ChunkSize
		if k >= rec.ChunkCount {
			break
		}
		withinChunk := absolute % rec.ChunkSize
		n := rec.ChunkSize - withinChunk
		if remaining := uint64(len(buf)) - read; n > remaining {
			n = remaining
		}

		got, err := o.child(k).Read(caller, buf[read:read+n], withinChunk)
		if err != nil {
			return read, err
		}
		read += got
		if got < n {
			// Short read from a child: either it's the last live chunk
			// or the stream genuinely ends here.
			break
		}
	}
	return read, nil
}
