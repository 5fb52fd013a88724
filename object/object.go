// Package object is the flat transformation object (C5): a single
// back-end blob plus the metadata record describing which codec, if any,
// transparently transforms its bytes.
package object

import (
	"time"

	"github.com/pkg/errors"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/julog"
	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/storage"
	"github.com/julea-project/julea-go/transform"
)

// Status is what Status() reports about a flat object: its back-end
// modification time plus the sizes and codec kind recorded in its
// metadata. Per spec.md section 4.5, mtime comes from the back-end
// object; sizes and kind come from the metadata record, since a
// size-changing codec's physical on-medium length is not authoritative
// for anything but TransformedSize itself.
type Status struct {
	ModTime         time.Time
	OriginalSize    uint64
	TransformedSize uint64
	Kind            transform.Kind
}

// errShortWholeObject is the cause wrapped into jerrors.KindCodec when a
// whole-object decode yields fewer bytes than its own metadata record
// promises.
var errShortWholeObject = errors.New("object: decoded fewer bytes than the record's original_size")

// Object is one flat transformation object: a name inside a namespace,
// backed by one storage.Backend blob and one metadata.Record.
type Object struct {
	Namespace string
	Name      string

	store   *metadata.Store
	backend storage.Backend
}

// Open attaches to an existing or not-yet-created object. It does no I/O
// itself; Create, Read, Write, Delete and Status each load the current
// metadata record as needed.
func Open(store *metadata.Store, backend storage.Backend, namespace, name string) *Object {
	return &Object{Namespace: namespace, Name: name, store: store, backend: backend}
}

// Create makes the object exist with the given transformation kind and
// mode, storing an initial zero-size metadata record and an empty
// back-end blob. Creating an object that already exists reports
// jerrors.KindExists.
func (o *Object) Create(kind transform.Kind, mode transform.Mode) error {
	if _, err := o.store.Get(o.Namespace, o.Name); err == nil {
		return jerrors.New(jerrors.KindExists, "Create", jerrors.ErrExists)
	}
	if err := o.backend.Create(o.Name); err != nil {
		return err
	}
	rec := metadata.Record{Kind: kind, Mode: mode}
	if err := o.store.Put(o.Namespace, o.Name, rec); err != nil {
		return err
	}
	julog.Debugf(o, "created kind=%s mode=%s", kind, mode)
	return nil
}

// Delete removes the object's metadata record and then its back-end blob,
// in that order (see DESIGN.md's Open Question resolution #4): a crash
// between the two steps leaves an orphaned blob, never a metadata record
// pointing at nothing.
func (o *Object) Delete() error {
	if err := o.store.Delete(o.Namespace, o.Name); err != nil {
		return err
	}
	if err := o.backend.Delete(o.Name); err != nil {
		return err
	}
	julog.Debugf(o, "deleted")
	return nil
}

// Status reports the object's modification time, logical size,
// transformed size and codec kind.
func (o *Object) Status() (Status, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return Status{}, err
	}
	bs, err := o.backend.Status(o.Name)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ModTime:         bs.ModTime,
		OriginalSize:    rec.OriginalSize,
		TransformedSize: rec.TransformedSize,
		Kind:            rec.Kind,
	}, nil
}

func (o *Object) String() string {
	return o.Namespace + "/" + o.Name
}

// Write stores data at the given logical offset, as seen by caller. See
// writeWholeObject and writePartial for the two branches this splits
// into.
func (o *Object) Write(caller transform.Caller, data []byte, offset uint64) (uint64, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return 0, err
	}
	tr := transform.New(rec.Kind, rec.Mode)
	if tr.NeedWholeObject(caller) {
		return o.writeWholeObject(tr, &rec, caller, data, offset)
	}
	return o.writePartial(tr, &rec, caller, data, offset)
}

// Read retrieves up to len(buf) bytes starting at the given logical
// offset, as seen by caller.
func (o *Object) Read(caller transform.Caller, buf []byte, offset uint64) (uint64, error) {
	rec, err := o.store.Get(o.Namespace, o.Name)
	if err != nil {
		return 0, err
	}
	tr := transform.New(rec.Kind, rec.Mode)
	if tr.NeedWholeObject(caller) {
		return o.readWholeObject(tr, rec, caller, buf, offset)
	}
	return o.readPartial(tr, rec, caller, buf, offset)
}

// writePartial applies the caller's direction to just the bytes being
// written and stores them at the same offset, valid only for
// size-preserving, partial-accessible codecs (None, Xor). Grounded on
// backend/crypt/cipher.go's in-place block transform, which never needs
// to touch bytes outside the range being written.
func (o *Object) writePartial(tr transform.Transformation, rec *metadata.Record, caller transform.Caller, data []byte, offset uint64) (uint64, error) {
	out, outLen, outOffset, err := tr.Apply(caller, data, uint64(len(data)), offset)
	if err != nil {
		return 0, err
	}
	n, err := o.backend.Write(o.Name, out[:outLen], outOffset)
	if err != nil {
		return 0, err
	}
	if end := offset + uint64(len(data)); end > rec.OriginalSize {
		rec.OriginalSize = end
		rec.TransformedSize = end
		if err := o.store.Put(o.Namespace, o.Name, *rec); err != nil {
			return n, err
		}
	}
	return n, nil
}

// writeWholeObject implements the read-modify-write cycle required by
// non-partial-accessible codecs (Rle, Lz4): reconstruct the whole current
// object as plaintext, splice the new bytes in at the logical offset,
// then store the result back as one blob - encoded first, unless the
// object's Mode means the back-end already holds plaintext (see
// readCurrentPlaintext).
func (o *Object) writeWholeObject(tr transform.Transformation, rec *metadata.Record, caller transform.Caller, data []byte, offset uint64) (uint64, error) {
	plain, err := o.readCurrentPlaintext(tr, *rec)
	if err != nil {
		return 0, err
	}
	end := offset + uint64(len(data))
	if uint64(len(plain)) < end {
		grown := make([]byte, end)
		copy(grown, plain)
		plain = grown
	}
	copy(plain[offset:], data)

	stored, storedLen := plain, uint64(len(plain))
	if rec.Mode != transform.Transport {
		encoded, encLen, _, err := tr.Apply(caller, plain, uint64(len(plain)), 0)
		if err != nil {
			return 0, err
		}
		stored, storedLen = encoded, encLen
	}
	if _, err := o.backend.Write(o.Name, stored[:storedLen], 0); err != nil {
		return 0, err
	}
	rec.OriginalSize = uint64(len(plain))
	rec.TransformedSize = storedLen
	if err := o.store.Put(o.Namespace, o.Name, *rec); err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

// readPartial reads the requested range directly from the back-end and
// applies the caller's direction to just those bytes, valid only for
// size-preserving, partial-accessible codecs.
func (o *Object) readPartial(tr transform.Transformation, rec metadata.Record, caller transform.Caller, buf []byte, offset uint64) (uint64, error) {
	n, err := o.backend.Read(o.Name, buf, offset)
	if err != nil {
		return 0, err
	}
	out, outLen, _, err := tr.Apply(caller, buf[:n], n, offset)
	if err != nil {
		return 0, err
	}
	copy(buf, out[:outLen])
	return outLen, nil
}

// readWholeObject decodes the entire back-end blob and copies out the
// requested logical range. Grounded on backend/crypt/cipher.go's
// DecryptData (whole-stream decode, no seek support) as the model for a
// codec that cannot address a sub-range directly.
func (o *Object) readWholeObject(tr transform.Transformation, rec metadata.Record, caller transform.Caller, buf []byte, offset uint64) (uint64, error) {
	plain, err := o.readCurrentPlaintext(tr, rec)
	if err != nil {
		return 0, err
	}
	if offset >= uint64(len(plain)) {
		if uint64(len(plain)) < rec.OriginalSize {
			return 0, jerrors.New(jerrors.KindCodec, "readWholeObject", errShortWholeObject)
		}
		return 0, nil
	}
	n := uint64(copy(buf, plain[offset:]))
	if n < uint64(len(buf)) && offset+n < rec.OriginalSize {
		// The back-end decoded to fewer bytes than the metadata record
		// promises: the stored blob is corrupt, not merely short.
		return n, jerrors.New(jerrors.KindCodec, "readWholeObject", errShortWholeObject)
	}
	return n, nil
}

// readCurrentPlaintext fetches the object's entire stored blob and, if
// necessary, decodes it back to plaintext. What the back-end actually
// holds depends on Mode: Client and Server mode objects store ciphertext
// (the codec runs entirely client-side, or entirely server-side, with
// the other side always Skip-ing per the direction table), so
// reconstructing plaintext here means decoding it. Transport mode is the
// opposite: the server's own write path already decodes incoming bytes
// before storing (ServerWrite×Transport=Decode) and encodes them again
// only when replying to a read (ServerRead×Transport=Encode), so the
// back-end already holds plaintext and no further decode is needed -
// applying one here would corrupt the data and mis-size OriginalSize.
func (o *Object) readCurrentPlaintext(tr transform.Transformation, rec metadata.Record) ([]byte, error) {
	if rec.TransformedSize == 0 {
		return nil, nil
	}
	raw := make([]byte, rec.TransformedSize)
	n, err := o.backend.Read(o.Name, raw, 0)
	if err != nil {
		return nil, err
	}
	if rec.Mode == transform.Transport {
		return raw[:n], nil
	}
	plain, plainLen, _, err := tr.Apply(decodeCallerFor(rec.Mode), raw[:n], n, 0)
	if err != nil {
		return nil, err
	}
	return plain[:plainLen], nil
}

// decodeCallerFor picks a Caller whose direction resolves to Decode for
// the object's own mode, for internal whole-object reconstruction that is
// not itself a client or server request.
func decodeCallerFor(mode transform.Mode) transform.Caller {
	if mode == transform.Server {
		return transform.ServerRead
	}
	return transform.ClientRead
}
