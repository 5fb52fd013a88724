package metadata

import (
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/julea-project/julea-go/jerrors"
	"github.com/julea-project/julea-go/metadata/kv"
)

// Store is the durable record of every live transformation object: one
// Record per (namespace, name), persisted through a kv.DB. A namespace
// maps one-to-one onto a bolt bucket, so objects in different namespaces
// never collide even when their names do.
type Store struct {
	db *kv.DB
}

// NewStore wraps an already-started kv.DB as a metadata Store.
func NewStore(db *kv.DB) *Store {
	return &Store{db: db}
}

// Put writes (or overwrites) the record for name within ns.
func (s *Store) Put(ns, name string, rec Record) error {
	err := s.db.Do(true, ns, &opPut{key: name, value: rec.Marshal()})
	if err != nil {
		return jerrors.New(jerrors.KindBackend, "Put", err)
	}
	return nil
}

// Get reads the record for name within ns. It returns jerrors.ErrNotFound
// (checkable with jerrors.Is(err, jerrors.KindNotFound)) if no such
// namespace or name exists.
func (s *Store) Get(ns, name string) (Record, error) {
	var data []byte
	err := s.db.Do(false, ns, &opGet{key: name, out: &data})
	if err == kv.ErrEmpty {
		return Record{}, jerrors.New(jerrors.KindNotFound, "Get", jerrors.ErrNotFound)
	}
	if err != nil {
		return Record{}, jerrors.New(jerrors.KindBackend, "Get", err)
	}
	if data == nil {
		return Record{}, jerrors.New(jerrors.KindNotFound, "Get", jerrors.ErrNotFound)
	}
	rec, err := Unmarshal(data)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes the record for name within ns. Deleting a name that does
// not exist is not an error, matching bolt's own Delete semantics.
func (s *Store) Delete(ns, name string) error {
	err := s.db.Do(true, ns, &opDelete{key: name})
	if err == kv.ErrEmpty {
		return nil
	}
	if err != nil {
		return jerrors.New(jerrors.KindBackend, "Delete", err)
	}
	return nil
}

// Iterate calls fn once per (name, record) pair in ns whose name starts
// with prefix, in key order, stopping early if fn returns an error. A
// namespace that does not exist yet iterates zero records rather than
// erroring.
func (s *Store) Iterate(ns, prefix string, fn func(name string, rec Record) error) error {
	var walkErr error
	err := s.db.Do(false, ns, &opIterate{
		prefix: prefix,
		fn: func(key string, value []byte) error {
			rec, err := Unmarshal(value)
			if err != nil {
				walkErr = err
				return err
			}
			if err := fn(key, rec); err != nil {
				walkErr = err
				return err
			}
			return nil
		},
	})
	if err == kv.ErrEmpty {
		return nil
	}
	if err != nil {
		if walkErr != nil {
			return walkErr
		}
		return jerrors.New(jerrors.KindBackend, "Iterate", err)
	}
	return nil
}

type opPut struct {
	key   string
	value []byte
}

func (op *opPut) Do(b *bolt.Bucket) error {
	return b.Put([]byte(op.key), op.value)
}

type opGet struct {
	key string
	out *[]byte
}

func (op *opGet) Do(b *bolt.Bucket) error {
	v := b.Get([]byte(op.key))
	if v == nil {
		return kv.ErrEmpty
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	*op.out = cp
	return nil
}

type opDelete struct {
	key string
}

func (op *opDelete) Do(b *bolt.Bucket) error {
	return b.Delete([]byte(op.key))
}

type opIterate struct {
	prefix string
	fn     func(key string, value []byte) error
}

func (op *opIterate) Do(b *bolt.Bucket) error {
	c := b.Cursor()
	prefix := []byte(op.prefix)
	for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), op.prefix); k, v = c.Next() {
		if err := op.fn(string(k), v); err != nil {
			return err
		}
	}
	return nil
}
