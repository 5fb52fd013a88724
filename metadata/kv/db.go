// Package kv wraps a single embedded key/value engine (bbolt) behind a
// reference-counted handle, so that several callers asking for the same
// facility/path share one underlying database instead of each opening
// their own file descriptor. The refcounting contract - Start increments
// or opens, Stop decrements or closes, Exit force-closes everything - is
// grounded on rclone's own lib/kv package, whose implementation is not
// present in the retrieval pack but whose contract is pinned down exactly
// by lib/kv/internal_test.go's TestKvConcurrency and TestKvExit.
package kv

import (
	"sync"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// ErrInactive is returned by Stop when called on an already-closed DB.
var ErrInactive = errors.New("kv: database is not active")

// ErrEmpty is returned by lookups that find no value for a key.
var ErrEmpty = errors.New("kv: key not found")

type entry struct {
	db   *bolt.DB
	refs int
}

var (
	mu    sync.Mutex
	dbMap = map[string]*entry{}
)

// DB is a reference-counted handle on a bbolt database file.
type DB struct {
	facility string
	path     string
	bolt     *bolt.DB
}

// Start opens (or attaches to an already-open) database identified by
// facility+path. Concurrent callers for the same facility+path receive
// handles backed by the same *bolt.DB and bump a shared refcount.
func Start(facility, path string) (*DB, error) {
	key := facility + "\x00" + path
	mu.Lock()
	defer mu.Unlock()

	if e, ok := dbMap[key]; ok {
		e.refs++
		return &DB{facility: key, path: path, bolt: e.db}, nil
	}

	b, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "kv: failed to open %q", path)
	}
	dbMap[key] = &entry{db: b, refs: 1}
	return &DB{facility: key, path: path, bolt: b}, nil
}

// Stop releases one reference on db's underlying database, closing it
// once the last reference drops (or at once if force is set). Stop on a
// handle whose database has already been closed returns ErrInactive;
// this is what a second Stop on the only handle returns. References are
// counted per database, not per handle.
func (db *DB) Stop(force bool) error {
	mu.Lock()
	defer mu.Unlock()

	e, ok := dbMap[db.facility]
	if !ok {
		return ErrInactive
	}
	e.refs--
	if force || e.refs <= 0 {
		delete(dbMap, db.facility)
		return e.db.Close()
	}
	return nil
}

// Exit force-closes every open database, regardless of refcount. Intended
// for process shutdown.
func Exit() {
	mu.Lock()
	defer mu.Unlock()
	for key, e := range dbMap {
		_ = e.db.Close()
		delete(dbMap, key)
	}
}

// Bucket returns the *bolt.DB backing this handle, for callers (the
// metadata package) that need direct bbolt transaction access.
func (db *DB) Bucket() *bolt.DB {
	return db.bolt
}

// Op is a single operation run against one bucket inside a bolt
// transaction. Implementations live alongside their callers (see
// metadata/store.go's opPut/opGet/opDelete/opIterate), the same shape as
// rclone's backend/kvfs opGet/opPut/opList.
type Op interface {
	Do(b *bolt.Bucket) error
}

// Do runs op against the named bucket inside a single bolt transaction,
// writable or read-only as requested. A writable Do creates the bucket on
// first use; a read-only Do against a bucket that does not exist yet
// reports ErrEmpty.
func (db *DB) Do(writable bool, bucketName string, op Op) error {
	if writable {
		return db.bolt.Update(func(tx *bolt.Tx) error {
			b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
			if err != nil {
				return err
			}
			return op.Do(b)
		})
	}
	return db.bolt.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrEmpty
		}
		return op.Do(b)
	})
}

func openCount() int {
	mu.Lock()
	defer mu.Unlock()
	return len(dbMap)
}

func refsFor(facility, path string) int {
	mu.Lock()
	defer mu.Unlock()
	e, ok := dbMap[facility+"\x00"+path]
	if !ok {
		return 0
	}
	return e.refs
}
