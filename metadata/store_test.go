package metadata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julea-project/julea-go/metadata/kv"
	"github.com/julea-project/julea-go/transform"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := kv.Start(t.Name(), filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Stop(false) })
	return NewStore(db)
}

func TestStorePutGet(t *testing.T) {
	s := newTestStore(t)
	rec := Record{
		Kind:            transform.Xor,
		Mode:            transform.Client,
		OriginalSize:    100,
		TransformedSize: 100,
	}
	require.NoError(t, s.Put("objects", "foo", rec))

	got, err := s.Get("objects", "foo")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("objects", "missing")
	require.Error(t, err)
}

func TestStoreGetMissingNamespaceIsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get("no-such-namespace", "foo")
	require.Error(t, err)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	rec := Record{Kind: transform.None, Mode: transform.Client}
	require.NoError(t, s.Put("objects", "foo", rec))
	require.NoError(t, s.Delete("objects", "foo"))

	_, err := s.Get("objects", "foo")
	require.Error(t, err)
}

func TestStoreDeleteMissingIsNoop(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Delete("objects", "never-existed"))
}

func TestStoreIteratePrefix(t *testing.T) {
	s := newTestStore(t)
	rec := Record{Kind: transform.Rle, Mode: transform.Server, IsChunked: true, ChunkCount: 3, ChunkSize: 4096}
	require.NoError(t, s.Put("chunks", "big_0", rec))
	require.NoError(t, s.Put("chunks", "big_1", rec))
	require.NoError(t, s.Put("chunks", "other_0", rec))

	var names []string
	err := s.Iterate("chunks", "big_", func(name string, rec Record) error {
		names = append(names, name)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"big_0", "big_1"}, names)
}

func TestStoreIterateEmptyNamespace(t *testing.T) {
	s := newTestStore(t)
	var count int
	err := s.Iterate("never-written", "", func(name string, rec Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
