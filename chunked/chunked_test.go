package chunked

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/metadata/kv"
	"github.com/julea-project/julea-go/storage"
	"github.com/julea-project/julea-go/transform"
)

func newTestChunked(t *testing.T, name string, chunkSize uint64) (*Object, *metadata.Store, storage.Backend) {
	t.Helper()
	db, err := kv.Start(t.Name(), filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Stop(false) })
	store := metadata.NewStore(db)

	backend, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	return Open(store, backend, "objects", name, chunkSize), store, backend
}

func TestChunkedWriteWithinOneChunk(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 16)
	require.NoError(t, o.Create(transform.None, transform.Client))

	n, err := o.Write(transform.ClientWrite, []byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), n)

	rec, err := o.store.Get("objects", "big")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ChunkCount)
}

func TestChunkedWriteSpanningMultipleChunks(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))

	payload := []byte("0123456789abcdef")
	n, err := o.Write(transform.ClientWrite, payload, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), n)

	rec, err := o.store.Get("objects", "big")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), rec.ChunkCount)

	buf := make([]byte, len(payload))
	got, err := o.Read(transform.ClientRead, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), got)
	assert.Equal(t, payload, buf)
}

func TestChunkedWriteGrowsChunkCountIncrementally(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))

	_, err := o.Write(transform.ClientWrite, []byte("ab"), 0)
	require.NoError(t, err)
	rec, err := o.store.Get("objects", "big")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ChunkCount)

	_, err = o.Write(transform.ClientWrite, []byte("cdefgh"), 2)
	require.NoError(t, err)
	rec, err = o.store.Get("objects", "big")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rec.ChunkCount)
}

func TestChunkedReadPastEndStopsShort(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))
	_, err := o.Write(transform.ClientWrite, []byte("abcd"), 0)
	require.NoError(t, err)

	buf := make([]byte, 20)
	n, err := o.Read(transform.ClientRead, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), n)
	assert.Equal(t, "abcd", string(buf[:4]))
}

func TestChunkedNameSuffixing(t *testing.T) {
	o, _, backend := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))
	_, err := o.Write(transform.ClientWrite, []byte("01234567"), 0)
	require.NoError(t, err)

	_, err = backend.Status("big_0")
	require.NoError(t, err)
	_, err = backend.Status("big_1")
	require.NoError(t, err)
}

func TestChunkedDeleteRemovesAllChunks(t *testing.T) {
	o, store, backend := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))
	_, err := o.Write(transform.ClientWrite, []byte("01234567"), 0)
	require.NoError(t, err)

	require.NoError(t, o.Delete())

	_, err = store.Get("objects", "big")
	assert.Error(t, err)
	_, err = backend.Status("big_0")
	assert.Error(t, err)
	_, err = backend.Status("big_1")
	assert.Error(t, err)
}

func TestChunkedStatusSumsWholeStream(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))
	_, err := o.Write(transform.ClientWrite, []byte("0123456789"), 0)
	require.NoError(t, err)

	st, err := o.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), st.OriginalSize)
	assert.Equal(t, uint64(10), st.TransformedSize)
	assert.Equal(t, uint64(3), st.ChunkCount)
	assert.Equal(t, uint64(4), st.ChunkSize)
	assert.False(t, st.ModTime.IsZero())
}

func TestChunkedStatusReportsOneChunkImmediatelyAfterCreate(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 4)
	require.NoError(t, o.Create(transform.None, transform.Client))

	st, err := o.Status()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.ChunkCount)
	assert.Equal(t, uint64(0), st.OriginalSize)
}

func TestChunkedWithRleAcrossChunks(t *testing.T) {
	o, _, _ := newTestChunked(t, "big", 8)
	require.NoError(t, o.Create(transform.Rle, transform.Client))

	payload := []byte("AAAAAAAABBBBBBBBCCC")
	_, err := o.Write(transform.ClientWrite, payload, 0)
	require.NoError(t, err)

	buf := make([]byte, len(payload))
	n, err := o.Read(transform.ClientRead, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(payload)), n)
	assert.Equal(t, payload, buf)
}
