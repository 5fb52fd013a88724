package server

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julea-project/julea-go/metadata"
	"github.com/julea-project/julea-go/metadata/kv"
	"github.com/julea-project/julea-go/storage"
	"github.com/julea-project/julea-go/transform"
	"github.com/julea-project/julea-go/wire"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	db, err := kv.Start(t.Name(), filepath.Join(t.TempDir(), "meta.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Stop(false) })
	store := metadata.NewStore(db)

	backend, err := storage.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	stats := NewStats(prometheus.NewRegistry())
	return NewHandler(store, backend, stats)
}

func TestHandleCreateThenWriteThenRead(t *testing.T) {
	h := newTestHandler(t)

	createDesc := wire.TransformDescriptor{Namespace: "objects", Name: "foo", Kind: transform.Xor, Mode: transform.Server}
	_, _, err := h.HandleFrame(wire.Header{Type: wire.MessageCreate}, createDesc.Marshal())
	require.NoError(t, err)

	writeDesc := wire.TransformDescriptor{Namespace: "objects", Name: "foo", Offset: 0}
	payload := append(writeDesc.Marshal(), []byte("hello")...)
	_, _, err = h.HandleFrame(wire.Header{Type: wire.MessageWrite}, payload)
	require.NoError(t, err)

	readDesc := wire.TransformDescriptor{Namespace: "objects", Name: "foo", Offset: 0, Length: 5}
	_, reply, err := h.HandleFrame(wire.Header{Type: wire.MessageRead}, readDesc.Marshal())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(reply))

	assert.Equal(t, uint64(1), h.stats.Snapshot().Creates)
	assert.Equal(t, uint64(1), h.stats.Snapshot().Writes)
	assert.Equal(t, uint64(1), h.stats.Snapshot().Reads)
}

func TestHandleUnknownMessageType(t *testing.T) {
	h := newTestHandler(t)
	desc := wire.TransformDescriptor{Namespace: "objects", Name: "foo"}
	_, _, err := h.HandleFrame(wire.Header{Type: 0xEE}, desc.Marshal())
	assert.Error(t, err)
}

func TestHandleStatusAfterCreate(t *testing.T) {
	h := newTestHandler(t)
	desc := wire.TransformDescriptor{Namespace: "objects", Name: "foo", Kind: transform.None, Mode: transform.Server}
	_, _, err := h.HandleFrame(wire.Header{Type: wire.MessageCreate}, desc.Marshal())
	require.NoError(t, err)

	_, reply, err := h.HandleFrame(wire.Header{Type: wire.MessageStatus}, desc.Marshal())
	require.NoError(t, err)
	assert.Len(t, reply, 8)
}
