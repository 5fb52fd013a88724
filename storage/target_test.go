package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTargetIsLocal(t *testing.T) {
	l, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	tgt := LocalTarget(l)
	assert.True(t, tgt.IsLocal())
	assert.Nil(t, tgt.Remote)
}

func TestRemoteTargetIsNotLocal(t *testing.T) {
	p := NewPool("127.0.0.1:4711", nil)
	tgt := RemoteTarget(p)
	assert.False(t, tgt.IsLocal())
	assert.Same(t, p, tgt.Remote)
}
