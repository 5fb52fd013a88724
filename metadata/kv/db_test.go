package kv

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartConcurrency(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	const n = 5
	var wg sync.WaitGroup
	results := make([]*DB, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			db, err := Start("test", path)
			require.NoError(t, err)
			results[i] = db
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, refsFor("test", path))
	for i := 0; i < n; i++ {
		require.NoError(t, results[i].Stop(false))
	}
	assert.Equal(t, 0, refsFor("test", path))
}

func TestStopTwiceReturnsErrInactive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := Start("test", path)
	require.NoError(t, err)
	require.NoError(t, db.Stop(false))
	assert.ErrorIs(t, db.Stop(false), ErrInactive)
}

func TestExitClosesEverything(t *testing.T) {
	dir := t.TempDir()
	before := openCount()
	for i := 0; i < 3; i++ {
		_, err := Start("facility", filepath.Join(dir, "db"+string(rune('0'+i))))
		require.NoError(t, err)
	}
	assert.Equal(t, before+3, openCount())
	Exit()
	assert.Equal(t, 0, openCount())
}
