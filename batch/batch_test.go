package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEscalatesEarlierCreateSafety(t *testing.T) {
	b := New()
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	b.Add(Operation{Key: key, Kind: OpCreate, Safety: SafetyNone, Run: func() error { return nil }})
	b.Add(Operation{Key: key, Kind: OpWrite, Safety: SafetyNone, Data: []byte("x"), Writer: noopWriter})

	ops := b.Operations()
	assert.Equal(t, SafetyNetwork, ops[0].Safety)
	assert.Equal(t, SafetyNone, ops[1].Safety)
}

func TestAddDoesNotDowngradeHigherSafety(t *testing.T) {
	b := New()
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	b.Add(Operation{Key: key, Kind: OpCreate, Safety: SafetyStorage, Run: func() error { return nil }})
	b.Add(Operation{Key: key, Kind: OpWrite, Safety: SafetyNone, Data: []byte("x"), Writer: noopWriter})

	assert.Equal(t, SafetyStorage, b.Operations()[0].Safety)
}

func TestAddDoesNotEscalateAcrossDifferentObjects(t *testing.T) {
	b := New()
	b.Add(Operation{Key: ObjectKey{Namespace: "objects", Name: "foo"}, Kind: OpCreate, Safety: SafetyNone, Run: func() error { return nil }})
	b.Add(Operation{Key: ObjectKey{Namespace: "objects", Name: "bar"}, Kind: OpWrite, Safety: SafetyNone, Data: []byte("x"), Writer: noopWriter})

	assert.Equal(t, SafetyNone, b.Operations()[0].Safety)
}

func TestPartitionGroupsByKindAndKey(t *testing.T) {
	b := New()
	foo := ObjectKey{Namespace: "objects", Name: "foo"}
	bar := ObjectKey{Namespace: "objects", Name: "bar"}
	b.Add(Operation{Key: foo, Kind: OpWrite, Data: []byte("a"), Writer: noopWriter})
	b.Add(Operation{Key: foo, Kind: OpWrite, Offset: 1, Data: []byte("b"), Writer: noopWriter})
	b.Add(Operation{Key: bar, Kind: OpRead, Run: func() error { return nil }})

	parts := b.Partition()
	assert.Len(t, parts, 2)
	assert.Len(t, parts[partitionKey{Kind: OpWrite, Key: foo}], 2)
	assert.Len(t, parts[partitionKey{Kind: OpRead, Key: bar}], 1)
}

func TestExecuteRunsEveryOperation(t *testing.T) {
	b := New()
	var ran []string
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	b.Add(Operation{Key: key, Kind: OpCreate, Run: func() error { ran = append(ran, "create"); return nil }})

	other := ObjectKey{Namespace: "objects", Name: "bar"}
	b.Add(Operation{Key: other, Kind: OpRead, Run: func() error { ran = append(ran, "read"); return nil }})

	results := b.Execute()
	assert.Len(t, results, 2)
	assert.Len(t, ran, 2)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func noopWriter(data []byte, offset uint64) (uint64, error) {
	return uint64(len(data)), nil
}

// TestCoalesceMergesContiguousWritesWithoutDroppingEither guards against
// the data-loss bug where coalesce used to keep only the last of two
// writes to the same object: both sub-operations must still execute and
// both must still report their own byte count, even though they land in
// one merged back-end call.
func TestCoalesceMergesContiguousWritesWithoutDroppingEither(t *testing.T) {
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	var calls [][]byte
	writer := func(data []byte, offset uint64) (uint64, error) {
		calls = append(calls, append([]byte(nil), data...))
		return uint64(len(data)), nil
	}
	ops := []Operation{
		{Key: key, Kind: OpWrite, Offset: 0, Data: []byte("AAA"), Writer: writer},
		{Key: key, Kind: OpWrite, Offset: 3, Data: []byte("BBB"), Writer: writer},
	}
	groups := coalesce(ops)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].ops, 2)

	results := make(chan Result, 2)
	groups[0].run(results)
	close(results)

	var got []Result
	for r := range results {
		got = append(got, r)
	}
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Bytes)
	assert.Equal(t, uint64(3), got[1].Bytes)
	assert.NoError(t, got[0].Err)
	assert.NoError(t, got[1].Err)
	require.Len(t, calls, 1)
	assert.Equal(t, "AAABBB", string(calls[0]))
}

// TestCoalesceAttributesShortWriteAcrossSubOperations ensures a merged
// write that lands fewer bytes than requested attributes the shortfall to
// the correct sub-operation(s) instead of silently crediting a write that
// never actually reached storage.
func TestCoalesceAttributesShortWriteAcrossSubOperations(t *testing.T) {
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	writer := func(data []byte, offset uint64) (uint64, error) {
		return 4, nil // only the first op's 3 bytes plus 1 of the second's land
	}
	ops := []Operation{
		{Key: key, Kind: OpWrite, Offset: 0, Data: []byte("AAA"), Writer: writer},
		{Key: key, Kind: OpWrite, Offset: 3, Data: []byte("BBB"), Writer: writer},
	}
	groups := coalesce(ops)
	require.Len(t, groups, 1)

	results := make(chan Result, 2)
	groups[0].run(results)
	close(results)

	var got []Result
	for r := range results {
		got = append(got, r)
	}
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].Bytes)
	assert.Equal(t, uint64(1), got[1].Bytes)
}

func TestCoalesceKeepsNonConsecutiveWrites(t *testing.T) {
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	ops := []Operation{
		{Key: key, Kind: OpWrite, Offset: 0, Data: []byte("AAA"), Writer: noopWriter},
		{Key: key, Kind: OpStatus, Run: func() error { return nil }},
		{Key: key, Kind: OpWrite, Offset: 100, Data: []byte("BBB"), Writer: noopWriter},
	}
	assert.Len(t, coalesce(ops), 3)
}

// TestCoalesceOnlyMergesTrulyAdjacentRanges guards against merging two
// writes whose ranges are not byte-contiguous (a gap or overlap between
// them), which would corrupt the merged payload.
func TestCoalesceOnlyMergesTrulyAdjacentRanges(t *testing.T) {
	key := ObjectKey{Namespace: "objects", Name: "foo"}
	ops := []Operation{
		{Key: key, Kind: OpWrite, Offset: 0, Data: []byte("AAA"), Writer: noopWriter},
		{Key: key, Kind: OpWrite, Offset: 200, Data: []byte("BBB"), Writer: noopWriter},
	}
	groups := coalesce(ops)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].ops, 1)
	assert.Len(t, groups[1].ops, 1)
}
