package batch

import (
	"golang.org/x/sync/errgroup"
)

// Result carries one operation's outcome back to the caller that queued
// it, keyed the same way as Operation.Key. Bytes is the number of bytes
// this specific sub-operation contributed, even when Execute glued it
// into a larger back-end call alongside its neighbors.
type Result struct {
	Key   ObjectKey
	Kind  OpKind
	Bytes uint64
	Err   error
}

// Execute runs every queued operation, one partition (kind, object) at a
// time run serially (so a write can't race a later write to the same
// object), with partitions themselves run concurrently via an errgroup -
// the same fan-out-then-join shape backend/smb/connpool.go's drainPool
// uses for closing idle connections, generalized from "all of them" to
// "one goroutine per partition". Every queued operation produces exactly
// one Result; coalescing two writes into one back-end call never drops
// either sub-operation's accounting.
func (b *Batch) Execute() []Result {
	partitions := b.Partition()
	results := make(chan Result, len(b.ops))

	var g errgroup.Group
	for _, ops := range partitions {
		ops := ops
		g.Go(func() error {
			for _, grp := range coalesce(ops) {
				grp.run(results)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := make([]Result, 0, len(b.ops))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// group is either one non-write operation or a run of byte-contiguous
// writes to the same object that can be issued as a single back-end call.
type group struct {
	ops []Operation
}

// coalesce partitions an already-(kind,object)-grouped slice of
// operations into runs: a run of two or more consecutive OpWrite
// operations is formed only when each write's range ends exactly where
// the next one begins, since that is the only case a back-end Write call
// can honestly represent as one contiguous payload. Every operation
// appears in exactly one run; none are dropped, per spec.md section 4.4's
// requirement that bytes_written be accounted per original sub-operation.
func coalesce(ops []Operation) []group {
	var groups []group
	for i := 0; i < len(ops); {
		if ops[i].Kind != OpWrite {
			groups = append(groups, group{ops: ops[i : i+1]})
			i++
			continue
		}
		j := i + 1
		for j < len(ops) && ops[j].Kind == OpWrite &&
			ops[j-1].Offset+uint64(len(ops[j-1].Data)) == ops[j].Offset {
			j++
		}
		groups = append(groups, group{ops: ops[i:j]})
		i = j
	}
	return groups
}

func (g group) run(results chan<- Result) {
	if g.ops[0].Kind != OpWrite {
		op := g.ops[0]
		err := op.Run()
		results <- Result{Key: op.Key, Kind: op.Kind, Err: err}
		return
	}
	if len(g.ops) == 1 {
		op := g.ops[0]
		n, err := op.Writer(op.Data, op.Offset)
		results <- Result{Key: op.Key, Kind: op.Kind, Bytes: n, Err: err}
		return
	}
	g.runMergedWrite(results)
}

// runMergedWrite issues one Writer call for a contiguous run of writes,
// then attributes however many bytes actually landed back across the
// original sub-operations in order, so a short write still reports
// accurate per-sub-operation counts instead of crediting everything to
// the first or last range in the run.
func (g group) runMergedWrite(results chan<- Result) {
	first := g.ops[0]
	total := 0
	for _, op := range g.ops {
		total += len(op.Data)
	}
	merged := make([]byte, 0, total)
	for _, op := range g.ops {
		merged = append(merged, op.Data...)
	}

	n, err := first.Writer(merged, first.Offset)
	remaining := n
	for idx, op := range g.ops {
		want := uint64(len(op.Data))
		got := want
		if remaining < want {
			got = remaining
		}
		remaining -= got
		var opErr error
		if err != nil && (got < want || idx == len(g.ops)-1) {
			opErr = err
		}
		results <- Result{Key: op.Key, Kind: op.Kind, Bytes: got, Err: opErr}
	}
}
