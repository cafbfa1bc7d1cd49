package journal

import (
	"bytes"
	"context"
	"io"
	"sort"
	"testing"

	"github.com/emberdb/ember/kv/tx"
	"github.com/emberdb/ember/kv/tx/latches"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full path of one multi-key command: key index resolution, lock request,
// lock acquisition, journaling, replay.
func TestMsetFullPath(t *testing.T) {
	args := []string{"k1", "v1", "k2", "v2"}
	ki := tx.KeyIndex{Start: 0, End: 4, Step: 2}

	positions, err := ki.Resolve(uint32(len(args)))
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 2}, positions)

	keys := make([]string, 0, len(positions))
	for _, p := range positions {
		keys = append(keys, args[p])
	}
	lockReq := tx.LockArgs(0, keys...)
	fps := lockReq.Fingerprints()
	require.Len(t, fps, 2)
	assert.True(t, sort.SliceIsSorted(fps, func(i, j int) bool { return fps[i] < fps[j] }))

	lt := latches.NewLatches()
	require.NoError(t, lt.Acquire(context.Background(), lockReq))

	sink := &memSink{}
	j := NewJournal(0, sink)
	op := tx.OpArgs{Shard: 0, TxId: 7, DbCntx: tx.DbContext{DbIndex: 0}}
	require.NoError(t, j.RecordJournal(op, "MSET", CmdArgs(args), 1, false))

	lt.Release(lockReq)

	var stream bytes.Buffer
	for _, item := range sink.snapshot() {
		stream.Write(item.Data)
	}
	r := NewReader(&stream)
	var cmd *ParsedEntry
	for {
		pe, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if pe.Opcode == OpCommand {
			cmd = pe
		}
	}
	require.NotNil(t, cmd)
	assert.Equal(t, tx.TxId(7), cmd.TxId)
	require.Len(t, cmd.Cmd.CmdArgs, 5)
	assert.Equal(t, "MSET", string(cmd.Cmd.CmdArgs[0]))
	for i, arg := range args {
		assert.Equal(t, arg, string(cmd.Cmd.CmdArgs[i+1]))
	}
}

// The shard-scoped leg of a fan-out journals only its own argument subset.
func TestShardScopedJournalLeg(t *testing.T) {
	args := []string{"{s}k1", "v1", "{s}k2", "v2"}
	views, touched, err := tx.BuildShardIndex(args, tx.KeyIndex{Start: 0, End: 4, Step: 2}, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(1), touched)

	sid := tx.ShardOf(args[0], 4)
	sink := &memSink{}
	j := NewJournal(0, sink)
	op := tx.OpArgs{Shard: sid, TxId: 11, DbCntx: tx.DbContext{DbIndex: 0}}
	require.NoError(t, j.RecordJournal(op, "MSET", views[sid], uint32(touched), true))
	require.NoError(t, j.RecordFinish(op, uint32(touched)))

	var stream bytes.Buffer
	for _, item := range sink.snapshot() {
		stream.Write(item.Data)
	}
	r := NewReader(&stream)
	var multi, exec *ParsedEntry
	for {
		pe, err := r.ReadEntry()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		switch pe.Opcode {
		case OpMultiCommand:
			multi = pe
		case OpExec:
			exec = pe
		}
	}
	require.NotNil(t, multi)
	require.Len(t, multi.Cmd.CmdArgs, 5)
	require.NotNil(t, exec)
	assert.Equal(t, multi.TxId, exec.TxId)
	assert.Equal(t, uint32(1), exec.ShardCnt)
}
