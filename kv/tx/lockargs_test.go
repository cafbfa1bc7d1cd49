package tx

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockArgsCanonicalOrder(t *testing.T) {
	args := LockArgs(0, "zebra", "apple", "mango", "apple")
	fps := args.Fingerprints()
	assert.Len(t, fps, 3)
	assert.True(t, sort.SliceIsSorted(fps, func(i, j int) bool { return fps[i] < fps[j] }))

	// Same keys in any order produce the identical request.
	again := LockArgs(0, "apple", "mango", "zebra")
	assert.Equal(t, fps, again.Fingerprints())
}

func TestLockArgsSharedTagCollapses(t *testing.T) {
	args := LockArgs(0, "{t}a", "{t}b", "{t}c")
	assert.Len(t, args.Fingerprints(), 1)
}

func TestLockArgsFromFps(t *testing.T) {
	src := []LockFp{9, 3, 9, 1}
	args := LockArgsFromFps(2, src)
	assert.Equal(t, []LockFp{1, 3, 9}, args.Fingerprints())
	assert.Equal(t, DbIndex(2), args.DbIndex)
	// The input slice is not retained.
	assert.Equal(t, []LockFp{9, 3, 9, 1}, src)
}
