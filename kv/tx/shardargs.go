package tx

import (
	"fmt"
	"strings"
)

// IndexSlice references a half-open [Begin, End) range of positions in a
// command's argument list.
type IndexSlice struct {
	Begin uint32
	End   uint32
}

// ShardArgs holds the full argument list of a command together with the
// sub-ranges of it that belong to one shard. It never copies arguments; the
// view must be built, used and discarded within the call that owns the
// backing list.
type ShardArgs struct {
	args   []string
	slices []IndexSlice
}

// NewShardArgs builds a view over args selecting slices in the order given.
// A slice outside the bounds of args is a construction bug, not bad input.
func NewShardArgs(args []string, slices []IndexSlice) ShardArgs {
	for _, s := range slices {
		if s.Begin > s.End || s.End > uint32(len(args)) {
			panic(fmt.Sprintf("tx: index slice [%d, %d) out of range for %d arguments", s.Begin, s.End, len(args)))
		}
	}
	return ShardArgs{args: args, slices: slices}
}

// Size returns the number of selected arguments.
func (sa ShardArgs) Size() int {
	n := 0
	for _, s := range sa.slices {
		n += int(s.End - s.Begin)
	}
	return n
}

// Empty reports whether the view selects no ranges at all, the shape control
// commands that touch no keys arrive in.
func (sa ShardArgs) Empty() bool {
	return len(sa.slices) == 0
}

// Front returns the first selected argument.
func (sa ShardArgs) Front() string {
	it := sa.iter()
	arg, ok := it.next()
	if !ok {
		panic("tx: Front on an empty ShardArgs")
	}
	return arg
}

// Range calls f for each selected argument in range-major order, stopping
// early when f returns false.
func (sa ShardArgs) Range(f func(arg string) bool) {
	it := sa.iter()
	for arg, ok := it.next(); ok; arg, ok = it.next() {
		if !f(arg) {
			return
		}
	}
}

// Iterator returns a restartable cursor over the view. Iterating twice
// yields the same sequence.
func (sa ShardArgs) Iterator() ArgsIterator {
	return sa.iter()
}

// Equal reports whether two views select the same ranges over the same
// backing list. This is view identity, not deep equality of arguments; it is
// used to detect "this is exactly that view" fast paths.
func (sa ShardArgs) Equal(o ShardArgs) bool {
	if len(sa.args) != len(o.args) || len(sa.slices) != len(o.slices) {
		return false
	}
	if len(sa.args) > 0 && &sa.args[0] != &o.args[0] {
		return false
	}
	for i, s := range sa.slices {
		if s != o.slices[i] {
			return false
		}
	}
	return true
}

func (sa ShardArgs) String() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	sa.Range(func(arg string) bool {
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(arg)
		first = false
		return true
	})
	b.WriteByte(']')
	return b.String()
}

func (sa ShardArgs) iter() ArgsIterator {
	return ArgsIterator{args: sa.args, slices: sa.slices}
}

// ArgsIterator walks a ShardArgs view range by range. The offset within the
// current range resets every time the cursor crosses a range boundary.
type ArgsIterator struct {
	args   []string
	slices []IndexSlice
	si     int
	delta  uint32
}

// Next returns the next selected argument, or false once the view is
// exhausted.
func (it *ArgsIterator) Next() (string, bool) {
	return it.next()
}

func (it *ArgsIterator) next() (string, bool) {
	for it.si < len(it.slices) {
		s := it.slices[it.si]
		if s.Begin+it.delta < s.End {
			arg := it.args[s.Begin+it.delta]
			it.delta++
			return arg, true
		}
		it.si++
		it.delta = 0
	}
	return "", false
}
