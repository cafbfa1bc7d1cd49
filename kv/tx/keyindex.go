package tx

import "github.com/pingcap/errors"

// KeyIndex describes which argument positions of a command are keys.
type KeyIndex struct {
	Start uint32
	End   uint32 // does not include this index (open limit).
	Step  uint32 // 1 for commands like MGET, 2 for commands like MSET.

	// Bonus, when set, adds one more key index outside [Start, End).
	// Relevant for the destination key of store-style commands.
	Bonus *uint16
}

// Range builds a KeyIndex covering [start, end) with step 1.
func Range(start, end uint32) KeyIndex {
	return KeyIndex{Start: start, End: end, Step: 1}
}

// HasSingleKey reports whether the index selects exactly one key, letting
// callers skip multi-key coordination entirely.
func (k KeyIndex) HasSingleKey() bool {
	return k.Bonus == nil && k.Start+k.Step >= k.End
}

// NumArgs returns the number of arguments the index spans.
func (k KeyIndex) NumArgs() uint32 {
	n := k.End - k.Start
	if k.Bonus != nil {
		n++
	}
	return n
}

// Resolve returns the concrete key positions for a command that arrived with
// argc arguments. A zero step or an inverted range means the command
// registration itself is broken, which is fatal; an argument list shorter
// than the declared range is a command-syntax error returned to the caller.
func (k KeyIndex) Resolve(argc uint32) ([]uint32, error) {
	if k.Step == 0 {
		panic("tx: KeyIndex with zero step")
	}
	if k.Start > k.End {
		panic("tx: KeyIndex start exceeds end")
	}
	if k.End > argc {
		return nil, errors.Errorf("invalid number of arguments: key index needs %d, got %d", k.End, argc)
	}
	positions := make([]uint32, 0, (k.End-k.Start)/k.Step+1)
	for i := k.Start; i < k.End; i += k.Step {
		positions = append(positions, i)
	}
	if k.Bonus != nil {
		b := uint32(*k.Bonus)
		if b >= argc {
			return nil, errors.Errorf("invalid number of arguments: bonus key index %d, got %d", b, argc)
		}
		positions = append(positions, b)
	}
	return positions, nil
}
