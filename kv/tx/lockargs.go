package tx

import "sort"

// KeyLockArgs groups a database index with the canonical set of fingerprints
// a transaction must acquire before it executes. The fingerprints are always
// deduplicated and sorted: every transaction enumerates the same total order,
// so two transactions with overlapping sets attempt acquisition in the same
// relative order and no cyclic wait can form.
type KeyLockArgs struct {
	DbIndex DbIndex

	// Unexported so an unsorted request cannot be constructed.
	fps []LockFp
}

// LockArgs builds the lock request for keys. Each key contributes the
// fingerprint of its lock tag; duplicates collapse into one fingerprint.
func LockArgs(db DbIndex, keys ...string) KeyLockArgs {
	fps := make([]LockFp, 0, len(keys))
	for _, k := range keys {
		fps = append(fps, NewLockTag(k).Fingerprint())
	}
	return KeyLockArgs{DbIndex: db, fps: canonical(fps)}
}

// LockArgsFromFps builds a lock request from raw fingerprints, for callers
// that hashed their keys up front. The slice is not retained.
func LockArgsFromFps(db DbIndex, fps []LockFp) KeyLockArgs {
	own := append([]LockFp(nil), fps...)
	return KeyLockArgs{DbIndex: db, fps: canonical(own)}
}

// Fingerprints returns the canonical acquisition order. Callers must not
// mutate the returned slice.
func (a KeyLockArgs) Fingerprints() []LockFp {
	return a.fps
}

func canonical(fps []LockFp) []LockFp {
	sort.Slice(fps, func(i, j int) bool { return fps[i] < fps[j] })
	out := fps[:0]
	for _, fp := range fps {
		if len(out) == 0 || fp != out[len(out)-1] {
			out = append(out, fp)
		}
	}
	return out
}
