package tx

import (
	"strings"

	"github.com/dgryski/go-farm"
)

// Fingerprint hashes bytes into the compact value the lock table keys on.
// It is a pure function: equal inputs always produce equal fingerprints.
// Collisions between distinct inputs are tolerated by the lock table, where
// they only cause spurious contention, never a missed conflict.
func Fingerprint(data []byte) LockFp {
	return LockFp(farm.Fingerprint64(data))
}

// LockTag is the part of a key that locking is performed on. A strong type
// keeps keys and the substrings carved out of them for locking apart. Like a
// string, a LockTag shares its backing bytes with the key it was taken from.
type LockTag string

// NewLockTag carves the hash tag out of key: the bytes between the first '{'
// and the next '}', when that section is non-empty. Keys without a well
// formed tag are locked on their full content. Keys sharing a tag therefore
// always collide to one fingerprint and are lock-ordered together.
func NewLockTag(key string) LockTag {
	open := strings.IndexByte(key, '{')
	if open == -1 {
		return LockTag(key)
	}
	closing := strings.IndexByte(key[open+1:], '}')
	if closing <= 0 {
		return LockTag(key)
	}
	return LockTag(key[open+1 : open+1+closing])
}

// Fingerprint returns the lock-table fingerprint of the tag.
func (t LockTag) Fingerprint() LockFp {
	return Fingerprint([]byte(t))
}
