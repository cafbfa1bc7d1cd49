package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockTagExtraction(t *testing.T) {
	assert.Equal(t, LockTag("user1"), NewLockTag("{user1}:profile"))
	assert.Equal(t, LockTag("b"), NewLockTag("a{b}c{d}"))

	// No tag, empty tag and an unclosed brace all lock on the full key.
	assert.Equal(t, LockTag("plain"), NewLockTag("plain"))
	assert.Equal(t, LockTag("{}x"), NewLockTag("{}x"))
	assert.Equal(t, LockTag("{unclosed"), NewLockTag("{unclosed"))
}

func TestFingerprintDeterministic(t *testing.T) {
	fp1 := Fingerprint([]byte("session:42"))
	fp2 := Fingerprint([]byte("session:42"))
	assert.Equal(t, fp1, fp2)
	assert.NotEqual(t, fp1, Fingerprint([]byte("session:43")))
}

func TestSharedTagFingerprints(t *testing.T) {
	a := NewLockTag("{t}key-a").Fingerprint()
	b := NewLockTag("{t}key-b").Fingerprint()
	assert.Equal(t, a, b)

	c := NewLockTag("{u}key-a").Fingerprint()
	assert.NotEqual(t, a, c)
}
