package hamt

import "encoding/binary"

const (
	// BitsPerLevel is the width of one slot index.
	BitsPerLevel = 5
	// LevelsPerHash is how many slot indices one 32-bit hash provides.
	LevelsPerHash = 6
	// MaxDepth bounds how deep the trie may grow: 32 hash rounds.
	MaxDepth = 32 * LevelsPerHash

	levelMask = 1<<BitsPerLevel - 1
	keyMask   = highBit - 1

	universalSeed = 31415
	universalStep = 27183
)

// Universal hashes the big-endian bytes of key for the given 1-based round.
func Universal(key uint32, level uint32) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], key)
	return UniversalBytes(b[:], level)
}

// UniversalBytes is the multiplicative rolling hash behind Universal.
// Arithmetic wraps modulo 2^32.
func UniversalBytes(p []byte, level uint32) uint32 {
	a := uint32(universalSeed)
	var h uint32
	for _, c := range p {
		h = a*h*level + uint32(c)
		a *= universalStep
	}
	return h
}

// Key is implemented by values usable as trie keys.
type Key interface {
	KeyBytes() []byte
}

// Digest folds arbitrary key bytes into a 31-bit trie key.
func Digest(p []byte) uint32 {
	return UniversalBytes(p, 1) & keyMask
}

// DigestKey is Digest over k.KeyBytes().
func DigestKey(k Key) uint32 {
	return Digest(k.KeyBytes())
}
