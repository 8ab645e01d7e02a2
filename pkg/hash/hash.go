package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

type Key interface {
	uint64 | string | []byte | byte | int | uint | int32 | uint32 | int64
}

// Sum64 returns a stable 64-bit digest of key. Integers are hashed over
// their 8-byte big-endian form so the result does not depend on the
// integer type the caller used.
func Sum64[K Key](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		return xxhash.Sum64String(k)
	case []byte:
		return xxhash.Sum64(k)
	case uint64:
		return sumUint(k)
	case byte:
		return sumUint(uint64(k))
	case uint:
		return sumUint(uint64(k))
	case uint32:
		return sumUint(uint64(k))
	case int:
		return sumUint(uint64(k))
	case int32:
		return sumUint(uint64(k))
	case int64:
		return sumUint(uint64(k))
	default:
		panic("Key type not supported")
	}
}

func sumUint(v uint64) uint64 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return xxhash.Sum64(b[:])
}
