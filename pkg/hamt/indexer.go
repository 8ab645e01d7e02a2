package hamt

// Indexer yields the slot index a key takes at each depth.
type Indexer interface {
	SlotIndex(depth int) uint8
}

// IndexerFunc builds the Indexer for a key.
type IndexerFunc func(key uint32) Indexer

type universalIndexer struct {
	key    uint32
	hashes []uint32
}

// NewIndexer returns the universal-hash indexer for key. Depth d reads the
// 5-bit window d%6 of the hash for round d/6+1; rounds are computed lazily.
func NewIndexer(key uint32) Indexer {
	return &universalIndexer{key: key}
}

func (x *universalIndexer) SlotIndex(depth int) uint8 {
	round := depth / LevelsPerHash
	for len(x.hashes) <= round {
		x.hashes = append(x.hashes, Universal(x.key, uint32(len(x.hashes)+1)))
	}
	shift := (depth % LevelsPerHash) * BitsPerLevel
	return uint8(x.hashes[round] >> shift & levelMask)
}
