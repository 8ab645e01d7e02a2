package hamt

import (
	"math"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

// Trie is the writable handle of a copy-on-write trie. Every Put appends new
// frames and moves the root; frames reachable from earlier roots are never
// touched.
type Trie struct {
	root       Root
	newIndexer IndexerFunc
}

// New returns a trie starting at root.
func New(root Root) *Trie {
	return &Trie{root: root, newIndexer: NewIndexer}
}

func (t *Trie) Root() Root { return t.root }

// Reset moves the trie back to root, discarding later puts.
func (t *Trie) Reset(root Root) { t.root = root }

// Reader returns a reader over the current root.
func (t *Trie) Reader(src Source) Reader {
	return Reader{root: t.root, src: src, newIndexer: t.newIndexer}
}

type step struct {
	frame Frame
	index uint8
}

// Put maps key to value. src must see everything w has written.
func (t *Trie) Put(src Source, w *diary.Writer, key, value uint32) error {
	if key&highBit != 0 {
		return errors.Wrapf(ErrDataRange, "key %#x", key)
	}

	ix := t.newIndexer(key)
	leaf := KeyValue(key, value)
	root := t.root
	var path []step

	for depth := 0; depth < MaxDepth; depth++ {
		frame, err := src.Frame(root)
		if err != nil {
			return err
		}
		index := ix.SlotIndex(depth)
		slot := frame[index]

		if slot.Kind == SlotRoot {
			path = append(path, step{frame: frame, index: index})
			root = slot.Root
			continue
		}

		child := leaf
		if slot.Kind == SlotKeyValue && slot.Key != key {
			sub, err := t.split(w, slot, leaf, depth+1)
			if err != nil {
				return err
			}
			child = SubRoot(sub)
		}

		next, err := WriteFrame(w, frame.With(index, child))
		if err != nil {
			return err
		}
		for i := len(path) - 1; i >= 0; i-- {
			next, err = WriteFrame(w, path[i].frame.With(path[i].index, SubRoot(next)))
			if err != nil {
				return err
			}
		}
		t.root = next
		return nil
	}
	return errors.Wrapf(diary.ErrCorrupt, "hamt: path of %#x deeper than %d", key, MaxDepth)
}

// split builds the frames separating two leaves that landed on the same
// slot, starting at depth. A run of single-child frames covers the depths
// where both keys still agree.
func (t *Trie) split(w *diary.Writer, existing, incoming Slot, depth int) (Root, error) {
	a, b := t.newIndexer(existing.Key), t.newIndexer(incoming.Key)

	var shared []uint8
	var pair Frame
	for ; ; depth++ {
		if depth >= MaxDepth {
			return ZeroRoot, errors.Wrapf(ErrKeyCollision, "keys %#x and %#x agree to depth %d", existing.Key, incoming.Key, MaxDepth)
		}
		ia, ib := a.SlotIndex(depth), b.SlotIndex(depth)
		if ia != ib {
			pair[ia] = existing
			pair[ib] = incoming
			break
		}
		shared = append(shared, ia)
	}

	root, err := WriteFrame(w, pair)
	if err != nil {
		return ZeroRoot, err
	}
	for i := len(shared) - 1; i >= 0; i-- {
		var single Frame
		single[shared[i]] = SubRoot(root)
		if root, err = WriteFrame(w, single); err != nil {
			return ZeroRoot, err
		}
	}
	return root, nil
}

// PutRecord appends rec to the diary and maps key to its position.
func (t *Trie) PutRecord(src Source, w *diary.Writer, key uint32, rec diary.Marshaler) (diary.Pos, error) {
	pos, err := w.Write(rec)
	if err != nil {
		return pos, err
	}
	if pos > math.MaxUint32 {
		return pos, errors.Wrapf(ErrDataRange, "record position %d", pos)
	}
	return pos, t.Put(src, w, key, uint32(pos))
}
