package hamt

import (
	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

// Reader looks keys up in the trie under a fixed root. It never writes.
type Reader struct {
	root       Root
	src        Source
	newIndexer IndexerFunc
}

// NewReader returns a reader over root.
func NewReader(root Root, src Source) Reader {
	return Reader{root: root, src: src, newIndexer: NewIndexer}
}

func (r Reader) Root() Root { return r.root }

// At returns a reader over another root in the same diary.
func (r Reader) At(root Root) Reader {
	r.root = root
	return r
}

// Get returns the value stored for key.
func (r Reader) Get(key uint32) (uint32, bool, error) {
	ix := r.newIndexer(key)
	root := r.root
	for depth := 0; depth < MaxDepth; depth++ {
		if root.IsZero() {
			return 0, false, nil
		}
		frame, err := r.src.Frame(root)
		if err != nil {
			return 0, false, err
		}

		slot := frame[ix.SlotIndex(depth)]
		switch slot.Kind {
		case SlotEmpty:
			return 0, false, nil
		case SlotKeyValue:
			if slot.Key != key {
				return 0, false, nil
			}
			return slot.Value, true, nil
		default:
			root = slot.Root
		}
	}
	return 0, false, errors.Wrapf(diary.ErrCorrupt, "hamt: lookup of %#x deeper than %d", key, MaxDepth)
}

// Each calls fn for every key and value in index order, stopping at the
// first error.
func (r Reader) Each(fn func(key, value uint32) error) error {
	return r.each(r.root, 0, fn)
}

func (r Reader) each(root Root, depth int, fn func(key, value uint32) error) error {
	if root.IsZero() {
		return nil
	}
	if depth >= MaxDepth {
		return errors.Wrapf(diary.ErrCorrupt, "hamt: %s deeper than %d", root, MaxDepth)
	}
	frame, err := r.src.Frame(root)
	if err != nil {
		return err
	}
	for _, slot := range frame {
		switch slot.Kind {
		case SlotKeyValue:
			err = fn(slot.Key, slot.Value)
		case SlotRoot:
			err = r.each(slot.Root, depth+1, fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
