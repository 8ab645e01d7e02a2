package hamt

import (
	"fmt"
	"math/bits"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

const (
	// SlotSize is the encoded size of a slot in bytes.
	SlotSize = 8
	// FrameSize is the number of slots in a frame.
	FrameSize = 32

	highBit uint32 = 1 << 31
)

// Root points at a frame: the diary position of its first occupied slot and
// a bitmap of which of the 32 slots are occupied.
type Root struct {
	Pos  uint32
	Mask uint32
}

// ZeroRoot is the root of an empty trie. It is never written.
var ZeroRoot = Root{}

func (r Root) IsZero() bool { return r.Mask == 0 }

// Len returns the number of occupied slots.
func (r Root) Len() int { return bits.OnesCount32(r.Mask) }

// End returns the position just past the frame's last slot.
func (r Root) End() diary.Pos {
	return diary.Pos(r.Pos) + diary.Pos(r.Len()*SlotSize)
}

// SlotPos returns where slot index lives on disk. The result is meaningless
// when the bit for index is clear.
func (r Root) SlotPos(index uint8) diary.Pos {
	below := bits.OnesCount32(r.Mask & (1<<index - 1))
	return diary.Pos(r.Pos) + diary.Pos(below*SlotSize)
}

func (r Root) String() string {
	return fmt.Sprintf("root(%d, %032b)", r.Pos, r.Mask)
}

// MarshalDiary writes the root as two plain u32 values.
func (r Root) MarshalDiary(e *diary.Encoder) {
	e.U32(r.Pos)
	e.U32(r.Mask)
}

func (r *Root) UnmarshalDiary(d *diary.Decoder) {
	r.Pos = d.U32()
	r.Mask = d.U32()
}

// SlotKind discriminates the three slot variants.
type SlotKind uint8

const (
	SlotEmpty SlotKind = iota
	SlotKeyValue
	SlotRoot
)

// Slot is one child of a frame.
type Slot struct {
	Kind  SlotKind
	Key   uint32
	Value uint32
	Root  Root
}

// KeyValue returns a leaf slot.
func KeyValue(key, value uint32) Slot {
	return Slot{Kind: SlotKeyValue, Key: key, Value: value}
}

// SubRoot returns a slot pointing at a child frame.
func SubRoot(root Root) Slot {
	return Slot{Kind: SlotRoot, Root: root}
}

func (s Slot) IsEmpty() bool { return s.Kind == SlotEmpty }

func (s Slot) String() string {
	switch s.Kind {
	case SlotKeyValue:
		return fmt.Sprintf("kv(%d, %d)", s.Key, s.Value)
	case SlotRoot:
		return s.Root.String()
	default:
		return "empty"
	}
}

// MarshalDiary writes the 8 byte slot encoding. A set high bit in the first
// word marks a sub-root.
func (s Slot) MarshalDiary(e *diary.Encoder) {
	switch s.Kind {
	case SlotKeyValue:
		if s.Key&highBit != 0 {
			e.Fail(errors.Wrapf(ErrDataRange, "key %#x", s.Key))
			return
		}
		e.U32(s.Key)
		e.U32(s.Value)
	case SlotRoot:
		if s.Root.Pos&highBit != 0 {
			e.Fail(errors.Wrapf(ErrDataRange, "root position %d", s.Root.Pos))
			return
		}
		e.U32(s.Root.Pos | highBit)
		e.U32(s.Root.Mask)
	default:
		e.Fail(ErrEmptySlot)
	}
}

func (s *Slot) UnmarshalDiary(d *diary.Decoder) {
	a, b := d.U32(), d.U32()
	if d.Err() != nil {
		return
	}
	*s = decodeSlot(a, b)
	if s.Kind == SlotRoot && s.Root.Mask == 0 {
		d.Fail(errors.Wrapf(diary.ErrCorrupt, "sub-root at %d has an empty mask", s.Root.Pos))
	}
}

func decodeSlot(a, b uint32) Slot {
	if a&highBit != 0 {
		return SubRoot(Root{Pos: a &^ highBit, Mask: b})
	}
	return KeyValue(a, b)
}
