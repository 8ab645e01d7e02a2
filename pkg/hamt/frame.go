package hamt

import (
	"encoding/binary"
	"math"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

// Frame is the materialized array of a trie node's 32 slots.
type Frame [FrameSize]Slot

// Mask returns the occupancy bitmap of f.
func (f *Frame) Mask() uint32 {
	var mask uint32
	for i := range f {
		if !f[i].IsEmpty() {
			mask |= 1 << i
		}
	}
	return mask
}

// With returns a copy of f with slot index replaced.
func (f Frame) With(index uint8, slot Slot) Frame {
	f[index] = slot
	return f
}

// MarshalDiary writes the occupied slots in index order.
func (f *Frame) MarshalDiary(e *diary.Encoder) {
	for i := range f {
		if !f[i].IsEmpty() {
			f[i].MarshalDiary(e)
		}
	}
}

// WriteFrame appends the occupied slots of f and returns the new root.
func WriteFrame(w *diary.Writer, f Frame) (Root, error) {
	mask := f.Mask()
	if mask == 0 {
		return ZeroRoot, errors.Wrap(ErrEmptySlot, "hamt: frame has no occupied slots")
	}
	if w.End() > math.MaxInt32 {
		return ZeroRoot, errors.Wrapf(ErrDataRange, "diary position %d", w.End())
	}

	pos, err := w.Write(&f)
	if err != nil {
		return ZeroRoot, err
	}
	return Root{Pos: uint32(pos), Mask: mask}, nil
}

// ReadFrame loads the frame root points at. The zero root is an empty frame
// and touches no disk.
func ReadFrame(r *diary.Reader, root Root) (Frame, error) {
	var f Frame
	if root.IsZero() {
		return f, nil
	}

	buf, err := r.ReadBytes(diary.Pos(root.Pos), root.Len()*SlotSize)
	if err != nil {
		return f, err
	}

	off := 0
	for i := range f {
		if root.Mask&(1<<i) == 0 {
			continue
		}
		a := binary.BigEndian.Uint32(buf[off:])
		b := binary.BigEndian.Uint32(buf[off+4:])
		off += SlotSize

		f[i] = decodeSlot(a, b)
		if f[i].Kind == SlotRoot && f[i].Root.Mask == 0 {
			return f, errors.Wrapf(diary.ErrCorrupt, "hamt: slot %d of %s has an empty sub-root", i, root)
		}
	}
	return f, nil
}
