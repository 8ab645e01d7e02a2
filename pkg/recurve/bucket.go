package recurve

import (
	"math"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/pkg/errors"
)

// bucket is the trie record for one digest. It holds every entry whose key
// folds to that digest, so distinct entities never displace each other.
type bucket[E diary.Marshaler, PE interface {
	*E
	diary.Unmarshaler
}] []E

func (b bucket[E, PE]) MarshalDiary(e *diary.Encoder) {
	if len(b) == 0 || len(b) > math.MaxUint16 {
		e.Fail(errors.Wrapf(diary.ErrInvalidData, "bucket of %d entries", len(b)))
		return
	}
	e.U16(uint16(len(b)))
	for _, v := range b {
		v.MarshalDiary(e)
	}
}

func (b *bucket[E, PE]) UnmarshalDiary(d *diary.Decoder) {
	n := int(d.U16())
	if d.Err() != nil {
		return
	}
	if n == 0 {
		d.Fail(errors.Wrap(diary.ErrCorrupt, "empty bucket"))
		return
	}
	out := make([]E, n)
	for i := range out {
		PE(&out[i]).UnmarshalDiary(d)
	}
	*b = out
}

// find returns the entry same accepts.
func (b bucket[E, PE]) find(same func(E) bool) (E, bool) {
	for _, v := range b {
		if same(v) {
			return v, true
		}
	}
	var zero E
	return zero, false
}

// with returns a copy of b where v replaces the entry same accepts, or is
// appended when there is none.
func (b bucket[E, PE]) with(v E, same func(E) bool) bucket[E, PE] {
	out := make(bucket[E, PE], 0, len(b)+1)
	replaced := false
	for _, cur := range b {
		if !replaced && same(cur) {
			cur, replaced = v, true
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, v)
	}
	return out
}

// getBucket loads the bucket stored for key, or nil when there is none.
func getBucket[E diary.Marshaler, PE interface {
	*E
	diary.Unmarshaler
}](r hamt.Reader, dr *diary.Reader, key uint32) (bucket[E, PE], error) {
	b, _, err := hamt.GetRecord[bucket[E, PE]](r, dr, key)
	return b, err
}

// eachEntry calls fn for every entry of every bucket under r.
func eachEntry[E diary.Marshaler, PE interface {
	*E
	diary.Unmarshaler
}](r hamt.Reader, dr *diary.Reader, fn func(E) error) error {
	return hamt.EachRecord[bucket[E, PE]](r, dr, func(b bucket[E, PE]) error {
		for _, v := range b {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func sameTarget(t Target) func(targetBranch) bool {
	return func(b targetBranch) bool { return b.Target == t }
}

func sameRing(r Ring) func(ringBranch) bool {
	return func(b ringBranch) bool { return b.Ring == r }
}

func ringArrowAt(r Ring) func(RingArrow) bool {
	return func(ra RingArrow) bool { return ra.Ring == r }
}

func targetArrowOf(t Target) func(TargetArrow) bool {
	return func(ta TargetArrow) bool { return ta.Target == t }
}
