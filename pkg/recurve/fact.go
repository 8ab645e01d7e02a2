package recurve

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/pkg/errors"
)

// TargetKind tags the variants of Target on disk.
type TargetKind uint8

const (
	TargetNumber TargetKind = 1
	TargetText   TargetKind = 2
)

// Target names the entity a flight is about.
type Target struct {
	Kind   TargetKind
	Number uint64
	Text   string
}

func NumberTarget(n uint64) Target { return Target{Kind: TargetNumber, Number: n} }

func TextTarget(s string) Target { return Target{Kind: TargetText, Text: s} }

func (t Target) String() string {
	if t.Kind == TargetNumber {
		return strconv.FormatUint(t.Number, 10)
	}
	return t.Text
}

func (t Target) MarshalDiary(e *diary.Encoder) {
	switch t.Kind {
	case TargetNumber:
		e.U8(uint8(t.Kind))
		e.U64(t.Number)
	case TargetText:
		e.U8(uint8(t.Kind))
		e.String(t.Text)
	default:
		e.Fail(errors.Wrapf(diary.ErrInvalidData, "target kind %d", t.Kind))
	}
}

func (t *Target) UnmarshalDiary(d *diary.Decoder) {
	switch kind := TargetKind(d.U8()); kind {
	case TargetNumber:
		*t = NumberTarget(d.U64())
	case TargetText:
		*t = TextTarget(d.String())
	default:
		d.Fail(errors.Wrapf(diary.ErrCorrupt, "target kind %d", kind))
	}
}

// KeyBytes returns the encoded target, which is also its trie key.
func (t Target) KeyBytes() []byte { return keyBytes(t) }

// Ring names an attribute: a name within an aspect. The zero Ring is the
// center ring.
type Ring struct {
	Name   string
	Aspect string
}

// Center is the ring of the entity itself.
var Center = Ring{}

const (
	ringCenter uint8 = 0
	ringNamed  uint8 = 1
)

// ParseRing parses "name/aspect". Everything after the first slash is the
// aspect.
func ParseRing(s string) (Ring, error) {
	name, aspect, ok := strings.Cut(s, "/")
	if !ok {
		return Ring{}, errors.Errorf("recurve: ring %q is not name/aspect", s)
	}
	return Ring{Name: name, Aspect: aspect}, nil
}

func (r Ring) IsCenter() bool { return r == Center }

func (r Ring) String() string {
	if r.IsCenter() {
		return "center"
	}
	return r.Name + "/" + r.Aspect
}

func (r Ring) MarshalDiary(e *diary.Encoder) {
	if r.IsCenter() {
		e.U8(ringCenter)
		return
	}
	e.U8(ringNamed)
	e.String(r.Name)
	e.String(r.Aspect)
}

func (r *Ring) UnmarshalDiary(d *diary.Decoder) {
	switch tag := d.U8(); tag {
	case ringCenter:
		*r = Center
	case ringNamed:
		r.Name = d.String()
		r.Aspect = d.String()
	default:
		d.Fail(errors.Wrapf(diary.ErrCorrupt, "ring tag %d", tag))
	}
}

func (r Ring) KeyBytes() []byte { return keyBytes(r) }

// ArrowKind tags the variants of Arrow on disk. The zero kind means no arrow.
type ArrowKind uint8

const (
	ArrowNumber ArrowKind = 1
	ArrowString ArrowKind = 2
	ArrowTarget ArrowKind = 3
)

// Arrow is the value a flight attaches to a target at a ring.
type Arrow struct {
	Kind   ArrowKind
	Number uint64
	Text   string
	Target Target
}

func NumberArrow(n uint64) Arrow { return Arrow{Kind: ArrowNumber, Number: n} }

func StringArrow(s string) Arrow { return Arrow{Kind: ArrowString, Text: s} }

// ArrowTo points at another target.
func ArrowTo(t Target) Arrow { return Arrow{Kind: ArrowTarget, Target: t} }

func (a Arrow) IsZero() bool { return a.Kind == 0 }

func (a Arrow) String() string {
	switch a.Kind {
	case ArrowNumber:
		return strconv.FormatUint(a.Number, 10)
	case ArrowString:
		return a.Text
	case ArrowTarget:
		return "->" + a.Target.String()
	default:
		return ""
	}
}

func (a Arrow) MarshalDiary(e *diary.Encoder) {
	switch a.Kind {
	case ArrowNumber:
		e.U8(uint8(a.Kind))
		e.U64(a.Number)
	case ArrowString:
		e.U8(uint8(a.Kind))
		e.String(a.Text)
	case ArrowTarget:
		e.U8(uint8(a.Kind))
		a.Target.MarshalDiary(e)
	default:
		e.Fail(errors.Wrapf(diary.ErrInvalidData, "arrow kind %d", a.Kind))
	}
}

func (a *Arrow) UnmarshalDiary(d *diary.Decoder) {
	switch kind := ArrowKind(d.U8()); kind {
	case ArrowNumber:
		*a = NumberArrow(d.U64())
	case ArrowString:
		*a = StringArrow(d.String())
	case ArrowTarget:
		var t Target
		t.UnmarshalDiary(d)
		*a = ArrowTo(t)
	default:
		d.Fail(errors.Wrapf(diary.ErrCorrupt, "arrow kind %d", kind))
	}
}

func keyBytes(m diary.Marshaler) []byte {
	var buf bytes.Buffer
	m.MarshalDiary(diary.NewEncoder(&buf))
	return buf.Bytes()
}

func digest(k hamt.Key) uint32 { return hamt.DigestKey(k) }

// Flight attaches an arrow to a target at a ring.
type Flight struct {
	Target Target
	Ring   Ring
	Arrow  Arrow
}

func (f Flight) String() string {
	return fmt.Sprintf("%s @ %s = %s", f.Target, f.Ring, f.Arrow)
}

// Volley is a batch of flights released together.
type Volley []Flight

// Flights implements FlightSource.
func (v Volley) Flights() []Flight { return v }

// FlightSource is anything that can be turned into flights.
type FlightSource interface {
	Flights() []Flight
}

// RingArrow is one attribute of a target.
type RingArrow struct {
	Ring  Ring
	Arrow Arrow
}

func (ra RingArrow) MarshalDiary(e *diary.Encoder) {
	ra.Ring.MarshalDiary(e)
	ra.Arrow.MarshalDiary(e)
}

func (ra *RingArrow) UnmarshalDiary(d *diary.Decoder) {
	ra.Ring.UnmarshalDiary(d)
	ra.Arrow.UnmarshalDiary(d)
}

// TargetArrow is one target found at a ring.
type TargetArrow struct {
	Target Target
	Arrow  Arrow
}

func (ta TargetArrow) MarshalDiary(e *diary.Encoder) {
	ta.Target.MarshalDiary(e)
	ta.Arrow.MarshalDiary(e)
}

func (ta *TargetArrow) UnmarshalDiary(d *diary.Decoder) {
	ta.Target.UnmarshalDiary(d)
	ta.Arrow.UnmarshalDiary(d)
}

// Clout is a target with all of its attributes.
type Clout struct {
	Target     Target
	RingArrows []RingArrow
}

// Get returns the arrow at ring.
func (c Clout) Get(ring Ring) (Arrow, bool) {
	for _, ra := range c.RingArrows {
		if ra.Ring == ring {
			return ra.Arrow, true
		}
	}
	return Arrow{}, false
}

// Flights implements FlightSource.
func (c Clout) Flights() []Flight {
	flights := make([]Flight, 0, len(c.RingArrows))
	for _, ra := range c.RingArrows {
		flights = append(flights, Flight{Target: c.Target, Ring: ra.Ring, Arrow: ra.Arrow})
	}
	return flights
}

// targetBranch is the target_rings entry for a target: the root of its
// ring to arrow sub-trie.
type targetBranch struct {
	Target Target
	Root   hamt.Root
}

func (b targetBranch) MarshalDiary(e *diary.Encoder) {
	b.Target.MarshalDiary(e)
	b.Root.MarshalDiary(e)
}

func (b *targetBranch) UnmarshalDiary(d *diary.Decoder) {
	b.Target.UnmarshalDiary(d)
	b.Root.UnmarshalDiary(d)
}

// ringBranch is the ring_targets entry for a ring.
type ringBranch struct {
	Ring Ring
	Root hamt.Root
}

func (b ringBranch) MarshalDiary(e *diary.Encoder) {
	b.Ring.MarshalDiary(e)
	b.Root.MarshalDiary(e)
}

func (b *ringBranch) UnmarshalDiary(d *diary.Decoder) {
	b.Ring.UnmarshalDiary(d)
	b.Root.UnmarshalDiary(d)
}
