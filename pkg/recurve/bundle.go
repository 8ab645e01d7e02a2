package recurve

import (
	"strings"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/huynhanx03/recurvedb/pkg/hamt"
)

// Bundle is an immutable view of the store at one commit. It is safe for
// concurrent use and never observes later writes.
type Bundle struct {
	targetRings hamt.Reader
	ringTargets hamt.Reader
	diary       *diary.Reader
}

// Roots returns the target_rings and ring_targets roots the bundle reads.
func (b *Bundle) Roots() (hamt.Root, hamt.Root) {
	return b.targetRings.Root(), b.ringTargets.Root()
}

// Len returns the diary length the bundle is bound to.
func (b *Bundle) Len() diary.Pos { return b.diary.Len() }

func (b *Bundle) targetBranch(t Target) (hamt.Reader, bool, error) {
	targets, err := getBucket[targetBranch](b.targetRings, b.diary, digest(t))
	if err != nil {
		return hamt.Reader{}, false, err
	}
	branch, ok := targets.find(sameTarget(t))
	if !ok {
		return hamt.Reader{}, false, nil
	}
	return b.targetRings.At(branch.Root), true, nil
}

func (b *Bundle) ringBranch(r Ring) (hamt.Reader, bool, error) {
	rings, err := getBucket[ringBranch](b.ringTargets, b.diary, digest(r))
	if err != nil {
		return hamt.Reader{}, false, err
	}
	branch, ok := rings.find(sameRing(r))
	if !ok {
		return hamt.Reader{}, false, nil
	}
	return b.ringTargets.At(branch.Root), true, nil
}

// Arrow returns the arrow released for target at ring.
func (b *Bundle) Arrow(target Target, ring Ring) (Arrow, bool, error) {
	sub, ok, err := b.targetBranch(target)
	if err != nil || !ok {
		return Arrow{}, false, err
	}
	rings, err := getBucket[RingArrow](sub, b.diary, digest(ring))
	if err != nil {
		return Arrow{}, false, err
	}
	ra, ok := rings.find(ringArrowAt(ring))
	return ra.Arrow, ok, nil
}

// Clout returns every attribute of target. A target with none yields an
// empty Clout.
func (b *Bundle) Clout(target Target) (Clout, error) {
	c := Clout{Target: target}
	sub, ok, err := b.targetBranch(target)
	if err != nil || !ok {
		return c, err
	}
	err = eachEntry(sub, b.diary, func(ra RingArrow) error {
		c.RingArrows = append(c.RingArrows, ra)
		return nil
	})
	return c, err
}

// Targets returns every target with an arrow at ring.
func (b *Bundle) Targets(ring Ring) ([]TargetArrow, error) {
	return b.targets(ring, func(TargetArrow) bool { return true })
}

// TargetsWithArrow returns the targets whose arrow at ring equals arrow.
func (b *Bundle) TargetsWithArrow(ring Ring, arrow Arrow) ([]Target, error) {
	found, err := b.targets(ring, func(ta TargetArrow) bool { return ta.Arrow == arrow })
	if err != nil {
		return nil, err
	}
	targets := make([]Target, len(found))
	for i, ta := range found {
		targets[i] = ta.Target
	}
	return targets, nil
}

// TargetsWithPrefix returns the text targets at ring whose name starts with
// prefix.
func (b *Bundle) TargetsWithPrefix(ring Ring, prefix string) ([]TargetArrow, error) {
	return b.targets(ring, func(ta TargetArrow) bool {
		return ta.Target.Kind == TargetText && strings.HasPrefix(ta.Target.Text, prefix)
	})
}

func (b *Bundle) targets(ring Ring, keep func(TargetArrow) bool) ([]TargetArrow, error) {
	sub, ok, err := b.ringBranch(ring)
	if err != nil || !ok {
		return nil, err
	}
	var out []TargetArrow
	err = eachEntry(sub, b.diary, func(ta TargetArrow) error {
		if keep(ta) {
			out = append(out, ta)
		}
		return nil
	})
	return out, err
}
