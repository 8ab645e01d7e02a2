package recurve

import (
	"path/filepath"
	"time"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/huynhanx03/recurvedb/pkg/rootslog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// state is owned by the connection goroutine.
type state struct {
	diary       *diary.Diary
	writer      *diary.Writer
	roots       *rootslog.Log
	targetRings *hamt.Trie
	ringTargets *hamt.Trie

	cache   hamt.FrameCache
	sync    bool
	log     *zap.Logger
	metrics *metrics
}

func open(name, dir string, cfg Config) (*state, error) {
	m, err := newMetrics(cfg.Registerer, name)
	if err != nil {
		return nil, err
	}

	d, err := diary.Load(filepath.Join(dir, diaryFile))
	if err != nil {
		return nil, err
	}
	w, err := d.Writer()
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	roots, err := rootslog.Open(filepath.Join(dir, rootsFile))
	if err != nil {
		_ = w.Close()
		_ = d.Close()
		return nil, err
	}

	tr, rt := roots.Latest()
	st := &state{
		diary:       d,
		writer:      w,
		roots:       roots,
		targetRings: hamt.New(tr),
		ringTargets: hamt.New(rt),
		cache:       cfg.FrameCache,
		sync:        cfg.SyncWrites,
		log:         cfg.Logger.With(zap.String("store", name)),
		metrics:     m,
	}
	m.committed.Set(float64(d.Len()))

	st.log.Debug("recurve connected",
		zap.String("dir", dir),
		zap.Int64("diary_length", int64(d.Len())),
		zap.Int64("commits", roots.Len()),
		zap.Stringer("target_rings", tr),
		zap.Stringer("ring_targets", rt),
	)
	return st, nil
}

// source returns a frame source over r that shares the frame cache.
func (st *state) source(r *diary.Reader) hamt.Source {
	return hamt.NewCachedSource(hamt.NewSource(r), st.cache, st.diary.Len)
}

func (st *state) bundle() *Bundle {
	r := st.diary.Reader()
	src := st.source(r)
	return &Bundle{
		targetRings: st.targetRings.Reader(src),
		ringTargets: st.ringTargets.Reader(src),
		diary:       r,
	}
}

func (st *state) release(flights []Flight) (*Bundle, error) {
	start := time.Now()
	tr, rt := st.targetRings.Root(), st.ringTargets.Root()

	if err := st.apply(flights); err != nil {
		st.rollback(tr, rt)
		st.log.Warn("release failed", zap.Int("flights", len(flights)), zap.Error(err))
		return nil, err
	}
	if err := st.commit(); err != nil {
		st.rollback(tr, rt)
		st.log.Warn("commit failed", zap.Error(err))
		return nil, err
	}

	st.metrics.releases.Inc()
	st.metrics.flights.Add(float64(len(flights)))
	st.metrics.committed.Set(float64(st.diary.Len()))
	st.metrics.latency.Observe(time.Since(start).Seconds())
	st.log.Debug("release committed",
		zap.Int("flights", len(flights)),
		zap.Int64("diary_length", int64(st.diary.Len())),
	)
	return st.bundle(), nil
}

// rollback drops everything written since the last commit and moves both
// tries back to tr and rt.
func (st *state) rollback(tr, rt hamt.Root) {
	st.targetRings.Reset(tr)
	st.ringTargets.Reset(rt)
	if err := st.writer.Rewind(st.diary.Len()); err != nil {
		st.log.Error("rewind after failed release", zap.Error(err))
	}
	st.metrics.failures.Inc()
}

// commit makes the batch durable. The diary bytes reach the file before the
// roots that point at them; the committed length only moves once the roots
// are recorded, so a failure here leaves nothing to publish.
func (st *state) commit() error {
	if st.sync {
		if err := st.writer.Sync(); err != nil {
			return err
		}
	}

	tr, rt := st.targetRings.Root(), st.ringTargets.Root()
	var err error
	if st.sync {
		err = st.roots.AppendSync(tr, rt)
	} else {
		err = st.roots.Append(tr, rt)
	}
	if err != nil {
		return err
	}

	st.diary.Commit(st.writer.End())
	return nil
}

func (st *state) apply(flights []Flight) error {
	for _, f := range flights {
		if f.Arrow.IsZero() {
			return errors.Wrapf(ErrNoArrow, "recurve: %s @ %s", f.Target, f.Ring)
		}
		if err := st.writeTargetRing(f); err != nil {
			return errors.WithMessagef(err, "recurve: release %s", f)
		}
		if err := st.writeRingTarget(f); err != nil {
			return errors.WithMessagef(err, "recurve: release %s", f)
		}
	}
	return nil
}

// writeTargetRing stores ring -> arrow in the target's sub-trie and points
// target_rings at the new sub-root.
func (st *state) writeTargetRing(f Flight) error {
	r := st.writer.Reader()
	src := st.source(r)
	targetKey, ringKey := digest(f.Target), digest(f.Ring)

	targets, err := getBucket[targetBranch](st.targetRings.Reader(src), r, targetKey)
	if err != nil {
		return err
	}
	branch, _ := targets.find(sameTarget(f.Target))

	sub := hamt.New(branch.Root)
	rings, err := getBucket[RingArrow](sub.Reader(src), r, ringKey)
	if err != nil {
		return err
	}
	rings = rings.with(RingArrow{Ring: f.Ring, Arrow: f.Arrow}, ringArrowAt(f.Ring))
	if _, err := sub.PutRecord(src, st.writer, ringKey, rings); err != nil {
		return err
	}

	targets = targets.with(targetBranch{Target: f.Target, Root: sub.Root()}, sameTarget(f.Target))
	_, err = st.targetRings.PutRecord(src, st.writer, targetKey, targets)
	return err
}

// writeRingTarget is the mirror of writeTargetRing for ring_targets.
func (st *state) writeRingTarget(f Flight) error {
	r := st.writer.Reader()
	src := st.source(r)
	targetKey, ringKey := digest(f.Target), digest(f.Ring)

	rings, err := getBucket[ringBranch](st.ringTargets.Reader(src), r, ringKey)
	if err != nil {
		return err
	}
	branch, _ := rings.find(sameRing(f.Ring))

	sub := hamt.New(branch.Root)
	targets, err := getBucket[TargetArrow](sub.Reader(src), r, targetKey)
	if err != nil {
		return err
	}
	targets = targets.with(TargetArrow{Target: f.Target, Arrow: f.Arrow}, targetArrowOf(f.Target))
	if _, err := sub.PutRecord(src, st.writer, targetKey, targets); err != nil {
		return err
	}

	rings = rings.with(ringBranch{Ring: f.Ring, Root: sub.Root()}, sameRing(f.Ring))
	_, err = st.ringTargets.PutRecord(src, st.writer, ringKey, rings)
	return err
}

func (st *state) close() error {
	var errs []error
	if err := st.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := st.roots.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := st.diary.Close(); err != nil {
		errs = append(errs, err)
	}
	_ = st.log.Sync()
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
