package hamt

import (
	"github.com/huynhanx03/recurvedb/pkg/common/cache"
	"github.com/huynhanx03/recurvedb/pkg/diary"
)

// Source resolves roots to frames.
type Source interface {
	Frame(root Root) (Frame, error)
}

// FrameCache caches decoded frames by CacheKey.
type FrameCache = cache.LocalCache[uint64, Frame]

type diarySource struct {
	r *diary.Reader
}

// NewSource reads frames straight from r.
func NewSource(r *diary.Reader) Source {
	return diarySource{r: r}
}

func (s diarySource) Frame(root Root) (Frame, error) {
	return ReadFrame(s.r, root)
}

type cachedSource struct {
	next      Source
	cache     FrameCache
	committed func() diary.Pos
}

// NewCachedSource consults c before next. Frames are only admitted once
// they lie wholly below committed(), since later bytes may still be rolled
// back and rewritten.
func NewCachedSource(next Source, c FrameCache, committed func() diary.Pos) Source {
	if c == nil {
		return next
	}
	return &cachedSource{next: next, cache: c, committed: committed}
}

// CacheKey packs a root into a cache key.
func CacheKey(root Root) uint64 {
	return uint64(root.Pos)<<32 | uint64(root.Mask)
}

func (s *cachedSource) Frame(root Root) (Frame, error) {
	if root.IsZero() {
		return Frame{}, nil
	}
	key := CacheKey(root)
	if f, ok := s.cache.Get(key); ok {
		return f, nil
	}

	f, err := s.next.Frame(root)
	if err != nil {
		return f, err
	}
	if root.End() <= s.committed() {
		s.cache.Set(key, f, 1)
	}
	return f, nil
}
