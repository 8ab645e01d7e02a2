package hamt

import (
	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

var (
	// ErrDataRange is returned when a key or position needs the discriminator bit.
	ErrDataRange = errors.Wrap(diary.ErrInvalidData, "hamt: value exceeds 31 bits")
	// ErrEmptySlot is returned when an Empty slot is asked to be encoded.
	ErrEmptySlot = errors.New("hamt: empty slot has no encoding")
	// ErrKeyCollision is returned when two distinct keys share every slot index
	// down to MaxDepth, or when two full keys share one digest.
	ErrKeyCollision = errors.New("hamt: key collision")
)
