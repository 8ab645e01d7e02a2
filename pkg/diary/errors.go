package diary

import "github.com/pkg/errors"

var (
	// ErrInvalidData is returned when a value does not fit its on-disk encoding.
	ErrInvalidData = errors.New("diary: invalid data")
	// ErrCorrupt is returned when bytes read back do not decode to a known value.
	ErrCorrupt = errors.New("diary: corrupt record")
	// ErrOutOfRange is returned when a read reaches past the reader's length.
	ErrOutOfRange = errors.New("diary: read out of range")
)
