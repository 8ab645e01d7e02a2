package recurve

import "github.com/pkg/errors"

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("recurve: connection closed")
	// ErrNoArrow is returned for a flight that carries no arrow.
	ErrNoArrow = errors.New("recurve: flight has no arrow")
)
