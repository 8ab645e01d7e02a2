package diary

import (
	"bufio"
	"io"
	"runtime"

	"github.com/pkg/errors"
)

// Reader decodes records at arbitrary positions below a fixed length.
// Readers share no state and may be used from any goroutine.
type Reader struct {
	src    io.ReaderAt
	length Pos
}

// Len returns the length the reader is bound to.
func (r *Reader) Len() Pos { return r.length }

// ReadInto decodes the record at pos into u.
func (r *Reader) ReadInto(pos Pos, u Unmarshaler) error {
	if pos < 0 || pos >= r.length {
		return errors.Wrapf(ErrOutOfRange, "diary: read at %d, length %d", pos, r.length)
	}
	section := io.NewSectionReader(r.src, int64(pos), int64(r.length-pos))
	d := NewDecoder(bufio.NewReaderSize(section, 64))
	u.UnmarshalDiary(d)
	runtime.KeepAlive(r)
	return errors.Wrapf(d.Err(), "diary: decode at %d", pos)
}

// ReadBytes reads exactly n raw bytes at pos.
func (r *Reader) ReadBytes(pos Pos, n int) ([]byte, error) {
	if pos < 0 || pos+Pos(n) > r.length {
		return nil, errors.Wrapf(ErrOutOfRange, "diary: read %d bytes at %d, length %d", n, pos, r.length)
	}
	buf := make([]byte, n)
	_, err := r.src.ReadAt(buf, int64(pos))
	runtime.KeepAlive(r)
	if err != nil {
		return nil, errors.Wrapf(err, "diary: read at %d", pos)
	}
	return buf, nil
}

// Read decodes the record of type T stored at pos.
func Read[T any, PT interface {
	*T
	Unmarshaler
}](r *Reader, pos Pos) (T, error) {
	var v T
	err := r.ReadInto(pos, PT(&v))
	return v, err
}
