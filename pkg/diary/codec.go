package diary

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Marshaler is implemented by values that can be appended to a diary.
type Marshaler interface {
	MarshalDiary(e *Encoder)
}

// Unmarshaler is implemented by values that can be decoded from a diary.
type Unmarshaler interface {
	UnmarshalDiary(d *Decoder)
}

// Encoder writes big-endian primitives to w. The first error is kept and
// every later call becomes a no-op.
type Encoder struct {
	w       io.Writer
	n       int64
	err     error
	scratch [8]byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	n, err := e.w.Write(p)
	e.n += int64(n)
	e.err = err
}

func (e *Encoder) U8(v uint8) {
	e.scratch[0] = v
	e.write(e.scratch[:1])
}

func (e *Encoder) U16(v uint16) {
	binary.BigEndian.PutUint16(e.scratch[:2], v)
	e.write(e.scratch[:2])
}

func (e *Encoder) U32(v uint32) {
	binary.BigEndian.PutUint32(e.scratch[:4], v)
	e.write(e.scratch[:4])
}

func (e *Encoder) U64(v uint64) {
	binary.BigEndian.PutUint64(e.scratch[:8], v)
	e.write(e.scratch[:8])
}

// String writes a u16 length prefix followed by the bytes of s.
func (e *Encoder) String(s string) {
	if len(s) > math.MaxUint16 {
		e.Fail(errors.Wrapf(ErrInvalidData, "string of %d bytes", len(s)))
		return
	}
	e.U16(uint16(len(s)))
	if e.err != nil || len(s) == 0 {
		return
	}
	n, err := io.WriteString(e.w, s)
	e.n += int64(n)
	e.err = err
}

// Bytes writes p without a length prefix.
func (e *Encoder) Bytes(p []byte) {
	e.write(p)
}

// Fail records err unless an earlier error is already set.
func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Err returns the first error encountered.
func (e *Encoder) Err() error { return e.err }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int64 { return e.n }

// Decoder reads big-endian primitives from r with the same sticky error
// behavior as Encoder.
type Decoder struct {
	r       io.Reader
	err     error
	scratch [8]byte
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

func (d *Decoder) read(p []byte) bool {
	if d.err != nil {
		return false
	}
	if _, err := io.ReadFull(d.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = errors.Wrap(ErrOutOfRange, "record truncated")
		}
		d.err = err
		return false
	}
	return true
}

func (d *Decoder) U8() uint8 {
	if !d.read(d.scratch[:1]) {
		return 0
	}
	return d.scratch[0]
}

func (d *Decoder) U16() uint16 {
	if !d.read(d.scratch[:2]) {
		return 0
	}
	return binary.BigEndian.Uint16(d.scratch[:2])
}

func (d *Decoder) U32() uint32 {
	if !d.read(d.scratch[:4]) {
		return 0
	}
	return binary.BigEndian.Uint32(d.scratch[:4])
}

func (d *Decoder) U64() uint64 {
	if !d.read(d.scratch[:8]) {
		return 0
	}
	return binary.BigEndian.Uint64(d.scratch[:8])
}

// String reads a u16 length prefixed string.
func (d *Decoder) String() string {
	n := d.U16()
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	if !d.read(buf) {
		return ""
	}
	return string(buf)
}

// Bytes reads exactly n bytes.
func (d *Decoder) Bytes(n int) []byte {
	buf := make([]byte, n)
	if !d.read(buf) {
		return nil
	}
	return buf
}

// Fail records err unless an earlier error is already set.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error { return d.err }

// U32 is a bare u32 record.
type U32 uint32

func (v U32) MarshalDiary(e *Encoder)    { e.U32(uint32(v)) }
func (v *U32) UnmarshalDiary(d *Decoder) { *v = U32(d.U32()) }

// U64 is a bare u64 record.
type U64 uint64

func (v U64) MarshalDiary(e *Encoder)    { e.U64(uint64(v)) }
func (v *U64) UnmarshalDiary(d *Decoder) { *v = U64(d.U64()) }

// String is a length prefixed string record.
type String string

func (v String) MarshalDiary(e *Encoder)    { e.String(string(v)) }
func (v *String) UnmarshalDiary(d *Decoder) { *v = String(d.String()) }
