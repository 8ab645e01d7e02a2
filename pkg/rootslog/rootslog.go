// Package rootslog records the pair of trie roots after every commit. The
// last whole record in the file is the latest durable state.
package rootslog

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/huynhanx03/recurvedb/pkg/hamt"
	"github.com/pkg/errors"
)

// RecordSize is the size of one (Root, Root) record.
const RecordSize = 16

// File is the subset of *os.File a Log needs.
type File interface {
	io.Writer
	io.ReaderAt
	io.Seeker
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Log is an append-only file of root pairs. It is not safe for concurrent use.
type Log struct {
	file   File
	end    int64
	latest [2]hamt.Root
}

// Open opens or creates the log at path and recovers the latest pair. A torn
// trailing record is cut off.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "rootslog: open %s", path)
	}
	l, err := New(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "rootslog: load %s", path)
	}
	return l, nil
}

// New recovers a Log from f, which must be open for reading and writing.
func New(f File) (*Log, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	end := size - size%RecordSize
	if end != size {
		if err := f.Truncate(end); err != nil {
			return nil, err
		}
		if _, err := f.Seek(end, io.SeekStart); err != nil {
			return nil, err
		}
	}

	l := &Log{file: f, end: end}
	if end == 0 {
		return l, nil
	}

	var buf [RecordSize]byte
	if _, err := f.ReadAt(buf[:], end-RecordSize); err != nil {
		return nil, err
	}
	l.latest = decode(buf)
	return l, nil
}

// Latest returns the most recently appended pair, or two zero roots.
func (l *Log) Latest() (hamt.Root, hamt.Root) {
	return l.latest[0], l.latest[1]
}

// Len returns the number of records in the log.
func (l *Log) Len() int64 { return l.end / RecordSize }

// Append writes one record. On failure the file is cut back to where it was.
func (l *Log) Append(a, b hamt.Root) error {
	buf := encode(a, b)
	if _, err := l.file.Write(buf[:]); err != nil {
		return l.rollback(err)
	}
	l.end += RecordSize
	l.latest = [2]hamt.Root{a, b}
	return nil
}

// AppendSync is Append followed by Sync. If the sync fails the record is
// removed again and Latest is left as it was.
func (l *Log) AppendSync(a, b hamt.Root) error {
	prev := l.latest
	if err := l.Append(a, b); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		l.end -= RecordSize
		l.latest = prev
		return l.rollback(errors.Wrap(err, "sync"))
	}
	return nil
}

func (l *Log) rollback(cause error) error {
	if err := l.file.Truncate(l.end); err != nil {
		return errors.Wrapf(err, "rootslog: truncate to %d after %v", l.end, cause)
	}
	if _, err := l.file.Seek(l.end, io.SeekStart); err != nil {
		return errors.Wrapf(err, "rootslog: seek to %d after %v", l.end, cause)
	}
	return errors.Wrap(cause, "rootslog: append")
}

func (l *Log) Sync() error {
	return errors.Wrap(l.file.Sync(), "rootslog: sync")
}

func (l *Log) Close() error {
	return errors.Wrap(l.file.Close(), "rootslog: close")
}

func encode(a, b hamt.Root) [RecordSize]byte {
	var buf [RecordSize]byte
	binary.BigEndian.PutUint32(buf[0:], a.Pos)
	binary.BigEndian.PutUint32(buf[4:], a.Mask)
	binary.BigEndian.PutUint32(buf[8:], b.Pos)
	binary.BigEndian.PutUint32(buf[12:], b.Mask)
	return buf
}

func decode(buf [RecordSize]byte) [2]hamt.Root {
	return [2]hamt.Root{
		{Pos: binary.BigEndian.Uint32(buf[0:]), Mask: binary.BigEndian.Uint32(buf[4:])},
		{Pos: binary.BigEndian.Uint32(buf[8:]), Mask: binary.BigEndian.Uint32(buf[12:])},
	}
}
