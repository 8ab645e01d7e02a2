package diary

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// File is the subset of *os.File a Writer needs.
type File interface {
	io.WriterAt
	Truncate(size int64) error
	Sync() error
	Close() error
}

// Writer appends records to a diary. It is not safe for concurrent use.
type Writer struct {
	diary *Diary
	file  File
	end   Pos
	buf   *bufio.Writer
}

func newWriter(d *Diary, file File) (*Writer, error) {
	end := d.Len()
	if err := file.Truncate(int64(end)); err != nil {
		return nil, errors.Wrapf(err, "diary: truncate to %d", end)
	}
	return &Writer{diary: d, file: file, end: end}, nil
}

// End returns the position the next record will be written at.
func (w *Writer) End() Pos { return w.end }

// Write appends m and returns the position it starts at. When encoding or
// I/O fails the file is truncated back to that position.
func (w *Writer) Write(m Marshaler) (Pos, error) {
	start := w.end
	out := io.NewOffsetWriter(w.file, int64(start))
	if w.buf == nil {
		w.buf = bufio.NewWriterSize(out, 4096)
	} else {
		w.buf.Reset(out)
	}

	e := NewEncoder(w.buf)
	m.MarshalDiary(e)
	err := e.Err()
	if err == nil {
		err = w.buf.Flush()
	}
	if err != nil {
		return start, w.rollback(start, err)
	}

	w.end = start + Pos(e.Len())
	return start, nil
}

func (w *Writer) rollback(start Pos, cause error) error {
	if err := w.file.Truncate(int64(start)); err != nil {
		return errors.Wrapf(err, "diary: truncate to %d after %v", start, cause)
	}
	return errors.Wrapf(cause, "diary: write at %d", start)
}

// Rewind drops everything written after pos. pos may not be below the
// committed length.
func (w *Writer) Rewind(pos Pos) error {
	if pos < w.diary.Len() || pos > w.end {
		return errors.Wrapf(ErrOutOfRange, "diary: rewind to %d outside [%d, %d]", pos, w.diary.Len(), w.end)
	}
	if err := w.file.Truncate(int64(pos)); err != nil {
		return errors.Wrapf(err, "diary: truncate to %d", pos)
	}
	w.end = pos
	return nil
}

// Reader returns a reader that sees everything written so far, committed
// or not.
func (w *Writer) Reader() *Reader {
	return w.diary.reader(w.end)
}

// Sync flushes the file to stable storage.
func (w *Writer) Sync() error {
	return errors.Wrap(w.file.Sync(), "diary: sync")
}

func (w *Writer) Close() error {
	return errors.Wrap(w.file.Close(), "diary: close writer")
}
