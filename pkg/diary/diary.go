package diary

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Pos is a byte offset into a diary.
type Pos int64

// Diary is an append-only file with a separately tracked committed length.
// Bytes past the committed length are treated as absent even when they are
// physically present.
type Diary struct {
	path      string
	temp      bool
	committed atomic.Int64
	handle    atomic.Pointer[handle]
}

// handle is the read descriptor shared by the diary and its readers. It is
// closed when the diary and every reader have let go of it.
type handle struct {
	file *os.File
	refs atomic.Int64
}

func (h *handle) acquire() bool {
	for {
		n := h.refs.Load()
		if n == 0 {
			return false
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (h *handle) release() {
	if h.refs.Add(-1) == 0 {
		_ = h.file.Close()
	}
}

var _ io.ReaderAt = closedFile{}

type closedFile struct{}

func (closedFile) ReadAt([]byte, int64) (int, error) { return 0, os.ErrClosed }

// Load opens the diary at path, creating it if needed. The committed length
// starts at the current file size.
func Load(path string) (*Diary, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "diary: open %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrapf(err, "diary: stat %s", path)
	}

	h := &handle{file: file}
	h.refs.Store(1)
	d := &Diary{path: path}
	d.handle.Store(h)
	d.committed.Store(info.Size())
	return d, nil
}

// Temp creates an empty diary in the system temp directory. The file is
// removed on Close.
func Temp() (*Diary, error) {
	d, err := Load(filepath.Join(os.TempDir(), "diary-"+uuid.NewString()+".dat"))
	if err != nil {
		return nil, err
	}
	d.temp = true
	return d, nil
}

// Path returns the backing file path.
func (d *Diary) Path() string { return d.path }

// Len returns the committed length.
func (d *Diary) Len() Pos { return Pos(d.committed.Load()) }

// Commit advances the committed length to end. It never moves backwards.
func (d *Diary) Commit(end Pos) {
	for {
		cur := d.committed.Load()
		if int64(end) <= cur || d.committed.CompareAndSwap(cur, int64(end)) {
			return
		}
	}
}

// Writer opens a sequential writer at the committed length. Anything
// physically past the committed length is truncated first.
func (d *Diary) Writer() (*Writer, error) {
	file, err := os.OpenFile(d.path, os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "diary: open writer %s", d.path)
	}
	w, err := newWriter(d, file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

// Reader returns a reader bound to the committed length at this instant.
// It keeps working after Close until it is garbage collected.
func (d *Diary) Reader() *Reader {
	return d.reader(d.Len())
}

func (d *Diary) reader(length Pos) *Reader {
	h := d.handle.Load()
	if h == nil || !h.acquire() {
		return &Reader{src: closedFile{}, length: length}
	}
	r := &Reader{src: h.file, length: length}
	runtime.AddCleanup(r, (*handle).release, h)
	return r
}

// Close drops the diary's hold on the read descriptor. A temp diary's file
// is removed; open readers keep their view of it.
func (d *Diary) Close() error {
	h := d.handle.Swap(nil)
	if h == nil {
		return nil
	}
	h.release()
	if d.temp {
		return errors.Wrap(os.Remove(d.path), "diary: close")
	}
	return nil
}
