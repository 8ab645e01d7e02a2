package hamt

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWriter(t *testing.T) (*diary.Diary, *diary.Writer) {
	t.Helper()
	d, err := diary.Load(filepath.Join(t.TempDir(), "diary.dat"))
	require.NoError(t, err)
	w, err := d.Writer()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close()
		_ = d.Close()
	})
	return d, w
}

func encode(t *testing.T, m diary.Marshaler) ([]byte, error) {
	t.Helper()
	var buf bytes.Buffer
	e := diary.NewEncoder(&buf)
	m.MarshalDiary(e)
	return buf.Bytes(), e.Err()
}

// --- Slot encoding ---

func TestSlotEncoding(t *testing.T) {
	tests := []struct {
		name string
		slot Slot
		want []byte
	}{
		{
			name: "key_value",
			slot: KeyValue(1, 2),
			want: []byte{0, 0, 0, 1, 0, 0, 0, 2},
		},
		{
			name: "sub_root",
			slot: SubRoot(Root{Pos: 16, Mask: 0x82}),
			want: []byte{0x80, 0, 0, 16, 0, 0, 0, 0x82},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encode(t, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			var back Slot
			d := diary.NewDecoder(bytes.NewReader(got))
			back.UnmarshalDiary(d)
			require.NoError(t, d.Err())
			assert.Equal(t, tt.slot, back)
		})
	}
}

func TestSlotEncodingErrors(t *testing.T) {
	_, err := encode(t, Slot{})
	assert.ErrorIs(t, err, ErrEmptySlot)

	_, err = encode(t, KeyValue(highBit|1, 0))
	assert.ErrorIs(t, err, ErrDataRange)
	assert.ErrorIs(t, err, diary.ErrInvalidData)

	_, err = encode(t, SubRoot(Root{Pos: highBit, Mask: 1}))
	assert.ErrorIs(t, err, ErrDataRange)
}

func TestSlotDecodeEmptySubRoot(t *testing.T) {
	var s Slot
	d := diary.NewDecoder(bytes.NewReader([]byte{0x80, 0, 0, 8, 0, 0, 0, 0}))
	s.UnmarshalDiary(d)
	assert.ErrorIs(t, d.Err(), diary.ErrCorrupt)
}

func TestRootSlotPos(t *testing.T) {
	r := Root{Pos: 100, Mask: 1<<1 | 1<<7 | 1<<30}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, diary.Pos(100), r.SlotPos(1))
	assert.Equal(t, diary.Pos(108), r.SlotPos(7))
	assert.Equal(t, diary.Pos(116), r.SlotPos(30))
	assert.Equal(t, diary.Pos(124), r.End())
}

// --- Frames ---

func TestReadEmpty(t *testing.T) {
	d, _ := newWriter(t)
	f, err := ReadFrame(d.Reader(), ZeroRoot)
	require.NoError(t, err)
	assert.Equal(t, Frame{}, f)
	assert.Equal(t, uint32(0), f.Mask())
}

func TestWriteSingleSlot(t *testing.T) {
	d, w := newWriter(t)

	var f Frame
	f[4] = KeyValue(4, 40)
	root, err := WriteFrame(w, f)
	require.NoError(t, err)
	assert.Equal(t, Root{Pos: 0, Mask: 1 << 4}, root)
	assert.Equal(t, diary.Pos(SlotSize), w.End())

	d.Commit(w.End())
	got, err := ReadFrame(d.Reader(), root)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestWriteFrameSlots1And7(t *testing.T) {
	d, w := newWriter(t)

	// Pad the diary so the frame does not start at zero.
	_, err := w.Write(diary.U64(0))
	require.NoError(t, err)

	var f Frame
	f[1] = KeyValue(1, 10)
	f[7] = SubRoot(Root{Pos: 0, Mask: 1})
	root, err := WriteFrame(w, f)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), root.Pos)
	assert.Equal(t, uint32(1<<1|1<<7), root.Mask)

	d.Commit(w.End())
	got, err := ReadFrame(d.Reader(), root)
	require.NoError(t, err)
	assert.Equal(t, f, got)
	for i, s := range got {
		if i != 1 && i != 7 {
			assert.True(t, s.IsEmpty(), "slot %d", i)
		}
	}
}

func TestRevisedRoot(t *testing.T) {
	d, w := newWriter(t)

	var f Frame
	f[2] = KeyValue(2, 20)
	f[9] = KeyValue(9, 90)
	old, err := WriteFrame(w, f)
	require.NoError(t, err)

	revised, err := WriteFrame(w, f.With(9, KeyValue(9, 99)))
	require.NoError(t, err)
	assert.NotEqual(t, old, revised)
	assert.Equal(t, old.Mask, revised.Mask)

	d.Commit(w.End())
	r := d.Reader()

	before, err := ReadFrame(r, old)
	require.NoError(t, err)
	after, err := ReadFrame(r, revised)
	require.NoError(t, err)

	assert.Equal(t, uint32(90), before[9].Value)
	assert.Equal(t, uint32(99), after[9].Value)
	assert.Equal(t, before[2], after[2])
}

func TestWriteEmptyFrame(t *testing.T) {
	_, w := newWriter(t)
	_, err := WriteFrame(w, Frame{})
	assert.ErrorIs(t, err, ErrEmptySlot)
	assert.Equal(t, diary.Pos(0), w.End())
}

func TestReadFramePastLength(t *testing.T) {
	d, w := newWriter(t)
	var f Frame
	f[0] = KeyValue(0, 1)
	root, err := WriteFrame(w, f)
	require.NoError(t, err)

	// Not committed yet.
	_, err = ReadFrame(d.Reader(), root)
	assert.ErrorIs(t, err, diary.ErrOutOfRange)
}
