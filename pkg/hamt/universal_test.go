package hamt

import "testing"

func TestUniversal(t *testing.T) {
	tests := []struct {
		name  string
		key   uint32
		level uint32
		want  uint32
	}{
		{name: "small_key_level_1", key: 10, level: 1, want: 10},
		{name: "small_key_any_level", key: 10, level: 382423, want: 10},
		{name: "zero", key: 0, level: 7, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Universal(tt.key, tt.level); got != tt.want {
				t.Errorf("Universal(%d, %d) = %d, want %d", tt.key, tt.level, got, tt.want)
			}
		})
	}
}

func TestUniversalRehashes(t *testing.T) {
	h1 := Universal(310, 1)
	h2 := Universal(310, 2)
	if h1 == 310 {
		t.Errorf("Universal(310, 1) = 310, want a rehashed value")
	}
	if h1 == h2 {
		t.Errorf("Universal(310, 1) == Universal(310, 2) == %d", h1)
	}
	if Universal(310, 1) != h1 {
		t.Error("Universal is not deterministic")
	}
}

func TestDigest(t *testing.T) {
	for _, p := range [][]byte{nil, []byte("a"), []byte("some longer key bytes"), {0xff, 0xff, 0xff, 0xff, 0xff}} {
		if d := Digest(p); d&highBit != 0 {
			t.Errorf("Digest(%q) = %#x has the high bit set", p, d)
		}
	}
	if Digest([]byte("left")) == Digest([]byte("right")) {
		t.Error("Digest(left) == Digest(right)")
	}
}

func TestIndexer(t *testing.T) {
	ix := NewIndexer(10)
	want := []uint8{10, 0, 0, 0, 0, 0, 10, 0}
	for depth, w := range want {
		if got := ix.SlotIndex(depth); got != w {
			t.Errorf("SlotIndex(%d) = %d, want %d", depth, got, w)
		}
	}
}

func TestIndexerSpreads(t *testing.T) {
	ix := NewIndexer(256)
	seen := make(map[uint8]struct{})
	for depth := 0; depth < 8; depth++ {
		idx := ix.SlotIndex(depth)
		if idx >= FrameSize {
			t.Fatalf("SlotIndex(%d) = %d out of range", depth, idx)
		}
		seen[idx] = struct{}{}
	}
	if len(seen) <= 5 {
		t.Errorf("got %d distinct indices over 8 depths, want more than 5", len(seen))
	}
}

func TestIndexerOutOfOrder(t *testing.T) {
	// Deep depths first must give the same answers as a sequential walk.
	a, b := NewIndexer(0xabcdef), NewIndexer(0xabcdef)
	deep := a.SlotIndex(40)
	for depth := 0; depth < 40; depth++ {
		b.SlotIndex(depth)
	}
	if got := b.SlotIndex(40); got != deep {
		t.Errorf("SlotIndex(40) = %d, want %d", got, deep)
	}
}
