package recurve

import (
	"bytes"
	"testing"

	"github.com/huynhanx03/recurvedb/pkg/diary"
	"github.com/pkg/errors"
)

func roundTrip[T any, PT interface {
	*T
	diary.Unmarshaler
}](t *testing.T, v diary.Marshaler) T {
	t.Helper()
	var buf bytes.Buffer
	e := diary.NewEncoder(&buf)
	v.MarshalDiary(e)
	if err := e.Err(); err != nil {
		t.Fatalf("MarshalDiary() error = %v", err)
	}

	var out T
	d := diary.NewDecoder(&buf)
	PT(&out).UnmarshalDiary(d)
	if err := d.Err(); err != nil {
		t.Fatalf("UnmarshalDiary() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d bytes left after decode", buf.Len())
	}
	return out
}

func TestTargetEncoding(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   []byte
	}{
		{name: "number", target: NumberTarget(5), want: []byte{1, 0, 0, 0, 0, 0, 0, 0, 5}},
		{name: "text", target: TextTarget("ab"), want: []byte{2, 0, 2, 'a', 'b'}},
		{name: "empty_text", target: TextTarget(""), want: []byte{2, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.KeyBytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("KeyBytes() = %v, want %v", got, tt.want)
			}
			if got := roundTrip[Target](t, tt.target); got != tt.target {
				t.Errorf("round trip = %v, want %v", got, tt.target)
			}
		})
	}
}

func TestRingEncoding(t *testing.T) {
	tests := []struct {
		name string
		ring Ring
		want []byte
	}{
		{name: "center", ring: Center, want: []byte{0}},
		{name: "named", ring: Ring{Name: "n", Aspect: "a"}, want: []byte{1, 0, 1, 'n', 0, 1, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ring.KeyBytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("KeyBytes() = %v, want %v", got, tt.want)
			}
			if got := roundTrip[Ring](t, tt.ring); got != tt.ring {
				t.Errorf("round trip = %v, want %v", got, tt.ring)
			}
		})
	}
}

func TestArrowEncoding(t *testing.T) {
	arrows := []Arrow{
		NumberArrow(1 << 50),
		StringArrow("hello"),
		ArrowTo(TextTarget("other")),
		ArrowTo(NumberTarget(9)),
	}
	for _, a := range arrows {
		if got := roundTrip[Arrow](t, a); got != a {
			t.Errorf("round trip = %v, want %v", got, a)
		}
	}

	composite := TargetArrow{Target: TextTarget("x"), Arrow: StringArrow("y")}
	if got := roundTrip[TargetArrow](t, composite); got != composite {
		t.Errorf("round trip = %v, want %v", got, composite)
	}
}

func TestCorruptTags(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		decode func(*diary.Decoder)
	}{
		{name: "target", data: []byte{9}, decode: func(d *diary.Decoder) { new(Target).UnmarshalDiary(d) }},
		{name: "ring", data: []byte{7}, decode: func(d *diary.Decoder) { new(Ring).UnmarshalDiary(d) }},
		{name: "arrow", data: []byte{0}, decode: func(d *diary.Decoder) { new(Arrow).UnmarshalDiary(d) }},
		{name: "nested_target", data: []byte{3, 4}, decode: func(d *diary.Decoder) { new(Arrow).UnmarshalDiary(d) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := diary.NewDecoder(bytes.NewReader(tt.data))
			tt.decode(d)
			if !errors.Is(d.Err(), diary.ErrCorrupt) {
				t.Errorf("error = %v, want %v", d.Err(), diary.ErrCorrupt)
			}
		})
	}
}

func TestEncodeInvalidKind(t *testing.T) {
	var buf bytes.Buffer
	e := diary.NewEncoder(&buf)
	Arrow{}.MarshalDiary(e)
	if !errors.Is(e.Err(), diary.ErrInvalidData) {
		t.Errorf("error = %v, want %v", e.Err(), diary.ErrInvalidData)
	}
}

func TestParseRing(t *testing.T) {
	tests := []struct {
		in      string
		want    Ring
		wantErr bool
	}{
		{in: "title/blog", want: Ring{Name: "title", Aspect: "blog"}},
		{in: "value/recurve::kv", want: Ring{Name: "value", Aspect: "recurve::kv"}},
		{in: "a/b/c", want: Ring{Name: "a", Aspect: "b/c"}},
		{in: "plain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRing(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRing(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRing(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if !tt.wantErr && got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}

func TestCloutFlights(t *testing.T) {
	c := Clout{
		Target: TextTarget("t"),
		RingArrows: []RingArrow{
			{Ring: titleRing, Arrow: StringArrow("x")},
			{Ring: countRing, Arrow: NumberArrow(2)},
		},
	}
	flights := c.Flights()
	if len(flights) != 2 {
		t.Fatalf("len(Flights()) = %d, want 2", len(flights))
	}
	if flights[1] != (Flight{Target: c.Target, Ring: countRing, Arrow: NumberArrow(2)}) {
		t.Errorf("Flights()[1] = %v", flights[1])
	}
}
