package recurve

import "github.com/google/uuid"

// DrawScope collects flights for Draw.
type DrawScope struct {
	volley Volley
}

// NewTarget returns a fresh text target named prefix-<uuid>.
func (s *DrawScope) NewTarget(prefix string) Target {
	return TextTarget(prefix + "-" + uuid.NewString())
}

// Release queues flights.
func (s *DrawScope) Release(flights ...Flight) {
	s.volley = append(s.volley, flights...)
}

// ReleaseFrom queues every flight of src.
func (s *DrawScope) ReleaseFrom(src FlightSource) {
	s.volley = append(s.volley, src.Flights()...)
}

// ReleaseClout queues one flight per ring/arrow pair of target.
func (s *DrawScope) ReleaseClout(target Target, ringArrows ...RingArrow) {
	s.ReleaseFrom(Clout{Target: target, RingArrows: ringArrows})
}
