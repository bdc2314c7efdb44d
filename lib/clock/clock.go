// Package clock abstracts the time source used for accumulator updates.
// Timestamps are unix seconds.
package clock

// Clock supplies the current timestamp.
type Clock interface {
	Now() uint64
}

// Manual is a clock driven explicitly by the caller. It never moves on its
// own, which makes replay and tests deterministic.
type Manual struct {
	now uint64
}

func NewManual(start uint64) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() uint64 {
	return m.now
}

// Set moves the clock to ts. Moving backwards is allowed here and rejected
// by the consumers that care.
func (m *Manual) Set(ts uint64) {
	m.now = ts
}

func (m *Manual) Advance(seconds uint64) {
	m.now += seconds
}
