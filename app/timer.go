package app

import "time"

// Timer measures elapsed time in seconds.
type Timer struct {
	now  func() time.Time
	last time.Time
}

// NewTimer starts a timer on the given clock, or the wall clock when now
// is nil.
func NewTimer(now func() time.Time) *Timer {
	if now == nil {
		now = time.Now
	}
	return &Timer{now: now, last: now()}
}

// Mark returns the seconds since the previous mark and starts a new
// interval.
func (t *Timer) Mark() float32 {
	old := t.last
	t.last = t.now()
	return float32(t.last.Sub(old).Seconds())
}

// Peek returns the seconds since the last mark.
func (t *Timer) Peek() float32 {
	return float32(t.now().Sub(t.last).Seconds())
}
