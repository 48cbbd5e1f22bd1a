// Package period normalizes the first-of-month keys every turnover and bonus
// record is scoped by. Periods are always explicit parameters, never ambient
// process state, so rollover is a pure function of time.
package period

import "time"

// Of returns the UTC first-of-month instant containing t.
func Of(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the period following p.
func Next(p time.Time) time.Time {
	return Of(p).AddDate(0, 1, 0)
}

// IsStart reports whether t is already a normalized period key.
func IsStart(t time.Time) bool {
	return t.Equal(Of(t))
}

// Bounds returns the half-open [start, end) interval covered by the period.
func Bounds(p time.Time) (time.Time, time.Time) {
	start := Of(p)
	return start, Next(start)
}
