package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts time for services that reason about the current period,
// so tests can drive it deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystem returns a Clock backed by the wall clock in UTC.
func NewSystem() Clock { return systemClock{} }

// Fixed is a test clock that serves a settable instant.
type Fixed struct {
	Instant time.Time
}

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }

var Module = fx.Module("clock",
	fx.Provide(NewSystem),
)
