package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOfNormalizesToFirstOfMonth(t *testing.T) {
	in := time.Date(2025, 3, 17, 14, 30, 45, 12345, time.FixedZone("UTC+7", 7*3600))
	got := Of(in)

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestOfIsIdempotent(t *testing.T) {
	p := Of(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
	assert.True(t, p.Equal(Of(p)))
	assert.True(t, IsStart(p))
}

func TestNextCrossesYearBoundary(t *testing.T) {
	dec := Of(time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC))
	jan := Next(dec)

	assert.Equal(t, 2026, jan.Year())
	assert.Equal(t, time.January, jan.Month())
	assert.Equal(t, 1, jan.Day())
}

func TestBoundsAreHalfOpen(t *testing.T) {
	start, end := Bounds(time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)

	lastInstant := end.Add(-time.Nanosecond)
	assert.True(t, lastInstant.After(start))
	assert.True(t, lastInstant.Before(end))
}

func TestIsStartRejectsMidMonth(t *testing.T) {
	assert.False(t, IsStart(time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsStart(time.Date(2025, 2, 1, 0, 0, 1, 0, time.UTC)))
}
