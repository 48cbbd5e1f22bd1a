package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func levels() []BonusLevel {
	return []BonusLevel{
		{MinAmount: 0, MaxAmount: ptr(99_999), Percent: 0},
		{MinAmount: 100_000, MaxAmount: ptr(499_999), Percent: 5},
		{MinAmount: 500_000, MaxAmount: ptr(1_499_999), Percent: 10},
		{MinAmount: 1_500_000, MaxAmount: ptr(4_999_999), Percent: 15},
		{MinAmount: 5_000_000, MaxAmount: nil, Percent: 25},
	}
}

func TestMatchesBoundariesInclusive(t *testing.T) {
	level := BonusLevel{MinAmount: 100_000, MaxAmount: ptr(499_999), Percent: 5}

	assert.False(t, level.Matches(99_999))
	assert.True(t, level.Matches(100_000))
	assert.True(t, level.Matches(499_999))
	assert.False(t, level.Matches(500_000))
}

func TestMatchesOpenEnded(t *testing.T) {
	top := BonusLevel{MinAmount: 5_000_000, Percent: 25}

	assert.True(t, top.Matches(5_000_000))
	assert.True(t, top.Matches(1<<50))
	assert.False(t, top.Matches(4_999_999))
}

// Every turnover value must land in exactly one level of a valid table.
func TestTableExclusivity(t *testing.T) {
	table := levels()
	require := []int64{0, 99_999, 100_000, 499_999, 500_000, 600_000, 1_499_999, 1_500_000, 4_999_999, 5_000_000, 99_000_000}

	for _, total := range require {
		matches := 0
		for _, level := range table {
			if level.Matches(total) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "total %d should match exactly one level", total)
	}
}

func TestValidateTableAcceptsDefault(t *testing.T) {
	assert.NoError(t, ValidateTable(levels()))
}

func TestValidateTableRejectsOverlap(t *testing.T) {
	table := []BonusLevel{
		{MinAmount: 0, MaxAmount: ptr(200_000), Percent: 0},
		{MinAmount: 100_000, MaxAmount: ptr(499_999), Percent: 5},
	}
	assert.ErrorIs(t, ValidateTable(table), ErrOverlappingLevels)
}

func TestValidateTableRejectsOpenEndedNotLast(t *testing.T) {
	table := []BonusLevel{
		{MinAmount: 0, MaxAmount: nil, Percent: 0},
		{MinAmount: 100_000, MaxAmount: ptr(499_999), Percent: 5},
	}
	assert.ErrorIs(t, ValidateTable(table), ErrOpenEndedNotLast)
}

func TestValidateTableRejectsInvertedRange(t *testing.T) {
	table := []BonusLevel{
		{MinAmount: 500_000, MaxAmount: ptr(100_000), Percent: 5},
	}
	assert.ErrorIs(t, ValidateTable(table), ErrInvalidRange)
}

func TestValidateTableRejectsNegativeValues(t *testing.T) {
	assert.ErrorIs(t, ValidateTable([]BonusLevel{{MinAmount: -1, Percent: 5}}), ErrInvalidRange)
	assert.ErrorIs(t, ValidateTable([]BonusLevel{{MinAmount: 0, Percent: -5}}), ErrInvalidRange)
}
