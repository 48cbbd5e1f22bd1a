package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShareRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount  int64
		percent int64
		want    int64
	}{
		{200_000, 10, 20_000},
		{1_000_000, 25, 250_000},
		{0, 25, 0},
		{100, 0, 0},
		{105, 10, 11},  // 10.5 rounds up
		{104, 10, 10},  // 10.4 rounds down
		{33, 33, 11},   // 10.89 rounds up
		{1, 1, 0},      // 0.01 rounds down
		{50, 1, 1},     // 0.5 rounds up
		{49, 1, 0},     // 0.49 rounds down
		{-105, 10, -11}, // symmetric away from zero
		{-104, 10, -10},
		{1_000_000, -15, -150_000},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Share(tc.amount, tc.percent), "Share(%d, %d)", tc.amount, tc.percent)
	}
}

func TestShareIsDeterministic(t *testing.T) {
	first := Share(123_457, 13)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Share(123_457, 13))
	}
}
