package domain

// Share computes amount × percent / 100 in minor currency units, rounding
// half-up away from zero. Integer math keeps repeated recomputation exact,
// which the audit comparisons depend on.
func Share(amount, percent int64) int64 {
	product := amount * percent
	if product >= 0 {
		return (product + 50) / 100
	}
	return -((-product + 50) / 100)
}
