package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	// SumPaidTotals sums paid-order totals for one member inside [from, to).
	SumPaidTotals(ctx context.Context, db *gorm.DB, memberID snowflake.ID, from, to time.Time) (int64, error)
	// SumPaidTotalsByMember returns per-member paid totals inside [from, to)
	// for bulk recomputation.
	SumPaidTotalsByMember(ctx context.Context, db *gorm.DB, from, to time.Time) (map[snowflake.ID]int64, error)
}
