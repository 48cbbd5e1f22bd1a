package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"gorm.io/gorm"
)

// defaultBonusLevels is the commission table a fresh install starts with.
// Amounts are minor currency units; operators adjust it through the API.
var defaultBonusLevels = []bonusleveldomain.CreateRequest{
	{MinAmount: 0, MaxAmount: ptr(99_999), Percent: 0},
	{MinAmount: 100_000, MaxAmount: ptr(499_999), Percent: 5},
	{MinAmount: 500_000, MaxAmount: ptr(1_499_999), Percent: 10},
	{MinAmount: 1_500_000, MaxAmount: ptr(4_999_999), Percent: 15},
	{MinAmount: 5_000_000, MaxAmount: nil, Percent: 25},
}

// EnsureDefaultBonusLevels seeds the tier table when none exists yet.
// Idempotent; an already-populated table is left untouched.
func EnsureDefaultBonusLevels(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Raw(`SELECT COUNT(1) FROM bonus_levels`).Scan(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, req := range defaultBonusLevels {
			if err := tx.WithContext(ctx).Exec(
				`INSERT INTO bonus_levels (id, min_amount, max_amount, percent, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				node.Generate(),
				req.MinAmount,
				req.MaxAmount,
				req.Percent,
				now,
				now,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func ptr(v int64) *int64 { return &v }
