package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, level *BonusLevel) error
	Update(ctx context.Context, db *gorm.DB, level *BonusLevel) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BonusLevel, error)
	// List returns levels ordered ascending by min_amount.
	List(ctx context.Context, db *gorm.DB) ([]BonusLevel, error)
}
