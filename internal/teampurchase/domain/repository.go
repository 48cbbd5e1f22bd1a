package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPurchase(ctx context.Context, db *gorm.DB, purchase *TeamPurchase) error
	FindPurchase(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TeamPurchase, error)
	UpdatePurchaseStatus(ctx context.Context, db *gorm.DB, purchase *TeamPurchase) error

	InsertContribution(ctx context.Context, db *gorm.DB, contribution *TeamPurchaseContribution) error
	ListContributions(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) ([]TeamPurchaseContribution, error)

	CountBonuses(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) (int64, error)
	InsertBonus(ctx context.Context, db *gorm.DB, bonus *TeamPurchaseBonus) error
	UpdateBonusPaymentStatus(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID, from, to string) (int64, error)
	ListBonusesByPurchase(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) ([]TeamPurchaseBonus, error)
	ListBonusesByMember(ctx context.Context, db *gorm.DB, column string, memberID snowflake.ID, afterID *snowflake.ID, limit int) ([]TeamPurchaseBonus, error)
}
