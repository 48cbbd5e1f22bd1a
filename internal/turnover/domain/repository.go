package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, record *TurnoverRecord) error
	// InsertIgnore inserts the record unless one exists for the same
	// (member, period); reports whether a row was created.
	InsertIgnore(ctx context.Context, db *gorm.DB, record *TurnoverRecord) (bool, error)
	Find(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time) (*TurnoverRecord, error)
	ListByPeriod(ctx context.Context, db *gorm.DB, periodStart time.Time) ([]TurnoverRecord, error)
	UpdatePersonal(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time, personal, total, bonusPercent, bonusAmount int64) error
	UpdateTeam(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time, team, total, bonusPercent, bonusAmount int64) error

	HistoryExists(ctx context.Context, db *gorm.DB, periodStart time.Time) (bool, error)
	InsertHistory(ctx context.Context, db *gorm.DB, record *TurnoverHistoryRecord) error
	FindHistory(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time) (*TurnoverHistoryRecord, error)
	ListHistory(ctx context.Context, db *gorm.DB, periodStart time.Time) ([]TurnoverHistoryRecord, error)
	MarkHistoryPaid(ctx context.Context, db *gorm.DB, periodStart time.Time, memberID *snowflake.ID) (int64, error)

	InsertMonthlyBonus(ctx context.Context, db *gorm.DB, bonus *MonthlyBonus) error
	ListMonthlyBonuses(ctx context.Context, db *gorm.DB, periodStart time.Time, beneficiaryID *snowflake.ID) ([]MonthlyBonus, error)
}
