package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() bonusleveldomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, level *bonusleveldomain.BonusLevel) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bonus_levels (id, min_amount, max_amount, percent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		level.ID,
		level.MinAmount,
		level.MaxAmount,
		level.Percent,
		level.CreatedAt,
		level.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, level *bonusleveldomain.BonusLevel) error {
	return db.WithContext(ctx).Exec(
		`UPDATE bonus_levels SET min_amount = ?, max_amount = ?, percent = ?, updated_at = ?
		 WHERE id = ?`,
		level.MinAmount,
		level.MaxAmount,
		level.Percent,
		time.Now().UTC(),
		level.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM bonus_levels WHERE id = ?`,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*bonusleveldomain.BonusLevel, error) {
	var level bonusleveldomain.BonusLevel
	err := db.WithContext(ctx).Raw(
		`SELECT id, min_amount, max_amount, percent, created_at, updated_at
		 FROM bonus_levels WHERE id = ?`,
		id,
	).Scan(&level).Error
	if err != nil {
		return nil, err
	}
	if level.ID == 0 {
		return nil, nil
	}
	return &level, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]bonusleveldomain.BonusLevel, error) {
	var levels []bonusleveldomain.BonusLevel
	err := db.WithContext(ctx).Raw(
		`SELECT id, min_amount, max_amount, percent, created_at, updated_at
		 FROM bonus_levels ORDER BY min_amount ASC`,
	).Scan(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}
