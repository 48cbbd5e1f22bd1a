package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() memberdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, member *memberdomain.Member) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO members (id, parent_id, role, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.ParentID,
		member.Role,
		member.Status,
		member.CreatedAt,
		member.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*memberdomain.Member, error) {
	var member memberdomain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT id, parent_id, role, status, created_at, updated_at
		 FROM members WHERE id = ?`,
		id,
	).Scan(&member).Error
	if err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, nil
	}
	return &member, nil
}

func (r *repo) ListEdges(ctx context.Context, db *gorm.DB) ([]memberdomain.Edge, error) {
	var edges []memberdomain.Edge
	err := db.WithContext(ctx).Raw(
		`SELECT id, parent_id FROM members`,
	).Scan(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

func (r *repo) ListChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM members WHERE parent_id = ? ORDER BY id ASC`,
		parentID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListActiveIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM members WHERE status = ? ORDER BY id ASC`,
		memberdomain.StatusActive,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) UpdateParent(ctx context.Context, db *gorm.DB, id snowflake.ID, parentID *snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE members SET parent_id = ?, updated_at = ? WHERE id = ?`,
		parentID,
		time.Now().UTC(),
		id,
	).Error
}
