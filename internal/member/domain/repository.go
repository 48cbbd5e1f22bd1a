package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("member_not_found")

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, member *Member) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Member, error)
	ListEdges(ctx context.Context, db *gorm.DB) ([]Edge, error)
	ListChildren(ctx context.Context, db *gorm.DB, parentID snowflake.ID) ([]snowflake.ID, error)
	ListActiveIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	UpdateParent(ctx context.Context, db *gorm.DB, id snowflake.ID, parentID *snowflake.ID) error
}
