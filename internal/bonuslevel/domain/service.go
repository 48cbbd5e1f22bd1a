package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound          = errors.New("bonus_level_not_found")
	ErrInvalidRange      = errors.New("invalid_bonus_level_range")
	ErrOverlappingLevels = errors.New("overlapping_bonus_levels")
	ErrOpenEndedNotLast  = errors.New("open_ended_level_not_last")
)

type Service interface {
	List(ctx context.Context) ([]BonusLevel, error)
	Create(ctx context.Context, req CreateRequest) (*BonusLevel, error)
	Update(ctx context.Context, id snowflake.ID, req CreateRequest) (*BonusLevel, error)
	Delete(ctx context.Context, id snowflake.ID) error
	// Resolve returns the single level matching totalTurnover, or nil when the
	// lowest threshold is not met. Nil is a valid zero-commission outcome.
	Resolve(ctx context.Context, totalTurnover int64) (*BonusLevel, error)
}

type CreateRequest struct {
	MinAmount int64  `json:"min_amount"`
	MaxAmount *int64 `json:"max_amount"`
	Percent   int64  `json:"percent"`
}
