package domain

import (
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
)

// BonusLevel maps a total-turnover range to a commission percent. Ranges are
// inclusive on both ends; a nil MaxAmount makes the top level open-ended.
type BonusLevel struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	MinAmount int64        `json:"min_amount" gorm:"not null;uniqueIndex"`
	MaxAmount *int64       `json:"max_amount,omitempty"`
	Percent   int64        `json:"percent" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BonusLevel) TableName() string { return "bonus_levels" }

// Matches reports whether total falls inside the level's range.
func (l BonusLevel) Matches(total int64) bool {
	if total < l.MinAmount {
		return false
	}
	return l.MaxAmount == nil || total <= *l.MaxAmount
}

// ValidateTable checks that levels form an ordered, non-overlapping table.
// Only the level with the highest minimum may be open-ended.
func ValidateTable(levels []BonusLevel) error {
	sorted := append([]BonusLevel(nil), levels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAmount < sorted[j].MinAmount })

	for i, level := range sorted {
		if level.MinAmount < 0 || level.Percent < 0 {
			return ErrInvalidRange
		}
		if level.MaxAmount != nil && *level.MaxAmount < level.MinAmount {
			return ErrInvalidRange
		}
		if i == len(sorted)-1 {
			continue
		}
		if level.MaxAmount == nil {
			return ErrOpenEndedNotLast
		}
		if sorted[i+1].MinAmount <= *level.MaxAmount {
			return ErrOverlappingLevels
		}
	}
	return nil
}
