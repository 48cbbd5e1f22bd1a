package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Member is a dealer/distributor record. Accounts are created and managed by
// the platform; this engine reads them and touches only the parent edge, and
// only through explicit hierarchy repair.
type Member struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty" gorm:"index"`
	Role      string        `json:"role" gorm:"type:text;not null;default:'dealer'"`
	Status    string        `json:"status" gorm:"type:text;not null;default:'active'"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Member) TableName() string { return "members" }

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Edge is the minimal projection used for tree walks.
type Edge struct {
	ID       snowflake.ID
	ParentID *snowflake.ID
}
