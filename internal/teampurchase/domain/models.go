package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TeamPurchase is a pooled purchase whose contributions pay differential
// bonuses up the sponsor chain once completed.
type TeamPurchase struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	Title      string            `json:"title" gorm:"type:text;not null"`
	Status     string            `json:"status" gorm:"type:text;not null;default:'open'"`
	ApprovedBy *snowflake.ID     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time        `json:"approved_at,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TeamPurchase) TableName() string { return "team_purchases" }

const (
	StatusOpen       = "open"
	StatusCalculated = "calculated"
	StatusApproved   = "approved"
	StatusPaidOut    = "paid_out"
)

// TeamPurchaseContribution is one member's paid share of the pool.
type TeamPurchaseContribution struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	TeamPurchaseID     snowflake.ID `json:"team_purchase_id" gorm:"not null;index"`
	MemberID           snowflake.ID `json:"member_id" gorm:"not null;index"`
	ContributionAmount int64        `json:"contribution_amount" gorm:"not null"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TeamPurchaseContribution) TableName() string { return "team_purchase_contributions" }

// TeamPurchaseBonus is one payout line of the differential distribution.
// HierarchyLevel 0 is the contributor's own personal bonus; level 1 is the
// direct sponsor, increasing outward.
type TeamPurchaseBonus struct {
	ID                 snowflake.ID `json:"id" gorm:"primaryKey"`
	TeamPurchaseID     snowflake.ID `json:"team_purchase_id" gorm:"not null;index"`
	BeneficiaryID      snowflake.ID `json:"beneficiary_id" gorm:"not null;index"`
	ContributorID      snowflake.ID `json:"contributor_id" gorm:"not null;index"`
	HierarchyLevel     int          `json:"hierarchy_level" gorm:"not null"`
	ContributionAmount int64        `json:"contribution_amount" gorm:"not null"`
	BeneficiaryPercent int64        `json:"beneficiary_percent" gorm:"not null"`
	ContributorPercent int64        `json:"contributor_percent" gorm:"not null"`
	ReceivedPercent    int64        `json:"received_percent" gorm:"not null"`
	BonusAmount        int64        `json:"bonus_amount" gorm:"not null"`
	CalculationStatus  string       `json:"calculation_status" gorm:"type:text;not null;default:'done'"`
	PaymentStatus      string       `json:"payment_status" gorm:"type:text;not null;default:'pending'"`
	CreatedAt          time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TeamPurchaseBonus) TableName() string { return "team_purchase_bonuses" }

const (
	CalculationDone = "done"

	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentPaid     = "paid"
)
