package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TurnoverRecord is the mutable current-period aggregate for one member.
// TotalTurnover must always equal PersonalTurnover + TeamTurnover; a violation
// is an audit finding, never silently repaired.
type TurnoverRecord struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	MemberID         snowflake.ID `json:"member_id" gorm:"not null;uniqueIndex:ux_turnover_member_period,priority:1"`
	PeriodStart      time.Time    `json:"period_start" gorm:"not null;uniqueIndex:ux_turnover_member_period,priority:2"`
	PersonalTurnover int64        `json:"personal_turnover" gorm:"not null;default:0"`
	TeamTurnover     int64        `json:"team_turnover" gorm:"not null;default:0"`
	TotalTurnover    int64        `json:"total_turnover" gorm:"not null;default:0"`
	BonusPercent     int64        `json:"bonus_percent" gorm:"not null;default:0"`
	BonusAmount      int64        `json:"bonus_amount" gorm:"not null;default:0"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TurnoverRecord) TableName() string { return "turnover_records" }

// TurnoverHistoryRecord is the immutable finalized snapshot. The only write
// it ever sees after creation is the finalized→paid status flip.
type TurnoverHistoryRecord struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	MemberID         snowflake.ID `json:"member_id" gorm:"not null;uniqueIndex:ux_turnover_history_member_period,priority:1"`
	PeriodStart      time.Time    `json:"period_start" gorm:"not null;uniqueIndex:ux_turnover_history_member_period,priority:2"`
	PersonalTurnover int64        `json:"personal_turnover" gorm:"not null;default:0"`
	TeamTurnover     int64        `json:"team_turnover" gorm:"not null;default:0"`
	TotalTurnover    int64        `json:"total_turnover" gorm:"not null;default:0"`
	BonusPercent     int64        `json:"bonus_percent" gorm:"not null;default:0"`
	BonusAmount      int64        `json:"bonus_amount" gorm:"not null;default:0"`
	Status           string       `json:"status" gorm:"type:text;not null;default:'finalized'"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TurnoverHistoryRecord) TableName() string { return "turnover_history" }

const (
	HistoryStatusFinalized = "finalized"
	HistoryStatusPaid      = "paid"
)

// MonthlyBonus is a realized commission event frozen at finalization.
// BeneficiaryID == ContributorID denotes a personal bonus; otherwise an
// override bonus attributed up the sponsor chain.
type MonthlyBonus struct {
	ID            snowflake.ID `json:"id" gorm:"primaryKey"`
	BeneficiaryID snowflake.ID `json:"beneficiary_id" gorm:"not null;index"`
	ContributorID snowflake.ID `json:"contributor_id" gorm:"not null;index"`
	PeriodStart   time.Time    `json:"period_start" gorm:"not null;index"`
	BonusAmount   int64        `json:"bonus_amount" gorm:"not null"`
	CreatedAt     time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MonthlyBonus) TableName() string { return "monthly_bonuses" }
