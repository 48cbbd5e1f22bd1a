package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Order is the paid-order event feed consumed for turnover. Checkout and
// fulfilment live in the platform; only orders in the paid state count here.
type Order struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	MemberID    snowflake.ID `json:"member_id" gorm:"not null;index"`
	TotalAmount int64        `json:"total_amount" gorm:"not null"`
	Status      string       `json:"status" gorm:"type:text;not null;default:'pending'"`
	PaidAt      *time.Time   `json:"paid_at,omitempty" gorm:"index"`
	CreatedAt   time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

const (
	StatusPending  = "pending"
	StatusPaid     = "paid"
	StatusCanceled = "canceled"
)
