package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *orderdomain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, member_id, total_amount, status, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.MemberID,
		order.TotalAmount,
		order.Status,
		order.PaidAt,
		order.CreatedAt,
	).Error
}

func (r *repo) SumPaidTotals(ctx context.Context, db *gorm.DB, memberID snowflake.ID, from, to time.Time) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders
		 WHERE member_id = ? AND status = ? AND paid_at >= ? AND paid_at < ?`,
		memberID,
		orderdomain.StatusPaid,
		from,
		to,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) SumPaidTotalsByMember(ctx context.Context, db *gorm.DB, from, to time.Time) (map[snowflake.ID]int64, error) {
	type row struct {
		MemberID snowflake.ID
		Total    int64
	}
	var rows []row
	err := db.WithContext(ctx).Raw(
		`SELECT member_id, COALESCE(SUM(total_amount), 0) AS total FROM orders
		 WHERE status = ? AND paid_at >= ? AND paid_at < ?
		 GROUP BY member_id`,
		orderdomain.StatusPaid,
		from,
		to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[snowflake.ID]int64, len(rows))
	for _, r := range rows {
		totals[r.MemberID] = r.Total
	}
	return totals, nil
}
