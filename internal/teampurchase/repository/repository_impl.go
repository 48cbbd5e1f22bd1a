package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	teampurchasedomain "github.com/smallbiznis/lumina/internal/teampurchase/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() teampurchasedomain.Repository {
	return &repo{}
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, purchase *teampurchasedomain.TeamPurchase) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO team_purchases (id, title, status, approved_by, approved_at, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		purchase.ID,
		purchase.Title,
		purchase.Status,
		purchase.ApprovedBy,
		purchase.ApprovedAt,
		purchase.Metadata,
		purchase.CreatedAt,
		purchase.UpdatedAt,
	).Error
}

func (r *repo) FindPurchase(ctx context.Context, db *gorm.DB, id snowflake.ID) (*teampurchasedomain.TeamPurchase, error) {
	var purchase teampurchasedomain.TeamPurchase
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, status, approved_by, approved_at, metadata, created_at, updated_at
		 FROM team_purchases WHERE id = ?`,
		id,
	).Scan(&purchase).Error
	if err != nil {
		return nil, err
	}
	if purchase.ID == 0 {
		return nil, nil
	}
	return &purchase, nil
}

func (r *repo) UpdatePurchaseStatus(ctx context.Context, db *gorm.DB, purchase *teampurchasedomain.TeamPurchase) error {
	return db.WithContext(ctx).Exec(
		`UPDATE team_purchases SET status = ?, approved_by = ?, approved_at = ?, updated_at = ?
		 WHERE id = ?`,
		purchase.Status,
		purchase.ApprovedBy,
		purchase.ApprovedAt,
		time.Now().UTC(),
		purchase.ID,
	).Error
}

func (r *repo) InsertContribution(ctx context.Context, db *gorm.DB, contribution *teampurchasedomain.TeamPurchaseContribution) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO team_purchase_contributions (id, team_purchase_id, member_id, contribution_amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		contribution.ID,
		contribution.TeamPurchaseID,
		contribution.MemberID,
		contribution.ContributionAmount,
		contribution.CreatedAt,
	).Error
}

func (r *repo) ListContributions(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) ([]teampurchasedomain.TeamPurchaseContribution, error) {
	var contributions []teampurchasedomain.TeamPurchaseContribution
	err := db.WithContext(ctx).Raw(
		`SELECT id, team_purchase_id, member_id, contribution_amount, created_at
		 FROM team_purchase_contributions WHERE team_purchase_id = ? ORDER BY id ASC`,
		purchaseID,
	).Scan(&contributions).Error
	if err != nil {
		return nil, err
	}
	return contributions, nil
}

func (r *repo) CountBonuses(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM team_purchase_bonuses WHERE team_purchase_id = ?`,
		purchaseID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) InsertBonus(ctx context.Context, db *gorm.DB, bonus *teampurchasedomain.TeamPurchaseBonus) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO team_purchase_bonuses (
			id, team_purchase_id, beneficiary_id, contributor_id, hierarchy_level,
			contribution_amount, beneficiary_percent, contributor_percent, received_percent,
			bonus_amount, calculation_status, payment_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bonus.ID,
		bonus.TeamPurchaseID,
		bonus.BeneficiaryID,
		bonus.ContributorID,
		bonus.HierarchyLevel,
		bonus.ContributionAmount,
		bonus.BeneficiaryPercent,
		bonus.ContributorPercent,
		bonus.ReceivedPercent,
		bonus.BonusAmount,
		bonus.CalculationStatus,
		bonus.PaymentStatus,
		bonus.CreatedAt,
		bonus.UpdatedAt,
	).Error
}

func (r *repo) UpdateBonusPaymentStatus(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID, from, to string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE team_purchase_bonuses SET payment_status = ?, updated_at = ?
		 WHERE team_purchase_id = ? AND payment_status = ?`,
		to,
		time.Now().UTC(),
		purchaseID,
		from,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) ListBonusesByPurchase(ctx context.Context, db *gorm.DB, purchaseID snowflake.ID) ([]teampurchasedomain.TeamPurchaseBonus, error) {
	var bonuses []teampurchasedomain.TeamPurchaseBonus
	err := db.WithContext(ctx).Raw(
		`SELECT id, team_purchase_id, beneficiary_id, contributor_id, hierarchy_level,
		 contribution_amount, beneficiary_percent, contributor_percent, received_percent,
		 bonus_amount, calculation_status, payment_status, created_at, updated_at
		 FROM team_purchase_bonuses WHERE team_purchase_id = ?
		 ORDER BY contributor_id ASC, hierarchy_level ASC`,
		purchaseID,
	).Scan(&bonuses).Error
	if err != nil {
		return nil, err
	}
	return bonuses, nil
}

func (r *repo) ListBonusesByMember(ctx context.Context, db *gorm.DB, column string, memberID snowflake.ID, afterID *snowflake.ID, limit int) ([]teampurchasedomain.TeamPurchaseBonus, error) {
	if column != "beneficiary_id" && column != "contributor_id" {
		return nil, fmt.Errorf("unsupported bonus member column %q", column)
	}

	query := `SELECT id, team_purchase_id, beneficiary_id, contributor_id, hierarchy_level,
		 contribution_amount, beneficiary_percent, contributor_percent, received_percent,
		 bonus_amount, calculation_status, payment_status, created_at, updated_at
		 FROM team_purchase_bonuses WHERE ` + column + ` = ?`
	args := []any{memberID}
	if afterID != nil {
		query += ` AND id > ?`
		args = append(args, *afterID)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	var bonuses []teampurchasedomain.TeamPurchaseBonus
	err := db.WithContext(ctx).Raw(query, args...).Scan(&bonuses).Error
	if err != nil {
		return nil, err
	}
	return bonuses, nil
}
