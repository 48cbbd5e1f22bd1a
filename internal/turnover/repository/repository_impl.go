package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() turnoverdomain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *turnoverdomain.TurnoverRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO turnover_records (
			id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
			bonus_percent, bonus_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, period_start) DO UPDATE SET
			personal_turnover = excluded.personal_turnover,
			team_turnover = excluded.team_turnover,
			total_turnover = excluded.total_turnover,
			bonus_percent = excluded.bonus_percent,
			bonus_amount = excluded.bonus_amount,
			updated_at = excluded.updated_at`,
		record.ID,
		record.MemberID,
		record.PeriodStart,
		record.PersonalTurnover,
		record.TeamTurnover,
		record.TotalTurnover,
		record.BonusPercent,
		record.BonusAmount,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) InsertIgnore(ctx context.Context, db *gorm.DB, record *turnoverdomain.TurnoverRecord) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO turnover_records (
			id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
			bonus_percent, bonus_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, period_start) DO NOTHING`,
		record.ID,
		record.MemberID,
		record.PeriodStart,
		record.PersonalTurnover,
		record.TeamTurnover,
		record.TotalTurnover,
		record.BonusPercent,
		record.BonusAmount,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverRecord, error) {
	var record turnoverdomain.TurnoverRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
		 bonus_percent, bonus_amount, created_at, updated_at
		 FROM turnover_records WHERE member_id = ? AND period_start = ?`,
		memberID,
		periodStart,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) ListByPeriod(ctx context.Context, db *gorm.DB, periodStart time.Time) ([]turnoverdomain.TurnoverRecord, error) {
	var records []turnoverdomain.TurnoverRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
		 bonus_percent, bonus_amount, created_at, updated_at
		 FROM turnover_records WHERE period_start = ? ORDER BY member_id ASC`,
		periodStart,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) UpdatePersonal(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time, personal, total, bonusPercent, bonusAmount int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE turnover_records SET
			personal_turnover = ?, total_turnover = ?, bonus_percent = ?, bonus_amount = ?, updated_at = ?
		 WHERE member_id = ? AND period_start = ?`,
		personal,
		total,
		bonusPercent,
		bonusAmount,
		time.Now().UTC(),
		memberID,
		periodStart,
	).Error
}

func (r *repo) UpdateTeam(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time, team, total, bonusPercent, bonusAmount int64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE turnover_records SET
			team_turnover = ?, total_turnover = ?, bonus_percent = ?, bonus_amount = ?, updated_at = ?
		 WHERE member_id = ? AND period_start = ?`,
		team,
		total,
		bonusPercent,
		bonusAmount,
		time.Now().UTC(),
		memberID,
		periodStart,
	).Error
}

func (r *repo) HistoryExists(ctx context.Context, db *gorm.DB, periodStart time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM turnover_history WHERE period_start = ?`,
		periodStart,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, record *turnoverdomain.TurnoverHistoryRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO turnover_history (
			id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
			bonus_percent, bonus_amount, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.MemberID,
		record.PeriodStart,
		record.PersonalTurnover,
		record.TeamTurnover,
		record.TotalTurnover,
		record.BonusPercent,
		record.BonusAmount,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	).Error
}

func (r *repo) FindHistory(ctx context.Context, db *gorm.DB, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverHistoryRecord, error) {
	var record turnoverdomain.TurnoverHistoryRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
		 bonus_percent, bonus_amount, status, created_at, updated_at
		 FROM turnover_history WHERE member_id = ? AND period_start = ?`,
		memberID,
		periodStart,
	).Scan(&record).Error
	if err != nil {
		return nil, err
	}
	if record.ID == 0 {
		return nil, nil
	}
	return &record, nil
}

func (r *repo) ListHistory(ctx context.Context, db *gorm.DB, periodStart time.Time) ([]turnoverdomain.TurnoverHistoryRecord, error) {
	var records []turnoverdomain.TurnoverHistoryRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, member_id, period_start, personal_turnover, team_turnover, total_turnover,
		 bonus_percent, bonus_amount, status, created_at, updated_at
		 FROM turnover_history WHERE period_start = ? ORDER BY member_id ASC`,
		periodStart,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) MarkHistoryPaid(ctx context.Context, db *gorm.DB, periodStart time.Time, memberID *snowflake.ID) (int64, error) {
	query := `UPDATE turnover_history SET status = ?, updated_at = ? WHERE period_start = ? AND status = ?`
	args := []any{turnoverdomain.HistoryStatusPaid, time.Now().UTC(), periodStart, turnoverdomain.HistoryStatusFinalized}
	if memberID != nil {
		query += ` AND member_id = ?`
		args = append(args, *memberID)
	}
	result := db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repo) InsertMonthlyBonus(ctx context.Context, db *gorm.DB, bonus *turnoverdomain.MonthlyBonus) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO monthly_bonuses (id, beneficiary_id, contributor_id, period_start, bonus_amount, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		bonus.ID,
		bonus.BeneficiaryID,
		bonus.ContributorID,
		bonus.PeriodStart,
		bonus.BonusAmount,
		bonus.CreatedAt,
	).Error
}

func (r *repo) ListMonthlyBonuses(ctx context.Context, db *gorm.DB, periodStart time.Time, beneficiaryID *snowflake.ID) ([]turnoverdomain.MonthlyBonus, error) {
	query := `SELECT id, beneficiary_id, contributor_id, period_start, bonus_amount, created_at
		 FROM monthly_bonuses WHERE period_start = ?`
	args := []any{periodStart}
	if beneficiaryID != nil {
		query += ` AND beneficiary_id = ?`
		args = append(args, *beneficiaryID)
	}
	query += ` ORDER BY id ASC`

	var bonuses []turnoverdomain.MonthlyBonus
	err := db.WithContext(ctx).Raw(query, args...).Scan(&bonuses).Error
	if err != nil {
		return nil, err
	}
	return bonuses, nil
}
