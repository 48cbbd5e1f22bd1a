package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrNotFound         = errors.New("turnover_record_not_found")
	ErrAlreadyFinalized = errors.New("period_already_finalized")
	ErrNotFinalized     = errors.New("period_not_finalized")
	ErrPeriodFinalized  = errors.New("period_finalized")
)

// Aggregator recomputes turnover aggregates from source orders and the
// hierarchy. Every method is idempotent given the same source data, so the
// calling layer may retry freely.
type Aggregator interface {
	// ComputePersonal returns the member's own paid-order total for the
	// period without writing anything.
	ComputePersonal(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (int64, error)
	// ComputeTeam returns the sum of personal turnover across the member's
	// entire downline without writing anything.
	ComputeTeam(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (int64, error)
	// RecalculateMember recomputes both dimensions, resolves the bonus tier
	// and upserts the (member, period) record. Rejected once the period is
	// finalized.
	RecalculateMember(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*TurnoverRecord, error)
	// RecalculateAll recomputes every active member for the period and
	// returns how many records were written.
	RecalculateAll(ctx context.Context, periodStart time.Time) (int, error)
}

// Ledger owns the Open → Finalized → Paid period state machine.
type Ledger interface {
	// InitializePeriod creates zero-valued rows for active members lacking
	// one. Idempotent; returns the number of rows created.
	InitializePeriod(ctx context.Context, periodStart time.Time) (int, error)
	// Finalize snapshots every current row into history and materializes the
	// monthly bonus records, all in one transaction. One-shot per period.
	Finalize(ctx context.Context, periodStart time.Time) (int, error)
	// MarkPaid flips finalized history rows to paid, optionally for a single
	// member.
	MarkPaid(ctx context.Context, periodStart time.Time, memberID *snowflake.ID) (int, error)
	IsFinalized(ctx context.Context, periodStart time.Time) (bool, error)

	Current(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*TurnoverRecord, error)
	ListCurrent(ctx context.Context, periodStart time.Time) ([]TurnoverRecord, error)
	History(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*TurnoverHistoryRecord, error)
	ListHistory(ctx context.Context, periodStart time.Time) ([]TurnoverHistoryRecord, error)
	ListMonthlyBonuses(ctx context.Context, periodStart time.Time, beneficiaryID *snowflake.ID) ([]MonthlyBonus, error)
}
