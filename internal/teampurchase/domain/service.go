package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lumina/pkg/db/pagination"
)

var (
	ErrNotFound          = errors.New("team_purchase_not_found")
	ErrNoContributions   = errors.New("team_purchase_has_no_contributions")
	ErrAlreadyCalculated = errors.New("team_purchase_already_calculated")
	ErrNotCalculated     = errors.New("team_purchase_not_calculated")
	ErrNotApproved       = errors.New("team_purchase_not_approved")
	ErrAlreadyApproved   = errors.New("team_purchase_already_approved")
	ErrAlreadyPaidOut    = errors.New("team_purchase_already_paid_out")
	ErrCalculationBusy   = errors.New("team_purchase_calculation_in_progress")
	ErrInvalidAmount     = errors.New("invalid_contribution_amount")
)

// Anomaly flags a negative differential: an ancestor on a lower tier than the
// contributor. It is reported for audit, never clamped away.
type Anomaly struct {
	BeneficiaryID   snowflake.ID `json:"beneficiary_id"`
	ContributorID   snowflake.ID `json:"contributor_id"`
	HierarchyLevel  int          `json:"hierarchy_level"`
	ReceivedPercent int64        `json:"received_percent"`
}

type CalculationSummary struct {
	TeamPurchaseID snowflake.ID `json:"team_purchase_id"`
	RowsWritten    int          `json:"rows_written"`
	TotalBonus     int64        `json:"total_bonus"`
	Anomalies      []Anomaly    `json:"anomalies,omitempty"`
}

type Service interface {
	Create(ctx context.Context, title string, metadata map[string]any) (*TeamPurchase, error)
	Get(ctx context.Context, id snowflake.ID) (*TeamPurchase, error)
	AddContribution(ctx context.Context, purchaseID, memberID snowflake.ID, amount int64) (*TeamPurchaseContribution, error)

	// CalculateBonuses walks each contributor's ancestor chain and writes the
	// whole bonus batch in one transaction. One-shot per purchase.
	CalculateBonuses(ctx context.Context, purchaseID snowflake.ID) (*CalculationSummary, error)
	// Approve records the approver and moves every bonus row to approved.
	Approve(ctx context.Context, purchaseID, approverID snowflake.ID) error
	// Payout marks every bonus row paid. Terminal.
	Payout(ctx context.Context, purchaseID snowflake.ID) error

	BonusesByPurchase(ctx context.Context, purchaseID snowflake.ID) ([]TeamPurchaseBonus, error)
	BonusesByBeneficiary(ctx context.Context, memberID snowflake.ID, page pagination.Pagination) ([]TeamPurchaseBonus, *pagination.PageInfo, error)
	BonusesByContributor(ctx context.Context, memberID snowflake.ID, page pagination.Pagination) ([]TeamPurchaseBonus, *pagination.PageInfo, error)
}
