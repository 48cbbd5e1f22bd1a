package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CheckType string

const (
	CheckPersonal  CheckType = "personal"
	CheckTeam      CheckType = "team"
	CheckHierarchy CheckType = "hierarchy"
)

var ErrNoTurnoverRecord = errors.New("no_turnover_record")

// Finding compares a stored aggregate against its recomputation. IsCorrect is
// exact integer equality; there is no epsilon on monetary values.
type Finding struct {
	MemberID   snowflake.ID `json:"member_id"`
	CheckType  CheckType    `json:"check_type"`
	Stored     int64        `json:"stored_value"`
	Calculated int64        `json:"calculated_value"`
	Difference int64        `json:"difference"`
	IsCorrect  bool         `json:"is_correct"`
	Note       string       `json:"note,omitempty"`
}

// Report summarizes a FixAll pass.
type Report struct {
	PeriodStart      time.Time      `json:"period_start"`
	Findings         []Finding      `json:"findings"`
	FixesApplied     int            `json:"fixes_applied"`
	HierarchyMutated []snowflake.ID `json:"hierarchy_mutated,omitempty"`
}

// Service recomputes expected values from source events and compares them to
// stored aggregates. Findings are computed on demand and never persisted.
// Repairs are narrow and explicit; nothing is fixed without being asked.
type Service interface {
	CheckMember(ctx context.Context, memberID snowflake.ID, periodStart time.Time) ([]Finding, error)
	CheckSubtree(ctx context.Context, rootID snowflake.ID, periodStart time.Time) ([]Finding, error)
	CheckAll(ctx context.Context, periodStart time.Time) ([]Finding, error)

	FixPersonalTurnover(ctx context.Context, memberID snowflake.ID, periodStart time.Time) error
	FixTeamTurnover(ctx context.Context, memberID snowflake.ID, periodStart time.Time) error
	FixHierarchy(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error)
	// FixAll audits the whole period and repairs every incorrect finding,
	// hierarchy first. Running it again once clean changes nothing.
	FixAll(ctx context.Context, periodStart time.Time) (*Report, error)
}
