package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrCycleDetected  = errors.New("hierarchy_cycle_detected")
	ErrMemberNotFound = errors.New("member_not_found")
)

// Service is the read-only directory over the sponsor tree, plus the one
// narrow mutation this engine owns: breaking cycles and orphan parent edges.
type Service interface {
	// ResolveParent returns the direct sponsor, if any.
	ResolveParent(ctx context.Context, memberID snowflake.ID) (snowflake.ID, bool, error)
	ResolveChildren(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error)
	// WalkAncestors returns sponsors nearest-first, at most maxDepth of them
	// (maxDepth <= 0 uses the configured default). On a cycle it returns the
	// partial chain together with ErrCycleDetected.
	WalkAncestors(ctx context.Context, memberID snowflake.ID, maxDepth int) ([]snowflake.ID, error)
	// WalkDescendants returns the full downline, any depth, cycle-safe.
	WalkDescendants(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error)
	// Inspect reports cycles and orphan parent references reachable from the
	// member without mutating anything.
	Inspect(ctx context.Context, memberID snowflake.ID) ([]Problem, error)
	// Repair breaks cycles and clears orphan parent references reachable from
	// the member, returning every mutated member ID.
	Repair(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error)
}

type ProblemKind string

const (
	ProblemCycle        ProblemKind = "cycle"
	ProblemOrphanParent ProblemKind = "orphan_parent"
)

// Problem names a broken edge: the member whose parent pointer closes a cycle
// or references a missing row.
type Problem struct {
	MemberID snowflake.ID `json:"member_id"`
	Kind     ProblemKind  `json:"kind"`
}
