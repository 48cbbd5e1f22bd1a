package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
	"github.com/smallbiznis/lumina/internal/period"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AggregatorParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       turnoverdomain.Repository
	OrderRepo  orderdomain.Repository
	MemberRepo memberdomain.Repository
	Hierarchy  hierarchydomain.Service
	Levels     bonusleveldomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Aggregator struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       turnoverdomain.Repository
	orderRepo  orderdomain.Repository
	memberRepo memberdomain.Repository
	hierarchy  hierarchydomain.Service
	levels     bonusleveldomain.Service
	obsMetrics *obsmetrics.Metrics
}

func NewAggregator(p AggregatorParams) turnoverdomain.Aggregator {
	return &Aggregator{
		db:         p.DB,
		log:        p.Log.Named("turnover.aggregator"),
		genID:      p.GenID,
		repo:       p.Repo,
		orderRepo:  p.OrderRepo,
		memberRepo: p.MemberRepo,
		hierarchy:  p.Hierarchy,
		levels:     p.Levels,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Aggregator) ComputePersonal(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (int64, error) {
	from, to := period.Bounds(periodStart)
	return s.orderRepo.SumPaidTotals(ctx, s.db, memberID, from, to)
}

// ComputeTeam sums personal turnover over the entire downline. The sum is
// commutative, so the traversal order reported by the hierarchy walk never
// changes the result.
func (s *Aggregator) ComputeTeam(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (int64, error) {
	descendants, err := s.hierarchy.WalkDescendants(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if len(descendants) == 0 {
		return 0, nil
	}

	from, to := period.Bounds(periodStart)
	totals, err := s.orderRepo.SumPaidTotalsByMember(ctx, s.db, from, to)
	if err != nil {
		return 0, err
	}

	var team int64
	for _, id := range descendants {
		team += totals[id]
	}
	return team, nil
}

func (s *Aggregator) RecalculateMember(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverRecord, error) {
	periodStart = period.Of(periodStart)

	finalized, err := s.repo.HistoryExists(ctx, s.db, periodStart)
	if err != nil {
		return nil, err
	}
	if finalized {
		return nil, turnoverdomain.ErrPeriodFinalized
	}

	member, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, memberdomain.ErrNotFound
	}

	personal, err := s.ComputePersonal(ctx, memberID, periodStart)
	if err != nil {
		return nil, err
	}
	team, err := s.ComputeTeam(ctx, memberID, periodStart)
	if err != nil {
		return nil, err
	}

	record, err := s.buildRecord(ctx, memberID, periodStart, personal, team)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, s.db, record); err != nil {
		return nil, err
	}

	s.obsMetrics.RecordAggregation("member")
	return record, nil
}

func (s *Aggregator) RecalculateAll(ctx context.Context, periodStart time.Time) (int, error) {
	periodStart = period.Of(periodStart)

	finalized, err := s.repo.HistoryExists(ctx, s.db, periodStart)
	if err != nil {
		return 0, err
	}
	if finalized {
		return 0, turnoverdomain.ErrPeriodFinalized
	}

	ids, err := s.memberRepo.ListActiveIDs(ctx, s.db)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, id := range ids {
		personal, err := s.ComputePersonal(ctx, id, periodStart)
		if err != nil {
			return written, err
		}
		team, err := s.ComputeTeam(ctx, id, periodStart)
		if err != nil {
			return written, err
		}
		record, err := s.buildRecord(ctx, id, periodStart, personal, team)
		if err != nil {
			return written, err
		}
		if err := s.repo.Upsert(ctx, s.db, record); err != nil {
			return written, err
		}
		written++
	}

	s.obsMetrics.RecordAggregation("bulk")
	s.log.Info("turnover recalculated",
		zap.Time("period", periodStart),
		zap.Int("records", written),
	)
	return written, nil
}

func (s *Aggregator) buildRecord(ctx context.Context, memberID snowflake.ID, periodStart time.Time, personal, team int64) (*turnoverdomain.TurnoverRecord, error) {
	total := personal + team

	var percent int64
	level, err := s.levels.Resolve(ctx, total)
	if err != nil {
		return nil, err
	}
	if level != nil {
		percent = level.Percent
	}

	now := time.Now().UTC()
	return &turnoverdomain.TurnoverRecord{
		ID:               s.genID.Generate(),
		MemberID:         memberID,
		PeriodStart:      periodStart,
		PersonalTurnover: personal,
		TeamTurnover:     team,
		TotalTurnover:    total,
		BonusPercent:     percent,
		BonusAmount:      turnoverdomain.Share(personal, percent),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
