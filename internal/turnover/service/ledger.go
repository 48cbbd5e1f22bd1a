package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lumina/internal/lock"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	"github.com/smallbiznis/lumina/internal/period"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const finalizeLockTTL = 2 * time.Minute

type LedgerParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       turnoverdomain.Repository
	MemberRepo memberdomain.Repository
	Locker     *lock.Locker        `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Ledger struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       turnoverdomain.Repository
	memberRepo memberdomain.Repository
	locker     *lock.Locker
	obsMetrics *obsmetrics.Metrics
}

func NewLedger(p LedgerParams) turnoverdomain.Ledger {
	return &Ledger{
		db:         p.DB,
		log:        p.Log.Named("turnover.ledger"),
		genID:      p.GenID,
		repo:       p.Repo,
		memberRepo: p.MemberRepo,
		locker:     p.Locker,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Ledger) InitializePeriod(ctx context.Context, periodStart time.Time) (int, error) {
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

	created := 0
	now := time.Now().UTC()
	for _, id := range ids {
		inserted, err := s.repo.InsertIgnore(ctx, s.db, &turnoverdomain.TurnoverRecord{
			ID:          s.genID.Generate(),
			MemberID:    id,
			PeriodStart: periodStart,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return created, err
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		s.log.Info("period initialized",
			zap.Time("period", periodStart),
			zap.Int("rows_created", created),
		)
	}
	return created, nil
}

// Finalize is the one-way transition from Open to Finalized. The existence
// check and every write share a transaction, so two concurrent calls resolve
// to exactly one success and one ErrAlreadyFinalized.
func (s *Ledger) Finalize(ctx context.Context, periodStart time.Time) (int, error) {
	periodStart = period.Of(periodStart)

	token, acquired, err := s.locker.TryLock(ctx, finalizeLockKey(periodStart), finalizeLockTTL)
	if err != nil {
		return 0, err
	}
	if !acquired {
		return 0, turnoverdomain.ErrAlreadyFinalized
	}
	defer func() { _ = s.locker.Release(ctx, finalizeLockKey(periodStart), token) }()

	snapshotted := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.repo.HistoryExists(ctx, tx, periodStart)
		if err != nil {
			return err
		}
		if exists {
			return turnoverdomain.ErrAlreadyFinalized
		}

		records, err := s.repo.ListByPeriod(ctx, tx, periodStart)
		if err != nil {
			return err
		}

		edges, err := s.memberRepo.ListEdges(ctx, tx)
		if err != nil {
			return err
		}
		parents := make(map[snowflake.ID]*snowflake.ID, len(edges))
		for _, edge := range edges {
			parents[edge.ID] = edge.ParentID
		}
		percents := make(map[snowflake.ID]int64, len(records))
		for _, record := range records {
			percents[record.MemberID] = record.BonusPercent
		}

		now := time.Now().UTC()
		for _, record := range records {
			if err := s.repo.InsertHistory(ctx, tx, &turnoverdomain.TurnoverHistoryRecord{
				ID:               s.genID.Generate(),
				MemberID:         record.MemberID,
				PeriodStart:      periodStart,
				PersonalTurnover: record.PersonalTurnover,
				TeamTurnover:     record.TeamTurnover,
				TotalTurnover:    record.TotalTurnover,
				BonusPercent:     record.BonusPercent,
				BonusAmount:      record.BonusAmount,
				Status:           turnoverdomain.HistoryStatusFinalized,
				CreatedAt:        now,
				UpdatedAt:        now,
			}); err != nil {
				return err
			}
			snapshotted++

			if record.BonusAmount > 0 {
				if err := s.repo.InsertMonthlyBonus(ctx, tx, &turnoverdomain.MonthlyBonus{
					ID:            s.genID.Generate(),
					BeneficiaryID: record.MemberID,
					ContributorID: record.MemberID,
					PeriodStart:   periodStart,
					BonusAmount:   record.BonusAmount,
					CreatedAt:     now,
				}); err != nil {
					return err
				}
			}

			// Override bonus: the sponsor earns the percent differential on
			// this member's personal turnover, frozen with the snapshot.
			parent := parents[record.MemberID]
			if parent == nil {
				continue
			}
			diff := percents[*parent] - record.BonusPercent
			if diff <= 0 || record.PersonalTurnover == 0 {
				continue
			}
			if err := s.repo.InsertMonthlyBonus(ctx, tx, &turnoverdomain.MonthlyBonus{
				ID:            s.genID.Generate(),
				BeneficiaryID: *parent,
				ContributorID: record.MemberID,
				PeriodStart:   periodStart,
				BonusAmount:   turnoverdomain.Share(record.PersonalTurnover, diff),
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.obsMetrics.RecordFinalization()
	s.log.Info("period finalized",
		zap.Time("period", periodStart),
		zap.Int("rows_snapshotted", snapshotted),
	)
	return snapshotted, nil
}

func (s *Ledger) MarkPaid(ctx context.Context, periodStart time.Time, memberID *snowflake.ID) (int, error) {
	periodStart = period.Of(periodStart)

	updated, err := s.repo.MarkHistoryPaid(ctx, s.db, periodStart, memberID)
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, turnoverdomain.ErrNotFinalized
	}
	return int(updated), nil
}

func (s *Ledger) IsFinalized(ctx context.Context, periodStart time.Time) (bool, error) {
	return s.repo.HistoryExists(ctx, s.db, period.Of(periodStart))
}

func (s *Ledger) Current(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverRecord, error) {
	return s.repo.Find(ctx, s.db, memberID, period.Of(periodStart))
}

func (s *Ledger) ListCurrent(ctx context.Context, periodStart time.Time) ([]turnoverdomain.TurnoverRecord, error) {
	return s.repo.ListByPeriod(ctx, s.db, period.Of(periodStart))
}

func (s *Ledger) History(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverHistoryRecord, error) {
	return s.repo.FindHistory(ctx, s.db, memberID, period.Of(periodStart))
}

func (s *Ledger) ListHistory(ctx context.Context, periodStart time.Time) ([]turnoverdomain.TurnoverHistoryRecord, error) {
	return s.repo.ListHistory(ctx, s.db, period.Of(periodStart))
}

func (s *Ledger) ListMonthlyBonuses(ctx context.Context, periodStart time.Time, beneficiaryID *snowflake.ID) ([]turnoverdomain.MonthlyBonus, error) {
	return s.repo.ListMonthlyBonuses(ctx, s.db, period.Of(periodStart), beneficiaryID)
}

func finalizeLockKey(periodStart time.Time) string {
	return "lumina:finalize:" + periodStart.Format("2006-01")
}
