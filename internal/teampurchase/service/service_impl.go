package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"github.com/smallbiznis/lumina/internal/config"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	"github.com/smallbiznis/lumina/internal/lock"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	"github.com/smallbiznis/lumina/internal/period"
	teampurchasedomain "github.com/smallbiznis/lumina/internal/teampurchase/domain"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"github.com/smallbiznis/lumina/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const calculationLockTTL = time.Minute

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	GenID      *snowflake.Node
	Repo       teampurchasedomain.Repository
	MemberRepo memberdomain.Repository
	Hierarchy  hierarchydomain.Service
	Levels     bonusleveldomain.Service
	Ledger     turnoverdomain.Ledger
	Locker     *lock.Locker        `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       teampurchasedomain.Repository
	memberRepo memberdomain.Repository
	hierarchy  hierarchydomain.Service
	levels     bonusleveldomain.Service
	ledger     turnoverdomain.Ledger
	locker     *lock.Locker
	obsMetrics *obsmetrics.Metrics
	maxLevels  int
}

func New(p Params) teampurchasedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("teampurchase.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		memberRepo: p.MemberRepo,
		hierarchy:  p.Hierarchy,
		levels:     p.Levels,
		ledger:     p.Ledger,
		locker:     p.Locker,
		obsMetrics: p.ObsMetrics,
		maxLevels:  p.Cfg.BonusMaxLevels,
	}
}

func (s *Service) Create(ctx context.Context, title string, metadata map[string]any) (*teampurchasedomain.TeamPurchase, error) {
	now := time.Now().UTC()
	purchase := &teampurchasedomain.TeamPurchase{
		ID:        s.genID.Generate(),
		Title:     title,
		Status:    teampurchasedomain.StatusOpen,
		Metadata:  datatypes.JSONMap(metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPurchase(ctx, s.db, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*teampurchasedomain.TeamPurchase, error) {
	purchase, err := s.repo.FindPurchase(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, teampurchasedomain.ErrNotFound
	}
	return purchase, nil
}

func (s *Service) AddContribution(ctx context.Context, purchaseID, memberID snowflake.ID, amount int64) (*teampurchasedomain.TeamPurchaseContribution, error) {
	if amount <= 0 {
		return nil, teampurchasedomain.ErrInvalidAmount
	}

	purchase, err := s.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status != teampurchasedomain.StatusOpen {
		return nil, teampurchasedomain.ErrAlreadyCalculated
	}

	member, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, memberdomain.ErrNotFound
	}

	contribution := &teampurchasedomain.TeamPurchaseContribution{
		ID:                 s.genID.Generate(),
		TeamPurchaseID:     purchaseID,
		MemberID:           memberID,
		ContributionAmount: amount,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.repo.InsertContribution(ctx, s.db, contribution); err != nil {
		return nil, err
	}
	return contribution, nil
}

// CalculateBonuses writes the entire bonus batch for the purchase in a single
// transaction, guarded by a per-purchase mutex and an in-transaction existence
// check. A crash can therefore never leave half an ancestor chain behind.
func (s *Service) CalculateBonuses(ctx context.Context, purchaseID snowflake.ID) (*teampurchasedomain.CalculationSummary, error) {
	purchase, err := s.Get(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if purchase.Status != teampurchasedomain.StatusOpen {
		return nil, teampurchasedomain.ErrAlreadyCalculated
	}

	lockKey := calculationLockKey(purchaseID)
	token, acquired, err := s.locker.TryLock(ctx, lockKey, calculationLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, teampurchasedomain.ErrCalculationBusy
	}
	defer func() { _ = s.locker.Release(ctx, lockKey, token) }()

	contributions, err := s.repo.ListContributions(ctx, s.db, purchaseID)
	if err != nil {
		return nil, err
	}
	if len(contributions) == 0 {
		return nil, teampurchasedomain.ErrNoContributions
	}

	currentPeriod := period.Of(time.Now().UTC())
	summary := &teampurchasedomain.CalculationSummary{TeamPurchaseID: purchaseID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.CountBonuses(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return teampurchasedomain.ErrAlreadyCalculated
		}

		now := time.Now().UTC()
		for _, contribution := range contributions {
			contributorPercent, err := s.resolvePercent(ctx, contribution.MemberID, currentPeriod)
			if err != nil {
				return err
			}

			rows := make([]*teampurchasedomain.TeamPurchaseBonus, 0, s.maxLevels+1)
			rows = append(rows, s.buildBonus(purchaseID, contribution, contribution.MemberID, 0, contributorPercent, contributorPercent, contributorPercent, now))

			ancestors, err := s.hierarchy.WalkAncestors(ctx, contribution.MemberID, s.maxLevels)
			if err != nil {
				return err
			}
			for level, ancestorID := range ancestors {
				beneficiaryPercent, err := s.resolvePercent(ctx, ancestorID, currentPeriod)
				if err != nil {
					return err
				}
				received := beneficiaryPercent - contributorPercent
				rows = append(rows, s.buildBonus(purchaseID, contribution, ancestorID, level+1, beneficiaryPercent, contributorPercent, received, now))
				if received < 0 {
					summary.Anomalies = append(summary.Anomalies, teampurchasedomain.Anomaly{
						BeneficiaryID:   ancestorID,
						ContributorID:   contribution.MemberID,
						HierarchyLevel:  level + 1,
						ReceivedPercent: received,
					})
				}
			}

			for _, row := range rows {
				if err := s.repo.InsertBonus(ctx, tx, row); err != nil {
					return err
				}
				summary.RowsWritten++
				summary.TotalBonus += row.BonusAmount
			}
		}

		purchase.Status = teampurchasedomain.StatusCalculated
		return s.repo.UpdatePurchaseStatus(ctx, tx, purchase)
	})
	if err != nil {
		return nil, err
	}

	s.obsMetrics.RecordPurchaseBonusRows(summary.RowsWritten)
	s.log.Info("team purchase bonuses calculated",
		zap.String("team_purchase_id", purchaseID.String()),
		zap.Int("rows", summary.RowsWritten),
		zap.Int("anomalies", len(summary.Anomalies)),
	)
	return summary, nil
}

func (s *Service) Approve(ctx context.Context, purchaseID, approverID snowflake.ID) error {
	purchase, err := s.Get(ctx, purchaseID)
	if err != nil {
		return err
	}
	switch purchase.Status {
	case teampurchasedomain.StatusCalculated:
	case teampurchasedomain.StatusApproved:
		return teampurchasedomain.ErrAlreadyApproved
	case teampurchasedomain.StatusPaidOut:
		return teampurchasedomain.ErrAlreadyPaidOut
	default:
		return teampurchasedomain.ErrNotCalculated
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.repo.UpdateBonusPaymentStatus(ctx, tx, purchaseID, teampurchasedomain.PaymentPending, teampurchasedomain.PaymentApproved)
		if err != nil {
			return err
		}
		if updated == 0 {
			return teampurchasedomain.ErrNotCalculated
		}
		now := time.Now().UTC()
		purchase.Status = teampurchasedomain.StatusApproved
		purchase.ApprovedBy = &approverID
		purchase.ApprovedAt = &now
		return s.repo.UpdatePurchaseStatus(ctx, tx, purchase)
	})
}

func (s *Service) Payout(ctx context.Context, purchaseID snowflake.ID) error {
	purchase, err := s.Get(ctx, purchaseID)
	if err != nil {
		return err
	}
	switch purchase.Status {
	case teampurchasedomain.StatusApproved:
	case teampurchasedomain.StatusPaidOut:
		return teampurchasedomain.ErrAlreadyPaidOut
	default:
		return teampurchasedomain.ErrNotApproved
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updated, err := s.repo.UpdateBonusPaymentStatus(ctx, tx, purchaseID, teampurchasedomain.PaymentApproved, teampurchasedomain.PaymentPaid)
		if err != nil {
			return err
		}
		if updated == 0 {
			return teampurchasedomain.ErrNotApproved
		}
		purchase.Status = teampurchasedomain.StatusPaidOut
		return s.repo.UpdatePurchaseStatus(ctx, tx, purchase)
	})
}

func (s *Service) BonusesByPurchase(ctx context.Context, purchaseID snowflake.ID) ([]teampurchasedomain.TeamPurchaseBonus, error) {
	return s.repo.ListBonusesByPurchase(ctx, s.db, purchaseID)
}

func (s *Service) BonusesByBeneficiary(ctx context.Context, memberID snowflake.ID, page pagination.Pagination) ([]teampurchasedomain.TeamPurchaseBonus, *pagination.PageInfo, error) {
	return s.listBonuses(ctx, "beneficiary_id", memberID, page)
}

func (s *Service) BonusesByContributor(ctx context.Context, memberID snowflake.ID, page pagination.Pagination) ([]teampurchasedomain.TeamPurchaseBonus, *pagination.PageInfo, error) {
	return s.listBonuses(ctx, "contributor_id", memberID, page)
}

func (s *Service) listBonuses(ctx context.Context, column string, memberID snowflake.ID, page pagination.Pagination) ([]teampurchasedomain.TeamPurchaseBonus, *pagination.PageInfo, error) {
	limit := page.PageSize
	if limit <= 0 {
		limit = 25
	}

	var afterID *snowflake.ID
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, nil, err
		}
		parsed, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, nil, err
		}
		id := snowflake.ID(parsed)
		afterID = &id
	}

	bonuses, err := s.repo.ListBonusesByMember(ctx, s.db, column, memberID, afterID, limit+1)
	if err != nil {
		return nil, nil, err
	}

	bonuses, info := pagination.BuildCursorPageInfo(bonuses, limit, func(b teampurchasedomain.TeamPurchaseBonus) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: b.ID.String()})
		return token
	})
	return bonuses, info, nil
}

func (s *Service) resolvePercent(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (int64, error) {
	var total int64
	record, err := s.ledger.Current(ctx, memberID, periodStart)
	if err != nil {
		return 0, err
	}
	if record != nil {
		total = record.TotalTurnover
	}

	level, err := s.levels.Resolve(ctx, total)
	if err != nil {
		return 0, err
	}
	if level == nil {
		return 0, nil
	}
	return level.Percent, nil
}

func (s *Service) buildBonus(purchaseID snowflake.ID, contribution teampurchasedomain.TeamPurchaseContribution, beneficiaryID snowflake.ID, level int, beneficiaryPercent, contributorPercent, received int64, now time.Time) *teampurchasedomain.TeamPurchaseBonus {
	return &teampurchasedomain.TeamPurchaseBonus{
		ID:                 s.genID.Generate(),
		TeamPurchaseID:     purchaseID,
		BeneficiaryID:      beneficiaryID,
		ContributorID:      contribution.MemberID,
		HierarchyLevel:     level,
		ContributionAmount: contribution.ContributionAmount,
		BeneficiaryPercent: beneficiaryPercent,
		ContributorPercent: contributorPercent,
		ReceivedPercent:    received,
		BonusAmount:        turnoverdomain.Share(contribution.ContributionAmount, received),
		CalculationStatus:  teampurchasedomain.CalculationDone,
		PaymentStatus:      teampurchasedomain.PaymentPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func calculationLockKey(purchaseID snowflake.ID) string {
	return "lumina:teampurchase:calculate:" + purchaseID.String()
}
