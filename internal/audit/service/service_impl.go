package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	"github.com/smallbiznis/lumina/internal/period"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       turnoverdomain.Repository
	Aggregator turnoverdomain.Aggregator
	Hierarchy  hierarchydomain.Service
	MemberRepo memberdomain.Repository
	Levels     bonusleveldomain.Service
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       turnoverdomain.Repository
	aggregator turnoverdomain.Aggregator
	hierarchy  hierarchydomain.Service
	memberRepo memberdomain.Repository
	levels     bonusleveldomain.Service
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) auditdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("audit.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		aggregator: p.Aggregator,
		hierarchy:  p.Hierarchy,
		memberRepo: p.MemberRepo,
		levels:     p.Levels,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) CheckMember(ctx context.Context, memberID snowflake.ID, periodStart time.Time) ([]auditdomain.Finding, error) {
	periodStart = period.Of(periodStart)

	member, err := s.memberRepo.FindByID(ctx, s.db, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, memberdomain.ErrNotFound
	}

	findings := make([]auditdomain.Finding, 0, 4)

	problems, err := s.hierarchy.Inspect(ctx, memberID)
	if err != nil {
		return nil, err
	}
	hierarchyFinding := auditdomain.Finding{
		MemberID:   memberID,
		CheckType:  auditdomain.CheckHierarchy,
		Calculated: int64(len(problems)),
		IsCorrect:  len(problems) == 0,
	}
	if len(problems) > 0 {
		hierarchyFinding.Difference = int64(len(problems))
		hierarchyFinding.Note = string(problems[0].Kind)
	}
	findings = append(findings, hierarchyFinding)

	record, err := s.repo.Find(ctx, s.db, memberID, periodStart)
	if err != nil {
		return nil, err
	}
	var storedPersonal, storedTeam, storedTotal int64
	if record != nil {
		storedPersonal = record.PersonalTurnover
		storedTeam = record.TeamTurnover
		storedTotal = record.TotalTurnover
	}

	calcPersonal, err := s.aggregator.ComputePersonal(ctx, memberID, periodStart)
	if err != nil {
		return nil, err
	}
	findings = append(findings, newFinding(memberID, auditdomain.CheckPersonal, storedPersonal, calcPersonal))

	calcTeam, err := s.aggregator.ComputeTeam(ctx, memberID, periodStart)
	if err != nil {
		return nil, err
	}
	findings = append(findings, newFinding(memberID, auditdomain.CheckTeam, storedTeam, calcTeam))

	// Conservation: total must equal personal + team inside the stored row
	// itself. Reported under the team dimension so the team fix restores it.
	if record != nil && storedTotal != storedPersonal+storedTeam {
		finding := newFinding(memberID, auditdomain.CheckTeam, storedTotal, storedPersonal+storedTeam)
		finding.Note = "total_mismatch"
		findings = append(findings, finding)
	}

	for _, f := range findings {
		s.obsMetrics.RecordFinding(string(f.CheckType), f.IsCorrect)
	}
	return findings, nil
}

func (s *Service) CheckSubtree(ctx context.Context, rootID snowflake.ID, periodStart time.Time) ([]auditdomain.Finding, error) {
	descendants, err := s.hierarchy.WalkDescendants(ctx, rootID)
	if err != nil {
		return nil, err
	}

	findings := make([]auditdomain.Finding, 0)
	for _, id := range append([]snowflake.ID{rootID}, descendants...) {
		memberFindings, err := s.CheckMember(ctx, id, periodStart)
		if err != nil {
			return nil, err
		}
		findings = append(findings, memberFindings...)
	}
	return findings, nil
}

func (s *Service) CheckAll(ctx context.Context, periodStart time.Time) ([]auditdomain.Finding, error) {
	ids, err := s.memberRepo.ListActiveIDs(ctx, s.db)
	if err != nil {
		return nil, err
	}

	findings := make([]auditdomain.Finding, 0)
	for _, id := range ids {
		memberFindings, err := s.CheckMember(ctx, id, periodStart)
		if err != nil {
			return nil, err
		}
		findings = append(findings, memberFindings...)
	}
	return findings, nil
}

func (s *Service) FixPersonalTurnover(ctx context.Context, memberID snowflake.ID, periodStart time.Time) error {
	periodStart = period.Of(periodStart)
	if err := s.requireOpen(ctx, periodStart); err != nil {
		return err
	}

	personal, err := s.aggregator.ComputePersonal(ctx, memberID, periodStart)
	if err != nil {
		return err
	}

	record, err := s.repo.Find(ctx, s.db, memberID, periodStart)
	if err != nil {
		return err
	}
	var team int64
	if record != nil {
		team = record.TeamTurnover
	}

	if err := s.writeRecord(ctx, memberID, periodStart, personal, team); err != nil {
		return err
	}
	s.obsMetrics.RecordFix(string(auditdomain.CheckPersonal))
	return nil
}

func (s *Service) FixTeamTurnover(ctx context.Context, memberID snowflake.ID, periodStart time.Time) error {
	periodStart = period.Of(periodStart)
	if err := s.requireOpen(ctx, periodStart); err != nil {
		return err
	}

	team, err := s.aggregator.ComputeTeam(ctx, memberID, periodStart)
	if err != nil {
		return err
	}

	record, err := s.repo.Find(ctx, s.db, memberID, periodStart)
	if err != nil {
		return err
	}
	var personal int64
	if record != nil {
		personal = record.PersonalTurnover
	}

	if err := s.writeRecord(ctx, memberID, periodStart, personal, team); err != nil {
		return err
	}
	s.obsMetrics.RecordFix(string(auditdomain.CheckTeam))
	return nil
}

func (s *Service) FixHierarchy(ctx context.Context, memberID snowflake.ID) ([]snowflake.ID, error) {
	mutated, err := s.hierarchy.Repair(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(mutated) > 0 {
		s.obsMetrics.RecordFix(string(auditdomain.CheckHierarchy))
	}
	return mutated, nil
}

// FixAll repairs in dependency order: hierarchy first, then turnover, since
// turnover recomputation walks the tree. A second run on clean data applies
// zero fixes.
func (s *Service) FixAll(ctx context.Context, periodStart time.Time) (*auditdomain.Report, error) {
	periodStart = period.Of(periodStart)
	if err := s.requireOpen(ctx, periodStart); err != nil {
		return nil, err
	}

	report := &auditdomain.Report{PeriodStart: periodStart}

	initial, err := s.CheckAll(ctx, periodStart)
	if err != nil {
		return nil, err
	}
	report.Findings = initial

	for _, finding := range initial {
		if finding.IsCorrect || finding.CheckType != auditdomain.CheckHierarchy {
			continue
		}
		mutated, err := s.FixHierarchy(ctx, finding.MemberID)
		if err != nil {
			return nil, err
		}
		if len(mutated) > 0 {
			report.FixesApplied++
			report.HierarchyMutated = append(report.HierarchyMutated, mutated...)
		}
	}

	// Re-audit after tree repair; the turnover findings may have changed.
	current, err := s.CheckAll(ctx, periodStart)
	if err != nil {
		return nil, err
	}

	fixed := map[snowflake.ID]map[auditdomain.CheckType]bool{}
	for _, finding := range current {
		if finding.IsCorrect || finding.CheckType == auditdomain.CheckHierarchy {
			continue
		}
		if fixed[finding.MemberID] == nil {
			fixed[finding.MemberID] = map[auditdomain.CheckType]bool{}
		}
		if fixed[finding.MemberID][finding.CheckType] {
			continue
		}
		switch finding.CheckType {
		case auditdomain.CheckPersonal:
			err = s.FixPersonalTurnover(ctx, finding.MemberID, periodStart)
		case auditdomain.CheckTeam:
			err = s.FixTeamTurnover(ctx, finding.MemberID, periodStart)
		}
		if err != nil {
			return nil, err
		}
		fixed[finding.MemberID][finding.CheckType] = true
		report.FixesApplied++
	}

	s.log.Info("audit fix pass complete",
		zap.Time("period", periodStart),
		zap.Int("findings", len(report.Findings)),
		zap.Int("fixes_applied", report.FixesApplied),
	)
	return report, nil
}

// requireOpen rejects any repair on finalized history. History is immutable;
// this is a precondition violation for the caller, not a retryable state.
func (s *Service) requireOpen(ctx context.Context, periodStart time.Time) error {
	finalized, err := s.repo.HistoryExists(ctx, s.db, periodStart)
	if err != nil {
		return err
	}
	if finalized {
		return turnoverdomain.ErrPeriodFinalized
	}
	return nil
}

func (s *Service) writeRecord(ctx context.Context, memberID snowflake.ID, periodStart time.Time, personal, team int64) error {
	total := personal + team

	var percent int64
	level, err := s.levels.Resolve(ctx, total)
	if err != nil {
		return err
	}
	if level != nil {
		percent = level.Percent
	}

	now := time.Now().UTC()
	return s.repo.Upsert(ctx, s.db, &turnoverdomain.TurnoverRecord{
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
	})
}

func newFinding(memberID snowflake.ID, checkType auditdomain.CheckType, stored, calculated int64) auditdomain.Finding {
	difference := calculated - stored
	return auditdomain.Finding{
		MemberID:   memberID,
		CheckType:  checkType,
		Stored:     stored,
		Calculated: calculated,
		Difference: difference,
		IsCorrect:  difference == 0,
	}
}
