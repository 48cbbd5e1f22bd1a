package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	bonuslevelrepo "github.com/smallbiznis/lumina/internal/bonuslevel/repository"
	bonuslevelservice "github.com/smallbiznis/lumina/internal/bonuslevel/service"
	"github.com/smallbiznis/lumina/internal/config"
	hierarchyservice "github.com/smallbiznis/lumina/internal/hierarchy/service"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	memberrepo "github.com/smallbiznis/lumina/internal/member/repository"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
	orderrepo "github.com/smallbiznis/lumina/internal/order/repository"
	"github.com/smallbiznis/lumina/internal/seed"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	turnoverrepo "github.com/smallbiznis/lumina/internal/turnover/repository"
	turnoverservice "github.com/smallbiznis/lumina/internal/turnover/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditFixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	audit      auditdomain.Service
	aggregator turnoverdomain.Aggregator
	ledger     turnoverdomain.Ledger
}

var testPeriod = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

func setupAudit(t *testing.T) *auditFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&orderdomain.Order{},
		&bonusleveldomain.BonusLevel{},
		&turnoverdomain.TurnoverRecord{},
		&turnoverdomain.TurnoverHistoryRecord{},
		&turnoverdomain.MonthlyBonus{},
	))
	require.NoError(t, seed.EnsureDefaultBonusLevels(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	levels := bonuslevelservice.New(bonuslevelservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  bonuslevelrepo.Provide(),
	})
	hierarchy := hierarchyservice.New(hierarchyservice.Params{
		DB:         db,
		Log:        log,
		Cfg:        config.Config{AncestorWalkDepth: 100},
		MemberRepo: memberrepo.Provide(),
	})
	aggregator := turnoverservice.NewAggregator(turnoverservice.AggregatorParams{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       turnoverrepo.Provide(),
		OrderRepo:  orderrepo.Provide(),
		MemberRepo: memberrepo.Provide(),
		Hierarchy:  hierarchy,
		Levels:     levels,
	})
	ledger := turnoverservice.NewLedger(turnoverservice.LedgerParams{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       turnoverrepo.Provide(),
		MemberRepo: memberrepo.Provide(),
	})
	audit := New(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       turnoverrepo.Provide(),
		Aggregator: aggregator,
		Hierarchy:  hierarchy,
		MemberRepo: memberrepo.Provide(),
		Levels:     levels,
	})

	return &auditFixture{db: db, node: node, audit: audit, aggregator: aggregator, ledger: ledger}
}

func (f *auditFixture) addMember(t *testing.T, parent *snowflake.ID) snowflake.ID {
	t.Helper()
	now := time.Now().UTC()
	member := &memberdomain.Member{
		ID:        f.node.Generate(),
		ParentID:  parent,
		Role:      "dealer",
		Status:    memberdomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, memberrepo.Provide().Insert(context.Background(), f.db, member))
	return member.ID
}

func (f *auditFixture) addPaidOrder(t *testing.T, memberID snowflake.ID, amount int64) {
	t.Helper()
	paidAt := testPeriod.AddDate(0, 0, 14)
	require.NoError(t, orderrepo.Provide().Insert(context.Background(), f.db, &orderdomain.Order{
		ID:          f.node.Generate(),
		MemberID:    memberID,
		TotalAmount: amount,
		Status:      orderdomain.StatusPaid,
		PaidAt:      &paidAt,
		CreatedAt:   paidAt,
	}))
}

func (f *auditFixture) corruptPersonal(t *testing.T, memberID snowflake.ID, value int64) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`UPDATE turnover_records SET personal_turnover = ? WHERE member_id = ?`,
		value, memberID,
	).Error)
}

func findingFor(findings []auditdomain.Finding, memberID snowflake.ID, checkType auditdomain.CheckType) *auditdomain.Finding {
	for i := range findings {
		if findings[i].MemberID == memberID && findings[i].CheckType == checkType {
			return &findings[i]
		}
	}
	return nil
}

func TestCheckMemberAllCorrect(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	member := f.addMember(t, nil)
	f.addPaidOrder(t, member, 200_000)
	_, err := f.aggregator.RecalculateMember(ctx, member, testPeriod)
	require.NoError(t, err)

	findings, err := f.audit.CheckMember(ctx, member, testPeriod)
	require.NoError(t, err)

	for _, finding := range findings {
		assert.True(t, finding.IsCorrect, "finding %s should be correct", finding.CheckType)
	}
}

func TestCheckMemberDetectsDrift(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	member := f.addMember(t, nil)
	f.addPaidOrder(t, member, 200_000)
	_, err := f.aggregator.RecalculateMember(ctx, member, testPeriod)
	require.NoError(t, err)

	f.corruptPersonal(t, member, 50_000)

	findings, err := f.audit.CheckMember(ctx, member, testPeriod)
	require.NoError(t, err)

	personal := findingFor(findings, member, auditdomain.CheckPersonal)
	require.NotNil(t, personal)
	assert.False(t, personal.IsCorrect)
	assert.Equal(t, int64(50_000), personal.Stored)
	assert.Equal(t, int64(200_000), personal.Calculated)
	assert.Equal(t, int64(150_000), personal.Difference)

	// Corrupting personal also breaks total = personal + team conservation,
	// which surfaces as an extra team-dimension finding.
	var mismatch *auditdomain.Finding
	for i := range findings {
		if findings[i].Note == "total_mismatch" {
			mismatch = &findings[i]
		}
	}
	require.NotNil(t, mismatch)
	assert.False(t, mismatch.IsCorrect)
}

func TestCheckMemberMissingRecordReportsFullDrift(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	member := f.addMember(t, nil)
	f.addPaidOrder(t, member, 120_000)

	findings, err := f.audit.CheckMember(ctx, member, testPeriod)
	require.NoError(t, err)

	personal := findingFor(findings, member, auditdomain.CheckPersonal)
	require.NotNil(t, personal)
	assert.Zero(t, personal.Stored)
	assert.Equal(t, int64(120_000), personal.Calculated)
	assert.False(t, personal.IsCorrect)
}

func TestFixPersonalTurnoverRestoresConservation(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	sponsor := f.addMember(t, nil)
	child := f.addMember(t, &sponsor)
	f.addPaidOrder(t, sponsor, 200_000)
	f.addPaidOrder(t, child, 400_000)
	_, err := f.aggregator.RecalculateAll(ctx, testPeriod)
	require.NoError(t, err)

	f.corruptPersonal(t, sponsor, 1)

	require.NoError(t, f.audit.FixPersonalTurnover(ctx, sponsor, testPeriod))

	record, err := f.ledger.Current(ctx, sponsor, testPeriod)
	require.NoError(t, err)
	assert.Equal(t, int64(200_000), record.PersonalTurnover)
	assert.Equal(t, int64(400_000), record.TeamTurnover)
	assert.Equal(t, record.PersonalTurnover+record.TeamTurnover, record.TotalTurnover)
	assert.Equal(t, int64(10), record.BonusPercent)
	assert.Equal(t, turnoverdomain.Share(record.PersonalTurnover, record.BonusPercent), record.BonusAmount)
}

func TestFixAllConvergesToCleanState(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	sponsor := f.addMember(t, nil)
	child := f.addMember(t, &sponsor)
	f.addPaidOrder(t, sponsor, 200_000)
	f.addPaidOrder(t, child, 400_000)
	_, err := f.aggregator.RecalculateAll(ctx, testPeriod)
	require.NoError(t, err)

	f.corruptPersonal(t, sponsor, 5)
	f.corruptPersonal(t, child, 7)

	report, err := f.audit.FixAll(ctx, testPeriod)
	require.NoError(t, err)
	assert.Greater(t, report.FixesApplied, 0)

	// A second pass finds nothing to do.
	second, err := f.audit.FixAll(ctx, testPeriod)
	require.NoError(t, err)
	assert.Zero(t, second.FixesApplied)

	findings, err := f.audit.CheckAll(ctx, testPeriod)
	require.NoError(t, err)
	for _, finding := range findings {
		assert.True(t, finding.IsCorrect)
	}
}

func TestFixAllRepairsHierarchyFirst(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	a := f.addMember(t, nil)
	b := f.addMember(t, &a)
	require.NoError(t, memberrepo.Provide().UpdateParent(ctx, f.db, a, &b))
	f.addPaidOrder(t, b, 100_000)

	report, err := f.audit.FixAll(ctx, testPeriod)
	require.NoError(t, err)
	assert.NotEmpty(t, report.HierarchyMutated)

	// The tree is walkable again and a re-run is a no-op.
	second, err := f.audit.FixAll(ctx, testPeriod)
	require.NoError(t, err)
	assert.Zero(t, second.FixesApplied)
}

func TestFixesRejectedOnFinalizedPeriod(t *testing.T) {
	f := setupAudit(t)
	ctx := context.Background()

	member := f.addMember(t, nil)
	f.addPaidOrder(t, member, 200_000)
	_, err := f.aggregator.RecalculateAll(ctx, testPeriod)
	require.NoError(t, err)
	_, err = f.ledger.Finalize(ctx, testPeriod)
	require.NoError(t, err)

	f.corruptPersonal(t, member, 1)

	assert.ErrorIs(t, f.audit.FixPersonalTurnover(ctx, member, testPeriod), turnoverdomain.ErrPeriodFinalized)
	assert.ErrorIs(t, f.audit.FixTeamTurnover(ctx, member, testPeriod), turnoverdomain.ErrPeriodFinalized)
	_, err = f.audit.FixAll(ctx, testPeriod)
	assert.ErrorIs(t, err, turnoverdomain.ErrPeriodFinalized)

	// Checks stay available on finalized periods.
	_, err = f.audit.CheckMember(ctx, member, testPeriod)
	assert.NoError(t, err)
}
