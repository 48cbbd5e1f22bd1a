package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/lumina/internal/clock"
	"github.com/smallbiznis/lumina/internal/config"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	memberrepo "github.com/smallbiznis/lumina/internal/member/repository"
	"github.com/smallbiznis/lumina/internal/period"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	turnoverrepo "github.com/smallbiznis/lumina/internal/turnover/repository"
	turnoverservice "github.com/smallbiznis/lumina/internal/turnover/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupWorker(t *testing.T, instant time.Time) (*Worker, *clock.Fixed, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&turnoverdomain.TurnoverRecord{},
		&turnoverdomain.TurnoverHistoryRecord{},
		&turnoverdomain.MonthlyBonus{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, memberrepo.Provide().Insert(context.Background(), db, &memberdomain.Member{
			ID:        node.Generate(),
			Role:      "dealer",
			Status:    memberdomain.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	}

	ledger := turnoverservice.NewLedger(turnoverservice.LedgerParams{
		DB:         db,
		Log:        log,
		GenID:      node,
		Repo:       turnoverrepo.Provide(),
		MemberRepo: memberrepo.Provide(),
	})

	fixed := &clock.Fixed{Instant: instant}
	worker := NewWorker(Params{
		Log:    log,
		Clock:  fixed,
		Ledger: ledger,
		Config: config.Config{SchedulerInterval: time.Minute},
	})
	return worker, fixed, db
}

func countRecords(t *testing.T, db *gorm.DB, periodStart time.Time) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&turnoverdomain.TurnoverRecord{}).
		Where("period_start = ?", periodStart).Count(&count).Error)
	return count
}

func TestRunOnceInitializesCurrentPeriod(t *testing.T) {
	instant := time.Date(2025, 4, 17, 9, 30, 0, 0, time.UTC)
	worker, _, db := setupWorker(t, instant)
	ctx := context.Background()

	require.NoError(t, worker.RunOnce(ctx))
	assert.Equal(t, int64(3), countRecords(t, db, period.Of(instant)))
}

func TestRunOnceIdempotent(t *testing.T) {
	instant := time.Date(2025, 4, 17, 9, 30, 0, 0, time.UTC)
	worker, _, db := setupWorker(t, instant)
	ctx := context.Background()

	require.NoError(t, worker.RunOnce(ctx))
	require.NoError(t, worker.RunOnce(ctx))
	assert.Equal(t, int64(3), countRecords(t, db, period.Of(instant)))
}

func TestRunOnceRollsIntoNextMonth(t *testing.T) {
	instant := time.Date(2025, 4, 28, 23, 0, 0, 0, time.UTC)
	worker, fixed, db := setupWorker(t, instant)
	ctx := context.Background()

	require.NoError(t, worker.RunOnce(ctx))

	fixed.Instant = time.Date(2025, 5, 1, 0, 5, 0, 0, time.UTC)
	require.NoError(t, worker.RunOnce(ctx))

	assert.Equal(t, int64(3), countRecords(t, db, period.Of(instant)))
	assert.Equal(t, int64(3), countRecords(t, db, period.Of(fixed.Instant)))
}
