package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
)

type fakeLedger struct {
	current *turnoverdomain.TurnoverRecord
	history *turnoverdomain.TurnoverHistoryRecord
}

func (f *fakeLedger) InitializePeriod(ctx context.Context, periodStart time.Time) (int, error) {
	_ = ctx
	_ = periodStart
	return 0, nil
}

func (f *fakeLedger) Finalize(ctx context.Context, periodStart time.Time) (int, error) {
	_ = ctx
	_ = periodStart
	return 0, nil
}

func (f *fakeLedger) MarkPaid(ctx context.Context, periodStart time.Time, memberID *snowflake.ID) (int, error) {
	_ = ctx
	_ = periodStart
	_ = memberID
	return 0, nil
}

func (f *fakeLedger) IsFinalized(ctx context.Context, periodStart time.Time) (bool, error) {
	_ = ctx
	_ = periodStart
	return false, nil
}

func (f *fakeLedger) Current(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverRecord, error) {
	_ = ctx
	_ = memberID
	_ = periodStart
	return f.current, nil
}

func (f *fakeLedger) ListCurrent(ctx context.Context, periodStart time.Time) ([]turnoverdomain.TurnoverRecord, error) {
	_ = ctx
	_ = periodStart
	return nil, nil
}

func (f *fakeLedger) History(ctx context.Context, memberID snowflake.ID, periodStart time.Time) (*turnoverdomain.TurnoverHistoryRecord, error) {
	_ = ctx
	_ = memberID
	_ = periodStart
	return f.history, nil
}

func (f *fakeLedger) ListHistory(ctx context.Context, periodStart time.Time) ([]turnoverdomain.TurnoverHistoryRecord, error) {
	_ = ctx
	_ = periodStart
	return nil, nil
}

func (f *fakeLedger) ListMonthlyBonuses(ctx context.Context, periodStart time.Time, beneficiaryID *snowflake.ID) ([]turnoverdomain.MonthlyBonus, error) {
	_ = ctx
	_ = periodStart
	_ = beneficiaryID
	return nil, nil
}

func newTurnoverRouter(ledger turnoverdomain.Ledger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	srv := &Server{ledger: ledger}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/v1/members/:id/turnover", srv.GetMemberTurnover)
	router.GET("/v1/turnover/history", srv.ListTurnoverHistory)
	return router
}

func TestGetMemberTurnoverMissingRecordReturns404(t *testing.T) {
	router := newTurnoverRouter(&fakeLedger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/members/100/turnover", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetMemberTurnoverReturnsRecord(t *testing.T) {
	router := newTurnoverRouter(&fakeLedger{
		current: &turnoverdomain.TurnoverRecord{
			MemberID:      snowflake.ID(100),
			TotalTurnover: 600_000,
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/members/100/turnover", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
}

func TestTurnoverHistoryMissingSnapshotReturns404(t *testing.T) {
	router := newTurnoverRouter(&fakeLedger{})

	req := httptest.NewRequest(http.MethodGet, "/v1/turnover/history?member_id=100&period=2025-04", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
