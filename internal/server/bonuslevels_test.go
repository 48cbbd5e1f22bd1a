package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
)

type fakeBonusLevelService struct {
	levels    []bonusleveldomain.BonusLevel
	createErr error
	updateErr error
	deleteErr error

	createCalls int
	lastDeleted snowflake.ID
}

func (f *fakeBonusLevelService) List(ctx context.Context) ([]bonusleveldomain.BonusLevel, error) {
	_ = ctx
	return f.levels, nil
}

func (f *fakeBonusLevelService) Create(ctx context.Context, req bonusleveldomain.CreateRequest) (*bonusleveldomain.BonusLevel, error) {
	f.createCalls++
	_ = ctx
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &bonusleveldomain.BonusLevel{
		ID:        snowflake.ID(100),
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Percent:   req.Percent,
	}, nil
}

func (f *fakeBonusLevelService) Update(ctx context.Context, id snowflake.ID, req bonusleveldomain.CreateRequest) (*bonusleveldomain.BonusLevel, error) {
	_ = ctx
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &bonusleveldomain.BonusLevel{
		ID:        id,
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		Percent:   req.Percent,
	}, nil
}

func (f *fakeBonusLevelService) Delete(ctx context.Context, id snowflake.ID) error {
	_ = ctx
	f.lastDeleted = id
	return f.deleteErr
}

func (f *fakeBonusLevelService) Resolve(ctx context.Context, totalTurnover int64) (*bonusleveldomain.BonusLevel, error) {
	_ = ctx
	_ = totalTurnover
	return nil, nil
}

func newBonusLevelRouter(svc bonusleveldomain.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)

	srv := &Server{bonusLevelSvc: svc}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	router.GET("/v1/bonus-levels", srv.ListBonusLevels)
	router.POST("/v1/bonus-levels", srv.CreateBonusLevel)
	router.PUT("/v1/bonus-levels/:id", srv.UpdateBonusLevel)
	router.DELETE("/v1/bonus-levels/:id", srv.DeleteBonusLevel)
	return router
}

func TestCreateBonusLevelHandler(t *testing.T) {
	svc := &fakeBonusLevelService{}
	router := newBonusLevelRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/bonus-levels", bytes.NewBufferString(`{"min_amount":100000,"max_amount":499999,"percent":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.createCalls != 1 {
		t.Fatalf("expected 1 create call, got %d", svc.createCalls)
	}

	var body struct {
		Data bonusleveldomain.BonusLevel `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Percent != 5 {
		t.Fatalf("expected percent 5, got %d", body.Data.Percent)
	}
}

func TestCreateBonusLevelHandlerOverlapConflict(t *testing.T) {
	svc := &fakeBonusLevelService{createErr: bonusleveldomain.ErrOverlappingLevels}
	router := newBonusLevelRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/bonus-levels", bytes.NewBufferString(`{"min_amount":0,"percent":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", resp.Code)
	}
}

func TestUpdateBonusLevelHandlerNotFound(t *testing.T) {
	svc := &fakeBonusLevelService{updateErr: bonusleveldomain.ErrNotFound}
	router := newBonusLevelRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/bonus-levels/100", bytes.NewBufferString(`{"min_amount":0,"percent":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestUpdateBonusLevelHandlerInvalidID(t *testing.T) {
	svc := &fakeBonusLevelService{}
	router := newBonusLevelRouter(svc)

	req := httptest.NewRequest(http.MethodPut, "/v1/bonus-levels/not-a-number", bytes.NewBufferString(`{"min_amount":0,"percent":5}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestDeleteBonusLevelHandler(t *testing.T) {
	svc := &fakeBonusLevelService{}
	router := newBonusLevelRouter(svc)

	req := httptest.NewRequest(http.MethodDelete, "/v1/bonus-levels/100", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if svc.lastDeleted != snowflake.ID(100) {
		t.Fatalf("expected delete of id 100, got %d", svc.lastDeleted)
	}
}
