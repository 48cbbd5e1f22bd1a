package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/smallbiznis/lumina/internal/audit/domain"
	bonusleveldomain "github.com/smallbiznis/lumina/internal/bonuslevel/domain"
	"github.com/smallbiznis/lumina/internal/config"
	hierarchydomain "github.com/smallbiznis/lumina/internal/hierarchy/domain"
	memberdomain "github.com/smallbiznis/lumina/internal/member/domain"
	obslogger "github.com/smallbiznis/lumina/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/lumina/internal/order/domain"
	teampurchasedomain "github.com/smallbiznis/lumina/internal/teampurchase/domain"
	turnoverdomain "github.com/smallbiznis/lumina/internal/turnover/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(*Server) {}),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log.Named("http")))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	genID           *snowflake.Node
	memberRepo      memberdomain.Repository
	orderRepo       orderdomain.Repository
	hierarchySvc    hierarchydomain.Service
	bonusLevelSvc   bonusleveldomain.Service
	aggregator      turnoverdomain.Aggregator
	ledger          turnoverdomain.Ledger
	auditSvc        auditdomain.Service
	teamPurchaseSvc teampurchasedomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	GenID           *snowflake.Node
	MemberRepo      memberdomain.Repository
	OrderRepo       orderdomain.Repository
	HierarchySvc    hierarchydomain.Service
	BonusLevelSvc   bonusleveldomain.Service
	Aggregator      turnoverdomain.Aggregator
	Ledger          turnoverdomain.Ledger
	AuditSvc        auditdomain.Service
	TeamPurchaseSvc teampurchasedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		genID:           p.GenID,
		memberRepo:      p.MemberRepo,
		orderRepo:       p.OrderRepo,
		hierarchySvc:    p.HierarchySvc,
		bonusLevelSvc:   p.BonusLevelSvc,
		aggregator:      p.Aggregator,
		ledger:          p.Ledger,
		auditSvc:        p.AuditSvc,
		teamPurchaseSvc: p.TeamPurchaseSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	members := v1.Group("/members")
	{
		members.POST("", s.CreateMember)
		members.GET("/:id", s.GetMember)
		members.GET("/:id/parent", s.GetMemberParent)
		members.GET("/:id/children", s.ListMemberChildren)
		members.GET("/:id/ancestors", s.ListMemberAncestors)
		members.GET("/:id/descendants", s.ListMemberDescendants)
		members.GET("/:id/turnover", s.GetMemberTurnover)
		members.GET("/:id/bonuses", s.ListMemberBonuses)
		members.GET("/:id/team-bonuses", s.ListMemberTeamBonuses)
		members.POST("/:id/orders", s.CreateOrder)
	}

	levels := v1.Group("/bonus-levels")
	{
		levels.GET("", s.ListBonusLevels)
		levels.POST("", s.CreateBonusLevel)
		levels.PUT("/:id", s.UpdateBonusLevel)
		levels.DELETE("/:id", s.DeleteBonusLevel)
	}

	turnover := v1.Group("/turnover")
	{
		turnover.GET("", s.ListTurnover)
		turnover.POST("/recalculate", s.RecalculateTurnover)
		turnover.POST("/initialize", s.InitializePeriod)
		turnover.POST("/finalize", s.FinalizePeriod)
		turnover.POST("/mark-paid", s.MarkPeriodPaid)
		turnover.GET("/history", s.ListTurnoverHistory)
		turnover.GET("/monthly-bonuses", s.ListMonthlyBonuses)
	}

	audit := v1.Group("/audit")
	{
		audit.GET("/check", s.AuditCheck)
		audit.POST("/fix", s.AuditFix)
		audit.POST("/fix-all", s.AuditFixAll)
	}

	purchases := v1.Group("/team-purchases")
	{
		purchases.POST("", s.CreateTeamPurchase)
		purchases.GET("/:id", s.GetTeamPurchase)
		purchases.POST("/:id/contributions", s.AddTeamPurchaseContribution)
		purchases.POST("/:id/calculate", s.CalculateTeamPurchase)
		purchases.POST("/:id/approve", s.ApproveTeamPurchase)
		purchases.POST("/:id/payout", s.PayoutTeamPurchase)
		purchases.GET("/:id/bonuses", s.ListTeamPurchaseBonuses)
	}
}
