package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lumina/internal/audit"
	"github.com/smallbiznis/lumina/internal/bonuslevel"
	"github.com/smallbiznis/lumina/internal/clock"
	"github.com/smallbiznis/lumina/internal/config"
	"github.com/smallbiznis/lumina/internal/hierarchy"
	"github.com/smallbiznis/lumina/internal/lock"
	"github.com/smallbiznis/lumina/internal/logger"
	"github.com/smallbiznis/lumina/internal/member"
	"github.com/smallbiznis/lumina/internal/migration"
	obsmetrics "github.com/smallbiznis/lumina/internal/observability/metrics"
	"github.com/smallbiznis/lumina/internal/order"
	"github.com/smallbiznis/lumina/internal/scheduler"
	"github.com/smallbiznis/lumina/internal/server"
	"github.com/smallbiznis/lumina/internal/teampurchase"
	"github.com/smallbiznis/lumina/internal/turnover"
	"github.com/smallbiznis/lumina/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		lock.Module,
		migration.Module,

		member.Module,
		order.Module,
		hierarchy.Module,
		bonuslevel.Module,
		turnover.Module,
		audit.Module,
		teampurchase.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
