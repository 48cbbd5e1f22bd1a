package turnover

import (
	"github.com/smallbiznis/lumina/internal/turnover/repository"
	"github.com/smallbiznis/lumina/internal/turnover/service"
	"go.uber.org/fx"
)

var Module = fx.Module("turnover.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewAggregator),
	fx.Provide(service.NewLedger),
)
