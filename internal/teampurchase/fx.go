package teampurchase

import (
	"github.com/smallbiznis/lumina/internal/teampurchase/repository"
	"github.com/smallbiznis/lumina/internal/teampurchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("teampurchase.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
