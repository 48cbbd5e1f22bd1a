package bonuslevel

import (
	"github.com/smallbiznis/lumina/internal/bonuslevel/repository"
	"github.com/smallbiznis/lumina/internal/bonuslevel/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bonuslevel.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
