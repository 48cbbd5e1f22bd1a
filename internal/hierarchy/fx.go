package hierarchy

import (
	"github.com/smallbiznis/lumina/internal/hierarchy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("hierarchy.service",
	fx.Provide(service.New),
)
