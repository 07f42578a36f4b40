package alert

import (
	"github.com/gridsense/wattkeeper/internal/alert/repository"
	"github.com/gridsense/wattkeeper/internal/alert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("alert",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
