package reading

import (
	"github.com/gridsense/wattkeeper/internal/reading/repository"
	"github.com/gridsense/wattkeeper/internal/reading/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reading",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
