package sweep

import (
	"context"

	"github.com/gridsense/wattkeeper/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("sweep",
	fx.Provide(New),
	fx.Invoke(RegisterSweeper),
)

func RegisterSweeper(lc fx.Lifecycle, cfg config.Config, sweeper *Sweeper) {
	if !cfg.Sweep.Enabled {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sweeper.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
