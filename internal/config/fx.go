package config

import (
	"go.uber.org/fx"

	"procurement/internal/core"
)

func provideRateOverrides(cfg Config) core.RateOverrides {
	return cfg.Withholding.Overrides()
}

// Module provides Config and the pinned withholding rate overrides.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(provideRateOverrides),
)
