package config

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(func() *Config {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			panic(err)
		}
		return cfg
	}),
)
