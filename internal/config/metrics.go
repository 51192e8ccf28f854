package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/pkg/log"
)

type MetricsConfig struct {
	Enabled bool   `env:"ENABLE_METRICS" envDefault:"false"`
	Addr    string `env:"METRICS_ADDR" envDefault:":9090"`
}

func NewMetricsConfig(ctx context.Context) *MetricsConfig {
	c := &MetricsConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Metrics config")
	}
	return c
}
