package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/pkg/log"
)

type AwarenessConfig struct {
	TimeAwarenessEnabled        bool   `env:"TIME_AWARENESS_ENABLED" envDefault:"true"`
	EnvironmentAwarenessEnabled bool   `env:"ENVIRONMENT_AWARENESS_ENABLED" envDefault:"true"`
	Timezone                    string `env:"NYXIE_TIMEZONE" envDefault:"Europe/Istanbul"`
}

func NewAwarenessConfig(ctx context.Context) *AwarenessConfig {
	c := &AwarenessConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Awareness config")
	}
	return c
}
