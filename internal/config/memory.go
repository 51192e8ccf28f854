package config

import (
	"context"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

type MemoryConfig struct {
	ShortTermSize int `env:"SHORT_MEMORY_SIZE" envDefault:"25"`
	LongTermSize  int `env:"LONG_MEMORY_SIZE" envDefault:"100"`
	// RecallSize bounds the long-term excerpt added to each prompt.
	RecallSize int `env:"MEMORY_RECALL_SIZE" envDefault:"10"`
	// TokenBudget caps the assembled prompt context, counted with tiktoken.
	TokenBudget int `env:"MEMORY_TOKEN_BUDGET" envDefault:"4000"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Memory config")
	}
	return c
}

func (c *MemoryConfig) Validate() error {
	if c.ShortTermSize <= 0 {
		return fmt.Errorf("%w: SHORT_MEMORY_SIZE must be positive, got %d", core.ErrConfig, c.ShortTermSize)
	}
	if c.LongTermSize <= 0 {
		return fmt.Errorf("%w: LONG_MEMORY_SIZE must be positive, got %d", core.ErrConfig, c.LongTermSize)
	}
	if c.RecallSize < 0 {
		return fmt.Errorf("%w: MEMORY_RECALL_SIZE must not be negative, got %d", core.ErrConfig, c.RecallSize)
	}
	if c.TokenBudget <= 0 {
		return fmt.Errorf("%w: MEMORY_TOKEN_BUDGET must be positive, got %d", core.ErrConfig, c.TokenBudget)
	}
	return nil
}
