package config

import (
	"context"
	"fmt"
	"math"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/internal/core"
	"github.com/waffieu/nyxie/pkg/log"
)

// weightTolerance is how far a probability set may drift from 1.0 before
// startup refuses it.
const weightTolerance = 0.001

// ResponseConfig carries the probability distributions driving reply
// length and language-level variation.
type ResponseConfig struct {
	DynamicLengthEnabled bool `env:"DYNAMIC_MESSAGE_LENGTH_ENABLED" envDefault:"true"`
	DynamicLevelEnabled  bool `env:"DYNAMIC_LANGUAGE_LEVEL_ENABLED" envDefault:"true"`

	ExtremelyShortWeight float64 `env:"EXTREMELY_SHORT_RESPONSE_PROBABILITY" envDefault:"0.35"`
	SlightlyShortWeight  float64 `env:"SLIGHTLY_SHORT_RESPONSE_PROBABILITY" envDefault:"0.30"`
	MediumWeight         float64 `env:"MEDIUM_RESPONSE_PROBABILITY" envDefault:"0.25"`
	SlightlyLongWeight   float64 `env:"SLIGHTLY_LONG_RESPONSE_PROBABILITY" envDefault:"0.07"`
	LongWeight           float64 `env:"LONG_RESPONSE_PROBABILITY" envDefault:"0.03"`

	A1Weight float64 `env:"A1_LANGUAGE_PROBABILITY" envDefault:"0.30"`
	A2Weight float64 `env:"A2_LANGUAGE_PROBABILITY" envDefault:"0.25"`
	B1Weight float64 `env:"B1_LANGUAGE_PROBABILITY" envDefault:"0.20"`
	B2Weight float64 `env:"B2_LANGUAGE_PROBABILITY" envDefault:"0.15"`
	C1Weight float64 `env:"C1_LANGUAGE_PROBABILITY" envDefault:"0.07"`
	C2Weight float64 `env:"C2_LANGUAGE_PROBABILITY" envDefault:"0.03"`

	// Randomness in [0,1] jitters the sampled distributions per turn.
	Randomness float64 `env:"RESPONSE_LENGTH_RANDOMNESS" envDefault:"0.2"`
}

func NewResponseConfig(ctx context.Context) *ResponseConfig {
	c := &ResponseConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Response config")
	}
	if err := c.Validate(); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("invalid Response config")
	}
	return c
}

func (c *ResponseConfig) LengthWeights() map[string]float64 {
	return map[string]float64{
		"extremely_short": c.ExtremelyShortWeight,
		"slightly_short":  c.SlightlyShortWeight,
		"medium":          c.MediumWeight,
		"slightly_long":   c.SlightlyLongWeight,
		"long":            c.LongWeight,
	}
}

func (c *ResponseConfig) LevelWeights() map[string]float64 {
	return map[string]float64{
		"A1": c.A1Weight,
		"A2": c.A2Weight,
		"B1": c.B1Weight,
		"B2": c.B2Weight,
		"C1": c.C1Weight,
		"C2": c.C2Weight,
	}
}

func (c *ResponseConfig) Validate() error {
	if err := validateWeights("response length", c.LengthWeights()); err != nil {
		return err
	}
	if err := validateWeights("language level", c.LevelWeights()); err != nil {
		return err
	}
	if c.Randomness < 0 || c.Randomness > 1 {
		return fmt.Errorf("%w: RESPONSE_LENGTH_RANDOMNESS must be in [0,1], got %v", core.ErrConfig, c.Randomness)
	}
	return nil
}

func validateWeights(name string, weights map[string]float64) error {
	sum := 0.0
	for bucket, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: %s weight %q is negative (%v)", core.ErrConfig, name, bucket, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("%w: %s weights sum to %v, want 1.0", core.ErrConfig, name, sum)
	}
	return nil
}
