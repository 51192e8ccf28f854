package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/pkg/log"
)

// GeminiConfig selects the models used per concern: one for conversation,
// a lite one for language detection, one for media description.
type GeminiConfig struct {
	APIKey          string        `env:"GEMINI_API_KEY,required,notEmpty"`
	Model           string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	DetectionModel  string        `env:"GEMINI_DETECTION_MODEL" envDefault:"gemini-2.0-flash-lite"`
	MediaModel      string        `env:"GEMINI_MEDIA_MODEL" envDefault:"gemini-2.0-flash"`
	Temperature     float64       `env:"GEMINI_TEMPERATURE" envDefault:"0.9"`
	TopP            float64       `env:"GEMINI_TOP_P" envDefault:"0.95"`
	TopK            int           `env:"GEMINI_TOP_K" envDefault:"40"`
	MaxOutputTokens int           `env:"GEMINI_MAX_OUTPUT_TOKENS" envDefault:"1024"`
	Timeout         time.Duration `env:"GEMINI_TIMEOUT" envDefault:"45s"`
	MaxRetries      int           `env:"GEMINI_MAX_RETRIES" envDefault:"3"`
}

func NewGeminiConfig(ctx context.Context) *GeminiConfig {
	c := &GeminiConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Gemini config")
	}
	return c
}
