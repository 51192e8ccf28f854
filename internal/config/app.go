package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/waffieu/nyxie/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"NYXIE_RUNTIME_PATH" envDefault:".nyxie"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	path := c.RuntimePath
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

// GetPersonaPath points at the optional persona prompt file. A missing
// file means the built-in persona is used.
func (c AppConfig) GetPersonaPath() string {
	return filepath.Join(c.GetRuntimePath(), "PERSONA.md")
}

// GetMemoryDir is where the per-chat memory JSON files live.
func (c AppConfig) GetMemoryDir() string {
	return filepath.Join(c.GetRuntimePath(), "memory")
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "nyxie.db")
}
