package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/observability"
	"github.com/waffieu/nyxie/internal/providers/gemini"
	"github.com/waffieu/nyxie/internal/service/chat"
	"github.com/waffieu/nyxie/internal/service/memory"
	"github.com/waffieu/nyxie/internal/service/postprocess"
	"github.com/waffieu/nyxie/internal/service/prompt"
	"github.com/waffieu/nyxie/internal/service/signals"
	"github.com/waffieu/nyxie/internal/storage/memfile"
	"github.com/waffieu/nyxie/internal/storage/sqlite"
	"github.com/waffieu/nyxie/internal/transport/telegram"
	"github.com/waffieu/nyxie/pkg/log"
	"github.com/waffieu/nyxie/pkg/retry"
	"github.com/waffieu/nyxie/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	tgCfg := config.NewTelegramConfig(ctx)
	geminiCfg := config.NewGeminiConfig(ctx)
	memCfg := config.NewMemoryConfig(ctx)
	respCfg := config.NewResponseConfig(ctx)
	awareCfg := config.NewAwarenessConfig(ctx)
	metricsCfg := config.NewMetricsConfig(ctx)

	// 2. Storage: JSON working memory plus the sqlite archive
	files, err := memfile.NewStore(appCfg.GetMemoryDir())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize memory store")
	}

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize archive database")
	}
	services = append(services, srv.NewCleanup(db.Close))

	memStore := memory.NewStore(memCfg, files, sqlite.NewArchiveRepo(db))

	// 3. Gemini: conversation, language detection and media analysis
	provider := gemini.NewProvider(geminiCfg)
	detector := gemini.NewDetector(geminiCfg)
	analyzer := gemini.NewAnalyzer(geminiCfg)

	langs, err := signals.NewLanguageTracker(detector)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize language tracker")
	}

	clock, err := signals.NewClock(awareCfg.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize clock")
	}

	// 4. Prompt assembly
	persona := prompt.LoadPersona(ctx, appCfg.GetPersonaPath())
	builder, err := prompt.NewBuilder(memStore, memCfg, persona)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize prompt builder")
	}

	// 5. Metrics
	var metrics *observability.Metrics
	if metricsCfg.Enabled {
		metrics = observability.NewMetrics("nyxie")
		services = append(services, observability.NewServer(metricsCfg))
	}

	// 6. Chat orchestrator
	retryCfg := retry.NewDefaultConfig()
	retryCfg.MaxRetries = geminiCfg.MaxRetries

	pipeline := postprocess.NewPipeline(respCfg)
	if metrics != nil {
		pipeline.OnRewrite(func(rule string) {
			metrics.RuleRewrites.WithLabelValues(rule).Inc()
		})
	}

	chatSvc := chat.NewService(chat.Deps{
		Memory:    memStore,
		Builder:   builder,
		Provider:  provider,
		Pipeline:  pipeline,
		Retrier:   retry.NewRetrier(retryCfg),
		Clock:     clock,
		Languages: langs,
		Awareness: awareCfg,
		Timeout:   geminiCfg.Timeout,
		Metrics:   metrics,
	})

	// 7. Transport
	bot, err := telegram.NewBot(ctx, tgCfg, chatSvc, analyzer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	services = append(services, bot)

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
