package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/imranraza-AI/Clothing-brand-website/internal/adapter/repo"
	"github.com/imranraza-AI/Clothing-brand-website/internal/http/handlers"
	httpapi "github.com/imranraza-AI/Clothing-brand-website/internal/http/httpapi"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra/credentials"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra/geoip"
	"github.com/imranraza-AI/Clothing-brand-website/internal/metrics"
	"github.com/imranraza-AI/Clothing-brand-website/internal/providers/genai"
	"github.com/imranraza-AI/Clothing-brand-website/internal/providers/genaisdk"
	"github.com/imranraza-AI/Clothing-brand-website/internal/storage"
	"github.com/imranraza-AI/Clothing-brand-website/internal/studio"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	if dbpool != nil {
		defer dbpool.Close()
	}

	keys := studio.NewKeyring(cfg.GeminiAPIKey)
	app := &handlers.App{Config: cfg, Logger: &logger, Keys: keys}
	var recorder studio.JobRecorder
	if dbpool != nil {
		runner := infra.NewSQLRunner(dbpool, logger)
		if err := repo.EnsureSchema(ctx, runner); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare database schema")
		}
		store := credentials.NewStore(runner)
		if cfg.GeminiAPIKey == "" {
			if stored, err := store.GeminiAPIKey(ctx); err != nil {
				logger.Warn().Err(err).Msg("load stored api key")
			} else if stored != "" {
				keys = studio.NewKeyring(stored)
				app.Keys = keys
			}
		}
		keys.OnSelect(func(ctx context.Context, key string) error {
			return store.SetGeminiAPIKey(ctx, key, "studio")
		})
		jobs := repo.NewStudioJobRepository(runner)
		recorder = jobs
		app.Jobs = jobs
	} else {
		logger.Info().Msg("DATABASE_URL not set; api key and job history stay in memory")
	}

	results, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare result storage")
	}
	app.Results = results

	locales, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable; locale hints disabled")
	}
	routerOpts := httpapi.Options{}
	if locales != nil {
		defer locales.Close()
		routerOpts.Locales = locales
	}

	provider := newProvider(cfg, keys, &logger)
	app.Stylist = studio.NewStylist(studio.StylistOptions{
		Provider: provider,
		Observer: metrics.StudioObserver{},
		Logger:   &logger,
	})
	app.Studio = studio.NewRegistry(studio.RegistryOptions{
		Provider: provider,
		Keys:     keys,
		Selector: keys,
		Builder: studio.NewRequestBuilder(studio.BuilderOptions{
			MaxImageBytes:     cfg.MaxImageBytes,
			MaxImageDimension: cfg.MaxImageDim,
		}),
		Archive:          results,
		Recorder:         recorder,
		Observer:         metrics.StudioObserver{},
		Logger:           &logger,
		PollInterval:     cfg.PollInterval,
		MaxPollDuration:  cfg.MaxPollDuration,
		SelectionTimeout: cfg.SelectionTimeout,
		IdleTimeout:      cfg.SessionIdle,
	})
	defer app.Studio.Shutdown()

	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, routerOpts))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("backend", cfg.GenAIBackend).Msg("API listening")
		return server.Run(gctx)
	})
	g.Go(func() error {
		return app.Studio.Run(gctx)
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

// geminiProvider serves both media jobs and stylist text.
type geminiProvider interface {
	studio.Provider
	studio.TextProvider
}

func newProvider(cfg *infra.Config, keys studio.KeySource, logger *infra.Logger) geminiProvider {
	httpClient := &http.Client{Timeout: 2 * time.Minute}
	if cfg.GenAIBackend == infra.BackendSDK {
		return genaisdk.New(genaisdk.Options{
			Keys:       keys,
			BaseURL:    cfg.GeminiBaseURL,
			ImageModel: cfg.GeminiImageModel,
			VideoModel: cfg.GeminiVideoModel,
			ChatModel:  cfg.GeminiChatModel,
			TipModel:   cfg.GeminiTipModel,
			HTTPClient: httpClient,
			Logger:     logger,
		})
	}
	return genai.NewClient(genai.Options{
		Keys:       keys,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiImageModel,
		VideoModel: cfg.GeminiVideoModel,
		ChatModel:  cfg.GeminiChatModel,
		TipModel:   cfg.GeminiTipModel,
		HTTPClient: httpClient,
		Logger:     logger,
	})
}
