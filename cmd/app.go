package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fr33kai/Fr3kAi/internal/assistant"
	"github.com/fr33kai/Fr3kAi/internal/config"
	"github.com/fr33kai/Fr3kAi/internal/logging"
	"github.com/fr33kai/Fr3kAi/internal/memory"
	"github.com/fr33kai/Fr3kAi/internal/provider"
	"github.com/fr33kai/Fr3kAi/internal/web"
)

// app holds the long-lived pieces every command needs.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   memory.Store
	session *assistant.Session
}

// newApp loads config, opens the log and the memory store and starts a session.
func newApp() (*app, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg)
}

func buildApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	sess, err := assistant.NewSession(assistant.Options{
		NewGenerator:  generatorFactory(cfg, logger),
		NewSearcher:   searcherFactory(cfg),
		Fetcher:       web.NewFetcher(time.Duration(cfg.Web.FetchTimeoutSec) * time.Second),
		Store:         store,
		Logger:        logger,
		HistoryWindow: cfg.History.MaxTurns,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Info("fr3kai started",
		zap.String("version", appVersion),
		zap.String("provider", cfg.Provider),
		zap.String("model", resolveModel(cfg)),
		zap.String("memory_backend", cfg.Memory.Backend))

	return &app{cfg: cfg, logger: logger, store: store, session: sess}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close memory store", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func openStore(cfg *config.Config, logger *zap.Logger) (memory.Store, error) {
	path, err := cfg.MemoryPath()
	if err != nil {
		return nil, err
	}
	store, err := memory.Open(cfg.Memory, path, logger)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}
	return store, nil
}

// resolveModel picks the model: CLI flag > config file > provider defaults YAML.
func resolveModel(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if pc := cfg.GetProviderConfig(cfg.Provider); pc.Model != "" {
		return pc.Model
	}
	return config.KnownProviderModels[cfg.Provider]
}

// generatorFactory builds a provider-backed Generator for whatever key the
// user enters; provider, model and base URL come from cfg.
func generatorFactory(cfg *config.Config, logger *zap.Logger) assistant.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (assistant.Generator, error) {
		pc := cfg.GetProviderConfig(cfg.Provider)
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = config.KnownProviderBaseURLs[cfg.Provider]
		}
		p, err := provider.New(ctx, provider.Settings{
			Name:    cfg.Provider,
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   resolveModel(cfg),
		})
		if err != nil {
			return nil, err
		}
		return &provider.Client{
			Provider:     p,
			Model:        resolveModel(cfg),
			SystemPrompt: cfg.SystemPrompt,
			MaxTokens:    cfg.MaxTokens,
			Logger:       logger.Named("provider"),
		}, nil
	}
}

func searcherFactory(cfg *config.Config) assistant.SearcherFactory {
	return func() (assistant.Searcher, error) {
		return web.NewSearcher(cfg.Web.SearchProvider, cfg.Web.SearchAPIKey, cfg.Web.MaxResults), nil
	}
}
