package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ByteNewz/internal/config"
	"ByteNewz/internal/infrastructure/handoff"
	"ByteNewz/internal/infrastructure/httpx"
	"ByteNewz/internal/infrastructure/llm"
	"ByteNewz/internal/infrastructure/news"
	"ByteNewz/internal/infrastructure/scheduler"
	"ByteNewz/internal/infrastructure/storage"
	"ByteNewz/internal/logging"
	"ByteNewz/internal/ports"
	"ByteNewz/internal/provider"
	"ByteNewz/internal/queue"
	"ByteNewz/internal/transport/httpapi"
	"ByteNewz/internal/usecase"
	"ByteNewz/pkg/logger"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	usage   *storage.UsageRepository
	pruner  *scheduler.Interval
	queue   *queue.Queue
	source  *news.ProviderSource
	feed    *usecase.FeedService
	content *usecase.ContentGenerator
	server  *http.Server
}

// New builds the application. The usage ledger is opened only when a driver
// is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var (
		usage    *storage.UsageRepository
		recorder ports.UsageRecorder
	)
	if cfg.Usage.Driver != "" {
		repo, err := storage.OpenUsageRepository(ctx, cfg.Usage.Driver, cfg.Usage.DSN)
		if err != nil {
			return nil, fmt.Errorf("open usage ledger: %w", err)
		}
		usage = repo
		recorder = repo
	}

	clientFor := func(name string, timeout time.Duration) *http.Client {
		return httpx.NewClient(timeout, name, recorder, baseLogger.With("component", "http."+name))
	}

	registry := provider.NewRegistry()
	registry.Register(news.NewNewsAPI(news.Endpoint{
		BaseURL:    cfg.News.NewsAPI.BaseURL,
		APIKey:     cfg.News.NewsAPI.APIKey,
		HTTPClient: clientFor("newsapi", cfg.News.Timeout),
	}))
	registry.Register(news.NewAPITube(news.Endpoint{
		BaseURL:    cfg.News.APITube.BaseURL,
		APIKey:     cfg.News.APITube.APIKey,
		HTTPClient: clientFor("apitube", cfg.News.Timeout),
	}))
	registry.Register(news.NewNewsDataHub(news.Endpoint{
		BaseURL:    cfg.News.NewsDataHub.BaseURL,
		APIKey:     cfg.News.NewsDataHub.APIKey,
		HTTPClient: clientFor("newsdatahub", cfg.News.Timeout),
	}))
	registry.Register(news.NewRSS(cfg.News.RSS.Feeds, clientFor("rss", cfg.News.Timeout),
		baseLogger.With("component", "provider.rss")))

	source := news.NewProviderSource(registry, cfg.News.Provider, baseLogger.With("component", "source"))

	q := queue.New(cfg.AI.RequestSpacing, queue.WithLogger(baseLogger.With("component", "queue")))
	q.Start()

	content := usecase.NewContentGenerator(usecase.ContentGeneratorDeps{
		Generator: textGenerator(cfg.AI, clientFor(cfg.AI.Provider, cfg.AI.Timeout)),
		Queue:     q,
		Logger:    baseLogger.With("component", "content"),
	})

	feed := usecase.NewFeedService(usecase.FeedDeps{
		Source: source,
		Defaults: usecase.FeedDefaults{
			Language: cfg.News.Language,
			Country:  cfg.News.Country,
			PageSize: cfg.News.PageSize,
		},
		Logger: baseLogger.With("component", "feed"),
	})

	api := httpapi.NewServer(httpapi.Deps{
		Feed:           feed,
		Proxy:          source,
		Content:        content,
		Articles:       handoff.NewStore(baseLogger.With("component", "handoff")),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         baseLogger.With("component", "http"),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ErrorLog:          logger.New(baseLogger, "http.server"),
	}

	var pruner *scheduler.Interval
	if usage != nil && cfg.Usage.Retention > 0 {
		pruner = scheduler.NewInterval("usage.prune", cfg.Usage.PruneInterval, baseLogger.With("component", "scheduler"))
	}

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		usage:   usage,
		pruner:  pruner,
		queue:   q,
		source:  source,
		feed:    feed,
		content: content,
		server:  server,
	}, nil
}

// textGenerator returns nil when the selected provider has no key, which
// makes content generation fall back to the article text.
func textGenerator(cfg config.AIConfig, hc *http.Client) ports.TextGenerator {
	switch cfg.Provider {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil
		}
		return llm.NewChatGPTClient(cfg.OpenAI, hc)
	default:
		if cfg.Gemini.APIKey == "" {
			return nil
		}
		return llm.NewGeminiClient(cfg.Gemini, hc)
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
// The usage ledger is pruned in the background while serving.
func (a *Application) Run(ctx context.Context) error {
	if a.pruner != nil {
		if err := a.pruner.Start(ctx, a.pruneUsage); err != nil {
			return fmt.Errorf("start usage pruning: %w", err)
		}
		defer a.pruner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			"addr", a.server.Addr,
			"news_provider", a.source.Active(),
			"ai_provider", a.cfg.AI.Provider,
		)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down http server")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (a *Application) pruneUsage(ctx context.Context, now time.Time) error {
	n, err := a.usage.Prune(ctx, now.Add(-a.cfg.Usage.Retention))
	if err != nil {
		return err
	}
	if n > 0 {
		a.logger.Info("usage events pruned", "deleted", n)
	}
	return nil
}

// Close stops the request queue and releases the usage ledger.
func (a *Application) Close() error {
	a.queue.Close()
	if err := a.usage.Close(); err != nil {
		return fmt.Errorf("close usage ledger: %w", err)
	}
	return nil
}

// Handler exposes the routed HTTP handler.
func (a *Application) Handler() http.Handler { return a.server.Handler }

// Feed returns the feed use case.
func (a *Application) Feed() *usecase.FeedService { return a.feed }

// Content returns the AI content generator.
func (a *Application) Content() *usecase.ContentGenerator { return a.content }

// Usage returns the usage ledger reader, or nil when it is disabled.
func (a *Application) Usage() ports.UsageReader {
	if a.usage == nil {
		return nil
	}
	return a.usage
}
