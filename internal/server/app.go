// Package server builds the application's dependency graph and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/api"
	"github.com/alibyilmaz/unimallaicase/internal/config"
	"github.com/alibyilmaz/unimallaicase/internal/crawler"
	collyfetcher "github.com/alibyilmaz/unimallaicase/internal/fetcher/colly"
	headlessfetcher "github.com/alibyilmaz/unimallaicase/internal/fetcher/headless"
	"github.com/alibyilmaz/unimallaicase/internal/headless/detector"
	"github.com/alibyilmaz/unimallaicase/internal/metrics"
	"github.com/alibyilmaz/unimallaicase/internal/telemetry"
	"github.com/alibyilmaz/unimallaicase/internal/transform"
	"github.com/alibyilmaz/unimallaicase/internal/translate"
)

// App contains the application's dependencies.
type App struct {
	cfg            config.Config
	logger         *zap.Logger
	crawler        *crawler.Service
	transformer    *transform.Service
	apiServer      *api.Server
	headless       *headlessfetcher.Fetcher
	tracerShutdown func(context.Context) error
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{cfg: cfg, logger: logger}
	metrics.Init()

	tp, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = tp.Shutdown

	app.logger.Info("building application dependencies",
		zap.String("site_domain", cfg.Crawler.SiteDomain),
		zap.String("fetcher_backend", cfg.Fetcher.Backend),
		zap.String("llm_model", cfg.LLM.Model),
	)

	fetcher, err := app.setupFetcher()
	if err != nil {
		app.Close(ctx)
		return nil, err
	}

	extractor := crawler.NewExtractor(cfg.Crawler.CDNOrigin, logger.Named("extractor"))
	resolver, err := crawler.NewResolver(fetcher, extractor, cfg.Crawler.BaseURL, logger.Named("resolver"))
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("resolver init failed: %w", err)
	}
	app.crawler = crawler.NewService(resolver, crawler.NewCache(), logger.Named("crawler"))

	translator, err := translate.NewClient(translate.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLMTimeout(),
	}, logger.Named("translate"))
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("translator init failed: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		app.logger.Warn("no LLM API key configured, translation requests are sent unauthenticated")
	}

	probe := crawler.NewImageProbe(fetcher, cfg.Crawler.SiteDomain, logger.Named("image_probe"))
	app.transformer, err = transform.NewService(translator, probe, cfg.Transform.Concurrency, logger.Named("transform"))
	if err != nil {
		app.Close(ctx)
		return nil, fmt.Errorf("transform init failed: %w", err)
	}

	app.apiServer = api.NewServer(app.crawler, app.transformer, cfg, logger.Named("api"))
	return app, nil
}

func (a *App) setupFetcher() (crawler.Fetcher, error) {
	plain := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.Crawler.UserAgent,
		Timeout:   a.cfg.HTTPTimeout(),
	})
	if a.cfg.Fetcher.Backend == config.BackendColly {
		a.logger.Info("using colly fetcher", zap.String("user_agent", a.cfg.Crawler.UserAgent))
		return plain, nil
	}

	headless, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
		MaxParallel:       a.cfg.Headless.MaxParallel,
		UserAgent:         a.cfg.Crawler.UserAgent,
		NavigationTimeout: a.cfg.NavTimeout(),
		WaitSelector:      a.cfg.Headless.WaitSelector,
		ExecPath:          a.cfg.Headless.ExecPath,
	})
	if err != nil {
		return nil, fmt.Errorf("headless fetcher init failed: %w", err)
	}
	a.headless = headless
	a.logger.Info("using headless fetcher",
		zap.String("backend", a.cfg.Fetcher.Backend),
		zap.Int("max_parallel", a.cfg.Headless.MaxParallel),
	)
	if a.cfg.Fetcher.Backend == config.BackendHeadless {
		return headless, nil
	}
	detect := detector.NewHeuristic(a.cfg.Headless.PromotionThresh, nil)
	return crawler.NewPromotingFetcher(plain, headless, detect, a.logger.Named("promote")), nil
}

// Crawler returns the crawl service.
func (a *App) Crawler() *crawler.Service {
	return a.crawler
}

// Transformer returns the transform service.
func (a *App) Transformer() *transform.Service {
	return a.transformer
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run listens on the configured port and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown initiated")
	case serveErr = <-errCh:
		a.logger.Error("http server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.Close(shutdownCtx)

	if serveErr != nil {
		return fmt.Errorf("http server: %w", serveErr)
	}
	return nil
}

// Close releases the headless browser and flushes traces.
func (a *App) Close(ctx context.Context) {
	if a.headless != nil {
		a.headless.Close()
		a.headless = nil
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
		a.tracerShutdown = nil
	}
	a.logger.Info("shutdown complete")
}
