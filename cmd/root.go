// Package cmd defines the CLI commands for the unimall crawler.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alibyilmaz/unimallaicase/internal/config"
	"github.com/alibyilmaz/unimallaicase/internal/crawler"
	"github.com/alibyilmaz/unimallaicase/internal/logging"
	"github.com/alibyilmaz/unimallaicase/internal/server"
	"github.com/alibyilmaz/unimallaicase/internal/transform"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App is the application surface the commands use.
type App interface {
	Config() config.Config
	Logger() *zap.Logger
	Crawler() crawler.Crawler
	Transformer() transform.Transformer
	Run(ctx context.Context) error
	Close(ctx context.Context)
}

// newApp is the application factory, replaced in tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	built, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &serverApp{app: built, cfg: cfg, logger: logger}, nil
}

type serverApp struct {
	app    *server.App
	cfg    config.Config
	logger *zap.Logger
}

func (a *serverApp) Config() config.Config { return a.cfg }
func (a *serverApp) Logger() *zap.Logger { return a.logger }
func (a *serverApp) Crawler() crawler.Crawler { return a.app.Crawler() }
func (a *serverApp) Transformer() transform.Transformer { return a.app.Transformer() }
func (a *serverApp) Run(ctx context.Context) error { return a.app.Run(ctx) }
func (a *serverApp) Close(ctx context.Context) { a.app.Close(ctx) }

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "unimall",
		Short: "Crawl, translate and score Trendyol product pages.",
		Long: `unimall crawls a product detail page and its variants, extracts the
product data, translates it to English through a chat-completion endpoint and
scores the listing quality. It runs as a one-shot CLI or as an HTTP service.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("logger init failed: %w", err)
			}
			zap.ReplaceGlobals(logger)

			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close(cmd.Context())
				_ = appInstance.Logger().Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults and CRAWLER_* env when empty)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newTransformCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
