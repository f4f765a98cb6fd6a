package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/aretw0/encyclopedia"
	"github.com/aretw0/encyclopedia/internal/markdown"
	"github.com/aretw0/encyclopedia/internal/web"
)

var (
	serveAddr     string
	serveReadOnly bool
	serveSSL      bool
	serveNoWatch  bool
	serveHardWrap bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the encyclopedia over HTTP",
	Long: `Serve the entries directory as a wiki. Settings come from ENCYCLOPEDIA_*
environment variables; flags override them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.Addr = serveAddr
		}
		if flags.Changed("read-only") {
			cfg.ReadOnly = serveReadOnly
		}
		if flags.Changed("ssl") {
			cfg.SSL = serveSSL
		}
		if flags.Changed("hard-wraps") {
			cfg.MarkdownHardWraps = serveHardWrap
		}
		if serveNoWatch {
			cfg.Watch = false
		}

		logger := slog.Default()
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		renderer, err := markdown.New(markdown.Options{
			Extensions: cfg.MarkdownExtensions,
			HardWraps:  cfg.MarkdownHardWraps,
			Unsafe:     cfg.UnsafeHTML,
		})
		if err != nil {
			return fmt.Errorf("invalid markdown settings: %w", err)
		}

		dir := resolveDir()
		svc, err := encyclopedia.New(dir, serviceOptions(cmd,
			encyclopedia.WithAutoInit(!cfg.ReadOnly),
			encyclopedia.WithReadOnly(cfg.ReadOnly),
			encyclopedia.WithWatcherErrorHandler(func(err error) {
				logger.Warn("watcher error", "error", err)
			}),
		)...)
		if err != nil {
			return fmt.Errorf("open entries directory %q: %w", dir, err)
		}

		srv, err := web.NewServer(svc, web.Config{
			Addr:            cfg.Addr,
			SSL:             cfg.SSL,
			ReadOnly:        cfg.ReadOnly,
			Logger:          logger,
			Renderer:        renderer,
			ShutdownTimeout: cfg.ShutdownTimeout,
		})
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Watch {
			if err := srv.WatchEntries(ctx); err != nil {
				logger.Warn("watching disabled", "error", err)
			}
		}

		logger.Info("serving encyclopedia", "dir", dir, "addr", cfg.Addr, "read_only", cfg.ReadOnly)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $ENCYCLOPEDIA_ADDR or 127.0.0.1:8000)")
	serveCmd.Flags().BoolVar(&serveReadOnly, "read-only", false, "Reject every write")
	serveCmd.Flags().BoolVar(&serveSSL, "ssl", false, "Redirect to HTTPS and send HSTS headers")
	serveCmd.Flags().BoolVar(&serveHardWrap, "hard-wraps", false, "Render single newlines in entries as line breaks")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the entries directory for outside changes")
}
