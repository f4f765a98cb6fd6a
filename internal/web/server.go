// Package web serves the encyclopedia over HTTP with gin.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"

	"github.com/aretw0/encyclopedia/internal/markdown"
	source "github.com/aretw0/encyclopedia/pkg/adapters/lifecycle"
	"github.com/aretw0/encyclopedia/pkg/core"
)

// Config holds the web server settings.
type Config struct {
	Addr            string
	SSL             bool
	ReadOnly        bool
	Logger          *slog.Logger
	Renderer        *markdown.Renderer // nil selects markdown defaults
	TrustedProxies  []string
	ShutdownTimeout time.Duration
}

// WebServer wires the encyclopedia service to HTTP routes.
type WebServer struct {
	Router    *gin.Engine
	Service   *core.Service
	Config    Config
	StartTime time.Time

	renderer  *markdown.Renderer
	pages     *pageCache
	templates map[string]*template.Template
	logger    *slog.Logger
}

// NewServer builds the router, middleware and templates.
func NewServer(svc *core.Service, cfg Config) (*WebServer, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.TrustedProxies == nil {
		cfg.TrustedProxies = []string{"127.0.0.1", "::1"}
	}

	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		if renderer, err = markdown.New(markdown.Options{}); err != nil {
			return nil, err
		}
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	// Titles may contain an escaped "/".
	router.UseRawPath = true
	router.UnescapePathValues = true
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}
	// Only when TLS terminates here, not behind a reverse proxy.
	if cfg.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}

	s := &WebServer{
		Router:    router,
		Service:   svc,
		Config:    cfg,
		StartTime: time.Now(),
		renderer:  renderer,
		pages:     newPageCache(),
		templates: templates,
		logger:    cfg.Logger,
	}

	router.Use(requestLogger(cfg.Logger), gin.CustomRecovery(s.recover))
	router.Use(secure.New(secureConfig))

	s.setupRoutes()
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *WebServer) setupRoutes() {
	r := s.Router

	r.GET("/", s.indexPage)
	r.GET("/wiki/:title", s.entryPage)
	r.GET("/wiki/:title/raw", s.rawEntry)
	r.GET("/wiki/:title/edit", s.editPage)
	r.POST("/wiki/:title/edit", s.submitEdit)
	r.GET("/create", s.createPage)
	r.POST("/create", s.submitCreate)
	r.GET("/search", s.searchPage)
	r.POST("/search", s.searchPage)
	r.GET("/random", s.randomEntry)

	api := r.Group("/api")
	api.GET("/entries", s.apiListEntries)
	api.GET("/entries/:title", s.apiGetEntry)

	r.GET("/healthz", s.healthz)
	r.GET("/debug/state", s.debugState)

	r.NoRoute(func(c *gin.Context) {
		s.renderError(c, http.StatusNotFound, "Page not found.", c.Request.URL.Path)
	})
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *WebServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("listening", "addr", s.Config.Addr)
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.ShutdownTimeout)
	defer cancel()
	if s.logger != nil {
		s.logger.Info("shutting down")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// WatchEntries drops rendered pages when their file changes on disk.
// It is a no-op when the repository cannot be watched.
func (s *WebServer) WatchEntries(ctx context.Context) error {
	events, err := s.Service.Watch(ctx, "*")
	if errors.Is(err, core.ErrUnsupported) {
		if s.logger != nil {
			s.logger.Debug("repository not watchable, page cache relies on mtimes")
		}
		return nil
	}
	if err != nil {
		return err
	}

	src := source.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		for e := range src.Events() {
			if ev, ok := e.(core.Event); ok {
				s.pages.Invalidate(ev.Key)
			}
			if s.logger != nil {
				s.logger.Debug("entry changed on disk", "event", e.String())
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		if s.logger != nil {
			s.logger.Error("page cache invalidation stopped", "error", err)
		}
	}))
	return nil
}

func (s *WebServer) recover(c *gin.Context, recovered any) {
	s.renderError(c, http.StatusInternalServerError, "Something went wrong.", fmt.Sprint(recovered))
}
