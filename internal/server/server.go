package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/observability"
	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
)

const (
	Version         = "0.1.0"
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	Name        string
	Addr        string
	CorsOrigins []string
	// Token, when set, is required as a bearer token on /v1 routes.
	Token string
	// DecompileCapacity is the default output bound for /v1/wmlc/decompile.
	DecompileCapacity int
	Budget            int
	MaxText           int
	Logger            zerolog.Logger
}

// Workbench serves the codec operations over HTTP for inspection and tests.
type Workbench struct {
	opts      Options
	router    *gin.Engine
	startedAt time.Time
}

func New(opts Options) *Workbench {
	if opts.Name == "" {
		opts.Name = "meshwap"
	}
	if opts.Addr == "" {
		opts.Addr = ":9280"
	}
	if opts.DecompileCapacity <= 0 {
		opts.DecompileCapacity = 16 * 1024
	}
	if opts.Budget <= 0 {
		opts.Budget = wdp.DefaultBudget
	}
	if opts.MaxText <= 0 {
		opts.MaxText = protocol.MaxText
	}
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(opts.Logger))
	r.Use(observability.RequestMetricsMiddleware(opts.Name))
	if len(opts.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: opts.CorsOrigins,
			AllowMethods: []string{"GET", "POST"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	w := &Workbench{opts: opts, router: r, startedAt: time.Now()}
	w.registerRoutes()
	return w
}

func (w *Workbench) Handler() http.Handler {
	return w.router
}

// Run serves until ctx ends, then shuts down gracefully.
func (w *Workbench) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              w.opts.Addr,
		Handler:           w.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		w.opts.Logger.Info().Str("addr", w.opts.Addr).Msg("workbench listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		w.opts.Logger.Info().Msg("workbench stopped")
		return nil
	}
}
