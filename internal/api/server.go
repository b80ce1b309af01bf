package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/heimdex/heimdex-annotate/internal/annotation"
	"github.com/heimdex/heimdex-annotate/internal/labels"
	"github.com/heimdex/heimdex-annotate/internal/playback"
	"github.com/heimdex/heimdex-annotate/internal/probe"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port        int
	Version     string
	Service     annotation.AnnotationService
	Repository  annotation.Repository
	Runner      *annotation.Runner
	Media       playback.MediaServer
	Clocks      *playback.Registry
	Palette     *labels.Palette
	Prober      probe.Prober
	AuthEnabled bool
	// MarkerInterval overrides the timeline's base marker interval when
	// positive.
	MarkerInterval float64
	Logger         *slog.Logger
	StartTime      time.Time
}

func (cfg *ServerConfig) setDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Palette == nil {
		cfg.Palette = labels.New(cfg.Logger)
	}
	if cfg.Clocks == nil {
		cfg.Clocks = playback.NewRegistry()
	}
	if cfg.Media == nil {
		cfg.Media = playback.NewServer(cfg.Logger)
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
