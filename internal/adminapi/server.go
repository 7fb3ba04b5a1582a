// Package adminapi is the forwarder's read-only management surface: a
// small Gin HTTP server exposing /health and /stats. It never touches
// engine.Forwarder.Answer's hot path and has no write endpoints — there
// is no runtime-reconfiguration surface, per spec's Non-goals.
package adminapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hydraforward/hydraforward/internal/adminapi/handlers"
	"github.com/hydraforward/hydraforward/internal/adminapi/middleware"
)

// Server is the admin REST API server.
type Server struct {
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
}

// New builds a Server bound to addr, reporting on forwarder's state.
// apiKey, if non-empty, is required via the X-API-Key header on every
// /api/v1 request; the /swagger/* route is served without it.
func New(addr string, forwarder handlers.StatsProvider, apiKey string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.SlogRequestLogger(logger))

	h := handlers.New(forwarder, logger)
	registerRoutes(engine, h, apiKey)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{logger: logger, engine: engine, httpServer: httpServer}
}

func (s *Server) Addr() string {
	if s.httpServer == nil {
		return ""
	}
	return s.httpServer.Addr
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
