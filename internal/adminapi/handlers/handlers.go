// Package handlers implements the admin API's HTTP endpoints. They are
// strictly observational: nothing here sits in engine.Forwarder.Answer's
// hot path, and no endpoint can mutate forwarding state.
//
// @title hydraforward Admin API
// @version 1.0
// @description Read-only observability surface for the DNS forwarder:
// @description health, stats, and the effective zone table.
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:8081
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package handlers

import (
	"log/slog"
	"time"

	"github.com/hydraforward/hydraforward/internal/engine"
)

// StatsProvider is the subset of engine.Forwarder the admin API reads.
type StatsProvider interface {
	Stats() engine.Stats
	UpstreamHealthSnapshot() []engine.UpstreamHealth
	Zones() []engine.ZoneEntry
}

// Handler contains the admin API's dependencies.
type Handler struct {
	logger    *slog.Logger
	forwarder StatsProvider
	startTime time.Time
}

// New creates a Handler that reports on forwarder's state.
func New(forwarder StatsProvider, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		forwarder: forwarder,
		startTime: time.Now(),
	}
}
