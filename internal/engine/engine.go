// Package engine implements the forwarder: given a client query, it asks
// the zone router which upstreams to try, fans the query out to all of
// them concurrently, and returns whichever answers first — or nothing, if
// the 2-second budget elapses before any of them do (§4.5).
package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hydraforward/hydraforward/internal/config"
	"github.com/hydraforward/hydraforward/internal/dnswire"
	"github.com/hydraforward/hydraforward/internal/transport"
	"github.com/hydraforward/hydraforward/internal/upstream"
	"github.com/hydraforward/hydraforward/internal/zonerouter"
)

// Timeout is the outer wall-clock budget for one Answer call.
const Timeout = 2 * time.Second

// Forwarder fans a query out to the upstreams a query's zone selects,
// maintaining one persistent upstream.Client per address for the life of
// the forwarder.
type Forwarder struct {
	cfg     config.Configuration
	network string
	dialer  transport.Dialer
	clock   transport.Clock
	logger  *slog.Logger
	timeout time.Duration

	clientsMu sync.Mutex
	clients   map[string]*upstream.Client
	health    map[string]*upstreamHealth
}

// upstreamHealth is a purely observational per-upstream counter; it is
// never read back into routing (§4.2's router stays a pure zone match).
type upstreamHealth struct {
	successes atomic.Uint64
	failures  atomic.Uint64
}

// New builds a Forwarder for one transport (network is "udp" or "tcp");
// §6 calls for a separate forwarder per downstream transport, each
// driving upstream clients over the matching transport.
func New(cfg config.Configuration, network string, dialer transport.Dialer, clock transport.Clock, logger *slog.Logger) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forwarder{
		cfg:     cfg,
		network: network,
		dialer:  dialer,
		clock:   clock,
		logger:  logger,
		timeout: Timeout,
		clients: make(map[string]*upstream.Client),
		health:  make(map[string]*upstreamHealth),
	}
}

// Answer implements §4.5. It returns (response, true) on a winning
// upstream reply, or (nil, false) if parsing fails, no servers are
// chosen, or the timeout elapses first.
func (f *Forwarder) Answer(ctx context.Context, buffer []byte) ([]byte, bool) {
	corrID := uuid.New().String()

	q, err := dnswire.ExtractFirstQuestion(buffer)
	if err != nil {
		f.logger.Debug("dropping unparseable query", "corr_id", corrID, "error", err)
		return nil, false
	}

	labels := dnswire.SplitLabels(q.Name)
	servers := zonerouter.Choose(f.cfg, labels)
	if len(servers) == 0 {
		f.logger.Debug("no upstream servers selected", "corr_id", corrID, "qname", q.Name)
		return nil, false
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	success := make(chan []byte, len(servers))
	for _, s := range servers {
		address := s.Address.String()
		client := f.clientFor(s.Address)
		health := f.healthFor(address)
		go func() {
			queryCopy := append([]byte(nil), buffer...)
			resp, err := client.RPC(raceCtx, queryCopy)
			if err != nil {
				health.failures.Add(1)
				f.logger.Debug("upstream did not answer", "corr_id", corrID, "address", address, "error", err)
				return
			}
			health.successes.Add(1)
			select {
			case success <- resp:
			default:
			}
		}()
	}

	select {
	case resp := <-success:
		return resp, true
	case <-f.clock.After(f.timeout):
		f.logger.Debug("forwarding timed out", "corr_id", corrID, "qname", q.Name)
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// clientFor returns the persistent upstream.Client for address, creating
// it on first use.
func (f *Forwarder) clientFor(address config.Address) *upstream.Client {
	key := address.String()

	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	if c, ok := f.clients[key]; ok {
		return c
	}
	c := upstream.NewClient(key, f.network, f.dialer, f.clock, f.logger)
	f.clients[key] = c
	return c
}

// healthFor returns the observational health counters for address,
// creating them on first use.
func (f *Forwarder) healthFor(address string) *upstreamHealth {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	if h, ok := f.health[address]; ok {
		return h
	}
	h := &upstreamHealth{}
	f.health[address] = h
	return h
}

// Stats is a point-in-time snapshot of forwarder state, exposed for the
// admin API's /stats endpoint. It is read-only and never touched by the
// Answer hot path beyond the counts below.
type Stats struct {
	ConfiguredServers int
	ActiveUpstreams   int
}

// Stats returns a snapshot of how many servers are configured and how
// many upstream clients have been lazily created so far.
func (f *Forwarder) Stats() Stats {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()
	return Stats{
		ConfiguredServers: len(f.cfg.Servers),
		ActiveUpstreams:   len(f.clients),
	}
}

// UpstreamHealth is a read-only snapshot of one upstream's observed
// success/failure counts since the forwarder started.
type UpstreamHealth struct {
	Address   string
	Successes uint64
	Failures  uint64
}

// UpstreamHealthSnapshot returns the current health counters for every
// upstream the forwarder has queried at least once. It is purely
// observational (§D.2) and never influences zone routing.
func (f *Forwarder) UpstreamHealthSnapshot() []UpstreamHealth {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()

	out := make([]UpstreamHealth, 0, len(f.health))
	for addr, h := range f.health {
		out = append(out, UpstreamHealth{
			Address:   addr,
			Successes: h.successes.Load(),
			Failures:  h.failures.Load(),
		})
	}
	return out
}

// ZoneEntry names one configured server and the zones routed to it
// (empty Zones means it is a default/zoneless server), for the admin
// API's /zones endpoint.
type ZoneEntry struct {
	Address string
	Zones   []string
}

// Zones returns the effective zone table the forwarder is configured
// with.
func (f *Forwarder) Zones() []ZoneEntry {
	out := make([]ZoneEntry, 0, len(f.cfg.Servers))
	for _, s := range f.cfg.Servers {
		zones := make([]string, 0, len(s.Zones))
		for _, z := range s.Zones {
			zones = append(zones, z.String())
		}
		out = append(out, ZoneEntry{Address: s.Address.String(), Zones: zones})
	}
	return out
}

// Close disconnects every upstream client the forwarder has created.
func (f *Forwarder) Close() {
	f.clientsMu.Lock()
	defer f.clientsMu.Unlock()
	for _, c := range f.clients {
		c.Disconnect()
	}
}
