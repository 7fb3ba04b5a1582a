// Package models holds the JSON response shapes the admin API returns.
package models

import "time"

// StatusResponse is the /health payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// CPUStats contains system CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains system memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// ForwarderStats reflects engine.Forwarder.Stats().
type ForwarderStats struct {
	ConfiguredServers int `json:"configured_servers"`
	ActiveUpstreams   int `json:"active_upstreams"`
}

// UpstreamHealth reflects engine.Forwarder.UpstreamHealthSnapshot().
type UpstreamHealth struct {
	Address   string `json:"address"`
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}

// ServerStatsResponse is the /stats payload: process uptime, host CPU and
// memory usage, and a snapshot of the forwarding engine's state.
type ServerStatsResponse struct {
	Uptime        string           `json:"uptime"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	StartTime     time.Time        `json:"start_time"`
	CPU           CPUStats         `json:"cpu"`
	Memory        MemoryStats      `json:"memory"`
	Forwarder     ForwarderStats   `json:"forwarder"`
	Upstreams     []UpstreamHealth `json:"upstreams"`
}

// ZoneEntry names one configured server and the zones routed to it.
type ZoneEntry struct {
	Address string   `json:"address"`
	Zones   []string `json:"zones"`
}

// ZonesResponse is the /zones payload.
type ZonesResponse struct {
	Servers []ZoneEntry `json:"servers"`
}
