package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hydraforward/hydraforward/internal/adminapi/models"
)

// Health godoc
// @Summary Health check
// @Description Reports that the process is up and serving
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Security ApiKeyAuth
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns process uptime, host CPU/memory usage, and a
// @Description snapshot of the forwarding engine's upstream connections
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	uptime := time.Since(h.startTime)

	memStats := models.MemoryStats{}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		memStats.TotalMB = float64(vmStat.Total) / 1024 / 1024
		memStats.FreeMB = float64(vmStat.Available) / 1024 / 1024
		memStats.UsedMB = float64(vmStat.Used) / 1024 / 1024
		memStats.UsedPercent = vmStat.UsedPercent
	}

	cpuStats := models.CPUStats{NumCPU: runtime.NumCPU()}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		cpuStats.UsedPercent = cpuPercent[0]
		cpuStats.IdlePercent = 100.0 - cpuPercent[0]
	}

	var fwdStats models.ForwarderStats
	var upstreams []models.UpstreamHealth
	if h.forwarder != nil {
		s := h.forwarder.Stats()
		fwdStats = models.ForwarderStats{ConfiguredServers: s.ConfiguredServers, ActiveUpstreams: s.ActiveUpstreams}
		for _, u := range h.forwarder.UpstreamHealthSnapshot() {
			upstreams = append(upstreams, models.UpstreamHealth{Address: u.Address, Successes: u.Successes, Failures: u.Failures})
		}
	}

	c.JSON(http.StatusOK, models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		CPU:           cpuStats,
		Memory:        memStats,
		Forwarder:     fwdStats,
		Upstreams:     upstreams,
	})
}
