package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hydraforward/hydraforward/internal/adminapi/models"
)

// Zones godoc
// @Summary Effective zone table
// @Description Returns the configured upstream servers and the zones routed to each
// @Tags system
// @Produce json
// @Success 200 {object} models.ZonesResponse
// @Security ApiKeyAuth
// @Router /zones [get]
func (h *Handler) Zones(c *gin.Context) {
	var resp models.ZonesResponse
	if h.forwarder == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	for _, z := range h.forwarder.Zones() {
		resp.Servers = append(resp.Servers, models.ZoneEntry{Address: z.Address, Zones: z.Zones})
	}
	c.JSON(http.StatusOK, resp)
}
