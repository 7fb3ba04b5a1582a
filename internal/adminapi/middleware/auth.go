package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorResponse is the body returned when RequireAPIKey rejects a request.
type errorResponse struct {
	Error string `json:"error"`
}

// RequireAPIKey enforces a shared-secret API key via the X-API-Key header.
func RequireAPIKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-API-Key")
		if expected == "" || got == expected {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	}
}
