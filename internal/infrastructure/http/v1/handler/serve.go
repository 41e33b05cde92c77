package handler

import (
	"github.com/gin-gonic/gin"
)

// Serve handles every tile and metadata path. Bodies are left
// uncompressed on this surface; the CDN in front of the server applies
// its own compression.
func (h *Handler) Serve(c *gin.Context) {
	resp := h.serveUseCase.Serve(
		c.Request.Context(),
		c.Request.URL.Path,
		c.GetHeader("X-Forwarded-Host"),
		false,
	)

	for name, value := range resp.Headers {
		c.Header(name, value)
	}

	c.Status(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = c.Writer.Write(resp.Body)
	}
}
