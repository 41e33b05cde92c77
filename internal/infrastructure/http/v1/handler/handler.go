package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/usecase"
)

type Handler struct {
	serveUseCase *usecase.TileServerUseCase
}

func NewHandler(uc *usecase.TileServerUseCase) *Handler {
	return &Handler{
		serveUseCase: uc,
	}
}

func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
