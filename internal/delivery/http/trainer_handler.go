package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flaviabeo/caikit/internal/trainer"
)

// TrainerHandler handles trainer catalog listing requests.
type TrainerHandler struct {
	catalog *trainer.Catalog
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(catalog *trainer.Catalog) *TrainerHandler {
	return &TrainerHandler{catalog: catalog}
}

// List handles GET /api/v1/trainers
func (h *TrainerHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"trainers": h.catalog.Names(),
	})
}
