package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gemrush/backend/internal/repository/postgres"
)

type HistoryHandler struct {
	RoundRepo *postgres.RoundRepo
}

func NewHistoryHandler(roundRepo *postgres.RoundRepo) *HistoryHandler {
	return &HistoryHandler{RoundRepo: roundRepo}
}

// GetHistory returns the most recently finished rounds.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	if h.RoundRepo == nil {
		c.JSON(http.StatusOK, []postgres.RoundRecord{})
		return
	}

	records, err := h.RoundRepo.Recent(20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch round history"})
		return
	}
	c.JSON(http.StatusOK, records)
}
