package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avolkov/gemrush/backend/internal/service/leaderboard"
)

type LeaderboardHandler struct {
	Leaderboard *leaderboard.Service
}

func NewLeaderboardHandler(lb *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{Leaderboard: lb}
}

// GetLeaderboard returns the all-time top scores. With no Redis
// configured the table is simply empty.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	if h.Leaderboard == nil {
		c.JSON(http.StatusOK, []leaderboard.Entry{})
		return
	}

	entries, err := h.Leaderboard.Top(c.Request.Context(), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
