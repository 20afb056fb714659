package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

const maxRankingLimit = 100

type RankingHandler struct {
	rankingService *service.RankingService
}

func NewRankingHandler(rankingService *service.RankingService) *RankingHandler {
	return &RankingHandler{rankingService: rankingService}
}

// GetRankings godoc
// GET /api/v1/rankings?limit=10
func (h *RankingHandler) GetRankings(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRankingLimit {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidParameter,
				map[string]string{"limit": "must be between 1 and 100"})
			return
		}
		limit = n
	}

	rankings, err := h.rankingService.Top(c.Request.Context(), limit)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rankings": rankings})
}
