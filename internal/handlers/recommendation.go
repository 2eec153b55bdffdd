package handlers

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

func (rh *RecommendationHandler) Generate(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	algorithm := types.RecommendationAlgorithm(c.DefaultQuery("algorithm", string(types.AlgorithmHybrid)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	rows, err := rh.recommendationService.Generate(c.Request.Context(), userID, algorithm, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (rh *RecommendationHandler) Pending(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	rows, err := rh.recommendationService.Pending(c.Request.Context(), userID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (rh *RecommendationHandler) View(c *gin.Context)    { rh.act(c, rh.recommendationService.MarkViewed) }
func (rh *RecommendationHandler) Enroll(c *gin.Context)  { rh.act(c, rh.recommendationService.Enroll) }
func (rh *RecommendationHandler) Dismiss(c *gin.Context) { rh.act(c, rh.recommendationService.Dismiss) }
func (rh *RecommendationHandler) Save(c *gin.Context)    { rh.act(c, rh.recommendationService.Save) }

func (rh *RecommendationHandler) act(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*types.Recommendation, error)) {
	recID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	row, err := op(c.Request.Context(), recID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}
