package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/services"
)

// EventHandler receives completion events from the enrollment side and fans
// them out: every skill the course teaches is awarded, then every open path
// containing the course gets its unlocks recomputed.
type EventHandler struct {
	ledgerService services.LedgerService
	pathService   services.PathService
	courseMap     repos.CourseSkillRepo
}

func NewEventHandler(ledgerService services.LedgerService, pathService services.PathService, courseMap repos.CourseSkillRepo) *EventHandler {
	return &EventHandler{
		ledgerService: ledgerService,
		pathService:   pathService,
		courseMap:     courseMap,
	}
}

func (eh *EventHandler) CourseCompleted(c *gin.Context) {
	var req struct {
		UserID   uuid.UUID `json:"user_id"`
		CourseID uuid.UUID `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ctx := c.Request.Context()

	mappings, err := eh.courseMap.ListByCourse(ctx, nil, req.CourseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	awarded := 0
	for _, mapping := range mappings {
		if _, err := eh.ledgerService.AwardSkill(ctx, req.UserID, mapping); err != nil {
			RespondServiceError(c, err)
			return
		}
		awarded++
	}

	if err := eh.pathService.OnCourseCompleted(ctx, req.UserID, req.CourseID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"skills_awarded": awarded})
}
