package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type PathHandler struct {
	pathService   services.PathService
	ledgerService services.LedgerService
}

func NewPathHandler(pathService services.PathService, ledgerService services.LedgerService) *PathHandler {
	return &PathHandler{pathService: pathService, ledgerService: ledgerService}
}

func (ph *PathHandler) Create(c *gin.Context) {
	var req services.CreatePathInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	path, err := ph.pathService.CreatePath(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, path)
}

func (ph *PathHandler) Get(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := ph.pathService.GetPath(c.Request.Context(), pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, path)
}

func (ph *PathHandler) List(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	var state *types.PathState
	if raw := c.Query("state"); raw != "" {
		s := types.PathState(raw)
		state = &s
	}
	paths, err := ph.pathService.ListPaths(c.Request.Context(), userID, state)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, paths)
}

func (ph *PathHandler) AddNode(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AddNodeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	req.PathID = pathID
	node, err := ph.pathService.AddNode(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, node)
}

func (ph *PathHandler) RemoveNode(c *gin.Context) {
	nodeID, ok := parseUUIDParam(c, "nodeId")
	if !ok {
		return
	}
	if err := ph.pathService.RemoveNode(c.Request.Context(), nodeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ph *PathHandler) SetNodeDeadline(c *gin.Context) {
	nodeID, ok := parseUUIDParam(c, "nodeId")
	if !ok {
		return
	}
	var req struct {
		Deadline *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	node, err := ph.pathService.SetNodeDeadline(c.Request.Context(), nodeID, req.Deadline)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, node)
}

func (ph *PathHandler) AddNodePrerequisite(c *gin.Context) {
	nodeID, ok := parseUUIDParam(c, "nodeId")
	if !ok {
		return
	}
	var req struct {
		PrerequisiteID uuid.UUID `json:"prerequisite_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ph.pathService.AddNodePrerequisite(c.Request.Context(), nodeID, req.PrerequisiteID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ph *PathHandler) ClearNodePrerequisites(c *gin.Context) {
	nodeID, ok := parseUUIDParam(c, "nodeId")
	if !ok {
		return
	}
	if err := ph.pathService.ClearNodePrerequisites(c.Request.Context(), nodeID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ph *PathHandler) AddPathPrerequisite(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		PrerequisiteID uuid.UUID `json:"prerequisite_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := ph.pathService.AddPathPrerequisite(c.Request.Context(), pathID, req.PrerequisiteID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (ph *PathHandler) Activate(c *gin.Context)  { ph.lifecycle(c, ph.pathService.Activate) }
func (ph *PathHandler) Complete(c *gin.Context)  { ph.lifecycle(c, ph.pathService.Complete) }
func (ph *PathHandler) Hold(c *gin.Context)      { ph.lifecycle(c, ph.pathService.Hold) }
func (ph *PathHandler) Resume(c *gin.Context)    { ph.lifecycle(c, ph.pathService.Resume) }
func (ph *PathHandler) Archive(c *gin.Context)   { ph.lifecycle(c, ph.pathService.Archive) }
func (ph *PathHandler) Recompute(c *gin.Context) { ph.lifecycle(c, ph.pathService.RecomputeUnlocks) }
func (ph *PathHandler) Estimates(c *gin.Context) { ph.lifecycle(c, ph.pathService.RecomputeEstimates) }
func (ph *PathHandler) Generate(c *gin.Context)  { ph.lifecycle(c, ph.pathService.GenerateAutoPath) }

func (ph *PathHandler) lifecycle(c *gin.Context, op func(context.Context, uuid.UUID) (*types.LearningPath, error)) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := op(c.Request.Context(), pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, path)
}

// Recalculate refreshes unlocks and estimates and returns the pace check
// against the target completion date.
func (ph *PathHandler) Recalculate(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, pace, err := ph.pathService.RecalculatePath(c.Request.Context(), pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"path": path, "pace": pace})
}

func (ph *PathHandler) NextAction(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	action, err := ph.pathService.NextAction(c.Request.Context(), pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, action)
}

func (ph *PathHandler) CloneTemplate(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		OwnerID uuid.UUID `json:"owner_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	clone, err := ph.pathService.CloneAsTemplate(c.Request.Context(), pathID, req.OwnerID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, clone)
}

// Gaps resolves the path's skill goals against the owner's ledger.
func (ph *PathHandler) Gaps(c *gin.Context) {
	pathID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	path, err := ph.pathService.GetPath(ctx, pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	targets, err := ph.pathService.SkillGoalTargets(ctx, pathID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	gaps, err := ph.ledgerService.ComputeGaps(ctx, path.UserID, targets)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gaps)
}

func (ph *PathHandler) Overdue(c *gin.Context) {
	nodes, err := ph.pathService.OverdueNodes(c.Request.Context(), time.Now().UTC())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, nodes)
}
