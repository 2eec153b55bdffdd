package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type LedgerHandler struct {
	ledgerService services.LedgerService
}

func NewLedgerHandler(ledgerService services.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (lh *LedgerHandler) List(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	rows, err := lh.ledgerService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, rows)
}

func (lh *LedgerHandler) Profile(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	profile, err := lh.ledgerService.Profile(c.Request.Context(), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, profile)
}

func (lh *LedgerHandler) LevelUp(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	skillID, ok := parseUUIDParam(c, "skillId")
	if !ok {
		return
	}
	row, err := lh.ledgerService.LevelUp(c.Request.Context(), userID, skillID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LedgerHandler) Verify(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	skillID, ok := parseUUIDParam(c, "skillId")
	if !ok {
		return
	}
	var req struct {
		Score      float64   `json:"score"`
		VerifierID uuid.UUID `json:"verifier_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	row, err := lh.ledgerService.Verify(c.Request.Context(), userID, skillID, req.Score, req.VerifierID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LedgerHandler) SetTarget(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	skillID, ok := parseUUIDParam(c, "skillId")
	if !ok {
		return
	}
	var req struct {
		TargetLevel types.Level `json:"target_level"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	row, err := lh.ledgerService.SetTargetLevel(c.Request.Context(), userID, skillID, req.TargetLevel)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, row)
}

func (lh *LedgerHandler) Practice(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	skillID, ok := parseUUIDParam(c, "skillId")
	if !ok {
		return
	}
	if err := lh.ledgerService.TouchPracticed(c.Request.Context(), userID, skillID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (lh *LedgerHandler) Gaps(c *gin.Context) {
	userID, ok := parseUUIDParam(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Targets []types.SkillTarget `json:"targets"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	gaps, err := lh.ledgerService.ComputeGaps(c.Request.Context(), userID, req.Targets)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gaps)
}
