package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/services"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type SkillHandler struct {
	taxonomyService services.TaxonomyService
}

func NewSkillHandler(taxonomyService services.TaxonomyService) *SkillHandler {
	return &SkillHandler{taxonomyService: taxonomyService}
}

func (sh *SkillHandler) Create(c *gin.Context) {
	var req services.CreateSkillInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	skill, err := sh.taxonomyService.CreateSkill(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skill)
}

func (sh *SkillHandler) Get(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	skill, err := sh.taxonomyService.GetSkill(c.Request.Context(), skillID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skill)
}

func (sh *SkillHandler) FullPath(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	path, err := sh.taxonomyService.FullPath(c.Request.Context(), skillID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"full_path": path})
}

func (sh *SkillHandler) Descendants(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	skills, err := sh.taxonomyService.Descendants(c.Request.Context(), skillID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skills)
}

func (sh *SkillHandler) SetParent(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	skill, err := sh.taxonomyService.UpdateSkillParent(c.Request.Context(), skillID, req.ParentID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skill)
}

func (sh *SkillHandler) Deactivate(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := sh.taxonomyService.DeactivateSkill(c.Request.Context(), skillID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"success": "true"})
}

func (sh *SkillHandler) ByCategory(c *gin.Context) {
	category := types.SkillCategory(c.Param("category"))
	skills, err := sh.taxonomyService.SkillsByCategory(c.Request.Context(), category)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skills)
}

func (sh *SkillHandler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	skills, err := sh.taxonomyService.TrendingSkills(c.Request.Context(), limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skills)
}

func (sh *SkillHandler) Related(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	skills, err := sh.taxonomyService.RelatedSkills(c.Request.Context(), skillID, limit)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, skills)
}

func (sh *SkillHandler) MapCourse(c *gin.Context) {
	var req services.MapCourseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	mapping, err := sh.taxonomyService.MapCourseToSkill(c.Request.Context(), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, mapping)
}

func (sh *SkillHandler) BulkMapCourse(c *gin.Context) {
	courseID, ok := parseUUIDParam(c, "courseId")
	if !ok {
		return
	}
	var req struct {
		Mappings []services.MapCourseInput `json:"mappings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	mappings, err := sh.taxonomyService.BulkMapSkills(c.Request.Context(), courseID, req.Mappings)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, mappings)
}

func (sh *SkillHandler) CoursesTeaching(c *gin.Context) {
	skillID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var level *types.Level
	if raw := c.Query("min_level"); raw != "" {
		l := types.Level(raw)
		if !l.Valid() {
			RespondError(c, http.StatusBadRequest, "invalid_level", types.ErrInvalidTargetLevel)
			return
		}
		level = &l
	}
	courseIDs, err := sh.taxonomyService.CoursesTeaching(c.Request.Context(), skillID, level)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"course_ids": courseIDs})
}
