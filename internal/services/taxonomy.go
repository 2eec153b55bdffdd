package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/clients/trendcache"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

// TaxonomyConfig carries the trending tunables. The defaults mirror the
// values the scoring was calibrated with.
type TaxonomyConfig struct {
	TrendThreshold        float64
	TrendEnrollmentWeight float64
	TrendLedgerWeight     float64
	TrendWindow           time.Duration
}

func DefaultTaxonomyConfig() TaxonomyConfig {
	return TaxonomyConfig{
		TrendThreshold:        10,
		TrendEnrollmentWeight: 0.6,
		TrendLedgerWeight:     0.4,
		TrendWindow:           30 * 24 * time.Hour,
	}
}

type CreateSkillInput struct {
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    types.SkillCategory `json:"category"`
	ParentID    *uuid.UUID          `json:"parent_id"`
	LevelCount  int                 `json:"level_count"`
}

type MapCourseInput struct {
	CourseID           uuid.UUID   `json:"course_id"`
	SkillID            uuid.UUID   `json:"skill_id"`
	ProficiencyLevel   types.Level `json:"proficiency_level"`
	SkillPoints        int         `json:"skill_points"`
	IsPrimary          bool        `json:"is_primary"`
	Weight             float64     `json:"weight"`
	AssessmentRequired bool        `json:"assessment_required"`
	MinAssessmentScore float64     `json:"min_assessment_score"`
}

type TaxonomyService interface {
	CreateSkill(ctx context.Context, input CreateSkillInput) (*types.Skill, error)
	UpdateSkillParent(ctx context.Context, skillID uuid.UUID, parentID *uuid.UUID) (*types.Skill, error)
	DeactivateSkill(ctx context.Context, skillID uuid.UUID) error
	GetSkill(ctx context.Context, skillID uuid.UUID) (*types.Skill, error)
	FullPath(ctx context.Context, skillID uuid.UUID) (string, error)
	Descendants(ctx context.Context, skillID uuid.UUID) ([]*types.Skill, error)
	SkillsByCategory(ctx context.Context, category types.SkillCategory) ([]*types.Skill, error)
	TrendingSkills(ctx context.Context, limit int) ([]*types.Skill, error)
	RelatedSkills(ctx context.Context, skillID uuid.UUID, limit int) ([]*types.Skill, error)

	MapCourseToSkill(ctx context.Context, input MapCourseInput) (*types.CourseSkill, error)
	BulkMapSkills(ctx context.Context, courseID uuid.UUID, inputs []MapCourseInput) ([]*types.CourseSkill, error)
	CoursesTeaching(ctx context.Context, skillID uuid.UUID, level *types.Level) ([]uuid.UUID, error)

	RefreshTrending(ctx context.Context) error
	RefreshStats(ctx context.Context, skillID uuid.UUID) error
}

type taxonomyService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        TaxonomyConfig
	skills     repos.SkillRepo
	courseMap  repos.CourseSkillRepo
	userSkills repos.UserSkillRepo
	enroll     enrollment.Client
	trends     trendcache.Cache
}

func NewTaxonomyService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg TaxonomyConfig,
	skills repos.SkillRepo,
	courseMap repos.CourseSkillRepo,
	userSkills repos.UserSkillRepo,
	enroll enrollment.Client,
	trends trendcache.Cache,
) TaxonomyService {
	return &taxonomyService{
		db:         db,
		log:        baseLog.With("service", "TaxonomyService"),
		cfg:        cfg,
		skills:     skills,
		courseMap:  courseMap,
		userSkills: userSkills,
		enroll:     enroll,
		trends:     trends,
	}
}

func (s *taxonomyService) CreateSkill(ctx context.Context, input CreateSkillInput) (*types.Skill, error) {
	if input.Code == "" || input.Name == "" {
		return nil, fmt.Errorf("skill code and name are required: %w", types.ErrNotFound)
	}
	category := input.Category
	if category == "" {
		category = types.CategoryTechnical
	}
	if !category.Valid() {
		return nil, fmt.Errorf("unknown skill category %q: %w", category, types.ErrNotFound)
	}
	levelCount := input.LevelCount
	if levelCount == 0 {
		levelCount = 5
	}
	if levelCount < 1 || levelCount > 10 {
		return nil, fmt.Errorf("level count %d out of range: %w", levelCount, types.ErrInvalidWeight)
	}

	row := &types.Skill{
		ID:          uuid.New(),
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
		Category:    category,
		ParentID:    input.ParentID,
		LevelCount:  levelCount,
		LevelNames:  []byte(`["Awareness","Foundational","Intermediate","Advanced","Expert"]`),
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.skills.GetByCode(ctx, tx, input.Code)
		if err != nil {
			return fmt.Errorf("checking skill code: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("skill code %q: %w", input.Code, types.ErrDuplicateMapping)
		}
		if input.ParentID != nil {
			if err := s.checkParentChain(ctx, tx, row.ID, *input.ParentID); err != nil {
				return err
			}
		}
		return s.skills.Create(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *taxonomyService) UpdateSkillParent(ctx context.Context, skillID uuid.UUID, parentID *uuid.UUID) (*types.Skill, error) {
	var updated *types.Skill
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := s.skills.GetByID(ctx, tx, skillID)
		if err != nil {
			return err
		}
		if skill == nil {
			return fmt.Errorf("skill %s: %w", skillID, types.ErrNotFound)
		}
		if parentID != nil {
			if err := s.checkParentChain(ctx, tx, skillID, *parentID); err != nil {
				return err
			}
		}
		skill.ParentID = parentID
		if err := s.skills.Save(ctx, tx, skill); err != nil {
			return err
		}
		updated = skill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// checkParentChain walks the ancestor chain from parentID and rejects the
// write when the chain would contain skillID. Runs inside the write tx so
// two concurrent re-parents cannot jointly form a cycle.
func (s *taxonomyService) checkParentChain(ctx context.Context, tx *gorm.DB, skillID, parentID uuid.UUID) error {
	if parentID == skillID {
		return fmt.Errorf("skill cannot be its own parent: %w", types.ErrInvalidHierarchy)
	}
	seen := map[uuid.UUID]bool{}
	current := parentID
	for current != uuid.Nil {
		if current == skillID {
			return fmt.Errorf("skill %s found in its own parent chain: %w", skillID, types.ErrInvalidHierarchy)
		}
		if seen[current] {
			return fmt.Errorf("existing parent chain already cyclic at %s: %w", current, types.ErrInvalidHierarchy)
		}
		seen[current] = true
		parent, err := s.skills.GetByID(ctx, tx, current)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("parent skill %s: %w", current, types.ErrNotFound)
		}
		if parent.ParentID == nil {
			break
		}
		current = *parent.ParentID
	}
	return nil
}

func (s *taxonomyService) DeactivateSkill(ctx context.Context, skillID uuid.UUID) error {
	skill, err := s.skills.GetByID(ctx, nil, skillID)
	if err != nil {
		return err
	}
	if skill == nil {
		return fmt.Errorf("skill %s: %w", skillID, types.ErrNotFound)
	}
	return s.skills.Deactivate(ctx, nil, skillID)
}

func (s *taxonomyService) GetSkill(ctx context.Context, skillID uuid.UUID) (*types.Skill, error) {
	skill, err := s.skills.GetByID(ctx, nil, skillID)
	if err != nil {
		return nil, err
	}
	if skill == nil {
		return nil, fmt.Errorf("skill %s: %w", skillID, types.ErrNotFound)
	}
	return skill, nil
}

func (s *taxonomyService) FullPath(ctx context.Context, skillID uuid.UUID) (string, error) {
	skill, err := s.GetSkill(ctx, skillID)
	if err != nil {
		return "", err
	}
	names := []string{skill.Name}
	current := skill.ParentID
	for current != nil {
		parent, err := s.skills.GetByID(ctx, nil, *current)
		if err != nil {
			return "", err
		}
		if parent == nil {
			break
		}
		names = append([]string{parent.Name}, names...)
		current = parent.ParentID
	}
	return strings.Join(names, " > "), nil
}

func (s *taxonomyService) Descendants(ctx context.Context, skillID uuid.UUID) ([]*types.Skill, error) {
	var all []*types.Skill
	frontier := []uuid.UUID{skillID}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		children, err := s.skills.ListByParent(ctx, nil, next)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			all = append(all, child)
			frontier = append(frontier, child.ID)
		}
	}
	return all, nil
}

func (s *taxonomyService) SkillsByCategory(ctx context.Context, category types.SkillCategory) ([]*types.Skill, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("unknown skill category %q: %w", category, types.ErrNotFound)
	}
	return s.skills.ListByCategory(ctx, nil, category)
}

func (s *taxonomyService) TrendingSkills(ctx context.Context, limit int) ([]*types.Skill, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.skills.ListTrending(ctx, nil, limit)
}

// RelatedSkills ranks skills by how often they co-occur in the same courses
// as the given skill. Ties break by skill id ascending for determinism.
func (s *taxonomyService) RelatedSkills(ctx context.Context, skillID uuid.UUID, limit int) ([]*types.Skill, error) {
	if limit <= 0 {
		limit = 5
	}
	mappings, err := s.courseMap.ListBySkill(ctx, nil, skillID, nil)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, nil
	}
	courseIDs := make([]uuid.UUID, 0, len(mappings))
	for _, m := range mappings {
		courseIDs = append(courseIDs, m.CourseID)
	}

	shared, err := s.courseMap.ListByCourses(ctx, nil, courseIDs)
	if err != nil {
		return nil, err
	}
	counts := map[uuid.UUID]int{}
	for _, m := range shared {
		if m.SkillID != skillID {
			counts[m.SkillID]++
		}
	}
	ranked := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ranked = append(ranked, id)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i].String() < ranked[j].String()
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	skills, err := s.skills.GetByIDs(ctx, nil, ranked)
	if err != nil {
		return nil, err
	}
	// GetByIDs does not preserve order; restore the ranking.
	byID := make(map[uuid.UUID]*types.Skill, len(skills))
	for _, sk := range skills {
		byID[sk.ID] = sk
	}
	ordered := make([]*types.Skill, 0, len(ranked))
	for _, id := range ranked {
		if sk, ok := byID[id]; ok {
			ordered = append(ordered, sk)
		}
	}
	return ordered, nil
}

func (s *taxonomyService) MapCourseToSkill(ctx context.Context, input MapCourseInput) (*types.CourseSkill, error) {
	if input.Weight < 0 || input.Weight > 1 {
		return nil, fmt.Errorf("weight %.2f outside [0,1]: %w", input.Weight, types.ErrInvalidWeight)
	}
	if input.AssessmentRequired && (input.MinAssessmentScore < 0 || input.MinAssessmentScore > 100) {
		return nil, fmt.Errorf("min assessment score %.2f outside [0,100]: %w", input.MinAssessmentScore, types.ErrInvalidWeight)
	}
	if input.SkillPoints < 0 {
		return nil, fmt.Errorf("skill points must be non-negative: %w", types.ErrInvalidWeight)
	}
	level := input.ProficiencyLevel
	if level == "" {
		level = types.LevelFoundational
	}
	if !level.Valid() {
		return nil, fmt.Errorf("unknown proficiency level %q: %w", level, types.ErrNotFound)
	}

	row := &types.CourseSkill{
		ID:                 uuid.New(),
		CourseID:           input.CourseID,
		SkillID:            input.SkillID,
		ProficiencyLevel:   level,
		SkillPoints:        input.SkillPoints,
		IsPrimary:          input.IsPrimary,
		Weight:             input.Weight,
		AssessmentRequired: input.AssessmentRequired,
		MinAssessmentScore: input.MinAssessmentScore,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill, err := s.skills.GetByID(ctx, tx, input.SkillID)
		if err != nil {
			return err
		}
		if skill == nil {
			return fmt.Errorf("skill %s: %w", input.SkillID, types.ErrNotFound)
		}
		existing, err := s.courseMap.GetByCourseAndSkill(ctx, tx, input.CourseID, input.SkillID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("course %s already mapped to skill %s: %w", input.CourseID, input.SkillID, types.ErrDuplicateMapping)
		}
		return s.courseMap.Create(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *taxonomyService) BulkMapSkills(ctx context.Context, courseID uuid.UUID, inputs []MapCourseInput) ([]*types.CourseSkill, error) {
	created := make([]*types.CourseSkill, 0, len(inputs))
	for _, input := range inputs {
		input.CourseID = courseID
		row, err := s.MapCourseToSkill(ctx, input)
		if err != nil {
			return created, fmt.Errorf("mapping skill %s: %w", input.SkillID, err)
		}
		created = append(created, row)
	}
	return created, nil
}

func (s *taxonomyService) CoursesTeaching(ctx context.Context, skillID uuid.UUID, level *types.Level) ([]uuid.UUID, error) {
	mappings, err := s.courseMap.ListBySkill(ctx, nil, skillID, level)
	if err != nil {
		return nil, err
	}
	courseIDs := make([]uuid.UUID, 0, len(mappings))
	for _, m := range mappings {
		courseIDs = append(courseIDs, m.CourseID)
	}
	return courseIDs, nil
}

// RefreshTrending rebuilds the trend score for every active skill from the
// course map and the enrollment/ledger history. Per-skill failures are
// logged and skipped so one bad skill cannot abort the refresh.
func (s *taxonomyService) RefreshTrending(ctx context.Context) error {
	skills, err := s.skills.ListActive(ctx, nil)
	if err != nil {
		return fmt.Errorf("listing active skills: %w", err)
	}
	since := time.Now().UTC().Add(-s.cfg.TrendWindow)

	for _, skill := range skills {
		if err := s.refreshSkillTrend(ctx, skill, since); err != nil {
			s.log.Warn("Trend refresh failed for skill", "skill_id", skill.ID, "error", err)
		}
	}
	return nil
}

func (s *taxonomyService) refreshSkillTrend(ctx context.Context, skill *types.Skill, since time.Time) error {
	mappings, err := s.courseMap.ListBySkill(ctx, nil, skill.ID, nil)
	if err != nil {
		return err
	}
	recentEnrollments := 0
	for _, m := range mappings {
		n, err := s.enroll.CountRecentEnrollments(ctx, m.CourseID, since)
		if err != nil {
			return fmt.Errorf("counting enrollments for course %s: %w", m.CourseID, err)
		}
		recentEnrollments += n
	}
	recentLedger, err := s.userSkills.CountUpdatedSince(ctx, nil, skill.ID, since)
	if err != nil {
		return err
	}

	score := float64(recentEnrollments)*s.cfg.TrendEnrollmentWeight + float64(recentLedger)*s.cfg.TrendLedgerWeight
	trending := score > s.cfg.TrendThreshold

	if err := s.skills.UpdateTrend(ctx, nil, skill.ID, score, trending); err != nil {
		return err
	}
	if s.trends != nil {
		if err := s.trends.Put(ctx, skill.ID, score); err != nil {
			// The cache is derived state; the row is already correct.
			s.log.Warn("Trend cache update failed", "skill_id", skill.ID, "error", err)
		}
	}
	return nil
}

func (s *taxonomyService) RefreshStats(ctx context.Context, skillID uuid.UUID) error {
	mappings, err := s.courseMap.ListBySkill(ctx, nil, skillID, nil)
	if err != nil {
		return err
	}
	courses := map[uuid.UUID]bool{}
	for _, m := range mappings {
		courses[m.CourseID] = true
	}

	userRows, err := s.userSkills.ListBySkill(ctx, nil, skillID)
	if err != nil {
		return err
	}
	avg := 0.0
	if len(userRows) > 0 {
		total := 0
		for _, us := range userRows {
			total += us.CurrentLevel.Ordinal()
		}
		avg = float64(total) / float64(len(userRows))
	}
	return s.skills.UpdateStats(ctx, nil, skillID, len(courses), len(userRows), avg)
}
