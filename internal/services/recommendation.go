package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type RecommendationConfig struct {
	ExpiryDays     int
	TrendingWindow time.Duration
}

func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		ExpiryDays:     7,
		TrendingWindow: 30 * 24 * time.Hour,
	}
}

// scoredCourse is an algorithm's verdict on one course before persistence.
type scoredCourse struct {
	CourseID   uuid.UUID
	Score      float64
	Algorithm  types.RecommendationAlgorithm
	ReasonType types.ReasonType
	ReasonText string
	ReasonData map[string]interface{}
}

type RecommendationService interface {
	// Generate scores courses for the user with the given algorithm, purges
	// the user's expired rows first, and persists the fresh batch.
	Generate(ctx context.Context, userID uuid.UUID, algorithm types.RecommendationAlgorithm, limit int) ([]*types.Recommendation, error)

	Pending(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error)
	MarkViewed(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error)
	Enroll(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error)
	Dismiss(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error)
	Save(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error)
}

type recommendationService struct {
	db         *gorm.DB
	log        *logger.Logger
	cfg        RecommendationConfig
	recs       repos.RecommendationRepo
	userSkills repos.UserSkillRepo
	courseMap  repos.CourseSkillRepo
	skills     repos.SkillRepo
	paths      repos.LearningPathRepo
	enroll     enrollment.Client
	notifier   Notifier
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg RecommendationConfig,
	recs repos.RecommendationRepo,
	userSkills repos.UserSkillRepo,
	courseMap repos.CourseSkillRepo,
	skills repos.SkillRepo,
	paths repos.LearningPathRepo,
	enroll enrollment.Client,
	notifier Notifier,
) RecommendationService {
	return &recommendationService{
		db:         db,
		log:        baseLog.With("service", "RecommendationService"),
		cfg:        cfg,
		recs:       recs,
		userSkills: userSkills,
		courseMap:  courseMap,
		skills:     skills,
		paths:      paths,
		enroll:     enroll,
		notifier:   notifier,
	}
}

func (s *recommendationService) Generate(ctx context.Context, userID uuid.UUID, algorithm types.RecommendationAlgorithm, limit int) ([]*types.Recommendation, error) {
	if limit <= 0 {
		limit = 10
	}
	if algorithm == "" {
		algorithm = types.AlgorithmHybrid
	}
	if !algorithm.Valid() {
		return nil, fmt.Errorf("unknown algorithm %q: %w", algorithm, types.ErrNotFound)
	}

	now := time.Now().UTC()
	purged, err := s.recs.DeleteExpired(ctx, nil, userID, now)
	if err != nil {
		return nil, fmt.Errorf("purging expired recommendations: %w", err)
	}
	if purged > 0 {
		s.log.Debug("Purged expired recommendations", "user_id", userID, "count", purged)
	}

	history, err := s.enroll.GetUserCourseHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken := make(map[uuid.UUID]bool, len(history))
	for _, e := range history {
		taken[e.CourseID] = true
	}

	var scored []scoredCourse
	switch algorithm {
	case types.AlgorithmCollaborative:
		scored, err = s.scoreCollaborative(ctx, userID, history, taken, limit)
	case types.AlgorithmContent:
		scored, err = s.scoreContent(ctx, history, taken, limit)
	case types.AlgorithmSkillGap:
		scored, err = s.scoreSkillGap(ctx, userID, taken, limit)
	case types.AlgorithmTrending:
		scored, err = s.scoreTrending(ctx, taken, limit)
	case types.AlgorithmHybrid:
		scored, err = s.scoreHybrid(ctx, userID, history, taken, limit)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}

	rows := make([]*types.Recommendation, 0, len(scored))
	for _, sc := range scored {
		var data []byte
		if sc.ReasonData != nil {
			data, _ = json.Marshal(sc.ReasonData)
		}
		rows = append(rows, &types.Recommendation{
			ID:          uuid.New(),
			UserID:      userID,
			CourseID:    sc.CourseID,
			Score:       sc.Score,
			Algorithm:   sc.Algorithm,
			ReasonType:  sc.ReasonType,
			ReasonText:  sc.ReasonText,
			ReasonData:  data,
			Status:      types.RecommendationPending,
			CreatedDate: now,
			ExpiresDate: now.Add(time.Duration(s.cfg.ExpiryDays) * 24 * time.Hour),
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}
	if err := s.recs.CreateBatch(ctx, nil, rows); err != nil {
		return nil, fmt.Errorf("persisting recommendations: %w", err)
	}
	return rows, nil
}

// scoreCollaborative finds users sharing completed or active courses with the
// target user and suggests what those neighbors took next. Each neighbor
// contributes its overlap ratio; contributions sum and cap at 100.
func (s *recommendationService) scoreCollaborative(ctx context.Context, userID uuid.UUID, history []enrollment.CourseEnrollment, taken map[uuid.UUID]bool, limit int) ([]scoredCourse, error) {
	relevant := func(state enrollment.EnrollmentState) bool {
		return state == enrollment.StateCompleted || state == enrollment.StateActive
	}

	var mine []uuid.UUID
	for _, e := range history {
		if relevant(e.State) {
			mine = append(mine, e.CourseID)
		}
	}
	if len(mine) == 0 {
		return nil, nil
	}
	mineSet := make(map[uuid.UUID]bool, len(mine))
	for _, cid := range mine {
		mineSet[cid] = true
	}

	neighbors, err := s.enroll.ListEnrollmentsForCourses(ctx, mine)
	if err != nil {
		return nil, err
	}
	neighborCourses := map[uuid.UUID]map[uuid.UUID]bool{}
	for _, e := range neighbors {
		if e.UserID == userID || !relevant(e.State) {
			continue
		}
		if neighborCourses[e.UserID] == nil {
			neighborCourses[e.UserID] = map[uuid.UUID]bool{}
		}
		neighborCourses[e.UserID][e.CourseID] = true
	}

	// overlap ratio per neighbor = shared courses / user's total courses
	contribution := map[uuid.UUID]float64{}
	supporters := map[uuid.UUID]int{}
	for neighbor, courses := range neighborCourses {
		shared := 0
		for cid := range courses {
			if mineSet[cid] {
				shared++
			}
		}
		if shared == 0 {
			continue
		}
		ratio := float64(shared) / float64(len(mine))
		allCourses, err := s.enroll.GetUserCourseHistory(ctx, neighbor)
		if err != nil {
			continue
		}
		for _, e := range allCourses {
			if !relevant(e.State) || taken[e.CourseID] {
				continue
			}
			contribution[e.CourseID] += ratio
			supporters[e.CourseID]++
		}
	}

	var results []scoredCourse
	for cid, total := range contribution {
		score := total * 100
		if score > 100 {
			score = 100
		}
		results = append(results, scoredCourse{
			CourseID:   cid,
			Score:      score,
			Algorithm:  types.AlgorithmCollaborative,
			ReasonType: types.ReasonSimilarUsers,
			ReasonText: "Learners with a similar history completed this course",
			ReasonData: map[string]interface{}{"similar_users": supporters[cid]},
		})
	}
	return topScored(results, limit), nil
}

// scoreContent suggests courses sharing a category or tags with courses the
// user liked, meaning completed at 90% or better. 50 points for the category,
// 10 per shared tag capped at 50; candidates scoring 30 or below are dropped.
func (s *recommendationService) scoreContent(ctx context.Context, history []enrollment.CourseEnrollment, taken map[uuid.UUID]bool, limit int) ([]scoredCourse, error) {
	categories := map[uuid.UUID]bool{}
	tags := map[uuid.UUID]bool{}
	for _, e := range history {
		if e.State != enrollment.StateCompleted || e.CompletionPercentage < 90 {
			continue
		}
		meta, err := s.enroll.GetCourseMetadata(ctx, e.CourseID)
		if err != nil {
			continue
		}
		if meta.CategoryID != uuid.Nil {
			categories[meta.CategoryID] = true
		}
		for _, t := range meta.TagIDs {
			tags[t] = true
		}
	}
	if len(categories) == 0 && len(tags) == 0 {
		return nil, nil
	}

	categoryIDs := make([]uuid.UUID, 0, len(categories))
	for id := range categories {
		categoryIDs = append(categoryIDs, id)
	}
	tagIDs := make([]uuid.UUID, 0, len(tags))
	for id := range tags {
		tagIDs = append(tagIDs, id)
	}
	candidates, err := s.enroll.FindSimilarCourses(ctx, categoryIDs, tagIDs, limit*4)
	if err != nil {
		return nil, err
	}

	var results []scoredCourse
	for _, cid := range candidates {
		if taken[cid] {
			continue
		}
		meta, err := s.enroll.GetCourseMetadata(ctx, cid)
		if err != nil {
			continue
		}
		score := 0.0
		if categories[meta.CategoryID] {
			score += 50
		}
		sharedTags := 0
		for _, t := range meta.TagIDs {
			if tags[t] {
				sharedTags++
			}
		}
		tagScore := float64(sharedTags) * 10
		if tagScore > 50 {
			tagScore = 50
		}
		score += tagScore
		if score <= 30 {
			continue
		}
		results = append(results, scoredCourse{
			CourseID:   cid,
			Score:      score,
			Algorithm:  types.AlgorithmContent,
			ReasonType: types.ReasonCourseSimilarity,
			ReasonText: "Similar to courses you completed",
			ReasonData: map[string]interface{}{"shared_tags": sharedTags},
		})
	}
	return topScored(results, limit), nil
}

// scoreSkillGap unions the skill goals of the user's active paths (defaulting
// to intermediate when a goal has no level) with the ledger's declared
// targets, then surfaces courses teaching each gapped skill at 80 plus 4 per
// missing level, so bigger gaps score first.
func (s *recommendationService) scoreSkillGap(ctx context.Context, userID uuid.UUID, taken map[uuid.UUID]bool, limit int) ([]scoredCourse, error) {
	rows, err := s.userSkills.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	current := map[uuid.UUID]int{}
	targets := map[uuid.UUID]int{}
	for _, row := range rows {
		current[row.SkillID] = row.CurrentLevel.Ordinal()
		if row.TargetLevel != nil {
			targets[row.SkillID] = row.TargetLevel.Ordinal()
		}
	}

	active := types.PathStateActive
	pathRows, err := s.paths.ListByUser(ctx, nil, userID, &active)
	if err != nil {
		return nil, err
	}
	for _, p := range pathRows {
		goals, err := s.paths.ListSkillGoals(ctx, nil, p.ID)
		if err != nil {
			return nil, err
		}
		for _, g := range goals {
			target := types.LevelIntermediate.Ordinal()
			if g.TargetLevel != nil {
				target = g.TargetLevel.Ordinal()
			}
			if target > targets[g.SkillID] {
				targets[g.SkillID] = target
			}
		}
	}

	type gap struct {
		skillID uuid.UUID
		target  int
		size    int
	}
	var gaps []gap
	for skillID, target := range targets {
		if diff := target - current[skillID]; diff > 0 {
			gaps = append(gaps, gap{skillID: skillID, target: target, size: diff})
		}
	}
	if len(gaps) == 0 {
		return nil, nil
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].size != gaps[j].size {
			return gaps[i].size > gaps[j].size
		}
		return gaps[i].skillID.String() < gaps[j].skillID.String()
	})

	var results []scoredCourse
	seen := map[uuid.UUID]bool{}
	for _, g := range gaps {
		// Only courses teaching the skill at the needed level close the gap.
		needed := types.LevelFromOrdinal(g.target)
		mappings, err := s.courseMap.ListBySkill(ctx, nil, g.skillID, &needed)
		if err != nil {
			return nil, err
		}
		skill, err := s.skills.GetByID(ctx, nil, g.skillID)
		if err != nil {
			return nil, err
		}
		name := "a target skill"
		if skill != nil {
			name = skill.Name
		}
		for _, m := range mappings {
			if taken[m.CourseID] || seen[m.CourseID] {
				continue
			}
			seen[m.CourseID] = true
			results = append(results, scoredCourse{
				CourseID:   m.CourseID,
				Score:      80 + float64(g.size)*4,
				Algorithm:  types.AlgorithmSkillGap,
				ReasonType: types.ReasonSkillRequirement,
				ReasonText: fmt.Sprintf("Closes your gap in %s", name),
				ReasonData: map[string]interface{}{"skill_id": g.skillID.String(), "gap_size": g.size},
			})
		}
	}
	return topScored(results, limit), nil
}

// scoreTrending ranks by recent enrollment volume: 2 points per enrollment
// in the window, capped at 100.
func (s *recommendationService) scoreTrending(ctx context.Context, taken map[uuid.UUID]bool, limit int) ([]scoredCourse, error) {
	since := time.Now().UTC().Add(-s.cfg.TrendingWindow)
	counts, err := s.enroll.TopEnrolledCourses(ctx, since, limit*2)
	if err != nil {
		return nil, err
	}
	var results []scoredCourse
	for _, c := range counts {
		if taken[c.CourseID] {
			continue
		}
		score := float64(c.Count) * 2
		if score > 100 {
			score = 100
		}
		results = append(results, scoredCourse{
			CourseID:   c.CourseID,
			Score:      score,
			Algorithm:  types.AlgorithmTrending,
			ReasonType: types.ReasonTrending,
			ReasonText: "Popular with learners right now",
			ReasonData: map[string]interface{}{"recent_enrollments": c.Count},
		})
	}
	return topScored(results, limit), nil
}

// scoreHybrid runs all four algorithms with a per-algorithm slice of the
// budget, deduplicates by course keeping the highest score, and relabels the
// survivors as hybrid while preserving the winning reason.
func (s *recommendationService) scoreHybrid(ctx context.Context, userID uuid.UUID, history []enrollment.CourseEnrollment, taken map[uuid.UUID]bool, limit int) ([]scoredCourse, error) {
	perAlgo := limit / 4
	if perAlgo < 3 {
		perAlgo = 3
	}

	var all []scoredCourse
	if scored, err := s.scoreCollaborative(ctx, userID, history, taken, perAlgo); err != nil {
		s.log.Warn("Collaborative scoring failed", "user_id", userID, "error", err)
	} else {
		all = append(all, scored...)
	}
	if scored, err := s.scoreContent(ctx, history, taken, perAlgo); err != nil {
		s.log.Warn("Content scoring failed", "user_id", userID, "error", err)
	} else {
		all = append(all, scored...)
	}
	if scored, err := s.scoreSkillGap(ctx, userID, taken, perAlgo); err != nil {
		s.log.Warn("Skill gap scoring failed", "user_id", userID, "error", err)
	} else {
		all = append(all, scored...)
	}
	if scored, err := s.scoreTrending(ctx, taken, perAlgo); err != nil {
		s.log.Warn("Trending scoring failed", "user_id", userID, "error", err)
	} else {
		all = append(all, scored...)
	}

	return mergeHybrid(all), nil
}

// mergeHybrid deduplicates by course keeping the highest-scoring entry and
// relabels everything as hybrid.
func mergeHybrid(scored []scoredCourse) []scoredCourse {
	best := map[uuid.UUID]scoredCourse{}
	var order []uuid.UUID
	for _, sc := range scored {
		current, ok := best[sc.CourseID]
		if !ok {
			order = append(order, sc.CourseID)
			best[sc.CourseID] = sc
			continue
		}
		if sc.Score > current.Score {
			best[sc.CourseID] = sc
		}
	}
	results := make([]scoredCourse, 0, len(best))
	for _, cid := range order {
		sc := best[cid]
		sc.Algorithm = types.AlgorithmHybrid
		results = append(results, sc)
	}
	return results
}

func topScored(scored []scoredCourse, limit int) []scoredCourse {
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (s *recommendationService) Pending(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Recommendation, error) {
	return s.recs.ListByUser(ctx, nil, userID, types.RecommendationPending, time.Now().UTC(), limit)
}

func (s *recommendationService) MarkViewed(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error) {
	return s.updateStatus(ctx, recommendationID, types.RecommendationViewed, func(row *types.Recommendation, now time.Time) {
		if row.ViewedDate == nil {
			row.ViewedDate = &now
		}
	})
}

// Enroll acts on the recommendation: the enrollment goes through the
// collaborator, then the row flips to enrolled.
func (s *recommendationService) Enroll(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error) {
	row, err := s.recs.GetByID(ctx, nil, recommendationID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("recommendation %s: %w", recommendationID, types.ErrNotFound)
	}
	if err := s.enroll.Enroll(ctx, row.UserID, row.CourseID, "recommendation"); err != nil {
		return nil, fmt.Errorf("enrolling via collaborator: %w", err)
	}
	now := time.Now().UTC()
	row.Status = types.RecommendationEnrolled
	row.ActionDate = &now
	if err := s.recs.Save(ctx, nil, row); err != nil {
		return nil, err
	}
	s.notifier.OnRecommendationActedOn(ctx, row.UserID, row.CourseID, types.RecommendationEnrolled)
	return row, nil
}

// Dismiss is the negative-feedback signal for algorithm tuning.
func (s *recommendationService) Dismiss(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error) {
	row, err := s.updateStatus(ctx, recommendationID, types.RecommendationDismissed, func(row *types.Recommendation, now time.Time) {
		row.ActionDate = &now
	})
	if err != nil {
		return nil, err
	}
	s.notifier.OnRecommendationActedOn(ctx, row.UserID, row.CourseID, types.RecommendationDismissed)
	return row, nil
}

func (s *recommendationService) Save(ctx context.Context, recommendationID uuid.UUID) (*types.Recommendation, error) {
	row, err := s.updateStatus(ctx, recommendationID, types.RecommendationSaved, func(row *types.Recommendation, now time.Time) {
		row.ActionDate = &now
	})
	if err != nil {
		return nil, err
	}
	s.notifier.OnRecommendationActedOn(ctx, row.UserID, row.CourseID, types.RecommendationSaved)
	return row, nil
}

func (s *recommendationService) updateStatus(ctx context.Context, id uuid.UUID, status types.RecommendationStatus, apply func(*types.Recommendation, time.Time)) (*types.Recommendation, error) {
	row, err := s.recs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("recommendation %s: %w", id, types.ErrNotFound)
	}
	now := time.Now().UTC()
	row.Status = status
	apply(row, now)
	if err := s.recs.Save(ctx, nil, row); err != nil {
		return nil, err
	}
	return row, nil
}
