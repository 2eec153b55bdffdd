package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type taxonomyFixture struct {
	svc        TaxonomyService
	skills     repos.SkillRepo
	courseMap  repos.CourseSkillRepo
	userSkills repos.UserSkillRepo
	enroll     *fakeEnrollment
}

func newTaxonomyFixture(t *testing.T) *taxonomyFixture {
	t.Helper()
	gormDB := newTestDB(t)
	log := newTestLogger(t)
	enroll := newFakeEnrollment()
	skills := repos.NewSkillRepo(gormDB, log)
	courseMap := repos.NewCourseSkillRepo(gormDB, log)
	userSkills := repos.NewUserSkillRepo(gormDB, log)
	svc := NewTaxonomyService(gormDB, log, DefaultTaxonomyConfig(), skills, courseMap, userSkills, enroll, newTestTrendCache())
	return &taxonomyFixture{svc: svc, skills: skills, courseMap: courseMap, userSkills: userSkills, enroll: enroll}
}

func (f *taxonomyFixture) createSkill(t *testing.T, code, name string, parentID *uuid.UUID) *types.Skill {
	t.Helper()
	skill, err := f.svc.CreateSkill(context.Background(), CreateSkillInput{
		Code:     code,
		Name:     name,
		Category: types.CategoryTechnical,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("creating skill %s: %v", code, err)
	}
	return skill
}

func TestCreateSkill_RejectsDuplicateCode(t *testing.T) {
	f := newTaxonomyFixture(t)
	f.createSkill(t, "go", "Go", nil)
	_, err := f.svc.CreateSkill(context.Background(), CreateSkillInput{Code: "go", Name: "Golang"})
	if !errors.Is(err, types.ErrDuplicateMapping) {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}
}

func TestUpdateSkillParent_RejectsCycles(t *testing.T) {
	f := newTaxonomyFixture(t)
	ctx := context.Background()
	root := f.createSkill(t, "prog", "Programming", nil)
	mid := f.createSkill(t, "backend", "Backend", &root.ID)
	leaf := f.createSkill(t, "go", "Go", &mid.ID)

	if _, err := f.svc.UpdateSkillParent(ctx, root.ID, &leaf.ID); !errors.Is(err, types.ErrInvalidHierarchy) {
		t.Fatalf("expected ErrInvalidHierarchy for ancestor cycle, got %v", err)
	}
	if _, err := f.svc.UpdateSkillParent(ctx, root.ID, &root.ID); !errors.Is(err, types.ErrInvalidHierarchy) {
		t.Fatalf("expected ErrInvalidHierarchy for self parent, got %v", err)
	}
	// Re-parenting the leaf under the root directly stays acyclic.
	if _, err := f.svc.UpdateSkillParent(ctx, leaf.ID, &root.ID); err != nil {
		t.Fatalf("valid re-parent failed: %v", err)
	}
}

func TestFullPath_JoinsAncestorNames(t *testing.T) {
	f := newTaxonomyFixture(t)
	root := f.createSkill(t, "prog", "Programming", nil)
	mid := f.createSkill(t, "backend", "Backend", &root.ID)
	leaf := f.createSkill(t, "go", "Go", &mid.ID)

	path, err := f.svc.FullPath(context.Background(), leaf.ID)
	if err != nil {
		t.Fatalf("full path: %v", err)
	}
	if path != "Programming > Backend > Go" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestDescendants_WalksAllLevels(t *testing.T) {
	f := newTaxonomyFixture(t)
	root := f.createSkill(t, "prog", "Programming", nil)
	mid := f.createSkill(t, "backend", "Backend", &root.ID)
	f.createSkill(t, "go", "Go", &mid.ID)
	f.createSkill(t, "py", "Python", &mid.ID)

	descendants, err := f.svc.Descendants(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(descendants) != 3 {
		t.Fatalf("expected 3 descendants, got %d", len(descendants))
	}
}

func TestMapCourseToSkill_Validation(t *testing.T) {
	f := newTaxonomyFixture(t)
	ctx := context.Background()
	skill := f.createSkill(t, "go", "Go", nil)
	courseID := uuid.New()

	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{
		CourseID: courseID, SkillID: skill.ID, Weight: 1.5,
	}); !errors.Is(err, types.ErrInvalidWeight) {
		t.Fatalf("expected ErrInvalidWeight, got %v", err)
	}

	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{
		CourseID: courseID, SkillID: uuid.New(), Weight: 0.5,
	}); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown skill, got %v", err)
	}

	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{
		CourseID: courseID, SkillID: skill.ID, Weight: 0.5, SkillPoints: 10,
	}); err != nil {
		t.Fatalf("valid mapping failed: %v", err)
	}
	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{
		CourseID: courseID, SkillID: skill.ID, Weight: 0.5,
	}); !errors.Is(err, types.ErrDuplicateMapping) {
		t.Fatalf("expected ErrDuplicateMapping, got %v", err)
	}
}

func TestRelatedSkills_RanksByCooccurrence(t *testing.T) {
	f := newTaxonomyFixture(t)
	ctx := context.Background()
	anchor := f.createSkill(t, "go", "Go", nil)
	often := f.createSkill(t, "sql", "SQL", nil)
	rare := f.createSkill(t, "k8s", "Kubernetes", nil)

	course1, course2 := uuid.New(), uuid.New()
	for _, m := range []MapCourseInput{
		{CourseID: course1, SkillID: anchor.ID, Weight: 1},
		{CourseID: course1, SkillID: often.ID, Weight: 1},
		{CourseID: course2, SkillID: anchor.ID, Weight: 1},
		{CourseID: course2, SkillID: often.ID, Weight: 1},
	} {
		if _, err := f.svc.MapCourseToSkill(ctx, m); err != nil {
			t.Fatalf("seeding mapping: %v", err)
		}
	}
	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{CourseID: course1, SkillID: rare.ID, Weight: 1}); err != nil {
		t.Fatalf("seeding mapping: %v", err)
	}

	related, err := f.svc.RelatedSkills(ctx, anchor.ID, 5)
	if err != nil {
		t.Fatalf("related: %v", err)
	}
	if len(related) != 2 {
		t.Fatalf("expected 2 related skills, got %d", len(related))
	}
	if related[0].ID != often.ID {
		t.Fatalf("expected the twice-co-occurring skill first, got %s", related[0].Name)
	}
}

func TestRefreshTrending_UsesWeightedWindowCounts(t *testing.T) {
	f := newTaxonomyFixture(t)
	ctx := context.Background()
	skill := f.createSkill(t, "go", "Go", nil)
	courseID := uuid.New()

	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{CourseID: courseID, SkillID: skill.ID, Weight: 1}); err != nil {
		t.Fatalf("mapping: %v", err)
	}
	f.enroll.recent[courseID] = 20
	if err := f.userSkills.Create(ctx, nil, &types.UserSkill{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		SkillID:      skill.ID,
		CurrentLevel: types.LevelFoundational,
		LastUpdated:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("ledger row: %v", err)
	}

	if err := f.svc.RefreshTrending(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	updated, err := f.svc.GetSkill(ctx, skill.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// 0.6*20 + 0.4*1 = 12.4, above the threshold of 10.
	if math.Abs(updated.TrendScore-12.4) > 1e-9 {
		t.Fatalf("expected trend score 12.4, got %.4f", updated.TrendScore)
	}
	if !updated.IsTrending {
		t.Fatalf("skill should be trending above the threshold")
	}
}

func TestRefreshStats_AveragesLedgerOrdinals(t *testing.T) {
	f := newTaxonomyFixture(t)
	ctx := context.Background()
	skill := f.createSkill(t, "go", "Go", nil)

	if _, err := f.svc.MapCourseToSkill(ctx, MapCourseInput{CourseID: uuid.New(), SkillID: skill.ID, Weight: 1}); err != nil {
		t.Fatalf("mapping: %v", err)
	}
	for _, lvl := range []types.Level{types.LevelFoundational, types.LevelAdvanced} {
		if err := f.userSkills.Create(ctx, nil, &types.UserSkill{
			ID:           uuid.New(),
			UserID:       uuid.New(),
			SkillID:      skill.ID,
			CurrentLevel: lvl,
			LastUpdated:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("ledger row: %v", err)
		}
	}

	if err := f.svc.RefreshStats(ctx, skill.ID); err != nil {
		t.Fatalf("refresh stats: %v", err)
	}
	updated, _ := f.svc.GetSkill(ctx, skill.ID)
	if updated.TotalCourses != 1 || updated.TotalLearners != 2 {
		t.Fatalf("expected 1 course / 2 learners, got %d/%d", updated.TotalCourses, updated.TotalLearners)
	}
	// foundational(2) + advanced(4) averaged = 3
	if updated.AverageProficiency != 3 {
		t.Fatalf("expected average proficiency 3, got %.2f", updated.AverageProficiency)
	}
}
