package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

func newLedgerFixture(t *testing.T) (LedgerService, repos.UserSkillRepo, *recordingNotifier) {
	t.Helper()
	gormDB := newTestDB(t)
	log := newTestLogger(t)
	notifier := &recordingNotifier{}
	userSkills := repos.NewUserSkillRepo(gormDB, log)
	skills := repos.NewSkillRepo(gormDB, log)
	return NewLedgerService(gormDB, log, userSkills, skills, notifier), userSkills, notifier
}

func mapping(skillID uuid.UUID, level types.Level, points int) *types.CourseSkill {
	return &types.CourseSkill{
		ID:               uuid.New(),
		CourseID:         uuid.New(),
		SkillID:          skillID,
		ProficiencyLevel: level,
		SkillPoints:      points,
		Weight:           1,
	}
}

func TestAwardSkill_CreatesLedgerRow(t *testing.T) {
	svc, userSkills, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	row, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelIntermediate, 20))
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if row.CurrentLevel != types.LevelIntermediate || row.Points != 20 {
		t.Fatalf("unexpected row: level=%s points=%d", row.CurrentLevel, row.Points)
	}
	if !row.Verified {
		t.Fatalf("no assessment required, row should be verified")
	}

	sources, err := userSkills.ListSources(ctx, nil, row.ID)
	if err != nil {
		t.Fatalf("listing sources: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected 1 provenance row, got %d", len(sources))
	}
}

func TestAwardSkill_NeverLowersLevel(t *testing.T) {
	svc, _, notifier := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelAdvanced, 30)); err != nil {
		t.Fatalf("first award: %v", err)
	}
	row, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelFoundational, 10))
	if err != nil {
		t.Fatalf("second award: %v", err)
	}
	if row.CurrentLevel != types.LevelAdvanced {
		t.Fatalf("level regressed to %s", row.CurrentLevel)
	}
	if row.Points != 40 {
		t.Fatalf("points must still accumulate, got %d", row.Points)
	}
	if len(notifier.levelUps) != 0 {
		t.Fatalf("lower-level award must not fire a level-up event")
	}
}

func TestAwardSkill_HigherLevelFiresEvent(t *testing.T) {
	svc, _, notifier := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelAwareness, 5)); err != nil {
		t.Fatalf("first award: %v", err)
	}
	row, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelExpert, 50))
	if err != nil {
		t.Fatalf("second award: %v", err)
	}
	if row.CurrentLevel != types.LevelExpert {
		t.Fatalf("expected expert, got %s", row.CurrentLevel)
	}
	if len(notifier.levelUps) != 1 || notifier.levelUps[0] != types.LevelExpert {
		t.Fatalf("expected one expert level-up event, got %v", notifier.levelUps)
	}
}

func TestLevelUp_AddsBonusAndStopsAtExpert(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelAdvanced, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	row, err := svc.LevelUp(ctx, userID, skillID)
	if err != nil {
		t.Fatalf("level up: %v", err)
	}
	if row.CurrentLevel != types.LevelExpert || row.Points != 500 {
		t.Fatalf("expected expert with 500 bonus, got %s/%d", row.CurrentLevel, row.Points)
	}

	if _, err := svc.LevelUp(ctx, userID, skillID); !errors.Is(err, types.ErrAlreadyAtMax) {
		t.Fatalf("expected ErrAlreadyAtMax, got %v", err)
	}
}

func TestSetTargetLevel_RequiresStrictlyHigher(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelIntermediate, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.SetTargetLevel(ctx, userID, skillID, types.LevelIntermediate); !errors.Is(err, types.ErrInvalidTargetLevel) {
		t.Fatalf("equal target should fail, got %v", err)
	}
	row, err := svc.SetTargetLevel(ctx, userID, skillID, types.LevelExpert)
	if err != nil {
		t.Fatalf("setting valid target: %v", err)
	}
	if row.TargetLevel == nil || *row.TargetLevel != types.LevelExpert {
		t.Fatalf("target not stored")
	}
}

func TestAwardSkill_ClearsReachedTarget(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelFoundational, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := svc.SetTargetLevel(ctx, userID, skillID, types.LevelAdvanced); err != nil {
		t.Fatalf("target: %v", err)
	}
	row, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelAdvanced, 0))
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if row.TargetLevel != nil {
		t.Fatalf("reached target should be cleared, got %v", *row.TargetLevel)
	}
}

func TestComputeGaps_SortsLargestFirst(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	known, missing := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(known, types.LevelAdvanced, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	gaps, err := svc.ComputeGaps(ctx, userID, []types.SkillTarget{
		{SkillID: known, TargetLevel: types.LevelExpert},
		{SkillID: missing, TargetLevel: types.LevelIntermediate},
	})
	if err != nil {
		t.Fatalf("gaps: %v", err)
	}
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(gaps))
	}
	// Missing skill has gap 3, known has gap 1.
	if gaps[0].SkillID != missing || gaps[0].GapSize != 3 {
		t.Fatalf("largest gap first, got %+v", gaps[0])
	}
	if gaps[1].SkillID != known || gaps[1].GapSize != 1 {
		t.Fatalf("unexpected second gap %+v", gaps[1])
	}
	if gaps[0].CurrentLevel != nil {
		t.Fatalf("absent skill should have nil current level")
	}
}

func TestComputeGaps_SkipsMetTargets(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	ctx := context.Background()
	userID, skillID := uuid.New(), uuid.New()

	if _, err := svc.AwardSkill(ctx, userID, mapping(skillID, types.LevelExpert, 0)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	gaps, err := svc.ComputeGaps(ctx, userID, []types.SkillTarget{
		{SkillID: skillID, TargetLevel: types.LevelIntermediate},
	})
	if err != nil {
		t.Fatalf("gaps: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("met target should produce no gap, got %+v", gaps)
	}
}

func TestProgressToTarget_PointsMath(t *testing.T) {
	svc, _, _ := newLedgerFixture(t)
	target := types.LevelAdvanced
	row := &types.UserSkill{
		CurrentLevel: types.LevelFoundational,
		TargetLevel:  &target,
		Points:       125,
	}
	// foundational=50, advanced=300: needed 250, gained 125 -> 50%
	if got := svc.ProgressToTarget(row); got != 50 {
		t.Fatalf("expected 50, got %.2f", got)
	}
	row.Points = 9999
	if got := svc.ProgressToTarget(row); got != 100 {
		t.Fatalf("overshoot should cap at 100, got %.2f", got)
	}
	row.TargetLevel = nil
	if got := svc.ProgressToTarget(row); got != 100 {
		t.Fatalf("no target means 100, got %.2f", got)
	}
}
