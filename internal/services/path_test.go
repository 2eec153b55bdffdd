package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type pathFixture struct {
	svc       PathService
	paths     repos.LearningPathRepo
	nodes     repos.PathNodeRepo
	courseMap repos.CourseSkillRepo
	enroll    *fakeEnrollment
	notifier  *recordingNotifier
}

func newPathFixture(t *testing.T) *pathFixture {
	t.Helper()
	gormDB := newTestDB(t)
	log := newTestLogger(t)
	enroll := newFakeEnrollment()
	notifier := &recordingNotifier{}
	paths := repos.NewLearningPathRepo(gormDB, log)
	nodes := repos.NewPathNodeRepo(gormDB, log)
	courseMap := repos.NewCourseSkillRepo(gormDB, log)
	svc := NewPathService(gormDB, log, DefaultPathConfig(), paths, nodes, courseMap, enroll, notifier)
	return &pathFixture{svc: svc, paths: paths, nodes: nodes, courseMap: courseMap, enroll: enroll, notifier: notifier}
}

func (f *pathFixture) createPath(t *testing.T, userID uuid.UUID) *types.LearningPath {
	t.Helper()
	path, err := f.svc.CreatePath(context.Background(), CreatePathInput{
		UserID: userID,
		Name:   "Backend track",
	})
	if err != nil {
		t.Fatalf("creating path: %v", err)
	}
	return path
}

func (f *pathFixture) addNode(t *testing.T, pathID uuid.UUID, sequence int) *types.PathNode {
	t.Helper()
	node, err := f.svc.AddNode(context.Background(), AddNodeInput{
		PathID:   pathID,
		CourseID: uuid.New(),
		Sequence: sequence,
		NodeType: types.NodeTypeRequired,
	})
	if err != nil {
		t.Fatalf("adding node: %v", err)
	}
	return node
}

func TestAddNode_RejectsDuplicateCourse(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	path := f.createPath(t, uuid.New())
	courseID := uuid.New()

	if _, err := f.svc.AddNode(ctx, AddNodeInput{PathID: path.ID, CourseID: courseID}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := f.svc.AddNode(ctx, AddNodeInput{PathID: path.ID, CourseID: courseID}); !errors.Is(err, types.ErrDuplicateEdge) {
		t.Fatalf("expected ErrDuplicateEdge, got %v", err)
	}
}

func TestAddNode_RejectsDeadlineAfterTarget(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	target := time.Now().UTC().Add(7 * 24 * time.Hour)
	path, err := f.svc.CreatePath(ctx, CreatePathInput{
		UserID:               uuid.New(),
		Name:                 "Deadline path",
		TargetCompletionDate: &target,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	late := target.Add(24 * time.Hour)
	_, err = f.svc.AddNode(ctx, AddNodeInput{PathID: path.ID, CourseID: uuid.New(), Deadline: &late})
	if !errors.Is(err, types.ErrInvalidDeadline) {
		t.Fatalf("expected ErrInvalidDeadline, got %v", err)
	}
}

func TestAddNodePrerequisite_RejectsCycles(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	path := f.createPath(t, uuid.New())
	n1 := f.addNode(t, path.ID, 10)
	n2 := f.addNode(t, path.ID, 20)
	n3 := f.addNode(t, path.ID, 30)

	if err := f.svc.AddNodePrerequisite(ctx, n2.ID, n1.ID); err != nil {
		t.Fatalf("n2 <- n1: %v", err)
	}
	if err := f.svc.AddNodePrerequisite(ctx, n3.ID, n2.ID); err != nil {
		t.Fatalf("n3 <- n2: %v", err)
	}
	if err := f.svc.AddNodePrerequisite(ctx, n1.ID, n3.ID); !errors.Is(err, types.ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if err := f.svc.AddNodePrerequisite(ctx, n1.ID, n1.ID); !errors.Is(err, types.ErrCircularDependency) {
		t.Fatalf("self edge should be circular, got %v", err)
	}
	if err := f.svc.AddNodePrerequisite(ctx, n2.ID, n1.ID); !errors.Is(err, types.ErrDuplicateEdge) {
		t.Fatalf("expected ErrDuplicateEdge, got %v", err)
	}
}

func TestAddNodePrerequisite_RejectsOtherPath(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	p1 := f.createPath(t, uuid.New())
	p2 := f.createPath(t, uuid.New())
	n1 := f.addNode(t, p1.ID, 10)
	n2 := f.addNode(t, p2.ID, 10)

	if err := f.svc.AddNodePrerequisite(ctx, n1.ID, n2.ID); err == nil {
		t.Fatalf("cross-path prerequisite must fail")
	}
}

func TestActivate_RequiresNodes(t *testing.T) {
	f := newPathFixture(t)
	path := f.createPath(t, uuid.New())
	if _, err := f.svc.Activate(context.Background(), path.ID); !errors.Is(err, types.ErrEmptyPath) {
		t.Fatalf("expected ErrEmptyPath, got %v", err)
	}
}

func TestActivate_UnlocksRootsAndAutoEnrolls(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	path := f.createPath(t, userID)
	n1 := f.addNode(t, path.ID, 10)
	n2 := f.addNode(t, path.ID, 20)
	if err := f.svc.AddNodePrerequisite(ctx, n2.ID, n1.ID); err != nil {
		t.Fatalf("edge: %v", err)
	}

	activated, err := f.svc.Activate(ctx, path.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if activated.State != types.PathStateActive || activated.StartDate == nil {
		t.Fatalf("expected active path with start date")
	}

	nodes, err := f.nodes.ListByPath(ctx, nil, path.ID)
	if err != nil {
		t.Fatalf("listing nodes: %v", err)
	}
	if !nodes[0].IsUnlocked {
		t.Fatalf("root node should be unlocked")
	}
	if nodes[1].IsUnlocked {
		t.Fatalf("gated node should stay locked")
	}
	if len(f.enroll.enrolled) != 1 || f.enroll.enrolled[0] != n1.CourseID {
		t.Fatalf("expected auto-enroll in first unlocked course, got %v", f.enroll.enrolled)
	}
}

func TestRecomputeUnlocks_PropagatesCompletion(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	path := f.createPath(t, userID)
	n1 := f.addNode(t, path.ID, 10)
	n2 := f.addNode(t, path.ID, 20)
	if err := f.svc.AddNodePrerequisite(ctx, n2.ID, n1.ID); err != nil {
		t.Fatalf("edge: %v", err)
	}
	if _, err := f.svc.Activate(ctx, path.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	f.enroll.complete(userID, n1.CourseID, time.Now().UTC())
	updated, err := f.svc.RecomputeUnlocks(ctx, path.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if updated.ProgressPercentage != 50 {
		t.Fatalf("expected 50%%, got %.2f", updated.ProgressPercentage)
	}
	if updated.CompletedNodes != 1 || updated.TotalNodes != 2 {
		t.Fatalf("expected 1/2 nodes, got %d/%d", updated.CompletedNodes, updated.TotalNodes)
	}

	nodes, _ := f.nodes.ListByPath(ctx, nil, path.ID)
	if !nodes[1].IsUnlocked {
		t.Fatalf("completing the prerequisite should unlock the next node")
	}
}

func TestComplete_RequiresFullProgress(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	path := f.createPath(t, userID)
	n1 := f.addNode(t, path.ID, 10)
	n2 := f.addNode(t, path.ID, 20)
	if _, err := f.svc.Activate(ctx, path.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	f.enroll.complete(userID, n1.CourseID, time.Now().UTC())
	if _, err := f.svc.Complete(ctx, path.ID); !errors.Is(err, types.ErrNotFullyComplete) {
		t.Fatalf("expected ErrNotFullyComplete, got %v", err)
	}

	f.enroll.complete(userID, n2.CourseID, time.Now().UTC())
	done, err := f.svc.Complete(ctx, path.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.State != types.PathStateCompleted || done.CompletionDate == nil {
		t.Fatalf("expected completed path with date")
	}
	if len(f.notifier.pathsDone) != 1 || f.notifier.pathsDone[0] != path.ID {
		t.Fatalf("completion event missing, got %v", f.notifier.pathsDone)
	}
}

func TestLifecycle_GuardsTransitions(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	path := f.createPath(t, uuid.New())

	if _, err := f.svc.Hold(ctx, path.ID); err == nil {
		t.Fatalf("holding a draft path must fail")
	}
	f.addNode(t, path.ID, 10)
	if _, err := f.svc.Activate(ctx, path.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := f.svc.Hold(ctx, path.ID); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := f.svc.Resume(ctx, path.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := f.svc.Archive(ctx, path.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := f.svc.Resume(ctx, path.ID); err == nil {
		t.Fatalf("resuming an archived path must fail")
	}
}

func TestNextAction_WalksSequence(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	path := f.createPath(t, userID)
	n1 := f.addNode(t, path.ID, 10)
	n2 := f.addNode(t, path.ID, 20)
	if err := f.svc.AddNodePrerequisite(ctx, n2.ID, n1.ID); err != nil {
		t.Fatalf("edge: %v", err)
	}
	if _, err := f.svc.Activate(ctx, path.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// Auto-enroll on activation put the user into n1's course.
	action, err := f.svc.NextAction(ctx, path.ID)
	if err != nil {
		t.Fatalf("next action: %v", err)
	}
	if action.Action != types.NextActionContinue || action.CourseID == nil || *action.CourseID != n1.CourseID {
		t.Fatalf("expected continue on n1, got %+v", action)
	}

	f.enroll.complete(userID, n1.CourseID, time.Now().UTC())
	if _, err := f.svc.RecomputeUnlocks(ctx, path.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	action, err = f.svc.NextAction(ctx, path.ID)
	if err != nil {
		t.Fatalf("next action: %v", err)
	}
	if action.Action != types.NextActionEnroll || action.CourseID == nil || *action.CourseID != n2.CourseID {
		t.Fatalf("expected enroll into n2, got %+v", action)
	}

	f.enroll.complete(userID, n2.CourseID, time.Now().UTC())
	if _, err := f.svc.RecomputeUnlocks(ctx, path.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}
	action, err = f.svc.NextAction(ctx, path.ID)
	if err != nil {
		t.Fatalf("next action: %v", err)
	}
	if action.Action != types.NextActionComplete {
		t.Fatalf("expected complete, got %+v", action)
	}
}

func TestAddPathPrerequisite_RejectsCycles(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	p1 := f.createPath(t, userID)
	p2 := f.createPath(t, userID)

	if err := f.svc.AddPathPrerequisite(ctx, p2.ID, p1.ID); err != nil {
		t.Fatalf("p2 <- p1: %v", err)
	}
	if err := f.svc.AddPathPrerequisite(ctx, p1.ID, p2.ID); !errors.Is(err, types.ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if err := f.svc.AddPathPrerequisite(ctx, p1.ID, p1.ID); !errors.Is(err, types.ErrCircularDependency) {
		t.Fatalf("self prerequisite should be circular, got %v", err)
	}
}

func TestRecomputeEstimates_UsesLessonDurations(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	path, err := f.svc.CreatePath(ctx, CreatePathInput{
		UserID:                uuid.New(),
		Name:                  "Estimated",
		WeeklyCommitmentHours: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	node := f.addNode(t, path.ID, 10)
	// 4 known hours plus 2 unknown lessons at the 0.25h default.
	f.enroll.metadata[node.CourseID] = enrollment.CourseMetadata{LessonDurations: []float64{2, 2, 0, 0}}

	updated, err := f.svc.RecomputeEstimates(ctx, path.ID)
	if err != nil {
		t.Fatalf("estimates: %v", err)
	}
	if updated.EstimatedHoursTotal != 4.5 {
		t.Fatalf("expected 4.5 hours, got %.2f", updated.EstimatedHoursTotal)
	}
	if updated.EstimatedCompletionDate == nil {
		t.Fatalf("expected an estimated completion date")
	}
}

func TestGenerateAutoPath_BuildsNodesFromGoals(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	skillID := uuid.New()
	courseID := uuid.New()

	if err := f.courseMap.Create(ctx, nil, &types.CourseSkill{
		ID:               uuid.New(),
		CourseID:         courseID,
		SkillID:          skillID,
		ProficiencyLevel: types.LevelIntermediate,
		SkillPoints:      10,
		Weight:           1,
	}); err != nil {
		t.Fatalf("seeding mapping: %v", err)
	}

	path, err := f.svc.CreatePath(ctx, CreatePathInput{
		UserID:     uuid.New(),
		Name:       "Auto",
		SkillGoals: []types.SkillTarget{{SkillID: skillID, TargetLevel: types.LevelIntermediate}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	generated, err := f.svc.GenerateAutoPath(ctx, path.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !generated.AIGenerated || generated.PathType != types.PathTypeAuto {
		t.Fatalf("path should be marked generated")
	}

	nodes, _ := f.nodes.ListByPath(ctx, nil, path.ID)
	if len(nodes) != 1 {
		t.Fatalf("expected 1 generated node, got %d", len(nodes))
	}
	if nodes[0].CourseID != courseID || nodes[0].NodeType != types.NodeTypeRequired {
		t.Fatalf("unexpected node %+v", nodes[0])
	}
	if nodes[0].AIConfidence != 0.9 || nodes[0].AIReason == "" {
		t.Fatalf("generated node should carry reason and confidence")
	}
}

func TestCloneAsTemplate_CopiesNodes(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	path := f.createPath(t, uuid.New())
	f.addNode(t, path.ID, 10)
	f.addNode(t, path.ID, 20)

	owner := uuid.New()
	clone, err := f.svc.CloneAsTemplate(ctx, path.ID, owner)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if !clone.IsTemplate || clone.PathType != types.PathTypeTemplate || clone.UserID != owner {
		t.Fatalf("unexpected clone %+v", clone)
	}
	nodes, _ := f.nodes.ListByPath(ctx, nil, clone.ID)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 cloned nodes, got %d", len(nodes))
	}
}

func TestRecalculatePath_FlagsBehindPace(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	// 20 hours of lessons against a 5h/week commitment and a 1 week target.
	target := time.Now().UTC().Add(7 * 24 * time.Hour)
	path, err := f.svc.CreatePath(ctx, CreatePathInput{
		UserID:                userID,
		Name:                  "Crunch path",
		TargetCompletionDate:  &target,
		WeeklyCommitmentHours: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	node := f.addNode(t, path.ID, 10)
	f.enroll.metadata[node.CourseID] = enrollment.CourseMetadata{LessonDurations: []float64{10, 10}}

	_, pace, err := f.svc.RecalculatePath(ctx, path.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if pace.OnTrack {
		t.Fatalf("20h in 1 week at 5h/week must be behind pace, got %+v", pace)
	}
	if pace.RemainingHours != 20 {
		t.Fatalf("expected 20 remaining hours, got %.2f", pace.RemainingHours)
	}
	if pace.RequiredWeeklyHours <= 5 {
		t.Fatalf("required weekly hours should exceed the commitment, got %.2f", pace.RequiredWeeklyHours)
	}
}

func TestRecalculatePath_OnTrackWithGenerousTarget(t *testing.T) {
	f := newPathFixture(t)
	ctx := context.Background()

	target := time.Now().UTC().Add(70 * 24 * time.Hour)
	path, err := f.svc.CreatePath(ctx, CreatePathInput{
		UserID:                uuid.New(),
		Name:                  "Slow burn",
		TargetCompletionDate:  &target,
		WeeklyCommitmentHours: 5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	node := f.addNode(t, path.ID, 10)
	f.enroll.metadata[node.CourseID] = enrollment.CourseMetadata{LessonDurations: []float64{10, 10}}

	_, pace, err := f.svc.RecalculatePath(ctx, path.ID)
	if err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if !pace.OnTrack {
		t.Fatalf("20h over 10 weeks at 5h/week should be on track, got %+v", pace)
	}
}
