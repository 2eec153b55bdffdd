package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/repos"
	"github.com/retrocraftdevops/seitech/internal/types"
)

// PathConfig carries the progress weighting and the fallback lesson length.
type PathConfig struct {
	RequiredWeight     float64
	OptionalWeight     float64
	DefaultLessonHours float64
}

func DefaultPathConfig() PathConfig {
	return PathConfig{
		RequiredWeight:     0.8,
		OptionalWeight:     0.2,
		DefaultLessonHours: 0.25,
	}
}

type CreatePathInput struct {
	UserID                uuid.UUID           `json:"user_id"`
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	GoalDescription       string              `json:"goal_description"`
	PathType              types.PathType      `json:"path_type"`
	TargetCompletionDate  *time.Time          `json:"target_completion_date"`
	WeeklyCommitmentHours int                 `json:"weekly_commitment_hours"`
	SkillGoals            []types.SkillTarget `json:"skill_goals"`
}

type AddNodeInput struct {
	PathID      uuid.UUID      `json:"path_id"`
	CourseID    uuid.UUID      `json:"course_id"`
	Sequence    int            `json:"sequence"`
	NodeType    types.NodeType `json:"node_type"`
	Description string         `json:"description"`
	Deadline    *time.Time     `json:"deadline"`
}

type PathService interface {
	CreatePath(ctx context.Context, input CreatePathInput) (*types.LearningPath, error)
	GetPath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	ListPaths(ctx context.Context, userID uuid.UUID, state *types.PathState) ([]*types.LearningPath, error)

	AddNode(ctx context.Context, input AddNodeInput) (*types.PathNode, error)
	RemoveNode(ctx context.Context, nodeID uuid.UUID) error
	SetNodeDeadline(ctx context.Context, nodeID uuid.UUID, deadline *time.Time) (*types.PathNode, error)
	AddNodePrerequisite(ctx context.Context, nodeID, prerequisiteID uuid.UUID) error
	ClearNodePrerequisites(ctx context.Context, nodeID uuid.UUID) error
	AddPathPrerequisite(ctx context.Context, pathID, prerequisiteID uuid.UUID) error

	Activate(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	Complete(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	Hold(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	Resume(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	Archive(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)

	// RecomputeUnlocks pulls completion state from the enrollment service and
	// rederives unlock flags and path progress. Safe to re-run.
	RecomputeUnlocks(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	RecomputeEstimates(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)

	// RecalculatePath refreshes unlocks and estimates in one pass and checks
	// the remaining workload against the target completion date.
	RecalculatePath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, *PaceStatus, error)

	NextAction(ctx context.Context, pathID uuid.UUID) (*types.NextAction, error)

	// OnCourseCompleted is the entry point for external completion events:
	// every open path of the user containing the course gets recomputed.
	OnCourseCompleted(ctx context.Context, userID, courseID uuid.UUID) error

	GenerateAutoPath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error)
	CloneAsTemplate(ctx context.Context, pathID uuid.UUID, ownerID uuid.UUID) (*types.LearningPath, error)
	OverdueNodes(ctx context.Context, asOf time.Time) ([]*types.PathNode, error)

	SkillGoalTargets(ctx context.Context, pathID uuid.UUID) ([]types.SkillTarget, error)
}

type pathService struct {
	db        *gorm.DB
	log       *logger.Logger
	cfg       PathConfig
	paths     repos.LearningPathRepo
	nodes     repos.PathNodeRepo
	courseMap repos.CourseSkillRepo
	enroll    enrollment.Client
	notifier  Notifier
}

func NewPathService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg PathConfig,
	paths repos.LearningPathRepo,
	nodes repos.PathNodeRepo,
	courseMap repos.CourseSkillRepo,
	enroll enrollment.Client,
	notifier Notifier,
) PathService {
	return &pathService{
		db:        db,
		log:       baseLog.With("service", "PathService"),
		cfg:       cfg,
		paths:     paths,
		nodes:     nodes,
		courseMap: courseMap,
		enroll:    enroll,
		notifier:  notifier,
	}
}

func (s *pathService) CreatePath(ctx context.Context, input CreatePathInput) (*types.LearningPath, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("path owner: %w", types.ErrNotFound)
	}
	if input.Name == "" {
		return nil, fmt.Errorf("path name is required: %w", types.ErrNotFound)
	}
	pathType := input.PathType
	if pathType == "" {
		pathType = types.PathTypeManual
	}
	if !pathType.Valid() {
		return nil, fmt.Errorf("unknown path type %q: %w", pathType, types.ErrNotFound)
	}
	weekly := input.WeeklyCommitmentHours
	if weekly == 0 {
		weekly = 5
	}
	if weekly < 1 || weekly > 168 {
		return nil, fmt.Errorf("weekly hours %d outside [1,168]: %w", weekly, types.ErrInvalidWeight)
	}

	row := &types.LearningPath{
		ID:                    uuid.New(),
		UserID:                input.UserID,
		Name:                  input.Name,
		Description:           input.Description,
		GoalDescription:       input.GoalDescription,
		PathType:              pathType,
		State:                 types.PathStateDraft,
		TargetCompletionDate:  input.TargetCompletionDate,
		WeeklyCommitmentHours: weekly,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paths.Create(ctx, tx, row); err != nil {
			return err
		}
		for _, goal := range input.SkillGoals {
			goalRow := &types.PathSkillGoal{
				ID:      uuid.New(),
				PathID:  row.ID,
				SkillID: goal.SkillID,
			}
			if goal.TargetLevel != "" {
				if !goal.TargetLevel.Valid() {
					return fmt.Errorf("unknown target level %q: %w", goal.TargetLevel, types.ErrInvalidTargetLevel)
				}
				level := goal.TargetLevel
				goalRow.TargetLevel = &level
			}
			if err := s.paths.AddSkillGoal(ctx, tx, goalRow); err != nil {
				return fmt.Errorf("adding skill goal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *pathService) GetPath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.paths.GetByID(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, fmt.Errorf("path %s: %w", pathID, types.ErrNotFound)
	}
	return path, nil
}

func (s *pathService) ListPaths(ctx context.Context, userID uuid.UUID, state *types.PathState) ([]*types.LearningPath, error) {
	return s.paths.ListByUser(ctx, nil, userID, state)
}

func (s *pathService) AddNode(ctx context.Context, input AddNodeInput) (*types.PathNode, error) {
	nodeType := input.NodeType
	if nodeType == "" {
		nodeType = types.NodeTypeRequired
	}
	if !nodeType.Valid() {
		return nil, fmt.Errorf("unknown node type %q: %w", nodeType, types.ErrNotFound)
	}

	row := &types.PathNode{
		ID:          uuid.New(),
		PathID:      input.PathID,
		CourseID:    input.CourseID,
		Sequence:    input.Sequence,
		NodeType:    nodeType,
		Description: input.Description,
		Deadline:    input.Deadline,
	}
	if row.Sequence == 0 {
		row.Sequence = 10
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		path, err := s.paths.GetByID(ctx, tx, input.PathID)
		if err != nil {
			return err
		}
		if path == nil {
			return fmt.Errorf("path %s: %w", input.PathID, types.ErrNotFound)
		}
		if input.Deadline != nil && path.TargetCompletionDate != nil && input.Deadline.After(*path.TargetCompletionDate) {
			return fmt.Errorf("node deadline after path target date: %w", types.ErrInvalidDeadline)
		}
		existing, err := s.nodes.GetByPathAndCourse(ctx, tx, input.PathID, input.CourseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("course %s already in path %s: %w", input.CourseID, input.PathID, types.ErrDuplicateEdge)
		}
		// New nodes start unlocked until an edge says otherwise.
		row.IsUnlocked = true
		return s.nodes.Create(ctx, tx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *pathService) RemoveNode(ctx context.Context, nodeID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := s.nodes.GetByID(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
		}
		if err := s.nodes.RemovePrerequisites(ctx, tx, nodeID); err != nil {
			return err
		}
		return s.nodes.Delete(ctx, tx, nodeID)
	})
}

func (s *pathService) SetNodeDeadline(ctx context.Context, nodeID uuid.UUID, deadline *time.Time) (*types.PathNode, error) {
	var result *types.PathNode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := s.nodes.GetByID(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
		}
		path, err := s.paths.GetByID(ctx, tx, node.PathID)
		if err != nil {
			return err
		}
		if deadline != nil && path != nil && path.TargetCompletionDate != nil && deadline.After(*path.TargetCompletionDate) {
			return fmt.Errorf("node deadline after path target date: %w", types.ErrInvalidDeadline)
		}
		node.Deadline = deadline
		if err := s.nodes.Save(ctx, tx, node); err != nil {
			return err
		}
		result = node
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddNodePrerequisite writes a node -> prerequisite edge. The cycle check
// runs inside the same transaction as the edge write so two concurrent
// writes cannot individually pass and jointly create a cycle.
func (s *pathService) AddNodePrerequisite(ctx context.Context, nodeID, prerequisiteID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := s.nodes.GetByID(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
		}
		prereq, err := s.nodes.GetByID(ctx, tx, prerequisiteID)
		if err != nil {
			return err
		}
		if prereq == nil {
			return fmt.Errorf("prerequisite node %s: %w", prerequisiteID, types.ErrNotFound)
		}
		if prereq.PathID != node.PathID {
			return fmt.Errorf("prerequisite from another path: %w", types.ErrCircularDependency)
		}
		existing, err := s.nodes.GetPrerequisite(ctx, tx, nodeID, prerequisiteID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("edge %s -> %s: %w", nodeID, prerequisiteID, types.ErrDuplicateEdge)
		}

		edges, err := s.nodes.ListPrerequisiteEdges(ctx, tx, node.PathID)
		if err != nil {
			return err
		}
		if wouldCycle(prereqAdjacency(edges), nodeID, prerequisiteID) {
			return fmt.Errorf("edge %s -> %s: %w", nodeID, prerequisiteID, types.ErrCircularDependency)
		}

		if err := s.nodes.AddPrerequisite(ctx, tx, &types.NodePrerequisite{
			ID:             uuid.New(),
			NodeID:         nodeID,
			PrerequisiteID: prerequisiteID,
		}); err != nil {
			return err
		}

		// The new edge may lock the node until its prerequisite completes.
		if !prereq.IsCompleted && node.IsUnlocked {
			node.IsUnlocked = false
			node.UnlockDate = nil
			return s.nodes.Save(ctx, tx, node)
		}
		return nil
	})
}

// ClearNodePrerequisites is the administrative unlock override.
func (s *pathService) ClearNodePrerequisites(ctx context.Context, nodeID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, err := s.nodes.GetByID(ctx, tx, nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("node %s: %w", nodeID, types.ErrNotFound)
		}
		if err := s.nodes.RemovePrerequisites(ctx, tx, nodeID); err != nil {
			return err
		}
		node.IsUnlocked = true
		return s.nodes.Save(ctx, tx, node)
	})
}

func (s *pathService) AddPathPrerequisite(ctx context.Context, pathID, prerequisiteID uuid.UUID) error {
	if pathID == prerequisiteID {
		return fmt.Errorf("path cannot be its own prerequisite: %w", types.ErrCircularDependency)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		path, err := s.paths.GetByID(ctx, tx, pathID)
		if err != nil {
			return err
		}
		if path == nil {
			return fmt.Errorf("path %s: %w", pathID, types.ErrNotFound)
		}
		prereq, err := s.paths.GetByID(ctx, tx, prerequisiteID)
		if err != nil {
			return err
		}
		if prereq == nil {
			return fmt.Errorf("prerequisite path %s: %w", prerequisiteID, types.ErrNotFound)
		}
		existing, err := s.paths.GetPrerequisite(ctx, tx, pathID, prerequisiteID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("edge %s -> %s: %w", pathID, prerequisiteID, types.ErrDuplicateEdge)
		}

		// DFS from the prerequisite: if pathID is reachable, the new edge
		// closes a cycle.
		stack := []uuid.UUID{prerequisiteID}
		visited := map[uuid.UUID]bool{}
		for len(stack) > 0 {
			current := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if current == pathID {
				return fmt.Errorf("edge %s -> %s: %w", pathID, prerequisiteID, types.ErrCircularDependency)
			}
			if visited[current] {
				continue
			}
			visited[current] = true
			next, err := s.paths.ListPrerequisiteIDs(ctx, tx, current)
			if err != nil {
				return err
			}
			stack = append(stack, next...)
		}

		return s.paths.AddPrerequisite(ctx, tx, &types.PathPrerequisite{
			ID:             uuid.New(),
			PathID:         pathID,
			PrerequisiteID: prerequisiteID,
		})
	})
}

func (s *pathService) Activate(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if path.State != types.PathStateDraft && path.State != types.PathStateOnHold {
		return nil, fmt.Errorf("cannot activate path in state %s: %w", path.State, types.ErrNotFound)
	}
	nodes, err := s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("path %s has no nodes: %w", pathID, types.ErrEmptyPath)
	}

	now := time.Now().UTC()
	path.State = types.PathStateActive
	if path.StartDate == nil {
		path.StartDate = &now
	}
	if err := s.paths.Save(ctx, nil, path); err != nil {
		return nil, err
	}

	path, err = s.RecomputeUnlocks(ctx, pathID)
	if err != nil {
		return nil, err
	}

	// Auto-enroll in the first unlocked incomplete node.
	nodes, err = s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.IsUnlocked && !n.IsCompleted {
			if err := s.enroll.Enroll(ctx, path.UserID, n.CourseID, "learning_path"); err != nil {
				s.log.Warn("Auto-enroll failed on activation", "path_id", pathID, "course_id", n.CourseID, "error", err)
			}
			break
		}
	}
	return path, nil
}

func (s *pathService) Complete(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.RecomputeUnlocks(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if path.ProgressPercentage < 100 {
		return nil, fmt.Errorf("path at %.1f%%: %w", path.ProgressPercentage, types.ErrNotFullyComplete)
	}
	now := time.Now().UTC()
	path.State = types.PathStateCompleted
	path.CompletionDate = &now
	if err := s.paths.Save(ctx, nil, path); err != nil {
		return nil, err
	}
	s.notifier.OnPathCompleted(ctx, path.UserID, path.ID)
	return path, nil
}

func (s *pathService) Hold(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	return s.transition(ctx, pathID, []types.PathState{types.PathStateActive}, types.PathStateOnHold)
}

func (s *pathService) Resume(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	return s.transition(ctx, pathID, []types.PathState{types.PathStateOnHold}, types.PathStateActive)
}

func (s *pathService) Archive(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	return s.transition(ctx, pathID, []types.PathState{
		types.PathStateDraft, types.PathStateActive, types.PathStateOnHold,
	}, types.PathStateArchived)
}

func (s *pathService) transition(ctx context.Context, pathID uuid.UUID, from []types.PathState, to types.PathState) (*types.LearningPath, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if path.State == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move path from %s to %s: %w", path.State, to, types.ErrNotFound)
	}
	path.State = to
	if err := s.paths.Save(ctx, nil, path); err != nil {
		return nil, err
	}
	return path, nil
}

func (s *pathService) RecomputeUnlocks(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	edges, err := s.nodes.ListPrerequisiteEdges(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}

	// Pull completion state from the enrollment collaborator.
	for _, n := range nodes {
		status, err := s.enroll.GetCompletionStatus(ctx, path.UserID, n.CourseID)
		if err != nil {
			return nil, fmt.Errorf("completion status for course %s: %w", n.CourseID, err)
		}
		n.IsCompleted = status.IsCompleted
		n.CompletionDate = status.CompletionDate
		n.CompletionPercentage = status.CompletionPercentage
	}

	now := time.Now().UTC()
	recomputeUnlockFlags(nodes, edges, path.StartDate, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, n := range nodes {
			if err := s.nodes.Save(ctx, tx, n); err != nil {
				return err
			}
		}
		progress, completed, total := computeProgress(nodes, s.cfg.RequiredWeight, s.cfg.OptionalWeight)
		path.ProgressPercentage = progress
		path.CompletedNodes = completed
		path.TotalNodes = total
		return s.paths.Save(ctx, tx, path)
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

func (s *pathService) RecomputeEstimates(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}

	totalHours := 0.0
	for _, n := range nodes {
		meta, err := s.enroll.GetCourseMetadata(ctx, n.CourseID)
		if err != nil {
			return nil, fmt.Errorf("course metadata for %s: %w", n.CourseID, err)
		}
		for _, d := range meta.LessonDurations {
			if d <= 0 {
				d = s.cfg.DefaultLessonHours
			}
			totalHours += d
		}
	}

	path.EstimatedHoursTotal = totalHours
	if path.WeeklyCommitmentHours > 0 {
		start := time.Now().UTC()
		if path.StartDate != nil {
			start = *path.StartDate
		}
		weeks := math.Ceil(totalHours / float64(path.WeeklyCommitmentHours))
		eta := start.Add(time.Duration(weeks) * 7 * 24 * time.Hour)
		path.EstimatedCompletionDate = &eta
	} else {
		path.EstimatedCompletionDate = nil
	}
	if err := s.paths.Save(ctx, nil, path); err != nil {
		return nil, err
	}
	return path, nil
}

// PaceStatus reports whether the remaining workload still fits between now
// and the path's target completion date at the committed weekly hours.
type PaceStatus struct {
	OnTrack             bool    `json:"on_track"`
	RemainingHours      float64 `json:"remaining_hours"`
	RequiredWeeklyHours float64 `json:"required_weekly_hours"`
	WeeksToTarget       float64 `json:"weeks_to_target"`
}

func (s *pathService) RecalculatePath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, *PaceStatus, error) {
	if _, err := s.RecomputeUnlocks(ctx, pathID); err != nil {
		return nil, nil, err
	}
	path, err := s.RecomputeEstimates(ctx, pathID)
	if err != nil {
		return nil, nil, err
	}

	remaining := path.EstimatedHoursTotal * (1 - path.ProgressPercentage/100)
	if remaining < 0 {
		remaining = 0
	}
	pace := &PaceStatus{OnTrack: true, RemainingHours: remaining}
	if path.TargetCompletionDate == nil || remaining == 0 {
		return path, pace, nil
	}

	weeks := time.Until(*path.TargetCompletionDate).Hours() / (24 * 7)
	pace.WeeksToTarget = weeks
	if weeks <= 0 {
		pace.OnTrack = false
	} else {
		pace.RequiredWeeklyHours = remaining / weeks
		pace.OnTrack = pace.RequiredWeeklyHours <= float64(path.WeeklyCommitmentHours)
	}
	if !pace.OnTrack {
		s.log.Warn("Path behind pace",
			"path_id", path.ID,
			"remaining_hours", remaining,
			"required_weekly_hours", pace.RequiredWeeklyHours,
			"committed_weekly_hours", path.WeeklyCommitmentHours)
	}
	return path, pace, nil
}

func (s *pathService) NextAction(ctx context.Context, pathID uuid.UUID) (*types.NextAction, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}

	var next *types.PathNode
	for _, n := range nodes {
		if n.IsUnlocked && !n.IsCompleted {
			next = n
			break
		}
	}
	if next == nil {
		if path.ProgressPercentage >= 100 {
			return &types.NextAction{
				Action:  types.NextActionComplete,
				Message: "All courses done. Complete your learning path.",
			}, nil
		}
		return &types.NextAction{
			Action:  types.NextActionWait,
			Message: "Complete current courses to unlock more.",
		}, nil
	}

	history, err := s.enroll.GetUserCourseHistory(ctx, path.UserID)
	if err != nil {
		return nil, err
	}
	for _, e := range history {
		if e.CourseID == next.CourseID && e.State == enrollment.StateActive {
			return &types.NextAction{
				Action:   types.NextActionContinue,
				Message:  "Continue your current course.",
				CourseID: &next.CourseID,
				NodeID:   &next.ID,
			}, nil
		}
	}
	return &types.NextAction{
		Action:   types.NextActionEnroll,
		Message:  "Start the next course in your path.",
		CourseID: &next.CourseID,
		NodeID:   &next.ID,
	}, nil
}

func (s *pathService) OnCourseCompleted(ctx context.Context, userID, courseID uuid.UUID) error {
	paths, err := s.paths.ListByUser(ctx, nil, userID, nil)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if path.State != types.PathStateActive && path.State != types.PathStateOnHold {
			continue
		}
		node, err := s.nodes.GetByPathAndCourse(ctx, nil, path.ID, courseID)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}
		if _, err := s.RecomputeUnlocks(ctx, path.ID); err != nil {
			s.log.Warn("Unlock recompute failed after completion", "path_id", path.ID, "course_id", courseID, "error", err)
		}
	}
	return nil
}

// GenerateAutoPath fills a path with course nodes derived from its skill
// goals and the user's course history. Deterministic, explainable heuristics;
// there is no trained model behind this.
func (s *pathService) GenerateAutoPath(ctx context.Context, pathID uuid.UUID) (*types.LearningPath, error) {
	path, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	goals, err := s.paths.ListSkillGoals(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 && path.GoalDescription == "" {
		return nil, fmt.Errorf("path %s has no skill goals: %w", pathID, types.ErrEmptyPath)
	}

	history, err := s.enroll.GetUserCourseHistory(ctx, path.UserID)
	if err != nil {
		return nil, err
	}
	taken := map[uuid.UUID]bool{}
	var completedCourses []uuid.UUID
	for _, e := range history {
		taken[e.CourseID] = true
		if e.State == enrollment.StateCompleted {
			completedCourses = append(completedCourses, e.CourseID)
		}
	}

	type candidate struct {
		courseID   uuid.UUID
		nodeType   types.NodeType
		reason     string
		confidence float64
	}
	var candidates []candidate
	seen := map[uuid.UUID]bool{}

	for _, goal := range goals {
		mappings, err := s.courseMap.ListBySkill(ctx, nil, goal.SkillID, nil)
		if err != nil {
			return nil, err
		}
		for _, m := range mappings {
			if taken[m.CourseID] || seen[m.CourseID] {
				continue
			}
			seen[m.CourseID] = true
			candidates = append(candidates, candidate{
				courseID:   m.CourseID,
				nodeType:   types.NodeTypeRequired,
				reason:     fmt.Sprintf("Teaches a target skill at %s level", m.ProficiencyLevel),
				confidence: 0.9,
			})
		}
	}

	if len(completedCourses) > 0 {
		var categoryIDs, tagIDs []uuid.UUID
		for _, cid := range completedCourses {
			meta, err := s.enroll.GetCourseMetadata(ctx, cid)
			if err != nil {
				continue
			}
			if meta.CategoryID != uuid.Nil {
				categoryIDs = append(categoryIDs, meta.CategoryID)
			}
			tagIDs = append(tagIDs, meta.TagIDs...)
		}
		similar, err := s.enroll.FindSimilarCourses(ctx, categoryIDs, tagIDs, 5)
		if err == nil {
			for _, cid := range similar {
				if taken[cid] || seen[cid] {
					continue
				}
				seen[cid] = true
				candidates = append(candidates, candidate{
					courseID:   cid,
					nodeType:   types.NodeTypeOptional,
					reason:     "Based on your completed courses",
					confidence: 0.7,
				})
			}
		}
	}

	if len(candidates) > 15 {
		candidates = candidates[:15]
	}

	genCtx, _ := json.Marshal(map[string]interface{}{
		"goal":        path.GoalDescription,
		"skill_goals": len(goals),
		"history":     len(history),
		"candidates":  len(candidates),
	})

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sequence := 10
		for _, c := range candidates {
			node := &types.PathNode{
				ID:           uuid.New(),
				PathID:       pathID,
				CourseID:     c.courseID,
				Sequence:     sequence,
				NodeType:     c.nodeType,
				IsUnlocked:   true,
				AIReason:     c.reason,
				AIConfidence: c.confidence,
			}
			if err := s.nodes.Create(ctx, tx, node); err != nil {
				return err
			}
			sequence += 10
		}
		path.AIGenerated = true
		path.PathType = types.PathTypeAuto
		if len(candidates) > 0 {
			path.AIConfidenceScore = candidates[0].confidence
		}
		path.GenerationContext = genCtx
		return s.paths.Save(ctx, tx, path)
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

func (s *pathService) CloneAsTemplate(ctx context.Context, pathID uuid.UUID, ownerID uuid.UUID) (*types.LearningPath, error) {
	source, err := s.GetPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.nodes.ListByPath(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}

	clone := &types.LearningPath{
		ID:                    uuid.New(),
		UserID:                ownerID,
		Name:                  source.Name + " (Template)",
		Description:           source.Description,
		GoalDescription:       source.GoalDescription,
		PathType:              types.PathTypeTemplate,
		State:                 types.PathStateDraft,
		WeeklyCommitmentHours: source.WeeklyCommitmentHours,
		IsTemplate:            true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.paths.Create(ctx, tx, clone); err != nil {
			return err
		}
		for _, n := range nodes {
			copyNode := &types.PathNode{
				ID:          uuid.New(),
				PathID:      clone.ID,
				CourseID:    n.CourseID,
				Sequence:    n.Sequence,
				NodeType:    n.NodeType,
				Description: n.Description,
				IsUnlocked:  true,
			}
			if err := s.nodes.Create(ctx, tx, copyNode); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

func (s *pathService) OverdueNodes(ctx context.Context, asOf time.Time) ([]*types.PathNode, error) {
	return s.nodes.ListOverdue(ctx, nil, asOf)
}

// SkillGoalTargets resolves a path's skill goals into gap targets,
// defaulting to intermediate when the goal has no explicit level.
func (s *pathService) SkillGoalTargets(ctx context.Context, pathID uuid.UUID) ([]types.SkillTarget, error) {
	goals, err := s.paths.ListSkillGoals(ctx, nil, pathID)
	if err != nil {
		return nil, err
	}
	targets := make([]types.SkillTarget, 0, len(goals))
	for _, goal := range goals {
		level := types.LevelIntermediate
		if goal.TargetLevel != nil {
			level = *goal.TargetLevel
		}
		targets = append(targets, types.SkillTarget{SkillID: goal.SkillID, TargetLevel: level})
	}
	return targets, nil
}
