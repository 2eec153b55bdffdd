package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/retrocraftdevops/seitech/internal/clients/enrollment"
	"github.com/retrocraftdevops/seitech/internal/clients/trendcache"
	"github.com/retrocraftdevops/seitech/internal/db"
	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return gormDB
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("building logger: %v", err)
	}
	return log
}

func newTestTrendCache() trendcache.Cache {
	return trendcache.NewNoop()
}

// fakeEnrollment is an in-memory stand-in for the enrollment collaborator.
type fakeEnrollment struct {
	mu          sync.Mutex
	completions map[uuid.UUID]map[uuid.UUID]enrollment.CompletionStatus
	history     map[uuid.UUID][]enrollment.CourseEnrollment
	metadata    map[uuid.UUID]enrollment.CourseMetadata
	recent      map[uuid.UUID]int
	top         []enrollment.CourseCount
	similar     []uuid.UUID
	enrolled    []uuid.UUID
}

func newFakeEnrollment() *fakeEnrollment {
	return &fakeEnrollment{
		completions: map[uuid.UUID]map[uuid.UUID]enrollment.CompletionStatus{},
		history:     map[uuid.UUID][]enrollment.CourseEnrollment{},
		metadata:    map[uuid.UUID]enrollment.CourseMetadata{},
		recent:      map[uuid.UUID]int{},
	}
}

func (f *fakeEnrollment) complete(userID, courseID uuid.UUID, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completions[userID] == nil {
		f.completions[userID] = map[uuid.UUID]enrollment.CompletionStatus{}
	}
	f.completions[userID][courseID] = enrollment.CompletionStatus{
		IsCompleted:          true,
		CompletionDate:       &at,
		CompletionPercentage: 100,
	}
	f.history[userID] = append(f.history[userID], enrollment.CourseEnrollment{
		UserID:               userID,
		CourseID:             courseID,
		State:                enrollment.StateCompleted,
		CompletionPercentage: 100,
	})
}

func (f *fakeEnrollment) GetCompletionStatus(ctx context.Context, userID, courseID uuid.UUID) (enrollment.CompletionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completions[userID][courseID], nil
}

func (f *fakeEnrollment) GetUserCourseHistory(ctx context.Context, userID uuid.UUID) ([]enrollment.CourseEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]enrollment.CourseEnrollment(nil), f.history[userID]...), nil
}

func (f *fakeEnrollment) GetCourseMetadata(ctx context.Context, courseID uuid.UUID) (enrollment.CourseMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadata[courseID], nil
}

func (f *fakeEnrollment) CountRecentEnrollments(ctx context.Context, courseID uuid.UUID, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recent[courseID], nil
}

func (f *fakeEnrollment) ListEnrollmentsForCourses(ctx context.Context, courseIDs []uuid.UUID) ([]enrollment.CourseEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range courseIDs {
		want[id] = true
	}
	var out []enrollment.CourseEnrollment
	for _, rows := range f.history {
		for _, e := range rows {
			if want[e.CourseID] {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (f *fakeEnrollment) TopEnrolledCourses(ctx context.Context, since time.Time, limit int) ([]enrollment.CourseCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]enrollment.CourseCount(nil), f.top...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEnrollment) FindSimilarCourses(ctx context.Context, categoryIDs, tagIDs []uuid.UUID, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]uuid.UUID(nil), f.similar...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEnrollment) Enroll(ctx context.Context, userID, courseID uuid.UUID, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrolled = append(f.enrolled, courseID)
	f.history[userID] = append(f.history[userID], enrollment.CourseEnrollment{
		UserID:   userID,
		CourseID: courseID,
		State:    enrollment.StateActive,
	})
	return nil
}

// recordingNotifier captures fired events for assertions.
type recordingNotifier struct {
	mu         sync.Mutex
	levelUps   []types.Level
	pathsDone  []uuid.UUID
	recActions []types.RecommendationStatus
	recCourses []uuid.UUID
}

func (n *recordingNotifier) OnSkillLeveledUp(ctx context.Context, userID, skillID uuid.UUID, newLevel types.Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levelUps = append(n.levelUps, newLevel)
}

func (n *recordingNotifier) OnPathCompleted(ctx context.Context, userID, pathID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pathsDone = append(n.pathsDone, pathID)
}

func (n *recordingNotifier) OnRecommendationActedOn(ctx context.Context, userID, courseID uuid.UUID, action types.RecommendationStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recActions = append(n.recActions, action)
	n.recCourses = append(n.recCourses, courseID)
}
