// Package enrollment defines the read-only interface to the external
// enrollment and course-catalog collaborator. The core never owns course or
// enrollment rows; it reads completion state and delegates enrollment
// creation through this client.
package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CompletionStatus struct {
	IsCompleted          bool       `json:"is_completed"`
	CompletionDate       *time.Time `json:"completion_date,omitempty"`
	CompletionPercentage float64    `json:"completion_percentage"`
}

type EnrollmentState string

const (
	StateActive    EnrollmentState = "active"
	StateCompleted EnrollmentState = "completed"
	StateCancelled EnrollmentState = "cancelled"
)

type CourseEnrollment struct {
	UserID               uuid.UUID       `json:"user_id"`
	CourseID             uuid.UUID       `json:"course_id"`
	State                EnrollmentState `json:"state"`
	CompletionPercentage float64         `json:"completion_percentage"`
}

type CourseMetadata struct {
	CategoryID uuid.UUID   `json:"category_id"`
	TagIDs     []uuid.UUID `json:"tag_ids"`
	// LessonDurations holds per-lesson hours; zero entries mean the duration
	// is unknown and a 0.25h default applies.
	LessonDurations []float64 `json:"lesson_durations"`
}

type CourseCount struct {
	CourseID uuid.UUID `json:"course_id"`
	Count    int       `json:"count"`
}

type Client interface {
	GetCompletionStatus(ctx context.Context, userID, courseID uuid.UUID) (CompletionStatus, error)
	GetUserCourseHistory(ctx context.Context, userID uuid.UUID) ([]CourseEnrollment, error)
	GetCourseMetadata(ctx context.Context, courseID uuid.UUID) (CourseMetadata, error)
	CountRecentEnrollments(ctx context.Context, courseID uuid.UUID, since time.Time) (int, error)

	// ListEnrollmentsForCourses returns every enrollment touching any of the
	// given courses, used by collaborative filtering to find neighbors.
	ListEnrollmentsForCourses(ctx context.Context, courseIDs []uuid.UUID) ([]CourseEnrollment, error)

	// TopEnrolledCourses returns courses ranked by new enrollments since the
	// given instant.
	TopEnrolledCourses(ctx context.Context, since time.Time, limit int) ([]CourseCount, error)

	// FindSimilarCourses returns published candidate courses sharing a
	// category or tag with the given sets.
	FindSimilarCourses(ctx context.Context, categoryIDs, tagIDs []uuid.UUID, limit int) ([]uuid.UUID, error)

	// Enroll creates an enrollment for the user in the course on the
	// collaborator's side.
	Enroll(ctx context.Context, userID, courseID uuid.UUID, source string) error
}
