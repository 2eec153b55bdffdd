package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecommendationAlgorithm string

const (
	AlgorithmCollaborative RecommendationAlgorithm = "collaborative"
	AlgorithmContent       RecommendationAlgorithm = "content"
	AlgorithmSkillGap      RecommendationAlgorithm = "skill_gap"
	AlgorithmTrending      RecommendationAlgorithm = "trending"
	AlgorithmHybrid        RecommendationAlgorithm = "hybrid"
)

func (a RecommendationAlgorithm) Valid() bool {
	switch a {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmSkillGap, AlgorithmTrending, AlgorithmHybrid:
		return true
	}
	return false
}

type RecommendationStatus string

const (
	RecommendationPending   RecommendationStatus = "pending"
	RecommendationViewed    RecommendationStatus = "viewed"
	RecommendationEnrolled  RecommendationStatus = "enrolled"
	RecommendationDismissed RecommendationStatus = "dismissed"
	RecommendationSaved     RecommendationStatus = "saved"
)

type ReasonType string

const (
	ReasonSimilarUsers     ReasonType = "similar_users"
	ReasonCourseSimilarity ReasonType = "course_similarity"
	ReasonSkillRequirement ReasonType = "skill_requirement"
	ReasonTrending         ReasonType = "trending"
)

// Recommendation is a scored, time-limited course suggestion with an
// explainable reason. Expired rows are garbage-collected, not audited.
type Recommendation struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`

	Score     float64                 `gorm:"column:score;not null" json:"score"`
	Algorithm RecommendationAlgorithm `gorm:"column:algorithm;not null" json:"algorithm"`

	ReasonType ReasonType     `gorm:"column:reason_type;not null" json:"reason_type"`
	ReasonText string         `gorm:"column:reason_text;type:text" json:"reason_text"`
	ReasonData datatypes.JSON `gorm:"column:reason_data;type:jsonb" json:"reason_data,omitempty"`

	Status     RecommendationStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	ViewedDate *time.Time           `gorm:"column:viewed_date" json:"viewed_date,omitempty"`
	ActionDate *time.Time           `gorm:"column:action_date" json:"action_date,omitempty"`

	CreatedDate time.Time `gorm:"column:created_date;not null" json:"created_date"`
	ExpiresDate time.Time `gorm:"column:expires_date;not null;index" json:"expires_date"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Recommendation) TableName() string { return "recommendation" }

// IsExpired reports whether the recommendation is past its expiry at the
// given instant.
func (r *Recommendation) IsExpired(now time.Time) bool {
	return r.ExpiresDate.Before(now)
}
