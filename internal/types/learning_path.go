package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PathType string

const (
	PathTypeAuto          PathType = "auto"
	PathTypeManual        PathType = "manual"
	PathTypeCareer        PathType = "career"
	PathTypeCertification PathType = "certification"
	PathTypeTemplate      PathType = "template"
)

func (t PathType) Valid() bool {
	switch t {
	case PathTypeAuto, PathTypeManual, PathTypeCareer, PathTypeCertification, PathTypeTemplate:
		return true
	}
	return false
}

type PathState string

const (
	PathStateDraft     PathState = "draft"
	PathStateActive    PathState = "active"
	PathStateOnHold    PathState = "on_hold"
	PathStateCompleted PathState = "completed"
	PathStateArchived  PathState = "archived"
)

// LearningPath is an ordered, graph-constrained curriculum owned by one user.
// Progress and time estimates are derived fields recomputed by the path
// service, never user-writable.
type LearningPath struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Name            string `gorm:"column:name;not null" json:"name"`
	Description     string `gorm:"column:description;type:text" json:"description,omitempty"`
	GoalDescription string `gorm:"column:goal_description;type:text" json:"goal_description,omitempty"`

	PathType PathType  `gorm:"column:path_type;not null;default:'manual'" json:"path_type"`
	State    PathState `gorm:"column:state;not null;default:'draft';index" json:"state"`

	StartDate             *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	TargetCompletionDate  *time.Time `gorm:"column:target_completion_date" json:"target_completion_date,omitempty"`
	WeeklyCommitmentHours int        `gorm:"column:weekly_commitment_hours;not null;default:5" json:"weekly_commitment_hours"`

	SkillGoals []PathSkillGoal `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathID;references:ID" json:"skill_goals,omitempty"`

	ProgressPercentage float64 `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	CompletedNodes     int     `gorm:"column:completed_nodes;not null;default:0" json:"completed_nodes"`
	TotalNodes         int     `gorm:"column:total_nodes;not null;default:0" json:"total_nodes"`

	EstimatedHoursTotal     float64    `gorm:"column:estimated_hours_total;not null;default:0" json:"estimated_hours_total"`
	EstimatedCompletionDate *time.Time `gorm:"column:estimated_completion_date" json:"estimated_completion_date,omitempty"`

	LastActivityDate *time.Time `gorm:"column:last_activity_date" json:"last_activity_date,omitempty"`
	CompletionDate   *time.Time `gorm:"column:completion_date" json:"completion_date,omitempty"`

	AIGenerated       bool           `gorm:"column:ai_generated;not null;default:false" json:"ai_generated"`
	AIConfidenceScore float64        `gorm:"column:ai_confidence_score;not null;default:0" json:"ai_confidence_score"`
	GenerationContext datatypes.JSON `gorm:"column:generation_context;type:jsonb" json:"generation_context,omitempty"`

	IsTemplate bool `gorm:"column:is_template;not null;default:false" json:"is_template"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningPath) TableName() string { return "learning_path" }

// PathSkillGoal links a path to a skill it targets, optionally at a level.
type PathSkillGoal struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PathID  uuid.UUID `gorm:"type:uuid;not null;index:idx_path_skill_goal,unique,priority:1" json:"path_id"`
	SkillID uuid.UUID `gorm:"type:uuid;not null;index:idx_path_skill_goal,unique,priority:2" json:"skill_id"`
	Skill   *Skill    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SkillID;references:ID" json:"skill,omitempty"`

	TargetLevel *Level `gorm:"column:target_level" json:"target_level,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PathSkillGoal) TableName() string { return "learning_path_skill_goal" }

// PathPrerequisite is an edge in the path-level prerequisite DAG: PathID
// requires PrerequisiteID. Edges are explicit rows keyed by id so cycle
// detection is a plain traversal over ids inside the write transaction.
type PathPrerequisite struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PathID         uuid.UUID `gorm:"type:uuid;not null;index:idx_path_prereq,unique,priority:1" json:"path_id"`
	PrerequisiteID uuid.UUID `gorm:"type:uuid;not null;index:idx_path_prereq,unique,priority:2" json:"prerequisite_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PathPrerequisite) TableName() string { return "learning_path_prerequisite" }

// NextActionKind enumerates the next-action resolution outcomes.
type NextActionKind string

const (
	NextActionEnroll   NextActionKind = "enroll"
	NextActionContinue NextActionKind = "continue"
	NextActionWait     NextActionKind = "wait"
	NextActionComplete NextActionKind = "complete"
)

type NextAction struct {
	Action   NextActionKind `json:"action"`
	Message  string         `json:"message"`
	CourseID *uuid.UUID     `json:"course_id,omitempty"`
	NodeID   *uuid.UUID     `json:"node_id,omitempty"`
}
