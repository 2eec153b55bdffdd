package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NodeType string

const (
	NodeTypeRequired   NodeType = "required"
	NodeTypeOptional   NodeType = "optional"
	NodeTypeAssessment NodeType = "assessment"
	NodeTypeMilestone  NodeType = "milestone"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeRequired, NodeTypeOptional, NodeTypeAssessment, NodeTypeMilestone:
		return true
	}
	return false
}

// PathNode is one course's slot inside a learning path. Unique per
// (path, course). Unlock and completion fields are derived: completion is
// sourced from the enrollment service, unlock from the prerequisite edges.
type PathNode struct {
	ID     uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	PathID uuid.UUID     `gorm:"type:uuid;not null;index:idx_path_node,unique,priority:1" json:"path_id"`
	Path   *LearningPath `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathID;references:ID" json:"path,omitempty"`

	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_path_node,unique,priority:2" json:"course_id"`

	Sequence    int      `gorm:"column:sequence;not null;default:10" json:"sequence"`
	NodeType    NodeType `gorm:"column:node_type;not null;default:'required'" json:"node_type"`
	Description string   `gorm:"column:description;type:text" json:"description,omitempty"`

	IsUnlocked bool       `gorm:"column:is_unlocked;not null;default:false" json:"is_unlocked"`
	UnlockDate *time.Time `gorm:"column:unlock_date" json:"unlock_date,omitempty"`

	IsCompleted          bool       `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletionDate       *time.Time `gorm:"column:completion_date" json:"completion_date,omitempty"`
	CompletionPercentage float64    `gorm:"column:completion_percentage;not null;default:0" json:"completion_percentage"`

	Deadline *time.Time `gorm:"column:deadline" json:"deadline,omitempty"`

	AIReason     string  `gorm:"column:ai_reason" json:"ai_reason,omitempty"`
	AIConfidence float64 `gorm:"column:ai_confidence;not null;default:0" json:"ai_confidence"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PathNode) TableName() string { return "learning_path_node" }

// NodePrerequisite is an edge in a path's internal prerequisite DAG: NodeID
// requires PrerequisiteID. Both nodes must belong to the same path.
type NodePrerequisite struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	NodeID         uuid.UUID `gorm:"type:uuid;not null;index:idx_node_prereq,unique,priority:1" json:"node_id"`
	PrerequisiteID uuid.UUID `gorm:"type:uuid;not null;index:idx_node_prereq,unique,priority:2" json:"prerequisite_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (NodePrerequisite) TableName() string { return "learning_path_node_prerequisite" }
