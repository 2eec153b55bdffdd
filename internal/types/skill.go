package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SkillCategory string

const (
	CategoryTechnical    SkillCategory = "technical"
	CategorySoft         SkillCategory = "soft"
	CategoryCompliance   SkillCategory = "compliance"
	CategoryLeadership   SkillCategory = "leadership"
	CategoryManagement   SkillCategory = "management"
	CategoryHealthSafety SkillCategory = "health_safety"
	CategoryQuality      SkillCategory = "quality"
	CategoryOther        SkillCategory = "other"
)

func (c SkillCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategorySoft, CategoryCompliance, CategoryLeadership,
		CategoryManagement, CategoryHealthSafety, CategoryQuality, CategoryOther:
		return true
	}
	return false
}

// Skill is a named, hierarchical competency with ordinal proficiency rungs.
// The code is immutable once created; rows are soft-deactivated, never deleted
// while referenced.
type Skill struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;not null;index" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`

	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`

	Category SkillCategory `gorm:"column:category;not null;default:'technical';index" json:"category"`

	LevelCount int            `gorm:"column:level_count;not null;default:5" json:"level_count"`
	LevelNames datatypes.JSON `gorm:"column:level_names;type:jsonb" json:"level_names,omitempty"`

	Icon     string `gorm:"column:icon;default:'fa-certificate'" json:"icon"`
	Color    string `gorm:"column:color;default:'#0284c7'" json:"color"`
	Sequence int    `gorm:"column:sequence;not null;default:10" json:"sequence"`

	IsActive   bool `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	IsVerified bool `gorm:"column:is_verified;not null;default:false" json:"is_verified"`

	// Derived statistics, recomputed by the taxonomy service.
	TotalCourses       int     `gorm:"column:total_courses;not null;default:0" json:"total_courses"`
	TotalLearners      int     `gorm:"column:total_learners;not null;default:0" json:"total_learners"`
	AverageProficiency float64 `gorm:"column:average_proficiency;not null;default:0" json:"average_proficiency"`

	// Trending cache, rebuilt by RefreshTrending. Not a source of truth.
	IsTrending bool    `gorm:"column:is_trending;not null;default:false;index" json:"is_trending"`
	TrendScore float64 `gorm:"column:trend_score;not null;default:0" json:"trend_score"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Skill) TableName() string { return "skill" }
