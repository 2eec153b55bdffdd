package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseSkill declares that completing a course teaches a skill at a given
// level. Courses are opaque external identifiers owned by the enrollment
// service. Unique per (course, skill).
type CourseSkill struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_course_skill,unique,priority:1" json:"course_id"`
	SkillID  uuid.UUID `gorm:"type:uuid;not null;index:idx_course_skill,unique,priority:2" json:"skill_id"`
	Skill    *Skill    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SkillID;references:ID" json:"skill,omitempty"`

	ProficiencyLevel Level `gorm:"column:proficiency_level;not null;default:'foundational'" json:"proficiency_level"`
	SkillPoints      int   `gorm:"column:skill_points;not null;default:10" json:"skill_points"`

	IsPrimary bool    `gorm:"column:is_primary;not null;default:false" json:"is_primary"`
	Weight    float64 `gorm:"column:weight;not null;default:1" json:"weight"`

	AssessmentRequired bool    `gorm:"column:assessment_required;not null;default:false" json:"assessment_required"`
	MinAssessmentScore float64 `gorm:"column:min_assessment_score;not null;default:70" json:"min_assessment_score"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseSkill) TableName() string { return "course_skill" }
