package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSkill is a ledger row tracking one user's standing on one skill.
// current_level is monotonic through the award path and never decreases.
// Rows are created on the first skill-contributing event and never deleted.
type UserSkill struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill,unique,priority:1" json:"user_id"`
	SkillID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill,unique,priority:2" json:"skill_id"`
	Skill   *Skill    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SkillID;references:ID" json:"skill,omitempty"`

	CurrentLevel Level  `gorm:"column:current_level;not null;default:'awareness'" json:"current_level"`
	TargetLevel  *Level `gorm:"column:target_level" json:"target_level,omitempty"`

	Points int `gorm:"column:points;not null;default:0" json:"points"`

	Verified          bool       `gorm:"column:verified;not null;default:false" json:"verified"`
	VerifiedDate      *time.Time `gorm:"column:verified_date" json:"verified_date,omitempty"`
	VerifiedByID      *uuid.UUID `gorm:"type:uuid;column:verified_by_id" json:"verified_by_id,omitempty"`
	VerificationScore float64    `gorm:"column:verification_score;not null;default:0" json:"verification_score"`

	FirstAcquired time.Time  `gorm:"column:first_acquired;not null" json:"first_acquired"`
	LastUpdated   time.Time  `gorm:"column:last_updated;not null;index" json:"last_updated"`
	LastPracticed *time.Time `gorm:"column:last_practiced" json:"last_practiced,omitempty"`

	AcquiredThrough []UserSkillSource `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserSkillID;references:ID" json:"acquired_through,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserSkill) TableName() string { return "user_skill" }

// UserSkillSource records provenance: a course that contributed to the skill.
type UserSkillSource struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserSkillID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill_source,unique,priority:1" json:"user_skill_id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_skill_source,unique,priority:2" json:"course_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UserSkillSource) TableName() string { return "user_skill_source" }

// SkillGap is the ordinal distance between a user's current level and a
// required target. CurrentLevel is nil when the ledger has no row.
type SkillGap struct {
	SkillID      uuid.UUID `json:"skill_id"`
	CurrentLevel *Level    `json:"current_level,omitempty"`
	TargetLevel  Level     `json:"target_level"`
	GapSize      int       `json:"gap_size"`
}

// SkillTarget names a desired level for one skill.
type SkillTarget struct {
	SkillID     uuid.UUID `json:"skill_id"`
	TargetLevel Level     `json:"target_level"`
}

// SkillProfile is a per-user rollup of the ledger.
type SkillProfile struct {
	TotalSkills    int                             `json:"total_skills"`
	VerifiedSkills int                             `json:"verified_skills"`
	ExpertSkills   int                             `json:"expert_skills"`
	AdvancedSkills int                             `json:"advanced_skills"`
	TotalPoints    int                             `json:"total_points"`
	Categories     map[SkillCategory]CategoryStats `json:"categories"`
}

type CategoryStats struct {
	Count    int `json:"count"`
	Verified int `json:"verified"`
	Points   int `json:"points"`
}
