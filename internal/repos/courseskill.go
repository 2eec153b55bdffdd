package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type CourseSkillRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error
	GetByCourseAndSkill(ctx context.Context, tx *gorm.DB, courseID, skillID uuid.UUID) (*types.CourseSkill, error)
	ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, level *types.Level) ([]*types.CourseSkill, error)
	ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseSkill, error)
	ListByCourses(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CourseSkill, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type courseSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseSkillRepo(db *gorm.DB, baseLog *logger.Logger) CourseSkillRepo {
	return &courseSkillRepo{db: db, log: baseLog.With("repo", "CourseSkillRepo")}
}

func (r *courseSkillRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseSkillRepo) Create(ctx context.Context, tx *gorm.DB, row *types.CourseSkill) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *courseSkillRepo) GetByCourseAndSkill(ctx context.Context, tx *gorm.DB, courseID, skillID uuid.UUID) (*types.CourseSkill, error) {
	if courseID == uuid.Nil || skillID == uuid.Nil {
		return nil, nil
	}
	var row types.CourseSkill
	err := r.conn(tx).WithContext(ctx).
		Where("course_id = ? AND skill_id = ?", courseID, skillID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *courseSkillRepo) ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, level *types.Level) ([]*types.CourseSkill, error) {
	var results []*types.CourseSkill
	if skillID == uuid.Nil {
		return results, nil
	}
	q := r.conn(tx).WithContext(ctx).Where("skill_id = ?", skillID)
	if level != nil {
		q = q.Where("proficiency_level = ?", *level)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSkillRepo) ListByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseSkill, error) {
	var results []*types.CourseSkill
	if courseID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("is_primary desc, proficiency_level, skill_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSkillRepo) ListByCourses(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CourseSkill, error) {
	var results []*types.CourseSkill
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseSkillRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Delete(&types.CourseSkill{}, "id = ?", id).Error
}
