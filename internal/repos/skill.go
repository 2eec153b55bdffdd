package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type SkillRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Skill) error
	Save(ctx context.Context, tx *gorm.DB, row *types.Skill) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Skill, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Skill, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Skill, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Skill, error)
	ListByCategory(ctx context.Context, tx *gorm.DB, category types.SkillCategory) ([]*types.Skill, error)
	ListByParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Skill, error)
	ListTrending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Skill, error)
	UpdateTrend(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, trending bool) error
	UpdateStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalCourses, totalLearners int, avgProficiency float64) error
	Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type skillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkillRepo(db *gorm.DB, baseLog *logger.Logger) SkillRepo {
	return &skillRepo{db: db, log: baseLog.With("repo", "SkillRepo")}
}

func (r *skillRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *skillRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Skill) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *skillRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Skill) error {
	return r.conn(tx).WithContext(ctx).Save(row).Error
}

func (r *skillRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Skill, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Skill
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *skillRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Skill, error) {
	if code == "" {
		return nil, nil
	}
	var row types.Skill
	err := r.conn(tx).WithContext(ctx).Where("code = ?", code).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *skillRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Skill, error) {
	var results []*types.Skill
	if len(ids) == 0 {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Skill, error) {
	var results []*types.Skill
	if err := r.conn(tx).WithContext(ctx).
		Where("is_active = ?", true).
		Order("category, sequence, name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) ListByCategory(ctx context.Context, tx *gorm.DB, category types.SkillCategory) ([]*types.Skill, error) {
	var results []*types.Skill
	if err := r.conn(tx).WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("sequence, name").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) ListByParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID) ([]*types.Skill, error) {
	var results []*types.Skill
	if parentID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).Where("parent_id = ?", parentID).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) ListTrending(ctx context.Context, tx *gorm.DB, limit int) ([]*types.Skill, error) {
	var results []*types.Skill
	if err := r.conn(tx).WithContext(ctx).
		Where("is_active = ? AND is_trending = ?", true, true).
		Order("trend_score desc").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *skillRepo) UpdateTrend(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, trending bool) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trend_score": score,
			"is_trending": trending,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *skillRepo) UpdateStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalCourses, totalLearners int, avgProficiency float64) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_courses":       totalCourses,
			"total_learners":      totalLearners,
			"average_proficiency": avgProficiency,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *skillRepo) Deactivate(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Model(&types.Skill{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
