package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type UserSkillRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserSkill) error
	Save(ctx context.Context, tx *gorm.DB, row *types.UserSkill) error
	Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) (*types.UserSkill, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserSkill, error)
	ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.UserSkill, error)
	AddSource(ctx context.Context, tx *gorm.DB, userSkillID, courseID uuid.UUID) error
	ListSources(ctx context.Context, tx *gorm.DB, userSkillID uuid.UUID) ([]*types.UserSkillSource, error)
	CountUpdatedSince(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, since time.Time) (int64, error)
}

type userSkillRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserSkillRepo(db *gorm.DB, baseLog *logger.Logger) UserSkillRepo {
	return &userSkillRepo{db: db, log: baseLog.With("repo", "UserSkillRepo")}
}

func (r *userSkillRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userSkillRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserSkill) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.FirstAcquired.IsZero() {
		row.FirstAcquired = now
	}
	if row.LastUpdated.IsZero() {
		row.LastUpdated = now
	}
	return r.conn(tx).WithContext(ctx).Omit("AcquiredThrough").Create(row).Error
}

func (r *userSkillRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserSkill) error {
	return r.conn(tx).WithContext(ctx).Omit("AcquiredThrough").Save(row).Error
}

func (r *userSkillRepo) Get(ctx context.Context, tx *gorm.DB, userID, skillID uuid.UUID) (*types.UserSkill, error) {
	if userID == uuid.Nil || skillID == uuid.Nil {
		return nil, nil
	}
	var row types.UserSkill
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
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

func (r *userSkillRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserSkill, error) {
	var results []*types.UserSkill
	if userID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("current_level desc, points desc, skill_id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userSkillRepo) ListBySkill(ctx context.Context, tx *gorm.DB, skillID uuid.UUID) ([]*types.UserSkill, error) {
	var results []*types.UserSkill
	if skillID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("skill_id = ?", skillID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userSkillRepo) AddSource(ctx context.Context, tx *gorm.DB, userSkillID, courseID uuid.UUID) error {
	if userSkillID == uuid.Nil || courseID == uuid.Nil {
		return nil
	}
	row := &types.UserSkillSource{
		ID:          uuid.New(),
		UserSkillID: userSkillID,
		CourseID:    courseID,
	}
	// Re-awarding from the same course is a no-op on provenance.
	return r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_skill_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(row).Error
}

func (r *userSkillRepo) ListSources(ctx context.Context, tx *gorm.DB, userSkillID uuid.UUID) ([]*types.UserSkillSource, error) {
	var results []*types.UserSkillSource
	if userSkillID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("user_skill_id = ?", userSkillID).
		Order("created_at").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userSkillRepo) CountUpdatedSince(ctx context.Context, tx *gorm.DB, skillID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if skillID == uuid.Nil {
		return 0, nil
	}
	err := r.conn(tx).WithContext(ctx).
		Model(&types.UserSkill{}).
		Where("skill_id = ? AND last_updated >= ?", skillID, since).
		Count(&count).Error
	return count, err
}
