package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type LearningPathRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error
	Save(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPath, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, state *types.PathState) ([]*types.LearningPath, error)
	DistinctActiveUserIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)

	AddSkillGoal(ctx context.Context, tx *gorm.DB, row *types.PathSkillGoal) error
	ListSkillGoals(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.PathSkillGoal, error)

	AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.PathPrerequisite) error
	GetPrerequisite(ctx context.Context, tx *gorm.DB, pathID, prerequisiteID uuid.UUID) (*types.PathPrerequisite, error)
	ListPrerequisiteIDs(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]uuid.UUID, error)
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return &learningPathRepo{db: db, log: baseLog.With("repo", "LearningPathRepo")}
}

func (r *learningPathRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *learningPathRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Omit("SkillGoals").Create(row).Error
}

func (r *learningPathRepo) Save(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error {
	return r.conn(tx).WithContext(ctx).Omit("SkillGoals").Save(row).Error
}

func (r *learningPathRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningPath, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.LearningPath
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *learningPathRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, state *types.PathState) ([]*types.LearningPath, error) {
	var results []*types.LearningPath
	if userID == uuid.Nil {
		return results, nil
	}
	q := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID)
	if state != nil {
		q = q.Where("state = ?", *state)
	}
	if err := q.Order("created_at desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningPathRepo) DistinctActiveUserIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.LearningPath{}).
		Where("state = ?", types.PathStateActive).
		Distinct("user_id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *learningPathRepo) AddSkillGoal(ctx context.Context, tx *gorm.DB, row *types.PathSkillGoal) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *learningPathRepo) ListSkillGoals(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.PathSkillGoal, error) {
	var results []*types.PathSkillGoal
	if pathID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("path_id = ?", pathID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *learningPathRepo) AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.PathPrerequisite) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *learningPathRepo) GetPrerequisite(ctx context.Context, tx *gorm.DB, pathID, prerequisiteID uuid.UUID) (*types.PathPrerequisite, error) {
	var row types.PathPrerequisite
	err := r.conn(tx).WithContext(ctx).
		Where("path_id = ? AND prerequisite_id = ?", pathID, prerequisiteID).
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

func (r *learningPathRepo) ListPrerequisiteIDs(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if pathID == uuid.Nil {
		return ids, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Model(&types.PathPrerequisite{}).
		Where("path_id = ?", pathID).
		Pluck("prerequisite_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
