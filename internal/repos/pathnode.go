package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type PathNodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.PathNode) error
	Save(ctx context.Context, tx *gorm.DB, row *types.PathNode) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PathNode, error)
	GetByPathAndCourse(ctx context.Context, tx *gorm.DB, pathID, courseID uuid.UUID) (*types.PathNode, error)
	ListByPath(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.PathNode, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	ListOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*types.PathNode, error)

	AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.NodePrerequisite) error
	GetPrerequisite(ctx context.Context, tx *gorm.DB, nodeID, prerequisiteID uuid.UUID) (*types.NodePrerequisite, error)
	ListPrerequisiteEdges(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.NodePrerequisite, error)
	RemovePrerequisites(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) error
}

type pathNodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathNodeRepo(db *gorm.DB, baseLog *logger.Logger) PathNodeRepo {
	return &pathNodeRepo{db: db, log: baseLog.With("repo", "PathNodeRepo")}
}

func (r *pathNodeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *pathNodeRepo) Create(ctx context.Context, tx *gorm.DB, row *types.PathNode) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Omit("Path").Create(row).Error
}

func (r *pathNodeRepo) Save(ctx context.Context, tx *gorm.DB, row *types.PathNode) error {
	return r.conn(tx).WithContext(ctx).Omit("Path").Save(row).Error
}

func (r *pathNodeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.PathNode, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.PathNode
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *pathNodeRepo) GetByPathAndCourse(ctx context.Context, tx *gorm.DB, pathID, courseID uuid.UUID) (*types.PathNode, error) {
	if pathID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.PathNode
	err := r.conn(tx).WithContext(ctx).
		Where("path_id = ? AND course_id = ?", pathID, courseID).
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

func (r *pathNodeRepo) ListByPath(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.PathNode, error) {
	var results []*types.PathNode
	if pathID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("path_id = ?", pathID).
		Order("sequence, id").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathNodeRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Delete(&types.PathNode{}, "id = ?", id).Error
}

func (r *pathNodeRepo) ListOverdue(ctx context.Context, tx *gorm.DB, asOf time.Time) ([]*types.PathNode, error) {
	var results []*types.PathNode
	if err := r.conn(tx).WithContext(ctx).
		Where("deadline < ? AND is_completed = ?", asOf, false).
		Where("path_id IN (?)", r.conn(tx).
			Model(&types.LearningPath{}).
			Select("id").
			Where("state = ?", types.PathStateActive)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathNodeRepo) AddPrerequisite(ctx context.Context, tx *gorm.DB, row *types.NodePrerequisite) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

func (r *pathNodeRepo) GetPrerequisite(ctx context.Context, tx *gorm.DB, nodeID, prerequisiteID uuid.UUID) (*types.NodePrerequisite, error) {
	var row types.NodePrerequisite
	err := r.conn(tx).WithContext(ctx).
		Where("node_id = ? AND prerequisite_id = ?", nodeID, prerequisiteID).
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

func (r *pathNodeRepo) ListPrerequisiteEdges(ctx context.Context, tx *gorm.DB, pathID uuid.UUID) ([]*types.NodePrerequisite, error) {
	var results []*types.NodePrerequisite
	if pathID == uuid.Nil {
		return results, nil
	}
	if err := r.conn(tx).WithContext(ctx).
		Where("node_id IN (?)", r.conn(tx).
			Model(&types.PathNode{}).
			Select("id").
			Where("path_id = ?", pathID)).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *pathNodeRepo) RemovePrerequisites(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) error {
	if nodeID == uuid.Nil {
		return nil
	}
	return r.conn(tx).WithContext(ctx).
		Where("node_id = ?", nodeID).
		Delete(&types.NodePrerequisite{}).Error
}
