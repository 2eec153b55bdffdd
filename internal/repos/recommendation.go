package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retrocraftdevops/seitech/internal/logger"
	"github.com/retrocraftdevops/seitech/internal/types"
)

type RecommendationRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Recommendation) error
	Save(ctx context.Context, tx *gorm.DB, row *types.Recommendation) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.RecommendationStatus, now time.Time, limit int) ([]*types.Recommendation, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error)
}

type recommendationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendationRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationRepo {
	return &recommendationRepo{db: db, log: baseLog.With("repo", "RecommendationRepo")}
}

func (r *recommendationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *recommendationRepo) CreateBatch(ctx context.Context, tx *gorm.DB, rows []*types.Recommendation) error {
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	return r.conn(tx).WithContext(ctx).Create(&rows).Error
}

func (r *recommendationRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Recommendation) error {
	return r.conn(tx).WithContext(ctx).Save(row).Error
}

func (r *recommendationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Recommendation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Recommendation
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *recommendationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, status types.RecommendationStatus, now time.Time, limit int) ([]*types.Recommendation, error) {
	var results []*types.Recommendation
	if userID == uuid.Nil {
		return results, nil
	}
	q := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND expires_date >= ?", userID, now)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("score desc, created_date desc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *recommendationRepo) DeleteExpired(ctx context.Context, tx *gorm.DB, userID uuid.UUID, now time.Time) (int64, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	res := r.conn(tx).WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND expires_date < ?", userID, now).
		Delete(&types.Recommendation{})
	return res.RowsAffected, res.Error
}
