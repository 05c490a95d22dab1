package repository

import (
	"context"

	"WaveRider/internal/model"

	"gorm.io/gorm"
)

// RivalryRepository 对手关系仓储（有向边）
type RivalryRepository interface {
	// ListByChallenger 某玩家主动建立的全部对手边
	ListByChallenger(ctx context.Context, challengerID uint64) ([]*model.Rivalry, error)
	// Exists 指定方向的边是否存在（互为对手判定 = 查反向边）
	Exists(ctx context.Context, challengerID, rivalID uint64) (bool, error)
	Create(ctx context.Context, rivalry *model.Rivalry) error
}

type rivalryRepository struct {
	db *gorm.DB
}

// NewRivalryRepository 创建 RivalryRepository 实例
func NewRivalryRepository(db *gorm.DB) RivalryRepository {
	return &rivalryRepository{db: db}
}

func (r *rivalryRepository) ListByChallenger(ctx context.Context, challengerID uint64) ([]*model.Rivalry, error) {
	var rivalries []*model.Rivalry
	if err := r.db.WithContext(ctx).
		Where("challenger_id = ?", challengerID).
		Find(&rivalries).Error; err != nil {
		return nil, err
	}
	return rivalries, nil
}

func (r *rivalryRepository) Exists(ctx context.Context, challengerID, rivalID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Rivalry{}).
		Where("challenger_id = ? AND rival_id = ?", challengerID, rivalID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *rivalryRepository) Create(ctx context.Context, rivalry *model.Rivalry) error {
	return r.db.WithContext(ctx).Create(rivalry).Error
}
