package repository

import (
	"context"

	"WaveRider/internal/model"

	"gorm.io/gorm"
)

// PlayerRepository 玩家仓储
type PlayerRepository interface {
	GetByID(ctx context.Context, id uint64) (*model.Player, error)
	// GetBySteamID 按 Steam 外部身份查玩家，没有返回 gorm.ErrRecordNotFound
	GetBySteamID(ctx context.Context, steamID uint64) (*model.Player, error)
	// GetByIDs 批量查玩家（拼榜单展示名用）
	GetByIDs(ctx context.Context, ids []uint64) ([]*model.Player, error)
	Create(ctx context.Context, player *model.Player) error
	Save(ctx context.Context, player *model.Player) error
}

type playerRepository struct {
	db *gorm.DB
}

// NewPlayerRepository 创建 PlayerRepository 实例
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) GetByID(ctx context.Context, id uint64) (*model.Player, error) {
	var player model.Player
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetBySteamID(ctx context.Context, steamID uint64) (*model.Player, error) {
	var player model.Player
	if err := r.db.WithContext(ctx).Where("steam_id = ?", steamID).First(&player).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

func (r *playerRepository) GetByIDs(ctx context.Context, ids []uint64) ([]*model.Player, error) {
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}
	var players []*model.Player
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}

func (r *playerRepository) Create(ctx context.Context, player *model.Player) error {
	return r.db.WithContext(ctx).Create(player).Error
}

func (r *playerRepository) Save(ctx context.Context, player *model.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}
