package repository

import (
	"context"

	"WaveRider/internal/model"

	"gorm.io/gorm"
)

// ExtraSongInfoRepository 歌曲外部元数据/别名仓储（与歌曲 1:1，懒创建）
type ExtraSongInfoRepository interface {
	// GetBySongID 按歌曲ID查元数据行，没有返回 gorm.ErrRecordNotFound
	GetBySongID(ctx context.Context, songID uint64) (*model.ExtraSongInfo, error)
	Create(ctx context.Context, info *model.ExtraSongInfo) error
	Save(ctx context.Context, info *model.ExtraSongInfo) error
}

type extraSongInfoRepository struct {
	db *gorm.DB
}

// NewExtraSongInfoRepository 创建 ExtraSongInfoRepository 实例
func NewExtraSongInfoRepository(db *gorm.DB) ExtraSongInfoRepository {
	return &extraSongInfoRepository{db: db}
}

func (r *extraSongInfoRepository) GetBySongID(ctx context.Context, songID uint64) (*model.ExtraSongInfo, error) {
	var info model.ExtraSongInfo
	if err := r.db.WithContext(ctx).Where("song_id = ?", songID).First(&info).Error; err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *extraSongInfoRepository) Create(ctx context.Context, info *model.ExtraSongInfo) error {
	return r.db.WithContext(ctx).Create(info).Error
}

func (r *extraSongInfoRepository) Save(ctx context.Context, info *model.ExtraSongInfo) error {
	return r.db.WithContext(ctx).Save(info).Error
}
