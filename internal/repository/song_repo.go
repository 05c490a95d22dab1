package repository

import (
	"context"

	"WaveRider/internal/model"

	"gorm.io/gorm"
)

// SongRepository 歌曲仓储
type SongRepository interface {
	// GetByID 按ID获取歌曲
	GetByID(ctx context.Context, id uint64) (*model.Song, error)
	// FindMatching 按身份解析谓词匹配歌曲，无匹配返回 gorm.ErrRecordNotFound
	FindMatching(ctx context.Context, title, artist string) (*model.Song, error)
	// Create 新建歌曲
	Create(ctx context.Context, song *model.Song) error
	// Delete 只删歌曲本行。关联成绩的级联删除由调用方负责编排，
	// 因为每删一条成绩都要同步释放其技能点缓存贡献。
	Delete(ctx context.Context, id uint64) error
}

type songRepository struct {
	db *gorm.DB
}

// NewSongRepository 创建 SongRepository 实例
func NewSongRepository(db *gorm.DB) SongRepository {
	return &songRepository{db: db}
}

func (r *songRepository) GetByID(ctx context.Context, id uint64) (*model.Song, error) {
	var song model.Song
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&song).Error; err != nil {
		return nil, err
	}
	return &song, nil
}

// FindMatching 组合谓词匹配：标题与演唱者各自满足
// 「本体精确匹配 OR 归一化元数据忽略大小写匹配 OR 命中别名列表」三者之一，
// 两者同时满足的行才算匹配。必须用 LEFT JOIN：刚创建、还没有
// extra_song_info 的歌曲也要能按本体 title/artist 命中，否则连续两次
// 解析同一首歌会重复建行。
func (r *songRepository) FindMatching(ctx context.Context, title, artist string) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).
		Table("songs").
		Select("songs.*").
		Joins("LEFT JOIN extra_song_info ON extra_song_info.song_id = songs.id").
		Where(`(songs.title = @title
			OR LOWER(extra_song_info.musicbrainz_title) = LOWER(@title)
			OR extra_song_info.aliases_title @> to_jsonb(@title::text))
		AND (songs.artist = @artist
			OR LOWER(extra_song_info.musicbrainz_artist) = LOWER(@artist)
			OR extra_song_info.aliases_artist @> to_jsonb(@artist::text))`,
			map[string]interface{}{"title": title, "artist": artist}).
		Order("songs.id ASC").
		First(&song).Error
	if err != nil {
		return nil, err
	}
	return &song, nil
}

func (r *songRepository) Create(ctx context.Context, song *model.Song) error {
	return r.db.WithContext(ctx).Create(song).Error
}

func (r *songRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Song{}, "id = ?", id).Error
}
