package repository

import (
	"context"

	"WaveRider/internal/model"

	"gorm.io/gorm"
)

// PlayerPoints 重建技能点时按玩家汇总的结果行
type PlayerPoints struct {
	PlayerID uint64
	Total    int64
}

// ScoreRepository 成绩仓储。唯一允许触达 scores 表的组件；
// 调用方（service 层）负责在每次写入后施加对应的缓存增量。
type ScoreRepository interface {
	// GetByPlayerSongLeague 查 (player, song, league) 唯一成绩行，
	// 没有返回 gorm.ErrRecordNotFound
	GetByPlayerSongLeague(ctx context.Context, playerID, songID uint64, league model.League) (*model.Score, error)
	// ListBySong 某首歌的全部成绩（合并/删除歌曲时级联用）
	ListBySong(ctx context.Context, songID uint64) ([]*model.Score, error)
	// ListTopBySongLeague 某首歌某档位的前 N 名（全服榜）
	ListTopBySongLeague(ctx context.Context, songID uint64, league model.League, limit int) ([]*model.Score, error)
	// ListBySongLeagueForPlayers 限定玩家集合的成绩（对手榜）
	ListBySongLeagueForPlayers(ctx context.Context, songID uint64, league model.League, playerIDs []uint64) ([]*model.Score, error)
	Create(ctx context.Context, score *model.Score) error
	Save(ctx context.Context, score *model.Score) error
	Delete(ctx context.Context, id uint64) error
	// SumByPlayer 按玩家汇总幸存成绩总分（技能点重建用）
	SumByPlayer(ctx context.Context) ([]PlayerPoints, error)
}

type scoreRepository struct {
	db *gorm.DB
}

// NewScoreRepository 创建 ScoreRepository 实例
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepository{db: db}
}

func (r *scoreRepository) GetByPlayerSongLeague(ctx context.Context, playerID, songID uint64, league model.League) (*model.Score, error) {
	var score model.Score
	if err := r.db.WithContext(ctx).
		Where("player_id = ? AND song_id = ? AND league = ?", playerID, songID, league).
		First(&score).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *scoreRepository) ListBySong(ctx context.Context, songID uint64) ([]*model.Score, error) {
	var scores []*model.Score
	if err := r.db.WithContext(ctx).
		Where("song_id = ?", songID).
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *scoreRepository) ListTopBySongLeague(ctx context.Context, songID uint64, league model.League, limit int) ([]*model.Score, error) {
	if limit <= 0 || limit > 100 {
		limit = 11
	}
	var scores []*model.Score
	if err := r.db.WithContext(ctx).
		Where("song_id = ? AND league = ?", songID, league).
		Order("score DESC").
		Limit(limit).
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *scoreRepository) ListBySongLeagueForPlayers(ctx context.Context, songID uint64, league model.League, playerIDs []uint64) ([]*model.Score, error) {
	if len(playerIDs) == 0 {
		return []*model.Score{}, nil
	}
	var scores []*model.Score
	if err := r.db.WithContext(ctx).
		Where("song_id = ? AND league = ? AND player_id IN ?", songID, league, playerIDs).
		Order("score DESC").
		Find(&scores).Error; err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *scoreRepository) Create(ctx context.Context, score *model.Score) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *scoreRepository) Save(ctx context.Context, score *model.Score) error {
	return r.db.WithContext(ctx).Save(score).Error
}

func (r *scoreRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&model.Score{}, "id = ?", id).Error
}

func (r *scoreRepository) SumByPlayer(ctx context.Context) ([]PlayerPoints, error) {
	var rows []PlayerPoints
	if err := r.db.WithContext(ctx).
		Model(&model.Score{}).
		Select("player_id, COALESCE(SUM(score), 0) AS total").
		Group("player_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
