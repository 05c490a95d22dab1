package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories 一套绑定同一个 *gorm.DB（或事务）的全部仓储
type Repositories struct {
	Songs     SongRepository
	ExtraInfo ExtraSongInfoRepository
	Players   PlayerRepository
	Scores    ScoreRepository
	Rivalries RivalryRepository
}

// NewRepositories 基于给定连接构建全套仓储
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Songs:     NewSongRepository(db),
		ExtraInfo: NewExtraSongInfoRepository(db),
		Players:   NewPlayerRepository(db),
		Scores:    NewScoreRepository(db),
		Rivalries: NewRivalryRepository(db),
	}
}

// TxManager 把多步持久化写操作包进一个数据库事务。
// 歌曲合并的库内步骤走这里；缓存增量不参与事务，由调用方在提交后
// 尽力施加（缓存是可重建的派生投影，不是事实来源）。
type TxManager interface {
	RunInTx(ctx context.Context, fn func(r *Repositories) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager 创建基于 gorm 事务的 TxManager
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) RunInTx(ctx context.Context, fn func(r *Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
