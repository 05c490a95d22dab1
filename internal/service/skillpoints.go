package service

import (
	"context"
	"fmt"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
)

// SkillPointsService 技能点聚合维护。缓存是独立维护的累计值而不是
// 读路径缓存：崩溃/缓存写失败会让它朝「少记」的安全方向漂移，
// Rebuild 按库内幸存成绩逐玩家求和后整体覆盖，作为纠偏手段。
type SkillPointsService struct {
	scoreRepo repository.ScoreRepository
	cache     interfaces.SkillPointsCache
	logger    *logrus.Logger
}

// NewSkillPointsService 创建 SkillPointsService
func NewSkillPointsService(scoreRepo repository.ScoreRepository, cache interfaces.SkillPointsCache, logger *logrus.Logger) *SkillPointsService {
	return &SkillPointsService{scoreRepo: scoreRepo, cache: cache, logger: logger}
}

// Rebuild 从库内成绩重建全部玩家的技能点，返回覆盖的玩家数
func (s *SkillPointsService) Rebuild(ctx context.Context) (int, error) {
	rows, err := s.scoreRepo.SumByPlayer(ctx)
	if err != nil {
		return 0, fmt.Errorf("按玩家汇总成绩失败: %w", err)
	}
	for _, row := range rows {
		if err := s.cache.Set(ctx, row.PlayerID, row.Total); err != nil {
			return 0, fmt.Errorf("覆盖玩家 %d 技能点失败: %w", row.PlayerID, err)
		}
	}
	s.logger.WithField("players", len(rows)).Info("技能点缓存重建完成")
	return len(rows), nil
}

// GetForPlayer 读某玩家当前累计技能点
func (s *SkillPointsService) GetForPlayer(ctx context.Context, playerID uint64) (int64, error) {
	total, err := s.cache.Get(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("读取技能点失败: %w", err)
	}
	return total, nil
}
