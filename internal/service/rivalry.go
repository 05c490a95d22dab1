package service

import (
	"context"
	"errors"
	"fmt"

	"WaveRider/internal/model"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RivalryService 对手关系：建边、互为对手判定、列表
type RivalryService struct {
	rivalryRepo repository.RivalryRepository
	playerRepo  repository.PlayerRepository
	logger      *logrus.Logger
}

// NewRivalryService 创建 RivalryService
func NewRivalryService(rivalryRepo repository.RivalryRepository, playerRepo repository.PlayerRepository, logger *logrus.Logger) *RivalryService {
	return &RivalryService{rivalryRepo: rivalryRepo, playerRepo: playerRepo, logger: logger}
}

// IsMutual 互为对手判定：反向边存在即互为对手。纯读，无副作用。
func (s *RivalryService) IsMutual(ctx context.Context, rivalry *model.Rivalry) (bool, error) {
	mutual, err := s.rivalryRepo.Exists(ctx, rivalry.RivalID, rivalry.ChallengerID)
	if err != nil {
		return false, fmt.Errorf("查询反向对手关系失败: %w", err)
	}
	return mutual, nil
}

// Establish 建立 challenger → rival 的有向对手边。
// 两端玩家必须已存在；同方向重复建边报字段非法。
func (s *RivalryService) Establish(ctx context.Context, challengerID, rivalID uint64) (*model.Rivalry, error) {
	if challengerID == rivalID {
		return nil, fmt.Errorf("%w: 不能把自己设为对手", ErrValidation)
	}
	for _, id := range []uint64{challengerID, rivalID} {
		if _, err := s.playerRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: player_id=%d", ErrNotFound, id)
			}
			return nil, fmt.Errorf("查询玩家失败: %w", err)
		}
	}
	exists, err := s.rivalryRepo.Exists(ctx, challengerID, rivalID)
	if err != nil {
		return nil, fmt.Errorf("查询对手关系失败: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: 对手关系已存在", ErrValidation)
	}

	rivalry := &model.Rivalry{ChallengerID: challengerID, RivalID: rivalID}
	if err := s.rivalryRepo.Create(ctx, rivalry); err != nil {
		return nil, fmt.Errorf("创建对手关系失败: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"challenger_id": challengerID,
		"rival_id":      rivalID,
	}).Info("对手关系已建立")
	return rivalry, nil
}

// RivalInfo 对手列表里的一条（带互为对手标记）
type RivalInfo struct {
	RivalID   uint64 `json:"rival_id"`
	Username  string `json:"username"`
	Mutual    bool   `json:"mutual"`
	Establish int64  `json:"established_at"` // unix 秒
}

// ListWithMutual 某玩家的对手列表，逐条带互为对手标记
func (s *RivalryService) ListWithMutual(ctx context.Context, challengerID uint64) ([]RivalInfo, error) {
	edges, err := s.rivalryRepo.ListByChallenger(ctx, challengerID)
	if err != nil {
		return nil, fmt.Errorf("查询对手关系失败: %w", err)
	}
	out := make([]RivalInfo, 0, len(edges))
	for _, e := range edges {
		mutual, err := s.rivalryRepo.Exists(ctx, e.RivalID, e.ChallengerID)
		if err != nil {
			return nil, fmt.Errorf("查询反向对手关系失败: %w", err)
		}
		name := ""
		if p, err := s.playerRepo.GetByID(ctx, e.RivalID); err == nil {
			name = p.Username
		}
		out = append(out, RivalInfo{
			RivalID:   e.RivalID,
			Username:  name,
			Mutual:    mutual,
			Establish: e.EstablishedAt.Unix(),
		})
	}
	return out, nil
}
