package service

import (
	"context"
	"errors"
	"fmt"

	"WaveRider/internal/interfaces"
	"WaveRider/internal/model"
	"WaveRider/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SongMergeService 歌曲合并：把重复歌曲的全部历史折叠进规范歌曲，
// 不丢成绩、不重复计技能点。管理操作，由 api 层的管理接口触发。
//
// 库内步骤整体包在一个事务里；技能点增量在事务提交后尽力施加
// （缓存是派生投影，失败由重建任务纠偏，不会把库写一半留在那）。
// 合并不幂等：失败后要重读库状态再决定是否重发，不要按原参数盲重试。
type SongMergeService struct {
	txm    repository.TxManager
	cache  interfaces.SkillPointsCache
	logger *logrus.Logger
}

// NewSongMergeService 创建 SongMergeService
func NewSongMergeService(txm repository.TxManager, cache interfaces.SkillPointsCache, logger *logrus.Logger) *SongMergeService {
	return &SongMergeService{txm: txm, cache: cache, logger: logger}
}

// pointsDelta 事务提交后要施加的技能点增量（delta 为负表示释放贡献）
type pointsDelta struct {
	playerID uint64
	delta    int64
}

// Merge 把 duplicateID 合并进 targetID 并删除 duplicateID。
// shouldAlias 为真时，把重复歌曲自己的标题/演唱者追加进目标的别名列表
// （注意：不是合并重复歌曲的别名列表）。
func (s *SongMergeService) Merge(ctx context.Context, duplicateID, targetID uint64, shouldAlias bool) error {
	if duplicateID == targetID {
		return fmt.Errorf("%w: 不能把歌曲合并到自身", ErrValidation)
	}

	var deltas []pointsDelta
	err := s.txm.RunInTx(ctx, func(r *repository.Repositories) error {
		duplicate, err := getSong(ctx, r.Songs, duplicateID)
		if err != nil {
			return err
		}
		target, err := getSong(ctx, r.Songs, targetID)
		if err != nil {
			return err
		}

		s.logger.WithFields(logrus.Fields{
			"duplicate_id": duplicate.ID,
			"target_id":    target.ID,
		}).Info("开始合并歌曲")

		targetScores, err := r.Scores.ListBySong(ctx, target.ID)
		if err != nil {
			return fmt.Errorf("拉取目标歌曲成绩失败: %w", err)
		}
		dupScores, err := r.Scores.ListBySong(ctx, duplicate.ID)
		if err != nil {
			return fmt.Errorf("拉取重复歌曲成绩失败: %w", err)
		}

		for _, own := range dupScores {
			match := findScore(targetScores, own.PlayerID, own.League)
			if match == nil {
				// 目标那边没有同玩家同档位的成绩：整行改指目标，游玩次数原样保留
				own.SongID = target.ID
				if err := r.Scores.Save(ctx, own); err != nil {
					return fmt.Errorf("迁移成绩失败: %w", err)
				}
				continue
			}
			if match.Score < own.Score {
				// 目标分低：删目标行并释放其缓存贡献，重复行改指目标，
				// 把被删行的游玩次数并进来再保存
				if err := r.Scores.Delete(ctx, match.ID); err != nil {
					return fmt.Errorf("删除被超越成绩失败: %w", err)
				}
				deltas = append(deltas, pointsDelta{playerID: match.PlayerID, delta: -match.Score})
				own.SongID = target.ID
				own.PlayCount += match.PlayCount
				if err := r.Scores.Save(ctx, own); err != nil {
					return fmt.Errorf("迁移更优成绩失败: %w", err)
				}
			} else {
				// 目标分不低：目标行吸收游玩次数，重复行删除并释放缓存贡献
				match.PlayCount += own.PlayCount
				if err := r.Scores.Save(ctx, match); err != nil {
					return fmt.Errorf("累加游玩次数失败: %w", err)
				}
				if err := r.Scores.Delete(ctx, own.ID); err != nil {
					return fmt.Errorf("删除重复成绩失败: %w", err)
				}
				deltas = append(deltas, pointsDelta{playerID: own.PlayerID, delta: -own.Score})
			}
		}

		if shouldAlias {
			if err := s.appendAliases(ctx, r.ExtraInfo, target.ID, duplicate); err != nil {
				return err
			}
		}

		// 删除重复歌曲本行前，级联清掉仍指向它的残余成绩（第二步做完后
		// 正常应该为空，这里兜异常数据的底），每条都要释放缓存贡献
		remaining, err := r.Scores.ListBySong(ctx, duplicate.ID)
		if err != nil {
			return fmt.Errorf("检查残余成绩失败: %w", err)
		}
		for _, sc := range remaining {
			if err := r.Scores.Delete(ctx, sc.ID); err != nil {
				return fmt.Errorf("删除残余成绩失败: %w", err)
			}
			deltas = append(deltas, pointsDelta{playerID: sc.PlayerID, delta: -sc.Score})
		}
		if err := r.Songs.Delete(ctx, duplicate.ID); err != nil {
			return fmt.Errorf("删除重复歌曲失败: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMergeInconsistency, err)
	}

	// 提交成功后尽力施加缓存增量；失败只告警，重建任务会纠偏
	for _, d := range deltas {
		if applyErr := s.applyDelta(ctx, d); applyErr != nil {
			s.logger.WithError(applyErr).WithFields(logrus.Fields{
				"player_id": d.playerID,
				"delta":     d.delta,
			}).Warn("合并后技能点缓存调整失败，等待重建纠偏")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"duplicate_id": duplicateID,
		"target_id":    targetID,
	}).Info("歌曲合并完成")
	return nil
}

func (s *SongMergeService) applyDelta(ctx context.Context, d pointsDelta) error {
	if d.delta < 0 {
		return s.cache.Deduct(ctx, d.playerID, -d.delta)
	}
	return s.cache.Add(ctx, d.playerID, d.delta)
}

// appendAliases 确保目标有 ExtraSongInfo 行，并把重复歌曲的标题/演唱者
// 追加进别名列表。重复条目会被去重（见 DESIGN.md 的决策记录）。
func (s *SongMergeService) appendAliases(ctx context.Context, repo repository.ExtraSongInfoRepository, targetID uint64, duplicate *model.Song) error {
	info, err := repo.GetBySongID(ctx, targetID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询目标歌曲元数据失败: %w", err)
		}
		info = &model.ExtraSongInfo{
			SongID:        targetID,
			AliasesTitle:  model.StringsToJSON([]string{duplicate.Title}),
			AliasesArtist: model.StringsToJSON([]string{duplicate.Artist}),
		}
		if err := repo.Create(ctx, info); err != nil {
			return fmt.Errorf("创建目标歌曲别名行失败: %w", err)
		}
		return nil
	}

	info.AliasesTitle = model.StringsToJSON(appendUnique(model.JSONToStrings(info.AliasesTitle), duplicate.Title))
	info.AliasesArtist = model.StringsToJSON(appendUnique(model.JSONToStrings(info.AliasesArtist), duplicate.Artist))
	if err := repo.Save(ctx, info); err != nil {
		return fmt.Errorf("更新目标歌曲别名失败: %w", err)
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

func findScore(scores []*model.Score, playerID uint64, league model.League) *model.Score {
	for _, sc := range scores {
		if sc.PlayerID == playerID && sc.League == league {
			return sc
		}
	}
	return nil
}

func getSong(ctx context.Context, repo repository.SongRepository, id uint64) (*model.Song, error) {
	song, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: song_id=%d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("查询歌曲失败: %w", err)
	}
	return song, nil
}
