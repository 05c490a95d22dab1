package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"WaveRider/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// skillPointsKey 技能点有序集合的键。member 是玩家ID，score 是累计技能点，
// 用 zset 而不是散列是为了顺便拿到按技能点排序的能力。
const skillPointsKey = "waverider:skill_points"

// RedisSkillPoints 基于 Redis 的技能点聚合缓存实现
type RedisSkillPoints struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// NewRedisSkillPoints 创建 RedisSkillPoints；连接探活由调用方（main）负责
func NewRedisSkillPoints(rdb *redis.Client, logger *logrus.Logger) interfaces.SkillPointsCache {
	return &RedisSkillPoints{rdb: rdb, logger: logger}
}

func member(playerID uint64) string {
	return strconv.FormatUint(playerID, 10)
}

// Add 累加技能点
func (c *RedisSkillPoints) Add(ctx context.Context, playerID uint64, delta int64) error {
	if err := c.rdb.ZIncrBy(ctx, skillPointsKey, float64(delta), member(playerID)).Err(); err != nil {
		return fmt.Errorf("技能点累加失败: %w", err)
	}
	return nil
}

// Deduct 扣减技能点（成绩删除时释放其缓存贡献）
func (c *RedisSkillPoints) Deduct(ctx context.Context, playerID uint64, delta int64) error {
	if err := c.rdb.ZIncrBy(ctx, skillPointsKey, -float64(delta), member(playerID)).Err(); err != nil {
		return fmt.Errorf("技能点扣减失败: %w", err)
	}
	return nil
}

// Get 读取累计技能点，没有记录返回 0
func (c *RedisSkillPoints) Get(ctx context.Context, playerID uint64) (int64, error) {
	score, err := c.rdb.ZScore(ctx, skillPointsKey, member(playerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("技能点读取失败: %w", err)
	}
	return int64(score), nil
}

// Set 覆盖累计技能点（重建任务用）
func (c *RedisSkillPoints) Set(ctx context.Context, playerID uint64, total int64) error {
	if err := c.rdb.ZAdd(ctx, skillPointsKey, redis.Z{
		Score:  float64(total),
		Member: member(playerID),
	}).Err(); err != nil {
		return fmt.Errorf("技能点覆盖写入失败: %w", err)
	}
	return nil
}
