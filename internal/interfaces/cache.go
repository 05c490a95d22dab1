package interfaces

import "context"

// SkillPointsCache 玩家累计技能点的聚合缓存。
// Postgres 是唯一事实来源，缓存是独立维护的增量累计值：所有创建/更新/
// 删除 Score 的代码路径都必须按「先写库、后写缓存」的顺序施加对应增量，
// 崩溃时缓存只会少记不会多记，由重建任务（SkillPointsService.Rebuild）
// 兜底纠偏。
type SkillPointsCache interface {
	// Add 给玩家累加技能点（delta > 0）
	Add(ctx context.Context, playerID uint64, delta int64) error
	// Deduct 扣减玩家技能点（delta > 0，内部取负）
	Deduct(ctx context.Context, playerID uint64, delta int64) error
	// Get 读取玩家当前累计技能点；没有记录返回 0
	Get(ctx context.Context, playerID uint64) (int64, error)
	// Set 直接覆盖玩家累计技能点（重建任务用）
	Set(ctx context.Context, playerID uint64, total int64) error
}
