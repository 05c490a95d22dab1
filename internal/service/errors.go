package service

import "errors"

// 业务错误哨兵。service 层用 fmt.Errorf("...: %w", Err...) 包装后抛出，
// api 层用 errors.Is 映射为 HTTP 状态码，不在中间层吞错。
var (
	// ErrAuthFailed 票据认证失败（无效/过期），发生在任何落库动作之前
	ErrAuthFailed = errors.New("票据认证失败")
	// ErrNotFound 请求的歌曲/玩家不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrValidation 客户端字段非法（分隔数字串格式错误、档位越界等）
	ErrValidation = errors.New("请求字段非法")
	// ErrMergeInconsistency 合并中途失败，重复歌曲可能处于部分合并状态；
	// 恢复手段是重读库状态后再次发起合并，不要盲目按原参数重试
	ErrMergeInconsistency = errors.New("歌曲合并未完成")
)
