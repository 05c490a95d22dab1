package interfaces

import "context"

// TicketAuthenticator Steam 票据认证的抽象接口。
// 认证失败（票据无效/过期）必须在任何落库动作之前把错误抛给调用方。
type TicketAuthenticator interface {
	// AuthenticateTicket 校验游戏客户端的票据，返回其归属的 SteamID64
	AuthenticateTicket(ctx context.Context, ticket string) (uint64, error)
	// GetPersonaName 查询玩家的 Steam 昵称（建号时用，查不到给兜底名）
	GetPersonaName(ctx context.Context, steamID uint64) (string, error)
}
