package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
)

// League 联赛档位枚举（客户端按难度分榜，进入 Score 唯一键）
type League int16

const (
	LeagueCasual League = 0 // 休闲
	LeaguePro    League = 1 // 专业
	LeagueElite  League = 2 // 精英
)

// Valid 档位是否在客户端协议范围内
func (l League) Valid() bool {
	return l >= LeagueCasual && l <= LeagueElite
}

func (l League) String() string {
	switch l {
	case LeagueCasual:
		return "casual"
	case LeaguePro:
		return "pro"
	case LeagueElite:
		return "elite"
	default:
		return fmt.Sprintf("league(%d)", int16(l))
	}
}

// ScoreScope 榜单范围（GetRides 响应里的 scoretype）
type ScoreScope int16

const (
	ScopeGlobal ScoreScope = 0 // 全服
	ScopeFriend ScoreScope = 1 // 好友/对手
	ScopeNearby ScoreScope = 2 // 附近（暂未实现，保留协议值）
)

// ParseDelimitedInts 解析客户端上报的逗号分隔整数串（trackshape/xstats）。
// 空串视为空数组；任何一段不是整数即整体判定为非法输入，调用方应在
// 任何落库动作之前完成本校验。
func ParseDelimitedInts(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int64{}, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("非法的整数字段 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SplitFeats 把客户端上报的特技串（"Stealth!, Match 11"）切成列表
func SplitFeats(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IntsToJSON 把整数切片编码为 jsonb 字段值
func IntsToJSON(vals []int64) datatypes.JSON {
	b, _ := json.Marshal(vals)
	return datatypes.JSON(b)
}

// StringsToJSON 把字符串切片编码为 jsonb 字段值
func StringsToJSON(vals []string) datatypes.JSON {
	b, _ := json.Marshal(vals)
	return datatypes.JSON(b)
}

// JSONToStrings 解码 jsonb 字符串数组字段；空值返回空切片
func JSONToStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}
