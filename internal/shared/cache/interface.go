// Package cache 缓存层抽象接口
//
// 会话快照与按需生成的分析文本的存取能力。
// Redis 配置时由 redis/ 实现；否则由 localfile/ 提供本地回退
// （对应原始系统的浏览器 localStorage）。
package cache

import (
	"context"

	"victoria-bet/internal/shared/model"
)

// SessionStore 会话快照存储接口
//
// 每个账户持有至多一条快照，作为"是否已登录"的唯一事实来源。
// 损坏的快照按不存在处理，绝不作为错误上抛。
type SessionStore interface {
	SaveSession(ctx context.Context, accountID string, a *model.Account) error
	// LoadSession 缺失或损坏时返回 (nil, nil)
	LoadSession(ctx context.Context, accountID string) (*model.Account, error)
	DeleteSession(ctx context.Context, accountID string) error
}

// AnalysisCache 分析文本缓存接口
//
// 按预测 id 键控，迟到的 AI 响应写入后可被安全忽略或复用。
type AnalysisCache interface {
	SaveAnalysis(ctx context.Context, forecastID, text string, sources []string) error
	// LoadAnalysis 未命中时 ok 为 false
	LoadAnalysis(ctx context.Context, forecastID string) (text string, sources []string, ok bool)
}

// Cache 缓存组合接口
type Cache interface {
	SessionStore
	AnalysisCache
	Close() error
}
