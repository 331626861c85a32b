// Package session 会话管理
//
// 会话是账户的 JSON 快照，按账户 ID 存放在缓存层。
// Manager.Establish 是所有"当前用户变更"的唯一入口：
// 投影 owner 覆盖 → 惰性过期检查 → 刷新快照 → 推导视图。
package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/model"
)

// AccountUpdater 账户持久化更新接口
type AccountUpdater interface {
	UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error
}

// Manager 会话管理器
type Manager struct {
	store    AccountUpdater
	sessions cache.SessionStore
	policy   *identity.Policy
}

// NewManager 创建会话管理器
func NewManager(store AccountUpdater, sessions cache.SessionStore, policy *identity.Policy) *Manager {
	return &Manager{store: store, sessions: sessions, policy: policy}
}

// Establish 以给定账户刷新会话并推导视图
//
// 登录、注册、凭证提交、会话恢复都经由此路径，
// 保证任何读出的账户都带 owner 覆盖且过期检查已执行。
func (m *Manager) Establish(ctx context.Context, a *model.Account) (*model.Account, model.View, error) {
	projected := m.policy.ApplyOwnerOverride(a.Sanitized())
	if projected.ExpireIfDue(time.Now()) {
		m.persistExpiry(ctx, projected.ID)
	}
	if err := m.sessions.SaveSession(ctx, projected.ID, projected); err != nil {
		return nil, model.ViewWelcome, fmt.Errorf("save session: %w", err)
	}
	return projected, model.ResolveView(projected), nil
}

// Restore 从会话快照恢复当前用户
//
// 快照缺失或损坏 → 未登录（welcome），不视为错误。
// 恢复不回源持久层：快照即会话期间的事实来源。
func (m *Manager) Restore(ctx context.Context, accountID string) (*model.Account, model.View, error) {
	a, err := m.sessions.LoadSession(ctx, accountID)
	if err != nil {
		log.Printf("[session] load session for %s: %v", accountID, err)
		return nil, model.ViewWelcome, nil
	}
	if a == nil {
		return nil, model.ViewWelcome, nil
	}
	return m.Establish(ctx, a)
}

// Clear 注销：删除会话快照
func (m *Manager) Clear(ctx context.Context, accountID string) error {
	return m.sessions.DeleteSession(ctx, accountID)
}

// persistExpiry 将惰性过期结果写回持久层（尽力而为）
func (m *Manager) persistExpiry(ctx context.Context, id string) {
	inactive := false
	if err := m.store.UpdateAccount(ctx, id, &model.AccountPatch{IsActive: &inactive}); err != nil {
		log.Printf("[session] persist expiry for %s: %v", id, err)
	}
}
