package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/model"
)

// Dual 双模式持久化适配器
//
// 远端存储（PostgreSQL）配置时优先使用；读失败静默降级到本地回退库
// （可用性优先于一致性）。写失败不回退——远端写错误直接以
// ErrStorageFailure 上抛，避免两个库之间产生分歧。
//
// 所有账户读写路径的返回值都经过 identity.Policy 的 owner 覆盖投影。
type Dual struct {
	remote PersistentStore // 可能为 nil（未配置远端）
	local  PersistentStore
	policy *identity.Policy
}

var _ PersistentStore = (*Dual)(nil)

// NewDual 创建双模式适配器
// remote 传 nil 表示纯本地模式
func NewDual(remote, local PersistentStore, policy *identity.Policy) *Dual {
	return &Dual{remote: remote, local: local, policy: policy}
}

// writeStore 写目标：远端配置时只写远端
func (d *Dual) writeStore() PersistentStore {
	if d.remote != nil {
		return d.remote
	}
	return d.local
}

// wrapWriteErr 写错误统一映射为 ErrStorageFailure（重复键除外）
func wrapWriteErr(err error) error {
	if err == nil || errors.Is(err, ErrDuplicate) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}

// ============================================================================
// 账户
// ============================================================================

// ListAccounts 列出账户，远端读失败时降级到本地
func (d *Dual) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	if d.remote != nil {
		accounts, err := d.remote.ListAccounts(ctx)
		if err == nil {
			return d.projectAll(accounts), nil
		}
		log.Printf("[storage] remote ListAccounts failed, falling back to local: %v", err)
	}
	accounts, err := d.local.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return d.projectAll(accounts), nil
}

// FindAccountByEmail 邮箱查找，远端读失败时降级到本地
// "未找到"不是失败，不触发回退
func (d *Dual) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	if d.remote != nil {
		a, err := d.remote.FindAccountByEmail(ctx, email)
		if err == nil {
			return d.policy.ApplyOwnerOverride(a), nil
		}
		log.Printf("[storage] remote FindAccountByEmail failed, falling back to local: %v", err)
	}
	a, err := d.local.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return d.policy.ApplyOwnerOverride(a), nil
}

// CreateAccount 创建账户（写路径，不回退）
func (d *Dual) CreateAccount(ctx context.Context, a *model.Account) error {
	return wrapWriteErr(d.writeStore().CreateAccount(ctx, a))
}

// UpdateAccount 部分更新账户（写路径，不回退）
func (d *Dual) UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error {
	return wrapWriteErr(d.writeStore().UpdateAccount(ctx, id, patch))
}

// RegisterAccount 注册新账户
//
// 适配器独占密码哈希：存储前经 bcrypt 处理，返回值不含哈希。
// 邮箱重复（大小写不敏感）返回 ErrDuplicate，不创建任何记录。
func (d *Dual) RegisterAccount(ctx context.Context, a *model.Account, rawPassword string) (*model.Account, error) {
	existing, err := d.FindAccountByEmail(ctx, a.Email)
	if err != nil {
		return nil, wrapWriteErr(err)
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	hash, err := identity.HashPassword(rawPassword)
	if err != nil {
		return nil, wrapWriteErr(err)
	}

	a = a.Clone()
	a.ID = newID("usr")
	a.Email = strings.ToLower(a.Email)
	a.PasswordHash = hash
	a.CreatedAt = time.Now()
	if a.Role == "" {
		a.Role = model.AccountRoleUser
	}

	if err := d.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return d.policy.ApplyOwnerOverride(a.Sanitized()), nil
}

// projectAll 对账户序列应用 owner 覆盖投影
func (d *Dual) projectAll(accounts []*model.Account) []*model.Account {
	for i, a := range accounts {
		accounts[i] = d.policy.ApplyOwnerOverride(a)
	}
	return accounts
}

// ============================================================================
// 预测
// ============================================================================

// ListForecasts 列出预测，远端读失败时降级到本地
// 本地库为空时写入固定种子集并返回，保证后续读取稳定
func (d *Dual) ListForecasts(ctx context.Context) ([]*model.Forecast, error) {
	if d.remote != nil {
		forecasts, err := d.remote.ListForecasts(ctx)
		if err == nil {
			return forecasts, nil
		}
		log.Printf("[storage] remote ListForecasts failed, falling back to local: %v", err)
	}

	forecasts, err := d.local.ListForecasts(ctx)
	if err != nil {
		return nil, err
	}
	if len(forecasts) == 0 {
		forecasts = SeedForecasts(time.Now())
		for _, f := range forecasts {
			if err := d.local.CreateForecast(ctx, f); err != nil {
				log.Printf("[storage] failed to persist seed forecast %s: %v", f.ID, err)
			}
		}
	}
	return forecasts, nil
}

// CreateForecast 创建预测（写路径，不回退）
func (d *Dual) CreateForecast(ctx context.Context, f *model.Forecast) error {
	return wrapWriteErr(d.writeStore().CreateForecast(ctx, f))
}

// UpdateForecast 部分更新预测（写路径，不回退；id 不存在为 no-op）
func (d *Dual) UpdateForecast(ctx context.Context, id string, patch *model.ForecastPatch) error {
	return wrapWriteErr(d.writeStore().UpdateForecast(ctx, id, patch))
}

// DeleteForecast 删除预测（写路径，不回退）
func (d *Dual) DeleteForecast(ctx context.Context, id string) error {
	return wrapWriteErr(d.writeStore().DeleteForecast(ctx, id))
}

// Close 关闭两个后端
func (d *Dual) Close() error {
	var firstErr error
	if d.remote != nil {
		if err := d.remote.Close(); err != nil {
			firstErr = err
		}
	}
	if err := d.local.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
