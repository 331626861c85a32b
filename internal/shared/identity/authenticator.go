package identity

import (
	"context"

	"victoria-bet/internal/shared/model"
)

// AccountFinder 登录所需的最小存储接口
type AccountFinder interface {
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
}

// Authenticator 登录策略
//
// 返回 (nil, nil) 表示本策略不适用，交给链中的下一个策略；
// 返回 ErrInvalidCredentials 表示凭证被本策略明确拒绝。
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.Account, error)
}

// Chain 按顺序尝试的策略链
type Chain []Authenticator

// Authenticate 依次尝试各策略，全部不适用时返回 ErrInvalidCredentials
func (c Chain) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	for _, a := range c {
		acc, err := a.Authenticate(ctx, email, password)
		if err != nil {
			return nil, err
		}
		if acc != nil {
			return acc, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// NewChain 构建默认策略链：管理员直通优先，其次存储账户
func (p *Policy) NewChain(store AccountFinder) Chain {
	return Chain{
		&adminAuthenticator{policy: p},
		&storeAuthenticator{policy: p, store: store},
	}
}

// adminAuthenticator 管理员直通策略
//
// 配置的管理员凭证对直接合成 ADMIN 账户，完全不经过持久化层。
// 邮箱匹配但密码不符时不拒绝，落到存储策略（与原始行为一致）。
type adminAuthenticator struct {
	policy *Policy
}

func (a *adminAuthenticator) Authenticate(_ context.Context, email, password string) (*model.Account, error) {
	p := a.policy
	if p.AdminEmail == "" || email != p.AdminEmail || password != p.AdminPassword {
		return nil, nil
	}
	return &model.Account{
		ID:       "admin",
		FullName: "Administrador Principal",
		Email:    p.AdminEmail,
		Phone:    "900000000",
		Role:     model.AccountRoleAdmin,
		IsActive: true,
	}, nil
}

// storeAuthenticator 存储账户策略：邮箱查找 + 哈希验证
type storeAuthenticator struct {
	policy *Policy
	store  AccountFinder
}

func (s *storeAuthenticator) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	acc, err := s.store.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil || !CheckPassword(password, acc.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.policy.ApplyOwnerOverride(acc.Sanitized()), nil
}
