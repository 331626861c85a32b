// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：repository/ + driver/postgres、driver/sqlite
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"victoria-bet/internal/shared/model"
)

// AccountStore 账户存储接口
type AccountStore interface {
	// ListAccounts 按创建时间倒序列出全部账户
	ListAccounts(ctx context.Context) ([]*model.Account, error)

	// FindAccountByEmail 通过邮箱查找账户（大小写不敏感）
	// 未找到返回 (nil, nil)，其他失败返回 error
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)

	// CreateAccount 创建账户；邮箱已存在时返回 ErrDuplicate
	CreateAccount(ctx context.Context, a *model.Account) error

	// UpdateAccount 部分更新；id 不存在时为 no-op
	UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error
}

// ForecastStore 预测存储接口
type ForecastStore interface {
	// ListForecasts 按创建时间倒序列出全部预测
	ListForecasts(ctx context.Context) ([]*model.Forecast, error)

	// CreateForecast 创建预测
	CreateForecast(ctx context.Context, f *model.Forecast) error

	// UpdateForecast 部分更新；id 不存在时为 no-op
	UpdateForecast(ctx context.Context, id string, patch *model.ForecastPatch) error

	// DeleteForecast 删除预测
	DeleteForecast(ctx context.Context, id string) error
}

// PersistentStore 持久化存储组合接口
type PersistentStore interface {
	AccountStore
	ForecastStore
	Close() error
}
