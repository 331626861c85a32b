package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/model"
)

// memStore 内存存储桩，可按需注入读/写故障
type memStore struct {
	accounts   []*model.Account
	forecasts  []*model.Forecast
	failReads  bool
	failWrites bool
}

var errStub = errors.New("connection refused")

func (m *memStore) ListAccounts(context.Context) ([]*model.Account, error) {
	if m.failReads {
		return nil, errStub
	}
	return m.accounts, nil
}

func (m *memStore) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	if m.failReads {
		return nil, errStub
	}
	for _, a := range m.accounts {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateAccount(_ context.Context, a *model.Account) error {
	if m.failWrites {
		return errStub
	}
	for _, existing := range m.accounts {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicate
		}
	}
	m.accounts = append(m.accounts, a.Clone())
	return nil
}

func (m *memStore) UpdateAccount(_ context.Context, id string, patch *model.AccountPatch) error {
	if m.failWrites {
		return errStub
	}
	for _, a := range m.accounts {
		if a.ID == id {
			patch.Apply(a)
		}
	}
	return nil
}

func (m *memStore) ListForecasts(context.Context) ([]*model.Forecast, error) {
	if m.failReads {
		return nil, errStub
	}
	return m.forecasts, nil
}

func (m *memStore) CreateForecast(_ context.Context, f *model.Forecast) error {
	if m.failWrites {
		return errStub
	}
	m.forecasts = append(m.forecasts, f)
	return nil
}

func (m *memStore) UpdateForecast(_ context.Context, id string, patch *model.ForecastPatch) error {
	if m.failWrites {
		return errStub
	}
	for _, f := range m.forecasts {
		if f.ID == id {
			patch.Apply(f)
		}
	}
	return nil
}

func (m *memStore) DeleteForecast(_ context.Context, id string) error {
	if m.failWrites {
		return errStub
	}
	for i, f := range m.forecasts {
		if f.ID == id {
			m.forecasts = append(m.forecasts[:i], m.forecasts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

var _ PersistentStore = (*memStore)(nil)

// wrapDupStore 驱动层带上下文包装重复键错误的桩
type wrapDupStore struct{ memStore }

func (s *wrapDupStore) CreateAccount(context.Context, *model.Account) error {
	return fmt.Errorf("insert account: %w", ErrDuplicate)
}

func testPolicy() *identity.Policy {
	return &identity.Policy{
		OwnerEmail:    "dono@victoriabet.ao",
		AdminEmail:    "admin@victoriabet.ao",
		AdminPassword: "admin123",
	}
}

func TestDualReadFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("远端正常时优先远端", func(t *testing.T) {
		remote := &memStore{accounts: []*model.Account{{ID: "remote-1", Email: "r@x.ao"}}}
		local := &memStore{accounts: []*model.Account{{ID: "local-1", Email: "l@x.ao"}}}
		d := NewDual(remote, local, testPolicy())

		accounts, err := d.ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "remote-1", accounts[0].ID)
	})

	t.Run("远端读失败静默降级到本地", func(t *testing.T) {
		remote := &memStore{failReads: true}
		local := &memStore{accounts: []*model.Account{{ID: "local-1", Email: "l@x.ao"}}}
		d := NewDual(remote, local, testPolicy())

		accounts, err := d.ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "local-1", accounts[0].ID)

		a, err := d.FindAccountByEmail(ctx, "l@x.ao")
		require.NoError(t, err)
		require.NotNil(t, a)
	})

	t.Run("未找到不触发回退", func(t *testing.T) {
		remote := &memStore{}
		local := &memStore{accounts: []*model.Account{{ID: "local-1", Email: "l@x.ao"}}}
		d := NewDual(remote, local, testPolicy())

		a, err := d.FindAccountByEmail(ctx, "l@x.ao")
		require.NoError(t, err)
		assert.Nil(t, a) // 远端权威：远端无此账户
	})

	t.Run("纯本地模式", func(t *testing.T) {
		local := &memStore{accounts: []*model.Account{{ID: "local-1", Email: "l@x.ao"}}}
		d := NewDual(nil, local, testPolicy())

		accounts, err := d.ListAccounts(ctx)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
	})
}

func TestDualOwnerProjection(t *testing.T) {
	ctx := context.Background()
	local := &memStore{accounts: []*model.Account{
		{ID: "usr-1", Email: "dono@victoriabet.ao", IsPendingApproval: true},
		{ID: "usr-2", Email: "user@x.ao"},
	}}
	d := NewDual(nil, local, testPolicy())

	accounts, err := d.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	for _, a := range accounts {
		if a.ID == "usr-1" {
			assert.True(t, a.IsActive, "owner 在每次读取时都被投影为激活")
			assert.False(t, a.IsPendingApproval)
		}
		if a.ID == "usr-2" {
			assert.False(t, a.IsActive)
		}
	}

	owner, err := d.FindAccountByEmail(ctx, "dono@victoriabet.ao")
	require.NoError(t, err)
	assert.True(t, owner.IsActive)
}

func TestDualWriteBehavior(t *testing.T) {
	ctx := context.Background()

	t.Run("远端写失败以ErrStorageFailure上抛不回退", func(t *testing.T) {
		remote := &memStore{failWrites: true}
		local := &memStore{}
		d := NewDual(remote, local, testPolicy())

		err := d.CreateAccount(ctx, &model.Account{ID: "usr-1", Email: "a@x.ao"})
		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Empty(t, local.accounts, "写失败时本地不接收数据")
	})

	t.Run("重复键直接透传", func(t *testing.T) {
		remote := &memStore{accounts: []*model.Account{{ID: "usr-1", Email: "a@x.ao"}}}
		d := NewDual(remote, &memStore{}, testPolicy())

		err := d.CreateAccount(ctx, &model.Account{ID: "usr-2", Email: "a@x.ao"})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NotErrorIs(t, err, ErrStorageFailure)
	})

	t.Run("包装后的重复键同样透传", func(t *testing.T) {
		d := NewDual(&wrapDupStore{}, &memStore{}, testPolicy())

		err := d.CreateAccount(ctx, &model.Account{ID: "usr-2", Email: "a@x.ao"})
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NotErrorIs(t, err, ErrStorageFailure)
	})

	t.Run("远端配置时只写远端", func(t *testing.T) {
		remote := &memStore{}
		local := &memStore{}
		d := NewDual(remote, local, testPolicy())

		require.NoError(t, d.CreateAccount(ctx, &model.Account{ID: "usr-1", Email: "a@x.ao"}))
		assert.Len(t, remote.accounts, 1)
		assert.Empty(t, local.accounts)
	})
}

func TestRegisterAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("哈希入库且返回值不含哈希", func(t *testing.T) {
		local := &memStore{}
		d := NewDual(nil, local, testPolicy())

		created, err := d.RegisterAccount(ctx, &model.Account{
			FullName: "Maria", Email: "Maria@X.AO", Phone: "923111222",
		}, "senha123")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(created.ID, "usr-"))
		assert.Equal(t, "maria@x.ao", created.Email)
		assert.Empty(t, created.PasswordHash)
		assert.Equal(t, model.AccountRoleUser, created.Role)
		assert.False(t, created.CreatedAt.IsZero())

		require.Len(t, local.accounts, 1)
		stored := local.accounts[0]
		assert.NotEmpty(t, stored.PasswordHash)
		assert.NotEqual(t, "senha123", stored.PasswordHash)
		assert.True(t, identity.CheckPassword("senha123", stored.PasswordHash))
	})

	t.Run("重复邮箱大小写不敏感", func(t *testing.T) {
		local := &memStore{accounts: []*model.Account{{ID: "usr-1", Email: "maria@x.ao"}}}
		d := NewDual(nil, local, testPolicy())

		_, err := d.RegisterAccount(ctx, &model.Account{Email: "MARIA@x.ao"}, "senha123")
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.Len(t, local.accounts, 1)
	})

	t.Run("owner注册后立即投影激活", func(t *testing.T) {
		d := NewDual(nil, &memStore{}, testPolicy())

		created, err := d.RegisterAccount(ctx, &model.Account{Email: "dono@victoriabet.ao"}, "senha123")
		require.NoError(t, err)
		assert.True(t, created.IsActive)
	})
}

func TestListForecastsSeeding(t *testing.T) {
	ctx := context.Background()

	t.Run("本地库为空时写入种子集", func(t *testing.T) {
		local := &memStore{}
		d := NewDual(nil, local, testPolicy())

		forecasts, err := d.ListForecasts(ctx)
		require.NoError(t, err)
		require.Len(t, forecasts, 4)
		assert.Equal(t, "tip-01", forecasts[0].ID)
		assert.Len(t, local.forecasts, 4, "种子集被持久化")

		// 第二次读取返回持久化的同一批
		again, err := d.ListForecasts(ctx)
		require.NoError(t, err)
		assert.Len(t, again, 4)
	})

	t.Run("远端可用时不播种", func(t *testing.T) {
		remote := &memStore{forecasts: []*model.Forecast{{ID: "tip-x", CreatedAt: time.Now()}}}
		local := &memStore{}
		d := NewDual(remote, local, testPolicy())

		forecasts, err := d.ListForecasts(ctx)
		require.NoError(t, err)
		require.Len(t, forecasts, 1)
		assert.Empty(t, local.forecasts)
	})

	t.Run("远端失败回退本地并播种", func(t *testing.T) {
		remote := &memStore{failReads: true}
		local := &memStore{}
		d := NewDual(remote, local, testPolicy())

		forecasts, err := d.ListForecasts(ctx)
		require.NoError(t, err)
		assert.Len(t, forecasts, 4)
	})
}
