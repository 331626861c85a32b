// Package identity 凭证与身份策略
//
// 集中管理密码哈希、owner 覆盖投影和登录策略链。
// 特权身份（owner 邮箱、管理员凭证对）一律来自配置注入，代码中不出现字面量。
package identity

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"victoria-bet/internal/shared/model"
)

// ErrInvalidCredentials 凭证不匹配
var ErrInvalidCredentials = errors.New("invalid email or password")

// ownerHorizon owner 账户的有效期视界（100 年）
const ownerHorizon = 100 * 365 * 24 * time.Hour

// Policy 身份策略
type Policy struct {
	OwnerEmail    string // 永久激活的特权邮箱
	AdminEmail    string // 管理员直通登录邮箱
	AdminPassword string // 管理员直通登录密码
}

// HashPassword 使用 bcrypt 哈希密码
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IsOwner 判断邮箱是否为 owner（大小写不敏感）
func (p *Policy) IsOwner(email string) bool {
	return p.OwnerEmail != "" && strings.EqualFold(email, p.OwnerEmail)
}

// ApplyOwnerOverride owner 覆盖投影
//
// 纯函数且幂等：owner 邮箱的账户在每次读取时都被投影为永久激活，
// 无论存储中记录的是什么状态。非 owner 账户原样返回。
// 该投影只作用于读路径，不作为存储事实。
func (p *Policy) ApplyOwnerOverride(a *model.Account) *model.Account {
	if a == nil || !p.IsOwner(a.Email) {
		return a
	}
	c := a.Clone()
	exp := time.Now().Add(ownerHorizon)
	c.IsActive = true
	c.IsPendingApproval = false
	c.ExpirationDate = &exp
	return c
}
