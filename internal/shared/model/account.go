// Package model 领域模型
package model

import "time"

// AccountRole 账户角色
type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAdmin AccountRole = "admin"
)

// AccountStatus 账户生命周期状态
//
// 存储层保留 is_active / is_pending_approval 两个布尔列（远端表结构约定），
// 对外状态统一由 Status() 投影得出：active 优先于 pending。
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusPending AccountStatus = "pending_approval"
	AccountStatusExpired AccountStatus = "expired"
	AccountStatusAdmin   AccountStatus = "admin"
)

// SubscriptionTTL 审批通过后的订阅有效期
const SubscriptionTTL = 7 * 24 * time.Hour

// Account 账户
type Account struct {
	ID                string      `json:"id" db:"id"`
	FullName          string      `json:"full_name" db:"full_name"`
	Email             string      `json:"email" db:"email"`
	Phone             string      `json:"phone" db:"phone"`
	Role              AccountRole `json:"role" db:"role"`
	IsActive          bool        `json:"is_active" db:"is_active"`
	IsPendingApproval bool        `json:"is_pending_approval" db:"is_pending_approval"`
	ExpirationDate    *time.Time  `json:"expiration_date" db:"expiration_date"`
	PaymentProof      string      `json:"payment_proof,omitempty" db:"payment_proof"`
	AIValidated       bool        `json:"ai_validated" db:"ai_validated"`
	PasswordHash      string      `json:"-" db:"password_hash"` // never expose in JSON
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// IsAdmin 是否为管理员账户
func (a *Account) IsAdmin() bool {
	return a.Role == AccountRoleAdmin
}

// Status 由双标志位投影出单一状态
// 两个标志同时为 true 时 active 胜出；同时为 false 表示已过期/被拒
func (a *Account) Status() AccountStatus {
	switch {
	case a.IsAdmin():
		return AccountStatusAdmin
	case a.IsActive:
		return AccountStatusActive
	case a.IsPendingApproval:
		return AccountStatusPending
	default:
		return AccountStatusExpired
	}
}

// SubmitProof 提交支付凭证，进入待审批状态
// 过期账户经此路径重新排队；两个标志位保持互斥
func (a *Account) SubmitProof(proofRef string, aiValidated bool) {
	a.IsActive = false
	a.IsPendingApproval = true
	a.PaymentProof = proofRef
	a.AIValidated = aiValidated
}

// Approve 管理员批准：激活账户并设置 7 天有效期
// ID 和 Email 不变
func (a *Account) Approve(now time.Time) {
	exp := now.Add(SubscriptionTTL)
	a.IsActive = true
	a.IsPendingApproval = false
	a.ExpirationDate = &exp
}

// ExpireIfDue 惰性过期检查：在每次加载账户时调用
// 管理员不参与过期；pending 标志保持不变；重复调用幂等
// 返回是否发生了状态变化（调用方负责持久化）
func (a *Account) ExpireIfDue(now time.Time) bool {
	if a.IsAdmin() {
		return false
	}
	if a.ExpirationDate != nil && a.ExpirationDate.Before(now) && a.IsActive {
		a.IsActive = false
		return true
	}
	return false
}

// Clone 返回账户副本
func (a *Account) Clone() *Account {
	c := *a
	if a.ExpirationDate != nil {
		exp := *a.ExpirationDate
		c.ExpirationDate = &exp
	}
	return &c
}

// Sanitized 返回去除密码哈希的副本
func (a *Account) Sanitized() *Account {
	c := a.Clone()
	c.PasswordHash = ""
	return c
}

// AccountPatch 账户部分更新
// 只枚举合法可更新字段；nil 表示不修改
type AccountPatch struct {
	FullName          *string    `json:"full_name,omitempty"`
	Phone             *string    `json:"phone,omitempty"`
	IsActive          *bool      `json:"is_active,omitempty"`
	IsPendingApproval *bool      `json:"is_pending_approval,omitempty"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	PaymentProof      *string    `json:"payment_proof,omitempty"`
	AIValidated       *bool      `json:"ai_validated,omitempty"`
}

// IsEmpty 补丁是否为空
func (p *AccountPatch) IsEmpty() bool {
	return p.FullName == nil && p.Phone == nil && p.IsActive == nil &&
		p.IsPendingApproval == nil && p.ExpirationDate == nil &&
		p.PaymentProof == nil && p.AIValidated == nil
}

// Apply 将补丁合并到账户
func (p *AccountPatch) Apply(a *Account) {
	if p.FullName != nil {
		a.FullName = *p.FullName
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.IsPendingApproval != nil {
		a.IsPendingApproval = *p.IsPendingApproval
	}
	if p.ExpirationDate != nil {
		exp := *p.ExpirationDate
		a.ExpirationDate = &exp
	}
	if p.PaymentProof != nil {
		a.PaymentProof = *p.PaymentProof
	}
	if p.AIValidated != nil {
		a.AIValidated = *p.AIValidated
	}
}
