package model

// View 客户端视图
type View string

const (
	ViewWelcome   View = "welcome"
	ViewDashboard View = "dashboard"
	ViewPayment   View = "payment"
	ViewAdmin     View = "admin"
)

// ResolveView 由账户状态推导客户端视图
//
// 唯一的视图推导入口：所有加载和变更路径都经由此函数，
// 输入账户必须已经过 owner 覆盖投影（identity.Policy.ApplyOwnerOverride）。
//   - 管理员 → 管理视图
//   - 激活或待审批 → 仪表盘
//   - 其余（过期/被拒/未提交凭证）→ 支付视图
//   - 无账户 → 欢迎页
func ResolveView(a *Account) View {
	if a == nil {
		return ViewWelcome
	}
	switch a.Status() {
	case AccountStatusAdmin:
		return ViewAdmin
	case AccountStatusActive, AccountStatusPending:
		return ViewDashboard
	default:
		return ViewPayment
	}
}
