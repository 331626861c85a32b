package server

import (
	"net/http"
	"time"

	"victoria-bet/internal/apiserver/account"
	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/apiserver/forecast"
	"victoria-bet/internal/apiserver/payment"
	"victoria-bet/internal/apiserver/session"
)

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health  - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 认证 (Auth):
//   - POST   /api/v1/auth/register - 用户注册
//   - POST   /api/v1/auth/login    - 用户登录
//
// 会话 (Session):
//   - GET    /api/v1/session - 恢复当前会话
//   - DELETE /api/v1/session - 注销
//
// 支付 (Payment):
//   - GET  /api/v1/payments/details - 收款信息（公开）
//   - POST /api/v1/payments/proof   - 提交支付凭证
//
// 账户管理 (Account, 管理员):
//   - GET  /api/v1/accounts              - 列出账户
//   - POST /api/v1/accounts/{id}/approve - 审批激活
//
// 预测 (Forecast):
//   - GET    /api/v1/forecasts               - 仪表盘列表（最新 4 条）
//   - GET    /api/v1/forecasts/all           - 全部预测（管理员）
//   - POST   /api/v1/forecasts               - 发布预测（管理员）
//   - PATCH  /api/v1/forecasts/{id}          - 更新预测（管理员）
//   - DELETE /api/v1/forecasts/{id}          - 删除预测（管理员）
//   - GET    /api/v1/forecasts/{id}/analysis - 按需 AI 分析
//   - GET    /api/v1/results/yesterday       - 昨日赛果
//   - GET    /api/v1/tips/free               - 免费提示（公开）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 接口
	authHandler := auth.NewHandler(h.store, h.policy.NewChain(h.store), h.sessions, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// Session 接口
	sessionHandler := session.NewHandler(h.sessions)
	sessionHandler.RegisterRoutes(mux)

	// Payment 接口
	var proofStore payment.ProofStore
	if h.proofs != nil {
		proofStore = h.proofs
	}
	paymentHandler := payment.NewHandler(h.store, h.sessions, proofStore, h.gateway, h.payment)
	paymentHandler.RegisterRoutes(mux)

	// Account 接口（管理员）
	accountHandler := account.NewHandler(h.store)
	accountHandler.RegisterRoutes(mux)

	// Forecast 接口
	forecastHandler := forecast.NewHandler(h.store, h.sessions, h.cache, h.gateway)
	forecastHandler.RegisterRoutes(mux)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 应用访问日志中间件
	loggedHandler := h.accessLogMiddleware(authedHandler)

	// 应用 CORS 中间件
	return corsMiddleware(loggedHandler)
}

// accessLogMiddleware 结构化访问日志
func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		h.logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), r.RemoteAddr)
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
