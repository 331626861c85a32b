// Package server HTTP API 入口
//
// 文件组织：
//   - common.go: Handler 定义和通用工具函数
//   - handler.go: 路由装配
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"victoria-bet/internal/advisory"
	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/apiserver/payment"
	"victoria-bet/internal/apiserver/session"
	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/objstore"
	"victoria-bet/internal/shared/storage"
	"victoria-bet/pkg/logging"
)

// Handler API 处理器
//
// 所有 HTTP 接口的装配入口，持有各领域处理器共享的依赖：
// 双层持久化、会话缓存、认证策略、AI 网关、对象存储。
type Handler struct {
	store    *storage.Dual
	cache    cache.Cache
	sessions *session.Manager
	policy   *identity.Policy
	gateway  advisory.Gateway
	proofs   *objstore.Client // nil 表示未配置对象存储
	authCfg  auth.Config
	payment  payment.Details
	metrics  *Metrics
	logger   *logging.Logger
}

// NewHandler 创建 Handler 实例
func NewHandler(store *storage.Dual, c cache.Cache, policy *identity.Policy, gateway advisory.Gateway, proofs *objstore.Client, authCfg auth.Config, details payment.Details) *Handler {
	return &Handler{
		store:    store,
		cache:    c,
		sessions: session.NewManager(store, c, policy),
		policy:   policy,
		gateway:  gateway,
		proofs:   proofs,
		authCfg:  authCfg,
		payment:  details,
		metrics:  NewMetrics("victoria_bet"),
		logger:   logging.Default("api-server"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Health 服务健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
