// Package account 账户管理（管理员专属）：列表与审批
package account

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/shared/model"
	"victoria-bet/internal/shared/storage"
)

// Store 账户存储接口
type Store interface {
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error
}

// Handler 账户管理 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建账户管理处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册账户管理路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/accounts", auth.AdminOnly(h.List))
	mux.HandleFunc("POST /api/v1/accounts/{id}/approve", auth.AdminOnly(h.Approve))
}

// List 列出全部账户（创建时间倒序）
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		log.Printf("[account] list accounts: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// Approve 批准账户：激活并设置 7 天订阅有效期
// ID 与邮箱保持不变，仅状态标志与有效期变更
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "account id is required")
		return
	}

	// 持久层的部分更新对未知 id 是空操作，管理端提前校验存在性
	accounts, err := h.store.ListAccounts(r.Context())
	if err != nil {
		log.Printf("[account] approve lookup %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	found := false
	for _, a := range accounts {
		if a.ID == id {
			found = true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	now := time.Now()
	exp := now.Add(model.SubscriptionTTL)
	active := true
	pending := false
	patch := &model.AccountPatch{
		IsActive:          &active,
		IsPendingApproval: &pending,
		ExpirationDate:    &exp,
	}

	if err := h.store.UpdateAccount(r.Context(), id, patch); err != nil {
		if errors.Is(err, storage.ErrStorageFailure) {
			writeError(w, http.StatusBadGateway, "storage unavailable, please retry")
			return
		}
		log.Printf("[account] approve %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to approve account")
		return
	}

	log.Printf("[account] Approved: %s (expires %s)", id, exp.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":              id,
		"is_active":       true,
		"expiration_date": exp,
	})
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
