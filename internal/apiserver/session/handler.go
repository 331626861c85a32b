package session

import (
	"encoding/json"
	"log"
	"net/http"

	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/shared/model"
)

// Handler 会话 HTTP 处理器
type Handler struct {
	mgr *Manager
}

// NewHandler 创建会话处理器
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// RegisterRoutes 注册会话相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/session", h.Current)
	mux.HandleFunc("DELETE /api/v1/session", h.Logout)
}

type sessionResponse struct {
	Account *model.Account `json:"account"`
	View    model.View     `json:"view"`
}

// Current 恢复当前会话
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, view, err := h.mgr.Restore(r.Context(), user.ID)
	if err != nil {
		log.Printf("[session] restore for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to restore session")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Account: account, View: view})
}

// Logout 注销当前会话
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.mgr.Clear(r.Context(), user.ID); err != nil {
		log.Printf("[session] clear for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	log.Printf("[session] Logged out: %s", user.ID)
	writeJSON(w, http.StatusOK, sessionResponse{Account: nil, View: model.ViewWelcome})
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
