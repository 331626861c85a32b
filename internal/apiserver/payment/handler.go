// Package payment 支付：收款信息查询与支付凭证提交
package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"victoria-bet/internal/advisory"
	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/shared/model"
	"victoria-bet/internal/shared/storage"
)

// 凭证自动核验预算：超时按"未核验"继续，不阻塞提交
const receiptCheckTimeout = 20 * time.Second

// Details Multicaixa Express 收款信息
type Details struct {
	Entidade   string `json:"entidade"`
	Referencia string `json:"referencia"`
	Valor      string `json:"valor"`
}

// AccountUpdater 账户持久化更新接口
type AccountUpdater interface {
	UpdateAccount(ctx context.Context, id string, patch *model.AccountPatch) error
}

// SessionManager 会话读写接口
type SessionManager interface {
	Restore(ctx context.Context, accountID string) (*model.Account, model.View, error)
	Establish(ctx context.Context, a *model.Account) (*model.Account, model.View, error)
}

// ProofStore 凭证图片对象存储接口
type ProofStore interface {
	UploadProof(ctx context.Context, accountID string, image []byte, contentType string) (string, error)
}

// Handler 支付 HTTP 处理器
type Handler struct {
	store    AccountUpdater
	sessions SessionManager
	proofs   ProofStore // nil 表示未配置对象存储，凭证内联存库
	gateway  advisory.Gateway
	details  Details
}

// NewHandler 创建支付处理器
func NewHandler(store AccountUpdater, sessions SessionManager, proofs ProofStore, gateway advisory.Gateway, details Details) *Handler {
	return &Handler{store: store, sessions: sessions, proofs: proofs, gateway: gateway, details: details}
}

// RegisterRoutes 注册支付相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/payments/details", h.Details)
	mux.HandleFunc("POST /api/v1/payments/proof", h.SubmitProof)
}

type submitProofRequest struct {
	Image string `json:"image"` // data URL 或纯 base64
}

type submitProofResponse struct {
	Account      *model.Account         `json:"account"`
	View         model.View             `json:"view"`
	ReceiptCheck *advisory.ReceiptCheck `json:"receipt_check,omitempty"`
}

// Details 返回收款信息（公开路由，支付页直接展示）
func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.details)
}

// SubmitProof 提交支付凭证
//
// 凭证核验尽力而为：AI 不可用时按未核验提交，绝不阻断用户。
// 持久化失败时返回 502 且不更新会话，账户状态保持原样。
func (h *Handler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, _, err := h.sessions.Restore(r.Context(), user.ID)
	if err != nil {
		log.Printf("[payment] restore session for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return
	}

	var req submitProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}

	image, contentType, err := decodeImage(req.Image)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image encoding")
		return
	}

	// AI 核验（尽力而为）
	checkCtx, cancel := context.WithTimeout(r.Context(), receiptCheckTimeout)
	check := h.gateway.ValidateReceipt(checkCtx, image, contentType)
	cancel()

	// 凭证落地：对象存储优先，未配置时内联
	proofRef := req.Image
	if h.proofs != nil {
		key, err := h.proofs.UploadProof(r.Context(), account.ID, image, contentType)
		if err != nil {
			log.Printf("[payment] upload proof for %s: %v", account.ID, err)
		} else {
			proofRef = key
		}
	}

	updated := account.Clone()
	updated.SubmitProof(proofRef, check.Validated())

	patch := &model.AccountPatch{
		IsActive:          &updated.IsActive,
		IsPendingApproval: &updated.IsPendingApproval,
		PaymentProof:      &updated.PaymentProof,
		AIValidated:       &updated.AIValidated,
	}
	if err := h.store.UpdateAccount(r.Context(), account.ID, patch); err != nil {
		if errors.Is(err, storage.ErrStorageFailure) {
			writeError(w, http.StatusBadGateway, "storage unavailable, please retry")
			return
		}
		log.Printf("[payment] update account %s: %v", account.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to submit proof")
		return
	}

	current, view, err := h.sessions.Establish(r.Context(), updated)
	if err != nil {
		log.Printf("[payment] establish session for %s: %v", account.ID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[payment] Proof submitted: %s (ai_validated=%v)", account.ID, check.Validated())
	writeJSON(w, http.StatusOK, submitProofResponse{
		Account:      current,
		View:         view,
		ReceiptCheck: check,
	})
}

// decodeImage 解析 data URL（或纯 base64）为字节和 MIME 类型
func decodeImage(s string) ([]byte, string, error) {
	contentType := "image/png"
	payload := s
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, "", errors.New("malformed data URL")
		}
		header := s[len("data:"):idx]
		payload = s[idx+1:]
		if mime, _, ok := strings.Cut(header, ";"); ok && mime != "" {
			contentType = mime
		} else if header != "" {
			contentType = header
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
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
