package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"

	"victoria-bet/internal/shared/identity"
	"victoria-bet/internal/shared/model"
	"victoria-bet/internal/shared/storage"
)

// AccountRegistrar 账户注册接口
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, a *model.Account, rawPassword string) (*model.Account, error)
}

// SessionEstablisher 会话建立接口
type SessionEstablisher interface {
	Establish(ctx context.Context, a *model.Account) (*model.Account, model.View, error)
}

// Handler 认证 HTTP 处理器
type Handler struct {
	registrar AccountRegistrar
	chain     identity.Chain
	sessions  SessionEstablisher
	cfg       Config
}

// NewHandler 创建认证处理器
func NewHandler(registrar AccountRegistrar, chain identity.Chain, sessions SessionEstablisher, cfg Config) *Handler {
	return &Handler{registrar: registrar, chain: chain, sessions: sessions, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Account     *model.Account `json:"account"`
	View        model.View     `json:"view"`
	AccessToken string         `json:"access_token"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
// 新账户以非激活、非待审批状态创建，登录后进入支付视图
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FullName == "" || req.Email == "" || req.Phone == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "full_name, email, phone, password are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	account := &model.Account{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     model.AccountRoleUser,
	}

	created, err := h.registrar.RegisterAccount(r.Context(), account, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[auth.register] RegisterAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	current, view, err := h.sessions.Establish(r.Context(), created)
	if err != nil {
		log.Printf("[auth.register] Establish error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, current.ID, current.Email, string(current.Role))
	if err != nil {
		log.Printf("[auth.register] GenerateAccessToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] Account registered: %s (%s)", current.Email, current.ID)
	writeJSON(w, http.StatusCreated, authResponse{
		Account:     current,
		View:        view,
		AccessToken: accessToken,
	})
}

// Login 用户登录
// 认证链依次尝试：内置管理员凭据 → 持久层账户
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.chain.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Printf("[auth.login] Authenticate error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	current, view, err := h.sessions.Establish(r.Context(), account)
	if err != nil {
		log.Printf("[auth.login] Establish error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	accessToken, err := GenerateAccessToken(h.cfg, current.ID, current.Email, string(current.Role))
	if err != nil {
		log.Printf("[auth.login] GenerateAccessToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] Logged in: %s (%s)", current.Email, current.ID)
	writeJSON(w, http.StatusOK, authResponse{
		Account:     current,
		View:        view,
		AccessToken: accessToken,
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

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
