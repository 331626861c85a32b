// Package forecast 预测：仪表盘列表、管理员 CRUD、按需 AI 分析、赛果与免费提示
package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"victoria-bet/internal/advisory"
	"victoria-bet/internal/apiserver/auth"
	"victoria-bet/internal/shared/cache"
	"victoria-bet/internal/shared/model"
	"victoria-bet/internal/shared/storage"
)

// Store 预测存储接口
type Store interface {
	ListForecasts(ctx context.Context) ([]*model.Forecast, error)
	CreateForecast(ctx context.Context, f *model.Forecast) error
	UpdateForecast(ctx context.Context, id string, patch *model.ForecastPatch) error
	DeleteForecast(ctx context.Context, id string) error
}

// SessionReader 会话恢复接口
type SessionReader interface {
	Restore(ctx context.Context, accountID string) (*model.Account, model.View, error)
}

// Handler 预测 HTTP 处理器
type Handler struct {
	store    Store
	sessions SessionReader
	analyses cache.AnalysisCache
	gateway  advisory.Gateway
}

// NewHandler 创建预测处理器
func NewHandler(store Store, sessions SessionReader, analyses cache.AnalysisCache, gateway advisory.Gateway) *Handler {
	return &Handler{store: store, sessions: sessions, analyses: analyses, gateway: gateway}
}

// RegisterRoutes 注册预测相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/forecasts", h.Dashboard)
	mux.HandleFunc("GET /api/v1/forecasts/all", auth.AdminOnly(h.ListAll))
	mux.HandleFunc("POST /api/v1/forecasts", auth.AdminOnly(h.Create))
	mux.HandleFunc("PATCH /api/v1/forecasts/{id}", auth.AdminOnly(h.Update))
	mux.HandleFunc("DELETE /api/v1/forecasts/{id}", auth.AdminOnly(h.Delete))
	mux.HandleFunc("GET /api/v1/forecasts/{id}/analysis", h.Analysis)
	mux.HandleFunc("GET /api/v1/results/yesterday", h.YesterdayResults)
	mux.HandleFunc("GET /api/v1/tips/free", h.FreeTips)
}

// requireSubscriber 校验当前会话是否可访问订阅内容
// 过期/被拒账户拒绝访问；待审批账户可见仪表盘内容
func (h *Handler) requireSubscriber(w http.ResponseWriter, r *http.Request) *model.Account {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	account, _, err := h.sessions.Restore(r.Context(), user.ID)
	if err != nil {
		log.Printf("[forecast] restore session for %s: %v", user.ID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return nil
	}
	if account.Status() == model.AccountStatusExpired {
		writeError(w, http.StatusForbidden, "subscription required")
		return nil
	}
	return account
}

// Dashboard 仪表盘预测列表（最新 4 条）
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if account := h.requireSubscriber(w, r); account == nil {
		return
	}

	forecasts, err := h.store.ListForecasts(r.Context())
	if err != nil {
		log.Printf("[forecast] list: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list forecasts")
		return
	}
	if len(forecasts) > model.DashboardForecastLimit {
		forecasts = forecasts[:model.DashboardForecastLimit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"forecasts": forecasts,
		"total":     len(forecasts),
	})
}

// ListAll 全部预测（管理员）
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.store.ListForecasts(r.Context())
	if err != nil {
		log.Printf("[forecast] list all: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list forecasts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"forecasts": forecasts,
		"total":     len(forecasts),
	})
}

type createForecastRequest struct {
	League      string          `json:"league"`
	Match       string          `json:"match"`
	Prediction  string          `json:"prediction"`
	Probability int             `json:"probability"`
	RiskLevel   model.RiskLevel `json:"risk_level"`
	Analysis    string          `json:"analysis"`
}

func (r *createForecastRequest) validate() string {
	if r.League == "" || r.Match == "" || r.Prediction == "" {
		return "league, match, prediction are required"
	}
	if r.Probability < 0 || r.Probability > 100 {
		return "probability must be between 0 and 100"
	}
	if !model.ValidRiskLevel(r.RiskLevel) {
		return "risk_level must be one of Baixo, Médio, Alto"
	}
	return ""
}

// Create 发布新预测（管理员）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	f := &model.Forecast{
		ID:          fmt.Sprintf("tip-%d", time.Now().UnixNano()),
		League:      req.League,
		Match:       req.Match,
		Prediction:  req.Prediction,
		Probability: req.Probability,
		RiskLevel:   req.RiskLevel,
		Analysis:    req.Analysis,
		CreatedAt:   time.Now(),
		Result:      model.ResultPending,
	}
	if err := h.store.CreateForecast(r.Context(), f); err != nil {
		if errors.Is(err, storage.ErrStorageFailure) {
			writeError(w, http.StatusBadGateway, "storage unavailable, please retry")
			return
		}
		log.Printf("[forecast] create: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create forecast")
		return
	}

	log.Printf("[forecast] Created: %s (%s)", f.ID, f.Match)
	writeJSON(w, http.StatusCreated, f)
}

// Update 更新预测（管理员）
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var patch model.ForecastPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "empty patch")
		return
	}
	if patch.Probability != nil && (*patch.Probability < 0 || *patch.Probability > 100) {
		writeError(w, http.StatusBadRequest, "probability must be between 0 and 100")
		return
	}
	if patch.RiskLevel != nil && !model.ValidRiskLevel(*patch.RiskLevel) {
		writeError(w, http.StatusBadRequest, "risk_level must be one of Baixo, Médio, Alto")
		return
	}

	if err := h.store.UpdateForecast(r.Context(), id, &patch); err != nil {
		if errors.Is(err, storage.ErrStorageFailure) {
			writeError(w, http.StatusBadGateway, "storage unavailable, please retry")
			return
		}
		log.Printf("[forecast] update %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to update forecast")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "updated"})
}

// Delete 删除预测（管理员）
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteForecast(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrStorageFailure) {
			writeError(w, http.StatusBadGateway, "storage unavailable, please retry")
			return
		}
		log.Printf("[forecast] delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete forecast")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analysis 按需生成预测分析（带缓存）
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	if account := h.requireSubscriber(w, r); account == nil {
		return
	}
	id := r.PathValue("id")

	if text, sources, ok := h.analyses.LoadAnalysis(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, advisory.Analysis{Text: text, Sources: sources})
		return
	}

	f, err := h.findForecast(r.Context(), id)
	if err != nil {
		log.Printf("[forecast] analysis lookup %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "forecast not found")
		return
	}

	analysis := h.gateway.AnalyzeMatch(r.Context(), f.Match, f.League)
	// 回退文案不入缓存，网关恢复后下次请求可重新生成
	if analysis.Text != advisory.FallbackAnalysisText {
		if err := h.analyses.SaveAnalysis(r.Context(), id, analysis.Text, analysis.Sources); err != nil {
			log.Printf("[forecast] cache analysis %s: %v", id, err)
		}
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *Handler) findForecast(ctx context.Context, id string) (*model.Forecast, error) {
	forecasts, err := h.store.ListForecasts(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range forecasts {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

// YesterdayResults 昨日赛果
func (h *Handler) YesterdayResults(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	results := h.gateway.RecentResults(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// freeTips 登录页展示的免费提示（固定内容，无需认证）
var freeTips = []model.Forecast{
	{ID: "free-01", League: "Champions League", Match: "Bayern Munique vs PSG", Prediction: "Vitória Casa", Probability: 75, RiskLevel: model.RiskMedium},
	{ID: "free-02", League: "La Liga", Match: "Barcelona vs Atl. Madrid", Prediction: "Ambas Marcam", Probability: 82, RiskLevel: model.RiskLow},
	{ID: "free-03", League: "Premier League", Match: "Liverpool vs Man. United", Prediction: "Mais 2.5 Golos", Probability: 78, RiskLevel: model.RiskMedium},
}

// FreeTips 免费提示（公开路由）
func (h *Handler) FreeTips(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tips":  freeTips,
		"total": len(freeTips),
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
