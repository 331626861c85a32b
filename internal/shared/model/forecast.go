package model

import "time"

// RiskLevel 预测风险等级（统一使用葡语展示值）
type RiskLevel string

const (
	RiskLow    RiskLevel = "Baixo"
	RiskMedium RiskLevel = "Médio"
	RiskHigh   RiskLevel = "Alto"
)

// ValidRiskLevel 风险等级是否合法
func ValidRiskLevel(r RiskLevel) bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// ForecastResult 预测赛果
type ForecastResult string

const (
	ResultWin     ForecastResult = "Win"
	ResultLoss    ForecastResult = "Loss"
	ResultPending ForecastResult = "Pending"
)

// DashboardForecastLimit 普通用户仪表盘最多展示的预测条数
const DashboardForecastLimit = 4

// Forecast 预测（管理员发布的投注提示，全局共享，不归属任何用户）
type Forecast struct {
	ID          string         `json:"id" db:"id"`
	League      string         `json:"league" db:"league"`
	Match       string         `json:"match" db:"match"`
	Prediction  string         `json:"prediction" db:"prediction"`
	Probability int            `json:"probability" db:"probability"` // 0-100
	RiskLevel   RiskLevel      `json:"risk_level" db:"risk_level"`
	Analysis    string         `json:"analysis" db:"analysis"` // 创建时可为空，按需生成
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	Result      ForecastResult `json:"result,omitempty" db:"result"`
}

// ForecastPatch 预测部分更新
type ForecastPatch struct {
	League      *string         `json:"league,omitempty"`
	Match       *string         `json:"match,omitempty"`
	Prediction  *string         `json:"prediction,omitempty"`
	Probability *int            `json:"probability,omitempty"`
	RiskLevel   *RiskLevel      `json:"risk_level,omitempty"`
	Analysis    *string         `json:"analysis,omitempty"`
	Result      *ForecastResult `json:"result,omitempty"`
}

// IsEmpty 补丁是否为空
func (p *ForecastPatch) IsEmpty() bool {
	return p.League == nil && p.Match == nil && p.Prediction == nil &&
		p.Probability == nil && p.RiskLevel == nil && p.Analysis == nil && p.Result == nil
}

// Apply 将补丁合并到预测
func (p *ForecastPatch) Apply(f *Forecast) {
	if p.League != nil {
		f.League = *p.League
	}
	if p.Match != nil {
		f.Match = *p.Match
	}
	if p.Prediction != nil {
		f.Prediction = *p.Prediction
	}
	if p.Probability != nil {
		f.Probability = *p.Probability
	}
	if p.RiskLevel != nil {
		f.RiskLevel = *p.RiskLevel
	}
	if p.Analysis != nil {
		f.Analysis = *p.Analysis
	}
	if p.Result != nil {
		f.Result = *p.Result
	}
}
