// Package advisory AI 咨询网关
//
// 对外只承诺"尽力而为"：任何失败都降级为固定回退值，
// 绝不向调用方抛错，也绝不阻塞账户状态流转。
package advisory

import "context"

// Analysis 比赛分析结果
type Analysis struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
}

// MatchResult 近期赛果
type MatchResult struct {
	League string `json:"league"`
	Match  string `json:"match"`
	Result string `json:"result"`
}

// ReceiptCheck 支付凭证结构化提取结果
// 字段缺失或 Erro 非空均视为"无法验证"，提交流程照常成功
type ReceiptCheck struct {
	Entidade   string `json:"entidade,omitempty"`
	Referencia string `json:"referencia,omitempty"`
	Valor      string `json:"valor,omitempty"`
	Erro       string `json:"erro,omitempty"`
}

// Validated 提取是否完整可信（仅供参考，从不作为审批依据）
func (r *ReceiptCheck) Validated() bool {
	return r != nil && r.Erro == "" && r.Entidade != "" && r.Referencia != "" && r.Valor != ""
}

// Gateway 咨询服务接口
type Gateway interface {
	// AnalyzeMatch 生成比赛分析；失败时返回固定回退文本和空来源
	AnalyzeMatch(ctx context.Context, match, league string) *Analysis

	// RecentResults 获取昨日赛果，至多 3 条；失败时返回固定回退集
	RecentResults(ctx context.Context) []MatchResult

	// ValidateReceipt 从凭证图片提取支付信息；失败时返回带 Erro 的结果
	ValidateReceipt(ctx context.Context, image []byte, mimeType string) *ReceiptCheck
}

// FallbackAnalysisText 分析不可用时的固定文案
const FallbackAnalysisText = "Erro ao carregar análise em tempo real. Por favor, tente novamente."

// FallbackAnalysis 分析回退值
func FallbackAnalysis() *Analysis {
	return &Analysis{Text: FallbackAnalysisText, Sources: []string{}}
}

// FallbackResults 赛果回退集
func FallbackResults() []MatchResult {
	return []MatchResult{
		{League: "La Liga", Match: "Barcelona vs Getafe", Result: "2-0"},
		{League: "Serie A", Match: "Inter vs Juventus", Result: "1-1"},
		{League: "Primeira Liga", Match: "Benfica vs Porto", Result: "1-0"},
	}
}
