// Package gemini Gemini REST 客户端，实现 advisory.Gateway
//
// 直接调用 generativelanguage REST 接口（generateContent），
// 不依赖 SDK。未配置 API Key 时所有调用立即返回回退值。
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"victoria-bet/internal/advisory"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"

	maxResponseBytes = 1 << 20 // 1 MiB
)

// Client Gemini REST 客户端
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ advisory.Gateway = (*Client)(nil)

// Option 客户端选项
type Option func(*Client)

// WithBaseURL 覆盖接口地址（测试用）
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient 覆盖 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient 创建客户端；apiKey 为空时进入纯回退模式
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = defaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ============================================================================
// 请求/响应类型（REST 线格式）
// ============================================================================

type generateRequest struct {
	Contents         []content       `json:"contents"`
	Tools            []tool          `json:"tools,omitempty"`
	GenerationConfig *generateConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type generateConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"response_mime_type,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata struct {
			GroundingChunks []struct {
				Web struct {
					URI string `json:"uri"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

// generate 执行一次 generateContent 调用，返回文本和接地来源
func (c *Client) generate(ctx context.Context, req *generateRequest) (string, []string, error) {
	if c.apiKey == "" {
		return "", nil, fmt.Errorf("gemini api key not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", nil, fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", nil, fmt.Errorf("empty candidates")
	}

	var text strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var sources []string
	for _, chunk := range gr.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web.URI != "" {
			sources = append(sources, chunk.Web.URI)
		}
	}
	return text.String(), sources, nil
}

// ============================================================================
// advisory.Gateway 实现
// ============================================================================

// AnalyzeMatch 生成比赛分析
func (c *Client) AnalyzeMatch(ctx context.Context, match, league string) *advisory.Analysis {
	prompt := fmt.Sprintf("Forneça uma análise estatística curta e profissional (máximo 300 caracteres) "+
		"para o jogo %s da liga %s. Foco em tendências recentes e probabilidade de vitória. "+
		"Responda em Português.", match, league)

	text, sources, err := c.generate(ctx, &generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		Tools:            []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: &generateConfig{Temperature: 0.7},
	})
	if err != nil {
		log.Printf("[advisory] AnalyzeMatch failed for %q: %v", match, err)
		return advisory.FallbackAnalysis()
	}
	if text == "" {
		text = "Análise indisponível no momento."
	}
	if sources == nil {
		sources = []string{}
	}
	return &advisory.Analysis{Text: text, Sources: sources}
}

// RecentResults 获取昨日赛果
// 要求模型按 "Liga | Jogo | Resultado" 严格格式返回，至多取 3 行
func (c *Client) RecentResults(ctx context.Context) []advisory.MatchResult {
	dateStr := time.Now().AddDate(0, 0, -1).Format("02/01/2006")
	prompt := fmt.Sprintf("Pesquise no SofaScore ou sites similares os resultados dos jogos de futebol "+
		"mais importantes que ocorreram ontem (%s). "+
		"Escolha 3 jogos de ligas principais (como Champions League, Premier League, La Liga, etc). "+
		"Retorne os dados no seguinte formato estrito para processamento: "+
		"Liga | Equipa A vs Equipa B | Resultado Final. "+
		"Exemplo: Champions League | Real Madrid vs PSG | 2-1. "+
		"Retorne apenas as 3 linhas, sem texto adicional.", dateStr)

	// 低温度保持严格格式
	text, _, err := c.generate(ctx, &generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		Tools:            []tool{{GoogleSearch: &struct{}{}}},
		GenerationConfig: &generateConfig{Temperature: 0.2},
	})
	if err != nil {
		log.Printf("[advisory] RecentResults failed: %v", err)
		return advisory.FallbackResults()
	}

	results := parseResults(text)
	if len(results) == 0 {
		log.Printf("[advisory] RecentResults: unparsable response, using fallback")
		return advisory.FallbackResults()
	}
	return results
}

// parseResults 解析 "Liga | Jogo | Resultado" 行
func parseResults(text string) []advisory.MatchResult {
	var results []advisory.MatchResult
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		r := advisory.MatchResult{League: "Internacional", Match: "Jogo Finalizado", Result: "Vencedora"}
		if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
			r.League = strings.TrimSpace(parts[0])
		}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			r.Match = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			r.Result = strings.TrimSpace(parts[2])
		}
		results = append(results, r)
		if len(results) == 3 {
			break
		}
	}
	return results
}

// ValidateReceipt 从凭证图片提取支付信息
func (c *Client) ValidateReceipt(ctx context.Context, image []byte, mimeType string) *advisory.ReceiptCheck {
	if mimeType == "" {
		mimeType = "image/png"
	}
	prompt := "Extraia desta imagem de comprovativo de pagamento Multicaixa Express os campos " +
		`"entidade", "referencia" e "valor". Responda apenas com JSON. ` +
		`Se a imagem não for um comprovativo legível, responda {"erro": "comprovativo ilegível"}.`

	text, _, err := c.generate(ctx, &generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
		}}},
		GenerationConfig: &generateConfig{Temperature: 0, ResponseMimeType: "application/json"},
	})
	if err != nil {
		log.Printf("[advisory] ValidateReceipt failed: %v", err)
		return &advisory.ReceiptCheck{Erro: "validação automática indisponível"}
	}

	var check advisory.ReceiptCheck
	if err := json.Unmarshal([]byte(stripFences(text)), &check); err != nil {
		log.Printf("[advisory] ValidateReceipt: unparsable response: %v", err)
		return &advisory.ReceiptCheck{Erro: "resposta não estruturada"}
	}
	return &check
}

// stripFences 去除模型偶尔包裹的 markdown 代码块
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
