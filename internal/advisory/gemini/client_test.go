package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"victoria-bet/internal/advisory"
)

// newTestServer 返回固定文本响应的模拟 Gemini 服务
func newTestServer(t *testing.T, text string, sources []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, ":generateContent")
		require.NotEmpty(t, r.URL.Query().Get("key"))

		var chunks []map[string]any
		for _, s := range sources {
			chunks = append(chunks, map[string]any{"web": map[string]any{"uri": s}})
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content":           map[string]any{"parts": []map[string]any{{"text": text}}},
				"groundingMetadata": map[string]any{"groundingChunks": chunks},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestAnalyzeMatch(t *testing.T) {
	t.Run("成功返回分析和来源", func(t *testing.T) {
		srv := newTestServer(t, "Qarabag em boa fase, vitória provável.", []string{"https://sofascore.com/x"})
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		analysis := c.AnalyzeMatch(context.Background(), "Qarabag vs Newcastle", "Champions League")

		require.NotNil(t, analysis)
		assert.Equal(t, "Qarabag em boa fase, vitória provável.", analysis.Text)
		assert.Equal(t, []string{"https://sofascore.com/x"}, analysis.Sources)
	})

	t.Run("未配置Key时返回回退文案", func(t *testing.T) {
		c := NewClient("", "")
		analysis := c.AnalyzeMatch(context.Background(), "A vs B", "Liga")

		require.NotNil(t, analysis)
		assert.Equal(t, advisory.FallbackAnalysisText, analysis.Text)
	})

	t.Run("服务端错误时返回回退文案", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		analysis := c.AnalyzeMatch(context.Background(), "A vs B", "Liga")

		require.NotNil(t, analysis)
		assert.Equal(t, advisory.FallbackAnalysisText, analysis.Text)
	})
}

func TestRecentResults(t *testing.T) {
	t.Run("解析三行赛果", func(t *testing.T) {
		text := "Champions League | Real Madrid vs PSG | 2-1\n" +
			"Premier League | Arsenal vs Chelsea | 0-0\n" +
			"La Liga | Sevilla vs Betis | 1-2\n"
		srv := newTestServer(t, text, nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		results := c.RecentResults(context.Background())

		require.Len(t, results, 3)
		assert.Equal(t, "Champions League", results[0].League)
		assert.Equal(t, "Real Madrid vs PSG", results[0].Match)
		assert.Equal(t, "2-1", results[0].Result)
		assert.Equal(t, "La Liga", results[2].League)
	})

	t.Run("无法解析时返回回退赛果", func(t *testing.T) {
		srv := newTestServer(t, "desculpe, não encontrei resultados", nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		results := c.RecentResults(context.Background())

		assert.Equal(t, advisory.FallbackResults(), results)
	})

	t.Run("未配置Key时返回回退赛果", func(t *testing.T) {
		c := NewClient("", "")
		assert.Equal(t, advisory.FallbackResults(), c.RecentResults(context.Background()))
	})
}

func TestParseResults(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"标准三行", "A | B vs C | 1-0\nD | E vs F | 2-2\nG | H vs I | 0-3", 3},
		{"超过三行只取前三", "A|B|1\nC|D|2\nE|F|3\nG|H|4", 3},
		{"混入说明文字", "Aqui estão os resultados:\nLa Liga | X vs Y | 1-1", 1},
		{"无分隔符", "nenhum jogo ontem", 0},
		{"空文本", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, parseResults(tt.text), tt.want)
		})
	}
}

func TestValidateReceipt(t *testing.T) {
	t.Run("解析结构化凭证JSON", func(t *testing.T) {
		payload := `{"entidade": "00940", "referencia": "942 117 828", "valor": "9.900 Kz"}`
		srv := newTestServer(t, payload, nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		check := c.ValidateReceipt(context.Background(), []byte{0x89, 0x50}, "image/png")

		require.NotNil(t, check)
		assert.True(t, check.Validated())
		assert.Equal(t, "00940", check.Entidade)
		assert.Equal(t, "942 117 828", check.Referencia)
		assert.Equal(t, "9.900 Kz", check.Valor)
	})

	t.Run("去除markdown代码块包裹", func(t *testing.T) {
		payload := "```json\n{\"entidade\": \"00940\", \"referencia\": \"1\", \"valor\": \"2\"}\n```"
		srv := newTestServer(t, payload, nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		check := c.ValidateReceipt(context.Background(), []byte("img"), "image/jpeg")

		require.NotNil(t, check)
		assert.True(t, check.Validated())
	})

	t.Run("模型报告不可读凭证", func(t *testing.T) {
		srv := newTestServer(t, `{"erro": "comprovativo ilegível"}`, nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		check := c.ValidateReceipt(context.Background(), []byte("img"), "")

		require.NotNil(t, check)
		assert.False(t, check.Validated())
		assert.Equal(t, "comprovativo ilegível", check.Erro)
	})

	t.Run("非JSON响应降级为未验证", func(t *testing.T) {
		srv := newTestServer(t, "não consigo processar", nil)
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		check := c.ValidateReceipt(context.Background(), []byte("img"), "image/png")

		require.NotNil(t, check)
		assert.False(t, check.Validated())
	})
}

func TestRequestShape(t *testing.T) {
	t.Run("分析请求携带搜索工具", func(t *testing.T) {
		var captured generateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
		}))
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		c.AnalyzeMatch(context.Background(), "A vs B", "Liga")

		require.Len(t, captured.Tools, 1)
		assert.NotNil(t, captured.Tools[0].GoogleSearch)
		require.NotNil(t, captured.GenerationConfig)
		assert.InDelta(t, 0.7, captured.GenerationConfig.Temperature, 0.001)
	})

	t.Run("凭证请求内联图片且要求JSON", func(t *testing.T) {
		var captured generateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`)
		}))
		defer srv.Close()

		c := NewClient("test-key", "", WithBaseURL(srv.URL))
		c.ValidateReceipt(context.Background(), []byte("img"), "image/png")

		require.Len(t, captured.Contents, 1)
		require.Len(t, captured.Contents[0].Parts, 2)
		require.NotNil(t, captured.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", captured.Contents[0].Parts[1].InlineData.MimeType)
		require.NotNil(t, captured.GenerationConfig)
		assert.Equal(t, "application/json", captured.GenerationConfig.ResponseMimeType)
		assert.Empty(t, captured.Tools)
	})
}
