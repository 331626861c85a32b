package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/api/v1/accounts/usr-123/approve", "/api/v1/accounts/{id}/approve"},
		{"/api/v1/forecasts/tip-42/analysis", "/api/v1/forecasts/{id}/analysis"},
		{"/api/v1/forecasts/tip-42", "/api/v1/forecasts/{id}"},
		{"/api/v1/forecasts/all", "/api/v1/forecasts/all"},
		{"/api/v1/forecasts", "/api/v1/forecasts"},
		{"/api/v1/auth/login", "/api/v1/auth/login"},
		{"/health", "/health"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizePath(tc.in), tc.in)
	}
}

// promauto 注册到全局 registry，整个测试二进制只能创建一次
var testMetrics = NewMetrics("victoria_bet_test")

func TestMetricsMiddleware(t *testing.T) {
	handler := testMetrics.MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/login" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))

	do := func(method, path string) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	}

	before := testutil.ToFloat64(testMetrics.LoginsTotal)
	do(http.MethodPost, "/api/v1/auth/login")
	do(http.MethodPost, "/api/v1/auth/login")
	assert.Equal(t, before+2, testutil.ToFloat64(testMetrics.LoginsTotal))

	// 失败请求不计入业务计数器
	beforeProofs := testutil.ToFloat64(testMetrics.ProofSubmissionsTotal)
	do(http.MethodPost, "/api/v1/payments/proof")
	assert.Equal(t, beforeProofs, testutil.ToFloat64(testMetrics.ProofSubmissionsTotal))

	require.Zero(t, testutil.ToFloat64(testMetrics.HTTPRequestsInFlight))
}

func TestRecordBusiness(t *testing.T) {
	before := testutil.ToFloat64(testMetrics.ApprovalsTotal)
	testMetrics.recordBusiness(http.MethodPost, "/api/v1/accounts/usr-1/approve", http.StatusOK)
	testMetrics.recordBusiness(http.MethodPost, "/api/v1/accounts/usr-1/approve", http.StatusBadGateway)
	testMetrics.recordBusiness(http.MethodGet, "/api/v1/accounts/usr-1/approve", http.StatusOK)
	assert.Equal(t, before+1, testutil.ToFloat64(testMetrics.ApprovalsTotal))
}
