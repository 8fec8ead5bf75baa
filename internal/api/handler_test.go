package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayo6706/hufflepay/internal/api"
	"github.com/ayo6706/hufflepay/internal/api/middleware"
	"github.com/ayo6706/hufflepay/internal/config"
	"github.com/ayo6706/hufflepay/internal/gateway"
	"github.com/ayo6706/hufflepay/internal/ledger"
	"github.com/ayo6706/hufflepay/internal/registry"
	"github.com/ayo6706/hufflepay/internal/service"
)

const (
	testJWTSecret   = "test-secret-0123456789-test-secret"
	testJWTIssuer   = "hufflepay-test"
	testJWTAudience = "hufflepay-api-test"
)

type testServer struct {
	handler http.Handler
	edge    *gateway.Simulated
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	middleware.SetJWTSecret(testJWTSecret)
	middleware.SetJWTValidation(testJWTIssuer, testJWTAudience)

	logger := zap.NewNop()
	led := ledger.New(nil, logger)
	assets := service.NewAssetService(led, logger)
	require.NoError(t, assets.InitializeDefaults())

	alice := gateway.NewSimulated("alice", "localhost:8081", logger)
	bob := gateway.NewSimulated("bob", "localhost:8082", logger)
	edge := gateway.NewSimulated("edge", "localhost:8083", logger)
	nodes := map[string]gateway.Node{"alice": alice, "bob": bob, "edge": edge}

	swaps := service.NewSwapService(registry.New(), led, service.NewStaticExchangeRateService(nil),
		edge, bob, decimal.RequireFromString("0.5"), logger)

	cfg := &config.Config{
		PublicRateLimitRPS: 1000,
		AdminRateLimitRPS:  1000,
	}

	router := api.NewRouter(cfg, logger, swaps, assets, nodes, led, nil, nil)
	return &testServer{handler: router.Routes(), edge: edge}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  "ops-admin",
		"role": "admin",
		"iss":  testJWTIssuer,
		"aud":  testJWTAudience,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestSwapLifecycleHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "100",
		"source_currency": "USD",
		"target_currency": "EUR",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var initResp struct {
		SwapID          string `json:"swap_id"`
		ExchangeDetails struct {
			FinalAmount decimal.Decimal `json:"final_amount"`
		} `json:"exchange_details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))
	require.NotEmpty(t, initResp.SwapID)
	assert.True(t, decimal.RequireFromString("90.545").Equal(initResp.ExchangeDetails.FinalAmount))

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/swaps/%s/execute", initResp.SwapID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var execResp struct {
		Success bool `json:"success"`
		Swap    struct {
			Status string `json:"status"`
		} `json:"swap"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execResp))
	assert.True(t, execResp.Success)
	assert.Equal(t, "completed", execResp.Swap.Status)

	rec = ts.do(t, http.MethodGet, "/v1/swaps/"+initResp.SwapID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/swaps", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, 1, listResp.Count)
}

func TestSwapPaymentFailureHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "100",
		"source_currency": "USD",
		"target_currency": "EUR",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var initResp struct {
		SwapID string `json:"swap_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))

	ts.edge.FailureRate = 1.0

	// A compensated payment failure is a business outcome, not an HTTP
	// error.
	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/swaps/%s/execute", initResp.SwapID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var execResp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Swap    struct {
			Status string `json:"status"`
		} `json:"swap"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &execResp))
	assert.False(t, execResp.Success)
	assert.Equal(t, "failed", execResp.Swap.Status)
	assert.NotEmpty(t, execResp.Error)
}

func TestSwapValidationHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "0",
		"source_currency": "USD",
		"target_currency": "EUR",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "100",
		"source_currency": "USD",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "100",
		"source_currency": "USD",
		"target_currency": "XYZ",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/swaps/swap_missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/swaps/swap_missing/execute", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteSwapConflictHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/swaps", map[string]interface{}{
		"amount":          "50",
		"source_currency": "USD",
		"target_currency": "EUR",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var initResp struct {
		SwapID string `json:"swap_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &initResp))

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/swaps/%s/execute", initResp.SwapID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/v1/swaps/%s/execute", initResp.SwapID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminAssetsHTTP(t *testing.T) {
	ts := newTestServer(t)

	// Unauthenticated and non-admin access is rejected.
	rec := ts.do(t, http.MethodGet, "/v1/admin/assets/alice", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	claims := jwt.MapClaims{
		"sub":  "viewer",
		"role": "viewer",
		"iss":  testJWTIssuer,
		"aud":  testJWTAudience,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	viewer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	rec = ts.do(t, http.MethodGet, "/v1/admin/assets/alice", nil, map[string]string{"Authorization": "Bearer " + viewer})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	auth := map[string]string{"Authorization": adminToken(t)}

	rec = ts.do(t, http.MethodPost, "/v1/admin/assets/mint", map[string]interface{}{
		"party":  "alice",
		"asset":  "GBP",
		"amount": "500",
	}, auth)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/v1/admin/assets/alice", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	var assetsResp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assetsResp))
	assert.Equal(t, 2, assetsResp.Count)

	rec = ts.do(t, http.MethodPost, "/v1/admin/assets/mint", map[string]interface{}{
		"party":  "mallory",
		"asset":  "USD",
		"amount": "1",
	}, auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/admin/assets/init", nil, auth)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNodeEndpointsHTTP(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/nodes/edge/info", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info struct {
		Alias string `json:"alias"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.NotEmpty(t, info.Alias)

	rec = ts.do(t, http.MethodGet, "/v1/nodes/carol/info", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/nodes/bob/invoices", map[string]interface{}{
		"amount":      "25",
		"description": "coffee",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var invoice struct {
		PaymentRequest string `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoice))
	assert.NotEmpty(t, invoice.PaymentRequest)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
