package http

import (
	gohttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/clamm-engine/internal/config"
	"github.com/hxuan190/clamm-engine/internal/decimal"
	"github.com/hxuan190/clamm-engine/internal/domain"
	"github.com/hxuan190/clamm-engine/internal/storage"
)

type fakeEngine struct {
	pools int
}

func (f *fakeEngine) Stats() storage.Stats {
	return storage.Stats{Pools: f.pools, Ticks: 4, Positions: 2, FeeTiers: 1}
}

func (f *fakeEngine) GetFeeTiers() []domain.FeeTier {
	return []domain.FeeTier{{Fee: decimal.NewPercentage(6_000_000_000), TickSpacing: 10}}
}

func (f *fakeEngine) GetProtocolFee() decimal.Percentage {
	return decimal.NewPercentage(10_000_000_000)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := &fakeEngine{pools: 3}
	svc := NewHTTPService(&config.GeneralConfig{HTTPHost: "localhost", HTTPPort: "0", Env: config.DevEnv}, engine)
	return svc.Router()
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(gohttp.MethodGet, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := get(r, "/health")
	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	get(r, "/api/v1/engine/stats")
	w = get(r, "/metrics")
	assert.Equal(t, gohttp.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `clamm_http_requests_total{method="GET",path="/api/v1/engine/stats",status="200"}`)
}

func TestStats(t *testing.T) {
	w := get(newTestRouter(t), "/api/v1/engine/stats")
	require.Equal(t, gohttp.StatusOK, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    StatsResponse `json:"data"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, StatsResponse{Pools: 3, Ticks: 4, Positions: 2, FeeTiers: 1, ProtocolFee: "0.01"}, resp.Data)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t)
	limited := 0
	for i := 0; i < 30; i++ {
		if get(r, "/api/v1/engine/fee-tiers").Code == gohttp.StatusTooManyRequests {
			limited++
		}
	}
	assert.Positive(t, limited)
	// health is outside the api group
	assert.Equal(t, gohttp.StatusOK, get(r, "/health").Code)
}
