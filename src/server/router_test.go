package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfoliotracker/src/autoportfolio"
	"portfoliotracker/src/cache"
	"portfoliotracker/src/database"
	"portfoliotracker/src/model"
	"portfoliotracker/src/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type app struct {
	db      *gorm.DB
	handler http.Handler
}

func newApp(t *testing.T) *app {
	db := newTestDB(t)
	cfg := &Config{Port: "0", CORSAllowedOrigins: []string{"*"}, RankDefaultLimit: 70, RequestTimeout: 5 * time.Second}
	autoCfg := autoportfolio.Config{Investment: 10, PositionsPerType: 5, Window: 4 * time.Hour}

	deps := Wire(RepositoriesWithDB(db, db), nil, cache.Config{TTL: time.Minute}, autoCfg)
	return &app{db: db, handler: NewRouter(cfg, deps)}
}

func (a *app) do(t *testing.T, method, target, body string, setup ...func(*http.Request)) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, fn := range setup {
		fn(req)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var out map[string]interface{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr.Code, out
}

func (a *app) seedPrice(t *testing.T, symbol, price, pct string, at time.Time) {
	t.Helper()
	require.NoError(t, a.db.Create(&model.FuturesPrice{
		Symbol:             symbol,
		Price:              decimal.RequireFromString(price),
		PriceChangePercent: decimal.RequireFromString(pct),
		Timestamp:          at.UTC().Truncate(time.Minute),
	}).Error)
}

func TestRouter_Healthcheck(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())
}

func TestRouter_PortfolioLifecycle(t *testing.T) {
	a := newApp(t)
	a.seedPrice(t, "BTC_USDT", "110", "0", time.Now().Add(-time.Hour))
	a.seedPrice(t, "ETH_USDT", "90", "0", time.Now().Add(-time.Hour))

	code, out := a.do(t, http.MethodPost, "/api/portfolio/1", `{"portfolio":[
		{"symbol":"BTC_USDT","position":"long","entry_price":100,"quantity":2},
		{"symbol":"ETH_USDT","position":"short","entry_price":100,"quantity":2}
	]}`)
	require.Equal(t, http.StatusOK, code, out)

	code, out = a.do(t, http.MethodGet, "/api/portfolio/analyze/1", "")
	require.Equal(t, http.StatusOK, code, out)
	summary := out["summary"].(map[string]interface{})
	assert.Equal(t, 40.0, summary["total_pnl"])
	assert.Equal(t, 10.0, summary["total_pnl_percent"])
	assert.Equal(t, "OK", summary["verification"].(map[string]interface{})["status"])

	code, out = a.do(t, http.MethodPost, "/api/portfolio/1/add_to_main", `{"symbol":"xrp_usdt","position":"long","entry_price":"0.5"}`)
	require.Equal(t, http.StatusOK, code, out)

	code, out = a.do(t, http.MethodGet, "/api/portfolio/rank/1?limit=1", "")
	require.Equal(t, http.StatusOK, code, out)
	assert.Len(t, out["portfolio"], 1)
	summary = out["summary"].(map[string]interface{})
	assert.Equal(t, 3.0, summary["total_positions"])
	assert.Equal(t, 2.0, summary["valid_positions"])

	code, out = a.do(t, http.MethodPost, "/api/portfolio/1/copy_to_device", `{"source_portfolio":"Main","copy_type":"kcex_only"}`)
	require.Equal(t, http.StatusOK, code, out)

	code, out = a.do(t, http.MethodGet, "/api/user/portfolios/1", "")
	require.Equal(t, http.StatusOK, code)
	portfolios := out["portfolios"].([]interface{})
	require.Len(t, portfolios, 2)
	assert.Equal(t, "Main", portfolios[0].(map[string]interface{})["portfolio_name"])

	code, _ = a.do(t, http.MethodDelete, "/api/portfolio/1?portfolio_name=Main", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodDelete, "/api/portfolio/1?portfolio_name=Arduino", "")
	assert.Equal(t, http.StatusOK, code)

	code, out = a.do(t, http.MethodGet, "/api/kcex/check/btc_usdt", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["in_kcex"])
}

func TestRouter_DevicePortfolioRequiresBasicAuth(t *testing.T) {
	a := newApp(t)
	users := repository.NewUserRepositoryWithDB(a.db)
	_, err := users.CreateUser(context.Background(), "esp", "secret", "esp@example.com")
	require.NoError(t, err)

	code, _ := a.do(t, http.MethodGet, "/api/device/portfolio/esp", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out := a.do(t, http.MethodGet, "/api/device/portfolio/esp", "", func(r *http.Request) {
		r.SetBasicAuth("esp", "secret")
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	assert.Empty(t, out["portfolio"])
}

func TestRouter_AutoPortfolio(t *testing.T) {
	a := newApp(t)
	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		sym := fmt.Sprintf("S%02d_USDT", i)
		a.seedPrice(t, sym, fmt.Sprintf("%d", 100+i), fmt.Sprintf("%d", i-6), now.Add(-2*time.Hour))
	}

	code, out := a.do(t, http.MethodPost, "/api/auto-portfolio/create", `{"user_id":1,"portfolio_name":"momentum"}`)
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, 10.0, out["total_positions"])
	assert.Equal(t, 5.0, out["long_count"])
	assert.Equal(t, 12.0, out["records_processed"])

	code, out = a.do(t, http.MethodGet, "/api/portfolio/1?portfolio_name=momentum", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["portfolio"], 10)

	code, _ = a.do(t, http.MethodPost, "/api/auto-portfolio/create", `{"user_id":1,"positions_per_type":200}`)
	assert.Equal(t, http.StatusBadRequest, code)
}
