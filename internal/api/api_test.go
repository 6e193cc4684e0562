package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MarketDashboard/internal/cache"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/offline"
	"MarketDashboard/internal/optimizer"
	"MarketDashboard/internal/session"
)

// MockDataSource implements DataSource for testing
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) ListUniverse(ctx context.Context) []model.CompanyRecord {
	args := m.Called(ctx)
	return args.Get(0).([]model.CompanyRecord)
}

func (m *MockDataSource) Snapshot(ctx context.Context, symbols []string) ([]model.QuoteSnapshot, error) {
	args := m.Called(ctx, symbols)
	return args.Get(0).([]model.QuoteSnapshot), args.Error(1)
}

func (m *MockDataSource) MarketOverview(ctx context.Context) ([]model.QuoteSnapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.QuoteSnapshot), args.Error(1)
}

func (m *MockDataSource) Historical(ctx context.Context, symbols []string, period model.Period) ([]model.HistoricalBar, error) {
	args := m.Called(ctx, symbols, period)
	return args.Get(0).([]model.HistoricalBar), args.Error(1)
}

func (m *MockDataSource) CompanyInfo(ctx context.Context, symbol string) (*model.CompanyInfo, error) {
	args := m.Called(ctx, symbol)
	return args.Get(0).(*model.CompanyInfo), args.Error(1)
}

type testEnv struct {
	handler *Handler
	router  *gin.Engine
	data    *MockDataSource
	store   *offline.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	c, err := cache.NewManager(filepath.Join(dir, "cache"), nil)
	require.NoError(t, err)
	store, err := offline.NewStore(filepath.Join(dir, "offline"), 0)
	require.NoError(t, err)

	data := &MockDataSource{}
	h := NewHandler(data, c, session.NewStore(0), offline.NewManager(store, nil, nil, nil), nil)
	h.search = optimizer.NewDebouncer(time.Millisecond)
	return &testEnv{handler: h, router: h.SetupRoutes(), data: data, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(w.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func (e *testEnv) newSession(t *testing.T, symbols ...string) *session.Session {
	t.Helper()
	sess := e.handler.sessions.Create()
	sess.SetSelected(symbols)
	return sess
}

func testQuotes() []model.QuoteSnapshot {
	return []model.QuoteSnapshot{
		{Symbol: "AAPL", Company: "Apple Inc.", CurrentPrice: 190, DailyChange: 2, DailyChangePct: 1.06, Volume: 50_000_000,
			MarketCap: 2.9e12, PERatio: null.FloatFrom(29), Sector: "Technology"},
		{Symbol: "MSFT", Company: "Microsoft Corporation", CurrentPrice: 410, DailyChange: -3, DailyChangePct: -0.73, Volume: 20_000_000,
			MarketCap: 3.1e12, Sector: "Technology"},
	}
}

func testBars(symbols ...string) []model.HistoricalBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []model.HistoricalBar
	for _, s := range symbols {
		for i := 0; i < 30; i++ {
			c := 100 + float64(i)
			out = append(out, model.HistoricalBar{Symbol: s, Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000})
		}
	}
	return out
}

func notices(body map[string]any) []map[string]any {
	raw, _ := body["notices"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, n := range raw {
		out = append(out, n.(map[string]any))
	}
	return out
}

func TestSetupRoutes(t *testing.T) {
	env := setupTestEnv(t)
	routes := env.router.Routes()
	assert.GreaterOrEqual(t, len(routes), 19)

	found := false
	for _, r := range routes {
		if r.Path == "/api/sessions/:id/historical" && r.Method == http.MethodGet {
			found = true
		}
	}
	assert.True(t, found, "historical endpoint should be registered")
}

func TestHealthCheckAndRequestID(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeaderKey, "abc-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeaderKey))

	w, body := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, ServiceName, body["service"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeaderKey))
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestEnv(t)
	w, _ := env.do(t, http.MethodOptions, "/api/universe", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestSessionLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	w, body := env.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	w, body = env.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(session.DefaultDisplayCount), body["display_count"])

	w, body = env.do(t, http.MethodGet, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "session not found", body["error"])
}

func TestSelectionAndPresets(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t)
	base := "/api/sessions/" + sess.ID

	w, _ := env.do(t, http.MethodPut, base+"/selection", `{"symbols":["xom"," brk.b "]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"XOM", "BRK-B"}, sess.Selected())

	w, _ = env.do(t, http.MethodPost, base+"/presets/tech_giants", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := sess.Selected()
	assert.Len(t, got, 8)
	assert.Equal(t, "XOM", got[0])

	w, _ = env.do(t, http.MethodPost, base+"/presets/tech_giants", "")
	assert.Len(t, sess.Selected(), 8, "applying a preset twice must not duplicate symbols")

	w, _ = env.do(t, http.MethodPost, base+"/presets/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPut, base+"/selection", `{"symbols":["NOT A TICKER!"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectedCompaniesEmptySelection(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t)

	w, body := env.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/companies", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["total"])
	env.data.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything)
}

func TestSelectedCompaniesLive(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t, "AAPL", "MSFT")
	env.data.On("Snapshot", mock.Anything, []string{"AAPL", "MSFT"}).Return(testQuotes(), nil).Once()

	w, body := env.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/companies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(offline.SourceLive), body["source"])
	assert.Equal(t, float64(2), body["total"])
	assert.Contains(t, body, "analytics")

	rows := body["data"].([]any)
	first := rows[0].(map[string]any)
	assert.Equal(t, "AAPL", first["symbol"])
	assert.Equal(t, "$190.00", first["price_display"])
	assert.Equal(t, "+1.06%", first["change_display"])

	quality := body["quality"].(map[string]any)
	assert.Equal(t, true, quality["is_valid"])

	assert.True(t, env.store.Has(KeySelectedCompanies), "live result should be snapshotted")
	env.data.AssertExpectations(t)
}

func TestSelectedCompaniesFallsBackToSnapshot(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.store.Save(KeySelectedCompanies, model.QuotesPayload(testQuotes())))
	sess := env.newSession(t, "AAPL")
	env.data.On("Snapshot", mock.Anything, []string{"AAPL"}).
		Return([]model.QuoteSnapshot(nil), collector.ErrNoData).Once()

	w, body := env.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/companies", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(offline.SourceSnapshot), body["source"])
	assert.Equal(t, float64(2), body["total"])

	ns := notices(body)
	require.Len(t, ns, 2)
	assert.Equal(t, session.LevelError, ns[0]["level"])
	assert.Contains(t, ns[1]["message"], "offline data")
}

func TestSelectedCompaniesFailureOffersRecovery(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t, "AAPL")
	env.data.On("Snapshot", mock.Anything, []string{"AAPL"}).
		Return([]model.QuoteSnapshot(nil), errors.New("provider down")).Once()

	w, body := env.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/companies", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(offline.SourceNone), body["source"])

	ns := notices(body)
	require.Len(t, ns, 2)
	assert.ElementsMatch(t, []any{"retry", "offline", "reset"}, ns[1]["recovery"])
}

func TestOfflineModeNeverCallsProvider(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t, "AAPL")
	base := "/api/sessions/" + sess.ID

	w, body := env.do(t, http.MethodPut, base+"/offline", `{"offline":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["offline"])

	w, body = env.do(t, http.MethodGet, base+"/overview", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(offline.SourceNone), body["source"])
	assert.Contains(t, notices(body)[0]["message"], "No offline data")

	require.NoError(t, env.store.Save(KeyMarketOverview, model.QuotesPayload(testQuotes())))
	w, body = env.do(t, http.MethodGet, base+"/overview", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(offline.SourceSnapshot), body["source"])
	assert.Contains(t, body, "sector_breakdown")

	env.data.AssertNotCalled(t, "MarketOverview", mock.Anything)

	w, _ = env.do(t, http.MethodPut, base+"/offline", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, body = env.do(t, http.MethodPut, base+"/offline", `{"offline":false}`)
	assert.Equal(t, false, body["offline"])
}

func TestResetSession(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t, "AAPL")
	sess.SetOffline(true)

	w, body := env.do(t, http.MethodPost, "/api/sessions/"+sess.ID+"/reset", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["selected"])
	assert.Equal(t, false, body["offline"])
}

func TestHistorical(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t, "AAPL", "MSFT")
	base := "/api/sessions/" + sess.ID
	env.data.On("Historical", mock.Anything, []string{"AAPL", "MSFT"}, model.Period1Month).
		Return(testBars("AAPL", "MSFT"), nil).Once()

	w, body := env.do(t, http.MethodGet, base+"/historical?period=1mo&max_points=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(60), body["total"])
	assert.LessOrEqual(t, len(body["data"].([]any)), 22)
	assert.Len(t, body["summary"].([]any), 2)
	assert.Len(t, body["moving_averages"].([]any), 60)
	assert.True(t, env.store.Has(HistoricalKey(model.Period1Month, 2)))

	w, _ = env.do(t, http.MethodGet, base+"/historical?period=10y", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	empty := env.newSession(t)
	w, body = env.do(t, http.MethodGet, "/api/sessions/"+empty.ID+"/historical", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["total"])
	env.data.AssertExpectations(t)
}

func TestHistoricalExplicitSymbolsAndLabel(t *testing.T) {
	env := setupTestEnv(t)
	sess := env.newSession(t)
	env.data.On("Historical", mock.Anything, []string{"NVDA"}, model.Period1Year).
		Return(testBars("NVDA"), nil).Once()

	w, body := env.do(t, http.MethodGet, "/api/sessions/"+sess.ID+"/historical?period=1%20Year&symbols=nvda", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1y", body["period"])
	assert.Equal(t, float64(30), body["total"])
}

func TestListUniverse(t *testing.T) {
	env := setupTestEnv(t)
	records := []model.CompanyRecord{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "AMZN", Name: "Amazon.com Inc."},
		{Symbol: "JPM", Name: "JPMorgan Chase & Co."},
	}
	env.data.On("ListUniverse", mock.Anything).Return(records)
	sess := env.newSession(t)

	w, body := env.do(t, http.MethodGet, "/api/universe?q=APP&session="+sess.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["matched"])
	assert.Len(t, body["companies"].([]any), 1)
	assert.Eventually(t, func() bool { return sess.Snapshot().Search == "APP" }, time.Second, 5*time.Millisecond)

	w, body = env.do(t, http.MethodGet, "/api/universe?q=zzz", "")
	assert.Equal(t, float64(0), body["matched"])
	assert.Len(t, body["companies"].([]any), 3, "no match falls back to the full list")
	assert.Contains(t, body["message"], "No companies found")

	w, body = env.do(t, http.MethodGet, "/api/universe?limit=all", "")
	page := body["page"].(map[string]any)
	assert.Equal(t, float64(3), page["page_size"])

	w, _ = env.do(t, http.MethodGet, "/api/universe?limit=7", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = env.do(t, http.MethodGet, "/api/universe?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefreshOverviewIsDeduplicated(t *testing.T) {
	env := setupTestEnv(t)
	env.handler.cache.Put(model.QuotesPayload(testQuotes()), cache.CategoryMarketOverview, nil, nil)
	sess := env.newSession(t)
	path := "/api/sessions/" + sess.ID + "/overview/refresh"

	w, body := env.do(t, http.MethodPost, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["refreshed"])
	_, ok := env.handler.cache.Get(cache.CategoryMarketOverview, nil, nil)
	assert.False(t, ok, "overview cache should be invalidated")

	w, _ = env.do(t, http.MethodPost, path, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestGetCompany(t *testing.T) {
	env := setupTestEnv(t)
	info := &model.CompanyInfo{Symbol: "AAPL", Name: "Apple Inc.", CurrentPrice: 190, MarketCap: 2.9e12,
		Employees: 161000, ForwardPE: null.FloatFrom(27.5)}
	env.data.On("CompanyInfo", mock.Anything, "AAPL").Return(info, nil)
	env.data.On("CompanyInfo", mock.Anything, "ZZZZ").Return((*model.CompanyInfo)(nil), collector.ErrNotFound)
	env.data.On("CompanyInfo", mock.Anything, "MSFT").Return((*model.CompanyInfo)(nil), errors.New("timeout"))

	w, body := env.do(t, http.MethodGet, "/api/companies/aapl", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 27.5, body["pe_ratio"])
	assert.Equal(t, "161,000", body["employees_display"])
	assert.Equal(t, "$2900.00B", body["market_cap_display"])

	w, _ = env.do(t, http.MethodGet, "/api/companies/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = env.do(t, http.MethodGet, "/api/companies/MSFT", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	env.handler.cache.Put(model.QuotesPayload(testQuotes()), cache.CategoryCompanyData, []string{"AAPL"}, nil)

	w, body := env.do(t, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total_items"])

	w, body = env.do(t, http.MethodPost, "/api/cache/sweep", "")
	assert.Equal(t, float64(0), body["removed"])

	w, _ = env.do(t, http.MethodDelete, "/api/cache", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.handler.cache.Stats().TotalItems)
}

func TestListSnapshotsAndPeriods(t *testing.T) {
	env := setupTestEnv(t)
	require.NoError(t, env.store.Save(KeyMarketOverview, model.QuotesPayload(testQuotes())))

	req := httptest.NewRequest(http.MethodGet, "/api/offline", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []offline.SnapshotInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, KeyMarketOverview, infos[0].Key)
	assert.Equal(t, 2, infos[0].Rows)

	_, body := env.do(t, http.MethodGet, "/api/periods", "")
	assert.Equal(t, "1mo", body["default"])
	assert.Len(t, body["options"].([]any), len(model.PeriodOptions))
}
