package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"replenishment-service/internal/demand"
	"replenishment-service/internal/engine"
	mid "replenishment-service/internal/middleware"
	"replenishment-service/internal/model"
	"replenishment-service/internal/report"
	"replenishment-service/pkg/config"
	"replenishment-service/pkg/jwtutil"
	"replenishment-service/pkg/runlock"
)

type fakePipeline struct {
	mu       sync.Mutex
	dryRuns  []bool
	ctxErrs  []error
	err      error
	block    chan struct{}
	started  chan struct{}
	period   int
	tier     model.Tier
	abcError error
}

func (f *fakePipeline) SuggestPurchases(ctx context.Context, dryRun bool) (*report.Report, error) {
	f.mu.Lock()
	f.dryRuns = append(f.dryRuns, dryRun)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return &report.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC),
		DryRun:      dryRun,
		Rows:        []report.Row{{Supplier: "ACME", SKU: "P1", SuggestedQty: 400}},
	}, nil
}

func (f *fakePipeline) AnalyzeABC(_ context.Context, periodDays int, tier model.Tier) (*engine.ABCReport, error) {
	f.period, f.tier = periodDays, tier
	if f.abcError != nil {
		return nil, f.abcError
	}
	return &engine.ABCReport{PeriodDays: periodDays, Tier: tier, Counts: map[model.Tier]int{}}, nil
}

func (f *fakePipeline) CompareABC(_ context.Context, periodDays int, tier model.Tier) (*engine.ABCComparison, error) {
	f.period, f.tier = periodDays, tier
	if f.abcError != nil {
		return nil, f.abcError
	}
	return &engine.ABCComparison{PeriodDays: periodDays, Tier: tier}, nil
}

type testServer struct {
	e   *echo.Echo
	jwt *jwtutil.JWTUtil
}

func newTestServer(p Pipeline, locker runlock.Locker) *testServer {
	j := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1})
	e := echo.New()
	e.GET("/health", HealthCheck("replenishment-service", nil))
	NewReplenishmentHandler(p, locker).Register(e.Group("/api", mid.AuthMiddleware(j)))
	return &testServer{e: e, jwt: j}
}

func (s *testServer) do(t *testing.T, method, target, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		token, err := s.jwt.GenerateToken("u-1", "ops@example.com", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(&fakePipeline{}, nil)
	rec := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	e := echo.New()
	e.GET("/health", HealthCheck("svc", func(context.Context) error { return errors.New("down") }))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunDefaultsToDryRun(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	rec := s.do(t, http.MethodPost, "/api/replenishment/run", jwtutil.RoleViewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, p.dryRuns)
	var body report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.DryRun)
	assert.Equal(t, "run-1", body.RunID)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, int64(400), body.Rows[0].SuggestedQty)
}

func TestRunRequiresToken(t *testing.T) {
	s := newTestServer(&fakePipeline{}, nil)
	rec := s.do(t, http.MethodPost, "/api/replenishment/run", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLiveRunNeedsSubmitRole(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	rec := s.do(t, http.MethodPost, "/api/replenishment/run?dry_run=false", jwtutil.RoleViewer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, p.dryRuns)

	rec = s.do(t, http.MethodPost, "/api/replenishment/run?dry_run=false", jwtutil.RoleBuyer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{false}, p.dryRuns)
}

func TestRunRejectsBadDryRunFlag(t *testing.T) {
	s := newTestServer(&fakePipeline{}, nil)
	rec := s.do(t, http.MethodPost, "/api/replenishment/run?dry_run=maybe", jwtutil.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcurrentLiveRunIsRejected(t *testing.T) {
	p := &fakePipeline{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := newTestServer(p, runlock.NewLocalLocker())

	first := make(chan int)
	go func() {
		first <- s.do(t, http.MethodPost, "/api/replenishment/run?dry_run=false", jwtutil.RoleAdmin).Code
	}()
	<-p.started

	rec := s.do(t, http.MethodPost, "/api/replenishment/run?dry_run=false", jwtutil.RoleAdmin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(p.block)
	assert.Equal(t, http.StatusOK, <-first)
}

func TestRunErrors(t *testing.T) {
	s := newTestServer(&fakePipeline{err: &demand.UnmappedSKUError{SKU: "GHOST"}}, nil)
	rec := s.do(t, http.MethodPost, "/api/replenishment/run", jwtutil.RoleAdmin)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "GHOST")

	s = newTestServer(&fakePipeline{err: errors.New("load products: boom")}, nil)
	rec = s.do(t, http.MethodPost, "/api/replenishment/run", jwtutil.RoleAdmin)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestReportXLSX(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	rec := s.do(t, http.MethodGet, "/api/replenishment/report.xlsx", jwtutil.RoleViewer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true}, p.dryRuns)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "replenishment-2024-06-30.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Suggestions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ACME", rows[1][0])
}

func TestABCParams(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)

	rec := s.do(t, http.MethodGet, "/api/abc?period_days=60&tier=b", jwtutil.RoleViewer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 60, p.period)
	assert.Equal(t, model.TierB, p.tier)

	rec = s.do(t, http.MethodGet, "/api/abc/compare", jwtutil.RoleViewer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, p.period)
	assert.Equal(t, model.Tier(""), p.tier)

	for _, target := range []string{
		"/api/abc?tier=D",
		"/api/abc?period_days=-5",
		"/api/abc/compare?period_days=abc",
	} {
		rec = s.do(t, http.MethodGet, target, jwtutil.RoleViewer)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestABCFailure(t *testing.T) {
	s := newTestServer(&fakePipeline{abcError: errors.New("db down")}, nil)
	rec := s.do(t, http.MethodGet, "/api/abc", jwtutil.RoleViewer)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLiveRunSurvivesClientDisconnect(t *testing.T) {
	p := &fakePipeline{}
	s := newTestServer(p, nil)
	token, err := s.jwt.GenerateToken("u-1", "ops@example.com", jwtutil.RoleBuyer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/replenishment/run?dry_run=false", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	require.Equal(t, []bool{false}, p.dryRuns)
	assert.NoError(t, p.ctxErrs[0])
}
