package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetClientFromContext(r.Context())))
	})
}

func TestValidateIncidentID(t *testing.T) {
	assert.NoError(t, ValidateIncidentID("inc_20261016093015_1a2b3c4d"))
	assert.NoError(t, ValidateIncidentID("inc_20261016093015"))
	for _, bad := range []string{"", "inc_", "inc_2026", "../etc/passwd", "inc_20261016093015_XYZ"} {
		assert.Error(t, ValidateIncidentID(bad), bad)
	}
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage(strings.Repeat("é", MaxMessageLength)))
	assert.Error(t, ValidateMessage(strings.Repeat("a", MaxMessageLength+1)))
}

func TestValidateEvidenceCount(t *testing.T) {
	assert.NoError(t, ValidateEvidenceCount(0, 0))
	assert.EqualError(t, ValidateEvidenceCount(2, -1), "evidence[2].count must be >= 0")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello\tworld\nbye", SanitizeString("  hel\x00lo\tworld\n\x07bye \r"))
}

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"web": "k1"})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/incidents", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing Authorization header"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer k1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "web", rec.Body.String())
}

func TestAPIKeyAuthDisabledWithoutKeys(t *testing.T) {
	rec := httptest.NewRecorder()
	APIKeyAuth(nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(2, 1)
	defer limiter.Stop()
	h := RateLimitMiddleware(limiter)(okHandler())

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:" + strconv.Itoa(1000+i)
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, "1", last.Header().Get("Retry-After"))
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))

	// a different client IP has its own bucket, whatever its source port
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:999"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiterRefillsAndPrunes(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := newRateLimiter(1, 2, func() time.Time { return now })

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.Allow("a"), "half a second at 2/s refills one token")

	now = now.Add(idleBucketTTL + time.Second)
	rl.prune()
	rl.mu.Lock()
	assert.Empty(t, rl.buckets)
	rl.mu.Unlock()
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	healthy := Check{Name: "store", Checker: PingChecker{Target: stubPinger{}}}
	downCache := Check{Name: "cache", Optional: true, Checker: PingChecker{Target: stubPinger{err: errors.New("connection refused")}}}
	downStore := Check{Name: "store", Checker: PingChecker{Target: stubPinger{err: errors.New("disk full")}}}

	rec := httptest.NewRecorder()
	HealthHandler([]Check{healthy})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	HealthHandler([]Check{healthy, downCache})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, "connection refused", status.Checks["cache"].Message)
	assert.Equal(t, StatusHealthy, status.Checks["store"].Status)

	rec = httptest.NewRecorder()
	HealthHandler([]Check{downStore, downCache})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusUnhealthy, status.Status)
}

func TestReadinessIgnoresOptionalChecks(t *testing.T) {
	downCache := Check{Name: "cache", Optional: true, Checker: PingChecker{Target: stubPinger{err: errors.New("refused")}}}

	rec := httptest.NewRecorder()
	ReadinessHandler([]Check{downCache})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	downStore := Check{Name: "store", Checker: PingChecker{Target: stubPinger{err: errors.New("refused")}}}
	rec = httptest.NewRecorder()
	ReadinessHandler([]Check{downStore})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsMiddlewareCounts(t *testing.T) {
	before := GetMetrics()
	h := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	after := GetMetrics()

	assert.Equal(t, before["requests_total"].(uint64)+1, after["requests_total"].(uint64))
	assert.Equal(t, before["requests_failed"].(uint64)+1, after["requests_failed"].(uint64))
}

func TestLoggingRecordsAuthenticatedClient(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Logging(zap.New(core))(APIKeyAuth(map[string]string{"web": "k1"})(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer k1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "web", logs.All()[0].ContextMap()["client"])
}

func TestRateLimitPrefersClientOverIP(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	defer limiter.Stop()
	h := APIKeyAuth(map[string]string{"web": "k1"})(RateLimitMiddleware(limiter)(okHandler()))

	codes := make([]int, 0, 2)
	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		req.Header.Set("Authorization", "k1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 429}, codes)
}

func TestLoggingPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
