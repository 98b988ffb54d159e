package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/hourbid/api/controllers"
	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/db/models"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"github.com/angelmondragon/hourbid/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubHistory struct {
	rows       []models.BidAdjustment
	campaignID int64
	since      time.Time
	limit      int
}

func (s *stubHistory) ListByRun(ctx context.Context, runID string) ([]models.BidAdjustment, error) {
	var out []models.BidAdjustment
	for _, row := range s.rows {
		if row.RunID == runID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubHistory) ListByCampaign(ctx context.Context, campaignID int64, since time.Time, limit int) ([]models.BidAdjustment, error) {
	s.campaignID, s.since, s.limit = campaignID, since, limit
	return s.rows, nil
}

func newTestRouter(t *testing.T, deps map[string]controllers.Pinger, history controllers.HistoryReader) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewCronJobMetrics(reg).IncSuccess("hourly-bid")
	return NewRouter(RouterParams{
		Config:  &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:  logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Deps:    deps,
		History: history,
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Hourbid-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestHealthReadyReportsDependencies(t *testing.T) {
	router := newTestRouter(t, map[string]controllers.Pinger{
		"db":       stubPinger{},
		"redis":    stubPinger{},
		"bigquery": nil,
	}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Data struct {
			Checks map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Checks) != 2 || body.Data.Checks["db"] != "up" {
		t.Fatalf("unexpected checks %v", body.Data.Checks)
	}
}

func TestHealthReadyFailsWhenDependencyDown(t *testing.T) {
	router := newTestRouter(t, map[string]controllers.Pinger{
		"redis": stubPinger{err: errors.New("connection refused")},
	}, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hourbid_job_success_total") {
		t.Fatalf("expected cron metrics in output, got %s", w.Body.String())
	}
}

func TestRunAdjustments(t *testing.T) {
	history := &stubHistory{rows: []models.BidAdjustment{
		{RunID: "run-1", CampaignID: 42, DayOfWeek: "WEDNESDAY", Hour: 14, Modifier: 0.75},
	}}
	router := newTestRouter(t, nil, history)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1/adjustments", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing/adjustments", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", w.Code)
	}
}

func TestCampaignAdjustmentsParsesQuery(t *testing.T) {
	history := &stubHistory{}
	router := newTestRouter(t, nil, history)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/42/adjustments?since=2026-10-01T00:00:00Z&limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if history.campaignID != 42 || history.limit != 10 {
		t.Fatalf("unexpected query %+v", history)
	}
	if want := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC); !history.since.Equal(want) {
		t.Fatalf("expected since %s, got %s", want, history.since)
	}

	for _, path := range []string{
		"/api/v1/campaigns/abc/adjustments",
		"/api/v1/campaigns/42/adjustments?since=yesterday",
		"/api/v1/campaigns/42/adjustments?limit=-1",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestHistoryRoutesAbsentWithoutRepository(t *testing.T) {
	router := newTestRouter(t, nil, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1/adjustments", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
