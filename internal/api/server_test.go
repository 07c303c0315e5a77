package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/approval"
	"github.com/Veraticus/subscription-sentinel/internal/billing"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/Veraticus/subscription-sentinel/internal/service"
	"github.com/Veraticus/subscription-sentinel/internal/storage"
	"github.com/Veraticus/subscription-sentinel/internal/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	store   *storage.SQLiteStorage
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := func() time.Time { return testNow }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := testutil.SetupTestDB(t, testutil.TestDBOptions{Now: testNow, Seed: true})

	reg := prometheus.NewRegistry()
	p := pipeline.New(store,
		pipeline.WithClock(clock),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(pipeline.NewMetrics(reg)),
	)
	approvals := approval.New(store)
	approvals.SetClock(clock)

	srv := NewServer(Deps{
		Store:     store,
		Runner:    p,
		Approvals: approvals,
		Billing: billing.NewSimulator(store, p,
			billing.WithClock(clock),
			billing.WithRandom(rand.New(rand.NewPCG(1, 2)))),
		Gatherer: reg,
		Logger:   logger,
	})
	return &testServer{store: store, handler: srv.Handler()}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDashboardSummary(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/dashboard/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	summary := decode[service.DashboardSummary](t, rec)
	assert.Equal(t, 10, summary.TotalSubscriptions)
	assert.Equal(t, 9, summary.ActiveSubscriptions)
	assert.Zero(t, summary.PendingAlerts)
}

func TestSubscriptions(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/subscriptions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	subs := decode[[]model.Subscription](t, rec)
	require.Len(t, subs, 10)

	rec = ts.do(t, http.MethodGet, "/api/subscriptions/"+subs[0].ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, subs[0].Merchant, decode[model.Subscription](t, rec).Merchant)

	rec = ts.do(t, http.MethodGet, "/api/subscriptions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
}

func TestUpdateSubscription(t *testing.T) {
	ts := newTestServer(t)
	subs, err := ts.store.GetSubscriptions(context.Background())
	require.NoError(t, err)
	id := subs[0].ID

	tests := []struct {
		name       string
		id         string
		body       string
		wantStatus int
		wantSub    model.SubscriptionStatus
	}{
		{name: "pause", id: id, body: `{"action":"pause"}`, wantStatus: http.StatusOK, wantSub: model.SubscriptionPaused},
		{name: "resume", id: id, body: `{"action":"resume"}`, wantStatus: http.StatusOK, wantSub: model.SubscriptionActive},
		{name: "cancel", id: id, body: `{"action":"cancel"}`, wantStatus: http.StatusOK, wantSub: model.SubscriptionCancelled},
		{name: "unknown action", id: id, body: `{"action":"delete"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed body", id: id, body: `{"action":`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", id: id, body: `{"status":"paused"}`, wantStatus: http.StatusBadRequest},
		{name: "missing subscription", id: "missing", body: `{"action":"pause"}`, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPatch, "/api/subscriptions/"+tt.id, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantSub, decode[model.Subscription](t, rec).Status)
			}
		})
	}
}

func TestRunPipelineAndAlerts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/agents/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[pipeline.Result](t, rec)
	assert.True(t, result.Success)
	assert.Equal(t, 10, result.NewAlerts)
	assert.NotEmpty(t, result.ExecutionLog)

	rec = ts.do(t, http.MethodPost, "/api/agents/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[pipeline.Result](t, rec).NewAlerts)

	rec = ts.do(t, http.MethodGet, "/api/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	alerts := decode[[]model.Alert](t, rec)
	require.Len(t, alerts, 10)

	var target model.Alert
	for _, a := range alerts {
		if a.Type == model.AnomalyUnused && a.Merchant == "Adobe Creative" {
			target = a
		}
	}
	require.NotEmpty(t, target.ID)
	assert.Equal(t, model.SeverityHigh, target.Severity)

	rec = ts.do(t, http.MethodPost, "/api/alerts/"+target.ID+"/resolve", `{"action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/alerts/missing/resolve", `{"action":"keep"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/alerts/"+target.ID+"/resolve", `{"action":"cancel"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[approval.Resolution](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, "Adobe Creative", res.Merchant)
	require.NotNil(t, res.Subscription)
	assert.Equal(t, model.SubscriptionCancelled, res.Subscription.Status)

	other := alerts[0]
	if other.ID == target.ID {
		other = alerts[1]
	}
	rec = ts.do(t, http.MethodPost, "/api/alerts/"+other.ID+"/dismiss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	rec = ts.do(t, http.MethodGet, "/api/dashboard/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 8, decode[service.DashboardSummary](t, rec).PendingAlerts)
}

func TestAgentStatuses(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/agents/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	statuses := decode[[]model.AgentStatus](t, rec)
	require.Len(t, statuses, 5)
	for _, s := range statuses {
		assert.Equal(t, model.AgentIdle, s.Status)
	}
}

func TestSimulateAutoPay(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/simulate/autopay", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Transaction billing.Charge `json:"transaction"`
		Message     string         `json:"message"`
		Success     bool           `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Transaction.ID)
	assert.NotEmpty(t, body.Transaction.Merchant)
	assert.True(t, strings.HasPrefix(body.Message, body.Transaction.Merchant))

	txns, err := ts.store.GetTransactions(context.Background())
	require.NoError(t, err)
	assert.Len(t, txns, 6)
}

func TestCheckout(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/checkout", `{"merchant":"Disney+","amount":299,"category":"Entertainment"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"merchant":"Disney+"`)

	rec = ts.do(t, http.MethodPost, "/api/checkout", `{"merchant":"","amount":299}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	subs, err := ts.store.GetSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Len(t, subs, 11)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/agents/run", "").Code)

	rec := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sentinel_pipeline_runs_total{outcome="success"} 1`)
	assert.Contains(t, rec.Body.String(), "sentinel_alerts_created_total 10")
}

type failingRunner struct{}

func (failingRunner) Run(_ context.Context) (*pipeline.Result, error) {
	err := errors.New("store unavailable")
	return &pipeline.Result{
		Success:         false,
		Error:           err.Error(),
		Recommendations: []model.Recommendation{},
		ExecutionLog:    []string{"ERROR: store unavailable"},
	}, err
}

func TestRunPipeline_Failure(t *testing.T) {
	srv := NewServer(Deps{Runner: failingRunner{}, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/agents/run", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	result := decode[pipeline.Result](t, rec)
	assert.False(t, result.Success)
	assert.Equal(t, "store unavailable", result.Error)
	assert.Empty(t, result.Recommendations)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: errBadRequest, want: http.StatusBadRequest},
		{err: approval.ErrInvalidAction, want: http.StatusBadRequest},
		{err: billing.ErrNoEligibleSubscription, want: http.StatusBadRequest},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
