package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStore() *fakeStore {
	netflix := activeSub("netflix", "Netflix", 649)
	netflix.PreviousAmount = amountPtr(499)
	netflix.Category = "Entertainment"

	adobe := activeSub("adobe", "Adobe Creative Cloud", 4999)
	adobe.LastUsedDate = daysAgo(90)
	adobe.Category = "Productivity"

	return newFakeStore(netflix, adobe)
}

func newTestPipeline(store *fakeStore, opts ...Option) *Pipeline {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(discardLogger()),
	}
	return New(store, append(base, opts...)...)
}

func TestPipeline_Run(t *testing.T) {
	store := scenarioStore()
	p := newTestPipeline(store)

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 2, result.NewAlerts)
	require.Len(t, result.Recommendations, 2)
	// Adobe has the higher urgency and is ordered first.
	assert.Equal(t, "Adobe Creative Cloud", result.Recommendations[0].Alert.Merchant)
	assert.Equal(t, "Netflix", result.Recommendations[1].Alert.Merchant)
	assert.Equal(t, 59988.0+1800.0, result.TotalPotentialSavings)

	assert.Equal(t, "Starting subscription analysis pipeline", result.ExecutionLog[0])
	assert.Contains(t, result.ExecutionLog, "Created new alert for Netflix")
	assert.Contains(t, result.ExecutionLog, "Total potential savings: ₹61788/year")

	require.Len(t, store.alerts, 2)
	for _, alert := range store.alerts {
		assert.Equal(t, model.AlertPending, alert.Status)
		assert.Equal(t, testNow, alert.CreatedAt)
	}

	assert.Equal(t, 2, store.observations(model.AgentMonitoring))
	assert.Equal(t, 2, store.observations(model.AgentAnomaly))
	assert.Equal(t, 2, store.observations(model.AgentRisk))
	assert.Equal(t, 2, store.observations(model.AgentReasoning))
	assert.Equal(t, 2, store.observations(model.AgentRecommendation))
	for _, name := range model.AgentNames {
		assert.Equal(t, model.AgentActive, store.statuses[name].Status, name)
		assert.Equal(t, testNow, store.statuses[name].LastRun, name)
	}

	var created, runs int
	for _, entry := range store.audit {
		switch entry.Action {
		case model.AuditAlertCreated:
			created++
			assert.Equal(t, model.EntityAlert, entry.EntityType)
			assert.NotEmpty(t, entry.EntityID)
		case model.AuditAgentRun:
			runs++
			assert.Contains(t, entry.Details, "2 new alerts")
		}
		assert.False(t, entry.UserApproved)
	}
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, runs)
}

func TestPipeline_RunIsIdempotent(t *testing.T) {
	store := scenarioStore()
	p := newTestPipeline(store)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.NewAlerts)

	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.Equal(t, 0, second.NewAlerts)
	assert.Len(t, second.Recommendations, 2)
	assert.Len(t, store.alerts, 2)

	// Observation counters keep accumulating across runs.
	assert.Equal(t, 4, store.observations(model.AgentMonitoring))
}

func TestPipeline_ClosedAlertsSuppressRecreation(t *testing.T) {
	for _, status := range []model.AlertStatus{model.AlertDismissed, model.AlertResolved} {
		t.Run(string(status), func(t *testing.T) {
			store := scenarioStore()
			store.alerts = []model.Alert{{
				ID:       "old",
				Merchant: "Netflix",
				Type:     model.AnomalyPriceIncrease,
				Status:   status,
			}}

			result, err := newTestPipeline(store).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, result.NewAlerts)
			require.Len(t, store.alerts, 2)
			assert.Equal(t, status, store.alerts[0].Status)
			assert.Equal(t, "Adobe Creative Cloud", store.alerts[1].Merchant)
		})
	}
}

func TestPipeline_NoAnomaliesShortCircuits(t *testing.T) {
	store := newFakeStore(activeSub("spotify", "Spotify", 119))
	observer := &recordingObserver{}
	p := newTestPipeline(store, WithObserver(observer))

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Recommendations)
	assert.NotNil(t, result.Recommendations)
	assert.Zero(t, result.NewAlerts)
	assert.Zero(t, result.TotalPotentialSavings)
	assert.Equal(t, "No anomalies detected. Pipeline complete.", result.ExecutionLog[len(result.ExecutionLog)-1])

	assert.Equal(t, 1, store.observations(model.AgentMonitoring))
	assert.Equal(t, 0, store.observations(model.AgentAnomaly))
	for _, name := range []string{model.AgentRisk, model.AgentReasoning, model.AgentRecommendation} {
		assert.Equal(t, 0, store.observations(name), name)
		assert.Equal(t, model.AgentIdle, store.statuses[name].Status, name)
	}
	assert.Equal(t, []string{model.AgentMonitoring, model.AgentAnomaly}, observer.started)
	assert.Equal(t, observer.started, observer.finished)
}

func TestPipeline_FetchFailure(t *testing.T) {
	store := scenarioStore()
	store.fetchErr = errStoreDown
	metrics := NewMetrics(prometheus.NewRegistry())

	result, err := newTestPipeline(store, WithMetrics(metrics)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "store unavailable")
	assert.Empty(t, result.Recommendations)
	assert.Zero(t, result.NewAlerts)
	assert.True(t, strings.HasPrefix(result.ExecutionLog[len(result.ExecutionLog)-1], "ERROR: "))
	assert.Empty(t, store.alerts)

	require.Len(t, store.audit, 1)
	assert.Equal(t, model.AuditAgentRun, store.audit[0].Action)
	assert.Contains(t, store.audit[0].Details, "failed")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")))
}

func TestPipeline_CreateFailureKeepsEarlierAlerts(t *testing.T) {
	store := scenarioStore()
	store.createAlertErr = errors.New("disk full")
	store.failCreateAfter = 1

	result, err := newTestPipeline(store).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), model.AgentRecommendation)

	assert.False(t, result.Success)
	assert.Zero(t, result.NewAlerts)
	assert.Empty(t, result.Recommendations)
	assert.Zero(t, result.TotalPotentialSavings)

	require.Len(t, store.alerts, 1)
	assert.Equal(t, "Adobe Creative Cloud", store.alerts[0].Merchant)
	// The failed stage keeps the processing status and gains no observations.
	assert.Equal(t, model.AgentProcessing, store.statuses[model.AgentRecommendation].Status)
	assert.Equal(t, 0, store.observations(model.AgentRecommendation))
}

func TestPipeline_StatusFailuresDoNotFailTheRun(t *testing.T) {
	store := scenarioStore()
	store.statusErr = errors.New("locked")

	result, err := newTestPipeline(store).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.NewAlerts)
}

func TestPipeline_ConcurrentRunsCreateEachAlertOnce(t *testing.T) {
	store := scenarioStore()
	p := newTestPipeline(store)

	const runs = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := p.Run(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			total += result.NewAlerts
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, total)
	assert.Len(t, store.alerts, 2)
	assert.Equal(t, 2*runs, store.observations(model.AgentMonitoring))
}

func TestPipeline_ObserverSeesEveryStage(t *testing.T) {
	observer := &recordingObserver{}
	_, err := newTestPipeline(scenarioStore(), WithObserver(observer)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.AgentNames, observer.started)
	assert.Equal(t, model.AgentNames, observer.finished)
}

func TestPipeline_Metrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	_, err := newTestPipeline(scenarioStore(), WithMetrics(metrics)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AlertsCreatedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AnomaliesTotal.WithLabelValues(string(model.AnomalyPriceIncrease))))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AnomaliesTotal.WithLabelValues(string(model.AnomalyUnused))))
	assert.Equal(t, 5, testutil.CollectAndCount(metrics.StageDuration))
}

type staticExplainer struct{}

func (staticExplainer) Explain(_ context.Context, a model.RiskAssessment) model.Explanation {
	return model.Explanation{
		Title:          "Custom " + a.Anomaly.Merchant,
		Description:    "d",
		AIExplanation:  "a",
		Recommendation: "r",
	}
}

func TestPipeline_WithExplainer(t *testing.T) {
	store := scenarioStore()
	_, err := newTestPipeline(store, WithExplainer(staticExplainer{})).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, store.alerts, 2)
	assert.Equal(t, "Custom Adobe Creative Cloud", store.alerts[0].Title)
}

func TestPipeline_WithCurrency(t *testing.T) {
	store := scenarioStore()
	result, err := newTestPipeline(store, WithCurrency("$")).Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.ExecutionLog, "Total potential savings: $61788/year")
	assert.Contains(t, store.alerts[1].Description, "$1800")
}
