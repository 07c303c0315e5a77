package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
)

var errStoreDown = errors.New("store unavailable")

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * day)
	return &t
}

func inDays(n int) time.Time {
	return testNow.Add(time.Duration(n) * day)
}

func amountPtr(v float64) *float64 { return &v }

// fakeStore is an in-memory PipelineStore with error injection.
type fakeStore struct {
	subscriptions []model.Subscription
	transactions  []model.Transaction
	alerts        []model.Alert
	statuses      map[string]*model.AgentStatus
	audit         []model.AuditLog

	fetchErr        error
	createAlertErr  error
	failCreateAfter int
	statusErr       error

	createCalls int
	mu          sync.Mutex
}

func newFakeStore(subs ...model.Subscription) *fakeStore {
	s := &fakeStore{
		subscriptions:   subs,
		statuses:        make(map[string]*model.AgentStatus),
		failCreateAfter: -1,
	}
	for _, name := range model.AgentNames {
		s.statuses[name] = &model.AgentStatus{Name: name, Status: model.AgentIdle}
	}
	return s
}

func (s *fakeStore) GetSubscriptions(_ context.Context) ([]model.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]model.Subscription(nil), s.subscriptions...), nil
}

func (s *fakeStore) GetTransactions(_ context.Context) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.transactions...), nil
}

func (s *fakeStore) GetAlerts(_ context.Context) ([]model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Alert(nil), s.alerts...), nil
}

func (s *fakeStore) GetAlert(_ context.Context, id string) (*model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			alert := s.alerts[i]
			return &alert, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *fakeStore) CreateAlert(_ context.Context, alert *model.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.createAlertErr != nil && s.failCreateAfter >= 0 && len(s.alerts) >= s.failCreateAfter {
		return s.createAlertErr
	}
	for i := range s.alerts {
		if s.alerts[i].DedupKey() == alert.DedupKey() {
			return common.ErrDuplicateEntry
		}
	}
	alert.ID = fmt.Sprintf("alert-%d", len(s.alerts)+1)
	s.alerts = append(s.alerts, *alert)
	return nil
}

func (s *fakeStore) UpdateAlert(_ context.Context, id string, update model.AlertUpdate) (*model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			if update.Status != nil {
				s.alerts[i].Status = *update.Status
			}
			alert := s.alerts[i]
			return &alert, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *fakeStore) GetAgentStatuses(_ context.Context) ([]model.AgentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AgentStatus, 0, len(model.AgentNames))
	for _, name := range model.AgentNames {
		out = append(out, *s.statuses[name])
	}
	return out, nil
}

func (s *fakeStore) UpdateAgentStatus(_ context.Context, name string, update model.AgentStatusUpdate) (*model.AgentStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	status, ok := s.statuses[name]
	if !ok {
		status = &model.AgentStatus{Name: name, Status: model.AgentIdle}
		s.statuses[name] = status
	}
	if update.Status != nil {
		status.Status = *update.Status
	}
	if update.LastRun != nil {
		status.LastRun = *update.LastRun
	}
	status.Observations += update.ObservationsAdded
	out := *status
	return &out, nil
}

func (s *fakeStore) CreateAuditLog(_ context.Context, entry *model.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *fakeStore) observations(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[name].Observations
}

// fakeLLM returns canned responses or errors.
type fakeLLM struct {
	err      error
	response string
	block    bool
	prompts  []string
	mu       sync.Mutex
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// recordingObserver captures stage notifications.
type recordingObserver struct {
	started  []string
	finished []string
}

func (o *recordingObserver) StageStarted(agent string, _, _ int) {
	o.started = append(o.started, agent)
}

func (o *recordingObserver) StageFinished(agent string, _ int, _ error) {
	o.finished = append(o.finished, agent)
}
