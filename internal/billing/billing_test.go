package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRandom) IntN(n int) int {
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		panic("scripted value out of range")
	}
	return v
}

type memoryStore struct {
	subs      []model.Subscription
	txns      []model.Transaction
	updateErr error
}

func (m *memoryStore) GetSubscriptions(_ context.Context) ([]model.Subscription, error) {
	return append([]model.Subscription(nil), m.subs...), nil
}

func (m *memoryStore) CreateSubscription(_ context.Context, sub *model.Subscription) error {
	sub.ID = "new-sub"
	m.subs = append(m.subs, *sub)
	return nil
}

func (m *memoryStore) UpdateSubscription(_ context.Context, id string, update model.SubscriptionUpdate) (*model.Subscription, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i := range m.subs {
		if m.subs[i].ID != id {
			continue
		}
		if update.CurrentAmount != nil {
			m.subs[i].CurrentAmount = *update.CurrentAmount
		}
		if update.PreviousAmount != nil {
			prev := *update.PreviousAmount
			m.subs[i].PreviousAmount = &prev
		}
		sub := m.subs[i]
		return &sub, nil
	}
	return nil, common.ErrNotFound
}

func (m *memoryStore) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	txn.ID = "txn-1"
	m.txns = append(m.txns, *txn)
	return nil
}

type countingRunner struct {
	err   error
	calls int
}

func (r *countingRunner) Run(_ context.Context) (*pipeline.Result, error) {
	r.calls++
	if r.err != nil {
		return &pipeline.Result{Success: false, Error: r.err.Error()}, r.err
	}
	return &pipeline.Result{Success: true, NewAlerts: 1}, nil
}

func subscription(id, merchant string, amount float64, status model.SubscriptionStatus, autoPay bool) model.Subscription {
	return model.Subscription{
		ID:             id,
		Merchant:       merchant,
		CurrentAmount:  amount,
		BillingCycle:   model.CycleMonthly,
		Status:         status,
		Category:       "Entertainment",
		AutoPayEnabled: autoPay,
	}
}

func newSimulator(store *memoryStore, runner *countingRunner, rnd *scriptedRandom) *Simulator {
	return NewSimulator(store, runner, WithRandom(rnd), WithClock(func() time.Time { return testNow }))
}

func TestSimulateAutoPay_PriceIncrease(t *testing.T) {
	store := &memoryStore{subs: []model.Subscription{
		subscription("paused", "LinkedIn", 2499, model.SubscriptionPaused, true),
		subscription("manual", "Notion", 800, model.SubscriptionActive, false),
		subscription("netflix", "Netflix", 499, model.SubscriptionActive, true),
		subscription("spotify", "Spotify", 119, model.SubscriptionActive, true),
	}}
	runner := &countingRunner{}
	// Picks Netflix, rolls an increase, then 15 + 15 = 30 percent.
	rnd := &scriptedRandom{ints: []int{0, 15}, floats: []float64{0.1}}

	result, err := newSimulator(store, runner, rnd).SimulateAutoPay(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Transaction.PriceIncreased)
	assert.Equal(t, 30, result.Transaction.PercentageIncrease)
	assert.Equal(t, "Netflix", result.Transaction.Merchant)
	// 499 * 1.3 = 648.7 rounds to 649.
	assert.Equal(t, 649.0, result.Transaction.Amount)
	assert.Equal(t, "txn-1", result.Transaction.ID)
	assert.Equal(t, "Netflix price increased by 30% and was flagged for review", result.Message)
	assert.True(t, result.Success)
	assert.Equal(t, 1, runner.calls)

	netflix := store.subs[2]
	assert.Equal(t, 649.0, netflix.CurrentAmount)
	require.NotNil(t, netflix.PreviousAmount)
	assert.Equal(t, 499.0, *netflix.PreviousAmount)

	require.Len(t, store.txns, 1)
	txn := store.txns[0]
	assert.Equal(t, model.TransactionAutoPay, txn.Type)
	assert.Equal(t, model.TransactionSuccess, txn.Status)
	assert.Equal(t, "netflix", txn.SubscriptionID)
	assert.Equal(t, 649.0, txn.Amount)
	assert.Equal(t, testNow, txn.Date)
}

func TestSimulateAutoPay_PlainCharge(t *testing.T) {
	store := &memoryStore{subs: []model.Subscription{
		subscription("netflix", "Netflix", 499, model.SubscriptionActive, true),
		subscription("spotify", "Spotify", 119, model.SubscriptionActive, true),
	}}
	runner := &countingRunner{}
	rnd := &scriptedRandom{ints: []int{1}, floats: []float64{0.3}}

	result, err := newSimulator(store, runner, rnd).SimulateAutoPay(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Transaction.PriceIncreased)
	assert.Zero(t, result.Transaction.PercentageIncrease)
	assert.Equal(t, 119.0, result.Transaction.Amount)
	assert.Equal(t, "Spotify auto-pay processed and analyzed", result.Message)
	assert.Nil(t, store.subs[1].PreviousAmount)
	assert.Len(t, store.txns, 1)
	assert.Equal(t, 1, runner.calls)
}

func TestSimulateAutoPay_IncreaseRange(t *testing.T) {
	tests := []struct {
		roll        int
		wantPercent int
		wantAmount  float64
	}{
		{roll: 0, wantPercent: 15, wantAmount: 115},
		{roll: 19, wantPercent: 34, wantAmount: 134},
	}

	for _, tt := range tests {
		store := &memoryStore{subs: []model.Subscription{subscription("s", "Service", 100, model.SubscriptionActive, true)}}
		rnd := &scriptedRandom{ints: []int{0, tt.roll}, floats: []float64{0}}

		result, err := newSimulator(store, &countingRunner{}, rnd).SimulateAutoPay(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.wantPercent, result.Transaction.PercentageIncrease)
		assert.Equal(t, tt.wantAmount, result.Transaction.Amount)
	}
}

func TestSimulateAutoPay_SmallAmountStillIncreases(t *testing.T) {
	tests := []struct {
		name        string
		amount      float64
		wantAmount  float64
		wantPercent int
	}{
		// 3 * 1.15 = 3.45 rounds back to 3.
		{name: "rounds to same price", amount: 3, wantAmount: 4, wantPercent: 33},
		// 1.3 * 1.15 = 1.495 rounds below the old price.
		{name: "rounds below old price", amount: 1.3, wantAmount: 2, wantPercent: 54},
		{name: "large enough", amount: 7, wantAmount: 8, wantPercent: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{subs: []model.Subscription{subscription("s", "Service", tt.amount, model.SubscriptionActive, true)}}
			rnd := &scriptedRandom{ints: []int{0, 0}, floats: []float64{0}}

			result, err := newSimulator(store, &countingRunner{}, rnd).SimulateAutoPay(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantAmount, result.Transaction.Amount)
			assert.Equal(t, tt.wantPercent, result.Transaction.PercentageIncrease)

			sub := store.subs[0]
			require.NotNil(t, sub.PreviousAmount)
			assert.Equal(t, tt.amount, *sub.PreviousAmount)
			assert.Equal(t, tt.wantAmount, sub.CurrentAmount)
			assert.True(t, sub.PriceChanged())
		})
	}
}

func TestSimulateAutoPay_NoEligibleSubscription(t *testing.T) {
	store := &memoryStore{subs: []model.Subscription{
		subscription("paused", "LinkedIn", 2499, model.SubscriptionPaused, true),
		subscription("manual", "Notion", 800, model.SubscriptionActive, false),
	}}
	runner := &countingRunner{}

	_, err := newSimulator(store, runner, &scriptedRandom{}).SimulateAutoPay(context.Background())
	assert.ErrorIs(t, err, ErrNoEligibleSubscription)
	assert.Zero(t, runner.calls)
	assert.Empty(t, store.txns)
}

func TestSimulateAutoPay_UpdateFailure(t *testing.T) {
	store := &memoryStore{
		subs:      []model.Subscription{subscription("s", "Service", 100, model.SubscriptionActive, true)},
		updateErr: errors.New("locked"),
	}
	runner := &countingRunner{}
	rnd := &scriptedRandom{ints: []int{0, 5}, floats: []float64{0.2}}

	_, err := newSimulator(store, runner, rnd).SimulateAutoPay(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.txns)
	assert.Zero(t, runner.calls)
}

func TestSimulateAutoPay_PipelineFailure(t *testing.T) {
	store := &memoryStore{subs: []model.Subscription{subscription("s", "Service", 100, model.SubscriptionActive, true)}}
	runner := &countingRunner{err: errors.New("store unavailable")}
	rnd := &scriptedRandom{ints: []int{0}, floats: []float64{0.9}}

	result, err := newSimulator(store, runner, rnd).SimulateAutoPay(context.Background())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	// The charge is recorded even though analysis failed.
	assert.Len(t, store.txns, 1)
}

func TestCheckout(t *testing.T) {
	tests := []struct {
		name     string
		req      CheckoutRequest
		wantNext time.Time
	}{
		{
			name:     "monthly",
			req:      CheckoutRequest{Merchant: " Disney+ ", Amount: 299, Category: "Entertainment"},
			wantNext: time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "yearly",
			req:      CheckoutRequest{Merchant: "Canva", Amount: 3999, BillingCycle: model.CycleYearly},
			wantNext: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			runner := &countingRunner{}

			result, err := newSimulator(store, runner, &scriptedRandom{}).Checkout(context.Background(), tt.req)
			require.NoError(t, err)

			sub := result.Subscription
			assert.Equal(t, "new-sub", sub.ID)
			assert.NotContains(t, sub.Merchant, " ")
			assert.Equal(t, model.SubscriptionActive, sub.Status)
			assert.True(t, sub.AutoPayEnabled)
			assert.Equal(t, tt.wantNext, sub.NextBillingDate)
			assert.NotEmpty(t, sub.Category)

			require.Len(t, store.txns, 1)
			assert.Equal(t, "new-sub", store.txns[0].SubscriptionID)
			assert.Equal(t, tt.req.Amount, store.txns[0].Amount)
			assert.Equal(t, model.TransactionManual, store.txns[0].Type)
			assert.Equal(t, 1, runner.calls)
			assert.True(t, result.Success)
		})
	}
}

func TestCheckout_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  CheckoutRequest
	}{
		{name: "missing merchant", req: CheckoutRequest{Amount: 100}},
		{name: "zero amount", req: CheckoutRequest{Merchant: "X"}},
		{name: "bad cycle", req: CheckoutRequest{Merchant: "X", Amount: 1, BillingCycle: "weekly"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			runner := &countingRunner{}
			_, err := newSimulator(store, runner, &scriptedRandom{}).Checkout(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidCheckout)
			assert.Empty(t, store.subs)
			assert.Zero(t, runner.calls)
		})
	}
}
