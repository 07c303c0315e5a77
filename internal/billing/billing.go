// Package billing simulates payment events that trigger a pipeline run: a scheduled
// auto-pay charge and the checkout of a new subscription.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/Veraticus/subscription-sentinel/internal/money"
	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/Veraticus/subscription-sentinel/internal/service"
)

// Simulation constants.
const (
	priceIncreaseChance = 0.3
	minIncreasePercent  = 15
	increaseSpread      = 20 // increases fall in [15, 34]
)

var (
	// ErrNoEligibleSubscription is returned when no active subscription has auto-pay enabled.
	ErrNoEligibleSubscription = errors.New("no active subscription with auto-pay enabled")
	// ErrInvalidCheckout is returned for an incomplete checkout request.
	ErrInvalidCheckout = errors.New("invalid checkout request")
)

// Random is the source of randomness for the simulation. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// Charge describes the simulated payment.
type Charge struct {
	ID                 string  `json:"id"`
	Merchant           string  `json:"merchant"`
	Amount             float64 `json:"amount"`
	PercentageIncrease int     `json:"percentageIncrease,omitempty"`
	PriceIncreased     bool    `json:"priceIncreased"`
}

// SimulationResult is the pipeline result of the run triggered by a charge.
type SimulationResult struct {
	*pipeline.Result
	Transaction Charge `json:"transaction"`
	Message     string `json:"message"`
}

// CheckoutRequest describes a new subscription purchase.
type CheckoutRequest struct {
	Merchant     string             `json:"merchant"`
	Category     string             `json:"category"`
	BillingCycle model.BillingCycle `json:"billingCycle"`
	Amount       float64            `json:"amount"`
}

// CheckoutResult is the created subscription with the pipeline result it triggered.
type CheckoutResult struct {
	*pipeline.Result
	Subscription *model.Subscription `json:"subscription"`
	Transaction  *model.Transaction  `json:"transaction"`
}

// Simulator produces billing events against a store.
type Simulator struct {
	store  service.BillingStore
	runner pipeline.Runner
	rnd    Random
	now    func() time.Time
	mu     sync.Mutex
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRandom replaces the default random source.
func WithRandom(r Random) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithClock sets the time source for transaction and billing dates.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulator creates a simulator that runs runner after every event.
func NewSimulator(store service.BillingStore, runner pipeline.Runner, opts ...Option) *Simulator {
	s := &Simulator{
		store:  store,
		runner: runner,
		rnd:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)), //nolint:gosec // simulation only
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimulateAutoPay charges a random active auto-pay subscription. With 30% probability
// the price rises by 15 to 34 percent first. The pipeline runs after the charge is
// recorded; its error, if any, is returned alongside the result.
func (s *Simulator) SimulateAutoPay(ctx context.Context) (*SimulationResult, error) {
	subs, err := s.store.GetSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	var eligible []model.Subscription
	for _, sub := range subs {
		if sub.IsActive() && sub.AutoPayEnabled {
			eligible = append(eligible, sub)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleSubscription
	}

	// Draws are serialized so a shared source stays safe.
	s.mu.Lock()
	sub := eligible[s.rnd.IntN(len(eligible))]
	increase := s.rnd.Float64() < priceIncreaseChance
	percent := 0
	if increase {
		percent = s.rnd.IntN(increaseSpread) + minIncreasePercent
	}
	s.mu.Unlock()

	charge := Charge{Merchant: sub.Merchant, Amount: sub.CurrentAmount}
	if increase {
		previous := sub.CurrentAmount
		current := money.Round(previous * (1 + float64(percent)/100))
		// Rounding can swallow the increase on small amounts.
		if current <= previous {
			current = math.Floor(previous) + 1
			percent = money.PercentageChange(previous, current)
		}
		if _, err := s.store.UpdateSubscription(ctx, sub.ID, model.SubscriptionUpdate{
			PreviousAmount: &previous,
			CurrentAmount:  &current,
		}); err != nil {
			return nil, fmt.Errorf("failed to apply price increase to %s: %w", sub.Merchant, err)
		}
		charge.Amount = current
		charge.PriceIncreased = true
		charge.PercentageIncrease = percent
		slog.Info("Simulated price increase",
			"merchant", sub.Merchant,
			"previous", previous,
			"current", current,
			"percent", percent)
	}

	txn := &model.Transaction{
		Date:           s.now(),
		Merchant:       sub.Merchant,
		SubscriptionID: sub.ID,
		Category:       sub.Category,
		Type:           model.TransactionAutoPay,
		Status:         model.TransactionSuccess,
		Amount:         charge.Amount,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record auto-pay for %s: %w", sub.Merchant, err)
	}
	charge.ID = txn.ID
	slog.Info("Simulated auto-pay charge", "merchant", sub.Merchant, "amount", charge.Amount)

	result, runErr := s.runner.Run(ctx)
	out := &SimulationResult{
		Result:      result,
		Transaction: charge,
		Message:     fmt.Sprintf("%s auto-pay processed and analyzed", sub.Merchant),
	}
	if increase {
		out.Message = fmt.Sprintf("%s price increased by %d%% and was flagged for review", sub.Merchant, percent)
	}
	return out, runErr
}

// Checkout creates an active auto-pay subscription with its first payment, then runs
// the pipeline.
func (s *Simulator) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	req.Merchant = strings.TrimSpace(req.Merchant)
	if req.Merchant == "" {
		return nil, fmt.Errorf("%w: merchant is required", ErrInvalidCheckout)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidCheckout)
	}
	if req.BillingCycle == "" {
		req.BillingCycle = model.CycleMonthly
	}
	if !req.BillingCycle.Valid() {
		return nil, fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidCheckout, req.BillingCycle)
	}
	if req.Category == "" {
		req.Category = "Other"
	}

	now := s.now()
	next := now.AddDate(0, 1, 0)
	if req.BillingCycle == model.CycleYearly {
		next = now.AddDate(1, 0, 0)
	}

	sub := &model.Subscription{
		Merchant:        req.Merchant,
		CurrentAmount:   req.Amount,
		BillingCycle:    req.BillingCycle,
		Status:          model.SubscriptionActive,
		LastUsedDate:    &now,
		NextBillingDate: next,
		Category:        req.Category,
		AutoPayEnabled:  true,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	txn := &model.Transaction{
		Date:           now,
		Merchant:       sub.Merchant,
		SubscriptionID: sub.ID,
		Category:       sub.Category,
		Type:           model.TransactionManual,
		Status:         model.TransactionSuccess,
		Amount:         sub.CurrentAmount,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record first payment: %w", err)
	}
	slog.Info("Checkout completed", "merchant", sub.Merchant, "amount", sub.CurrentAmount, "cycle", sub.BillingCycle)

	result, runErr := s.runner.Run(ctx)
	return &CheckoutResult{Result: result, Subscription: sub, Transaction: txn}, runErr
}
