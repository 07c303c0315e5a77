package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/Veraticus/subscription-sentinel/internal/model"
)

// Store is what an import needs from persistence.
type Store interface {
	GetSubscriptions(ctx context.Context) ([]model.Subscription, error)
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
}

// ImportResult summarizes an import.
type ImportResult struct {
	Parsed   int
	Linked   int
	Inserted int
}

// Import parses a statement, links each transaction to a subscription with the same
// merchant and stores the transactions. Existing transactions are left untouched.
func Import(ctx context.Context, store Store, reader io.Reader) (ImportResult, error) {
	var result ImportResult

	txns, err := NewParser().ParseFile(ctx, reader)
	if err != nil {
		return result, err
	}
	result.Parsed = len(txns)

	subs, err := store.GetSubscriptions(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	result.Linked = Link(txns, subs)

	result.Inserted, err = store.SaveTransactions(ctx, txns)
	if err != nil {
		return result, fmt.Errorf("failed to save transactions: %w", err)
	}

	slog.Info("Imported statement",
		"parsed", result.Parsed,
		"linked", result.Linked,
		"inserted", result.Inserted)
	return result, nil
}

// Link sets SubscriptionID and Category on every transaction whose merchant matches a
// subscription, ignoring case, punctuation and a trailing ".com". It returns the number
// of linked transactions. Uncategorized transactions get "Other".
func Link(txns []model.Transaction, subs []model.Subscription) int {
	byMerchant := make(map[string]model.Subscription, len(subs))
	for _, sub := range subs {
		key := merchantKey(sub.Merchant)
		if _, exists := byMerchant[key]; !exists && key != "" {
			byMerchant[key] = sub
		}
	}

	linked := 0
	for i := range txns {
		sub, ok := byMerchant[merchantKey(txns[i].Merchant)]
		if !ok {
			if txns[i].Category == "" {
				txns[i].Category = "Other"
			}
			continue
		}
		txns[i].SubscriptionID = sub.ID
		txns[i].Category = sub.Category
		linked++
	}
	return linked
}

// merchantKey normalizes a merchant name for matching: "NETFLIX.COM*1A2B" and
// "Netflix" share a key.
func merchantKey(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(name, '*'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, ".com")

	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
