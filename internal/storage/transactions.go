package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/subscription-sentinel/internal/common"
	"github.com/Veraticus/subscription-sentinel/internal/model"
	"github.com/google/uuid"
)

// CreateTransaction records a payment event. Transactions are never updated.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	if _, err := insertTransaction(ctx, s.db, txn, false); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transaction %s: %w", txn.ID, common.ErrDuplicateEntry)
		}
		return err
	}
	return nil
}

// SaveTransactions records a batch of imported transactions in a single database
// transaction. Rows whose ID already exists are skipped, so re-importing a statement
// is harmless. It returns the number of rows actually inserted.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range transactions {
		if err := validateTransaction(&transactions[i]); err != nil {
			return 0, fmt.Errorf("transaction at index %d: %w", i, err)
		}
	}

	inserted := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range transactions {
			txn := &transactions[i]
			if txn.ID == "" {
				txn.ID = uuid.NewString()
			}
			affected, err := insertTransaction(ctx, tx, txn, true)
			if err != nil {
				return err
			}
			inserted += int(affected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save transactions: %w", err)
	}
	return inserted, nil
}

func insertTransaction(ctx context.Context, q queryable, txn *model.Transaction, ignoreExisting bool) (int64, error) {
	verb := "INSERT"
	if ignoreExisting {
		verb = "INSERT OR IGNORE"
	}

	var subscriptionID any
	if txn.SubscriptionID != "" {
		subscriptionID = txn.SubscriptionID
	}

	result, err := q.ExecContext(ctx, verb+` INTO transactions (
			id, date, merchant, amount, transaction_type, status, subscription_id, category
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Date, txn.Merchant, txn.Amount, string(txn.Type), string(txn.Status),
		subscriptionID, txn.Category,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}
	return result.RowsAffected()
}

// GetTransactions returns every transaction, newest first.
func (s *SQLiteStorage) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, merchant, amount, transaction_type, status,
			COALESCE(subscription_id, ''), category
		FROM transactions
		ORDER BY date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var txn model.Transaction
		if err := rows.Scan(
			&txn.ID, &txn.Date, &txn.Merchant, &txn.Amount, &txn.Type, &txn.Status,
			&txn.SubscriptionID, &txn.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}
