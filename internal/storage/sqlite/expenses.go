package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voyago/tripsync/internal/models"
	"github.com/voyago/tripsync/internal/storage"
)

const expenseCols = "id, trip_id, paid_by_id, description, amount, currency, category, server_id, created_at, updated_at, is_synced"

const splitCols = "id, expense_id, participant_id, amount, settled, server_id, created_at, updated_at, is_synced"

func scanExpense(row interface{ Scan(...any) error }) (models.Expense, error) {
	var e models.Expense
	var sid sql.NullString
	err := row.Scan(&e.LocalID, &e.TripID, &e.PaidByID, &e.Description, &e.Amount,
		&e.Currency, &e.Category, &sid, &e.CreatedAt, &e.UpdatedAt, &e.IsSynced)
	e.ServerID = fromNull(sid)
	return e, err
}

func scanSplit(row interface{ Scan(...any) error }) (models.ExpenseSplit, error) {
	var sp models.ExpenseSplit
	var sid sql.NullString
	err := row.Scan(&sp.LocalID, &sp.ExpenseID, &sp.ParticipantID, &sp.Amount,
		&sp.Settled, &sid, &sp.CreatedAt, &sp.UpdatedAt, &sp.IsSynced)
	sp.ServerID = fromNull(sid)
	return sp, err
}

// CreateExpense persists a new expense row.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	ensureMeta(&e.SyncMeta)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expenses ("+expenseCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			e.LocalID, e.TripID, e.PaidByID, e.Description, e.Amount, e.Currency, e.Category,
			nullable(e.ServerID), e.CreatedAt, e.UpdatedAt, e.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return nil
	})
}

// ListExpensesByTrip returns a trip's expenses, newest first.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID string) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseCols+" FROM expenses WHERE trip_id = ? ORDER BY created_at DESC", tripID)
}

// ListPendingExpenses returns expenses awaiting push.
func (s *SQLiteStore) ListPendingExpenses(ctx context.Context) ([]models.Expense, error) {
	return s.queryExpenses(ctx,
		"SELECT "+expenseCols+" FROM expenses WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense rewrites an expense's domain fields and resets is_synced.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET paid_by_id = ?, description = ?, amount = ?, currency = ?,
			 category = ?, updated_at = ?, is_synced = 0 WHERE id = ?`,
			e.PaidByID, e.Description, e.Amount, e.Currency, e.Category,
			time.Now().Unix(), e.LocalID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check update result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("expense %s: %w", e.LocalID, storage.ErrNotFound)
		}
		e.IsSynced = false
		return nil
	})
}

// CreateExpenseSplit persists a new expense split row.
func (s *SQLiteStore) CreateExpenseSplit(ctx context.Context, sp *models.ExpenseSplit) error {
	ensureMeta(&sp.SyncMeta)

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits ("+splitCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			sp.LocalID, sp.ExpenseID, sp.ParticipantID, sp.Amount, sp.Settled,
			nullable(sp.ServerID), sp.CreatedAt, sp.UpdatedAt, sp.IsSynced,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
		return nil
	})
}

// ListSplitsByExpense returns the splits of an expense.
func (s *SQLiteStore) ListSplitsByExpense(ctx context.Context, expenseID string) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		"SELECT "+splitCols+" FROM expense_splits WHERE expense_id = ? ORDER BY created_at", expenseID)
}

// ListPendingExpenseSplits returns splits awaiting push.
func (s *SQLiteStore) ListPendingExpenseSplits(ctx context.Context) ([]models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		"SELECT "+splitCols+" FROM expense_splits WHERE is_synced = 0 AND server_id IS NULL ORDER BY created_at ASC")
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, args ...any) ([]models.ExpenseSplit, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense splits: %w", err)
	}
	defer rows.Close()

	var splits []models.ExpenseSplit
	for rows.Next() {
		sp, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense split: %w", err)
		}
		splits = append(splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return splits, nil
}
