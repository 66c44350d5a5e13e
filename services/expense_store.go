package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/coinpilot/coinpilot-api/models"
)

type postgresExpenseStore struct {
	db *sql.DB
}

const expenseColumns = `id, user_id, name, amount, category, frequency, due_date, last_paid_date, is_active, is_paid, COALESCE(description, ''), created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (models.Expense, error) {
	var e models.Expense
	var lastPaid sql.NullTime
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.Name,
		&e.Amount,
		&e.Category,
		&e.Frequency,
		&e.DueDate,
		&lastPaid,
		&e.IsActive,
		&e.IsPaid,
		&e.Description,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return models.Expense{}, err
	}
	if lastPaid.Valid {
		t := lastPaid.Time
		e.LastPaidDate = &t
	}
	return e, nil
}

func (s *postgresExpenseStore) List(ctx context.Context, userID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE user_id = $1
		ORDER BY due_date ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *postgresExpenseStore) Get(ctx context.Context, userID, id string) (models.Expense, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return models.Expense{}, ErrExpenseNotFound
	}
	return e, err
}

func (s *postgresExpenseStore) Insert(ctx context.Context, e models.Expense) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, name, amount, category, frequency, due_date, last_paid_date, is_active, is_paid, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, e.ID, e.UserID, e.Name, e.Amount, e.Category, e.Frequency, e.DueDate, nullTime(e.LastPaidDate), e.IsActive, e.IsPaid, e.Description, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *postgresExpenseStore) Save(ctx context.Context, e models.Expense) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET name = $1, amount = $2, category = $3, frequency = $4,
		    due_date = $5, last_paid_date = $6, is_active = $7, is_paid = $8,
		    description = $9, updated_at = $10
		WHERE id = $11 AND user_id = $12
	`, e.Name, e.Amount, e.Category, e.Frequency, e.DueDate, nullTime(e.LastPaidDate), e.IsActive, e.IsPaid, e.Description, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Apply writes only the fields the update carries, leaving the rest of
// the row untouched.
func (s *postgresExpenseStore) Apply(ctx context.Context, userID string, upd ExpenseUpdate) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET is_paid = COALESCE($1, is_paid),
		    due_date = COALESCE($2, due_date),
		    last_paid_date = CASE WHEN $3 THEN NULL ELSE last_paid_date END,
		    updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`, nullBool(upd.IsPaid), nullTime(upd.DueDate), upd.ClearLastPaid, upd.ID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *postgresExpenseStore) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *postgresExpenseStore) Owners(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM expenses WHERE is_active = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrExpenseNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
