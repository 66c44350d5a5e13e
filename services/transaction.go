package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coinpilot/coinpilot-api/models"

	"github.com/google/uuid"
)

type TransactionService struct {
	db *sql.DB
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{db: db}
}

// TransactionFilter narrows a listing. Zero values mean "all".
type TransactionFilter struct {
	Type       string
	CategoryID string
	DateFilter string // today, week, month, year
	Limit      int
}

func (f TransactionFilter) since(now time.Time) (time.Time, bool) {
	switch f.DateFilter {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), true
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}

func (s *TransactionService) List(ctx context.Context, userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.amount, COALESCE(t.description, ''),
		       COALESCE(t.category_id::text, ''), t.type, COALESCE(t.payment_method, ''),
		       t.transaction_date, t.created_at,
		       COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, '')
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = $1
	`
	args := []any{userID}

	if filter.Type != "" && filter.Type != "all" {
		args = append(args, filter.Type)
		query += fmt.Sprintf(" AND t.type = $%d", len(args))
	}
	if filter.CategoryID != "" && filter.CategoryID != "all" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if since, ok := filter.since(time.Now()); ok {
		args = append(args, since)
		query += fmt.Sprintf(" AND t.transaction_date >= $%d", len(args))
	}

	query += " ORDER BY t.transaction_date DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var catName, catIcon, catColor string
		err := rows.Scan(
			&t.ID, &t.UserID, &t.Amount, &t.Description,
			&t.CategoryID, &t.Type, &t.PaymentMethod,
			&t.TransactionDate, &t.CreatedAt,
			&catName, &catIcon, &catColor,
		)
		if err != nil {
			return nil, err
		}
		if t.CategoryID != "" {
			t.Category = &models.Category{ID: t.CategoryID, Name: catName, Icon: catIcon, Color: catColor}
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *TransactionService) Create(ctx context.Context, userID string, req models.CreateTransactionRequest) (models.Transaction, error) {
	transactionDate, err := time.Parse(time.RFC3339, req.TransactionDate)
	if err != nil {
		if transactionDate, err = time.Parse("2006-01-02", req.TransactionDate); err != nil {
			return models.Transaction{}, fmt.Errorf("invalid transaction_date %q: %w", req.TransactionDate, err)
		}
	}

	t := models.Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          req.Amount,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		Type:            models.TransactionType(req.Type),
		PaymentMethod:   req.PaymentMethod,
		TransactionDate: transactionDate,
		CreatedAt:       time.Now(),
	}

	var categoryID any
	if t.CategoryID != "" {
		categoryID = t.CategoryID
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, description, category_id, type, payment_method, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.UserID, t.Amount, t.Description, categoryID, t.Type, t.PaymentMethod, t.TransactionDate, t.CreatedAt)
	if err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TransactionService) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(icon, ''), COALESCE(color, '')
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Stats computes the dashboard header figures: all-time balance plus the
// current month's income and expenses.
func (s *TransactionService) Stats(ctx context.Context, userID string) (models.Stats, error) {
	var stats models.Stats

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0),
		       COUNT(*)
		FROM transactions
		WHERE user_id = $1
	`, userID).Scan(&stats.TotalBalance, &stats.TransactionCount)
	if err != nil {
		return models.Stats{}, err
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0)

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE user_id = $1 AND transaction_date >= $2 AND transaction_date < $3
	`, userID, startOfMonth, endOfMonth).Scan(&stats.MonthlyIncome, &stats.MonthlyExpenses)
	if err != nil {
		return models.Stats{}, err
	}

	return stats, nil
}

// CategoryReport breaks down all-time expense spend per category.
func (s *TransactionService) CategoryReport(ctx context.Context, userID string) ([]models.CategoryReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(c.name, 'Sin categoría'),
		       COALESCE(c.icon, '📦'),
		       COALESCE(c.color, '#64748b'),
		       SUM(t.amount)
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = $1 AND t.type = 'expense'
		GROUP BY c.name, c.icon, c.color
		ORDER BY SUM(t.amount) DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var report []models.CategoryReport
	for rows.Next() {
		var r models.CategoryReport
		if err := rows.Scan(&r.Name, &r.Icon, &r.Color, &r.Value); err != nil {
			return nil, err
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

// MonthlyReport returns income/expense/balance for each of the last 12
// calendar months, oldest first.
func (s *TransactionService) MonthlyReport(ctx context.Context, userID string) ([]models.MonthlyReport, error) {
	now := time.Now()
	var report []models.MonthlyReport

	for i := 11; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)

		var income, expenses float64
		err := s.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0),
			       COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0)
			FROM transactions
			WHERE user_id = $1 AND transaction_date >= $2 AND transaction_date < $3
		`, userID, start, end).Scan(&income, &expenses)
		if err != nil {
			return nil, err
		}

		report = append(report, models.MonthlyReport{
			Month:    start.Format("Jan 06"),
			Income:   income,
			Expenses: expenses,
			Balance:  income - expenses,
		})
	}
	return report, nil
}
