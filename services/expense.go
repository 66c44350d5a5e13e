package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/coinpilot/coinpilot-api/models"

	"github.com/google/uuid"
)

var ErrExpenseNotFound = errors.New("expense not found")

// ExpenseStore persists recurring expenses. The engine itself never
// touches storage; everything goes through this interface so the date
// logic stays testable against an in-memory implementation.
type ExpenseStore interface {
	List(ctx context.Context, userID string) ([]models.Expense, error)
	Get(ctx context.Context, userID, id string) (models.Expense, error)
	Insert(ctx context.Context, e models.Expense) error
	Save(ctx context.Context, e models.Expense) error
	Apply(ctx context.Context, userID string, upd ExpenseUpdate) error
	Delete(ctx context.Context, userID, id string) error
	Owners(ctx context.Context) ([]string, error)
}

// Clock supplies the current time. Injected so due-date decisions are
// deterministic in tests.
type Clock func() time.Time

type ExpenseService struct {
	store ExpenseStore
	now   Clock
}

func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{store: &postgresExpenseStore{db: db}, now: time.Now}
}

// NewExpenseServiceWith wires an explicit store and clock.
func NewExpenseServiceWith(store ExpenseStore, now Clock) *ExpenseService {
	return &ExpenseService{store: store, now: now}
}

func (s *ExpenseService) today() time.Time {
	t := s.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *ExpenseService) List(ctx context.Context, userID string) ([]models.Expense, error) {
	return s.store.List(ctx, userID)
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (models.Expense, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *ExpenseService) Create(ctx context.Context, userID string, req models.CreateExpenseRequest) (models.Expense, error) {
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return models.Expense{}, err
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return models.Expense{}, fmt.Errorf("invalid due_date %q: %w", req.DueDate, err)
	}
	if !models.ValidExpenseCategory(req.Category) {
		return models.Expense{}, fmt.Errorf("unknown category %q", req.Category)
	}

	expense := models.Expense{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Amount:      req.Amount,
		Category:    req.Category,
		Frequency:   frequency,
		DueDate:     dueDate,
		IsActive:    true,
		IsPaid:      false,
		Description: req.Description,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	}
	if err := ValidateExpense(expense); err != nil {
		return models.Expense{}, err
	}
	if err := s.store.Insert(ctx, expense); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, req models.UpdateExpenseRequest) (models.Expense, error) {
	expense, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return models.Expense{}, err
	}
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return models.Expense{}, err
	}
	dueDate, err := time.Parse("2006-01-02", req.DueDate)
	if err != nil {
		return models.Expense{}, fmt.Errorf("invalid due_date %q: %w", req.DueDate, err)
	}
	if !models.ValidExpenseCategory(req.Category) {
		return models.Expense{}, fmt.Errorf("unknown category %q", req.Category)
	}

	expense.Name = req.Name
	expense.Amount = req.Amount
	expense.Category = req.Category
	expense.Frequency = frequency
	expense.DueDate = dueDate
	expense.Description = req.Description
	expense.UpdatedAt = s.now()

	if err := ValidateExpense(expense); err != nil {
		return models.Expense{}, err
	}
	if err := s.store.Save(ctx, expense); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.store.Delete(ctx, userID, id)
}

func (s *ExpenseService) ToggleActive(ctx context.Context, userID, id string) (models.Expense, error) {
	expense, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return models.Expense{}, err
	}
	expense.IsActive = !expense.IsActive
	expense.UpdatedAt = s.now()
	if err := s.store.Save(ctx, expense); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// MarkPaid runs the pay-and-rollover transition and persists the result.
func (s *ExpenseService) MarkPaid(ctx context.Context, userID, id string) (models.Expense, error) {
	expense, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return models.Expense{}, err
	}
	paid, err := MarkAsPaid(expense, s.today())
	if err != nil {
		return models.Expense{}, err
	}
	paid.UpdatedAt = s.now()
	if err := s.store.Save(ctx, paid); err != nil {
		return models.Expense{}, err
	}
	return paid, nil
}

// ReactivateDue re-opens expenses whose paid cycle has elapsed. Each
// record is persisted independently; a failing write is collected and
// does not block the rest of the batch.
func (s *ExpenseService) ReactivateDue(ctx context.Context, userID string) (int, error) {
	expenses, err := s.store.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.applyAll(ctx, userID, AutoReactivate(expenses, s.today()))
}

// ResetAll clears paid state on every active expense without moving due
// dates.
func (s *ExpenseService) ResetAll(ctx context.Context, userID string) (int, error) {
	expenses, err := s.store.List(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.applyAll(ctx, userID, ResetAllActive(expenses))
}

func (s *ExpenseService) applyAll(ctx context.Context, userID string, updates []ExpenseUpdate) (int, error) {
	applied := 0
	var errs []error
	for _, upd := range updates {
		if err := s.store.Apply(ctx, userID, upd); err != nil {
			errs = append(errs, fmt.Errorf("expense %s: %w", upd.ID, err))
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// Summary computes the three dashboard aggregates from a single
// snapshot.
func (s *ExpenseService) Summary(ctx context.Context, userID string) (models.ExpenseSummary, error) {
	expenses, err := s.store.List(ctx, userID)
	if err != nil {
		return models.ExpenseSummary{}, err
	}
	summary := models.ExpenseSummary{
		PendingMonthly: TotalMonthly(expenses, ActiveUnpaid),
		PaidMonthly:    TotalMonthly(expenses, ActivePaid),
		ReserveMonthly: TotalMonthly(expenses, Active),
	}
	for _, e := range expenses {
		if e.IsActive {
			summary.ActiveCount++
		}
	}
	return summary, nil
}

// SweepAllUsers runs the reactivation pass for every owner with stored
// expenses. Used by the daily background sweep.
func (s *ExpenseService) SweepAllUsers(ctx context.Context) (int, error) {
	owners, err := s.store.Owners(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for _, userID := range owners {
		n, err := s.ReactivateDue(ctx, userID)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}
