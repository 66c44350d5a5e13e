package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/coinpilot/coinpilot-api/models"
)

// ErrAlreadyPaid signals a mark-as-paid call on an expense whose current
// cycle was already paid. Paying twice would double-advance the due date.
var ErrAlreadyPaid = errors.New("expense is already marked as paid")

// MonthlyEquivalent normalizes a per-occurrence amount to a per-month
// figure so mixed cadences can be summed together.
func MonthlyEquivalent(amount float64, frequency models.Frequency) float64 {
	switch frequency {
	case models.FrequencyWeekly:
		return amount * 4.33
	case models.FrequencyBiweekly:
		return amount * 2.17
	case models.FrequencyQuarterly:
		return amount / 3
	case models.FrequencyYearly:
		return amount / 12
	default:
		// monthly, plus anything that slipped past validation
		return amount
	}
}

// ExpensePredicate selects which expenses a total should include.
type ExpensePredicate func(models.Expense) bool

var (
	// ActiveUnpaid selects what is still owed this cycle.
	ActiveUnpaid ExpensePredicate = func(e models.Expense) bool { return e.IsActive && !e.IsPaid }
	// ActivePaid selects what was already paid this cycle.
	ActivePaid ExpensePredicate = func(e models.Expense) bool { return e.IsActive && e.IsPaid }
	// Active selects the steady-state monthly burden regardless of
	// where in the cycle the user currently is.
	Active ExpensePredicate = func(e models.Expense) bool { return e.IsActive }
)

// TotalMonthly sums the monthly equivalents of every expense the
// predicate keeps. Order-independent; empty input yields 0.
func TotalMonthly(expenses []models.Expense, keep ExpensePredicate) float64 {
	var total float64
	for _, e := range expenses {
		if keep(e) {
			total += MonthlyEquivalent(e.Amount, e.Frequency)
		}
	}
	return total
}

// NextDueDate advances a due date by exactly one cadence step. Month
// steps keep the day-of-month, clamping to the last day when the target
// month is shorter (Jan 31 -> Feb 29 in a leap year).
func NextDueDate(due time.Time, frequency models.Frequency) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return due.AddDate(0, 0, 7)
	case models.FrequencyBiweekly:
		return due.AddDate(0, 0, 14)
	case models.FrequencyQuarterly:
		return addMonthsClamped(due, 3)
	case models.FrequencyYearly:
		return addMonthsClamped(due, 12)
	default:
		return addMonthsClamped(due, 1)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MarkAsPaid records a payment: the expense is flagged paid for the
// cycle just completed and the due date jumps forward immediately. The
// caller persists the returned record.
func MarkAsPaid(e models.Expense, today time.Time) (models.Expense, error) {
	if e.IsPaid {
		return e, ErrAlreadyPaid
	}
	paidOn := today
	e.IsPaid = true
	e.LastPaidDate = &paidOn
	e.DueDate = NextDueDate(e.DueDate, e.Frequency)
	return e, nil
}

// ExpenseUpdate is one pending store write produced by a batch
// operation. Nil pointer fields are left untouched by the store.
type ExpenseUpdate struct {
	ID            string
	IsPaid        *bool
	DueDate       *time.Time
	ClearLastPaid bool
}

// AutoReactivate flips expenses back to unpaid once the cycle they were
// paid for has elapsed. The stored due date was already advanced by
// MarkAsPaid, so a due date in the past means the next occurrence is
// itself due: emit an update clearing the paid flag and advancing the
// stale date one more step.
//
// Catch-up is deliberately single-step. When several cycles elapsed
// unseen, each subsequent run advances one more step until the due date
// is current again. Re-running with the same today is a no-op after the
// first pass, since the paid flag is already cleared.
func AutoReactivate(expenses []models.Expense, today time.Time) []ExpenseUpdate {
	var updates []ExpenseUpdate
	for _, e := range expenses {
		if !e.IsActive || !e.IsPaid || !today.After(e.DueDate) {
			continue
		}
		unpaid := false
		next := NextDueDate(e.DueDate, e.Frequency)
		updates = append(updates, ExpenseUpdate{
			ID:      e.ID,
			IsPaid:  &unpaid,
			DueDate: &next,
		})
	}
	return updates
}

// ResetAllActive starts the cycle over for every active expense: paid
// flags and last-paid dates are cleared, due dates are left where they
// are. This is a manual action, not a payment transition, so no
// rollover happens.
func ResetAllActive(expenses []models.Expense) []ExpenseUpdate {
	var updates []ExpenseUpdate
	for _, e := range expenses {
		if !e.IsActive {
			continue
		}
		unpaid := false
		updates = append(updates, ExpenseUpdate{
			ID:            e.ID,
			IsPaid:        &unpaid,
			ClearLastPaid: true,
		})
	}
	return updates
}

// ValidateExpense rejects malformed records before any computation or
// persistence. Errors name the offending field.
func ValidateExpense(e models.Expense) error {
	if e.Name == "" {
		return errors.New("name must not be empty")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", e.Amount)
	}
	if !e.Frequency.Valid() {
		return fmt.Errorf("unknown frequency %q", e.Frequency)
	}
	if e.DueDate.IsZero() {
		return errors.New("due_date must be set")
	}
	return nil
}
