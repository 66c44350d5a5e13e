package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coinpilot/coinpilot-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryExpenseStore backs service tests without a database.
type memoryExpenseStore struct {
	expenses map[string]models.Expense
	failIDs  map[string]error
}

func newMemoryStore(expenses ...models.Expense) *memoryExpenseStore {
	s := &memoryExpenseStore{
		expenses: make(map[string]models.Expense),
		failIDs:  make(map[string]error),
	}
	for _, e := range expenses {
		s.expenses[e.ID] = e
	}
	return s
}

func (s *memoryExpenseStore) List(_ context.Context, userID string) ([]models.Expense, error) {
	var out []models.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memoryExpenseStore) Get(_ context.Context, userID, id string) (models.Expense, error) {
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return models.Expense{}, ErrExpenseNotFound
	}
	return e, nil
}

func (s *memoryExpenseStore) Insert(_ context.Context, e models.Expense) error {
	s.expenses[e.ID] = e
	return nil
}

func (s *memoryExpenseStore) Save(_ context.Context, e models.Expense) error {
	if err := s.failIDs[e.ID]; err != nil {
		return err
	}
	if _, ok := s.expenses[e.ID]; !ok {
		return ErrExpenseNotFound
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *memoryExpenseStore) Apply(_ context.Context, userID string, upd ExpenseUpdate) error {
	if err := s.failIDs[upd.ID]; err != nil {
		return err
	}
	e, ok := s.expenses[upd.ID]
	if !ok || e.UserID != userID {
		return ErrExpenseNotFound
	}
	if upd.IsPaid != nil {
		e.IsPaid = *upd.IsPaid
	}
	if upd.DueDate != nil {
		e.DueDate = *upd.DueDate
	}
	if upd.ClearLastPaid {
		e.LastPaidDate = nil
	}
	s.expenses[upd.ID] = e
	return nil
}

func (s *memoryExpenseStore) Delete(_ context.Context, userID, id string) error {
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *memoryExpenseStore) Owners(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var owners []string
	for _, e := range s.expenses {
		if e.IsActive && !seen[e.UserID] {
			seen[e.UserID] = true
			owners = append(owners, e.UserID)
		}
	}
	return owners, nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

const testUser = "user_1"

func TestServiceMarkPaidPersistsRollover(t *testing.T) {
	store := newMemoryStore(models.Expense{
		ID:        "exp_rent",
		UserID:    testUser,
		Name:      "Rent",
		Amount:    120,
		Category:  "Rent/Mortgage",
		Frequency: models.FrequencyMonthly,
		DueDate:   date(2024, time.January, 15),
		IsActive:  true,
	})
	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.January, 10)))

	paid, err := svc.MarkPaid(context.Background(), testUser, "exp_rent")
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.LastPaidDate)
	assert.Equal(t, date(2024, time.January, 10), *paid.LastPaidDate)
	assert.Equal(t, date(2024, time.February, 15), paid.DueDate)

	stored, err := store.Get(context.Background(), testUser, "exp_rent")
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)
	assert.Equal(t, date(2024, time.February, 15), stored.DueDate)

	// paying again without a reset is rejected
	_, err = svc.MarkPaid(context.Background(), testUser, "exp_rent")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestServiceReactivateDueFailureDoesNotBlockBatch(t *testing.T) {
	overdue := func(id string) models.Expense {
		return models.Expense{
			ID:        id,
			UserID:    testUser,
			Name:      id,
			Amount:    40,
			Frequency: models.FrequencyMonthly,
			DueDate:   date(2024, time.January, 1),
			IsActive:  true,
			IsPaid:    true,
		}
	}
	store := newMemoryStore(overdue("exp_a"), overdue("exp_b"), overdue("exp_c"))
	store.failIDs["exp_b"] = errors.New("connection reset")

	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.February, 10)))

	applied, err := svc.ReactivateDue(context.Background(), testUser)
	assert.Equal(t, 2, applied)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exp_b")

	for _, id := range []string{"exp_a", "exp_c"} {
		e, getErr := store.Get(context.Background(), testUser, id)
		require.NoError(t, getErr)
		assert.False(t, e.IsPaid, id)
		assert.Equal(t, date(2024, time.February, 1), e.DueDate, id)
	}

	// the failed record keeps its prior state
	b, getErr := store.Get(context.Background(), testUser, "exp_b")
	require.NoError(t, getErr)
	assert.True(t, b.IsPaid)
	assert.Equal(t, date(2024, time.January, 1), b.DueDate)
}

func TestServiceResetAllLeavesDueDates(t *testing.T) {
	lastPaid := date(2024, time.March, 5)
	store := newMemoryStore(
		models.Expense{ID: "exp_paid", UserID: testUser, Name: "Insurance", Amount: 90, Frequency: models.FrequencyQuarterly, DueDate: date(2024, time.June, 1), LastPaidDate: &lastPaid, IsActive: true, IsPaid: true},
		models.Expense{ID: "exp_off", UserID: testUser, Name: "Old gym", Amount: 30, Frequency: models.FrequencyMonthly, DueDate: date(2024, time.April, 1), IsActive: false, IsPaid: true},
	)
	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.March, 20)))

	applied, err := svc.ResetAll(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	reset, _ := store.Get(context.Background(), testUser, "exp_paid")
	assert.False(t, reset.IsPaid)
	assert.Nil(t, reset.LastPaidDate)
	assert.Equal(t, date(2024, time.June, 1), reset.DueDate)

	untouched, _ := store.Get(context.Background(), testUser, "exp_off")
	assert.True(t, untouched.IsPaid)
}

func TestServiceCreateStartsActiveUnpaid(t *testing.T) {
	store := newMemoryStore()
	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.May, 2)))

	created, err := svc.Create(context.Background(), testUser, models.CreateExpenseRequest{
		Name:      "Netflix",
		Amount:    15.99,
		Category:  "Subscriptions",
		Frequency: "monthly",
		DueDate:   "2024-05-15",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.False(t, created.IsPaid)
	assert.Nil(t, created.LastPaidDate)
	assert.Equal(t, date(2024, time.May, 15), created.DueDate)
}

func TestServiceCreateRejectsBadInput(t *testing.T) {
	svc := NewExpenseServiceWith(newMemoryStore(), fixedClock(date(2024, time.May, 2)))

	_, err := svc.Create(context.Background(), testUser, models.CreateExpenseRequest{
		Name: "Gym", Amount: 30, Category: "Other", Frequency: "daily", DueDate: "2024-05-15",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frequency")

	_, err = svc.Create(context.Background(), testUser, models.CreateExpenseRequest{
		Name: "Gym", Amount: 30, Category: "Gadgets", Frequency: "monthly", DueDate: "2024-05-15",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category")

	_, err = svc.Create(context.Background(), testUser, models.CreateExpenseRequest{
		Name: "Gym", Amount: 30, Category: "Other", Frequency: "monthly", DueDate: "15/05/2024",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "due_date")
}

func TestServiceSummary(t *testing.T) {
	store := newMemoryStore(
		models.Expense{ID: "a", UserID: testUser, Amount: 1000, Frequency: models.FrequencyWeekly, DueDate: date(2024, time.June, 1), IsActive: true},
		models.Expense{ID: "b", UserID: testUser, Amount: 300, Frequency: models.FrequencyYearly, DueDate: date(2024, time.September, 1), IsActive: true, IsPaid: true},
		models.Expense{ID: "c", UserID: testUser, Amount: 500, Frequency: models.FrequencyMonthly, DueDate: date(2024, time.June, 1), IsActive: false},
		models.Expense{ID: "d", UserID: "someone_else", Amount: 999, Frequency: models.FrequencyMonthly, DueDate: date(2024, time.June, 1), IsActive: true},
	)
	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.May, 20)))

	summary, err := svc.Summary(context.Background(), testUser)
	require.NoError(t, err)

	assert.InDelta(t, 4330, summary.PendingMonthly, 1e-6)
	assert.InDelta(t, 25, summary.PaidMonthly, 1e-6)
	assert.InDelta(t, 4355, summary.ReserveMonthly, 1e-6)
	assert.Equal(t, 2, summary.ActiveCount)
}

func TestServiceSweepAllUsers(t *testing.T) {
	store := newMemoryStore(
		models.Expense{ID: "u1_exp", UserID: "u1", Amount: 40, Frequency: models.FrequencyMonthly, DueDate: date(2024, time.January, 1), IsActive: true, IsPaid: true},
		models.Expense{ID: "u2_exp", UserID: "u2", Amount: 60, Frequency: models.FrequencyWeekly, DueDate: date(2024, time.January, 20), IsActive: true, IsPaid: true},
	)
	svc := NewExpenseServiceWith(store, fixedClock(date(2024, time.February, 1)))

	swept, err := svc.SweepAllUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, swept)

	u1, _ := store.Get(context.Background(), "u1", "u1_exp")
	assert.False(t, u1.IsPaid)
	assert.Equal(t, date(2024, time.February, 1), u1.DueDate)

	u2, _ := store.Get(context.Background(), "u2", "u2_exp")
	assert.False(t, u2.IsPaid)
	assert.Equal(t, date(2024, time.January, 27), u2.DueDate)
}
