package services

import (
	"testing"
	"time"

	"github.com/coinpilot/coinpilot-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		frequency models.Frequency
		amount    float64
		want      float64
	}{
		{models.FrequencyWeekly, 100, 433},
		{models.FrequencyBiweekly, 100, 217},
		{models.FrequencyMonthly, 100, 100},
		{models.FrequencyQuarterly, 100, 100.0 / 3},
		{models.FrequencyYearly, 100, 100.0 / 12},
		{models.Frequency("fortnightly"), 100, 100}, // unrecognized falls back to monthly
	}

	for _, tt := range tests {
		t.Run(string(tt.frequency), func(t *testing.T) {
			assert.InDelta(t, tt.want, MonthlyEquivalent(tt.amount, tt.frequency), 1e-9)
		})
	}
}

func TestMonthlyEquivalentYearlyHundred(t *testing.T) {
	// $100/year is $8.33... per month
	assert.InDelta(t, 8.3333333, MonthlyEquivalent(100, models.FrequencyYearly), 1e-6)
}

func TestTotalMonthlyThreeExpenseScenario(t *testing.T) {
	expenses := []models.Expense{
		{Amount: 1000, Frequency: models.FrequencyWeekly, IsActive: true, IsPaid: false},
		{Amount: 300, Frequency: models.FrequencyYearly, IsActive: true, IsPaid: true},
		{Amount: 500, Frequency: models.FrequencyMonthly, IsActive: false, IsPaid: false},
	}

	assert.InDelta(t, 4330, TotalMonthly(expenses, ActiveUnpaid), 1e-6)
	assert.InDelta(t, 25, TotalMonthly(expenses, ActivePaid), 1e-6)
	assert.InDelta(t, 4355, TotalMonthly(expenses, Active), 1e-6)
}

func TestTotalMonthlyEmptyIsZero(t *testing.T) {
	for name, keep := range map[string]ExpensePredicate{
		"active_unpaid": ActiveUnpaid,
		"active_paid":   ActivePaid,
		"active":        Active,
	} {
		assert.Zero(t, TotalMonthly(nil, keep), name)
		assert.Zero(t, TotalMonthly([]models.Expense{}, keep), name)
	}
}

func TestTotalMonthlyOrderIndependent(t *testing.T) {
	expenses := []models.Expense{
		{Amount: 120, Frequency: models.FrequencyMonthly, IsActive: true},
		{Amount: 90, Frequency: models.FrequencyWeekly, IsActive: true},
		{Amount: 600, Frequency: models.FrequencyYearly, IsActive: true},
		{Amount: 45, Frequency: models.FrequencyQuarterly, IsActive: true},
	}
	reversed := make([]models.Expense, len(expenses))
	for i, e := range expenses {
		reversed[len(expenses)-1-i] = e
	}

	assert.Equal(t, TotalMonthly(expenses, Active), TotalMonthly(reversed, Active))
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name      string
		frequency models.Frequency
		due       time.Time
		want      time.Time
	}{
		{"weekly", models.FrequencyWeekly, date(2024, time.January, 15), date(2024, time.January, 22)},
		{"biweekly", models.FrequencyBiweekly, date(2024, time.January, 15), date(2024, time.January, 29)},
		{"monthly mid-month", models.FrequencyMonthly, date(2024, time.January, 15), date(2024, time.February, 15)},
		{"monthly clamps to leap day", models.FrequencyMonthly, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"monthly clamps to feb 28", models.FrequencyMonthly, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"monthly from clamped day keeps day", models.FrequencyMonthly, date(2024, time.February, 29), date(2024, time.March, 29)},
		{"monthly year rollover", models.FrequencyMonthly, date(2024, time.December, 31), date(2025, time.January, 31)},
		{"quarterly clamps to 30-day month", models.FrequencyQuarterly, date(2024, time.January, 31), date(2024, time.April, 30)},
		{"yearly", models.FrequencyYearly, date(2024, time.March, 10), date(2025, time.March, 10)},
		{"yearly clamps leap day", models.FrequencyYearly, date(2024, time.February, 29), date(2025, time.February, 28)},
		{"unrecognized steps one month", models.Frequency("fortnightly"), date(2024, time.January, 15), date(2024, time.February, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDueDate(tt.due, tt.frequency))
		})
	}
}

func TestNextDueDateStrictlyMonotonic(t *testing.T) {
	dates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 31),
		date(2024, time.February, 29),
		date(2024, time.December, 31),
		date(2023, time.February, 28),
	}
	for _, f := range models.Frequencies {
		for _, d := range dates {
			assert.True(t, NextDueDate(d, f).After(d), "%s from %s", f, d.Format("2006-01-02"))
		}
	}
}

func TestMarkAsPaidRollsDueDateForward(t *testing.T) {
	expense := models.Expense{
		ID:        "exp_rent",
		Amount:    120,
		Frequency: models.FrequencyMonthly,
		DueDate:   date(2024, time.January, 15),
		IsActive:  true,
	}
	today := date(2024, time.January, 10)

	paid, err := MarkAsPaid(expense, today)
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.LastPaidDate)
	assert.Equal(t, today, *paid.LastPaidDate)
	assert.Equal(t, date(2024, time.February, 15), paid.DueDate)

	// original snapshot is untouched
	assert.False(t, expense.IsPaid)
	assert.Equal(t, date(2024, time.January, 15), expense.DueDate)
}

func TestMarkAsPaidRejectsDoublePay(t *testing.T) {
	expense := models.Expense{
		ID:        "exp_card",
		Amount:    80,
		Frequency: models.FrequencyMonthly,
		DueDate:   date(2024, time.February, 15),
		IsActive:  true,
		IsPaid:    true,
	}

	_, err := MarkAsPaid(expense, date(2024, time.January, 20))
	assert.ErrorIs(t, err, ErrAlreadyPaid)
	// a double pay must not advance the due date
	assert.Equal(t, date(2024, time.February, 15), expense.DueDate)
}

func TestAutoReactivateSingleStepCatchUp(t *testing.T) {
	lastPaid := date(2024, time.January, 1)
	expenses := []models.Expense{
		{
			ID:           "exp_overdue",
			Amount:       50,
			Frequency:    models.FrequencyMonthly,
			DueDate:      date(2024, time.January, 1),
			LastPaidDate: &lastPaid,
			IsActive:     true,
			IsPaid:       true,
		},
	}

	updates := AutoReactivate(expenses, date(2024, time.March, 15))
	require.Len(t, updates, 1)

	upd := updates[0]
	assert.Equal(t, "exp_overdue", upd.ID)
	require.NotNil(t, upd.IsPaid)
	assert.False(t, *upd.IsPaid)
	require.NotNil(t, upd.DueDate)
	// one cadence step only, even though two cycles elapsed
	assert.Equal(t, date(2024, time.February, 1), *upd.DueDate)
	assert.False(t, upd.ClearLastPaid)
}

func TestAutoReactivateIsIdempotent(t *testing.T) {
	today := date(2024, time.March, 15)
	expenses := []models.Expense{
		{
			ID:        "exp_overdue",
			Amount:    50,
			Frequency: models.FrequencyMonthly,
			DueDate:   date(2024, time.January, 1),
			IsActive:  true,
			IsPaid:    true,
		},
	}

	first := AutoReactivate(expenses, today)
	require.Len(t, first, 1)

	// apply the emitted update, then run again with the same today
	expenses[0].IsPaid = *first[0].IsPaid
	expenses[0].DueDate = *first[0].DueDate

	second := AutoReactivate(expenses, today)
	assert.Empty(t, second)
}

func TestAutoReactivateSkipsCurrentAndInactive(t *testing.T) {
	today := date(2024, time.June, 1)
	expenses := []models.Expense{
		// paid but not yet due again
		{ID: "a", Frequency: models.FrequencyMonthly, DueDate: date(2024, time.June, 15), IsActive: true, IsPaid: true},
		// unpaid, nothing to reactivate
		{ID: "b", Frequency: models.FrequencyMonthly, DueDate: date(2024, time.May, 1), IsActive: true, IsPaid: false},
		// inactive stays untouched even when overdue
		{ID: "c", Frequency: models.FrequencyMonthly, DueDate: date(2024, time.January, 1), IsActive: false, IsPaid: true},
		// due exactly today is not yet past
		{ID: "d", Frequency: models.FrequencyMonthly, DueDate: today, IsActive: true, IsPaid: true},
	}

	assert.Empty(t, AutoReactivate(expenses, today))
}

func TestResetAllActiveClearsPaidStateOnly(t *testing.T) {
	lastPaid := date(2024, time.March, 3)
	expenses := []models.Expense{
		{ID: "paid", Frequency: models.FrequencyMonthly, DueDate: date(2024, time.April, 1), LastPaidDate: &lastPaid, IsActive: true, IsPaid: true},
		{ID: "unpaid", Frequency: models.FrequencyWeekly, DueDate: date(2024, time.March, 20), IsActive: true, IsPaid: false},
		{ID: "inactive", Frequency: models.FrequencyYearly, DueDate: date(2024, time.December, 1), IsActive: false, IsPaid: true},
	}

	updates := ResetAllActive(expenses)
	require.Len(t, updates, 2)

	for _, upd := range updates {
		assert.Contains(t, []string{"paid", "unpaid"}, upd.ID)
		require.NotNil(t, upd.IsPaid)
		assert.False(t, *upd.IsPaid)
		assert.True(t, upd.ClearLastPaid)
		// due dates never move on reset
		assert.Nil(t, upd.DueDate)
	}
}

func TestValidateExpense(t *testing.T) {
	valid := models.Expense{
		Name:      "Netflix",
		Amount:    15.99,
		Category:  "Subscriptions",
		Frequency: models.FrequencyMonthly,
		DueDate:   date(2024, time.May, 1),
	}
	require.NoError(t, ValidateExpense(valid))

	tests := []struct {
		name    string
		mutate  func(*models.Expense)
		wantErr string
	}{
		{"zero amount", func(e *models.Expense) { e.Amount = 0 }, "amount"},
		{"negative amount", func(e *models.Expense) { e.Amount = -5 }, "amount"},
		{"empty name", func(e *models.Expense) { e.Name = "" }, "name"},
		{"bad frequency", func(e *models.Expense) { e.Frequency = "hourly" }, "frequency"},
		{"zero due date", func(e *models.Expense) { e.DueDate = time.Time{} }, "due_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := ValidateExpense(e)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseFrequency(t *testing.T) {
	for _, f := range models.Frequencies {
		got, err := models.ParseFrequency(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := models.ParseFrequency("daily")
	assert.Error(t, err)
}
