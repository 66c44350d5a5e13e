package models

import (
	"fmt"
	"time"
)

// Frequency is the recurrence cadence of a fixed expense. The set is
// closed: anything else is rejected at validation time.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Frequencies lists every supported cadence, in UI display order.
var Frequencies = []Frequency{
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyYearly,
	FrequencyWeekly,
	FrequencyBiweekly,
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency validates a raw frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q", s)
	}
	return f, nil
}

// ExpenseCategories is the closed set of fixed-expense categories.
var ExpenseCategories = []string{
	"Subscriptions",
	"Credit Card",
	"Rent/Mortgage",
	"Utilities",
	"Insurance",
	"Loans",
	"Other",
}

func ValidExpenseCategory(name string) bool {
	for _, c := range ExpenseCategories {
		if c == name {
			return true
		}
	}
	return false
}

// Expense is one recurring fixed obligation (rent, subscription, card
// payment...). Amount is per occurrence, not normalized; DueDate always
// points at the next (or most recently missed) occurrence.
type Expense struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Amount       float64    `json:"amount"`
	Category     string     `json:"category"`
	Frequency    Frequency  `json:"frequency"`
	DueDate      time.Time  `json:"due_date"`
	LastPaidDate *time.Time `json:"last_paid_date,omitempty"`
	IsActive     bool       `json:"is_active"`
	IsPaid       bool       `json:"is_paid"`
	Description  string     `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateExpenseRequest struct {
	Name        string  `json:"name" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
	Frequency   string  `json:"frequency" binding:"required"`
	DueDate     string  `json:"due_date" binding:"required"`
	Description string  `json:"description"`
}

type UpdateExpenseRequest struct {
	Name        string  `json:"name" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Category    string  `json:"category" binding:"required"`
	Frequency   string  `json:"frequency" binding:"required"`
	DueDate     string  `json:"due_date" binding:"required"`
	Description string  `json:"description"`
}

// ExpenseSummary carries the three monthly-equivalent aggregates the
// dashboard shows: what is still pending this cycle, what has already
// been paid, and the steady-state monthly burden regardless of cycle
// position.
type ExpenseSummary struct {
	PendingMonthly float64 `json:"pending_monthly"`
	PaidMonthly    float64 `json:"paid_monthly"`
	ReserveMonthly float64 `json:"reserve_monthly"`
	ActiveCount    int     `json:"active_count"`
}
