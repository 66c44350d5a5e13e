package models

import "time"

type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Amount          float64         `json:"amount"`
	Description     string          `json:"description,omitempty"`
	CategoryID      string          `json:"category_id,omitempty"`
	Category        *Category       `json:"category,omitempty"`
	Type            TransactionType `json:"type"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type CreateTransactionRequest struct {
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Description     string  `json:"description"`
	CategoryID      string  `json:"category_id"`
	Type            string  `json:"type" binding:"required,oneof=income expense"`
	PaymentMethod   string  `json:"payment_method"`
	TransactionDate string  `json:"transaction_date" binding:"required"`
}

// Stats is the dashboard header: all-time balance plus the current
// calendar month's income and expenses.
type Stats struct {
	TotalBalance     float64 `json:"total_balance"`
	MonthlyIncome    float64 `json:"monthly_income"`
	MonthlyExpenses  float64 `json:"monthly_expenses"`
	TransactionCount int     `json:"transaction_count"`
}

type CategoryReport struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Icon  string  `json:"icon"`
	Color string  `json:"color"`
}

type MonthlyReport struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Balance  float64 `json:"balance"`
}
