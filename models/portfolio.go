package models

import "time"

type Saving struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type CreateSavingRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
	Category    string  `json:"category" binding:"required"`
}

type CashEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateCashEntryRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
}

// CashBalance is the sum of cash entries minus cash-paid expense
// transactions.
type CashBalance struct {
	Balance float64     `json:"balance"`
	Entries []CashEntry `json:"entries"`
}

type Investment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Asset       string    `json:"asset"`
	Date        time.Time `json:"date"`
}

type CreateInvestmentRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
	Asset       string  `json:"asset" binding:"required"`
}

// CryptoAddress is a watch-only wallet address. The address itself is
// stored encrypted and only decrypted when serving the owner.
type CryptoAddress struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	Address  string `json:"address"`
	Currency string `json:"currency"`
}

type CreateCryptoAddressRequest struct {
	Address  string `json:"address" binding:"required"`
	Currency string `json:"currency" binding:"required,oneof=BTC ETH"`
}

// CryptoBalance is the on-chain balance of a watched address plus its
// USD value at the current spot price.
type CryptoBalance struct {
	AddressID string  `json:"address_id"`
	Currency  string  `json:"currency"`
	Balance   float64 `json:"balance"`
	USDValue  float64 `json:"usd_value"`
}

type StockInvestment struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Symbol        string     `json:"symbol"`
	Shares        float64    `json:"shares"`
	PurchasePrice float64    `json:"purchase_price"`
	PurchaseDate  time.Time  `json:"purchase_date"`
	CurrentPrice  *float64   `json:"current_price,omitempty"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type CreateStockInvestmentRequest struct {
	Symbol        string  `json:"symbol" binding:"required"`
	Shares        float64 `json:"shares" binding:"required,gt=0"`
	PurchasePrice float64 `json:"purchase_price" binding:"required,gt=0"`
	PurchaseDate  string  `json:"purchase_date" binding:"required"`
}

type StockQuote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Exchange  string  `json:"exchange"`
	Timestamp int64   `json:"timestamp"`
}

type ExchangeRate struct {
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
}
