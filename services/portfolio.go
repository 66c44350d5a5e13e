package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coinpilot/coinpilot-api/models"
	"github.com/coinpilot/coinpilot-api/utils"

	"github.com/google/uuid"
)

// PortfolioService covers the money-on-the-side features: savings
// buckets, cash on hand, simple investments, watched crypto addresses
// and stock holdings.
type PortfolioService struct {
	db *sql.DB
}

func NewPortfolioService(db *sql.DB) *PortfolioService {
	return &PortfolioService{db: db}
}

func (s *PortfolioService) ListSavings(ctx context.Context, userID string) ([]models.Saving, float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, description, category, date
		FROM savings
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var savings []models.Saving
	var total float64
	for rows.Next() {
		var sv models.Saving
		if err := rows.Scan(&sv.ID, &sv.UserID, &sv.Amount, &sv.Description, &sv.Category, &sv.Date); err != nil {
			return nil, 0, err
		}
		total += sv.Amount
		savings = append(savings, sv)
	}
	return savings, total, rows.Err()
}

func (s *PortfolioService) AddSaving(ctx context.Context, userID string, req models.CreateSavingRequest) (models.Saving, error) {
	saving := models.Saving{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO savings (id, user_id, amount, description, category, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, saving.ID, saving.UserID, saving.Amount, saving.Description, saving.Category, saving.Date)
	if err != nil {
		return models.Saving{}, err
	}
	return saving, nil
}

// TransferSavingsToBalance books the accumulated savings as an income
// transaction. The savings rows stay in place as history.
func (s *PortfolioService) TransferSavingsToBalance(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM savings WHERE user_id = $1
		`, userID).Scan(&total); err != nil {
			return err
		}
		if total == 0 {
			return fmt.Errorf("nothing to transfer")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (id, user_id, amount, description, type, transaction_date, created_at)
			VALUES ($1, $2, $3, $4, 'income', NOW(), NOW())
		`, uuid.New().String(), userID, total, "Transferencia desde ahorros")
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// CashBalance sums cash entries and subtracts cash-paid expense
// transactions.
func (s *PortfolioService) CashBalance(ctx context.Context, userID string) (models.CashBalance, error) {
	var balance models.CashBalance

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE((SELECT SUM(amount) FROM cash_entries WHERE user_id = $1), 0)
		     - COALESCE((SELECT SUM(amount) FROM transactions
		                 WHERE user_id = $1 AND type = 'expense' AND payment_method = 'cash'), 0)
	`, userID).Scan(&balance.Balance)
	if err != nil {
		return models.CashBalance{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, COALESCE(description, ''), created_at
		FROM cash_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 10
	`, userID)
	if err != nil {
		return models.CashBalance{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var e models.CashEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return models.CashBalance{}, err
		}
		balance.Entries = append(balance.Entries, e)
	}
	return balance, rows.Err()
}

func (s *PortfolioService) AddCash(ctx context.Context, userID string, req models.CreateCashEntryRequest) (models.CashEntry, error) {
	entry := models.CashEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_entries (id, user_id, amount, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.UserID, entry.Amount, entry.Description, entry.CreatedAt)
	if err != nil {
		return models.CashEntry{}, err
	}
	return entry, nil
}

func (s *PortfolioService) ListInvestments(ctx context.Context, userID string) ([]models.Investment, float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, COALESCE(description, ''), asset, date
		FROM investments
		WHERE user_id = $1
		ORDER BY date DESC
	`, userID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var investments []models.Investment
	var total float64
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Amount, &inv.Description, &inv.Asset, &inv.Date); err != nil {
			return nil, 0, err
		}
		total += inv.Amount
		investments = append(investments, inv)
	}
	return investments, total, rows.Err()
}

func (s *PortfolioService) AddInvestment(ctx context.Context, userID string, req models.CreateInvestmentRequest) (models.Investment, error) {
	inv := models.Investment{
		ID:          uuid.New().String(),
		UserID:      userID,
		Amount:      req.Amount,
		Description: req.Description,
		Asset:       req.Asset,
		Date:        time.Now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO investments (id, user_id, amount, description, asset, date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, inv.ID, inv.UserID, inv.Amount, inv.Description, inv.Asset, inv.Date)
	if err != nil {
		return models.Investment{}, err
	}
	return inv, nil
}

// ListCryptoAddresses returns watched addresses, decrypted for the
// owner.
func (s *PortfolioService) ListCryptoAddresses(ctx context.Context, userID string) ([]models.CryptoAddress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, address, currency
		FROM crypto_addresses
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []models.CryptoAddress
	for rows.Next() {
		var a models.CryptoAddress
		var sealed string
		if err := rows.Scan(&a.ID, &a.UserID, &sealed, &a.Currency); err != nil {
			return nil, err
		}
		plain, err := utils.Decrypt(sealed)
		if err != nil {
			return nil, fmt.Errorf("decrypt address %s: %w", a.ID, err)
		}
		a.Address = string(plain)
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (s *PortfolioService) AddCryptoAddress(ctx context.Context, userID string, req models.CreateCryptoAddressRequest) (models.CryptoAddress, error) {
	sealed, err := utils.Encrypt([]byte(req.Address))
	if err != nil {
		return models.CryptoAddress{}, err
	}

	addr := models.CryptoAddress{
		ID:       uuid.New().String(),
		UserID:   userID,
		Address:  req.Address,
		Currency: req.Currency,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crypto_addresses (id, user_id, address, currency)
		VALUES ($1, $2, $3, $4)
	`, addr.ID, addr.UserID, sealed, addr.Currency)
	if err != nil {
		return models.CryptoAddress{}, err
	}
	return addr, nil
}

func (s *PortfolioService) DeleteCryptoAddress(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM crypto_addresses WHERE id = $1 AND user_id = $2`, id, userID)
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

func (s *PortfolioService) ListStocks(ctx context.Context, userID string) ([]models.StockInvestment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, symbol, shares, purchase_price, purchase_date, current_price, last_updated, created_at
		FROM stock_investments
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stocks []models.StockInvestment
	for rows.Next() {
		var st models.StockInvestment
		var currentPrice sql.NullFloat64
		var lastUpdated sql.NullTime
		if err := rows.Scan(&st.ID, &st.UserID, &st.Symbol, &st.Shares, &st.PurchasePrice, &st.PurchaseDate, &currentPrice, &lastUpdated, &st.CreatedAt); err != nil {
			return nil, err
		}
		if currentPrice.Valid {
			p := currentPrice.Float64
			st.CurrentPrice = &p
		}
		if lastUpdated.Valid {
			t := lastUpdated.Time
			st.LastUpdated = &t
		}
		stocks = append(stocks, st)
	}
	return stocks, rows.Err()
}

func (s *PortfolioService) AddStock(ctx context.Context, userID string, req models.CreateStockInvestmentRequest) (models.StockInvestment, error) {
	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		return models.StockInvestment{}, fmt.Errorf("invalid purchase_date %q: %w", req.PurchaseDate, err)
	}

	st := models.StockInvestment{
		ID:            uuid.New().String(),
		UserID:        userID,
		Symbol:        req.Symbol,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  purchaseDate,
		CreatedAt:     time.Now(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stock_investments (id, user_id, symbol, shares, purchase_price, purchase_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, st.ID, st.UserID, st.Symbol, st.Shares, st.PurchasePrice, st.PurchaseDate, st.CreatedAt)
	if err != nil {
		return models.StockInvestment{}, err
	}
	return st, nil
}

// RefreshStockPrice stores the latest quote for a holding.
func (s *PortfolioService) RefreshStockPrice(ctx context.Context, userID, id string, price float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE stock_investments
		SET current_price = $1, last_updated = NOW()
		WHERE id = $2 AND user_id = $3
	`, price, id, userID)
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
