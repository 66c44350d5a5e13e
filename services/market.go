package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/coinpilot/coinpilot-api/models"
)

// fallbackUSDMXN is used when every rate provider is unreachable.
const fallbackUSDMXN = 17.0

const rateCacheTTL = time.Minute

var googleRatePattern = regexp.MustCompile(`data-last-price="([\d.]+)"`)

// MarketService fetches stock quotes, the USD/MXN exchange rate and
// on-chain crypto balances from public endpoints.
type MarketService struct {
	Client *http.Client

	mu         sync.Mutex
	cachedRate *models.ExchangeRate
}

func NewMarketService() *MarketService {
	return &MarketService{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// StockQuote fetches the latest price for a symbol from Yahoo Finance.
func (s *MarketService) StockQuote(ctx context.Context, symbol string) (models.StockQuote, error) {
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=1d", symbol)
	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return models.StockQuote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.StockQuote{}, fmt.Errorf("yahoo finance returned %d for %s", resp.StatusCode, symbol)
	}

	var result struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					Currency           string  `json:"currency"`
					ExchangeName       string  `json:"exchangeName"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					RegularMarketTime  int64   `json:"regularMarketTime"`
				} `json:"meta"`
			} `json:"result"`
			Error *struct {
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.StockQuote{}, err
	}
	if result.Chart.Error != nil {
		return models.StockQuote{}, fmt.Errorf("yahoo finance: %s", result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return models.StockQuote{}, fmt.Errorf("no quote data for %s", symbol)
	}

	meta := result.Chart.Result[0].Meta
	return models.StockQuote{
		Symbol:    meta.Symbol,
		Price:     meta.RegularMarketPrice,
		Currency:  meta.Currency,
		Exchange:  meta.ExchangeName,
		Timestamp: meta.RegularMarketTime,
	}, nil
}

// USDMXNRate returns the USD to MXN exchange rate. Results are cached
// for a minute; on provider failure the last known rate or a static
// fallback is returned rather than an error.
func (s *MarketService) USDMXNRate(ctx context.Context) models.ExchangeRate {
	s.mu.Lock()
	if s.cachedRate != nil && time.Since(s.cachedRate.FetchedAt) < rateCacheTTL {
		rate := *s.cachedRate
		s.mu.Unlock()
		return rate
	}
	s.mu.Unlock()

	rate, err := s.googleRate(ctx)
	if err != nil {
		rate, err = s.yahooRate(ctx)
	}
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.cachedRate != nil {
			return *s.cachedRate
		}
		return models.ExchangeRate{Rate: fallbackUSDMXN, FetchedAt: time.Now()}
	}

	fresh := models.ExchangeRate{Rate: rate, FetchedAt: time.Now()}
	s.mu.Lock()
	s.cachedRate = &fresh
	s.mu.Unlock()
	return fresh
}

func (s *MarketService) googleRate(ctx context.Context) (float64, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", "https://www.google.com/finance/quote/USD-MXN", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("google finance returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return 0, err
	}

	match := googleRatePattern.FindSubmatch(body)
	if match == nil {
		return 0, fmt.Errorf("rate not found in google finance page")
	}

	var rate float64
	if _, err := fmt.Sscanf(string(match[1]), "%f", &rate); err != nil {
		return 0, err
	}
	return rate, nil
}

func (s *MarketService) yahooRate(ctx context.Context) (float64, error) {
	quote, err := s.StockQuote(ctx, "MXN=X")
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

// CryptoBalances resolves on-chain balances for the given addresses
// via Blockchair and values them at CoinGecko spot prices. Addresses
// that fail to resolve are skipped so one dead endpoint does not hide
// the rest of the portfolio.
func (s *MarketService) CryptoBalances(ctx context.Context, addresses []models.CryptoAddress) ([]models.CryptoBalance, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	prices, err := s.spotPrices(ctx)
	if err != nil {
		return nil, err
	}

	var balances []models.CryptoBalance
	for _, addr := range addresses {
		balance, err := s.chainBalance(ctx, addr)
		if err != nil {
			continue
		}
		balances = append(balances, models.CryptoBalance{
			AddressID: addr.ID,
			Currency:  addr.Currency,
			Balance:   balance,
			USDValue:  balance * prices[addr.Currency],
		})
	}
	return balances, nil
}

func (s *MarketService) chainBalance(ctx context.Context, addr models.CryptoAddress) (float64, error) {
	chain := "bitcoin"
	divisor := 1e8
	if addr.Currency == "ETH" {
		chain = "ethereum"
		divisor = 1e18
	}

	url := fmt.Sprintf("https://api.blockchair.com/%s/dashboards/address/%s", chain, addr.Address)
	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("blockchair returned %d", resp.StatusCode)
	}

	var result struct {
		Data map[string]struct {
			Address struct {
				Balance float64 `json:"balance"`
			} `json:"address"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, err
	}

	entry, ok := result.Data[strings.ToLower(addr.Address)]
	if !ok {
		entry, ok = result.Data[addr.Address]
	}
	if !ok {
		return 0, fmt.Errorf("address not in blockchair response")
	}
	return entry.Address.Balance / divisor, nil
}

func (s *MarketService) spotPrices(ctx context.Context) (map[string]float64, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET",
		"https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum&vs_currencies=usd", nil)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned %d", resp.StatusCode)
	}

	var result map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return map[string]float64{
		"BTC": result["bitcoin"].USD,
		"ETH": result["ethereum"].USD,
	}, nil
}
