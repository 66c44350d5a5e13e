package services

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coinpilot/coinpilot-api/models"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func unreachableClient() *http.Client {
	return &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return nil, fmt.Errorf("dial %s: connection refused", req.URL.Host)
		}),
	}
}

func TestUSDMXNRateServesFreshCacheWithoutFetching(t *testing.T) {
	svc := &MarketService{Client: unreachableClient()}
	svc.cachedRate = &models.ExchangeRate{Rate: 18.5, FetchedAt: time.Now()}

	rate := svc.USDMXNRate(context.Background())

	assert.Equal(t, 18.5, rate.Rate)
}

func TestUSDMXNRateFallsBackToStaleCache(t *testing.T) {
	svc := &MarketService{Client: unreachableClient()}
	stale := &models.ExchangeRate{Rate: 18.5, FetchedAt: time.Now().Add(-time.Hour)}
	svc.cachedRate = stale

	rate := svc.USDMXNRate(context.Background())

	assert.Equal(t, 18.5, rate.Rate, "stale cache beats static fallback when providers are down")
}

func TestUSDMXNRateStaticFallbackWhenNothingKnown(t *testing.T) {
	svc := &MarketService{Client: unreachableClient()}

	rate := svc.USDMXNRate(context.Background())

	assert.Equal(t, fallbackUSDMXN, rate.Rate)
	assert.WithinDuration(t, time.Now(), rate.FetchedAt, time.Minute)
}

func TestCryptoBalancesEmptyInputSkipsProviders(t *testing.T) {
	svc := &MarketService{Client: unreachableClient()}

	balances, err := svc.CryptoBalances(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, balances)
}
