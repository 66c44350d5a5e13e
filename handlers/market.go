package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coinpilot/coinpilot-api/services"
)

type MarketHandler struct {
	Service *services.MarketService
}

func (h *MarketHandler) StockQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	quote, err := h.Service.StockQuote(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch quote"})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// ExchangeRate never fails: it falls back to the last known or a
// static rate when providers are down.
func (h *MarketHandler) ExchangeRate(c *gin.Context) {
	rate := h.Service.USDMXNRate(c.Request.Context())
	c.JSON(http.StatusOK, rate)
}
