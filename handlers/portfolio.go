package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coinpilot/coinpilot-api/middleware"
	"github.com/coinpilot/coinpilot-api/models"
	"github.com/coinpilot/coinpilot-api/services"
)

type PortfolioHandler struct {
	Service *services.PortfolioService
	Market  *services.MarketService
	WS      *WSHandler
}

func (h *PortfolioHandler) ListSavings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	savings, total, err := h.Service.ListSavings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load savings"})
		return
	}
	if savings == nil {
		savings = []models.Saving{}
	}

	c.JSON(http.StatusOK, gin.H{"savings": savings, "total": total})
}

func (h *PortfolioHandler) AddSaving(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateSavingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saving, err := h.Service.AddSaving(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save"})
		return
	}

	h.WS.NotifyUser(userID, "savings")
	c.JSON(http.StatusCreated, saving)
}

func (h *PortfolioHandler) TransferSavings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	total, err := h.Service.TransferSavingsToBalance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.WS.NotifyUser(userID, "transactions")
	c.JSON(http.StatusOK, gin.H{"transferred": total})
}

func (h *PortfolioHandler) CashBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)

	balance, err := h.Service.CashBalance(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load cash balance"})
		return
	}
	if balance.Entries == nil {
		balance.Entries = []models.CashEntry{}
	}

	c.JSON(http.StatusOK, balance)
}

func (h *PortfolioHandler) AddCash(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateCashEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Service.AddCash(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add cash entry"})
		return
	}

	h.WS.NotifyUser(userID, "cash")
	c.JSON(http.StatusCreated, entry)
}

func (h *PortfolioHandler) ListInvestments(c *gin.Context) {
	userID := middleware.GetUserID(c)

	investments, total, err := h.Service.ListInvestments(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load investments"})
		return
	}
	if investments == nil {
		investments = []models.Investment{}
	}

	c.JSON(http.StatusOK, gin.H{"investments": investments, "total": total})
}

func (h *PortfolioHandler) AddInvestment(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	investment, err := h.Service.AddInvestment(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add investment"})
		return
	}

	h.WS.NotifyUser(userID, "investments")
	c.JSON(http.StatusCreated, investment)
}

func (h *PortfolioHandler) ListCryptoAddresses(c *gin.Context) {
	userID := middleware.GetUserID(c)

	addresses, err := h.Service.ListCryptoAddresses(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load addresses"})
		return
	}
	if addresses == nil {
		addresses = []models.CryptoAddress{}
	}

	c.JSON(http.StatusOK, addresses)
}

func (h *PortfolioHandler) AddCryptoAddress(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateCryptoAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	addr, err := h.Service.AddCryptoAddress(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add address"})
		return
	}

	h.WS.NotifyUser(userID, "crypto")
	c.JSON(http.StatusCreated, addr)
}

func (h *PortfolioHandler) DeleteCryptoAddress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	err := h.Service.DeleteCryptoAddress(c.Request.Context(), userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Address not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete address"})
		return
	}

	h.WS.NotifyUser(userID, "crypto")
	c.JSON(http.StatusOK, gin.H{"message": "Address deleted"})
}

// CryptoBalances resolves the user's watched addresses on-chain and
// values them in USD.
func (h *PortfolioHandler) CryptoBalances(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	addresses, err := h.Service.ListCryptoAddresses(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load addresses"})
		return
	}

	balances, err := h.Market.CryptoBalances(ctx, addresses)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch balances"})
		return
	}
	if balances == nil {
		balances = []models.CryptoBalance{}
	}

	c.JSON(http.StatusOK, balances)
}

func (h *PortfolioHandler) ListStocks(c *gin.Context) {
	userID := middleware.GetUserID(c)

	stocks, err := h.Service.ListStocks(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stocks"})
		return
	}
	if stocks == nil {
		stocks = []models.StockInvestment{}
	}

	c.JSON(http.StatusOK, stocks)
}

func (h *PortfolioHandler) AddStock(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateStockInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stock, err := h.Service.AddStock(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.WS.NotifyUser(userID, "stocks")
	c.JSON(http.StatusCreated, stock)
}

// RefreshStock fetches the current quote for one holding and stores it.
func (h *PortfolioHandler) RefreshStock(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	quote, err := h.Market.StockQuote(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch quote"})
		return
	}

	err = h.Service.RefreshStockPrice(c.Request.Context(), userID, id, quote.Price)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stock not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store quote"})
		return
	}

	c.JSON(http.StatusOK, quote)
}
