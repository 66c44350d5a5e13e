package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coinpilot/coinpilot-api/middleware"
	"github.com/coinpilot/coinpilot-api/models"
	"github.com/coinpilot/coinpilot-api/services"
)

type TransactionHandler struct {
	Service *services.TransactionService
	WS      *WSHandler
}

func (h *TransactionHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	filter := services.TransactionFilter{
		Type:       c.Query("type"),
		CategoryID: c.Query("category_id"),
		DateFilter: c.Query("date_filter"),
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = n
	}

	transactions, err := h.Service.List(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transaction, err := h.Service.Create(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.WS.NotifyUser(userID, "transactions")
	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	err := h.Service.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}

	h.WS.NotifyUser(userID, "transactions")
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func (h *TransactionHandler) Categories(c *gin.Context) {
	categories, err := h.Service.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load categories"})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *TransactionHandler) Stats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	stats, err := h.Service.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Reports bundles the category breakdown and the last twelve months of
// income versus expenses.
func (h *TransactionHandler) Reports(c *gin.Context) {
	userID := middleware.GetUserID(c)
	ctx := c.Request.Context()

	byCategory, err := h.Service.CategoryReport(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute category report"})
		return
	}

	monthly, err := h.Service.MonthlyReport(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute monthly report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_category": byCategory,
		"monthly":     monthly,
	})
}
