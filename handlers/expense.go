package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coinpilot/coinpilot-api/middleware"
	"github.com/coinpilot/coinpilot-api/models"
	"github.com/coinpilot/coinpilot-api/services"
	"github.com/coinpilot/coinpilot-api/utils"
)

// ExpenseHandler exposes the recurring expense engine over HTTP.
type ExpenseHandler struct {
	Service *services.ExpenseService
	WS      *WSHandler
}

func (h *ExpenseHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	expenses, err := h.Service.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load expenses"})
		return
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}

	c.JSON(http.StatusOK, expenses)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Service.Create(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	utils.LogExpenseAction("create", expense.ID, userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.Service.Update(c.Request.Context(), userID, id, req)
	if errors.Is(err, services.ErrExpenseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	utils.LogExpenseAction("update", id, userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	err := h.Service.Delete(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrExpenseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}

	utils.LogExpenseAction("delete", id, userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}

// ToggleActive flips an expense in and out of the recurring rotation
// without losing its history.
func (h *ExpenseHandler) ToggleActive(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	expense, err := h.Service.ToggleActive(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrExpenseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle expense"})
		return
	}

	utils.LogExpenseAction("toggle_active", id, userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusOK, expense)
}

// MarkPaid settles the current cycle and rolls the due date to the
// next one.
func (h *ExpenseHandler) MarkPaid(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")

	expense, err := h.Service.MarkPaid(c.Request.Context(), userID, id)
	if errors.Is(err, services.ErrExpenseNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
		return
	}
	if errors.Is(err, services.ErrAlreadyPaid) {
		c.JSON(http.StatusConflict, gin.H{"error": "Expense is already paid for this cycle"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark expense as paid"})
		return
	}

	utils.LogExpenseAction("mark_paid", id, userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusOK, expense)
}

// Reactivate flips paid expenses whose due date has passed back to
// pending. Clients call it on load; the daily sweep covers the rest.
func (h *ExpenseHandler) Reactivate(c *gin.Context) {
	userID := middleware.GetUserID(c)

	applied, err := h.Service.ReactivateDue(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reactivate expenses"})
		return
	}

	if applied > 0 {
		utils.LogExpenseAction("reactivate", "batch", userID)
		h.WS.NotifyUser(userID, "expenses")
	}
	c.JSON(http.StatusOK, gin.H{"reactivated": applied})
}

// ResetAll returns every active expense to pending without touching
// due dates. Used at the start of a new budgeting period.
func (h *ExpenseHandler) ResetAll(c *gin.Context) {
	userID := middleware.GetUserID(c)

	applied, err := h.Service.ResetAll(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset expenses"})
		return
	}

	utils.LogExpenseAction("reset_all", "batch", userID)
	h.WS.NotifyUser(userID, "expenses")
	c.JSON(http.StatusOK, gin.H{"reset": applied})
}

func (h *ExpenseHandler) Summary(c *gin.Context) {
	userID := middleware.GetUserID(c)

	summary, err := h.Service.Summary(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
