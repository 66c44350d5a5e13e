package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/coinpilot/coinpilot-api/handlers"
	"github.com/coinpilot/coinpilot-api/services"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB) {
	authHandler := &handlers.AuthHandler{DB: db}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
	rg.POST("/auth/logout", authHandler.Logout)
}

// SetupUserRoutes sets up protected user routes.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
	rg.DELETE("/user/account", userHandler.DeleteAccount)
}

// SetupExpenseRoutes sets up the recurring expense routes.
func SetupExpenseRoutes(rg *gin.RouterGroup, svc *services.ExpenseService, ws *handlers.WSHandler) {
	h := &handlers.ExpenseHandler{Service: svc, WS: ws}

	rg.GET("/expenses", h.List)
	rg.POST("/expenses", h.Create)
	rg.PUT("/expenses/:id", h.Update)
	rg.DELETE("/expenses/:id", h.Delete)

	rg.POST("/expenses/:id/toggle", h.ToggleActive)
	rg.POST("/expenses/:id/pay", h.MarkPaid)
	rg.POST("/expenses/reactivate", h.Reactivate)
	rg.POST("/expenses/reset", h.ResetAll)
	rg.GET("/expenses/summary", h.Summary)
}

// SetupTransactionRoutes sets up transaction, stats and report routes.
func SetupTransactionRoutes(rg *gin.RouterGroup, db *sql.DB, ws *handlers.WSHandler) {
	h := &handlers.TransactionHandler{Service: services.NewTransactionService(db), WS: ws}

	rg.GET("/transactions", h.List)
	rg.POST("/transactions", h.Create)
	rg.DELETE("/transactions/:id", h.Delete)

	rg.GET("/categories", h.Categories)
	rg.GET("/stats", h.Stats)
	rg.GET("/reports", h.Reports)
}

// SetupPortfolioRoutes sets up savings, cash, investment, crypto and
// stock routes.
func SetupPortfolioRoutes(rg *gin.RouterGroup, db *sql.DB, market *services.MarketService, ws *handlers.WSHandler) {
	h := &handlers.PortfolioHandler{
		Service: services.NewPortfolioService(db),
		Market:  market,
		WS:      ws,
	}

	rg.GET("/savings", h.ListSavings)
	rg.POST("/savings", h.AddSaving)
	rg.POST("/savings/transfer", h.TransferSavings)

	rg.GET("/cash", h.CashBalance)
	rg.POST("/cash", h.AddCash)

	rg.GET("/investments", h.ListInvestments)
	rg.POST("/investments", h.AddInvestment)

	rg.GET("/crypto/addresses", h.ListCryptoAddresses)
	rg.POST("/crypto/addresses", h.AddCryptoAddress)
	rg.DELETE("/crypto/addresses/:id", h.DeleteCryptoAddress)
	rg.GET("/crypto/balances", h.CryptoBalances)

	rg.GET("/stocks", h.ListStocks)
	rg.POST("/stocks", h.AddStock)
	rg.POST("/stocks/:id/refresh", h.RefreshStock)
}

// SetupMarketRoutes sets up market data routes.
func SetupMarketRoutes(rg *gin.RouterGroup, market *services.MarketService) {
	h := &handlers.MarketHandler{Service: market}

	rg.GET("/market/quote/:symbol", h.StockQuote)
	rg.GET("/market/exchange-rate", h.ExchangeRate)
}
