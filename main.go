package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/coinpilot/coinpilot-api/config"
	"github.com/coinpilot/coinpilot-api/handlers"
	"github.com/coinpilot/coinpilot-api/middleware"
	"github.com/coinpilot/coinpilot-api/routes"
	"github.com/coinpilot/coinpilot-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("✅ Database connected successfully")

	if err := config.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	expenseService := services.NewExpenseService(db)
	marketService := services.NewMarketService()

	go scheduleExpenseSweep(expenseService)
	go scheduleSessionCleanup(db)

	wsHandler := handlers.NewWSHandler()

	router := gin.Default()

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	allowedOrigins := []string{
		frontendURL,
		"https://coinpilot.app",
		"https://www.coinpilot.app",
	}

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("📨 %s %s - %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})

	router.Use(middleware.RateLimiter())

	v1 := router.Group("/api/v1")
	{
		routes.SetupAuthRoutes(v1, db)
		routes.SetupMarketRoutes(v1, marketService)

		protected := v1.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/ws", wsHandler.HandleWS)
			routes.SetupUserRoutes(protected, db)
			routes.SetupExpenseRoutes(protected, expenseService, wsHandler)
			routes.SetupTransactionRoutes(protected, db, wsHandler)
			routes.SetupPortfolioRoutes(protected, db, marketService, wsHandler)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// scheduleExpenseSweep reactivates overdue paid expenses once a day so
// recurring bills reappear as pending even when nobody opens the app.
func scheduleExpenseSweep(svc *services.ExpenseService) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	sweepExpenses(svc)
	for range ticker.C {
		sweepExpenses(svc)
	}
}

func sweepExpenses(svc *services.ExpenseService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	applied, err := svc.SweepAllUsers(ctx)
	if err != nil {
		log.Printf("❌ Expense sweep failed: %v", err)
		return
	}
	if applied > 0 {
		log.Printf("🔄 Reactivated %d overdue expenses", applied)
	}
}

func scheduleSessionCleanup(db *sql.DB) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	cleanExpiredSessions(db)
	for range ticker.C {
		cleanExpiredSessions(db)
	}
}

func cleanExpiredSessions(db *sql.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		log.Printf("❌ Session cleanup failed: %v", err)
		return
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Printf("🧹 Cleaned %d expired sessions", rows)
	}
}
