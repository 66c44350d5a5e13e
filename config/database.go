package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			home_currency VARCHAR(3) DEFAULT 'USD',
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			refresh_token VARCHAR(500) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name VARCHAR(100) UNIQUE NOT NULL,
			icon VARCHAR(16),
			color VARCHAR(16),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			amount DECIMAL(14,2) NOT NULL,
			description TEXT,
			category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
			type VARCHAR(10) NOT NULL CHECK (type IN ('income', 'expense')),
			payment_method VARCHAR(20),
			transaction_date TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			amount DECIMAL(14,2) NOT NULL CHECK (amount > 0),
			category VARCHAR(50) NOT NULL,
			frequency VARCHAR(20) NOT NULL,
			due_date DATE NOT NULL,
			last_paid_date DATE,
			is_active BOOLEAN DEFAULT TRUE,
			is_paid BOOLEAN DEFAULT FALSE,
			description TEXT,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS savings (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			amount DECIMAL(14,2) NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(100) NOT NULL,
			date TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS cash_entries (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			amount DECIMAL(14,2) NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS investments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			amount DECIMAL(14,2) NOT NULL,
			description TEXT,
			asset VARCHAR(100) NOT NULL,
			date TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS crypto_addresses (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			address TEXT NOT NULL,
			currency VARCHAR(10) NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS stock_investments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			symbol VARCHAR(12) NOT NULL,
			shares DECIMAL(14,4) NOT NULL,
			purchase_price DECIMAL(14,2) NOT NULL,
			purchase_date DATE NOT NULL,
			current_price DECIMAL(14,2),
			last_updated TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, transaction_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_id ON expenses(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_flags ON expenses(user_id, is_active, is_paid)`,
		`CREATE INDEX IF NOT EXISTS idx_savings_user_id ON savings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cash_entries_user_id ON cash_entries(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return seedCategories(db)
}

// seedCategories inserts the default transaction categories on first
// boot. Existing rows are left alone.
func seedCategories(db *sql.DB) error {
	categories := []struct {
		name, icon, color string
	}{
		{"Comida", "🍽️", "#ef4444"},
		{"Transporte", "🚗", "#3b82f6"},
		{"Entretenimiento", "🎬", "#8b5cf6"},
		{"Compras", "🛍️", "#ec4899"},
		{"Salud", "🏥", "#10b981"},
		{"Educación", "📚", "#f59e0b"},
		{"Servicios", "💡", "#6b7280"},
		{"Salario", "💰", "#22c55e"},
		{"Freelance", "💻", "#06b6d4"},
		{"Inversiones", "📈", "#84cc16"},
		{"Otros Ingresos", "💵", "#a3a3a3"},
		{"Otros Gastos", "📦", "#64748b"},
	}

	for _, c := range categories {
		_, err := db.Exec(`
			INSERT INTO categories (name, icon, color)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, c.name, c.icon, c.color)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", c.name, err)
		}
	}

	return nil
}
