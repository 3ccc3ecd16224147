package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Stock decrement policies for the checkout transaction.
const (
	StockPolicyStrict = "strict" // stock = stock - qty WHERE stock >= qty
	StockPolicyLegacy = "legacy" // unconditional stock = stock - qty
)

type Config struct {
	Port     string
	Database DatabaseConfig

	JWTSecret string
	LogLevel  string

	TaxRate              decimal.Decimal
	StockPolicy          string
	AuditSales           bool
	PerishableWindowDays int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	TimeZone string
}

// DSN returns DATABASE_URL when set, otherwise a key/value postgres DSN.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.TimeZone,
	)
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "3000"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getEnv("DB_PORT", "5432"),
			TimeZone: getEnv("DB_TIMEZONE", "Asia/Manila"),
		},
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StockPolicy: strings.ToLower(getEnv("STOCK_POLICY", StockPolicyStrict)),
	}

	rate, err := decimal.NewFromString(getEnv("TAX_RATE", "0.12"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid TAX_RATE %s: must be in [0, 1)", rate)
	}
	cfg.TaxRate = rate

	if cfg.StockPolicy != StockPolicyStrict && cfg.StockPolicy != StockPolicyLegacy {
		return nil, fmt.Errorf("invalid STOCK_POLICY %q: use %q or %q", cfg.StockPolicy, StockPolicyStrict, StockPolicyLegacy)
	}

	cfg.AuditSales, err = strconv.ParseBool(getEnv("AUDIT_SALES", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIT_SALES: %w", err)
	}

	cfg.PerishableWindowDays, err = strconv.Atoi(getEnv("PERISHABLE_WINDOW_DAYS", "30"))
	if err != nil || cfg.PerishableWindowDays < 0 {
		return nil, fmt.Errorf("invalid PERISHABLE_WINDOW_DAYS %q", os.Getenv("PERISHABLE_WINDOW_DAYS"))
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
