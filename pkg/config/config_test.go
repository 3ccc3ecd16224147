package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "TAX_RATE", "STOCK_POLICY", "AUDIT_SALES", "PERISHABLE_WINDOW_DAYS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.True(t, cfg.TaxRate.Equal(decimal.RequireFromString("0.12")))
	assert.Equal(t, StockPolicyStrict, cfg.StockPolicy)
	assert.True(t, cfg.AuditSales)
	assert.Equal(t, 30, cfg.PerishableWindowDays)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.05")
	t.Setenv("STOCK_POLICY", "LEGACY")
	t.Setenv("AUDIT_SALES", "false")
	t.Setenv("DATABASE_URL", "postgres://pos@localhost/pos")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.05", cfg.TaxRate.String())
	assert.Equal(t, StockPolicyLegacy, cfg.StockPolicy)
	assert.False(t, cfg.AuditSales)
	assert.Equal(t, "postgres://pos@localhost/pos", cfg.Database.DSN())
}

func TestFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"TAX_RATE":               "1.5",
		"STOCK_POLICY":           "optimistic",
		"AUDIT_SALES":            "maybe",
		"PERISHABLE_WINDOW_DAYS": "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_KeyValueDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", User: "pos", Password: "secret", Name: "pos_system", Port: "5432", TimeZone: "UTC"}
	assert.Equal(t, "host=db user=pos password=secret dbname=pos_system port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}
