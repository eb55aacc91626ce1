package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("ORDER_TAX_PERCENT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EXPOSE_INTERNAL_ERRORS", "")

	cfg := Load()
	if cfg.StoreDriver != "postgres" {
		t.Errorf("store driver: got %s", cfg.StoreDriver)
	}
	if !cfg.ExposeInternalErrors {
		t.Error("internal errors are exposed outside production")
	}
	if !cfg.Billing.OrderTaxPercent.Equal(decimal.NewFromInt(5)) {
		t.Errorf("tax: got %s", cfg.Billing.OrderTaxPercent)
	}
	b, d := cfg.Billing, DefaultBilling()
	if b.AutoGenerateBill != d.AutoGenerateBill || b.SyncOrderFromBill != d.SyncOrderFromBill ||
		b.StrictOrderTransitions != d.StrictOrderTransitions || b.StampCompletedAt || b.SoftCancelReservations {
		t.Errorf("billing defaults: got %+v", b)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("idempotency ttl: got %s", cfg.IdempotencyTTL)
	}
}

func TestLoad_Production(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("EXPOSE_INTERNAL_ERRORS", "")

	if Load().ExposeInternalErrors {
		t.Error("production must hide internal errors by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ORDER_TAX_PERCENT", "12.5")
	t.Setenv("SOFT_CANCEL_RESERVATIONS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOGIN_BURST", "0")
	t.Setenv("IDEMPOTENCY_TTL", "90m")

	cfg := Load()
	if !cfg.Billing.OrderTaxPercent.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("tax: got %s", cfg.Billing.OrderTaxPercent)
	}
	if !cfg.Billing.SoftCancelReservations {
		t.Error("soft cancel should be on")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins: got %v", cfg.AllowedOrigins)
	}
	if cfg.LoginBurst != 5 {
		t.Errorf("invalid burst should fall back, got %d", cfg.LoginBurst)
	}
	if cfg.IdempotencyTTL != 90*time.Minute {
		t.Errorf("ttl: got %s", cfg.IdempotencyTTL)
	}
}

func TestGetBool_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_FLAG", "sometimes")
	if !getBool("X_FLAG", true) {
		t.Error("invalid bool should use fallback")
	}
}
