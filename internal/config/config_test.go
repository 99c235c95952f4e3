package config

import (
	"testing"
	"time"
)

func TestLoadRequiresShopID(t *testing.T) {
	t.Setenv("PAYZEN_SHOP_ID", "")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for missing PAYZEN_SHOP_ID")
	}
}

func TestLoadRejectsBadEnvironment(t *testing.T) {
	t.Setenv("PAYZEN_SHOP_ID", "12345678")
	t.Setenv("PAYZEN_ENVIRONMENT", "staging")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil, want error for invalid PAYZEN_ENVIRONMENT")
	}
}

// The browser landing page and the gateway's server-to-server return URL are
// distinct concerns: pointing the post-callback redirect back at the callback
// route would bounce the customer in a loop.
func TestLoadSeparatesRedirectFromReturnURL(t *testing.T) {
	t.Setenv("PAYZEN_SHOP_ID", "12345678")
	t.Setenv("PAYZEN_RETURN_URL", "https://shop.example.com/payment/payzen/return")
	t.Setenv("PAYZEN_REDIRECT_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RedirectURL == cfg.Acquirer.ReturnURL {
		t.Errorf("RedirectURL = %q, must differ from the callback return URL", cfg.RedirectURL)
	}
	if cfg.RedirectURL != "/" {
		t.Errorf("RedirectURL = %q, want default /", cfg.RedirectURL)
	}
}

func TestLoadRedirectURLOverride(t *testing.T) {
	t.Setenv("PAYZEN_SHOP_ID", "12345678")
	t.Setenv("PAYZEN_REDIRECT_URL", "https://shop.example.com/checkout/done")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.RedirectURL != "https://shop.example.com/checkout/done" {
		t.Errorf("RedirectURL = %q", cfg.RedirectURL)
	}
}

func TestLoadPollerDefaults(t *testing.T) {
	t.Setenv("PAYZEN_SHOP_ID", "12345678")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PollMinAge != 7*time.Minute {
		t.Errorf("PollMinAge = %v, want 7m", cfg.PollMinAge)
	}
	if cfg.PollMaxAge != 48*time.Hour {
		t.Errorf("PollMaxAge = %v, want 48h", cfg.PollMaxAge)
	}
}
