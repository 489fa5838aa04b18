package config

import (
	"os"
	"strconv"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "tella-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "tella-auth")
	}
	if cfg.JWTAudience != "tella-app" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "tella-app")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.CORSAllowedOrigin != "*" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "*")
	}
	if cfg.BillingLatencyMS != 800 {
		t.Errorf("BillingLatencyMS = %d, want 800", cfg.BillingLatencyMS)
	}
	if cfg.ResetLinkBase != "tellaai://reset-password" {
		t.Errorf("ResetLinkBase = %q, want default deep link", cfg.ResetLinkBase)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("BILLING_LATENCY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.BillingLatencyMS != 0 {
		t.Errorf("BillingLatencyMS = %d, want 0", cfg.BillingLatencyMS)
	}
}

func TestLoad_BcryptCostRange(t *testing.T) {
	testCases := []struct {
		name  string
		value string
		want  int
		err   bool
	}{
		{"valid min", "4", 4, false},
		{"valid max", "31", 31, false},
		{"valid middle", "12", 12, false},
		{"too low", "3", 0, true},
		{"too high", "32", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_COST", tc.value)

			cfg, err := Load()
			if tc.err {
				if err == nil {
					t.Fatalf("Load with BCRYPT_COST=%s: want error, got nil", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.BcryptCost != tc.want {
				t.Errorf("BcryptCost = %d, want %d", cfg.BcryptCost, tc.want)
			}
		})
	}
}

func TestLoad_NegativeBillingLatency(t *testing.T) {
	os.Clearenv()
	os.Setenv("BILLING_LATENCY_MS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("Load with negative BILLING_LATENCY_MS: want error, got nil")
	}
}

func TestConfig_TTLParsing(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "72h"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 72*time.Hour {
		t.Errorf("RefreshTTL = %v, want 72h", got)
	}

	// Invalid or empty values fall back to defaults.
	cfg = &Config{JWTAccessTTL: "bogus", JWTRefreshTTL: ""}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := cfg.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
}

func TestConfig_SweepInterval(t *testing.T) {
	cfg := &Config{SessionSweepInterval: "10m"}
	if got := cfg.SweepInterval(); got != 10*time.Minute {
		t.Errorf("SweepInterval = %v, want 10m", got)
	}
	cfg = &Config{SessionSweepInterval: "not-a-duration"}
	if got := cfg.SweepInterval(); got != time.Hour {
		t.Errorf("SweepInterval fallback = %v, want 1h", got)
	}
}

func TestConfig_BillingLatency(t *testing.T) {
	for _, ms := range []int{0, 250, 800} {
		cfg := &Config{BillingLatencyMS: ms}
		want := time.Duration(ms) * time.Millisecond
		if got := cfg.BillingLatency(); got != want {
			t.Errorf("BillingLatency(%s) = %v, want %v", strconv.Itoa(ms), got, want)
		}
	}
}
