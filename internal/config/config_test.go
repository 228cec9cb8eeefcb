package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"APP_ENV":     "",
		"PORT":        "",
		"ADMIN_TOKEN": "",
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr())
	}
	if cfg.TariffConfigTTL != 5*time.Minute {
		t.Errorf("TariffConfigTTL = %v", cfg.TariffConfigTTL)
	}
	if cfg.OSRMTimeout != 5*time.Second {
		t.Errorf("OSRMTimeout = %v", cfg.OSRMTimeout)
	}
}

func TestLoadProductionRequiresAdminToken(t *testing.T) {
	if _, err := LoadForTests(map[string]string{
		"APP_ENV":     "production",
		"ADMIN_TOKEN": "",
	}); err == nil {
		t.Fatal("expected error without ADMIN_TOKEN in production")
	}
}

func TestHTTPAddrPrefixed(t *testing.T) {
	c := &Config{Port: ":9090"}
	if c.HTTPAddr() != ":9090" {
		t.Fatalf("HTTPAddr = %q", c.HTTPAddr())
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" a , ,b ")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("splitAndTrim = %v", got)
	}
}
