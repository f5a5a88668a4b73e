package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/Cogwheel-Validator/spectra-xcm-portal/portal/config"
)

// helper to reset env vars with PORTAL_ prefix between tests
func unsetPortalEnv() {
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "PORTAL_") {
			if idx := strings.Index(e, "="); idx != -1 {
				_ = os.Unsetenv(e[:idx])
			}
		}
	}
}

func TestLoadRPCPortalConfig_FromEnv_Success(t *testing.T) {
	unsetPortalEnv()
	t.Setenv("PORTAL_PORT", "8080")
	t.Setenv("PORTAL_HOST", "0.0.0.0")
	t.Setenv("PORTAL_ALLOWED_ORIGINS", "*")
	t.Setenv("PORTAL_BUILDER_URLS", "https://builder.example.com/v4,https://backup.example.com/v4")
	t.Setenv("PORTAL_SUBMIT_TIMEOUT", "45s")

	cfg, err := LoadRPCPortalConfig(nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 8080 || cfg.Host != "0.0.0.0" {
		t.Errorf("unexpected port/host: %v %v", cfg.Port, cfg.Host)
	}
	if len(cfg.BuilderURLs) != 2 {
		t.Errorf("expected 2 builder urls, got %d", len(cfg.BuilderURLs))
	}
	if cfg.SubmitTimeout != 45*time.Second {
		t.Errorf("unexpected submit timeout: %v", cfg.SubmitTimeout)
	}
	if cfg.DefaultOrigin != "Astar" || cfg.DefaultDestination != "Moonbeam" {
		t.Errorf("expected demo defaults, got %s -> %s", cfg.DefaultOrigin, cfg.DefaultDestination)
	}
}

func TestLoadRPCPortalConfig_FromEnv_FailVerification(t *testing.T) {
	unsetPortalEnv()
	// Run in empty dir so godotenv.Load() inside the loader doesn't set PORTAL_* from a .env file
	origWd, _ := os.Getwd()
	defer os.Chdir(origWd)
	_ = os.Chdir(t.TempDir())

	// missing HOST
	t.Setenv("PORTAL_PORT", "8080")
	t.Setenv("PORTAL_ALLOWED_ORIGINS", "*")
	t.Setenv("PORTAL_BUILDER_URLS", "https://builder.example.com/v4")

	if _, err := LoadRPCPortalConfig(nil); err == nil {
		t.Fatalf("expected error due to missing host, got nil")
	}
}

func TestLoadRPCPortalConfig_FromFile_Success(t *testing.T) {
	unsetPortalEnv()

	dir := t.TempDir()
	path := filepath.Join(dir, "rpc_config.toml")
	content := `
port = 9090
host = "127.0.0.1"
allowed_origins = ["https://example.com"]
builder_urls = ["https://builder.example.com/v4"]
registry_path = "/etc/portal/registry.toml"
default_origin = "Hydration"

[[extensions]]
name = "polkadot-js"
kind = "keystore"
path = "/etc/portal/keystore.json"
passphrase_env = "PORTAL_KEYSTORE_PASS"

[[extensions]]
name = "dev"
kind = "dev"
accounts = ["//Alice", "//Bob"]
ss58_prefix = 42
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}

	cfg, err := LoadRPCPortalConfig(&path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Port != 9090 || cfg.Host != "127.0.0.1" {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("unexpected allowed origins: %+v", cfg.AllowedOrigins)
	}
	if cfg.RegistryPath != "/etc/portal/registry.toml" {
		t.Errorf("unexpected registry path: %s", cfg.RegistryPath)
	}
	if cfg.DefaultOrigin != "Hydration" || cfg.DefaultDestination != "Moonbeam" {
		t.Errorf("unexpected form defaults: %s -> %s", cfg.DefaultOrigin, cfg.DefaultDestination)
	}
	if len(cfg.Extensions) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(cfg.Extensions))
	}
	if cfg.Extensions[1].Kind != "dev" || len(cfg.Extensions[1].Accounts) != 2 || cfg.Extensions[1].SS58Prefix != 42 {
		t.Errorf("unexpected dev extension: %+v", cfg.Extensions[1])
	}
}

func TestLoadRPCPortalConfig_FromFile_WrongExtension(t *testing.T) {
	unsetPortalEnv()
	p := "config.yaml"
	if _, err := LoadRPCPortalConfig(&p); err == nil {
		t.Fatalf("expected error for non-toml file")
	}
}

func TestLoadRPCPortalConfig_FromFile_BadExtensionKind(t *testing.T) {
	unsetPortalEnv()

	path := filepath.Join(t.TempDir(), "rpc_config.toml")
	content := `
port = 9090
host = "127.0.0.1"
allowed_origins = ["*"]
builder_urls = ["https://builder.example.com/v4"]

[[extensions]]
name = "talisman"
kind = "hardware"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing temp config: %v", err)
	}
	if _, err := LoadRPCPortalConfig(&path); err == nil {
		t.Fatalf("expected error for unknown extension kind")
	}
}
