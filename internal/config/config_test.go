package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"DETECTOR_API_URL",
	"DETECTOR_API_KEY",
	"AI_PERCENTAGE_THRESHOLD",
	"PORT",
	"GRPC_HEALTH_PORT",
	"DETECTOR_TIMEOUT_SECONDS",
	"SHUTDOWN_TIMEOUT_SECONDS",
	"CORS_ALLOWED_ORIGINS",
	"LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func missingPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.yaml")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTOR_API_URL", "https://detector.example/v1/analyze")
	t.Setenv("DETECTOR_API_KEY", "secret")

	cfg, err := Load(missingPath(t))
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.Port != 3000 {
		t.Fatalf("expected default port 3000, got %d", cfg.Port)
	}
	if cfg.Threshold != 5 {
		t.Fatalf("expected default threshold 5, got %v", cfg.Threshold)
	}
	if cfg.DetectorTimeout != 30*time.Second {
		t.Fatalf("expected default detector timeout 30s, got %s", cfg.DetectorTimeout)
	}
	if cfg.GRPCHealthPort != 0 {
		t.Fatalf("expected grpc health disabled by default, got %d", cfg.GRPCHealthPort)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.Addr() != ":3000" {
		t.Fatalf("unexpected addr: %s", cfg.Addr())
	}
}

func TestLoadRequiresDetectorSettings(t *testing.T) {
	cases := map[string]struct {
		url, key string
		want     string
	}{
		"missing url": {key: "secret", want: "DETECTOR_API_URL"},
		"missing key": {url: "https://detector.example", want: "DETECTOR_API_KEY"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DETECTOR_API_URL", tc.url)
			t.Setenv("DETECTOR_API_KEY", tc.key)

			_, err := Load(missingPath(t))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "101", "NaN", "Inf", "-Inf"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DETECTOR_API_URL", "https://detector.example")
			t.Setenv("DETECTOR_API_KEY", "secret")
			t.Setenv("AI_PERCENTAGE_THRESHOLD", raw)

			if _, err := Load(missingPath(t)); err == nil {
				t.Fatalf("expected threshold %q to be rejected", raw)
			}
		})
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
service:
  port: 8081
  grpc_health_port: 9091
detector:
  url: https://file.example/analyze
  timeout_seconds: 12
  threshold: 40
cors:
  allowed_origins: ["https://app.example"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("DETECTOR_API_KEY", "secret")
	t.Setenv("AI_PERCENTAGE_THRESHOLD", "12.5")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.DetectorURL != "https://file.example/analyze" {
		t.Fatalf("expected detector url from file, got %s", cfg.DetectorURL)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected env port to win, got %d", cfg.Port)
	}
	if cfg.Threshold != 12.5 {
		t.Fatalf("expected env threshold to win, got %v", cfg.Threshold)
	}
	if cfg.DetectorTimeout != 12*time.Second {
		t.Fatalf("expected timeout from file, got %s", cfg.DetectorTimeout)
	}
	if cfg.GRPCHealthPort != 9091 {
		t.Fatalf("expected grpc port from file, got %d", cfg.GRPCHealthPort)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "https://app.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTOR_API_URL", "https://detector.example")
	t.Setenv("DETECTOR_API_KEY", "secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("service: [unclosed"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestLoadRejectsMalformedPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTOR_API_URL", "https://detector.example")
	t.Setenv("DETECTOR_API_KEY", "secret")
	t.Setenv("PORT", "eighty")

	if _, err := Load(missingPath(t)); err == nil {
		t.Fatal("expected error for malformed PORT, got nil")
	}
}

func TestLoadRejectsNaNThresholdFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DETECTOR_API_URL", "https://detector.example")
	t.Setenv("DETECTOR_API_KEY", "secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("detector:\n  threshold: .nan\n"), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected NaN threshold to be rejected, got nil")
	}
}
