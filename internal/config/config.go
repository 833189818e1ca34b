package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the YAML file consulted when CONFIG_PATH is unset.
const DefaultPath = "configs/default.yaml"

// Config is the immutable runtime configuration, resolved once at startup.
type Config struct {
	Port           int
	GRPCHealthPort int

	DetectorURL     string
	DetectorAPIKey  string
	DetectorTimeout time.Duration

	// Threshold is the percentage above which media is reported as AI generated.
	Threshold float64

	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	LogLevel           string
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type configFile struct {
	Service struct {
		Port           int    `yaml:"port"`
		GRPCHealthPort int    `yaml:"grpc_health_port"`
		LogLevel       string `yaml:"log_level"`
		ShutdownSecs   int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"service"`
	Detector struct {
		URL            string   `yaml:"url"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		Threshold      *float64 `yaml:"threshold"`
	} `yaml:"detector"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file is not an error; the detector credential is only read from env.
func Load(path string) (Config, error) {
	cfg := Config{
		Port:               3000,
		DetectorTimeout:    30 * time.Second,
		Threshold:          5,
		ShutdownTimeout:    15 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		LogLevel:           "info",
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := applyFile(&cfg, raw); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.DetectorURL = strings.TrimSpace(envOrDefault("DETECTOR_API_URL", cfg.DetectorURL))
	cfg.DetectorAPIKey = strings.TrimSpace(os.Getenv("DETECTOR_API_KEY"))
	cfg.LogLevel = strings.ToLower(envOrDefault("LOG_LEVEL", cfg.LogLevel))
	cfg.CORSAllowedOrigins = envCSV("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)

	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return Config{}, err
	}
	if cfg.GRPCHealthPort, err = envInt("GRPC_HEALTH_PORT", cfg.GRPCHealthPort); err != nil {
		return Config{}, err
	}
	if cfg.DetectorTimeout, err = envSeconds("DETECTOR_TIMEOUT_SECONDS", cfg.DetectorTimeout); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = envSeconds("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("AI_PERCENTAGE_THRESHOLD")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AI_PERCENTAGE_THRESHOLD %q: %w", raw, err)
		}
		cfg.Threshold = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.Port > 0 {
		cfg.Port = f.Service.Port
	}
	if f.Service.GRPCHealthPort > 0 {
		cfg.GRPCHealthPort = f.Service.GRPCHealthPort
	}
	if f.Service.LogLevel != "" {
		cfg.LogLevel = f.Service.LogLevel
	}
	if f.Service.ShutdownSecs > 0 {
		cfg.ShutdownTimeout = time.Duration(f.Service.ShutdownSecs) * time.Second
	}
	if f.Detector.URL != "" {
		cfg.DetectorURL = f.Detector.URL
	}
	if f.Detector.TimeoutSeconds > 0 {
		cfg.DetectorTimeout = time.Duration(f.Detector.TimeoutSeconds) * time.Second
	}
	if f.Detector.Threshold != nil {
		cfg.Threshold = *f.Detector.Threshold
	}
	if len(f.CORS.AllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = f.CORS.AllowedOrigins
	}
	return nil
}

func (c Config) validate() error {
	if c.DetectorURL == "" {
		return errors.New("missing DETECTOR_API_URL")
	}
	if c.DetectorAPIKey == "" {
		return errors.New("missing DETECTOR_API_KEY")
	}
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("AI_PERCENTAGE_THRESHOLD must be between 0 and 100, got %v", c.Threshold)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.GRPCHealthPort < 0 || c.GRPCHealthPort > 65535 {
		return fmt.Errorf("invalid GRPC_HEALTH_PORT %d", c.GRPCHealthPort)
	}
	if c.DetectorTimeout <= 0 {
		return errors.New("DETECTOR_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt rejects malformed values instead of silently falling back, since a
// typo in PORT should stop the process.
func envInt(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}

func envSeconds(name string, fallback time.Duration) (time.Duration, error) {
	secs, err := envInt(name, int(fallback.Seconds()))
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
