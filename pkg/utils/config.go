package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProfileFull  = "full"
	ProfileBasic = "basic"
)

// ScrapeConfig controls one scrape run.
type ScrapeConfig struct {
	PageSize       int           `yaml:"page_size"`
	Delay          time.Duration `yaml:"delay"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	DataTimeout    time.Duration `yaml:"data_timeout"`
	MaxPages       int           `yaml:"max_pages"` // 0 means no cap
	UserAgent      string        `yaml:"user_agent"`
	AcceptLanguage string        `yaml:"accept_language"`
	Cookie         string        `yaml:"cookie"` // opaque session cookie from an external login step
	Identity       []string      `yaml:"identity"`
	Profile        string        `yaml:"profile"`
	Locale         string        `yaml:"locale"`
	OutputDir      string        `yaml:"output_dir"`
	PostgresDSN    string        `yaml:"postgres_dsn"`
	LogLevel       string        `yaml:"log_level"`
}

// AuthConfig configures the API bearer tokens.
type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	JWTDuration  time.Duration
	PasswordHash string // bcrypt hash of the operator password
}

// ServerConfig holds listen addresses for the long-running binaries.
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	ProgressAddr string // TCP progress feed, empty disables it
	MockAddr     string
}

func DefaultScrapeConfig() ScrapeConfig {
	return ScrapeConfig{
		PageSize:       250,
		Delay:          500 * time.Millisecond,
		ProbeTimeout:   10 * time.Second,
		DataTimeout:    30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AcceptLanguage: "en-US,en;q=0.9",
		Identity:       []string{"sku", "barcode"},
		Profile:        ProfileFull,
		Locale:         "en",
		OutputDir:      ".",
		LogLevel:       "INFO",
	}
}

// LoadScrapeConfig layers defaults, the optional YAML file named by
// SHOPSCRAPE_CONFIG, and SHOPSCRAPE_* environment variables, in that order.
func LoadScrapeConfig() (ScrapeConfig, error) {
	cfg := DefaultScrapeConfig()

	if path := os.Getenv("SHOPSCRAPE_CONFIG"); path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("SHOPSCRAPE_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SHOPSCRAPE_PAGE_SIZE: %w", err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("SHOPSCRAPE_MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("SHOPSCRAPE_MAX_PAGES: %w", err)
		}
		cfg.MaxPages = n
	}
	for key, dst := range map[string]*time.Duration{
		"SHOPSCRAPE_DELAY":         &cfg.Delay,
		"SHOPSCRAPE_PROBE_TIMEOUT": &cfg.ProbeTimeout,
		"SHOPSCRAPE_DATA_TIMEOUT":  &cfg.DataTimeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return cfg, fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	for key, dst := range map[string]*string{
		"SHOPSCRAPE_USER_AGENT":      &cfg.UserAgent,
		"SHOPSCRAPE_ACCEPT_LANGUAGE": &cfg.AcceptLanguage,
		"SHOPSCRAPE_COOKIE":          &cfg.Cookie,
		"SHOPSCRAPE_PROFILE":         &cfg.Profile,
		"SHOPSCRAPE_LOCALE":          &cfg.Locale,
		"SHOPSCRAPE_OUTPUT_DIR":      &cfg.OutputDir,
		"SHOPSCRAPE_PG_DSN":          &cfg.PostgresDSN,
		"SHOPSCRAPE_LOG_LEVEL":       &cfg.LogLevel,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("SHOPSCRAPE_IDENTITY"); v != "" {
		cfg.Identity = splitList(v)
	}

	return cfg, cfg.Validate()
}

// Validate rejects settings the pipeline cannot run with.
func (c ScrapeConfig) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be > 0, got %d", c.PageSize)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must not be negative")
	}
	switch c.Profile {
	case ProfileFull, ProfileBasic:
	default:
		return fmt.Errorf("unknown column profile %q", c.Profile)
	}
	for _, f := range c.Identity {
		if f != "sku" && f != "barcode" {
			return fmt.Errorf("unknown identity field %q", f)
		}
	}
	return nil
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("SHOPSCRAPE_JWT_SECRET")
	if secret == "" {
		// dev default (change for any shared deployment)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("SHOPSCRAPE_JWT_ISSUER")
	if issuer == "" {
		issuer = "shopscrape"
	}

	ttl := 24 * time.Hour
	if v := os.Getenv("SHOPSCRAPE_JWT_TTL_HOURS"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			ttl = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:    secret,
		JWTIssuer:    issuer,
		JWTDuration:  ttl,
		PasswordHash: os.Getenv("SHOPSCRAPE_ADMIN_PASSWORD_HASH"),
	}
}

func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{HTTPAddr: ":8080", GRPCAddr: ":9090", ProgressAddr: ":7070", MockAddr: ":9000"}
	for key, dst := range map[string]*string{
		"SHOPSCRAPE_HTTP_ADDR":     &cfg.HTTPAddr,
		"SHOPSCRAPE_GRPC_ADDR":     &cfg.GRPCAddr,
		"SHOPSCRAPE_PROGRESS_ADDR": &cfg.ProgressAddr,
		"SHOPSCRAPE_MOCK_ADDR":     &cfg.MockAddr,
	} {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	return cfg
}

func loadYAML(path string, cfg *ScrapeConfig) error {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
