// Package config loads the bridge settings from an optional TOML file, a
// .env file and the process environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SanteonNL/namaste-bridge/cmd/bridge/terminology"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/exp/slices"
)

// Store drivers.
const (
	DriverFHIR     = "fhir"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

var drivers = []string{DriverFHIR, DriverPostgres, DriverSQLite, DriverMemory}

// Duration reads "5s" style values from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Addr            string   `toml:"addr"`
	CORSOrigins     []string `toml:"cors_origins"`
	UpstreamTimeout Duration `toml:"upstream_timeout"`
	// CatalogCacheTTL keeps the local catalog in memory between searches.
	// Zero fetches it on every search.
	CatalogCacheTTL Duration `toml:"catalog_cache_ttl"`

	Log         LogConfig         `toml:"log"`
	Store       StoreConfig       `toml:"store"`
	Terminology TerminologyConfig `toml:"terminology"`
	ICD         ICDConfig         `toml:"icd"`
	Auth        AuthConfig        `toml:"auth"`
	Audit       AuditConfig       `toml:"audit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type StoreConfig struct {
	Driver      string `toml:"driver"`
	FHIRBaseURL string `toml:"fhir_base_url"`
	DatabaseURL string `toml:"database_url"`
}

type TerminologyConfig struct {
	CodeSystemID    string `toml:"codesystem_id"`
	ConceptMapID    string `toml:"conceptmap_id"`
	CodeSystemURL   string `toml:"codesystem_url"`
	ConceptMapURL   string `toml:"conceptmap_url"`
	TargetSystemURL string `toml:"target_system_url"`
}

type ICDConfig struct {
	ClientID     string  `toml:"client_id"`
	ClientSecret string  `toml:"client_secret"`
	TokenURL     string  `toml:"token_url"`
	BaseURL      string  `toml:"base_url"`
	Language     string  `toml:"language"`
	Rate         float64 `toml:"rate"`
}

type AuthConfig struct {
	Token  string `toml:"token"`
	UserID string `toml:"user_id"`
}

type AuditConfig struct {
	RedisAddr string `toml:"redis_addr"`
	Stream    string `toml:"stream"`
}

// Default returns the settings of a local development deployment: a HAPI
// FHIR server on port 8080 and the public WHO endpoints.
func Default() *Config {
	return &Config{
		Addr:            ":8000",
		CORSOrigins:     []string{"http://localhost", "http://localhost:5500", "http://127.0.0.1:5500"},
		UpstreamTimeout: Duration{5 * time.Second},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Driver:      DriverFHIR,
			FHIRBaseURL: "http://localhost:8080/fhir",
		},
		Terminology: TerminologyConfig{
			CodeSystemID:    terminology.NamasteCodeSystemID,
			ConceptMapID:    terminology.NamasteConceptMapID,
			CodeSystemURL:   terminology.NamasteCodeSystemURL,
			ConceptMapURL:   terminology.NamasteConceptMapURL,
			TargetSystemURL: terminology.ICD11EntitySystemURL,
		},
		ICD: ICDConfig{
			TokenURL: "https://icdaccessmanagement.who.int/connect/token",
			BaseURL:  "https://id.who.int",
			Language: "en",
		},
		Auth: AuthConfig{
			UserID: "api-user",
		},
		Audit: AuditConfig{
			Stream: "bridge:audit",
		},
	}
}

// Load builds the configuration. path names an optional TOML file; envFile an
// optional .env file whose values never override variables already set.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BRIDGE_ADDR":            &c.Addr,
		"LOG_LEVEL":              &c.Log.Level,
		"LOG_FORMAT":             &c.Log.Format,
		"STORE_DRIVER":           &c.Store.Driver,
		"FHIR_SERVER_BASE_URL":   &c.Store.FHIRBaseURL,
		"DATABASE_URL":           &c.Store.DatabaseURL,
		"CODESYSTEM_ID":          &c.Terminology.CodeSystemID,
		"CONCEPTMAP_ID":          &c.Terminology.ConceptMapID,
		"NAMASTE_CODESYSTEM_URL": &c.Terminology.CodeSystemURL,
		"NAMASTE_CONCEPTMAP_URL": &c.Terminology.ConceptMapURL,
		"ICD11_SYSTEM_URL":       &c.Terminology.TargetSystemURL,
		"WHO_API_CLIENT_ID":      &c.ICD.ClientID,
		"WHO_API_CLIENT_SECRET":  &c.ICD.ClientSecret,
		"WHO_TOKEN_URL":          &c.ICD.TokenURL,
		"WHO_API_BASE_URL":       &c.ICD.BaseURL,
		"WHO_API_LANGUAGE":       &c.ICD.Language,
		"API_TOKEN":              &c.Auth.Token,
		"API_USER_ID":            &c.Auth.UserID,
		"REDIS_ADDR":             &c.Audit.RedisAddr,
		"AUDIT_STREAM":           &c.Audit.Stream,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok {
			*field = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup("WHO_API_RATE"); ok && strings.TrimSpace(v) != "" {
		rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid WHO_API_RATE %q: %w", v, err)
		}
		c.ICD.Rate = rate
	}
	if v, ok := lookup("UPSTREAM_TIMEOUT"); ok && strings.TrimSpace(v) != "" {
		if err := c.UpstreamTimeout.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", v, err)
		}
	}
	if v, ok := lookup("CATALOG_CACHE_TTL"); ok && strings.TrimSpace(v) != "" {
		if err := c.CatalogCacheTTL.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return fmt.Errorf("invalid CATALOG_CACHE_TTL %q: %w", v, err)
		}
	}
	if v, ok := lookup("CORS_ORIGINS"); ok {
		c.CORSOrigins = splitList(v)
	}
	return nil
}

// Validate rejects settings the bridge cannot start with.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(c.Store.Driver)
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("unknown store driver %q, expected one of %s", c.Store.Driver, strings.Join(drivers, ", "))
	}
	switch c.Store.Driver {
	case DriverFHIR:
		if c.Store.FHIRBaseURL == "" {
			return errors.New("FHIR_SERVER_BASE_URL is required for the fhir store driver")
		}
	case DriverPostgres, DriverSQLite:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store driver", c.Store.Driver)
		}
	}
	if c.UpstreamTimeout.Duration <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.Terminology.CodeSystemID == "" || c.Terminology.ConceptMapID == "" {
		return errors.New("code system and concept map ids must not be empty")
	}
	return nil
}

// ICDEnabled reports whether WHO API credentials are configured.
func (c *Config) ICDEnabled() bool {
	return c.ICD.ClientID != "" && c.ICD.ClientSecret != ""
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
