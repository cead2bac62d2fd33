// Package config provides configuration loading for the Jagriti proxy.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// godotenv.Load() does not override already-set environment variables,
// so OS env > .env.local > .env.
func init() {
	// Load .env.local first so its values win over the shared .env
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the proxy.
type Config struct {
	Env  string // Deployment environment (dev, staging, prod)
	Host string // Bind host; also used to build document links
	Port string // HTTP server port

	UpstreamURL    string        // Base URL of the e-Jagriti portal
	RequestTimeout time.Duration // Fixed per-call timeout for upstream requests

	ReferenceCacheTTL time.Duration // How long state/commission lists stay cached
	DocumentCacheSize int           // Maximum number of recovered documents held in memory

	NATSURL string // NATS server URL for search events (empty disables publishing)

	CORSAllowedOrigins []string // Allowed origins for CORS; "*" allows any
	Tracing            bool     // Export OpenTelemetry spans to stdout
}

// Default configuration values used when environment variables are not set
const (
	defaultEnv               = "dev"
	defaultHost              = "0.0.0.0"
	defaultPort              = "8000"
	defaultUpstreamURL       = "https://e-jagriti.gov.in"
	defaultRequestTimeout    = 30 * time.Second
	defaultReferenceCacheTTL = time.Hour
	defaultDocumentCacheSize = 512
)

// Load reads environment variables and produces a Config suitable for wiring the service.
// Returns an error if a variable is set but malformed.
func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("JAGRITI_ENV", defaultEnv),
		Host:               getEnv("JAGRITI_HOST", defaultHost),
		Port:               getEnv("JAGRITI_PORT", defaultPort),
		UpstreamURL:        strings.TrimRight(getEnv("JAGRITI_UPSTREAM_URL", defaultUpstreamURL), "/"),
		RequestTimeout:     defaultRequestTimeout,
		ReferenceCacheTTL:  defaultReferenceCacheTTL,
		DocumentCacheSize:  defaultDocumentCacheSize,
		CORSAllowedOrigins: []string{"*"},
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return cfg, fmt.Errorf("JAGRITI_PORT must be a TCP port, got %q", cfg.Port)
	}

	if u, err := url.Parse(cfg.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, fmt.Errorf("JAGRITI_UPSTREAM_URL must be an absolute URL, got %q", cfg.UpstreamURL)
	}

	if v, exists := os.LookupEnv("JAGRITI_REQUEST_TIMEOUT"); exists {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("JAGRITI_REQUEST_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.RequestTimeout = d
	}

	if v, exists := os.LookupEnv("JAGRITI_REFERENCE_CACHE_TTL"); exists {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("JAGRITI_REFERENCE_CACHE_TTL must be a positive duration, got %q", v)
		}
		cfg.ReferenceCacheTTL = d
	}

	if v, exists := os.LookupEnv("JAGRITI_DOCUMENT_CACHE_SIZE"); exists {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("JAGRITI_DOCUMENT_CACHE_SIZE must be a positive integer, got %q", v)
		}
		cfg.DocumentCacheSize = n
	}

	if natsURL, exists := os.LookupEnv("JAGRITI_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	// Handle CORS configuration
	if corsOrigins, exists := os.LookupEnv("JAGRITI_CORS_ALLOWED_ORIGINS"); exists && corsOrigins != "" {
		cfg.CORSAllowedOrigins = nil
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	if tracing, exists := os.LookupEnv("JAGRITI_TRACING"); exists {
		cfg.Tracing = parseBool(tracing)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
