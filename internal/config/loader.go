package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the to-do platform.
type Config struct {
	HTTPPort  int
	ProxyPort int

	SQLiteDSN string

	// APIBaseURL is the backend origin the proxy and CLI talk to.
	APIBaseURL string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Load reads a .env file when present and then parses configuration values
// from the process environment.
//
// The loader applies defaults for optional fields and reports missing or
// malformed entries by name.
func Load() (Config, error) {
	// A missing .env file is not an error; real environments set variables
	// directly.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:        8000,
		ProxyPort:       3000,
		SQLiteDSN:       "file:todo.db?_foreign_keys=on",
		APIBaseURL:      "http://localhost:8000",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("TODO_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TODO_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("TODO_PROXY_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "TODO_PROXY_PORT")
		} else {
			cfg.ProxyPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("TODO_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if base := strings.TrimSpace(os.Getenv("TODO_API_BASE")); base != "" {
		cfg.APIBaseURL = strings.TrimRight(base, "/")
	}

	if secret := strings.TrimSpace(os.Getenv("TODO_JWT_SECRET")); secret == "" {
		missing = append(missing, "TODO_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("TODO_ACCESS_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TODO_ACCESS_TOKEN_TTL")
		} else {
			cfg.AccessTokenTTL = ttl
		}
	}

	if ttlValue := strings.TrimSpace(os.Getenv("TODO_REFRESH_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "TODO_REFRESH_TOKEN_TTL")
		} else {
			cfg.RefreshTokenTTL = ttl
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
