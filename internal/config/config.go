package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string
	LogFile   string
	DB        DBConfig
}

type DBConfig struct {
	Driver string

	// SQLite
	Path string

	// PostgreSQL. URL wins over the individual parts when set.
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the data source name for the configured driver.
func (c DBConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	return u.String()
}

// Load reads configuration from the environment. Callers that want .env
// support load it into the environment first.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:      env("NOTES_PORT", "8080"),
		LogLevel:  env("NOTES_LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(env("NOTES_LOG_FORMAT", "text")),
		LogFile:   env("NOTES_LOG_FILE", ""),
		DB: DBConfig{
			Driver:   strings.ToLower(env("NOTES_DB_DRIVER", DriverSQLite)),
			Path:     env("NOTES_DB_PATH", "notes.db"),
			URL:      env("NOTES_DATABASE_URL", ""),
			Host:     env("NOTES_DB_HOST", "localhost"),
			Port:     env("NOTES_DB_PORT", "5432"),
			User:     env("NOTES_DB_USER", "postgres"),
			Password: getenv("NOTES_DB_PASSWORD"),
			Name:     env("NOTES_DB_NAME", "notes"),
			SSLMode:  env("NOTES_DB_SSLMODE", "disable"),
		},
	}

	switch cfg.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("NOTES_DB_DRIVER: unsupported driver %q (want %s or %s)", cfg.DB.Driver, DriverSQLite, DriverPostgres)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("NOTES_LOG_FORMAT: unsupported format %q (want text or json)", cfg.LogFormat)
	}

	var err error
	if cfg.DB.MaxOpenConns, err = positiveInt("NOTES_DB_MAX_OPEN_CONNS", env("NOTES_DB_MAX_OPEN_CONNS", "10")); err != nil {
		return Config{}, err
	}
	if cfg.DB.MaxIdleConns, err = positiveInt("NOTES_DB_MAX_IDLE_CONNS", env("NOTES_DB_MAX_IDLE_CONNS", "5")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func positiveInt(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}
