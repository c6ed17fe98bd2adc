package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	ServerPort        string
	AppEnv            string
	AuthDevMode       bool
	LogLevel          string
	StorageBackend    string
	CORSOrigins       []string
	CookieSecure      bool
	RecurringSchedule string
	Admin             AdminConfig
	DB                DBConfig
	Cognito           CognitoConfig
}

type AdminConfig struct {
	ResetEnabled bool
	Token        string
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode {
		if c.Cognito.UserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required when AUTH_DEV_MODE is disabled")
		}
		if c.Cognito.AppClientID == "" {
			return fmt.Errorf("COGNITO_APP_CLIENT_ID is required when AUTH_DEV_MODE is disabled")
		}
	}

	switch c.StorageBackend {
	case StoragePostgres:
	case StorageMemory:
		if c.AppEnv != "local" {
			return fmt.Errorf("STORAGE_BACKEND=memory is only allowed in local environment")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q: must be postgres or memory", c.StorageBackend)
	}

	if c.Admin.ResetEnabled {
		if c.AppEnv != "local" {
			return fmt.Errorf("ADMIN_RESET_ENABLED must not be enabled in %s environment", c.AppEnv)
		}
		if c.Admin.Token == "" {
			return fmt.Errorf("ADMIN_TOKEN is required when ADMIN_RESET_ENABLED is set")
		}
	}

	if slices.Contains(c.CORSOrigins, "*") && c.AppEnv != "local" {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS=* is only allowed in local environment")
	}

	if c.RecurringSchedule != "" {
		if _, err := cron.ParseStandard(c.RecurringSchedule); err != nil {
			return fmt.Errorf("invalid RECURRING_SCHEDULE %q: %w", c.RecurringSchedule, err)
		}
	}

	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative")
	}
	return nil
}

type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region          string
	UserPoolID      string
	AppClientID     string
	AppClientSecret string
}

// LoadDotEnv reads ENV_FILE (default .env) into the process environment.
// Variables already set take precedence; a missing file is not an error.
func LoadDotEnv() error {
	path := envOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	return Config{
		ServerPort:        envOrDefault("SERVER_PORT", "8080"),
		AppEnv:            envOrDefault("APP_ENV", "local"),
		AuthDevMode:       envBool("AUTH_DEV_MODE"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		StorageBackend:    strings.ToLower(envOrDefault("STORAGE_BACKEND", StoragePostgres)),
		CORSOrigins:       envList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		CookieSecure:      envBool("COOKIE_SECURE"),
		RecurringSchedule: envOrDefault("RECURRING_SCHEDULE", "*/15 * * * *"),
		Admin: AdminConfig{
			ResetEnabled: envBool("ADMIN_RESET_ENABLED"),
			Token:        os.Getenv("ADMIN_TOKEN"),
		},
		DB: DBConfig{
			Host:            envOrDefault("DB_HOST", "localhost"),
			Port:            envOrDefault("DB_PORT", "5432"),
			User:            envOrDefault("DB_USER", "task"),
			Password:        envOrDefault("DB_PASSWORD", "task"),
			Name:            envOrDefault("DB_NAME", "task"),
			SSLMode:         envOrDefault("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Cognito: CognitoConfig{
			Region:          envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:     os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret: os.Getenv("COGNITO_APP_CLIENT_SECRET"),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envBool(key string) bool {
	return strings.EqualFold(envOrDefault(key, "false"), "true")
}

// envInt falls back to defaultVal when the variable is unset or malformed.
func envInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return d
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key, defaultVal string) []string {
	var out []string
	for _, v := range strings.Split(envOrDefault(key, defaultVal), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
