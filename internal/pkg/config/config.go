package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const EnvProduction = "production"

type DBRole struct {
	Username string
	Password string
}

type PostgresConfig struct {
	Host        string
	Port        string
	DB          string
	SSLMode     string
	ServiceRole DBRole
	Anon        DBRole
	MaxConns    int32
	MinConns    int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// Enabled reports whether checkout sessions can be created.
func (s StripeConfig) Enabled() bool { return s.SecretKey != "" }

type NotificationConfig struct {
	Provider      string
	WebhookURL    string
	ResendAPIKey  string
	FromAddress   string
	AdminEmail    string
	MaxRetries    int
	Timeout       time.Duration
	DetachTimeout time.Duration
}

type ServerConfig struct {
	Port          string
	Env           string
	PublicBaseURL string
	MetricsAddr   string
	PprofAddr     string
	OTLPEndpoint  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type Config struct {
	Repositories  RepositoriesConfig
	Stripe        StripeConfig
	Notifications NotificationConfig
	Server        ServerConfig
	CORS          CORSConfig
	LogLevel      string
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Server.Env == EnvProduction
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:    getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:    getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:      getEnvOrDefault("POSTGRES_DB", "atl_vibes"),
				SSLMode: getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				ServiceRole: DBRole{
					Username: getEnvOrDefault("POSTGRES_SERVICE_USER", "service_role"),
					Password: os.Getenv("POSTGRES_SERVICE_PASSWORD"),
				},
				Anon: DBRole{
					Username: getEnvOrDefault("POSTGRES_ANON_USER", "anon"),
					Password: os.Getenv("POSTGRES_ANON_PASSWORD"),
				},
				MaxConns: int32(getIntOrDefault("POSTGRES_MAX_CONNS", 20)),
				MinConns: int32(getIntOrDefault("POSTGRES_MIN_CONNS", 2)),
			},
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		},
		Notifications: NotificationConfig{
			Provider:      getEnvOrDefault("NOTIFICATION_PROVIDER", "webhook"),
			WebhookURL:    os.Getenv("NOTIFICATION_WEBHOOK_URL"),
			ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
			FromAddress:   getEnvOrDefault("NOTIFICATION_FROM_ADDRESS", "ATL Vibes & Views <hello@atlvibesandviews.com>"),
			AdminEmail:    getEnvOrDefault("ADMIN_NOTIFICATION_EMAIL", "admin@atlvibesandviews.com"),
			MaxRetries:    getIntOrDefault("NOTIFICATION_MAX_RETRIES", 0),
			Timeout:       getDurationOrDefault("NOTIFICATION_TIMEOUT", 5*time.Second),
			DetachTimeout: getDurationOrDefault("NOTIFICATION_DETACH_TIMEOUT", 15*time.Second),
		},
		Server: ServerConfig{
			Port:          getEnvOrDefault("SERVER_PORT", "8091"),
			Env:           getEnvOrDefault("APP_ENV", "development"),
			PublicBaseURL: strings.TrimRight(getEnvOrDefault("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			MetricsAddr:   getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:     os.Getenv("PPROF_ADDR"),
			OTLPEndpoint:  getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if cfg.Repositories.Postgres.ServiceRole.Password == "" {
		return nil, fmt.Errorf("POSTGRES_SERVICE_PASSWORD environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
