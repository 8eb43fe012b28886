package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	RefreshTokenTTLHours    int
	ActivationTTLHours      int
	PasswordResetTTLMinutes int
	BcryptCost              int
	AllowDeleteAccount      bool
}

// MailConfig holds SMTP settings. An empty host switches to the log-only mailer.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	FrontendURL  string
}

var defaults = map[string]any{
	"APP_NAME":                        "support-accounts",
	"APP_ENV":                         "development",
	"APP_HOST":                        "0.0.0.0",
	"APP_PORT":                        "8080",
	"APP_VERSION":                     "dev",
	"HTTP_REQUEST_TIMEOUT_SECONDS":    30,
	"POSTGRES_DSN":                    "",
	"POSTGRES_MAX_CONNS":              10,
	"POSTGRES_MIN_CONNS":              2,
	"POSTGRES_RUN_MIGRATIONS":         true,
	"POSTGRES_CONN_MAX_IDLE_SECONDS":  30,
	"POSTGRES_CONN_MAX_LIFE_SECONDS":  300,
	"REDIS_ADDR":                      "127.0.0.1:6379",
	"REDIS_PASSWORD":                  "",
	"REDIS_DB":                        0,
	"LOG_LEVEL":                       "info",
	"AUTH_JWT_SECRET":                 "dev-secret",
	"AUTH_ACCESS_TOKEN_TTL_MINUTES":   5,
	"AUTH_REFRESH_TOKEN_TTL_HOURS":    24 * 7,
	"AUTH_ACTIVATION_TTL_HOURS":       24,
	"AUTH_PASSWORD_RESET_TTL_MINUTES": 30,
	"AUTH_BCRYPT_COST":                12,
	"AUTH_ALLOW_DELETE_ACCOUNT":       true,
	"MAIL_SMTP_HOST":                  "",
	"MAIL_SMTP_PORT":                  587,
	"MAIL_SMTP_USERNAME":              "",
	"MAIL_SMTP_PASSWORD":              "",
	"MAIL_FROM":                       "noreply@example.com",
	"MAIL_FRONTEND_URL":               "http://localhost:3000",
}

// Load reads configuration from environment variables, applying defaults where possible.
// envFiles are passed to godotenv; with none given it tries ./.env.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  v.GetString("APP_NAME"),
			Env:                   v.GetString("APP_ENV"),
			Host:                  v.GetString("APP_HOST"),
			Port:                  v.GetString("APP_PORT"),
			Version:               v.GetString("APP_VERSION"),
			RequestTimeoutSeconds: v.GetInt("HTTP_REQUEST_TIMEOUT_SECONDS"),
		},
		Postgres: PostgresConfig{
			DSN:            v.GetString("POSTGRES_DSN"),
			MaxConns:       v.GetInt32("POSTGRES_MAX_CONNS"),
			MinConns:       v.GetInt32("POSTGRES_MIN_CONNS"),
			RunMigrations:  v.GetBool("POSTGRES_RUN_MIGRATIONS"),
			ConnMaxIdleSec: v.GetInt32("POSTGRES_CONN_MAX_IDLE_SECONDS"),
			ConnMaxLifeSec: v.GetInt32("POSTGRES_CONN_MAX_LIFE_SECONDS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Auth: AuthConfig{
			JWTSecret:               v.GetString("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes:   v.GetInt("AUTH_ACCESS_TOKEN_TTL_MINUTES"),
			RefreshTokenTTLHours:    v.GetInt("AUTH_REFRESH_TOKEN_TTL_HOURS"),
			ActivationTTLHours:      v.GetInt("AUTH_ACTIVATION_TTL_HOURS"),
			PasswordResetTTLMinutes: v.GetInt("AUTH_PASSWORD_RESET_TTL_MINUTES"),
			BcryptCost:              v.GetInt("AUTH_BCRYPT_COST"),
			AllowDeleteAccount:      v.GetBool("AUTH_ALLOW_DELETE_ACCOUNT"),
		},
		Mail: MailConfig{
			SMTPHost:     v.GetString("MAIL_SMTP_HOST"),
			SMTPPort:     v.GetInt("MAIL_SMTP_PORT"),
			SMTPUsername: v.GetString("MAIL_SMTP_USERNAME"),
			SMTPPassword: v.GetString("MAIL_SMTP_PASSWORD"),
			From:         v.GetString("MAIL_FROM"),
			FrontendURL:  strings.TrimRight(v.GetString("MAIL_FRONTEND_URL"), "/"),
		},
	}

	if cfg.App.Env == "production" && cfg.Auth.JWTSecret == "dev-secret" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be set in production")
	}
	if cfg.Redis.DB < 0 {
		return nil, fmt.Errorf("invalid REDIS_DB: %d", cfg.Redis.DB)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccessTTL returns the access token lifetime.
func (a AuthConfig) AccessTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// RefreshTTL returns the refresh token lifetime.
func (a AuthConfig) RefreshTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLHours) * time.Hour
}

// ActivationTTL returns the lifetime of activation and secondary email tokens.
func (a AuthConfig) ActivationTTL() time.Duration {
	return time.Duration(a.ActivationTTLHours) * time.Hour
}

// PasswordResetTTL returns the lifetime of password reset tokens.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// SMTPEnabled reports whether mail goes to an SMTP server.
func (m MailConfig) SMTPEnabled() bool {
	return strings.TrimSpace(m.SMTPHost) != ""
}
