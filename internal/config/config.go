// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/internal/repository"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type App struct {
	// Network
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr       string        `envconfig:"GRPC_ADDR" default:":50070"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	// Marketplace backend
	BackendURL     string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`

	// Auth
	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"24h"`

	// Fees
	DefaultProcessingFeeRate decimal.Decimal `envconfig:"DEFAULT_PROCESSING_FEE_RATE" default:"0.03"`
	DefaultPlatformFeeRate   decimal.Decimal `envconfig:"DEFAULT_PLATFORM_FEE_RATE" default:"0.05"`

	// Gateways
	SandboxDelay       time.Duration `envconfig:"SANDBOX_DELAY" default:"1500ms"`
	PayPalBaseURL      string        `envconfig:"PAYPAL_BASE_URL" default:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string        `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string        `envconfig:"PAYPAL_CLIENT_SECRET"`
	PayPalCurrency     string        `envconfig:"PAYPAL_CURRENCY" default:"USD"`
	StripeSuccessURL   string        `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	StripeCancelURL    string        `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:3000/checkout"`

	// Guest sessions; without a Redis address sessions live in process memory.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Attempt ledger; disabled without DB_HOST.
	DBHost         string `envconfig:"DB_HOST"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"sponsor_checkout"`
	DBSSLMode      string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"./internal/repository/migrations"`

	// Checkout events; without brokers the outbox is written but not published.
	KafkaBrokers   []string      `envconfig:"KAFKA_BROKERS"`
	KafkaTopic     string        `envconfig:"KAFKA_TOPIC" default:"sponsorship-checkout"`
	OutboxInterval time.Duration `envconfig:"OUTBOX_INTERVAL" default:"1s"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c App) Validate() error {
	if c.BackendURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.BackendTimeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.RequestTimeout <= c.SandboxDelay {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must exceed SANDBOX_DELAY (%s)", c.RequestTimeout, c.SandboxDelay)
	}
	if c.DefaultProcessingFeeRate.IsNegative() || c.DefaultPlatformFeeRate.IsNegative() {
		return errors.New("fee rates must not be negative")
	}
	if (c.PayPalClientID == "") != (c.PayPalClientSecret == "") {
		return errors.New("PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET must be set together")
	}
	if c.SandboxDelay < 0 {
		return fmt.Errorf("SANDBOX_DELAY must not be negative, got %s", c.SandboxDelay)
	}
	return nil
}

func (c App) LedgerEnabled() bool {
	return c.DBHost != ""
}

func (c App) PayPalEnabled() bool {
	return c.PayPalClientID != ""
}

func (c App) DBCredentials() *repository.Credentials {
	return &repository.Credentials{
		Host:              c.DBHost,
		Port:              c.DBPort,
		User:              c.DBUser,
		Password:          c.DBPassword,
		DBName:            c.DBName,
		SSLMode:           c.DBSSLMode,
		MigrationsDirPath: c.MigrationsPath,
	}
}
