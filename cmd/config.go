package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Component names accepted by COMPONENTS.
const (
	ComponentOrder        = "order"
	ComponentPayment      = "payment"
	ComponentTracking     = "tracking"
	ComponentNotification = "notification"
)

// Storage and transport choices.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	TransportMemory = "memory"
	TransportKafka  = "kafka"
	TransportStan   = "stan"
)

type Config struct {
	HTTPPort   string
	LogLevel   string
	Components []string
	Storage    string

	DB        DBConfig
	Transport TransportConfig
	Inbox     InboxConfig
	Payment   PaymentConfig
	Tracking  TrackingConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SslMode  string
}

// DSN renders the connection string for gorm's postgres driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SslMode)
}

type TransportConfig struct {
	Kind string

	KafkaBrokers     []string
	KafkaGroupPrefix string

	StanClusterID string
	StanClientID  string
	StanURL       string
}

type InboxConfig struct {
	// RedisAddr selects the redis inbox; empty keeps processed ids in memory.
	RedisAddr string
	TTL       time.Duration
}

type PaymentConfig struct {
	MaxAttempts   int
	DailyLimit    int
	MaxAmount     decimal.Decimal
	SigningSecret string
	GatewayURL    string
	Timeout       time.Duration
}

// Rules converts the settings into the payment pipeline configuration.
func (c PaymentConfig) Rules() payments.Config {
	return payments.Config{
		MaxAttempts:   c.MaxAttempts,
		DailyLimit:    c.DailyLimit,
		MaxAmount:     c.MaxAmount,
		SigningSecret: c.SigningSecret,
		GatewayURL:    c.GatewayURL,
		Timeout:       c.Timeout,
	}
}

type TrackingConfig struct {
	TickSpec        string
	StaleAfter      time.Duration
	AverageSpeedKmh float64
}

// Runs reports whether the process hosts the named component.
func (c Config) Runs(component string) bool {
	return slices.Contains(c.Components, component)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("COMPONENTS", "order,payment,tracking,notification")
	v.SetDefault("STORAGE", StorageMemory)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "fooddelivery")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("EVENT_TRANSPORT", TransportMemory)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "fooddelivery-")
	v.SetDefault("STAN_CLUSTER_ID", "test-cluster")
	v.SetDefault("STAN_CLIENT_ID", "fooddelivery")
	v.SetDefault("STAN_URL", "nats://localhost:4222")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("INBOX_TTL", "24h")

	v.SetDefault("PAYMENT_MAX_ATTEMPTS", payments.DefaultMaxAttempts)
	v.SetDefault("PAYMENT_DAILY_LIMIT", payments.DefaultDailyLimit)
	v.SetDefault("PAYMENT_MAX_AMOUNT", payments.DefaultMaxAmount.String())
	v.SetDefault("PAYMENT_SIGNING_SECRET", "local-signing-secret")
	v.SetDefault("PAYMENT_GATEWAY_URL", "https://gateway.example.com")
	v.SetDefault("PAYMENT_TIMEOUT", payments.DefaultTimeout.String())

	v.SetDefault("TRACKING_TICK_SPEC", "*/15 * * * * *")
	v.SetDefault("TRACKING_STALE_AFTER", "30s")
	v.SetDefault("TRACKING_AVERAGE_SPEED_KMH", 30.0)
}

// LoadConfig reads an optional .env file, then the YAML file named by CONFIG_FILE,
// then the environment. Later sources win.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	maxAmount, err := decimal.NewFromString(v.GetString("PAYMENT_MAX_AMOUNT"))
	if err != nil {
		return Config{}, errs.NewValueIsInvalidErrorWithCause("PAYMENT_MAX_AMOUNT", err)
	}

	cfg := Config{
		HTTPPort:   v.GetString("HTTP_PORT"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		Components: splitList(v.GetString("COMPONENTS")),
		Storage:    strings.ToLower(v.GetString("STORAGE")),
		DB: DBConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SslMode:  v.GetString("DB_SSLMODE"),
		},
		Transport: TransportConfig{
			Kind:             strings.ToLower(v.GetString("EVENT_TRANSPORT")),
			KafkaBrokers:     splitList(v.GetString("KAFKA_BROKERS")),
			KafkaGroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
			StanClusterID:    v.GetString("STAN_CLUSTER_ID"),
			StanClientID:     v.GetString("STAN_CLIENT_ID"),
			StanURL:          v.GetString("STAN_URL"),
		},
		Inbox: InboxConfig{
			RedisAddr: v.GetString("REDIS_ADDR"),
			TTL:       v.GetDuration("INBOX_TTL"),
		},
		Payment: PaymentConfig{
			MaxAttempts:   v.GetInt("PAYMENT_MAX_ATTEMPTS"),
			DailyLimit:    v.GetInt("PAYMENT_DAILY_LIMIT"),
			MaxAmount:     maxAmount,
			SigningSecret: v.GetString("PAYMENT_SIGNING_SECRET"),
			GatewayURL:    v.GetString("PAYMENT_GATEWAY_URL"),
			Timeout:       v.GetDuration("PAYMENT_TIMEOUT"),
		},
		Tracking: TrackingConfig{
			TickSpec:        v.GetString("TRACKING_TICK_SPEC"),
			StaleAfter:      v.GetDuration("TRACKING_STALE_AFTER"),
			AverageSpeedKmh: v.GetFloat64("TRACKING_AVERAGE_SPEED_KMH"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate rejects unknown components, storages and transports.
func (c Config) Validate() error {
	var errList []error

	if len(c.Components) == 0 {
		errList = append(errList, errs.NewValueIsRequiredError("COMPONENTS"))
	}
	known := []string{ComponentOrder, ComponentPayment, ComponentTracking, ComponentNotification}
	for _, component := range c.Components {
		if !slices.Contains(known, component) {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("COMPONENTS",
				fmt.Errorf("%q is not a component", component)))
		}
	}

	if c.Storage != StoragePostgres && c.Storage != StorageMemory {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("STORAGE",
			fmt.Errorf("%q is not one of %s, %s", c.Storage, StoragePostgres, StorageMemory)))
	}

	switch c.Transport.Kind {
	case TransportMemory, TransportStan:
	case TransportKafka:
		if len(c.Transport.KafkaBrokers) == 0 {
			errList = append(errList, errs.NewValueIsRequiredError("KAFKA_BROKERS"))
		}
	default:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("EVENT_TRANSPORT",
			fmt.Errorf("%q is not one of %s, %s, %s", c.Transport.Kind, TransportMemory, TransportKafka, TransportStan)))
	}

	return errors.Join(errList...)
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
