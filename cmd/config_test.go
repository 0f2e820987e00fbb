package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fooddelivery/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("should fall back to defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.HTTPPort)
		assert.Equal(t, []string{ComponentOrder, ComponentPayment, ComponentTracking, ComponentNotification}, cfg.Components)
		assert.Equal(t, StorageMemory, cfg.Storage)
		assert.Equal(t, TransportMemory, cfg.Transport.Kind)
		assert.Equal(t, 24*time.Hour, cfg.Inbox.TTL)
		assert.Equal(t, 30*time.Second, cfg.Payment.Timeout)
		assert.True(t, decimal.NewFromInt(10000).Equal(cfg.Payment.MaxAmount))
		assert.Equal(t, "*/15 * * * * *", cfg.Tracking.TickSpec)
	})

	t.Run("should let the environment override the defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("COMPONENTS", " Payment ,tracking")
		t.Setenv("PAYMENT_MAX_ATTEMPTS", "5")
		t.Setenv("TRACKING_STALE_AFTER", "90s")

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, []string{ComponentPayment, ComponentTracking}, cfg.Components)
		assert.True(t, cfg.Runs(ComponentTracking))
		assert.False(t, cfg.Runs(ComponentOrder))
		assert.Equal(t, 5, cfg.Payment.Rules().MaxAttempts)
		assert.Equal(t, 90*time.Second, cfg.Tracking.StaleAfter)
	})

	t.Run("should read the .env file", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=9191\n"), 0o600))
		t.Cleanup(func() { _ = os.Unsetenv("HTTP_PORT") })

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, "9191", cfg.HTTPPort)
	})

	t.Run("should read the yaml file named by CONFIG_FILE", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("EVENT_TRANSPORT: kafka\nKAFKA_BROKERS: a:9092,b:9092\n"), 0o600))
		t.Setenv("CONFIG_FILE", path)

		cfg, err := LoadConfig()

		require.NoError(t, err)
		assert.Equal(t, TransportKafka, cfg.Transport.Kind)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Transport.KafkaBrokers)
	})

	t.Run("should reject unknown components and transports", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("COMPONENTS", "order,kitchen")
		t.Setenv("EVENT_TRANSPORT", "carrier-pigeon")

		_, err := LoadConfig()

		require.Error(t, err)
		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.ErrorContains(t, err, "kitchen")
		assert.ErrorContains(t, err, "carrier-pigeon")
	})

	t.Run("should reject a malformed amount", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PAYMENT_MAX_AMOUNT", "lots")

		_, err := LoadConfig()

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func TestDBConfig_DSN(t *testing.T) {
	t.Run("should render a key value dsn", func(t *testing.T) {
		dsn := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "n", SslMode: "disable"}.DSN()

		assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", dsn)
	})
}
