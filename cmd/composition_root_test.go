package cmd

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(components ...string) Config {
	return Config{
		HTTPPort:   "0",
		Components: components,
		Storage:    StorageMemory,
		Transport:  TransportConfig{Kind: TransportMemory},
		Payment:    PaymentConfig{SigningSecret: "secret"},
		Tracking:   TrackingConfig{AverageSpeedKmh: 30},
	}
}

func TestCompositionRoot(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("should build one consumer per component", func(t *testing.T) {
		root, err := NewCompositionRoot(t.Context(), memoryConfig(ComponentOrder, ComponentPayment, ComponentTracking, ComponentNotification), logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, root.Close()) }()

		list, err := root.Consumers()

		require.NoError(t, err)
		names := make([]string, 0, len(list))
		for _, c := range list {
			names = append(names, c.Name())
		}
		assert.Len(t, names, 4)
	})

	t.Run("should mount only the routes of the configured components", func(t *testing.T) {
		root, err := NewCompositionRoot(t.Context(), memoryConfig(ComponentTracking), logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, root.Close()) }()

		server, err := root.HTTPServer()
		require.NoError(t, err)
		e := echo.New()
		server.Register(e)

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/active", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), ComponentTracking)
	})

	t.Run("should schedule jobs only for the tracking component", func(t *testing.T) {
		root, err := NewCompositionRoot(t.Context(), memoryConfig(ComponentOrder), logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, root.Close()) }()

		jm := root.Jobs()

		require.NoError(t, jm.StartAll())
		jm.StopAll()
	})

	t.Run("should fail when the signing secret is missing", func(t *testing.T) {
		cfg := memoryConfig(ComponentPayment)
		cfg.Payment.SigningSecret = ""
		root, err := NewCompositionRoot(t.Context(), cfg, logger)
		require.NoError(t, err)
		defer func() { assert.NoError(t, root.Close()) }()

		_, err = root.Consumers()

		assert.ErrorContains(t, err, "failed to create payment processor")
	})
}
