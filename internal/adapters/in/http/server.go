// Package http exposes the saga components over REST. Each component contributes
// its own route group; a process mounts only the groups of the components it runs.
package http

import (
	"log/slog"
	"net/http"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"

	"github.com/labstack/echo/v4"
)

// OrderHandlers serve /api/v1/orders.
type OrderHandlers struct {
	Create       commands.CreateOrderCommandHandler
	UpdateStatus commands.UpdateOrderStatusCommandHandler
	Cancel       commands.CancelOrderCommandHandler
	Get          queries.GetOrderQueryHandler
	Active       queries.GetActiveOrdersQueryHandler
}

// PaymentHandlers serve /api/v1/orders/:id/payments.
type PaymentHandlers struct {
	ByOrder queries.GetPaymentsByOrderQueryHandler
}

// TrackingHandlers serve /api/v1/tracking.
type TrackingHandlers struct {
	Start    commands.StartTrackingCommandHandler
	Get      queries.GetTrackingQueryHandler
	Advance  commands.AdvanceDeliveryCommandHandler
	Refresh  commands.RefreshDeliveryCommandHandler
	Complete commands.CompleteDeliveryCommandHandler
}

// NotificationHandlers serve /api/v1/notifications.
type NotificationHandlers struct {
	History queries.GetNotificationsQueryHandler
}

// Server coordinates between HTTP handlers and application use cases.
// A nil handler group leaves its routes unmounted.
type Server struct {
	orders        *OrderHandlers
	payments      *PaymentHandlers
	tracking      *TrackingHandlers
	notifications *NotificationHandlers

	components []string
	logger     *slog.Logger
}

type Option func(*Server)

func WithOrders(h *OrderHandlers) Option {
	return func(s *Server) {
		s.orders = h
		s.components = append(s.components, "order")
	}
}

func WithPayments(h *PaymentHandlers) Option {
	return func(s *Server) {
		s.payments = h
		s.components = append(s.components, "payment")
	}
}

func WithTracking(h *TrackingHandlers) Option {
	return func(s *Server) {
		s.tracking = h
		s.components = append(s.components, "tracking")
	}
}

func WithNotifications(h *NotificationHandlers) Option {
	return func(s *Server) {
		s.notifications = h
		s.components = append(s.components, "notification")
	}
}

func NewServer(logger *slog.Logger, opts ...Option) *Server {
	s := &Server{logger: logger.With("component", "http")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts the health check and the routes of every configured group.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")

	if s.orders != nil {
		api.POST("/orders", s.CreateOrder)
		api.GET("/orders/active", s.GetActiveOrders)
		api.GET("/orders/:id", s.GetOrder)
		api.PUT("/orders/:id/status", s.UpdateOrderStatus)
		api.POST("/orders/:id/cancel", s.CancelOrder)
	}

	if s.payments != nil {
		api.GET("/orders/:id/payments", s.GetPayments)
	}

	if s.tracking != nil {
		api.POST("/tracking/:orderId/start", s.StartTracking)
		api.GET("/tracking/:orderId", s.GetTracking)
		api.POST("/tracking/:orderId/advance", s.AdvanceDelivery)
		api.POST("/tracking/:orderId/refresh", s.RefreshDelivery)
		api.POST("/tracking/:orderId/complete", s.CompleteDelivery)
	}

	if s.notifications != nil {
		api.GET("/notifications/:orderId", s.GetNotifications)
	}
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "UP", Components: s.components})
}
