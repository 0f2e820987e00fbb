package http

import (
	"net/http"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// StartTracking handles POST /api/v1/tracking/:orderId/start. Missing locations
// fall back to the default coordinates.
func (s *Server) StartTracking(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var body TrackingStart
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	restaurant, customer := order.DefaultRestaurantLocation, order.DefaultCustomerLocation
	if body.RestaurantLocation != nil {
		if restaurant, err = parseLocation(body.RestaurantLocation); err != nil {
			return s.fail(ctx, err, "Invalid restaurant location")
		}
	}
	if body.CustomerLocation != nil {
		if customer, err = parseLocation(body.CustomerLocation); err != nil {
			return s.fail(ctx, err, "Invalid customer location")
		}
	}

	cmd, err := commands.NewStartTrackingCommand(id, body.CustomerID, restaurant, customer)
	if err != nil {
		return s.fail(ctx, err, "Invalid tracking data")
	}

	if err = s.tracking.Start.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to start tracking")
	}

	return s.respondTracking(ctx, http.StatusCreated, id)
}

// GetTracking handles GET /api/v1/tracking/:orderId.
func (s *Server) GetTracking(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}
	return s.respondTracking(ctx, http.StatusOK, id)
}

// AdvanceDelivery handles POST /api/v1/tracking/:orderId/advance.
func (s *Server) AdvanceDelivery(ctx echo.Context) error {
	cmd, ok, err := s.deliveryCommand(ctx)
	if !ok {
		return err
	}

	change, err := s.tracking.Advance.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to advance delivery")
	}

	return ctx.JSON(http.StatusOK, changeOf(change))
}

// RefreshDelivery handles POST /api/v1/tracking/:orderId/refresh.
func (s *Server) RefreshDelivery(ctx echo.Context) error {
	cmd, ok, err := s.deliveryCommand(ctx)
	if !ok {
		return err
	}

	change, err := s.tracking.Refresh.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to refresh delivery")
	}

	return ctx.JSON(http.StatusOK, changeOf(change))
}

// CompleteDelivery handles POST /api/v1/tracking/:orderId/complete.
func (s *Server) CompleteDelivery(ctx echo.Context) error {
	cmd, ok, err := s.deliveryCommand(ctx)
	if !ok {
		return err
	}

	changes, err := s.tracking.Complete.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err, "Failed to complete delivery")
	}

	response := make([]DeliveryChange, len(changes))
	for i, c := range changes {
		response[i] = changeOf(c)
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetNotifications handles GET /api/v1/notifications/:orderId.
func (s *Server) GetNotifications(ctx echo.Context) error {
	query, err := queries.NewGetNotificationsQuery(ctx.Param("orderId"))
	if err != nil {
		return s.fail(ctx, err, "Invalid order id")
	}

	list, err := s.notifications.History.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve notifications")
	}

	response := make([]Notification, len(list))
	for i, n := range list {
		response[i] = Notification{
			Type:      n.Type.String(),
			Subject:   n.Subject,
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// deliveryCommand reads the path order id. When ok is false the response was written
// and err is the result to return from the handler.
func (s *Server) deliveryCommand(ctx echo.Context) (commands.DeliveryCommand, bool, error) {
	id, err := kernel.UUIDFromString(ctx.Param("orderId"))
	if err != nil {
		return commands.DeliveryCommand{}, false, badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewDeliveryCommand(id)
	if err != nil {
		return commands.DeliveryCommand{}, false, s.fail(ctx, err, "Invalid order id")
	}

	return cmd, true, nil
}

func (s *Server) respondTracking(ctx echo.Context, code int, id kernel.UUID) error {
	query, err := queries.NewGetTrackingQuery(id)
	if err != nil {
		return s.fail(ctx, err, "Invalid order id")
	}

	snap, err := s.tracking.Get.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve tracking")
	}

	return ctx.JSON(code, trackingOf(snap))
}
