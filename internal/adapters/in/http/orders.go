package http

import (
	"errors"
	"net/http"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders - places a new order in CREATED status.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	items := make([]order.Item, 0, len(body.Items))
	var itemErrs []error
	for _, line := range body.Items {
		item, err := order.NewItem(line.Name, line.Quantity, line.UnitPrice)
		if err != nil {
			itemErrs = append(itemErrs, err)
			continue
		}
		items = append(items, item)
	}

	method, methodErr := kernel.ParsePaymentMethod(body.PaymentMethod)
	restaurant, restaurantErr := parseLocation(body.RestaurantLocation)
	customer, customerErr := parseLocation(body.CustomerLocation)
	if err := errors.Join(errors.Join(itemErrs...), methodErr, restaurantErr, customerErr); err != nil {
		return s.fail(ctx, err, "Invalid order data")
	}

	cmd, err := commands.NewCreateOrderCommand(
		kernel.NewUUID(), body.CustomerID, body.RestaurantID, items, method, restaurant, customer,
	)
	if err != nil {
		return s.fail(ctx, err, "Invalid order data")
	}

	if err = s.orders.Create.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to create order")
	}

	return s.respondOrder(ctx, http.StatusCreated, cmd.OrderID())
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}
	return s.respondOrder(ctx, http.StatusOK, id)
}

// GetActiveOrders handles GET /api/v1/orders/active - orders not yet delivered or cancelled.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	orders, err := s.orders.Active.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve orders")
	}

	response := make([]ActiveOrder, len(orders))
	for i, o := range orders {
		response[i] = ActiveOrder{
			ID:           o.ID.String(),
			CustomerID:   o.CustomerID,
			RestaurantID: o.RestaurantID,
			Status:       o.Status.String(),
			Amount:       o.Amount,
			CreatedAt:    o.CreatedAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// UpdateOrderStatus handles PUT /api/v1/orders/:id/status.
func (s *Server) UpdateOrderStatus(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	var body StatusChange
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	target, err := order.ParseStatus(body.Status)
	if err != nil {
		return s.fail(ctx, err, "Invalid status")
	}

	cmd, err := commands.NewUpdateOrderStatusCommand(id, target)
	if err != nil {
		return s.fail(ctx, err, "Invalid status")
	}

	if err = s.orders.UpdateStatus.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to update order status")
	}

	return s.respondOrder(ctx, http.StatusOK, id)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	cmd, err := commands.NewCancelOrderCommand(id)
	if err != nil {
		return s.fail(ctx, err, "Invalid order id")
	}

	if err = s.orders.Cancel.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err, "Failed to cancel order")
	}

	return s.respondOrder(ctx, http.StatusOK, id)
}

// GetPayments handles GET /api/v1/orders/:id/payments.
func (s *Server) GetPayments(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}

	query, err := queries.NewGetPaymentsByOrderQuery(id)
	if err != nil {
		return s.fail(ctx, err, "Invalid order id")
	}

	list, err := s.payments.ByOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve payments")
	}

	response := make([]Payment, len(list))
	for i, p := range list {
		response[i] = paymentOf(p)
	}

	return ctx.JSON(http.StatusOK, response)
}

func (s *Server) respondOrder(ctx echo.Context, code int, id kernel.UUID) error {
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(ctx, err, "Invalid order id")
	}

	o, err := s.orders.Get.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err, "Failed to retrieve order")
	}

	return ctx.JSON(code, orderOf(o))
}

// parseLocation treats a missing location as unset.
func parseLocation(l *Location) (kernel.GeoPoint, error) {
	if l == nil {
		return kernel.UnsetGeoPoint, nil
	}
	return kernel.NewGeoPoint(l.Latitude, l.Longitude)
}
