package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/adapters/in/consumers"
	httpadapter "fooddelivery/internal/adapters/in/http"
	"fooddelivery/internal/adapters/out/eventbus/inproc"
	"fooddelivery/internal/adapters/out/eventbus/kafkabus"
	"fooddelivery/internal/adapters/out/eventbus/stanbus"
	"fooddelivery/internal/adapters/out/gateways"
	"fooddelivery/internal/adapters/out/memory"
	"fooddelivery/internal/adapters/out/notifications"
	"fooddelivery/internal/adapters/out/postgres"
	"fooddelivery/internal/adapters/out/postgres/orderrepo"
	"fooddelivery/internal/adapters/out/redisinbox"
	dispatch "fooddelivery/internal/core/application/notifications"
	"fooddelivery/internal/core/application/payments"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/jobs"
)

// CompositionRoot owns the infrastructure of one process and builds the handlers of
// the components it runs.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	uowFactory   ports.UnitOfWorkFactory
	activeOrders queries.ActiveOrdersReader

	publisher  ports.EventPublisher
	subscriber ports.EventSubscriber
	inbox      ports.Inbox

	trackingStore *memory.TrackingStore
	history       *notifications.History

	closers []func() error
}

// NewCompositionRoot opens storage, transport and inbox. On failure everything opened
// so far is closed again.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (_ *CompositionRoot, err error) {
	c := &CompositionRoot{
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
		trackingStore: memory.NewTrackingStore(),
		history:       notifications.NewHistory(notifications.DefaultHistoryLimit),
	}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if err = c.openStorage(); err != nil {
		return nil, err
	}
	if err = c.openTransport(); err != nil {
		return nil, err
	}
	if err = c.openInbox(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *CompositionRoot) openStorage() error {
	if c.cfg.Storage == StorageMemory {
		store := memory.NewStore()
		c.uowFactory = memory.NewUnitOfWorkFactory(store)
		c.activeOrders = store
		return nil
	}

	db, err := postgres.Open(c.cfg.DB.DSN())
	if err != nil {
		return err
	}
	c.closers = append(c.closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	c.activeOrders = orderrepo.NewActiveOrdersReader(db)
	return nil
}

func (c *CompositionRoot) openTransport() error {
	switch c.cfg.Transport.Kind {
	case TransportKafka:
		kafkaCfg := kafkabus.Config{
			Brokers:     c.cfg.Transport.KafkaBrokers,
			GroupPrefix: c.cfg.Transport.KafkaGroupPrefix,
		}
		publisher := kafkabus.NewPublisher(kafkaCfg)
		c.closers = append(c.closers, publisher.Close)
		c.publisher = publisher
		c.subscriber = kafkabus.NewSubscriber(kafkaCfg, c.logger)

	case TransportStan:
		bus, err := stanbus.Connect(stanbus.Config{
			ClusterID: c.cfg.Transport.StanClusterID,
			ClientID:  c.cfg.Transport.StanClientID,
			URL:       c.cfg.Transport.StanURL,
		}, c.logger)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, bus.Close)
		c.publisher = bus
		c.subscriber = bus

	default:
		bus := inproc.NewBus(inproc.Options{}, c.logger)
		c.closers = append(c.closers, bus.Close)
		c.publisher = bus
		c.subscriber = bus
	}
	return nil
}

func (c *CompositionRoot) openInbox(ctx context.Context) error {
	if c.cfg.Inbox.RedisAddr == "" {
		c.inbox = memory.NewInbox(c.cfg.Inbox.TTL, c.now)
		return nil
	}

	inbox, err := redisinbox.New(ctx, redisinbox.Config{
		Address: c.cfg.Inbox.RedisAddr,
		TTL:     c.cfg.Inbox.TTL,
	})
	if err != nil {
		return err
	}
	c.closers = append(c.closers, inbox.Close)
	c.inbox = inbox
	return nil
}

// Close releases resources in reverse opening order.
func (c *CompositionRoot) Close() error {
	var errList []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errList = append(errList, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errList...)
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return commands.NewOrderUoWFactory(c.uowFactory)
}

func (c *CompositionRoot) paymentUoWFactory() commands.PaymentUoWFactory {
	return commands.NewPaymentUoWFactory(c.uowFactory)
}

func (c *CompositionRoot) componentLogger(name string) *slog.Logger {
	return c.logger.With("component", name)
}

// Order component

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.componentLogger(ComponentOrder), c.now)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	return commands.NewUpdateOrderStatusCommandHandler(c.orderUoWFactory(), c.publisher, c.componentLogger(ComponentOrder), c.now)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.CreateUpdateOrderStatusCommandHandler())
}

func (c *CompositionRoot) CreateApplyPaymentResultCommandHandler() commands.ApplyPaymentResultCommandHandler {
	return commands.NewApplyPaymentResultCommandHandler(c.orderUoWFactory(), c.publisher, c.componentLogger(ComponentOrder), c.now)
}

func (c *CompositionRoot) CreateApplyDeliveryStatusCommandHandler() commands.ApplyDeliveryStatusCommandHandler {
	return commands.NewApplyDeliveryStatusCommandHandler(c.orderUoWFactory(), c.publisher, c.componentLogger(ComponentOrder), c.now)
}

func (c *CompositionRoot) CreateCompleteOrderCommandHandler() commands.CompleteOrderCommandHandler {
	return commands.NewCompleteOrderCommandHandler(c.orderUoWFactory(), c.publisher, c.componentLogger(ComponentOrder), c.now)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.activeOrders)
}

// Payment component

// CreatePaymentProcessor wires the simulated gateways into the charge and refund pipelines.
func (c *CompositionRoot) CreatePaymentProcessor() (*payments.Processor, error) {
	logger := c.componentLogger(ComponentPayment)
	rules := c.cfg.Payment.Rules()

	registry, err := payments.NewGatewayRegistry(gateways.Defaults(gateways.Settings{
		URL:     rules.GatewayURL,
		Timeout: rules.Timeout,
	}, nil, logger)...)
	if err != nil {
		return nil, err
	}

	signer, err := services.NewTransactionSigner(rules.SigningSecret)
	if err != nil {
		return nil, err
	}

	return payments.NewProcessor(rules, registry, signer, services.NewTransactionIDs(), c.publisher, logger, c.now)
}

func (c *CompositionRoot) CreateGetPaymentsByOrderQueryHandler() queries.GetPaymentsByOrderQueryHandler {
	return queries.NewGetPaymentsByOrderQueryHandler(c.uowFactory.Create().PaymentRepository())
}

// Tracking component

func (c *CompositionRoot) CreateStartTrackingCommandHandler() (commands.StartTrackingCommandHandler, error) {
	estimator, err := services.NewETAEstimator(c.cfg.Tracking.AverageSpeedKmh)
	if err != nil {
		return commands.StartTrackingCommandHandler{}, err
	}
	return commands.NewStartTrackingCommandHandler(c.trackingStore, c.publisher, estimator,
		c.componentLogger(ComponentTracking), c.now), nil
}

func (c *CompositionRoot) CreateReconcileDeliveriesCommandHandler() commands.ReconcileDeliveriesCommandHandler {
	return commands.NewReconcileDeliveriesCommandHandler(c.trackingStore, c.publisher, c.cfg.Tracking.StaleAfter,
		c.componentLogger(ComponentTracking), c.now)
}

func (c *CompositionRoot) trackingHandlers() (*httpadapter.TrackingHandlers, error) {
	start, err := c.CreateStartTrackingCommandHandler()
	if err != nil {
		return nil, err
	}
	logger := c.componentLogger(ComponentTracking)
	return &httpadapter.TrackingHandlers{
		Start:    start,
		Get:      queries.NewGetTrackingQueryHandler(c.trackingStore),
		Advance:  commands.NewAdvanceDeliveryCommandHandler(c.trackingStore, c.publisher, logger, c.now),
		Refresh:  commands.NewRefreshDeliveryCommandHandler(c.trackingStore, c.publisher, c.now),
		Complete: commands.NewCompleteDeliveryCommandHandler(c.trackingStore, c.publisher, logger, c.now),
	}, nil
}

// Notification component

func (c *CompositionRoot) CreateDispatcher() *dispatch.Dispatcher {
	logger := c.componentLogger(ComponentNotification)
	dispatcher := dispatch.NewDispatcher(logger, c.now)
	dispatcher.Subscribe(notifications.NewEmailChannel(logger))
	dispatcher.Subscribe(notifications.NewPushChannel(logger))
	dispatcher.Subscribe(c.history)
	return dispatcher
}

// HTTPServer mounts the route groups of the configured components.
func (c *CompositionRoot) HTTPServer() (*httpadapter.Server, error) {
	var opts []httpadapter.Option

	if c.cfg.Runs(ComponentOrder) {
		opts = append(opts, httpadapter.WithOrders(&httpadapter.OrderHandlers{
			Create:       c.CreateCreateOrderCommandHandler(),
			UpdateStatus: c.CreateUpdateOrderStatusCommandHandler(),
			Cancel:       c.CreateCancelOrderCommandHandler(),
			Get:          c.CreateGetOrderQueryHandler(),
			Active:       c.CreateGetActiveOrdersQueryHandler(),
		}))
	}

	if c.cfg.Runs(ComponentPayment) {
		opts = append(opts, httpadapter.WithPayments(&httpadapter.PaymentHandlers{
			ByOrder: c.CreateGetPaymentsByOrderQueryHandler(),
		}))
	}

	if c.cfg.Runs(ComponentTracking) {
		h, err := c.trackingHandlers()
		if err != nil {
			return nil, err
		}
		opts = append(opts, httpadapter.WithTracking(h))
	}

	if c.cfg.Runs(ComponentNotification) {
		opts = append(opts, httpadapter.WithNotifications(&httpadapter.NotificationHandlers{
			History: queries.NewGetNotificationsQueryHandler(c.history),
		}))
	}

	return httpadapter.NewServer(c.logger, opts...), nil
}

// Consumers builds one event consumer per configured component.
func (c *CompositionRoot) Consumers() ([]*consumers.Consumer, error) {
	var list []*consumers.Consumer

	if c.cfg.Runs(ComponentOrder) {
		list = append(list, consumers.NewOrderConsumer(&consumers.OrderHandlers{
			PaymentResult:  c.CreateApplyPaymentResultCommandHandler(),
			DeliveryStatus: c.CreateApplyDeliveryStatusCommandHandler(),
			Complete:       c.CreateCompleteOrderCommandHandler(),
		}, c.subscriber, c.inbox, c.componentLogger(ComponentOrder)))
	}

	if c.cfg.Runs(ComponentPayment) {
		processor, err := c.CreatePaymentProcessor()
		if err != nil {
			return nil, fmt.Errorf("failed to create payment processor: %w", err)
		}
		logger := c.componentLogger(ComponentPayment)
		list = append(list, consumers.NewPaymentConsumer(&consumers.PaymentHandlers{
			Charge: commands.NewProcessPaymentCommandHandler(c.paymentUoWFactory(), processor, c.publisher, logger),
			Refund: commands.NewProcessRefundCommandHandler(c.paymentUoWFactory(), processor, c.publisher, logger),
		}, c.subscriber, c.inbox, logger))
	}

	if c.cfg.Runs(ComponentTracking) {
		start, err := c.CreateStartTrackingCommandHandler()
		if err != nil {
			return nil, err
		}
		logger := c.componentLogger(ComponentTracking)
		list = append(list, consumers.NewTrackingConsumer(&consumers.TrackingHandlers{
			Start: start,
			Stop:  commands.NewStopTrackingCommandHandler(c.trackingStore, logger),
		}, c.subscriber, c.inbox, logger))
	}

	if c.cfg.Runs(ComponentNotification) {
		list = append(list, consumers.NewNotificationConsumer(c.CreateDispatcher(), c.subscriber, c.inbox,
			c.componentLogger(ComponentNotification)))
	}

	return list, nil
}

// Jobs schedules the delivery reconciler when the tracking component runs here.
func (c *CompositionRoot) Jobs() *jobs.JobManager {
	if !c.cfg.Runs(ComponentTracking) {
		return jobs.NewJobManager()
	}

	reconcile := c.CreateReconcileDeliveriesCommandHandler()
	return jobs.NewJobManager(
		jobs.NewDeliveryReconcileJob(&reconcile, c.cfg.Tracking.TickSpec, c.logger),
	)
}
