package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/events"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// Stage names, in execution order.
const (
	StageValidate       = "validate"
	StageSign           = "sign"
	StageSelectGateway  = "select-gateway"
	StageCallGateway    = "call-gateway"
	StageLocateOriginal = "locate-original"
	StageCallRefund     = "call-refund"
	StagePersist        = "persist"
	StageNotify         = "notify"
)

// Processor owns the charge and refund pipelines.
type Processor struct {
	cfg       Config
	registry  GatewayRegistry
	signer    services.TransactionSigner
	ids       services.TransactionIDs
	publisher ports.EventPublisher
	logger    *slog.Logger
	now       func() time.Time

	charge Pipeline
	refund Pipeline
}

func NewProcessor(
	cfg Config,
	registry GatewayRegistry,
	signer services.TransactionSigner,
	ids services.TransactionIDs,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	now func() time.Time,
) (*Processor, error) {
	if publisher == nil {
		return nil, errs.NewValueIsRequiredError("publisher")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}
	if now == nil {
		now = time.Now
	}

	p := &Processor{
		cfg:       cfg.withDefaults(),
		registry:  registry,
		signer:    signer,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
		now:       now,
	}

	p.charge = NewPipeline("charge", logger,
		Stage{Name: StageValidate, Run: p.validate},
		Stage{Name: StageSign, Run: p.sign},
		Stage{Name: StageSelectGateway, Run: p.selectGateway},
		Stage{Name: StageCallGateway, Run: p.callGateway},
		Stage{Name: StagePersist, Final: true, Run: p.persistCharge},
		Stage{Name: StageNotify, Final: true, Run: p.notifyCharge},
	)

	p.refund = NewPipeline("refund", logger,
		Stage{Name: StageLocateOriginal, Run: p.locateOriginal},
		Stage{Name: StageSign, Run: p.sign},
		Stage{Name: StageSelectGateway, Run: p.selectGateway},
		Stage{Name: StageCallRefund, Run: p.callRefund},
		Stage{Name: StagePersist, Final: true, Run: p.persistRefund},
		Stage{Name: StageNotify, Final: true, Run: p.notifyRefund},
	)

	return p, nil
}

// ChargeStages and RefundStages expose the stage order.
func (p *Processor) ChargeStages() []string { return p.charge.Stages() }
func (p *Processor) RefundStages() []string { return p.refund.Stages() }

// Charge runs a new charge of a.Amount for a.OrderID. a.Payments must be set.
func (p *Processor) Charge(ctx context.Context, a *Attempt) (Outcome, error) {
	record, err := payment.NewCharge(kernel.NewUUID(), a.OrderID, a.Method, a.Amount, p.ids.Charge(), p.now())
	if err != nil {
		return Outcome{}, err
	}
	a.Record = record

	return p.charge.Run(ctx, a)
}

// Refund reverses the completed charge of a.OrderID.
func (p *Processor) Refund(ctx context.Context, a *Attempt) (Outcome, error) {
	return p.refund.Run(ctx, a)
}

// AnnounceCharge publishes PAYMENT_PROCESSED again for a charge already stored. A
// replayed request ends here when the first result may not have left; the event id
// matches the first announcement, so consumers that saw it drop the copy.
func (p *Processor) AnnounceCharge(ctx context.Context, a *Attempt, charge *payment.Payment) error {
	replay := *a
	replay.Record = charge
	replay.Amount = charge.Amount()
	replay.Method = charge.Method()
	return p.notifyCharge(ctx, &replay)
}

// AnnounceRefund publishes PAYMENT_REFUNDED again for a refunded charge. refund is the
// stored refund record; without it the charge stands in.
func (p *Processor) AnnounceRefund(ctx context.Context, a *Attempt, charge, refund *payment.Payment) error {
	if refund == nil {
		refund = charge
	}

	replay := *a
	replay.Original = charge
	replay.Record = refund
	replay.Amount = charge.Amount()
	replay.Method = charge.Method()
	return p.notifyRefund(ctx, &replay)
}

func (p *Processor) validate(ctx context.Context, a *Attempt) error {
	if !a.Amount.IsPositive() {
		return halt("amount %s must be greater than 0", a.Amount)
	}

	if a.OrderID.Validate() != nil {
		return halt("order id is required")
	}

	if a.Amount.GreaterThan(p.cfg.MaxAmount) {
		return halt("amount %s exceeds the maximum of %s", a.Amount, p.cfg.MaxAmount)
	}

	if err := p.ensureUniqueTransactionID(ctx, a); err != nil {
		return err
	}

	previous, err := a.Payments.FindByOrder(ctx, a.OrderID)
	if err != nil {
		return err
	}

	charges := 0
	for _, existing := range previous {
		if existing.Kind() == payment.Charge {
			charges++
		}
	}
	if charges >= p.cfg.MaxAttempts {
		return halt("maximum of %d payment attempts reached", p.cfg.MaxAttempts)
	}

	today, err := a.Payments.CountByMethodSince(ctx, a.Method, startOfDay(p.now()))
	if err != nil {
		return err
	}
	if today >= int64(p.cfg.DailyLimit) {
		return halt("daily limit of %d %s payments reached", p.cfg.DailyLimit, a.Method)
	}

	return nil
}

// ensureUniqueTransactionID regenerates a colliding transaction id once.
func (p *Processor) ensureUniqueTransactionID(ctx context.Context, a *Attempt) error {
	for regenerated := false; ; regenerated = true {
		_, err := a.Payments.FindByTransactionID(ctx, a.Record.TransactionID())
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if regenerated {
			return halt("duplicate transaction id %s", a.Record.TransactionID())
		}

		p.logger.WarnContext(ctx, "transaction id collision, regenerating",
			"order_id", a.OrderID.String(), "transaction_id", a.Record.TransactionID())
		if err = a.Record.SetTransactionID(p.ids.Charge()); err != nil {
			return err
		}
	}
}

func (p *Processor) sign(_ context.Context, a *Attempt) error {
	a.Record.Sign(p.signer.Sign(a.OrderID.String(), a.Record.Amount(), a.Record.TransactionID()))
	return nil
}

func (p *Processor) selectGateway(_ context.Context, a *Attempt) error {
	g, err := p.registry.Resolve(a.Record.Method())
	if err != nil {
		return err
	}
	a.Gateway = g
	return nil
}

func (p *Processor) callGateway(ctx context.Context, a *Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	res, err := a.Gateway.Charge(ctx, p.gatewayRequest(a))
	if err != nil {
		return err
	}
	if !res.Approved {
		return halt("%s", res.Reason)
	}

	return a.Record.Complete()
}

func (p *Processor) locateOriginal(ctx context.Context, a *Attempt) error {
	original, err := p.findRefundable(ctx, a)
	if err != nil {
		return err
	}

	record, err := payment.NewRefund(kernel.NewUUID(), original, p.ids.Refund(), p.now())
	if err != nil {
		return err
	}

	a.Original = original
	a.Record = record
	a.Amount = original.Amount()
	a.Method = original.Method()
	return nil
}

func (p *Processor) findRefundable(ctx context.Context, a *Attempt) (*payment.Payment, error) {
	if a.OriginalID != nil {
		original, err := a.Payments.Get(ctx, *a.OriginalID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil, halt("payment %s not found", a.OriginalID)
		}
		if err != nil {
			return nil, err
		}
		if !original.IsCompletedCharge() || !original.OrderID().IsEqual(a.OrderID) {
			return nil, halt("payment %s is not a completed charge of order %s", a.OriginalID, a.OrderID)
		}
		return original, nil
	}

	previous, err := a.Payments.FindByOrder(ctx, a.OrderID)
	if err != nil {
		return nil, err
	}
	for _, existing := range previous {
		if existing.IsCompletedCharge() {
			return existing, nil
		}
	}

	return nil, halt("no completed charge to refund")
}

func (p *Processor) callRefund(ctx context.Context, a *Attempt) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	res, err := a.Gateway.Refund(ctx, p.gatewayRequest(a))
	if err != nil {
		return err
	}
	if !res.Approved {
		return halt("%s", res.Reason)
	}

	return a.Record.Complete()
}

func (p *Processor) persistCharge(ctx context.Context, a *Attempt) error {
	return p.save(ctx, a, p.ids.Charge)
}

func (p *Processor) persistRefund(ctx context.Context, a *Attempt) error {
	if a.Record == nil {
		return nil
	}

	if err := p.save(ctx, a, p.ids.Refund); err != nil {
		return err
	}

	if a.Record.Status() != payment.Refunded {
		return nil
	}

	if err := a.Original.MarkRefunded(); err != nil {
		return err
	}
	return a.Payments.Save(ctx, a.Original)
}

// save stores the record; a uniqueness violation turns it into a Failed duplicate
// stored under a fresh transaction id.
func (p *Processor) save(ctx context.Context, a *Attempt, nextID func() string) error {
	err := a.Payments.Save(ctx, a.Record)
	if !errors.Is(err, ports.ErrDuplicatePayment) {
		return err
	}

	p.logger.WarnContext(ctx, "payment refused by store as duplicate",
		"order_id", a.OrderID.String(), "payment_id", a.Record.ID().String(), "error", err)

	if err = a.Record.FailAsDuplicate(nextID()); err != nil {
		return err
	}
	a.Halted = &Halt{Reason: payment.DuplicatePaymentReason}

	return a.Payments.Save(ctx, a.Record)
}

func (p *Processor) notifyCharge(ctx context.Context, a *Attempt) error {
	eventType := events.PaymentFailed
	if a.Record.Status() == payment.Completed {
		eventType = events.PaymentProcessed
	}

	return p.publish(ctx, eventType, a, a.Record.ID())
}

func (p *Processor) notifyRefund(ctx context.Context, a *Attempt) error {
	eventType := events.RefundFailed
	if a.Record != nil && a.Record.Status() == payment.Refunded {
		eventType = events.PaymentRefunded
	}

	var paymentID kernel.UUID
	if a.Original != nil {
		paymentID = a.Original.ID()
	} else if a.OriginalID != nil {
		paymentID = *a.OriginalID
	}

	return p.publish(ctx, eventType, a, paymentID)
}

func (p *Processor) publish(ctx context.Context, eventType events.Type, a *Attempt, paymentID kernel.UUID) error {
	payload := events.Payload{
		OrderID:    a.OrderID.String(),
		Amount:     a.Amount,
		CustomerID: a.CustomerID,
	}
	if a.Method.Validate() == nil {
		payload.PaymentMethod = a.Method.String()
	}
	if paymentID.Validate() == nil {
		payload.PaymentID = paymentID.String()
	}
	if a.Record != nil {
		payload.Status = a.Record.Status().String()
		payload.TransactionID = a.Record.TransactionID()
		payload.Reason = a.Record.FailureReason()
	}
	if a.Halted != nil {
		payload.Reason = a.Halted.Reason
	}

	evt, err := events.New(eventType, events.ProducerPayment, payload, p.now())
	if err != nil {
		return err
	}
	evt = evt.WithDerivedID(payload.PaymentID, payload.TransactionID, payload.Status)

	publisher := p.publisher
	if a.Publisher != nil {
		publisher = a.Publisher
	}
	if err = publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (p *Processor) gatewayRequest(a *Attempt) ports.GatewayRequest {
	return ports.GatewayRequest{
		OrderID:       a.OrderID,
		Amount:        a.Record.Amount(),
		TransactionID: a.Record.TransactionID(),
		Signature:     a.Record.Signature(),
	}
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
