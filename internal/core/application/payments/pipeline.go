// Package payments runs charges and refunds as an explicit, ordered list of stages.
//
// A Pipeline walks its stages in order. A stage either continues, halts the attempt
// with a business reason (the record ends FAILED) or aborts with an infrastructure
// error (the caller rolls back and the triggering event is redelivered). Stages
// marked Final run even after a halt, so a halted attempt is still persisted and
// announced.
package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Halt stops an attempt for a business reason.
type Halt struct {
	Reason string
}

func (h *Halt) Error() string {
	return "payment halted: " + h.Reason
}

func halt(format string, args ...any) *Halt {
	return &Halt{Reason: fmt.Sprintf(format, args...)}
}

// Attempt carries the state of one charge or refund through the stages.
type Attempt struct {
	OrderID    kernel.UUID
	CustomerID string
	Amount     decimal.Decimal
	Method     kernel.PaymentMethod

	// OriginalID names the charge a refund reverses; empty means "the completed one".
	OriginalID *kernel.UUID

	// Payments is the store bound to the caller's unit of work.
	Payments ports.PaymentRepository

	// Record is the payment being processed. It is nil only when a refund finds no
	// original charge.
	Record *payment.Payment

	// Original is the charge being refunded.
	Original *payment.Payment

	Gateway ports.PaymentGateway

	// Publisher receives the result event instead of the processor publisher when set.
	Publisher ports.EventPublisher

	// Halted is set once a stage halted the attempt.
	Halted *Halt
}

// Outcome reports how an attempt ended.
type Outcome struct {
	Record *payment.Payment
	Halted *Halt
}

// Succeeded reports whether money moved.
func (o Outcome) Succeeded() bool {
	if o.Halted != nil || o.Record == nil {
		return false
	}
	return o.Record.Status() == payment.Completed || o.Record.Status() == payment.Refunded
}

// Stage is one step of a pipeline.
type Stage struct {
	Name  string
	Final bool
	Run   func(ctx context.Context, a *Attempt) error
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	name   string
	stages []Stage
	logger *slog.Logger
}

func NewPipeline(name string, logger *slog.Logger, stages ...Stage) Pipeline {
	return Pipeline{name: name, stages: stages, logger: logger}
}

// Stages returns the stage names in execution order.
func (p Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Run executes the stages. It returns an error only when a stage aborted.
func (p Pipeline) Run(ctx context.Context, a *Attempt) (Outcome, error) {
	for _, stage := range p.stages {
		if a.Halted != nil && !stage.Final {
			continue
		}

		err := stage.Run(ctx, a)
		if err == nil {
			continue
		}

		var h *Halt
		if !errors.As(err, &h) {
			return Outcome{}, fmt.Errorf("%s stage %s: %w", p.name, stage.Name, err)
		}

		if a.Halted != nil {
			return Outcome{}, fmt.Errorf("%s stage %s halted after halt: %w", p.name, stage.Name, err)
		}

		a.Halted = h
		if a.Record != nil {
			if failErr := a.Record.Fail(h.Reason); failErr != nil {
				return Outcome{}, fmt.Errorf("%s stage %s: %w", p.name, stage.Name, failErr)
			}
		}

		p.logger.InfoContext(ctx, "payment halted",
			"pipeline", p.name, "stage", stage.Name, "order_id", a.OrderID.String(), "reason", h.Reason)
	}

	return Outcome{Record: a.Record, Halted: a.Halted}, nil
}
