package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/pkg/errs"
)

// OrderRepository reads through the unit of work's staged orders to the store.
type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}

	u := r.uow
	if _, staged := u.orders[aggregate.ID()]; staged && u.active {
		return fmt.Errorf("order %s already exists", aggregate.ID())
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if _, exists := u.store.orders[aggregate.ID()]; exists {
		return fmt.Errorf("order %s already exists", aggregate.ID())
	}

	if u.active {
		u.orders[aggregate.ID()] = stored
		u.added[aggregate.ID()] = true
		return nil
	}
	u.store.orders[aggregate.ID()] = stored
	return nil
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	stored, err := cloneOrder(aggregate)
	if err != nil {
		return err
	}

	u := r.uow
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	_, committed := u.store.orders[aggregate.ID()]
	_, staged := u.orders[aggregate.ID()]
	if !committed && !staged {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}

	if u.active {
		u.orders[aggregate.ID()] = stored
		return nil
	}
	u.store.orders[aggregate.ID()] = stored
	return nil
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	u := r.uow
	if o, ok := u.orders[id]; ok {
		return cloneOrder(o)
	}

	u.store.mu.RLock()
	o, ok := u.store.orders[id]
	u.store.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return cloneOrder(o)
}

// PaymentRepository enforces the same uniqueness rules as the payments table.
type PaymentRepository struct {
	uow *UnitOfWork
}

func (r *PaymentRepository) Save(_ context.Context, p *payment.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}

	stored, err := clonePayment(p)
	if err != nil {
		return err
	}

	u := r.uow
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	if err = u.store.checkPaymentLocked(stored, u.payments); err != nil {
		return err
	}

	if u.active {
		if _, staged := u.payments[p.ID()]; !staged {
			u.order = append(u.order, p.ID())
		}
		u.payments[p.ID()] = stored
		return nil
	}
	u.store.putPaymentLocked(stored)
	return nil
}

func (r *PaymentRepository) Get(_ context.Context, id kernel.UUID) (*payment.Payment, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	for _, p := range r.visible() {
		if p.ID().IsEqual(id) {
			return clonePayment(p)
		}
	}
	return nil, errs.NewObjectNotFoundError("payment", id.String())
}

func (r *PaymentRepository) FindByOrder(_ context.Context, orderID kernel.UUID) ([]*payment.Payment, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	list := make([]*payment.Payment, 0)
	for _, p := range r.visible() {
		if !p.OrderID().IsEqual(orderID) {
			continue
		}
		c, err := clonePayment(p)
		if err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, nil
}

func (r *PaymentRepository) FindByTransactionID(_ context.Context, transactionID string) (*payment.Payment, error) {
	for _, p := range r.visible() {
		if p.TransactionID() == transactionID {
			return clonePayment(p)
		}
	}
	return nil, errs.NewObjectNotFoundError("payment", transactionID)
}

func (r *PaymentRepository) CountByMethodSince(
	_ context.Context,
	method kernel.PaymentMethod,
	since time.Time,
) (int64, error) {
	var count int64
	for _, p := range r.visible() {
		if p.Kind() == payment.Charge && p.Method() == method && !p.CreatedAt().Before(since) {
			count++
		}
	}
	return count, nil
}

// visible merges committed and staged payments, oldest first.
func (r *PaymentRepository) visible() []*payment.Payment {
	u := r.uow
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	type entry struct {
		p   *payment.Payment
		seq int
	}

	entries := make([]entry, 0, len(u.store.payments)+len(u.payments))
	for id, p := range u.store.payments {
		if staged, ok := u.payments[id]; ok {
			p = staged
		}
		entries = append(entries, entry{p: p, seq: u.store.seq[id]})
	}

	pending := len(u.store.seq)
	for i, id := range u.order {
		if _, committed := u.store.payments[id]; committed {
			continue
		}
		entries = append(entries, entry{p: u.payments[id], seq: pending + i + 1})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].p.CreatedAt().Equal(entries[j].p.CreatedAt()) {
			return entries[i].seq < entries[j].seq
		}
		return entries[i].p.CreatedAt().Before(entries[j].p.CreatedAt())
	})

	out := make([]*payment.Payment, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.p)
	}
	return out
}

func cloneOrder(o *order.Order) (*order.Order, error) {
	var deliveryID *kernel.UUID
	if id := o.DeliveryID(); id != nil {
		copied := *id
		deliveryID = &copied
	}

	return order.RestoreOrder(
		o.ID(),
		o.CustomerID(),
		o.RestaurantID(),
		o.Items(),
		o.PaymentMethod(),
		o.RestaurantLocation(),
		o.CustomerLocation(),
		o.Status(),
		o.Payment(),
		o.PaymentFailure(),
		deliveryID,
		o.CreatedAt(),
		o.UpdatedAt(),
	)
}

func clonePayment(p *payment.Payment) (*payment.Payment, error) {
	var originalID *kernel.UUID
	if id := p.OriginalID(); id != nil {
		copied := *id
		originalID = &copied
	}

	return payment.RestorePayment(
		p.ID(),
		p.OrderID(),
		p.Kind(),
		p.Method(),
		p.Amount(),
		p.Status(),
		p.TransactionID(),
		p.Signature(),
		originalID,
		p.FailureReason(),
		p.CreatedAt(),
	)
}
