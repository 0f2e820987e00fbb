// Package memory holds in-process adapters: order and payment storage with a staging
// unit of work, the tracking store and the inbox. They back STORAGE=memory runs and
// the saga tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/payment"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// ErrNoTransaction is returned by Commit and Rollback outside of a transaction.
var ErrNoTransaction = errors.New("no active transaction")

// Store keeps committed orders and payments. Values are stored as copies so callers
// never share aggregates with the store.
type Store struct {
	mu       sync.RWMutex
	orders   map[kernel.UUID]*order.Order
	payments map[kernel.UUID]*payment.Payment
	seq      map[kernel.UUID]int
	next     int
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[kernel.UUID]*order.Order),
		payments: make(map[kernel.UUID]*payment.Payment),
		seq:      make(map[kernel.UUID]int),
	}
}

// ActiveOrders lists orders that are neither delivered nor cancelled, oldest first.
func (s *Store) ActiveOrders(_ context.Context) ([]queries.ActiveOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]queries.ActiveOrder, 0)
	for _, o := range s.orders {
		if o.Status().IsTerminal() {
			continue
		}
		result = append(result, queries.ActiveOrder{
			ID:           o.ID(),
			CustomerID:   o.CustomerID(),
			RestaurantID: o.RestaurantID(),
			Status:       o.Status(),
			Amount:       o.Amount(),
			CreatedAt:    o.CreatedAt(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// UnitOfWorkFactory creates units of work over one Store.
type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork stages writes between Begin and Commit. Without Begin, writes go
// straight to the store. Commit re-checks payment uniqueness against everything
// committed in the meantime.
type UnitOfWork struct {
	store *Store

	active   bool
	orders   map[kernel.UUID]*order.Order
	payments map[kernel.UUID]*payment.Payment
	added    map[kernel.UUID]bool
	order    []kernel.UUID
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	if u.active {
		return nil
	}
	u.active = true
	u.orders = make(map[kernel.UUID]*order.Order)
	u.payments = make(map[kernel.UUID]*payment.Payment)
	u.added = make(map[kernel.UUID]bool)
	u.order = nil
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	defer u.reset()

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range u.added {
		if _, exists := s.orders[id]; exists {
			return fmt.Errorf("order %s already exists", id)
		}
	}
	for id := range u.orders {
		if _, exists := s.orders[id]; !exists && !u.added[id] {
			return errs.NewObjectNotFoundError("order", id.String())
		}
	}
	for _, id := range u.order {
		if err := s.checkPaymentLocked(u.payments[id], u.payments); err != nil {
			return err
		}
	}

	for id, o := range u.orders {
		s.orders[id] = o
	}
	for _, id := range u.order {
		s.putPaymentLocked(u.payments[id])
	}
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.reset()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) PaymentRepository() ports.PaymentRepository {
	return &PaymentRepository{uow: u}
}

func (u *UnitOfWork) reset() {
	u.active = false
	u.orders = nil
	u.payments = nil
	u.added = nil
	u.order = nil
}

// checkPaymentLocked applies the unique constraints of the payment table: one
// holder per transaction id and at most one completed charge per order. staged
// payments shadow committed ones with the same id.
func (s *Store) checkPaymentLocked(p *payment.Payment, staged map[kernel.UUID]*payment.Payment) error {
	visit := func(other *payment.Payment) error {
		if other.ID().IsEqual(p.ID()) {
			return nil
		}
		if other.TransactionID() == p.TransactionID() {
			return fmt.Errorf("%w: transaction %s", ports.ErrDuplicatePayment, p.TransactionID())
		}
		if p.IsCompletedCharge() && other.IsCompletedCharge() && other.OrderID().IsEqual(p.OrderID()) {
			return fmt.Errorf("%w: order %s already has a completed charge", ports.ErrDuplicatePayment, p.OrderID())
		}
		return nil
	}

	for id, other := range s.payments {
		if shadow, ok := staged[id]; ok {
			other = shadow
		}
		if err := visit(other); err != nil {
			return err
		}
	}
	for id, other := range staged {
		if _, committed := s.payments[id]; committed {
			continue
		}
		if err := visit(other); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) putPaymentLocked(p *payment.Payment) {
	if _, ok := s.seq[p.ID()]; !ok {
		s.next++
		s.seq[p.ID()] = s.next
	}
	s.payments[p.ID()] = p
}
