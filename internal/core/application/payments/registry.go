package payments

import (
	"errors"
	"fmt"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/ports"
)

// ErrGatewayNotConfigured is returned at startup when a payment method has no gateway.
var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

// GatewayRegistry resolves the gateway of a payment method. It is complete by
// construction: NewGatewayRegistry fails unless every method has a gateway.
type GatewayRegistry struct {
	gateways map[kernel.PaymentMethod]ports.PaymentGateway
}

func NewGatewayRegistry(gateways ...ports.PaymentGateway) (GatewayRegistry, error) {
	byMethod := make(map[kernel.PaymentMethod]ports.PaymentGateway, len(gateways))
	for _, g := range gateways {
		if err := g.Method().Validate(); err != nil {
			return GatewayRegistry{}, err
		}
		if _, dup := byMethod[g.Method()]; dup {
			return GatewayRegistry{}, fmt.Errorf("payment gateway for %s registered twice", g.Method())
		}
		byMethod[g.Method()] = g
	}

	var missing []error
	for _, m := range kernel.PaymentMethods() {
		if _, ok := byMethod[m]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrGatewayNotConfigured, m))
		}
	}
	if err := errors.Join(missing...); err != nil {
		return GatewayRegistry{}, err
	}

	return GatewayRegistry{gateways: byMethod}, nil
}

// Resolve returns the gateway of m.
func (r GatewayRegistry) Resolve(m kernel.PaymentMethod) (ports.PaymentGateway, error) {
	g, ok := r.gateways[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotConfigured, m)
	}
	return g, nil
}
