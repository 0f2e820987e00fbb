package payments

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds the payment rules. Zero fields are replaced by the defaults.
type Config struct {
	MaxAttempts   int
	DailyLimit    int
	MaxAmount     decimal.Decimal
	SigningSecret string
	GatewayURL    string
	Timeout       time.Duration
}

const (
	DefaultMaxAttempts = 3
	DefaultDailyLimit  = 10
	DefaultTimeout     = 30 * time.Second
)

// DefaultMaxAmount is the largest amount a single charge may move.
var DefaultMaxAmount = decimal.NewFromInt(10000)

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.DailyLimit <= 0 {
		c.DailyLimit = DefaultDailyLimit
	}
	if !c.MaxAmount.IsPositive() {
		c.MaxAmount = DefaultMaxAmount
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
