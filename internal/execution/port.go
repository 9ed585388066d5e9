// Package execution defines the brokerage-facing port the position tracker
// submits orders through, plus the in-process adapters shipped with the
// engine. Retry and margin logic live behind the port, not in the core.
package execution

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// DefaultCallTimeout bounds a single brokerage call. A port that exceeds it
// is treated as having failed the order.
const DefaultCallTimeout = 30 * time.Second

// Order is a request to open a position.
type Order struct {
	StrategyID string     `json:"strategy_id" validate:"required,uuid"`
	Symbol     string     `json:"symbol" validate:"required"`
	Side       types.Side `json:"side" validate:"required,oneof=LONG SHORT"`
	Quantity   float64    `json:"quantity" validate:"required,gt=0"`
	Price      float64    `json:"price" validate:"required,gt=0"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// OrderRef identifies a filled entry order so the matching exit can
// reference it.
type OrderRef string

// Port is the external brokerage interface. Implementations must honor the
// context deadline and return rather than hang; the engine treats a timeout
// as a failed order.
type Port interface {
	// Place submits an opening order and returns a reference to the
	// resulting position.
	Place(ctx context.Context, order Order) (OrderRef, error)
	// Close submits the closing order for a previously placed position.
	Close(ctx context.Context, side types.Side, quantity float64, symbol string, ref OrderRef) error
}
