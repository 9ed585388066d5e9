package execution

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// PaperFill records one simulated brokerage interaction.
type PaperFill struct {
	Ref      OrderRef
	Symbol   string
	Side     types.Side
	Quantity float64
	Price    float64
	Closing  bool
	At       time.Time
}

// PaperPort fills every order instantly at the requested price. It keeps a
// log of fills and supports failure injection so trackers can be exercised
// against brokerage rejections.
type PaperPort struct {
	mu    sync.Mutex
	log   *logger.Logger
	fills []PaperFill
	open  map[OrderRef]PaperFill

	failNextPlace bool
	failNextClose bool
}

// NewPaperPort creates an empty paper port.
func NewPaperPort(log *logger.Logger) *PaperPort {
	return &PaperPort{
		mu:            sync.Mutex{},
		log:           log,
		fills:         nil,
		open:          make(map[OrderRef]PaperFill),
		failNextPlace: false,
		failNextClose: false,
	}
}

// Place implements Port.
func (p *PaperPort) Place(ctx context.Context, order Order) (OrderRef, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeExecutionTimeout, "place cancelled", err)
	}

	if err := order.Validate(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNextPlace {
		p.failNextPlace = false

		return "", errors.New(errors.ErrCodeOrderFailed, "injected place failure")
	}

	fill := PaperFill{
		Ref:      OrderRef(uuid.New().String()),
		Symbol:   order.Symbol,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    order.Price,
		Closing:  false,
		At:       time.Now(),
	}

	p.fills = append(p.fills, fill)
	p.open[fill.Ref] = fill

	p.log.Info("paper order filled",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("price", order.Price),
	)

	return fill.Ref, nil
}

// Close implements Port.
func (p *PaperPort) Close(ctx context.Context, side types.Side, quantity float64, symbol string, ref OrderRef) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeExecutionTimeout, "close cancelled", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failNextClose {
		p.failNextClose = false

		return errors.New(errors.ErrCodeOrderCloseFailed, "injected close failure")
	}

	entry, ok := p.open[ref]
	if !ok {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open paper position for ref %s", ref)
	}

	delete(p.open, ref)

	p.fills = append(p.fills, PaperFill{
		Ref:      ref,
		Symbol:   symbol,
		Side:     side,
		Quantity: quantity,
		Price:    entry.Price,
		Closing:  true,
		At:       time.Now(),
	})

	p.log.Info("paper position closed",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
	)

	return nil
}

// Fills returns a copy of the fill log.
func (p *PaperPort) Fills() []PaperFill {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]PaperFill, len(p.fills))
	copy(out, p.fills)

	return out
}

// OpenCount returns the number of open paper positions.
func (p *PaperPort) OpenCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.open)
}

// FailNextPlace makes the next Place call fail. Test hook.
func (p *PaperPort) FailNextPlace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNextPlace = true
}

// FailNextClose makes the next Close call fail. Test hook.
func (p *PaperPort) FailNextClose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNextClose = true
}
