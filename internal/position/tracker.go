package position

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/execution"
	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Tracker holds at most one open position for a single strategy instance.
// Every open and close routes through the brokerage port before the log is
// updated, so the recorded state never runs ahead of the exchange.
type Tracker struct {
	mu sync.Mutex

	strategyID string
	symbol     string
	port       execution.Port
	tradeLog   *TradeLog
	log        *logger.Logger
	timeout    time.Duration

	open       bool
	side       types.Side
	entryPrice float64
	quantity   float64
	tradeID    string
	orderRef   execution.OrderRef
}

// NewTracker builds a tracker for one strategy instance.
func NewTracker(strategyID, symbol string, port execution.Port, tradeLog *TradeLog, log *logger.Logger) *Tracker {
	return &Tracker{
		strategyID: strategyID,
		symbol:     symbol,
		port:       port,
		tradeLog:   tradeLog,
		log:        log,
		timeout:    execution.DefaultCallTimeout,
	}
}

// Open places an entry order and records the entry leg. A second open while
// a position is held fails with ErrCodePositionExists and changes nothing.
func (t *Tracker) Open(side types.Side, price, quantity float64, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open {
		return errors.Newf(errors.ErrCodePositionExists,
			"strategy %s already holds a %s position", t.strategyID, t.side)
	}

	order := execution.Order{
		StrategyID: t.strategyID,
		Symbol:     t.symbol,
		Side:       side,
		Quantity:   quantity,
		Price:      price,
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	ref, err := t.port.Place(ctx, order)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeOrderFailed, err,
			"entry order failed for strategy %s", t.strategyID)
	}

	tradeID := uuid.New().String()

	units := quantity
	kind := types.TradeKindLongEntry
	if side == types.SideShort {
		units = -quantity
		kind = types.TradeKindShortEntry
	}

	record := types.TradeRecord{
		TradeID:    tradeID,
		StrategyID: t.strategyID,
		Kind:       kind,
		Price:      price,
		Units:      units,
		RecordedAt: at,
	}

	t.open = true
	t.side = side
	t.entryPrice = price
	t.quantity = quantity
	t.tradeID = tradeID
	t.orderRef = ref

	if err := t.tradeLog.Append(record); err != nil {
		// The exchange already filled the order. The position is held
		// regardless of what the log managed to record.
		t.log.Error("entry filled but log append failed",
			zap.String("strategy_id", t.strategyID),
			zap.String("trade_id", tradeID),
			zap.Error(err),
		)
		return err
	}

	t.log.Info("position opened",
		zap.String("strategy_id", t.strategyID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
	)

	return nil
}

// Close unwinds the open position at the given price and records the exit
// leg under the entry's trade id. If the brokerage rejects the close, the
// position stays open so a later evaluation can retry.
func (t *Tracker) Close(price float64, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return errors.Newf(errors.ErrCodePositionNotFound,
			"strategy %s holds no position to close", t.strategyID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.port.Close(ctx, t.side, t.quantity, t.symbol, t.orderRef); err != nil {
		return errors.Wrapf(errors.ErrCodeOrderCloseFailed, err,
			"exit order failed for strategy %s", t.strategyID)
	}

	units := -t.quantity
	kind := types.TradeKindLongExit
	if t.side == types.SideShort {
		units = t.quantity
		kind = types.TradeKindShortExit
	}

	record := types.TradeRecord{
		TradeID:    t.tradeID,
		StrategyID: t.strategyID,
		Kind:       kind,
		Price:      price,
		Units:      units,
		RecordedAt: at,
	}

	side := t.side

	t.open = false
	t.side = ""
	t.entryPrice = 0
	t.quantity = 0
	t.tradeID = ""
	t.orderRef = ""

	if err := t.tradeLog.Append(record); err != nil {
		t.log.Error("exit filled but log append failed",
			zap.String("strategy_id", t.strategyID),
			zap.String("trade_id", record.TradeID),
			zap.Error(err),
		)
		return err
	}

	t.log.Info("position closed",
		zap.String("strategy_id", t.strategyID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
	)

	return nil
}

// InTrade reports whether a position is currently held.
func (t *Tracker) InTrade() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Side returns the side of the open position, or None when flat.
func (t *Tracker) Side() optional.Option[types.Side] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return optional.None[types.Side]()
	}
	return optional.Some(t.side)
}

// EntryPrice returns the fill price of the open position, or None when flat.
func (t *Tracker) EntryPrice() optional.Option[float64] {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return optional.None[float64]()
	}
	return optional.Some(t.entryPrice)
}

// History returns every recorded leg for this strategy, oldest first.
func (t *Tracker) History() ([]types.TradeRecord, error) {
	return t.tradeLog.History(t.strategyID)
}

// RoundTrips returns the matched entry/exit pairs for this strategy.
func (t *Tracker) RoundTrips() ([]types.RoundTrip, error) {
	return t.tradeLog.RoundTrips(t.strategyID)
}
