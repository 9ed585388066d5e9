package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/market"
	"github.com/FrancoUysp/TT/internal/oracle"
	"github.com/FrancoUysp/TT/internal/position"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// TickSnapshot is what the engine reports after each evaluated bar. The
// websocket feed pushes these to subscribers.
type TickSnapshot struct {
	Bar types.Bar `json:"bar"`
	// Prediction is nil when the oracle was unavailable for this bar.
	Prediction *types.Prediction `json:"prediction,omitempty"`
	Strategies []StrategySummary `json:"strategies"`
	At         time.Time         `json:"at"`
}

// StrategySummary is the read-only view of an instance handed across the
// control surface.
type StrategySummary struct {
	Name    string               `json:"name"`
	Type    types.StrategyType   `json:"type"`
	Params  types.StrategyParams `json:"params"`
	InTrade bool                 `json:"in_trade"`
}

// OnTick is invoked after each evaluated bar, outside of no-op ticks.
type OnTick func(snapshot TickSnapshot)

// Engine drives the whole system: once per wall-clock minute it pulls the
// next bar, scores it, and evaluates every registered strategy in
// registration order. A single mutex serializes ticks against control
// surface calls.
type Engine struct {
	mu sync.Mutex

	window   *market.BarWindow
	data     market.DataPort
	oracle   oracle.Oracle
	registry *Registry
	log      *logger.Logger

	onTick optional.Option[OnTick]
}

// NewEngine assembles an engine over the given ports and registry.
func NewEngine(window *market.BarWindow, data market.DataPort, orc oracle.Oracle, registry *Registry, log *logger.Logger) *Engine {
	return &Engine{
		window:   window,
		data:     data,
		oracle:   orc,
		registry: registry,
		log:      log,
	}
}

// Initialize primes the bar window from the data port's history.
func (e *Engine) Initialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bars, err := e.data.LatestWindow(e.window.Capacity())
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to prime bar window", err)
	}

	for _, bar := range bars {
		if err := e.window.Append(bar); err != nil {
			return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to prime bar window", err)
		}
	}

	e.log.Info("bar window primed", zap.Int("bars", e.window.Len()))

	return nil
}

// Run ticks once per minute, aligned to wall-clock minute rollovers, until
// the context is cancelled. Callback delivery happens on the tick
// goroutine.
func (e *Engine) Run(ctx context.Context, onTick optional.Option[OnTick]) error {
	e.onTick = onTick

	e.log.Info("engine started")

	for {
		wait := time.Until(time.Now().Truncate(time.Minute).Add(time.Minute))

		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return ctx.Err()
		case <-time.After(wait):
			e.Tick()
		}
	}
}

// Tick runs one full evaluation pass. Every failure is absorbed here: a
// tick either completes or becomes a logged no-op, never a crash.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	bar, err := e.data.NextBar()
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeNoNewData) {
			e.log.Debug("no new bar this tick")
		} else {
			e.log.Error("data port failed", zap.Error(err))
		}
		return
	}

	if err := e.window.Append(bar); err != nil {
		e.log.Error("bar rejected", zap.Time("bar", bar.Time), zap.Error(err))
		return
	}

	bars := e.window.Snapshot()

	pred := optional.None[types.Prediction]()

	var snapPred *types.Prediction
	if scored, err := e.oracle.Predict(bars); err != nil {
		e.log.Warn("oracle unavailable, evaluating price-only", zap.Error(err))
	} else {
		pred = optional.Some(scored)
		snapPred = &scored
	}

	for _, instance := range e.registry.List() {
		if err := instance.Execute(bars, pred); err != nil {
			e.log.Error("strategy evaluation failed",
				zap.String("strategy", instance.Name()),
				zap.Error(err),
			)
		}
	}

	if e.onTick.IsSome() {
		e.onTick.Unwrap()(TickSnapshot{
			Bar:        bar,
			Prediction: snapPred,
			Strategies: e.summaries(),
			At:         time.Now().UTC(),
		})
	}
}

func (e *Engine) summaries() []StrategySummary {
	instances := e.registry.List()

	out := make([]StrategySummary, 0, len(instances))
	for _, instance := range instances {
		out = append(out, StrategySummary{
			Name:    instance.Name(),
			Type:    instance.Type(),
			Params:  instance.Params(),
			InTrade: instance.InTrade(),
		})
	}

	return out
}

// AddStrategy registers a new strategy instance.
func (e *Engine) AddStrategy(params types.StrategyParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.registry.Add(params)
	return err
}

// UpdateStrategy patches a strategy's parameters and optionally renames it.
func (e *Engine) UpdateStrategy(name string, patch json.RawMessage, newName optional.Option[string]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Update(name, patch, newName)
}

// RemoveStrategy deletes a strategy instance.
func (e *Engine) RemoveStrategy(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.registry.Remove(name)
}

// ListStrategies returns summaries of all instances in registration order.
func (e *Engine) ListStrategies() []StrategySummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.summaries()
}

// StrategyParams returns the named strategy's current parameter set.
func (e *Engine) StrategyParams(name string) (types.StrategyParams, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return instance.Params(), nil
}

// StrategyHistory returns the named strategy's recorded trade legs.
func (e *Engine) StrategyHistory(name string) ([]types.TradeRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, err := e.registry.Get(name)
	if err != nil {
		return nil, err
	}

	return instance.History()
}

// StrategyInTrade reports whether the named strategy holds a position.
func (e *Engine) StrategyInTrade(name string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, err := e.registry.Get(name)
	if err != nil {
		return false, err
	}

	return instance.InTrade(), nil
}

// ExitStrategy force-closes the named strategy's open position.
func (e *Engine) ExitStrategy(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, err := e.registry.Get(name)
	if err != nil {
		return err
	}

	return instance.ExitTrade()
}

// StrategyRoi returns the named strategy's ROI report.
func (e *Engine) StrategyRoi(name string) (position.RoiReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	instance, err := e.registry.Get(name)
	if err != nil {
		return position.RoiReport{}, err
	}

	return instance.Roi()
}

// LatestBars returns a copy of the n most recent bars.
func (e *Engine) LatestBars(n int) []types.Bar {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.window.Last(n)
}
