package engine

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/execution"
	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/position"
	"github.com/FrancoUysp/TT/internal/strategy"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Registry manages strategy instances by name. It is not safe for
// concurrent use on its own; the engine serializes access under its mutex.
type Registry struct {
	symbol   string
	port     execution.Port
	tradeLog *position.TradeLog
	log      *logger.Logger

	instances map[string]*Instance
	order     []string
}

// NewRegistry builds an empty registry whose instances will trade the given
// symbol through the given port.
func NewRegistry(symbol string, port execution.Port, tradeLog *position.TradeLog, log *logger.Logger) *Registry {
	return &Registry{
		symbol:    symbol,
		port:      port,
		tradeLog:  tradeLog,
		log:       log,
		instances: make(map[string]*Instance),
	}
}

// Add registers a new instance built from the given parameter set. The
// instance name is the parameter record's name. A failed add leaves the
// registry unchanged.
func (r *Registry) Add(params types.StrategyParams) (*Instance, error) {
	name := params.StrategyName()
	if _, ok := r.instances[name]; ok {
		return nil, errors.Newf(errors.ErrCodeStrategyExists, "strategy %q already exists", name)
	}

	detector, err := strategy.New(params)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	tracker := position.NewTracker(id, r.symbol, r.port, r.tradeLog, r.log)
	instance := NewInstance(id, name, detector, tracker, r.log)

	r.instances[name] = instance
	r.order = append(r.order, name)

	r.log.Info("strategy registered",
		zap.String("name", name),
		zap.String("id", id),
		zap.String("type", string(params.Type())),
	)

	return instance, nil
}

// Update patches an instance's parameters and optionally renames it. The
// update is all-or-nothing: the merged parameters are validated and any
// rename collision is checked before anything is applied.
func (r *Registry) Update(name string, patch json.RawMessage, newName optional.Option[string]) error {
	instance, ok := r.instances[name]
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	rename := ""
	if newName.IsSome() {
		rename = newName.Unwrap()
		if rename != name {
			if _, taken := r.instances[rename]; taken {
				return errors.Newf(errors.ErrCodeNameConflict, "strategy %q already exists", rename)
			}
		}
	}

	if len(patch) > 0 {
		if err := instance.UpdateParams(patch); err != nil {
			return err
		}
	}

	if rename != "" && rename != name {
		delete(r.instances, name)
		r.instances[rename] = instance
		for idx, n := range r.order {
			if n == name {
				r.order[idx] = rename
				break
			}
		}
		instance.SetName(rename)
	}

	return nil
}

// Remove deletes an instance. Removal is refused while the instance holds
// an open position.
func (r *Registry) Remove(name string) error {
	instance, ok := r.instances[name]
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	if instance.InTrade() {
		return errors.Newf(errors.ErrCodeStrategyInTrade,
			"cannot remove strategy %q while it is in a trade", name)
	}

	delete(r.instances, name)
	for idx, n := range r.order {
		if n == name {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}

	r.log.Info("strategy removed", zap.String("name", name))

	return nil
}

// Get returns the named instance.
func (r *Registry) Get(name string) (*Instance, error) {
	instance, ok := r.instances[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	return instance, nil
}

// List returns all instances in registration order. Evaluation follows
// this order.
func (r *Registry) List() []*Instance {
	out := make([]*Instance, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.instances[name])
	}

	return out
}
