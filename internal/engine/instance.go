// Package engine ties the pieces together: strategy instances wrap a
// detector and a position tracker, the registry manages them by name, and
// the scheduler drives one evaluation per minute bar.
package engine

import (
	"encoding/json"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/position"
	"github.com/FrancoUysp/TT/internal/strategy"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Instance is one running strategy: a detector deciding and a tracker
// executing, under a stable id and a user-facing name.
type Instance struct {
	id       string
	name     string
	detector strategy.Detector
	tracker  *position.Tracker
	log      *logger.Logger

	lastEvaluated time.Time
	lastPrice     float64

	// pendingClose marks a close the brokerage rejected. It is retried on
	// every bar until it lands, independent of the detector's triggers.
	pendingClose bool
}

// NewInstance wires a detector and tracker under the given id and name.
func NewInstance(id, name string, detector strategy.Detector, tracker *position.Tracker, log *logger.Logger) *Instance {
	return &Instance{
		id:       id,
		name:     name,
		detector: detector,
		tracker:  tracker,
		log:      log.Named(name),
	}
}

// ID returns the instance's stable identifier.
func (i *Instance) ID() string { return i.id }

// Name returns the user-facing name.
func (i *Instance) Name() string { return i.name }

// Type returns the detector variant this instance runs.
func (i *Instance) Type() types.StrategyType { return i.detector.Type() }

// Params returns the current parameter set.
func (i *Instance) Params() types.StrategyParams { return i.detector.Params() }

// InTrade reports whether the instance holds an open position.
func (i *Instance) InTrade() bool { return i.tracker.InTrade() }

// History returns every trade leg this instance has recorded.
func (i *Instance) History() ([]types.TradeRecord, error) { return i.tracker.History() }

// Roi replays completed round trips into an ROI report.
func (i *Instance) Roi() (position.RoiReport, error) {
	trips, err := i.tracker.RoundTrips()
	if err != nil {
		return position.RoiReport{}, err
	}

	return position.CalculateRoi(trips), nil
}

// Execute evaluates the detector against the current window and applies the
// resulting actions through the tracker. A bar is evaluated at most once: a
// repeat call with the same latest timestamp is a no-op.
func (i *Instance) Execute(bars []types.Bar, pred optional.Option[types.Prediction]) error {
	if len(bars) == 0 {
		return nil
	}

	latest := bars[len(bars)-1]
	if !latest.Time.After(i.lastEvaluated) {
		return nil
	}

	i.lastEvaluated = latest.Time
	i.lastPrice = latest.Close

	// A rejected close takes priority over fresh signals: the detector is
	// held until the book is square again.
	if i.pendingClose {
		if err := i.retryClose(latest); err != nil {
			return err
		}
	}

	actions := i.detector.Evaluate(bars, pred, i.tracker.Side())

	var firstErr error
	for _, action := range actions {
		if err := i.apply(action, latest); err != nil {
			i.log.Error("action failed",
				zap.String("action", string(action)),
				zap.Time("bar", latest.Time),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func (i *Instance) retryClose(latest types.Bar) error {
	err := i.tracker.Close(latest.Close, latest.Time)
	if err == nil || errors.HasCode(err, errors.ErrCodePositionNotFound) {
		i.pendingClose = false

		return nil
	}

	i.log.Error("close retry failed",
		zap.Time("bar", latest.Time),
		zap.Error(err),
	)

	return err
}

func (i *Instance) apply(action types.Action, latest types.Bar) error {
	units := i.detector.Params().UnitSize()

	switch action {
	case types.ActionOpenLong:
		return i.tracker.Open(types.SideLong, latest.Close, units, latest.Time)
	case types.ActionOpenShort:
		return i.tracker.Open(types.SideShort, latest.Close, units, latest.Time)
	case types.ActionCloseLong, types.ActionCloseShort:
		if err := i.tracker.Close(latest.Close, latest.Time); err != nil {
			i.pendingClose = true

			return err
		}

		return nil
	case types.ActionNone:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown action %q", action)
	}
}

// ExitTrade closes the open position at the last seen price, regardless of
// what the detector thinks.
func (i *Instance) ExitTrade() error {
	if !i.tracker.InTrade() {
		return errors.Newf(errors.ErrCodeStrategyNotInTrade, "strategy %q is not in a trade", i.name)
	}

	if err := i.tracker.Close(i.lastPrice, time.Now().UTC()); err != nil {
		i.pendingClose = true

		return err
	}

	i.pendingClose = false

	return nil
}

// MergeParams merges a partial JSON patch over the current parameter set
// and validates the result, without applying it.
func (i *Instance) MergeParams(patch json.RawMessage) (types.StrategyParams, error) {
	current, err := json.Marshal(i.detector.Params())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to encode current params", err)
	}

	base := make(map[string]json.RawMessage)
	if err := json.Unmarshal(current, &base); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode current params", err)
	}

	overlay := make(map[string]json.RawMessage)
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "params patch is not a JSON object", err)
	}

	for key, value := range overlay {
		if _, ok := base[key]; !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown parameter %q", key)
		}
		base[key] = value
	}

	merged, err := json.Marshal(base)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to encode merged params", err)
	}

	var params types.StrategyParams
	switch i.detector.Type() {
	case types.StrategyTypeWaveModel:
		var p types.WaveModelParams
		if err := json.Unmarshal(merged, &p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode merged params", err)
		}
		p.Name = i.name
		params = p
	case types.StrategyTypeTrendFollower:
		var p types.TrendFollowerParams
		if err := json.Unmarshal(merged, &p); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidParameter, "failed to decode merged params", err)
		}
		p.Name = i.name
		params = p
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategyType, "unknown strategy type %q", i.detector.Type())
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// UpdateParams merges and applies a partial parameter patch. Updates are
// rejected while a position is open so a live trade never changes rules
// mid-flight.
func (i *Instance) UpdateParams(patch json.RawMessage) error {
	if i.tracker.InTrade() {
		return errors.Newf(errors.ErrCodeStrategyInTrade,
			"cannot update params while strategy %q is in a trade", i.name)
	}

	merged, err := i.MergeParams(patch)
	if err != nil {
		return err
	}

	return i.detector.SetParams(merged)
}

// SetName renames the instance and keeps the parameter record in step.
func (i *Instance) SetName(name string) {
	i.name = name
	i.log = i.log.Named(name)

	switch p := i.detector.Params().(type) {
	case types.WaveModelParams:
		p.Name = name
		_ = i.detector.SetParams(p)
	case types.TrendFollowerParams:
		p.Name = name
		_ = i.detector.SetParams(p)
	}
}
