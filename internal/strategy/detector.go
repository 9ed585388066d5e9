// Package strategy holds the per-strategy signal detectors: small state
// machines that turn a stream of bars (and model predictions) into timed
// entry and exit actions. Detectors decide, the position tracker executes;
// a detector never talks to the brokerage itself.
package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Detector is the common shape of all signal detectors. Evaluate advances
// the state machine by exactly one bar and returns the ordered actions the
// caller should attempt. Detectors are total over well-formed input: a
// window shorter than the configured lookback degrades to using all
// available bars, and never returns an error.
type Detector interface {
	// Type identifies the detector variant.
	Type() types.StrategyType
	// Evaluate consumes the current window, the latest model prediction
	// (None for price-only variants or when the oracle is unavailable), and
	// the side of the currently open position (None when flat).
	Evaluate(bars []types.Bar, pred optional.Option[types.Prediction], position optional.Option[types.Side]) []types.Action
	// Params returns the current parameter set.
	Params() types.StrategyParams
	// SetParams replaces the parameter set. The caller is responsible for
	// rejecting updates while a position is open.
	SetParams(params types.StrategyParams) error
}

// New builds a detector of the given type from its parameter record.
func New(params types.StrategyParams) (Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	switch p := params.(type) {
	case types.WaveModelParams:
		return NewWaveModel(p), nil
	case types.TrendFollowerParams:
		return NewTrendFollower(p), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategyType, "unknown strategy type %q", params.Type())
	}
}
