package strategy

import (
	"github.com/moznion/go-optional"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// TrendFollower is the price-only cumulative-move detector. It sums
// consecutive same-direction close-to-close changes; when the direction
// flips, the just-completed run is captured and compared against the
// configured thresholds. Threshold crossings fire immediately, with no
// confirmation timer, and a crossing that finds an opposite-side position
// open closes it before entering.
type TrendFollower struct {
	params types.TrendFollowerParams

	prevPrice float64
	accPos    float64
	accNeg    float64
	prevPos   float64
	prevNeg   float64
}

// NewTrendFollower creates an unprimed detector. The first bar it sees only
// records the reference price and produces no signal.
func NewTrendFollower(params types.TrendFollowerParams) *TrendFollower {
	return &TrendFollower{
		params:    params,
		prevPrice: 0,
		accPos:    0,
		accNeg:    0,
		prevPos:   0,
		prevNeg:   0,
	}
}

// Type implements Detector.
func (t *TrendFollower) Type() types.StrategyType {
	return types.StrategyTypeTrendFollower
}

// Params implements Detector.
func (t *TrendFollower) Params() types.StrategyParams {
	return t.params
}

// SetParams implements Detector.
func (t *TrendFollower) SetParams(params types.StrategyParams) error {
	p, ok := params.(types.TrendFollowerParams)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"trend follower detector cannot take %q params", params.Type())
	}

	t.params = p

	return nil
}

// Evaluate implements Detector.
func (t *TrendFollower) Evaluate(bars []types.Bar, _ optional.Option[types.Prediction], position optional.Option[types.Side]) []types.Action {
	if len(bars) == 0 {
		return nil
	}

	price := bars[len(bars)-1].Close

	// Priming bar: record the reference price, signal nothing.
	if t.prevPrice == 0 {
		t.prevPrice = price

		return nil
	}

	change := price - t.prevPrice
	t.prevPos = t.accPos
	t.prevNeg = t.accNeg

	if change > 0 {
		t.accPos += change
		t.accNeg = 0
	} else if change < 0 {
		t.accNeg += change
		t.accPos = 0
	}

	// A run is complete only on the bar its accumulator was zeroed by a
	// flip; otherwise the captured sums stay neutral.
	sumBull := 0.0
	if t.prevPos > 0 && t.accPos == 0 {
		sumBull = t.prevPos
	}

	sumBear := 0.0
	if t.prevNeg < 0 && t.accNeg == 0 {
		sumBear = t.prevNeg
	}

	t.prevPrice = price

	var actions []types.Action

	switch {
	case sumBull > t.params.LongThreshold:
		if position.IsSome() && position.Unwrap() == types.SideShort {
			actions = append(actions, types.ActionCloseShort)
		}

		if position.IsNone() || position.Unwrap() == types.SideShort {
			actions = append(actions, types.ActionOpenLong)
		}
	case sumBear < t.params.ShortThreshold:
		if position.IsSome() && position.Unwrap() == types.SideLong {
			actions = append(actions, types.ActionCloseLong)
		}

		if position.IsNone() || position.Unwrap() == types.SideLong {
			actions = append(actions, types.ActionOpenShort)
		}
	}

	return actions
}
