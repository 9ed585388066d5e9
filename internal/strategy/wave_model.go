package strategy

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// WaveModel is the breakout-debounce detector. A new extreme beyond the
// previous window's extreme arms a wait counter; the counter counts down
// over confirming bars and the entry fires on the bar it reaches zero,
// provided the model agrees with the direction. Exits use the same shape
// with their own timers.
type WaveModel struct {
	params types.WaveModelParams

	// Rolling extrema of the window seen on the previous evaluation.
	// Breakouts are measured against these, not the current window.
	prevHigh float64
	prevLow  float64

	waitLong  int
	waitShort int

	longExitTimer  int
	shortExitTimer int
}

// NewWaveModel creates a detector with no armed counters.
func NewWaveModel(params types.WaveModelParams) *WaveModel {
	return &WaveModel{
		params:         params,
		prevHigh:       math.Inf(-1),
		prevLow:        math.Inf(1),
		waitLong:       0,
		waitShort:      0,
		longExitTimer:  0,
		shortExitTimer: 0,
	}
}

// Type implements Detector.
func (w *WaveModel) Type() types.StrategyType {
	return types.StrategyTypeWaveModel
}

// Params implements Detector.
func (w *WaveModel) Params() types.StrategyParams {
	return w.params
}

// SetParams implements Detector.
func (w *WaveModel) SetParams(params types.StrategyParams) error {
	p, ok := params.(types.WaveModelParams)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"wave model detector cannot take %q params", params.Type())
	}

	w.params = p

	return nil
}

// Evaluate implements Detector. The previous-window extrema update
// unconditionally at the end of every evaluation; everything else depends
// on whether a position is open.
func (w *WaveModel) Evaluate(bars []types.Bar, pred optional.Option[types.Prediction], position optional.Option[types.Side]) []types.Action {
	if len(bars) == 0 {
		return nil
	}

	lookHigh, lookLow := lookbackExtrema(bars, w.params.Lookback)
	latest := bars[len(bars)-1]

	action := types.ActionNone

	switch {
	case position.IsNone():
		action = w.evaluateEntry(lookHigh, lookLow, pred)
	case position.Unwrap() == types.SideShort:
		action = w.evaluateShortExit(latest, lookLow)
	default:
		action = w.evaluateLongExit(latest, lookHigh)
	}

	w.prevHigh = lookHigh
	w.prevLow = lookLow

	if action == types.ActionNone {
		return nil
	}

	return []types.Action{action}
}

func (w *WaveModel) evaluateEntry(lookHigh, lookLow float64, pred optional.Option[types.Prediction]) types.Action {
	sugLong, sugShort := false, false
	confident := false

	if pred.IsSome() {
		p := pred.Unwrap()
		sugLong = p.SuggestsLong()
		sugShort = p.SuggestsShort()
		confident = p.Confidence() > 0.5
	}

	action := types.ActionNone

	// Short side: an upward breakout past the previous window's high arms
	// the counter; re-arming refreshes it. The countdown spends itself
	// whether or not the model ends up agreeing at zero.
	if lookHigh > w.prevHigh && lookHigh-w.prevLow >= w.params.ShortDiff {
		w.waitShort = w.params.ShortTimer
	} else if w.waitShort > 0 {
		w.waitShort--
		if w.waitShort == 0 && sugShort && confident {
			action = types.ActionOpenShort
		}
	}

	// Long side, symmetric on a downward breakout.
	if lookLow < w.prevLow && w.prevHigh-lookLow >= w.params.LongDiff {
		w.waitLong = w.params.LongTimer
	} else if w.waitLong > 0 {
		w.waitLong--
		if w.waitLong == 0 && sugLong && confident && action == types.ActionNone {
			action = types.ActionOpenLong
		}
	}

	if action != types.ActionNone {
		w.resetCounters()
	}

	return action
}

func (w *WaveModel) evaluateShortExit(latest types.Bar, lookLow float64) types.Action {
	if latest.Low <= lookLow && w.shortExitTimer == 0 {
		w.shortExitTimer = w.params.ShortExit

		return types.ActionNone
	}

	if w.shortExitTimer > 0 {
		w.shortExitTimer--
		if w.shortExitTimer == 0 {
			return types.ActionCloseShort
		}
	}

	return types.ActionNone
}

func (w *WaveModel) evaluateLongExit(latest types.Bar, lookHigh float64) types.Action {
	if latest.High >= lookHigh && w.longExitTimer == 0 {
		w.longExitTimer = w.params.LongExit

		return types.ActionNone
	}

	if w.longExitTimer > 0 {
		w.longExitTimer--
		if w.longExitTimer == 0 {
			return types.ActionCloseLong
		}
	}

	return types.ActionNone
}

// resetCounters clears all debounce state once an entry confirms, so a
// stale armed counter cannot fire after the trade opens.
func (w *WaveModel) resetCounters() {
	w.waitLong = 0
	w.waitShort = 0
	w.longExitTimer = 0
	w.shortExitTimer = 0
}

// WaitCounts exposes the armed entry counters (long, short).
func (w *WaveModel) WaitCounts() (int, int) {
	return w.waitLong, w.waitShort
}

// ExitTimers exposes the armed exit timers (long, short).
func (w *WaveModel) ExitTimers() (int, int) {
	return w.longExitTimer, w.shortExitTimer
}

// lookbackExtrema returns the highest high and lowest low over the last
// lookback bars, using all bars when fewer are available.
func lookbackExtrema(bars []types.Bar, lookback int) (float64, float64) {
	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}

	high := math.Inf(-1)
	low := math.Inf(1)

	for _, b := range bars {
		if b.High > high {
			high = b.High
		}

		if b.Low < low {
			low = b.Low
		}
	}

	return high, low
}
