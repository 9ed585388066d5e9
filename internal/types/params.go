package types

import (
	"github.com/go-playground/validator/v10"

	"github.com/FrancoUysp/TT/pkg/errors"
)

// StrategyType identifies which signal detector a strategy instance runs.
type StrategyType string

const (
	StrategyTypeWaveModel     StrategyType = "Wave Model"
	StrategyTypeTrendFollower StrategyType = "Trend Follower"
)

// ParseStrategyType converts a wire string into a StrategyType.
func ParseStrategyType(s string) (StrategyType, error) {
	switch StrategyType(s) {
	case StrategyTypeWaveModel:
		return StrategyTypeWaveModel, nil
	case StrategyTypeTrendFollower:
		return StrategyTypeTrendFollower, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownStrategyType, "unknown strategy type %q", s)
	}
}

// StrategyParams is the closed set of per-strategy parameter records.
// The JSON field names match the parameters.json files written by the
// model-training pipeline, so those files load without translation.
type StrategyParams interface {
	Type() StrategyType
	StrategyName() string
	UnitSize() float64
	Validate() error
}

// WaveModelParams configures the breakout-debounce detector.
type WaveModelParams struct {
	Name       string  `json:"name" validate:"required"`
	Units      float64 `json:"units" validate:"required,gt=0"`
	Lookback   int     `json:"LOOKBACK" validate:"required,gt=0"`
	LongTimer  int     `json:"LONG_TIMER" validate:"gte=0"`
	ShortTimer int     `json:"SHORT_TIMER" validate:"gte=0"`
	LongExit   int     `json:"LONG_EXIT" validate:"gte=0"`
	ShortExit  int     `json:"SHORT_EXIT" validate:"gte=0"`
	LongDiff   float64 `json:"LONG_DIFF" validate:"gte=0"`
	ShortDiff  float64 `json:"SHORT_DIFF" validate:"gte=0"`
}

// DefaultWaveModelParams returns the parameter set the model was tuned with.
func DefaultWaveModelParams(name string) WaveModelParams {
	return WaveModelParams{
		Name:       name,
		Units:      1,
		Lookback:   180,
		LongTimer:  1,
		ShortTimer: 1,
		LongExit:   1,
		ShortExit:  1,
		LongDiff:   40,
		ShortDiff:  20,
	}
}

func (p WaveModelParams) Type() StrategyType   { return StrategyTypeWaveModel }
func (p WaveModelParams) StrategyName() string { return p.Name }
func (p WaveModelParams) UnitSize() float64    { return p.Units }

// Validate validates the WaveModelParams struct.
func (p WaveModelParams) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid wave model params", err)
	}

	return nil
}

// TrendFollowerParams configures the cumulative-move detector.
type TrendFollowerParams struct {
	Name  string  `json:"name" validate:"required"`
	Units float64 `json:"units" validate:"required,gt=0"`
	// LongThreshold is the minimum completed bullish run that opens a long.
	LongThreshold float64 `json:"LONG_THRESHOLD"`
	// ShortThreshold is the maximum (negative) completed bearish run that opens a short.
	ShortThreshold float64 `json:"SHORT_THRESHOLD" validate:"lte=0"`
}

// DefaultTrendFollowerParams returns the parameter set the model was tuned with.
func DefaultTrendFollowerParams(name string) TrendFollowerParams {
	return TrendFollowerParams{
		Name:           name,
		Units:          1,
		LongThreshold:  41,
		ShortThreshold: -83,
	}
}

func (p TrendFollowerParams) Type() StrategyType   { return StrategyTypeTrendFollower }
func (p TrendFollowerParams) StrategyName() string { return p.Name }
func (p TrendFollowerParams) UnitSize() float64    { return p.Units }

// Validate validates the TrendFollowerParams struct.
func (p TrendFollowerParams) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid trend follower params", err)
	}

	return nil
}
