// Package oracle abstracts the pre-trained classifier that scores each bar
// window. The engine treats it as a black box: features in, class
// probabilities out.
package oracle

import "github.com/FrancoUysp/TT/internal/types"

// Oracle scores the current bar window and returns class probabilities.
// Implementations must be stateless per call.
type Oracle interface {
	Predict(bars []types.Bar) (types.Prediction, error)
}

// StaticOracle always returns the same prediction. It backs price-only
// runs and tests, where model output must be deterministic.
type StaticOracle struct {
	prediction types.Prediction
}

// NewStaticOracle creates an oracle pinned to the given prediction.
func NewStaticOracle(prediction types.Prediction) *StaticOracle {
	return &StaticOracle{prediction: prediction}
}

// Predict implements Oracle.
func (o *StaticOracle) Predict(_ []types.Bar) (types.Prediction, error) {
	return o.prediction, nil
}

// Set repins the returned prediction. Used by tests to steer confirmation.
func (o *StaticOracle) Set(prediction types.Prediction) {
	o.prediction = prediction
}
