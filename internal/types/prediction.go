package types

// Prediction carries the class probabilities produced by the model oracle
// for the latest bar: one probability per trade direction.
type Prediction struct {
	LongProb  float64 `json:"long_prob"`
	ShortProb float64 `json:"short_prob"`
}

// SuggestsLong reports whether the long class dominates.
func (p Prediction) SuggestsLong() bool {
	return p.LongProb > p.ShortProb
}

// SuggestsShort reports whether the short class dominates or ties.
func (p Prediction) SuggestsShort() bool {
	return !p.SuggestsLong()
}

// Confidence returns the larger of the two class probabilities.
func (p Prediction) Confidence() float64 {
	if p.LongProb > p.ShortProb {
		return p.LongProb
	}

	return p.ShortProb
}
