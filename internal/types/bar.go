package types

import "time"

// Bar is one OHLC candle for a fixed time interval (one minute here).
// Bars are immutable once appended to a window.
type Bar struct {
	Time  time.Time `csv:"time" json:"time"`
	Open  float64   `csv:"open" json:"open"`
	High  float64   `csv:"high" json:"high"`
	Low   float64   `csv:"low" json:"low"`
	Close float64   `csv:"close" json:"close"`
}

// IsZero reports whether the bar carries no data.
func (b Bar) IsZero() bool {
	return b.Time.IsZero()
}
