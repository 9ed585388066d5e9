package market

import (
	"sync"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// DefaultWindowCapacity is the number of one-minute bars kept in memory
// when no capacity is configured.
const DefaultWindowCapacity = 1320

// BarWindow is a fixed-capacity rolling sequence of OHLC bars. It is the
// shared substrate all strategies read. The data feed owns the window and
// appends to it; strategies only ever see copies, since the window mutates
// between evaluations.
type BarWindow struct {
	capacity int
	bars     []types.Bar
	mu       sync.RWMutex
}

// NewBarWindow creates an empty window with the given capacity.
// A non-positive capacity falls back to DefaultWindowCapacity.
func NewBarWindow(capacity int) *BarWindow {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}

	return &BarWindow{
		capacity: capacity,
		bars:     make([]types.Bar, 0, capacity),
		mu:       sync.RWMutex{},
	}
}

// Append adds a bar to the window, evicting the oldest bar at capacity.
// A bar carrying the same timestamp as the latest replaces it; a bar older
// than the latest is rejected as stale.
func (w *BarWindow) Append(bar types.Bar) error {
	if bar.IsZero() {
		return errors.New(errors.ErrCodeInvalidBar, "bar has no timestamp")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if n := len(w.bars); n > 0 {
		last := w.bars[n-1].Time
		if bar.Time.Equal(last) {
			w.bars[n-1] = bar

			return nil
		}

		if bar.Time.Before(last) {
			return errors.Newf(errors.ErrCodeStaleBar,
				"bar at %s is older than latest %s", bar.Time, last)
		}
	}

	w.bars = append(w.bars, bar)
	if len(w.bars) > w.capacity {
		w.bars = w.bars[1:]
	}

	return nil
}

// Len returns the number of bars currently held.
func (w *BarWindow) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.bars)
}

// Capacity returns the configured maximum length.
func (w *BarWindow) Capacity() int {
	return w.capacity
}

// Latest returns the most recent bar, if any.
func (w *BarWindow) Latest() (types.Bar, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if len(w.bars) == 0 {
		return types.Bar{}, false
	}

	return w.bars[len(w.bars)-1], true
}

// Snapshot returns a copy of all bars in chronological order.
func (w *BarWindow) Snapshot() []types.Bar {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]types.Bar, len(w.bars))
	copy(out, w.bars)

	return out
}

// Last returns a copy of the most recent n bars, or all bars when fewer
// are available.
func (w *BarWindow) Last(n int) []types.Bar {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	if n > len(w.bars) {
		n = len(w.bars)
	}

	out := make([]types.Bar, n)
	copy(out, w.bars[len(w.bars)-n:])

	return out
}
