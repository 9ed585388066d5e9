package market

import "github.com/FrancoUysp/TT/internal/types"

// DataPort delivers one-minute bars to the engine, one per tick.
// Implementations must return an error with code ErrCodeNoNewData when no
// fresh bar is available so the engine can treat the tick as a no-op.
type DataPort interface {
	// NextBar returns the next unseen bar.
	NextBar() (types.Bar, error)
	// LatestWindow returns up to n of the most recent bars already delivered,
	// oldest first. Used to prime a window at startup.
	LatestWindow(n int) ([]types.Bar, error)
}
