package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/FrancoUysp/TT/pkg/errors"
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Action is what a signal detector asks the position tracker to do
// after evaluating one bar.
type Action string

const (
	ActionNone       Action = "none"
	ActionOpenLong   Action = "open_long"
	ActionOpenShort  Action = "open_short"
	ActionCloseLong  Action = "close_long"
	ActionCloseShort Action = "close_short"
)

// TradeKind identifies one leg of a round trip in the trade history.
type TradeKind string

const (
	TradeKindLongEntry  TradeKind = "long_entry"
	TradeKindLongExit   TradeKind = "long_exit"
	TradeKindShortEntry TradeKind = "short_entry"
	TradeKindShortExit  TradeKind = "short_exit"
)

// IsEntry reports whether the kind opens a position.
func (k TradeKind) IsEntry() bool {
	return k == TradeKindLongEntry || k == TradeKindShortEntry
}

// ExitFor returns the exit kind matching an entry kind.
func (k TradeKind) ExitFor() TradeKind {
	if k == TradeKindLongEntry {
		return TradeKindLongExit
	}

	return TradeKindShortExit
}

// TradeRecord is one append-only trade history row. Entry and exit legs of
// the same round trip share a TradeID, so pairing is by identifier rather
// than by adjacency in the log.
type TradeRecord struct {
	TradeID    string    `json:"trade_id" csv:"trade_id" validate:"required,uuid"`
	StrategyID string    `json:"strategy_id" csv:"strategy_id" validate:"required,uuid"`
	Kind       TradeKind `json:"kind" csv:"kind" validate:"required,oneof=long_entry long_exit short_entry short_exit"`
	Price      float64   `json:"price" csv:"price" validate:"required,gt=0"`
	// Units is signed: positive opens/closes long exposure, negative short.
	Units      float64   `json:"units" csv:"units" validate:"required"`
	RecordedAt time.Time `json:"recorded_at" csv:"recorded_at" validate:"required"`
}

// Validate validates the TradeRecord struct.
func (r *TradeRecord) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid trade record", err)
	}

	return nil
}

// RoundTrip is a matched entry/exit pair replayed from the trade log.
type RoundTrip struct {
	Entry TradeRecord
	Exit  TradeRecord
}
