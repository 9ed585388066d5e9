// Package position owns the position lifecycle: the append-only trade log,
// the per-strategy tracker that serializes orders against the brokerage
// port, and the ROI replay over matched entry/exit pairs.
package position

import (
	"database/sql"
	"sync/atomic"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// TradeLog is the append-only history of every entry and exit leg, shared
// by all strategies and keyed by strategy id. Legs of one round trip share
// a trade id, so pairing never depends on row adjacency.
type TradeLog struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType

	// seq breaks ties between records sharing a timestamp, so a same-bar
	// close-then-reopen replays in append order.
	seq atomic.Int64
}

// NewTradeLog opens a duckdb-backed log. An empty path keeps the log in
// memory.
func NewTradeLog(log *logger.Logger, path string) (*TradeLog, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to open trade log database", err)
	}

	return &TradeLog{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (t *TradeLog) Initialize() error {
	_, err := t.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			seq BIGINT,
			trade_id TEXT,
			strategy_id TEXT,
			kind TEXT,
			price DOUBLE,
			units DOUBLE,
			recorded_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to create trades table", err)
	}

	return nil
}

// Append writes one leg to the log. Records are never mutated or removed.
func (t *TradeLog) Append(record types.TradeRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	insert := t.sq.
		Insert("trades").
		Columns("seq", "trade_id", "strategy_id", "kind", "price", "units", "recorded_at").
		Values(t.seq.Add(1), record.TradeID, record.StrategyID, record.Kind, record.Price, record.Units, record.RecordedAt).
		RunWith(t.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeTradeLogFailed, "failed to append trade record", err)
	}

	t.log.Debug("trade record appended",
		zap.String("trade_id", record.TradeID),
		zap.String("strategy_id", record.StrategyID),
		zap.String("kind", string(record.Kind)),
		zap.Float64("price", record.Price),
		zap.Float64("units", record.Units),
	)

	return nil
}

// History returns all legs recorded for a strategy, oldest first.
func (t *TradeLog) History(strategyID string) ([]types.TradeRecord, error) {
	query := t.sq.
		Select("trade_id", "strategy_id", "kind", "price", "units", "recorded_at").
		From("trades").
		Where(squirrel.Eq{"strategy_id": strategyID}).
		OrderBy("recorded_at ASC", "seq ASC").
		RunWith(t.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trade history", err)
	}
	defer rows.Close()

	var records []types.TradeRecord

	for rows.Next() {
		var rec types.TradeRecord
		if err := rows.Scan(&rec.TradeID, &rec.StrategyID, &rec.Kind, &rec.Price, &rec.Units, &rec.RecordedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade record", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating trade records", err)
	}

	return records, nil
}

// RoundTrips returns the matched entry/exit pairs for a strategy, oldest
// entry first. Legs whose counterpart has not been recorded yet are left
// out.
func (t *TradeLog) RoundTrips(strategyID string) ([]types.RoundTrip, error) {
	query := t.sq.
		Select(
			"e.trade_id", "e.strategy_id", "e.kind", "e.price", "e.units", "e.recorded_at",
			"x.trade_id", "x.strategy_id", "x.kind", "x.price", "x.units", "x.recorded_at",
		).
		From("trades e").
		Join("trades x ON e.trade_id = x.trade_id AND x.kind LIKE '%_exit'").
		Where(squirrel.And{
			squirrel.Eq{"e.strategy_id": strategyID},
			squirrel.Like{"e.kind": "%_entry"},
		}).
		OrderBy("e.recorded_at ASC", "e.seq ASC").
		RunWith(t.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query round trips", err)
	}
	defer rows.Close()

	var trips []types.RoundTrip

	for rows.Next() {
		var trip types.RoundTrip
		if err := rows.Scan(
			&trip.Entry.TradeID, &trip.Entry.StrategyID, &trip.Entry.Kind,
			&trip.Entry.Price, &trip.Entry.Units, &trip.Entry.RecordedAt,
			&trip.Exit.TradeID, &trip.Exit.StrategyID, &trip.Exit.Kind,
			&trip.Exit.Price, &trip.Exit.Units, &trip.Exit.RecordedAt,
		); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan round trip", err)
		}

		trips = append(trips, trip)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating round trips", err)
	}

	return trips, nil
}

// Close releases the underlying database.
func (t *TradeLog) Close() error {
	return t.db.Close()
}
