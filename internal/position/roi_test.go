package position

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/internal/types"
)

// RoiTestSuite is a test suite for CalculateRoi
type RoiTestSuite struct {
	suite.Suite
}

// TestRoiSuite runs the test suite
func TestRoiSuite(t *testing.T) {
	suite.Run(t, new(RoiTestSuite))
}

func trip(entryPrice, exitPrice, units float64, entryAt time.Time) types.RoundTrip {
	id := uuid.New().String()
	strategyID := uuid.New().String()

	kind := types.TradeKindLongEntry
	exitKind := types.TradeKindLongExit
	exitUnits := -units
	if units < 0 {
		kind = types.TradeKindShortEntry
		exitKind = types.TradeKindShortExit
	}

	return types.RoundTrip{
		Entry: types.TradeRecord{
			TradeID:    id,
			StrategyID: strategyID,
			Kind:       kind,
			Price:      entryPrice,
			Units:      units,
			RecordedAt: entryAt,
		},
		Exit: types.TradeRecord{
			TradeID:    id,
			StrategyID: strategyID,
			Kind:       exitKind,
			Price:      exitPrice,
			Units:      exitUnits,
			RecordedAt: entryAt.Add(30 * time.Minute),
		},
	}
}

func (suite *RoiTestSuite) TestLongRoundTrip() {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	report := CalculateRoi([]types.RoundTrip{trip(100, 110, 2, at)})

	suite.InDelta(10.0, report.AllTime, 1e-9)
	suite.InDelta(10.0, report.Daily["2024-03-05"], 1e-9)
	suite.InDelta(10.0, report.Monthly["2024-03"], 1e-9)
}

func (suite *RoiTestSuite) TestShortProfitsFromFallingPrice() {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	// Short 2 units at 100, cover at 90: profit 20 on 200 invested.
	report := CalculateRoi([]types.RoundTrip{trip(100, 90, -2, at)})

	suite.InDelta(10.0, report.AllTime, 1e-9)
}

func (suite *RoiTestSuite) TestBucketsSplitByEntryDay() {
	dayOne := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	dayTwo := time.Date(2024, 4, 6, 10, 0, 0, 0, time.UTC)

	report := CalculateRoi([]types.RoundTrip{
		trip(100, 110, 1, dayOne), // +10%
		trip(100, 95, 1, dayTwo),  // -5%
	})

	suite.InDelta(10.0, report.Daily["2024-03-05"], 1e-9)
	suite.InDelta(-5.0, report.Daily["2024-04-06"], 1e-9)
	suite.InDelta(10.0, report.Monthly["2024-03"], 1e-9)
	suite.InDelta(-5.0, report.Monthly["2024-04"], 1e-9)

	// All-time pools the notionals: (10 - 5) / 200.
	suite.InDelta(2.5, report.AllTime, 1e-9)
}

func (suite *RoiTestSuite) TestSameDayTripsPoolInvestment() {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	report := CalculateRoi([]types.RoundTrip{
		trip(100, 110, 1, at),
		trip(100, 100, 3, at),
	})

	// +10 profit over 400 invested.
	suite.InDelta(2.5, report.Daily["2024-03-05"], 1e-9)
}

func (suite *RoiTestSuite) TestEmptyHistory() {
	report := CalculateRoi(nil)

	suite.Zero(report.AllTime)
	suite.Empty(report.Daily)
	suite.Empty(report.Monthly)
}
