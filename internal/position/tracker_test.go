package position

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/internal/execution"
	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// TrackerTestSuite is a test suite for Tracker
type TrackerTestSuite struct {
	suite.Suite
	tradeLog *TradeLog
	port     *execution.PaperPort
	tracker  *Tracker
}

// SetupTest runs before each test
func (suite *TrackerTestSuite) SetupTest() {
	log := logger.NewNopLogger()

	tradeLog, err := NewTradeLog(log, "")
	suite.Require().NoError(err)
	suite.Require().NoError(tradeLog.Initialize())

	suite.tradeLog = tradeLog
	suite.port = execution.NewPaperPort(log)
	suite.tracker = NewTracker(uuid.New().String(), "BTCUSDT", suite.port, tradeLog, log)
}

// TearDownTest runs after each test
func (suite *TrackerTestSuite) TearDownTest() {
	suite.Require().NoError(suite.tradeLog.Close())
}

// TestTrackerSuite runs the test suite
func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func (suite *TrackerTestSuite) at(minute int) time.Time {
	return time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC)
}

func (suite *TrackerTestSuite) TestOpenRecordsEntryLeg() {
	err := suite.tracker.Open(types.SideLong, 100, 2, suite.at(0))
	suite.Require().NoError(err)

	suite.True(suite.tracker.InTrade())
	suite.Equal(types.SideLong, suite.tracker.Side().Unwrap())
	suite.Equal(100.0, suite.tracker.EntryPrice().Unwrap())
	suite.Equal(1, suite.port.OpenCount())

	history, err := suite.tracker.History()
	suite.Require().NoError(err)
	suite.Require().Len(history, 1)
	suite.Equal(types.TradeKindLongEntry, history[0].Kind)
	suite.Equal(2.0, history[0].Units)
}

func (suite *TrackerTestSuite) TestSecondOpenRejected() {
	suite.Require().NoError(suite.tracker.Open(types.SideLong, 100, 1, suite.at(0)))

	err := suite.tracker.Open(types.SideShort, 101, 1, suite.at(1))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePositionExists))

	// Still the original long, and no second order reached the port.
	suite.Equal(types.SideLong, suite.tracker.Side().Unwrap())
	suite.Equal(1, suite.port.OpenCount())
}

func (suite *TrackerTestSuite) TestCloseCompletesRoundTrip() {
	suite.Require().NoError(suite.tracker.Open(types.SideLong, 100, 2, suite.at(0)))
	suite.Require().NoError(suite.tracker.Close(110, suite.at(30)))

	suite.False(suite.tracker.InTrade())
	suite.True(suite.tracker.Side().IsNone())
	suite.Zero(suite.port.OpenCount())

	trips, err := suite.tracker.RoundTrips()
	suite.Require().NoError(err)
	suite.Require().Len(trips, 1)
	suite.Equal(trips[0].Entry.TradeID, trips[0].Exit.TradeID)
	suite.Equal(-2.0, trips[0].Exit.Units)

	report := CalculateRoi(trips)
	suite.InDelta(10.0, report.AllTime, 1e-9)
}

func (suite *TrackerTestSuite) TestShortLegsAreSigned() {
	suite.Require().NoError(suite.tracker.Open(types.SideShort, 100, 3, suite.at(0)))
	suite.Require().NoError(suite.tracker.Close(90, suite.at(30)))

	history, err := suite.tracker.History()
	suite.Require().NoError(err)
	suite.Require().Len(history, 2)
	suite.Equal(-3.0, history[0].Units)
	suite.Equal(3.0, history[1].Units)
}

func (suite *TrackerTestSuite) TestCloseWhileFlatRejected() {
	err := suite.tracker.Close(100, suite.at(0))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodePositionNotFound))
}

func (suite *TrackerTestSuite) TestEntryFailureLeavesTrackerFlat() {
	suite.port.FailNextPlace()

	err := suite.tracker.Open(types.SideLong, 100, 1, suite.at(0))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderFailed))

	suite.False(suite.tracker.InTrade())

	history, err := suite.tracker.History()
	suite.Require().NoError(err)
	suite.Empty(history, "a rejected entry leaves no trace in the log")
}

func (suite *TrackerTestSuite) TestExitFailureKeepsPositionOpen() {
	suite.Require().NoError(suite.tracker.Open(types.SideLong, 100, 1, suite.at(0)))

	suite.port.FailNextClose()
	err := suite.tracker.Close(110, suite.at(30))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeOrderCloseFailed))
	suite.True(suite.tracker.InTrade())

	// The retry succeeds and completes the trip.
	suite.Require().NoError(suite.tracker.Close(110, suite.at(31)))
	suite.False(suite.tracker.InTrade())

	trips, err := suite.tracker.RoundTrips()
	suite.Require().NoError(err)
	suite.Len(trips, 1)
}
