package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/internal/types"
)

// TrendFollowerTestSuite is a test suite for the TrendFollower detector
type TrendFollowerTestSuite struct {
	suite.Suite
	detector *TrendFollower
}

// SetupTest runs before each test
func (suite *TrendFollowerTestSuite) SetupTest() {
	params := types.DefaultTrendFollowerParams("trend")
	params.LongThreshold = 5
	params.ShortThreshold = -5

	suite.detector = NewTrendFollower(params)
}

// TestTrendFollowerSuite runs the test suite
func TestTrendFollowerSuite(t *testing.T) {
	suite.Run(t, new(TrendFollowerTestSuite))
}

func closeBar(minute int, close float64) types.Bar {
	return types.Bar{
		Time:  time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC),
		Open:  close,
		High:  close,
		Low:   close,
		Close: close,
	}
}

// evalCloses feeds one bar per price and returns the last evaluation's
// actions.
func (suite *TrendFollowerTestSuite) evalCloses(closes []float64, position optional.Option[types.Side]) []types.Action {
	var bars []types.Bar
	var last []types.Action

	for i, c := range closes {
		bars = append(bars, closeBar(i, c))
		last = suite.detector.Evaluate(bars, optional.None[types.Prediction](), position)
	}

	return last
}

func (suite *TrendFollowerTestSuite) TestPrimingBarSignalsNothing() {
	actions := suite.evalCloses([]float64{100}, optional.None[types.Side]())
	suite.Empty(actions)
}

func (suite *TrendFollowerTestSuite) TestCompletedBullRunOpensLong() {
	// Rises 100->107 then flips down: the completed +7 run crosses the
	// long threshold on the flip bar.
	actions := suite.evalCloses([]float64{100, 103, 107, 105}, optional.None[types.Side]())
	suite.Equal([]types.Action{types.ActionOpenLong}, actions)
}

func (suite *TrendFollowerTestSuite) TestRunBelowThresholdIsIgnored() {
	actions := suite.evalCloses([]float64{100, 103, 101}, optional.None[types.Side]())
	suite.Empty(actions, "+3 run does not cross the +5 threshold")
}

func (suite *TrendFollowerTestSuite) TestOngoingRunDoesNotFire() {
	actions := suite.evalCloses([]float64{100, 103, 107}, optional.None[types.Side]())
	suite.Empty(actions, "a run only counts once it completes")
}

func (suite *TrendFollowerTestSuite) TestCompletedBearRunOpensShort() {
	actions := suite.evalCloses([]float64{100, 96, 92, 94}, optional.None[types.Side]())
	suite.Equal([]types.Action{types.ActionOpenShort}, actions)
}

func (suite *TrendFollowerTestSuite) TestBearRunClosesLongThenOpensShort() {
	actions := suite.evalCloses([]float64{100, 96, 92, 94}, optional.Some(types.SideLong))
	suite.Equal([]types.Action{types.ActionCloseLong, types.ActionOpenShort}, actions)
}

func (suite *TrendFollowerTestSuite) TestBullRunClosesShortThenOpensLong() {
	actions := suite.evalCloses([]float64{100, 104, 109, 108}, optional.Some(types.SideShort))
	suite.Equal([]types.Action{types.ActionCloseShort, types.ActionOpenLong}, actions)
}

func (suite *TrendFollowerTestSuite) TestBullRunWithLongOpenDoesNothing() {
	actions := suite.evalCloses([]float64{100, 104, 109, 108}, optional.Some(types.SideLong))
	suite.Empty(actions)
}

func (suite *TrendFollowerTestSuite) TestFlatBarKeepsRunAlive() {
	// 100 -> 104 -> 104 -> 106 -> 105: the flat bar neither extends nor
	// completes the run; the +6 total completes on the final flip.
	actions := suite.evalCloses([]float64{100, 104, 104, 106, 105}, optional.None[types.Side]())
	suite.Equal([]types.Action{types.ActionOpenLong}, actions)
}
