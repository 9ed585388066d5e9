package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// BarWindowTestSuite is a test suite for BarWindow
type BarWindowTestSuite struct {
	suite.Suite
	window *BarWindow
}

// SetupTest runs before each test
func (suite *BarWindowTestSuite) SetupTest() {
	suite.window = NewBarWindow(3)
}

// TestBarWindowSuite runs the test suite
func TestBarWindowSuite(t *testing.T) {
	suite.Run(t, new(BarWindowTestSuite))
}

func barAt(minute int, close float64) types.Bar {
	return types.Bar{
		Time:  time.Date(2024, 1, 1, 10, minute, 0, 0, time.UTC),
		Open:  close,
		High:  close + 1,
		Low:   close - 1,
		Close: close,
	}
}

func (suite *BarWindowTestSuite) TestAppendAndEviction() {
	for minute := 0; minute < 5; minute++ {
		err := suite.window.Append(barAt(minute, float64(100+minute)))
		suite.Require().NoError(err)
	}

	suite.Equal(3, suite.window.Len())

	bars := suite.window.Snapshot()
	suite.Require().Len(bars, 3)
	suite.Equal(102.0, bars[0].Close)
	suite.Equal(104.0, bars[2].Close)
}

func (suite *BarWindowTestSuite) TestDuplicateTimestampReplacesLatest() {
	suite.Require().NoError(suite.window.Append(barAt(0, 100)))
	suite.Require().NoError(suite.window.Append(barAt(0, 105)))

	suite.Equal(1, suite.window.Len())

	latest, ok := suite.window.Latest()
	suite.Require().True(ok)
	suite.Equal(105.0, latest.Close)
}

func (suite *BarWindowTestSuite) TestStaleBarRejected() {
	suite.Require().NoError(suite.window.Append(barAt(5, 100)))

	err := suite.window.Append(barAt(4, 99))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStaleBar))
	suite.Equal(1, suite.window.Len())
}

func (suite *BarWindowTestSuite) TestZeroBarRejected() {
	err := suite.window.Append(types.Bar{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBar))
}

func (suite *BarWindowTestSuite) TestSnapshotIsACopy() {
	suite.Require().NoError(suite.window.Append(barAt(0, 100)))

	bars := suite.window.Snapshot()
	bars[0].Close = 999

	latest, ok := suite.window.Latest()
	suite.Require().True(ok)
	suite.Equal(100.0, latest.Close)
}

func (suite *BarWindowTestSuite) TestLast() {
	for minute := 0; minute < 3; minute++ {
		suite.Require().NoError(suite.window.Append(barAt(minute, float64(100+minute))))
	}

	last := suite.window.Last(2)
	suite.Require().Len(last, 2)
	suite.Equal(101.0, last[0].Close)
	suite.Equal(102.0, last[1].Close)

	suite.Len(suite.window.Last(10), 3)
	suite.Nil(suite.window.Last(0))
}
