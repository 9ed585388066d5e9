package market

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/pkg/errors"
)

// CSVPortTestSuite is a test suite for CSVPort
type CSVPortTestSuite struct {
	suite.Suite
	dir string
}

// SetupTest runs before each test
func (suite *CSVPortTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

// TestCSVPortSuite runs the test suite
func TestCSVPortSuite(t *testing.T) {
	suite.Run(t, new(CSVPortTestSuite))
}

// writeBarFile writes n one-minute bars with closes 100, 101, ...
func (suite *CSVPortTestSuite) writeBarFile(n int) string {
	var b strings.Builder
	b.WriteString("time,open,high,low,close\n")

	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		close := float64(100 + i)
		b.WriteString(fmt.Sprintf("%s,%g,%g,%g,%g\n",
			start.Add(time.Duration(i)*time.Minute).Format(time.RFC3339),
			close, close+1, close-1, close))
	}

	path := filepath.Join(suite.dir, "bars.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(b.String()), 0o644))

	return path
}

func (suite *CSVPortTestSuite) TestPrimedAndReplayedSplit() {
	path := suite.writeBarFile(10)

	port, err := NewCSVPort(path, 4)
	suite.Require().NoError(err)

	// With a buffer of 4, the newest 4 bars replay and the 4 before them
	// prime the window.
	suite.Equal(4, port.Remaining())

	primed, err := port.LatestWindow(10)
	suite.Require().NoError(err)
	suite.Require().Len(primed, 4)
	suite.Equal(102.0, primed[0].Close)
	suite.Equal(105.0, primed[3].Close)
}

func (suite *CSVPortTestSuite) TestNextBarReplaysInOrder() {
	path := suite.writeBarFile(6)

	port, err := NewCSVPort(path, 3)
	suite.Require().NoError(err)

	first, err := port.NextBar()
	suite.Require().NoError(err)
	suite.Equal(103.0, first.Close)

	second, err := port.NextBar()
	suite.Require().NoError(err)
	suite.True(second.Time.After(first.Time))

	// Delivered bars become window history.
	window, err := port.LatestWindow(2)
	suite.Require().NoError(err)
	suite.Require().Len(window, 2)
	suite.Equal(second.Close, window[1].Close)
}

func (suite *CSVPortTestSuite) TestExhaustionIsNoNewData() {
	path := suite.writeBarFile(4)

	port, err := NewCSVPort(path, 2)
	suite.Require().NoError(err)

	for port.Remaining() > 0 {
		_, err := port.NextBar()
		suite.Require().NoError(err)
	}

	_, err = port.NextBar()
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoNewData))
}

func (suite *CSVPortTestSuite) TestMissingFile() {
	_, err := NewCSVPort(filepath.Join(suite.dir, "nope.csv"), 2)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
