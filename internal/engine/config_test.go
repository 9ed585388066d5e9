package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// ConfigTestSuite is a test suite for configuration loading
type ConfigTestSuite struct {
	suite.Suite
	dir string
}

// SetupTest runs before each test
func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
}

// TestConfigSuite runs the test suite
func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	path := suite.writeFile("config.yaml", `
symbol: BTCUSDT
data_path: /data/bars.csv
buffer_size: 500
listen: ":5000"
execution: paper
model_dirs:
  - /models/wave
`)

	cfg, err := LoadConfig(path)
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", cfg.Symbol)
	suite.Equal(500, cfg.BufferSize)
	suite.Equal("paper", cfg.Execution)
	suite.Equal([]string{"/models/wave"}, cfg.ModelDirs)
}

func (suite *ConfigTestSuite) TestLoadConfigMissingSymbol() {
	path := suite.writeFile("config.yaml", `
data_path: /data/bars.csv
listen: ":5000"
execution: paper
`)

	_, err := LoadConfig(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoadConfigBinanceNeedsCredentials() {
	path := suite.writeFile("config.yaml", `
symbol: BTCUSDT
data_path: /data/bars.csv
listen: ":5000"
execution: binance
`)

	_, err := LoadConfig(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestLoadParametersWaveModel() {
	suite.writeFile("parameters.json", `{
		"type": "Wave Model",
		"strategy_params": {
			"name": "wave-1",
			"units": 2,
			"LOOKBACK": 180,
			"LONG_TIMER": 1,
			"SHORT_TIMER": 1,
			"LONG_EXIT": 1,
			"SHORT_EXIT": 1,
			"LONG_DIFF": 40,
			"SHORT_DIFF": 20
		}
	}`)

	params, err := LoadParameters(suite.dir)
	suite.Require().NoError(err)

	wave, ok := params.(types.WaveModelParams)
	suite.Require().True(ok)
	suite.Equal("wave-1", wave.Name)
	suite.Equal(2.0, wave.Units)
	suite.Equal(180, wave.Lookback)
	suite.Equal(40.0, wave.LongDiff)
}

func (suite *ConfigTestSuite) TestLoadParametersTrendFollower() {
	suite.writeFile("parameters.json", `{
		"type": "Trend Follower",
		"strategy_params": {
			"name": "trend-1",
			"units": 1,
			"LONG_THRESHOLD": 41,
			"SHORT_THRESHOLD": -83
		}
	}`)

	params, err := LoadParameters(suite.dir)
	suite.Require().NoError(err)

	trend, ok := params.(types.TrendFollowerParams)
	suite.Require().True(ok)
	suite.Equal(41.0, trend.LongThreshold)
	suite.Equal(-83.0, trend.ShortThreshold)
}

func (suite *ConfigTestSuite) TestLoadParametersUnknownType() {
	suite.writeFile("parameters.json", `{"type": "Astrology", "strategy_params": {}}`)

	_, err := LoadParameters(suite.dir)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategyType))
}

func (suite *ConfigTestSuite) TestLoadParametersInvalidValues() {
	suite.writeFile("parameters.json", `{
		"type": "Wave Model",
		"strategy_params": {"name": "wave-1", "units": 2, "LOOKBACK": 0}
	}`)

	_, err := LoadParameters(suite.dir)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
