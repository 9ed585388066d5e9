package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// Config is the YAML file the tradebot command loads at startup.
type Config struct {
	// Symbol is the traded instrument, e.g. BTCUSDT.
	Symbol string `yaml:"symbol" validate:"required"`
	// DataPath is the CSV bar file backing the data port.
	DataPath string `yaml:"data_path" validate:"required"`
	// BufferSize caps the rolling bar window. Zero means the default.
	BufferSize int `yaml:"buffer_size" validate:"gte=0"`
	// ModelDirs each hold a parameters.json describing one strategy.
	ModelDirs []string `yaml:"model_dirs"`
	// Listen is the control surface bind address.
	Listen string `yaml:"listen" validate:"required"`
	// TradeLogPath is the duckdb file path. Empty keeps the log in memory.
	TradeLogPath string `yaml:"trade_log_path"`
	// Execution picks the brokerage adapter.
	Execution string `yaml:"execution" validate:"required,oneof=paper binance"`
	// Binance credentials, required only when Execution is binance.
	BinanceAPIKey    string `yaml:"binance_api_key"`
	BinanceAPISecret string `yaml:"binance_api_secret"`
	BinanceTestnet   bool   `yaml:"binance_testnet"`
	// Oracle pins the class probabilities used when no live model is
	// attached. Both zero means the neutral 0.5/0.5 prior.
	OracleLongProb  float64 `yaml:"oracle_long_prob" validate:"gte=0,lte=1"`
	OracleShortProb float64 `yaml:"oracle_short_prob" validate:"gte=0,lte=1"`
}

// LoadConfig reads and validates a YAML engine configuration.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config file", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config file", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if cfg.Execution == "binance" && (cfg.BinanceAPIKey == "" || cfg.BinanceAPISecret == "") {
		return Config{}, errors.New(errors.ErrCodeInvalidConfiguration,
			"binance execution requires binance_api_key and binance_api_secret")
	}

	return cfg, nil
}

// parametersFile is the on-disk shape of a model directory's
// parameters.json, as written by the training pipeline.
type parametersFile struct {
	Type           string          `json:"type"`
	StrategyParams json.RawMessage `json:"strategy_params"`
}

// LoadParameters reads {dir}/parameters.json into a typed parameter record.
func LoadParameters(dir string) (types.StrategyParams, error) {
	path := filepath.Join(dir, "parameters.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read %s", path)
	}

	var file parametersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse %s", path)
	}

	strategyType, err := types.ParseStrategyType(file.Type)
	if err != nil {
		return nil, err
	}

	var params types.StrategyParams
	switch strategyType {
	case types.StrategyTypeWaveModel:
		var p types.WaveModelParams
		if err := json.Unmarshal(file.StrategyParams, &p); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid strategy_params in %s", path)
		}
		params = p
	case types.StrategyTypeTrendFollower:
		var p types.TrendFollowerParams
		if err := json.Unmarshal(file.StrategyParams, &p); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid strategy_params in %s", path)
		}
		params = p
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}
