package engine

import (
	"encoding/json"
	"testing"
	"time"

	engine_types "github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/internal/version"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal(0.0, config.InitialCapital)
	suite.Equal(broker.CommissionInteractiveBroker, config.Commission)
	suite.Equal(engine_types.ModeBatch, config.Mode)
	suite.Equal("info", config.LogLevel)
	suite.True(config.StartTime.IsNone())
	suite.True(config.EndTime.IsNone())
	suite.Equal(1, config.DecimalPrecision)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestTestConfig() {
	startTime := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	endTime := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	config := TestConfig(startTime, endTime, broker.CommissionZero)

	suite.Equal(10000.0, config.InitialCapital)
	suite.Equal(broker.CommissionZero, config.Commission)
	suite.Equal(startTime, config.StartTime.Unwrap())
	suite.Equal(endTime, config.EndTime.Unwrap())
	suite.Equal(1, config.DecimalPrecision)
}

func (suite *ConfigTestSuite) TestParseConfig() {
	config, err := ParseConfig(`
mode: incremental
log_level: debug
initial_capital: 5000
commission: zero_commission
decimal_precision: 4
start_time: 2024-01-02T00:00:00Z
end_time: 2024-03-01T00:00:00Z
feeds:
  - name: minute
    path: data/AAPL.parquet
    symbol: AAPL
  - name: daily
    path: data/AAPL.csv
    format: csv
    resample: 1d
strategy:
  name: sma_crossover
  params:
    fast_period: 5
    slow_period: 20
`)
	suite.Require().NoError(err)

	suite.Equal(engine_types.ModeIncremental, config.Mode)
	suite.Equal("debug", config.LogLevel)
	suite.Equal(5000.0, config.InitialCapital)
	suite.Equal(broker.CommissionZero, config.Commission)
	suite.Equal(4, config.DecimalPrecision)
	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), config.StartTime.Unwrap())
	suite.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), config.EndTime.Unwrap())

	suite.Require().Len(config.Feeds, 2)
	suite.Equal("AAPL", config.Feeds[0].Symbol)
	suite.Equal(datasource.FormatCSV, config.Feeds[1].Format)
	suite.Equal(types.TimespanOneDay, config.Feeds[1].Resample)

	suite.Equal("sma_crossover", config.Strategy.Name)
	suite.Equal(5, config.StrategyParams()["fast_period"])
}

func (suite *ConfigTestSuite) TestParseConfigDefaults() {
	config, err := ParseConfig("initial_capital: 100\n")
	suite.Require().NoError(err)

	suite.Equal(100.0, config.InitialCapital)
	suite.Equal(engine_types.ModeBatch, config.Mode)
	suite.Equal(broker.CommissionInteractiveBroker, config.Commission)
	suite.Equal(1, config.DecimalPrecision)
	suite.True(config.StartTime.IsNone())
}

func (suite *ConfigTestSuite) TestParseConfigErrors() {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{name: "malformed yaml", content: "feeds: [", code: errors.ErrCodeBacktestConfigError},
		{name: "unknown mode", content: "mode: vectorized", code: errors.ErrCodeBacktestConfigError},
		{name: "negative capital", content: "initial_capital: -1", code: errors.ErrCodeBacktestConfigError},
		{name: "feed without path", content: "feeds:\n  - name: a", code: errors.ErrCodeBacktestConfigError},
		{
			name:    "duplicate feed",
			content: "feeds:\n  - name: a\n    path: a.csv\n  - name: a\n    path: b.csv",
			code:    errors.ErrCodeBacktestConfigError,
		},
		{
			name:    "resample and replay",
			content: "feeds:\n  - name: a\n    path: a.csv\n    resample: 5m\n    replay: 5m",
			code:    errors.ErrCodeBacktestConfigError,
		},
		{
			name:    "invalid timespan",
			content: "feeds:\n  - name: a\n    path: a.csv\n    resample: 5x",
			code:    errors.ErrCodeBacktestConfigError,
		},
		{
			name:    "end before start",
			content: "start_time: 2024-02-01T00:00:00Z\nend_time: 2024-01-01T00:00:00Z",
			code:    errors.ErrCodeBacktestConfigError,
		},
		{name: "incompatible version", content: "engine_version: 99.0.0", code: errors.ErrCodeVersionMismatch},
		{name: "invalid version", content: "engine_version: latest", code: errors.ErrCodeInvalidVersion},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := ParseConfig(tt.content)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestParseConfigCurrentVersion() {
	_, err := ParseConfig("engine_version: " + version.GetVersion())
	suite.NoError(err)
}

func (suite *ConfigTestSuite) TestGenerateSchema() {
	config := &BacktestEngineV1Config{}
	schema, err := config.GenerateSchema()

	suite.NoError(err)
	suite.NotNil(schema)
	suite.Equal("backtest-engine-v1-config", schema.Title)
	suite.Equal("Configuration schema for BacktestEngineV1", schema.Description)
	suite.Equal("http://json-schema.org/draft-07/schema#", schema.Version)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := &BacktestEngineV1Config{}
	schemaJSON, err := config.GenerateSchemaJSON()

	suite.NoError(err)
	suite.NotEmpty(schemaJSON)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)

	for _, key := range []string{"mode", "feeds", "strategy", "commission", "start_time", "engine_version"} {
		suite.Contains(properties, key)
	}

	startTime, ok := properties["start_time"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("date-time", startTime["format"])

	commission, ok := properties["commission"].(map[string]any)
	suite.Require().True(ok)
	suite.ElementsMatch([]any{"interactive_broker", "zero_commission"}, commission["enum"])
}
