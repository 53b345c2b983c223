package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/internal/version"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FeedConfig describes one data feed.
type FeedConfig struct {
	Name string `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name,description=Unique name of the feed"`
	Path string `yaml:"path" json:"path" validate:"required" jsonschema:"title=Path,description=Parquet or CSV file or clickhouse:// DSN"`
	// Format is detected from the path when empty.
	Format   datasource.Format `yaml:"format,omitempty" json:"format,omitempty" validate:"omitempty,oneof=parquet csv clickhouse" jsonschema:"title=Format,description=Format of the data source"`
	Symbol   string            `yaml:"symbol,omitempty" json:"symbol,omitempty" jsonschema:"title=Symbol,description=Only read bars of this symbol"`
	Table    string            `yaml:"table,omitempty" json:"table,omitempty" jsonschema:"title=Table,description=ClickHouse table"`
	Resample types.Timespan    `yaml:"resample,omitempty" json:"resample,omitempty" jsonschema:"title=Resample,description=Aggregate bars into this timeframe"`
	Replay   types.Timespan    `yaml:"replay,omitempty" json:"replay,omitempty" jsonschema:"title=Replay,description=Deliver partial bars of this timeframe"`
}

// StrategyConfig names a built-in strategy and its parameters.
type StrategyConfig struct {
	Name   string         `yaml:"name" json:"name" jsonschema:"title=Name,description=Built-in strategy name"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params,description=Strategy parameters"`
}

type BacktestEngineV1Config struct {
	EngineVersion    string                     `yaml:"engine_version,omitempty" json:"engine_version,omitempty" jsonschema:"title=Engine Version,description=Engine version the config was written for"`
	Mode             engine_types.Mode          `yaml:"mode" json:"mode" validate:"oneof=batch incremental" jsonschema:"title=Mode,description=How indicators are computed"`
	LogLevel         string                     `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error" jsonschema:"title=Log Level,description=Minimum level of log messages"`
	InitialCapital   float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gte=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in USD,minimum=0"`
	Commission       broker.Commission          `yaml:"commission" json:"commission" validate:"oneof=interactive_broker zero_commission" jsonschema:"title=Commission,description=The fee model used to price orders"`
	DecimalPrecision int                        `yaml:"decimal_precision" json:"decimal_precision" validate:"gte=0,lte=16" jsonschema:"title=Decimal Precision,description=Number of decimals order quantities are truncated to,minimum=0"`
	StartTime        optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime          optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Feeds            []FeedConfig               `yaml:"feeds" json:"feeds" validate:"dive" jsonschema:"title=Feeds,description=Data feeds in order. The first feed is the primary data"`
	Strategy         StrategyConfig             `yaml:"strategy" json:"strategy" jsonschema:"title=Strategy,description=Strategy built when none is loaded programmatically"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Missing fields keep the values of EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type Config struct {
		EngineVersion    string            `yaml:"engine_version"`
		Mode             engine_types.Mode `yaml:"mode"`
		LogLevel         string            `yaml:"log_level"`
		InitialCapital   *float64          `yaml:"initial_capital"`
		Commission       broker.Commission `yaml:"commission"`
		DecimalPrecision *int              `yaml:"decimal_precision"`
		StartTime        *time.Time        `yaml:"start_time"`
		EndTime          *time.Time        `yaml:"end_time"`
		Feeds            []FeedConfig      `yaml:"feeds"`
		Strategy         StrategyConfig    `yaml:"strategy"`
	}

	var config Config
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = EmptyConfig()

	c.EngineVersion = config.EngineVersion
	c.Feeds = config.Feeds
	c.Strategy = config.Strategy

	if config.Mode != "" {
		c.Mode = config.Mode
	}

	if config.LogLevel != "" {
		c.LogLevel = config.LogLevel
	}

	if config.InitialCapital != nil {
		c.InitialCapital = *config.InitialCapital
	}

	if config.Commission != "" {
		c.Commission = config.Commission
	}

	if config.DecimalPrecision != nil {
		c.DecimalPrecision = *config.DecimalPrecision
	}

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(content string) (BacktestEngineV1Config, error) {
	config := EmptyConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks field values, feed names and the time range, and the
// engine version when one is given.
func (c *BacktestEngineV1Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && c.EndTime.Unwrap().Before(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time must not be before start_time")
	}

	seen := make(map[string]bool, len(c.Feeds))

	for _, f := range c.Feeds {
		if seen[f.Name] {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "duplicate feed name %q", f.Name)
		}

		seen[f.Name] = true

		if f.Resample != "" && f.Replay != "" {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "feed %s: resample and replay are exclusive", f.Name)
		}

		for _, ts := range []types.Timespan{f.Resample, f.Replay} {
			if ts == "" {
				continue
			}

			if err := ts.Validate(); err != nil {
				return errors.Wrapf(errors.ErrCodeBacktestConfigError, err, "feed %s", f.Name)
			}
		}
	}

	if c.EngineVersion != "" {
		if err := version.CheckVersionCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return err
		}
	}

	return nil
}

// StrategyParams returns the strategy parameters as parameter values.
func (c *BacktestEngineV1Config) StrategyParams() params.Values {
	return params.Values(c.Strategy.Params)
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "broker.Commission") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: broker.AllCommissions,
				}
			}

			if strings.Contains(t.String(), "engine.Mode") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: engine_types.AllModes,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to marshal schema", err)
	}

	return string(schemaBytes), nil
}

func TestConfig(startTime time.Time, endTime time.Time, commission broker.Commission) BacktestEngineV1Config {
	config := EmptyConfig()
	config.InitialCapital = 10000
	config.Commission = commission
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		EngineVersion:    "",
		Mode:             engine_types.ModeBatch,
		LogLevel:         "info",
		InitialCapital:   0,
		Commission:       broker.CommissionInteractiveBroker,
		DecimalPrecision: 1,
		StartTime:        optional.None[time.Time](),
		EndTime:          optional.None[time.Time](),
		Feeds:            nil,
		Strategy:         StrategyConfig{Name: "", Params: nil},
	}
}
