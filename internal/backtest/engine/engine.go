package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-lines/internal/analyzer"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/strategy"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Lifecycle callback types for the phases of a run.
// Callbacks returning an error abort the run.

// OnRunStartCallback is called once the graph is resolved, before the first
// bar. totalSteps is 0 when the number of bars is not known up front.
type OnRunStartCallback func(runID string, mode Mode, totalSteps int) error

// OnRunEndCallback is called when the run ends (always called via defer).
// result is nil when the run failed before it started.
type OnRunEndCallback func(result *Result, err error)

// OnProcessDataCallback is called after each synchronization step.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

// Mode selects how indicator values are computed.
type Mode string

const (
	// ModeBatch preloads every feed, computes each node over the whole
	// history in dependency order and then replays the bars to the strategy.
	ModeBatch Mode = "batch"
	// ModeIncremental computes every node one synchronization step at a time.
	ModeIncremental Mode = "incremental"
)

// AllModes lists the supported modes.
var AllModes = []any{
	ModeBatch,
	ModeIncremental,
}

// Result summarizes a finished run.
type Result struct {
	RunID string `json:"run_id" yaml:"run_id"`
	// Mode is the mode the run actually used.
	Mode  Mode `json:"mode" yaml:"mode"`
	Steps int  `json:"steps" yaml:"steps"`
	// MinPeriod is the largest warm-up period of the declared nodes.
	MinPeriod int `json:"min_period" yaml:"min_period"`
	// Flagged lists nodes that never produced a value because their clock
	// had fewer bars than their warm-up period.
	Flagged  []*errors.InsufficientDataError `json:"-" yaml:"-"`
	Analyses map[string]map[string]any       `json:"analyses" yaml:"analyses"`
	Duration time.Duration                   `json:"duration" yaml:"duration"`
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration.
	Initialize(config string) error
	// AddFeed adds a ready-made feed. The first feed added is the primary data.
	AddFeed(f *feed.Feed) error
	// AddDataSource wraps an initialized data source in a feed honoring the
	// configured start and end time.
	AddDataSource(name string, ds datasource.DataSource, opts ...feed.Option) error
	// LoadStrategy sets the strategy to run. Without one, the strategy named
	// in the configuration is built at run time.
	LoadStrategy(s strategy.Strategy) error
	// AddAnalyzer attaches an analyzer. Could be called multiple times.
	AddAnalyzer(a analyzer.Analyzer) error
	// SetBroker replaces the default order recorder.
	SetBroker(b broker.Broker) error
	// Run runs the engine and executes the trading strategy.
	// The context can be used to cancel the run.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (*Result, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
