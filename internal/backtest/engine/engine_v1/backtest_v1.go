package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-lines/internal/analyzer"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	"github.com/rxtech-lab/argo-lines/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/metrics"
	"github.com/rxtech-lab/argo-lines/internal/strategy"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// Option configures a BacktestEngineV1.
type Option func(*BacktestEngineV1)

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *BacktestEngineV1) {
		b.metrics = m
	}
}

// WithLogger sets the logger used until Initialize builds one from the
// configured level.
func WithLogger(l *logger.Logger) Option {
	return func(b *BacktestEngineV1) {
		b.log = l
	}
}

// WithMode runs in mode regardless of the configured one.
func WithMode(mode engine.Mode) Option {
	return func(b *BacktestEngineV1) {
		b.mode = mode
	}
}

type BacktestEngineV1 struct {
	config            BacktestEngineV1Config
	mode              engine.Mode
	log               *logger.Logger
	indicatorRegistry indicator.IndicatorRegistry
	feeds             []*feed.Feed
	sources           []datasource.DataSource
	expected          int
	strategy          strategy.Strategy
	analyzers         []analyzer.Analyzer
	broker            broker.Broker
	metrics           *metrics.Metrics
}

// NewBacktestEngineV1 creates an engine with the default configuration. It
// can be used without Initialize when feeds and the strategy are added
// programmatically.
func NewBacktestEngineV1(opts ...Option) engine.Engine {
	return newBacktestEngineV1(opts...)
}

func newBacktestEngineV1(opts ...Option) *BacktestEngineV1 {
	b := &BacktestEngineV1{
		config:            EmptyConfig(),
		mode:              "",
		log:               nil,
		indicatorRegistry: indicator.NewIndicatorRegistry(),
		feeds:             nil,
		sources:           nil,
		expected:          0,
		strategy:          nil,
		analyzers:         nil,
		broker:            nil,
		metrics:           nil,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.log == nil {
		b.log = logger.NewNopLogger()
	}

	b.broker = b.newRecorder()

	return b
}

func (b *BacktestEngineV1) newRecorder() broker.Broker {
	return broker.NewRecorder(b.config.InitialCapital,
		broker.WithCommission(broker.GetCommissionFeeHandler(b.config.Commission)),
		broker.WithDecimalPrecision(b.config.DecimalPrecision),
		broker.WithRecorderLogger(b.log),
	)
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	b.config = parsed

	b.log, err = logger.NewLoggerWithLevel(b.config.LogLevel)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
	}

	b.broker = b.newRecorder()

	for _, fc := range b.config.Feeds {
		if err := b.openFeed(fc); err != nil {
			return err
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.String("mode", string(b.config.Mode)),
		zap.Int("feeds", len(b.feeds)),
		zap.String("strategy", b.config.Strategy.Name),
	)

	return nil
}

func (b *BacktestEngineV1) openFeed(fc FeedConfig) error {
	ds, err := datasource.Open(fc.Format, fc.Path, fc.Table, b.log)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestNoDatasource, err, "feed %s", fc.Name)
	}

	var opts []feed.Option

	switch {
	case fc.Resample != "":
		opts = append(opts, feed.WithResample(fc.Resample))
	case fc.Replay != "":
		opts = append(opts, feed.WithReplay(fc.Replay))
	}

	if err := b.addSource(fc.Name, ds, fc.Symbol, opts...); err != nil {
		ds.Close()

		return err
	}

	return nil
}

// AddFeed implements engine.Engine.
func (b *BacktestEngineV1) AddFeed(f *feed.Feed) error {
	if f == nil {
		return errors.New(errors.ErrCodeNilInput, "feed is nil")
	}

	for _, existing := range b.feeds {
		if existing.Name() == f.Name() {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "duplicate feed name %q", f.Name())
		}
	}

	b.feeds = append(b.feeds, f)
	b.log.Debug("Feed added",
		zap.String("feed", f.Name()),
		zap.Int("total_feeds", len(b.feeds)),
	)

	return nil
}

// AddDataSource implements engine.Engine. The engine closes ds after the run.
func (b *BacktestEngineV1) AddDataSource(name string, ds datasource.DataSource, opts ...feed.Option) error {
	return b.addSource(name, ds, "", opts...)
}

func (b *BacktestEngineV1) addSource(name string, ds datasource.DataSource, symbol string, opts ...feed.Option) error {
	if ds == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is nil")
	}

	src := ds.ReadAll(b.config.StartTime, b.config.EndTime)

	opts = append([]feed.Option{feed.WithLogger(b.log)}, opts...)

	f, err := feed.New(name, datasource.FilterSymbol(src, symbol), opts...)
	if err != nil {
		return err
	}

	if err := b.AddFeed(f); err != nil {
		return err
	}

	b.sources = append(b.sources, ds)

	// the count covers every symbol, so it is only a total without a filter
	if symbol == "" {
		count, err := ds.Count(b.config.StartTime, b.config.EndTime)
		if err != nil {
			return err
		}

		b.expected = max(b.expected, count)
	}

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	if s == nil {
		return errors.New(errors.ErrCodeNilInput, "strategy is nil")
	}

	b.strategy = s
	b.log.Debug("Strategy loaded", zap.String("strategy", s.Name()))

	return nil
}

// AddAnalyzer implements engine.Engine.
func (b *BacktestEngineV1) AddAnalyzer(a analyzer.Analyzer) error {
	if a == nil {
		return errors.New(errors.ErrCodeNilInput, "analyzer is nil")
	}

	for _, existing := range b.analyzers {
		if existing.Name() == a.Name() {
			return errors.Newf(errors.ErrCodeBacktestConfigError, "duplicate analyzer name %q", a.Name())
		}
	}

	b.analyzers = append(b.analyzers, a)

	return nil
}

// SetBroker implements engine.Engine.
func (b *BacktestEngineV1) SetBroker(br broker.Broker) error {
	if br == nil {
		return errors.New(errors.ErrCodeBrokerUnavailable, "broker is nil")
	}

	b.broker = br

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", err
	}

	return schema, nil
}

// Run implements engine.Engine. Feeds are consumed by a run, so a second run
// needs new feeds.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result *engine.Result, err error) {
	startedAt := time.Now()
	mode := b.config.Mode
	if b.mode != "" {
		mode = b.mode
	}

	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}

		b.metrics.ObserveRun(string(mode), status, time.Since(startedAt))

		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(result, err)
		}
	}()

	defer b.cleanUpRun()

	if err := b.preRunCheck(); err != nil {
		return nil, err
	}

	if mode == engine.ModeBatch {
		for _, f := range b.feeds {
			if f.Replay() {
				b.log.Warn("Replay feed cannot run in batch mode, falling back to incremental",
					zap.String("feed", f.Name()),
				)

				mode = engine.ModeIncremental

				break
			}
		}
	}

	strat := b.strategy
	if strat == nil {
		strat, err = strategy.New(b.config.Strategy.Name, b.config.StrategyParams())
		if err != nil {
			return nil, err
		}
	}

	r := &run{
		engine:    b,
		ctx:       ctx,
		callbacks: callbacks,
		mode:      mode,
		strategy:  strat,
		sync:      feed.NewSynchronizer(b.log, b.feeds...),
		runID:     uuid.New().String(),
	}

	return r.execute(startedAt)
}

func (b *BacktestEngineV1) preRunCheck() error {
	if len(b.feeds) == 0 {
		b.log.Error("No feeds added")

		return errors.New(errors.ErrCodeBacktestNoFeeds, "no feeds added")
	}

	if b.strategy == nil && b.config.Strategy.Name == "" {
		b.log.Error("No strategy loaded")

		return errors.New(errors.ErrCodeStrategyConfigError, "no strategy loaded")
	}

	if b.broker == nil {
		return errors.New(errors.ErrCodeBrokerUnavailable, "no broker set")
	}

	return nil
}

func (b *BacktestEngineV1) cleanUpRun() {
	for _, f := range b.feeds {
		f.Close()
	}

	for _, ds := range b.sources {
		if err := ds.Close(); err != nil {
			b.log.Warn("Failed to close data source", zap.Error(err))
		}
	}

	b.feeds = nil
	b.sources = nil
	b.expected = 0
}
