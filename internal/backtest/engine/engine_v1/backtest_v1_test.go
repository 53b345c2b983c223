package engine

import (
	"context"
	stderrors "errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/argo-lines/internal/analyzer"
	engine_types "github.com/rxtech-lab/argo-lines/internal/backtest/engine"
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/metrics"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/strategy"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/mocks"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// recordingStrategy records every phase call and the values of its
// indicators on each ready bar.
type recordingStrategy struct {
	indicators map[types.IndicatorType]params.Values
	order      []types.IndicatorType
	built      []indicator.Indicator

	phases []string
	values [][]float64
	times  []time.Time
	orders []types.Order
	funds  int
	ctx    *strategy.Context
}

func newRecordingStrategy(specs ...any) *recordingStrategy {
	s := &recordingStrategy{indicators: map[types.IndicatorType]params.Values{}}

	for i := 0; i+1 < len(specs); i += 2 {
		name := specs[i].(types.IndicatorType)
		s.order = append(s.order, name)
		s.indicators[name], _ = specs[i+1].(params.Values)
	}

	return s
}

func (s *recordingStrategy) Name() string { return "recording" }

func (s *recordingStrategy) Init(ctx *strategy.Context) error {
	s.ctx = ctx

	for _, name := range s.order {
		ind, err := ctx.Indicator(name, s.indicators[name], ctx.Data())
		if err != nil {
			return err
		}

		s.built = append(s.built, ind)
	}

	return nil
}

func (s *recordingStrategy) record(phase string) {
	s.phases = append(s.phases, phase)
	s.times = append(s.times, s.ctx.Now())

	var row []float64

	for _, ind := range s.built {
		lines := ind.Lines()
		for i := range lines.Len() {
			row = append(row, lines.At(i).Get(0))
		}
	}

	s.values = append(s.values, row)
}

func (s *recordingStrategy) Prenext() error {
	s.phases = append(s.phases, "prenext")

	return nil
}

func (s *recordingStrategy) NextStart() error {
	s.record("nextstart")

	return nil
}

func (s *recordingStrategy) Next() error {
	s.record("next")

	return nil
}

func (s *recordingStrategy) NotifyOrder(order types.Order) error {
	s.orders = append(s.orders, order)

	return nil
}

func (s *recordingStrategy) NotifyFund(types.Fund) error {
	s.funds++

	return nil
}

type BacktestEngineV1TestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func generatorConfig(count int) mocks.GeneratorConfig {
	config := mocks.DefaultConfig()
	config.Count = count

	return config
}

func (suite *BacktestEngineV1TestSuite) newEngine(mode engine_types.Mode, count int) *BacktestEngineV1 {
	b := newBacktestEngineV1()
	b.config.Mode = mode
	b.config.InitialCapital = 10000

	ds := mocks.NewDataGenerator(42).DataSource(generatorConfig(count))
	suite.Require().NoError(b.AddDataSource("data", ds))

	return b
}

func (suite *BacktestEngineV1TestSuite) TestRunRequiresFeeds() {
	b := newBacktestEngineV1()
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	var ended error

	onEnd := engine_types.OnRunEndCallback(func(result *engine_types.Result, err error) {
		suite.Nil(result)
		ended = err
	})

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunEnd: &onEnd})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoFeeds))
	suite.Equal(err, ended)
}

func (suite *BacktestEngineV1TestSuite) TestRunRequiresStrategy() {
	b := suite.newEngine(engine_types.ModeBatch, 10)

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *BacktestEngineV1TestSuite) TestRunUnknownConfiguredStrategy() {
	b := suite.newEngine(engine_types.ModeBatch, 10)
	b.config.Strategy = StrategyConfig{Name: "buy_and_hold"}

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))
}

func (suite *BacktestEngineV1TestSuite) TestConstructionErrorBeforeFirstBar() {
	b := suite.newEngine(engine_types.ModeBatch, 10)
	s := newRecordingStrategy(types.IndicatorTypeSMA, params.Values{"length": 3})
	suite.Require().NoError(b.LoadStrategy(s))

	steps := 0
	onData := engine_types.OnProcessDataCallback(func(int, int) error {
		steps++

		return nil
	})

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{OnProcessData: &onData})
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownParameter))
	suite.Zero(steps)
}

func (suite *BacktestEngineV1TestSuite) TestPhases() {
	for _, mode := range []engine_types.Mode{engine_types.ModeBatch, engine_types.ModeIncremental} {
		suite.Run(string(mode), func() {
			b := suite.newEngine(mode, 5)
			s := newRecordingStrategy(types.IndicatorTypeSMA, params.Values{"period": 3})
			timeline := analyzer.NewTimeline()

			suite.Require().NoError(b.LoadStrategy(s))
			suite.Require().NoError(b.AddAnalyzer(timeline))

			result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
			suite.Require().NoError(err)

			suite.Equal([]string{"prenext", "prenext", "nextstart", "next", "next"}, s.phases)
			suite.Equal(mode, result.Mode)
			suite.Equal(5, result.Steps)
			suite.Equal(3, result.MinPeriod)
			suite.Empty(result.Flagged)

			_, err = uuid.Parse(result.RunID)
			suite.NoError(err)

			analysis := result.Analyses["timeline"]
			suite.Equal(2, analysis["prenext"])
			suite.Equal(1, analysis["nextstart"])
			suite.Equal(2, analysis["next"])
			suite.Equal(5, analysis["fund_updates"])
			suite.Equal(true, analysis["monotonic"])
			suite.Equal(mocks.DefaultConfig().StartTime, analysis["first"])
			suite.Equal(5, s.funds)
		})
	}
}

func (suite *BacktestEngineV1TestSuite) TestBatchAndIncrementalAgree() {
	run := func(mode engine_types.Mode) *recordingStrategy {
		b := suite.newEngine(mode, 300)
		s := newRecordingStrategy(
			types.IndicatorTypeSMA, params.Values{"period": 20},
			types.IndicatorTypeEMA, nil,
			types.IndicatorTypeRSI, nil,
			types.IndicatorTypeMACD, nil,
			types.IndicatorTypeBollingerBands, nil,
			types.IndicatorTypeATR, nil,
			types.IndicatorTypeDMI, nil,
		)
		suite.Require().NoError(b.LoadStrategy(s))

		result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.Equal(mode, result.Mode)
		suite.Equal(300, result.Steps)

		return s
	}

	batch := run(engine_types.ModeBatch)
	incremental := run(engine_types.ModeIncremental)

	suite.Equal(batch.phases, incremental.phases)
	suite.Equal(batch.times, incremental.times)
	suite.Require().Len(incremental.values, len(batch.values))
	suite.NotEmpty(batch.values)

	for i := range batch.values {
		suite.Require().Len(incremental.values[i], len(batch.values[i]))

		for j := range batch.values[i] {
			want, got := batch.values[i][j], incremental.values[i][j]
			suite.False(math.IsNaN(want), "bar %d line %d is NaN after warm-up", i, j)
			suite.InDelta(want, got, 1e-9, "bar %d line %d", i, j)
		}
	}
}

func (suite *BacktestEngineV1TestSuite) TestFlaggedNodes() {
	for _, mode := range []engine_types.Mode{engine_types.ModeBatch, engine_types.ModeIncremental} {
		suite.Run(string(mode), func() {
			b := suite.newEngine(mode, 5)
			s := newRecordingStrategy(types.IndicatorTypeSMA, params.Values{"period": 10})
			suite.Require().NoError(b.LoadStrategy(s))

			result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
			suite.Require().NoError(err)

			suite.Require().Len(result.Flagged, 1)
			suite.Equal(10, result.Flagged[0].Required)
			suite.Equal(5, result.Flagged[0].Actual)
			suite.Len(s.phases, 5)

			for _, phase := range s.phases {
				suite.Equal("prenext", phase)
			}
		})
	}
}

func (suite *BacktestEngineV1TestSuite) TestReplayForcesIncremental() {
	b := newBacktestEngineV1()
	b.config.Mode = engine_types.ModeBatch

	ds := mocks.NewDataGenerator(7).DataSource(generatorConfig(10))
	suite.Require().NoError(b.AddDataSource("data", ds, feed.WithReplay(types.TimespanFiveMinutes)))
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal(engine_types.ModeIncremental, result.Mode)
	suite.Equal(10, result.Steps)
}

func (suite *BacktestEngineV1TestSuite) TestCallbacks() {
	b := suite.newEngine(engine_types.ModeBatch, 5)
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	var (
		startedID string
		total     int
		progress  []int
		ended     *engine_types.Result
	)

	onStart := engine_types.OnRunStartCallback(func(runID string, mode engine_types.Mode, totalSteps int) error {
		startedID = runID
		total = totalSteps

		return nil
	})
	onData := engine_types.OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)

		return nil
	})
	onEnd := engine_types.OnRunEndCallback(func(result *engine_types.Result, err error) {
		suite.NoError(err)
		ended = result
	})

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnRunEnd:      &onEnd,
		OnProcessData: &onData,
	})
	suite.Require().NoError(err)

	suite.Equal(result.RunID, startedID)
	suite.Equal(5, total)
	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
	suite.Equal(result, ended)
}

func (suite *BacktestEngineV1TestSuite) TestCallbackAbortsRun() {
	b := suite.newEngine(engine_types.ModeIncremental, 10)
	s := newRecordingStrategy()
	suite.Require().NoError(b.LoadStrategy(s))

	onData := engine_types.OnProcessDataCallback(func(current int, total int) error {
		if current == 2 {
			return stderrors.New("stop")
		}

		return nil
	})

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{OnProcessData: &onData})
	suite.True(errors.HasCode(err, errors.ErrCodeCallbackFailed))
	suite.Len(s.phases, 2)
}

func (suite *BacktestEngineV1TestSuite) TestCancelledContext() {
	b := suite.newEngine(engine_types.ModeBatch, 10)
	s := newRecordingStrategy()
	suite.Require().NoError(b.LoadStrategy(s))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Run(ctx, engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeRunAborted))
	suite.Empty(s.phases)
}

func (suite *BacktestEngineV1TestSuite) TestFeedsAreConsumed() {
	b := suite.newEngine(engine_types.ModeBatch, 5)
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	_, err = b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoFeeds))
}

func (suite *BacktestEngineV1TestSuite) TestDuplicateNames() {
	b := suite.newEngine(engine_types.ModeBatch, 5)

	ds := mocks.NewDataGenerator(1).DataSource(generatorConfig(5))
	err := b.AddDataSource("data", ds)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))

	suite.Require().NoError(b.AddAnalyzer(analyzer.NewTimeline()))
	err = b.AddAnalyzer(analyzer.NewTimeline())
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))

	suite.True(errors.HasCode(b.AddFeed(nil), errors.ErrCodeNilInput))
	suite.True(errors.HasCode(b.LoadStrategy(nil), errors.ErrCodeNilInput))
	suite.True(errors.HasCode(b.SetBroker(nil), errors.ErrCodeBrokerUnavailable))
}

func (suite *BacktestEngineV1TestSuite) TestBrokerEventsReachStrategy() {
	b := suite.newEngine(engine_types.ModeBatch, 3)
	s := newRecordingStrategy()
	suite.Require().NoError(b.LoadStrategy(s))

	mockBroker := mocks.NewMockBroker(suite.ctrl)
	order := types.Order{OrderID: "order-1", Status: types.OrderStatusFilled}

	gomock.InOrder(
		mockBroker.EXPECT().Start().Return(nil),
		mockBroker.EXPECT().Next(gomock.Any()).Return(broker.Events{Orders: []types.Order{order}}, nil),
		mockBroker.EXPECT().Next(gomock.Any()).Return(broker.Events{}, nil).Times(2),
		mockBroker.EXPECT().Stop().Return(nil),
	)
	suite.Require().NoError(b.SetBroker(mockBroker))

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal([]types.Order{order}, s.orders)
	suite.Zero(s.funds)
}

func (suite *BacktestEngineV1TestSuite) TestBrokerFailureAbortsRun() {
	b := suite.newEngine(engine_types.ModeIncremental, 3)
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	mockBroker := mocks.NewMockBroker(suite.ctrl)
	mockBroker.EXPECT().Start().Return(nil)
	mockBroker.EXPECT().Next(gomock.Any()).Return(broker.Events{}, stderrors.New("disconnected"))
	mockBroker.EXPECT().Stop().Return(nil)
	suite.Require().NoError(b.SetBroker(mockBroker))

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeBrokerUnavailable))
}

func (suite *BacktestEngineV1TestSuite) TestMockAnalyzer() {
	b := suite.newEngine(engine_types.ModeBatch, 4)
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy(types.IndicatorTypeSMA, params.Values{"period": 2})))

	mockAnalyzer := mocks.NewMockAnalyzer(suite.ctrl)
	mockAnalyzer.EXPECT().Name().Return("mock").AnyTimes()
	mockAnalyzer.EXPECT().Start(gomock.Any()).Return(nil)
	mockAnalyzer.EXPECT().Next().Return(nil).Times(3)
	mockAnalyzer.EXPECT().Stop().Return(nil)
	mockAnalyzer.EXPECT().GetAnalysis().Return(map[string]any{"calls": 3})
	suite.Require().NoError(b.AddAnalyzer(mockAnalyzer))

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal(map[string]any{"calls": 3}, result.Analyses["mock"])
}

func (suite *BacktestEngineV1TestSuite) TestAnalyzerFailure() {
	b := suite.newEngine(engine_types.ModeBatch, 4)
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy()))

	mockAnalyzer := mocks.NewMockAnalyzer(suite.ctrl)
	mockAnalyzer.EXPECT().Name().Return("mock").AnyTimes()
	mockAnalyzer.EXPECT().Start(gomock.Any()).Return(nil)
	mockAnalyzer.EXPECT().Next().Return(stderrors.New("boom"))
	suite.Require().NoError(b.AddAnalyzer(mockAnalyzer))

	_, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeAnalyzerFailed))
}

func (suite *BacktestEngineV1TestSuite) TestMockDataSource() {
	bars := mocks.NewDataGenerator(3).Generate(generatorConfig(3))
	source := mocks.NewDataGenerator(3).DataSource(generatorConfig(3))

	mockDataSource := mocks.NewMockDataSource(suite.ctrl)
	mockDataSource.EXPECT().ReadAll(gomock.Any(), gomock.Any()).
		Return(source.ReadAll(optional.None[time.Time](), optional.None[time.Time]()))
	mockDataSource.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil)
	mockDataSource.EXPECT().Close().Return(nil)

	b := newBacktestEngineV1()
	b.config.Mode = engine_types.ModeIncremental
	suite.Require().NoError(b.AddDataSource("data", mockDataSource))

	s := newRecordingStrategy()
	suite.Require().NoError(b.LoadStrategy(s))

	var total int

	onStart := engine_types.OnRunStartCallback(func(_ string, _ engine_types.Mode, totalSteps int) error {
		total = totalSteps

		return nil
	})

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{OnRunStart: &onStart})
	suite.Require().NoError(err)
	suite.Equal(3, total)
	suite.Equal(3, result.Steps)
	suite.Equal(bars[2].Time, s.times[2])
}

func (suite *BacktestEngineV1TestSuite) TestMultipleFeedsAreSynchronized() {
	b := newBacktestEngineV1()

	minute := generatorConfig(10)
	slow := generatorConfig(5)
	slow.Interval = 2 * time.Minute
	slow.Symbol = "SLOW"

	suite.Require().NoError(b.AddDataSource("minute", mocks.NewDataGenerator(1).DataSource(minute)))
	suite.Require().NoError(b.AddDataSource("slow", mocks.NewDataGenerator(2).DataSource(slow)))

	s := newRecordingStrategy()
	suite.Require().NoError(b.LoadStrategy(s))

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal(10, result.Steps)

	for i := 1; i < len(s.times); i++ {
		suite.True(s.times[i].After(s.times[i-1]))
	}
}

func (suite *BacktestEngineV1TestSuite) TestMetrics() {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(reg)
	suite.Require().NoError(err)

	b := newBacktestEngineV1(WithMetrics(m))
	suite.Require().NoError(b.AddDataSource("data", mocks.NewDataGenerator(1).DataSource(generatorConfig(6))))
	suite.Require().NoError(b.LoadStrategy(newRecordingStrategy(types.IndicatorTypeSMA, params.Values{"period": 10})))

	_, err = b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(6.0, testutil.ToFloat64(m.Steps))
	suite.Equal(1.0, testutil.ToFloat64(m.FlaggedNodes))
	suite.Equal(1.0, testutil.ToFloat64(m.Runs.WithLabelValues("batch", "ok")))
}

func (suite *BacktestEngineV1TestSuite) TestInitializeFromConfig() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "bars.csv")

	bars := mocks.NewDataGenerator(9).Generate(generatorConfig(60))
	suite.Require().NoError(mocks.WriteCSV(path, bars))

	b := newBacktestEngineV1()
	suite.Require().NoError(b.Initialize(`
mode: incremental
log_level: error
initial_capital: 1000
commission: zero_commission
end_time: ` + bars[49].Time.Format(time.RFC3339) + `
feeds:
  - name: data
    path: ` + path + `
  - name: five
    path: ` + path + `
    resample: 5m
strategy:
  name: sma_crossover
  params:
    fast_period: 2
    slow_period: 5
`))
	suite.Require().NoError(b.AddAnalyzer(analyzer.NewTimeline()))

	result, err := b.Run(context.Background(), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(engine_types.ModeIncremental, result.Mode)
	suite.Equal(50, result.Steps)
	suite.Equal(bars[49].Time, result.Analyses["timeline"]["last"])
}

func (suite *BacktestEngineV1TestSuite) TestInitializeMissingFile() {
	b := newBacktestEngineV1()
	err := b.Initialize("feeds:\n  - name: data\n    path: " + filepath.Join(suite.T().TempDir(), "missing.csv"))
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoDatasource))
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := NewBacktestEngineV1().GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
}
