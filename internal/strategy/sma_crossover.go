package strategy

import (
	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// SMACrossoverParams declares the parameters of the moving average
// crossover strategy.
var SMACrossoverParams = params.MustDeclare("sma_crossover",
	params.Field{Name: "fast_period", Default: 10, Validate: "gt=0", Doc: "period of the fast average"},
	params.Field{Name: "slow_period", Default: 30, Validate: "gt=0", Doc: "period of the slow average"},
	params.Field{Name: "movav", Default: "sma", Validate: "oneof=sma ema smma wma", Doc: "moving average type"},
	params.Field{Name: "size", Default: 1.0, Validate: "gt=0,lte=1", Doc: "fraction of cash spent per entry"},
)

// SMACrossover buys when the fast average crosses above the slow one and
// closes the position on the opposite cross.
type SMACrossover struct {
	params *params.Set
	ctx    *Context
	data   *feed.Feed
	cross  indicator.Indicator

	position float64
	orders   int
}

// NewSMACrossover creates the strategy from parameter values.
func NewSMACrossover(values params.Values) (*SMACrossover, error) {
	set, err := SMACrossoverParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	if set.Int("fast_period") >= set.Int("slow_period") {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError,
			"sma_crossover: fast_period %d must be below slow_period %d", set.Int("fast_period"), set.Int("slow_period"))
	}

	return &SMACrossover{params: set}, nil
}

func (s *SMACrossover) Name() string {
	return "sma_crossover"
}

// Params returns the resolved parameters.
func (s *SMACrossover) Params() *params.Set {
	return s.params
}

func (s *SMACrossover) Init(ctx *Context) error {
	if ctx.Logger == nil {
		ctx.Logger = logger.NewNopLogger()
	}

	s.ctx = ctx

	s.data = ctx.Data()
	if s.data == nil {
		return errors.New(errors.ErrCodeBacktestNoFeeds, "sma_crossover: no data feed")
	}

	movav := types.IndicatorType(s.params.String("movav"))

	fast, err := ctx.Indicator(movav, params.Values{"period": s.params.Int("fast_period")}, s.data)
	if err != nil {
		return err
	}

	slow, err := ctx.Indicator(movav, params.Values{"period": s.params.Int("slow_period")}, s.data)
	if err != nil {
		return err
	}

	s.cross, err = ctx.Indicator(types.IndicatorTypeCrossOver, nil, fast, slow)

	return err
}

func (s *SMACrossover) Next() error {
	signal := s.cross.Lines().At(0).Get(0)
	price := s.data.Lines().At(feed.Close).Get(0)

	switch {
	case signal > 0 && s.position == 0:
		qty := broker.QuantityByPercentage(s.ctx.Broker.Fund().Cash, price, broker.NewZeroCommissionFee(), s.params.Float("size"))
		if qty <= 0 {
			return nil
		}

		return s.submit(types.PurchaseTypeBuy, qty, price, "fast average crossed above slow average")
	case signal < 0 && s.position > 0:
		return s.submit(types.PurchaseTypeSell, s.position, price, "fast average crossed below slow average")
	}

	return nil
}

func (s *SMACrossover) submit(side types.PurchaseType, qty, price float64, message string) error {
	id, err := s.ctx.Broker.Submit(types.ExecuteOrder{
		Symbol:       s.data.Symbol(),
		Side:         side,
		OrderType:    types.OrderTypeMarket,
		Reason:       types.Reason{Reason: types.OrderReasonStrategy, Message: message},
		Price:        price,
		StrategyName: s.Name(),
		Quantity:     qty,
		PositionType: types.PositionTypeLong,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStrategyRuntimeError, "sma_crossover: order rejected", err)
	}

	s.orders++
	s.ctx.Logger.Debug("Order submitted",
		zap.String("order_id", id),
		zap.String("side", string(side)),
		zap.Float64("quantity", qty),
		zap.Time("time", s.ctx.Now()),
	)

	return nil
}

func (s *SMACrossover) NotifyTrade(trade types.Trade) error {
	if trade.Order.Side == types.PurchaseTypeBuy {
		s.position += trade.ExecutedQty
	} else {
		s.position -= trade.ExecutedQty
	}

	return nil
}

// Orders returns the number of orders submitted.
func (s *SMACrossover) Orders() int {
	return s.orders
}

// Position returns the filled long quantity.
func (s *SMACrossover) Position() float64 {
	return s.position
}
