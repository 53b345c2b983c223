package broker

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
	"go.uber.org/zap"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithCommission sets the fee model used to price recorded orders.
func WithCommission(fee CommissionFee) RecorderOption {
	return func(r *Recorder) {
		r.commission = fee
	}
}

// WithDecimalPrecision sets the number of decimals quantities are truncated to.
func WithDecimalPrecision(precision int) RecorderOption {
	return func(r *Recorder) {
		r.decimalPrecision = precision
	}
}

// WithRecorderLogger sets the recorder logger.
func WithRecorderLogger(l *logger.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = l
	}
}

// Recorder is a broker that validates and records orders without executing
// them. Every accepted order is reported back once, cancelled with reason
// execution_not_simulated. The fund stays at the initial cash.
type Recorder struct {
	cash             float64
	commission       CommissionFee
	decimalPrecision int
	logger           *logger.Logger
	validate         *validator.Validate

	pending []types.Order
	history []types.Order
	started bool
	mu      sync.Mutex
}

// NewRecorder creates a recorder holding cash.
func NewRecorder(cash float64, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		cash:             cash,
		commission:       NewZeroCommissionFee(),
		decimalPrecision: 8,
		logger:           nil,
		validate:         validator.New(),
		pending:          nil,
		history:          nil,
		started:          false,
		mu:               sync.Mutex{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logger.NewNopLogger()
	}

	return r
}

// Start implements Broker.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = nil
	r.history = nil
	r.started = true

	return nil
}

// Submit implements Broker.
func (r *Recorder) Submit(order types.ExecuteOrder) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return "", errors.New(errors.ErrCodeBrokerUnavailable, "broker is not started")
	}

	order.ID = uuid.New().String()
	order.Quantity = RoundToDecimalPrecision(order.Quantity, r.decimalPrecision)

	if err := r.validate.Struct(order); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidExecuteOrder, "invalid execute order", err)
	}

	r.pending = append(r.pending, types.Order{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Quantity:     order.Quantity,
		Price:        order.Price,
		Timestamp:    time.Time{},
		IsCompleted:  false,
		Status:       types.OrderStatusPending,
		Reason:       order.Reason,
		StrategyName: order.StrategyName,
		Fee:          r.commission.Calculate(order.Quantity),
		PositionType: order.PositionType,
	})

	r.logger.Debug("Order recorded",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
	)

	return order.ID, nil
}

// Next implements Broker. Orders submitted since the previous call are
// reported as cancelled at now.
func (r *Recorder) Next(now time.Time) (Events, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return Events{}, errors.New(errors.ErrCodeBrokerUnavailable, "broker is not started")
	}

	fund := types.NewFund(r.cash, r.cash, 0)
	events := Events{Orders: nil, Trades: nil, Fund: &fund}

	for _, order := range r.pending {
		order.Timestamp = now
		order.Status = types.OrderStatusCancelled
		order.IsCompleted = true
		order.Reason = types.Reason{
			Reason:  types.OrderReasonNotSimulated,
			Message: "order execution is not simulated",
		}

		events.Orders = append(events.Orders, order)
		r.history = append(r.history, order)
	}

	r.pending = nil

	return events, nil
}

// Fund implements Broker.
func (r *Recorder) Fund() types.Fund {
	return types.NewFund(r.cash, r.cash, 0)
}

// Orders returns every order reported so far.
func (r *Recorder) Orders() []types.Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Order, len(r.history))
	copy(out, r.history)

	return out
}

// Stop implements Broker.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.started = false

	return nil
}
