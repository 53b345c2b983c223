package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

type PurchaseType string

type OrderType string

type OrderStatus string

type PositionType string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

const (
	OrderReasonStrategy      string = "strategy"
	OrderReasonNotSimulated  string = "execution_not_simulated"
	OrderReasonInvalidOrder  string = "invalid_order"
	OrderReasonInvalidPrice  string = "invalid_price"
	OrderReasonInvalidVolume string = "invalid_quantity"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message" validate:"required"`
}

// ExecuteOrder is an order request issued by a strategy.
type ExecuteOrder struct {
	ID           string       `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol       string       `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side         PurchaseType `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	OrderType    OrderType    `yaml:"order_type" json:"order_type" csv:"order_type" validate:"required,oneof=MARKET LIMIT"`
	Reason       Reason       `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Price        float64      `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	Quantity     float64      `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	PositionType PositionType `yaml:"position_type" json:"position_type" csv:"position_type" validate:"required,oneof=LONG SHORT"`
}

// Order is the broker's view of an order, delivered to notify_order.
type Order struct {
	OrderID   string       `yaml:"order_id" json:"order_id" csv:"order_id"`
	Symbol    string       `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side      PurchaseType `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity  float64      `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Price     float64      `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	// IsCompleted is true if the order has been filled, cancelled or rejected
	IsCompleted bool        `yaml:"is_completed" json:"is_completed" csv:"is_completed"`
	Status      OrderStatus `yaml:"status" json:"status" csv:"status"`
	Reason      Reason      `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	// StrategyName is the name of the strategy that created this order
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name" validate:"required"`
	Fee          float64      `yaml:"fee" json:"fee" csv:"fee" validate:"gte=0"`
	PositionType PositionType `yaml:"position_type" json:"position_type" csv:"position_type" validate:"required,oneof=LONG SHORT"`
}

// Validate validates the ExecuteOrder struct.
func (eo *ExecuteOrder) Validate() error {
	validate := validator.New()

	if err := validate.Struct(eo); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidExecuteOrder, "invalid execute order", err)
	}

	return nil
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
