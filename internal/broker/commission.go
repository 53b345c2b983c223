package broker

// CommissionFee computes the fee of an order.
type CommissionFee interface {
	// Calculate the commission fee for a given quantity and returns the fee in USD
	Calculate(quantity float64) float64
}

type Commission string

const (
	CommissionInteractiveBroker Commission = "interactive_broker"
	CommissionZero              Commission = "zero_commission"
)

var AllCommissions = []any{
	CommissionInteractiveBroker,
	CommissionZero,
}

// GetCommissionFeeHandler returns the fee model for name. Unknown names fall
// back to zero commission.
func GetCommissionFeeHandler(name Commission) CommissionFee {
	switch name {
	case CommissionInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case CommissionZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}

// InteractiveBrokerCommissionFee charges 0.005 per unit with a minimum of 1.
type InteractiveBrokerCommissionFee struct{}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64) float64 {
	fee := 0.005 * quantity
	if fee < 1.0 {
		return 1.0
	}

	return fee
}

// ZeroCommissionFee implements CommissionFee interface with zero commission.
type ZeroCommissionFee struct{}

// NewZeroCommissionFee creates a new zero commission fee.
func NewZeroCommissionFee() CommissionFee {
	return &ZeroCommissionFee{}
}

// Calculate returns 0 for any quantity.
func (c *ZeroCommissionFee) Calculate(quantity float64) float64 {
	return 0.0
}
