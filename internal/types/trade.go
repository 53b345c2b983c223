package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a fill reported by the broker through notify_trade.
type Trade struct {
	Order         Order     `csv:"order"`
	ExecutedAt    time.Time `csv:"executed_at"`
	ExecutedQty   float64   `csv:"executed_qty"`
	ExecutedPrice float64   `csv:"executed_price"`
	// Fee is the fee for this trade
	Fee float64 `csv:"fee"`
	// PnL is the realized profit and loss for this trade, zero for opening fills.
	PnL float64 `csv:"pnl"`
}

// NetValue returns qty*price signed by side (buys negative) minus fee,
// computed in decimal to avoid float drift in accumulated cash.
func (t Trade) NetValue() float64 {
	gross := decimal.NewFromFloat(t.ExecutedQty).Mul(decimal.NewFromFloat(t.ExecutedPrice))
	if t.Order.Side == PurchaseTypeBuy {
		gross = gross.Neg()
	}

	return gross.Sub(decimal.NewFromFloat(t.Fee)).InexactFloat64()
}

// Fund is the portfolio snapshot delivered through notify_fund.
type Fund struct {
	Cash      float64 `json:"cash"`
	Value     float64 `json:"value"`
	FundValue float64 `json:"fund_value"`
	Shares    float64 `json:"shares"`
}

// NewFund builds a snapshot where FundValue is value per fund share.
// Zero shares yields a FundValue equal to value.
func NewFund(cash, value, shares float64) Fund {
	fv := decimal.NewFromFloat(value)
	if shares != 0 {
		fv = fv.Div(decimal.NewFromFloat(shares))
	}

	return Fund{
		Cash:      cash,
		Value:     value,
		FundValue: fv.Round(8).InexactFloat64(),
		Shares:    shares,
	}
}
