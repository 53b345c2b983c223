// Package strategy defines the hooks the engine calls on a trading strategy.
//
// Per synchronization step the engine first delivers broker notifications and
// then one phase call: Prenext while any declared node is still warming up,
// NextStart once on the first step where all of them are ready, and Next on
// every later step.
package strategy

import "github.com/rxtech-lab/argo-lines/internal/types"

type Strategy interface {
	// Name returns the name of the strategy
	Name() string
	// Init builds the strategy's indicators and declares the nodes it reads.
	Init(ctx *Context) error
	// Next is called on every bar once all declared nodes are ready.
	Next() error
}

// Prenexter is implemented by strategies that act during warm-up.
type Prenexter interface {
	Prenext() error
}

// NextStarter is implemented by strategies that treat the first ready bar
// specially. Strategies without it get Next instead.
type NextStarter interface {
	NextStart() error
}

type OrderNotifiee interface {
	NotifyOrder(order types.Order) error
}

type TradeNotifiee interface {
	NotifyTrade(trade types.Trade) error
}

type FundNotifiee interface {
	NotifyFund(fund types.Fund) error
}
