// Package broker is the boundary between the engine and order execution.
// The engine drains broker events before every strategy phase and forwards
// them to the notify hooks of the strategy and the analyzers.
package broker

import (
	"time"

	"github.com/rxtech-lab/argo-lines/internal/types"
)

// Events are the notifications a broker produced since the previous step.
type Events struct {
	Orders []types.Order
	Trades []types.Trade
	// Fund is nil when the portfolio was not revalued.
	Fund *types.Fund
}

// Empty reports whether there is nothing to deliver.
func (e Events) Empty() bool {
	return len(e.Orders) == 0 && len(e.Trades) == 0 && e.Fund == nil
}

type Broker interface {
	// Start is called once before the first bar.
	Start() error
	// Submit queues an order and returns its id.
	Submit(order types.ExecuteOrder) (string, error)
	// Next returns the events produced up to now.
	Next(now time.Time) (Events, error)
	// Fund returns the latest portfolio snapshot.
	Fund() types.Fund
	// Stop is called once after the last bar, also when the run fails.
	Stop() error
}
