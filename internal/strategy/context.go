package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-lines/internal/broker"
	"github.com/rxtech-lab/argo-lines/internal/feed"
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/indicator"
	"github.com/rxtech-lab/argo-lines/internal/logger"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Context is what a strategy sees of the running engine.
type Context struct {
	// Feeds in configuration order. Feeds[0] is the primary data.
	Feeds []*feed.Feed
	// IndicatorRegistry is the registry of all indicators
	IndicatorRegistry indicator.IndicatorRegistry
	// Broker is used to place orders
	Broker broker.Broker
	Logger *logger.Logger
	// Clock returns the timestamp of the current step.
	Clock func() time.Time

	declared []graph.Node
}

// Data returns the primary feed, or nil when there is none.
func (c *Context) Data() *feed.Feed {
	if len(c.Feeds) == 0 {
		return nil
	}

	return c.Feeds[0]
}

// Feed returns the feed with the given name.
func (c *Context) Feed(name string) (*feed.Feed, error) {
	for _, f := range c.Feeds {
		if f.Name() == name {
			return f, nil
		}
	}

	return nil, errors.Newf(errors.ErrCodeDataNotFound, "feed %s not found", name)
}

// Indicator builds a registered indicator over inputs and declares it.
func (c *Context) Indicator(name types.IndicatorType, values params.Values, inputs ...graph.Node) (indicator.Indicator, error) {
	if c.IndicatorRegistry == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "no indicator registry")
	}

	ind, err := c.IndicatorRegistry.NewIndicator(name, inputs, values)
	if err != nil {
		return nil, err
	}

	c.declared = append(c.declared, ind)

	return ind, nil
}

// Declare adds nodes the strategy reads. The engine computes every declared
// node and holds the strategy in prenext until all of them are ready.
func (c *Context) Declare(nodes ...graph.Node) error {
	for i, n := range nodes {
		if n == nil {
			return errors.Newf(errors.ErrCodeNilInput, "declare: node %d is nil", i)
		}
	}

	c.declared = append(c.declared, nodes...)

	return nil
}

// Declared returns the declared nodes. Without declarations the feeds
// themselves are the strategy's nodes.
func (c *Context) Declared() []graph.Node {
	if len(c.declared) > 0 {
		return append([]graph.Node(nil), c.declared...)
	}

	nodes := make([]graph.Node, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		nodes = append(nodes, f)
	}

	return nodes
}

// Ready reports whether every declared node has reached its minperiod.
func (c *Context) Ready() bool {
	for _, n := range c.Declared() {
		if !n.Ready() {
			return false
		}
	}

	return true
}

// Now returns the timestamp of the current step.
func (c *Context) Now() time.Time {
	if c.Clock == nil {
		return time.Time{}
	}

	return c.Clock()
}
