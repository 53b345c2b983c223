// Package indicator provides technical indicators as computation nodes.
//
// Simple indicators are single nodes with their own formula. Composite
// indicators (RSI, ATR, MACD, Bollinger bands, directional movement) are built
// from sub-nodes and operators and publish the lines of those sub-nodes, so
// their warm-up falls out of the graph instead of being hard-coded.
package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Indicator is a node built by this package. Params returns the resolved
// parameters the indicator was constructed with.
type Indicator interface {
	graph.Node
	Params() *params.Set
}

// wrap converts a typed constructor result to an Indicator without turning a
// nil node into a non-nil interface.
func wrap[T Indicator](n T, err error) (Indicator, error) {
	if err != nil {
		return nil, err
	}

	return n, nil
}

// series returns the node single-series indicators read from: the close line
// of a bar source, or the node itself otherwise.
func series(n graph.Node) graph.Node {
	if n == nil || n.Lines().Len() < 2 {
		return n
	}

	if _, ok := n.Lines().ByName("close"); !ok {
		return n
	}

	return graph.MustRef(n, "close")
}

// newNode resolves values against decl and builds the base of a formula node.
func newNode(name types.IndicatorType, decl *params.Decl, values params.Values, lines *line.Declaration,
	f graph.Formula, lookback func(set *params.Set) int, inputs ...graph.Node) (*graph.Base, *params.Set, error) {
	set, err := decl.Resolve(values)
	if err != nil {
		return nil, nil, err
	}

	base, err := graph.NewBase(graph.Spec{
		Name:     string(name),
		Lines:    lines,
		Inputs:   inputs,
		Lookback: lookback(set),
		Formula:  f,
		Params:   set,
	})
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "construct %s", name)
	}

	return base, set, nil
}

func windowLookback(set *params.Set) int {
	return set.Int("period") - 1
}

func noLookback(*params.Set) int {
	return 0
}

// lineOf returns a named line of in, or an error naming the indicator.
func lineOf(name types.IndicatorType, in graph.Node, lineName string) (*line.Line, error) {
	l, ok := in.Lines().ByName(lineName)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeLineNotFound, "%s: input %s has no %q line (lines: %v)",
			name, in.Name(), lineName, in.Lines().Declaration().Names())
	}

	return l, nil
}

// windowSum adds l over the period bars ending at bar, oldest first.
func windowSum(l *line.Line, bar, period int) float64 {
	s := 0.0
	for j := bar - period + 1; j <= bar; j++ {
		s += l.At(j)
	}

	return s
}

// fill runs step on every bar of [start, end) from first, the node's first
// defined bar, on. Nothing runs while first is unknown.
func fill(first, start, end int, step func(bar int)) {
	if first < 0 {
		return
	}

	for bar := max(start, first); bar < end; bar++ {
		step(bar)
	}
}

// composite is embedded by indicators assembled from sub-nodes. Their graph
// base is a bundle and carries no parameters of its own.
type composite struct {
	*graph.Base
	set *params.Set
}

func newComposite(name types.IndicatorType, set *params.Set, decl *line.Declaration, parts ...graph.Node) (composite, error) {
	base, err := graph.Bundle(string(name), decl, parts...)
	if err != nil {
		return composite{}, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "construct %s", name)
	}

	return composite{Base: base, set: set}, nil
}

// Params returns the resolved parameters.
func (c composite) Params() *params.Set {
	return c.set
}
