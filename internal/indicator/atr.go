package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

var (
	// TrueRangeParams declares the true range. It takes no parameters.
	TrueRangeParams = params.MustDeclare(string(types.IndicatorTypeTrueRange))
	// ATRParams declares the average true range.
	ATRParams = params.MustDeclare(string(types.IndicatorTypeATR),
		params.Field{Name: "period", Default: 14, Validate: "gt=0", Doc: "averaging period"},
		params.Field{Name: "movav", Default: string(types.IndicatorTypeSMMA), Validate: movavValidation, Doc: "moving average applied to the true range"},
	)
)

// TrueRange is max(high, prev close) - min(low, prev close). Its input must
// have high, low and close lines.
type TrueRange struct {
	*graph.Base
	high  *line.Line
	low   *line.Line
	close *line.Line
	out   *line.Line
}

// NewTrueRange creates the true range of a bar source.
func NewTrueRange(input graph.Node, values params.Values) (*TrueRange, error) {
	n := &TrueRange{}

	base, _, err := newNode(types.IndicatorTypeTrueRange, TrueRangeParams, values, line.MustDeclare("tr"), n,
		func(*params.Set) int { return 1 }, input)
	if err != nil {
		return nil, err
	}

	n.Base = base

	in := base.Input(0)
	if n.high, err = lineOf(types.IndicatorTypeTrueRange, in, "high"); err != nil {
		return nil, err
	}

	if n.low, err = lineOf(types.IndicatorTypeTrueRange, in, "low"); err != nil {
		return nil, err
	}

	if n.close, err = lineOf(types.IndicatorTypeTrueRange, in, "close"); err != nil {
		return nil, err
	}

	n.out = base.Line(0)

	return n, nil
}

func (n *TrueRange) WarmUp(int) {}

func (n *TrueRange) Seed(bar int) { n.Step(bar) }

func (n *TrueRange) Step(bar int) {
	prev := n.close.At(bar - 1)
	n.out.SetAt(bar, math.Max(n.high.At(bar), prev)-math.Min(n.low.At(bar), prev))
}

func (n *TrueRange) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

// ATR is the moving average of the true range.
type ATR struct {
	composite
	TrueRange *TrueRange
	Average   Indicator
}

// NewATR creates the average true range of a bar source.
func NewATR(input graph.Node, values params.Values) (*ATR, error) {
	set, err := ATRParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	n := &ATR{}

	if n.TrueRange, err = NewTrueRange(input, nil); err != nil {
		return nil, err
	}

	if n.Average, err = NewMovingAverage(types.IndicatorType(set.String("movav")), n.TrueRange, set.Int("period")); err != nil {
		return nil, err
	}

	if n.composite, err = newComposite(types.IndicatorTypeATR, set, line.MustDeclare("atr"), n.Average); err != nil {
		return nil, err
	}

	return n, nil
}
