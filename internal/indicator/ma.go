package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

var periodField = params.Field{Name: "period", Default: 30, Validate: "gt=0", Doc: "number of bars in the window"}

var (
	// SMAParams declares the simple moving average.
	SMAParams = params.MustDeclare(string(types.IndicatorTypeSMA), periodField)
	// WMAParams declares the weighted moving average.
	WMAParams = params.MustDeclare(string(types.IndicatorTypeWMA), periodField)
	// SumParams declares the moving sum.
	SumParams = params.MustDeclare(string(types.IndicatorTypeSum), periodField)
)

// SMA is the arithmetic mean of the last period values.
type SMA struct {
	*graph.Base
	period int
	in     *line.Line
	out    *line.Line
}

// NewSMA creates a simple moving average over input.
func NewSMA(input graph.Node, values params.Values) (*SMA, error) {
	n := &SMA{}

	base, set, err := newNode(types.IndicatorTypeSMA, SMAParams, values, line.MustDeclare("sma"), n, windowLookback, series(input))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.period = set.Int("period")
	n.in = base.Input(0).Lines().Primary()
	n.out = base.Line(0)

	return n, nil
}

func (n *SMA) WarmUp(int) {}

func (n *SMA) Seed(bar int) { n.Step(bar) }

func (n *SMA) Step(bar int) {
	n.out.SetAt(bar, windowSum(n.in, bar, n.period)/float64(n.period))
}

func (n *SMA) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

// WMA weights the window linearly, the newest value with weight period.
type WMA struct {
	*graph.Base
	period int
	coef   float64
	in     *line.Line
	out    *line.Line
}

// NewWMA creates a weighted moving average over input.
func NewWMA(input graph.Node, values params.Values) (*WMA, error) {
	n := &WMA{}

	base, set, err := newNode(types.IndicatorTypeWMA, WMAParams, values, line.MustDeclare("wma"), n, windowLookback, series(input))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.period = set.Int("period")
	n.coef = 2.0 / float64(n.period*(n.period+1))
	n.in = base.Input(0).Lines().Primary()
	n.out = base.Line(0)

	return n, nil
}

func (n *WMA) WarmUp(int) {}

func (n *WMA) Seed(bar int) { n.Step(bar) }

func (n *WMA) Step(bar int) {
	s := 0.0
	for w := 1; w <= n.period; w++ {
		s += float64(w) * n.in.At(bar-n.period+w)
	}

	n.out.SetAt(bar, s*n.coef)
}

func (n *WMA) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

// Sum is the moving sum of the last period values.
type Sum struct {
	*graph.Base
	period int
	in     *line.Line
	out    *line.Line
}

// NewSum creates a moving sum over input.
func NewSum(input graph.Node, values params.Values) (*Sum, error) {
	n := &Sum{}

	base, set, err := newNode(types.IndicatorTypeSum, SumParams, values, line.MustDeclare("sum"), n, windowLookback, series(input))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.period = set.Int("period")
	n.in = base.Input(0).Lines().Primary()
	n.out = base.Line(0)

	return n, nil
}

func (n *Sum) WarmUp(int) {}

func (n *Sum) Seed(bar int) { n.Step(bar) }

func (n *Sum) Step(bar int) {
	n.out.SetAt(bar, windowSum(n.in, bar, n.period))
}

func (n *Sum) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}
