package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

var (
	// HighestParams declares the moving maximum.
	HighestParams = params.MustDeclare(string(types.IndicatorTypeHighest), params.Field{Name: "period", Default: 14, Validate: "gt=0"})
	// LowestParams declares the moving minimum.
	LowestParams = params.MustDeclare(string(types.IndicatorTypeLowest), params.Field{Name: "period", Default: 14, Validate: "gt=0"})
	// StdDevParams declares the population standard deviation.
	StdDevParams = params.MustDeclare(string(types.IndicatorTypeStdDev), params.Field{Name: "period", Default: 20, Validate: "gt=0"})
	// MomentumParams declares momentum.
	MomentumParams = params.MustDeclare(string(types.IndicatorTypeMomentum), params.Field{Name: "period", Default: 12, Validate: "gt=0"})
	// UpDayParams declares the positive change over period bars.
	UpDayParams = params.MustDeclare(string(types.IndicatorTypeUpDay), params.Field{Name: "period", Default: 1, Validate: "gt=0"})
	// DownDayParams declares the negative change over period bars.
	DownDayParams = params.MustDeclare(string(types.IndicatorTypeDownDay), params.Field{Name: "period", Default: 1, Validate: "gt=0"})
)

// Window computes a function of the recent values of its input. Highest,
// Lowest, StdDev, Momentum, UpDay and DownDay are all Windows.
type Window struct {
	*graph.Base
	period int
	fn     func(in *line.Line, bar, period int) float64
	in     *line.Line
	out    *line.Line
}

func newWindow(kind types.IndicatorType, decl *params.Decl, input graph.Node, values params.Values,
	lookback func(*params.Set) int, fn func(in *line.Line, bar, period int) float64) (*Window, error) {
	n := &Window{fn: fn}

	base, set, err := newNode(kind, decl, values, line.MustDeclare(string(kind)), n, lookback, series(input))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.period = set.Int("period")
	n.in = base.Input(0).Lines().Primary()
	n.out = base.Line(0)

	return n, nil
}

func (n *Window) WarmUp(int) {}

func (n *Window) Seed(bar int) { n.Step(bar) }

func (n *Window) Step(bar int) {
	n.out.SetAt(bar, n.fn(n.in, bar, n.period))
}

func (n *Window) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

func changeLookback(set *params.Set) int {
	return set.Int("period")
}

// NewHighest creates the maximum over the last period values.
func NewHighest(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeHighest, HighestParams, input, values, windowLookback, highest)
}

// NewLowest creates the minimum over the last period values.
func NewLowest(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeLowest, LowestParams, input, values, windowLookback, lowest)
}

// NewStdDev creates the population standard deviation over the last period
// values.
func NewStdDev(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeStdDev, StdDevParams, input, values, windowLookback, stddev)
}

// NewMomentum creates x - x[period bars ago].
func NewMomentum(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeMomentum, MomentumParams, input, values, changeLookback,
		func(in *line.Line, bar, period int) float64 {
			return in.At(bar) - in.At(bar-period)
		})
}

// NewUpDay creates max(x - x[period bars ago], 0).
func NewUpDay(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeUpDay, UpDayParams, input, values, changeLookback,
		func(in *line.Line, bar, period int) float64 {
			return math.Max(in.At(bar)-in.At(bar-period), 0)
		})
}

// NewDownDay creates max(x[period bars ago] - x, 0).
func NewDownDay(input graph.Node, values params.Values) (*Window, error) {
	return newWindow(types.IndicatorTypeDownDay, DownDayParams, input, values, changeLookback,
		func(in *line.Line, bar, period int) float64 {
			return math.Max(in.At(bar-period)-in.At(bar), 0)
		})
}

func highest(in *line.Line, bar, period int) float64 {
	v := in.At(bar - period + 1)
	for j := bar - period + 2; j <= bar; j++ {
		v = math.Max(v, in.At(j))
	}

	return v
}

func lowest(in *line.Line, bar, period int) float64 {
	v := in.At(bar - period + 1)
	for j := bar - period + 2; j <= bar; j++ {
		v = math.Min(v, in.At(j))
	}

	return v
}

func stddev(in *line.Line, bar, period int) float64 {
	mean := windowSum(in, bar, period) / float64(period)

	s := 0.0
	for j := bar - period + 1; j <= bar; j++ {
		d := in.At(j) - mean
		s += d * d
	}

	return math.Sqrt(s / float64(period))
}
