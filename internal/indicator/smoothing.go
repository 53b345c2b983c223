package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

var (
	// EMAParams declares the exponential moving average (alpha 2/(period+1)).
	EMAParams = params.MustDeclare(string(types.IndicatorTypeEMA), periodField)
	// SMMAParams declares the smoothed moving average (alpha 1/period).
	SMMAParams = params.MustDeclare(string(types.IndicatorTypeSMMA), periodField)
	// ExpSmoothingParams declares exponential smoothing with an explicit
	// alpha. An alpha of 0 selects 2/(period+1).
	ExpSmoothingParams = params.MustDeclare(string(types.IndicatorTypeExpSmoothing),
		periodField,
		params.Field{Name: "alpha", Default: 0.0, Validate: "gte=0,lte=1", Doc: "smoothing factor, 0 for 2/(period+1)", Dynamic: true},
	)
)

// ExpSmoothing is the recursive smoothing family shared by EMA and SMMA:
//
//	seed:  mean of the first period values
//	value: prev*(1-alpha) + x*alpha
type ExpSmoothing struct {
	*graph.Base
	kind   types.IndicatorType
	period int
	alpha  float64
	in     *line.Line
	out    *line.Line
}

// NewExpSmoothing creates exponential smoothing with a configurable alpha.
// The alpha parameter may be re-seeded between bars.
func NewExpSmoothing(input graph.Node, values params.Values) (*ExpSmoothing, error) {
	return newSmoothing(types.IndicatorTypeExpSmoothing, ExpSmoothingParams, input, values)
}

// NewEMA creates an exponential moving average.
func NewEMA(input graph.Node, values params.Values) (*ExpSmoothing, error) {
	return newSmoothing(types.IndicatorTypeEMA, EMAParams, input, values)
}

// NewSMMA creates a smoothed (Wilder) moving average.
func NewSMMA(input graph.Node, values params.Values) (*ExpSmoothing, error) {
	return newSmoothing(types.IndicatorTypeSMMA, SMMAParams, input, values)
}

func newSmoothing(kind types.IndicatorType, decl *params.Decl, input graph.Node, values params.Values) (*ExpSmoothing, error) {
	n := &ExpSmoothing{kind: kind}

	base, set, err := newNode(kind, decl, values, line.MustDeclare(string(kind)), n, windowLookback, series(input))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.period = set.Int("period")
	n.in = base.Input(0).Lines().Primary()
	n.out = base.Line(0)

	switch kind {
	case types.IndicatorTypeSMMA:
		n.alpha = 1 / float64(n.period)
	default:
		n.alpha = 2 / float64(n.period+1)
	}

	return n, nil
}

// Alpha returns the smoothing factor currently in effect.
func (n *ExpSmoothing) Alpha() float64 {
	if n.kind != types.IndicatorTypeExpSmoothing {
		return n.alpha
	}

	if a := n.Params().Float("alpha"); a > 0 {
		return a
	}

	return n.alpha
}

func (n *ExpSmoothing) WarmUp(int) {}

func (n *ExpSmoothing) Seed(bar int) {
	n.out.SetAt(bar, windowSum(n.in, bar, n.period)/float64(n.period))
}

func (n *ExpSmoothing) Step(bar int) {
	alpha := n.Alpha()
	n.out.SetAt(bar, n.out.At(bar-1)*(1-alpha)+n.in.At(bar)*alpha)
}

// Batch continues from the value already stored before start, so split
// ranges give the same result as one pass.
func (n *ExpSmoothing) Batch(start, end int) {
	graph.Loop(n, n.FirstBar(), start, end)
}
