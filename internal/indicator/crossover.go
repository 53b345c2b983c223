package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

// CrossOverParams declares the crossover signal. It takes no parameters.
var CrossOverParams = params.MustDeclare(string(types.IndicatorTypeCrossOver))

// CrossOver is 1 on the bar where a rises above b, -1 on the bar where it
// falls below b and 0 otherwise. Touching without crossing is not a cross.
type CrossOver struct {
	*graph.Base
	a   *line.Line
	b   *line.Line
	out *line.Line
}

// NewCrossOver creates the crossover signal of a over b.
func NewCrossOver(a, b graph.Node, values params.Values) (*CrossOver, error) {
	n := &CrossOver{}

	base, _, err := newNode(types.IndicatorTypeCrossOver, CrossOverParams, values, line.MustDeclare("crossover"), n,
		func(*params.Set) int { return 1 }, series(a), series(b))
	if err != nil {
		return nil, err
	}

	n.Base = base
	n.a = base.Input(0).Lines().Primary()
	n.b = base.Input(1).Lines().Primary()
	n.out = base.Line(0)

	return n, nil
}

func (n *CrossOver) WarmUp(int) {}

func (n *CrossOver) Seed(bar int) { n.Step(bar) }

func (n *CrossOver) Step(bar int) {
	prev := n.a.At(bar-1) - n.b.At(bar-1)
	cur := n.a.At(bar) - n.b.At(bar)

	switch {
	case math.IsNaN(prev) || math.IsNaN(cur):
		n.out.SetAt(bar, math.NaN())
	case prev <= 0 && cur > 0:
		n.out.SetAt(bar, 1)
	case prev >= 0 && cur < 0:
		n.out.SetAt(bar, -1)
	default:
		n.out.SetAt(bar, 0)
	}
}

func (n *CrossOver) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}
