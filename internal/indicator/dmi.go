package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
)

// DMIParams declares the directional movement indicator.
var DMIParams = params.MustDeclare(string(types.IndicatorTypeDMI),
	params.Field{Name: "period", Default: 14, Validate: "gt=0"},
	params.Field{Name: "movav", Default: string(types.IndicatorTypeSMMA), Validate: movavValidation},
)

var (
	movementLines = line.MustDeclare("plusdm", "minusdm")
	dmiLines      = line.MustDeclare("plusdi", "minusdi", "adx")
)

// DirectionalMove computes the raw +DM and -DM of a bar source: the larger
// of the up move in highs and the down move in lows, when positive, and 0
// for the other.
type DirectionalMove struct {
	*graph.Base
	high  *line.Line
	low   *line.Line
	plus  *line.Line
	minus *line.Line
}

func newDirectionalMove(input graph.Node) (*DirectionalMove, error) {
	n := &DirectionalMove{}

	base, err := graph.NewBase(graph.Spec{
		Name:     "directional_move",
		Lines:    movementLines,
		Inputs:   []graph.Node{input},
		Lookback: 1,
		Formula:  n,
	})
	if err != nil {
		return nil, err
	}

	n.Base = base

	if n.high, err = lineOf(types.IndicatorTypeDMI, base.Input(0), "high"); err != nil {
		return nil, err
	}

	if n.low, err = lineOf(types.IndicatorTypeDMI, base.Input(0), "low"); err != nil {
		return nil, err
	}

	n.plus = base.Line(0)
	n.minus = base.Line(1)

	return n, nil
}

func (n *DirectionalMove) WarmUp(int) {}

func (n *DirectionalMove) Seed(bar int) { n.Step(bar) }

func (n *DirectionalMove) Step(bar int) {
	up := n.high.At(bar) - n.high.At(bar-1)
	down := n.low.At(bar-1) - n.low.At(bar)

	plus, minus := 0.0, 0.0
	if up > down && up > 0 {
		plus = up
	}

	if down > up && down > 0 {
		minus = down
	}

	n.plus.SetAt(bar, plus)
	n.minus.SetAt(bar, minus)
}

func (n *DirectionalMove) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

// DMI publishes the directional indicators and the average directional
// index:
//
//	+DI = 100 * avg(+DM) / avg(TR)
//	-DI = 100 * avg(-DM) / avg(TR)
//	DX  = 100 * |+DI - -DI| / (+DI + -DI), 0 when both are 0
//	ADX = avg(DX)
type DMI struct {
	composite
	Move    *DirectionalMove
	ATR     *ATR
	PlusDI  graph.Node
	MinusDI graph.Node
	ADX     Indicator
}

// NewDMI creates the directional movement indicator of a bar source.
func NewDMI(input graph.Node, values params.Values) (*DMI, error) {
	set, err := DMIParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	n := &DMI{}
	kind := types.IndicatorType(set.String("movav"))
	p := set.Int("period")

	if n.Move, err = newDirectionalMove(input); err != nil {
		return nil, err
	}

	if n.ATR, err = NewATR(input, params.Values{"period": p, "movav": string(kind)}); err != nil {
		return nil, err
	}

	plusDM, err := NewMovingAverage(kind, graph.MustRef(n.Move, "plusdm"), p)
	if err != nil {
		return nil, err
	}

	minusDM, err := NewMovingAverage(kind, graph.MustRef(n.Move, "minusdm"), p)
	if err != nil {
		return nil, err
	}

	n.PlusDI = graph.MulScalar(graph.DivSafe(plusDM, n.ATR, 0), 100)
	n.MinusDI = graph.MulScalar(graph.DivSafe(minusDM, n.ATR, 0), 100)

	dx := graph.Combine("dx", n.PlusDI, n.MinusDI, func(plus, minus float64) float64 {
		sum := plus + minus
		if sum == 0 {
			return 0
		}

		return 100 * math.Abs(plus-minus) / sum
	})

	if n.ADX, err = NewMovingAverage(kind, dx, p); err != nil {
		return nil, err
	}

	if n.composite, err = newComposite(types.IndicatorTypeDMI, set, dmiLines, n.PlusDI, n.MinusDI, n.ADX); err != nil {
		return nil, err
	}

	return n, nil
}
