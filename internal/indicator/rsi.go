package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// RSIParams declares the relative strength index.
var RSIParams = params.MustDeclare(string(types.IndicatorTypeRSI),
	params.Field{Name: "period", Default: 14, Validate: "gt=0", Doc: "averaging period"},
	params.Field{Name: "movav", Default: string(types.IndicatorTypeSMMA), Validate: movavValidation, Doc: "moving average applied to gains and losses"},
	params.Field{Name: "safehigh", Default: 100.0, Doc: "value when there are gains and no losses"},
	params.Field{Name: "safelow", Default: 50.0, Doc: "value when there are neither gains nor losses"},
)

// RSI is 100 - 100/(1 + avg(gain)/avg(loss)), where gains and losses are the
// bar-to-bar UpDay and DownDay of the input.
type RSI struct {
	*graph.Base
	// UpDay and DownDay are the per-bar gain and loss nodes.
	UpDay   graph.Node
	DownDay graph.Node
	// AvgGain and AvgLoss are their moving averages.
	AvgGain graph.Node
	AvgLoss graph.Node

	safeHigh float64
	safeLow  float64
	gain     *line.Line
	loss     *line.Line
	out      *line.Line
}

// NewRSI creates the relative strength index of input.
func NewRSI(input graph.Node, values params.Values) (*RSI, error) {
	set, err := RSIParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	if input == nil {
		return nil, errors.New(errors.ErrCodeNilInput, "rsi: input is nil")
	}

	n := &RSI{safeHigh: set.Float("safehigh"), safeLow: set.Float("safelow")}

	if n.UpDay, err = NewUpDay(input, nil); err != nil {
		return nil, err
	}

	if n.DownDay, err = NewDownDay(input, nil); err != nil {
		return nil, err
	}

	kind := types.IndicatorType(set.String("movav"))
	if n.AvgGain, err = NewMovingAverage(kind, n.UpDay, set.Int("period")); err != nil {
		return nil, err
	}

	if n.AvgLoss, err = NewMovingAverage(kind, n.DownDay, set.Int("period")); err != nil {
		return nil, err
	}

	n.Base, err = graph.NewBase(graph.Spec{
		Name:    string(types.IndicatorTypeRSI),
		Lines:   line.MustDeclare("rsi"),
		Inputs:  []graph.Node{n.AvgGain, n.AvgLoss},
		Formula: n,
		Params:  set,
	})
	if err != nil {
		return nil, err
	}

	n.gain = n.Input(0).Lines().Primary()
	n.loss = n.Input(1).Lines().Primary()
	n.out = n.Line(0)

	return n, nil
}

func (n *RSI) WarmUp(int) {}

func (n *RSI) Seed(bar int) { n.Step(bar) }

func (n *RSI) Step(bar int) {
	n.out.SetAt(bar, n.value(n.gain.At(bar), n.loss.At(bar)))
}

func (n *RSI) Batch(start, end int) {
	fill(n.FirstBar(), start, end, n.Step)
}

func (n *RSI) value(gain, loss float64) float64 {
	switch {
	case math.IsNaN(gain) || math.IsNaN(loss):
		return math.NaN()
	case loss == 0 && gain == 0:
		return n.safeLow
	case loss == 0:
		return n.safeHigh
	}

	return 100 - 100/(1+gain/loss)
}
