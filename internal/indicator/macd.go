package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// MACDParams declares the moving average convergence/divergence.
var MACDParams = params.MustDeclare(string(types.IndicatorTypeMACD),
	params.Field{Name: "period_me1", Default: 12, Validate: "gt=0", Doc: "fast average period"},
	params.Field{Name: "period_me2", Default: 26, Validate: "gt=0", Doc: "slow average period"},
	params.Field{Name: "period_signal", Default: 9, Validate: "gt=0", Doc: "signal average period"},
	params.Field{Name: "movav", Default: string(types.IndicatorTypeEMA), Validate: movavValidation},
)

var macdLines = line.MustDeclare("macd", "signal", "histo")

// MACD publishes three lines:
//
//	macd   = fast average - slow average
//	signal = average of macd
//	histo  = macd - signal
type MACD struct {
	composite
	Fast   Indicator
	Slow   Indicator
	Signal Indicator
}

// NewMACD creates MACD over input.
func NewMACD(input graph.Node, values params.Values) (*MACD, error) {
	set, err := MACDParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	if input == nil {
		return nil, errors.New(errors.ErrCodeNilInput, "macd: input is nil")
	}

	n := &MACD{}
	kind := types.IndicatorType(set.String("movav"))

	if n.Fast, err = NewMovingAverage(kind, input, set.Int("period_me1")); err != nil {
		return nil, err
	}

	if n.Slow, err = NewMovingAverage(kind, input, set.Int("period_me2")); err != nil {
		return nil, err
	}

	macd := graph.Sub(n.Fast, n.Slow)

	if n.Signal, err = NewMovingAverage(kind, macd, set.Int("period_signal")); err != nil {
		return nil, err
	}

	histo := graph.Sub(macd, n.Signal)

	if n.composite, err = newComposite(types.IndicatorTypeMACD, set, macdLines, macd, n.Signal, histo); err != nil {
		return nil, err
	}

	return n, nil
}
