package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// movingAverage is one entry of the moving-average table.
type movingAverage struct {
	kind   types.IndicatorType
	params *params.Decl
	build  func(input graph.Node, values params.Values) (Indicator, error)
}

// movingAverages is the fixed list of averaging types. Composite indicators
// select their average from it by name and the registry generates the
// envelope and oscillator families from it.
var movingAverages = []movingAverage{
	{types.IndicatorTypeSMA, SMAParams, func(in graph.Node, v params.Values) (Indicator, error) { return wrap(NewSMA(in, v)) }},
	{types.IndicatorTypeEMA, EMAParams, func(in graph.Node, v params.Values) (Indicator, error) { return wrap(NewEMA(in, v)) }},
	{types.IndicatorTypeSMMA, SMMAParams, func(in graph.Node, v params.Values) (Indicator, error) { return wrap(NewSMMA(in, v)) }},
	{types.IndicatorTypeWMA, WMAParams, func(in graph.Node, v params.Values) (Indicator, error) { return wrap(NewWMA(in, v)) }},
}

// movavValidation restricts a movav parameter to the table above.
const movavValidation = "oneof=sma ema smma wma"

// MovingAverageTypes lists the averaging types in table order.
func MovingAverageTypes() []types.IndicatorType {
	kinds := make([]types.IndicatorType, len(movingAverages))
	for i, ma := range movingAverages {
		kinds[i] = ma.kind
	}

	return kinds
}

// NewMovingAverage builds the moving average named kind over input.
func NewMovingAverage(kind types.IndicatorType, input graph.Node, period int) (Indicator, error) {
	for _, ma := range movingAverages {
		if ma.kind == kind {
			return ma.build(input, params.Values{"period": period})
		}
	}

	return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "unknown moving average %q", kind)
}
