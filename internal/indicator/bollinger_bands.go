package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// BollingerBandsParams declares Bollinger bands.
var BollingerBandsParams = params.MustDeclare(string(types.IndicatorTypeBollingerBands),
	params.Field{Name: "period", Default: 20, Validate: "gt=0"},
	params.Field{Name: "devfactor", Default: 2.0, Validate: "gt=0", Doc: "band width in standard deviations"},
	params.Field{Name: "movav", Default: string(types.IndicatorTypeSMA), Validate: movavValidation},
)

var bollingerLines = line.MustDeclare("mid", "top", "bot")

// BollingerBands are a moving average with bands devfactor standard
// deviations above and below it.
type BollingerBands struct {
	composite
	Mid    Indicator
	StdDev *Window
}

// NewBollingerBands creates Bollinger bands over input.
func NewBollingerBands(input graph.Node, values params.Values) (*BollingerBands, error) {
	set, err := BollingerBandsParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	if input == nil {
		return nil, errors.New(errors.ErrCodeNilInput, "bollinger_bands: input is nil")
	}

	n := &BollingerBands{}
	p := set.Int("period")

	if n.Mid, err = NewMovingAverage(types.IndicatorType(set.String("movav")), input, p); err != nil {
		return nil, err
	}

	if n.StdDev, err = NewStdDev(input, params.Values{"period": p}); err != nil {
		return nil, err
	}

	width := graph.MulScalar(n.StdDev, set.Float("devfactor"))
	top := graph.Add(n.Mid, width)
	bot := graph.Sub(n.Mid, width)

	if n.composite, err = newComposite(types.IndicatorTypeBollingerBands, set, bollingerLines, n.Mid, top, bot); err != nil {
		return nil, err
	}

	return n, nil
}
