package indicator

import (
	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

var percField = params.Field{Name: "perc", Default: 2.5, Validate: "gte=0", Doc: "band distance in percent"}

var (
	// EnvelopeParams declares the envelope wrapper on its own.
	EnvelopeParams = params.MustDeclare(types.VariantEnvelope, percField)
	// OscillatorParams declares the oscillator wrapper. It takes no parameters.
	OscillatorParams = params.MustDeclare(types.VariantOscillator)
)

// Envelope wraps a node with bands perc percent above and below its primary
// line. It publishes the wrapped line followed by top and bot.
type Envelope struct {
	composite
	Wrapped graph.Node
}

// NewEnvelope wraps base.
func NewEnvelope(base graph.Node, values params.Values) (*Envelope, error) {
	set, err := EnvelopeParams.Resolve(values)
	if err != nil {
		return nil, err
	}

	return newEnvelope(types.IndicatorType(types.VariantEnvelope), set, base)
}

func newEnvelope(name types.IndicatorType, set *params.Set, base graph.Node) (*Envelope, error) {
	if base == nil {
		return nil, errors.Newf(errors.ErrCodeNilInput, "%s: wrapped node is nil", name)
	}

	decl, err := line.Declare(base.Lines().Declaration().Names()[0], "top", "bot")
	if err != nil {
		return nil, err
	}

	perc := set.Float("perc") / 100
	n := &Envelope{Wrapped: base}

	top := graph.MulScalar(base, 1+perc)
	bot := graph.MulScalar(base, 1-perc)

	if n.composite, err = newComposite(name, set, decl, base, top, bot); err != nil {
		return nil, err
	}

	return n, nil
}

// Oscillator wraps a node computed over data and publishes data minus the
// node's primary line as "osc".
type Oscillator struct {
	composite
	Wrapped graph.Node
}

// NewOscillator wraps base, which must have been built over data.
func NewOscillator(data, base graph.Node) (*Oscillator, error) {
	return newOscillator(types.IndicatorType(types.VariantOscillator), OscillatorParams.Defaults(), data, base)
}

func newOscillator(name types.IndicatorType, set *params.Set, data, base graph.Node) (*Oscillator, error) {
	if data == nil || base == nil {
		return nil, errors.Newf(errors.ErrCodeNilInput, "%s: data and wrapped node are required", name)
	}

	n := &Oscillator{Wrapped: base}

	osc := graph.Sub(series(data), base)

	var err error
	if n.composite, err = newComposite(name, set, line.MustDeclare("osc"), osc); err != nil {
		return nil, err
	}

	return n, nil
}

// variantName is the registry name of a wrapper applied to a moving average.
func variantName(ma types.IndicatorType, variant string) types.IndicatorType {
	return types.IndicatorType(string(ma) + "_" + variant)
}

// maVariant returns the registry definition of a wrapper applied to a moving
// average. The definition accepts the average's parameters plus the
// wrapper's own.
func maVariant(ma movingAverage, variant string) Definition {
	name := variantName(ma.kind, variant)

	decl := ma.params.MustDerive(string(name))
	if variant == types.VariantEnvelope {
		decl = ma.params.MustDerive(string(name), percField)
	}

	build := func(inputs []graph.Node, values params.Values) (Indicator, error) {
		set, err := decl.Resolve(values)
		if err != nil {
			return nil, err
		}

		avg, err := ma.build(inputs[0], params.Values{"period": set.Int("period")})
		if err != nil {
			return nil, err
		}

		if variant == types.VariantEnvelope {
			return wrap(newEnvelope(name, set, avg))
		}

		return wrap(newOscillator(name, set, inputs[0], avg))
	}

	return Definition{Name: name, Params: decl, Inputs: 1, New: build}
}
