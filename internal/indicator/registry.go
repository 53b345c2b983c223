package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/internal/types"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Definition describes how to build an indicator by name.
type Definition struct {
	Name   types.IndicatorType
	Params *params.Decl
	// Inputs is the number of input nodes New expects.
	Inputs int
	New    func(inputs []graph.Node, values params.Values) (Indicator, error)
}

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(def Definition) error
	GetIndicator(name types.IndicatorType) (Definition, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
	// NewIndicator builds the named indicator over inputs.
	NewIndicator(name types.IndicatorType, inputs []graph.Node, values params.Values) (Indicator, error)
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	definitions map[types.IndicatorType]Definition
	mu          sync.RWMutex
}

// NewEmptyRegistry creates a registry without any indicator.
func NewEmptyRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		definitions: make(map[types.IndicatorType]Definition),
		mu:          sync.RWMutex{},
	}
}

// NewIndicatorRegistry creates a registry holding the built-in indicators
// and, for every moving average, its envelope and oscillator variants.
func NewIndicatorRegistry() IndicatorRegistry {
	r := NewEmptyRegistry()

	for _, def := range Builtins() {
		if err := r.RegisterIndicator(def); err != nil {
			panic(err)
		}
	}

	return r
}

func single[T Indicator](name types.IndicatorType, decl *params.Decl, build func(graph.Node, params.Values) (T, error)) Definition {
	return Definition{
		Name:   name,
		Params: decl,
		Inputs: 1,
		New: func(inputs []graph.Node, values params.Values) (Indicator, error) {
			return wrap(build(inputs[0], values))
		},
	}
}

// Builtins returns the definitions of every indicator of the package.
func Builtins() []Definition {
	defs := make([]Definition, 0, 32)

	for _, ma := range movingAverages {
		defs = append(defs, Definition{
			Name:   ma.kind,
			Params: ma.params,
			Inputs: 1,
			New: func(inputs []graph.Node, values params.Values) (Indicator, error) {
				return ma.build(inputs[0], values)
			},
		})
	}

	defs = append(defs,
		single(types.IndicatorTypeExpSmoothing, ExpSmoothingParams, NewExpSmoothing),
		single(types.IndicatorTypeSum, SumParams, NewSum),
		single(types.IndicatorTypeHighest, HighestParams, NewHighest),
		single(types.IndicatorTypeLowest, LowestParams, NewLowest),
		single(types.IndicatorTypeStdDev, StdDevParams, NewStdDev),
		single(types.IndicatorTypeMomentum, MomentumParams, NewMomentum),
		single(types.IndicatorTypeUpDay, UpDayParams, NewUpDay),
		single(types.IndicatorTypeDownDay, DownDayParams, NewDownDay),
		single(types.IndicatorTypeRSI, RSIParams, NewRSI),
		single(types.IndicatorTypeTrueRange, TrueRangeParams, NewTrueRange),
		single(types.IndicatorTypeATR, ATRParams, NewATR),
		single(types.IndicatorTypeMACD, MACDParams, NewMACD),
		single(types.IndicatorTypeBollingerBands, BollingerBandsParams, NewBollingerBands),
		single(types.IndicatorTypeDMI, DMIParams, NewDMI),
		Definition{
			Name:   types.IndicatorTypeCrossOver,
			Params: CrossOverParams,
			Inputs: 2,
			New: func(inputs []graph.Node, values params.Values) (Indicator, error) {
				return wrap(NewCrossOver(inputs[0], inputs[1], values))
			},
		},
	)

	for _, ma := range movingAverages {
		defs = append(defs, maVariant(ma, types.VariantEnvelope), maVariant(ma, types.VariantOscillator))
	}

	return defs
}

// RegisterIndicator adds an indicator definition to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(def Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" || def.New == nil || def.Params == nil {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "RegisterIndicator: definition %q is incomplete", def.Name)
	}

	if _, exists := r.definitions[def.Name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "RegisterIndicator: indicator with name %s already registered", def.Name)
	}

	r.definitions[def.Name] = def

	return nil
}

// GetIndicator retrieves an indicator definition by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, exists := r.definitions[name]
	if !exists {
		return Definition{}, errors.Newf(errors.ErrCodeIndicatorNotFound, "GetIndicator: indicator with name %s not found", name)
	}

	return def, nil
}

// ListIndicators returns the registered indicator names in sorted order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.definitions, name)

	return nil
}

// NewIndicator builds the named indicator. Too few inputs is a construction
// error; extra inputs are ignored.
func (r *IndicatorRegistryV1) NewIndicator(name types.IndicatorType, inputs []graph.Node, values params.Values) (Indicator, error) {
	def, err := r.GetIndicator(name)
	if err != nil {
		return nil, err
	}

	if len(inputs) < def.Inputs {
		return nil, errors.Newf(errors.ErrCodeInsufficientInputs, "%s needs %d inputs, got %d", name, def.Inputs, len(inputs))
	}

	return def.New(inputs, values)
}
