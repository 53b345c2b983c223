package strategy

import (
	"sort"

	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Definition describes a built-in strategy.
type Definition struct {
	Name   string
	Params *params.Decl
	New    func(values params.Values) (Strategy, error)
}

var builtins = map[string]Definition{
	"sma_crossover": {
		Name:   "sma_crossover",
		Params: SMACrossoverParams,
		New: func(values params.Values) (Strategy, error) {
			s, err := NewSMACrossover(values)
			if err != nil {
				return nil, err
			}

			return s, nil
		},
	},
}

// Lookup returns the built-in strategy with the given name.
func Lookup(name string) (Definition, error) {
	def, ok := builtins[name]
	if !ok {
		return Definition{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "strategy %s not found", name)
	}

	return def, nil
}

// New creates the named built-in strategy.
func New(name string, values params.Values) (Strategy, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	return def.New(values)
}

// Builtins lists the built-in strategy names in sorted order.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
