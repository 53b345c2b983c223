package params

import (
	"fmt"

	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Set is a resolved parameter set. It is immutable except for fields declared
// Dynamic, which Reseed may change between bars.
type Set struct {
	decl   *Decl
	values []any
}

// Owner returns the owning node type.
func (s *Set) Owner() string {
	return s.decl.owner
}

// Value returns the resolved value of name.
func (s *Set) Value(name string) (any, bool) {
	i, ok := s.decl.index[name]
	if !ok {
		return nil, false
	}

	return s.values[i], true
}

func (s *Set) must(name string) any {
	v, ok := s.Value(name)
	if !ok {
		panic(fmt.Sprintf("params: %s has no parameter %q", s.decl.owner, name))
	}

	return v
}

// Int returns an int parameter. It panics when name is undeclared or not an int.
func (s *Set) Int(name string) int {
	return s.must(name).(int)
}

// Float returns a float64 parameter.
func (s *Set) Float(name string) float64 {
	return s.must(name).(float64)
}

// Bool returns a bool parameter.
func (s *Set) Bool(name string) bool {
	return s.must(name).(bool)
}

// String returns a string parameter.
func (s *Set) String(name string) string {
	return s.must(name).(string)
}

// Map returns a copy of the resolved values keyed by name.
func (s *Set) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for i, f := range s.decl.fields {
		out[f.Name] = s.values[i]
	}

	return out
}

// Reseed replaces the value of a dynamic parameter. The new value is type
// checked and validated like a constructor argument. Nodes that cache values
// derived from a parameter must re-read it; reseeding does not recompute
// history.
func (s *Set) Reseed(name string, v any) error {
	i, ok := s.decl.index[name]
	if !ok {
		return errors.Newf(errors.ErrCodeUnknownParameter, "%s: unknown parameter %q", s.decl.owner, name)
	}

	f := s.decl.fields[i]
	if !f.Dynamic {
		return errors.Newf(errors.ErrCodeParameterNotDynamic, "%s: parameter %q cannot be re-seeded", s.decl.owner, name)
	}

	resolved, err := s.decl.check(f, v)
	if err != nil {
		return err
	}

	s.values[i] = resolved

	return nil
}
