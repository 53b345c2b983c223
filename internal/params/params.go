// Package params implements declarative node configuration: a node type
// declares named fields with defaults once, and every instance resolves a
// user-supplied mapping against that declaration at construction time.
package params

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

var validate = validator.New()

// Field declares one parameter. The dynamic type of Default is the type of
// the parameter.
type Field struct {
	Name    string
	Default any
	// Validate is a go-playground/validator tag applied to the resolved value,
	// e.g. "gt=0" or "oneof=sma ema".
	Validate string
	Doc      string
	// Dynamic fields may be re-seeded after construction with Set.Reseed.
	Dynamic bool
}

// Values is the user-supplied parameter mapping.
type Values map[string]any

// Decl is the parameter declaration of a node type.
type Decl struct {
	owner  string
	fields []Field
	index  map[string]int
}

// Declare builds a declaration for owner.
func Declare(owner string, fields ...Field) (*Decl, error) {
	d := &Decl{owner: owner, index: make(map[string]int, len(fields))}

	for _, f := range fields {
		if err := d.add(f); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// MustDeclare is Declare for package-level declarations.
func MustDeclare(owner string, fields ...Field) *Decl {
	d, err := Declare(owner, fields...)
	if err != nil {
		panic(err)
	}

	return d
}

func (d *Decl) add(f Field) error {
	if f.Name == "" {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s: parameter name cannot be empty", d.owner)
	}

	if f.Default == nil {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s: parameter %q has no default", d.owner, f.Name)
	}

	if _, dup := d.index[f.Name]; dup {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "%s: duplicate parameter %q", d.owner, f.Name)
	}

	d.index[f.Name] = len(d.fields)
	d.fields = append(d.fields, f)

	return nil
}

// Derive returns a declaration for owner that inherits every field of d.
// A field whose name already exists overrides only what it sets: its default
// always, and its validation tag and doc when non-empty. New names are
// appended. d is not modified.
func (d *Decl) Derive(owner string, fields ...Field) (*Decl, error) {
	child := &Decl{
		owner:  owner,
		fields: append([]Field(nil), d.fields...),
		index:  make(map[string]int, len(d.fields)+len(fields)),
	}
	for k, v := range d.index {
		child.index[k] = v
	}

	for _, f := range fields {
		i, ok := child.index[f.Name]
		if !ok {
			if err := child.add(f); err != nil {
				return nil, err
			}

			continue
		}

		parent := child.fields[i]

		def, err := coerce(f.Default, parent.Default)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidType, err, "%s: override of %q", owner, f.Name)
		}

		parent.Default = def
		if f.Validate != "" {
			parent.Validate = f.Validate
		}

		if f.Doc != "" {
			parent.Doc = f.Doc
		}

		parent.Dynamic = parent.Dynamic || f.Dynamic
		child.fields[i] = parent
	}

	return child, nil
}

// MustDerive is Derive for package-level declarations.
func (d *Decl) MustDerive(owner string, fields ...Field) *Decl {
	child, err := d.Derive(owner, fields...)
	if err != nil {
		panic(err)
	}

	return child
}

// Owner returns the name of the node type owning the declaration.
func (d *Decl) Owner() string {
	return d.owner
}

// Fields returns the declared fields in order.
func (d *Decl) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Defaults resolves the declaration with no overrides.
func (d *Decl) Defaults() *Set {
	s, err := d.Resolve(nil)
	if err != nil {
		panic(err)
	}

	return s
}

// Resolve merges values over the declared defaults. Unknown names, values of
// the wrong type and values failing their validation tag are construction
// errors naming the owner and the parameter.
func (d *Decl) Resolve(values Values) (*Set, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if _, ok := d.index[name]; !ok {
			return nil, errors.Newf(errors.ErrCodeUnknownParameter, "%s: unknown parameter %q", d.owner, name)
		}
	}

	set := &Set{decl: d, values: make([]any, len(d.fields))}

	for i, f := range d.fields {
		raw, ok := values[f.Name]
		if !ok {
			raw = f.Default
		}

		v, err := d.check(f, raw)
		if err != nil {
			return nil, err
		}

		set.values[i] = v
	}

	return set, nil
}

func (d *Decl) check(f Field, raw any) (any, error) {
	v, err := coerce(raw, f.Default)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidType, err, "%s: parameter %q", d.owner, f.Name)
	}

	if f.Validate != "" {
		if err := validate.Var(v, f.Validate); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameter, err,
				"%s: invalid value %v for parameter %q", d.owner, v, f.Name)
		}
	}

	return v, nil
}

// coerce converts v to the type of like. Integers are accepted for floats
// and integral floats for integers, since decoded YAML and JSON produce both.
func coerce(v, like any) (any, error) {
	switch like.(type) {
	case int:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case int32:
			return int(n), nil
		case uint64:
			return int(n), nil
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) {
				return int(n), nil
			}
		}
	case float64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case int32:
			return float64(n), nil
		case uint64:
			return float64(n), nil
		}
	default:
		if reflect.TypeOf(v) == reflect.TypeOf(like) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("expected %T, got %T", like, v)
}
