package line

import (
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Declaration is the ordered, duplicate-free set of output names of a node
// type. Declarations are built once at package initialisation and shared by
// every instance of the type; node packages also export an index constant per
// name so hot paths never look names up.
type Declaration struct {
	names []string
	index map[string]int
}

// Declare builds a declaration from the given names.
func Declare(names ...string) (*Declaration, error) {
	d := &Declaration{index: make(map[string]int, len(names))}

	for _, name := range names {
		if name == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfiguration, "line name cannot be empty")
		}

		if _, dup := d.index[name]; dup {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "duplicate line name %q", name)
		}

		d.index[name] = len(d.names)
		d.names = append(d.names, name)
	}

	return d, nil
}

// MustDeclare is Declare for package-level declarations; it panics on error.
func MustDeclare(names ...string) *Declaration {
	d, err := Declare(names...)
	if err != nil {
		panic(err)
	}

	return d
}

// Extend returns a new declaration with the receiver's names first followed by
// names. The receiver is not modified.
func (d *Declaration) Extend(names ...string) (*Declaration, error) {
	all := make([]string, 0, len(d.names)+len(names))
	all = append(all, d.names...)
	all = append(all, names...)

	return Declare(all...)
}

// Index returns the position of name.
func (d *Declaration) Index(name string) (int, bool) {
	i, ok := d.index[name]

	return i, ok
}

// Names returns the declared names in order.
func (d *Declaration) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)

	return out
}

// Len returns the number of declared lines.
func (d *Declaration) Len() int {
	return len(d.names)
}
