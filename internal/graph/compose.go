package graph

import (
	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Ref exposes one named output of a multi-output node as a node of its own,
// so it can be passed wherever a single series is expected. Its minperiod is
// that of the referenced line, not of the whole node.
func Ref(n Node, name string) (Node, error) {
	if n == nil {
		return nil, errors.Newf(errors.ErrCodeNilInput, "ref %q: node is nil", name)
	}

	l, ok := n.Lines().ByName(name)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeLineNotFound, "%s has no line %q (lines: %v)",
			n.Name(), name, n.Lines().Declaration().Names())
	}

	return bind(n.Name()+"."+name, line.MustDeclare(name), []Node{n}, func([]Node) int { return l.MinPeriod() }, l)
}

// MustRef is Ref for lines known to exist.
func MustRef(n Node, name string) Node {
	r, err := Ref(n, name)
	if err != nil {
		panic(err)
	}

	return r
}

// Bundle builds a composite node whose lines, in declaration order, are the
// primary lines of parts. Composite indicators use it to publish the outputs
// of the sub-nodes they are built from.
func Bundle(name string, decl *line.Declaration, parts ...Node) (*Base, error) {
	if len(parts) == 0 {
		return nil, errors.Newf(errors.ErrCodeInsufficientInputs, "%s: bundle needs at least one part", name)
	}

	if decl.Len() != len(parts) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"%s: %d lines declared for %d parts", name, decl.Len(), len(parts))
	}

	lines := make([]*line.Line, len(parts))
	for i, p := range parts {
		if p == nil {
			return nil, errors.Newf(errors.ErrCodeNilInput, "%s: part %q is nil", name, decl.Names()[i])
		}

		lines[i] = p.Lines().Primary()
	}

	return bind(name, decl, parts, nil, lines...)
}

func bind(name string, decl *line.Declaration, inputs []Node, minFn func([]Node) int, lines ...*line.Line) (*Base, error) {
	bound, err := line.Bind(decl, lines...)
	if err != nil {
		return nil, err
	}

	// Bound lines must stay on their owners' clock, so no coupling here.
	for _, in := range inputs[1:] {
		if in.Clock() != inputs[0].Clock() {
			return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
				"%s: parts %s and %s run on different clocks", name, inputs[0].Name(), in.Name())
		}
	}

	return &Base{
		name:      name,
		lines:     bound,
		inputs:    append([]Node(nil), inputs...),
		clock:     inputs[0].Clock(),
		minFn:     minFn,
		minperiod: 1,
		origin:    -1,
	}, nil
}
