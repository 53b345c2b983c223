package line

import (
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Lines is the bundle of named outputs of one node.
//
// An owned bundle holds fresh lines that its node forwards and writes. A bound
// bundle aliases lines owned by other nodes; composite nodes use it to expose
// their sub-nodes' outputs under their own names. Bound lines are never
// forwarded through the bundle.
type Lines struct {
	decl  *Declaration
	lines []*Line
	owned bool
}

// NewLines creates an owned bundle with one empty line per declared name.
func NewLines(decl *Declaration) *Lines {
	lines := make([]*Line, decl.Len())
	for i := range lines {
		lines[i] = New()
	}

	return &Lines{decl: decl, lines: lines, owned: true}
}

// Bind creates a bundle aliasing existing lines, in declaration order.
func Bind(decl *Declaration, lines ...*Line) (*Lines, error) {
	if len(lines) != decl.Len() {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"bind: declaration has %d lines, got %d", decl.Len(), len(lines))
	}

	for i, l := range lines {
		if l == nil {
			return nil, errors.Newf(errors.ErrCodeNilInput, "bind: line %q is nil", decl.names[i])
		}
	}

	return &Lines{decl: decl, lines: append([]*Line(nil), lines...)}, nil
}

// Declaration returns the bundle's declaration.
func (b *Lines) Declaration() *Declaration {
	return b.decl
}

// Owned reports whether the lines belong to the bundle's node.
func (b *Lines) Owned() bool {
	return b.owned
}

// Len returns the number of lines.
func (b *Lines) Len() int {
	return len(b.lines)
}

// At returns the i-th line.
func (b *Lines) At(i int) *Line {
	return b.lines[i]
}

// Primary returns the first declared line.
func (b *Lines) Primary() *Line {
	return b.lines[0]
}

// ByName returns the line declared as name.
func (b *Lines) ByName(name string) (*Line, bool) {
	i, ok := b.decl.Index(name)
	if !ok {
		return nil, false
	}

	return b.lines[i], true
}

// Forward appends a bar to every owned line.
func (b *Lines) Forward() {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.Forward()
	}
}

// Extend preallocates n bars on every owned line.
func (b *Lines) Extend(n int) {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.Extend(n)
	}
}

// Advance moves the cursor of every owned line.
func (b *Lines) Advance() {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.Advance()
	}
}

// Home rewinds every owned line.
func (b *Lines) Home() {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.Home()
	}
}

// Reset clears every owned line.
func (b *Lines) Reset() {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.Reset()
	}
}

// SetMinPeriod assigns the base minperiod to every owned line.
func (b *Lines) SetMinPeriod(n int) {
	if !b.owned {
		return
	}

	for _, l := range b.lines {
		l.SetMinPeriod(n)
	}
}
