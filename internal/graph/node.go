// Package graph implements the computation graph: nodes that own lines and
// compute them from the lines of their inputs, the operator-derived nodes
// that make expressions over nodes possible, and the resolver that orders a
// graph and infers every node's warm-up period.
//
// Every node has two interchangeable execution paths. Incrementally, the
// node is dispatched once per bar of its clock: WarmUp while fewer than
// minperiod bars exist, Seed exactly on the bar where the count reaches
// minperiod, and Step afterwards. In batch mode Batch(start, end) fills the
// whole index range at once. Both paths must write identical values.
//
// Bar counts start at the node's origin: the first bar of its clock on which
// every input is counting. Nodes fed only by sources start at bar 0; a node
// fed through a Coupler starts once the coupled source is ready, which is
// only known from the data. FirstBar is origin+minperiod-1.
package graph

import (
	"time"

	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/internal/params"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Event is what happened to a clock on the current synchronization step.
type Event int

const (
	// EventNone means the clock did not move.
	EventNone Event = iota
	// EventNewBar means a new bar was appended.
	EventNewBar
	// EventUpdate means the current bar was revised in place (replay).
	EventUpdate
)

func (e Event) String() string {
	switch e {
	case EventNewBar:
		return "new_bar"
	case EventUpdate:
		return "update"
	default:
		return "none"
	}
}

// Clock is the bar sequence a node is computed on.
type Clock interface {
	Name() string
	// Len is the number of bars delivered so far.
	Len() int
	// Size is the number of bars known in total; equal to Len while streaming
	// unless the source announced its length.
	Size() int
	// TimeAt returns the timestamp of bar i.
	TimeAt(i int) time.Time
	Event() Event
}

// Formula is the computation of a node. bar is an absolute index on the
// node's clock.
type Formula interface {
	WarmUp(bar int)
	Seed(bar int)
	Step(bar int)
	Batch(start, end int)
}

// Node is a vertex of the computation graph. Concrete nodes embed *Base.
type Node interface {
	Name() string
	Lines() *line.Lines
	Inputs() []Node
	Clock() Clock
	Lookback() int
	MinPeriod() int
	Ready() bool
	core() *Base
}

// Spec describes a node to NewBase.
type Spec struct {
	Name string
	// Lines declares owned output lines. Ignored when Bound is set.
	Lines *line.Declaration
	// Bound exposes lines owned by other nodes (composites, references).
	Bound  *line.Lines
	Inputs []Node
	// Lookback is the number of bars beyond its inputs' warm-up the node needs.
	Lookback int
	Formula  Formula
	// Clock overrides the clock inherited from the first input.
	Clock Clock
	// MinPeriod overrides the default max(input minperiods)+lookback rule.
	// It receives the coupled inputs.
	MinPeriod func(inputs []Node) int
	Params    *params.Set
	// Source marks nodes that fill their own lines (data feeds).
	Source bool
}

// Base carries the graph bookkeeping shared by all nodes.
type Base struct {
	name      string
	lines     *line.Lines
	inputs    []Node
	lookback  int
	formula   Formula
	clock     Clock
	minFn     func(inputs []Node) int
	params    *params.Set
	source    bool
	minperiod int
	origin    int
	// ownOrigin marks nodes that set origin themselves (couplers).
	ownOrigin   bool
	precomputed bool
}

// NewBase validates spec and builds the node base. Inputs computed on a
// different clock than the node are wrapped in a Coupler.
func NewBase(spec Spec) (*Base, error) {
	if spec.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "node name cannot be empty")
	}

	for i, in := range spec.Inputs {
		if in == nil {
			return nil, errors.Newf(errors.ErrCodeNilInput, "%s: input %d is nil", spec.Name, i)
		}
	}

	if spec.Lookback < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "%s: lookback must be non-negative, got %d", spec.Name, spec.Lookback)
	}

	b := &Base{
		name:      spec.Name,
		lookback:  spec.Lookback,
		formula:   spec.Formula,
		clock:     spec.Clock,
		minFn:     spec.MinPeriod,
		params:    spec.Params,
		source:    spec.Source,
		minperiod: 1,
		origin:    -1,
	}

	if b.source {
		b.origin = 0
	}

	switch {
	case spec.Bound != nil:
		b.lines = spec.Bound
	case spec.Lines != nil:
		b.lines = line.NewLines(spec.Lines)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "%s: node declares no lines", spec.Name)
	}

	if b.clock == nil && len(spec.Inputs) > 0 {
		b.clock = spec.Inputs[0].Clock()
	}

	if b.clock == nil && !b.source {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "%s: node has no clock", spec.Name)
	}

	b.inputs = make([]Node, len(spec.Inputs))
	for i, in := range spec.Inputs {
		if in.Clock() != b.clock {
			b.inputs[i] = newCoupler(in, b.clock)
		} else {
			b.inputs[i] = in
		}
	}

	return b, nil
}

func (b *Base) core() *Base {
	return b
}

// Name returns the node name.
func (b *Base) Name() string {
	return b.name
}

// Lines returns the node outputs.
func (b *Base) Lines() *line.Lines {
	return b.lines
}

// Line returns the i-th output line.
func (b *Base) Line(i int) *line.Line {
	return b.lines.At(i)
}

// Inputs returns the inputs as seen by the node, couplers included.
func (b *Base) Inputs() []Node {
	return append([]Node(nil), b.inputs...)
}

// Input returns the i-th input.
func (b *Base) Input(i int) Node {
	return b.inputs[i]
}

// Clock returns the clock the node is computed on.
func (b *Base) Clock() Clock {
	return b.clock
}

// Params returns the resolved parameters, nil for parameterless nodes.
func (b *Base) Params() *params.Set {
	return b.params
}

// Lookback returns the node's own extra warm-up beyond its inputs.
func (b *Base) Lookback() int {
	return b.lookback
}

// ExtendLookback raises the node's own lookback by n. It only affects graphs
// resolved afterwards, and never lowers the minperiod.
func (b *Base) ExtendLookback(n int) {
	if n > 0 {
		b.lookback += n
	}
}

// MinPeriod returns the resolved warm-up period: the first bar count, from
// the origin on, at which the node's outputs are defined.
func (b *Base) MinPeriod() int {
	return b.minperiod
}

// Ready reports whether the node's clock has delivered minperiod bars
// since its origin.
func (b *Base) Ready() bool {
	return b.clock != nil && b.origin >= 0 && b.clock.Len()-b.origin >= b.minperiod
}

// Origin returns the first bar of the node's clock its warm-up counts from,
// or -1 while it is not known yet.
func (b *Base) Origin() int {
	return b.origin
}

// FirstBar returns the index of the first defined output bar, or -1 while
// the origin is not known.
func (b *Base) FirstBar() int {
	if b.origin < 0 {
		return -1
	}

	return b.origin + b.minperiod - 1
}

// updateOrigin derives the origin from the inputs once all of them know
// theirs. Inputs share the node's clock, couplers included.
func (b *Base) updateOrigin() {
	if b.origin >= 0 || b.ownOrigin {
		return
	}

	o := 0
	for _, in := range b.inputs {
		io := in.core().origin
		if io < 0 {
			return
		}

		o = max(o, io)
	}

	b.origin = o
}

// resolveMinPeriod computes the node's minperiod from already-resolved inputs.
func (b *Base) resolveMinPeriod() {
	switch {
	case b.source:
		b.minperiod = 1
	case b.minFn != nil:
		b.minperiod = b.minFn(b.inputs)
	default:
		b.minperiod = InputMinPeriod(b.inputs) + b.lookback
	}

	if b.minperiod < 1 {
		b.minperiod = 1
	}

	b.lines.SetMinPeriod(b.minperiod)
}

// InputMinPeriod returns the largest warm-up of any line of any input, or 1
// for a node without inputs.
func InputMinPeriod(inputs []Node) int {
	mp := 1
	for _, in := range inputs {
		for i := range in.Lines().Len() {
			if v := in.Lines().At(i).MinPeriod(); v > mp {
				mp = v
			}
		}
	}

	return mp
}

// step runs one incremental dispatch for the current synchronization step.
func (b *Base) step() {
	if b.source || b.clock == nil {
		return
	}

	ev := b.clock.Event()
	if ev == EventNone {
		return
	}

	if b.precomputed {
		if ev == EventNewBar {
			b.lines.Advance()
		}

		return
	}

	if ev == EventNewBar {
		b.lines.Forward()
	}

	b.updateOrigin()

	if b.formula == nil {
		return
	}

	bar := b.clock.Len() - 1
	n := bar - b.origin + 1

	switch {
	case b.origin < 0 || n < b.minperiod:
		b.formula.WarmUp(bar)
	case n == b.minperiod:
		b.formula.Seed(bar)
	default:
		b.formula.Step(bar)
	}
}

// batch computes [start, end) on preallocated lines.
func (b *Base) batch(start, end int) {
	if b.source || b.clock == nil {
		return
	}

	b.lines.Extend(end)
	b.precomputed = true
	b.updateOrigin()

	if b.formula != nil && end > start {
		b.formula.Batch(start, end)
	}
}

func (b *Base) home() {
	if b.source {
		return
	}

	b.lines.Home()
}

func (b *Base) reset() {
	b.precomputed = false

	if b.source {
		return
	}

	b.origin = -1

	b.lines.Reset()
}

// Loop is the reference batch implementation: it calls the incremental
// routines of f for every bar in [start, end), choosing the routine from
// first, the node's FirstBar, exactly as incremental dispatch does. A
// negative first warms up every bar.
func Loop(f Formula, first, start, end int) {
	for bar := start; bar < end; bar++ {
		switch {
		case first < 0 || bar < first:
			f.WarmUp(bar)
		case bar == first:
			f.Seed(bar)
		default:
			f.Step(bar)
		}
	}
}
