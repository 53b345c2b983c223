package graph

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-lines/internal/line"
)

// Coupler re-samples a node computed on one clock onto another clock: on
// every bar of the target clock it carries the latest source value whose
// timestamp is not after the target bar. NewBase inserts couplers
// automatically for inputs on a foreign clock.
//
// Bar counts on two clocks are not comparable, so a coupler's minperiod is 1
// and its origin is the first target bar on which the source is ready.
// Dependents start their warm-up from there. Bars before it are NaN.
type Coupler struct {
	*Base
	src Node
	in  []*line.Line
	out []*line.Line
}

func newCoupler(src Node, target Clock) *Coupler {
	decl := src.Lines().Declaration()
	c := &Coupler{src: src}

	c.Base = &Base{
		name:      "coupler(" + src.Name() + ")",
		lines:     line.NewLines(decl),
		inputs:    []Node{src},
		formula:   c,
		clock:     target,
		minFn:     func([]Node) int { return 1 },
		minperiod: 1,
		origin:    -1,
		ownOrigin: true,
	}

	for i := range decl.Len() {
		c.in = append(c.in, src.Lines().At(i))
		c.out = append(c.out, c.Base.lines.At(i))
	}

	return c
}

// Source returns the coupled node.
func (c *Coupler) Source() Node {
	return c.src
}

func (c *Coupler) carry(bar int) {
	for k, out := range c.out {
		out.SetAt(bar, c.in[k].Get(0))
	}
}

func (c *Coupler) blank(bar int) {
	for _, out := range c.out {
		out.SetAt(bar, math.NaN())
	}
}

func (c *Coupler) WarmUp(bar int) {
	if !c.src.Ready() {
		c.blank(bar)

		return
	}

	c.origin = bar
	c.carry(bar)
}

func (c *Coupler) Seed(bar int) { c.carry(bar) }
func (c *Coupler) Step(bar int) { c.carry(bar) }

func (c *Coupler) Batch(start, end int) {
	srcClock := c.src.Clock()
	size := srcClock.Size()
	first := c.src.core().FirstBar()

	for bar := start; bar < end; bar++ {
		t := c.clock.TimeAt(bar)
		j := sort.Search(size, func(j int) bool { return srcClock.TimeAt(j).After(t) }) - 1

		if first < 0 || j < first {
			c.blank(bar)

			continue
		}

		if c.origin < 0 {
			c.origin = bar
		}

		for k, out := range c.out {
			out.SetAt(bar, c.in[k].At(j))
		}
	}
}
