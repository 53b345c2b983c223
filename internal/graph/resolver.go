package graph

import (
	"strings"

	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

// Graph is a resolved computation graph: every node reachable from the roots,
// in dependency order (inputs before dependents), with minperiods assigned.
type Graph struct {
	roots []Node
	nodes []Node
}

// Resolve walks every node reachable from roots through their inputs, orders
// them topologically and computes each node's minperiod bottom-up as
// max(input minperiods) + lookback. A dependency cycle is an error.
//
// Resolve may be called again after lookbacks changed; minperiods are
// recomputed from scratch so construction order never matters.
func Resolve(roots ...Node) (*Graph, error) {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[*Base]int)
	g := &Graph{roots: append([]Node(nil), roots...)}

	var path []string

	var visit func(n Node) error
	visit = func(n Node) error {
		b := n.core()

		switch state[b] {
		case done:
			return nil
		case visiting:
			return errors.Newf(errors.ErrCodeCycleDetected, "dependency cycle: %s -> %s",
				strings.Join(path, " -> "), n.Name())
		}

		state[b] = visiting
		path = append(path, n.Name())

		for _, in := range b.inputs {
			if err := visit(in); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[b] = done
		g.nodes = append(g.nodes, n)

		return nil
	}

	for i, r := range roots {
		if r == nil {
			return nil, errors.Newf(errors.ErrCodeNilInput, "resolve: root %d is nil", i)
		}

		if err := visit(r); err != nil {
			return nil, err
		}
	}

	for _, n := range g.nodes {
		n.core().resolveMinPeriod()
	}

	return g, nil
}

// Nodes returns the nodes in evaluation order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Roots returns the nodes the graph was resolved from.
func (g *Graph) Roots() []Node {
	return append([]Node(nil), g.roots...)
}

// MinPeriod returns the largest minperiod among the roots.
func (g *Graph) MinPeriod() int {
	mp := 0
	for _, r := range g.roots {
		if v := r.MinPeriod(); v > mp {
			mp = v
		}
	}

	return mp
}

// Flag returns one InsufficientDataError per node whose minperiod exceeds the
// number of bars its clock can provide. Flagged nodes stay in the graph and
// produce NaN for the whole run.
func (g *Graph) Flag() []*errors.InsufficientDataError {
	var flagged []*errors.InsufficientDataError

	for _, n := range g.nodes {
		c := n.Clock()
		if c == nil {
			continue
		}

		if mp := n.MinPeriod(); mp > c.Size() {
			flagged = append(flagged, errors.NewInsufficientDataError(n.Name(), c.Name(), mp, c.Size()))
		}
	}

	return flagged
}

// Step dispatches every node once for the current synchronization step, in
// dependency order. Nodes whose clock did not move are skipped. After
// RunBatch, Step only moves cursors over the precomputed values.
func (g *Graph) Step() {
	for _, n := range g.nodes {
		n.core().step()
	}
}

// RunBatch computes every node over the full size of its clock, in
// dependency order.
func (g *Graph) RunBatch() {
	for _, n := range g.nodes {
		b := n.core()
		if b.clock == nil {
			continue
		}

		b.batch(0, b.clock.Size())
	}
}

// RunBatchRange computes [start, end) for every node. All nodes must share a
// clock covering end bars; calling it over consecutive ranges is equivalent
// to one call over their union.
func (g *Graph) RunBatchRange(start, end int) {
	for _, n := range g.nodes {
		n.core().batch(start, end)
	}
}

// Home rewinds the cursors of all computed nodes so a precomputed graph can
// be replayed bar by bar. Sources rewind themselves.
func (g *Graph) Home() {
	for _, n := range g.nodes {
		n.core().home()
	}
}

// Reset clears all computed values so the graph can run again.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.core().reset()
	}
}
