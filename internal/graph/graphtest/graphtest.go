// Package graphtest drives computation graphs over in-memory series so node
// implementations can be checked in both execution modes.
package graphtest

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-lines/internal/graph"
	"github.com/rxtech-lab/argo-lines/internal/line"
)

// Epoch is the timestamp of the first bar of every Source.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// OHLCV is the declaration used by multi-column sources; it matches the
// line names of data feeds.
var OHLCV = line.MustDeclare("open", "high", "low", "close", "volume")

// Source is a source node and clock over fixed columns, one bar per minute
// unless timestamps are given.
type Source struct {
	*graph.Base
	name    string
	columns [][]float64
	times   []time.Time
	n       int
	event   graph.Event
}

// NewSeries returns a single-line source named "close".
func NewSeries(name string, values ...float64) *Source {
	return NewSource(name, line.MustDeclare("close"), values)
}

// NewOHLC returns a source with open, high, low, close and volume lines.
// Missing volume defaults to zero.
func NewOHLC(name string, open, high, low, closes []float64) *Source {
	return NewSource(name, OHLCV, open, high, low, closes, make([]float64, len(closes)))
}

// NewSource returns a source with one column per declared line.
func NewSource(name string, decl *line.Declaration, columns ...[]float64) *Source {
	s := &Source{name: name, columns: columns}

	size := 0
	if len(columns) > 0 {
		size = len(columns[0])
	}

	s.times = make([]time.Time, size)
	for i := range s.times {
		s.times[i] = Epoch.Add(time.Duration(i) * time.Minute)
	}

	base, err := graph.NewBase(graph.Spec{Name: name, Lines: decl, Clock: s, Source: true})
	if err != nil {
		panic(err)
	}

	s.Base = base

	return s
}

// WithTimes replaces the default timestamps.
func (s *Source) WithTimes(times ...time.Time) *Source {
	s.times = times

	return s
}

func (s *Source) Name() string { return s.name }

func (s *Source) Len() int { return s.n }

func (s *Source) Size() int { return len(s.times) }

func (s *Source) TimeAt(i int) time.Time {
	if i < 0 || i >= len(s.times) {
		return time.Time{}
	}

	return s.times[i]
}

func (s *Source) Event() graph.Event { return s.event }

// Next delivers the next bar incrementally. It reports false once exhausted.
func (s *Source) Next() bool {
	if s.n >= len(s.times) {
		s.event = graph.EventNone

		return false
	}

	lines := s.Lines()
	lines.Forward()

	for k := range lines.Len() {
		lines.At(k).Set(s.columns[k][s.n])
	}

	s.n++
	s.event = graph.EventNewBar

	return true
}

// Peek returns the timestamp of the next bar.
func (s *Source) Peek() (time.Time, bool) {
	if s.n >= len(s.times) {
		return time.Time{}, false
	}

	return s.times[s.n], true
}

// Idle marks the source as not moving on the current step.
func (s *Source) Idle() {
	s.event = graph.EventNone
}

// Preload loads every bar at once for batch runs.
func (s *Source) Preload() {
	lines := s.Lines()
	lines.Extend(len(s.times))

	for k := range lines.Len() {
		for i, v := range s.columns[k] {
			lines.At(k).SetAt(i, v)
		}
	}

	s.n = len(s.times)
}

// Home rewinds a preloaded source for bar-by-bar replay.
func (s *Source) Home() {
	s.Lines().Home()
	s.n = 0
	s.event = graph.EventNone
}

// Advance moves a preloaded source one bar forward.
func (s *Source) Advance() bool {
	if s.n >= len(s.times) {
		s.event = graph.EventNone

		return false
	}

	s.Lines().Advance()
	s.n++
	s.event = graph.EventNewBar

	return true
}

// Builder constructs the node under test on top of src.
type Builder func(src *Source) (graph.Node, error)

// Result holds the values of every line of the node under test.
type Result struct {
	Node   graph.Node
	Values map[string][]float64
}

func collect(n graph.Node) Result {
	r := Result{Node: n, Values: make(map[string][]float64)}
	decl := n.Lines().Declaration()

	for i, name := range decl.Names() {
		r.Values[name] = n.Lines().At(i).Values()
	}

	return r
}

// Incremental builds the node over a fresh source and drives it bar by bar.
func Incremental(src *Source, build Builder) (Result, error) {
	n, err := build(src)
	if err != nil {
		return Result{}, err
	}

	g, err := graph.Resolve(n)
	if err != nil {
		return Result{}, err
	}

	for src.Next() {
		g.Step()
	}

	return collect(n), nil
}

// Batch builds the node over a fresh source and computes it in one pass.
func Batch(src *Source, build Builder) (Result, error) {
	return Chunked(src, build)
}

// Chunked computes the node in batch mode over consecutive ranges split at
// the given bar indices.
func Chunked(src *Source, build Builder, splits ...int) (Result, error) {
	n, err := build(src)
	if err != nil {
		return Result{}, err
	}

	g, err := graph.Resolve(n)
	if err != nil {
		return Result{}, err
	}

	src.Preload()

	start := 0
	for _, k := range append(splits, src.Size()) {
		g.RunBatchRange(start, k)
		start = k
	}

	return collect(n), nil
}

// FirstValid returns the index of the first non-NaN value, or -1.
func FirstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}

	return -1
}

// Equal reports whether a and b are equal element-wise, treating NaN as equal
// to NaN and allowing a relative tolerance.
func Equal(a, b []float64, tolerance float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		x, y := a[i], b[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			if math.IsNaN(x) != math.IsNaN(y) {
				return false
			}

			continue
		}

		if x == y {
			continue
		}

		scale := math.Max(math.Abs(x), math.Abs(y))
		if math.Abs(x-y) > tolerance*scale {
			return false
		}
	}

	return true
}
