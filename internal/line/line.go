// Package line implements the time-indexed buffers every computation node
// reads from and writes to.
//
// A Line is addressed relative to its cursor: Get(0) is the value at the
// current bar, Get(-1) the bar before it. Reads outside the data written so
// far return NaN rather than failing, and arithmetic on NaN yields NaN, so a
// node that is still warming up propagates NaN to every dependent without
// explicit checks.
package line

import "math"

// Line is an append-only series of float64 values with a movable cursor.
type Line struct {
	values    []float64
	idx       int
	minperiod int
	extension int
}

// New returns an empty line with its cursor before the first bar.
func New() *Line {
	return &Line{idx: -1, minperiod: 1}
}

// Get returns the value ago bars relative to the cursor (0 is the current bar,
// negative values are history). Out-of-range reads return NaN.
func (l *Line) Get(ago int) float64 {
	return l.At(l.idx + ago)
}

// At returns the value at absolute index i, or NaN when i is out of range.
func (l *Line) At(i int) float64 {
	if i < 0 || i >= len(l.values) {
		return math.NaN()
	}

	return l.values[i]
}

// Set writes the value of the current bar. It panics when the cursor has not
// been moved onto a bar yet.
func (l *Line) Set(v float64) {
	if l.idx < 0 || l.idx >= len(l.values) {
		panic("line: Set with cursor outside the buffer")
	}

	l.values[l.idx] = v
}

// SetAt writes the value at absolute index i. Used by batch routines.
func (l *Line) SetAt(i int, v float64) {
	l.values[i] = v
}

// Forward appends a NaN slot and moves the cursor onto it.
func (l *Line) Forward() {
	l.values = append(l.values, math.NaN())
	l.idx = len(l.values) - 1
}

// Extend grows the backing array to n NaN-filled slots without moving the cursor.
func (l *Line) Extend(n int) {
	for len(l.values) < n {
		l.values = append(l.values, math.NaN())
	}
}

// Advance moves the cursor one bar forward over a preallocated buffer.
// It reports false when the cursor is already on the last slot.
func (l *Line) Advance() bool {
	if l.idx+1 >= len(l.values) {
		return false
	}

	l.idx++

	return true
}

// Home moves the cursor back before the first bar, keeping the values.
func (l *Line) Home() {
	l.idx = -1
}

// Len returns the number of bars up to and including the cursor.
func (l *Line) Len() int {
	return l.idx + 1
}

// Size returns the length of the backing array.
func (l *Line) Size() int {
	return len(l.values)
}

// Cursor returns the absolute index of the current bar (-1 before the first bar).
func (l *Line) Cursor() int {
	return l.idx
}

// Slice returns the last size values ending at the cursor, NaN-padded at the
// front when fewer bars exist.
func (l *Line) Slice(size int) []float64 {
	out := make([]float64, size)
	for i := range size {
		out[i] = l.Get(i - size + 1)
	}

	return out
}

// Values returns a copy of the whole backing array.
func (l *Line) Values() []float64 {
	out := make([]float64, len(l.values))
	copy(out, l.values)

	return out
}

// MinPeriod returns the number of bars needed before Get(0) is valid.
func (l *Line) MinPeriod() int {
	return l.minperiod + l.extension
}

// SetMinPeriod sets the base warm-up requirement computed by the resolver.
func (l *Line) SetMinPeriod(n int) {
	if n < 1 {
		n = 1
	}

	l.minperiod = n
}

// ExtendMinPeriod raises the warm-up requirement of this line by n bars.
// Extensions accumulate and never lower the requirement.
func (l *Line) ExtendMinPeriod(n int) {
	if n > 0 {
		l.extension += n
	}
}

// Reset drops all values and moves the cursor before the first bar.
func (l *Line) Reset() {
	l.values = l.values[:0]
	l.idx = -1
}
