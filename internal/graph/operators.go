package graph

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-lines/internal/line"
	"github.com/rxtech-lab/argo-lines/pkg/errors"
)

var valueLines = line.MustDeclare("value")

// Operator is a node applying an element-wise function to the primary lines
// of its operands. Its minperiod is the largest minperiod of those primary
// lines plus its shift (0 except for Delay). Bars before it are NaN.
type Operator struct {
	*Base
	operands []*line.Line
	out      *line.Line
	shift    int
	fn       func(x []float64) float64
	args     []float64
}

func newOperator(name string, shift int, fn func(x []float64) float64, operands ...Node) *Operator {
	for i, n := range operands {
		if n == nil {
			panic(errors.Newf(errors.ErrCodeNilInput, "%s: operand %d is nil", name, i))
		}
	}

	op := &Operator{shift: shift, fn: fn, args: make([]float64, len(operands))}

	base, err := NewBase(Spec{
		Name:     name,
		Lines:    valueLines,
		Inputs:   operands,
		Lookback: shift,
		Formula:  op,
		MinPeriod: func(inputs []Node) int {
			mp := 1
			for _, in := range inputs {
				mp = max(mp, in.Lines().Primary().MinPeriod())
			}

			return mp + shift
		},
	})
	if err != nil {
		panic(err)
	}

	op.Base = base
	for _, in := range base.inputs {
		op.operands = append(op.operands, in.Lines().Primary())
	}

	op.out = base.lines.Primary()

	return op
}

func (o *Operator) eval(bar int) {
	for i, l := range o.operands {
		o.args[i] = l.At(bar - o.shift)
	}

	o.out.SetAt(bar, o.fn(o.args))
}

func (o *Operator) WarmUp(bar int) { o.out.SetAt(bar, math.NaN()) }
func (o *Operator) Seed(bar int)   { o.eval(bar) }
func (o *Operator) Step(bar int)   { o.eval(bar) }

func (o *Operator) Batch(start, end int) {
	first := o.FirstBar()
	if first < 0 {
		return
	}

	for bar := max(start, first); bar < end; bar++ {
		o.eval(bar)
	}
}

func nodeName(n Node) string {
	if n == nil {
		return "<nil>"
	}

	return n.Name()
}

func opName(op string, nodes ...Node) string {
	name := op + "("
	for i, n := range nodes {
		if i > 0 {
			name += ","
		}

		name += nodeName(n)
	}

	return name + ")"
}

// Combine builds a binary operator node computing fn(a, b) bar by bar.
func Combine(name string, a, b Node, fn func(x, y float64) float64) *Operator {
	return newOperator(name, 0, func(x []float64) float64 { return fn(x[0], x[1]) }, a, b)
}

// Apply builds a unary operator node computing fn(a) bar by bar.
func Apply(name string, a Node, fn func(x float64) float64) *Operator {
	return newOperator(name, 0, func(x []float64) float64 { return fn(x[0]) }, a)
}

// Add returns a + b.
func Add(a, b Node) *Operator {
	return Combine(opName("add", a, b), a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a - b.
func Sub(a, b Node) *Operator {
	return Combine(opName("sub", a, b), a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a * b.
func Mul(a, b Node) *Operator {
	return Combine(opName("mul", a, b), a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a / b with IEEE semantics: x/0 is ±Inf and 0/0 is NaN.
func Div(a, b Node) *Operator {
	return Combine(opName("div", a, b), a, b, func(x, y float64) float64 { return x / y })
}

// DivSafe returns a / b, or zero when b is 0 and a is finite.
func DivSafe(a, b Node, zero float64) *Operator {
	return Combine(opName("divsafe", a, b), a, b, func(x, y float64) float64 {
		if y == 0 && !math.IsNaN(x) {
			return zero
		}

		return x / y
	})
}

// Max returns the larger of a and b; NaN if either is NaN.
func Max(a, b Node) *Operator {
	return Combine(opName("max", a, b), a, b, func(x, y float64) float64 {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.NaN()
		}

		return math.Max(x, y)
	})
}

// Min returns the smaller of a and b; NaN if either is NaN.
func Min(a, b Node) *Operator {
	return Combine(opName("min", a, b), a, b, func(x, y float64) float64 {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.NaN()
		}

		return math.Min(x, y)
	})
}

func compare(name string, a, b Node, fn func(x, y float64) bool) *Operator {
	return Combine(name, a, b, func(x, y float64) float64 {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.NaN()
		}

		if fn(x, y) {
			return 1
		}

		return 0
	})
}

// Gt returns 1 where a > b, 0 otherwise, NaN while either operand is undefined.
func Gt(a, b Node) *Operator {
	return compare(opName("gt", a, b), a, b, func(x, y float64) bool { return x > y })
}

// Lt returns 1 where a < b.
func Lt(a, b Node) *Operator {
	return compare(opName("lt", a, b), a, b, func(x, y float64) bool { return x < y })
}

// Ge returns 1 where a >= b.
func Ge(a, b Node) *Operator {
	return compare(opName("ge", a, b), a, b, func(x, y float64) bool { return x >= y })
}

// Le returns 1 where a <= b.
func Le(a, b Node) *Operator {
	return compare(opName("le", a, b), a, b, func(x, y float64) bool { return x <= y })
}

// AddScalar returns a + c.
func AddScalar(a Node, c float64) *Operator {
	return Apply(fmt.Sprintf("add(%s,%g)", nodeName(a), c), a, func(x float64) float64 { return x + c })
}

// MulScalar returns a * c.
func MulScalar(a Node, c float64) *Operator {
	return Apply(fmt.Sprintf("mul(%s,%g)", nodeName(a), c), a, func(x float64) float64 { return x * c })
}

// Abs returns |a|.
func Abs(a Node) *Operator {
	return Apply(opName("abs", a), a, math.Abs)
}

// Neg returns -a.
func Neg(a Node) *Operator {
	return Apply(opName("neg", a), a, func(x float64) float64 { return -x })
}

// Delay returns a shifted n bars into the past: Delay(a, n) at bar i is a at
// bar i-n. Its minperiod is a's minperiod plus n. Forward shifts would read
// future bars and are rejected.
func Delay(a Node, n int) (*Operator, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "delay: shift must be non-negative, got %d", n)
	}

	if a == nil {
		return nil, errors.New(errors.ErrCodeNilInput, "delay: operand is nil")
	}

	return newOperator(fmt.Sprintf("delay(%s,%d)", a.Name(), n), n, func(x []float64) float64 { return x[0] }, a), nil
}
