// Package errors defines the coded errors of the backtesting engine.
//
// Every failure carries an ErrorCode whose hundreds digit names the stage of
// a run that raised it. Category maps a code back to that stage:
//
//	1xx validation  config files, node parameters, periods, timespans
//	2xx data        datasources, feeds, timestamp order, history export
//	3xx graph       indicator lookup, node wiring, line references, cycles
//	4xx strategy    loading, parameters and hook failures of a strategy
//	5xx broker      orders rejected at the broker boundary
//	6xx backtest    engine setup, modes and aborted runs
//	7xx analyzer    analyzer hook failures
//	8xx callback    lifecycle callback failures
//
// A node that cannot warm up on the data it is given is not a failure. The
// resolver reports it as an InsufficientDataError in the run result and the
// node's lines stay NaN.
//
//	err := errors.Newf(errors.ErrCodeUnknownParameter, "%s: unknown parameter %q", owner, name)
//	if errors.HasCode(err, errors.ErrCodeUnknownParameter) { ... }
//	log.Error("run failed", zap.Stringer("category", errors.CategoryOf(err)))
package errors

import (
	"errors"
	"fmt"
)

// Category is the stage of a run an error code belongs to.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryValidation
	CategoryData
	CategoryGraph
	CategoryStrategy
	CategoryBroker
	CategoryBacktest
	CategoryAnalyzer
	CategoryCallback
)

var categoryNames = [...]string{
	CategoryGeneral:    "general",
	CategoryValidation: "validation",
	CategoryData:       "data",
	CategoryGraph:      "graph",
	CategoryStrategy:   "strategy",
	CategoryBroker:     "broker",
	CategoryBacktest:   "backtest",
	CategoryAnalyzer:   "analyzer",
	CategoryCallback:   "callback",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "general"
	}

	return categoryNames[c]
}

// Category returns the stage the code belongs to. Codes outside the known
// ranges are general.
func (c ErrorCode) Category() Category {
	cat := Category(c / 100)
	if cat < CategoryGeneral || cat > CategoryCallback {
		return CategoryGeneral
	}

	return cat
}

// Error is a failure raised by the engine.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to cause. The cause stays reachable
// through errors.Is and errors.As.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Category returns the stage of the error's code.
func (e *Error) Category() Category {
	return e.Code.Category()
}

// GetCode returns the code of the outermost coded error in err's chain.
// Warm-up diagnostics report ErrCodeInsufficientData and anything else
// ErrCodeUnknown.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	if IsInsufficientDataError(err) {
		return ErrCodeInsufficientData
	}

	return ErrCodeUnknown
}

func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// CategoryOf returns the category of err's code.
func CategoryOf(err error) Category {
	return GetCode(err).Category()
}

// InsufficientDataError reports a node whose minperiod exceeds the number of
// bars its clock can deliver.
type InsufficientDataError struct {
	Node     string
	Clock    string
	Required int // the node's minperiod
	Actual   int // bars known on the clock
}

func NewInsufficientDataError(node, clock string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{Node: node, Clock: clock, Required: required, Actual: actual}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s needs %d bars, clock %s has %d", e.Node, e.Required, e.Clock, e.Actual)
}

func IsInsufficientDataError(err error) bool {
	var target *InsufficientDataError

	return errors.As(err, &target)
}
