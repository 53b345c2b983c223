package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeUnknownParameter, "%s: unknown parameter %q", "rsi", "perod")
	suite.Equal(ErrCodeUnknownParameter, err.Code)
	suite.Equal(`rsi: unknown parameter "perod"`, err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("query failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "no bars for feed: %s", "spy")
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("no bars for feed: spy", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal("[200] data not found: underlying error", err.Error())
	suite.True(errors.Is(err, cause))
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal(cause, errors.Unwrap(err))
}

func (suite *ErrorTestSuite) TestGetCode() {
	suite.Equal(ErrCodeCycleDetected, GetCode(New(ErrCodeCycleDetected, "cycle")))

	cause := New(ErrCodeUnknownParameter, "unknown parameter")
	err := Wrap(ErrCodeIndicatorCalculation, "construct rsi", cause)
	suite.Equal(ErrCodeIndicatorCalculation, GetCode(err))

	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeNonMonotonicData, "timestamps went backwards")
	suite.True(HasCode(err, ErrCodeNonMonotonicData))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := Wrap(ErrCodeStrategyRuntimeError, "strategy step", New(ErrCodeInvalidParameter, "invalid parameter"))
	var inner *Error
	suite.True(errors.As(err.Cause, &inner))
	suite.Equal(ErrCodeInvalidParameter, inner.Code)
}

func (suite *ErrorTestSuite) TestCategories() {
	cases := map[ErrorCode]Category{
		ErrCodeUnknown:              CategoryGeneral,
		ErrCodeUnknownParameter:     CategoryValidation,
		ErrCodeNonMonotonicData:     CategoryData,
		ErrCodeCycleDetected:        CategoryGraph,
		ErrCodeStrategyRuntimeError: CategoryStrategy,
		ErrCodeOrderFailed:          CategoryBroker,
		ErrCodeRunAborted:           CategoryBacktest,
		ErrCodeAnalyzerFailed:       CategoryAnalyzer,
		ErrCodeCallbackFailed:       CategoryCallback,
		ErrorCode(4200):             CategoryGeneral,
	}

	for code, expected := range cases {
		suite.Equal(expected, code.Category(), "code %d", code)
	}

	suite.Equal("graph", CategoryGraph.String())
	suite.Equal("general", Category(42).String())
	suite.Equal(CategoryData, New(ErrCodeWriteFailed, "write").Category())
	suite.Equal(CategoryBacktest, CategoryOf(Wrap(ErrCodeRunAborted, "run", errors.New("canceled"))))
	suite.Equal(CategoryGeneral, CategoryOf(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(300), ErrCodeIndicatorNotFound)
	suite.Equal(ErrorCode(400), ErrCodeStrategyNotLoaded)
	suite.Equal(ErrorCode(500), ErrCodeOrderFailed)
	suite.Equal(ErrorCode(600), ErrCodeBacktestInitFailed)
	suite.Equal(ErrorCode(700), ErrCodeAnalyzerFailed)
	suite.Equal(ErrorCode(800), ErrCodeCallbackFailed)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError("rsi", "spy", 15, 10)
	suite.Equal(15, err.Required)
	suite.Equal(10, err.Actual)
	suite.Equal("rsi", err.Node)
	suite.Equal("rsi needs 15 bars, clock spy has 10", err.Error())
	suite.True(HasCode(err, ErrCodeInsufficientData))
	suite.Equal(CategoryValidation, CategoryOf(err))
}

func (suite *ErrorTestSuite) TestIsInsufficientDataError() {
	suite.True(IsInsufficientDataError(NewInsufficientDataError("rsi", "spy", 15, 10)))
	suite.True(IsInsufficientDataError(Wrap(ErrCodeRunAborted, "run", NewInsufficientDataError("rsi", "spy", 15, 10))))
	suite.False(IsInsufficientDataError(errors.New("standard error")))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.False(IsInsufficientDataError(nil))
}
