package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidExecuteOrder  ErrorCode = 102
	ErrCodeInvalidOrder         ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeInvalidPeriod        ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidVersion       ErrorCode = 108
	ErrCodeUnknownParameter     ErrorCode = 109
	ErrCodeInsufficientInputs   ErrorCode = 110
	ErrCodeInvalidTimespan      ErrorCode = 111
	ErrCodeParameterNotDynamic  ErrorCode = 112

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203
	ErrCodeNonMonotonicData      ErrorCode = 204
	ErrCodeMarketDataParseFailed ErrorCode = 205
	ErrCodeWriteFailed           ErrorCode = 206

	// Graph and indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeCycleDetected          ErrorCode = 303
	ErrCodeNilInput               ErrorCode = 304
	ErrCodeLineNotFound           ErrorCode = 305

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeStrategyRuntimeError ErrorCode = 402
	ErrCodeUnsupportedStrategy  ErrorCode = 403
	ErrCodeVersionMismatch      ErrorCode = 404

	// Broker errors (500-599)
	ErrCodeOrderFailed       ErrorCode = 500
	ErrCodeBrokerUnavailable ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed   ErrorCode = 600
	ErrCodeBacktestConfigError  ErrorCode = 601
	ErrCodeBacktestNoFeeds      ErrorCode = 602
	ErrCodeBacktestNoDatasource ErrorCode = 603
	ErrCodeModeUnsupported      ErrorCode = 604
	ErrCodeRunAborted           ErrorCode = 605

	// Analyzer errors (700-799)
	ErrCodeAnalyzerFailed ErrorCode = 700

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
