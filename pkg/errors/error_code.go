package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 102
	ErrCodeInvalidBar           ErrorCode = 103
	ErrCodeInvalidOrder         ErrorCode = 104

	// Data errors (200-299)
	ErrCodeNoNewData      ErrorCode = 200
	ErrCodeDataNotFound   ErrorCode = 201
	ErrCodeQueryFailed    ErrorCode = 202
	ErrCodeStaleBar       ErrorCode = 203
	ErrCodeDataParseError ErrorCode = 204

	// Strategy/registry errors (400-499)
	ErrCodeStrategyNotFound    ErrorCode = 400
	ErrCodeStrategyExists      ErrorCode = 401
	ErrCodeNameConflict        ErrorCode = 402
	ErrCodeStrategyInTrade     ErrorCode = 403
	ErrCodeStrategyNotInTrade  ErrorCode = 404
	ErrCodeUnknownStrategyType ErrorCode = 405

	// Trading errors (500-599)
	ErrCodeOrderFailed      ErrorCode = 500
	ErrCodePositionExists   ErrorCode = 501
	ErrCodePositionNotFound ErrorCode = 502
	ErrCodeOrderCloseFailed ErrorCode = 503
	ErrCodeExecutionTimeout ErrorCode = 504
	ErrCodeTradeLogFailed   ErrorCode = 505

	// Engine errors (600-699)
	ErrCodeEngineInitFailed  ErrorCode = 600
	ErrCodeEngineNotReady    ErrorCode = 601
	ErrCodeOracleUnavailable ErrorCode = 602
)
