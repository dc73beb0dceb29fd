package playkit

import "fmt"

// ErrorSeverity classifies how bad a playback error is. Critical errors
// fail the readiness gate and require reconfiguration, recoverable ones
// are informational and playback may resume on its own.
type ErrorSeverity int

const (
	SeverityRecoverable ErrorSeverity = iota + 1
	SeverityCritical
)

func (s ErrorSeverity) String() string {
	switch s {
	case SeverityRecoverable:
		return "recoverable"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

type ErrorCategory string

const (
	CategoryPlayer  ErrorCategory = "player"
	CategoryEngine  ErrorCategory = "engine"
	CategoryNetwork ErrorCategory = "network"
	CategoryText    ErrorCategory = "text"
	CategoryPlugin  ErrorCategory = "plugin"
)

type ErrorCode string

const (
	ErrCodeNoEngineFound     ErrorCode = "NO_ENGINE_FOUND_TO_PLAY_THE_SOURCE"
	ErrCodeNoSourceProvided  ErrorCode = "NO_SOURCE_PROVIDED"
	ErrCodeLoadFailed        ErrorCode = "LOAD_FAILED"
	ErrCodePlayFailed        ErrorCode = "PLAY_FAILED"
	ErrCodeEngineError       ErrorCode = "ENGINE_ERROR"
	ErrCodePluginLoadFailed  ErrorCode = "PLUGIN_LOAD_FAILED"
	ErrCodeCaptionsLoadError ErrorCode = "CAPTIONS_LOAD_ERROR"
)

// Error is the payload of every error event dispatched on the bus.
// Failures never cross the public boundary as anything else.
type Error struct {
	Severity ErrorSeverity
	Category ErrorCategory
	Code     ErrorCode
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsCritical() bool {
	return e.Severity == SeverityCritical
}

func NewCriticalError(category ErrorCategory, code ErrorCode, message string, cause error) *Error {
	return &Error{Severity: SeverityCritical, Category: category, Code: code, Message: message, Cause: cause}
}

func NewRecoverableError(category ErrorCategory, code ErrorCode, message string, cause error) *Error {
	return &Error{Severity: SeverityRecoverable, Category: category, Code: code, Message: message, Cause: cause}
}
