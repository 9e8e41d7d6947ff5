package engine

import "fmt"

// ErrorCode classifies why a path was rejected
type ErrorCode string

const (
	CodeMalformedTile       ErrorCode = "malformed_tile"
	CodeMalformedPath       ErrorCode = "malformed_path_expression"
	CodeInvalidStart        ErrorCode = "invalid_start"
	CodeBlockedDestination  ErrorCode = "blocked_destination"
	CodeIllegalTransition   ErrorCode = "illegal_transition"
	CodeMisplacedCollect    ErrorCode = "misplaced_collect"
	CodeItemUnavailable     ErrorCode = "item_unavailable"
	CodeClearDenied         ErrorCode = "clear_denied"
	CodeIncompleteObjective ErrorCode = "incomplete_objective"
)

// ValidationError is a rule violation found while replaying a path. Step is
// the 1-based index of the offending token, or 0 when the failure is not tied
// to a token.
type ValidationError struct {
	Code    ErrorCode
	Step    int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(code ErrorCode, step int, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Step: step, Message: fmt.Sprintf(format, args...)}
}
