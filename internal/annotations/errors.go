package annotations

import "fmt"

// ErrorCode represents different types of annotation errors
type ErrorCode int

const (
	SyntaxErrorCode ErrorCode = iota
	ValidationErrorCode
)

// String returns the string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case SyntaxErrorCode:
		return "SyntaxError"
	case ValidationErrorCode:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// Error is an annotation that could not be parsed or is not valid for its kind
type Error struct {
	Code    ErrorCode
	Loc     SourceLocation
	Message string
	Hint    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Loc, e.Code, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

// Location returns where the error occurred
func (e *Error) Location() SourceLocation { return e.Loc }

// Suggestion returns a hint on fixing the annotation
func (e *Error) Suggestion() string { return e.Hint }
