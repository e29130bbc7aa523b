package errors

// ErrorDetails represents detailed information about an error.
type ErrorDetails struct {
	// Message (required) is the human readable error message.
	Message string

	// Code (required) is one of the ErrorCode values, as a string.
	Code string

	// Field (optional) is the operation or field the error occurred on.
	Field string

	// Object (optional) is the related object the error occurred on, if any.
	Object interface{}

	// Err (optional) is the underlying cause.
	Err error
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// NewErrorDetailsWithCause creates a new ErrorDetails struct that keeps the cause.
func NewErrorDetailsWithCause(message string, code ErrorCode, field string, cause error) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code.String(),
		Field:   field,
		Err:     cause,
	}
}

// Error is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ErrorDetails) Unwrap() error {
	return e.Err
}

// ErrorCodeEquals checks whether a given `error` has a specific code.
func ErrorCodeEquals(err error, code string) bool {
	errDetails, ok := err.(*ErrorDetails)
	if !ok {
		return false
	}

	return errDetails.Code == code
}
