package upsert

import (
	"errors"
	"fmt"
)

/*
ErrorType represents the type of error that occurred during a conditional upload
*/
type ErrorType string

const (
	/*
		ErrorTypeValidation represents a malformed candidate or batch, raised before any I/O
	*/
	ErrorTypeValidation ErrorType = "validation"
	/*
		ErrorTypeProbe represents a metadata probe failure; only surfaced in strict mode
	*/
	ErrorTypeProbe ErrorType = "probe"
	/*
		ErrorTypeUpload represents a failed write
	*/
	ErrorTypeUpload ErrorType = "upload"
	/*
		ErrorTypeCanceled represents a batch cut short by its context
	*/
	ErrorTypeCanceled ErrorType = "canceled"
)

/*
Error represents an error that occurred while validating or uploading a
candidate. Index is the position of the candidate in its batch, or -1.
*/
type Error struct {
	Type        ErrorType
	Message     string
	OriginalErr error
	Index       int
	Key         string
}

/*
Error implements the error interface
*/
func (e *Error) Error() string {
	msg := e.Message

	switch {
	case e.Index >= 0 && e.Key != "":
		msg = fmt.Sprintf("%s (item %d, key %s)", msg, e.Index, e.Key)
	case e.Index >= 0:
		msg = fmt.Sprintf("%s (item %d)", msg, e.Index)
	case e.Key != "":
		msg = fmt.Sprintf("%s (key %s)", msg, e.Key)
	}

	if e.OriginalErr != nil {
		return fmt.Sprintf("%s error: %s - %v", e.Type, msg, e.OriginalErr)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

/*
Unwrap returns the original error
*/
func (e *Error) Unwrap() error {
	return e.OriginalErr
}

// NewError creates a new upsert error
func NewError(errType ErrorType, message string, originalErr error) *Error {
	return &Error{
		Type:        errType,
		Message:     message,
		OriginalErr: originalErr,
		Index:       -1,
	}
}

// WithIndex adds the batch position to the error
func (e *Error) WithIndex(index int) *Error {
	e.Index = index
	return e
}

// WithKey adds the object key to the error
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

func isType(err error, errType ErrorType) bool {
	var upsertErr *Error
	if !errors.As(err, &upsertErr) {
		return false
	}
	return upsertErr.Type == errType
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsProbeError checks if the error is a probe error
func IsProbeError(err error) bool {
	return isType(err, ErrorTypeProbe)
}

// IsUploadError checks if the error is an upload error
func IsUploadError(err error) bool {
	return isType(err, ErrorTypeUpload)
}

// IsCanceledError checks if the error is a cancellation error
func IsCanceledError(err error) bool {
	return isType(err, ErrorTypeCanceled)
}
