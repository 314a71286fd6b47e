package badges

import (
	"errors"
	"fmt"
)

// ErrorCode classifies why a row could not be decoded.
type ErrorCode string

const (
	// CodeRawRecord means the raw row does not have exactly the crate_id,
	// badge_type and attributes columns.
	CodeRawRecord ErrorCode = "RAW_RECORD"

	// CodeOwnerKey means crate_id is not a valid crate key.
	CodeOwnerKey ErrorCode = "OWNER_KEY"

	// CodeAttributes means the attribute blob is not a JSON object of
	// string values, so not even the Other kind can hold it.
	CodeAttributes ErrorCode = "ATTRIBUTES"
)

// DecodeError is returned by Decode and FromRecord. Use errors.Is with
// ErrRawRecord, ErrOwnerKey or ErrAttributes to branch on the code.
type DecodeError struct {
	Code ErrorCode

	// Field is the column at fault, if one can be named.
	Field string

	Err error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("badges: %s", e.Code)
	case e.Field != "":
		return fmt.Sprintf("badges: %s %s: %v", e.Code, e.Field, e.Err)
	default:
		return fmt.Sprintf("badges: %s: %v", e.Code, e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches a sentinel DecodeError (one with no wrapped error) by code.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	return ok && t.Err == nil && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrRawRecord  = &DecodeError{Code: CodeRawRecord}
	ErrOwnerKey   = &DecodeError{Code: CodeOwnerKey}
	ErrAttributes = &DecodeError{Code: CodeAttributes}
)

// Causes wrapped by an ErrAttributes failure.
var (
	ErrNotObject          = errors.New("attributes are not a JSON object")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrNonStringAttribute = errors.New("attribute value is not a string")
	ErrInvalidUTF8        = errors.New("attributes are not valid UTF-8")
)
