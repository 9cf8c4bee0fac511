package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Decoding errors. Decoding fails only on these structural problems; unknown
// fields and unknown enum numbers are never errors.
var (
	// ErrTruncatedInput is returned when the buffer ends inside a tag, a
	// varint, a fixed-width value or a length-delimited payload.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrMalformedVarint is returned for varints that no encoder produces.
	ErrMalformedVarint = errors.New("malformed varint")
	// ErrVarintOverflow is a malformed varint longer than 10 bytes or whose
	// tenth byte carries more than the top bit of a uint64.
	ErrVarintOverflow = fmt.Errorf("%w: overflows 64 bits", ErrMalformedVarint)
	// ErrInvalidTag is returned for field number 0, field numbers above
	// MaxFieldNumber and the group wire types 3, 4, 6 and 7.
	ErrInvalidTag = errors.New("invalid tag")
)

// Encoding errors, always wrapped in a FieldError.
var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrOutOfRange   = errors.New("value out of range")
	ErrUnknownEnum  = errors.New("unknown enum name")
	ErrUnknownField = errors.New("unknown field")
)

// FieldError represents an encoding/normalization error with a field path.
type FieldError struct {
	FieldPath []string // e.g., ["inputs", "0", "prev_out", "txid"]
	Err       error    // underlying error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}

	return fmt.Sprintf("error at proto path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for compatibility.
func (e *FieldError) Is(target error) bool {
	_, ok := target.(*FieldError)
	return ok
}

// Path returns the dotted field path.
func (e *FieldError) Path() string {
	return strings.Join(e.FieldPath, ".")
}

// wrapWithField wraps an error with a field name
func wrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}

func typeMismatch(want string, got interface{}) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, want, got)
}
