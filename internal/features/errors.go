package features

import "fmt"

// ErrorKind classifies the errors returned by this package.
type ErrorKind string

const (
	// KindConfiguration reports an invalid parameter value.
	KindConfiguration ErrorKind = "configuration"

	// KindOutOfBounds reports geometry that would sample outside the surface.
	KindOutOfBounds ErrorKind = "out_of_bounds"

	// KindIncompatibleDescriptor reports descriptors of different bit lengths.
	KindIncompatibleDescriptor ErrorKind = "incompatible_descriptor"
)

// Error is the error type returned by every operation of the pipeline.
//
// Op names the failing operation (e.g. "detect", "match") and Message
// describes the offending value.
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
}

// Sentinel errors for use with errors.Is.
var (
	ErrConfiguration          = &Error{Kind: KindConfiguration}
	ErrOutOfBounds            = &Error{Kind: KindOutOfBounds}
	ErrIncompatibleDescriptor = &Error{Kind: KindIncompatibleDescriptor}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Is reports whether target is an *Error of the same kind. It lets the
// sentinel values match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func configError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Op: op, Message: fmt.Sprintf(format, args...)}
}

func boundsError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindOutOfBounds, Op: op, Message: fmt.Sprintf(format, args...)}
}

func incompatibleError(op, format string, args ...interface{}) error {
	return &Error{Kind: KindIncompatibleDescriptor, Op: op, Message: fmt.Sprintf(format, args...)}
}
