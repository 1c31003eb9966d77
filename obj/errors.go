package obj

import "github.com/pkg/errors"

var (
	// ErrSkipObject marks objects that cannot be exported. The export goes on.
	ErrSkipObject = errors.New("object skipped")
	// ErrMalformedGroupName is returned when a blend group suffix is not an integer.
	ErrMalformedGroupName = errors.New("malformed blend group name")
	ErrSessionClosed      = errors.New("session closed")
)

func skip(reason string) error {
	return errors.Wrap(ErrSkipObject, reason)
}
