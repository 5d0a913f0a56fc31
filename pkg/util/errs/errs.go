package errs

import (
	"errors"
	"fmt"
)

// SilentError is an error wrapper type that silences an
// error and only logs it in the debug log.
//
// It is usually used to prevent spamming the default log
// when clients send invalid packets which cannot be read.
type SilentError struct{ error }

func (e *SilentError) Error() string {
	return e.error.Error()
}

func NewSilentErr(format string, a ...any) error {
	return &SilentError{fmt.Errorf(format, a...)}
}

func WrapSilent(wrappedErr error) error {
	return &SilentError{wrappedErr}
}

func (e *SilentError) Unwrap() error { return e.error }

// ProtocolError indicates the remote end violated the protocol.
// It is always fatal to the connection it occurred on.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol violation: " + e.Reason }

// NewProtocolErr formats a new fatal ProtocolError.
func NewProtocolErr(format string, a ...any) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, a...)}
}

// IsProtocolErr reports whether err is or wraps a ProtocolError.
func IsProtocolErr(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// see https://github.com/golang/go/issues/4373 for details
func IsConnClosedErr(err error) bool {
	return err != nil &&
		(err.Error() == "use of closed network connection" ||
			err.Error() == "read: connection reset by peer")
}
