package st7735

import "errors"

var (
	// ErrDeviceNotFound is returned when the bus or a control line can't be resolved.
	ErrDeviceNotFound = errors.New("st7735: device not found")
	// ErrResourceExhausted is returned when the initialized panel can't be published.
	ErrResourceExhausted = errors.New("st7735: resource exhausted")
	// ErrPrecondition is returned when arguments fall outside what the panel supports.
	ErrPrecondition = errors.New("st7735: precondition violated")
	// ErrHalted is returned by drawing operations after Halt.
	ErrHalted = errors.New("st7735: halted")
	// ErrInitTable is returned for a malformed initialization command table.
	ErrInitTable = errors.New("st7735: malformed init table")
)

// TransportError reports a failed bus transfer or line change.
// The operation in progress is abandoned when it occurs.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "st7735: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
