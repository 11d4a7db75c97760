package frameble

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound is returned (wrapped in a *ConnectionError) when no
// matching Frame device is discovered within the connect timeout.
var ErrDeviceNotFound = errors.New("no matching Frame device found")

// ErrResponseTimeout is returned (wrapped in a *TransportError) when the
// device does not answer an awaited request in time.
var ErrResponseTimeout = errors.New("device did not respond")

// ConnectionError reports a failure to establish a session: no device
// matched, or the transport rejected the connection or setup steps.
type ConnectionError struct {
	Device string // requested name, or address once known
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Device == "" {
		return fmt.Sprintf("frameble: connect: %v", e.Err)
	}
	return fmt.Sprintf("frameble: connect %s: %v", e.Device, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidStateError reports an operation attempted in the wrong lifecycle
// state, e.g. a second Connect without an intervening Disconnect.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("frameble: cannot %s while %s", e.Op, e.State)
}

// TransportError reports a write or notify failure during an established
// session.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("frameble: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
