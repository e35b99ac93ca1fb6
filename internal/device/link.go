package device

import (
	"context"
	"errors"
	"fmt"
)

// Link performs one request/response exchange with the physical ESP32. A
// Link is a stateless adapter: it holds no state between calls, makes a
// single bounded attempt and never retries internally. Retry policy belongs
// to the caller.
type Link interface {
	// QueryStatus asks the device for its current LED state.
	QueryStatus(ctx context.Context) (bool, error)

	// ApplyCommand asks the device to drive the LED to the desired state
	// and returns the state the device confirmed, which may differ from
	// the requested one if the firmware overrides it.
	ApplyCommand(ctx context.Context, desired bool) (bool, error)

	// SendFrame forwards a raw hex-encoded frame to the device and returns
	// the device's reply verbatim.
	SendFrame(ctx context.Context, hexFrame string) ([]byte, error)
}

// Kind classifies a link failure.
type Kind int

const (
	// KindTimeout means the device did not answer within the configured
	// deadline.
	KindTimeout Kind = iota + 1
	// KindConnectionRefused means the transport could not reach the device
	// at all.
	KindConnectionRefused
	// KindMalformedResponse means the device answered with an HTTP success
	// but an unparsable or incomplete payload. This indicates a firmware
	// bug, not a network problem, and is reported separately.
	KindMalformedResponse
	// KindDeviceError means the device itself rejected the request with an
	// error code.
	KindDeviceError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnectionRefused:
		return "connection refused"
	case KindMalformedResponse:
		return "malformed response"
	case KindDeviceError:
		return "device error"
	default:
		return "unknown"
	}
}

// LinkError is the typed failure of a single device exchange. Every failure
// path of a Link resolves to one of these; a Link never panics and never
// returns an untyped transport error.
type LinkError struct {
	Op   string // "query_status", "apply_command" or "send_frame"
	Kind Kind
	Code int // device error code, set when Kind is KindDeviceError
	Err  error
}

func (e *LinkError) Error() string {
	if e.Kind == KindDeviceError {
		return fmt.Sprintf("device link %s: device error (code %d)", e.Op, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("device link %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("device link %s: %s", e.Op, e.Kind)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the failure was a transport-level one, i.e.
// the device may never have seen the request.
func (e *LinkError) Unreachable() bool {
	return e.Kind == KindTimeout || e.Kind == KindConnectionRefused
}

// AsLinkError unwraps err into a *LinkError if it is one.
func AsLinkError(err error) (*LinkError, bool) {
	var le *LinkError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
