package coordinator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"home-monitor-backend/internal/device"
	"home-monitor-backend/internal/metrics"
	"home-monitor-backend/internal/model"
	"home-monitor-backend/internal/store"
)

// ErrAmbiguousState is returned by Toggle when the caller's displayed state
// is not a valid LED state. The request is refused before any network call
// so the coordinator never commands a guessed state.
var ErrAmbiguousState = errors.New("displayed LED state is not 0 or 1; refusing to toggle")

// ErrInvalidFrame is returned by SendFrame for frames that are not valid
// hex strings.
var ErrInvalidFrame = errors.New("frame is not a valid hex string")

// Coordinator reconciles a user intent with device-confirmed reality. The
// single rule it enforces is confirm-before-commit: the status store is
// only ever written with a value the device acknowledged, so a failed
// exchange leaves the last known state untouched instead of corrupting it
// with a guess.
type Coordinator struct {
	link  device.Link
	store store.Store
}

// New creates a coordinator over the given link and store.
func New(link device.Link, s store.Store) *Coordinator {
	return &Coordinator{link: link, store: s}
}

// Status returns the last committed device status without touching the
// device.
func (c *Coordinator) Status(ctx context.Context) (model.DeviceStatus, error) {
	return c.store.ReadDeviceStatus(ctx)
}

// Set drives the LED to the desired state. On a confirmed reply the store
// is committed with the device-confirmed value, which may differ from the
// requested one. On any link failure the store is left unchanged and the
// typed error is returned for the caller to surface.
func (c *Coordinator) Set(ctx context.Context, desired bool) (model.DeviceStatus, error) {
	confirmed, err := c.link.ApplyCommand(ctx, desired)
	if err != nil {
		return model.DeviceStatus{}, err
	}

	status, err := c.store.CommitDeviceStatus(ctx, confirmed)
	if err != nil {
		return model.DeviceStatus{}, err
	}
	metrics.SetLedState(status.LedOn)

	if confirmed != desired {
		log.Printf("device confirmed led=%v instead of requested %v; store follows the device", confirmed, desired)
	}
	return status, nil
}

// Toggle inverts the state the client currently displays. displayed must be
// 0 or 1; anything else (a dashboard still loading, or showing an error)
// is refused up front.
func (c *Coordinator) Toggle(ctx context.Context, displayed int) (model.DeviceStatus, error) {
	if displayed != 0 && displayed != 1 {
		return model.DeviceStatus{}, ErrAmbiguousState
	}
	return c.Set(ctx, displayed == 0)
}

// Refresh queries the device for ground truth and commits the confirmed
// state. This is the corrective path the background poller runs: a state
// changed out of band (physical button, firmware reset) converges back
// into the store.
func (c *Coordinator) Refresh(ctx context.Context) (model.DeviceStatus, error) {
	confirmed, err := c.link.QueryStatus(ctx)
	if err != nil {
		return model.DeviceStatus{}, err
	}

	status, err := c.store.CommitDeviceStatus(ctx, confirmed)
	if err != nil {
		return model.DeviceStatus{}, err
	}
	metrics.SetLedState(status.LedOn)
	return status, nil
}

// SendFrame validates and forwards a raw hex frame to the device.
func (c *Coordinator) SendFrame(ctx context.Context, hexFrame string) ([]byte, error) {
	if hexFrame == "" {
		return nil, ErrInvalidFrame
	}
	if _, err := hex.DecodeString(hexFrame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	return c.link.SendFrame(ctx, hexFrame)
}
