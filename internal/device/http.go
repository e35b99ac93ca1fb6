package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"home-monitor-backend/config"
	"home-monitor-backend/internal/metrics"
)

// HTTPLink talks to the ESP32 firmware over its local-network HTTP API:
//
//	GET  /led/status          -> {"led_status": 0|1}
//	POST /led  {"led_status"} -> {"led_status": 0|1} (confirmed state)
//	POST /frame {"frame"}     -> raw reply body
//
// Non-2xx replies carry the firmware's error code in the HTTP status.
type HTTPLink struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLink creates a link for the configured device address. The
// configured timeout bounds every exchange; a device that never answers
// resolves to a timeout error instead of hanging the caller.
func NewHTTPLink(cfg *config.DeviceConfig) *HTTPLink {
	return &HTTPLink{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// statusPayload is the JSON body of status and command replies.
type statusPayload struct {
	LedStatus *int `json:"led_status"`
}

// QueryStatus performs one status read against the device.
func (l *HTTPLink) QueryStatus(ctx context.Context) (bool, error) {
	const op = "query_status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/led/status", nil)
	if err != nil {
		return false, l.fail(op, KindConnectionRefused, err)
	}
	return l.exchangeStatus(op, req)
}

// ApplyCommand performs one command exchange and returns the state the
// device confirmed.
func (l *HTTPLink) ApplyCommand(ctx context.Context, desired bool) (bool, error) {
	const op = "apply_command"
	code := 0
	if desired {
		code = 1
	}
	body, err := json.Marshal(statusPayload{LedStatus: &code})
	if err != nil {
		return false, l.fail(op, KindMalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/led", bytes.NewReader(body))
	if err != nil {
		return false, l.fail(op, KindConnectionRefused, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return l.exchangeStatus(op, req)
}

// SendFrame forwards a raw frame and returns the device reply verbatim. Hex
// validation is the caller's job; the link is a pure passthrough.
func (l *HTTPLink) SendFrame(ctx context.Context, hexFrame string) ([]byte, error) {
	const op = "send_frame"
	start := time.Now()

	body, err := json.Marshal(map[string]string{"frame": hexFrame})
	if err != nil {
		return nil, l.fail(op, KindMalformedResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/frame", bytes.NewReader(body))
	if err != nil {
		return nil, l.fail(op, KindConnectionRefused, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		metrics.ObserveDeviceExchange(op, "unreachable", time.Since(start))
		return nil, l.transportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveDeviceExchange(op, "malformed", time.Since(start))
		return nil, l.fail(op, KindMalformedResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveDeviceExchange(op, "device_error", time.Since(start))
		return nil, &LinkError{Op: op, Kind: KindDeviceError, Code: resp.StatusCode}
	}

	metrics.ObserveDeviceExchange(op, "confirmed", time.Since(start))
	return raw, nil
}

// exchangeStatus runs a prepared request and decodes a status reply.
func (l *HTTPLink) exchangeStatus(op string, req *http.Request) (bool, error) {
	start := time.Now()

	resp, err := l.client.Do(req)
	if err != nil {
		metrics.ObserveDeviceExchange(op, "unreachable", time.Since(start))
		return false, l.transportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveDeviceExchange(op, "malformed", time.Since(start))
		return false, l.fail(op, KindMalformedResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveDeviceExchange(op, "device_error", time.Since(start))
		return false, &LinkError{Op: op, Kind: KindDeviceError, Code: resp.StatusCode}
	}

	var payload statusPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		metrics.ObserveDeviceExchange(op, "malformed", time.Since(start))
		return false, l.fail(op, KindMalformedResponse, err)
	}
	if payload.LedStatus == nil || (*payload.LedStatus != 0 && *payload.LedStatus != 1) {
		metrics.ObserveDeviceExchange(op, "malformed", time.Since(start))
		return false, l.fail(op, KindMalformedResponse,
			fmt.Errorf("reply missing a valid led_status field: %q", raw))
	}

	metrics.ObserveDeviceExchange(op, "confirmed", time.Since(start))
	return *payload.LedStatus == 1, nil
}

// transportError classifies a client.Do failure. Timeouts and refused
// connections are kept apart from payload problems so the dashboard can
// report reachability issues distinctly from firmware bugs.
func (l *HTTPLink) transportError(op string, err error) *LinkError {
	if isTimeout(err) {
		return &LinkError{Op: op, Kind: KindTimeout, Err: err}
	}
	return &LinkError{Op: op, Kind: KindConnectionRefused, Err: err}
}

func (l *HTTPLink) fail(op string, kind Kind, err error) *LinkError {
	return &LinkError{Op: op, Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return false
	}
	// http.Client.Timeout surfaces as a url.Error whose Timeout() is true.
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
