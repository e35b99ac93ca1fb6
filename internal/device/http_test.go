package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-monitor-backend/config"
)

func newTestLink(t *testing.T, handler http.Handler, timeout time.Duration) (*HTTPLink, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.DeviceConfig{
		BaseURL: server.URL,
		Timeout: timeout,
	}
	return NewHTTPLink(cfg), server
}

func TestQueryStatusConfirmed(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/led/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"led_status":1}`))
	}), time.Second)

	on, err := link.QueryStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
}

func TestApplyCommandConfirmed(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/led", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"led_status":0}`))
	}), time.Second)

	on, err := link.ApplyCommand(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestDeviceErrorCarriesCode(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusConflict)
	}), time.Second)

	_, err := link.ApplyCommand(context.Background(), true)
	require.Error(t, err)

	le, ok := AsLinkError(err)
	require.True(t, ok)
	assert.Equal(t, KindDeviceError, le.Kind)
	assert.Equal(t, http.StatusConflict, le.Code)
	assert.False(t, le.Unreachable())
}

// A 200 with an unusable payload is a firmware bug, not a network failure;
// it must classify as malformed, never as unreachable.
func TestMalformedResponseVariants(t *testing.T) {
	bodies := map[string]string{
		"not json":           `led is on`,
		"missing field":      `{"uptime":42}`,
		"out of range value": `{"led_status":7}`,
		"empty body":         ``,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}), time.Second)

			_, err := link.QueryStatus(context.Background())
			require.Error(t, err)

			le, ok := AsLinkError(err)
			require.True(t, ok)
			assert.Equal(t, KindMalformedResponse, le.Kind)
			assert.False(t, le.Unreachable())
		})
	}
}

func TestTimeoutResolvesWithinBound(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}), 50*time.Millisecond)

	start := time.Now()
	_, err := link.QueryStatus(context.Background())
	elapsed := time.Since(start)

	require.Error(t, err)
	le, ok := AsLinkError(err)
	require.True(t, ok)
	assert.Equal(t, KindTimeout, le.Kind)
	assert.True(t, le.Unreachable())
	assert.Less(t, elapsed, 300*time.Millisecond, "a hung device must not hang the caller")
}

func TestConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close() // nothing listens on the port anymore

	link := NewHTTPLink(&config.DeviceConfig{BaseURL: url, Timeout: time.Second})

	_, err := link.QueryStatus(context.Background())
	require.Error(t, err)

	le, ok := AsLinkError(err)
	require.True(t, ok)
	assert.Equal(t, KindConnectionRefused, le.Kind)
	assert.True(t, le.Unreachable())
}

func TestSendFrameForwardsReply(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/frame", r.URL.Path)
		w.Write([]byte("ACK 01"))
	}), time.Second)

	reply, err := link.SendFrame(context.Background(), "a1b2c3")
	require.NoError(t, err)
	assert.Equal(t, []byte("ACK 01"), reply)
}

func TestSendFrameDeviceError(t *testing.T) {
	link, _ := newTestLink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad frame", http.StatusUnprocessableEntity)
	}), time.Second)

	_, err := link.SendFrame(context.Background(), "ff")
	le, ok := AsLinkError(err)
	require.True(t, ok)
	assert.Equal(t, KindDeviceError, le.Kind)
	assert.Equal(t, http.StatusUnprocessableEntity, le.Code)
}
