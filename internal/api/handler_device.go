package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"home-monitor-backend/internal/coordinator"
	"home-monitor-backend/internal/device"
)

// GetLedStatus handles GET /api/device/led/status (and the legacy
// GET /api/esp32 alias). It serves the last committed state from the store
// and never touches the device; freshness comes from the background poller.
func (h *Handler) GetLedStatus(c *gin.Context) {
	status, err := h.coor.Status(c.Request.Context())
	if err != nil {
		log.Printf("Failed to read device status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to read device status."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"led_status": status.LedStatusCode(),
		"updated_at": status.UpdatedAt,
	})
}

type commandRequest struct {
	LedStatus *int `json:"led_status"`
}

// PostCommand handles POST /api/esp32: drive the LED to an explicit state.
func (h *Handler) PostCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LedStatus == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "led_status field is required."})
		return
	}
	if *req.LedStatus != 0 && *req.LedStatus != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "led_status must be 0 or 1."})
		return
	}

	status, err := h.coor.Set(c.Request.Context(), *req.LedStatus == 1)
	if err != nil {
		h.failCommand(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "LED state updated.",
		"led_status": status.LedStatusCode(),
	})
}

type toggleRequest struct {
	Current *int `json:"current"`
}

// PostToggle handles POST /api/device/led/toggle. The client sends the
// state it currently displays; an ambiguous display (loading, error) is
// refused before any device exchange.
func (h *Handler) PostToggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Current == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "current field is required."})
		return
	}

	status, err := h.coor.Toggle(c.Request.Context(), *req.Current)
	if err != nil {
		if errors.Is(err, coordinator.ErrAmbiguousState) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Displayed LED state must be 0 or 1."})
			return
		}
		h.failCommand(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"led_status": status.LedStatusCode(),
	})
}

type sendFrameRequest struct {
	HexFrame string `json:"hexFrame"`
}

// PostSendFrame handles POST /api/send-frame: forward a raw hex frame to
// the device and relay its reply.
func (h *Handler) PostSendFrame(c *gin.Context) {
	var req sendFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HexFrame == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "hexFrame field is required."})
		return
	}

	reply, err := h.coor.SendFrame(c.Request.Context(), req.HexFrame)
	if err != nil {
		if errors.Is(err, coordinator.ErrInvalidFrame) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "hexFrame must be a valid hex string."})
			return
		}
		h.failCommand(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"deviceResponse": string(reply),
	})
}

// failCommand maps a coordinator failure onto the HTTP surface. Link
// failures are 503 with the specific cause so the dashboard can tell a dead
// network from a buggy firmware; anything else is a store failure.
func (h *Handler) failCommand(c *gin.Context, err error) {
	if le, ok := device.AsLinkError(err); ok {
		var msg string
		switch le.Kind {
		case device.KindTimeout:
			msg = "Device unreachable: request timed out."
		case device.KindConnectionRefused:
			msg = "Device unreachable: connection refused."
		case device.KindMalformedResponse:
			msg = "Device sent a malformed response."
		case device.KindDeviceError:
			msg = "Device rejected the command."
		default:
			msg = "Device link failed."
		}
		log.Printf("Device command failed: %v", le)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": msg})
		return
	}

	log.Printf("Command failed on store: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to persist device status."})
}
