package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"home-monitor-backend/internal/activitylog"
)

// GetLog handles GET /api/log: the raw activity log contents.
func (h *Handler) GetLog(c *gin.Context) {
	data, err := h.logs.Read()
	if err != nil {
		if errors.Is(err, activitylog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Log file not found."})
			return
		}
		log.Printf("Failed to read activity log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to read activity log."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "logData": data})
}

// logEntryResponse is one rendered activity log entry.
type logEntryResponse struct {
	ID        int        `json:"id"`
	Subject   string     `json:"subject,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Label     string     `json:"label"`
	Parsed    bool       `json:"parsed"`
}

// GetLogEntries handles GET /api/log/entries?since=N. Clients pass the
// highest entry ID they have rendered; an unchanged tail yields an empty
// list so the 2-second poll is idempotent.
func (h *Handler) GetLogEntries(c *gin.Context) {
	sinceID := 0
	if raw := c.Query("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "since must be a non-negative integer."})
			return
		}
		sinceID = n
	}

	entries, err := h.logs.Tail(sinceID)
	if err != nil {
		if errors.Is(err, activitylog.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Log file not found."})
			return
		}
		log.Printf("Failed to tail activity log: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to read activity log."})
		return
	}

	response := make([]logEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, logEntryResponse{
			ID:        e.ID,
			Subject:   e.Subject,
			Timestamp: e.Timestamp,
			Label:     e.Label(),
			Parsed:    e.Parsed,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "entries": response})
}
