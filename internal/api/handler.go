package api

import (
	"time"

	"home-monitor-backend/internal/activitylog"
	"home-monitor-backend/internal/coordinator"
	"home-monitor-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	coor      *coordinator.Coordinator
	logs      *activitylog.Reader
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, coor *coordinator.Coordinator, logs *activitylog.Reader, jwtSecret []byte, tokenTTL time.Duration) *Handler {
	return &Handler{
		store:     s,
		coor:      coor,
		logs:      logs,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}
