package poller

import (
	"context"
	"log"
	"time"

	"home-monitor-backend/config"
	"home-monitor-backend/internal/coordinator"
	"home-monitor-backend/internal/device"
	"home-monitor-backend/internal/metrics"
)

// Service periodically reconciles the status store against the physical
// device. Cycles are strictly sequential: the timer is only re-armed after
// a cycle finishes, so a slow device can never pile up concurrent polls.
type Service struct {
	cfg  *config.DeviceConfig
	coor *coordinator.Coordinator
}

// NewService creates the background poller.
func NewService(cfg *config.DeviceConfig, coor *coordinator.Coordinator) *Service {
	return &Service{cfg: cfg, coor: coor}
}

// Run polls until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.PollEnabled {
		log.Println("Device poller is disabled. Not starting.")
		return
	}
	log.Printf("Starting device poller (interval %s)...", s.cfg.PollInterval)

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Device poller shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.PollInterval)
		}
	}
}

// PollOnce performs a single reconciliation cycle. On failure the store
// keeps its last good value; a transient outage must not erase the last
// known state.
func (s *Service) PollOnce(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	status, err := s.coor.Refresh(cycleCtx)
	if err != nil {
		if le, ok := device.AsLinkError(err); ok {
			log.Printf("Poll cycle failed, keeping last known state: %v", le)
			metrics.CountPollCycle("link_error")
			return
		}
		log.Printf("Poll cycle failed to commit: %v", err)
		metrics.CountPollCycle("store_error")
		return
	}

	metrics.CountPollCycle("ok")
	log.Printf("Poll cycle finished: led=%v (updated %s)", status.LedOn, status.UpdatedAt.Format(time.RFC3339))
}
