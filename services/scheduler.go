package services

import (
	"context"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/clipcash/clipcash_backend/models"
)

// MetricsScheduler periodically refreshes all campaign metrics. Runs as a
// single goroutine started from main; a tick is skipped when the previous run
// is still in flight so the same campaign is never refreshed concurrently.
type MetricsScheduler struct {
	metrics  *MetricsService
	interval time.Duration
	running  atomic.Bool
}

// NewMetricsScheduler creates the periodic refresh loop. Interval comes from
// METRICS_REFRESH_INTERVAL (Go duration string), defaulting to one hour.
func NewMetricsScheduler(metrics *MetricsService) *MetricsScheduler {
	interval := time.Hour
	if intervalStr := os.Getenv("METRICS_REFRESH_INTERVAL"); intervalStr != "" {
		if parsed, err := time.ParseDuration(intervalStr); err == nil && parsed > 0 {
			interval = parsed
		} else {
			log.Printf("scheduler: invalid METRICS_REFRESH_INTERVAL %q, using 1h", intervalStr)
		}
	}
	return &MetricsScheduler{metrics: metrics, interval: interval}
}

// Run starts the refresh loop. Blocks; call as a goroutine.
func (s *MetricsScheduler) Run() {
	log.Printf("metrics scheduler started, interval %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for range ticker.C {
		s.RunOnce()
	}
}

// RunOnce triggers a full refresh unless one is already running
func (s *MetricsScheduler) RunOnce() {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("metrics scheduler: previous run still in progress, skipping tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	outcomes := s.metrics.RefreshCampaigns(context.Background(), nil)

	var succeeded, skipped, failed int
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.RefreshStatusSuccess:
			succeeded++
		case models.RefreshStatusSkipped:
			skipped++
		default:
			failed++
		}
	}
	log.Printf("metrics refresh finished in %s: %d succeeded, %d skipped, %d failed",
		time.Since(start).Round(time.Millisecond), succeeded, skipped, failed)
}
