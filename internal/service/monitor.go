package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// StartMonitor rescans the current dataset on a fixed interval so the
// findings gauges stay fresh even when no requests arrive. Blocks until
// ctx is canceled, so run it on its own goroutine.
func (s *Services) StartMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res := s.Scan()
			if res.Summary.CriticalEvents > 0 {
				log.Warn().
					Int("critical_events", res.Summary.CriticalEvents).
					Int("potential_leaks", res.Summary.PotentialLeaks).
					Int("potential_bursts", res.Summary.PotentialBursts).
					Msg("critical conditions found on scheduled scan")
				continue
			}
			log.Debug().
				Int("pressure_anomalies", res.Summary.TotalPressureAnomalies).
				Int("flow_anomalies", res.Summary.TotalFlowAnomalies).
				Msg("scheduled scan clean")
		}
	}
}
