package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/domain"
	"github.com/akashpd1729/mit-hackathon/internal/stats"
)

// Generator produces synthetic pressure, flow and leak-event series for the
// zones in a network config. All randomness comes from a single seeded source
// so fixtures are reproducible.
type Generator struct {
	zones []domain.Zone
	rng   *rand.Rand
}

// New returns a generator over the configured zones. A zero seed falls back
// to the wall clock.
func New(cfg *domain.ZonesConfig, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		zones: cfg.Zones,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// PressureSeries generates per-sensor pressure readings covering days of data
// at the given interval, starting at start. Daily demand cycles, gaussian
// noise, occasional anomaly dips and an elevation adjustment are applied the
// same way for every zone.
func (g *Generator) PressureSeries(start time.Time, days, intervalMinutes int) []domain.PressureReading {
	periods := days * 24 * 60 / intervalMinutes
	interval := time.Duration(intervalMinutes) * time.Minute

	var out []domain.PressureReading
	for _, zone := range g.zones {
		for sensor := 1; sensor <= zone.NumSensors; sensor++ {
			sensorID := fmt.Sprintf("%s_S%02d", zone.ID, sensor)
			for i := 0; i < periods; i++ {
				ts := start.Add(time.Duration(i) * interval)

				pressure := zone.BasePressure * pressureDemandFactor(ts.Hour())
				pressure += g.rng.NormFloat64() * 2

				// 2% chance of a leak/burst style pressure dip.
				if g.rng.Float64() < 0.02 {
					pressure *= 0.5 + g.rng.Float64()*0.3
				}

				pressure += -0.1 * (zone.Elevation - 100) / 10
				if pressure < 5.0 {
					pressure = 5.0
				}
				pressure = stats.Round2(pressure)

				status := domain.StatusNormal
				if pressure <= zone.BasePressure*0.7 {
					status = domain.StatusLow
				}

				out = append(out, domain.PressureReading{
					Timestamp:   ts,
					ZoneID:      zone.ID,
					ZoneName:    zone.Name,
					SensorID:    sensorID,
					PressurePSI: pressure,
					Elevation:   zone.Elevation,
					Status:      status,
				})
			}
		}
	}
	return out
}

// FlowSeries generates one zone-level flow reading per interval. Base flow is
// proportional to population, shaped by morning/evening peaks and a night
// trough, with a 1% chance of a sustained leak bump.
func (g *Generator) FlowSeries(start time.Time, days, intervalMinutes int) []domain.FlowReading {
	periods := days * 24 * 60 / intervalMinutes
	interval := time.Duration(intervalMinutes) * time.Minute

	var out []domain.FlowReading
	for _, zone := range g.zones {
		baseFlow := float64(zone.Population) / 100

		for i := 0; i < periods; i++ {
			ts := start.Add(time.Duration(i) * interval)

			flow := baseFlow * flowDemandFactor(ts.Hour())
			flow += g.rng.NormFloat64() * baseFlow * 0.1

			if g.rng.Float64() < 0.01 {
				flow *= 1.3 + g.rng.Float64()*0.5
			}

			if flow < 0 {
				flow = 0
			}

			out = append(out, domain.FlowReading{
				Timestamp:   ts,
				ZoneID:      zone.ID,
				ZoneName:    zone.Name,
				FlowRateLPM: stats.Round2(flow),
				Population:  zone.Population,
			})
		}
	}
	return out
}

// LeakEventSeries generates n historical leak incidents spread over the last
// 30 days before now.
func (g *Generator) LeakEventSeries(now time.Time, n int) []domain.LeakEvent {
	out := make([]domain.LeakEvent, 0, n)
	for i := 0; i < n; i++ {
		zone := g.zones[g.rng.Intn(len(g.zones))]

		severity := domain.LeakMinor
		switch r := g.rng.Float64(); {
		case r >= 0.9:
			severity = domain.LeakSevere
		case r >= 0.6:
			severity = domain.LeakModerate
		}

		status := domain.LeakResolved
		if g.rng.Float64() < 0.3 {
			status = domain.LeakDetected
		}

		out = append(out, domain.LeakEvent{
			EventID:             fmt.Sprintf("LEAK_%03d", i+1),
			Timestamp:           now.AddDate(0, 0, -(g.rng.Intn(29) + 1)),
			ZoneID:              zone.ID,
			ZoneName:            zone.Name,
			Severity:            severity,
			EstimatedLossLiters: 1000 + g.rng.Intn(49000),
			Status:              status,
			ResponseTimeHours:   stats.Round2(0.5 + g.rng.Float64()*23.5),
		})
	}
	return out
}

// pressureDemandFactor reflects the inverse relation between demand and
// pressure: peak hours pull pressure down, the night trough lets it rise.
func pressureDemandFactor(hour int) float64 {
	switch {
	case (hour >= 6 && hour <= 9) || (hour >= 18 && hour <= 21):
		return 0.85
	case hour <= 5:
		return 1.15
	default:
		return 1.0
	}
}

// flowDemandFactor models the household consumption cycle.
func flowDemandFactor(hour int) float64 {
	switch {
	case hour >= 6 && hour <= 9:
		return 1.5
	case hour >= 18 && hour <= 21:
		return 1.4
	case hour <= 5:
		return 0.3
	default:
		return 0.8
	}
}
