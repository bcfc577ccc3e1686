package anomaly

import (
	"math"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/stats"
)

// Severity labels, ordered from least to most urgent.
const (
	SeverityLow      = "low"
	SeverityModerate = "moderate"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Escalation points for the heuristics that do not use z-scores.
const (
	leakSevereFlow    = 500.0 // night LPM above which a leak is high severity
	leakConfidentFlow = 400.0 // night LPM above which confidence is high
	burstCriticalDrop = 25.0  // PSI drop above which a burst is critical
	minHourCohort     = 5     // samples needed before an hour cohort is scored
)

// Detector holds the tunable thresholds for all four detection passes.
type Detector struct {
	PressureZ float64 // z-score cut for pressure outliers
	FlowZ     float64 // z-score cut for flow outliers
	NightFlow float64 // LPM above which night flow suggests a leak
	BurstDrop float64 // PSI drop between consecutive samples
}

func NewDetector(pressureZ, flowZ, nightFlow, burstDrop float64) *Detector {
	return &Detector{
		PressureZ: pressureZ,
		FlowZ:     flowZ,
		NightFlow: nightFlow,
		BurstDrop: burstDrop,
	}
}

type PressureAnomaly struct {
	Timestamp        time.Time `json:"timestamp"`
	ZoneID           string    `json:"zone_id"`
	ZoneName         string    `json:"zone_name"`
	SensorID         string    `json:"sensor_id"`
	PressurePSI      float64   `json:"pressure_psi"`
	ExpectedPressure float64   `json:"expected_pressure"`
	Deviation        float64   `json:"deviation"`
	ZScore           float64   `json:"z_score"`
	Type             string    `json:"anomaly_type"`
	Severity         string    `json:"severity"`
}

// PressureAnomalies flags readings whose z-score against their zone's mean
// exceeds the threshold. A reading below the mean is a pressure_drop, above
// it a pressure_spike.
func (d *Detector) PressureAnomalies(ds *dataset.Dataset) []PressureAnomaly {
	var out []PressureAnomaly
	for _, zone := range ds.ZonesByName() {
		readings := ds.PressureByZone(zone.ID)
		values := make([]float64, len(readings))
		for i, r := range readings {
			values[i] = r.PressurePSI
		}
		mean := stats.Mean(values)
		std := stats.StdDev(values)
		if std == 0 {
			continue
		}
		for _, r := range readings {
			z := math.Abs(r.PressurePSI-mean) / std
			if z <= d.PressureZ {
				continue
			}
			typ := "pressure_spike"
			if r.PressurePSI < mean {
				typ = "pressure_drop"
			}
			out = append(out, PressureAnomaly{
				Timestamp:        r.Timestamp,
				ZoneID:           r.ZoneID,
				ZoneName:         r.ZoneName,
				SensorID:         r.SensorID,
				PressurePSI:      r.PressurePSI,
				ExpectedPressure: stats.Round2(mean),
				Deviation:        stats.Round2(r.PressurePSI - mean),
				ZScore:           stats.Round2(z),
				Type:             typ,
				Severity:         classifySeverity(z),
			})
		}
	}
	return out
}

type FlowAnomaly struct {
	Timestamp      time.Time `json:"timestamp"`
	ZoneID         string    `json:"zone_id"`
	ZoneName       string    `json:"zone_name"`
	FlowRateLPM    float64   `json:"flow_rate_lpm"`
	ExpectedFlow   float64   `json:"expected_flow"`
	Deviation      float64   `json:"deviation"`
	ZScore         float64   `json:"z_score"`
	Type           string    `json:"anomaly_type"`
	Severity       string    `json:"severity"`
	PotentialCause string    `json:"potential_cause"`
}

// FlowAnomalies scores each reading against the cohort of readings taken in
// the same zone at the same hour of day, so ordinary daily demand swings do
// not register as outliers. Cohorts with fewer than five samples or no
// variance are skipped.
func (d *Detector) FlowAnomalies(ds *dataset.Dataset) []FlowAnomaly {
	type sample struct {
		idx  int
		lpm  float64
		hour int
	}
	var out []FlowAnomaly
	for _, zone := range ds.ZonesByName() {
		readings := ds.FlowByZone(zone.ID)

		var cohorts [24][]sample
		for i, r := range readings {
			h := r.Timestamp.Hour()
			cohorts[h] = append(cohorts[h], sample{idx: i, lpm: r.FlowRateLPM, hour: h})
		}

		for hour := 0; hour < 24; hour++ {
			cohort := cohorts[hour]
			if len(cohort) < minHourCohort {
				continue
			}
			values := make([]float64, len(cohort))
			for i, s := range cohort {
				values[i] = s.lpm
			}
			mean := stats.Mean(values)
			std := stats.StdDev(values)
			if std == 0 {
				continue
			}
			for _, s := range cohort {
				z := math.Abs(s.lpm-mean) / std
				if z <= d.FlowZ {
					continue
				}
				r := readings[s.idx]
				typ := "low_flow"
				if s.lpm > mean {
					typ = "excessive_flow"
				}
				out = append(out, FlowAnomaly{
					Timestamp:      r.Timestamp,
					ZoneID:         r.ZoneID,
					ZoneName:       r.ZoneName,
					FlowRateLPM:    s.lpm,
					ExpectedFlow:   stats.Round2(mean),
					Deviation:      stats.Round2(s.lpm - mean),
					ZScore:         stats.Round2(z),
					Type:           typ,
					Severity:       classifySeverity(z),
					PotentialCause: identifyCause(s.lpm, mean, s.hour),
				})
			}
		}
	}
	return out
}

type LeakIndicator struct {
	ZoneID            string  `json:"zone_id"`
	ZoneName          string  `json:"zone_name"`
	AvgNightFlowLPM   float64 `json:"avg_night_flow_lpm"`
	EstDailyLossLit   float64 `json:"estimated_daily_loss_liters"`
	EstMonthlyLossLit float64 `json:"estimated_monthly_loss_liters"`
	Severity          string  `json:"severity"`
	Confidence        string  `json:"confidence"`
	RecommendedAction string  `json:"recommended_action"`
}

// Leaks flags zones whose average flow between midnight and 05:59 exceeds
// the night threshold. Water drawn while the city sleeps is assumed lost, so
// the night rate extrapolates directly to daily and monthly loss.
func (d *Detector) Leaks(ds *dataset.Dataset) []LeakIndicator {
	var out []LeakIndicator
	for _, zone := range ds.ZonesByName() {
		var values []float64
		for _, r := range ds.FlowByZone(zone.ID) {
			if isNight(r.Timestamp.Hour()) {
				values = append(values, r.FlowRateLPM)
			}
		}
		if len(values) == 0 {
			continue
		}
		avg := stats.Mean(values)
		if avg <= d.NightFlow {
			continue
		}
		daily := avg * 60 * 24
		severity := SeverityModerate
		action := "Schedule inspection"
		if avg > leakSevereFlow {
			severity = SeverityHigh
			action = "Immediate inspection required"
		}
		confidence := "medium"
		if avg > leakConfidentFlow {
			confidence = "high"
		}
		out = append(out, LeakIndicator{
			ZoneID:            zone.ID,
			ZoneName:          zone.Name,
			AvgNightFlowLPM:   stats.Round2(avg),
			EstDailyLossLit:   math.Round(daily),
			EstMonthlyLossLit: math.Round(daily * 30),
			Severity:          severity,
			Confidence:        confidence,
			RecommendedAction: action,
		})
	}
	return out
}

type BurstEvent struct {
	Timestamp         time.Time `json:"timestamp"`
	ZoneID            string    `json:"zone_id"`
	ZoneName          string    `json:"zone_name"`
	SensorID          string    `json:"sensor_id"`
	PressureBefore    float64   `json:"pressure_before"`
	PressureAfter     float64   `json:"pressure_after"`
	PressureDrop      float64   `json:"pressure_drop"`
	Severity          string    `json:"severity"`
	EventType         string    `json:"event_type"`
	RecommendedAction string    `json:"recommended_action"`
}

// Bursts walks each sensor's time-ordered series and flags any step change
// steeper than the drop threshold between consecutive samples.
func (d *Detector) Bursts(ds *dataset.Dataset) []BurstEvent {
	var out []BurstEvent
	for _, sensorID := range ds.SensorIDs("") {
		series := ds.SensorSeries(sensorID)
		for i := 1; i < len(series); i++ {
			change := series[i].PressurePSI - series[i-1].PressurePSI
			if change >= -d.BurstDrop {
				continue
			}
			r := series[i]
			severity := SeverityHigh
			if math.Abs(change) > burstCriticalDrop {
				severity = SeverityCritical
			}
			out = append(out, BurstEvent{
				Timestamp:         r.Timestamp,
				ZoneID:            r.ZoneID,
				ZoneName:          r.ZoneName,
				SensorID:          r.SensorID,
				PressureBefore:    stats.Round2(r.PressurePSI - change),
				PressureAfter:     stats.Round2(r.PressurePSI),
				PressureDrop:      stats.Round2(math.Abs(change)),
				Severity:          severity,
				EventType:         "potential_burst",
				RecommendedAction: "Emergency response required",
			})
		}
	}
	return out
}

type Summary struct {
	TotalPressureAnomalies int `json:"total_pressure_anomalies"`
	TotalFlowAnomalies     int `json:"total_flow_anomalies"`
	PotentialLeaks         int `json:"potential_leaks"`
	PotentialBursts        int `json:"potential_bursts"`
	CriticalEvents         int `json:"critical_events"`
}

// ScanResult bundles one full detection pass over a dataset snapshot.
type ScanResult struct {
	Pressure []PressureAnomaly `json:"pressure_anomalies"`
	Flow     []FlowAnomaly     `json:"flow_anomalies"`
	Leaks    []LeakIndicator   `json:"leaks"`
	Bursts   []BurstEvent      `json:"bursts"`
	Summary  Summary           `json:"summary"`
}

// Scan runs all four detections and tallies the summary. Critical events
// count critical pressure outliers and critical bursts; leak indicators are
// tallied separately because they carry their own severity scale.
func (d *Detector) Scan(ds *dataset.Dataset) ScanResult {
	res := ScanResult{
		Pressure: d.PressureAnomalies(ds),
		Flow:     d.FlowAnomalies(ds),
		Leaks:    d.Leaks(ds),
		Bursts:   d.Bursts(ds),
	}
	res.Summary = Summary{
		TotalPressureAnomalies: len(res.Pressure),
		TotalFlowAnomalies:     len(res.Flow),
		PotentialLeaks:         len(res.Leaks),
		PotentialBursts:        len(res.Bursts),
	}
	for _, a := range res.Pressure {
		if a.Severity == SeverityCritical {
			res.Summary.CriticalEvents++
		}
	}
	for _, b := range res.Bursts {
		if b.Severity == SeverityCritical {
			res.Summary.CriticalEvents++
		}
	}
	return res
}

func classifySeverity(z float64) string {
	switch {
	case z > 4:
		return SeverityCritical
	case z > 3:
		return SeverityHigh
	case z > 2.5:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

func identifyCause(actual, expected float64, hour int) string {
	if actual > expected*1.5 {
		if isNight(hour) {
			return "Potential leak (high night flow)"
		}
		return "Unusual high demand or unauthorized usage"
	}
	return "Supply interruption or valve issue"
}

func isNight(hour int) bool {
	return hour >= 0 && hour <= 5
}
