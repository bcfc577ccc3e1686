package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/akashpd1729/mit-hackathon/internal/analytics"
	"github.com/akashpd1729/mit-hackathon/internal/anomaly"
	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/domain"
	"github.com/akashpd1729/mit-hackathon/internal/stats"
)

// Zone health labels, in decreasing order of urgency.
const (
	HealthCritical  = "critical"
	HealthWarning   = "warning"
	HealthAttention = "attention"
	HealthHealthy   = "healthy"
)

// A zone appearing in the low-pressure list with more events than this is
// critical rather than warning.
const criticalLowEvents = 100

// Low-pressure events above this raise a booster-pump recommendation.
const recommendLowEvents = 50

// impactPrinter groups thousands in the loss figures shown to operators.
var impactPrinter = message.NewPrinter(language.English)

// Builder assembles operator-facing reports from a dataset snapshot.
type Builder struct {
	det          *anomaly.Detector
	lowThreshold float64
	window       time.Duration
}

func NewBuilder(det *anomaly.Detector, lowPressureThreshold float64, window time.Duration) *Builder {
	return &Builder{det: det, lowThreshold: lowPressureThreshold, window: window}
}

type Overview struct {
	TotalZones      int           `json:"total_zones"`
	TotalPopulation int           `json:"total_population"`
	TotalSensors    int           `json:"total_sensors"`
	Zones           []domain.Zone `json:"zones"`
}

// BuildOverview totals the configured network. Sensor counts come from the
// zone config, not from the data files.
func BuildOverview(ds *dataset.Dataset) Overview {
	o := Overview{TotalZones: len(ds.Zones), Zones: ds.Zones}
	for _, z := range ds.Zones {
		o.TotalPopulation += z.Population
		o.TotalSensors += z.NumSensors
	}
	return o
}

type ZoneHealth struct {
	ZoneName    string  `json:"zone_name"`
	AvgPressure float64 `json:"avg_pressure"`
	Status      string  `json:"status"`
	NumSensors  int     `json:"num_sensors"`
}

// ZoneHealth grades each zone. Appearing in the recent low-pressure list
// dominates the grade; otherwise the zone's overall average decides it.
func (b *Builder) ZoneHealth(ds *dataset.Dataset, now time.Time) []ZoneHealth {
	zoneStats := analytics.ZoneStatistics(ds)
	low := analytics.LowPressureZones(ds, b.lowThreshold, now, b.window)

	lowByName := make(map[string]analytics.LowPressureZone, len(low))
	for _, l := range low {
		lowByName[l.ZoneName] = l
	}

	out := make([]ZoneHealth, 0, len(zoneStats))
	for _, zs := range zoneStats {
		var status string
		if l, ok := lowByName[zs.ZoneName]; ok {
			status = HealthWarning
			if l.LowCount > criticalLowEvents {
				status = HealthCritical
			}
		} else if zs.AvgPressure < 35 {
			status = HealthWarning
		} else if zs.AvgPressure < 40 {
			status = HealthAttention
		} else {
			status = HealthHealthy
		}
		out = append(out, ZoneHealth{
			ZoneName:    zs.ZoneName,
			AvgPressure: zs.AvgPressure,
			Status:      status,
			NumSensors:  zs.NumSensors,
		})
	}
	return out
}

type Recommendation struct {
	Priority       string `json:"priority"`
	Zone           string `json:"zone"`
	Issue          string `json:"issue"`
	Recommendation string `json:"recommendation"`
	Impact         string `json:"impact"`
}

// Recommendations turns the current findings into an action list: booster
// pumps for chronically low zones, inspections for leak indicators, and
// emergency response for bursts.
func (b *Builder) Recommendations(ds *dataset.Dataset, now time.Time) []Recommendation {
	var out []Recommendation

	for _, zone := range analytics.LowPressureZones(ds, b.lowThreshold, now, b.window) {
		if zone.LowCount <= recommendLowEvents {
			continue
		}
		out = append(out, Recommendation{
			Priority:       "high",
			Zone:           zone.ZoneName,
			Issue:          "Frequent low pressure",
			Recommendation: "Install booster pumps or check for leaks",
			Impact:         fmt.Sprintf("%d low pressure events detected", zone.LowCount),
		})
	}

	for _, leak := range b.det.Leaks(ds) {
		out = append(out, Recommendation{
			Priority:       leak.Severity,
			Zone:           leak.ZoneName,
			Issue:          "Potential water leak",
			Recommendation: leak.RecommendedAction,
			Impact:         impactPrinter.Sprintf("Estimated loss: %.0f liters/day", leak.EstDailyLossLit),
		})
	}

	for _, burst := range b.det.Bursts(ds) {
		out = append(out, Recommendation{
			Priority:       anomaly.SeverityCritical,
			Zone:           burst.ZoneName,
			Issue:          "Potential pipe burst",
			Recommendation: burst.RecommendedAction,
			Impact:         fmt.Sprintf("Pressure drop: %s PSI", strconv.FormatFloat(burst.PressureDrop, 'f', -1, 64)),
		})
	}

	return out
}

type Performance struct {
	AvgSystemPressure         float64 `json:"avg_system_pressure"`
	TotalWaterFlow            float64 `json:"total_water_flow"`
	ZonesWithIssues           int     `json:"zones_with_issues"`
	EstimatedWaterLossPercent float64 `json:"estimated_water_loss_percent"`
	SystemEfficiency          float64 `json:"system_efficiency"`
}

// Performance condenses the network into headline figures. The loss percent
// relates the estimated daily leakage to the total recorded flow.
func (b *Builder) Performance(ds *dataset.Dataset) Performance {
	zoneStats := analytics.ZoneStatistics(ds)
	flowStats := analytics.FlowStatistics(ds)
	loss := analytics.WaterLoss(ds)

	var p Performance

	avgs := make([]float64, len(zoneStats))
	for i, zs := range zoneStats {
		avgs[i] = zs.AvgPressure
		if zs.AvgPressure < 40 {
			p.ZonesWithIssues++
		}
	}
	p.AvgSystemPressure = stats.Round2(stats.Mean(avgs))

	var totalFlow, totalLoss float64
	for _, fs := range flowStats {
		totalFlow += fs.TotalFlow
	}
	for _, l := range loss {
		totalLoss += l.EstimatedDailyLossLiters
	}
	p.TotalWaterFlow = stats.Round2(totalFlow)

	if totalFlow > 0 {
		p.EstimatedWaterLossPercent = stats.Round2(totalLoss / totalFlow * 100)
		p.SystemEfficiency = stats.Round2(100 - totalLoss/totalFlow*100)
	} else {
		p.SystemEfficiency = 100
	}
	return p
}

// AnomalySection nests the summary the way the exported report presents it.
type AnomalySection struct {
	Summary anomaly.Summary `json:"summary"`
}

type Report struct {
	ReportID        string           `json:"report_id"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Overview        Overview         `json:"overview"`
	Performance     Performance      `json:"performance_metrics"`
	ZoneHealth      []ZoneHealth     `json:"zone_health"`
	Anomalies       AnomalySection   `json:"anomalies"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Build assembles the full system report for the given snapshot.
func (b *Builder) Build(ds *dataset.Dataset, now time.Time) Report {
	return Report{
		ReportID:        uuid.NewString(),
		GeneratedAt:     now.UTC(),
		Overview:        BuildOverview(ds),
		Performance:     b.Performance(ds),
		ZoneHealth:      b.ZoneHealth(ds, now),
		Anomalies:       AnomalySection{Summary: b.det.Scan(ds).Summary},
		Recommendations: b.Recommendations(ds, now),
	}
}
