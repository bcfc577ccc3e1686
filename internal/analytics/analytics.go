package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/domain"
	"github.com/akashpd1729/mit-hackathon/internal/stats"
)

// Night hours (inclusive) used for leak heuristics: legitimate household
// demand is near zero between midnight and 05:59.
const (
	NightStartHour = 0
	NightEndHour   = 5
)

// WaterLossNightFlag is the night-flow rate (LPM) above which a zone is
// flagged as a potential leak in the loss estimate.
const WaterLossNightFlag = 200.0

type ZoneStats struct {
	ZoneID      string  `json:"zone_id"`
	ZoneName    string  `json:"zone_name"`
	AvgPressure float64 `json:"avg_pressure"`
	MinPressure float64 `json:"min_pressure"`
	MaxPressure float64 `json:"max_pressure"`
	StdPressure float64 `json:"std_pressure"`
	NumSensors  int     `json:"num_sensors"`
}

// ZoneStatistics computes descriptive pressure statistics per zone, ordered
// by zone name.
func ZoneStatistics(ds *dataset.Dataset) []ZoneStats {
	out := make([]ZoneStats, 0, len(ds.Zones))
	for _, zone := range ds.ZonesByName() {
		readings := ds.PressureByZone(zone.ID)
		if len(readings) == 0 {
			continue
		}
		values := pressureValues(readings)
		out = append(out, ZoneStats{
			ZoneID:      zone.ID,
			ZoneName:    zone.Name,
			AvgPressure: stats.Round2(stats.Mean(values)),
			MinPressure: stats.Round2(stats.Min(values)),
			MaxPressure: stats.Round2(stats.Max(values)),
			StdPressure: stats.Round2(stats.StdDev(values)),
			NumSensors:  len(ds.SensorIDs(zone.ID)),
		})
	}
	return out
}

type SensorStats struct {
	SensorID    string  `json:"sensor_id"`
	AvgPressure float64 `json:"avg_pressure"`
	MinPressure float64 `json:"min_pressure"`
	MaxPressure float64 `json:"max_pressure"`
}

// SensorStatistics compares the sensors within one zone.
func SensorStatistics(ds *dataset.Dataset, zoneID string) []SensorStats {
	ids := ds.SensorIDs(zoneID)
	out := make([]SensorStats, 0, len(ids))
	for _, id := range ids {
		values := pressureValues(ds.SensorSeries(id))
		if len(values) == 0 {
			continue
		}
		out = append(out, SensorStats{
			SensorID:    id,
			AvgPressure: stats.Round2(stats.Mean(values)),
			MinPressure: stats.Round2(stats.Min(values)),
			MaxPressure: stats.Round2(stats.Max(values)),
		})
	}
	return out
}

type HourlyPoint struct {
	Hour  int     `json:"hour"`
	Value float64 `json:"value"`
}

// HourlyPressure returns the mean pressure for each hour of day (0-23),
// optionally restricted to one zone. Empty hours are omitted.
func HourlyPressure(ds *dataset.Dataset, zoneID string) []HourlyPoint {
	var buckets [24][]float64
	for _, r := range ds.Pressure {
		if zoneID != "" && r.ZoneID != zoneID {
			continue
		}
		h := r.Timestamp.Hour()
		buckets[h] = append(buckets[h], r.PressurePSI)
	}
	return hourlyMeans(buckets)
}

// HourlyFlow returns the mean flow rate for each hour of day.
func HourlyFlow(ds *dataset.Dataset, zoneID string) []HourlyPoint {
	var buckets [24][]float64
	for _, r := range ds.Flow {
		if zoneID != "" && r.ZoneID != zoneID {
			continue
		}
		h := r.Timestamp.Hour()
		buckets[h] = append(buckets[h], r.FlowRateLPM)
	}
	return hourlyMeans(buckets)
}

// PeakDemandTimes ranks hours of day by mean flow, busiest first.
func PeakDemandTimes(ds *dataset.Dataset) []HourlyPoint {
	points := HourlyFlow(ds, "")
	sort.SliceStable(points, func(a, b int) bool { return points[a].Value > points[b].Value })
	return points
}

type ZoneComparison struct {
	ZoneName    string  `json:"zone_name"`
	AvgPressure float64 `json:"avg_pressure"`
	Elevation   float64 `json:"elevation"`
}

// CompareZones ranks zones by mean pressure, highest first.
func CompareZones(ds *dataset.Dataset) []ZoneComparison {
	out := make([]ZoneComparison, 0, len(ds.Zones))
	for _, zone := range ds.ZonesByName() {
		values := pressureValues(ds.PressureByZone(zone.ID))
		if len(values) == 0 {
			continue
		}
		out = append(out, ZoneComparison{
			ZoneName:    zone.Name,
			AvgPressure: stats.Round2(stats.Mean(values)),
			Elevation:   zone.Elevation,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].AvgPressure > out[b].AvgPressure })
	return out
}

type LowPressureZone struct {
	ZoneID         string  `json:"zone_id"`
	ZoneName       string  `json:"zone_name"`
	LowCount       int     `json:"low_pressure_count"`
	AvgLowPressure float64 `json:"avg_low_pressure"`
}

// LowPressureZones counts readings under threshold within the last window
// before now, per zone, worst first.
func LowPressureZones(ds *dataset.Dataset, threshold float64, now time.Time, window time.Duration) []LowPressureZone {
	type acc struct {
		zoneName string
		values   []float64
	}
	byZone := make(map[string]*acc)

	cutoff := now.Add(-window)
	for _, r := range ds.PressureSince(cutoff) {
		if r.PressurePSI >= threshold {
			continue
		}
		a, ok := byZone[r.ZoneID]
		if !ok {
			a = &acc{zoneName: r.ZoneName}
			byZone[r.ZoneID] = a
		}
		a.values = append(a.values, r.PressurePSI)
	}

	out := make([]LowPressureZone, 0, len(byZone))
	for id, a := range byZone {
		out = append(out, LowPressureZone{
			ZoneID:         id,
			ZoneName:       a.zoneName,
			LowCount:       len(a.values),
			AvgLowPressure: stats.Round2(stats.Mean(a.values)),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].LowCount != out[b].LowCount {
			return out[a].LowCount > out[b].LowCount
		}
		return out[a].ZoneName < out[b].ZoneName
	})
	return out
}

type FlowStats struct {
	ZoneID        string  `json:"zone_id"`
	ZoneName      string  `json:"zone_name"`
	AvgFlow       float64 `json:"avg_flow"`
	MinFlow       float64 `json:"min_flow"`
	MaxFlow       float64 `json:"max_flow"`
	TotalFlow     float64 `json:"total_flow"`
	Population    int     `json:"population"`
	PerCapitaFlow float64 `json:"per_capita_flow"`
}

// FlowStatistics computes per-zone flow statistics including per-capita
// consumption (avg LPM per 1000 residents).
func FlowStatistics(ds *dataset.Dataset) []FlowStats {
	out := make([]FlowStats, 0, len(ds.Zones))
	for _, zone := range ds.ZonesByName() {
		readings := ds.FlowByZone(zone.ID)
		if len(readings) == 0 {
			continue
		}
		values := flowValues(readings)
		avg := stats.Mean(values)
		out = append(out, FlowStats{
			ZoneID:        zone.ID,
			ZoneName:      zone.Name,
			AvgFlow:       stats.Round2(avg),
			MinFlow:       stats.Round2(stats.Min(values)),
			MaxFlow:       stats.Round2(stats.Max(values)),
			TotalFlow:     stats.Round2(stats.Sum(values)),
			Population:    zone.Population,
			PerCapitaFlow: stats.Round4(avg / float64(zone.Population) * 1000),
		})
	}
	return out
}

type DailyTrend struct {
	Date        string  `json:"date"`
	ZoneName    string  `json:"zone_name"`
	AvgPressure float64 `json:"avg_pressure"`
}

// RecentTrends returns the mean pressure per (day, zone) over the last days
// before now, ordered by date then zone name.
func RecentTrends(ds *dataset.Dataset, now time.Time, days int) []DailyTrend {
	type key struct {
		date string
		zone string
	}
	buckets := make(map[key][]float64)

	cutoff := now.AddDate(0, 0, -days)
	for _, r := range ds.PressureSince(cutoff) {
		k := key{date: r.Timestamp.Format("2006-01-02"), zone: r.ZoneName}
		buckets[k] = append(buckets[k], r.PressurePSI)
	}

	out := make([]DailyTrend, 0, len(buckets))
	for k, values := range buckets {
		out = append(out, DailyTrend{
			Date:        k.date,
			ZoneName:    k.zone,
			AvgPressure: stats.Round2(stats.Mean(values)),
		})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Date != out[b].Date {
			return out[a].Date < out[b].Date
		}
		return out[a].ZoneName < out[b].ZoneName
	})
	return out
}

type WaterLossEstimate struct {
	ZoneID                   string  `json:"zone_id"`
	ZoneName                 string  `json:"zone_name"`
	NightFlowLPM             float64 `json:"night_flow_lpm"`
	PotentialLeak            bool    `json:"potential_leak"`
	EstimatedDailyLossLiters float64 `json:"estimated_daily_loss_liters"`
}

// WaterLoss estimates unaccounted-for water per zone from night-time flow.
// Night flow above the flag threshold marks a potential leak; the daily loss
// estimate attributes 30% of the extrapolated night rate to leakage.
func WaterLoss(ds *dataset.Dataset) []WaterLossEstimate {
	out := make([]WaterLossEstimate, 0, len(ds.Zones))
	for _, zone := range ds.ZonesByName() {
		var values []float64
		for _, r := range ds.FlowByZone(zone.ID) {
			if h := r.Timestamp.Hour(); h >= NightStartHour && h <= NightEndHour {
				values = append(values, r.FlowRateLPM)
			}
		}
		if len(values) == 0 {
			continue
		}
		night := stats.Round2(stats.Mean(values))
		out = append(out, WaterLossEstimate{
			ZoneID:                   zone.ID,
			ZoneName:                 zone.Name,
			NightFlowLPM:             night,
			PotentialLeak:            night > WaterLossNightFlag,
			EstimatedDailyLossLiters: math.Round(night * 60 * 24 * 0.3),
		})
	}
	return out
}

type DistributionBucket struct {
	Range string `json:"pressure_range"`
	Count int    `json:"count"`
}

// PressureDistribution buckets every reading into the operational pressure
// bands used on the dashboard.
func PressureDistribution(ds *dataset.Dataset) []DistributionBucket {
	buckets := []DistributionBucket{
		{Range: "Very Low (<30)"},
		{Range: "Low (30-40)"},
		{Range: "Normal (40-50)"},
		{Range: "Good (50-60)"},
		{Range: "High (>60)"},
	}
	for _, r := range ds.Pressure {
		switch v := r.PressurePSI; {
		case v < 30:
			buckets[0].Count++
		case v < 40:
			buckets[1].Count++
		case v < 50:
			buckets[2].Count++
		case v < 60:
			buckets[3].Count++
		default:
			buckets[4].Count++
		}
	}
	return buckets
}

// RecentPressure returns the chronological pressure series for the window
// ending at now, optionally filtered to one zone and evenly downsampled to at
// most limit points. limit <= 0 means no cap.
func RecentPressure(ds *dataset.Dataset, zoneID string, now time.Time, window time.Duration, limit int) []domain.PressureReading {
	cutoff := now.Add(-window)
	var out []domain.PressureReading
	for _, r := range ds.Pressure {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		if zoneID != "" && r.ZoneID != zoneID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.Before(out[b].Timestamp) })
	return downsample(out, limit)
}

// RecentFlow is RecentPressure for the flow table.
func RecentFlow(ds *dataset.Dataset, zoneID string, now time.Time, window time.Duration, limit int) []domain.FlowReading {
	cutoff := now.Add(-window)
	var out []domain.FlowReading
	for _, r := range ds.Flow {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		if zoneID != "" && r.ZoneID != zoneID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.Before(out[b].Timestamp) })
	return downsample(out, limit)
}

// downsample keeps every k-th element so charts stay bounded while the
// series keeps its shape.
func downsample[T any](in []T, limit int) []T {
	if limit <= 0 || len(in) <= limit {
		return in
	}
	step := (len(in) + limit - 1) / limit
	out := make([]T, 0, limit)
	for i := 0; i < len(in); i += step {
		out = append(out, in[i])
	}
	return out
}

func hourlyMeans(buckets [24][]float64) []HourlyPoint {
	out := make([]HourlyPoint, 0, 24)
	for h, values := range buckets {
		if len(values) == 0 {
			continue
		}
		out = append(out, HourlyPoint{Hour: h, Value: stats.Round2(stats.Mean(values))})
	}
	return out
}

func pressureValues(readings []domain.PressureReading) []float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.PressurePSI
	}
	return values
}

func flowValues(readings []domain.FlowReading) []float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.FlowRateLPM
	}
	return values
}
