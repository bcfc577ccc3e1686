package analytics

import (
	"testing"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/domain"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func mustDataset(t *testing.T, pressure []domain.PressureReading, flow []domain.FlowReading) *dataset.Dataset {
	t.Helper()
	zones := []domain.Zone{
		{ID: "Z1", Name: "Alpha", BasePressure: 50, Elevation: 100, Population: 10000, NumSensors: 2, Latitude: 17.65, Longitude: 75.9},
		{ID: "Z2", Name: "Beta", BasePressure: 45, Elevation: 120, Population: 20000, NumSensors: 1, Latitude: 17.7, Longitude: 75.85},
	}
	ds, err := dataset.New(zones, pressure, flow, nil)
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return ds
}

func pr(zoneID, zoneName, sensorID string, ts time.Time, psi float64) domain.PressureReading {
	return domain.PressureReading{
		Timestamp:   ts,
		ZoneID:      zoneID,
		ZoneName:    zoneName,
		SensorID:    sensorID,
		PressurePSI: psi,
		Status:      domain.StatusNormal,
	}
}

func fr(zoneID, zoneName string, ts time.Time, lpm float64) domain.FlowReading {
	return domain.FlowReading{
		Timestamp:   ts,
		ZoneID:      zoneID,
		ZoneName:    zoneName,
		FlowRateLPM: lpm,
		Population:  10000,
	}
}

func TestZoneStatistics(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", testNow, 40),
		pr("Z1", "Alpha", "Z1_S01", testNow.Add(time.Hour), 50),
		pr("Z1", "Alpha", "Z1_S01", testNow.Add(2*time.Hour), 60),
		pr("Z2", "Beta", "Z2_S01", testNow, 45),
	}, nil)

	got := ZoneStatistics(ds)
	if len(got) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(got))
	}
	alpha := got[0]
	if alpha.ZoneName != "Alpha" {
		t.Fatalf("zones should be ordered by name, got %q first", alpha.ZoneName)
	}
	if alpha.AvgPressure != 50 || alpha.MinPressure != 40 || alpha.MaxPressure != 60 {
		t.Fatalf("unexpected Alpha stats: %+v", alpha)
	}
	if alpha.StdPressure != 10 {
		t.Fatalf("expected sample std 10, got %v", alpha.StdPressure)
	}
	if alpha.NumSensors != 1 {
		t.Fatalf("expected 1 sensor in Alpha, got %d", alpha.NumSensors)
	}
	if beta := got[1]; beta.StdPressure != 0 {
		t.Fatalf("single sample should give std 0, got %v", beta.StdPressure)
	}
}

func TestSensorStatistics(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S02", testNow, 30),
		pr("Z1", "Alpha", "Z1_S01", testNow, 40),
		pr("Z1", "Alpha", "Z1_S01", testNow.Add(time.Hour), 60),
		pr("Z2", "Beta", "Z2_S01", testNow, 45),
	}, nil)

	got := SensorStatistics(ds, "Z1")
	if len(got) != 2 {
		t.Fatalf("expected 2 sensors, got %+v", got)
	}
	if got[0].SensorID != "Z1_S01" || got[1].SensorID != "Z1_S02" {
		t.Fatalf("sensors should be ordered by id: %+v", got)
	}
	if got[0].AvgPressure != 50 || got[0].MinPressure != 40 || got[0].MaxPressure != 60 {
		t.Fatalf("unexpected Z1_S01 stats: %+v", got[0])
	}
}

func TestHourlyPressureZoneFilter(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", day.Add(2*time.Hour), 40),
		pr("Z2", "Beta", "Z2_S01", day.Add(2*time.Hour), 60),
		pr("Z1", "Alpha", "Z1_S01", day.Add(14*time.Hour), 50),
	}, nil)

	all := HourlyPressure(ds, "")
	if len(all) != 2 {
		t.Fatalf("expected 2 populated hours, got %+v", all)
	}
	if all[0].Hour != 2 || all[0].Value != 50 {
		t.Fatalf("hour 2 should average to 50: %+v", all[0])
	}

	only := HourlyPressure(ds, "Z2")
	if len(only) != 1 || only[0].Hour != 2 || only[0].Value != 60 {
		t.Fatalf("unexpected filtered result: %+v", only)
	}
}

func TestPeakDemandTimes(t *testing.T) {
	day := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	ds := mustDataset(t, nil, []domain.FlowReading{
		fr("Z1", "Alpha", day.Add(3*time.Hour), 50),
		fr("Z1", "Alpha", day.Add(7*time.Hour), 200),
		fr("Z1", "Alpha", day.Add(19*time.Hour), 180),
	})

	got := PeakDemandTimes(ds)
	if len(got) != 3 {
		t.Fatalf("expected 3 hours, got %+v", got)
	}
	if got[0].Hour != 7 || got[1].Hour != 19 || got[2].Hour != 3 {
		t.Fatalf("hours should be ranked by demand: %+v", got)
	}
}

func TestCompareZones(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", testNow, 40),
		pr("Z2", "Beta", "Z2_S01", testNow, 55),
	}, nil)

	got := CompareZones(ds)
	if len(got) != 2 || got[0].ZoneName != "Beta" {
		t.Fatalf("highest pressure zone should rank first: %+v", got)
	}
	if got[0].Elevation != 120 {
		t.Fatalf("comparison should carry elevation: %+v", got[0])
	}
}

func TestLowPressureZones(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -2), 30),
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -3), 32),
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -10), 20),
		pr("Z2", "Beta", "Z2_S01", testNow.AddDate(0, 0, -1), 40),
	}, nil)

	got := LowPressureZones(ds, 35, testNow, 7*24*time.Hour)
	if len(got) != 1 {
		t.Fatalf("expected only Alpha below threshold, got %+v", got)
	}
	if got[0].LowCount != 2 {
		t.Fatalf("reading outside window must not count: %+v", got[0])
	}
	if got[0].AvgLowPressure != 31 {
		t.Fatalf("expected avg 31, got %v", got[0].AvgLowPressure)
	}
}

func TestFlowStatistics(t *testing.T) {
	ds := mustDataset(t, nil, []domain.FlowReading{
		fr("Z1", "Alpha", testNow, 100),
		fr("Z1", "Alpha", testNow.Add(time.Hour), 200),
	})

	got := FlowStatistics(ds)
	if len(got) != 1 {
		t.Fatalf("expected 1 zone with flow, got %+v", got)
	}
	z := got[0]
	if z.AvgFlow != 150 || z.MinFlow != 100 || z.MaxFlow != 200 || z.TotalFlow != 300 {
		t.Fatalf("unexpected flow stats: %+v", z)
	}
	if z.PerCapitaFlow != 15 {
		t.Fatalf("expected 15 LPM per 1000 residents, got %v", z.PerCapitaFlow)
	}
}

func TestRecentTrends(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -1), 40),
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -1).Add(time.Hour), 50),
		pr("Z1", "Alpha", "Z1_S01", testNow, 60),
		pr("Z1", "Alpha", "Z1_S01", testNow.AddDate(0, 0, -9), 10),
	}, nil)

	got := RecentTrends(ds, testNow, 7)
	if len(got) != 2 {
		t.Fatalf("expected 2 daily points, got %+v", got)
	}
	if got[0].Date != "2025-06-14" || got[0].AvgPressure != 45 {
		t.Fatalf("unexpected first day: %+v", got[0])
	}
	if got[1].Date != "2025-06-15" || got[1].AvgPressure != 60 {
		t.Fatalf("unexpected second day: %+v", got[1])
	}
}

func TestWaterLoss(t *testing.T) {
	night := time.Date(2025, 6, 14, 3, 0, 0, 0, time.UTC)
	noon := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)
	ds := mustDataset(t, nil, []domain.FlowReading{
		fr("Z1", "Alpha", night, 250),
		fr("Z1", "Alpha", night.Add(15*time.Minute), 350),
		fr("Z1", "Alpha", noon, 500),
		fr("Z2", "Beta", night, 100),
	})

	got := WaterLoss(ds)
	if len(got) != 2 {
		t.Fatalf("expected both zones, got %+v", got)
	}
	alpha := got[0]
	if alpha.NightFlowLPM != 300 {
		t.Fatalf("daytime reading must not enter night mean: %+v", alpha)
	}
	if !alpha.PotentialLeak {
		t.Fatalf("night flow 300 should flag a leak: %+v", alpha)
	}
	if alpha.EstimatedDailyLossLiters != 129600 {
		t.Fatalf("expected 300*60*24*0.3 = 129600, got %v", alpha.EstimatedDailyLossLiters)
	}
	if beta := got[1]; beta.PotentialLeak || beta.EstimatedDailyLossLiters != 43200 {
		t.Fatalf("unexpected Beta estimate: %+v", beta)
	}
}

func TestRecentPressureWindowAndSampling(t *testing.T) {
	var readings []domain.PressureReading
	// 48 quarter-hour samples ending at testNow, fed newest first, plus one
	// reading outside the window.
	for i := 0; i < 48; i++ {
		ts := testNow.Add(-time.Duration(i) * 15 * time.Minute)
		readings = append(readings, pr("Z1", "Alpha", "Z1_S01", ts, float64(i)))
	}
	readings = append(readings, pr("Z2", "Beta", "Z2_S01", testNow.Add(-48*time.Hour), 40))
	ds := mustDataset(t, readings, nil)

	got := RecentPressure(ds, "", testNow, 24*time.Hour, 0)
	if len(got) != 48 {
		t.Fatalf("expected all 48 in-window readings, got %d", len(got))
	}
	if !got[0].Timestamp.Before(got[47].Timestamp) {
		t.Fatalf("series should be chronological: %v .. %v", got[0].Timestamp, got[47].Timestamp)
	}

	sampled := RecentPressure(ds, "", testNow, 24*time.Hour, 12)
	if len(sampled) != 12 {
		t.Fatalf("expected downsampling to 12 points, got %d", len(sampled))
	}
	if !sampled[0].Timestamp.Equal(got[0].Timestamp) {
		t.Fatalf("sampling should keep the oldest point: %+v", sampled[0])
	}

	zoneOnly := RecentPressure(ds, "Z2", testNow, 72*time.Hour, 0)
	if len(zoneOnly) != 1 || zoneOnly[0].ZoneID != "Z2" {
		t.Fatalf("unexpected zone filter result: %+v", zoneOnly)
	}
}

func TestRecentFlowWindow(t *testing.T) {
	ds := mustDataset(t, nil, []domain.FlowReading{
		fr("Z1", "Alpha", testNow.Add(-30*time.Minute), 120),
		fr("Z1", "Alpha", testNow.Add(-2*time.Hour), 80),
		fr("Z1", "Alpha", testNow.Add(-30*time.Hour), 999),
	})

	got := RecentFlow(ds, "Z1", testNow, 24*time.Hour, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 in-window readings, got %+v", got)
	}
	if got[0].FlowRateLPM != 80 || got[1].FlowRateLPM != 120 {
		t.Fatalf("series should be chronological: %+v", got)
	}
}

func TestPressureDistribution(t *testing.T) {
	ds := mustDataset(t, []domain.PressureReading{
		pr("Z1", "Alpha", "Z1_S01", testNow, 25),
		pr("Z1", "Alpha", "Z1_S01", testNow, 35),
		pr("Z1", "Alpha", "Z1_S01", testNow, 45),
		pr("Z1", "Alpha", "Z1_S01", testNow, 55),
		pr("Z1", "Alpha", "Z1_S01", testNow, 65),
	}, nil)

	got := PressureDistribution(ds)
	if len(got) != 5 {
		t.Fatalf("expected 5 buckets, got %+v", got)
	}
	for i, b := range got {
		if b.Count != 1 {
			t.Fatalf("bucket %d (%s) should hold one reading: %+v", i, b.Range, got)
		}
	}
	if got[0].Range != "Very Low (<30)" || got[4].Range != "High (>60)" {
		t.Fatalf("unexpected bucket labels: %+v", got)
	}
}
