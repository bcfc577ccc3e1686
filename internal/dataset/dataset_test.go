package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/domain"
)

const testZonesJSON = `{
  "city": "Solapur",
  "zones": [
    {"zone_id": "Z1", "zone_name": "North Solapur", "base_pressure": 50, "elevation": 110,
     "population": 12000, "num_sensors": 2, "latitude": 17.68, "longitude": 75.92},
    {"zone_id": "Z2", "zone_name": "South Solapur", "base_pressure": 45, "elevation": 130,
     "population": 8000, "num_sensors": 1, "latitude": 17.63, "longitude": 75.89}
  ]
}`

var loadT0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func writeZonesConfig(t *testing.T, dir string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ZonesConfigFile), []byte(testZonesJSON), 0o644); err != nil {
		t.Fatalf("write zones config: %v", err)
	}
}

func fixtureTables() ([]domain.PressureReading, []domain.FlowReading, []domain.LeakEvent) {
	pressure := []domain.PressureReading{
		{Timestamp: loadT0, ZoneID: "Z1", ZoneName: "North Solapur", SensorID: "Z1_S01",
			PressurePSI: 47.25, Elevation: 110, Status: domain.StatusNormal},
		{Timestamp: loadT0.Add(15 * time.Minute), ZoneID: "Z1", ZoneName: "North Solapur", SensorID: "Z1_S01",
			PressurePSI: 31.5, Elevation: 110, Status: domain.StatusLow},
		{Timestamp: loadT0, ZoneID: "Z2", ZoneName: "South Solapur", SensorID: "Z2_S01",
			PressurePSI: 44.1, Elevation: 130, Status: domain.StatusNormal},
	}
	flow := []domain.FlowReading{
		{Timestamp: loadT0, ZoneID: "Z1", ZoneName: "North Solapur", FlowRateLPM: 182.4, Population: 12000},
		{Timestamp: loadT0, ZoneID: "Z2", ZoneName: "South Solapur", FlowRateLPM: 96.75, Population: 8000},
	}
	leaks := []domain.LeakEvent{
		{EventID: "LEAK_001", Timestamp: loadT0.AddDate(0, 0, -3), ZoneID: "Z2", ZoneName: "South Solapur",
			Severity: domain.LeakModerate, EstimatedLossLiters: 12500, Status: domain.LeakResolved,
			ResponseTimeHours: 6.25},
	}
	return pressure, flow, leaks
}

func TestWriteAllLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	writeZonesConfig(t, dir)
	pressure, flow, leaks := fixtureTables()

	m, err := WriteAll(dir, pressure, flow, leaks, Manifest{Seed: 42, Days: 30, IntervalMinutes: 15})
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(m.ManifestID) != 36 {
		t.Fatalf("manifest id not a uuid: %q", m.ManifestID)
	}
	if m.PressureRows != 3 || m.FlowRows != 2 || m.LeakEvents != 1 {
		t.Fatalf("manifest counts wrong: %+v", m)
	}

	if !Exists(dir) {
		t.Fatal("Exists should be true after a full write")
	}

	ds, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Zones) != 2 || len(ds.Pressure) != 3 || len(ds.Flow) != 2 || len(ds.Leaks) != 1 {
		t.Fatalf("unexpected table sizes: %d zones, %d pressure, %d flow, %d leaks",
			len(ds.Zones), len(ds.Pressure), len(ds.Flow), len(ds.Leaks))
	}

	got := ds.Pressure[1]
	want := pressure[1]
	if !got.Timestamp.Equal(want.Timestamp) || got.SensorID != want.SensorID ||
		got.PressurePSI != want.PressurePSI || got.Elevation != want.Elevation ||
		got.Status != want.Status {
		t.Fatalf("pressure row did not survive roundtrip:\n got %+v\nwant %+v", got, want)
	}
	if ds.Flow[1].FlowRateLPM != 96.75 || ds.Flow[1].Population != 8000 {
		t.Fatalf("flow row did not survive roundtrip: %+v", ds.Flow[1])
	}
	lk := ds.Leaks[0]
	if lk.EventID != "LEAK_001" || lk.EstimatedLossLiters != 12500 || lk.ResponseTimeHours != 6.25 {
		t.Fatalf("leak row did not survive roundtrip: %+v", lk)
	}

	loaded, err := LoadManifest(dir)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if loaded.ManifestID != m.ManifestID || loaded.Seed != 42 || loaded.Days != 30 {
		t.Fatalf("manifest did not survive roundtrip: %+v", loaded)
	}
}

func TestExistsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("Exists on empty dir must be false")
	}
	writeZonesConfig(t, dir)
	if Exists(dir) {
		t.Fatal("Exists must require the CSV tables too")
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("Load must fail when tables are missing")
	}
}

func TestLoadRejectsMalformedRow(t *testing.T) {
	dir := t.TempDir()
	writeZonesConfig(t, dir)
	pressure, flow, leaks := fixtureTables()
	if _, err := WriteAll(dir, pressure, flow, leaks, Manifest{}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	path := filepath.Join(dir, PressureFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back csv: %v", err)
	}
	broken := strings.Replace(string(raw), "31.50", "not-a-number", 1)
	if broken == string(raw) {
		t.Fatal("fixture value not found in csv")
	}
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("write broken csv: %v", err)
	}

	_, err = Load(dir)
	if err == nil {
		t.Fatal("Load must reject a malformed pressure value")
	}
	if !strings.Contains(err.Error(), "pressure_psi") || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("error does not locate the bad cell: %v", err)
	}
}

func TestLoadRejectsWrongHeader(t *testing.T) {
	dir := t.TempDir()
	writeZonesConfig(t, dir)
	pressure, flow, leaks := fixtureTables()
	if _, err := WriteAll(dir, pressure, flow, leaks, Manifest{}); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	path := filepath.Join(dir, FlowFile)
	raw, _ := os.ReadFile(path)
	broken := strings.Replace(string(raw), "flow_rate_lpm", "flow", 1)
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("write broken csv: %v", err)
	}

	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "unexpected header") {
		t.Fatalf("Load must reject a renamed column, got: %v", err)
	}
}

func TestLoadZonesConfigValidation(t *testing.T) {
	dir := t.TempDir()
	bad := `{"city": "Solapur", "zones": [
	  {"zone_id": "Z1", "zone_name": "North", "base_pressure": 0, "population": 1000, "num_sensors": 1}
	]}`
	path := filepath.Join(dir, ZonesConfigFile)
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadZonesConfig(path); err == nil {
		t.Fatal("zero base_pressure must fail validation")
	}

	if err := os.WriteFile(path, []byte(`{"city": "Solapur", "zones": []}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadZonesConfig(path); err == nil {
		t.Fatal("empty zone list must fail validation")
	}
}

func TestNewRejectsUnknownZoneAndDuplicates(t *testing.T) {
	zones := []domain.Zone{{ID: "Z1", Name: "North", BasePressure: 50, Population: 1000, NumSensors: 1}}

	_, err := New(zones, []domain.PressureReading{{Timestamp: loadT0, ZoneID: "ZX", SensorID: "ZX_S01"}}, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown zone") {
		t.Fatalf("reading for unconfigured zone must fail, got: %v", err)
	}

	dup := append(zones, zones[0])
	if _, err := New(dup, nil, nil, nil); err == nil || !strings.Contains(err.Error(), "duplicate zone") {
		t.Fatalf("duplicate zone id must fail, got: %v", err)
	}
}

func TestIndexesAndWindows(t *testing.T) {
	zones := []domain.Zone{
		{ID: "Z1", Name: "North", BasePressure: 50, Population: 1000, NumSensors: 1},
		{ID: "Z2", Name: "Akkalkot Road", BasePressure: 45, Population: 2000, NumSensors: 1},
	}
	// Sensor series fed newest first; the index must order them anyway.
	pressure := []domain.PressureReading{
		{Timestamp: loadT0.Add(time.Hour), ZoneID: "Z1", SensorID: "Z1_S01", PressurePSI: 48},
		{Timestamp: loadT0, ZoneID: "Z1", SensorID: "Z1_S01", PressurePSI: 50},
		{Timestamp: loadT0, ZoneID: "Z2", SensorID: "Z2_S01", PressurePSI: 44},
	}
	flow := []domain.FlowReading{
		{Timestamp: loadT0, ZoneID: "Z2", FlowRateLPM: 90},
		{Timestamp: loadT0.Add(2 * time.Hour), ZoneID: "Z2", FlowRateLPM: 95},
	}

	ds, err := New(zones, pressure, flow, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	series := ds.SensorSeries("Z1_S01")
	if len(series) != 2 || !series[0].Timestamp.Equal(loadT0) {
		t.Fatalf("sensor series not time ordered: %+v", series)
	}

	if got := ds.SensorIDs("Z1"); len(got) != 1 || got[0] != "Z1_S01" {
		t.Fatalf("zone sensor filter wrong: %v", got)
	}
	if got := ds.SensorIDs(""); len(got) != 2 {
		t.Fatalf("all-sensor listing wrong: %v", got)
	}

	byName := ds.ZonesByName()
	if byName[0].Name != "Akkalkot Road" || byName[1].Name != "North" {
		t.Fatalf("zones not sorted by name: %+v", byName)
	}

	if got := ds.PressureSince(loadT0.Add(30 * time.Minute)); len(got) != 1 {
		t.Fatalf("pressure window wrong: %+v", got)
	}
	if got := ds.FlowSince(loadT0.Add(time.Hour)); len(got) != 1 || got[0].FlowRateLPM != 95 {
		t.Fatalf("flow window wrong: %+v", got)
	}

	if _, ok := ds.Zone("Z2"); !ok {
		t.Fatal("zone lookup failed")
	}
	if _, ok := ds.Zone("ZX"); ok {
		t.Fatal("unknown zone lookup must miss")
	}
}

func TestStoreSwap(t *testing.T) {
	zones := []domain.Zone{{ID: "Z1", Name: "North", BasePressure: 50, Population: 1000, NumSensors: 1}}
	first, err := New(zones, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(zones, nil, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	store := NewStore(first)
	if store.Current() != first {
		t.Fatal("store does not return the seeded dataset")
	}
	store.Swap(second)
	if store.Current() != second {
		t.Fatal("swap did not replace the snapshot")
	}
}
