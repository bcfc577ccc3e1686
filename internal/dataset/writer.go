package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/akashpd1729/mit-hackathon/internal/domain"
)

// Manifest records what a generation run produced so regeneration is
// observable from the API and the dashboard.
type Manifest struct {
	ManifestID      string    `json:"manifest_id"`
	GeneratedAt     time.Time `json:"generated_at"`
	Seed            int64     `json:"seed"`
	Days            int       `json:"days"`
	IntervalMinutes int       `json:"interval_minutes"`
	PressureRows    int       `json:"pressure_rows"`
	FlowRows        int       `json:"flow_rows"`
	LeakEvents      int       `json:"leak_events"`
}

// WriteAll writes the three CSV tables plus a manifest under dir, replacing
// any previous generation wholesale. The caller fills the generation
// parameters on m; id, timestamp and row counts are filled here.
func WriteAll(dir string, pressure []domain.PressureReading, flow []domain.FlowReading, leaks []domain.LeakEvent, m Manifest) (Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create data dir: %w", err)
	}

	if err := writePressureCSV(filepath.Join(dir, PressureFile), pressure); err != nil {
		return Manifest{}, err
	}
	if err := writeFlowCSV(filepath.Join(dir, FlowFile), flow); err != nil {
		return Manifest{}, err
	}
	if err := writeLeakCSV(filepath.Join(dir, LeakEventsFile), leaks); err != nil {
		return Manifest{}, err
	}

	m.ManifestID = uuid.NewString()
	m.GeneratedAt = time.Now().UTC()
	m.PressureRows = len(pressure)
	m.FlowRows = len(flow)
	m.LeakEvents = len(leaks)

	raw, err := sonic.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), raw, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return m, nil
}

// LoadManifest reads the manifest of the current generation, if present.
func LoadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func writePressureCSV(path string, readings []domain.PressureReading) error {
	return writeCSV(path, pressureHeader, len(readings), func(i int) []string {
		r := readings[i]
		return []string{
			r.Timestamp.Format(time.RFC3339),
			r.ZoneID,
			r.ZoneName,
			r.SensorID,
			strconv.FormatFloat(r.PressurePSI, 'f', 2, 64),
			strconv.FormatFloat(r.Elevation, 'f', -1, 64),
			r.Status,
		}
	})
}

func writeFlowCSV(path string, readings []domain.FlowReading) error {
	return writeCSV(path, flowHeader, len(readings), func(i int) []string {
		r := readings[i]
		return []string{
			r.Timestamp.Format(time.RFC3339),
			r.ZoneID,
			r.ZoneName,
			strconv.FormatFloat(r.FlowRateLPM, 'f', 2, 64),
			strconv.Itoa(r.Population),
		}
	})
}

func writeLeakCSV(path string, events []domain.LeakEvent) error {
	return writeCSV(path, leakHeader, len(events), func(i int) []string {
		ev := events[i]
		return []string{
			ev.EventID,
			ev.Timestamp.Format(time.RFC3339),
			ev.ZoneID,
			ev.ZoneName,
			ev.Severity,
			strconv.Itoa(ev.EstimatedLossLiters),
			ev.Status,
			strconv.FormatFloat(ev.ResponseTimeHours, 'f', 2, 64),
		}
	})
}

func writeCSV(path string, header []string, rows int, row func(int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", path, err)
	}
	for i := 0; i < rows; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write %s row %d: %w", path, i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
