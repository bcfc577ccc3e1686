package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/akashpd1729/mit-hackathon/internal/domain"
)

// File names under the data directory. The generator writes them, the loader
// reads them back; nothing else touches them.
const (
	ZonesConfigFile = "zones_config.json"
	PressureFile    = "pressure_data.csv"
	FlowFile        = "flow_data.csv"
	LeakEventsFile  = "leak_events.csv"
	ManifestFile    = "dataset_manifest.json"
)

var validate = validator.New()

// LoadZonesConfig reads and validates the static zone configuration.
func LoadZonesConfig(path string) (*domain.ZonesConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones config: %w", err)
	}

	var cfg domain.ZonesConfig
	if err := sonic.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse zones config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid zones config: %w", err)
	}
	return &cfg, nil
}

// Load reads the zone config and the three CSV tables from dir into a new
// Dataset. Any missing file or malformed row aborts the load.
func Load(dir string) (*Dataset, error) {
	cfg, err := LoadZonesConfig(filepath.Join(dir, ZonesConfigFile))
	if err != nil {
		return nil, err
	}

	pressure, err := loadPressureCSV(filepath.Join(dir, PressureFile))
	if err != nil {
		return nil, err
	}
	flow, err := loadFlowCSV(filepath.Join(dir, FlowFile))
	if err != nil {
		return nil, err
	}
	leaks, err := loadLeakCSV(filepath.Join(dir, LeakEventsFile))
	if err != nil {
		return nil, err
	}

	return New(cfg.Zones, pressure, flow, leaks)
}

// Exists reports whether all dataset files are present in dir.
func Exists(dir string) bool {
	for _, name := range []string{ZonesConfigFile, PressureFile, FlowFile, LeakEventsFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

var (
	pressureHeader = []string{"timestamp", "zone_id", "zone_name", "sensor_id", "pressure_psi", "elevation", "status"}
	flowHeader     = []string{"timestamp", "zone_id", "zone_name", "flow_rate_lpm", "population"}
	leakHeader     = []string{"event_id", "timestamp", "zone_id", "zone_name", "severity", "estimated_loss_liters", "status", "response_time_hours"}
)

func loadPressureCSV(path string) ([]domain.PressureReading, error) {
	rows, err := readCSV(path, pressureHeader)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PressureReading, 0, len(rows))
	for i, rec := range rows {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, rowErr(path, i, "timestamp", err)
		}
		pressure, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, rowErr(path, i, "pressure_psi", err)
		}
		elevation, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, rowErr(path, i, "elevation", err)
		}
		out = append(out, domain.PressureReading{
			Timestamp:   ts,
			ZoneID:      rec[1],
			ZoneName:    rec[2],
			SensorID:    rec[3],
			PressurePSI: pressure,
			Elevation:   elevation,
			Status:      rec[6],
		})
	}
	return out, nil
}

func loadFlowCSV(path string) ([]domain.FlowReading, error) {
	rows, err := readCSV(path, flowHeader)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FlowReading, 0, len(rows))
	for i, rec := range rows {
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, rowErr(path, i, "timestamp", err)
		}
		flow, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, rowErr(path, i, "flow_rate_lpm", err)
		}
		population, err := strconv.Atoi(rec[4])
		if err != nil {
			return nil, rowErr(path, i, "population", err)
		}
		out = append(out, domain.FlowReading{
			Timestamp:   ts,
			ZoneID:      rec[1],
			ZoneName:    rec[2],
			FlowRateLPM: flow,
			Population:  population,
		})
	}
	return out, nil
}

func loadLeakCSV(path string) ([]domain.LeakEvent, error) {
	rows, err := readCSV(path, leakHeader)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LeakEvent, 0, len(rows))
	for i, rec := range rows {
		ts, err := time.Parse(time.RFC3339, rec[1])
		if err != nil {
			return nil, rowErr(path, i, "timestamp", err)
		}
		loss, err := strconv.Atoi(rec[5])
		if err != nil {
			return nil, rowErr(path, i, "estimated_loss_liters", err)
		}
		response, err := strconv.ParseFloat(rec[7], 64)
		if err != nil {
			return nil, rowErr(path, i, "response_time_hours", err)
		}
		out = append(out, domain.LeakEvent{
			EventID:             rec[0],
			Timestamp:           ts,
			ZoneID:              rec[2],
			ZoneName:            rec[3],
			Severity:            rec[4],
			EstimatedLossLiters: loss,
			Status:              rec[6],
			ResponseTimeHours:   response,
		})
	}
	return out, nil
}

// readCSV reads all data rows from path after checking the header matches
// the expected column set exactly.
func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	got, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", path, err)
	}
	if strings.Join(got, ",") != strings.Join(header, ",") {
		return nil, fmt.Errorf("%s: unexpected header %q, want %q", path, strings.Join(got, ","), strings.Join(header, ","))
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func rowErr(path string, row int, column string, err error) error {
	// +2 converts the zero-based data index to a 1-based line number below the header.
	return fmt.Errorf("%s line %d: bad %s: %w", path, row+2, column, err)
}
