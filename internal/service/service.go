package service

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akashpd1729/mit-hackathon/internal/anomaly"
	"github.com/akashpd1729/mit-hackathon/internal/config"
	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	"github.com/akashpd1729/mit-hackathon/internal/generator"
	"github.com/akashpd1729/mit-hackathon/internal/observability"
	"github.com/akashpd1729/mit-hackathon/internal/report"
)

// LowPressureWindow is how far back the low-pressure scans look.
const LowPressureWindow = 7 * 24 * time.Hour

// Options carries everything the services need from the environment.
type Options struct {
	DataDir         string
	Days            int
	IntervalMinutes int
	LeakEvents      int
	Seed            int64

	PressureZ   float64
	FlowZ       float64
	NightFlow   float64
	BurstDrop   float64
	LowPressure float64
}

func OptionsFromConfig() Options {
	return Options{
		DataDir:         config.DataDir(),
		Days:            config.GenerateDays(),
		IntervalMinutes: config.IntervalMinutes(),
		LeakEvents:      config.LeakEvents(),
		Seed:            config.RNGSeed(),
		PressureZ:       config.PressureZThreshold(),
		FlowZ:           config.FlowZThreshold(),
		NightFlow:       config.NightFlowThreshold(),
		BurstDrop:       config.BurstDropThreshold(),
		LowPressure:     config.LowPressureThreshold(),
	}
}

// Services bundles the dataset store with the computation layers the API
// exposes.
type Services struct {
	Store    *dataset.Store
	Detector *anomaly.Detector
	Reports  *report.Builder
	Metrics  *observability.Metrics
	Opts     Options
}

func New(store *dataset.Store, metrics *observability.Metrics, opts Options) *Services {
	det := anomaly.NewDetector(opts.PressureZ, opts.FlowZ, opts.NightFlow, opts.BurstDrop)
	return &Services{
		Store:    store,
		Detector: det,
		Reports:  report.NewBuilder(det, opts.LowPressure, LowPressureWindow),
		Metrics:  metrics,
		Opts:     opts,
	}
}

// Snapshot returns the dataset every request computes over.
func (s *Services) Snapshot() *dataset.Dataset {
	return s.Store.Current()
}

// TrackDataset publishes a loaded dataset's row counts.
func (s *Services) TrackDataset(ds *dataset.Dataset) {
	s.Metrics.SetDatasetRows(len(ds.Pressure), len(ds.Flow), len(ds.Leaks))
}

// Scan runs a full detection pass over the current snapshot and publishes
// the finding counts.
func (s *Services) Scan() anomaly.ScanResult {
	res := s.Detector.Scan(s.Snapshot())
	s.Metrics.SetFindings(
		res.Summary.TotalPressureAnomalies,
		res.Summary.TotalFlowAnomalies,
		res.Summary.PotentialLeaks,
		res.Summary.PotentialBursts,
	)
	return res
}

// GenerateReport builds and exports the system report, returning it together
// with the file it was written to.
func (s *Services) GenerateReport(now time.Time) (report.Report, string, error) {
	r := s.Reports.Build(s.Snapshot(), now)
	path, err := report.Export(s.Opts.DataDir, r)
	if err != nil {
		return report.Report{}, "", err
	}
	return r, path, nil
}

// LatestReport reads back the most recently exported report.
func (s *Services) LatestReport() (report.Report, error) {
	return report.LoadLatest(s.Opts.DataDir)
}

// Regenerate produces a fresh synthetic dataset, reloads it from disk and
// swaps it in for all subsequent requests.
func (s *Services) Regenerate() (dataset.Manifest, error) {
	started := time.Now()

	m, err := GenerateData(s.Opts, time.Now())
	if err != nil {
		return dataset.Manifest{}, err
	}
	ds, err := dataset.Load(s.Opts.DataDir)
	if err != nil {
		return dataset.Manifest{}, fmt.Errorf("reload generated data: %w", err)
	}
	s.Store.Swap(ds)
	s.TrackDataset(ds)
	s.Metrics.ObserveGeneration(time.Since(started))

	log.Info().
		Str("manifest_id", m.ManifestID).
		Int("pressure_rows", m.PressureRows).
		Int("flow_rows", m.FlowRows).
		Int("leak_events", m.LeakEvents).
		Msg("dataset regenerated")
	return m, nil
}

// GenerateData synthesizes the full data directory: pressure and flow series
// covering the configured window ending now, plus the historical leak log.
func GenerateData(opts Options, now time.Time) (dataset.Manifest, error) {
	cfg, err := dataset.LoadZonesConfig(filepath.Join(opts.DataDir, dataset.ZonesConfigFile))
	if err != nil {
		return dataset.Manifest{}, err
	}

	g := generator.New(cfg, opts.Seed)
	start := now.AddDate(0, 0, -opts.Days)
	pressure := g.PressureSeries(start, opts.Days, opts.IntervalMinutes)
	flow := g.FlowSeries(start, opts.Days, opts.IntervalMinutes)
	leaks := g.LeakEventSeries(now, opts.LeakEvents)

	return dataset.WriteAll(opts.DataDir, pressure, flow, leaks, dataset.Manifest{
		Seed:            opts.Seed,
		Days:            opts.Days,
		IntervalMinutes: opts.IntervalMinutes,
	})
}

// EnsureData loads the dataset from the data directory, generating the
// synthetic files first if they are missing.
func EnsureData(opts Options) (*dataset.Dataset, error) {
	if !dataset.Exists(opts.DataDir) {
		log.Info().Str("dir", opts.DataDir).Msg("data files not found, generating synthetic data")
		if _, err := GenerateData(opts, time.Now()); err != nil {
			return nil, err
		}
	}
	return dataset.Load(opts.DataDir)
}
