package dataset

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/akashpd1729/mit-hackathon/internal/domain"
)

// Dataset is the in-memory table set every computation runs over. It is
// built once from the static files and never mutated afterwards; regeneration
// replaces the whole value.
type Dataset struct {
	Zones    []domain.Zone
	Pressure []domain.PressureReading
	Flow     []domain.FlowReading
	Leaks    []domain.LeakEvent
	LoadedAt time.Time

	zoneByID       map[string]domain.Zone
	pressureByZone map[string][]domain.PressureReading
	flowByZone     map[string][]domain.FlowReading
	sensorSeries   map[string][]domain.PressureReading
}

// New indexes the given tables and enforces the one referential rule the data
// model has: every reading and event must point at a configured zone.
func New(zones []domain.Zone, pressure []domain.PressureReading, flow []domain.FlowReading, leaks []domain.LeakEvent) (*Dataset, error) {
	d := &Dataset{
		Zones:    zones,
		Pressure: pressure,
		Flow:     flow,
		Leaks:    leaks,
		LoadedAt: time.Now(),

		zoneByID:       make(map[string]domain.Zone, len(zones)),
		pressureByZone: make(map[string][]domain.PressureReading),
		flowByZone:     make(map[string][]domain.FlowReading),
		sensorSeries:   make(map[string][]domain.PressureReading),
	}

	for _, z := range zones {
		if _, dup := d.zoneByID[z.ID]; dup {
			return nil, fmt.Errorf("duplicate zone id %q in zones config", z.ID)
		}
		d.zoneByID[z.ID] = z
	}

	for i, r := range pressure {
		if _, ok := d.zoneByID[r.ZoneID]; !ok {
			return nil, fmt.Errorf("pressure reading %d references unknown zone %q", i, r.ZoneID)
		}
		d.pressureByZone[r.ZoneID] = append(d.pressureByZone[r.ZoneID], r)
		d.sensorSeries[r.SensorID] = append(d.sensorSeries[r.SensorID], r)
	}
	for i, r := range flow {
		if _, ok := d.zoneByID[r.ZoneID]; !ok {
			return nil, fmt.Errorf("flow reading %d references unknown zone %q", i, r.ZoneID)
		}
		d.flowByZone[r.ZoneID] = append(d.flowByZone[r.ZoneID], r)
	}
	for i, ev := range leaks {
		if _, ok := d.zoneByID[ev.ZoneID]; !ok {
			return nil, fmt.Errorf("leak event %d references unknown zone %q", i, ev.ZoneID)
		}
	}

	// Burst detection diffs consecutive samples, so sensor series must be
	// time-ordered regardless of file order.
	for id := range d.sensorSeries {
		series := d.sensorSeries[id]
		sort.Slice(series, func(a, b int) bool { return series[a].Timestamp.Before(series[b].Timestamp) })
	}

	return d, nil
}

// Zone looks up a configured zone by id.
func (d *Dataset) Zone(id string) (domain.Zone, bool) {
	z, ok := d.zoneByID[id]
	return z, ok
}

// ZonesByName returns the zones sorted by display name, the order every
// per-zone table and chart uses.
func (d *Dataset) ZonesByName() []domain.Zone {
	out := make([]domain.Zone, len(d.Zones))
	copy(out, d.Zones)
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// PressureByZone returns all pressure readings for a zone (file order).
func (d *Dataset) PressureByZone(zoneID string) []domain.PressureReading {
	return d.pressureByZone[zoneID]
}

// FlowByZone returns all flow readings for a zone (file order).
func (d *Dataset) FlowByZone(zoneID string) []domain.FlowReading {
	return d.flowByZone[zoneID]
}

// SensorSeries returns a sensor's readings ordered by timestamp.
func (d *Dataset) SensorSeries(sensorID string) []domain.PressureReading {
	return d.sensorSeries[sensorID]
}

// SensorIDs returns the sorted sensor ids seen in a zone's pressure data.
// An empty zoneID returns every sensor in the dataset.
func (d *Dataset) SensorIDs(zoneID string) []string {
	var ids []string
	for id, series := range d.sensorSeries {
		if zoneID != "" && (len(series) == 0 || series[0].ZoneID != zoneID) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PressureSince returns pressure readings at or after cutoff.
func (d *Dataset) PressureSince(cutoff time.Time) []domain.PressureReading {
	var out []domain.PressureReading
	for _, r := range d.Pressure {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// FlowSince returns flow readings at or after cutoff.
func (d *Dataset) FlowSince(cutoff time.Time) []domain.FlowReading {
	var out []domain.FlowReading
	for _, r := range d.Flow {
		if !r.Timestamp.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// Store hands out the current dataset and lets a regeneration swap it
// wholesale. Readers always see a complete, consistent snapshot; there is no
// finer-grained mutation.
type Store struct {
	mu sync.RWMutex
	ds *Dataset
}

func NewStore(ds *Dataset) *Store {
	return &Store{ds: ds}
}

// Current returns the dataset snapshot to compute over.
func (s *Store) Current() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// Swap replaces the dataset after a regeneration.
func (s *Store) Swap(ds *Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
}
