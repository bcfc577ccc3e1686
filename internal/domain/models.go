package domain

import "time"

// Zone is one municipal water-distribution area, loaded once from zones_config.json.
type Zone struct {
	ID           string  `json:"zone_id" validate:"required"`
	Name         string  `json:"zone_name" validate:"required"`
	BasePressure float64 `json:"base_pressure" validate:"gt=0"`
	Elevation    float64 `json:"elevation"`
	Population   int     `json:"population" validate:"gt=0"`
	NumSensors   int     `json:"num_sensors" validate:"gte=1"`
	Latitude     float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude    float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// ZonesConfig is the static network description the whole system is keyed on.
type ZonesConfig struct {
	City  string `json:"city"`
	Zones []Zone `json:"zones" validate:"required,min=1,dive"`
}

// PressureReading is a single sensor sample from pressure_data.csv.
type PressureReading struct {
	Timestamp   time.Time `json:"timestamp"`
	ZoneID      string    `json:"zone_id"`
	ZoneName    string    `json:"zone_name"`
	SensorID    string    `json:"sensor_id"`
	PressurePSI float64   `json:"pressure_psi"`
	Elevation   float64   `json:"elevation"`
	Status      string    `json:"status"`
}

// FlowReading is a zone-level flow sample from flow_data.csv.
type FlowReading struct {
	Timestamp   time.Time `json:"timestamp"`
	ZoneID      string    `json:"zone_id"`
	ZoneName    string    `json:"zone_name"`
	FlowRateLPM float64   `json:"flow_rate_lpm"`
	Population  int       `json:"population"`
}

// LeakEvent is a recorded abnormal water-loss incident from leak_events.csv.
type LeakEvent struct {
	EventID             string    `json:"event_id"`
	Timestamp           time.Time `json:"timestamp"`
	ZoneID              string    `json:"zone_id"`
	ZoneName            string    `json:"zone_name"`
	Severity            string    `json:"severity"`
	EstimatedLossLiters int       `json:"estimated_loss_liters"`
	Status              string    `json:"status"`
	ResponseTimeHours   float64   `json:"response_time_hours"`
}

// Reading status labels written by the generator.
const (
	StatusNormal = "normal"
	StatusLow    = "low"
)

// Leak event severities.
const (
	LeakMinor    = "minor"
	LeakModerate = "moderate"
	LeakSevere   = "severe"
)

// Leak event lifecycle states.
const (
	LeakDetected = "detected"
	LeakResolved = "resolved"
)
