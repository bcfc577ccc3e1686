package config

import "github.com/spf13/viper"

func Load() error {
	// Server addresses
	viper.SetDefault("API_ADDR", ":8080")
	viper.SetDefault("DASHBOARD_ADDR", ":3000")
	viper.SetDefault("API_URL", "http://localhost:8080")

	// Data layout
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("TEMPLATES_DIR", "web/templates")
	viper.SetDefault("STATIC_DIR", "web/static")

	// Synthetic data generation
	viper.SetDefault("GENERATE_DAYS", 30)
	viper.SetDefault("INTERVAL_MINUTES", 15)
	viper.SetDefault("LEAK_EVENTS", 20)
	viper.SetDefault("RNG_SEED", 0) // 0 = seed from wall clock

	// Detection thresholds (PSI, LPM, z-scores)
	viper.SetDefault("PRESSURE_Z_THRESHOLD", 2.5)
	viper.SetDefault("FLOW_Z_THRESHOLD", 2.0)
	viper.SetDefault("NIGHT_FLOW_THRESHOLD", 300.0)
	viper.SetDefault("BURST_DROP_THRESHOLD", 15.0)
	viper.SetDefault("LOW_PRESSURE_THRESHOLD", 35.0)

	// Background scan keeping the findings gauges fresh
	viper.SetDefault("SCAN_INTERVAL_MINUTES", 15)

	viper.AutomaticEnv()
	return nil
}

func APIAddr() string       { return viper.GetString("API_ADDR") }
func DashboardAddr() string { return viper.GetString("DASHBOARD_ADDR") }
func APIURL() string        { return viper.GetString("API_URL") }
func DataDir() string       { return viper.GetString("DATA_DIR") }
func TemplatesDir() string  { return viper.GetString("TEMPLATES_DIR") }
func StaticDir() string     { return viper.GetString("STATIC_DIR") }

func GenerateDays() int    { return viper.GetInt("GENERATE_DAYS") }
func IntervalMinutes() int { return viper.GetInt("INTERVAL_MINUTES") }
func LeakEvents() int      { return viper.GetInt("LEAK_EVENTS") }
func RNGSeed() int64       { return viper.GetInt64("RNG_SEED") }

func ScanIntervalMinutes() int { return viper.GetInt("SCAN_INTERVAL_MINUTES") }

func PressureZThreshold() float64   { return viper.GetFloat64("PRESSURE_Z_THRESHOLD") }
func FlowZThreshold() float64       { return viper.GetFloat64("FLOW_Z_THRESHOLD") }
func NightFlowThreshold() float64   { return viper.GetFloat64("NIGHT_FLOW_THRESHOLD") }
func BurstDropThreshold() float64   { return viper.GetFloat64("BURST_DROP_THRESHOLD") }
func LowPressureThreshold() float64 { return viper.GetFloat64("LOW_PRESSURE_THRESHOLD") }
