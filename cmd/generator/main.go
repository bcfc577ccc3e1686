package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akashpd1729/mit-hackathon/internal/config"
	"github.com/akashpd1729/mit-hackathon/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := service.OptionsFromConfig()
	m, err := service.GenerateData(opts, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("generation failed")
	}

	log.Info().
		Str("manifest_id", m.ManifestID).
		Str("dir", opts.DataDir).
		Int("days", m.Days).
		Int("interval_minutes", m.IntervalMinutes).
		Int64("seed", m.Seed).
		Int("pressure_rows", m.PressureRows).
		Int("flow_rows", m.FlowRows).
		Int("leak_events", m.LeakEvents).
		Msg("synthetic data written")
}
