package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akashpd1729/mit-hackathon/internal/config"
	"github.com/akashpd1729/mit-hackathon/internal/dataset"
	apihttp "github.com/akashpd1729/mit-hackathon/internal/http"
	"github.com/akashpd1729/mit-hackathon/internal/observability"
	"github.com/akashpd1729/mit-hackathon/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := service.OptionsFromConfig()
	ds, err := service.EnsureData(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("data load failed")
	}
	log.Info().
		Int("zones", len(ds.Zones)).
		Int("pressure_rows", len(ds.Pressure)).
		Int("flow_rows", len(ds.Flow)).
		Int("leak_events", len(ds.Leaks)).
		Msg("dataset loaded")

	svcs := service.New(dataset.NewStore(ds), observability.NewMetrics(), opts)
	svcs.TrackDataset(ds)
	svcs.Scan()
	go svcs.StartMonitor(context.Background(), time.Duration(config.ScanIntervalMinutes())*time.Minute)

	app := apihttp.NewApp(svcs)

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	log.Fatal().Err(app.Listen(addr)).Msg("server exit")
}
