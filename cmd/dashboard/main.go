package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/akashpd1729/mit-hackathon/internal/config"
	"github.com/akashpd1729/mit-hackathon/internal/dashboard"
	"github.com/akashpd1729/mit-hackathon/internal/dashboard/api"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	client := api.New(config.APIURL())
	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
	defer cancel()
	if err := client.WaitReady(ctx); err != nil {
		log.Warn().Err(err).Str("api_url", config.APIURL()).Msg("api not reachable, pages will retry on demand")
	}

	srv, err := dashboard.New(client, config.TemplatesDir(), config.StaticDir())
	if err != nil {
		log.Fatal().Err(err).Msg("dashboard init failed")
	}

	addr := config.DashboardAddr()
	log.Info().Str("addr", addr).Str("api_url", config.APIURL()).Msg("dashboard listening")
	log.Fatal().Err(http.ListenAndServe(addr, srv)).Msg("server exit")
}
