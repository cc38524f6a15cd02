package main

import (
	"context"
	"time"

	"github.com/kingball/kingball/pkg/config"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/monitoring"
	"github.com/kingball/kingball/pkg/os"
	"github.com/kingball/kingball/pkg/rendezvous"
	"github.com/kingball/kingball/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	conf, err := config.NewRendezvousConfig(config.PathFlag())
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config load fail")
	}
	conf.WithFlags(flag.CommandLine)
	flag.Parse()

	log := logger.NewConsole(conf.Rendezvous.Debug, "r", conf.Log.NoColor, conf.Log.File())
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	reg := prometheus.NewRegistry()
	services := service.Group{}
	srv, err := rendezvous.New(conf.Rendezvous, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("rendezvous init fail")
	}
	services.Add(srv)
	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, reg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring init fail")
		}
		services.Add(mon)
	}
	services.Start()

	<-os.ExpectTermination()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := services.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}
