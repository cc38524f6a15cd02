package main

import (
	"context"
	"time"

	"github.com/kingball/kingball/pkg/config"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/kingball/kingball/pkg/monitoring"
	"github.com/kingball/kingball/pkg/network"
	"github.com/kingball/kingball/pkg/network/webrtc"
	"github.com/kingball/kingball/pkg/os"
	"github.com/kingball/kingball/pkg/service"
	"github.com/kingball/kingball/pkg/session"
	"github.com/kingball/kingball/pkg/signaling"
	"github.com/kingball/kingball/pkg/statesync"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	conf, err := config.NewClientConfig(config.PathFlag())
	if err != nil {
		logger.Default().Fatal().Err(err).Msg("config load fail")
	}
	conf.WithFlags(flag.CommandLine)
	flag.Parse()

	log := logger.NewConsole(conf.Client.Debug, "k", conf.Log.NoColor, conf.Log.File())
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	reg := prometheus.NewRegistry()
	services := service.Group{}
	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, reg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring init fail")
		}
		services.Add(mon)
	}

	api, err := webrtc.NewApiFactory(conf.Webrtc, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc init fail")
	}
	channel := signaling.NewClient(conf.Client.Signaling, signaling.Options{
		Attempts: conf.Client.Reconnect.Attempts,
		Delay:    conf.Client.Reconnect.Delay,
	}, log)
	meshMetrics := mesh.NewMetrics(reg)
	s := session.New(conf.Game, func(h mesh.Handlers) session.Network {
		return mesh.New(channel, api.Transport(), h, meshMetrics, log)
	}, session.NewInput(conf.Client.Input), session.NewMetrics(reg), statesync.NewMetrics(reg), log)

	services.Start()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { s.Run(ctx); close(done) }()
	go report(ctx, s, log)

	if err = s.Connect(ctx, conf.Client.Room, conf.Client.Nickname); err != nil {
		log.Error().Err(err).Msg("connect fail")
	}

	<-os.ExpectTermination()
	cancel()
	<-done

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	if err := services.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("service shutdown errors")
	}
}

// report prints the scoreboard now and then.
func report(ctx context.Context, s *session.Session, log *logger.Logger) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	winner := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		st := s.Status()
		ev := log.Info().Str("state", st.State.String()).Str("room", st.Room)
		if st.Error != "" {
			ev = ev.Str("error", st.Error)
		}
		for _, p := range s.Players() {
			ev = ev.Float64(p.Nickname+"#"+network.Uid(p.Id).Short(), p.Score)
		}
		ev.Msg("Scoreboard")
		if w := s.Winner(); w != "" && w != winner {
			winner = w
			log.Info().Str("id", w).Msg("We have a winner")
		}
	}
}
