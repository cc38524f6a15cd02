package rendezvous

import (
	"context"
	"fmt"

	"github.com/kingball/kingball/pkg/config"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/network/httpx"
	"github.com/prometheus/client_golang/prometheus"
)

// Server serves the hub over HTTP(S).
type Server struct {
	hub    *Hub
	server *httpx.Server
	log    *logger.Logger
}

func New(conf config.Rendezvous, reg prometheus.Registerer, log *logger.Logger) (*Server, error) {
	hub := NewHub(conf.MaxRoomSize, NewMetrics(reg), log)
	srv, err := httpx.NewServer(conf.Server.Address, func(*httpx.Server) httpx.Handler {
		return routes(hub, conf.Path)
	},
		httpx.WithServerConfig(conf.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	return &Server{hub: hub, server: srv, log: log}, nil
}

func (s *Server) Run() {
	s.log.Info().Msgf("Starting rendezvous at %v://%v", s.server.GetProtocol(), s.server.Addr)
	s.server.Run()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) Addr() string { return s.server.Addr }

func (s *Server) String() string { return fmt.Sprintf("rendezvous::%v", s.server.Addr) }
