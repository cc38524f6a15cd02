package webrtc

import (
	"net"

	conf "github.com/kingball/kingball/pkg/config/webrtc"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/kingball/kingball/pkg/network"
	"github.com/kingball/kingball/pkg/network/socket"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
)

// ApiFactory makes peer connections sharing one media and ICE setup.
// Each connection gets its own pion API so that pion logs carry the peer id.
type ApiFactory struct {
	m     *webrtc.MediaEngine
	i     *interceptor.Registry
	s     webrtc.SettingEngine
	pion  *logger.PionLogger
	conf  webrtc.Configuration
	label string
	log   *logger.Logger
}

type ModApiFun func(m *webrtc.MediaEngine, i *interceptor.Registry, s *webrtc.SettingEngine)

func NewApiFactory(conf conf.Webrtc, log *logger.Logger, mod ModApiFun) (api *ApiFactory, err error) {
	if err = conf.Validate(); err != nil {
		return
	}
	m := &webrtc.MediaEngine{}
	i := &interceptor.Registry{}
	if !conf.DisableDefaultInterceptors {
		if err = webrtc.RegisterDefaultInterceptors(m, i); err != nil {
			return
		}
	}
	customLogger := logger.NewPionLogger(log, conf.LogLevel)
	s := webrtc.SettingEngine{LoggerFactory: customLogger}
	if conf.IceLite {
		s.SetLite(conf.IceLite)
	}
	if conf.HasPortRange() {
		if err = s.SetEphemeralUDPPortRange(conf.IcePorts.Min, conf.IcePorts.Max); err != nil {
			return
		}
	}
	if conf.HasSinglePort() {
		var udp *net.UDPConn
		if udp, err = socket.NewUDPPortRoll(conf.SinglePort); err != nil {
			return
		}
		s.SetICEUDPMux(webrtc.NewICEUDPMux(customLogger.NewLogger("udpmux"), udp))
		log.Info().Msgf("The single port mode is active for %s", udp.LocalAddr())
	}
	if conf.HasIceIpMap() {
		s.SetNAT1To1IPs([]string{conf.IceIpMap}, webrtc.ICECandidateTypeHost)
		log.Info().Msgf("The NAT mapping is active for %v", conf.IceIpMap)
	}

	if mod != nil {
		mod(m, i, &s)
	}

	c := webrtc.Configuration{ICEServers: []webrtc.ICEServer{}}
	for _, server := range conf.Ice() {
		c.ICEServers = append(c.ICEServers, webrtc.ICEServer{
			URLs:       []string{server.Urls},
			Username:   server.Username,
			Credential: server.Credential,
		})
	}

	return &ApiFactory{
		m:     m,
		i:     i,
		s:     s,
		pion:  customLogger,
		conf:  c,
		label: conf.ChannelLabel,
		log:   log,
	}, nil
}

// NewPeer makes a connection to the peer with the id.
func (a *ApiFactory) NewPeer(id string) (*webrtc.PeerConnection, error) {
	s := a.s
	s.LoggerFactory = a.pion.With("peer", network.Uid(id).Short())
	api := webrtc.NewAPI(webrtc.WithMediaEngine(a.m), webrtc.WithInterceptorRegistry(a.i), webrtc.WithSettingEngine(s))
	return api.NewPeerConnection(a.conf)
}

// Transport makes pion peers for the mesh.
func (a *ApiFactory) Transport() mesh.TransportFactory {
	return func(id string, initiator bool, h mesh.TransportHandlers) (mesh.Transport, error) {
		return NewPeer(a, id, initiator, h, a.log.Extend(a.log.With().Str("peer", network.Uid(id).Short())))
	}
}
