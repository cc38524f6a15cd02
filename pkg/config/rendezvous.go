package config

import (
	"github.com/kingball/kingball/pkg/config/monitoring"
	"github.com/kingball/kingball/pkg/config/shared"
	"github.com/spf13/pflag"
)

type RendezvousConfig struct {
	Rendezvous Rendezvous
	Monitoring monitoring.Config
	Log        shared.Log
}

type Rendezvous struct {
	Server shared.Server
	Debug  bool
	// Path is the websocket endpoint.
	Path string `default:"/ws"`
	// MaxRoomSize caps room members, 0 is unlimited.
	MaxRoomSize int
}

func NewRendezvousConfig(path string) (conf RendezvousConfig, err error) {
	err = LoadConfig(&conf, path)
	return
}

func (c *RendezvousConfig) WithFlags(fs *pflag.FlagSet) {
	c.Rendezvous.Server.WithFlags(fs)
	fs.BoolVar(&c.Rendezvous.Debug, "debug", c.Rendezvous.Debug, "Debug logs")
	fs.IntVar(&c.Rendezvous.MaxRoomSize, "maxRoomSize", c.Rendezvous.MaxRoomSize, "Room members limit, 0 is unlimited")
	c.Log.WithFlags(fs)
	pathFlag(fs)
}
