package config

import (
	"time"

	"github.com/kingball/kingball/pkg/config/monitoring"
	"github.com/kingball/kingball/pkg/config/shared"
	"github.com/kingball/kingball/pkg/config/webrtc"
	"github.com/spf13/pflag"
)

type ClientConfig struct {
	Client     Client
	Game       Game
	Webrtc     webrtc.Webrtc
	Monitoring monitoring.Config
	Log        shared.Log
}

type Client struct {
	// Signaling is the websocket URL of the rendezvous service.
	Signaling string `default:"ws://localhost:9000/ws"`
	Room      string `default:"lobby"`
	Nickname  string `default:"player"`
	Debug     bool
	Reconnect struct {
		Attempts int           `default:"5"`
		Delay    time.Duration `default:"1s"`
	}
	// Input selects the input source: bot or idle.
	Input string `default:"bot"`
}

type Game struct {
	TickRate     int           `default:"60"`
	WinningScore float64       `default:"60"`
	PushCooldown time.Duration `default:"4s"`
	JumpCooldown time.Duration `default:"1s"`
	// SendRate limits how many state diffs per second are broadcast, 0 means every frame.
	SendRate int
}

// NewClientConfig loads the client configuration from the default locations
// or the provided path.
func NewClientConfig(path string) (conf ClientConfig, err error) {
	err = LoadConfig(&conf, path)
	return
}

func (c *ClientConfig) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Client.Signaling, "signaling", c.Client.Signaling, "Rendezvous websocket URL")
	fs.StringVar(&c.Client.Room, "room", c.Client.Room, "Room to join")
	fs.StringVar(&c.Client.Nickname, "nickname", c.Client.Nickname, "Player nickname")
	fs.StringVar(&c.Client.Input, "input", c.Client.Input, "Input source: bot, idle")
	fs.BoolVar(&c.Client.Debug, "debug", c.Client.Debug, "Debug logs")
	c.Log.WithFlags(fs)
	pathFlag(fs)
}

// Tick returns the frame duration of the session loop.
func (g Game) Tick() time.Duration {
	if g.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(g.TickRate)
}
