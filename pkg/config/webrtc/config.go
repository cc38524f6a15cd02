package webrtc

import (
	"fmt"
	"strings"
)

type Webrtc struct {
	DisableDefaultInterceptors bool
	IceServers                 []IceServer
	IcePorts                   struct {
		Min uint16
		Max uint16
	}
	// SinglePort multiplexes all ICE traffic over one UDP port, rolling to the next busy-free one.
	SinglePort int
	IceIpMap   string
	IceLite    bool
	LogLevel int `default:"3"`
	// ChannelLabel is the name of the game data channel.
	ChannelLabel string `default:"game"`
}

type IceServer struct {
	Urls       string `json:"urls,omitempty"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// DefaultIceServers are public STUN servers used when none are configured.
var DefaultIceServers = []IceServer{
	{Urls: "stun:stun.l.google.com:19302"},
	{Urls: "stun:global.stun.twilio.com:3478"},
}

func (w *Webrtc) HasPortRange() bool { return w.IcePorts.Min > 0 && w.IcePorts.Max > 0 }
func (w *Webrtc) HasIceIpMap() bool  { return w.IceIpMap != "" }
func (w *Webrtc) HasSinglePort() bool { return w.SinglePort > 0 }

// Ice returns configured ICE servers or the defaults.
func (w *Webrtc) Ice() []IceServer {
	if len(w.IceServers) == 0 {
		return DefaultIceServers
	}
	return w.IceServers
}

// Validate checks that TURN servers carry credentials.
func (w *Webrtc) Validate() error {
	for _, ice := range w.IceServers {
		if strings.HasPrefix(ice.Urls, "turn:") || strings.HasPrefix(ice.Urls, "turns:") {
			if ice.Username == "" || ice.Credential == "" {
				return fmt.Errorf("TURN or TURNS servers should have both username and credential: %+v", ice)
			}
		}
	}
	return nil
}
