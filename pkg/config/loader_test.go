package config

import (
	"os"
	"testing"
	"time"

	"github.com/kingball/kingball/pkg/config/webrtc"
)

func TestLoadClientConfig(t *testing.T) {
	conf, err := NewClientConfig("../../configs")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Game.WinningScore != 60 {
		t.Errorf("winning score %v != 60", conf.Game.WinningScore)
	}
	if conf.Game.PushCooldown != 4*time.Second {
		t.Errorf("push cooldown %v != 4s", conf.Game.PushCooldown)
	}
	if conf.Client.Reconnect.Attempts != 5 || conf.Client.Reconnect.Delay != time.Second {
		t.Errorf("reconnect %+v is not 5 x 1s", conf.Client.Reconnect)
	}
	if len(conf.Webrtc.Ice()) != 2 {
		t.Errorf("expected 2 ICE servers, got %v", conf.Webrtc.Ice())
	}
	if conf.Game.Tick() != time.Second/60 {
		t.Errorf("tick %v", conf.Game.Tick())
	}
}

func TestConfigEnv(t *testing.T) {
	_ = os.Setenv("KINGBALL_CLIENT_ROOM", "arena")
	defer func() { _ = os.Unsetenv("KINGBALL_CLIENT_ROOM") }()

	conf, err := NewClientConfig("../../configs/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Client.Room != "arena" {
		t.Errorf("room %v is not arena", conf.Client.Room)
	}
}

func TestLoadRendezvousConfig(t *testing.T) {
	conf, err := NewRendezvousConfig("../../configs")
	if err != nil {
		t.Fatal(err)
	}
	if conf.Rendezvous.Server.Address != ":9000" {
		t.Errorf("address %v", conf.Rendezvous.Server.Address)
	}
	if conf.Rendezvous.Path != "/ws" {
		t.Errorf("path %v", conf.Rendezvous.Path)
	}
}

func TestDefaultIceServers(t *testing.T) {
	var w ClientConfig
	if got := w.Webrtc.Ice(); len(got) != 2 || got[0].Urls != "stun:stun.l.google.com:19302" {
		t.Errorf("unexpected default ICE servers %v", got)
	}
	w.Webrtc.IceServers = append(w.Webrtc.IceServers, webrtc.IceServer{Urls: "turn:example.com:3478"})
	if err := w.Webrtc.Validate(); err == nil {
		t.Errorf("TURN without credentials should fail")
	}
}
