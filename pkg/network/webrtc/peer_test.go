package webrtc

import (
	"testing"
	"time"

	conf "github.com/kingball/kingball/pkg/config/webrtc"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/pion/webrtc/v3"
)

func newTestFactory(t *testing.T) *ApiFactory {
	t.Helper()
	// local only, no STUN lookups
	c := conf.Webrtc{LogLevel: 5, ChannelLabel: "game"}
	c.IceServers = []conf.IceServer{{Urls: "stun:127.0.0.1:3478"}}
	api, err := NewApiFactory(c, logger.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return api
}

type signals chan Signal

func (s signals) handlers(t *testing.T) mesh.TransportHandlers {
	return mesh.TransportHandlers{OnSignal: func(data []byte) {
		sig, err := DecodeSignal(data)
		if err != nil {
			t.Errorf("bad signal %s: %v", data, err)
			return
		}
		select {
		case s <- sig:
		default:
		}
	}}
}

// next skips candidates
func (s signals) next(t *testing.T, typ string) Signal {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case sig := <-s:
			if sig.Type == typ {
				return sig
			}
		case <-timeout:
			t.Fatalf("no %v signal", typ)
		}
	}
}

func TestOfferAnswer(t *testing.T) {
	api := newTestFactory(t)

	a, b := make(signals, 64), make(signals, 64)
	initiator, err := NewPeer(api, "b", true, a.handlers(t), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = initiator.Close() }()
	receiver, err := NewPeer(api, "a", false, b.handlers(t), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = receiver.Close() }()

	offer := a.next(t, SignalOffer)
	data, _ := EncodeSignal(offer)
	if err = receiver.Signal(data); err != nil {
		t.Fatalf("offer: %v", err)
	}
	answer := b.next(t, SignalAnswer)
	data, _ = EncodeSignal(answer)
	if err = initiator.Signal(data); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err = initiator.Send([]byte("x")); err != mesh.ErrNotConnected && err != nil {
		t.Errorf("send: %v", err)
	}
}

func TestCandidatesWaitForDescription(t *testing.T) {
	api := newTestFactory(t)
	p, err := NewPeer(api, "x", false, mesh.TransportHandlers{}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = p.Close() }()

	c, _ := EncodeSignal(candidateSignal(webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 2130706431 10.0.0.1 50000 typ host"}))
	if err = p.Signal(c); err != nil {
		t.Fatal(err)
	}
	if p.queued() != 1 {
		t.Errorf("pending %v, want 1", p.queued())
	}
}

func TestCloseOnce(t *testing.T) {
	api := newTestFactory(t)
	closed := 0
	p, err := NewPeer(api, "x", true, mesh.TransportHandlers{OnClose: func() { closed++ }}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_ = p.Close()
	_ = p.Close()
	if closed != 1 {
		t.Errorf("closed %v times", closed)
	}
	if err = p.Send([]byte("x")); err != mesh.ErrNotConnected {
		t.Errorf("send after close: %v", err)
	}
	if err = p.Signal([]byte(`{"type":"answer","sdp":"x"}`)); err != mesh.ErrNotConnected {
		t.Errorf("signal after close: %v", err)
	}
}

func TestDecodeSignal(t *testing.T) {
	tests := []struct {
		in  string
		typ string
		err bool
	}{
		{in: `{"type":"offer","sdp":"v=0"}`, typ: SignalOffer},
		{in: `{"type":"answer","sdp":"v=0"}`, typ: SignalAnswer},
		{in: `{"type":"candidate","candidate":{"candidate":"c","sdpMid":"0","sdpMLineIndex":0}}`, typ: SignalCandidate},
		{in: `{"type":"renegotiate","renegotiate":true}`, typ: "renegotiate"},
		{in: `{"type":"offer"}`, err: true},
		{in: `{"type":"candidate"}`, err: true},
		{in: `{}`, err: true},
		{in: `[`, err: true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			s, err := DecodeSignal([]byte(test.in))
			if (err != nil) != test.err {
				t.Fatalf("err %v", err)
			}
			if err == nil && s.Type != test.typ {
				t.Errorf("type %v", s.Type)
			}
		})
	}
}
