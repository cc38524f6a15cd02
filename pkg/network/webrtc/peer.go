package webrtc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/pion/webrtc/v3"
)

// Peer is a data channel connection to one remote player.
// The initiator creates the channel and sends the offer.
type Peer struct {
	conn  *webrtc.PeerConnection
	label string
	h     mesh.TransportHandlers

	mu        sync.Mutex
	d         *webrtc.DataChannel
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	open   atomic.Bool
	closed atomic.Bool
	log    *logger.Logger
}

func NewPeer(api *ApiFactory, id string, initiator bool, h mesh.TransportHandlers, log *logger.Logger) (*Peer, error) {
	conn, err := api.NewPeer(id)
	if err != nil {
		return nil, err
	}
	p := &Peer{conn: conn, label: api.label, h: h, log: log}
	conn.OnICECandidate(p.handleICECandidate)
	conn.OnICEConnectionStateChange(p.handleICEState)

	if !initiator {
		conn.OnDataChannel(func(d *webrtc.DataChannel) {
			if d.Label() != p.label {
				p.log.Warn().Str("label", d.Label()).Msg("Unknown data channel")
				return
			}
			p.addDataChannel(d)
		})
		return p, nil
	}

	// ordered: true, negotiated: false
	d, err := conn.CreateDataChannel(p.label, nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.addDataChannel(d)
	offer, err := conn.CreateOffer(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err = conn.SetLocalDescription(offer); err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.log.Debug().Msg("Created Offer")
	p.signal(sdpSignal(offer))
	return p, nil
}

// Signal applies a remote offer, answer or candidate.
func (p *Peer) Signal(data []byte) error {
	if p.closed.Load() {
		return mesh.ErrNotConnected
	}
	s, err := DecodeSignal(data)
	if err != nil {
		return err
	}
	switch s.Type {
	case SignalOffer:
		if err = p.setRemote(s); err != nil {
			return err
		}
		answer, err := p.conn.CreateAnswer(nil)
		if err != nil {
			return err
		}
		if err = p.conn.SetLocalDescription(answer); err != nil {
			return err
		}
		p.log.Debug().Msg("Created Answer")
		p.signal(sdpSignal(answer))
	case SignalAnswer:
		return p.setRemote(s)
	case SignalCandidate:
		return p.addCandidate(*s.Candidate)
	default:
		p.log.Debug().Str("type", s.Type).Msg("Skipped signal")
	}
	return nil
}

func (p *Peer) setRemote(s Signal) error {
	if err := p.conn.SetRemoteDescription(s.description()); err != nil {
		p.log.Error().Err(err).Msg("Set remote description from peer failed")
		return err
	}
	p.mu.Lock()
	p.remoteSet = true
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, c := range pending {
		if err := p.conn.AddICECandidate(c); err != nil {
			p.log.Warn().Err(err).Str("candidate", c.Candidate).Msg("Ice")
		}
	}
	return nil
}

// addCandidate holds candidates that come before the remote description.
func (p *Peer) addCandidate(c webrtc.ICECandidateInit) error {
	p.mu.Lock()
	if !p.remoteSet {
		p.pending = append(p.pending, c)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	if err := p.conn.AddICECandidate(c); err != nil {
		return err
	}
	p.log.Debug().Str("candidate", c.Candidate).Msg("Ice")
	return nil
}

// queued is the number of candidates waiting for the remote description.
func (p *Peer) queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Peer) Send(data []byte) error {
	p.mu.Lock()
	d := p.d
	p.mu.Unlock()
	if d == nil || !p.Connected() {
		return mesh.ErrNotConnected
	}
	return d.SendText(string(data))
}

func (p *Peer) Connected() bool { return p.open.Load() && !p.closed.Load() }

// Close is safe to call many times, the close handler runs once.
func (p *Peer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	var err error
	if p.conn.ConnectionState() < webrtc.PeerConnectionStateDisconnected {
		err = p.conn.Close()
	}
	p.log.Debug().Msg("WebRTC stop")
	if p.h.OnClose != nil {
		p.h.OnClose()
	}
	return err
}

func (p *Peer) signal(s Signal) {
	if p.h.OnSignal == nil || p.closed.Load() {
		return
	}
	data, err := EncodeSignal(s)
	if err != nil {
		p.fail(fmt.Errorf("signal encode: %w", err))
		return
	}
	p.h.OnSignal(data)
}

func (p *Peer) fail(err error) {
	if p.h.OnError != nil {
		p.h.OnError(err)
	}
}

func (p *Peer) handleICECandidate(ice *webrtc.ICECandidate) {
	// ICE gathering finish condition
	if ice == nil {
		p.log.Debug().Msg("ICE gathering was complete probably")
		return
	}
	candidate := ice.ToJSON()
	p.log.Debug().Str("candidate", candidate.Candidate).Msg("ICE")
	p.signal(candidateSignal(candidate))
}

func (p *Peer) handleICEState(state webrtc.ICEConnectionState) {
	p.log.Debug().Str(".state", state.String()).Msg("ICE")
	switch state {
	case webrtc.ICEConnectionStateFailed:
		p.log.Error().Msgf("WebRTC connection fail! connection: %v, ice: %v, gathering: %v, signalling: %v",
			p.conn.ConnectionState(), p.conn.ICEConnectionState(), p.conn.ICEGatheringState(),
			p.conn.SignalingState())
		p.fail(fmt.Errorf("ice %v", state))
		_ = p.Close()
	case webrtc.ICEConnectionStateClosed,
		webrtc.ICEConnectionStateDisconnected:
		_ = p.Close()
	}
}

func (p *Peer) addDataChannel(d *webrtc.DataChannel) {
	p.mu.Lock()
	p.d = d
	p.mu.Unlock()
	d.OnOpen(func() {
		p.log.Debug().Str("label", d.Label()).Msg("Data channel opened")
		p.open.Store(true)
		if p.h.OnConnect != nil {
			p.h.OnConnect()
		}
	})
	d.OnError(p.fail)
	d.OnMessage(func(m webrtc.DataChannelMessage) {
		if len(m.Data) == 0 || p.h.OnData == nil {
			return
		}
		p.h.OnData(m.Data)
	})
	d.OnClose(func() {
		p.log.Debug().Msg("Data channel has been closed")
		_ = p.Close()
	})
}
