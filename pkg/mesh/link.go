package mesh

import (
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/network"
)

// Link is the connection to one remote peer.
type Link struct {
	id        string
	initiator bool
	t         Transport

	closed atomic.Bool
	log    *logger.Logger
	h      linkHandlers
}

type linkHandlers struct {
	onSignal  func(id string, data []byte)
	onConnect func(l *Link)
	onData    func(id string, f Frame)
	onClose   func(l *Link)
}

func newLink(id string, initiator bool, factory TransportFactory, h linkHandlers, log *logger.Logger) (*Link, error) {
	l := &Link{
		id:        id,
		initiator: initiator,
		h:         h,
		log:       log.Extend(log.With().Str("peer", network.Uid(id).Short())),
	}
	t, err := factory(id, initiator, TransportHandlers{
		OnSignal:  func(data []byte) { l.h.onSignal(l.id, data) },
		OnConnect: func() { l.log.Info().Msg("Peer connected"); l.h.onConnect(l) },
		OnData:    l.receive,
		OnClose:   l.Close,
		OnError:   func(err error) { l.log.Warn().Err(err).Msg("Peer error") },
	})
	if err != nil {
		return nil, err
	}
	l.t = t
	return l, nil
}

func (l *Link) Id() string        { return l.id }
func (l *Link) Initiator() bool   { return l.initiator }
func (l *Link) IsConnected() bool { return !l.closed.Load() && l.t != nil && l.t.Connected() }

// Send writes a typed frame, a closed or not yet open link drops it.
func (l *Link) Send(t string, payload any) error {
	data, err := encode(t, payload)
	if err != nil {
		return err
	}
	return l.send(data)
}

func (l *Link) send(data []byte) error {
	if !l.IsConnected() {
		l.log.Warn().Msg("Send on not connected peer")
		return ErrNotConnected
	}
	return l.t.Send(data)
}

// Signal feeds a negotiation payload received through the rendezvous.
func (l *Link) Signal(data []byte) {
	if err := l.t.Signal(data); err != nil {
		l.log.Warn().Err(err).Msg("Bad signal")
	}
}

func (l *Link) receive(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil || f.Type == "" {
		l.log.Warn().Err(err).Msg("Dropped unreadable frame")
		return
	}
	l.h.onData(l.id, f)
}

// Close closes the transport once and notifies the owner.
// Transports may call it back from their own close handlers.
func (l *Link) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	if l.t != nil {
		if err := l.t.Close(); err != nil {
			l.log.Debug().Err(err).Msg("Close")
		}
	}
	l.log.Info().Msg("Peer closed")
	l.h.onClose(l)
}
