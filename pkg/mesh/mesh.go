// Package mesh keeps a full mesh of direct links between the members of a room.
//
// Exactly one link exists per other room member. The member already in the
// room initiates a link toward a newcomer, the newcomer only answers, so
// every pair negotiates once.
package mesh

import (
	"context"
	"sync"

	"github.com/kingball/kingball/pkg/com"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/network"
	"github.com/kingball/kingball/pkg/signaling"
)

type Handlers struct {
	OnPeerConnect    func(id string)
	OnPeerDisconnect func(id string)
	OnData           func(id string, f Frame)
	OnRoomJoined     func(room string, users int)
	OnRoomLeft       func(room string)
	OnConnected      func(id string)
	OnDisconnected   func(err error)
	OnError          func(message string)
}

type Mesh struct {
	channel signaling.Channel
	factory TransportFactory
	links   com.Map[string, *Link]

	// serializes link creation
	mu   sync.Mutex
	room string

	h       Handlers
	metrics *Metrics
	log     *logger.Logger
}

func New(channel signaling.Channel, factory TransportFactory, h Handlers, metrics *Metrics, log *logger.Logger) *Mesh {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	m := &Mesh{
		channel: channel,
		factory: factory,
		h:       h,
		metrics: metrics,
		log:     log.Extend(log.With().Str("m", "mesh")),
	}
	channel.OnEvent(m.handle)
	return m
}

func (m *Mesh) Connect(ctx context.Context) error { return m.channel.Connect(ctx) }

// Disconnect leaves the room, closes every link and the rendezvous connection.
func (m *Mesh) Disconnect() {
	_ = m.LeaveRoom()
	m.closeAll()
	m.channel.Disconnect()
}

// JoinRoom joins a room leaving the current one first.
func (m *Mesh) JoinRoom(room string) error {
	m.mu.Lock()
	prev := m.room
	m.mu.Unlock()
	if prev != "" && prev != room {
		if err := m.LeaveRoom(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.room = room
	m.mu.Unlock()
	return m.channel.JoinRoom(room)
}

func (m *Mesh) LeaveRoom() error {
	m.mu.Lock()
	room := m.room
	m.room = ""
	m.mu.Unlock()
	if room == "" {
		return nil
	}
	m.closeAll()
	if fn := m.h.OnRoomLeft; fn != nil {
		fn(room)
	}
	if !m.channel.IsConnected() {
		return nil
	}
	return m.channel.LeaveRoom(room)
}

// Broadcast sends a frame to every connected peer and returns the number of receivers.
// Links still negotiating are skipped.
func (m *Mesh) Broadcast(t string, payload any) int {
	data, err := encode(t, payload)
	if err != nil {
		m.log.Error().Err(err).Msgf("Broadcast %v", t)
		return 0
	}
	n := 0
	for _, l := range m.links.Values() {
		if !l.IsConnected() {
			continue
		}
		if err := l.t.Send(data); err != nil {
			l.log.Warn().Err(err).Msg("Send")
			continue
		}
		n++
	}
	m.metrics.sent(t, n)
	return n
}

// Send sends a frame to one peer.
func (m *Mesh) Send(peerId string, t string, payload any) error {
	l, err := m.links.Find(peerId)
	if err != nil {
		m.log.Warn().Str("peer", network.Uid(peerId).Short()).Msg("Send to unknown peer")
		return ErrNotConnected
	}
	if err = l.Send(t, payload); err == nil {
		m.metrics.sent(t, 1)
	}
	return err
}

func (m *Mesh) PeerIds() []string { return m.links.Keys() }

// ConnectedPeers returns ids of the links with an open channel.
func (m *Mesh) ConnectedPeers() (ids []string) {
	for _, l := range m.links.Values() {
		if l.IsConnected() {
			ids = append(ids, l.id)
		}
	}
	return
}

func (m *Mesh) Link(id string) (*Link, bool) {
	l, err := m.links.Find(id)
	return l, err == nil
}

func (m *Mesh) ClientId() string { return m.channel.Id() }

func (m *Mesh) Room() string { m.mu.Lock(); defer m.mu.Unlock(); return m.room }

func (m *Mesh) handle(ev signaling.Event) {
	switch e := ev.(type) {
	case signaling.Connected:
		m.log.Info().Str("id", e.Id).Msg("Rendezvous connected")
		if fn := m.h.OnConnected; fn != nil {
			fn(e.Id)
		}
		// a reconnect brings a new id, the old links are gone for the others
		if room := m.Room(); room != "" {
			m.closeAll()
			if err := m.channel.JoinRoom(room); err != nil {
				m.log.Error().Err(err).Msg("Rejoin")
			}
		}
	case signaling.Disconnected:
		m.log.Warn().Err(e.Err).Msg("Rendezvous disconnected")
		m.closeAll()
		if fn := m.h.OnDisconnected; fn != nil {
			fn(e.Err)
		}
	case signaling.RoomUsers:
		self := m.channel.Id()
		for _, id := range e.Users {
			if id != self {
				m.link(id, false)
			}
		}
		if fn := m.h.OnRoomJoined; fn != nil {
			fn(m.Room(), e.UserCount)
		}
	case signaling.UserJoined:
		if e.UserId == m.channel.Id() {
			return
		}
		m.log.Info().Str("peer", network.Uid(e.UserId).Short()).Int("users", e.UserCount).Msg("User joined")
		m.link(e.UserId, true)
	case signaling.UserLeft:
		m.ClosePeer(e.UserId)
	case signaling.UserDisconnected:
		m.ClosePeer(e.UserId)
	case signaling.Signal:
		if l := m.link(e.FromId, false); l != nil {
			l.Signal(e.Signal)
		}
	case signaling.Broadcast:
		m.log.Debug().Str("peer", network.Uid(e.UserId).Short()).Msg("Relayed broadcast ignored")
	case signaling.Error:
		m.log.Error().Msgf("Rendezvous error: %v", e.Message)
		if fn := m.h.OnError; fn != nil {
			fn(e.Message)
		}
	}
}

// link returns the link to the peer creating it when missing.
func (m *Mesh) link(id string, initiator bool) *Link {
	if id == "" || id == m.channel.Id() {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, err := m.links.Find(id); err == nil {
		return l
	}
	l, err := newLink(id, initiator, m.factory, linkHandlers{
		onSignal:  m.signal,
		onConnect: m.connected,
		onData:    m.data,
		onClose:   m.closed,
	}, m.log)
	if err != nil {
		m.log.Error().Err(err).Str("peer", network.Uid(id).Short()).Msg("Couldn't create a peer link")
		return nil
	}
	m.links.Put(id, l)
	m.metrics.links.Set(float64(m.links.Len()))
	l.log.Debug().Bool("initiator", initiator).Msg("New link")
	return l
}

// ClosePeer closes the link to the peer if any.
func (m *Mesh) ClosePeer(id string) {
	if l, err := m.links.Find(id); err == nil {
		l.Close()
	}
}

func (m *Mesh) closeAll() {
	for _, l := range m.links.Values() {
		l.Close()
	}
}

func (m *Mesh) signal(id string, data []byte) {
	err := m.channel.SendSignal(id, data)
	switch {
	case err == nil:
	case signaling.IsClosed(err):
		m.metrics.lostSignals.Inc()
		m.log.Debug().Err(err).Str("peer", network.Uid(id).Short()).Msg("Signal after rendezvous closed")
	default:
		m.log.Warn().Err(err).Str("peer", network.Uid(id).Short()).Msg("Signal")
	}
}

func (m *Mesh) connected(l *Link) {
	m.metrics.connected.Inc()
	if fn := m.h.OnPeerConnect; fn != nil {
		fn(l.id)
	}
}

func (m *Mesh) data(id string, f Frame) {
	m.metrics.received(f.Type)
	if fn := m.h.OnData; fn != nil {
		fn(id, f)
	}
}

func (m *Mesh) closed(l *Link) {
	// a replacement link may already own the id
	if cur, err := m.links.Find(l.id); err == nil && cur == l {
		m.links.RemoveByKey(l.id)
	}
	m.metrics.links.Set(float64(m.links.Len()))
	if fn := m.h.OnPeerDisconnect; fn != nil {
		fn(l.id)
	}
}
