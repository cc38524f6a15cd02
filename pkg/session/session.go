// Package session runs the game loop of one client.
//
// All game state lives on the loop goroutine. Network callbacks are queued
// and run at the start of the next frame.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kingball/kingball/pkg/config"
	"github.com/kingball/kingball/pkg/game"
	"github.com/kingball/kingball/pkg/king"
	"github.com/kingball/kingball/pkg/logger"
	"github.com/kingball/kingball/pkg/mesh"
	"github.com/kingball/kingball/pkg/physics"
	"github.com/kingball/kingball/pkg/statesync"
)

// Network is the part of the mesh the session uses.
type Network interface {
	Connect(ctx context.Context) error
	Disconnect()
	JoinRoom(room string) error
	LeaveRoom() error
	Broadcast(t string, payload any) int
	Send(peerId string, t string, payload any) error
}

// NetworkFactory builds the network with the session callbacks.
type NetworkFactory func(h mesh.Handlers) Network

type State int

const (
	Idle State = iota
	Connecting
	Connected
	Playing
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Playing:
		return "playing"
	case Disconnected:
		return "disconnected"
	}
	return "unknown"
}

type Status struct {
	State State
	Id    string
	Room  string
	Users int
	Error string
}

type Session struct {
	conf  config.Game
	net   Network
	input Input

	// loop state
	world   *physics.World
	store   *statesync.Store
	rules   *king.Engine
	ctrl    controller
	id      string
	nick    string
	sinceTx float64

	qmu   sync.Mutex
	queue []func()

	// read side for other goroutines
	mu      sync.RWMutex
	status  Status
	players []game.PlayerState
	winner  string

	now     func() time.Time
	metrics *Metrics
	root    *logger.Logger
	log     *logger.Logger
}

func New(conf config.Game, newNet NetworkFactory, input Input, metrics *Metrics, syncMetrics *statesync.Metrics, log *logger.Logger) *Session {
	if input == nil {
		input = Still
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	s := &Session{
		conf:    conf,
		input:   input,
		rules:   king.New(conf.WinningScore),
		ctrl:    controller{jumpCooldown: conf.JumpCooldown},
		now:     time.Now,
		metrics: metrics,
		root:    log,
		log:     log.Extend(log.With().Str("m", "session")),
	}
	s.net = newNet(s.handlers())
	s.store = statesync.New(s.net, statesync.Options{
		Judge:        s.rules,
		PushCooldown: conf.PushCooldown,
	}, syncMetrics, log)
	return s
}

func (s *Session) handlers() mesh.Handlers {
	return mesh.Handlers{
		OnConnected:      func(id string) { s.enqueue(func() { s.connected(id) }) },
		OnDisconnected:   func(err error) { s.enqueue(func() { s.disconnected(err) }) },
		OnRoomJoined:     func(room string, users int) { s.enqueue(func() { s.enter(room, users) }) },
		OnRoomLeft:       func(room string) { s.enqueue(func() { s.leave(room) }) },
		OnPeerConnect:    func(id string) { s.enqueue(func() { s.store.SendSnapshot(id) }) },
		OnPeerDisconnect: func(id string) { s.enqueue(func() { s.peerGone(id) }) },
		OnData:           func(id string, f mesh.Frame) { s.enqueue(func() { s.receive(id, f) }) },
		OnError:          func(msg string) { s.enqueue(func() { s.failed(msg) }) },
	}
}

func (s *Session) enqueue(fn func()) {
	s.qmu.Lock()
	s.queue = append(s.queue, fn)
	s.qmu.Unlock()
}

func (s *Session) drain() {
	s.qmu.Lock()
	q := s.queue
	s.queue = nil
	s.qmu.Unlock()
	for _, fn := range q {
		fn()
	}
}

// Connect opens the rendezvous connection and joins the room.
func (s *Session) Connect(ctx context.Context, room, nickname string) error {
	if room == "" {
		return errors.New("no room")
	}
	s.enqueue(func() { s.nick = nickname })
	s.setStatus(func(st *Status) { st.State, st.Room, st.Error = Connecting, room, "" })
	if err := s.net.Connect(ctx); err != nil {
		s.setStatus(func(st *Status) { st.State, st.Error = Disconnected, err.Error() })
		return err
	}
	return s.net.JoinRoom(room)
}

// Disconnect leaves the room and closes every connection.
func (s *Session) Disconnect() { s.net.Disconnect() }

// ResetScores zeroes every score in the replica.
func (s *Session) ResetScores() { s.enqueue(s.store.ResetScores) }

// Run drives frames until the context is done.
func (s *Session) Run(ctx context.Context) {
	t := time.NewTicker(s.conf.Tick())
	defer t.Stop()
	last := s.now()
	for {
		select {
		case <-ctx.Done():
			s.Disconnect()
			s.drain()
			return
		case <-t.C:
			now := s.now()
			s.Frame(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Frame runs one step of the game loop.
func (s *Session) Frame(dt float64) {
	s.drain()
	s.metrics.frames.Inc()
	if s.world == nil {
		return
	}
	now := s.now()
	self, _ := s.store.Local()
	var others []game.PlayerState
	if players := s.store.Players(); len(players) > 1 {
		others = players[1:]
	}

	in := s.input.Poll(self, others)
	s.ctrl.move(s.world, s.id, in, dt, now)
	if in.Push {
		if m, ok := s.store.UsePush(now); ok {
			s.world.ApplyPushEffect(m.Position, m.Direction, m.PlayerId)
			s.metrics.pushes.WithLabelValues("local").Inc()
		}
	}

	// remote balls follow their owners
	for _, o := range others {
		s.world.SetPosition(o.Id, o.Position)
		s.world.SetRotation(o.Id, o.Rotation)
	}

	steps := s.world.Steps()
	for _, e := range s.world.Step(dt) {
		s.log.Debug().Str("id", e.Id).Bool("in", e.Entered).Msg("King zone")
	}
	s.metrics.steps.Add(float64(s.world.Steps() - steps))
	if body, err := s.world.Body(s.id); err == nil {
		s.store.SetPose(body.Position, body.Rotation)
	}

	if tr, changed := s.rules.Update(s.world.Occupants()); changed {
		s.metrics.kings.Inc()
		s.log.Info().Str("prev", tr.Prev).Str("king", tr.New).Stringer("zone", s.rules.State()).Msg("King changed")
		s.store.SetKing(tr.New == s.id)
	}
	if id, points := s.rules.Tick(dt); id == s.id {
		s.store.AddScore(points)
	}

	s.sinceTx += dt
	if s.conf.SendRate <= 0 || s.sinceTx >= 1/float64(s.conf.SendRate) {
		s.store.Flush()
		s.sinceTx = 0
	}
	s.publish()
}

func (s *Session) publish() {
	players := s.store.Players()
	s.mu.Lock()
	s.players = players
	s.winner = s.store.Winner()
	s.mu.Unlock()
	s.metrics.players.Set(float64(len(players)))
	if len(players) > 0 {
		s.metrics.score.Set(players[0].Score)
	}
}

func (s *Session) connected(id string) {
	s.id = id
	s.setStatus(func(st *Status) { st.State, st.Id, st.Error = Connected, id, "" })
}

func (s *Session) disconnected(err error) {
	msg := "Disconnected from signaling server"
	if err != nil {
		msg = err.Error()
	}
	s.setStatus(func(st *Status) { st.State, st.Error = Disconnected, msg })
}

func (s *Session) failed(msg string) {
	s.log.Error().Msg(msg)
	s.setStatus(func(st *Status) { st.Error = msg })
}

// enter starts a fresh world for the room, a rejoin after a reconnect too.
func (s *Session) enter(room string, users int) {
	if s.world != nil {
		s.world.Close()
	}
	s.world = physics.NewWorld(s.root)
	s.rules.Reset()

	p := game.NewPlayer(s.id, s.nick)
	p.IsHost = users == 1
	s.store.Init(p)
	s.world.AddPlayer(s.id, p.Position, false)
	s.store.BroadcastSnapshot()
	s.publish()

	s.setStatus(func(st *Status) { st.State, st.Room, st.Users = Playing, room, users })
	s.log.Info().Str("room", room).Int("users", users).Bool("host", p.IsHost).
		Float64("goal", s.rules.WinningScore()).Msg("Joined room")
}

func (s *Session) leave(room string) {
	if s.world != nil {
		s.world.Close()
		s.world = nil
	}
	s.store.Reset()
	s.rules.Reset()
	s.publish()
	s.setStatus(func(st *Status) {
		if st.State == Playing {
			st.State = Connected
		}
		st.Room, st.Users = "", 0
	})
	s.log.Info().Str("room", room).Msg("Left room")
}

func (s *Session) peerGone(id string) {
	s.store.RemovePeer(id)
	if s.world != nil {
		s.world.RemoveBody(id)
	}
}

func (s *Session) receive(from string, f mesh.Frame) {
	m, err := game.Decode(f.Type, f.Payload)
	if err != nil {
		s.log.Warn().Err(err).Str("peer", from).Msg("Bad peer message")
		return
	}
	switch m := m.(type) {
	case game.PushAbilityUsedMsg:
		if s.world == nil || m.PlayerId == s.id {
			return
		}
		s.world.ApplyPushEffect(m.Position, m.Direction, m.PlayerId)
		s.metrics.pushes.WithLabelValues("remote").Inc()
	default:
		if !s.store.Fold(from, m) || s.world == nil {
			return
		}
		if r, ok := s.store.Remote(from); ok && !s.world.Has(from) {
			s.world.AddPlayer(from, r.Position, true)
		}
	}
}

func (s *Session) setStatus(fn func(*Status)) {
	s.mu.Lock()
	fn(&s.status)
	s.mu.Unlock()
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Players returns the replica as of the last frame, the local player first.
func (s *Session) Players() []game.PlayerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]game.PlayerState(nil), s.players...)
}

func (s *Session) Winner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.winner
}
