// Package statesync replicates player state over the mesh.
//
// Each client owns exactly one record, the Local player, and sends full
// snapshots to new peers and partial diffs afterwards. Remote records are
// only ever written by folding what their owners sent, never sent back.
package statesync

import (
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kingball/kingball/pkg/game"
	"github.com/kingball/kingball/pkg/king"
	"github.com/kingball/kingball/pkg/logger"
)

const DefaultPushCooldown = 4 * time.Second

// Broadcaster sends frames to the peers.
type Broadcaster interface {
	Broadcast(t string, payload any) int
	Send(peerId string, t string, payload any) error
}

// Judge tells whether a score wins the game.
type Judge interface {
	Wins(score float64) bool
}

type Options struct {
	// Judge defaults to the king rule with the default winning score.
	Judge        Judge
	PushCooldown time.Duration
}

// Store is not safe for concurrent use, it belongs to the game loop.
type Store struct {
	local   *Local
	remotes map[game.SessionId]*Remote
	winner  game.SessionId

	net     Broadcaster
	opts    Options
	metrics *Metrics
	log     *logger.Logger
}

func New(net Broadcaster, opts Options, metrics *Metrics, log *logger.Logger) *Store {
	if opts.Judge == nil {
		opts.Judge = king.New(king.DefaultWinningScore)
	}
	if opts.PushCooldown <= 0 {
		opts.PushCooldown = DefaultPushCooldown
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Store{
		remotes: map[game.SessionId]*Remote{},
		net:     net,
		opts:    opts,
		metrics: metrics,
		log:     log.Extend(log.With().Str("m", "sync")),
	}
}

// Init makes the local player, forgetting any previous session.
func (s *Store) Init(p game.PlayerState) {
	s.local = &Local{PlayerState: p, sent: p}
	s.remotes = map[game.SessionId]*Remote{}
	s.winner = ""
}

// Reset drops every record.
func (s *Store) Reset() {
	s.local = nil
	s.remotes = map[game.SessionId]*Remote{}
	s.winner = ""
}

func (s *Store) LocalId() game.SessionId {
	if s.local == nil {
		return ""
	}
	return s.local.Id
}

func (s *Store) Local() (game.PlayerState, bool) {
	if s.local == nil {
		return game.PlayerState{}, false
	}
	return s.local.PlayerState, true
}

func (s *Store) Remote(id game.SessionId) (game.PlayerState, bool) {
	r, ok := s.remotes[id]
	if !ok {
		return game.PlayerState{}, false
	}
	return r.PlayerState, true
}

// Players returns the local player first, then remotes by id.
func (s *Store) Players() []game.PlayerState {
	var out []game.PlayerState
	if s.local != nil {
		out = append(out, s.local.PlayerState)
	}
	ids := make([]string, 0, len(s.remotes))
	for id := range s.remotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		out = append(out, s.remotes[id].PlayerState)
	}
	return out
}

func (s *Store) Winner() game.SessionId { return s.winner }

// SetPose records the local body pose, sent with the next Flush.
func (s *Store) SetPose(pos mgl64.Vec3, rot mgl64.Quat) {
	if s.local == nil {
		return
	}
	s.local.Position, s.local.Rotation = pos, rot
}

func (s *Store) SetKing(king bool) {
	if s.local != nil {
		s.local.IsKing = king
	}
}

func (s *Store) SetNickname(name string) {
	if s.local != nil {
		s.local.Nickname = name
	}
}

// SetHost is carried only by snapshots.
func (s *Store) SetHost(host bool) {
	if s.local != nil {
		s.local.IsHost = host
	}
}

// AddScore adds points to the local player.
func (s *Store) AddScore(points float64) {
	if s.local == nil || points == 0 {
		return
	}
	s.local.Score += points
	s.checkWinner(s.local.Id, s.local.Score)
}

// Flush broadcasts the fields changed since the last send.
func (s *Store) Flush() (game.PlayerStateUpdateMsg, bool) {
	if s.local == nil {
		return game.PlayerStateUpdateMsg{}, false
	}
	u := s.local.diff()
	if u.Empty() {
		return u, false
	}
	u.Seq = s.local.next()
	s.local.mark(u)
	s.broadcast(u)
	return u, true
}

func (s *Store) snapshot() game.PlayerStateMsg {
	return game.PlayerStateMsg{State: s.local.PlayerState, Seq: s.local.next()}
}

// SendSnapshot sends the full local state to one peer.
// Pending changes stay pending for the others until the next Flush.
func (s *Store) SendSnapshot(peerId string) {
	if s.local == nil {
		return
	}
	t, payload := game.Encode(s.snapshot())
	if err := s.net.Send(peerId, t, payload); err != nil {
		s.log.Debug().Err(err).Str("peer", peerId).Msg("snapshot not sent")
		return
	}
	s.metrics.sent.WithLabelValues(t).Inc()
}

// BroadcastSnapshot sends the full local state to every connected peer.
func (s *Store) BroadcastSnapshot() {
	if s.local == nil {
		return
	}
	m := s.snapshot()
	s.local.sent = m.State
	s.broadcast(m)
}

func (s *Store) broadcast(m game.Message) {
	t, payload := game.Encode(m)
	n := s.net.Broadcast(t, payload)
	s.metrics.sent.WithLabelValues(t).Add(float64(n))
}

// Fold applies a state message received from a peer.
// Push messages are not state and are left to the caller.
func (s *Store) Fold(from string, m game.Message) bool {
	switch m := m.(type) {
	case game.PlayerStateMsg:
		return s.FoldSnapshot(from, m)
	case game.PlayerStateUpdateMsg:
		return s.FoldUpdate(from, m)
	}
	return false
}

// FoldSnapshot replaces or creates the sender's record.
// The record always takes the sender id whatever the payload says.
func (s *Store) FoldSnapshot(from string, m game.PlayerStateMsg) bool {
	if from == "" || from == s.LocalId() {
		s.metrics.fold(game.TypePlayerState, resultIgnored)
		return false
	}
	r, ok := s.remotes[from]
	if !ok {
		r = &Remote{}
		s.remotes[from] = r
		s.log.Info().Str("peer", from).Str("nick", m.State.Nickname).Msg("new player")
	}
	r.Id = from
	stale := r.applySnapshot(m.State, m.Seq)
	s.metrics.stale.Add(float64(stale))
	s.metrics.fold(game.TypePlayerState, resultApplied)
	s.checkWinner(from, r.Score)
	return true
}

// FoldUpdate merges the present fields into a known remote record.
func (s *Store) FoldUpdate(from string, m game.PlayerStateUpdateMsg) bool {
	id := m.Id
	if id == "" {
		id = from
	}
	if id == s.LocalId() {
		s.metrics.fold(game.TypePlayerStateUpdate, resultIgnored)
		return false
	}
	r, ok := s.remotes[id]
	if !ok || (from != "" && id != from) {
		s.log.Debug().Str("peer", from).Str("id", id).Msg("update ignored")
		s.metrics.fold(game.TypePlayerStateUpdate, resultIgnored)
		return false
	}
	stale := r.applyUpdate(m, m.Seq)
	s.metrics.stale.Add(float64(stale))
	s.metrics.fold(game.TypePlayerStateUpdate, resultApplied)
	if m.Score != nil {
		s.checkWinner(id, r.Score)
	}
	return true
}

// RemovePeer forgets a remote player.
func (s *Store) RemovePeer(id string) bool {
	if _, ok := s.remotes[id]; !ok {
		return false
	}
	delete(s.remotes, id)
	return true
}

// ResetScores zeroes every score here and tells the peers about the local one.
func (s *Store) ResetScores() {
	for _, r := range s.remotes {
		r.Score = 0
	}
	s.winner = ""
	if s.local == nil {
		return
	}
	s.local.Score = 0
	zero := 0.0
	u := game.PlayerStateUpdateMsg{Id: s.local.Id, Score: &zero, Seq: s.local.next()}
	s.local.mark(u)
	s.broadcast(u)
}

func (s *Store) CanPush(now time.Time) bool {
	if s.local == nil {
		return false
	}
	last := s.local.LastPushTime
	return last.IsZero() || now.Sub(last) >= s.opts.PushCooldown
}

// UsePush starts the push cooldown and broadcasts the push.
// The caller applies the returned push to its own world.
func (s *Store) UsePush(now time.Time) (game.PushAbilityUsedMsg, bool) {
	if !s.CanPush(now) {
		return game.PushAbilityUsedMsg{}, false
	}
	s.local.LastPushTime = now
	m := game.PushAbilityUsedMsg{PlayerId: s.local.Id, Position: s.local.Position, Direction: s.local.Facing()}
	s.broadcast(m)
	return m, true
}

// checkWinner sets the winner once, peers may disagree on who it is.
func (s *Store) checkWinner(id game.SessionId, score float64) {
	if s.winner != "" || !s.opts.Judge.Wins(score) {
		return
	}
	s.winner = id
	s.metrics.winners.Inc()
	s.log.Info().Str("id", id).Float64("score", score).Msg("winner")
}
