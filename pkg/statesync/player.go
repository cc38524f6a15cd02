package statesync

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kingball/kingball/pkg/game"
)

// Epsilon is the smallest position or rotation change worth sending.
const Epsilon = 1e-4

// Local is the player owned by this client, the only record it writes.
type Local struct {
	game.PlayerState

	seq uint64
	// last values sent to the peers
	sent game.PlayerState
}

func (l *Local) next() uint64 { l.seq++; return l.seq }

// diff returns the fields changed since the last send.
func (l *Local) diff() game.PlayerStateUpdateMsg {
	u := game.PlayerStateUpdateMsg{Id: l.Id}
	if !vecEqual(l.Position, l.sent.Position) {
		p := l.Position
		u.Position = &p
	}
	if !quatEqual(l.Rotation, l.sent.Rotation) {
		q := l.Rotation
		u.Rotation = &q
	}
	if l.Nickname != l.sent.Nickname {
		n := l.Nickname
		u.Nickname = &n
	}
	if l.Score != l.sent.Score {
		s := l.Score
		u.Score = &s
	}
	if l.IsKing != l.sent.IsKing {
		k := l.IsKing
		u.IsKing = &k
	}
	return u
}

// mark remembers the fields of u as sent.
func (l *Local) mark(u game.PlayerStateUpdateMsg) {
	if u.Position != nil {
		l.sent.Position = *u.Position
	}
	if u.Rotation != nil {
		l.sent.Rotation = *u.Rotation
	}
	if u.Nickname != nil {
		l.sent.Nickname = *u.Nickname
	}
	if u.Score != nil {
		l.sent.Score = *u.Score
	}
	if u.IsKing != nil {
		l.sent.IsKing = *u.IsKing
	}
}

// Remote is a replica of another player, written only by its folds.
type Remote struct {
	game.PlayerState

	versions versions
}

// versions keeps the owner seq of the last applied value of each field.
type versions struct {
	snapshot, position, rotation, nickname, score, isKing uint64
}

// fresh tells if a value with seq may replace one with version v.
// Zero seq comes from peers that do not count and always wins.
func fresh(v *uint64, seq uint64) bool {
	if seq == 0 {
		return true
	}
	if seq < *v {
		return false
	}
	*v = seq
	return true
}

func (r *Remote) applySnapshot(s game.PlayerState, seq uint64) (stale int) {
	if fresh(&r.versions.snapshot, seq) {
		r.Color, r.IsHost, r.LastPushTime = s.Color, s.IsHost, s.LastPushTime
	} else {
		stale++
	}
	u := game.PlayerStateUpdateMsg{Position: &s.Position, Rotation: &s.Rotation, Nickname: &s.Nickname, Score: &s.Score, IsKing: &s.IsKing}
	return stale + r.applyUpdate(u, seq)
}

func (r *Remote) applyUpdate(u game.PlayerStateUpdateMsg, seq uint64) (stale int) {
	v := &r.versions
	apply := func(version *uint64, set func()) {
		if fresh(version, seq) {
			set()
		} else {
			stale++
		}
	}
	if u.Position != nil {
		apply(&v.position, func() { r.Position = *u.Position })
	}
	if u.Rotation != nil {
		apply(&v.rotation, func() { r.Rotation = *u.Rotation })
	}
	if u.Nickname != nil {
		apply(&v.nickname, func() { r.Nickname = *u.Nickname })
	}
	if u.Score != nil {
		apply(&v.score, func() { r.Score = *u.Score })
	}
	if u.IsKing != nil {
		apply(&v.isKing, func() { r.IsKing = *u.IsKing })
	}
	return
}

func vecEqual(a, b mgl64.Vec3) bool { return a.Sub(b).Len() <= Epsilon }

func quatEqual(a, b mgl64.Quat) bool {
	return math.Abs(a.W-b.W) <= Epsilon && vecEqual(a.V, b.V)
}
