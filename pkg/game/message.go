package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/goccy/go-json"
)

const (
	TypePlayerState       = "player_state"
	TypePlayerStateUpdate = "player_state_update"
	TypePushAbilityUsed   = "push_ability_used"
)

var ErrUnknownMessage = errors.New("unknown message")

// Message is one of PlayerStateMsg, PlayerStateUpdateMsg, PushAbilityUsedMsg.
type Message interface {
	Type() string
	wire() any
}

// PlayerStateMsg is a full snapshot of the sender.
type PlayerStateMsg struct {
	State PlayerState
	Seq   uint64
}

// PlayerStateUpdateMsg carries only the changed fields of its owner.
type PlayerStateUpdateMsg struct {
	Id       SessionId
	Seq      uint64
	Position *mgl64.Vec3
	Rotation *mgl64.Quat
	Nickname *string
	Score    *float64
	IsKing   *bool
}

// PushAbilityUsedMsg asks every peer to apply a push impulse.
type PushAbilityUsedMsg struct {
	PlayerId  SessionId
	Position  mgl64.Vec3
	Direction mgl64.Vec3
}

func (PlayerStateMsg) Type() string       { return TypePlayerState }
func (PlayerStateUpdateMsg) Type() string { return TypePlayerStateUpdate }
func (PushAbilityUsedMsg) Type() string   { return TypePushAbilityUsed }

// Empty tells if the update has no fields.
func (u PlayerStateUpdateMsg) Empty() bool {
	return u.Position == nil && u.Rotation == nil && u.Nickname == nil && u.Score == nil && u.IsKing == nil
}

// Encode returns the frame type and the payload ready for JSON.
func Encode(m Message) (string, any) { return m.Type(), m.wire() }

// Decode parses a peer frame into a message.
func Decode(t string, payload []byte) (Message, error) {
	switch t {
	case TypePlayerState:
		var w playerStateWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%v: %w", t, err)
		}
		return w.message(), nil
	case TypePlayerStateUpdate:
		var w playerStateUpdateWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%v: %w", t, err)
		}
		return w.message(), nil
	case TypePushAbilityUsed:
		var w pushWire
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%v: %w", t, err)
		}
		return PushAbilityUsedMsg{PlayerId: w.PlayerId, Position: w.Position.vec(), Direction: w.Direction.vec()}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, t)
}

func (m PlayerStateMsg) wire() any {
	s := m.State
	w := playerStateWire{
		Id:       s.Id,
		Position: toVec(s.Position),
		Rotation: toQuat(s.Rotation),
		Color:    s.Color,
		IsHost:   s.IsHost,
		Nickname: s.Nickname,
		Score:    s.Score,
		IsKing:   s.IsKing,
		Seq:      m.Seq,
	}
	if !s.LastPushTime.IsZero() {
		w.LastPushTime = s.LastPushTime.UnixMilli()
	}
	return w
}

func (m PlayerStateUpdateMsg) wire() any {
	w := playerStateUpdateWire{Id: m.Id, Seq: m.Seq, Nickname: m.Nickname, Score: m.Score, IsKing: m.IsKing}
	if m.Position != nil {
		v := toVec(*m.Position)
		w.Position = &v
	}
	if m.Rotation != nil {
		q := toQuat(*m.Rotation)
		w.Rotation = &q
	}
	return w
}

func (m PushAbilityUsedMsg) wire() any {
	return pushWire{PlayerId: m.PlayerId, Position: toVec(m.Position), Direction: toVec(m.Direction)}
}

func (w playerStateWire) message() PlayerStateMsg {
	s := PlayerState{
		Id:       w.Id,
		Position: w.Position.vec(),
		Rotation: w.Rotation.value(),
		Color:    w.Color,
		Nickname: w.Nickname,
		IsHost:   w.IsHost,
		Score:    w.Score,
		IsKing:   w.IsKing,
	}
	if w.LastPushTime > 0 {
		s.LastPushTime = time.UnixMilli(w.LastPushTime)
	}
	return PlayerStateMsg{State: s, Seq: w.Seq}
}

func (w playerStateUpdateWire) message() PlayerStateUpdateMsg {
	m := PlayerStateUpdateMsg{Id: w.Id, Seq: w.Seq, Nickname: w.Nickname, Score: w.Score, IsKing: w.IsKing}
	if w.Position != nil {
		v := w.Position.vec()
		m.Position = &v
	}
	if w.Rotation != nil {
		q := w.Rotation.value()
		m.Rotation = &q
	}
	return m
}
