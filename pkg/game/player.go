// Package game holds the shared player model and the peer message set.
package game

import (
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// SessionId is the rendezvous-assigned id of a player.
type SessionId = string

// PlayerState is the replicated state of one ball.
type PlayerState struct {
	Id           SessionId
	Position     mgl64.Vec3
	Rotation     mgl64.Quat
	Color        string
	Nickname     string
	IsHost       bool
	Score        float64
	IsKing       bool
	LastPushTime time.Time
}

var (
	Spawn   = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, -1}
)

// Colors is the palette for new players.
var Colors = []string{
	"#FF5733", "#33FF57", "#3357FF", "#F3FF33", "#FF33F3",
	"#33FFF3", "#FF8333", "#8333FF", "#33FF83", "#FF3383",
}

func RandomColor() string { return Colors[rand.Intn(len(Colors))] }

// NewPlayer makes a fresh player at the spawn point.
func NewPlayer(id SessionId, nickname string) PlayerState {
	return PlayerState{
		Id:       id,
		Position: Spawn,
		Rotation: mgl64.QuatIdent(),
		Color:    RandomColor(),
		Nickname: nickname,
	}
}

// Facing is the player forward direction.
func (p PlayerState) Facing() mgl64.Vec3 { return p.Rotation.Rotate(Forward) }
