package session

import (
	"math"
	"math/rand"

	"github.com/kingball/kingball/pkg/game"
)

// Intent is what the player wants to do this frame.
type Intent struct {
	Forward, Backward, Left, Right bool
	Jump                           bool
	Push                           bool
}

// Input is polled once per frame with the current replica.
type Input interface {
	Poll(self game.PlayerState, others []game.PlayerState) Intent
}

type InputFunc func(self game.PlayerState, others []game.PlayerState) Intent

func (f InputFunc) Poll(self game.PlayerState, others []game.PlayerState) Intent {
	return f(self, others)
}

// Still never moves.
var Still = InputFunc(func(game.PlayerState, []game.PlayerState) Intent { return Intent{} })

// Bot heads for the king zone and pushes whoever comes close.
type Bot struct {
	// how close is close enough to the zone center
	Slack     float64
	PushRange float64
	rnd       *rand.Rand
}

func NewBot(seed int64) *Bot {
	return &Bot{Slack: 1, PushRange: 2.5, rnd: rand.New(rand.NewSource(seed))}
}

func (b *Bot) Poll(self game.PlayerState, others []game.PlayerState) (in Intent) {
	p := self.Position
	switch {
	case p.Z() > b.Slack:
		in.Forward = true
	case p.Z() < -b.Slack:
		in.Backward = true
	}
	switch {
	case p.X() > b.Slack:
		in.Left = true
	case p.X() < -b.Slack:
		in.Right = true
	}
	for _, o := range others {
		dx, dz := o.Position.X()-p.X(), o.Position.Z()-p.Z()
		if math.Hypot(dx, dz) <= b.PushRange {
			in.Push = true
			break
		}
	}
	// unstick from obstacles now and then
	in.Jump = b.rnd.Intn(120) == 0
	return
}

// NewInput picks an input source by name, the bot is the default.
func NewInput(name string) Input {
	switch name {
	case "idle":
		return Still
	default:
		return NewBot(rand.Int63())
	}
}
