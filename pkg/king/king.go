// Package king holds the king of the hill rule: a player alone in the
// zone is the king and collects score for every second spent there.
package king

const DefaultWinningScore = 60.0

type State int

const (
	Uncontested State = iota
	SingleOccupant
	Contested
)

func (s State) String() string {
	switch s {
	case Uncontested:
		return "uncontested"
	case SingleOccupant:
		return "single"
	case Contested:
		return "contested"
	}
	return "unknown"
}

// Transition is a change of the king, an empty id means no king.
type Transition struct {
	Prev string
	New  string
}

// Engine is not safe for concurrent use, it lives in the game loop.
type Engine struct {
	state        State
	king         string
	winningScore float64
}

func New(winningScore float64) *Engine {
	if winningScore <= 0 {
		winningScore = DefaultWinningScore
	}
	return &Engine{winningScore: winningScore}
}

// Update takes the current zone occupants and reports whether the king changed.
func (e *Engine) Update(occupants []string) (Transition, bool) {
	prev := e.king
	switch len(occupants) {
	case 0:
		e.state, e.king = Uncontested, ""
	case 1:
		e.state, e.king = SingleOccupant, occupants[0]
	default:
		e.state, e.king = Contested, ""
	}
	return Transition{Prev: prev, New: e.king}, prev != e.king
}

// Tick returns the king and the score it earns for dt.
func (e *Engine) Tick(dt float64) (string, float64) {
	if e.king == "" || dt <= 0 {
		return "", 0
	}
	return e.king, dt
}

func (e *Engine) King() string          { return e.king }
func (e *Engine) State() State          { return e.state }
func (e *Engine) WinningScore() float64 { return e.winningScore }

// Wins tells if a score reached the threshold.
func (e *Engine) Wins(score float64) bool { return score >= e.winningScore }

func (e *Engine) Reset() { e.state, e.king = Uncontested, "" }
