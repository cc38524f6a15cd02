package game

import "github.com/go-gl/mathgl/mgl64"

type vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// quat has an optional w, a missing one means 1.
type quat struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z float64  `json:"z"`
	W *float64 `json:"w,omitempty"`
}

type playerStateWire struct {
	Id           string  `json:"id"`
	Position     vec3    `json:"position"`
	Rotation     quat    `json:"rotation"`
	Color        string  `json:"color"`
	IsHost       bool    `json:"isHost"`
	Nickname     string  `json:"nickname"`
	Score        float64 `json:"score"`
	IsKing       bool    `json:"isKing"`
	LastPushTime int64   `json:"lastPushTime"`
	Seq          uint64  `json:"seq,omitempty"`
}

type playerStateUpdateWire struct {
	Id       string   `json:"id"`
	Seq      uint64   `json:"seq,omitempty"`
	Position *vec3    `json:"position,omitempty"`
	Rotation *quat    `json:"rotation,omitempty"`
	Nickname *string  `json:"nickname,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	IsKing   *bool    `json:"isKing,omitempty"`
}

type pushWire struct {
	PlayerId  string `json:"playerId"`
	Position  vec3   `json:"position"`
	Direction vec3   `json:"direction"`
}

func toVec(v mgl64.Vec3) vec3 { return vec3{X: v.X(), Y: v.Y(), Z: v.Z()} }
func (v vec3) vec() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func toQuat(q mgl64.Quat) quat {
	w := q.W
	return quat{X: q.V.X(), Y: q.V.Y(), Z: q.V.Z(), W: &w}
}

func (q quat) value() mgl64.Quat {
	w := 1.0
	if q.W != nil {
		w = *q.W
	}
	return mgl64.Quat{W: w, V: mgl64.Vec3{q.X, q.Y, q.Z}}
}
