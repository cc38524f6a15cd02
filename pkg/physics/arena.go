package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	MapSize       = 30.0
	WallHeight    = 2.0
	WallThickness = 1.0
	Obstacles     = 5
)

// Arena builds the static geometry of the map.
func Arena() []*Static {
	id := mgl64.QuatIdent()
	half := MapSize / 2
	wall := mgl64.Vec3{half + WallThickness, WallHeight / 2, WallThickness / 2}
	side := mgl64.Vec3{WallThickness / 2, WallHeight / 2, half}
	edge := half + WallThickness/2

	statics := []*Static{
		NewStatic("ground", Plane{}, mgl64.Vec3{}, id, GroundMaterial),
		NewStatic("ice", Box{Half: mgl64.Vec3{5, 0.01, 5}}, mgl64.Vec3{0, 0.01, 0}, id, IceMaterial),
		NewStatic("sticky", Box{Half: mgl64.Vec3{2.5, 0.01, 5}}, mgl64.Vec3{10, 0.01, 0}, id, StickyMaterial),
		NewStatic("wall-north", Box{Half: wall}, mgl64.Vec3{0, WallHeight / 2, -edge}, id, WallMaterial),
		NewStatic("wall-south", Box{Half: wall}, mgl64.Vec3{0, WallHeight / 2, edge}, id, WallMaterial),
		NewStatic("wall-east", Box{Half: side}, mgl64.Vec3{edge, WallHeight / 2, 0}, id, WallMaterial),
		NewStatic("wall-west", Box{Half: side}, mgl64.Vec3{-edge, WallHeight / 2, 0}, id, WallMaterial),
		NewStatic("platform", Cylinder{Radius: KingZoneRadius, Height: 0.6}, mgl64.Vec3{0, 0.3, 0}, id, GroundMaterial),
		NewStatic("ramp", Box{Half: mgl64.Vec3{2.5, 0.1, 2.5}}, mgl64.Vec3{-7.5, 0.5, 7.5},
			mgl64.QuatRotate(math.Pi/12, mgl64.Vec3{1, 0, 0}), RampMaterial),
	}
	h := WallHeight / 3
	for i := 0; i < Obstacles; i++ {
		a := float64(i) * 2 * math.Pi / Obstacles
		statics = append(statics, NewStatic(fmt.Sprintf("obstacle-%d", i), Box{Half: mgl64.Vec3{1, h, 1}},
			mgl64.Vec3{math.Cos(a) * 10, h, math.Sin(a) * 10}, id, WallMaterial))
	}
	return statics
}
