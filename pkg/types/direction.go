package types

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the six face directions.
type Direction int

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// Directions lists all six directions in canonical order.
var Directions = [6]Direction{Down, Up, North, South, West, East}

// Offset returns the unit step for this direction.
// North is -Z, South is +Z, West is -X, East is +X.
func (d Direction) Offset() (int, int, int) {
	switch d {
	case Down:
		return 0, -1, 0
	case Up:
		return 0, 1, 0
	case North:
		return 0, 0, -1
	case South:
		return 0, 0, 1
	case West:
		return -1, 0, 0
	default:
		return 1, 0, 0
	}
}

// Normal returns the outward face normal.
func (d Direction) Normal() mgl32.Vec3 {
	dx, dy, dz := d.Offset()
	return mgl32.Vec3{float32(dx), float32(dy), float32(dz)}
}

func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	default:
		return West
	}
}

func (d Direction) Axis() Axis {
	switch d {
	case Down, Up:
		return AxisY
	case North, South:
		return AxisZ
	default:
		return AxisX
	}
}

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "unknown"
}

// DirectionFromString parses a lowercase direction name.
func DirectionFromString(s string) (Direction, bool) {
	switch s {
	case "down", "bottom":
		return Down, true
	case "up", "top":
		return Up, true
	case "north":
		return North, true
	case "south":
		return South, true
	case "west":
		return West, true
	case "east":
		return East, true
	}
	return Down, false
}

// RotateX rotates the direction around the X axis in 90-degree increments.
// Positive rotation cycles Up -> North -> Down -> South.
func (d Direction) RotateX(degrees int) Direction {
	steps := ((degrees/90)%4 + 4) % 4
	for i := 0; i < steps; i++ {
		switch d {
		case Up:
			d = North
		case North:
			d = Down
		case Down:
			d = South
		case South:
			d = Up
		}
	}
	return d
}

// RotateY rotates the direction around the Y axis in 90-degree increments.
// Positive rotation cycles North -> East -> South -> West.
func (d Direction) RotateY(degrees int) Direction {
	steps := ((degrees/90)%4 + 4) % 4
	for i := 0; i < steps; i++ {
		switch d {
		case North:
			d = East
		case East:
			d = South
		case South:
			d = West
		case West:
			d = North
		}
	}
	return d
}

// RotateBy applies a block transform to the direction, X rotation first
// then Y, matching the geometry transform order.
func (d Direction) RotateBy(t BlockTransform) Direction {
	return d.RotateX(t.X).RotateY(t.Y)
}

// Axis is one of the three principal axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	default:
		return "z"
	}
}

// AxisFromString parses a lowercase axis name.
func AxisFromString(s string) (Axis, bool) {
	switch s {
	case "x":
		return AxisX, true
	case "y":
		return AxisY, true
	case "z":
		return AxisZ, true
	}
	return AxisY, false
}

// BlockTransform is a whole-block rotation from a blockstate variant:
// X and Y rotations in 90-degree steps, applied X first.
type BlockTransform struct {
	X      int
	Y      int
	UVLock bool
}

func (t BlockTransform) IsIdentity() bool {
	return t.X%360 == 0 && t.Y%360 == 0
}
