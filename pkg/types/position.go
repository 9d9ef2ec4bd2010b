package types

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockPosition is an integer position in the schematic grid.
type BlockPosition struct {
	X, Y, Z int
}

func Pos(x, y, z int) BlockPosition {
	return BlockPosition{X: x, Y: y, Z: z}
}

// Neighbor returns the position one step in the given direction.
func (p BlockPosition) Neighbor(d Direction) BlockPosition {
	dx, dy, dz := d.Offset()
	return BlockPosition{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func (p BlockPosition) Offset(dx, dy, dz int) BlockPosition {
	return BlockPosition{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Vec3 returns the position as the float offset of the block's corner.
func (p BlockPosition) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
}

func (p BlockPosition) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// BoundingBox is an inclusive-exclusive integer box: Min is contained,
// Max is one past the last contained cell on each axis.
type BoundingBox struct {
	Min BlockPosition
	Max BlockPosition
}

// BoundsFromPositions computes the tight bounding box around a set of
// positions. Returns the zero box, which is not Valid, for an empty
// set.
func BoundsFromPositions(positions []BlockPosition) BoundingBox {
	if len(positions) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Min.Z = min(b.Min.Z, p.Z)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
		b.Max.Z = max(b.Max.Z, p.Z)
	}
	b.Max.X++
	b.Max.Y++
	b.Max.Z++
	return b
}

// Valid reports whether the box contains at least one cell. The zero
// box, and any box with a non-positive extent on some axis, is invalid.
func (b BoundingBox) Valid() bool {
	return b.Min.X < b.Max.X && b.Min.Y < b.Max.Y && b.Min.Z < b.Max.Z
}

func (b BoundingBox) Contains(p BlockPosition) bool {
	return p.X >= b.Min.X && p.X < b.Max.X &&
		p.Y >= b.Min.Y && p.Y < b.Max.Y &&
		p.Z >= b.Min.Z && p.Z < b.Max.Z
}

// Dimensions returns the box size along each axis.
func (b BoundingBox) Dimensions() (int, int, int) {
	return b.Max.X - b.Min.X, b.Max.Y - b.Min.Y, b.Max.Z - b.Min.Z
}

// Grow expands the box by n cells on every side.
func (b BoundingBox) Grow(n int) BoundingBox {
	return BoundingBox{
		Min: BlockPosition{X: b.Min.X - n, Y: b.Min.Y - n, Z: b.Min.Z - n},
		Max: BlockPosition{X: b.Max.X + n, Y: b.Max.Y + n, Z: b.Max.Z + n},
	}
}

// Union returns the smallest box containing both boxes.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: BlockPosition{X: min(b.Min.X, o.Min.X), Y: min(b.Min.Y, o.Min.Y), Z: min(b.Min.Z, o.Min.Z)},
		Max: BlockPosition{X: max(b.Max.X, o.Max.X), Y: max(b.Max.Y, o.Max.Y), Z: max(b.Max.Z, o.Max.Z)},
	}
}
