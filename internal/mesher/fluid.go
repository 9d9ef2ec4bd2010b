package mesher

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"voxmesh/pkg/types"
)

// FluidKind identifies the two fluids with custom geometry.
type FluidKind int

const (
	FluidWater FluidKind = iota
	FluidLava
)

// FluidState is a fluid block's parsed level property.
type FluidState struct {
	Kind FluidKind
	// Amount 1-8, 8 is a source or full column.
	Amount uint8
	// Source is true for level 0.
	Source bool
	// Falling is true for levels 8 and above.
	Falling bool
}

// FluidStateFromBlock parses a block into a fluid state, if it is a
// fluid. Level 0 is a source, 1-7 flow with decreasing height, 8 and
// above fall as a full column.
func FluidStateFromBlock(block types.InputBlock) (FluidState, bool) {
	var kind FluidKind
	switch block.ID() {
	case "water":
		kind = FluidWater
	case "lava":
		kind = FluidLava
	default:
		return FluidState{}, false
	}

	level := atoiProp(block, "level", 0)
	state := FluidState{Kind: kind}
	switch {
	case level == 0:
		state.Source = true
		state.Amount = 8
	case level < 8:
		state.Amount = uint8(8 - level)
	default:
		state.Falling = true
		state.Amount = 8
	}
	return state, true
}

// OwnHeight is the fluid surface height within the block, 0 to 1.
func (s FluidState) OwnHeight() float32 {
	if s.Falling {
		return 1
	}
	return float32(s.Amount) / 9
}

func (s FluidState) StillTexture() string {
	if s.Kind == FluidLava {
		return "block/lava_still"
	}
	return "block/water_still"
}

func (s FluidState) FlowTexture() string {
	if s.Kind == FluidLava {
		return "block/lava_flow"
	}
	return "block/water_flow"
}

// Transparent reports whether the fluid renders in the transparent
// layer. Lava is opaque.
func (s FluidState) Transparent() bool {
	return s.Kind == FluidWater
}

type blockMap map[types.BlockPosition]types.InputBlock

func fluidAt(blocks blockMap, pos types.BlockPosition) (FluidState, bool) {
	block, ok := blocks[pos]
	if !ok {
		return FluidState{}, false
	}
	return FluidStateFromBlock(block)
}

func sameFluidAt(blocks blockMap, pos types.BlockPosition, kind FluidKind) bool {
	state, ok := fluidAt(blocks, pos)
	return ok && state.Kind == kind
}

// cornerHeight averages the fluid height at one corner with the up to
// three neighbors sharing it. Any contributor at full height, or any
// same fluid directly above, pulls the corner to 1. Near-full
// neighbors get extra weight so source pools keep flat surfaces.
func cornerHeight(blocks blockMap, pos types.BlockPosition, state FluidState, dx, dz int) float32 {
	if sameFluidAt(blocks, pos.Offset(0, 1, 0), state.Kind) {
		return 1
	}

	offsets := [4][2]int{{0, 0}, {dx, 0}, {0, dz}, {dx, dz}}
	var total, weight float32
	for _, o := range offsets {
		np := pos.Offset(o[0], 0, o[1])
		if sameFluidAt(blocks, np.Offset(0, 1, 0), state.Kind) {
			return 1
		}
		nf, ok := fluidAt(blocks, np)
		if !ok || nf.Kind != state.Kind {
			continue
		}
		h := nf.OwnHeight()
		if h >= 1 {
			return 1
		}
		w := float32(1)
		if h >= 0.8 {
			w = 10
		}
		total += h * w
		weight += w
	}
	if weight > 0 {
		return total / weight
	}
	return state.OwnHeight()
}

// cornerHeights returns the surface heights in [NW, NE, SE, SW] order.
func cornerHeights(blocks blockMap, pos types.BlockPosition, state FluidState) [4]float32 {
	return [4]float32{
		cornerHeight(blocks, pos, state, -1, -1),
		cornerHeight(blocks, pos, state, 1, -1),
		cornerHeight(blocks, pos, state, 1, 1),
		cornerHeight(blocks, pos, state, -1, 1),
	}
}

// directionShade is the fixed per-face brightness used for fluids.
func directionShade(direction types.Direction) float32 {
	switch direction {
	case types.Up:
		return 1.0
	case types.Down:
		return 0.5
	case types.North, types.South:
		return 0.8
	default:
		return 0.6
	}
}

// fluidVisibleFaces reports which of the six faces render, indexed by
// direction. Faces against the same fluid or an opaque block are
// hidden, except the top which only hides under more of the fluid.
func fluidVisibleFaces(blocks blockMap, pos types.BlockPosition, state FluidState, isOpaque func(types.BlockPosition) bool) [6]bool {
	faces := [6]bool{true, true, true, true, true, true}

	below := pos.Neighbor(types.Down)
	if sameFluidAt(blocks, below, state.Kind) || isOpaque(below) {
		faces[types.Down] = false
	}
	if sameFluidAt(blocks, pos.Neighbor(types.Up), state.Kind) {
		faces[types.Up] = false
	}
	for _, dir := range []types.Direction{types.North, types.South, types.West, types.East} {
		neighbor := pos.Neighbor(dir)
		if sameFluidAt(blocks, neighbor, state.Kind) || isOpaque(neighbor) {
			faces[dir] = false
		}
	}
	return faces
}

// flowVector is the horizontal surface gradient of the fluid. Each
// cardinal neighbor of the same fluid pulls toward the lower surface.
// A zero vector means still fluid.
func flowVector(blocks blockMap, pos types.BlockPosition, state FluidState) mgl32.Vec2 {
	own := state.OwnHeight()
	var flow mgl32.Vec2
	for _, dir := range []types.Direction{types.North, types.South, types.West, types.East} {
		np := pos.Neighbor(dir)
		var nh float32
		if nf, ok := fluidAt(blocks, np); ok && nf.Kind == state.Kind {
			nh = nf.OwnHeight()
		} else if _, occupied := blocks[np]; occupied {
			// No gradient into solid blocks.
			continue
		}
		dx, _, dz := dir.Offset()
		diff := own - nh
		flow[0] += diff * float32(dx)
		flow[1] += diff * float32(dz)
	}
	if flow.Len() > 0 {
		flow = flow.Normalize()
	}
	return flow
}

// FluidFaceTexture records the texture behind four consecutive fluid
// vertices so their UVs can be remapped into the atlas afterwards.
type FluidFaceTexture struct {
	Texture     string
	Transparent bool
}

// fluidEpsilon insets bottom and side faces to avoid z-fighting with
// neighboring geometry.
const fluidEpsilon = 0.001

// GenerateFluidGeometry emits the mesh for one fluid block. Vertices
// are appended four per face; the returned textures parallel those
// quads. Block centers sit on integer coordinates, so the block spans
// [pos-0.5, pos+0.5].
func GenerateFluidGeometry(blocks blockMap, pos types.BlockPosition, state FluidState, isOpaque func(types.BlockPosition) bool, baseColor [4]float32) ([]Vertex, []uint32, []FluidFaceTexture) {
	var vertices []Vertex
	var indices []uint32
	var faceTextures []FluidFaceTexture

	faces := fluidVisibleFaces(blocks, pos, state, isOpaque)
	heights := cornerHeights(blocks, pos, state)

	x := float32(pos.X) - 0.5
	y := float32(pos.Y) - 0.5
	z := float32(pos.Z) - 0.5

	hNW, hNE, hSE, hSW := heights[0], heights[1], heights[2], heights[3]

	shadedColor := func(dir types.Direction) mgl32.Vec4 {
		shade := directionShade(dir)
		return mgl32.Vec4{baseColor[0] * shade, baseColor[1] * shade, baseColor[2] * shade, baseColor[3]}
	}

	addQuad := func(verts [4]Vertex, texture string) {
		start := uint32(len(vertices))
		vertices = append(vertices, verts[0], verts[1], verts[2], verts[3])
		indices = append(indices, start, start+3, start+2, start, start+2, start+1)
		faceTextures = append(faceTextures, FluidFaceTexture{Texture: texture, Transparent: state.Transparent()})
	}

	if faces[types.Up] {
		color := shadedColor(types.Up)
		normal := mgl32.Vec3{0, 1, 0}

		// A moving surface uses the flow texture rotated to the flow
		// direction; a still surface keeps the still texture.
		texture := state.StillTexture()
		uvs := [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
		if flow := flowVector(blocks, pos, state); flow.Len() > 0 {
			texture = state.FlowTexture()
			angle := math32.Atan2(flow[1], flow[0])
			uvs = rotateUVsByAngle(uvs, angle)
		}

		addQuad([4]Vertex{
			NewVertex(mgl32.Vec3{x, y + hNW, z}, normal, uvs[0]).WithColor(color),
			NewVertex(mgl32.Vec3{x + 1, y + hNE, z}, normal, uvs[1]).WithColor(color),
			NewVertex(mgl32.Vec3{x + 1, y + hSE, z + 1}, normal, uvs[2]).WithColor(color),
			NewVertex(mgl32.Vec3{x, y + hSW, z + 1}, normal, uvs[3]).WithColor(color),
		}, texture)
	}

	if faces[types.Down] {
		color := shadedColor(types.Down)
		normal := mgl32.Vec3{0, -1, 0}
		addQuad([4]Vertex{
			NewVertex(mgl32.Vec3{x, y + fluidEpsilon, z + 1}, normal, mgl32.Vec2{0, 1}).WithColor(color),
			NewVertex(mgl32.Vec3{x + 1, y + fluidEpsilon, z + 1}, normal, mgl32.Vec2{1, 1}).WithColor(color),
			NewVertex(mgl32.Vec3{x + 1, y + fluidEpsilon, z}, normal, mgl32.Vec2{1, 0}).WithColor(color),
			NewVertex(mgl32.Vec3{x, y + fluidEpsilon, z}, normal, mgl32.Vec2{0, 0}).WithColor(color),
		}, state.StillTexture())
	}

	emitSide := func(dir types.Direction, bl, br mgl32.Vec3, hLeft, hRight float32) {
		color := shadedColor(dir)
		normal := dir.Normal()
		texture := state.FlowTexture()

		vBL := bl
		vBR := br
		vTR := mgl32.Vec3{br[0], br[1] + hRight, br[2]}
		vTL := mgl32.Vec3{bl[0], bl[1] + hLeft, bl[2]}

		// Front side.
		addQuad([4]Vertex{
			NewVertex(vTL, normal, mgl32.Vec2{0, 1 - hLeft}).WithColor(color),
			NewVertex(vTR, normal, mgl32.Vec2{1, 1 - hRight}).WithColor(color),
			NewVertex(vBR, normal, mgl32.Vec2{1, 1}).WithColor(color),
			NewVertex(vBL, normal, mgl32.Vec2{0, 1}).WithColor(color),
		}, texture)

		// Back side so the sheet is visible from inside the fluid.
		neg := normal.Mul(-1)
		addQuad([4]Vertex{
			NewVertex(vTR, neg, mgl32.Vec2{1, 1 - hRight}).WithColor(color),
			NewVertex(vTL, neg, mgl32.Vec2{0, 1 - hLeft}).WithColor(color),
			NewVertex(vBL, neg, mgl32.Vec2{0, 1}).WithColor(color),
			NewVertex(vBR, neg, mgl32.Vec2{1, 1}).WithColor(color),
		}, texture)
	}

	if faces[types.North] {
		emitSide(types.North, mgl32.Vec3{x + 1, y, z + fluidEpsilon}, mgl32.Vec3{x, y, z + fluidEpsilon}, hNE, hNW)
	}
	if faces[types.South] {
		emitSide(types.South, mgl32.Vec3{x, y, z + 1 - fluidEpsilon}, mgl32.Vec3{x + 1, y, z + 1 - fluidEpsilon}, hSW, hSE)
	}
	if faces[types.West] {
		emitSide(types.West, mgl32.Vec3{x + fluidEpsilon, y, z}, mgl32.Vec3{x + fluidEpsilon, y, z + 1}, hNW, hSW)
	}
	if faces[types.East] {
		emitSide(types.East, mgl32.Vec3{x + 1 - fluidEpsilon, y, z + 1}, mgl32.Vec3{x + 1 - fluidEpsilon, y, z}, hSE, hNE)
	}

	return vertices, indices, faceTextures
}

// rotateUVsByAngle spins the four corner UVs around the texture
// center so the flow texture points along the flow direction.
func rotateUVsByAngle(uvs [4]mgl32.Vec2, angle float32) [4]mgl32.Vec2 {
	sin := math32.Sin(angle)
	cos := math32.Cos(angle)
	var out [4]mgl32.Vec2
	for i, uv := range uvs {
		u := uv[0] - 0.5
		v := uv[1] - 0.5
		out[i] = mgl32.Vec2{
			0.5 + u*cos - v*sin,
			0.5 + u*sin + v*cos,
		}
	}
	return out
}
