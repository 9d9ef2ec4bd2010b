package mesher

import (
	"math"
	"sort"

	"voxmesh/pkg/types"
)

// FaceMergeKey decides whether two faces may merge into one quad.
// Texture, tint, AO pattern and light level must all match, so merged
// surfaces never lose shading detail.
type FaceMergeKey struct {
	Texture string
	Tint    [4]uint8
	AO      [4]uint8
	Light   uint8
}

// GreedyFace is one axis-aligned full-block face recorded for merging.
type GreedyFace struct {
	Key         FaceMergeKey
	Transparent bool
}

// MergedQuad is one rectangle produced by the greedy merge, in layer
// coordinates: layer is the fixed axis, u and v span the rectangle.
type MergedQuad struct {
	Direction   types.Direction
	Layer       int
	UMin, VMin  int
	Width       int
	Height      int
	Texture     string
	Tint        [4]uint8
	AO          [4]uint8
	Light       uint8
	Transparent bool
}

// posToLayerCoords projects a block position onto (layer, u, v) for a
// face direction.
func posToLayerCoords(pos types.BlockPosition, direction types.Direction) (int, int, int) {
	switch direction {
	case types.Up, types.Down:
		return pos.Y, pos.X, pos.Z
	case types.North, types.South:
		return pos.Z, pos.X, pos.Y
	default:
		return pos.X, pos.Z, pos.Y
	}
}

// quantizeColor rounds a float color to bytes so it can sit in a map key.
func quantizeColor(color [4]float32) [4]uint8 {
	return [4]uint8{
		uint8(math.Round(float64(color[0]) * 255)),
		uint8(math.Round(float64(color[1]) * 255)),
		uint8(math.Round(float64(color[2]) * 255)),
		uint8(math.Round(float64(color[3]) * 255)),
	}
}

type layerCell struct {
	u, v int
}

// GreedyMesher collects full-block faces and merges coplanar runs
// with equal keys into larger rectangles.
type GreedyMesher struct {
	layers map[types.Direction]map[int]map[layerCell]GreedyFace
}

func NewGreedyMesher() *GreedyMesher {
	return &GreedyMesher{
		layers: make(map[types.Direction]map[int]map[layerCell]GreedyFace),
	}
}

// AddFace records a face for merging.
func (g *GreedyMesher) AddFace(pos types.BlockPosition, direction types.Direction, key FaceMergeKey, transparent bool) {
	layer, u, v := posToLayerCoords(pos, direction)
	byLayer, ok := g.layers[direction]
	if !ok {
		byLayer = make(map[int]map[layerCell]GreedyFace)
		g.layers[direction] = byLayer
	}
	grid, ok := byLayer[layer]
	if !ok {
		grid = make(map[layerCell]GreedyFace)
		byLayer[layer] = grid
	}
	grid[layerCell{u, v}] = GreedyFace{Key: key, Transparent: transparent}
}

// Merge runs the rectangle expansion over every layer. Directions and
// layers are walked in sorted order so the quad stream, and everything
// built from it, is the same on every run.
func (g *GreedyMesher) Merge() []MergedQuad {
	var result []MergedQuad
	for _, direction := range types.Directions {
		byLayer, ok := g.layers[direction]
		if !ok {
			continue
		}
		layers := make([]int, 0, len(byLayer))
		for layer := range byLayer {
			layers = append(layers, layer)
		}
		sort.Ints(layers)
		for _, layer := range layers {
			result = append(result, mergeLayer(direction, layer, byLayer[layer])...)
		}
	}
	return result
}

// mergeLayer greedily expands each unvisited face right along u, then
// down along v as long as whole rows keep matching the key.
func mergeLayer(direction types.Direction, layer int, grid map[layerCell]GreedyFace) []MergedQuad {
	if len(grid) == 0 {
		return nil
	}

	uMin, uMax := math.MaxInt32, math.MinInt32
	vMin, vMax := math.MaxInt32, math.MinInt32
	for cell := range grid {
		if cell.u < uMin {
			uMin = cell.u
		}
		if cell.u > uMax {
			uMax = cell.u
		}
		if cell.v < vMin {
			vMin = cell.v
		}
		if cell.v > vMax {
			vMax = cell.v
		}
	}

	gridWidth := uMax - uMin + 1
	visited := make([]bool, gridWidth*(vMax-vMin+1))
	idx := func(u, v int) int {
		return (u - uMin) + (v-vMin)*gridWidth
	}

	var result []MergedQuad
	for v := vMin; v <= vMax; v++ {
		for u := uMin; u <= uMax; u++ {
			if visited[idx(u, v)] {
				continue
			}
			face, ok := grid[layerCell{u, v}]
			if !ok {
				continue
			}

			width := 1
			for u+width <= uMax && !visited[idx(u+width, v)] {
				next, ok := grid[layerCell{u + width, v}]
				if !ok || next.Key != face.Key {
					break
				}
				width++
			}

			height := 1
		expand:
			for v+height <= vMax {
				for du := 0; du < width; du++ {
					if visited[idx(u+du, v+height)] {
						break expand
					}
					next, ok := grid[layerCell{u + du, v + height}]
					if !ok || next.Key != face.Key {
						break expand
					}
				}
				height++
			}

			for dv := 0; dv < height; dv++ {
				for du := 0; du < width; du++ {
					visited[idx(u+du, v+dv)] = true
				}
			}

			result = append(result, MergedQuad{
				Direction:   direction,
				Layer:       layer,
				UMin:        u,
				VMin:        v,
				Width:       width,
				Height:      height,
				Texture:     face.Key.Texture,
				Tint:        face.Key.Tint,
				AO:          face.Key.AO,
				Light:       face.Key.Light,
				Transparent: face.Transparent,
			})
		}
	}
	return result
}

// WorldPositions returns the four vertex positions of the quad, in
// the same winding the per-block face generator uses. Blocks are
// centered on integer coordinates.
func (q *MergedQuad) WorldPositions() [4][3]float32 {
	uMin := float32(q.UMin) - 0.5
	vMin := float32(q.VMin) - 0.5
	uMax := float32(q.UMin+q.Width) - 0.5
	vMax := float32(q.VMin+q.Height) - 0.5
	layer := float32(q.Layer) - 0.5

	switch q.Direction {
	case types.Up:
		y := layer + 1
		return [4][3]float32{
			{uMin, y, vMin},
			{uMax, y, vMin},
			{uMax, y, vMax},
			{uMin, y, vMax},
		}
	case types.Down:
		return [4][3]float32{
			{uMin, layer, vMax},
			{uMax, layer, vMax},
			{uMax, layer, vMin},
			{uMin, layer, vMin},
		}
	case types.North:
		return [4][3]float32{
			{uMax, vMax, layer},
			{uMin, vMax, layer},
			{uMin, vMin, layer},
			{uMax, vMin, layer},
		}
	case types.South:
		z := layer + 1
		return [4][3]float32{
			{uMin, vMax, z},
			{uMax, vMax, z},
			{uMax, vMin, z},
			{uMin, vMin, z},
		}
	case types.West:
		return [4][3]float32{
			{layer, vMax, uMin},
			{layer, vMax, uMax},
			{layer, vMin, uMax},
			{layer, vMin, uMin},
		}
	default: // East
		x := layer + 1
		return [4][3]float32{
			{x, vMax, uMax},
			{x, vMax, uMin},
			{x, vMin, uMin},
			{x, vMin, uMax},
		}
	}
}
