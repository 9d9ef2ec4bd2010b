package mesher

import (
	"voxmesh/internal/registry"
	"voxmesh/pkg/types"
)

// LightMap holds per-block light levels computed by two flood fills:
// block light seeded from emissive blocks and sky light seeded from a
// top-down column scan. Levels drop by at least one per block and by
// the neighbor's opacity when it is higher.
type LightMap struct {
	blockLight []uint8
	skyLight   []uint8
	emissive   []bool
	gridMin    [3]int
	gridSize   [3]int
	ambient    float32
}

type lightNode struct {
	pos   types.BlockPosition
	level uint8
}

// ComputeLightMap runs the enabled light passes over the blocks. When
// no pass is enabled the returned map is empty and every face samples
// as unlit.
func ComputeLightMap(blocks map[types.BlockPosition]types.InputBlock, opts Options) *LightMap {
	lm := &LightMap{ambient: opts.AmbientLight}
	if len(blocks) == 0 || !opts.LightingEnabled() {
		return lm
	}

	positions := make([]types.BlockPosition, 0, len(blocks))
	for p := range blocks {
		positions = append(positions, p)
	}
	box := types.BoundsFromPositions(positions).Grow(1)
	lm.gridMin = [3]int{box.Min.X, box.Min.Y, box.Min.Z}
	w, h, d := box.Dimensions()
	lm.gridSize = [3]int{w, h, d}
	total := w * h * d

	lm.blockLight = make([]uint8, total)
	lm.skyLight = make([]uint8, total)
	lm.emissive = make([]bool, total)

	opacity := make([]uint8, total)
	for pos, block := range blocks {
		if i, ok := lm.index(pos); ok {
			opacity[i] = registry.LightOpacity(block)
		}
	}

	if opts.BlockLight {
		var queue []lightNode
		for pos, block := range blocks {
			emission := registry.EmissionLevel(block)
			if emission == 0 {
				continue
			}
			if i, ok := lm.index(pos); ok {
				lm.blockLight[i] = emission
				lm.emissive[i] = true
				queue = append(queue, lightNode{pos, emission})
			}
		}
		lm.propagate(lm.blockLight, opacity, queue)
	}

	if opts.SkyLight {
		// Column scan: full sky level from the top until opacity stops it.
		for x := box.Min.X; x < box.Max.X; x++ {
			for z := box.Min.Z; z < box.Max.Z; z++ {
				sky := opts.SkyLightLevel
				for y := box.Max.Y - 1; y >= box.Min.Y; y-- {
					i, ok := lm.index(types.BlockPosition{X: x, Y: y, Z: z})
					if !ok {
						continue
					}
					if sky > 0 {
						lm.skyLight[i] = sky
					}
					op := opacity[i]
					if op >= 15 {
						sky = 0
					} else if op > 0 {
						if op > sky {
							sky = 0
						} else {
							sky -= op
						}
					}
				}
			}
		}

		// Spread sideways from every lit cell.
		var queue []lightNode
		for x := box.Min.X; x < box.Max.X; x++ {
			for z := box.Min.Z; z < box.Max.Z; z++ {
				for y := box.Min.Y; y < box.Max.Y; y++ {
					pos := types.BlockPosition{X: x, Y: y, Z: z}
					if i, ok := lm.index(pos); ok && lm.skyLight[i] > 0 {
						queue = append(queue, lightNode{pos, lm.skyLight[i]})
					}
				}
			}
		}
		lm.propagate(lm.skyLight, opacity, queue)
	}

	return lm
}

// propagate runs a BFS that relaxes light into neighbors. A cell only
// requeues when its level actually increased, so the fill terminates.
func (lm *LightMap) propagate(light, opacity []uint8, queue []lightNode) {
	for head := 0; head < len(queue); head++ {
		node := queue[head]
		for _, dir := range types.Directions {
			neighbor := node.pos.Neighbor(dir)
			i, ok := lm.index(neighbor)
			if !ok {
				continue
			}
			step := opacity[i]
			if step < 1 {
				step = 1
			}
			if step >= node.level {
				continue
			}
			next := node.level - step
			if next > light[i] {
				light[i] = next
				queue = append(queue, lightNode{neighbor, next})
			}
		}
	}
}

func (lm *LightMap) index(pos types.BlockPosition) (int, bool) {
	x := pos.X - lm.gridMin[0]
	y := pos.Y - lm.gridMin[1]
	z := pos.Z - lm.gridMin[2]
	if x < 0 || y < 0 || z < 0 || x >= lm.gridSize[0] || y >= lm.gridSize[1] || z >= lm.gridSize[2] {
		return 0, false
	}
	return x + y*lm.gridSize[0] + z*lm.gridSize[0]*lm.gridSize[1], true
}

// Light returns the block and sky light levels at a position.
func (lm *LightMap) Light(pos types.BlockPosition) (uint8, uint8) {
	if i, ok := lm.index(pos); ok {
		return lm.blockLight[i], lm.skyLight[i]
	}
	return 0, 0
}

// IsEmissive reports whether the block at pos is a light source.
func (lm *LightMap) IsEmissive(pos types.BlockPosition) bool {
	if i, ok := lm.index(pos); ok {
		return lm.emissive[i]
	}
	return false
}

// FaceBrightness samples the light one block out from the face and
// converts it to a brightness multiplier.
func (lm *LightMap) FaceBrightness(pos types.BlockPosition, direction types.Direction) float32 {
	bl, sl := lm.Light(pos.Neighbor(direction))
	level := bl
	if sl > level {
		level = sl
	}
	return BrightnessFromLevel(level, lm.ambient)
}

// FaceLightLevel returns the raw light level one block out from the
// face, for keys that must stay comparable.
func (lm *LightMap) FaceLightLevel(pos types.BlockPosition, direction types.Direction) uint8 {
	bl, sl := lm.Light(pos.Neighbor(direction))
	if sl > bl {
		return sl
	}
	return bl
}

// BrightnessFromLevel converts a light level (0-15) to a brightness
// multiplier using the classic non-linear curve with an ambient floor.
func BrightnessFromLevel(level uint8, ambient float32) float32 {
	ratio := float32(level) / 15
	curve := ratio / (4 - 3*ratio)
	return ambient + (1-ambient)*curve
}
