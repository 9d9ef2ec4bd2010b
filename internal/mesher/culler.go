package mesher

import (
	"voxmesh/internal/registry"
	"voxmesh/pkg/blockmodel"
	"voxmesh/pkg/types"
)

// Cull cell values for the flat grid.
const (
	cellEmpty uint8 = iota
	cellOpaque
	cellTransparent
)

// fullCubeEpsilon is the tolerance when checking whether an element
// spans the whole 0-16 block.
const fullCubeEpsilon = 0.001

// FaceCuller classifies every block as empty, opaque or transparent
// and answers face visibility and occlusion queries. Opacity comes
// from the resolved model: only a single full-cube element with all
// six faces counts as opaque. Transparent blocks cull only against
// the same transparent group, so stacked glass has no inner faces but
// glass against water keeps both.
type FaceCuller struct {
	grid     []uint8
	gridMin  [3]int
	gridSize [3]int
	groups   map[types.BlockPosition]string

	states *blockmodel.StateResolver
	models *blockmodel.ModelResolver
	cache  map[string]cullEntry
}

type cullEntry struct {
	cell  uint8
	group string
}

// NewFaceCuller builds the cull grid for a set of blocks. The grid is
// padded by one block on every side so AO lookups stay in bounds.
func NewFaceCuller(states *blockmodel.StateResolver, models *blockmodel.ModelResolver, blocks map[types.BlockPosition]types.InputBlock) *FaceCuller {
	var gridMin, gridSize [3]int
	if len(blocks) > 0 {
		positions := make([]types.BlockPosition, 0, len(blocks))
		for p := range blocks {
			positions = append(positions, p)
		}
		box := types.BoundsFromPositions(positions).Grow(1)
		gridMin = [3]int{box.Min.X, box.Min.Y, box.Min.Z}
		w, h, d := box.Dimensions()
		gridSize = [3]int{w, h, d}
	}

	c := &FaceCuller{
		grid:     make([]uint8, gridSize[0]*gridSize[1]*gridSize[2]),
		gridMin:  gridMin,
		gridSize: gridSize,
		groups:   make(map[types.BlockPosition]string),
		states:   states,
		models:   models,
		cache:    make(map[string]cullEntry),
	}

	for pos, block := range blocks {
		entry := c.classify(block)
		if i, ok := c.gridIndex(pos); ok {
			c.grid[i] = entry.cell
		}
		if entry.cell == cellTransparent {
			c.groups[pos] = entry.group
		}
	}

	return c
}

func (c *FaceCuller) gridIndex(pos types.BlockPosition) (int, bool) {
	x := pos.X - c.gridMin[0]
	y := pos.Y - c.gridMin[1]
	z := pos.Z - c.gridMin[2]
	if x < 0 || y < 0 || z < 0 || x >= c.gridSize[0] || y >= c.gridSize[1] || z >= c.gridSize[2] {
		return 0, false
	}
	return x + y*c.gridSize[0] + z*c.gridSize[0]*c.gridSize[1], true
}

func (c *FaceCuller) cell(pos types.BlockPosition) uint8 {
	if i, ok := c.gridIndex(pos); ok {
		return c.grid[i]
	}
	return cellEmpty
}

func (c *FaceCuller) classify(block types.InputBlock) cullEntry {
	if block.IsAir() {
		return cullEntry{cell: cellEmpty}
	}
	key := block.CacheKey()
	if cached, ok := c.cache[key]; ok {
		return cached
	}
	entry := c.resolveAndClassify(block)
	c.cache[key] = entry
	return entry
}

func (c *FaceCuller) resolveAndClassify(block types.InputBlock) cullEntry {
	if group, ok := registry.TransparentGroup(block.ID()); ok {
		return cullEntry{cell: cellTransparent, group: group}
	}

	variants, err := c.states.Resolve(block.ID(), block.Properties)
	if err != nil {
		// No blockstate available; fall back to the name heuristic.
		if registry.LikelyFullCube(block.Name) {
			return cullEntry{cell: cellOpaque}
		}
		return cullEntry{cell: cellEmpty}
	}
	if len(variants) == 0 {
		return cullEntry{cell: cellEmpty}
	}

	for _, variant := range variants {
		model, err := c.models.Resolve(variant.Model)
		if err != nil || !isFullOpaqueCube(model) {
			return cullEntry{cell: cellEmpty}
		}
	}
	return cullEntry{cell: cellOpaque}
}

// isFullOpaqueCube reports whether a resolved model is a single
// element spanning the full block with all six faces defined.
func isFullOpaqueCube(model *blockmodel.Model) bool {
	if len(model.Elements) != 1 {
		return false
	}
	element := &model.Elements[0]
	for i := 0; i < 3; i++ {
		if abs32(element.From[i]) > fullCubeEpsilon {
			return false
		}
		if abs32(element.To[i]-16) > fullCubeEpsilon {
			return false
		}
	}
	if len(element.Faces) != 6 {
		return false
	}
	for _, dir := range types.Directions {
		if _, ok := element.Faces[dir.String()]; !ok {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// ShouldCull reports whether the face of the block at pos facing
// cullface is hidden by its neighbor.
func (c *FaceCuller) ShouldCull(pos types.BlockPosition, cullface types.Direction) bool {
	neighbor := pos.Neighbor(cullface)
	switch c.cell(neighbor) {
	case cellEmpty:
		return false
	case cellOpaque:
		return true
	}
	// Transparent neighbor: cull only inside the same group.
	group, ok := c.groups[pos]
	if !ok {
		return false
	}
	return group == c.groups[neighbor]
}

// IsOpaqueAt reports whether any block occupies the position. Both
// opaque and transparent blocks contribute to AO.
func (c *FaceCuller) IsOpaqueAt(pos types.BlockPosition) bool {
	return c.cell(pos) != cellEmpty
}

// IsFullyOpaqueAt reports whether the position holds a full opaque cube.
func (c *FaceCuller) IsFullyOpaqueAt(pos types.BlockPosition) bool {
	return c.cell(pos) == cellOpaque
}

// IsFullyOccluded reports whether all six neighbors are full opaque
// cubes, so the block itself can be skipped entirely.
func (c *FaceCuller) IsFullyOccluded(pos types.BlockPosition) bool {
	for _, dir := range types.Directions {
		if !c.IsFullyOpaqueAt(pos.Neighbor(dir)) {
			return false
		}
	}
	return true
}

// CalculateAO returns the occlusion values for the four corners of a
// face, in the face's vertex winding order.
func (c *FaceCuller) CalculateAO(pos types.BlockPosition, direction types.Direction) [4]uint8 {
	ao := [4]uint8{3, 3, 3, 3}
	for i, offsets := range aoNeighbors[direction] {
		side1 := c.IsOpaqueAt(pos.Offset(offsets.side1[0], offsets.side1[1], offsets.side1[2]))
		side2 := c.IsOpaqueAt(pos.Offset(offsets.side2[0], offsets.side2[1], offsets.side2[2]))
		corner := c.IsOpaqueAt(pos.Offset(offsets.corner[0], offsets.corner[1], offsets.corner[2]))
		ao[i] = vertexAO(side1, side2, corner)
	}
	return ao
}
