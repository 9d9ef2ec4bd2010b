package mesher

import "voxmesh/pkg/types"

// vertexAO computes the occlusion value for one face corner from its
// two side neighbors and the diagonal corner neighbor. 0 is darkest,
// 3 is fully open.
func vertexAO(side1, side2, corner bool) uint8 {
	if side1 && side2 {
		return 0
	}
	n := uint8(0)
	if side1 {
		n++
	}
	if side2 {
		n++
	}
	if corner {
		n++
	}
	return 3 - n
}

type aoOffset struct {
	side1, side2, corner [3]int
}

// aoNeighbors lists, per face direction and per corner in winding
// order, the block offsets sampled for that corner's occlusion.
var aoNeighbors = [6][4]aoOffset{
	types.Down: {
		{[3]int{0, -1, 1}, [3]int{-1, -1, 0}, [3]int{-1, -1, 1}},
		{[3]int{0, -1, 1}, [3]int{1, -1, 0}, [3]int{1, -1, 1}},
		{[3]int{0, -1, -1}, [3]int{1, -1, 0}, [3]int{1, -1, -1}},
		{[3]int{0, -1, -1}, [3]int{-1, -1, 0}, [3]int{-1, -1, -1}},
	},
	types.Up: {
		{[3]int{0, 1, -1}, [3]int{-1, 1, 0}, [3]int{-1, 1, -1}},
		{[3]int{0, 1, -1}, [3]int{1, 1, 0}, [3]int{1, 1, -1}},
		{[3]int{0, 1, 1}, [3]int{1, 1, 0}, [3]int{1, 1, 1}},
		{[3]int{0, 1, 1}, [3]int{-1, 1, 0}, [3]int{-1, 1, 1}},
	},
	types.North: {
		{[3]int{1, 0, -1}, [3]int{0, 1, -1}, [3]int{1, 1, -1}},
		{[3]int{-1, 0, -1}, [3]int{0, 1, -1}, [3]int{-1, 1, -1}},
		{[3]int{-1, 0, -1}, [3]int{0, -1, -1}, [3]int{-1, -1, -1}},
		{[3]int{1, 0, -1}, [3]int{0, -1, -1}, [3]int{1, -1, -1}},
	},
	types.South: {
		{[3]int{-1, 0, 1}, [3]int{0, 1, 1}, [3]int{-1, 1, 1}},
		{[3]int{1, 0, 1}, [3]int{0, 1, 1}, [3]int{1, 1, 1}},
		{[3]int{1, 0, 1}, [3]int{0, -1, 1}, [3]int{1, -1, 1}},
		{[3]int{-1, 0, 1}, [3]int{0, -1, 1}, [3]int{-1, -1, 1}},
	},
	types.West: {
		{[3]int{-1, 0, -1}, [3]int{-1, 1, 0}, [3]int{-1, 1, -1}},
		{[3]int{-1, 0, 1}, [3]int{-1, 1, 0}, [3]int{-1, 1, 1}},
		{[3]int{-1, 0, 1}, [3]int{-1, -1, 0}, [3]int{-1, -1, 1}},
		{[3]int{-1, 0, -1}, [3]int{-1, -1, 0}, [3]int{-1, -1, -1}},
	},
	types.East: {
		{[3]int{1, 0, 1}, [3]int{1, 1, 0}, [3]int{1, 1, 1}},
		{[3]int{1, 0, -1}, [3]int{1, 1, 0}, [3]int{1, 1, -1}},
		{[3]int{1, 0, -1}, [3]int{1, -1, 0}, [3]int{1, -1, -1}},
		{[3]int{1, 0, 1}, [3]int{1, -1, 0}, [3]int{1, -1, 1}},
	},
}

// applyAO darkens a color channel-wise by the corner's AO value.
// Alpha is left alone.
func applyAO(color [4]float32, ao uint8, intensity float32) [4]float32 {
	brightness := 1 - intensity*(1-float32(ao)/3)
	return [4]float32{
		color[0] * brightness,
		color[1] * brightness,
		color[2] * brightness,
		color[3],
	}
}
