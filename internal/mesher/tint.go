package mesher

import (
	"strconv"
	"strings"

	"voxmesh/pkg/types"
)

// TintColors is the palette applied to tintable faces. Grass, foliage
// and water vary per biome; redstone varies by power and stems by age.
type TintColors struct {
	Grass    [4]float32
	Foliage  [4]float32
	Water    [4]float32
	Redstone [16][4]float32
	Stem     [8][4]float32
	LilyPad  [4]float32
}

// DefaultTintColors approximates the plains biome.
func DefaultTintColors() TintColors {
	c := TintColors{
		Grass:   [4]float32{0.56, 0.74, 0.35, 1},
		Foliage: [4]float32{0.47, 0.66, 0.23, 1},
		Water:   [4]float32{0.247, 0.463, 0.894, 1},
		LilyPad: [4]float32{0.13, 0.55, 0.13, 1},
	}
	for power := 0; power < 16; power++ {
		t := float32(power) / 15
		c.Redstone[power] = [4]float32{0.3 + t*0.7, t * 0.1, t * 0.1, 1}
	}
	for stage := 0; stage < 8; stage++ {
		t := float32(stage) / 7
		c.Stem[stage] = [4]float32{0.2 + t*0.6, 0.7 - t*0.2, 0.1, 1}
	}
	return c
}

// TintColorsForBiome returns the palette for a biome name, with or
// without the "minecraft:" prefix. Unknown biomes keep the defaults.
func TintColorsForBiome(biome string) TintColors {
	c := DefaultTintColors()
	switch strings.TrimPrefix(biome, "minecraft:") {
	case "swamp", "mangrove_swamp":
		c.Grass = [4]float32{0.41, 0.55, 0.27, 1}
		c.Foliage = [4]float32{0.41, 0.55, 0.27, 1}
		c.Water = [4]float32{0.38, 0.48, 0.27, 1}
	case "badlands", "wooded_badlands", "eroded_badlands":
		c.Grass = [4]float32{0.56, 0.50, 0.30, 1}
		c.Foliage = [4]float32{0.62, 0.56, 0.35, 1}
	case "jungle", "bamboo_jungle", "sparse_jungle":
		c.Grass = [4]float32{0.35, 0.75, 0.15, 1}
		c.Foliage = [4]float32{0.30, 0.72, 0.20, 1}
	case "dark_forest":
		c.Grass = [4]float32{0.31, 0.55, 0.20, 1}
		c.Foliage = [4]float32{0.31, 0.55, 0.20, 1}
	case "snowy_plains", "snowy_taiga", "snowy_beach", "snowy_slopes":
		c.Grass = [4]float32{0.50, 0.70, 0.50, 1}
		c.Foliage = [4]float32{0.39, 0.61, 0.39, 1}
	case "desert":
		c.Grass = [4]float32{0.75, 0.72, 0.45, 1}
		c.Foliage = [4]float32{0.68, 0.68, 0.40, 1}
	case "ocean", "deep_ocean", "cold_ocean", "deep_cold_ocean":
		c.Water = [4]float32{0.24, 0.36, 0.75, 1}
	case "warm_ocean", "lukewarm_ocean", "deep_lukewarm_ocean":
		c.Water = [4]float32{0.26, 0.53, 0.80, 1}
	case "frozen_ocean", "deep_frozen_ocean":
		c.Water = [4]float32{0.24, 0.30, 0.60, 1}
	}
	return c
}

var white = [4]float32{1, 1, 1, 1}

// Tint returns the color for a face of a block, or white when the
// face has no tint index or the block type is not tinted.
func (c *TintColors) Tint(block types.InputBlock, tintIndex int) [4]float32 {
	if tintIndex < 0 {
		return white
	}
	id := block.ID()

	switch id {
	case "grass_block", "grass", "tall_grass", "fern", "large_fern",
		"potted_fern", "short_grass", "sugar_cane":
		return c.Grass
	case "vine":
		return c.Foliage
	case "water", "bubble_column", "water_cauldron":
		return c.Water
	case "redstone_wire", "redstone_dust":
		power := clampInt(atoiProp(block, "power", 0), 0, 15)
		return c.Redstone[power]
	case "melon_stem", "pumpkin_stem":
		age := clampInt(atoiProp(block, "age", 0), 0, 7)
		return c.Stem[age]
	case "attached_melon_stem", "attached_pumpkin_stem":
		return c.Stem[7]
	case "lily_pad":
		return c.LilyPad
	}

	if strings.HasSuffix(id, "_leaves") && !strings.HasPrefix(id, "azalea") {
		return c.Foliage
	}
	return white
}

func atoiProp(b types.InputBlock, key string, def int) int {
	v, ok := b.Properties[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
