package registry

import (
	"strconv"
	"strings"

	"voxmesh/pkg/types"
)

func boolProp(b types.InputBlock, key string, def bool) bool {
	v, ok := b.Properties[key]
	if !ok {
		return def
	}
	return v == "true"
}

func intProp(b types.InputBlock, key string, def int) int {
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

// EmissionLevel returns the light level (0-15) a block emits.
func EmissionLevel(b types.InputBlock) uint8 {
	id := b.ID()

	switch id {
	case "beacon", "conduit", "end_gateway", "end_portal", "fire",
		"glowstone", "jack_o_lantern", "lava", "lantern",
		"sea_lantern", "shroomlight", "respawn_anchor":
		return 15
	case "campfire", "redstone_lamp":
		if boolProp(b, "lit", false) {
			return 15
		}
		return 0
	case "furnace", "blast_furnace", "smoker":
		if boolProp(b, "lit", false) {
			return 13
		}
		return 0
	case "torch", "wall_torch":
		return 14
	case "end_rod", "crying_obsidian":
		return 12
	case "nether_portal":
		return 11
	case "soul_campfire":
		if boolProp(b, "lit", false) {
			return 10
		}
		return 0
	case "soul_fire", "soul_torch", "soul_wall_torch", "soul_lantern":
		return 10
	case "sculk_catalyst":
		return 9
	case "enchanting_table", "ender_chest", "glow_lichen", "sculk_sensor":
		return 7
	case "amethyst_cluster":
		return 6
	case "large_amethyst_bud":
		return 5
	case "medium_amethyst_bud":
		return 4
	case "magma_block":
		return 3
	case "small_amethyst_bud":
		return 2
	case "brewing_stand", "brown_mushroom", "sculk_shrieker":
		return 1
	case "redstone_torch", "redstone_wall_torch":
		if boolProp(b, "lit", true) {
			return 7
		}
		return 0
	case "sea_pickle":
		if boolProp(b, "waterlogged", false) {
			n := intProp(b, "pickles", 1)
			level := 6 + 3*(n-1)
			if level > 15 {
				level = 15
			}
			return uint8(level)
		}
		return 0
	}

	// Candles emit 3 per candle when lit.
	if id == "candle" || strings.HasSuffix(id, "_candle") {
		if boolProp(b, "lit", false) {
			level := 3 * intProp(b, "candles", 1)
			if level > 15 {
				level = 15
			}
			return uint8(level)
		}
		return 0
	}

	return 0
}

// LightOpacity returns how much a block attenuates light passing
// through it. 0 lets light through untouched, 15 blocks it entirely.
func LightOpacity(b types.InputBlock) uint8 {
	if b.IsAir() {
		return 0
	}
	id := b.ID()

	switch id {
	case "glass", "glass_pane", "barrier", "light", "structure_void":
		return 0
	case "water", "ice", "cobweb":
		return 1
	case "frosted_ice":
		return 2
	case "torch", "wall_torch", "soul_torch", "soul_wall_torch",
		"redstone_torch", "redstone_wall_torch",
		"lantern", "soul_lantern",
		"fire", "soul_fire",
		"sign", "wall_sign", "hanging_sign", "wall_hanging_sign",
		"flower_pot",
		"rail", "powered_rail", "detector_rail", "activator_rail",
		"lever", "button", "pressure_plate",
		"tripwire", "tripwire_hook", "string",
		"carpet", "snow",
		"ladder", "vine", "glow_lichen",
		"redstone_wire", "repeater", "comparator", "end_rod":
		return 0
	case "dandelion", "poppy", "blue_orchid", "allium", "azure_bluet",
		"red_tulip", "orange_tulip", "white_tulip", "pink_tulip",
		"oxeye_daisy", "cornflower", "lily_of_the_valley", "wither_rose",
		"torchflower", "pink_petals",
		"sunflower", "lilac", "rose_bush", "peony", "tall_grass",
		"large_fern", "pitcher_plant",
		"short_grass", "fern", "dead_bush",
		"brown_mushroom", "red_mushroom",
		"sugar_cane", "bamboo", "kelp", "kelp_plant", "seagrass",
		"tall_seagrass":
		return 0
	}

	switch {
	case strings.HasSuffix(id, "_glass"), strings.HasSuffix(id, "_glass_pane"):
		return 0
	case strings.HasSuffix(id, "_sign"), strings.HasSuffix(id, "_wall_sign"),
		strings.HasSuffix(id, "_hanging_sign"), strings.HasSuffix(id, "_wall_hanging_sign"),
		strings.HasPrefix(id, "potted_"),
		strings.HasSuffix(id, "_button"), strings.HasSuffix(id, "_pressure_plate"),
		strings.HasSuffix(id, "_carpet"), strings.HasSuffix(id, "_sapling"):
		return 0
	case strings.HasSuffix(id, "_leaves"):
		return 1
	case strings.HasSuffix(id, "_slab"):
		if b.Properties["type"] == "double" {
			return 15
		}
		return 0
	}

	return 15
}
