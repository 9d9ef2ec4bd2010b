// Package registry holds static block classification tables: which
// blocks are transparent, how much light they emit and absorb, and
// which are fluids. Everything keyed by block id without namespace.
package registry

import "strings"

// TransparentGroup returns the cull group of a transparent block.
// Transparent blocks only hide faces against members of the same
// group, so water culls against water but not against glass.
func TransparentGroup(id string) (string, bool) {
	switch {
	case id == "water":
		return "water", true
	case id == "lava":
		return "lava", true
	case id == "glass" || strings.HasSuffix(id, "_glass"):
		if strings.Contains(id, "stained") {
			return "stained_glass", true
		}
		if id == "tinted_glass" {
			return "tinted_glass", true
		}
		return "glass", true
	case id == "glass_pane" || strings.HasSuffix(id, "_glass_pane"):
		if strings.Contains(id, "stained") {
			return "stained_glass_pane", true
		}
		return "glass_pane", true
	case id == "ice" || id == "packed_ice" || id == "blue_ice" || id == "frosted_ice":
		return id, true
	case strings.HasSuffix(id, "_leaves"):
		return "leaves", true
	case id == "slime_block" || id == "honey_block":
		return id, true
	}
	return "", false
}

// nonFullPatterns marks block names that are almost certainly not full
// cubes. Used as a fallback when a block's model cannot be resolved.
var nonFullPatterns = []string{
	"slab", "stairs", "fence", "wall", "door", "trapdoor",
	"sign", "banner", "button", "lever", "torch", "lantern",
	"pressure_plate", "carpet", "rail", "flower", "sapling",
	"glass_pane", "iron_bars", "chain", "rod", "candle",
	"head", "skull", "pot", "campfire", "anvil", "bell", "shulker",
	"brewing_stand", "cauldron", "hopper", "lectern",
	"grindstone", "stonecutter", "enchanting_table",
	"repeater", "comparator", "daylight_detector",
	"piston", "tripwire", "string", "cobweb", "vine",
	"ladder", "scaffolding", "coral_fan", "pickle",
	"egg", "frogspawn", "dripleaf", "azalea", "roots",
	"sprouts", "fungus", "mushroom", "grass", "fern",
	"bush", "berry", "wart", "stem", "crop", "wheat",
	"carrots", "potatoes", "beetroots", "cocoa", "cactus",
	"sugar_cane", "bamboo", "kelp", "seagrass", "lichen",
	"vein", "fire", "snow", "layer",
	"_bed", "chest", "armor_stand", "minecart", "item_frame",
	"poppy", "dandelion", "orchid", "allium", "tulip",
	"oxeye_daisy", "cornflower", "lily_of_the_valley",
	"wither_rose", "sunflower", "lilac", "rose_bush",
	"peony", "pitcher_plant", "torchflower", "pink_petals",
}

// LikelyFullCube guesses whether a block is a full opaque cube from
// its name alone.
func LikelyFullCube(name string) bool {
	if strings.Contains(name, "air") {
		return false
	}
	id := name
	if i := strings.IndexByte(name, ':'); i >= 0 {
		id = name[i+1:]
	}
	if id == "water" || id == "lava" {
		return false
	}
	if strings.HasPrefix(name, "entity:") {
		return false
	}
	for _, pattern := range nonFullPatterns {
		if strings.Contains(name, pattern) {
			// "mushroom_block", "grass_block" and friends contain a
			// pattern but are full cubes anyway.
			if strings.HasSuffix(name, "_block") && !strings.Contains(name, "piston") {
				continue
			}
			return false
		}
	}
	return true
}
