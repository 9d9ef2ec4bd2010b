package blockmodel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// StateResolver picks the model variants that apply to a block given
// its property map. Blockstates are cached; the resolver is safe for
// concurrent use.
type StateResolver struct {
	pack ResourcePack

	mu    sync.RWMutex
	cache map[string]*BlockState
}

func NewStateResolver(pack ResourcePack) *StateResolver {
	return &StateResolver{
		pack:  pack,
		cache: make(map[string]*BlockState),
	}
}

func (r *StateResolver) blockState(name string) (*BlockState, error) {
	r.mu.RLock()
	cached, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	state, err := r.pack.BlockState(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = state
	r.mu.Unlock()
	return state, nil
}

// Resolve returns every model variant that applies to the block. A
// variants blockstate yields exactly one; a multipart blockstate can
// yield several.
func (r *StateResolver) Resolve(name string, props map[string]string) ([]Variant, error) {
	state, err := r.blockState(name)
	if err != nil {
		return nil, &ResolveError{Block: name, Stage: "blockstate", Err: err}
	}

	if len(state.Multipart) > 0 {
		var out []Variant
		for _, part := range state.Multipart {
			if part.When.Matches(props) && len(part.Apply) > 0 {
				out = append(out, part.Apply[0])
			}
		}
		return out, nil
	}

	variant, err := pickVariant(state.Variants, props)
	if err != nil {
		return nil, &ResolveError{Block: name, Stage: "variant", Err: err}
	}
	return []Variant{variant}, nil
}

func pickVariant(variants map[string]VariantList, props map[string]string) (Variant, error) {
	propString := propertyString(props)

	// Exact key match first, then the catch-all empty key.
	if list, ok := variants[propString]; ok && len(list) > 0 {
		return list[0], nil
	}
	if list, ok := variants[""]; ok && len(list) > 0 {
		return list[0], nil
	}

	// Subset match: a variant applies when every property the caller
	// specified agrees with the variant key. Among candidates, prefer
	// the one whose unspecified properties look most like defaults.
	bestScore := 0
	var best *VariantList
	for key, list := range variants {
		kv := parsePropertyString(key)
		applies := true
		score := 0
		for k, v := range kv {
			if want, ok := props[k]; ok {
				if want != v {
					applies = false
					break
				}
			} else {
				score += valueDefaultScore(k, v)
			}
		}
		if applies && len(list) > 0 && (best == nil || score > bestScore) {
			l := list
			best = &l
			bestScore = score
		}
	}
	if best != nil {
		return (*best)[0], nil
	}

	// Nothing applies; fall back to the most default-looking variant.
	bestScore = 0
	best = nil
	for key, list := range variants {
		score := 0
		for k, v := range parsePropertyString(key) {
			score += valueDefaultScore(k, v)
		}
		if len(list) > 0 && (best == nil || score > bestScore) {
			l := list
			best = &l
			bestScore = score
		}
	}
	if best != nil {
		return (*best)[0], nil
	}

	return Variant{}, fmt.Errorf("no variant matches properties '%s'", propString)
}

func propertyString(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(props[k])
	}
	return sb.String()
}

func parsePropertyString(s string) map[string]string {
	out := make(map[string]string)
	if s == "" {
		return out
	}
	for _, pair := range strings.Split(s, ",") {
		if i := strings.IndexByte(pair, '='); i >= 0 {
			out[pair[:i]] = pair[i+1:]
		}
	}
	return out
}

// valueDefaultScore ranks how "default" a property value is. Higher
// scores win when a caller leaves a property unspecified.
func valueDefaultScore(key, value string) int {
	if n, err := strconv.Atoi(value); err == nil {
		return -n * 10
	}
	switch key {
	case "axis":
		if value == "y" {
			return 50
		}
		return 0
	case "snowy", "powered", "lit", "open", "waterlogged", "attached",
		"disarmed", "triggered", "extended", "inverted", "enabled",
		"occupied", "locked", "persistent", "hanging", "has_bottle_0",
		"has_bottle_1", "has_bottle_2":
		if value == "false" {
			return 100
		}
		return -100
	case "half":
		switch value {
		case "bottom", "lower":
			return 50
		case "top", "upper":
			return -50
		}
		return 0
	case "type":
		switch value {
		case "single", "normal", "bottom":
			return 50
		case "double", "top":
			return -50
		}
		return 0
	case "facing":
		switch value {
		case "north":
			return 50
		case "south":
			return 40
		case "east":
			return 30
		case "west":
			return 20
		case "up":
			return 10
		case "down":
			return 0
		}
		return 0
	case "shape":
		switch {
		case value == "straight":
			return 50
		case strings.HasPrefix(value, "ascending_"):
			return 0
		}
		return -20
	case "north", "south", "east", "west":
		switch value {
		case "none", "false":
			return 50
		case "low", "side":
			return 0
		case "tall", "up":
			return -20
		case "true":
			return -50
		}
		return 0
	}
	switch value {
	case "false", "off", "none", "0":
		return 100
	case "true", "on":
		return -100
	}
	return 0
}
