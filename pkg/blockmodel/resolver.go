package blockmodel

import (
	"fmt"
	"strings"
	"sync"
)

// maxInheritanceDepth bounds parent chains so malformed packs cannot
// recurse forever.
const maxInheritanceDepth = 10

// maxTextureRefDepth bounds "#ref" indirection chains.
const maxTextureRefDepth = 10

// ModelResolver loads models from a pack and flattens their parent
// chains. Resolved models are cached; the resolver is safe for
// concurrent use.
type ModelResolver struct {
	pack ResourcePack

	mu    sync.RWMutex
	cache map[string]*Model
}

func NewModelResolver(pack ResourcePack) *ModelResolver {
	return &ModelResolver{
		pack:  pack,
		cache: make(map[string]*Model),
	}
}

// normalizeLocation strips an optional "minecraft:" prefix and assumes
// "block/" for bare names.
func normalizeLocation(name string) string {
	name = strings.TrimPrefix(name, "minecraft:")
	if !strings.Contains(name, "/") {
		name = "block/" + name
	}
	return name
}

// Resolve loads a model and merges its parent chain into a single
// flattened model. Child textures override parent textures, child
// elements replace parent elements when present.
func (r *ModelResolver) Resolve(name string) (*Model, error) {
	name = normalizeLocation(name)

	r.mu.RLock()
	cached, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	model, err := r.resolve(name, 0)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = model
	r.mu.Unlock()
	return model, nil
}

func (r *ModelResolver) resolve(name string, depth int) (*Model, error) {
	if depth >= maxInheritanceDepth {
		return nil, fmt.Errorf("model '%s' exceeds inheritance depth %d", name, maxInheritanceDepth)
	}

	raw, err := r.pack.Model(name)
	if err != nil {
		return nil, fmt.Errorf("could not load model '%s': %w", name, err)
	}

	merged := &Model{
		AmbientOcclusion: raw.AmbientOcclusion,
		Textures:         make(map[string]string, len(raw.Textures)),
		Elements:         raw.Elements,
	}
	for k, v := range raw.Textures {
		merged.Textures[k] = v
	}

	if raw.Parent != "" && !strings.HasPrefix(strings.TrimPrefix(raw.Parent, "minecraft:"), "builtin/") {
		parent, err := r.resolve(normalizeLocation(raw.Parent), depth+1)
		if err != nil {
			return nil, fmt.Errorf("could not load parent model '%s': %w", raw.Parent, err)
		}
		if merged.AmbientOcclusion == nil {
			merged.AmbientOcclusion = parent.AmbientOcclusion
		}
		if len(merged.Elements) == 0 {
			merged.Elements = parent.Elements
		}
		for k, v := range parent.Textures {
			if _, ok := merged.Textures[k]; !ok {
				merged.Textures[k] = v
			}
		}
	}

	return merged, nil
}

// ResolveTexture follows "#ref" indirections through the model's
// texture map. Unresolvable references are returned as-is.
func (r *ModelResolver) ResolveTexture(textureName string, m *Model) string {
	for i := 0; i < maxTextureRefDepth && strings.HasPrefix(textureName, "#"); i++ {
		key := strings.TrimPrefix(textureName, "#")
		resolved, ok := m.Textures[key]
		if !ok {
			break
		}
		textureName = resolved
	}
	return strings.TrimPrefix(textureName, "minecraft:")
}

// ResolvedTextures maps every texture key of the model to its final
// location.
func (r *ModelResolver) ResolvedTextures(m *Model) map[string]string {
	out := make(map[string]string, len(m.Textures))
	for key := range m.Textures {
		out[key] = r.ResolveTexture("#"+key, m)
	}
	return out
}
