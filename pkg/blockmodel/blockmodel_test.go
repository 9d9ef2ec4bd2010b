package blockmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

// fakePack serves models and blockstates from in-memory JSON.
type fakePack struct {
	models      map[string]string
	blockstates map[string]string
}

func (p *fakePack) Model(name string) (*Model, error) {
	data, ok := p.models[name]
	if !ok {
		return nil, fmt.Errorf("no model '%s'", name)
	}
	var m Model
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (p *fakePack) BlockState(name string) (*BlockState, error) {
	data, ok := p.blockstates[name]
	if !ok {
		return nil, fmt.Errorf("no blockstate '%s'", name)
	}
	var s BlockState
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *fakePack) Texture(name string) (*Texture, error) {
	return nil, fmt.Errorf("no texture '%s'", name)
}

func TestResolveParentChain(t *testing.T) {
	pack := &fakePack{models: map[string]string{
		"block/cube": `{
			"elements": [{"from": [0,0,0], "to": [16,16,16], "faces": {
				"up": {"texture": "#top"}, "down": {"texture": "#bottom"},
				"north": {"texture": "#side"}, "south": {"texture": "#side"},
				"west": {"texture": "#side"}, "east": {"texture": "#side"}
			}}]
		}`,
		"block/cube_all": `{
			"parent": "block/cube",
			"textures": {"top": "#all", "bottom": "#all", "side": "#all"}
		}`,
		"block/stone": `{
			"parent": "minecraft:block/cube_all",
			"textures": {"all": "block/stone"}
		}`,
	}}
	r := NewModelResolver(pack)

	model, err := r.Resolve("stone")
	if err != nil {
		t.Fatalf("resolve stone: %v", err)
	}
	if len(model.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(model.Elements))
	}
	if len(model.Elements[0].Faces) != 6 {
		t.Fatalf("got %d faces, want 6", len(model.Elements[0].Faces))
	}
	if got := r.ResolveTexture("#top", model); got != "block/stone" {
		t.Fatalf("resolved #top to %q, want block/stone", got)
	}
	if got := r.ResolveTexture(model.Elements[0].Faces["north"].Texture, model); got != "block/stone" {
		t.Fatalf("resolved north face texture to %q, want block/stone", got)
	}
}

func TestResolveChildOverridesParent(t *testing.T) {
	pack := &fakePack{models: map[string]string{
		"block/base": `{
			"ambientocclusion": false,
			"textures": {"particle": "block/dirt", "side": "block/dirt"},
			"elements": [{"from": [0,0,0], "to": [16,8,16], "faces": {"up": {"texture": "#side"}}}]
		}`,
		"block/child": `{
			"parent": "block/base",
			"textures": {"side": "block/grass"},
			"elements": [{"from": [0,0,0], "to": [16,16,16], "faces": {"up": {"texture": "#side"}}}]
		}`,
	}}
	r := NewModelResolver(pack)

	model, err := r.Resolve("block/child")
	if err != nil {
		t.Fatalf("resolve child: %v", err)
	}
	if model.Textures["side"] != "block/grass" {
		t.Fatalf("side texture: got %q, want block/grass", model.Textures["side"])
	}
	if model.Textures["particle"] != "block/dirt" {
		t.Fatalf("particle texture: got %q, want block/dirt", model.Textures["particle"])
	}
	if model.Elements[0].To[1] != 16 {
		t.Fatalf("child elements should replace parent elements")
	}
	if model.AmbientOcclusion == nil || *model.AmbientOcclusion {
		t.Fatalf("ambient occlusion flag should inherit false from parent")
	}
}

func TestResolveInheritanceDepthLimit(t *testing.T) {
	pack := &fakePack{models: map[string]string{
		"block/a": `{"parent": "block/b"}`,
		"block/b": `{"parent": "block/a"}`,
	}}
	r := NewModelResolver(pack)
	if _, err := r.Resolve("block/a"); err == nil {
		t.Fatalf("expected depth error for cyclic parents")
	}
}

func TestResolveBuiltinParentStops(t *testing.T) {
	pack := &fakePack{models: map[string]string{
		"item/generated": `{"parent": "builtin/generated", "textures": {"layer0": "item/stick"}}`,
	}}
	r := NewModelResolver(pack)
	model, err := r.Resolve("item/generated")
	if err != nil {
		t.Fatalf("resolve builtin parent: %v", err)
	}
	if model.Textures["layer0"] != "item/stick" {
		t.Fatalf("layer0: got %q", model.Textures["layer0"])
	}
}

func TestVariantListSingleObject(t *testing.T) {
	var state BlockState
	data := `{"variants": {"": {"model": "block/stone", "y": 90}}}`
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	list := state.Variants[""]
	if len(list) != 1 || list[0].Model != "block/stone" || list[0].Y != 90 {
		t.Fatalf("got %+v", list)
	}
}

func TestStateResolveExactMatch(t *testing.T) {
	pack := &fakePack{blockstates: map[string]string{
		"furnace": `{"variants": {
			"facing=east,lit=false": {"model": "block/furnace", "y": 90},
			"facing=north,lit=false": {"model": "block/furnace"},
			"facing=north,lit=true": {"model": "block/furnace_on"}
		}}`,
	}}
	r := NewStateResolver(pack)

	variants, err := r.Resolve("furnace", map[string]string{"facing": "east", "lit": "false"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(variants) != 1 || variants[0].Y != 90 {
		t.Fatalf("got %+v, want y=90 variant", variants)
	}
}

func TestStateResolveSubsetPrefersDefaults(t *testing.T) {
	pack := &fakePack{blockstates: map[string]string{
		"furnace": `{"variants": {
			"facing=north,lit=false": {"model": "block/furnace"},
			"facing=north,lit=true": {"model": "block/furnace_on"},
			"facing=south,lit=false": {"model": "block/furnace", "y": 180},
			"facing=south,lit=true": {"model": "block/furnace_on", "y": 180}
		}}`,
	}}
	r := NewStateResolver(pack)

	// lit unspecified: false is the more default value.
	variants, err := r.Resolve("furnace", map[string]string{"facing": "south"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if variants[0].Model != "block/furnace" || variants[0].Y != 180 {
		t.Fatalf("got %+v, want unlit south variant", variants[0])
	}

	// Nothing specified: facing=north,lit=false scores highest.
	variants, err = r.Resolve("furnace", nil)
	if err != nil {
		t.Fatalf("resolve with no props: %v", err)
	}
	if variants[0].Model != "block/furnace" || variants[0].Y != 0 {
		t.Fatalf("got %+v, want north unlit variant", variants[0])
	}
}

func TestStateResolveMultipart(t *testing.T) {
	pack := &fakePack{blockstates: map[string]string{
		"wall": `{"multipart": [
			{"apply": {"model": "block/wall_post"}},
			{"when": {"north": "low|tall"}, "apply": {"model": "block/wall_side"}},
			{"when": {"AND": [{"east": "tall"}, {"up": "true"}]}, "apply": {"model": "block/wall_side_tall", "y": 90}},
			{"when": {"OR": [{"south": "low"}, {"west": "low"}]}, "apply": {"model": "block/wall_side", "y": 180}}
		]}`,
	}}
	r := NewStateResolver(pack)

	variants, err := r.Resolve("wall", map[string]string{
		"north": "tall", "east": "tall", "up": "true", "south": "none", "west": "low",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(variants) != 4 {
		t.Fatalf("got %d variants, want 4: %+v", len(variants), variants)
	}

	variants, err = r.Resolve("wall", map[string]string{"north": "none", "east": "none", "up": "false"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(variants) != 1 || variants[0].Model != "block/wall_post" {
		t.Fatalf("got %+v, want only the post", variants)
	}
}

func TestStateResolveMissingBlockstate(t *testing.T) {
	r := NewStateResolver(&fakePack{})
	_, err := r.Resolve("nonexistent", nil)
	if err == nil {
		t.Fatalf("expected error for missing blockstate")
	}
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) {
		t.Fatalf("expected ResolveError, got %T", err)
	}
	if resolveErr.Block != "nonexistent" {
		t.Fatalf("block: got %q", resolveErr.Block)
	}
}
