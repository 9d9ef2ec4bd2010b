package mesher

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"voxmesh/internal/registry"
	"voxmesh/pkg/blockmodel"
	"voxmesh/pkg/types"
)

type testPack struct {
	states   map[string]*blockmodel.BlockState
	models   map[string]*blockmodel.Model
	textures map[string]*blockmodel.Texture
}

func (p *testPack) BlockState(name string) (*blockmodel.BlockState, error) {
	if s, ok := p.states[name]; ok {
		return s, nil
	}
	return nil, errors.New("no blockstate " + name)
}

func (p *testPack) Model(name string) (*blockmodel.Model, error) {
	if m, ok := p.models[name]; ok {
		return m, nil
	}
	return nil, errors.New("no model " + name)
}

func (p *testPack) Texture(name string) (*blockmodel.Texture, error) {
	if t, ok := p.textures[name]; ok {
		return t, nil
	}
	return nil, errors.New("no texture " + name)
}

func solidTexture(name string, c color.RGBA) *blockmodel.Texture {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return &blockmodel.Texture{Name: name, Image: img}
}

func cubeModel(texture string) *blockmodel.Model {
	faces := make(map[string]blockmodel.Face)
	for _, dir := range types.Directions {
		faces[dir.String()] = blockmodel.Face{Texture: "#all", CullFace: dir.String()}
	}
	return &blockmodel.Model{
		Textures: map[string]string{"all": texture},
		Elements: []blockmodel.Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{16, 16, 16},
			Faces: faces,
		}},
	}
}

func singleVariant(model string) *blockmodel.BlockState {
	return &blockmodel.BlockState{
		Variants: map[string]blockmodel.VariantList{
			"": {{Model: model}},
		},
	}
}

func newTestPack() *testPack {
	return &testPack{
		states: map[string]*blockmodel.BlockState{
			"stone":     singleVariant("block/stone"),
			"glass":     singleVariant("block/glass"),
			"glowstone": singleVariant("block/glowstone"),
		},
		models: map[string]*blockmodel.Model{
			"block/stone":     cubeModel("block/stone"),
			"block/glass":     cubeModel("block/glass"),
			"block/glowstone": cubeModel("block/glowstone"),
		},
		textures: map[string]*blockmodel.Texture{
			"block/stone":       solidTexture("block/stone", color.RGBA{R: 120, G: 120, B: 120, A: 255}),
			"block/glass":       solidTexture("block/glass", color.RGBA{R: 200, G: 220, B: 255, A: 120}),
			"block/glowstone":   solidTexture("block/glowstone", color.RGBA{R: 255, G: 220, B: 140, A: 255}),
			"block/water_still": solidTexture("block/water_still", color.RGBA{R: 255, G: 255, B: 255, A: 180}),
			"block/water_flow":  solidTexture("block/water_flow", color.RGBA{R: 255, G: 255, B: 255, A: 180}),
		},
	}
}

func meshScene(t *testing.T, opts Options, place func(src *types.MapSource)) *Output {
	t.Helper()
	src := types.NewMapSource()
	place(src)
	m, err := New(newTestPack(), opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	out, err := m.Mesh(context.Background(), src)
	if err != nil {
		t.Fatalf("Mesh() error: %v", err)
	}
	return out
}

func TestMeshSingleCube(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
	})

	if got, want := out.Opaque.VertexCount(), 24; got != want {
		t.Errorf("opaque vertices = %d, want %d", got, want)
	}
	if got, want := out.Opaque.TriangleCount(), 12; got != want {
		t.Errorf("opaque triangles = %d, want %d", got, want)
	}
	if !out.Transparent.IsEmpty() {
		t.Errorf("transparent mesh not empty: %d vertices", out.Transparent.VertexCount())
	}
	if _, ok := out.Atlas.Region("block/stone"); !ok {
		t.Errorf("atlas has no region for block/stone")
	}
}

func TestMeshAdjacentCubesCullSharedFaces(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("stone"))
	})

	// Two cubes share one face pair, leaving 10 visible faces.
	if got, want := out.Opaque.VertexCount(), 40; got != want {
		t.Errorf("opaque vertices = %d, want %d", got, want)
	}
	if got, want := out.Opaque.TriangleCount(), 20; got != want {
		t.Errorf("opaque triangles = %d, want %d", got, want)
	}
}

func TestMeshCullingDisabledKeepsAllFaces(t *testing.T) {
	opts := DefaultOptions()
	opts.CullHiddenFaces = false
	out := meshScene(t, opts, func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("stone"))
	})

	if got, want := out.Opaque.VertexCount(), 48; got != want {
		t.Errorf("opaque vertices = %d, want %d", got, want)
	}
}

func TestMeshGlassSplitsIntoTransparentMesh(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("glass"))
	})

	// The stone keeps all six faces against the transparent neighbor;
	// the glass culls the one face buried in stone.
	if got, want := out.Opaque.VertexCount(), 24; got != want {
		t.Errorf("opaque vertices = %d, want %d", got, want)
	}
	if got, want := out.Transparent.VertexCount(), 20; got != want {
		t.Errorf("transparent vertices = %d, want %d", got, want)
	}
}

func TestMeshStackedGlassCullsInnerFaces(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("glass"))
		src.Set(types.Pos(0, 1, 0), types.NewBlock("glass"))
	})

	// Same transparent group culls both inner faces.
	if got, want := out.Transparent.VertexCount(), 40; got != want {
		t.Errorf("transparent vertices = %d, want %d", got, want)
	}
}

func TestMeshWaterSourceSitsBelowBlockTop(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("water"))
	})

	if out.Transparent.IsEmpty() {
		t.Fatalf("water produced no transparent geometry")
	}
	maxY := float32(-10)
	for _, v := range out.Transparent.Vertices {
		if v.Position[1] > maxY {
			maxY = v.Position[1]
		}
	}
	want := float32(8.0/9.0) - 0.5
	if diff := maxY - want; diff < -1e-4 || diff > 1e-4 {
		t.Errorf("water surface y = %v, want %v", maxY, want)
	}
}

func TestMeshFullyOccludedBlockSkipped(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		for _, dir := range types.Directions {
			src.Set(types.Pos(0, 0, 0).Neighbor(dir), types.NewBlock("stone"))
		}
	})

	// The center contributes nothing; the 6 shell blocks keep their 5
	// outer faces each, since their inner faces are culled too.
	if got, want := out.Opaque.TriangleCount(), 60; got != want {
		t.Errorf("opaque triangles = %d, want %d", got, want)
	}
}

func TestMeshUnknownBlockRendersFallbackCube(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(5, 0, 0), types.NewBlock("does_not_exist"))
	})

	// The unresolvable block renders as a full missing-texture cube
	// instead of a hole.
	if got, want := out.Opaque.TriangleCount(), 24; got != want {
		t.Errorf("opaque triangles = %d, want %d", got, want)
	}
	if _, ok := out.Atlas.Region("block/missing"); !ok {
		t.Errorf("atlas has no region for block/missing")
	}
}

func TestMeshGreedyMergesFlatSlab(t *testing.T) {
	opts := DefaultOptions()
	opts.Greedy = true
	out := meshScene(t, opts, func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(0, 0, 1), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 1), types.NewBlock("stone"))
	})

	// 16 visible unit faces merge to one quad top, one bottom, and
	// one per side.
	if got, want := out.Stats.MergedQuads, 6; got != want {
		t.Errorf("merged quads = %d, want %d", got, want)
	}
	total := 0
	for _, tiled := range out.Tiled {
		total += tiled.Mesh.TriangleCount()
	}
	if got, want := total, 12; got != want {
		t.Errorf("tiled triangles = %d, want %d", got, want)
	}
	if !out.Opaque.IsEmpty() {
		t.Errorf("full cubes should bypass the atlas mesh, got %d vertices", out.Opaque.VertexCount())
	}
}

func TestMeshGreedyPreservesArea(t *testing.T) {
	opts := DefaultOptions()
	opts.Greedy = true

	// An L shape: merged quads must still cover exactly the visible
	// face area.
	out := meshScene(t, opts, func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(0, 0, 1), types.NewBlock("stone"))
	})

	// 3 cubes, 2 shared face pairs: 18 - 4 = 14 visible unit faces.
	area := float32(0)
	for _, tiled := range out.Tiled {
		for i := 0; i+2 < len(tiled.Mesh.Indices); i += 6 {
			// Quads are axis aligned rectangles; area from the two
			// triangle legs of the first corner.
			v0 := tiled.Mesh.Vertices[tiled.Mesh.Indices[i]].Position
			v1 := tiled.Mesh.Vertices[tiled.Mesh.Indices[i+2]].Position
			v2 := tiled.Mesh.Vertices[tiled.Mesh.Indices[i+1]].Position
			e1 := v1.Sub(v0)
			e2 := v2.Sub(v0)
			area += e1.Cross(e2).Len()
		}
	}
	if diff := area - 14; diff < -1e-3 || diff > 1e-3 {
		t.Errorf("merged area = %v, want 14", area)
	}
}

func TestMeshGreedyOutputDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Greedy = true
	place := func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(1, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(0, 0, 1), types.NewBlock("stone"))
	}

	first := meshScene(t, opts, place)
	for run := 1; run < 20; run++ {
		out := meshScene(t, opts, place)
		if got, want := len(out.Tiled), len(first.Tiled); got != want {
			t.Fatalf("run %d: tiled meshes = %d, want %d", run, got, want)
		}
		for i, tiled := range out.Tiled {
			got := tiled.Mesh.PositionsFlat()
			want := first.Tiled[i].Mesh.PositionsFlat()
			if len(got) != len(want) {
				t.Fatalf("run %d: tiled[%d] has %d floats, want %d", run, i, len(got), len(want))
			}
			for j := range got {
				if got[j] != want[j] {
					t.Fatalf("run %d: tiled[%d] vertex stream differs at %d: %v vs %v", run, i, j, got[j], want[j])
				}
			}
		}
	}
}

func TestEmitterFacesSkipAO(t *testing.T) {
	pack := newTestPack()
	opts := DefaultOptions()
	m, err := New(pack, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// The stone beside the glowstone would darken its top corners if
	// occlusion applied; emitters render at full brightness instead.
	blocks := blockMap{
		types.Pos(0, 0, 0): types.NewBlock("glowstone"),
		types.Pos(1, 1, 0): types.NewBlock("stone"),
	}
	culler := NewFaceCuller(m.states, m.models, blocks)

	b := NewMeshBuilder(pack, opts, m.tints, m.states, m.models, nil)
	b.AddBlock(types.Pos(0, 0, 0), types.NewBlock("glowstone"), culler)
	for i, v := range b.Mesh().Vertices {
		for c := 0; c < 3; c++ {
			if v.Color[c] != 1 {
				t.Fatalf("emitter vertex %d color = %v, want full brightness", i, v.Color)
			}
		}
	}

	// The same arrangement does darken a non-emitter.
	b = NewMeshBuilder(pack, opts, m.tints, m.states, m.models, nil)
	blocks[types.Pos(0, 0, 0)] = types.NewBlock("stone")
	culler = NewFaceCuller(m.states, m.models, blocks)
	b.AddBlock(types.Pos(0, 0, 0), types.NewBlock("stone"), culler)
	darkened := false
	for _, v := range b.Mesh().Vertices {
		if v.Color[0] < 1 {
			darkened = true
		}
	}
	if !darkened {
		t.Fatalf("occluded stone corners kept full brightness")
	}
}

func TestMeshSourcePoolSurfaceFlat(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		for x := 0; x < 3; x++ {
			for z := 0; z < 3; z++ {
				src.Set(types.Pos(x, 0, z), types.NewBlock("water"))
			}
		}
	})

	want := float32(8.0/9.0) - 0.5
	checked := 0
	for i, v := range out.Transparent.Vertices {
		if v.Normal[1] != 1 {
			continue
		}
		checked++
		if diff := v.Position[1] - want; diff < -1e-4 || diff > 1e-4 {
			t.Fatalf("surface vertex %d at y = %v, want %v", i, v.Position[1], want)
		}
	}
	if checked == 0 {
		t.Fatalf("pool produced no top surface vertices")
	}
}

func TestMeshChunkedMatchesUnchunked(t *testing.T) {
	place := func(src *types.MapSource) {
		for x := 0; x < 4; x++ {
			for z := 0; z < 4; z++ {
				src.Set(types.Pos(x, 0, z), types.NewBlock("stone"))
			}
		}
		src.Set(types.Pos(1, 1, 1), types.NewBlock("glass"))
	}

	whole := meshScene(t, DefaultOptions(), place)

	opts := DefaultOptions()
	opts.ChunkSize = 2
	opts.Workers = 2
	chunked := meshScene(t, opts, place)

	if got, want := chunked.TotalVertices(), whole.TotalVertices(); got != want {
		t.Errorf("chunked vertices = %d, want %d", got, want)
	}
	if got, want := chunked.TotalTriangles(), whole.TotalTriangles(); got != want {
		t.Errorf("chunked triangles = %d, want %d", got, want)
	}
	if got, want := chunked.Stats.Chunks, 4; got != want {
		t.Errorf("chunks = %d, want %d", got, want)
	}
}

func TestMeshContextCanceled(t *testing.T) {
	src := types.NewMapSource()
	src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
	m, err := New(newTestPack(), DefaultOptions())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Mesh(ctx, src); !errors.Is(err, context.Canceled) {
		t.Fatalf("Mesh() error = %v, want context.Canceled", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.AtlasMaxSize = 100
	var cfgErr *ConfigError
	if err := opts.Validate(); !errors.As(err, &cfgErr) {
		t.Fatalf("Validate() error = %v, want ConfigError", err)
	}
	if cfgErr.Option != "atlas_max_size" {
		t.Errorf("option = %q, want atlas_max_size", cfgErr.Option)
	}

	opts = DefaultOptions()
	opts.AOIntensity = 1.5
	if err := opts.Validate(); err == nil {
		t.Errorf("Validate() accepted ao intensity 1.5")
	}
}

func TestVertexAO(t *testing.T) {
	cases := []struct {
		side1, side2, corner bool
		want                 uint8
	}{
		{false, false, false, 3},
		{true, false, false, 2},
		{false, false, true, 2},
		{true, false, true, 1},
		{true, true, false, 0},
		{true, true, true, 0},
	}
	for _, tc := range cases {
		if got := vertexAO(tc.side1, tc.side2, tc.corner); got != tc.want {
			t.Errorf("vertexAO(%v, %v, %v) = %d, want %d", tc.side1, tc.side2, tc.corner, got, tc.want)
		}
	}
}

func TestComputeLightMapTorchFalloff(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockLight = true

	blocks := map[types.BlockPosition]types.InputBlock{
		types.Pos(0, 0, 0): types.NewBlock("glowstone"),
		types.Pos(4, 0, 0): types.NewBlock("stone"),
	}
	lm := ComputeLightMap(blocks, opts)

	block, _ := lm.Light(types.Pos(0, 0, 0))
	if block != 15 {
		t.Errorf("emitter light = %d, want 15", block)
	}
	block, _ = lm.Light(types.Pos(3, 0, 0))
	if block != 12 {
		t.Errorf("light 3 away = %d, want 12", block)
	}
	if !lm.IsEmissive(types.Pos(0, 0, 0)) {
		t.Errorf("glowstone not emissive")
	}
}

func TestComputeLightMapDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockLight = true
	opts.SkyLight = true

	blocks := map[types.BlockPosition]types.InputBlock{
		types.Pos(0, 0, 0): types.NewBlock("glowstone"),
		types.Pos(2, 0, 0): types.NewBlock("stone"),
		types.Pos(2, 1, 0): types.NewBlock("stone"),
	}
	a := ComputeLightMap(blocks, opts)
	b := ComputeLightMap(blocks, opts)

	for x := -2; x < 5; x++ {
		for y := -2; y < 4; y++ {
			pos := types.Pos(x, y, 0)
			ab, as := a.Light(pos)
			bb, bs := b.Light(pos)
			if ab != bb || as != bs {
				t.Fatalf("light at %v differs between runs: (%d, %d) vs (%d, %d)", pos, ab, as, bb, bs)
			}
		}
	}
}

func TestLightPropagationIdempotent(t *testing.T) {
	opts := DefaultOptions()
	opts.BlockLight = true

	blocks := map[types.BlockPosition]types.InputBlock{
		types.Pos(0, 0, 0): types.NewBlock("glowstone"),
		types.Pos(2, 0, 0): types.NewBlock("stone"),
	}
	lm := ComputeLightMap(blocks, opts)

	opacity := make([]uint8, len(lm.blockLight))
	for pos, block := range blocks {
		if i, ok := lm.index(pos); ok {
			opacity[i] = registry.LightOpacity(block)
		}
	}

	before := append([]uint8(nil), lm.blockLight...)

	// Requeue every lit cell; a converged grid must not change.
	var queue []lightNode
	for x := lm.gridMin[0]; x < lm.gridMin[0]+lm.gridSize[0]; x++ {
		for y := lm.gridMin[1]; y < lm.gridMin[1]+lm.gridSize[1]; y++ {
			for z := lm.gridMin[2]; z < lm.gridMin[2]+lm.gridSize[2]; z++ {
				pos := types.Pos(x, y, z)
				if i, ok := lm.index(pos); ok && lm.blockLight[i] > 0 {
					queue = append(queue, lightNode{pos, lm.blockLight[i]})
				}
			}
		}
	}
	lm.propagate(lm.blockLight, opacity, queue)

	for i := range before {
		if lm.blockLight[i] != before[i] {
			t.Fatalf("cell %d changed from %d to %d on a converged grid", i, before[i], lm.blockLight[i])
		}
	}
}

func TestRemappedUVsStayInAtlasRegion(t *testing.T) {
	out := meshScene(t, DefaultOptions(), func(src *types.MapSource) {
		src.Set(types.Pos(0, 0, 0), types.NewBlock("stone"))
		src.Set(types.Pos(2, 0, 0), types.NewBlock("glass"))
	})

	checkWithin := func(mesh *Mesh, texture string) {
		t.Helper()
		region, ok := out.Atlas.Region(texture)
		if !ok {
			t.Fatalf("atlas has no region for %s", texture)
		}
		for i, v := range mesh.Vertices {
			u, vv := v.UV[0], v.UV[1]
			if u < region.UMin-1e-5 || u > region.UMax+1e-5 || vv < region.VMin-1e-5 || vv > region.VMax+1e-5 {
				t.Fatalf("vertex %d uv (%v, %v) outside %s region (%v..%v, %v..%v)",
					i, u, vv, texture, region.UMin, region.UMax, region.VMin, region.VMax)
			}
		}
	}
	checkWithin(out.Opaque, "block/stone")
	checkWithin(out.Transparent, "block/glass")
}

func TestFluidCornerForcedByFullNeighbor(t *testing.T) {
	blocks := blockMap{
		types.Pos(0, 0, 0): types.NewBlock("water"),
		types.Pos(1, 0, 0): types.NewBlock("water").WithProperty("level", "8"),
	}
	state, _ := FluidStateFromBlock(blocks[types.Pos(0, 0, 0)])

	// The falling column to the east is at full height and forces the
	// shared corner all the way up.
	if got := cornerHeight(blocks, types.Pos(0, 0, 0), state, 1, 1); got != 1 {
		t.Errorf("corner beside full column = %v, want 1", got)
	}
	want := float32(8.0 / 9.0)
	if got := cornerHeight(blocks, types.Pos(0, 0, 0), state, -1, -1); got != want {
		t.Errorf("free corner = %v, want %v", got, want)
	}
}

func TestFluidStateFromBlock(t *testing.T) {
	state, ok := FluidStateFromBlock(types.NewBlock("water"))
	if !ok || !state.Source || state.Amount != 8 {
		t.Fatalf("water = %+v, ok=%v, want source amount 8", state, ok)
	}

	flowing := types.NewBlock("water").WithProperty("level", "3")
	state, _ = FluidStateFromBlock(flowing)
	if state.Source || state.Amount != 5 {
		t.Errorf("level 3 water = %+v, want amount 5", state)
	}

	falling := types.NewBlock("lava").WithProperty("level", "8")
	state, _ = FluidStateFromBlock(falling)
	if !state.Falling || state.Kind != FluidLava {
		t.Errorf("level 8 lava = %+v, want falling", state)
	}

	if _, ok := FluidStateFromBlock(types.NewBlock("stone")); ok {
		t.Errorf("stone parsed as fluid")
	}
}
