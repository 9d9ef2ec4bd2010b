package mesher

import (
	"context"
	"image"
	"image/color"
	"runtime"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"voxmesh/internal/atlas"
	"voxmesh/pkg/blockmodel"
	"voxmesh/pkg/types"
)

// TiledMesh is geometry whose UVs tile a single texture instead of
// sampling the atlas. Greedy-merged quads end up here.
type TiledMesh struct {
	Texture     string
	Transparent bool
	Mesh        *Mesh
}

// Stats summarizes one meshing run.
type Stats struct {
	Blocks      int
	Chunks      int
	MergedQuads int
}

// Output is the result of meshing a block source: geometry split by
// transparency, the texture atlas, and any tiled greedy meshes with
// their standalone textures.
type Output struct {
	Opaque      *Mesh
	Transparent *Mesh
	Atlas       *atlas.Atlas
	Tiled       []TiledMesh
	TileImages  map[string]*image.RGBA
	Stats       Stats
}

func (o *Output) HasTransparency() bool {
	if !o.Transparent.IsEmpty() {
		return true
	}
	for _, t := range o.Tiled {
		if t.Transparent {
			return true
		}
	}
	return false
}

func (o *Output) TotalVertices() int {
	total := o.Opaque.VertexCount() + o.Transparent.VertexCount()
	for _, t := range o.Tiled {
		total += t.Mesh.VertexCount()
	}
	return total
}

func (o *Output) TotalTriangles() int {
	total := o.Opaque.TriangleCount() + o.Transparent.TriangleCount()
	for _, t := range o.Tiled {
		total += t.Mesh.TriangleCount()
	}
	return total
}

// Mesher turns block sources into textured triangle meshes using
// models and textures from a resource pack.
type Mesher struct {
	pack   blockmodel.ResourcePack
	opts   Options
	tints  TintColors
	states *blockmodel.StateResolver
	models *blockmodel.ModelResolver
}

func New(pack blockmodel.ResourcePack, opts Options) (*Mesher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Mesher{
		pack:   pack,
		opts:   opts,
		tints:  TintColorsForBiome(opts.Biome),
		states: blockmodel.NewStateResolver(pack),
		models: blockmodel.NewModelResolver(pack),
	}, nil
}

// Mesh generates geometry for every block in the source.
func (m *Mesher) Mesh(ctx context.Context, source types.BlockSource) (*Output, error) {
	blocks := make(blockMap)
	source.Blocks(func(pos types.BlockPosition, block types.InputBlock) bool {
		if block.IsAir() && !m.opts.IncludeAir {
			return true
		}
		blocks[pos] = block
		return true
	})

	positions := make([]types.BlockPosition, 0, len(blocks))
	for pos := range blocks {
		positions = append(positions, pos)
	}
	sortPositions(positions)

	culler := NewFaceCuller(m.states, m.models, blocks)
	var lights *LightMap
	if m.opts.LightingEnabled() {
		lights = ComputeLightMap(blocks, m.opts)
	}

	run := &meshRun{mesher: m, blocks: blocks, culler: culler, lights: lights}

	var results []ChunkResult
	var err error
	if m.opts.ChunkSize > 0 && len(positions) > 0 {
		results, err = run.meshChunked(ctx, positions)
	} else {
		result := run.processChunk(ctx, ChunkJob{Blocks: positions})
		results, err = []ChunkResult{result}, result.Err
	}
	if err != nil {
		return nil, err
	}

	return m.assemble(results, len(blocks))
}

// meshRun carries the per-run shared state chunk workers read.
type meshRun struct {
	mesher *Mesher
	blocks blockMap
	culler *FaceCuller
	lights *LightMap
}

func (r *meshRun) processChunk(ctx context.Context, job ChunkJob) ChunkResult {
	m := r.mesher
	builder := NewMeshBuilder(m.pack, m.opts, m.tints, m.states, m.models, r.lights)
	var greedy *GreedyMesher
	if m.opts.Greedy {
		greedy = NewGreedyMesher()
	}

	for _, pos := range job.Blocks {
		if err := ctx.Err(); err != nil {
			return ChunkResult{Coord: job.Coord, Err: err}
		}
		block := r.blocks[pos]

		if state, ok := FluidStateFromBlock(block); ok {
			baseColor := m.tints.Tint(block, 0)
			if r.lights != nil {
				brightness := r.lights.FaceBrightness(pos, types.Up)
				baseColor[0] *= brightness
				baseColor[1] *= brightness
				baseColor[2] *= brightness
			}
			verts, indices, faces := GenerateFluidGeometry(r.blocks, pos, state, r.culler.IsFullyOpaqueAt, baseColor)
			builder.AppendFluid(verts, indices, faces)
			continue
		}

		if m.opts.CullOccludedBlocks && r.culler.IsFullyOccluded(pos) {
			continue
		}

		if greedy != nil && builder.TryAddGreedyBlock(pos, block, r.culler, greedy) {
			continue
		}

		builder.AddBlock(pos, block, r.culler)
	}

	result := ChunkResult{Coord: job.Coord, Builder: builder}
	if greedy != nil {
		result.Quads = greedy.Merge()
	}
	return result
}

// meshChunked splits positions into cubic chunks and meshes them on a
// worker pool, then orders the results for deterministic assembly.
func (r *meshRun) meshChunked(ctx context.Context, positions []types.BlockPosition) ([]ChunkResult, error) {
	size := r.mesher.opts.ChunkSize
	byChunk := make(map[ChunkCoord][]types.BlockPosition)
	for _, pos := range positions {
		coord := ChunkCoord{
			X: floorDiv(pos.X, size),
			Y: floorDiv(pos.Y, size),
			Z: floorDiv(pos.Z, size),
		}
		byChunk[coord] = append(byChunk[coord], pos)
	}

	coords := make([]ChunkCoord, 0, len(byChunk))
	for coord := range byChunk {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	workers := r.mesher.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(coords) {
		workers = len(coords)
	}

	pool := NewWorkerPool(ctx, workers, len(coords), r.processChunk)
	defer pool.Shutdown()

	resultChan := make(chan ChunkResult, len(coords))
	for _, coord := range coords {
		pool.SubmitJobBlocking(ChunkJob{Coord: coord, Blocks: byChunk[coord], ResultChan: resultChan})
	}

	byCoord := make(map[ChunkCoord]ChunkResult, len(coords))
	for range coords {
		select {
		case result := <-resultChan:
			if result.Err != nil {
				return nil, result.Err
			}
			byCoord[result.Coord] = result
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	results := make([]ChunkResult, 0, len(coords))
	for _, coord := range coords {
		results = append(results, byCoord[coord])
	}
	return results, nil
}

// assemble merges chunk results, packs the atlas, remaps UVs and
// splits the mesh by transparency.
func (m *Mesher) assemble(results []ChunkResult, blockCount int) (*Output, error) {
	combined := NewMesh()
	var faces []FaceTextureMapping
	textureRefs := make(map[string]struct{})
	tileRefs := make(map[string]struct{})
	var quads []MergedQuad

	for _, result := range results {
		base := uint32(combined.VertexCount())
		for _, face := range result.Builder.FaceTextures() {
			face.VertexStart += base
			faces = append(faces, face)
		}
		combined.Merge(result.Builder.Mesh())
		for ref := range result.Builder.TextureRefs() {
			textureRefs[ref] = struct{}{}
		}
		for ref := range result.Builder.TileRefs() {
			tileRefs[ref] = struct{}{}
		}
		quads = append(quads, result.Quads...)
	}

	builder := atlas.NewBuilder(m.opts.AtlasMaxSize, m.opts.AtlasPadding, m.opts.AtlasTileSize)
	for _, name := range sortedKeys(textureRefs) {
		builder.AddTexture(name, m.textureImage(name))
	}
	packed, err := builder.Build()
	if err != nil {
		return nil, err
	}

	RemapUVs(combined, faces, packed)
	opaque, transparent := SeparateByTransparency(combined, faces)

	tiled, tileImages := m.buildTiledMeshes(quads, tileRefs)

	return &Output{
		Opaque:      opaque,
		Transparent: transparent,
		Atlas:       packed,
		Tiled:       tiled,
		TileImages:  tileImages,
		Stats: Stats{
			Blocks:      blockCount,
			Chunks:      len(results),
			MergedQuads: len(quads),
		},
	}, nil
}

// buildTiledMeshes converts merged quads into one mesh per texture and
// transparency class, with UVs repeating once per block.
func (m *Mesher) buildTiledMeshes(quads []MergedQuad, tileRefs map[string]struct{}) ([]TiledMesh, map[string]*image.RGBA) {
	if len(quads) == 0 {
		return nil, nil
	}

	type tileKey struct {
		texture     string
		transparent bool
	}
	meshes := make(map[tileKey]*Mesh)
	for _, quad := range quads {
		key := tileKey{texture: quad.Texture, transparent: quad.Transparent}
		mesh, ok := meshes[key]
		if !ok {
			mesh = NewMesh()
			meshes[key] = mesh
		}
		appendMergedQuad(mesh, &quad, m.opts)
	}

	keys := make([]tileKey, 0, len(meshes))
	for key := range meshes {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].texture != keys[j].texture {
			return keys[i].texture < keys[j].texture
		}
		return !keys[i].transparent && keys[j].transparent
	})

	tiled := make([]TiledMesh, 0, len(keys))
	for _, key := range keys {
		tiled = append(tiled, TiledMesh{
			Texture:     key.texture,
			Transparent: key.transparent,
			Mesh:        meshes[key],
		})
	}

	images := make(map[string]*image.RGBA, len(tileRefs))
	for _, name := range sortedKeys(tileRefs) {
		images[name] = m.textureImage(name)
	}
	return tiled, images
}

// appendMergedQuad emits one merged rectangle with tiling UVs and the
// tint, AO and light baked into vertex colors.
func appendMergedQuad(mesh *Mesh, quad *MergedQuad, opts Options) {
	positions := quad.WorldPositions()
	normal := quad.Direction.Normal()

	baseColor := [4]float32{
		float32(quad.Tint[0]) / 255,
		float32(quad.Tint[1]) / 255,
		float32(quad.Tint[2]) / 255,
		float32(quad.Tint[3]) / 255,
	}
	brightness := float32(1)
	if opts.LightingEnabled() {
		brightness = BrightnessFromLevel(quad.Light, opts.AmbientLight)
	}

	uvs := quadTileUVs(quad)

	var idx [4]uint32
	for i := 0; i < 4; i++ {
		c := baseColor
		if opts.AmbientOcclusion {
			c = applyAO(c, quad.AO[i], opts.AOIntensity)
		}
		c[0] *= brightness
		c[1] *= brightness
		c[2] *= brightness
		idx[i] = mesh.AddVertex(NewVertex(
			mgl32.Vec3{positions[i][0], positions[i][1], positions[i][2]},
			normal,
			mgl32.Vec2{uvs[i][0], uvs[i][1]},
		).WithColor(mgl32.Vec4{c[0], c[1], c[2], c[3]}))
	}
	if opts.AmbientOcclusion {
		mesh.AddQuadAO(idx[0], idx[1], idx[2], idx[3], quad.AO)
	} else {
		mesh.AddQuad(idx[0], idx[1], idx[2], idx[3])
	}
}

// quadTileUVs projects each vertex onto the quad plane so the texture
// repeats once per block across the merged rectangle.
func quadTileUVs(quad *MergedQuad) [4][2]float32 {
	positions := quad.WorldPositions()
	var uvs [4][2]float32
	for i, p := range positions {
		var u, v float32
		switch quad.Direction {
		case types.Up, types.Down:
			u, v = p[0], p[2]
		case types.North, types.South:
			u, v = p[0], p[1]
		default:
			u, v = p[2], p[1]
		}
		uvs[i] = [2]float32{u - (float32(quad.UMin) - 0.5), v - (float32(quad.VMin) - 0.5)}
	}
	return uvs
}

// textureImage loads a texture's first frame, substituting the classic
// magenta and black checker when the pack has no such file.
func (m *Mesher) textureImage(name string) *image.RGBA {
	tex, err := m.pack.Texture(name)
	if err != nil {
		logrus.WithField("texture", name).Debugf("texture missing: %v", err)
		return missingTexture()
	}
	return tex.FirstFrame()
}

func missingTexture() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	magenta := color.RGBA{R: 248, B: 248, A: 255}
	black := color.RGBA{A: 255}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x < 8) != (y < 8) {
				img.SetRGBA(x, y, black)
			} else {
				img.SetRGBA(x, y, magenta)
			}
		}
	}
	return img
}

func sortPositions(positions []types.BlockPosition) {
	sort.Slice(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
