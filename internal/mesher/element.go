package mesher

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"voxmesh/internal/atlas"
	"voxmesh/internal/registry"
	"voxmesh/pkg/blockmodel"
	"voxmesh/pkg/types"
)

// FaceTextureMapping records which texture the four vertices starting
// at VertexStart sample, so UVs can be remapped once the atlas exists.
type FaceTextureMapping struct {
	VertexStart uint32
	Texture     string
	Transparent bool
}

// MeshBuilder turns resolved block models into mesh geometry. Every
// face contributes exactly four vertices and six indices, which keeps
// the face-to-vertex mapping trivial for the later UV remap and the
// opaque/transparent split.
type MeshBuilder struct {
	pack   blockmodel.ResourcePack
	opts   Options
	tints  TintColors
	states *blockmodel.StateResolver
	models *blockmodel.ModelResolver
	lights *LightMap

	mesh         *Mesh
	textureRefs  map[string]struct{}
	tileRefs     map[string]struct{}
	faceTextures []FaceTextureMapping

	transparency map[string]bool
}

func NewMeshBuilder(pack blockmodel.ResourcePack, opts Options, tints TintColors, states *blockmodel.StateResolver, models *blockmodel.ModelResolver, lights *LightMap) *MeshBuilder {
	return &MeshBuilder{
		pack:         pack,
		opts:         opts,
		tints:        tints,
		states:       states,
		models:       models,
		lights:       lights,
		mesh:         NewMesh(),
		textureRefs:  make(map[string]struct{}),
		tileRefs:     make(map[string]struct{}),
		transparency: make(map[string]bool),
	}
}

func (b *MeshBuilder) Mesh() *Mesh {
	return b.mesh
}

func (b *MeshBuilder) TextureRefs() map[string]struct{} {
	return b.textureRefs
}

// TileRefs returns the textures used by merged quads, which repeat
// instead of going through the atlas.
func (b *MeshBuilder) TileRefs() map[string]struct{} {
	return b.tileRefs
}

func (b *MeshBuilder) FaceTextures() []FaceTextureMapping {
	return b.faceTextures
}

// AddBlock resolves a block's models and emits their geometry. Blocks
// that fail to resolve render as a full cube with the missing-texture
// checker, so an unknown block stays visible instead of leaving a hole.
func (b *MeshBuilder) AddBlock(pos types.BlockPosition, block types.InputBlock, culler *FaceCuller) {
	variants, err := b.states.Resolve(block.ID(), block.Properties)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"block": block.Name,
			"pos":   pos.String(),
		}).Warnf("failed to resolve block: %v", err)
		b.addFallbackCube(pos, block, culler)
		return
	}

	emitted := false
	for _, variant := range variants {
		model, err := b.models.Resolve(variant.Model)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"block": block.Name,
				"model": variant.Model,
			}).Warnf("failed to resolve model: %v", err)
			continue
		}
		transform := types.BlockTransform{X: variant.X, Y: variant.Y, UVLock: variant.UVLock}
		b.addModel(pos, block, model, transform, culler)
		emitted = true
	}
	if !emitted {
		b.addFallbackCube(pos, block, culler)
	}
}

// addFallbackCube emits a full cube textured with the missing-texture
// checker. Each face carries its own cullface so neighbors still hide it.
func (b *MeshBuilder) addFallbackCube(pos types.BlockPosition, block types.InputBlock, culler *FaceCuller) {
	faces := make(map[string]blockmodel.Face, len(types.Directions))
	for _, dir := range types.Directions {
		faces[dir.String()] = blockmodel.Face{
			Texture:  "block/missing",
			CullFace: dir.String(),
		}
	}
	element := &blockmodel.Element{
		From:  [3]float32{0, 0, 0},
		To:    [3]float32{16, 16, 16},
		Faces: faces,
	}
	b.addElement(pos, block, element, types.BlockTransform{}, nil, culler)
}

// TryAddGreedyBlock routes a simple full-cube block's visible faces to
// the greedy mesher instead of emitting them directly. Returns false
// when the block is not eligible, leaving it to the regular path.
func (b *MeshBuilder) TryAddGreedyBlock(pos types.BlockPosition, block types.InputBlock, culler *FaceCuller, greedy *GreedyMesher) bool {
	if culler == nil || !culler.IsFullyOpaqueAt(pos) {
		return false
	}
	variants, err := b.states.Resolve(block.ID(), block.Properties)
	if err != nil || len(variants) != 1 {
		return false
	}
	variant := variants[0]
	transform := types.BlockTransform{X: variant.X, Y: variant.Y, UVLock: variant.UVLock}
	if !transform.IsIdentity() {
		return false
	}
	model, err := b.models.Resolve(variant.Model)
	if err != nil || len(model.Elements) != 1 || model.Elements[0].Rotation != nil {
		return false
	}

	element := &model.Elements[0]
	for _, face := range element.Faces {
		// Faces with explicit UVs or rotation cannot tile.
		if face.UV != nil || face.Rotation != 0 {
			return false
		}
	}
	resolvedTextures := b.models.ResolvedTextures(model)

	for faceName, face := range element.Faces {
		direction, ok := types.DirectionFromString(faceName)
		if !ok {
			continue
		}
		if b.opts.CullHiddenFaces && culler.ShouldCull(pos, direction) {
			continue
		}

		texture := b.resolveFaceTexture(face.Texture, resolvedTextures)
		b.tileRefs[texture] = struct{}{}

		tintIndex := -1
		if face.TintIndex != nil {
			tintIndex = *face.TintIndex
		}

		var ao [4]uint8
		if b.opts.AmbientOcclusion && registry.EmissionLevel(block) == 0 {
			ao = culler.CalculateAO(pos, direction)
		} else {
			ao = [4]uint8{3, 3, 3, 3}
		}

		light := uint8(15)
		if b.lights != nil {
			light = b.lights.FaceLightLevel(pos, direction)
		}

		greedy.AddFace(pos, direction, FaceMergeKey{
			Texture: texture,
			Tint:    quantizeColor(b.tints.Tint(block, tintIndex)),
			AO:      ao,
			Light:   light,
		}, b.textureTransparent(texture))
	}
	return true
}

func (b *MeshBuilder) addModel(pos types.BlockPosition, block types.InputBlock, model *blockmodel.Model, transform types.BlockTransform, culler *FaceCuller) {
	resolvedTextures := b.models.ResolvedTextures(model)
	for i := range model.Elements {
		b.addElement(pos, block, &model.Elements[i], transform, resolvedTextures, culler)
	}
}

func (b *MeshBuilder) addElement(pos types.BlockPosition, block types.InputBlock, element *blockmodel.Element, transform types.BlockTransform, resolvedTextures map[string]string, culler *FaceCuller) {
	// Light-emitting blocks render at full brightness on every corner.
	emitter := registry.EmissionLevel(block) > 0
	for faceName, face := range element.Faces {
		direction, ok := types.DirectionFromString(faceName)
		if !ok {
			continue
		}

		// Rotate into world space for culling and AO.
		worldDirection := direction.RotateBy(transform)

		if face.CullFace != "" && culler != nil && b.opts.CullHiddenFaces {
			if cullface, ok := types.DirectionFromString(face.CullFace); ok {
				if culler.ShouldCull(pos, cullface.RotateBy(transform)) {
					continue
				}
			}
		}

		texture := b.resolveFaceTexture(face.Texture, resolvedTextures)
		b.textureRefs[texture] = struct{}{}
		transparent := b.textureTransparent(texture)

		b.faceTextures = append(b.faceTextures, FaceTextureMapping{
			VertexStart: uint32(b.mesh.VertexCount()),
			Texture:     texture,
			Transparent: transparent,
		})

		var aoValues *[4]uint8
		if b.opts.AmbientOcclusion && !emitter && culler != nil {
			ao := culler.CalculateAO(pos, worldDirection)
			aoValues = &ao
		}

		b.addFace(pos, block, element, direction, worldDirection, face, transform, aoValues)
	}
}

// resolveFaceTexture maps a "#key" reference through the model's
// resolved texture table.
func (b *MeshBuilder) resolveFaceTexture(ref string, resolvedTextures map[string]string) string {
	if len(ref) > 0 && ref[0] == '#' {
		if resolved, ok := resolvedTextures[ref[1:]]; ok {
			return resolved
		}
		return "block/missing"
	}
	return ref
}

// textureTransparent reports whether a texture has any translucent
// pixels, caching per path.
func (b *MeshBuilder) textureTransparent(path string) bool {
	if cached, ok := b.transparency[path]; ok {
		return cached
	}
	transparent := false
	if tex, err := b.pack.Texture(path); err == nil {
		transparent = tex.HasTransparency()
	}
	b.transparency[path] = transparent
	return transparent
}

func (b *MeshBuilder) addFace(pos types.BlockPosition, block types.InputBlock, element *blockmodel.Element, direction, worldDirection types.Direction, face blockmodel.Face, transform types.BlockTransform, aoValues *[4]uint8) {
	normal := direction.Normal()
	uv := normalizedUV(face, direction, element)
	from := normalizedVec(element.From)
	to := normalizedVec(element.To)

	positions, uvs := generateFaceVertices(direction, from, to, uv, face.Rotation)

	if element.Rotation != nil {
		positions = applyElementRotation(positions, element.Rotation)
	}
	positions = applyBlockTransform(positions, transform)
	normal = rotateNormal(normal, transform)

	offset := pos.Vec3()

	tintIndex := -1
	if face.TintIndex != nil {
		tintIndex = *face.TintIndex
	}
	baseColor := b.tints.Tint(block, tintIndex)

	var colors [4][4]float32
	if aoValues != nil {
		for i := 0; i < 4; i++ {
			colors[i] = applyAO(baseColor, aoValues[i], b.opts.AOIntensity)
		}
	} else {
		for i := 0; i < 4; i++ {
			colors[i] = baseColor
		}
	}

	if b.lights != nil {
		brightness := b.lights.FaceBrightness(pos, worldDirection)
		for i := range colors {
			colors[i][0] *= brightness
			colors[i][1] *= brightness
			colors[i][2] *= brightness
		}
	}

	var idx [4]uint32
	for i := 0; i < 4; i++ {
		idx[i] = b.mesh.AddVertex(NewVertex(
			positions[i].Add(offset),
			normal,
			uvs[i],
		).WithColor(mgl32.Vec4{colors[i][0], colors[i][1], colors[i][2], colors[i][3]}))
	}

	if aoValues != nil {
		b.mesh.AddQuadAO(idx[0], idx[1], idx[2], idx[3], *aoValues)
	} else {
		b.mesh.AddQuad(idx[0], idx[1], idx[2], idx[3])
	}
}

// AppendFluid merges raw fluid geometry emitted by
// GenerateFluidGeometry, registering its face textures.
func (b *MeshBuilder) AppendFluid(vertices []Vertex, indices []uint32, faces []FluidFaceTexture) {
	base := uint32(b.mesh.VertexCount())
	for i, face := range faces {
		b.textureRefs[face.Texture] = struct{}{}
		b.faceTextures = append(b.faceTextures, FaceTextureMapping{
			VertexStart: base + uint32(i*4),
			Texture:     face.Texture,
			Transparent: face.Transparent,
		})
	}
	b.mesh.Vertices = append(b.mesh.Vertices, vertices...)
	for _, idx := range indices {
		b.mesh.Indices = append(b.mesh.Indices, base+idx)
	}
}

// normalizedVec converts model coordinates (0-16) to block-centered
// space (-0.5 to 0.5).
func normalizedVec(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0]/16 - 0.5, v[1]/16 - 0.5, v[2]/16 - 0.5}
}

// normalizedUV returns the face UV in [0,1], projecting the element
// bounds onto the face plane when the model omits an explicit uv.
func normalizedUV(face blockmodel.Face, direction types.Direction, element *blockmodel.Element) [4]float32 {
	var uv [4]float32
	if face.UV != nil {
		uv = *face.UV
	} else {
		from, to := element.From, element.To
		switch direction {
		case types.Down:
			uv = [4]float32{from[0], 16 - to[2], to[0], 16 - from[2]}
		case types.Up:
			uv = [4]float32{from[0], from[2], to[0], to[2]}
		case types.North:
			uv = [4]float32{16 - to[0], 16 - to[1], 16 - from[0], 16 - from[1]}
		case types.South:
			uv = [4]float32{from[0], 16 - to[1], to[0], 16 - from[1]}
		case types.West:
			uv = [4]float32{from[2], 16 - to[1], to[2], 16 - from[1]}
		case types.East:
			uv = [4]float32{16 - to[2], 16 - to[1], 16 - from[2], 16 - from[1]}
		}
	}
	return [4]float32{uv[0] / 16, uv[1] / 16, uv[2] / 16, uv[3] / 16}
}

// generateFaceVertices returns positions and UVs for the four corners
// of a face in counterclockwise order.
func generateFaceVertices(direction types.Direction, from, to mgl32.Vec3, uv [4]float32, rotation int) ([4]mgl32.Vec3, [4]mgl32.Vec2) {
	u1, v1, u2, v2 := uv[0], uv[1], uv[2], uv[3]
	uvs := rotateUVs([4]mgl32.Vec2{{u1, v1}, {u2, v1}, {u2, v2}, {u1, v2}}, rotation)

	var positions [4]mgl32.Vec3
	switch direction {
	case types.Down:
		positions = [4]mgl32.Vec3{
			{from[0], from[1], to[2]},
			{to[0], from[1], to[2]},
			{to[0], from[1], from[2]},
			{from[0], from[1], from[2]},
		}
	case types.Up:
		positions = [4]mgl32.Vec3{
			{from[0], to[1], from[2]},
			{to[0], to[1], from[2]},
			{to[0], to[1], to[2]},
			{from[0], to[1], to[2]},
		}
	case types.North:
		positions = [4]mgl32.Vec3{
			{to[0], to[1], from[2]},
			{from[0], to[1], from[2]},
			{from[0], from[1], from[2]},
			{to[0], from[1], from[2]},
		}
	case types.South:
		positions = [4]mgl32.Vec3{
			{from[0], to[1], to[2]},
			{to[0], to[1], to[2]},
			{to[0], from[1], to[2]},
			{from[0], from[1], to[2]},
		}
	case types.West:
		positions = [4]mgl32.Vec3{
			{from[0], to[1], from[2]},
			{from[0], to[1], to[2]},
			{from[0], from[1], to[2]},
			{from[0], from[1], from[2]},
		}
	case types.East:
		positions = [4]mgl32.Vec3{
			{to[0], to[1], to[2]},
			{to[0], to[1], from[2]},
			{to[0], from[1], from[2]},
			{to[0], from[1], to[2]},
		}
	}
	return positions, uvs
}

// rotateUVs spins the corner UVs by the face rotation in 90 degree steps.
func rotateUVs(uvs [4]mgl32.Vec2, rotation int) [4]mgl32.Vec2 {
	steps := ((rotation/90)%4 + 4) % 4
	result := uvs
	for i := 0; i < steps; i++ {
		result = [4]mgl32.Vec2{result[3], result[0], result[1], result[2]}
	}
	return result
}

// applyElementRotation rotates face corners around the element's
// rotation origin, rescaling the off-axis components when requested.
func applyElementRotation(positions [4]mgl32.Vec3, rotation *blockmodel.Rotation) [4]mgl32.Vec3 {
	origin := normalizedVec(rotation.Origin)
	angle := mgl32.DegToRad(rotation.Angle)

	var m mgl32.Mat3
	axis, _ := types.AxisFromString(rotation.Axis)
	switch axis {
	case types.AxisX:
		m = mgl32.Rotate3DX(angle)
	case types.AxisY:
		m = mgl32.Rotate3DY(angle)
	default:
		m = mgl32.Rotate3DZ(angle)
	}

	rescale := float32(1)
	if rotation.Rescale {
		rescale = 1 / math32.Cos(angle)
	}

	var out [4]mgl32.Vec3
	for i, pos := range positions {
		p := m.Mul3x1(pos.Sub(origin))
		if rescale != 1 {
			switch axis {
			case types.AxisX:
				p = mgl32.Vec3{p[0], p[1] * rescale, p[2] * rescale}
			case types.AxisY:
				p = mgl32.Vec3{p[0] * rescale, p[1], p[2] * rescale}
			default:
				p = mgl32.Vec3{p[0] * rescale, p[1] * rescale, p[2]}
			}
		}
		out[i] = p.Add(origin)
	}
	return out
}

func blockRotationMatrix(transform types.BlockTransform) mgl32.Mat3 {
	xRot := mgl32.Rotate3DX(mgl32.DegToRad(float32(transform.X)))
	yRot := mgl32.Rotate3DY(mgl32.DegToRad(float32(transform.Y)))
	return yRot.Mul3(xRot)
}

// applyBlockTransform rotates positions by the blockstate variant's
// x/y rotation around the block center.
func applyBlockTransform(positions [4]mgl32.Vec3, transform types.BlockTransform) [4]mgl32.Vec3 {
	if transform.IsIdentity() {
		return positions
	}
	m := blockRotationMatrix(transform)
	var out [4]mgl32.Vec3
	for i, pos := range positions {
		out[i] = m.Mul3x1(pos)
	}
	return out
}

func rotateNormal(normal mgl32.Vec3, transform types.BlockTransform) mgl32.Vec3 {
	if transform.IsIdentity() {
		return normal
	}
	return blockRotationMatrix(transform).Mul3x1(normal)
}

// RemapUVs rewrites every face's UVs from local texture space into
// its atlas region.
func RemapUVs(mesh *Mesh, faces []FaceTextureMapping, a *atlas.Atlas) {
	for _, face := range faces {
		region, ok := a.Region(face.Texture)
		if !ok {
			continue
		}
		for i := 0; i < 4; i++ {
			vi := int(face.VertexStart) + i
			if vi >= len(mesh.Vertices) {
				break
			}
			u, v := region.TransformUV(mesh.Vertices[vi].UV[0], mesh.Vertices[vi].UV[1])
			mesh.Vertices[vi].UV = mgl32.Vec2{u, v}
		}
	}
}

// SeparateByTransparency splits a mesh into opaque and transparent
// parts. Faces always occupy four consecutive vertices and six
// consecutive indices, so the split walks faces in order.
func SeparateByTransparency(mesh *Mesh, faces []FaceTextureMapping) (*Mesh, *Mesh) {
	opaque := NewMesh()
	transparent := NewMesh()

	for faceIdx, face := range faces {
		start := int(face.VertexStart)
		if start+4 > len(mesh.Vertices) {
			continue
		}
		target := opaque
		if face.Transparent {
			target = transparent
		}

		base := uint32(target.VertexCount())
		target.Vertices = append(target.Vertices, mesh.Vertices[start:start+4]...)

		indexStart := faceIdx * 6
		if indexStart+6 > len(mesh.Indices) {
			continue
		}
		for _, idx := range mesh.Indices[indexStart : indexStart+6] {
			target.Indices = append(target.Indices, base+(idx-face.VertexStart))
		}
	}

	return opaque, transparent
}
