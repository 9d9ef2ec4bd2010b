package mesher

import "github.com/go-gl/mathgl/mgl32"

// Vertex is one mesh vertex with position, normal, texture coordinate
// and a baked vertex color (tint, AO and light combined).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Color    mgl32.Vec4
}

func NewVertex(position, normal mgl32.Vec3, uv mgl32.Vec2) Vertex {
	return Vertex{
		Position: position,
		Normal:   normal,
		UV:       uv,
		Color:    mgl32.Vec4{1, 1, 1, 1},
	}
}

func (v Vertex) WithColor(color mgl32.Vec4) Vertex {
	v.Color = color
	return v
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

func NewMesh() *Mesh {
	return &Mesh{}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	return uint32(len(m.Vertices) - 1)
}

func (m *Mesh) AddTriangle(i0, i1, i2 uint32) {
	m.Indices = append(m.Indices, i0, i1, i2)
}

// AddQuad adds two triangles for a quad whose vertices are in
// counterclockwise order when viewed from the front.
func (m *Mesh) AddQuad(i0, i1, i2, i3 uint32) {
	m.AddTriangle(i0, i2, i1)
	m.AddTriangle(i0, i3, i2)
}

// AddQuadAO adds a quad, flipping the diagonal when the AO values make
// the default split produce visible banding across the face.
func (m *Mesh) AddQuadAO(i0, i1, i2, i3 uint32, ao [4]uint8) {
	if int(ao[0])+int(ao[2]) > int(ao[1])+int(ao[3]) {
		m.AddTriangle(i1, i0, i3)
		m.AddTriangle(i1, i3, i2)
	} else {
		m.AddQuad(i0, i1, i2, i3)
	}
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

func (m *Mesh) IsEmpty() bool {
	return len(m.Indices) == 0
}

// Merge appends another mesh, rebasing its indices.
func (m *Mesh) Merge(other *Mesh) {
	base := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// Translate moves every vertex by the offset.
func (m *Mesh) Translate(offset mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Add(offset)
	}
}

// PositionsFlat returns xyz triples for every vertex.
func (m *Mesh) PositionsFlat() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, v.Position[0], v.Position[1], v.Position[2])
	}
	return out
}

// NormalsFlat returns xyz triples for every vertex normal.
func (m *Mesh) NormalsFlat() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return out
}

// UVsFlat returns uv pairs for every vertex.
func (m *Mesh) UVsFlat() []float32 {
	out := make([]float32, 0, len(m.Vertices)*2)
	for _, v := range m.Vertices {
		out = append(out, v.UV[0], v.UV[1])
	}
	return out
}

// ColorsFlat returns rgba quads for every vertex.
func (m *Mesh) ColorsFlat() []float32 {
	out := make([]float32, 0, len(m.Vertices)*4)
	for _, v := range m.Vertices {
		out = append(out, v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	}
	return out
}
