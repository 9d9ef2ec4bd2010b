package export

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/require"

	"voxmesh/internal/atlas"
	"voxmesh/internal/mesher"
)

func quadMesh() *mesher.Mesh {
	m := mesher.NewMesh()
	normal := mgl32.Vec3{0, 1, 0}
	corners := []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}
	uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	var idx [4]uint32
	for i := range corners {
		idx[i] = m.AddVertex(mesher.NewVertex(corners[i], normal, uvs[i]))
	}
	m.AddQuad(idx[0], idx[1], idx[2], idx[3])
	return m
}

func testOutput() *mesher.Output {
	return &mesher.Output{
		Opaque:      quadMesh(),
		Transparent: mesher.NewMesh(),
		Atlas:       atlas.Empty(),
		Stats:       mesher.Stats{Blocks: 1, Chunks: 1},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"glb":   FormatGLB,
		".gltf": FormatGLTF,
		"OBJ":   FormatOBJ,
		"usd":   FormatUSDA,
		"usdz":  FormatUSDZ,
		"json":  FormatJSON,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseFormat("stl")
	require.Error(t, err)
}

func TestWriteGLB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.glb")
	require.NoError(t, Export(testOutput(), path, FormatGLB))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 1)
	require.Len(t, doc.Materials, 1)
	require.Equal(t, gltf.AlphaOpaque, doc.Materials[0].AlphaMode)
}

func TestWriteGLTFWithTransparency(t *testing.T) {
	out := testOutput()
	out.Transparent = quadMesh()
	path := filepath.Join(t.TempDir(), "scene.gltf")
	require.NoError(t, Export(out, path, FormatGLTF))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	require.Len(t, doc.Meshes[0].Primitives, 2)
	require.Equal(t, gltf.AlphaBlend, doc.Materials[1].AlphaMode)
	require.True(t, doc.Materials[1].DoubleSided)
}

func TestWriteOBJ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.obj")
	require.NoError(t, Export(testOutput(), path, FormatOBJ))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "mtllib scene.mtl")
	require.Contains(t, text, "usemtl blocks")
	require.Equal(t, 2, strings.Count(text, "\nf "))

	mtl, err := os.ReadFile(filepath.Join(dir, "scene.mtl"))
	require.NoError(t, err)
	require.Contains(t, string(mtl), "map_Kd scene_atlas.png")
	_, err = os.Stat(filepath.Join(dir, "scene_atlas.png"))
	require.NoError(t, err)
}

func TestWriteUSDA(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.usda")
	require.NoError(t, Export(testOutput(), path, FormatUSDA))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "#usda 1.0"))
	require.Contains(t, text, "def Mesh \"blocks\"")
	require.Contains(t, text, "UsdPreviewSurface")
	_, err = os.Stat(filepath.Join(dir, "textures", "atlas.png"))
	require.NoError(t, err)
}

func TestWriteUSDZAlignment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.usdz")
	require.NoError(t, Export(testOutput(), path, FormatUSDZ))

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	require.NotEmpty(t, r.File)
	require.Equal(t, "model.usda", r.File[0].Name)
	for _, f := range r.File {
		require.Equal(t, zip.Store, f.Method, f.Name)
		offset, err := f.DataOffset()
		require.NoError(t, err)
		require.Zero(t, offset%64, "entry %s starts at %d", f.Name, offset)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, Export(testOutput(), path, FormatJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "\"positions\"")
	require.Contains(t, string(data), "\"atlas_png\"")
}
