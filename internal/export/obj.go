package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"voxmesh/internal/mesher"
)

// WriteOBJ writes the scene as a Wavefront OBJ with a companion MTL
// and PNG textures next to it. Vertex colors ride on the v lines,
// which most importers accept as an extension.
func WriteOBJ(out *mesher.Output, path string) error {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mtlName := base + ".mtl"

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "mtllib %s\n", mtlName)

	// OBJ indices are global across objects and 1-based.
	vertexBase := 1
	writeMesh := func(name, material string, m *mesher.Mesh) {
		if m.IsEmpty() {
			return
		}
		fmt.Fprintf(w, "o %s\n", name)
		for _, v := range m.Vertices {
			fmt.Fprintf(w, "v %g %g %g %g %g %g\n",
				v.Position[0], v.Position[1], v.Position[2],
				v.Color[0], v.Color[1], v.Color[2])
		}
		for _, v := range m.Vertices {
			fmt.Fprintf(w, "vt %g %g\n", v.UV[0], 1-v.UV[1])
		}
		for _, v := range m.Vertices {
			fmt.Fprintf(w, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
		}
		fmt.Fprintf(w, "usemtl %s\n", material)
		for i := 0; i+2 < len(m.Indices); i += 3 {
			a := vertexBase + int(m.Indices[i])
			b := vertexBase + int(m.Indices[i+1])
			c := vertexBase + int(m.Indices[i+2])
			fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
		vertexBase += m.VertexCount()
	}

	type materialDef struct {
		name    string
		texture string
	}
	var materials []materialDef

	atlasPNG := base + "_atlas.png"
	if !out.Opaque.IsEmpty() || !out.Transparent.IsEmpty() {
		if err := writePNG(filepath.Join(dir, atlasPNG), out.Atlas.Image); err != nil {
			return err
		}
		if !out.Opaque.IsEmpty() {
			materials = append(materials, materialDef{name: "blocks", texture: atlasPNG})
			writeMesh("blocks", "blocks", out.Opaque)
		}
		if !out.Transparent.IsEmpty() {
			materials = append(materials, materialDef{name: "blocks_transparent", texture: atlasPNG})
			writeMesh("blocks_transparent", "blocks_transparent", out.Transparent)
		}
	}

	written := make(map[string]string)
	for i, tiled := range out.Tiled {
		if tiled.Mesh.IsEmpty() {
			continue
		}
		texPNG, ok := written[tiled.Texture]
		if !ok {
			img, found := out.TileImages[tiled.Texture]
			if !found {
				return fmt.Errorf("no image for tiled texture '%s'", tiled.Texture)
			}
			texPNG = fmt.Sprintf("%s_%s.png", base, sanitizeName(tiled.Texture))
			if err := writePNG(filepath.Join(dir, texPNG), img); err != nil {
				return err
			}
			written[tiled.Texture] = texPNG
		}
		name := fmt.Sprintf("tiled_%d_%s", i, sanitizeName(tiled.Texture))
		materials = append(materials, materialDef{name: name, texture: texPNG})
		writeMesh(name, name, tiled.Mesh)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	mtl, err := os.Create(filepath.Join(dir, mtlName))
	if err != nil {
		return err
	}
	defer mtl.Close()
	mw := bufio.NewWriter(mtl)
	for _, m := range materials {
		fmt.Fprintf(mw, "newmtl %s\n", m.name)
		fmt.Fprintf(mw, "Ka 1.0 1.0 1.0\n")
		fmt.Fprintf(mw, "Kd 1.0 1.0 1.0\n")
		fmt.Fprintf(mw, "Ks 0.0 0.0 0.0\n")
		fmt.Fprintf(mw, "Ns 10.0\n")
		fmt.Fprintf(mw, "map_Kd %s\n\n", m.texture)
	}
	return mw.Flush()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// sanitizeName turns a texture location into a filename fragment.
func sanitizeName(s string) string {
	return strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(s)
}
