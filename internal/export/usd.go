package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"voxmesh/internal/mesher"
)

// usdPart is one mesh/material pair in the USD stage.
type usdPart struct {
	name        string
	mesh        *mesher.Mesh
	texture     string
	wrap        string
	transparent bool
}

// collectUSDParts flattens the output into USD meshes and the texture
// files they reference. Texture paths are archive-relative.
func collectUSDParts(out *mesher.Output) ([]usdPart, map[string]image.Image, error) {
	var parts []usdPart
	textures := make(map[string]image.Image)

	if !out.Opaque.IsEmpty() || !out.Transparent.IsEmpty() {
		textures["textures/atlas.png"] = out.Atlas.Image
		if !out.Opaque.IsEmpty() {
			parts = append(parts, usdPart{
				name: "blocks", mesh: out.Opaque,
				texture: "textures/atlas.png", wrap: "clamp",
			})
		}
		if !out.Transparent.IsEmpty() {
			parts = append(parts, usdPart{
				name: "blocks_transparent", mesh: out.Transparent,
				texture: "textures/atlas.png", wrap: "clamp", transparent: true,
			})
		}
	}

	for i, tiled := range out.Tiled {
		if tiled.Mesh.IsEmpty() {
			continue
		}
		texPath := fmt.Sprintf("textures/%s.png", sanitizeName(tiled.Texture))
		if _, ok := textures[texPath]; !ok {
			img, found := out.TileImages[tiled.Texture]
			if !found {
				return nil, nil, fmt.Errorf("no image for tiled texture '%s'", tiled.Texture)
			}
			textures[texPath] = img
		}
		parts = append(parts, usdPart{
			name: fmt.Sprintf("tiled_%d_%s", i, sanitizeName(tiled.Texture)),
			mesh: tiled.Mesh, texture: texPath, wrap: "repeat",
			transparent: tiled.Transparent,
		})
	}

	if len(parts) == 0 {
		return nil, nil, fmt.Errorf("nothing to export")
	}
	return parts, textures, nil
}

// buildUSDA renders the stage text.
func buildUSDA(parts []usdPart) string {
	var b strings.Builder
	b.WriteString("#usda 1.0\n(\n")
	b.WriteString("    defaultPrim = \"Root\"\n")
	b.WriteString("    metersPerUnit = 1\n")
	b.WriteString("    upAxis = \"Y\"\n")
	b.WriteString(")\n\n")
	b.WriteString("def Xform \"Root\"\n{\n")

	for _, part := range parts {
		writeUSDMesh(&b, part)
	}

	b.WriteString("    def Scope \"Materials\"\n    {\n")
	for _, part := range parts {
		writeUSDMaterial(&b, part)
	}
	b.WriteString("    }\n")

	b.WriteString("}\n")
	return b.String()
}

func writeUSDMesh(b *strings.Builder, part usdPart) {
	m := part.mesh
	fmt.Fprintf(b, "    def Mesh \"%s\"\n    {\n", part.name)

	fmt.Fprintf(b, "        int[] faceVertexCounts = [")
	for i := 0; i < m.TriangleCount(); i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("3")
	}
	b.WriteString("]\n")

	fmt.Fprintf(b, "        int[] faceVertexIndices = [")
	for i, idx := range m.Indices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%d", idx)
	}
	b.WriteString("]\n")

	fmt.Fprintf(b, "        point3f[] points = [")
	for i, v := range m.Vertices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "(%g, %g, %g)", v.Position[0], v.Position[1], v.Position[2])
	}
	b.WriteString("]\n")

	fmt.Fprintf(b, "        normal3f[] normals = [")
	for i, v := range m.Vertices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "(%g, %g, %g)", v.Normal[0], v.Normal[1], v.Normal[2])
	}
	b.WriteString("] (\n            interpolation = \"vertex\"\n        )\n")

	fmt.Fprintf(b, "        texCoord2f[] primvars:st = [")
	for i, v := range m.Vertices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "(%g, %g)", v.UV[0], 1-v.UV[1])
	}
	b.WriteString("] (\n            interpolation = \"vertex\"\n        )\n")

	fmt.Fprintf(b, "        color3f[] primvars:displayColor = [")
	for i, v := range m.Vertices {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "(%g, %g, %g)", v.Color[0], v.Color[1], v.Color[2])
	}
	b.WriteString("] (\n            interpolation = \"vertex\"\n        )\n")

	b.WriteString("        uniform token subdivisionScheme = \"none\"\n")
	fmt.Fprintf(b, "        rel material:binding = </Root/Materials/mat_%s>\n", part.name)
	b.WriteString("    }\n")
}

func writeUSDMaterial(b *strings.Builder, part usdPart) {
	prefix := fmt.Sprintf("/Root/Materials/mat_%s", part.name)
	fmt.Fprintf(b, "        def Material \"mat_%s\"\n        {\n", part.name)
	fmt.Fprintf(b, "            token outputs:surface.connect = <%s/surface.outputs:surface>\n", prefix)

	b.WriteString("            def Shader \"surface\"\n            {\n")
	b.WriteString("                uniform token info:id = \"UsdPreviewSurface\"\n")
	fmt.Fprintf(b, "                color3f inputs:diffuseColor.connect = <%s/tex.outputs:rgb>\n", prefix)
	if part.transparent {
		fmt.Fprintf(b, "                float inputs:opacity.connect = <%s/tex.outputs:a>\n", prefix)
	}
	b.WriteString("                float inputs:metallic = 0\n")
	b.WriteString("                float inputs:roughness = 1\n")
	b.WriteString("                token outputs:surface\n")
	b.WriteString("            }\n")

	b.WriteString("            def Shader \"stReader\"\n            {\n")
	b.WriteString("                uniform token info:id = \"UsdPrimvarReader_float2\"\n")
	b.WriteString("                token inputs:varname = \"st\"\n")
	b.WriteString("                float2 outputs:result\n")
	b.WriteString("            }\n")

	b.WriteString("            def Shader \"tex\"\n            {\n")
	b.WriteString("                uniform token info:id = \"UsdUVTexture\"\n")
	fmt.Fprintf(b, "                asset inputs:file = @%s@\n", part.texture)
	fmt.Fprintf(b, "                float2 inputs:st.connect = <%s/stReader.outputs:result>\n", prefix)
	fmt.Fprintf(b, "                token inputs:wrapS = \"%s\"\n", part.wrap)
	fmt.Fprintf(b, "                token inputs:wrapT = \"%s\"\n", part.wrap)
	b.WriteString("                float3 outputs:rgb\n")
	b.WriteString("                float outputs:a\n")
	b.WriteString("            }\n")

	b.WriteString("        }\n")
}

// WriteUSDA writes a .usda stage with its textures next to it.
func WriteUSDA(out *mesher.Output, path string) error {
	parts, textures, err := collectUSDParts(out)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	for name, img := range textures {
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writePNG(target, img); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(buildUSDA(parts)), 0o644)
}

// usdzAlignment is the byte alignment USDZ requires for file data.
const usdzAlignment = 64

// WriteUSDZ writes a .usdz archive: an uncompressed zip whose entries
// are 64-byte aligned, stage first.
func WriteUSDZ(out *mesher.Output, path string) error {
	parts, textures, err := collectUSDParts(out)
	if err != nil {
		return err
	}

	type entry struct {
		name string
		data []byte
	}
	entries := []entry{{name: "model.usda", data: []byte(buildUSDA(parts))}}
	texNames := make([]string, 0, len(textures))
	for name := range textures {
		texNames = append(texNames, name)
	}
	// Deterministic archive layout.
	sort.Strings(texNames)
	for _, name := range texNames {
		var buf bytes.Buffer
		if err := png.Encode(&buf, textures[name]); err != nil {
			return err
		}
		entries = append(entries, entry{name: name, data: buf.Bytes()})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// CreateRaw with precomputed sizes keeps the local headers exact,
	// with no trailing data descriptors, so offsets stay predictable.
	w := zip.NewWriter(f)
	offset := 0
	for _, e := range entries {
		size := uint64(len(e.data))
		header := &zip.FileHeader{
			Name:               e.name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(e.data),
			CompressedSize64:   size,
			UncompressedSize64: size,
		}
		// Local header is 30 bytes plus name plus extra; pad the extra
		// field so the file data starts on a 64-byte boundary.
		headerSize := 30 + len(e.name)
		dataStart := offset + headerSize
		if pad := dataStart % usdzAlignment; pad != 0 {
			padding := usdzAlignment - pad
			if padding < 4 {
				padding += usdzAlignment
			}
			extra := make([]byte, padding)
			// Extra field id 0x1986, the usdz padding convention.
			extra[0] = 0x86
			extra[1] = 0x19
			extra[2] = byte(padding - 4)
			extra[3] = byte((padding - 4) >> 8)
			header.Extra = extra
			headerSize += padding
		}
		fw, err := w.CreateRaw(header)
		if err != nil {
			return err
		}
		if _, err := fw.Write(e.data); err != nil {
			return err
		}
		offset += headerSize + len(e.data)
	}
	return w.Close()
}
