package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"voxmesh/internal/mesher"
)

// WriteGLTF writes the scene as glTF, binary (.glb) or JSON (.gltf).
// The opaque and transparent atlas meshes become two primitives of one
// node; tiled greedy meshes get one primitive and repeat-wrap material
// each.
func WriteGLTF(out *mesher.Output, path string, binary bool) error {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxmesh"

	clampSampler := len(doc.Samplers)
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearest,
		WrapS:     gltf.WrapClampToEdge,
		WrapT:     gltf.WrapClampToEdge,
	})
	repeatSampler := len(doc.Samplers)
	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MagFilter: gltf.MagNearest,
		MinFilter: gltf.MinNearest,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	})

	addTexture := func(name string, img image.Image, sampler int) (int, error) {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return 0, fmt.Errorf("could not encode texture '%s': %w", name, err)
		}
		imgIdx, err := modeler.WriteImage(doc, name, "image/png", &buf)
		if err != nil {
			return 0, fmt.Errorf("could not write texture '%s': %w", name, err)
		}
		texIdx := len(doc.Textures)
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Sampler: gltf.Index(sampler),
			Source:  gltf.Index(imgIdx),
		})
		return texIdx, nil
	}

	addMaterial := func(name string, texIdx int, transparent bool) int {
		material := &gltf.Material{
			Name: name,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float64{1, 1, 1, 1},
				BaseColorTexture: &gltf.TextureInfo{
					Index: texIdx,
				},
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		}
		if transparent {
			material.AlphaMode = gltf.AlphaBlend
			material.DoubleSided = true
		} else {
			material.AlphaMode = gltf.AlphaOpaque
		}
		idx := len(doc.Materials)
		doc.Materials = append(doc.Materials, material)
		return idx
	}

	addPrimitive := func(m *mesher.Mesh, matIdx int) *gltf.Primitive {
		positions := make([][3]float32, len(m.Vertices))
		normals := make([][3]float32, len(m.Vertices))
		uvs := make([][2]float32, len(m.Vertices))
		colors := make([][4]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = v.Position
			normals[i] = v.Normal
			uvs[i] = v.UV
			colors[i] = v.Color
		}
		indices := make([]uint32, len(m.Indices))
		copy(indices, m.Indices)

		return &gltf.Primitive{
			Attributes: map[string]int{
				gltf.POSITION:   modeler.WritePosition(doc, positions),
				gltf.NORMAL:     modeler.WriteNormal(doc, normals),
				gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
				gltf.COLOR_0:    modeler.WriteColor(doc, colors),
			},
			Indices:  gltf.Index(modeler.WriteIndices(doc, indices)),
			Material: gltf.Index(matIdx),
		}
	}

	var primitives []*gltf.Primitive

	if !out.Opaque.IsEmpty() || !out.Transparent.IsEmpty() {
		atlasTex, err := addTexture("atlas", out.Atlas.Image, clampSampler)
		if err != nil {
			return err
		}
		if !out.Opaque.IsEmpty() {
			primitives = append(primitives, addPrimitive(out.Opaque, addMaterial("blocks", atlasTex, false)))
		}
		if !out.Transparent.IsEmpty() {
			primitives = append(primitives, addPrimitive(out.Transparent, addMaterial("blocks_transparent", atlasTex, true)))
		}
	}

	tileTextures := make(map[string]int)
	for _, tiled := range out.Tiled {
		if tiled.Mesh.IsEmpty() {
			continue
		}
		texIdx, ok := tileTextures[tiled.Texture]
		if !ok {
			img, found := out.TileImages[tiled.Texture]
			if !found {
				return fmt.Errorf("no image for tiled texture '%s'", tiled.Texture)
			}
			var err error
			texIdx, err = addTexture(tiled.Texture, img, repeatSampler)
			if err != nil {
				return err
			}
			tileTextures[tiled.Texture] = texIdx
		}
		matIdx := addMaterial(tiled.Texture, texIdx, tiled.Transparent)
		primitives = append(primitives, addPrimitive(tiled.Mesh, matIdx))
	}

	if len(primitives) == 0 {
		return fmt.Errorf("nothing to export")
	}

	doc.Meshes = []*gltf.Mesh{{Name: "blocks", Primitives: primitives}}
	doc.Nodes = []*gltf.Node{{Name: "blocks", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if binary {
		return gltf.SaveBinary(doc, path)
	}
	return gltf.Save(doc, path)
}
