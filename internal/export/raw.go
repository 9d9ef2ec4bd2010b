package export

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"os"

	"voxmesh/internal/mesher"
)

// rawMesh is the JSON form of one mesh.
type rawMesh struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Colors    []float32 `json:"colors"`
	Indices   []uint32  `json:"indices"`
}

type rawTiled struct {
	Texture     string  `json:"texture"`
	Transparent bool    `json:"transparent"`
	Mesh        rawMesh `json:"mesh"`
}

type rawScene struct {
	Opaque      rawMesh             `json:"opaque"`
	Transparent rawMesh             `json:"transparent"`
	AtlasPNG    string              `json:"atlas_png"`
	AtlasWidth  int                 `json:"atlas_width"`
	AtlasHeight int                 `json:"atlas_height"`
	Tiled       []rawTiled          `json:"tiled,omitempty"`
	Textures    map[string]string   `json:"textures,omitempty"`
	Stats       map[string]int      `json:"stats"`
}

func toRawMesh(m *mesher.Mesh) rawMesh {
	return rawMesh{
		Positions: m.PositionsFlat(),
		Normals:   m.NormalsFlat(),
		UVs:       m.UVsFlat(),
		Colors:    m.ColorsFlat(),
		Indices:   m.Indices,
	}
}

// WriteJSON dumps the whole scene as JSON with base64 PNG textures,
// mainly for debugging and downstream tooling.
func WriteJSON(out *mesher.Output, path string) error {
	var atlasBuf bytes.Buffer
	if err := out.Atlas.EncodePNG(&atlasBuf); err != nil {
		return err
	}

	scene := rawScene{
		Opaque:      toRawMesh(out.Opaque),
		Transparent: toRawMesh(out.Transparent),
		AtlasPNG:    base64.StdEncoding.EncodeToString(atlasBuf.Bytes()),
		AtlasWidth:  out.Atlas.Width(),
		AtlasHeight: out.Atlas.Height(),
		Stats: map[string]int{
			"blocks":       out.Stats.Blocks,
			"chunks":       out.Stats.Chunks,
			"merged_quads": out.Stats.MergedQuads,
			"vertices":     out.TotalVertices(),
			"triangles":    out.TotalTriangles(),
		},
	}

	for _, tiled := range out.Tiled {
		scene.Tiled = append(scene.Tiled, rawTiled{
			Texture:     tiled.Texture,
			Transparent: tiled.Transparent,
			Mesh:        toRawMesh(tiled.Mesh),
		})
	}
	if len(out.TileImages) > 0 {
		scene.Textures = make(map[string]string, len(out.TileImages))
		for name, img := range out.TileImages {
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return err
			}
			scene.Textures[name] = base64.StdEncoding.EncodeToString(buf.Bytes())
		}
	}

	data, err := json.MarshalIndent(scene, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
