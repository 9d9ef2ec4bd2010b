package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"voxmesh/internal/mesher"
)

// Settings is the TOML configuration file layout. Every field has a
// working default, so a partial file only overrides what it names.
type Settings struct {
	Culling struct {
		HiddenFaces    *bool `toml:"hidden_faces"`
		OccludedBlocks *bool `toml:"occluded_blocks"`
	} `toml:"culling"`

	Greedy     bool   `toml:"greedy"`
	IncludeAir bool   `toml:"include_air"`
	Biome      string `toml:"biome"`

	Atlas struct {
		MaxSize  int `toml:"max_size"`
		Padding  int `toml:"padding"`
		TileSize int `toml:"tile_size"`
	} `toml:"atlas"`

	AO struct {
		Enabled   *bool   `toml:"enabled"`
		Intensity float64 `toml:"intensity"`
	} `toml:"ao"`

	Light struct {
		Block    bool    `toml:"block"`
		Sky      bool    `toml:"sky"`
		SkyLevel int     `toml:"sky_level"`
		Ambient  float64 `toml:"ambient"`
	} `toml:"light"`

	Workers   int `toml:"workers"`
	ChunkSize int `toml:"chunk_size"`
}

// Load reads a settings file and folds it over the default options.
func Load(path string) (mesher.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return mesher.Options{}, fmt.Errorf("could not read config file: %w", err)
	}
	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return mesher.Options{}, fmt.Errorf("could not parse config file: %w", err)
	}
	return settings.Options(), nil
}

// Options maps the file onto mesher options, clamping out-of-range
// values to something workable instead of failing.
func (s *Settings) Options() mesher.Options {
	opts := mesher.DefaultOptions()

	if s.Culling.HiddenFaces != nil {
		opts.CullHiddenFaces = *s.Culling.HiddenFaces
	}
	if s.Culling.OccludedBlocks != nil {
		opts.CullOccludedBlocks = *s.Culling.OccludedBlocks
	}
	opts.Greedy = s.Greedy
	opts.IncludeAir = s.IncludeAir
	opts.Biome = s.Biome

	if s.Atlas.MaxSize > 0 {
		opts.AtlasMaxSize = clampPow2(s.Atlas.MaxSize, 16, 16384)
	}
	if s.Atlas.Padding > 0 {
		opts.AtlasPadding = clampInt(s.Atlas.Padding, 0, 16)
	}
	if s.Atlas.TileSize > 0 {
		opts.AtlasTileSize = clampInt(s.Atlas.TileSize, 1, 1024)
	}

	if s.AO.Enabled != nil {
		opts.AmbientOcclusion = *s.AO.Enabled
	}
	if s.AO.Intensity > 0 {
		opts.AOIntensity = float32(clampFloat(s.AO.Intensity, 0, 1))
	}

	opts.BlockLight = s.Light.Block
	opts.SkyLight = s.Light.Sky
	if s.Light.SkyLevel > 0 {
		opts.SkyLightLevel = uint8(clampInt(s.Light.SkyLevel, 0, 15))
	}
	if s.Light.Ambient > 0 {
		opts.AmbientLight = float32(clampFloat(s.Light.Ambient, 0, 1))
	}

	if s.Workers > 0 {
		opts.Workers = clampInt(s.Workers, 1, 256)
	}
	if s.ChunkSize > 0 {
		opts.ChunkSize = clampInt(s.ChunkSize, 1, 512)
	}

	return opts
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampPow2 clamps and rounds up to the next power of two.
func clampPow2(v, lo, hi int) int {
	v = clampInt(v, lo, hi)
	p := lo
	for p < v {
		p <<= 1
	}
	return p
}
