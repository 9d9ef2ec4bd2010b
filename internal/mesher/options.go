package mesher

// Options controls every stage of the meshing pipeline.
type Options struct {
	// CullHiddenFaces removes faces buried between adjacent blocks.
	CullHiddenFaces bool
	// CullOccludedBlocks skips blocks whose six neighbors are all opaque.
	CullOccludedBlocks bool
	// Greedy merges coplanar same-texture faces into larger quads.
	// Merged quads use per-texture repeat materials instead of the atlas.
	Greedy bool
	// IncludeAir keeps air blocks in the block map (normally pointless).
	IncludeAir bool

	// AtlasMaxSize caps the atlas edge length in pixels.
	AtlasMaxSize int
	// AtlasPadding is the per-texture border in pixels.
	AtlasPadding int
	// AtlasTileSize rescales every texture to this edge length before
	// packing. Zero keeps original sizes.
	AtlasTileSize int

	// AmbientOcclusion darkens vertices near occluding neighbors.
	AmbientOcclusion bool
	// AOIntensity scales AO darkening, 0 to 1.
	AOIntensity float32

	// BlockLight propagates light from emissive blocks.
	BlockLight bool
	// SkyLight propagates sunlight from above.
	SkyLight bool
	// SkyLightLevel is the sky brightness, 0-15.
	SkyLightLevel uint8
	// AmbientLight is the brightness floor for unlit areas.
	AmbientLight float32

	// Biome selects the tint palette ("plains" when empty).
	Biome string

	// Workers is the number of chunk meshing goroutines. Zero means
	// one per CPU.
	Workers int
	// ChunkSize is the cube edge length used to split work. Zero
	// meshes the whole scene as a single unit.
	ChunkSize int
}

// DefaultOptions returns the baseline configuration.
func DefaultOptions() Options {
	return Options{
		CullHiddenFaces:    true,
		CullOccludedBlocks: true,
		Greedy:             false,
		IncludeAir:         false,
		AtlasMaxSize:       4096,
		AtlasPadding:       1,
		AtlasTileSize:      0,
		AmbientOcclusion:   true,
		AOIntensity:        0.4,
		BlockLight:         false,
		SkyLight:           false,
		SkyLightLevel:      15,
		AmbientLight:       0.05,
	}
}

// LightingEnabled reports whether any light pass runs.
func (o Options) LightingEnabled() bool {
	return o.BlockLight || o.SkyLight
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.AtlasMaxSize < 16 {
		return &ConfigError{Option: "atlas_max_size", Value: o.AtlasMaxSize, Reason: "must be at least 16"}
	}
	if o.AtlasMaxSize&(o.AtlasMaxSize-1) != 0 {
		return &ConfigError{Option: "atlas_max_size", Value: o.AtlasMaxSize, Reason: "must be a power of two"}
	}
	if o.AtlasPadding < 0 {
		return &ConfigError{Option: "atlas_padding", Value: o.AtlasPadding, Reason: "must not be negative"}
	}
	if o.AtlasTileSize < 0 {
		return &ConfigError{Option: "atlas_tile_size", Value: o.AtlasTileSize, Reason: "must not be negative"}
	}
	if o.AOIntensity < 0 || o.AOIntensity > 1 {
		return &ConfigError{Option: "ao_intensity", Value: o.AOIntensity, Reason: "must be between 0 and 1"}
	}
	if o.SkyLightLevel > 15 {
		return &ConfigError{Option: "sky_light_level", Value: o.SkyLightLevel, Reason: "must be between 0 and 15"}
	}
	if o.AmbientLight < 0 || o.AmbientLight > 1 {
		return &ConfigError{Option: "ambient_light", Value: o.AmbientLight, Reason: "must be between 0 and 1"}
	}
	if o.Workers < 0 {
		return &ConfigError{Option: "workers", Value: o.Workers, Reason: "must not be negative"}
	}
	if o.ChunkSize < 0 {
		return &ConfigError{Option: "chunk_size", Value: o.ChunkSize, Reason: "must not be negative"}
	}
	return nil
}
