package types

import (
	"sort"
	"strings"
)

// InputBlock is a block identifier plus its property map, e.g.
// "minecraft:furnace" with {facing: north, lit: true}.
type InputBlock struct {
	Name       string
	Properties map[string]string
}

func NewBlock(name string) InputBlock {
	return InputBlock{Name: name}
}

// WithProperty returns a copy of the block with one property set.
func (b InputBlock) WithProperty(key, value string) InputBlock {
	props := make(map[string]string, len(b.Properties)+1)
	for k, v := range b.Properties {
		props[k] = v
	}
	props[key] = value
	return InputBlock{Name: b.Name, Properties: props}
}

// Namespace returns the namespace part of the identifier ("minecraft"
// when none is present).
func (b InputBlock) Namespace() string {
	if i := strings.IndexByte(b.Name, ':'); i >= 0 {
		return b.Name[:i]
	}
	return "minecraft"
}

// ID returns the identifier without its namespace.
func (b InputBlock) ID() string {
	if i := strings.IndexByte(b.Name, ':'); i >= 0 {
		return b.Name[i+1:]
	}
	return b.Name
}

func (b InputBlock) IsAir() bool {
	id := b.ID()
	return id == "air" || id == "cave_air" || id == "void_air"
}

// PropertyString builds the canonical "k1=v1,k2=v2" form with keys
// sorted alphabetically, the same format blockstate variant keys use.
func (b InputBlock) PropertyString() string {
	if len(b.Properties) == 0 {
		return ""
	}
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(b.Properties[k])
	}
	return sb.String()
}

// CacheKey is a stable key combining name and sorted properties.
func (b InputBlock) CacheKey() string {
	if len(b.Properties) == 0 {
		return b.Name
	}
	return b.Name + "|" + b.PropertyString()
}

// BlockSource supplies the blocks of a schematic. Implementations must
// not be mutated by the pipeline.
type BlockSource interface {
	// Bounds returns the inclusive-exclusive box that contains every block.
	Bounds() BoundingBox
	// GetBlock returns the block at a position, if any.
	GetBlock(pos BlockPosition) (InputBlock, bool)
	// Blocks calls fn for every (position, block) pair in unspecified
	// order, stopping early if fn returns false.
	Blocks(fn func(pos BlockPosition, block InputBlock) bool)
}

// MapSource is an in-memory BlockSource backed by a position map.
type MapSource struct {
	blocks map[BlockPosition]InputBlock
}

func NewMapSource() *MapSource {
	return &MapSource{blocks: make(map[BlockPosition]InputBlock)}
}

func (s *MapSource) Set(pos BlockPosition, block InputBlock) {
	s.blocks[pos] = block
}

func (s *MapSource) Len() int {
	return len(s.blocks)
}

func (s *MapSource) GetBlock(pos BlockPosition) (InputBlock, bool) {
	b, ok := s.blocks[pos]
	return b, ok
}

func (s *MapSource) Bounds() BoundingBox {
	positions := make([]BlockPosition, 0, len(s.blocks))
	for p := range s.blocks {
		positions = append(positions, p)
	}
	return BoundsFromPositions(positions)
}

func (s *MapSource) Blocks(fn func(pos BlockPosition, block InputBlock) bool) {
	for p, b := range s.blocks {
		if !fn(p, b) {
			return
		}
	}
}
