package atlas

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// CapacityError is returned when the textures do not fit into the
// largest atlas the caller allows. RequiredArea counts every padded
// texture cell; AvailableArea is the largest atlas's pixel count.
type CapacityError struct {
	Textures      int
	MaxSize       int
	RequiredArea  int
	AvailableArea int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("failed to pack %d textures into %dx%d atlas: need %d px, have %d px",
		e.Textures, e.MaxSize, e.MaxSize, e.RequiredArea, e.AvailableArea)
}

// Builder collects textures and packs them into an Atlas.
type Builder struct {
	maxSize  int
	padding  int
	tileSize int
	textures map[string]*image.RGBA
}

// NewBuilder creates a builder. maxSize caps the atlas edge length,
// padding is the per-texture border in pixels. A tileSize > 0 rescales
// every texture to tileSize x tileSize before packing, which keeps
// mixed-resolution packs uniform.
func NewBuilder(maxSize, padding, tileSize int) *Builder {
	return &Builder{
		maxSize:  maxSize,
		padding:  padding,
		tileSize: tileSize,
		textures: make(map[string]*image.RGBA),
	}
}

// AddTexture registers a texture image under its resource location.
// Adding the same location twice keeps the first image.
func (b *Builder) AddTexture(location string, img *image.RGBA) {
	if _, ok := b.textures[location]; ok {
		return
	}
	if b.tileSize > 0 && (img.Bounds().Dx() != b.tileSize || img.Bounds().Dy() != b.tileSize) {
		scaled := resize.Resize(uint(b.tileSize), uint(b.tileSize), img, resize.NearestNeighbor)
		rgba, ok := scaled.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(scaled.Bounds())
			xdraw.Draw(rgba, rgba.Bounds(), scaled, scaled.Bounds().Min, xdraw.Src)
		}
		img = rgba
	}
	b.textures[location] = img
}

func (b *Builder) Len() int {
	return len(b.textures)
}

// Build packs all textures using row packing, sorted tallest first.
// The atlas starts at 64x64 and doubles until everything fits or
// maxSize is exceeded.
func (b *Builder) Build() (*Atlas, error) {
	if len(b.textures) == 0 {
		return Empty(), nil
	}

	entries := make([]packEntry, 0, len(b.textures))
	totalArea := 0
	for loc, img := range b.textures {
		entries = append(entries, packEntry{loc, img})
		totalArea += (img.Bounds().Dx() + b.padding*2) * (img.Bounds().Dy() + b.padding*2)
	}
	sort.Slice(entries, func(i, j int) bool {
		hi, hj := entries[i].img.Bounds().Dy(), entries[j].img.Bounds().Dy()
		if hi != hj {
			return hi > hj
		}
		return entries[i].location < entries[j].location
	})

	minSize := int(math.Ceil(math.Sqrt(float64(totalArea))))
	size := 64
	for size < minSize && size < b.maxSize {
		size *= 2
	}

	for {
		if size > b.maxSize {
			return nil, &CapacityError{
				Textures:      len(entries),
				MaxSize:       b.maxSize,
				RequiredArea:  totalArea,
				AvailableArea: b.maxSize * b.maxSize,
			}
		}
		atlas := b.tryPack(entries, size)
		if atlas != nil {
			return atlas, nil
		}
		size *= 2
	}
}

type packEntry struct {
	location string
	img      *image.RGBA
}

func (b *Builder) tryPack(entries []packEntry, size int) *Atlas {
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	regions := make(map[string]Region, len(entries))

	curX, curY, rowHeight := 0, 0, 0
	for _, e := range entries {
		w := e.img.Bounds().Dx()
		h := e.img.Bounds().Dy()
		cellW := w + b.padding*2
		cellH := h + b.padding*2

		if curX+cellW > size {
			curX = 0
			curY += rowHeight
			rowHeight = 0
		}
		if curY+cellH > size {
			return nil
		}

		copyClamped(out, e.img, curX, curY, cellW, cellH, b.padding)

		x := curX + b.padding
		y := curY + b.padding
		regions[e.location] = Region{
			UMin: float32(x) / float32(size),
			VMin: float32(y) / float32(size),
			UMax: float32(x+w) / float32(size),
			VMax: float32(y+h) / float32(size),
		}

		curX += cellW
		if cellH > rowHeight {
			rowHeight = cellH
		}
	}

	return &Atlas{Image: out, Regions: regions}
}

// copyClamped copies src into dst at (dstX, dstY) including a padding
// border filled with the nearest edge pixel, so bilinear sampling does
// not bleed neighboring textures across texel boundaries.
func copyClamped(dst, src *image.RGBA, dstX, dstY, cellW, cellH, padding int) {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	for py := 0; py < cellH; py++ {
		sy := clamp(py-padding, 0, h-1)
		for px := 0; px < cellW; px++ {
			sx := clamp(px-padding, 0, w-1)
			si := src.PixOffset(sb.Min.X+sx, sb.Min.Y+sy)
			di := dst.PixOffset(dstX+px, dstY+py)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
