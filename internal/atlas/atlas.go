// Package atlas packs block textures into a single atlas image using
// row packing with power-of-two growth.
package atlas

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
)

// Region is the normalized UV rectangle of one texture in the atlas.
type Region struct {
	UMin, VMin float32
	UMax, VMax float32
}

func (r Region) Width() float32  { return r.UMax - r.UMin }
func (r Region) Height() float32 { return r.VMax - r.VMin }

// TransformUV maps a local texture coordinate in [0,1] to an atlas
// coordinate.
func (r Region) TransformUV(u, v float32) (float32, float32) {
	return r.UMin + u*r.Width(), r.VMin + v*r.Height()
}

// Atlas is a packed texture atlas plus the region of each texture.
type Atlas struct {
	Image   *image.RGBA
	Regions map[string]Region
}

// Empty returns a 16x16 all-white atlas used when a scene has no
// textures at all.
func Empty() *Atlas {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return &Atlas{Image: img, Regions: make(map[string]Region)}
}

func (a *Atlas) Width() int  { return a.Image.Bounds().Dx() }
func (a *Atlas) Height() int { return a.Image.Bounds().Dy() }

func (a *Atlas) Region(texture string) (Region, bool) {
	r, ok := a.Regions[texture]
	return r, ok
}

func (a *Atlas) Contains(texture string) bool {
	_, ok := a.Regions[texture]
	return ok
}

// EncodePNG writes the atlas image as PNG.
func (a *Atlas) EncodePNG(w io.Writer) error {
	return png.Encode(w, a.Image)
}

// WritePNG writes the atlas image to a file.
func (a *Atlas) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
