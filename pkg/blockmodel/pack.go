package blockmodel

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ResourcePack provides blockstate definitions, models and textures by
// resource location. Implementations must be safe for concurrent reads.
type ResourcePack interface {
	// BlockState loads the blockstate JSON for a block id without namespace.
	BlockState(name string) (*BlockState, error)
	// Model loads the raw (unresolved) model JSON for a model location
	// such as "block/cube_all".
	Model(name string) (*Model, error)
	// Texture loads and decodes a texture for a location such as
	// "block/stone".
	Texture(name string) (*Texture, error)
}

// Texture is a decoded texture image. Animated textures are stored as
// vertical frame strips in packs; use FirstFrame for atlas packing.
type Texture struct {
	Name  string
	Image *image.RGBA
}

func decodeTexture(name string, r io.Reader) (*Texture, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode texture '%s': %w", name, err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	return &Texture{Name: name, Image: rgba}, nil
}

func (t *Texture) Width() int  { return t.Image.Bounds().Dx() }
func (t *Texture) Height() int { return t.Image.Bounds().Dy() }

// FirstFrame returns the top square frame of an animated strip, or the
// texture itself when it is not taller than wide.
func (t *Texture) FirstFrame() *image.RGBA {
	b := t.Image.Bounds()
	if b.Dy() <= b.Dx() {
		return t.Image
	}
	return t.Image.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+b.Dx())).(*image.RGBA)
}

// HasTransparency reports whether any pixel has alpha below 255.
func (t *Texture) HasTransparency() bool {
	b := t.Image.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := t.Image.Pix[(y-b.Min.Y)*t.Image.Stride:]
		for x := 0; x < b.Dx(); x++ {
			if row[x*4+3] < 255 {
				return true
			}
		}
	}
	return false
}

// stripNamespace removes a "minecraft:" style prefix.
func stripNamespace(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// DirPack reads assets from an unpacked resource pack directory. The
// root must contain "blockstates", "models" and "textures".
type DirPack struct {
	root string
}

func NewDirPack(root string) (*DirPack, error) {
	// Accept both the assets root itself and a pack root containing
	// assets/minecraft.
	nested := filepath.Join(root, "assets", "minecraft")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		root = nested
	}
	if _, err := os.Stat(filepath.Join(root, "blockstates")); err != nil {
		return nil, fmt.Errorf("no blockstates directory under '%s': %w", root, err)
	}
	return &DirPack{root: root}, nil
}

func (p *DirPack) BlockState(name string) (*BlockState, error) {
	path := filepath.Join(p.root, "blockstates", stripNamespace(name)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read blockstate file: %w", err)
	}
	var state BlockState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("could not unmarshal blockstate json: %w", err)
	}
	return &state, nil
}

func (p *DirPack) Model(name string) (*Model, error) {
	path := filepath.Join(p.root, "models", filepath.FromSlash(stripNamespace(name))+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read model file: %w", err)
	}
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("could not unmarshal model json: %w", err)
	}
	return &model, nil
}

func (p *DirPack) Texture(name string) (*Texture, error) {
	path := filepath.Join(p.root, "textures", filepath.FromSlash(stripNamespace(name))+".png")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open texture file: %w", err)
	}
	defer f.Close()
	return decodeTexture(name, f)
}

// ZipPack reads assets directly from a zipped resource pack.
type ZipPack struct {
	reader *zip.ReadCloser
	files  map[string]*zip.File
	prefix string
}

func NewZipPack(path string) (*ZipPack, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("could not open pack zip: %w", err)
	}
	p := &ZipPack{reader: r, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		p.files[f.Name] = f
	}
	// Packs may be rooted at assets/minecraft or zipped with an extra
	// top-level directory.
	for name := range p.files {
		if i := strings.Index(name, "assets/minecraft/blockstates/"); i >= 0 {
			p.prefix = name[:i] + "assets/minecraft/"
			break
		}
	}
	if p.prefix == "" {
		r.Close()
		return nil, fmt.Errorf("no assets/minecraft/blockstates entries in '%s'", path)
	}
	return p, nil
}

func (p *ZipPack) Close() error {
	return p.reader.Close()
}

func (p *ZipPack) read(name string) ([]byte, error) {
	f, ok := p.files[p.prefix+name]
	if !ok {
		return nil, fmt.Errorf("no pack entry '%s'", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (p *ZipPack) BlockState(name string) (*BlockState, error) {
	data, err := p.read("blockstates/" + stripNamespace(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("could not read blockstate: %w", err)
	}
	var state BlockState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("could not unmarshal blockstate json: %w", err)
	}
	return &state, nil
}

func (p *ZipPack) Model(name string) (*Model, error) {
	data, err := p.read("models/" + stripNamespace(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("could not read model: %w", err)
	}
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("could not unmarshal model json: %w", err)
	}
	return &model, nil
}

func (p *ZipPack) Texture(name string) (*Texture, error) {
	data, err := p.read("textures/" + stripNamespace(name) + ".png")
	if err != nil {
		return nil, fmt.Errorf("could not read texture: %w", err)
	}
	return decodeTexture(name, bytes.NewReader(data))
}
