package atlas

import (
	"errors"
	"image"
	"testing"
)

func solidTexture(size int, r, g, b, a uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = r
		img.Pix[i+1] = g
		img.Pix[i+2] = b
		img.Pix[i+3] = a
	}
	return img
}

func TestEmptyAtlas(t *testing.T) {
	a, err := NewBuilder(256, 0, 0).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if a.Width() != 16 || a.Height() != 16 {
		t.Fatalf("got %dx%d, want 16x16", a.Width(), a.Height())
	}
	if len(a.Regions) != 0 {
		t.Fatalf("empty atlas should have no regions")
	}
	// All white.
	if a.Image.Pix[0] != 255 || a.Image.Pix[3] != 255 {
		t.Fatalf("empty atlas should be white, got pixel %v", a.Image.Pix[:4])
	}
}

func TestSingleTexture(t *testing.T) {
	b := NewBuilder(256, 0, 0)
	b.AddTexture("block/stone", solidTexture(16, 128, 128, 128, 255))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	region, ok := a.Region("block/stone")
	if !ok {
		t.Fatalf("missing region for block/stone")
	}
	if region.UMin < 0 || region.UMax > 1 || region.VMin < 0 || region.VMax > 1 {
		t.Fatalf("region out of range: %+v", region)
	}
	u, v := region.TransformUV(0.5, 0.5)
	if u <= region.UMin || u >= region.UMax || v <= region.VMin || v >= region.VMax {
		t.Fatalf("transformUV(0.5, 0.5) = (%f, %f) outside region %+v", u, v, region)
	}
}

func TestRegionsDoNotOverlap(t *testing.T) {
	b := NewBuilder(256, 1, 0)
	b.AddTexture("red", solidTexture(16, 255, 0, 0, 255))
	b.AddTexture("green", solidTexture(16, 0, 255, 0, 255))
	b.AddTexture("blue", solidTexture(32, 0, 0, 255, 255))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	names := []string{"red", "green", "blue"}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			r1, r2 := a.Regions[names[i]], a.Regions[names[j]]
			overlapU := r1.UMin < r2.UMax && r2.UMin < r1.UMax
			overlapV := r1.VMin < r2.VMax && r2.VMin < r1.VMax
			if overlapU && overlapV {
				t.Fatalf("regions %s and %s overlap: %+v vs %+v", names[i], names[j], r1, r2)
			}
		}
	}
}

func TestPaddingEdgeClamp(t *testing.T) {
	b := NewBuilder(256, 2, 0)
	b.AddTexture("red", solidTexture(16, 255, 0, 0, 255))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	region := a.Regions["red"]
	// One pixel outside the region must still be red, not black.
	px := int(region.UMin*float32(a.Width())) - 1
	py := int(region.VMin*float32(a.Height())) - 1
	i := a.Image.PixOffset(px, py)
	if a.Image.Pix[i] != 255 || a.Image.Pix[i+3] != 255 {
		t.Fatalf("padding pixel at (%d,%d): got %v, want clamped red", px, py, a.Image.Pix[i:i+4])
	}
}

func TestCapacityError(t *testing.T) {
	b := NewBuilder(64, 0, 0)
	for i := 0; i < 32; i++ {
		b.AddTexture(string(rune('a'+i)), solidTexture(32, 0, 0, 0, 255))
	}
	_, err := b.Build()
	if err == nil {
		t.Fatalf("expected capacity error")
	}
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %T", err)
	}
	if capErr.Textures != 32 || capErr.MaxSize != 64 {
		t.Fatalf("got %+v", capErr)
	}
	if got, want := capErr.RequiredArea, 32*32*32; got != want {
		t.Fatalf("required area: got %d, want %d", got, want)
	}
	if got, want := capErr.AvailableArea, 64*64; got != want {
		t.Fatalf("available area: got %d, want %d", got, want)
	}
}

func TestTileNormalization(t *testing.T) {
	b := NewBuilder(256, 0, 16)
	b.AddTexture("big", solidTexture(64, 10, 20, 30, 255))

	a, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	region := a.Regions["big"]
	w := (region.UMax - region.UMin) * float32(a.Width())
	if int(w+0.5) != 16 {
		t.Fatalf("normalized width: got %f, want 16", w)
	}
}
