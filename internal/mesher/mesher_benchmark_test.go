package mesher

import (
	"context"
	"testing"

	"voxmesh/pkg/types"
)

func makeHillScene() *types.MapSource {
	src := types.NewMapSource()
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			height := 2 + (x+z)%4
			for y := 0; y < height; y++ {
				src.Set(types.Pos(x, y, z), types.NewBlock("stone"))
			}
		}
	}
	return src
}

func benchmarkMesh(b *testing.B, opts Options) {
	src := makeHillScene()
	m, err := New(newTestPack(), opts)
	if err != nil {
		b.Fatalf("New() error: %v", err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Mesh(context.Background(), src); err != nil {
			b.Fatalf("Mesh() error: %v", err)
		}
	}
}

func BenchmarkMesh(b *testing.B) {
	benchmarkMesh(b, DefaultOptions())
}

func BenchmarkMeshGreedy(b *testing.B) {
	opts := DefaultOptions()
	opts.Greedy = true
	benchmarkMesh(b, opts)
}

func BenchmarkComputeLightMap(b *testing.B) {
	opts := DefaultOptions()
	opts.BlockLight = true
	opts.SkyLight = true

	blocks := make(map[types.BlockPosition]types.InputBlock)
	makeHillScene().Blocks(func(pos types.BlockPosition, block types.InputBlock) bool {
		blocks[pos] = block
		return true
	})
	blocks[types.Pos(8, 8, 8)] = types.NewBlock("glowstone")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ComputeLightMap(blocks, opts)
	}
}
