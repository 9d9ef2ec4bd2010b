package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"voxmesh/internal/config"
	"voxmesh/internal/export"
	"voxmesh/internal/mesher"
	"voxmesh/pkg/blockmodel"
	"voxmesh/pkg/types"
)

func main() {
	var (
		inPath     = flag.String("in", "", "input schematic (JSON block list)")
		packPath   = flag.String("pack", "", "resource pack directory or zip")
		outPath    = flag.String("out", "scene.glb", "output file")
		formatName = flag.String("format", "", "output format (glb, gltf, obj, usda, usdz, json); inferred from -out when empty")
		configPath = flag.String("config", "", "TOML settings file")
		biome      = flag.String("biome", "", "biome for tint colors")
		greedy     = flag.Bool("greedy", false, "merge coplanar faces into larger quads")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true}
	if *verbose {
		log.Level = logrus.DebugLevel
	}
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)

	if *inPath == "" || *packPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(log, *inPath, *packPath, *outPath, *formatName, *configPath, *biome, *greedy); err != nil {
		log.Fatal(err)
	}
}

func run(log *logrus.Logger, inPath, packPath, outPath, formatName, configPath, biome string, greedy bool) error {
	opts := mesher.DefaultOptions()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		opts = loaded
	}
	if biome != "" {
		opts.Biome = biome
	}
	if greedy {
		opts.Greedy = true
	}

	if formatName == "" {
		formatName = strings.TrimPrefix(filepath.Ext(outPath), ".")
		if formatName == "" {
			formatName = "glb"
		}
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}

	pack, closePack, err := openPack(packPath)
	if err != nil {
		return err
	}
	defer closePack()

	source, err := loadSchematic(inPath)
	if err != nil {
		return err
	}
	log.Infof("loaded %d blocks from %s", source.Len(), inPath)

	m, err := mesher.New(pack, opts)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := m.Mesh(context.Background(), source)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"vertices":  out.TotalVertices(),
		"triangles": out.TotalTriangles(),
		"chunks":    out.Stats.Chunks,
		"atlas":     fmt.Sprintf("%dx%d", out.Atlas.Width(), out.Atlas.Height()),
		"took":      time.Since(start).Round(time.Millisecond),
	}).Info("meshing done")

	if err := export.Export(out, outPath, format); err != nil {
		return err
	}
	log.Infof("wrote %s", outPath)
	return nil
}

func openPack(path string) (blockmodel.ResourcePack, func(), error) {
	if strings.HasSuffix(strings.ToLower(path), ".zip") {
		pack, err := blockmodel.NewZipPack(path)
		if err != nil {
			return nil, nil, err
		}
		return pack, func() { pack.Close() }, nil
	}
	pack, err := blockmodel.NewDirPack(path)
	if err != nil {
		return nil, nil, err
	}
	return pack, func() {}, nil
}

// schematicBlock is one entry of the input JSON. Both a bare array and
// an object with a "blocks" key are accepted.
type schematicBlock struct {
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Z          int               `json:"z"`
	Block      string            `json:"block"`
	Properties map[string]string `json:"properties"`
}

func loadSchematic(path string) (*types.MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read schematic: %w", err)
	}

	var entries []schematicBlock
	if err := json.Unmarshal(data, &entries); err != nil {
		var wrapper struct {
			Blocks []schematicBlock `json:"blocks"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("could not parse schematic: %w", err)
		}
		entries = wrapper.Blocks
	}

	source := types.NewMapSource()
	for _, e := range entries {
		if e.Block == "" {
			continue
		}
		block := types.NewBlock(e.Block)
		for k, v := range e.Properties {
			block = block.WithProperty(k, v)
		}
		source.Set(types.Pos(e.X, e.Y, e.Z), block)
	}
	return source, nil
}
