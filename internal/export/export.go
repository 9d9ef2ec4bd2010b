package export

import (
	"fmt"
	"strings"

	"voxmesh/internal/mesher"
)

// Format selects an output file format.
type Format int

const (
	FormatGLB Format = iota
	FormatGLTF
	FormatOBJ
	FormatUSDA
	FormatUSDZ
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatGLB:
		return "glb"
	case FormatGLTF:
		return "gltf"
	case FormatOBJ:
		return "obj"
	case FormatUSDA:
		return "usda"
	case FormatUSDZ:
		return "usdz"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "glb":
		return FormatGLB, nil
	case "gltf":
		return FormatGLTF, nil
	case "obj":
		return FormatOBJ, nil
	case "usd", "usda":
		return FormatUSDA, nil
	case "usdz":
		return FormatUSDZ, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("unknown format '%s'", s)
}

// ExportError wraps a failure while writing one output file.
type ExportError struct {
	Format Format
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("could not export %s to '%s': %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Export writes the mesher output to path in the given format.
func Export(out *mesher.Output, path string, format Format) error {
	var err error
	switch format {
	case FormatGLB:
		err = WriteGLTF(out, path, true)
	case FormatGLTF:
		err = WriteGLTF(out, path, false)
	case FormatOBJ:
		err = WriteOBJ(out, path)
	case FormatUSDA:
		err = WriteUSDA(out, path)
	case FormatUSDZ:
		err = WriteUSDZ(out, path)
	case FormatJSON:
		err = WriteJSON(out, path)
	default:
		err = fmt.Errorf("unsupported format")
	}
	if err != nil {
		return &ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}
