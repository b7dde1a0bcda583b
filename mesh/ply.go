package mesh

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrMalformedPLY is returned for PLY data that cannot be turned into a triangle mesh.
var ErrMalformedPLY = errors.New("malformed PLY data")

// face list property names used by common exporters.
var plyFaceProperties = []string{"vertex_indices", "vertex_index"}

// ReadPLY parses a PLY mesh with a "vertex" element holding x, y and z properties and a "face"
// element holding vertex index lists. Faces must be triangles.
func ReadPLY(in io.Reader) (m *Mesh, err error) {
	defer func() {
		// goply panics on input it cannot parse
		if thePanic := recover(); thePanic != nil {
			m = nil
			err = errors.Wrapf(ErrMalformedPLY, "%v", thePanic)
		}
	}()
	ply := goply.New(in)

	rawVertices := ply.Elements("vertex")
	if len(rawVertices) == 0 {
		return nil, errors.Wrap(ErrMalformedPLY, "no vertex element")
	}
	vertices := make([]r3.Vector, 0, len(rawVertices))
	for i, v := range rawVertices {
		var coords [3]float64
		for axis, name := range []string{"x", "y", "z"} {
			value, ok := plyNumber(v[name])
			if !ok {
				return nil, errors.Wrapf(ErrMalformedPLY, "vertex %d: missing or non numeric %q", i, name)
			}
			coords[axis] = value
		}
		vertices = append(vertices, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}

	rawFaces := ply.Elements("face")
	triangles := make([]Triangle, 0, len(rawFaces))
	for i, f := range rawFaces {
		indices, ok := plyFaceIndices(f)
		if !ok {
			return nil, errors.Wrapf(ErrMalformedPLY, "face %d: missing vertex index list", i)
		}
		if len(indices) != 3 {
			return nil, errors.Wrapf(ErrMalformedPLY, "face %d: only triangles are supported, got %d vertices", i, len(indices))
		}
		triangles = append(triangles, Triangle{indices[0], indices[1], indices[2]})
	}
	return New(vertices, triangles)
}

// ReadPLYFile reads a PLY mesh from the named file.
func ReadPLYFile(path string) (m *Mesh, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	m, err = ReadPLY(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return m, nil
}

// ReadFile reads a mesh from an .off or .ply file.
func ReadFile(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".off":
		return ReadOFFFile(path)
	case ".ply":
		return ReadPLYFile(path)
	default:
		return nil, errors.Errorf("unsupported mesh extension for %q, want .off or .ply", path)
	}
}

func plyFaceIndices(face map[string]interface{}) ([]int, bool) {
	for _, name := range plyFaceProperties {
		list, ok := face[name]
		if !ok {
			continue
		}
		rv := reflect.ValueOf(list)
		if rv.Kind() != reflect.Slice {
			return nil, false
		}
		indices := make([]int, rv.Len())
		for i := range indices {
			value, ok := plyNumber(rv.Index(i).Interface())
			if !ok {
				return nil, false
			}
			indices[i] = int(value)
		}
		return indices, true
	}
	return nil, false
}

// plyNumber converts any of the PLY scalar property types to a float64.
func plyNumber(value interface{}) (float64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}
