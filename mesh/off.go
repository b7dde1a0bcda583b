package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ErrMalformedOFF is returned for OFF data that cannot be parsed.
var ErrMalformedOFF = errors.New("malformed OFF data")

const offCommentChar = "#"

// offScanner yields the non-empty, comment-stripped lines of an OFF file along with their line
// numbers.
type offScanner struct {
	in     *bufio.Scanner
	lineNo int
}

func (s *offScanner) next() ([]string, error) {
	for s.in.Scan() {
		s.lineNo++
		line, _, _ := strings.Cut(s.in.Text(), offCommentChar)
		if fields := strings.Fields(line); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := s.in.Err(); err != nil {
		return nil, err
	}
	return nil, errors.Wrapf(ErrMalformedOFF, "unexpected end of file after line %d", s.lineNo)
}

func (s *offScanner) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedOFF, "line %d: %s", s.lineNo, fmt.Sprintf(format, args...))
}

// maxOFFPrealloc bounds the capacity reserved from the header counts of an OFF file.
const maxOFFPrealloc = 1 << 16

// ReadOFF parses an ASCII OFF mesh. The file starts with the `OFF` magic line followed by the
// vertex, face and edge counts, the vertex lines and the face lines. Faces must be triangles.
// Blank lines and `#` comments are skipped.
func ReadOFF(in io.Reader) (*Mesh, error) {
	s := &offScanner{in: bufio.NewScanner(in)}

	header, err := s.next()
	if err != nil {
		return nil, err
	}
	if header[0] != "OFF" {
		return nil, s.errorf("magic number OFF not present, got %q", header[0])
	}
	// Some writers put the counts on the magic line.
	counts := header[1:]
	if len(counts) == 0 {
		if counts, err = s.next(); err != nil {
			return nil, err
		}
	}
	if len(counts) < 2 {
		return nil, s.errorf("could not decode vertex and face counts")
	}
	numVertices, err := strconv.Atoi(counts[0])
	if err != nil || numVertices < 0 {
		return nil, s.errorf("invalid vertex count %q", counts[0])
	}
	numFaces, err := strconv.Atoi(counts[1])
	if err != nil || numFaces < 0 {
		return nil, s.errorf("invalid face count %q", counts[1])
	}

	// The counts come from the file, so they only size the first allocation up to a bound.
	vertices := make([]r3.Vector, 0, min(numVertices, maxOFFPrealloc))
	for i := 0; i < numVertices; i++ {
		fields, err := s.next()
		if err != nil {
			return nil, err
		}
		if len(fields) < 3 {
			return nil, s.errorf("vertex %d has %d coordinates", i, len(fields))
		}
		var xyz [3]float64
		for k := range xyz {
			if xyz[k], err = strconv.ParseFloat(fields[k], 64); err != nil {
				return nil, s.errorf("vertex %d: %v", i, err)
			}
		}
		vertices = append(vertices, r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}

	triangles := make([]Triangle, 0, min(numFaces, maxOFFPrealloc))
	for i := 0; i < numFaces; i++ {
		fields, err := s.next()
		if err != nil {
			return nil, err
		}
		if fields[0] != "3" {
			return nil, s.errorf("face %d has %s corners, only triangles are supported", i, fields[0])
		}
		if len(fields) < 4 {
			return nil, s.errorf("face %d is missing indices", i)
		}
		var tri Triangle
		for k := range tri {
			if tri[k], err = strconv.Atoi(fields[k+1]); err != nil {
				return nil, s.errorf("face %d: %v", i, err)
			}
		}
		triangles = append(triangles, tri)
	}

	return New(vertices, triangles)
}

// ReadOFFFile reads an OFF mesh from the named file.
func ReadOFFFile(path string) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	m, err := ReadOFF(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	return m, nil
}

// WriteOFF writes the mesh as ASCII OFF.
func WriteOFF(m *Mesh, out io.Writer) error {
	w := bufio.NewWriter(out)
	if _, err := fmt.Fprintf(w, "OFF\n%d %d 0\n", len(m.Vertices), len(m.Triangles)); err != nil {
		return err
	}
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(w, "%s %s %s\n", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)); err != nil {
			return err
		}
	}
	for _, tri := range m.Triangles {
		if _, err := fmt.Fprintf(w, "3 %d %d %d\n", tri[0], tri[1], tri[2]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteOFFFile writes the mesh as ASCII OFF to the named file.
func WriteOFFFile(m *Mesh, path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return WriteOFF(m, f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
