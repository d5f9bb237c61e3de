package serialize

import (
	"os"

	"github.com/akarpov/go-tilebuild/gzstream"
	"github.com/akarpov/go-tilebuild/tile"
	"github.com/akarpov/go-tilebuild/xyz"
)

// DirSerializer writes each tile as its own gzip file under an XYZ file
// pattern. Resume mode checks file existence instead of a store index.
// Unlike StoreSerializer, nothing is shared between workers, so the
// serialization hooks do real work here: StartSerialization creates the
// tileset root directory.
type DirSerializer struct {
	writer *xyz.Writer
	resume bool
	gz     *gzstream.Compressor
}

// NewDirSerializer creates a serializer writing to the given file
// pattern (e.g. "tiles/{z}/{x}/{y}.terrain.gz").
func NewDirSerializer(filePattern string, resume bool) (*DirSerializer, error) {
	writer, err := xyz.NewWriter(filePattern)
	if err != nil {
		return nil, err
	}
	return &DirSerializer{
		writer: writer,
		resume: resume,
		gz:     gzstream.NewCompressor(),
	}, nil
}

func (s *DirSerializer) StartSerialization() error {
	return os.MkdirAll(s.writer.Root(), 0755)
}

func (s *DirSerializer) EndSerialization() error { return nil }

func (s *DirSerializer) MustSerialize(coord tile.Coordinate) bool {
	if !s.resume {
		return true
	}
	_, err := os.Stat(s.writer.Path(coord))
	return err != nil
}

func (s *DirSerializer) SerializeTile(payload []byte, coord tile.Coordinate) error {
	s.gz.Reset()
	if _, err := s.gz.Write(payload); err != nil {
		return err
	}
	if err := s.gz.Finish(); err != nil {
		return err
	}
	return s.writer.WriteTile(coord, s.gz.Bytes())
}
