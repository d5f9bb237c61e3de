package xyz

import (
	"os"
	"path/filepath"

	"github.com/akarpov/go-tilebuild/tile"
)

// Writer implements tile.Writer for tiles in XYZ format.
type Writer struct {
	filePattern string
}

// NewWriter creates a new Writer for the given file pattern
// (e.g. "/home/user/tiles/{z}/{x}/{y}.terrain.gz").
func NewWriter(filePattern string) (*Writer, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}
	return &Writer{filePattern}, nil
}

// Path returns the file path the given coordinate is written to.
func (w *Writer) Path(coord tile.Coordinate) string {
	return formatPattern(w.filePattern, coord)
}

// Root returns the directory all written tiles share.
func (w *Writer) Root() string {
	return patternRoot(w.filePattern)
}

func (w *Writer) WriteTile(coord tile.Coordinate, tileData []byte) error {
	filePath := w.Path(coord)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, tileData, 0644)
}
