package xyz

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/akarpov/go-tilebuild/tile"
)

// Reader implements tile.Reader for tiles in XYZ format.
type Reader struct {
	filePattern string
	rootDir     string
	pathRegexp  *regexp.Regexp
}

// NewReader creates a new Reader for the given file pattern
// (e.g. "/home/user/tiles/{z}/{x}/{y}.png").
func NewReader(filePattern string) (*Reader, error) {
	if err := validatePattern(filePattern); err != nil {
		return nil, err
	}

	regexPattern := filePattern
	regexPattern = strings.ReplaceAll(regexPattern, "{x}", `(?P<x>\d+)`)
	regexPattern = strings.ReplaceAll(regexPattern, "{y}", `(?P<y>\d+)`)
	regexPattern = strings.ReplaceAll(regexPattern, "{z}", `(?P<z>\d+)`)
	pathRegexp, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return &Reader{filePattern, patternRoot(filePattern), pathRegexp}, nil
}

func (r *Reader) ReadTile(coord tile.Coordinate) ([]byte, error) {
	tileData, err := os.ReadFile(formatPattern(r.filePattern, coord))
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (r *Reader) VisitTiles(visitor func(tile.Coordinate, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		matches := r.pathRegexp.FindStringSubmatch(filePath)
		if matches == nil {
			return nil
		}

		x, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("x")])
		y, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("y")])
		z, _ := strconv.Atoi(matches[r.pathRegexp.SubexpIndex("z")])

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(tile.Coordinate{Z: uint32(z), X: uint32(x), Y: uint32(y)}, tileData)
	})
}
