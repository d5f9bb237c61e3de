// Package xyz provides API for reading and writing tiles in XYZ directory
// format, where tiles are stored as individual files with paths like
// "/z/x/y.ext".
package xyz

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akarpov/go-tilebuild/tile"
)

var ErrInvalidPattern = errors.New("tilebuild: invalid file pattern")

func validatePattern(pattern string) error {
	for _, p := range []string{"{x}", "{y}", "{z}"} {
		if !strings.Contains(pattern, p) {
			return fmt.Errorf("%w: placeholder %v not found", ErrInvalidPattern, p)
		}
	}
	return nil
}

func formatPattern(pattern string, coord tile.Coordinate) string {
	result := pattern
	result = strings.ReplaceAll(result, "{x}", fmt.Sprintf("%d", coord.X))
	result = strings.ReplaceAll(result, "{y}", fmt.Sprintf("%d", coord.Y))
	result = strings.ReplaceAll(result, "{z}", fmt.Sprintf("%d", coord.Z))
	return result
}

// patternRoot returns the longest directory prefix shared by all paths
// the pattern can produce.
func patternRoot(pattern string) string {
	path0 := formatPattern(pattern, tile.Coordinate{Z: 0, X: 0, Y: 0})
	path1 := formatPattern(pattern, tile.Coordinate{Z: 1, X: 1, Y: 1})
	for path0 != path1 {
		path0 = filepath.Dir(path0)
		path1 = filepath.Dir(path1)
	}
	return path0
}
