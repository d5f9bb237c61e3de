// Package tile provides the tile coordinate model, packed coordinate
// keys, and deterministic coordinate sequences.
package tile

import (
	"errors"
	"fmt"
)

// Coordinate addresses one tile in a pyramid using the XYZ scheme
// (Tiled web map).
type Coordinate struct {
	Z uint32
	X uint32
	Y uint32
}

func (c Coordinate) Valid() bool {
	return c.Z < 32 && c.X < (1<<c.Z) && c.Y < (1<<c.Z)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}

// ErrCoordinateRange reports a coordinate that does not fit the fixed
// bit widths of the packed key.
var ErrCoordinateRange = errors.New("tilebuild: coordinate out of packable range")

const (
	packBitsXY    = 29
	packMaxXY     = 1<<packBitsXY - 1
	packMaxZoom   = 1<<(64-2*packBitsXY) - 1
	packShiftZoom = 2 * packBitsXY
)

// PackCoordinate packs a coordinate into a single 64-bit key using a
// 6/29/29 bit split (zoom, x, y). The packing is injective over the
// accepted domain; coordinates exceeding a field width are rejected
// rather than truncated.
func PackCoordinate(c Coordinate) (uint64, error) {
	if c.Z > packMaxZoom || c.X > packMaxXY || c.Y > packMaxXY {
		return 0, fmt.Errorf("%w: %v", ErrCoordinateRange, c)
	}
	return uint64(c.Z)<<packShiftZoom | uint64(c.X)<<packBitsXY | uint64(c.Y), nil
}

// MustPackCoordinate is PackCoordinate for call sites that have already
// validated the coordinate.
func MustPackCoordinate(c Coordinate) uint64 {
	key, err := PackCoordinate(c)
	if err != nil {
		panic(err)
	}
	return key
}

// UnpackCoordinate inverts PackCoordinate.
func UnpackCoordinate(key uint64) Coordinate {
	return Coordinate{
		Z: uint32(key >> packShiftZoom),
		X: uint32(key >> packBitsXY & packMaxXY),
		Y: uint32(key & packMaxXY),
	}
}

// Writer defines an interface for writing tiles to a tileset.
type Writer interface {
	// WriteTile writes a single tile to the tileset.
	WriteTile(coord Coordinate, tileData []byte) error
}

type Reader interface {
	// ReadTile reads a single tile from the tileset.
	// It returns the tile data or an error if the tile cannot be read.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(coord Coordinate) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the tileset, calling the visitor for each.
	// It returns an error if visiting fails.
	// Order of tiles, upfront cpu and memory consumption are implementation-defined.
	VisitTiles(visitor func(Coordinate, []byte) error) error
}
