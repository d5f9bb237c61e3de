package tile_test

import (
	"errors"
	"testing"

	"github.com/akarpov/go-tilebuild/tile"
	"github.com/google/go-cmp/cmp"
)

func TestPackUnpackCoordinate(t *testing.T) {
	for _, tc := range []tile.Coordinate{
		{Z: 0, X: 0, Y: 0},
		{Z: 1, X: 1, Y: 0},
		{Z: 10, X: 1023, Y: 512},
		{Z: 29, X: 1<<29 - 1, Y: 1<<29 - 1},
		{Z: 63, X: 1<<29 - 1, Y: 0},
	} {
		key, err := tile.PackCoordinate(tc)
		if err != nil {
			t.Fatalf("PackCoordinate(%v) failed: %v", tc, err)
		}
		if diff := cmp.Diff(tc, tile.UnpackCoordinate(key)); diff != "" {
			t.Errorf("UnpackCoordinate(PackCoordinate(%v)) mismatch (-want+got):\n%v", tc, diff)
		}
	}
}

func TestPackCoordinateInjective(t *testing.T) {
	seen := make(map[uint64]tile.Coordinate)
	for z := uint32(0); z < 6; z++ {
		for x := uint32(0); x < uint32(1)<<z; x++ {
			for y := uint32(0); y < uint32(1)<<z; y++ {
				c := tile.Coordinate{Z: z, X: x, Y: y}
				key := tile.MustPackCoordinate(c)
				if prev, found := seen[key]; found {
					t.Fatalf("PackCoordinate collision: %v and %v -> %v", prev, c, key)
				}
				seen[key] = c
			}
		}
	}
}

func TestPackCoordinateRange(t *testing.T) {
	for _, tc := range []tile.Coordinate{
		{Z: 64, X: 0, Y: 0},
		{Z: 0, X: 1 << 29, Y: 0},
		{Z: 0, X: 0, Y: 1 << 29},
		{Z: 200, X: 1 << 30, Y: 1 << 30},
	} {
		if _, err := tile.PackCoordinate(tc); !errors.Is(err, tile.ErrCoordinateRange) {
			t.Errorf("PackCoordinate(%v) = %v, want ErrCoordinateRange", tc, err)
		}
	}
}

func TestCoordinateValid(t *testing.T) {
	for _, tc := range []struct {
		Coord tile.Coordinate
		Want  bool
	}{
		{tile.Coordinate{Z: 0, X: 0, Y: 0}, true},
		{tile.Coordinate{Z: 0, X: 1, Y: 0}, false},
		{tile.Coordinate{Z: 1, X: 1, Y: 1}, true},
		{tile.Coordinate{Z: 1, X: 2, Y: 0}, false},
		{tile.Coordinate{Z: 31, X: 1<<31 - 1, Y: 0}, true},
		{tile.Coordinate{Z: 32, X: 0, Y: 0}, false},
	} {
		if got := tc.Coord.Valid(); got != tc.Want {
			t.Errorf("(%v).Valid() = %v, want %v", tc.Coord, got, tc.Want)
		}
	}
}
