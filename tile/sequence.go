package tile

import "github.com/google/hilbert"

// Sequence is a forward-only walk over a deterministic stream of tile
// coordinates. Step advances to the next coordinate, reporting false on
// exhaustion; the first call positions the sequence on its first element.
// At returns the current coordinate and is valid only after a successful
// Step.
//
// Independently constructed sequences with equal parameters must yield
// identical streams: workers in a parallel build each own a private
// instance and rely on the shared claim counter alone to partition it.
type Sequence interface {
	Step() bool
	At() Coordinate
}

// PyramidSequence enumerates every tile of a pyramid in raster order:
// zoom levels descending from StartZoom to EndZoom inclusive, x-major
// within each level (y varies fastest).
type PyramidSequence struct {
	startZoom uint32
	endZoom   uint32

	z, x, y uint32
	started bool
	done    bool
}

// NewPyramidSequence creates a sequence over zoom levels
// [endZoom, startZoom]. A sequence with startZoom < endZoom or
// startZoom > 31 is exhausted immediately.
func NewPyramidSequence(startZoom, endZoom uint32) *PyramidSequence {
	return &PyramidSequence{startZoom: startZoom, endZoom: endZoom}
}

func (s *PyramidSequence) Step() bool {
	if s.done {
		return false
	}
	if !s.started {
		if s.startZoom < s.endZoom || s.startZoom > 31 {
			s.done = true
			return false
		}
		s.started = true
		s.z, s.x, s.y = s.startZoom, 0, 0
		return true
	}

	n := uint32(1) << s.z
	if s.y++; s.y < n {
		return true
	}
	s.y = 0
	if s.x++; s.x < n {
		return true
	}
	s.x = 0
	if s.z == s.endZoom {
		s.done = true
		return false
	}
	s.z--
	return true
}

func (s *PyramidSequence) At() Coordinate {
	return Coordinate{Z: s.z, X: s.x, Y: s.y}
}

// HilbertSequence enumerates the same zoom envelope as PyramidSequence
// but walks each level along a Hilbert curve, so consecutive tiles stay
// spatially close.
type HilbertSequence struct {
	startZoom uint32
	endZoom   uint32

	z     uint32
	curve *hilbert.Hilbert
	pos   uint64
	total uint64
	cur   Coordinate

	started bool
	done    bool
}

// NewHilbertSequence creates a Hilbert-order sequence over zoom levels
// [endZoom, startZoom], descending.
func NewHilbertSequence(startZoom, endZoom uint32) *HilbertSequence {
	return &HilbertSequence{startZoom: startZoom, endZoom: endZoom}
}

func (s *HilbertSequence) Step() bool {
	if s.done {
		return false
	}
	if !s.started {
		if s.startZoom < s.endZoom || s.startZoom > 31 {
			s.done = true
			return false
		}
		s.started = true
		s.z = s.startZoom
		s.enterZoom()
	} else {
		s.pos++
		if s.pos == s.total {
			if s.z == s.endZoom {
				s.done = true
				return false
			}
			s.z--
			s.enterZoom()
		}
	}

	x, y, _ := s.curve.Map(int(s.pos))
	s.cur = Coordinate{Z: s.z, X: uint32(x), Y: uint32(y)}
	return true
}

func (s *HilbertSequence) enterZoom() {
	s.curve, _ = hilbert.NewHilbert(1 << s.z)
	s.pos = 0
	s.total = uint64(1) << (2 * s.z)
}

func (s *HilbertSequence) At() Coordinate {
	return s.cur
}
