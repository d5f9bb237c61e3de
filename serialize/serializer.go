// Package serialize orchestrates the lifecycle of a single tile: decide
// whether it must be (re)generated, compress its payload, and hand it to
// a destination.
package serialize

import (
	"github.com/akarpov/go-tilebuild/gzstream"
	"github.com/akarpov/go-tilebuild/mb"
	"github.com/akarpov/go-tilebuild/tile"
)

// Serializer persists tile payloads for one worker. Implementations are
// not safe for concurrent use: each worker owns its own Serializer, while
// the destination behind it may be shared if it is internally
// synchronized.
type Serializer interface {
	// StartSerialization prepares the destination for a build.
	StartSerialization() error

	// MustSerialize reports whether the coordinate still needs to be
	// generated and written. In resume mode, coordinates already present
	// in the destination are skipped.
	MustSerialize(coord tile.Coordinate) bool

	// SerializeTile compresses payload into a standalone gzip stream and
	// writes it at coord. A compression failure aborts before the
	// destination is touched.
	SerializeTile(payload []byte, coord tile.Coordinate) error

	// EndSerialization releases resources acquired by StartSerialization.
	EndSerialization() error
}

// StoreSerializer writes gzip-compressed tiles into a shared MBTiles
// store. The store synchronizes its own inserts; the compressor is
// private to the serializer.
type StoreSerializer struct {
	store  *mb.Store
	resume bool
	gz     *gzstream.Compressor
}

func NewStoreSerializer(store *mb.Store, resume bool) *StoreSerializer {
	return &StoreSerializer{
		store:  store,
		resume: resume,
		gz:     gzstream.NewCompressor(),
	}
}

// StartSerialization is a no-op: the store lifecycle belongs to the
// caller, which shares it across workers.
func (s *StoreSerializer) StartSerialization() error { return nil }

func (s *StoreSerializer) EndSerialization() error { return nil }

func (s *StoreSerializer) MustSerialize(coord tile.Coordinate) bool {
	if !s.resume {
		return true
	}
	return !s.store.TestTileExists(coord)
}

func (s *StoreSerializer) SerializeTile(payload []byte, coord tile.Coordinate) error {
	s.gz.Reset()
	if _, err := s.gz.Write(payload); err != nil {
		return err
	}
	if err := s.gz.Finish(); err != nil {
		return err
	}
	return s.store.InsertBlob(s.gz.Bytes(), coord)
}
