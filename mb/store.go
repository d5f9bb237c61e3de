// Package mb provides reading and writing of tilesets in MBTiles format.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/akarpov/go-tilebuild/tile"
)

// Store is a thread-safe MBTiles write store tuned for one-shot bulk
// builds: durability pragmas are relaxed and the tiles table carries no
// index, trading crash safety for insert throughput. A crash mid-build
// leaves a partially populated but non-corrupt store.
//
// An in-memory set of packed tile keys is loaded when the store opens
// and updated with every insert, backing O(1) existence checks for
// resumable builds. The set and the prepared statements are guarded by
// a single mutex, so at most one insert executes at a time across all
// workers.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu         sync.Mutex
	insertStmt *sql.Stmt
	metaStmt   *sql.Stmt
	tiles      map[uint64]struct{}
}

type storeConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type StoreOption func(*storeConfig)

func WithMetadata(metadata map[string]string) StoreOption {
	return func(c *storeConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) StoreOption {
	return func(c *storeConfig) { c.Logger = logger }
}

// OpenStore creates or opens an MBTiles file for writing. It applies the
// bulk-build pragmas, creates the schema if missing, prepares the insert
// and metadata statements, and loads every existing tile coordinate into
// the existence set. The scan is O(existing tiles) and dominates open
// time when resuming a large build.
func OpenStore(filePath string, opts ...StoreOption) (store *Store, err error) {
	config := storeConfig{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&config)
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Pragmas and prepared statements must bind to one connection.
	db.SetMaxOpenConns(1)

	for _, query := range []string{
		"PRAGMA synchronous=0",
		"PRAGMA journal_mode=OFF",
		"PRAGMA locking_mode=EXCLUSIVE",
		"CREATE TABLE IF NOT EXISTS metadata (name TEXT, value TEXT)",
		"CREATE UNIQUE INDEX IF NOT EXISTS name_index ON metadata (name)",
		`CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB
		)`,
		// no index on tiles, it would slow down bulk inserts
	} {
		if _, err = db.Exec(query); err != nil {
			return nil, fmt.Errorf("mb: open %q: %w", filePath, err)
		}
	}

	insertStmt, err := db.Prepare("INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	metaStmt, err := db.Prepare("REPLACE INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return nil, err
	}

	tiles, err := loadTiles(db)
	if err != nil {
		return nil, err
	}

	store = &Store{
		db:         db,
		logger:     config.Logger,
		insertStmt: insertStmt,
		metaStmt:   metaStmt,
		tiles:      tiles,
	}

	for k, v := range config.Metadata {
		if err = store.SetMetadata(k, v); err != nil {
			return nil, err
		}
	}

	config.Logger.Debug("tilebuild: store opened", "path", filePath, "tiles", len(tiles))
	return store, nil
}

func loadTiles(db *sql.DB) (map[uint64]struct{}, error) {
	tiles := make(map[uint64]struct{})

	rows, err := db.Query("SELECT zoom_level, tile_column, tile_row FROM tiles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var z, x, y uint32
		if err := rows.Scan(&z, &x, &y); err != nil {
			return nil, err
		}
		key, err := tile.PackCoordinate(tile.Coordinate{Z: z, X: x, Y: y})
		if err != nil {
			return nil, err
		}
		tiles[key] = struct{}{}
	}

	return tiles, rows.Err()
}

// storedRow converts an XYZ coordinate to the TMS row kept in the tiles
// table and the packed key kept in the existence set. Coordinates that
// are invalid for the tiling scheme or exceed the packed field widths
// are rejected.
func storedRow(c tile.Coordinate) (uint32, uint64, error) {
	if !c.Valid() {
		return 0, 0, fmt.Errorf("%w: %v", tile.ErrCoordinateRange, c)
	}
	row := (uint32(1) << c.Z) - 1 - c.Y // XYZ -> TMS
	key, err := tile.PackCoordinate(tile.Coordinate{Z: c.Z, X: c.X, Y: row})
	if err != nil {
		return 0, 0, err
	}
	return row, key, nil
}

// InsertBlob appends one tile record. The statement execution and the
// existence-set update share one critical section, so TestTileExists
// observes every completed insert within the same run regardless of the
// order workers finish in. The store itself enforces no uniqueness:
// avoiding duplicate coordinates is the caller's responsibility.
func (s *Store) InsertBlob(blob []byte, coord tile.Coordinate) error {
	row, key, err := storedRow(coord)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.insertStmt.Exec(coord.Z, coord.X, row, blob); err != nil {
		return fmt.Errorf("mb: insert tile %v: %w", coord, err)
	}
	s.tiles[key] = struct{}{}
	return nil
}

// SetMetadata upserts a metadata pair, last write wins. It shares the
// insert mutex, so concurrent metadata and tile writes are safe.
func (s *Store) SetMetadata(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.metaStmt.Exec(name, value); err != nil {
		return fmt.Errorf("mb: set metadata %q: %w", name, err)
	}
	return nil
}

// TestTileExists reports whether coord is in the existence set: present
// when the store was opened, or inserted through this store since.
func (s *Store) TestTileExists(coord tile.Coordinate) bool {
	_, key, err := storedRow(coord)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tiles[key]
	return ok
}

// NumTiles returns the current size of the existence set.
func (s *Store) NumTiles() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.tiles)
}

func (s *Store) Close() error {
	return errors.Join(s.insertStmt.Close(), s.metaStmt.Close(), s.db.Close())
}
