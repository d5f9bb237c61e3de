package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/akarpov/go-tilebuild/tile"
)

// Reader implements tile.Reader for MBTiles files.
type Reader struct {
	db   *sql.DB
	stmt *sql.Stmt
}

// NewReader creates a new Reader for the given MBTiles file path.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?")
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Reader{db: db, stmt: stmt}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	return metadata, rows.Err()
}

// CountTiles returns the number of tile records in the file. Unlike
// Store.NumTiles this queries the table itself, so it counts duplicate
// coordinates separately.
func (r *Reader) CountTiles() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tiles").Scan(&count)
	return count, err
}

func (r *Reader) ReadTile(coord tile.Coordinate) ([]byte, error) {
	if !coord.Valid() {
		return nil, fmt.Errorf("%w: %v", tile.ErrCoordinateRange, coord)
	}
	row := (uint32(1) << coord.Z) - 1 - coord.Y // XYZ -> TMS

	var tileData []byte
	if err := r.stmt.QueryRow(coord.Z, coord.X, row).Scan(&tileData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}

	return tileData, nil
}

func (r *Reader) VisitTiles(visitor func(tile.Coordinate, []byte) error) error {
	rows, err := r.db.Query("SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var x, y, z uint32
		var tileData []byte

		if err := rows.Scan(&z, &x, &y, &tileData); err != nil {
			return err
		}

		y = (1 << z) - 1 - y // TMS -> XYZ

		if err := visitor(tile.Coordinate{Z: z, X: x, Y: y}, tileData); err != nil {
			return err
		}
	}

	return rows.Err()
}
