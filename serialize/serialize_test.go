package serialize_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/akarpov/go-tilebuild/mb"
	"github.com/akarpov/go-tilebuild/serialize"
	"github.com/akarpov/go-tilebuild/tile"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func gunzip(t *testing.T, data []byte) []byte {
	t.Helper()

	reader, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer reader.Close()

	result, err := io.ReadAll(reader)
	require.NoError(t, err)
	return result
}

func openStore(t *testing.T) *mb.Store {
	t.Helper()

	store, err := mb.OpenStore(filepath.Join(t.TempDir(), "tiles.mbtiles"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreSerializerResumeGate(t *testing.T) {
	store := openStore(t)
	present := tile.Coordinate{Z: 0, X: 0, Y: 0}
	absent := tile.Coordinate{Z: 1, X: 1, Y: 0}
	require.NoError(t, store.InsertBlob([]byte("done"), present))

	resuming := serialize.NewStoreSerializer(store, true)
	require.False(t, resuming.MustSerialize(present))
	require.True(t, resuming.MustSerialize(absent))

	// Without resume everything is regenerated.
	fresh := serialize.NewStoreSerializer(store, false)
	require.True(t, fresh.MustSerialize(present))
	require.True(t, fresh.MustSerialize(absent))
}

func TestStoreSerializerWritesGzip(t *testing.T) {
	store := openStore(t)
	s := serialize.NewStoreSerializer(store, false)

	coord := tile.Coordinate{Z: 2, X: 1, Y: 3}
	payload := bytes.Repeat([]byte("mesh data "), 1000)

	require.NoError(t, s.StartSerialization())
	require.NoError(t, s.SerializeTile(payload, coord))
	require.NoError(t, s.EndSerialization())

	require.True(t, store.TestTileExists(coord))

	// The serializer gate sees its own write within the same run.
	resuming := serialize.NewStoreSerializer(store, true)
	require.False(t, resuming.MustSerialize(coord))
}

func TestStoreSerializerBlobDecodes(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "tiles.mbtiles")

	store, err := mb.OpenStore(filePath)
	require.NoError(t, err)

	s := serialize.NewStoreSerializer(store, false)
	coord := tile.Coordinate{Z: 3, X: 5, Y: 2}
	payload := []byte("quantized mesh payload")

	require.NoError(t, s.SerializeTile(payload, coord))

	// Reuse across tiles must not leak state between blobs.
	other := tile.Coordinate{Z: 3, X: 5, Y: 3}
	require.NoError(t, s.SerializeTile([]byte{}, other))
	require.NoError(t, store.Close())

	reader, err := mb.NewReader(filePath)
	require.NoError(t, err)
	defer reader.Close()

	blob, err := reader.ReadTile(coord)
	require.NoError(t, err)
	require.Equal(t, payload, gunzip(t, blob))

	emptyBlob, err := reader.ReadTile(other)
	require.NoError(t, err)
	require.Empty(t, gunzip(t, emptyBlob))
}

func TestDirSerializer(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	pattern := filepath.Join(root, "{z}", "{x}", "{y}.terrain.gz")

	s, err := serialize.NewDirSerializer(pattern, false)
	require.NoError(t, err)
	require.NoError(t, s.StartSerialization())

	coord := tile.Coordinate{Z: 1, X: 0, Y: 1}
	payload := []byte("tile file content")
	require.NoError(t, s.SerializeTile(payload, coord))
	require.NoError(t, s.EndSerialization())

	data, err := os.ReadFile(filepath.Join(root, "1", "0", "1.terrain.gz"))
	require.NoError(t, err)
	require.Equal(t, payload, gunzip(t, data))

	resuming, err := serialize.NewDirSerializer(pattern, true)
	require.NoError(t, err)
	require.False(t, resuming.MustSerialize(coord))
	require.True(t, resuming.MustSerialize(tile.Coordinate{Z: 1, X: 1, Y: 1}))
}
