package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strconv"

	"github.com/akarpov/go-tilebuild/build"
	"github.com/akarpov/go-tilebuild/mb"
	"github.com/akarpov/go-tilebuild/serialize"
	"github.com/akarpov/go-tilebuild/tile"
	"github.com/akarpov/go-tilebuild/xyz"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type buildCmd struct {
	inputPath    string
	inputFormat  string
	outputPath   string
	outputFormat string
	workers      int
	startZoom    uint
	endZoom      uint
	order        string
	resume       bool
	skipEmpty    bool
	name         string
	format       string
	verbose      bool
}

func (c *buildCmd) Name() string { return "build" }
func (c *buildCmd) Synopsis() string {
	return "build a gzip-compressed tile pyramid from a source tileset"
}
func (c *buildCmd) Usage() string {
	return "tilebuild build -i <path> -o <path> -s <zoom> [-e <zoom>] [options]\n"
}
func (c *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input tileset path (mbtiles file or xyz pattern)")
	f.StringVar(&c.inputFormat, "if", "", "Input format (mbtiles, xyz)")
	f.StringVar(&c.outputPath, "o", "", "Output path (mbtiles file or xyz pattern)")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, xyz)")
	f.IntVar(&c.workers, "c", runtime.NumCPU(), "Number of concurrent workers")
	f.UintVar(&c.startZoom, "s", 0, "Zoom level to start at, should be >= the end zoom")
	f.UintVar(&c.endZoom, "e", 0, "Zoom level to end at")
	f.StringVar(&c.order, "order", "raster", "Iteration order within a zoom level (raster, hilbert)")
	f.BoolVar(&c.resume, "r", false, "Do not overwrite tiles already present in the output")
	f.BoolVar(&c.skipEmpty, "skip-empty", true, "Skip coordinates the input has no tile for")
	f.StringVar(&c.name, "name", "", "Value for the name metadata entry (mbtiles output)")
	f.StringVar(&c.format, "format", "terrain", "Value for the format metadata entry (mbtiles output)")
	f.BoolVar(&c.verbose, "v", false, "Enable debug logging")
}

func (c *buildCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	logger := newLogger(c.verbose)

	if c.inputPath == "" || c.outputPath == "" {
		logger.Error("tilebuild: -i and -o are required")
		return subcommands.ExitUsageError
	}
	if c.startZoom < c.endZoom || c.startZoom > 31 {
		logger.Error("tilebuild: invalid zoom range", "start", c.startZoom, "end", c.endZoom)
		return subcommands.ExitUsageError
	}

	opts := build.Options{
		Workers:   c.workers,
		SkipEmpty: c.skipEmpty,
		Logger:    logger,
	}

	var err error
	opts.NewSequence, err = c.sequenceFactory()
	if err != nil {
		logger.Error("tilebuild: " + err.Error())
		return subcommands.ExitUsageError
	}

	opts.NewSource, err = c.sourceFactory()
	if err != nil {
		logger.Error("tilebuild: " + err.Error())
		return subcommands.ExitUsageError
	}

	switch deduceFormat(c.outputFormat, c.outputPath) {
	case "mbtiles":
		store, err := mb.OpenStore(c.outputPath, mb.WithLogger(logger), mb.WithMetadata(c.metadata()))
		if err != nil {
			logger.Error("tilebuild: open output store", "err", err)
			return subcommands.ExitFailure
		}
		defer store.Close()
		opts.NewSerializer = func() (serialize.Serializer, error) {
			return serialize.NewStoreSerializer(store, c.resume), nil
		}
	case "xyz":
		opts.NewSerializer = func() (serialize.Serializer, error) {
			return serialize.NewDirSerializer(c.outputPath, c.resume)
		}
	default:
		logger.Error("tilebuild: invalid output format", "format", c.outputFormat)
		return subcommands.ExitUsageError
	}

	total := int64(0)
	for z := c.endZoom; z <= c.startZoom; z++ {
		total += int64(1) << (2 * z)
	}
	bar := progressbar.NewOptions64(total, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	opts.OnTile = func(tile.Coordinate, bool) { bar.Add(1) }

	stats, err := build.Run(opts)
	bar.Finish()
	fmt.Println()

	if err != nil {
		logger.Error("tilebuild: build failed", "err", err)
		return subcommands.ExitFailure
	}

	logger.Info("tilebuild: build complete", "written", stats.Written, "skipped", stats.Skipped)
	return subcommands.ExitSuccess
}

func (c *buildCmd) metadata() map[string]string {
	metadata := map[string]string{
		"minzoom": strconv.Itoa(int(c.endZoom)),
		"maxzoom": strconv.Itoa(int(c.startZoom)),
	}
	if c.name != "" {
		metadata["name"] = c.name
	}
	if c.format != "" {
		metadata["format"] = c.format
	}
	return metadata
}

func (c *buildCmd) sequenceFactory() (func() (tile.Sequence, error), error) {
	startZoom, endZoom := uint32(c.startZoom), uint32(c.endZoom)
	switch c.order {
	case "raster", "":
		return func() (tile.Sequence, error) {
			return tile.NewPyramidSequence(startZoom, endZoom), nil
		}, nil
	case "hilbert":
		return func() (tile.Sequence, error) {
			return tile.NewHilbertSequence(startZoom, endZoom), nil
		}, nil
	}
	return nil, fmt.Errorf("invalid iteration order: %q", c.order)
}

func (c *buildCmd) sourceFactory() (func() (build.Source, error), error) {
	switch deduceFormat(c.inputFormat, c.inputPath) {
	case "mbtiles":
		return func() (build.Source, error) {
			reader, err := mb.NewReader(c.inputPath)
			if err != nil {
				return nil, err
			}
			return readerSource{reader}, nil
		}, nil
	case "xyz":
		return func() (build.Source, error) {
			reader, err := xyz.NewReader(c.inputPath)
			if err != nil {
				return nil, err
			}
			return readerSource{reader}, nil
		}, nil
	}
	return nil, fmt.Errorf("invalid input format: %q", c.inputFormat)
}

// readerSource adapts a tile.Reader into a per-worker payload source.
type readerSource struct {
	reader tile.Reader
}

func (s readerSource) GenerateTile(coord tile.Coordinate) ([]byte, error) {
	return s.reader.ReadTile(coord)
}

func (s readerSource) Close() error {
	if closer, ok := s.reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
