// Package build runs the parallel tile build: workers claim coordinates
// from a shared Coordinator, generate payloads, and hand them to their
// serializers.
package build

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/akarpov/go-tilebuild/serialize"
	"github.com/akarpov/go-tilebuild/tile"
)

// Source produces tile payloads. Each worker owns one Source, so reads
// on a shared input dataset never contend on a handle. The Coordinator
// guarantees every coordinate is claimed exactly once; it does not make
// a non-deterministic Source deterministic — that contract stays with
// the Source.
type Source interface {
	GenerateTile(coord tile.Coordinate) ([]byte, error)
	Close() error
}

// Options configure one build. The three factories run once per worker.
// Sequences returned by NewSequence must yield identical streams across
// calls; the claim protocol depends on it.
type Options struct {
	// Workers is the number of concurrent workers, defaulting to
	// runtime.NumCPU().
	Workers int

	NewSequence   func() (tile.Sequence, error)
	NewSource     func() (Source, error)
	NewSerializer func() (serialize.Serializer, error)

	// SkipEmpty drops coordinates whose generated payload is empty
	// instead of storing empty tiles.
	SkipEmpty bool

	// OnTile, if set, is called from worker goroutines after each
	// claimed coordinate is handled; written is false for skips.
	OnTile func(coord tile.Coordinate, written bool)

	Logger *slog.Logger
}

// Stats summarize a completed or aborted build.
type Stats struct {
	Written uint64
	Skipped uint64
}

// Run executes the build and returns once every worker has finished.
// A failing worker aborts only its own loop; siblings run the remaining
// sequence to completion and the first failed worker's error is
// returned. The destination is left valid and resumable either way.
func Run(opts Options) (Stats, error) {
	if opts.NewSequence == nil || opts.NewSource == nil || opts.NewSerializer == nil {
		return Stats{}, fmt.Errorf("tilebuild: sequence, source and serializer factories are required")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var (
		claims  Coordinator
		written atomic.Uint64
		skipped atomic.Uint64
		wg      sync.WaitGroup
	)
	errs := make([]error, workers)

	logger.Debug("tilebuild: starting build", "workers", workers)

	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := worker{
				id:      i,
				opts:    &opts,
				claims:  &claims,
				logger:  logger,
				written: &written,
				skipped: &skipped,
			}
			errs[i] = w.run()
		}()
	}
	wg.Wait()

	stats := Stats{Written: written.Load(), Skipped: skipped.Load()}
	for _, err := range errs {
		if err != nil {
			return stats, err
		}
	}

	logger.Debug("tilebuild: build finished", "written", stats.Written, "skipped", stats.Skipped)
	return stats, nil
}

type worker struct {
	id      int
	opts    *Options
	claims  *Coordinator
	logger  *slog.Logger
	written *atomic.Uint64
	skipped *atomic.Uint64
}

func (w *worker) run() error {
	seq, err := w.opts.NewSequence()
	if err != nil {
		return fmt.Errorf("tilebuild: worker %d: %w", w.id, err)
	}

	source, err := w.opts.NewSource()
	if err != nil {
		return fmt.Errorf("tilebuild: worker %d: %w", w.id, err)
	}
	defer source.Close()

	ser, err := w.opts.NewSerializer()
	if err != nil {
		return fmt.Errorf("tilebuild: worker %d: %w", w.id, err)
	}

	if err := ser.StartSerialization(); err != nil {
		return fmt.Errorf("tilebuild: worker %d: %w", w.id, err)
	}

	loopErr := w.loop(seq, source, ser)
	endErr := ser.EndSerialization()
	if loopErr != nil {
		return loopErr
	}
	if endErr != nil {
		return fmt.Errorf("tilebuild: worker %d: %w", w.id, endErr)
	}
	return nil
}

func (w *worker) loop(seq tile.Sequence, source Source, ser serialize.Serializer) error {
	cur := NewCursor(seq)
	for {
		coord, ok := w.claims.Claim(cur)
		if !ok {
			return nil
		}

		if !ser.MustSerialize(coord) {
			w.skip(coord)
			continue
		}

		payload, err := source.GenerateTile(coord)
		if err != nil {
			return fmt.Errorf("tilebuild: worker %d: generate %v: %w", w.id, coord, err)
		}

		if w.opts.SkipEmpty && len(payload) == 0 {
			w.skip(coord)
			continue
		}

		if err := ser.SerializeTile(payload, coord); err != nil {
			return fmt.Errorf("tilebuild: worker %d: serialize %v: %w", w.id, coord, err)
		}

		w.written.Add(1)
		w.logger.Debug("tilebuild: tile written", "worker", w.id, "tile", coord.String())
		if w.opts.OnTile != nil {
			w.opts.OnTile(coord, true)
		}
	}
}

func (w *worker) skip(coord tile.Coordinate) {
	w.skipped.Add(1)
	if w.opts.OnTile != nil {
		w.opts.OnTile(coord, false)
	}
}
