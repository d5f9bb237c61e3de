package build

import (
	"sync"

	"github.com/akarpov/go-tilebuild/tile"
)

// Cursor is one worker's private position over a coordinate sequence.
// Sequences support only forward single-stepping, so the cursor counts
// how many elements it has stepped onto; the Coordinator walks it
// forward past elements claimed by other workers.
type Cursor struct {
	seq tile.Sequence
	pos uint64 // number of successful Step calls so far
}

func NewCursor(seq tile.Sequence) *Cursor {
	return &Cursor{seq: seq}
}

// Coordinator assigns each element of a deterministic coordinate
// sequence to exactly one worker. Every worker walks its own,
// identically ordered sequence instance; the only shared state is the
// claim counter. Claims happen in canonical sequence order: after any
// number of claims, the claimed set is exactly the first claimed-count
// elements of the sequence, each owned by one worker.
//
// The trade-off is catch-up stepping: a worker pays one Step per
// coordinate claimed by others since its last claim, bounding total
// extra work by (workers-1) * sequence length. In exchange no shared
// iterator or work queue exists at all.
type Coordinator struct {
	mu      sync.Mutex
	claimed uint64
}

// Claim reserves the next unclaimed coordinate for the calling worker
// and reports false when the sequence is exhausted. The mutex is held
// only for the catch-up walk and the counter increment, never across
// tile generation or I/O.
func (c *Coordinator) Claim(cur *Cursor) (tile.Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Catch up past everything claimed since this worker's last visit,
	// ending with one step onto the coordinate being claimed.
	for cur.pos <= c.claimed {
		if !cur.seq.Step() {
			return tile.Coordinate{}, false
		}
		cur.pos++
	}
	c.claimed++
	return cur.seq.At(), true
}
