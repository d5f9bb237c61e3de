// Package gzstream provides a reusable streaming gzip compressor for
// tile payloads.
package gzstream

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
)

// Compressor incrementally compresses one payload at a time into an
// internal growable buffer, producing a complete standalone gzip member
// per Reset/Write/Finish cycle. Reset reuses the underlying deflate
// state, so a Compressor is created once and reused across many tiles.
//
// A Compressor is not safe for concurrent use; each worker owns one.
type Compressor struct {
	buf bytes.Buffer
	gz  *gzip.Writer
}

func NewCompressor() *Compressor {
	c := &Compressor{}
	c.gz = gzip.NewWriter(&c.buf)
	return c
}

// Write feeds p into the compressor, appending compressed output to the
// internal buffer. It must not be called between Finish and the next
// Reset. Any error from the compression engine is fatal for the current
// stream and is not retried.
func (c *Compressor) Write(p []byte) (int, error) {
	return c.gz.Write(p)
}

// Finish flushes all remaining state and writes the gzip trailer. After
// Finish the buffer holds a self-contained gzip stream readable by any
// standard decompressor.
func (c *Compressor) Finish() error {
	return c.gz.Close()
}

// Reset discards the output buffer and starts a new independent stream.
// Previously returned Bytes slices are invalidated.
func (c *Compressor) Reset() {
	c.buf.Reset()
	c.gz.Reset(&c.buf)
}

// Bytes returns the completed compressed stream. Valid only after
// Finish and until the next Reset.
func (c *Compressor) Bytes() []byte {
	return c.buf.Bytes()
}

// Len returns the size of the completed compressed stream.
func (c *Compressor) Len() int {
	return c.buf.Len()
}
