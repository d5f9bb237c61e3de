package gzstream_test

import (
	"bytes"
	"compress/gzip"
	"io"
	"testing"

	"github.com/akarpov/go-tilebuild/gzstream"
	"github.com/google/go-cmp/cmp"
)

// gunzip decodes with the standard library to prove each stream is a
// self-contained gzip member.
func gunzip(t *testing.T, data []byte) []byte {
	t.Helper()

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	defer reader.Close()

	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	return result
}

func TestCompressorRoundTrip(t *testing.T) {
	dataCases := []struct {
		Name string
		Data []byte
	}{
		{Name: "Empty", Data: []byte{}},
		{Name: "Foobar", Data: []byte("foobar")},
		{Name: "Repeat", Data: bytes.Repeat([]byte{42}, 100500)},
	}
	for _, dc := range dataCases {
		t.Run(dc.Name, func(t *testing.T) {
			c := gzstream.NewCompressor()
			c.Reset()

			// Feed in uneven chunks to exercise the incremental path.
			for chunk := dc.Data; len(chunk) > 0; {
				n := min(len(chunk), 1000)
				if _, err := c.Write(chunk[:n]); err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				chunk = chunk[n:]
			}
			if err := c.Finish(); err != nil {
				t.Fatalf("Finish failed: %v", err)
			}

			if c.Len() != len(c.Bytes()) {
				t.Errorf("Len() = %v, want %v", c.Len(), len(c.Bytes()))
			}
			if diff := cmp.Diff(dc.Data, gunzip(t, c.Bytes())); diff != "" {
				t.Errorf("round trip mismatch (-want+got):\n%v", diff)
			}
		})
	}
}

func TestCompressorReuse(t *testing.T) {
	c := gzstream.NewCompressor()

	// Streams produced after a Reset must not depend on earlier cycles.
	for i := 0; i < 10; i++ {
		payload := bytes.Repeat([]byte{byte(i)}, 1+i*1000)

		c.Reset()
		if _, err := c.Write(payload); err != nil {
			t.Fatalf("cycle %v: Write failed: %v", i, err)
		}
		if err := c.Finish(); err != nil {
			t.Fatalf("cycle %v: Finish failed: %v", i, err)
		}

		if diff := cmp.Diff(payload, gunzip(t, c.Bytes())); diff != "" {
			t.Errorf("cycle %v mismatch (-want+got):\n%v", i, diff)
		}
	}
}

func TestCompressorResetDiscards(t *testing.T) {
	c := gzstream.NewCompressor()

	if _, err := c.Write([]byte("to be discarded")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := c.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	c.Reset()
	if err := c.Finish(); err != nil {
		t.Fatalf("Finish after Reset failed: %v", err)
	}

	if got := gunzip(t, c.Bytes()); len(got) != 0 {
		t.Errorf("stream after Reset decoded to %q, want empty", got)
	}
}
