package core

// streaming.go holds the io.Reader wrappers applied to every dataset file
// before it reaches the CSV tokenizer:
//
//   - skipBOM: drops a leading UTF-8 byte-order mark
//   - countingReader: tracks bytes read for per-file log output
//
// Files are never loaded whole; rows stream through encoding/csv.

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM returns a reader positioned after the UTF-8 BOM, if r starts with one.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// countingReader wraps an io.Reader to track bytes read.
type countingReader struct {
	reader    io.Reader
	bytesRead int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.bytesRead += int64(n)
	return n, err
}

// wrapForStreaming applies BOM skipping and byte counting, in that order.
func wrapForStreaming(r io.Reader) *countingReader {
	return &countingReader{reader: skipBOM(r)}
}
