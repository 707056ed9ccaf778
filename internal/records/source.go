package records

// source.go holds the byte-level wrappers that sit between an opened source
// and line splitting:
//
//   - countingReader: tracks bytes consumed for stage logging
//   - skipBOM: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) written by Windows editors
//
// Both operate on the stream, so a source is never loaded into memory whole.

import (
	"bufio"
	"bytes"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countingReader wraps an io.Reader and counts the bytes read through it.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}

// skipBOM discards a UTF-8 BOM at the current position of br, if present.
// Short sources are fine: Peek returns what it has along with io.EOF.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}
