// Package uart turns the encoder board's serial byte stream into text lines.
package uart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLineLength bounds a single line when no explicit limit is set.
const DefaultMaxLineLength = 256

var (
	// ErrLineTooLong is returned when no terminator arrives within the limit.
	// The offending line is discarded; the next call starts on a fresh line.
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrInvalidEncoding is returned for a terminated line that is not UTF-8.
	ErrInvalidEncoding = errors.New("line is not valid UTF-8")
)

// LineReader reads newline-terminated lines one byte at a time.
type LineReader struct {
	r      *bufio.Reader
	maxLen int
	buf    []byte
}

// NewLineReader wraps r. A maxLen of zero or less selects DefaultMaxLineLength.
func NewLineReader(r io.Reader, maxLen int) *LineReader {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	return &LineReader{
		r:      bufio.NewReader(r),
		maxLen: maxLen,
		buf:    make([]byte, 0, maxLen),
	}
}

// NextLine blocks until a complete line is available and returns it with the
// terminator and surrounding whitespace removed.
func (lr *LineReader) NextLine() (string, error) {
	lr.buf = lr.buf[:0]

	for {
		b, err := lr.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("read byte: %w", err)
		}

		if b == '\n' {
			if !utf8.Valid(lr.buf) {
				return "", ErrInvalidEncoding
			}
			return strings.TrimSpace(string(lr.buf)), nil
		}

		if len(lr.buf) >= lr.maxLen {
			// A CR terminator does not count against the limit
			if b == '\r' {
				if next, err := lr.r.Peek(1); err == nil && next[0] == '\n' {
					lr.buf = append(lr.buf, b)
					continue
				}
			}
			if err := lr.discardLine(); err != nil {
				return "", fmt.Errorf("read byte: %w", err)
			}
			return "", ErrLineTooLong
		}
		lr.buf = append(lr.buf, b)
	}
}

// discardLine drops input up to and including the next newline.
func (lr *LineReader) discardLine() error {
	for {
		b, err := lr.r.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}
