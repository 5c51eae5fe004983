package propfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
)

// CorruptError reports a malformed or truncated property block. Readers
// that cannot tolerate data loss (the disk-backed cache) panic with it.
type CorruptError struct {
	Pos int64  // file offset of the offending line
	Msg string // what was wrong
	Err error  // underlying I/O error, if any
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt property data at offset %d: %s: %v", e.Pos, e.Msg, e.Err)
	}
	return fmt.Sprintf("corrupt property data at offset %d: %s", e.Pos, e.Msg)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

func corrupt(pos int64, err error, format string, args ...any) *CorruptError {
	return &CorruptError{Pos: pos, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsCorrupt reports whether err is or wraps a CorruptError
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// --------------------------------------------------------------------------
// Offset tracking line reader
// --------------------------------------------------------------------------

// Reader reads newline terminated lines and tracks the file offset of every
// line, so lazily loaded values and subdirectories can be located again.
type Reader struct {
	br  *bufio.Reader
	pos int64
}

// NewReader wraps r, whose first byte lies at file offset pos
func NewReader(r io.Reader, pos int64) *Reader {
	return &Reader{br: bufio.NewReader(r), pos: pos}
}

// NewReaderAt returns a Reader positioned at offset pos of ra
func NewReaderAt(ra io.ReaderAt, pos int64) *Reader {
	return NewReader(io.NewSectionReader(ra, pos, math.MaxInt64-pos), pos)
}

// Pos returns the file offset of the next unread byte
func (r *Reader) Pos() int64 {
	return r.pos
}

// ReadLine returns the next line without its terminator and the offset at
// which it starts. A final line without a terminator is reported as
// io.ErrUnexpectedEOF; a clean end of input as io.EOF.
func (r *Reader) ReadLine() (string, int64, error) {
	start := r.pos
	line, err := r.br.ReadString('\n')
	r.pos += int64(len(line))
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, start, io.ErrUnexpectedEOF
		}
		return "", start, err
	}
	return line[:len(line)-1], start, nil
}

// expectLine reads one line and fails if it differs from want
func (r *Reader) expectLine(want string) error {
	line, start, err := r.ReadLine()
	if err != nil {
		return corrupt(start, err, "expected %q", want)
	}
	if line != want {
		return corrupt(start, nil, "expected %q, got %q", want, line)
	}
	return nil
}
