package transport

import (
	"bufio"
	"bytes"
	"io"
)

const bufSize = 64 * 1024

// LineReader reads newline-delimited records. Lines may be arbitrarily long.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader creates a LineReader on top of r.
func NewLineReader(r io.Reader) *LineReader {
	return &LineReader{
		r: bufio.NewReaderSize(r, bufSize),
	}
}

// ReadLine blocks until a full line is available and returns it without the
// terminator. Blank lines are skipped. A final line without a terminator is
// returned as is; the following call returns io.EOF.
func (l *LineReader) ReadLine() ([]byte, error) {
	for {
		line, err := l.r.ReadBytes('\n')
		trimmed := bytes.TrimRight(line, "\r\n")

		if len(bytes.TrimSpace(trimmed)) > 0 {
			if err == io.EOF {
				err = nil
			}
			return trimmed, err
		}

		if err != nil {
			return nil, err
		}
	}
}

// LineWriter writes newline-delimited records and flushes each one.
type LineWriter struct {
	w *bufio.Writer
}

// NewLineWriter creates a LineWriter on top of w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{
		w: bufio.NewWriterSize(w, bufSize),
	}
}

// WriteLine writes line followed by the terminator and flushes the
// underlying writer.
func (l *LineWriter) WriteLine(line []byte) error {
	if _, err := l.w.Write(line); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}
