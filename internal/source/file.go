package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"synth-exchange-stats/internal/domain"
)

const maxLineBytes = 1 << 20

// File reads newline-delimited JSON events. Blank lines are ignored.
type File struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// OpenFile opens a JSONL event log.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return NewReader(f, f), nil
}

// NewReader creates a JSONL source over r. closer may be nil.
func NewReader(r io.Reader, closer io.Closer) *File {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &File{closer: closer, scanner: scanner}
}

// Next returns the next event.
func (f *File) Next(ctx context.Context) (*domain.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.scanner.Scan() {
			if err := f.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read event log line %d: %w", f.line+1, err)
			}
			return nil, io.EOF
		}
		f.line++

		data := bytes.TrimSpace(f.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		ev, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", f.line, err)
		}
		return ev, nil
	}
}

// Close closes the underlying file.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// WriteJSONL writes events as newline-delimited JSON.
func WriteJSONL(w io.Writer, events []*domain.Event) error {
	bw := bufio.NewWriter(w)
	for _, ev := range events {
		data, err := Encode(ev)
		if err != nil {
			return err
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
