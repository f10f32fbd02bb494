// Package source delivers decoded events in canonical chain order.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"synth-exchange-stats/internal/domain"
)

// Source yields events one at a time.
type Source interface {
	// Next returns the next event. Returns io.EOF when the source is exhausted.
	Next(ctx context.Context) (*domain.Event, error)

	// Close releases the source.
	Close() error
}

// Decode parses one wire-format event. Unknown fields are rejected.
func Decode(data []byte) (*domain.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var ev domain.Event
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("%w: decode event: %v", domain.ErrMalformedInput, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after event", domain.ErrMalformedInput)
	}
	return &ev, nil
}

// Encode renders an event in wire format without a trailing newline.
func Encode(ev *domain.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Slice is an in-memory source.
type Slice struct {
	events []*domain.Event
	pos    int
}

// NewSlice creates a source over events. The slice is not copied.
func NewSlice(events []*domain.Event) *Slice {
	return &Slice{events: events}
}

// Next returns the next event.
func (s *Slice) Next(ctx context.Context) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return ev, nil
}

// Close is a no-op.
func (s *Slice) Close() error {
	return nil
}

// Drain reads every remaining event from src.
func Drain(ctx context.Context, src Source) ([]*domain.Event, error) {
	var events []*domain.Event
	for {
		ev, err := src.Next(ctx)
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
