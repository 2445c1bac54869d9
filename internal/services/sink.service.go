package services

import (
	"context"
	"errors"
	"fmt"

	"healthwatch/internal/models"
)

// Sink receives the record produced by each tick.
type Sink interface {
	Report(ctx context.Context, record models.TickRecord) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, record models.TickRecord) error

func (f SinkFunc) Report(ctx context.Context, record models.TickRecord) error {
	return f(ctx, record)
}

// NamedSink labels a sink for error messages.
type NamedSink struct {
	Name string
	Sink Sink
}

// MultiSink fans a record out to every sink in order. One failing sink does
// not stop delivery to the others.
type MultiSink struct {
	sinks []NamedSink
}

func NewMultiSink(sinks ...NamedSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Add appends a sink.
func (m *MultiSink) Add(name string, sink Sink) {
	m.sinks = append(m.sinks, NamedSink{Name: name, Sink: sink})
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

func (m *MultiSink) Report(ctx context.Context, record models.TickRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Report(ctx, record); err != nil {
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
