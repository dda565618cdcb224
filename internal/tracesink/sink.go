// Package tracesink implements the trace sink (SPEC_FULL §A1): optional
// destinations for the per-chunk diagnostic records an Agent emits when
// details/trace are enabled. A sink never holds agent memory, only
// diagnostic telemetry, so it does not conflict with the core's
// no-disk-persistence non-goal for instance data.
package tracesink

import (
	"fmt"
	"sync"
	"time"
)

// Record is one contributing-chunk row for one option in one choose call.
type Record struct {
	Tick           int64
	AgentID        string
	Option         string
	ChunkID        int64
	Created        int64
	ReferenceCount int64
	BaseActivation float64
	Noise          float64
	Activation     float64
	Probability    float64
	BlendedValue   float64
	At             time.Time
}

// Sink receives trace records as they are produced.
type Sink interface {
	Write(Record) error
	Close() error
}

// MemorySink keeps up to Capacity records in a bounded ring buffer,
// dropping the oldest once full. It has no dependencies beyond the
// standard library.
type MemorySink struct {
	mu       sync.Mutex
	capacity int
	records  []Record
}

// NewMemorySink returns a MemorySink holding at most capacity records.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemorySink{capacity: capacity}
}

func (m *MemorySink) Write(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	if len(m.records) > m.capacity {
		m.records = m.records[len(m.records)-m.capacity:]
	}
	return nil
}

func (m *MemorySink) Close() error { return nil }

// Records returns a copy of the currently buffered records.
func (m *MemorySink) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// NopSink discards every record; used as the default when no sink is
// attached, so detail-tracking only pays for bookkeeping when opted in.
type NopSink struct{}

func (NopSink) Write(Record) error { return nil }
func (NopSink) Close() error       { return nil }

// ErrSinkClosed is returned when writing to a sink after Close.
var ErrSinkClosed = fmt.Errorf("tracesink: sink is closed")
