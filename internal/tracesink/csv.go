package tracesink

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
)

// CSVSink appends trace records to a CSV file, one row per record,
// writing a header on first use. Grounded on the teacher's CSV export
// routine in internal/stats/artifacts.go.
type CSVSink struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	wrote  bool
	closed bool
}

// NewCSVSink opens (creating if necessary) path for append and returns a
// sink writing trace rows to it.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &CSVSink{file: f, writer: csv.NewWriter(f)}, nil
}

var csvHeader = []string{
	"tick", "agent_id", "option", "chunk_id", "created", "reference_count",
	"base_activation", "noise", "activation", "probability", "blended_value", "at",
}

func (s *CSVSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if !s.wrote {
		if err := s.writer.Write(csvHeader); err != nil {
			return err
		}
		s.wrote = true
	}
	row := []string{
		strconv.FormatInt(r.Tick, 10),
		r.AgentID,
		r.Option,
		strconv.FormatInt(r.ChunkID, 10),
		strconv.FormatInt(r.Created, 10),
		strconv.FormatInt(r.ReferenceCount, 10),
		strconv.FormatFloat(r.BaseActivation, 'g', -1, 64),
		strconv.FormatFloat(r.Noise, 'g', -1, 64),
		strconv.FormatFloat(r.Activation, 'g', -1, 64),
		strconv.FormatFloat(r.Probability, 'g', -1, 64),
		strconv.FormatFloat(r.BlendedValue, 'g', -1, 64),
		r.At.Format("2006-01-02T15:04:05Z07:00"),
	}
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.writer.Flush()
	return s.file.Close()
}
