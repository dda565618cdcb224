package tracesink

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(tick int64) Record {
	return Record{
		Tick:           tick,
		AgentID:        "agent-1",
		Option:         "risky",
		ChunkID:        1,
		Created:        1,
		ReferenceCount: 1,
		BaseActivation: 0.1,
		Noise:          0.2,
		Activation:     0.3,
		Probability:    1,
		BlendedValue:   5,
		At:             time.Unix(0, 0),
	}
}

func TestMemorySinkBoundedCapacity(t *testing.T) {
	m := NewMemorySink(2)
	require.NoError(t, m.Write(sampleRecord(1)))
	require.NoError(t, m.Write(sampleRecord(2)))
	require.NoError(t, m.Write(sampleRecord(3)))

	records := m.Records()
	require.Len(t, records, 2)
	assert.Equal(t, int64(2), records[0].Tick)
	assert.Equal(t, int64(3), records[1].Tick)
}

func TestMemorySinkDefaultCapacity(t *testing.T) {
	m := NewMemorySink(0)
	require.NoError(t, m.Write(sampleRecord(1)))
	assert.Len(t, m.Records(), 1)
}

func TestNopSinkDiscards(t *testing.T) {
	var s Sink = NopSink{}
	assert.NoError(t, s.Write(sampleRecord(1)))
	assert.NoError(t, s.Close())
}

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	path := t.TempDir() + "/trace.csv"
	s, err := NewCSVSink(path)
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleRecord(1)))
	require.NoError(t, s.Write(sampleRecord(2)))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "tick,agent_id,option")
	assert.Equal(t, 3, countLines(content)) // header + 2 rows
}

func TestCSVSinkRejectsWriteAfterClose(t *testing.T) {
	path := t.TempDir() + "/trace.csv"
	s, err := NewCSVSink(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Write(sampleRecord(1))
	assert.ErrorIs(t, err, ErrSinkClosed)
}

func countLines(s string) int {
	n := 0
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
