package sink

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterEmitsOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	require.NoError(t, w.Emit("info", "INFO:Server started"))
	require.NoError(t, w.Emit("warn", "WARNING:Low disk space"))

	assert.Equal(t, "INFO:Server started\nWARNING:Low disk space\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriterPropagatesWriteError(t *testing.T) {
	w := NewWriter(failingWriter{})
	err := w.Emit("info", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Emit("error", "LOG:failed"))
	require.NoError(t, r.Emit("error", "Long message:failed"))
	require.NoError(t, r.Emit("info", "INFO:ok"))

	assert.Equal(t, []string{"LOG:failed", "Long message:failed", "INFO:ok"}, r.Lines())
	assert.Equal(t, map[string][]string{
		"error": {"LOG:failed", "Long message:failed"},
		"info":  {"INFO:ok"},
	}, r.ByCategory())
	assert.Equal(t, Emission{Category: "info", Line: "INFO:ok"}, r.Emissions()[2])

	r.Reset()
	assert.Empty(t, r.Lines())
}

func TestRecorderConcurrentEmit(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Emit("info", "x")
		}()
	}
	wg.Wait()
	assert.Len(t, r.Emissions(), 50)
}
