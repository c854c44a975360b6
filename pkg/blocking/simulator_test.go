package blocking

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/basakil/brm-chatbot/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDelayWithinClosedRange(t *testing.T) {
	s := NewWithRange(Sleep, 5, 15, testLogger())

	for i := 0; i < 20; i++ {
		start := time.Now()
		d := s.Delay()
		elapsed := time.Since(start)

		assert.GreaterOrEqual(t, d, 5*time.Millisecond)
		assert.LessOrEqual(t, d, 15*time.Millisecond)
		assert.GreaterOrEqual(t, elapsed, d, "delay must block for at least the drawn duration")
	}
}

func TestGenerateRandomDurationBounds(t *testing.T) {
	s := NewWithRange(Sleep, 100, 300, testLogger())

	s.intN = func(n int) int { return 0 }
	assert.Equal(t, 100, s.generateRandomDuration(100, 300))

	s.intN = func(n int) int { return n - 1 }
	assert.Equal(t, 300, s.generateRandomDuration(100, 300), "upper bound is inclusive")
}

func TestMinNotBelowMax(t *testing.T) {
	s := NewWithRange(Sleep, 20, 10, testLogger())
	assert.Equal(t, 20*time.Millisecond, s.Delay())

	s = NewWithRange(Sleep, 3, 3, testLogger())
	assert.Equal(t, 3*time.Millisecond, s.Delay())
}

func TestCPUBlocking(t *testing.T) {
	s := NewWithRange(CPU, 10, 10, testLogger())

	start := time.Now()
	d := s.Delay()
	assert.Equal(t, 10*time.Millisecond, d)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestMixedBlocking(t *testing.T) {
	s := NewWithRange(Mixed, 1, 2, testLogger())
	for i := 0; i < 5; i++ {
		d := s.Delay()
		assert.GreaterOrEqual(t, d, time.Millisecond)
		assert.LessOrEqual(t, d, 2*time.Millisecond)
	}
}

func TestNewFromConfig(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "application.yaml"), []byte(`latency:
  operation-type: cpu
  min-block-period-ms: 100
  max-block-period-ms: 300`), 0644))

	cfg, err := config.LoadWithOptions(config.Options{}.WithDir(tmpDir))
	require.NoError(t, err)

	s := New(cfg.GetSubConfig("latency"), testLogger())
	assert.Equal(t, CPU, s.OperationType())

	minD, maxD := s.Range()
	assert.Equal(t, 100*time.Millisecond, minD)
	assert.Equal(t, 300*time.Millisecond, maxD)
}

func TestNewInvalidOperationType(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "application.yaml"), []byte(`latency:
  operation-type: NETWORK_IO`), 0644))

	cfg, err := config.LoadWithOptions(config.Options{}.WithDir(tmpDir))
	require.NoError(t, err)

	s := New(cfg.GetSubConfig("latency"), testLogger())
	assert.Equal(t, Sleep, s.OperationType())
}
