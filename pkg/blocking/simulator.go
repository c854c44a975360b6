package blocking

import (
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/basakil/brm-chatbot/pkg/config"
)

// OperationType represents the type of blocking operation
type OperationType string

const (
	Sleep OperationType = "SLEEP"
	CPU   OperationType = "CPU"
	Mixed OperationType = "MIXED"
)

// Simulator blocks the calling goroutine for a random period to stand in
// for model inference cost. The delay cannot be cancelled.
type Simulator struct {
	logger        *slog.Logger
	operationType OperationType
	minMs         int
	maxMs         int
	intN          func(n int) int
}

// New creates a new blocking simulator from the "latency" sub-config
func New(cfg *config.Config, logger *slog.Logger) *Simulator {
	operationTypeStr := cfg.GetStringWithDefault("operation-type", string(Sleep))
	operationType := OperationType(strings.ToUpper(operationTypeStr))

	switch operationType {
	case Sleep, CPU, Mixed:
	default:
		logger.Warn("Invalid operation type, defaulting to SLEEP", "type", operationTypeStr)
		operationType = Sleep
	}

	return NewWithRange(operationType,
		cfg.GetIntWithDefault("min-block-period-ms", 100),
		cfg.GetIntWithDefault("max-block-period-ms", 500),
		logger)
}

// NewWithRange creates a simulator for the closed interval [minMs, maxMs]
func NewWithRange(operationType OperationType, minMs, maxMs int, logger *slog.Logger) *Simulator {
	if minMs < 0 {
		minMs = 0
	}
	return &Simulator{
		logger:        logger,
		operationType: operationType,
		minMs:         minMs,
		maxMs:         maxMs,
		intN:          rand.Intn,
	}
}

// Range returns the configured bounds
func (s *Simulator) Range() (time.Duration, time.Duration) {
	return time.Duration(s.minMs) * time.Millisecond, time.Duration(s.maxMs) * time.Millisecond
}

// OperationType returns the configured operation type
func (s *Simulator) OperationType() OperationType {
	return s.operationType
}

// Delay draws a duration from [min, max], blocks for it and returns it
func (s *Simulator) Delay() time.Duration {
	durationMs := s.generateRandomDuration(s.minMs, s.maxMs)
	duration := time.Duration(durationMs) * time.Millisecond

	operationType := s.operationType
	if operationType == Mixed {
		types := []OperationType{Sleep, CPU}
		operationType = types[s.intN(len(types))]
	}

	s.logger.Debug("Performing blocking operation",
		"type", operationType,
		"durationMs", durationMs,
		"minMs", s.minMs,
		"maxMs", s.maxMs)

	switch operationType {
	case CPU:
		s.performCPUBlocking(duration)
	default:
		s.performSleepBlocking(duration)
	}
	return duration
}

// generateRandomDuration creates a random duration within the closed range
func (s *Simulator) generateRandomDuration(minMs, maxMs int) int {
	if minMs >= maxMs {
		return minMs
	}
	return s.intN(maxMs-minMs+1) + minMs
}

func (s *Simulator) performSleepBlocking(d time.Duration) {
	time.Sleep(d)
}

// performCPUBlocking spins until the deadline so the delay shows up as CPU
// usage for autoscaling experiments.
func (s *Simulator) performCPUBlocking(d time.Duration) {
	deadline := time.Now().Add(d)
	x := uint64(1)
	for time.Now().Before(deadline) {
		for i := 0; i < 1000; i++ {
			x = x*6364136223846793005 + 1442695040888963407
		}
	}
	sink = x
}

var sink uint64
