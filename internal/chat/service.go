package chat

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Delayer blocks for a simulated inference period and reports its length
type Delayer interface {
	Delay() time.Duration
}

// Recorder receives per-message observations. The metrics collector implements it.
type Recorder interface {
	ObserveChat(category string, delay time.Duration)
}

// Service runs one message through classify, delay, render and log.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	classifier *Classifier
	renderer   *Renderer
	delayer    Delayer
	recorder   Recorder
	logger     *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRecorder attaches a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorder = r
	}
}

// WithLogger sets the service logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires the pipeline stages together
func NewService(classifier *Classifier, renderer *Renderer, delayer Delayer, opts ...Option) *Service {
	s := &Service{
		classifier: classifier,
		renderer:   renderer,
		delayer:    delayer,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle processes message. The delay is not interruptible; ctx only carries
// request-scoped logging attributes.
func (s *Service) Handle(ctx context.Context, message string) Reply {
	logger := LoggerFrom(ctx, s.logger)
	logger.InfoContext(ctx, "User request", "message", message)

	category := s.classifier.Classify(message)

	var delay time.Duration
	if s.delayer != nil {
		delay = s.delayer.Delay()
	}

	reply := s.renderer.Render(category, message)
	logger.Log(ctx, reply.LogLevel, reply.LogMessage,
		"category", reply.Category,
		"status", reply.Status,
		"delayMs", delay.Milliseconds())

	if s.recorder != nil {
		s.recorder.ObserveChat(string(reply.Category), delay)
	}
	return reply
}

// Classify runs only the classification and rendering stages, without delay or logging
func (s *Service) Classify(message string) Reply {
	return s.renderer.Render(s.classifier.Classify(message), message)
}

type loggerKey struct{}

// ContextWithLogger stores a request-scoped logger
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom returns the request-scoped logger, or fallback when none is set
func LoggerFrom(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
