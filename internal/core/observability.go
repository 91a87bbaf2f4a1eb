package core

import (
	"context"
	"time"
)

// Logger receives structured-ish key-value log events from the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder aggregates service operation outcomes.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan finishes a traced operation.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// instrument wraps a service operation with tracing, metrics, and warn logging.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) (Result, error)) (Result, error) {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	res, err := fn(ctx)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		s.logger.Error(operation+" failed", "error", err)
		return res, err
	}
	for _, v := range res.Warnings() {
		s.logger.Warn(v.Message, "rule", v.Rule, "entity", string(v.Entity), "entity_id", v.EntityID)
	}
	return res, nil
}
