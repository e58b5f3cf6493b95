package cheqd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/UltraQuamfy/contentify/internal/platform/metrics"
	"github.com/UltraQuamfy/contentify/pkg/platform/circuit"
)

// BackoffConfig configures retry backoff for retryable errors.
type BackoffConfig struct {
	InitialDelay time.Duration // Initial delay before first retry (default: 100ms)
	MaxDelay     time.Duration // Maximum delay between retries (default: 2s)
	MaxRetries   int           // Maximum number of retries (default: 2)
	Multiplier   float64       // Multiplier for exponential backoff (default: 2.0)
}

// Caller runs Studio API operations with bounded retries and a circuit
// breaker. While the circuit is open, calls fail fast with ErrCircuitOpen
// except for a single probe per probe interval, which is how the circuit
// discovers the API has recovered.
type Caller struct {
	breaker       *circuit.Breaker
	backoff       BackoffConfig
	probeInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer

	mu        sync.Mutex
	lastProbe time.Time
}

// CallerOption configures the Caller.
type CallerOption func(*Caller)

// WithBackoff sets the retry backoff configuration.
func WithBackoff(cfg BackoffConfig) CallerOption {
	return func(c *Caller) {
		c.backoff = cfg
	}
}

// WithBreaker sets a custom circuit breaker, shared across callers if desired.
func WithBreaker(b *circuit.Breaker) CallerOption {
	return func(c *Caller) {
		c.breaker = b
	}
}

// WithProbeInterval sets how often an open circuit lets a probe through.
func WithProbeInterval(interval time.Duration) CallerOption {
	return func(c *Caller) {
		if interval > 0 {
			c.probeInterval = interval
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) CallerOption {
	return func(c *Caller) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) CallerOption {
	return func(c *Caller) {
		c.logger = logger
	}
}

// WithTracer allows injecting a custom tracer, useful for testing.
func WithTracer(t trace.Tracer) CallerOption {
	return func(c *Caller) {
		c.tracer = t
	}
}

// NewCaller creates a caller whose circuit breaker carries the given name.
func NewCaller(name string, opts ...CallerOption) *Caller {
	c := &Caller{
		breaker: circuit.New(name),
		backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			MaxRetries:   2,
			Multiplier:   2.0,
		},
		probeInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("contentify/cheqd")
	}
	return c
}

// Breaker exposes the underlying circuit breaker for health reporting.
func (c *Caller) Breaker() *circuit.Breaker {
	return c.breaker
}

// Do runs fn with retry and circuit breaker protection. Only errors
// classified retryable by the taxonomy are retried; the rest return
// immediately. Every attempt is traced and measured.
func (c *Caller) Do(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "cheqd."+operation,
		trace.WithAttributes(attribute.String("cheqd.operation", operation)),
	)
	err := c.do(ctx, operation, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return err
}

func (c *Caller) do(ctx context.Context, operation string, fn func(context.Context) error) error {
	open := c.breaker.IsOpen()
	if open && !c.probeDue() {
		if c.metrics != nil {
			c.metrics.IncrementExternalFailure(operation, "circuit_open")
		}
		return fmt.Errorf("%s: %w", operation, ErrCircuitOpen)
	}

	maxRetries := c.backoff.MaxRetries
	if open {
		// A probe gets exactly one attempt.
		maxRetries = 0
	}

	var lastErr error
	delay := c.backoff.InitialDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return NewAPIError(ErrorTimeout, operation, "request cancelled", ctx.Err())
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * c.backoff.Multiplier)
			if delay > c.backoff.MaxDelay {
				delay = c.backoff.MaxDelay
			}
		}

		start := time.Now()
		err := fn(ctx)
		if c.metrics != nil {
			c.metrics.ObserveExternalCall(operation, time.Since(start).Seconds())
		}

		if err == nil {
			_, change := c.breaker.RecordSuccess()
			if change.Closed && c.logger != nil {
				c.logger.InfoContext(ctx, "circuit breaker closed",
					"circuit", c.breaker.Name(),
				)
			}
			return nil
		}

		lastErr = err
		if c.metrics != nil {
			c.metrics.IncrementExternalFailure(operation, string(GetCategory(err)))
		}

		_, change := c.breaker.RecordFailure()
		if change.Opened {
			if c.logger != nil {
				c.logger.ErrorContext(ctx, "circuit breaker opened",
					"circuit", c.breaker.Name(),
					"operation", operation,
					"error", err,
				)
			}
			if c.metrics != nil {
				c.metrics.IncrementCircuitOpened(c.breaker.Name())
			}
		}

		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// probeDue reports whether an open circuit should let a call through,
// and stamps the probe time when it does.
func (c *Caller) probeDue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastProbe) >= c.probeInterval {
		c.lastProbe = time.Now()
		return true
	}
	return false
}
