package asynctor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// ReportFunc receives one timing report per captured measurement.
type ReportFunc func(name string, cost time.Duration)

// TimingOption configures a Timer or a TimeIt/TimeTask wrapper.
type TimingOption func(*timingConfig)

type timingConfig struct {
	report   ReportFunc
	decimals int
	now      func() time.Time
}

func defaultTimingConfig() timingConfig {
	return timingConfig{
		decimals: 1,
		now:      time.Now,
	}
}

// WithReporter replaces the default log-based report sink.
func WithReporter(report ReportFunc) TimingOption {
	if report == nil {
		panic("asynctor: nil reporter")
	}

	return func(c *timingConfig) {
		c.report = report
	}
}

// WithDecimalPlaces sets how many decimal places of seconds a Timer
// renders. The default is 1.
func WithDecimalPlaces(n int) TimingOption {
	if n < 0 {
		panic("asynctor: decimal places cannot be negative")
	}

	return func(c *timingConfig) {
		c.decimals = n
	}
}

// WithClock replaces the wall clock, for deterministic tests.
func WithClock(now func() time.Time) TimingOption {
	if now == nil {
		panic("asynctor: nil clock")
	}

	return func(c *timingConfig) {
		c.now = now
	}
}

// Timer measures the wall-clock cost of a block of work.
//
// NewTimer starts the measurement; Capture ends it and sends exactly one
// report to the configured sink. The default sink logs the same line
// String renders.
type Timer struct {
	name  string
	cfg   timingConfig
	start time.Time
	end   time.Time
}

// NewTimer creates a started Timer.
func NewTimer(name string, opts ...TimingOption) *Timer {
	cfg := defaultTimingConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	t := &Timer{name: name, cfg: cfg}
	t.Start()
	return t
}

// Start resets the measurement to now.
func (t *Timer) Start() {
	t.start = t.cfg.now()
	t.end = t.start
}

// Capture records the end time and reports once.
func (t *Timer) Capture() {
	t.end = t.cfg.now()
	if t.cfg.report != nil {
		t.cfg.report(t.name, t.Cost())
		return
	}
	logrus.Info(t.String())
}

// Cost returns the measured duration.
func (t *Timer) Cost() time.Duration {
	return t.end.Sub(t.start)
}

func (t *Timer) String() string {
	seconds := strconv.FormatFloat(t.Cost().Seconds(), 'f', t.cfg.decimals, 64)
	return fmt.Sprintf("%s Cost: %s seconds", t.name, seconds)
}

// TimeIt wraps a synchronous callable so every invocation reports its
// wall-clock cost, on success and on failure alike. The original result
// and error pass through unchanged.
func TimeIt[T any](name string, fn func() (T, error), opts ...TimingOption) func() (T, error) {
	return func() (T, error) {
		t := NewTimer(name, opts...)
		defer t.Capture()
		return fn()
	}
}

// TimeTask is TimeIt for asynchronous units.
func TimeTask[T any](name string, task Task[T], opts ...TimingOption) Task[T] {
	return func(ctx context.Context) (T, error) {
		t := NewTimer(name, opts...)
		defer t.Capture()
		return task(ctx)
	}
}
