package asynctor

// Option configures one gather or bridge call.
type Option func(*config)

type config struct {
	checkpoint    func()
	panicToError  bool
	tolerant      bool
	batchWait     bool
	runtimeActive bool
}

func defaultConfig() config {
	return config{
		checkpoint:   Checkpoint,
		panicToError: true,
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithCheckpoint replaces the scheduling checkpoint run when a gather
// receives an empty source. Tests use it as a suspension probe.
func WithCheckpoint(fn func()) Option {
	if fn == nil {
		panic("asynctor: nil checkpoint")
	}

	return func(c *config) {
		c.checkpoint = fn
	}
}

// WithTolerance keeps a gather going past item failures. A failed item
// contributes the zero value at its slot; ordering and length are
// unchanged and the call reports no error for item failures.
func WithTolerance() Option {
	return func(c *config) {
		c.tolerant = true
	}
}

// WithBatchWait drains the source in batches of limit, waiting for each
// batch to finish before starting the next, instead of refilling slots
// one ticket at a time.
func WithBatchWait() Option {
	return func(c *config) {
		c.batchWait = true
	}
}

// WithPanicPropagation rethrows task panics instead of converting them
// to errors.
func WithPanicPropagation() Option {
	return func(c *config) {
		c.panicToError = false
	}
}

// WithActiveRuntime tells Run and RunUntilComplete that a scheduler is
// already active on the calling goroutine, so the task is delegated to
// a dedicated goroutine and joined instead of running on the caller.
func WithActiveRuntime(active bool) Option {
	return func(c *config) {
		c.runtimeActive = active
	}
}
