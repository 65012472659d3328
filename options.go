package rtsched

// config holds the resolved construction-time configuration for a
// Scheduler, built from zero or more Option values the way
// eventloop.loopOptions is built from LoopOption values.
type config struct {
	prioLevels    int
	maxThreads    int
	bitEncoding   BitCacheEncoding
	collaborators Collaborators
	logger        Logger
}

// Option configures a Scheduler at construction time.
type Option func(*config)

// WithPrioLevels sets the number of priority classes, PRIO_LEVELS in the
// design. Must be in (0, 32]: the bit-cache indexes a priority class with a
// 5-bit shift, so a value outside that range silently corrupts occupancy
// (I2/P1) rather than erroring. NewScheduler trusts this precondition in
// release builds, matching the debug-assertion discipline in §7; build with
// -tags rtsched_debug to have a violation panic instead. Defaults to 16.
func WithPrioLevels(n int) Option {
	return func(c *config) {
		c.prioLevels = n
	}
}

// WithMaxThreads sets the process table capacity. Defaults to 32.
func WithMaxThreads(n int) Option {
	return func(c *config) {
		c.maxThreads = n
	}
}

// WithBitCacheEncoding selects the bit-cache's internal encoding. See
// BitCacheEncoding.
func WithBitCacheEncoding(enc BitCacheEncoding) Option {
	return func(c *config) {
		c.bitEncoding = enc
	}
}

// WithCollaborators installs the architecture-specific IRQ/Timer/Arch
// collaborators. Defaults to DefaultCollaborators().
func WithCollaborators(collab Collaborators) Option {
	return func(c *config) {
		c.collaborators = collab
	}
}

// WithLogger installs a structured Logger for scheduling diagnostics.
// Defaults to nil (no logging).
func WithLogger(l Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// resolveConfig applies opts over sensible defaults.
func resolveConfig(opts []Option) *config {
	c := &config{
		prioLevels:    16,
		maxThreads:    32,
		bitEncoding:   BitCacheCLZEncoding,
		collaborators: DefaultCollaborators(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}
