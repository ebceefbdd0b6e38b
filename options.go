package gopng

import "log/slog"

// config holds Decode's resolved options, set via the functional-options
// pattern below.
type config struct {
	logger           *slog.Logger
	strictAncillary  bool
	maxChunkDataSize uint32
	parallelRows     int
}

// defaultMaxChunkDataSize bounds a single chunk's declared length, since
// Decode is handed an already fully-read buffer and has no other
// backpressure mechanism. PNG's own length field caps a chunk at 2^31-1;
// this default is far lower and meant to catch obviously-hostile or
// corrupt framing before an allocation is attempted.
const defaultMaxChunkDataSize = 256 << 20 // 256 MiB

func defaultConfig() *config {
	return &config{
		logger:           slog.New(slog.NewTextHandler(nullWriter{}, nil)),
		strictAncillary:  false,
		maxChunkDataSize: defaultMaxChunkDataSize,
		parallelRows:     1,
	}
}

// Option configures Decode. The zero value of config (no options applied)
// must decode every conforming PNG identically to any other option
// combination that does not itself narrow behavior — logging in particular
// must never change decode semantics.
type Option func(*config)

// WithLogger routes the decoder's informational and warning messages (chunk
// summaries, ancillary-chunk notices) to logger. A nil logger disables
// logging; this is also the default. Logging is a courtesy collaborator:
// its presence or absence never changes what Decode returns.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(nullWriter{}, nil))
		}
		c.logger = logger
	}
}

// WithStrictAncillary makes malformed-but-normally-ignorable ancillary
// chunks (e.g. a tEXt chunk without a keyword separator) fatal instead of
// producing a warning and being skipped.
func WithStrictAncillary() Option {
	return func(c *config) { c.strictAncillary = true }
}

// WithMaxChunkData overrides the defensive cap on a single chunk's declared
// length. A value of 0 disables the cap (not recommended for untrusted
// input).
func WithMaxChunkData(max uint32) Option {
	return func(c *config) { c.maxChunkDataSize = max }
}

// WithParallelRows splits pixel materialization into row bands handled by
// the given number of goroutines. Filter reversal still recovers rows one
// after another on a single goroutine, since each row depends on the one
// above it. workers <= 1 keeps materialization single-threaded (the
// default).
func WithParallelRows(workers int) Option {
	return func(c *config) {
		if workers < 1 {
			workers = 1
		}
		c.parallelRows = workers
	}
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }
