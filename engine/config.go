package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/iamthegreatdestroyer/sigma-compress/compress"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/options"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

// DefaultMaxInputSize is the per-call input ceiling a Compressor enforces
// unless configured otherwise.
const DefaultMaxInputSize = 100 * 1024 * 1024

// Config holds the tunables of a Compressor. Construct one through
// NewCompressor and the With* options rather than filling the struct
// directly; the options validate as they apply.
type Config struct {
	// Oracle provides block embeddings for semantic similarity detection.
	// Nil means the capability is absent and dedupe degrades to exact
	// matching.
	Oracle oracle.SimilarityOracle

	// SharedStore, when non-nil, carries the dedupe digest and embedding
	// cache across Compress calls and across Compressors.
	SharedStore *compress.DedupeStore

	// WindowSize is the match codec's sliding window in bytes.
	WindowSize int

	// DedupeBlockSize is the dedupe codec's partition width in bytes.
	DedupeBlockSize int

	// MaxInputSize bounds the data accepted by a single Compress call and
	// the declared size accepted by Decompress.
	MaxInputSize int

	// SimilarityThreshold is the minimum cosine similarity for delta
	// encoding, in [0.0, 1.0].
	SimilarityThreshold float64

	// OracleTimeout bounds each oracle call during dedupe encoding.
	OracleTimeout time.Duration

	// PoolMethod optionally stacks entropy coding on dedupe pool records.
	// Zero stores records raw; format.MethodHuffman is the only stacking
	// method.
	PoolMethod format.Method

	// DigestKind selects the content digest for dedupe block identity.
	DigestKind format.DigestKind

	// EnableSemanticDedupe opts automatic selection into the dedupe rule.
	// Explicit MethodSemanticDedupe requests work regardless.
	EnableSemanticDedupe bool

	// ExhaustiveAuto makes MethodAuto encode with every candidate method
	// and keep the smallest payload instead of trusting the profile rules.
	ExhaustiveAuto bool
}

// DefaultConfig returns the configuration NewCompressor starts from.
func DefaultConfig() Config {
	return Config{
		WindowSize:          compress.DefaultWindowSize,
		DedupeBlockSize:     compress.DefaultBlockSize,
		MaxInputSize:        DefaultMaxInputSize,
		SimilarityThreshold: compress.DefaultSimilarityThreshold,
		OracleTimeout:       compress.DefaultOracleTimeout,
		DigestKind:          format.DigestXXH64,
	}
}

// Configuration setter methods - these handle all the validated options

func (c *Config) setWindowSize(size int) error {
	if size < compress.MinWindowSize || size > compress.MaxWindowSize {
		return fmt.Errorf("%w: %d outside [%d, %d]",
			errs.ErrInvalidWindowSize, size, compress.MinWindowSize, compress.MaxWindowSize)
	}
	c.WindowSize = size

	return nil
}

func (c *Config) setDedupeBlockSize(size int) error {
	if size < compress.MinBlockSize || int64(size) > math.MaxUint32 {
		return fmt.Errorf("%w: %d outside [%d, %d]",
			errs.ErrInvalidBlockSize, size, compress.MinBlockSize, int64(math.MaxUint32))
	}
	c.DedupeBlockSize = size

	return nil
}

func (c *Config) setMaxInputSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: non-positive max input size %d", errs.ErrInvalidInput, size)
	}
	c.MaxInputSize = size

	return nil
}

func (c *Config) setSimilarityThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: %v outside [0.0, 1.0]", errs.ErrInvalidThreshold, threshold)
	}
	c.SimilarityThreshold = threshold

	return nil
}

func (c *Config) setOracleTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: non-positive oracle timeout %v", errs.ErrInvalidInput, timeout)
	}
	c.OracleTimeout = timeout

	return nil
}

func (c *Config) setPoolMethod(m format.Method) error {
	if m != 0 && m != format.MethodHuffman {
		return fmt.Errorf("%w: %s", errs.ErrInvalidPoolMethod, m)
	}
	c.PoolMethod = m

	return nil
}

func (c *Config) setDigestKind(kind format.DigestKind) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: 0x%02x", errs.ErrInvalidDigestKind, uint8(kind))
	}
	c.DigestKind = kind

	return nil
}

// Option represents a functional option for configuring a Compressor.
// This is a type alias for the generic Option interface specialized for Config.
type Option = options.Option[*Config]

// WithWindowSize sets the match codec's sliding window in bytes.
// The window must lie in [compress.MinWindowSize, compress.MaxWindowSize].
func WithWindowSize(size int) Option {
	return options.New(func(c *Config) error {
		return c.setWindowSize(size)
	})
}

// WithDedupeBlockSize sets the dedupe codec's partition width in bytes.
func WithDedupeBlockSize(size int) Option {
	return options.New(func(c *Config) error {
		return c.setDedupeBlockSize(size)
	})
}

// WithMaxInputSize sets the largest input a single Compress call accepts.
func WithMaxInputSize(size int) Option {
	return options.New(func(c *Config) error {
		return c.setMaxInputSize(size)
	})
}

// WithSimilarityThreshold sets the minimum cosine similarity at which a
// dedupe block is delta-encoded against an earlier block.
func WithSimilarityThreshold(threshold float64) Option {
	return options.New(func(c *Config) error {
		return c.setSimilarityThreshold(threshold)
	})
}

// WithOracleTimeout bounds each similarity oracle call. A call exceeding
// the timeout degrades the encode pass to exact matching; it never fails it.
func WithOracleTimeout(timeout time.Duration) Option {
	return options.New(func(c *Config) error {
		return c.setOracleTimeout(timeout)
	})
}

// WithPoolMethod stacks the given entropy method on dedupe pool records.
// Only format.MethodHuffman (or zero to disable) is accepted.
func WithPoolMethod(m format.Method) Option {
	return options.New(func(c *Config) error {
		return c.setPoolMethod(m)
	})
}

// WithDigestKind selects the content digest used for dedupe block identity.
func WithDigestKind(kind format.DigestKind) Option {
	return options.New(func(c *Config) error {
		return c.setDigestKind(kind)
	})
}

// WithOracle attaches a similarity oracle for semantic dedupe. Passing nil
// leaves the capability absent.
func WithOracle(o oracle.SimilarityOracle) Option {
	return options.NoError(func(c *Config) {
		c.Oracle = o
	})
}

// WithSemanticDedupe opts automatic method selection into the semantic
// dedupe rule. Off by default: dedupe pays off only on block-structured
// inputs, which the statistical profile cannot prove.
func WithSemanticDedupe(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.EnableSemanticDedupe = enabled
	})
}

// WithExhaustiveAuto makes MethodAuto try every candidate method and keep
// the smallest payload. Slower than profile-based selection but never
// beaten by it on output size.
func WithExhaustiveAuto(enabled bool) Option {
	return options.NoError(func(c *Config) {
		c.ExhaustiveAuto = enabled
	})
}

// WithSharedDedupeStore shares a dedupe store across Compress calls and
// across Compressors. The store acts as a digest and embedding cache only;
// every produced container stays self-contained.
func WithSharedDedupeStore(store *compress.DedupeStore) Option {
	return options.NoError(func(c *Config) {
		c.SharedStore = store
	})
}
