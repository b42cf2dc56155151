package compress

import (
	"fmt"
	"time"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

const (
	// DefaultWindowSize is the default sliding window of the match codec.
	DefaultWindowSize = 64 * 1024
	// MinWindowSize is the smallest accepted window.
	MinWindowSize = 4 * 1024
	// MaxWindowSize is the largest accepted window.
	MaxWindowSize = 1024 * 1024

	// DefaultBlockSize is the default dedupe partition width.
	DefaultBlockSize = 4 * 1024
	// MinBlockSize is the smallest accepted dedupe partition width.
	MinBlockSize = 64

	// DefaultSimilarityThreshold is the cosine similarity at or above which
	// a block is encoded as a delta against an earlier unique block.
	DefaultSimilarityThreshold = 0.95

	// DefaultOracleTimeout bounds a single similarity oracle call.
	DefaultOracleTimeout = 2 * time.Second
)

// Codec encodes byte slices into a method-specific payload and decodes
// them back.
//
// Encode returns the payload together with the parameter block the
// decoder needs; empty input yields an empty payload and minimal
// parameters. Decode is the exact inverse: given payload, params and the
// original size it reproduces the input byte for byte. Decoders trust
// nothing in the payload; any structural violation returns an error in
// the errs.ErrCorruptPayload family rather than partial output.
//
// Memory management:
//   - Returned slices are newly allocated and owned by the caller
//   - Input slices are not modified or retained
//   - Internal buffers may be pooled for efficiency
//
// Thread Safety: codecs returned by CreateCodec are safe for concurrent
// use. The dedupe codec locks its store for the duration of each Encode
// pass, so concurrent encodes against a shared store serialize rather
// than interleave.
type Codec interface {
	// Method returns the concrete method this codec implements.
	Method() format.Method

	// Encode compresses data, returning the payload and decode parameters.
	Encode(data []byte) (payload []byte, params Params, err error)

	// Decode reverses Encode. The params must carry this codec's method
	// and originalSize must be the exact pre-compression length.
	Decode(payload []byte, params Params, originalSize uint64) ([]byte, error)
}

// CodecConfig carries the tunables codec constructors need. Zero values
// select defaults; only out-of-range non-zero values are rejected.
type CodecConfig struct {
	// Oracle provides block embeddings for the dedupe codec's similarity
	// pass. Nil disables similarity detection entirely.
	Oracle oracle.SimilarityOracle

	// Store, when non-nil, is reused across compress calls as a
	// digest-to-embedding cache. Per-call pool state is reset on each
	// encode so each produced container stays self-contained.
	Store *DedupeStore

	// WindowSize is the match codec's sliding window in bytes.
	WindowSize int

	// BlockSize is the dedupe codec's partition width in bytes.
	BlockSize int

	// SimilarityThreshold is the minimum cosine similarity for delta
	// encoding, in [0.0, 1.0].
	SimilarityThreshold float64

	// OracleTimeout bounds each oracle call.
	OracleTimeout time.Duration

	// Digest selects the content digest for block identity.
	Digest format.DigestKind

	// PoolMethod, when set to format.MethodHuffman, stacks entropy coding
	// on each unique block and delta record.
	PoolMethod format.Method
}

// DefaultCodecConfig returns the configuration all zero values resolve to.
func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		WindowSize:          DefaultWindowSize,
		BlockSize:           DefaultBlockSize,
		SimilarityThreshold: DefaultSimilarityThreshold,
		OracleTimeout:       DefaultOracleTimeout,
		Digest:              format.DigestXXH64,
	}
}

// CreateCodec is a factory function that creates a Codec for the
// specified concrete method.
//
// Supported methods:
//   - format.MethodHuffman: canonical Huffman entropy coding
//   - format.MethodEntropyRun: run-length pair coding
//   - format.MethodSemanticLZ: windowed match coding
//   - format.MethodSemanticDedupe: block dedupe with similarity deltas
//
// format.MethodAuto is a request-time policy resolved above the codec
// layer and is rejected here along with unknown values.
func CreateCodec(m format.Method, cfg CodecConfig) (Codec, error) {
	switch m {
	case format.MethodHuffman:
		return NewHuffmanCodec(), nil
	case format.MethodEntropyRun:
		return NewEntropyRunCodec(), nil
	case format.MethodSemanticLZ:
		return NewSemanticLZCodec(cfg.WindowSize)
	case format.MethodSemanticDedupe:
		return NewSemanticDedupeCodec(cfg)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(m))
	}
}

// paramsMismatch builds the error for a Decode call handed parameters of
// the wrong type.
func paramsMismatch(want format.Method, got Params) error {
	if got == nil {
		return fmt.Errorf("%w: nil params, want %s", errs.ErrInvalidParams, want)
	}

	return fmt.Errorf("%w: got %s params, want %s", errs.ErrInvalidParams, got.Method(), want)
}
