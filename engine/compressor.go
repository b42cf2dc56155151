// Package engine assembles the codec suite into a compression facade.
//
// A Compressor owns one configured codec per method plus the entropy
// analyzer that drives automatic selection. Compress turns raw bytes into
// a CompressedOutput; Decompress reverses any CompressedOutput whose
// declared method it knows, including outputs produced by a differently
// configured Compressor, because every decode parameter travels in the
// output itself.
//
// Method selection happens exactly once, at compression time. The chosen
// method is recorded in the output (and in the serialized container), and
// Decompress dispatches on that record alone; it never re-profiles the
// payload.
package engine

import (
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/analysis"
	"github.com/iamthegreatdestroyer/sigma-compress/compress"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/hash"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/options"
)

// Compressor compresses and decompresses byte slices using the
// multi-strategy codec suite.
//
// Thread Safety: a Compressor is safe for concurrent use. Codecs are
// stateless per call, stats are mutex-guarded, and dedupe encodes against
// a shared store serialize on the store's lock.
type Compressor struct {
	cfg     Config
	huffman *compress.HuffmanCodec
	runs    *compress.EntropyRunCodec
	lz      *compress.SemanticLZCodec
	dedupe  *compress.SemanticDedupeCodec
	stats   statsCollector
}

// NewCompressor creates a Compressor from the default configuration plus
// the given options. Option values are validated as they apply; the first
// invalid one fails construction with an error in the errs.ErrInvalidInput
// family.
func NewCompressor(opts ...Option) (*Compressor, error) {
	cfg := DefaultConfig()
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	lz, err := compress.NewSemanticLZCodec(cfg.WindowSize)
	if err != nil {
		return nil, err
	}

	dedupe, err := compress.NewSemanticDedupeCodec(compress.CodecConfig{
		Oracle:              cfg.Oracle,
		Store:               cfg.SharedStore,
		BlockSize:           cfg.DedupeBlockSize,
		SimilarityThreshold: cfg.SimilarityThreshold,
		OracleTimeout:       cfg.OracleTimeout,
		Digest:              cfg.DigestKind,
		PoolMethod:          cfg.PoolMethod,
	})
	if err != nil {
		return nil, err
	}

	return &Compressor{
		cfg:     cfg,
		huffman: compress.NewHuffmanCodec(),
		runs:    compress.NewEntropyRunCodec(),
		lz:      lz,
		dedupe:  dedupe,
	}, nil
}

// Config returns a copy of the compressor's resolved configuration.
func (c *Compressor) Config() Config {
	return c.cfg
}

// Compress encodes data with the requested method. format.MethodAuto
// delegates the choice to the entropy analyzer; a concrete method is used
// as given. Unknown method tags return ErrUnknownMethod, and inputs over
// the configured maximum return ErrInputTooLarge.
func (c *Compressor) Compress(data []byte, method format.Method) (*CompressedOutput, error) {
	if len(data) > c.cfg.MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes over the %d limit",
			errs.ErrInputTooLarge, len(data), c.cfg.MaxInputSize)
	}

	var (
		out *CompressedOutput
		err error
	)
	switch {
	case method == format.MethodAuto && c.cfg.ExhaustiveAuto:
		out, err = c.compressExhaustive(data)
	case method == format.MethodAuto:
		out, err = c.compressAuto(data)
	case method.IsConcrete():
		out, err = c.compressWith(data, method, nil)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(method))
	}
	if err != nil {
		return nil, err
	}

	c.stats.recordCompress(out)

	return out, nil
}

// compressAuto profiles the input and encodes with the selected method.
// The profile histogram is reused when the selection lands on Huffman, so
// the input is scanned once, not twice.
func (c *Compressor) compressAuto(data []byte) (*CompressedOutput, error) {
	profile := analysis.Analyze(data)
	method := analysis.Select(profile, analysis.SelectorHints{
		DedupeEnabled: c.cfg.EnableSemanticDedupe,
	})

	return c.compressWith(data, method, &profile)
}

// compressExhaustive encodes with every candidate method and keeps the
// smallest payload. Candidates are tried in the selector's priority order
// and ties keep the earlier method, so the outcome is deterministic.
func (c *Compressor) compressExhaustive(data []byte) (*CompressedOutput, error) {
	profile := analysis.Analyze(data)

	candidates := []format.Method{
		format.MethodHuffman,
		format.MethodEntropyRun,
		format.MethodSemanticLZ,
	}
	if c.cfg.EnableSemanticDedupe {
		candidates = append(candidates, format.MethodSemanticDedupe)
	}

	var best *CompressedOutput
	for _, method := range candidates {
		out, err := c.compressWith(data, method, &profile)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out.Payload) < len(best.Payload) {
			best = out
		}
	}

	return best, nil
}

// compressWith encodes data with one concrete method. A non-nil profile
// marks an automatic-selection pass: its histogram feeds the Huffman
// encoder and its entropy lands in the output metadata.
func (c *Compressor) compressWith(data []byte, method format.Method, profile *analysis.Profile) (*CompressedOutput, error) {
	var (
		payload []byte
		params  compress.Params
		meta    Metadata
		err     error
	)

	switch method {
	case format.MethodHuffman:
		if profile != nil {
			payload, params, err = c.huffman.EncodeWithHistogram(data, &profile.Histogram)
		} else {
			payload, params, err = c.huffman.Encode(data)
		}
	case format.MethodEntropyRun:
		payload, params, err = c.runs.Encode(data)
	case format.MethodSemanticLZ:
		payload, params, err = c.lz.Encode(data)
	case format.MethodSemanticDedupe:
		var metrics compress.DedupeMetrics
		payload, params, metrics, err = c.dedupe.EncodeWithMetrics(data)
		meta.BlockCount = metrics.BlockCount
		meta.DedupeHits = metrics.DedupeHits
		meta.SemanticHits = metrics.SemanticHits
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(method))
	}
	if err != nil {
		return nil, err
	}

	if profile != nil {
		meta.EntropyBits = profile.Entropy
	}

	return &CompressedOutput{
		Method:       method,
		OriginalSize: uint64(len(data)),
		Payload:      payload,
		Params:       params,
		Checksum:     hash.Sum64(payload),
		Ratio:        ratio(uint64(len(data)), len(payload)),
		Metadata:     meta,
	}, nil
}

// Decompress reverses a Compress call. The payload checksum is verified
// before any decoding; the stored method then dispatches to its codec, and
// any structural violation surfaces as an error in the
// errs.ErrCorruptPayload family.
func (c *Compressor) Decompress(out *CompressedOutput) ([]byte, error) {
	if out == nil {
		return nil, fmt.Errorf("%w: nil compressed output", errs.ErrInvalidInput)
	}
	if out.OriginalSize > uint64(c.cfg.MaxInputSize) {
		return nil, fmt.Errorf("%w: declared size %d over the %d limit",
			errs.ErrInputTooLarge, out.OriginalSize, c.cfg.MaxInputSize)
	}
	if sum := hash.Sum64(out.Payload); sum != out.Checksum {
		return nil, fmt.Errorf("%w: got 0x%016x, want 0x%016x",
			errs.ErrChecksumMismatch, sum, out.Checksum)
	}

	var codec compress.Codec
	switch out.Method {
	case format.MethodHuffman:
		codec = c.huffman
	case format.MethodEntropyRun:
		codec = c.runs
	case format.MethodSemanticLZ:
		codec = c.lz
	case format.MethodSemanticDedupe:
		codec = c.dedupe
	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(out.Method))
	}

	data, err := codec.Decode(out.Payload, out.Params, out.OriginalSize)
	if err != nil {
		return nil, err
	}

	c.stats.recordDecompress(len(data))

	return data, nil
}

// Stats returns a snapshot of the compressor's accumulated totals.
func (c *Compressor) Stats() CompressionStats {
	return c.stats.snapshot()
}
