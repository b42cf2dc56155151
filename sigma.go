// Package sigma provides multi-strategy lossless compression with
// content-aware method selection.
//
// Sigma analyzes the statistical structure of each input (entropy, run
// structure, long-range repetition) and routes it to the compression
// method that structure favors: canonical Huffman coding, run-length
// entropy coding, windowed match coding, or semantic block deduplication.
// The chosen method and its parameters are recorded in a self-describing
// container, so decompression needs nothing but the bytes.
//
// # Core Features
//
//   - Automatic method selection driven by a single-pass entropy analyzer
//   - Canonical Huffman coding with a compact code-length table
//   - Run-length entropy coding for run-dominated inputs
//   - Windowed match coding (configurable 4 KiB - 1 MiB window)
//   - Semantic block dedupe with embedding-based similarity deltas
//   - Self-describing container format with xxHash64 payload checksums
//   - Lossless round-trips for every method, including similarity deltas
//
// # Basic Usage
//
// One-shot compression with automatic method selection:
//
//	import "github.com/iamthegreatdestroyer/sigma-compress"
//
//	out, _ := sigma.Compress(data)
//	fmt.Printf("method=%s ratio=%.1f\n", out.Method, out.Ratio)
//
//	restored, _ := sigma.Decompress(out)
//
// Persisting a container and reading it back:
//
//	buf, _ := sigma.Marshal(out)
//	// ... store buf anywhere ...
//	out2, _ := sigma.Unmarshal(buf)
//	restored, _ := sigma.Decompress(out2)
//
// Reusing a configured compressor:
//
//	comp, _ := sigma.New(
//	    engine.WithSemanticDedupe(true),
//	    engine.WithOracle(oracle.LocalOracle{}),
//	)
//	out, _ := comp.Compress(data, format.MethodAuto)
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the engine
// package, simplifying the most common use cases. For fine-grained
// control (shared dedupe stores, exhaustive selection, explicit codec
// tuning), use the engine package directly; the individual codecs live in
// the compress package.
package sigma

import (
	"github.com/iamthegreatdestroyer/sigma-compress/engine"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
)

// New creates a Compressor with custom options.
//
// This is the most flexible factory function, allowing full control over
// method selection and codec behavior through options.
//
// Parameters:
//   - opts: Optional configuration functions (see engine.Option)
//
// Returns:
//   - *engine.Compressor: The created compressor.
//   - error: An error if the configuration is invalid.
//
// Available options:
//   - engine.WithWindowSize(bytes)
//   - engine.WithDedupeBlockSize(bytes)
//   - engine.WithMaxInputSize(bytes)
//   - engine.WithSimilarityThreshold(0.0-1.0)
//   - engine.WithOracleTimeout(duration)
//   - engine.WithPoolMethod(format.MethodHuffman)
//   - engine.WithDigestKind(format.DigestXXH64|SHA256|BLAKE3)
//   - engine.WithOracle(oracle)
//   - engine.WithSemanticDedupe(true|false)
//   - engine.WithExhaustiveAuto(true|false)
//   - engine.WithSharedDedupeStore(store)
//
// Example:
//
//	comp, err := sigma.New(
//	    engine.WithWindowSize(128*1024),
//	    engine.WithSemanticDedupe(true),
//	    engine.WithOracle(oracle.LocalOracle{}),
//	)
func New(opts ...engine.Option) (*engine.Compressor, error) {
	return engine.NewCompressor(opts...)
}

// NewDefault creates a Compressor with recommended default settings.
//
// This is the recommended factory function for most use cases. It uses:
//   - 64 KiB match window
//   - 4 KiB dedupe blocks with xxHash64 block identity
//   - Semantic dedupe disabled (opt in with engine.WithSemanticDedupe)
//   - 100 MiB input ceiling
//
// Returns:
//   - *engine.Compressor: The created compressor.
//   - error: An error if construction fails.
//
// Example:
//
//	comp, err := sigma.NewDefault()
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewDefault() (*engine.Compressor, error) {
	return engine.NewCompressor()
}

// Compress compresses data with automatic method selection.
//
// The input is profiled in a single pass and routed to the method its
// structure favors. The returned output records the concrete method that
// was used; pass it to Decompress (or Marshal it) to get the data back.
//
// This is a convenience wrapper that builds a fresh compressor per call.
// For repeated use, create one with New and reuse it.
//
// Parameters:
//   - data: The bytes to compress (at most 100 MiB by default)
//   - opts: Optional configuration functions (see engine.Option)
//
// Returns:
//   - *engine.CompressedOutput: Payload, parameters, and compression stats.
//   - error: An error if configuration or input validation fails.
//
// Example:
//
//	out, err := sigma.Compress(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d -> %d bytes via %s\n", out.OriginalSize, len(out.Payload), out.Method)
func Compress(data []byte, opts ...engine.Option) (*engine.CompressedOutput, error) {
	comp, err := engine.NewCompressor(opts...)
	if err != nil {
		return nil, err
	}

	return comp.Compress(data, format.MethodAuto)
}

// CompressWith compresses data with an explicit method, bypassing
// automatic selection.
//
// Use this when the input's structure is known in advance, or to pin a
// method for reproducibility. format.MethodAuto is accepted and behaves
// like Compress.
//
// Parameters:
//   - data: The bytes to compress
//   - method: A concrete format.Method or format.MethodAuto
//   - opts: Optional configuration functions (see engine.Option)
//
// Returns:
//   - *engine.CompressedOutput: Payload, parameters, and compression stats.
//   - error: An error if the method is unknown or validation fails.
//
// Example:
//
//	out, err := sigma.CompressWith(data, format.MethodSemanticLZ)
func CompressWith(data []byte, method format.Method, opts ...engine.Option) (*engine.CompressedOutput, error) {
	comp, err := engine.NewCompressor(opts...)
	if err != nil {
		return nil, err
	}

	return comp.Compress(data, method)
}

// Decompress reverses a Compress or CompressWith call.
//
// The payload checksum is verified before decoding, and the method
// recorded in the output dispatches to its codec. Any structural damage
// surfaces as an error in the errs.ErrCorruptPayload family.
//
// Parameters:
//   - out: A compressed output from this package or engine, or parsed by
//     Unmarshal
//
// Returns:
//   - []byte: The original data, byte for byte.
//   - error: An error if verification or decoding fails.
//
// Example:
//
//	restored, err := sigma.Decompress(out)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Decompress(out *engine.CompressedOutput) ([]byte, error) {
	comp, err := engine.NewCompressor()
	if err != nil {
		return nil, err
	}

	return comp.Decompress(out)
}

// Marshal serializes a compressed output into its container bytes.
//
// The container is self-describing: fixed header (magic, version, method,
// sizes, payload checksum), method parameter block, then the payload.
// Unmarshal on any machine reverses it with no external state.
//
// Parameters:
//   - out: The compressed output to serialize
//
// Returns:
//   - []byte: The container bytes.
//   - error: An error if the output is inconsistent.
//
// Example:
//
//	buf, err := sigma.Marshal(out)
//	os.WriteFile("data.sigma", buf, 0o644)
func Marshal(out *engine.CompressedOutput) ([]byte, error) {
	return out.MarshalBinary()
}

// Unmarshal parses container bytes produced by Marshal.
//
// The header is validated (magic, version, method tag), the payload
// checksum is verified, and the method parameter block is decoded. The
// returned output is ready for Decompress.
//
// Parameters:
//   - data: The container bytes
//
// Returns:
//   - *engine.CompressedOutput: The parsed output.
//   - error: An error in the errs.ErrCorruptPayload family if the
//     container is damaged.
//
// Example:
//
//	buf, _ := os.ReadFile("data.sigma")
//	out, err := sigma.Unmarshal(buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	restored, _ := sigma.Decompress(out)
func Unmarshal(data []byte) (*engine.CompressedOutput, error) {
	out := &engine.CompressedOutput{}
	if err := out.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return out, nil
}
