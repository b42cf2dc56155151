// Package compress provides the four compression codecs behind the
// sigma-compress container format.
//
// Each codec turns a byte slice into a method-specific payload plus a
// small parameter block, and reverses the transformation given payload,
// parameters, and the original size. The container framing around these
// pieces lives in the section package; the method selection policy lives
// in the analysis package.
//
// # Overview
//
// The package implements one codec per storable method:
//   - Huffman: canonical Huffman entropy coding over byte symbols
//   - EntropyRun: run-length pair coding for run-dominated data
//   - SemanticLZ: windowed match coding over a hash-chain matcher
//   - SemanticDedupe: block-level dedupe with similarity deltas
//
// # Architecture
//
// All codecs satisfy a single interface:
//
//	type Codec interface {
//	    Method() format.Method
//	    Encode(data []byte) (payload []byte, params Params, err error)
//	    Decode(payload []byte, params Params, originalSize uint64) ([]byte, error)
//	}
//
// Parameters travel separately from the payload so the container can
// frame them independently; ParseParams rebuilds a typed Params from the
// stored parameter block.
//
// # Supported Methods
//
// **Canonical Huffman** (format.MethodHuffman)
//
//	codec := compress.NewHuffmanCodec()
//	payload, params, _ := codec.Encode(data)
//	original, _ := codec.Decode(payload, params, uint64(len(data)))
//
// The parameter block is the 256-byte code length table; code values are
// reassigned canonically on both sides, so tree shape never travels.
// Works on anything, wins on skewed byte distributions, and is the
// fallback when no other method applies.
//
// **Run-Length Pairs** (format.MethodEntropyRun)
//
//	codec := compress.NewEntropyRunCodec()
//
// Maximal runs become (value, uvarint length) pairs. Unbeatable on
// run-dominated data such as zero padding and sensor plateaus; expands
// alternating bytes to twice the input, so the selector only picks it
// when runs cover at least half the input.
//
// **Windowed Matching** (format.MethodSemanticLZ)
//
//	codec, _ := compress.NewSemanticLZCodec(compress.DefaultWindowSize)
//
// Greedy longest-match parsing over 4-byte shingle hash chains, with a
// bit-packed token stream. The window (4 KiB to 1 MiB) fixes the
// distance field width and travels in the parameter block.
//
// **Block Dedupe** (format.MethodSemanticDedupe)
//
//	codec, _ := compress.NewSemanticDedupeCodec(compress.CodecConfig{
//	    Oracle: oracle.LocalOracle{},
//	})
//
// Fixed-size blocks are deduplicated by content digest; near-duplicate
// blocks (judged by embedding cosine similarity) are stored as XOR
// deltas against an earlier block. Oracle failures degrade the pass to
// exact matching and never fail the call. Decoding is oracle-free.
//
// # Error Handling
//
// Encode fails only for invalid configuration or oversized input, both
// in the errs.ErrInvalidInput family. Decode failures are structural and
// chain into errs.ErrCorruptPayload with positional context:
//
//	_, err := codec.Decode(payload, params, size)
//	if errors.Is(err, errs.ErrCorruptPayload) {
//	    // damaged or truncated payload
//	}
//
// Decoders never clamp or repair: the first violation aborts the call.
//
// # Memory Management
//
// Encoders build payloads in pooled buffers and return fresh copies the
// caller owns. The match codec's hash-chain arrays come from typed slice
// pools and are reset on every call. Input slices are never retained.
//
// # Thread Safety
//
// Codecs are safe for concurrent use. The dedupe codec locks its store
// per encode pass; see DedupeStore for the sharing contract.
package compress
