// Package errs defines the sentinel errors shared across the sigma-compress packages.
//
// Errors are organized as four root kinds with specific sentinels chained into
// them via error wrapping. Callers can match either the specific sentinel or
// the kind:
//
//	err := compressor.Decompress(out)
//	if errors.Is(err, errs.ErrCorruptPayload) {
//	    // any structural decode failure
//	}
//	if errors.Is(err, errs.ErrInvalidMatchDistance) {
//	    // specifically a match pointing before the produced output
//	}
//
// Call sites add positional context with fmt.Errorf("%w: ...", errs.ErrXxx)
// so decode failures report the offset and the expected-vs-found values.
package errs

import (
	"errors"
	"fmt"
)

// Root error kinds.
var (
	// ErrInvalidInput indicates a configuration value or request argument out
	// of the accepted range. Compression itself fails only with this kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownMethod indicates an unrecognized compression method tag,
	// either in a request or in a stored container (forward-compatibility guard).
	ErrUnknownMethod = errors.New("unknown compression method")

	// ErrCorruptPayload indicates a structural decode failure: bad varint,
	// out-of-range match distance, unresolved block reference, truncated bit
	// stream, and similar. Violations are never silently fixed by clamping.
	ErrCorruptPayload = errors.New("corrupt payload")

	// ErrOracleUnavailable indicates the similarity oracle timed out, failed,
	// or is disabled. It is never fatal: the dedupe codec degrades to
	// exact-hash matching and the compression call still succeeds.
	ErrOracleUnavailable = errors.New("similarity oracle unavailable")
)

// Structural decode failures, all chained into ErrCorruptPayload.
var (
	ErrInvalidMagicNumber    = fmt.Errorf("%w: invalid magic number", ErrCorruptPayload)
	ErrInvalidHeaderSize     = fmt.Errorf("%w: invalid header size", ErrCorruptPayload)
	ErrUnsupportedVersion    = fmt.Errorf("%w: unsupported container version", ErrCorruptPayload)
	ErrChecksumMismatch      = fmt.Errorf("%w: payload checksum mismatch", ErrCorruptPayload)
	ErrTruncatedPayload      = fmt.Errorf("%w: truncated payload", ErrCorruptPayload)
	ErrInvalidVarint         = fmt.Errorf("%w: invalid varint", ErrCorruptPayload)
	ErrInvalidRunLength      = fmt.Errorf("%w: invalid run length", ErrCorruptPayload)
	ErrInvalidMatchDistance  = fmt.Errorf("%w: invalid match distance", ErrCorruptPayload)
	ErrInvalidCodeTable      = fmt.Errorf("%w: invalid huffman code table", ErrCorruptPayload)
	ErrUnknownCode           = fmt.Errorf("%w: unknown huffman code", ErrCorruptPayload)
	ErrInvalidBlockReference = fmt.Errorf("%w: invalid block reference", ErrCorruptPayload)
	ErrSizeMismatch          = fmt.Errorf("%w: decoded size mismatch", ErrCorruptPayload)
	ErrTrailingData          = fmt.Errorf("%w: trailing data after payload", ErrCorruptPayload)
	ErrInvalidParams         = fmt.Errorf("%w: invalid method parameters", ErrCorruptPayload)
)

// Configuration and request validation failures, chained into ErrInvalidInput.
var (
	ErrInvalidWindowSize = fmt.Errorf("%w: window size out of range", ErrInvalidInput)
	ErrInvalidBlockSize  = fmt.Errorf("%w: dedupe block size out of range", ErrInvalidInput)
	ErrInvalidThreshold  = fmt.Errorf("%w: similarity threshold out of range", ErrInvalidInput)
	ErrInputTooLarge     = fmt.Errorf("%w: input exceeds maximum size", ErrInvalidInput)
	ErrInvalidPoolMethod = fmt.Errorf("%w: unsupported pool stacking method", ErrInvalidInput)
	ErrInvalidDigestKind = fmt.Errorf("%w: unsupported digest kind", ErrInvalidInput)
)
