package compress

import (
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/endian"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
)

var engine = endian.GetLittleEndianEngine()

// Params is the method-specific parameter block stored in a container
// between header and payload. Each codec defines the parameters its
// decoder needs; a decoder reconstructs the original bytes from payload,
// params, and the original size alone.
type Params interface {
	// Method returns the method these parameters belong to.
	Method() format.Method
	// AppendBinary appends the serialized parameter block to dst.
	AppendBinary(dst []byte) ([]byte, error)
}

// HuffmanParams carries the canonical code length table. The lengths
// fully determine the code table; no code values are stored.
type HuffmanParams struct {
	// CodeLengths holds the canonical code length per byte value; 0 means
	// the value does not occur.
	CodeLengths [256]uint8
}

// Method returns format.MethodHuffman.
func (p *HuffmanParams) Method() format.Method { return format.MethodHuffman }

// AppendBinary appends the raw 256-byte length table, or nothing when the
// table is empty (the empty-input encoding).
func (p *HuffmanParams) AppendBinary(dst []byte) ([]byte, error) {
	empty := true
	for _, l := range p.CodeLengths {
		if l != 0 {
			empty = false
			break
		}
	}
	if empty {
		return dst, nil
	}

	return append(dst, p.CodeLengths[:]...), nil
}

// RunParams is the (empty) parameter block of the run-length entropy
// codec. The pair stream is self-describing.
type RunParams struct{}

// Method returns format.MethodEntropyRun.
func (p *RunParams) Method() format.Method { return format.MethodEntropyRun }

// AppendBinary appends nothing; the codec has no parameters.
func (p *RunParams) AppendBinary(dst []byte) ([]byte, error) {
	return dst, nil
}

// LZParams carries the match codec's window size. The decoder derives the
// distance field width from it, so the stored window must match the one
// used at encode time exactly.
type LZParams struct {
	// WindowSize is the sliding window in bytes.
	WindowSize uint32
}

// Method returns format.MethodSemanticLZ.
func (p *LZParams) Method() format.Method { return format.MethodSemanticLZ }

// AppendBinary appends the window size as 4 little-endian bytes.
func (p *LZParams) AppendBinary(dst []byte) ([]byte, error) {
	return engine.AppendUint32(dst, p.WindowSize), nil
}

// Validate checks the window size range.
func (p *LZParams) Validate() error {
	if p.WindowSize < MinWindowSize || p.WindowSize > MaxWindowSize {
		return fmt.Errorf("%w: window size %d outside [%d, %d]",
			errs.ErrInvalidParams, p.WindowSize, MinWindowSize, MaxWindowSize)
	}

	return nil
}

// DedupeParams carries the block dedupe codec's decode parameters.
type DedupeParams struct {
	// BlockSize is the fixed partition width in bytes.
	BlockSize uint32
	// Digest is the content digest kind used for block identity.
	Digest format.DigestKind
	// PoolMethod is the stacked method applied to each unique block and
	// delta record; 0 means blocks are stored raw.
	PoolMethod format.Method
}

// Method returns format.MethodSemanticDedupe.
func (p *DedupeParams) Method() format.Method { return format.MethodSemanticDedupe }

// AppendBinary appends block size (4 bytes little-endian), digest kind
// (1 byte) and pool method (1 byte).
func (p *DedupeParams) AppendBinary(dst []byte) ([]byte, error) {
	dst = engine.AppendUint32(dst, p.BlockSize)
	dst = append(dst, uint8(p.Digest), uint8(p.PoolMethod))

	return dst, nil
}

// Validate checks block size, digest kind and pool method.
func (p *DedupeParams) Validate() error {
	if p.BlockSize < MinBlockSize {
		return fmt.Errorf("%w: block size %d below minimum %d",
			errs.ErrInvalidParams, p.BlockSize, MinBlockSize)
	}
	if !p.Digest.Valid() {
		return fmt.Errorf("%w: digest kind 0x%02x", errs.ErrInvalidParams, uint8(p.Digest))
	}
	if p.PoolMethod != 0 && p.PoolMethod != format.MethodHuffman {
		return fmt.Errorf("%w: pool method 0x%02x", errs.ErrInvalidParams, uint8(p.PoolMethod))
	}

	return nil
}

// ParseParams deserializes the parameter block for the given method.
//
// Structural violations (wrong length, out-of-range values) return errors
// wrapping errs.ErrInvalidParams, which chains into ErrCorruptPayload:
// a malformed parameter block means a damaged container, not a caller bug.
func ParseParams(m format.Method, block []byte) (Params, error) {
	switch m {
	case format.MethodHuffman:
		p := &HuffmanParams{}
		switch len(block) {
		case 0:
			// Empty-input container: all-zero table
			return p, nil
		case 256:
			copy(p.CodeLengths[:], block)
			return p, nil
		default:
			return nil, fmt.Errorf("%w: huffman table length %d, want 0 or 256",
				errs.ErrInvalidParams, len(block))
		}

	case format.MethodEntropyRun:
		if len(block) != 0 {
			return nil, fmt.Errorf("%w: run codec takes no parameters, got %d bytes",
				errs.ErrInvalidParams, len(block))
		}
		return &RunParams{}, nil

	case format.MethodSemanticLZ:
		if len(block) != 4 {
			return nil, fmt.Errorf("%w: window parameter length %d, want 4",
				errs.ErrInvalidParams, len(block))
		}
		p := &LZParams{WindowSize: engine.Uint32(block)}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil

	case format.MethodSemanticDedupe:
		if len(block) != 6 {
			return nil, fmt.Errorf("%w: dedupe parameter length %d, want 6",
				errs.ErrInvalidParams, len(block))
		}
		p := &DedupeParams{
			BlockSize:  engine.Uint32(block[0:4]),
			Digest:     format.DigestKind(block[4]),
			PoolMethod: format.Method(block[5]),
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(m))
	}
}
