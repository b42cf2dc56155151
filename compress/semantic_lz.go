package compress

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/bitstream"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/pool"
)

const (
	// lzMinMatch is the shortest encodable match; the 8-bit length field
	// stores length minus this floor.
	lzMinMatch = 3
	// lzMaxMatch is the longest encodable match: 16-bit extension plus floor.
	lzMaxMatch = lzMinMatch + math.MaxUint16
	// lzShingleSize is the matcher's hash width. Discovered matches are at
	// least this long, so the encoder never emits the 3-byte floor.
	lzShingleSize = 4
	// lzMaxChainSteps bounds the hash chain walk per position.
	lzMaxChainSteps = 64
	// lzHashBits sizes the chain head table.
	lzHashBits = 16
	// lzLongLength is the 8-bit escape marking a 16-bit length extension.
	lzLongLength = 255
)

// SemanticLZCodec implements windowed match coding over a hash-chain
// matcher. The token stream interleaves literals (tag bit 0 plus 8 bits)
// and matches (tag bit 1, distance minus one in the window's bit width,
// then an 8-bit length with a 16-bit escape for long matches).
//
// The distance field width is derived from the window size, so the window
// travels in the parameter block and must match exactly at decode time.
type SemanticLZCodec struct {
	windowSize int
	distBits   int
}

// NewSemanticLZCodec creates a match codec with the given window size in
// bytes. Zero selects DefaultWindowSize; out-of-range values are rejected.
func NewSemanticLZCodec(windowSize int) (*SemanticLZCodec, error) {
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	if windowSize < MinWindowSize || windowSize > MaxWindowSize {
		return nil, fmt.Errorf("%w: %d outside [%d, %d]",
			errs.ErrInvalidWindowSize, windowSize, MinWindowSize, MaxWindowSize)
	}

	return &SemanticLZCodec{
		windowSize: windowSize,
		distBits:   bits.Len(uint(windowSize - 1)),
	}, nil
}

// Method returns format.MethodSemanticLZ.
func (c *SemanticLZCodec) Method() format.Method { return format.MethodSemanticLZ }

// WindowSize returns the configured sliding window in bytes.
func (c *SemanticLZCodec) WindowSize() int { return c.windowSize }

// Encode compresses data with greedy longest-match parsing. Ties between
// equally long matches resolve to the nearest candidate, which the chain
// walk visits first.
func (c *SemanticLZCodec) Encode(data []byte) ([]byte, Params, error) {
	params := &LZParams{WindowSize: uint32(c.windowSize)}
	if len(data) == 0 {
		return nil, params, nil
	}
	if len(data) > math.MaxInt32 {
		return nil, nil, fmt.Errorf("%w: %d bytes exceeds matcher position limit", errs.ErrInputTooLarge, len(data))
	}

	head, headCleanup := pool.GetInt32Slice(1 << lzHashBits)
	defer headCleanup()
	chain, chainCleanup := pool.GetInt32Slice(c.windowSize)
	defer chainCleanup()
	for i := range head {
		head[i] = -1
	}
	for i := range chain {
		chain[i] = -1
	}

	w := bitstream.NewWriter()
	defer w.Finish()

	pos := 0
	for pos < len(data) {
		bestLen, bestDist := 0, 0
		if pos+lzShingleSize <= len(data) {
			limit := len(data) - pos
			if limit > lzMaxMatch {
				limit = lzMaxMatch
			}

			candidate := head[lzHash(data[pos:])]
			for steps := 0; steps < lzMaxChainSteps && candidate >= 0; steps++ {
				dist := pos - int(candidate)
				if dist > c.windowSize {
					break
				}
				if l := matchLength(data, int(candidate), pos, limit); l > bestLen {
					bestLen, bestDist = l, dist
					if bestLen == limit {
						break
					}
				}

				// A slot overwritten after the ring wrapped points forward;
				// the chain only ever walks toward older positions.
				next := chain[int(candidate)%c.windowSize]
				if next >= candidate {
					break
				}
				candidate = next
			}
		}

		if bestLen >= lzShingleSize {
			c.writeMatch(w, bestDist, bestLen)
			for end := pos + bestLen; pos < end; pos++ {
				if pos+lzShingleSize <= len(data) {
					c.insert(data, pos, head, chain)
				}
			}
		} else {
			w.WriteBit(0)
			w.WriteBits(uint64(data[pos]), 8)
			if pos+lzShingleSize <= len(data) {
				c.insert(data, pos, head, chain)
			}
			pos++
		}
	}

	encoded := w.Bytes()
	payload := make([]byte, len(encoded))
	copy(payload, encoded)

	return payload, params, nil
}

// Decode replays the token stream. Matches copy byte by byte so that
// overlapping copies (distance shorter than length) repeat correctly.
func (c *SemanticLZCodec) Decode(payload []byte, params Params, originalSize uint64) ([]byte, error) {
	p, ok := params.(*LZParams)
	if !ok {
		return nil, paramsMismatch(format.MethodSemanticLZ, params)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if originalSize == 0 {
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: %d payload bytes for empty output", errs.ErrTrailingData, len(payload))
		}
		return []byte{}, nil
	}

	window := int(p.WindowSize)
	distBits := bits.Len(uint(window - 1))

	out := make([]byte, 0, originalSize)
	r := bitstream.NewReader(payload)

	for uint64(len(out)) < originalSize {
		tag, ok := r.ReadBit()
		if !ok {
			return nil, fmt.Errorf("%w: token stream ended at output offset %d of %d",
				errs.ErrTruncatedPayload, len(out), originalSize)
		}

		if tag == 0 {
			lit, ok := r.ReadBits(8)
			if !ok {
				return nil, fmt.Errorf("%w: literal at output offset %d", errs.ErrTruncatedPayload, len(out))
			}
			out = append(out, byte(lit))
			continue
		}

		rawDist, ok := r.ReadBits(distBits)
		if !ok {
			return nil, fmt.Errorf("%w: match distance at output offset %d", errs.ErrTruncatedPayload, len(out))
		}
		dist := int(rawDist) + 1

		rawLen, ok := r.ReadBits(8)
		if !ok {
			return nil, fmt.Errorf("%w: match length at output offset %d", errs.ErrTruncatedPayload, len(out))
		}
		length := int(rawLen) + lzMinMatch
		if rawLen == lzLongLength {
			ext, ok := r.ReadBits(16)
			if !ok {
				return nil, fmt.Errorf("%w: match length extension at output offset %d", errs.ErrTruncatedPayload, len(out))
			}
			length = int(ext) + lzMinMatch
		}

		if dist > window {
			return nil, fmt.Errorf("%w: distance %d exceeds window %d at output offset %d",
				errs.ErrInvalidMatchDistance, dist, window, len(out))
		}
		if dist > len(out) {
			return nil, fmt.Errorf("%w: distance %d at output offset %d, only %d bytes produced",
				errs.ErrInvalidMatchDistance, dist, len(out), len(out))
		}
		if uint64(len(out))+uint64(length) > originalSize {
			return nil, fmt.Errorf("%w: match of %d at output offset %d overruns declared size %d",
				errs.ErrSizeMismatch, length, len(out), originalSize)
		}

		src := len(out) - dist
		for i := 0; i < length; i++ {
			out = append(out, out[src+i])
		}
	}

	if r.BytesConsumed() != len(payload) {
		return nil, fmt.Errorf("%w: %d payload bytes, %d consumed",
			errs.ErrTrailingData, len(payload), r.BytesConsumed())
	}

	return out, nil
}

// writeMatch emits a match token: tag bit, distance minus one, then the
// direct or extended length form, whichever is shorter.
func (c *SemanticLZCodec) writeMatch(w *bitstream.Writer, dist, length int) {
	w.WriteBit(1)
	w.WriteBits(uint64(dist-1), c.distBits)

	if encoded := length - lzMinMatch; encoded < lzLongLength {
		w.WriteBits(uint64(encoded), 8)
	} else {
		w.WriteBits(lzLongLength, 8)
		w.WriteBits(uint64(length-lzMinMatch), 16)
	}
}

// insert links position pos into the hash chain. The link table is a ring
// over the window, so entries older than one window are overwritten.
func (c *SemanticLZCodec) insert(data []byte, pos int, head, chain []int32) {
	h := lzHash(data[pos:])
	chain[pos%c.windowSize] = head[h]
	head[h] = int32(pos)
}

// lzHash maps a 4-byte shingle to a chain head index. Knuth's
// multiplicative constant spreads the shingle across the table.
func lzHash(p []byte) uint32 {
	return (binary.LittleEndian.Uint32(p) * 2654435761) >> (32 - lzHashBits)
}

// matchLength counts matching bytes between an earlier position src and
// the current position pos, capped at limit.
func matchLength(data []byte, src, pos, limit int) int {
	n := 0
	for n < limit && data[src+n] == data[pos+n] {
		n++
	}

	return n
}
