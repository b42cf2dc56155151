package compress

import (
	"encoding/binary"
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/pool"
)

// EntropyRunCodec implements run-length pair coding. The payload is a
// sequence of (byte value, uvarint run length) pairs with no framing;
// the declared original size tells the decoder when to stop.
//
// Best for data dominated by long runs of identical bytes. Worst case is
// alternating bytes, which doubles the input size.
type EntropyRunCodec struct{}

// NewEntropyRunCodec creates a run-length pair codec.
func NewEntropyRunCodec() *EntropyRunCodec {
	return &EntropyRunCodec{}
}

// Method returns format.MethodEntropyRun.
func (c *EntropyRunCodec) Method() format.Method { return format.MethodEntropyRun }

// Encode emits one (value, length) pair per maximal run.
func (c *EntropyRunCodec) Encode(data []byte) ([]byte, Params, error) {
	params := &RunParams{}
	if len(data) == 0 {
		return nil, params, nil
	}

	buf := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(buf)

	var pair [1 + binary.MaxVarintLen64]byte
	runStart := 0
	for i := 1; i <= len(data); i++ {
		if i < len(data) && data[i] == data[runStart] {
			continue
		}
		pair[0] = data[runStart]
		n := binary.PutUvarint(pair[1:], uint64(i-runStart))
		buf.MustWrite(pair[:1+n])
		runStart = i
	}

	payload := make([]byte, buf.Len())
	copy(payload, buf.Bytes())

	return payload, params, nil
}

// Decode expands the pair stream back to originalSize bytes.
func (c *EntropyRunCodec) Decode(payload []byte, params Params, originalSize uint64) ([]byte, error) {
	if _, ok := params.(*RunParams); !ok {
		return nil, paramsMismatch(format.MethodEntropyRun, params)
	}

	out := make([]byte, 0, originalSize)
	pos := 0
	for uint64(len(out)) < originalSize {
		if pos >= len(payload) {
			return nil, fmt.Errorf("%w: pair stream ended at output offset %d of %d",
				errs.ErrTruncatedPayload, len(out), originalSize)
		}
		value := payload[pos]
		pos++

		runLen, n := binary.Uvarint(payload[pos:])
		if n <= 0 {
			return nil, fmt.Errorf("%w: run length at payload offset %d", errs.ErrInvalidVarint, pos)
		}
		pos += n

		if runLen == 0 {
			return nil, fmt.Errorf("%w: zero-length run at payload offset %d", errs.ErrInvalidRunLength, pos-n)
		}
		if uint64(len(out))+runLen > originalSize {
			return nil, fmt.Errorf("%w: run of %d overruns declared size %d at output offset %d",
				errs.ErrSizeMismatch, runLen, originalSize, len(out))
		}

		for i := uint64(0); i < runLen; i++ {
			out = append(out, value)
		}
	}

	if pos != len(payload) {
		return nil, fmt.Errorf("%w: %d payload bytes after final run", errs.ErrTrailingData, len(payload)-pos)
	}

	return out, nil
}
