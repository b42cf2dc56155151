package compress

import (
	"container/heap"
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/bitstream"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/pool"
)

// maxCodeLen is the deepest code the decoder accepts. A deeper code would
// need Fibonacci-like frequencies over an input far beyond the engine's
// input cap, so encoders never produce one.
const maxCodeLen = 64

// HuffmanCodec implements canonical Huffman entropy coding.
//
// The encoder builds a Huffman tree with deterministic tie-breaking (equal
// frequencies order by the lowest byte value contained in the subtree),
// then discards the tree shape and keeps only the code length per byte
// value. Codes are reassigned canonically, ordered by (length, byte value),
// so the 256-byte length table is the entire parameter block.
//
// Identical input always produces identical output.
type HuffmanCodec struct{}

// NewHuffmanCodec creates a canonical Huffman codec.
func NewHuffmanCodec() *HuffmanCodec {
	return &HuffmanCodec{}
}

// Method returns format.MethodHuffman.
func (c *HuffmanCodec) Method() format.Method { return format.MethodHuffman }

// Encode compresses data with a code table derived from its byte histogram.
func (c *HuffmanCodec) Encode(data []byte) ([]byte, Params, error) {
	histSlice, cleanup := pool.GetUint64Slice(256)
	defer cleanup()

	hist := (*[256]uint64)(histSlice)
	for i := range hist {
		hist[i] = 0
	}
	for _, b := range data {
		hist[b]++
	}

	return c.EncodeWithHistogram(data, hist)
}

// EncodeWithHistogram compresses data using a precomputed byte histogram,
// avoiding a second pass when the caller has already analyzed the input.
// The histogram must count exactly the bytes of data; a byte present in
// data but absent from the histogram is rejected.
func (c *HuffmanCodec) EncodeWithHistogram(data []byte, hist *[256]uint64) ([]byte, Params, error) {
	params := &HuffmanParams{}
	if len(data) == 0 {
		return nil, params, nil
	}

	params.CodeLengths = buildCodeLengths(hist)

	var codes [256]uint64
	assignCanonicalCodes(&params.CodeLengths, &codes)

	w := bitstream.NewWriter()
	defer w.Finish()

	for _, b := range data {
		length := int(params.CodeLengths[b])
		if length == 0 {
			return nil, nil, fmt.Errorf("%w: byte 0x%02x not present in histogram", errs.ErrInvalidInput, b)
		}
		w.WriteBits(codes[b], length)
	}

	encoded := w.Bytes()
	payload := make([]byte, len(encoded))
	copy(payload, encoded)

	return payload, params, nil
}

// Decode rebuilds the original bytes from the bit stream and length table.
func (c *HuffmanCodec) Decode(payload []byte, params Params, originalSize uint64) ([]byte, error) {
	p, ok := params.(*HuffmanParams)
	if !ok {
		return nil, paramsMismatch(format.MethodHuffman, params)
	}

	if originalSize == 0 {
		if len(payload) != 0 {
			return nil, fmt.Errorf("%w: %d payload bytes for empty output", errs.ErrTrailingData, len(payload))
		}
		return []byte{}, nil
	}

	dec, err := newHuffDecoder(p)
	if err != nil {
		return nil, err
	}
	if dec.maxLen == 0 {
		return nil, fmt.Errorf("%w: empty code table for %d output bytes", errs.ErrInvalidCodeTable, originalSize)
	}

	out := make([]byte, 0, originalSize)
	r := bitstream.NewReader(payload)

	var code uint64
	var length int
	for uint64(len(out)) < originalSize {
		bit, ok := r.ReadBit()
		if !ok {
			return nil, fmt.Errorf("%w: bit stream ended at output offset %d of %d",
				errs.ErrTruncatedPayload, len(out), originalSize)
		}
		code = code<<1 | uint64(bit)
		length++

		if length > dec.maxLen {
			return nil, fmt.Errorf("%w: no code matches at output offset %d", errs.ErrUnknownCode, len(out))
		}
		if dec.count[length] == 0 || code < dec.firstCode[length] {
			continue
		}
		idx := code - dec.firstCode[length]
		if idx >= uint64(dec.count[length]) {
			continue
		}

		out = append(out, dec.symbols[dec.symOffset[length]+int(idx)])
		code, length = 0, 0
	}

	if r.BytesConsumed() != len(payload) {
		return nil, fmt.Errorf("%w: %d payload bytes, %d consumed",
			errs.ErrTrailingData, len(payload), r.BytesConsumed())
	}

	return out, nil
}

// huffNode is one tree node in the build arena. Leaves have left < 0.
type huffNode struct {
	freq   uint64
	minSym uint16
	sym    uint16
	left   int16
	right  int16
}

// huffHeap orders arena indices by (frequency, lowest contained symbol),
// which pins the tree shape for equal-frequency inputs.
type huffHeap struct {
	nodes []huffNode
	order []int16
}

func (h *huffHeap) Len() int { return len(h.order) }

func (h *huffHeap) Less(i, j int) bool {
	a, b := &h.nodes[h.order[i]], &h.nodes[h.order[j]]
	if a.freq != b.freq {
		return a.freq < b.freq
	}

	return a.minSym < b.minSym
}

func (h *huffHeap) Swap(i, j int) { h.order[i], h.order[j] = h.order[j], h.order[i] }

func (h *huffHeap) Push(x any) { h.order = append(h.order, x.(int16)) }

func (h *huffHeap) Pop() any {
	last := h.order[len(h.order)-1]
	h.order = h.order[:len(h.order)-1]

	return last
}

// buildCodeLengths derives the canonical code length table from a byte
// histogram. A lone distinct byte gets a one-bit code.
func buildCodeLengths(hist *[256]uint64) [256]uint8 {
	var lengths [256]uint8

	h := &huffHeap{
		nodes: make([]huffNode, 0, 511),
		order: make([]int16, 0, 256),
	}
	for sym := 0; sym < 256; sym++ {
		if hist[sym] == 0 {
			continue
		}
		h.nodes = append(h.nodes, huffNode{
			freq:   hist[sym],
			minSym: uint16(sym),
			sym:    uint16(sym),
			left:   -1,
			right:  -1,
		})
		h.order = append(h.order, int16(len(h.nodes)-1))
	}

	switch len(h.nodes) {
	case 0:
		return lengths
	case 1:
		lengths[h.nodes[0].sym] = 1
		return lengths
	}

	heap.Init(h)
	for h.Len() > 1 {
		left := heap.Pop(h).(int16)
		right := heap.Pop(h).(int16)

		minSym := h.nodes[left].minSym
		if h.nodes[right].minSym < minSym {
			minSym = h.nodes[right].minSym
		}
		h.nodes = append(h.nodes, huffNode{
			freq:   h.nodes[left].freq + h.nodes[right].freq,
			minSym: minSym,
			left:   left,
			right:  right,
		})
		heap.Push(h, int16(len(h.nodes)-1))
	}

	// Walk the finished tree; leaf depth is the code length.
	type frame struct {
		node  int16
		depth uint8
	}
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{node: h.order[0]})
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &h.nodes[f.node]
		if n.left < 0 {
			lengths[n.sym] = f.depth
			continue
		}
		stack = append(stack,
			frame{node: n.left, depth: f.depth + 1},
			frame{node: n.right, depth: f.depth + 1})
	}

	return lengths
}

// assignCanonicalCodes fills codes from the length table. Codes are
// numbered consecutively within each length, shorter lengths first,
// ascending byte value within a length.
func assignCanonicalCodes(lengths *[256]uint8, codes *[256]uint64) {
	var count [maxCodeLen + 1]uint16
	maxLen := 0
	for _, l := range lengths {
		if l == 0 {
			continue
		}
		count[l]++
		if int(l) > maxLen {
			maxLen = int(l)
		}
	}

	var nextCode [maxCodeLen + 1]uint64
	code := uint64(0)
	for l := 1; l <= maxLen; l++ {
		code = (code + uint64(count[l-1])) << 1
		nextCode[l] = code
	}

	for sym := 0; sym < 256; sym++ {
		l := lengths[sym]
		if l == 0 {
			continue
		}
		codes[sym] = nextCode[l]
		nextCode[l]++
	}
}

// huffDecoder is the per-Decode view of a code table: symbol counts,
// first canonical code and symbol table offset per length.
type huffDecoder struct {
	count     [maxCodeLen + 1]uint16
	firstCode [maxCodeLen + 1]uint64
	symOffset [maxCodeLen + 1]int
	symbols   [256]byte
	maxLen    int
}

// newHuffDecoder validates the length table and builds the decode view.
// Over-subscribed tables (more codes than the code space holds) are
// rejected; incomplete tables are legal, the one-symbol table included.
func newHuffDecoder(p *HuffmanParams) (*huffDecoder, error) {
	d := &huffDecoder{}

	for sym, l := range p.CodeLengths {
		if l == 0 {
			continue
		}
		if int(l) > maxCodeLen {
			return nil, fmt.Errorf("%w: code length %d for byte 0x%02x exceeds %d",
				errs.ErrInvalidCodeTable, l, sym, maxCodeLen)
		}
		d.count[l]++
		if int(l) > d.maxLen {
			d.maxLen = int(l)
		}
	}

	// Kraft check: walk the code space level by level. Once more than 256
	// slots are free the remaining symbols can never exhaust them, so the
	// running count is clamped to dodge overflow at depth 64.
	available := 1
	for l := 1; l <= d.maxLen; l++ {
		available <<= 1
		available -= int(d.count[l])
		if available < 0 {
			return nil, fmt.Errorf("%w: over-subscribed at length %d", errs.ErrInvalidCodeTable, l)
		}
		if available > 256 {
			available = 256
		}
	}

	code := uint64(0)
	idx := 0
	for l := 1; l <= d.maxLen; l++ {
		code = (code + uint64(d.count[l-1])) << 1
		d.firstCode[l] = code

		d.symOffset[l] = idx
		if d.count[l] == 0 {
			continue
		}
		for sym := 0; sym < 256; sym++ {
			if int(p.CodeLengths[sym]) == l {
				d.symbols[idx] = byte(sym)
				idx++
			}
		}
	}

	return d, nil
}
