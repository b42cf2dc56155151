package compress

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/hash"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/pool"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

// Dedupe token tags. One token per input block, in input order.
const (
	// dedupeTagUnique marks a block stored in the unique pool. The n-th
	// unique token consumes the n-th pool record.
	dedupeTagUnique = 0x00
	// dedupeTagReference marks an exact repeat of an earlier unique block,
	// followed by the unique index as a uvarint.
	dedupeTagReference = 0x01
	// dedupeTagSimilar marks a near-repeat, followed by the unique index
	// and an XOR delta record against that block.
	dedupeTagSimilar = 0x02
)

// DedupeMetrics reports what the dedupe encoder did with each input block.
type DedupeMetrics struct {
	// BlockCount is the number of blocks the input was partitioned into.
	BlockCount int
	// UniqueBlocks is the number of blocks stored in the pool.
	UniqueBlocks int
	// DedupeHits is the number of exact-repeat references emitted.
	DedupeHits int
	// SemanticHits is the number of similarity deltas emitted.
	SemanticHits int
	// Degraded is true when an oracle failure switched the pass to
	// hash-only matching partway through.
	Degraded bool
}

// SemanticDedupeCodec implements block-level deduplication. Input is
// partitioned into fixed-size blocks; each block becomes a token: a new
// unique entry, an exact reference to an earlier unique, or a similarity
// delta against the most similar earlier unique as judged by the
// embedding oracle.
//
// Oracle failures are never fatal. The first failed or timed-out Embed
// call degrades the remainder of the pass to exact-hash matching, and
// encoding continues. Decoding never consults the oracle: deltas carry
// the exact bytes needed for reconstruction.
type SemanticDedupeCodec struct {
	oracle        oracle.SimilarityOracle
	store         *DedupeStore
	huffman       *HuffmanCodec
	oracleTimeout time.Duration
	blockSize     int
	threshold     float64
	digest        format.DigestKind
	poolMethod    format.Method
}

// NewSemanticDedupeCodec creates a dedupe codec from cfg. Zero-value
// fields select defaults; out-of-range values are rejected.
func NewSemanticDedupeCodec(cfg CodecConfig) (*SemanticDedupeCodec, error) {
	if cfg.BlockSize == 0 {
		cfg.BlockSize = DefaultBlockSize
	}
	if cfg.BlockSize < MinBlockSize || int64(cfg.BlockSize) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d outside [%d, %d]",
			errs.ErrInvalidBlockSize, cfg.BlockSize, MinBlockSize, int64(math.MaxUint32))
	}

	if cfg.SimilarityThreshold == 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if math.IsNaN(cfg.SimilarityThreshold) || cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold > 1 {
		return nil, fmt.Errorf("%w: %v outside [0.0, 1.0]", errs.ErrInvalidThreshold, cfg.SimilarityThreshold)
	}

	if cfg.OracleTimeout == 0 {
		cfg.OracleTimeout = DefaultOracleTimeout
	}
	if cfg.OracleTimeout < 0 {
		return nil, fmt.Errorf("%w: negative oracle timeout %v", errs.ErrInvalidInput, cfg.OracleTimeout)
	}

	if cfg.Digest == 0 {
		cfg.Digest = format.DigestXXH64
	}
	if !cfg.Digest.Valid() {
		return nil, fmt.Errorf("%w: 0x%02x", errs.ErrInvalidDigestKind, uint8(cfg.Digest))
	}

	if cfg.PoolMethod != 0 && cfg.PoolMethod != format.MethodHuffman {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidPoolMethod, cfg.PoolMethod)
	}

	return &SemanticDedupeCodec{
		oracle:        cfg.Oracle,
		store:         cfg.Store,
		huffman:       NewHuffmanCodec(),
		oracleTimeout: cfg.OracleTimeout,
		blockSize:     cfg.BlockSize,
		threshold:     cfg.SimilarityThreshold,
		digest:        cfg.Digest,
		poolMethod:    cfg.PoolMethod,
	}, nil
}

// Method returns format.MethodSemanticDedupe.
func (c *SemanticDedupeCodec) Method() format.Method { return format.MethodSemanticDedupe }

// Encode compresses data, discarding the per-pass metrics.
func (c *SemanticDedupeCodec) Encode(data []byte) ([]byte, Params, error) {
	payload, params, _, err := c.EncodeWithMetrics(data)

	return payload, params, err
}

// EncodeWithMetrics compresses data and reports how its blocks were
// classified. The payload layout is: block count, unique count, one token
// per block, then the unique pool records in first-appearance order.
func (c *SemanticDedupeCodec) EncodeWithMetrics(data []byte) ([]byte, Params, DedupeMetrics, error) {
	params := &DedupeParams{
		BlockSize:  uint32(c.blockSize),
		Digest:     c.digest,
		PoolMethod: c.poolMethod,
	}

	var metrics DedupeMetrics
	if len(data) == 0 {
		return nil, params, metrics, nil
	}

	store := c.store
	if store == nil {
		store = NewDedupeStore()
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.resetPool()

	metrics.BlockCount = (len(data) + c.blockSize - 1) / c.blockSize

	tokens := pool.GetBlockBuffer()
	defer pool.PutBlockBuffer(tokens)

	oracleUp := c.oracle != nil
	var varint [binary.MaxVarintLen64]byte

	for start := 0; start < len(data); start += c.blockSize {
		end := start + c.blockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[start:end]

		digest, err := hash.Digest(c.digest, block)
		if err != nil {
			return nil, nil, metrics, err
		}

		if index, ok := store.lookup(digest); ok {
			if bytes.Equal(store.blockAt(index), block) {
				metrics.DedupeHits++
				tokens.MustWrite([]byte{dedupeTagReference})
				n := binary.PutUvarint(varint[:], uint64(index))
				tokens.MustWrite(varint[:n])
				continue
			}
			// Same digest, different bytes: store as a fresh unique below.
			store.recordCollision()
		}

		// Similarity pass covers full blocks only; a short tail block is
		// always stored as a unique.
		var vec oracle.Vector
		haveVec := false
		if oracleUp && len(block) == c.blockSize {
			vec, haveVec = store.cachedEmbedding(digest)
			if !haveVec {
				ctx, cancel := context.WithTimeout(context.Background(), c.oracleTimeout)
				v, embedErr := c.oracle.Embed(ctx, block)
				cancel()
				if embedErr != nil {
					oracleUp = false
					metrics.Degraded = true
				} else {
					vec = v
					haveVec = true
					store.cacheEmbedding(digest, v)
				}
			}
		}

		if haveVec {
			bucket := oracle.SignBucket(vec)
			if best := c.bestSimilar(store, vec, bucket); best >= 0 {
				metrics.SemanticHits++
				tokens.MustWrite([]byte{dedupeTagSimilar})
				n := binary.PutUvarint(varint[:], uint64(best))
				tokens.MustWrite(varint[:n])
				if err := c.writeRecord(tokens, xorBlocks(block, store.blockAt(best))); err != nil {
					return nil, nil, metrics, err
				}
				continue
			}
			store.addToBucket(bucket, store.add(digest, block))
			tokens.MustWrite([]byte{dedupeTagUnique})
			continue
		}

		store.add(digest, block)
		tokens.MustWrite([]byte{dedupeTagUnique})
	}

	metrics.UniqueBlocks = len(store.uniques)

	out := pool.GetPayloadBuffer()
	defer pool.PutPayloadBuffer(out)

	n := binary.PutUvarint(varint[:], uint64(metrics.BlockCount))
	out.MustWrite(varint[:n])
	n = binary.PutUvarint(varint[:], uint64(len(store.uniques)))
	out.MustWrite(varint[:n])
	out.MustWrite(tokens.Bytes())
	for _, unique := range store.uniques {
		if err := c.writeRecord(out, unique); err != nil {
			return nil, nil, metrics, err
		}
	}

	payload := make([]byte, out.Len())
	copy(payload, out.Bytes())

	return payload, params, metrics, nil
}

// Decode reconstructs the original bytes from the token stream and unique
// pool. The oracle is never consulted: similarity deltas carry everything
// reconstruction needs.
func (c *SemanticDedupeCodec) Decode(payload []byte, params Params, originalSize uint64) ([]byte, error) {
	p, ok := params.(*DedupeParams)
	if !ok {
		return nil, paramsMismatch(format.MethodSemanticDedupe, params)
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

	blockSize := uint64(p.BlockSize)
	r := &recordReader{
		payload: payload,
		stacked: p.PoolMethod == format.MethodHuffman,
		huffman: c.huffman,
	}

	blockCount, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	uniqueCount, err := r.uvarint()
	if err != nil {
		return nil, err
	}

	wantBlocks := (originalSize + blockSize - 1) / blockSize
	if blockCount != wantBlocks {
		return nil, fmt.Errorf("%w: %d blocks declared, %d expected for size %d",
			errs.ErrSizeMismatch, blockCount, wantBlocks, originalSize)
	}
	if uniqueCount > blockCount {
		return nil, fmt.Errorf("%w: %d unique blocks exceed %d total blocks",
			errs.ErrSizeMismatch, uniqueCount, blockCount)
	}

	type token struct {
		delta []byte
		index uint64
		tag   byte
	}
	tokens := make([]token, 0, blockCount)

	uniquesSeen := uint64(0)
	for i := uint64(0); i < blockCount; i++ {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}

		switch tag {
		case dedupeTagUnique:
			uniquesSeen++
			if uniquesSeen > uniqueCount {
				return nil, fmt.Errorf("%w: unique token %d exceeds declared pool count %d at block %d",
					errs.ErrSizeMismatch, uniquesSeen, uniqueCount, i)
			}
			tokens = append(tokens, token{tag: tag})

		case dedupeTagReference:
			index, err := r.uvarint()
			if err != nil {
				return nil, err
			}
			if index >= uniquesSeen {
				return nil, fmt.Errorf("%w: block %d references unique %d with only %d seen",
					errs.ErrInvalidBlockReference, i, index, uniquesSeen)
			}
			tokens = append(tokens, token{tag: tag, index: index})

		case dedupeTagSimilar:
			index, err := r.uvarint()
			if err != nil {
				return nil, err
			}
			if index >= uniquesSeen {
				return nil, fmt.Errorf("%w: block %d references unique %d with only %d seen",
					errs.ErrInvalidBlockReference, i, index, uniquesSeen)
			}
			delta, err := r.record(blockSize)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{tag: tag, index: index, delta: delta})

		default:
			return nil, fmt.Errorf("%w: unknown token tag 0x%02x at block %d", errs.ErrCorruptPayload, tag, i)
		}
	}
	if uniquesSeen != uniqueCount {
		return nil, fmt.Errorf("%w: %d unique blocks declared, %d unique tokens found",
			errs.ErrSizeMismatch, uniqueCount, uniquesSeen)
	}

	uniques := make([][]byte, uniqueCount)
	for i := range uniques {
		u, err := r.record(blockSize)
		if err != nil {
			return nil, err
		}
		uniques[i] = u
	}

	if r.pos != len(payload) {
		return nil, fmt.Errorf("%w: %d payload bytes after unique pool", errs.ErrTrailingData, len(payload)-r.pos)
	}

	out := make([]byte, 0, originalSize)
	next := 0
	for i := range tokens {
		tok := &tokens[i]

		var block []byte
		switch tok.tag {
		case dedupeTagUnique:
			block = uniques[next]
			next++
		case dedupeTagReference:
			block = uniques[tok.index]
		case dedupeTagSimilar:
			base := uniques[tok.index]
			if len(tok.delta) != len(base) {
				return nil, fmt.Errorf("%w: delta length %d against base length %d at block %d",
					errs.ErrSizeMismatch, len(tok.delta), len(base), i)
			}
			block = xorBlocks(tok.delta, base)
		}

		if uint64(len(out))+uint64(len(block)) > originalSize {
			return nil, fmt.Errorf("%w: block %d overruns declared size %d",
				errs.ErrSizeMismatch, i, originalSize)
		}
		out = append(out, block...)
	}

	if uint64(len(out)) != originalSize {
		return nil, fmt.Errorf("%w: reconstructed %d bytes, declared %d",
			errs.ErrSizeMismatch, len(out), originalSize)
	}

	return out, nil
}

// bestSimilar scans the sign bucket for the most similar earlier unique
// at or above the threshold. Ties resolve to the lowest index; bucket
// lists grow in index order, so the scan is deterministic.
func (c *SemanticDedupeCodec) bestSimilar(store *DedupeStore, vec oracle.Vector, bucket uint64) int {
	best := -1
	bestSim := 0.0
	for _, index := range store.bucketCandidates(bucket) {
		cand, ok := store.cachedEmbedding(store.digestAt(index))
		if !ok {
			continue
		}
		if sim := oracle.Cosine(vec, cand); sim >= c.threshold && (best < 0 || sim > bestSim) {
			best = index
			bestSim = sim
		}
	}

	return best
}

// writeRecord serializes raw as a length-prefixed record, stacking the
// entropy coder on it when the pool method asks for that.
func (c *SemanticDedupeCodec) writeRecord(buf *pool.ByteBuffer, raw []byte) error {
	var varint [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(varint[:], uint64(len(raw)))
	buf.MustWrite(varint[:n])

	if c.poolMethod != format.MethodHuffman {
		buf.MustWrite(raw)
		return nil
	}

	payload, params, err := c.huffman.Encode(raw)
	if err != nil {
		return err
	}
	table, err := params.AppendBinary(nil)
	if err != nil {
		return err
	}

	n = binary.PutUvarint(varint[:], uint64(len(table)))
	buf.MustWrite(varint[:n])
	buf.MustWrite(table)
	n = binary.PutUvarint(varint[:], uint64(len(payload)))
	buf.MustWrite(varint[:n])
	buf.MustWrite(payload)

	return nil
}

// xorBlocks XORs two equal-length blocks into a fresh slice. XOR is its
// own inverse, so the same helper produces and applies deltas.
func xorBlocks(a, b []byte) []byte {
	delta := make([]byte, len(a))
	for i := range a {
		delta[i] = a[i] ^ b[i]
	}

	return delta
}

// recordReader walks a dedupe payload: uvarints, raw byte runs, and
// length-prefixed records in plain or entropy-stacked form.
type recordReader struct {
	huffman *HuffmanCodec
	payload []byte
	pos     int
	stacked bool
}

func (r *recordReader) uvarint() (uint64, error) {
	v, n := binary.Uvarint(r.payload[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("%w: at payload offset %d", errs.ErrInvalidVarint, r.pos)
	}
	r.pos += n

	return v, nil
}

func (r *recordReader) byte() (byte, error) {
	if r.pos >= len(r.payload) {
		return 0, fmt.Errorf("%w: at payload offset %d", errs.ErrTruncatedPayload, r.pos)
	}
	b := r.payload[r.pos]
	r.pos++

	return b, nil
}

func (r *recordReader) bytes(n uint64) ([]byte, error) {
	if uint64(len(r.payload)-r.pos) < n {
		return nil, fmt.Errorf("%w: need %d bytes at payload offset %d, have %d",
			errs.ErrTruncatedPayload, n, r.pos, len(r.payload)-r.pos)
	}
	b := r.payload[r.pos : r.pos+int(n)]
	r.pos += int(n)

	return b, nil
}

// record reads one length-prefixed record. maxLen bounds the declared raw
// length; records never exceed the block size.
func (r *recordReader) record(maxLen uint64) ([]byte, error) {
	rawLen, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if rawLen > maxLen {
		return nil, fmt.Errorf("%w: record length %d exceeds block size %d",
			errs.ErrSizeMismatch, rawLen, maxLen)
	}

	if !r.stacked {
		return r.bytes(rawLen)
	}

	tableLen, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	table, err := r.bytes(tableLen)
	if err != nil {
		return nil, err
	}
	params, err := ParseParams(format.MethodHuffman, table)
	if err != nil {
		return nil, err
	}

	bitsLen, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	bits, err := r.bytes(bitsLen)
	if err != nil {
		return nil, err
	}

	return r.huffman.Decode(bits, params, rawLen)
}
