package engine

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iamthegreatdestroyer/sigma-compress/compress"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
	"github.com/iamthegreatdestroyer/sigma-compress/internal/hash"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, compress.DefaultWindowSize, cfg.WindowSize)
	require.Equal(t, compress.DefaultBlockSize, cfg.DedupeBlockSize)
	require.Equal(t, DefaultMaxInputSize, cfg.MaxInputSize)
	require.Equal(t, compress.DefaultSimilarityThreshold, cfg.SimilarityThreshold)
	require.Equal(t, compress.DefaultOracleTimeout, cfg.OracleTimeout)
	require.Equal(t, format.DigestXXH64, cfg.DigestKind)
	require.Nil(t, cfg.Oracle)
	require.Nil(t, cfg.SharedStore)
	require.False(t, cfg.EnableSemanticDedupe)
	require.False(t, cfg.ExhaustiveAuto)
}

func TestNewCompressor_Defaults(t *testing.T) {
	comp, err := NewCompressor()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), comp.Config())
}

func TestNewCompressor_Options(t *testing.T) {
	store := compress.NewDedupeStore()
	comp, err := NewCompressor(
		WithWindowSize(compress.MinWindowSize),
		WithDedupeBlockSize(128),
		WithMaxInputSize(1<<20),
		WithSimilarityThreshold(0.8),
		WithOracleTimeout(50*time.Millisecond),
		WithPoolMethod(format.MethodHuffman),
		WithDigestKind(format.DigestBLAKE3),
		WithOracle(oracle.LocalOracle{}),
		WithSemanticDedupe(true),
		WithExhaustiveAuto(true),
		WithSharedDedupeStore(store),
	)
	require.NoError(t, err)

	cfg := comp.Config()
	require.Equal(t, compress.MinWindowSize, cfg.WindowSize)
	require.Equal(t, 128, cfg.DedupeBlockSize)
	require.Equal(t, 1<<20, cfg.MaxInputSize)
	require.InDelta(t, 0.8, cfg.SimilarityThreshold, 1e-12)
	require.Equal(t, 50*time.Millisecond, cfg.OracleTimeout)
	require.Equal(t, format.MethodHuffman, cfg.PoolMethod)
	require.Equal(t, format.DigestBLAKE3, cfg.DigestKind)
	require.NotNil(t, cfg.Oracle)
	require.Same(t, store, cfg.SharedStore)
	require.True(t, cfg.EnableSemanticDedupe)
	require.True(t, cfg.ExhaustiveAuto)
}

func TestNewCompressor_Violations(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr error
	}{
		{"window below minimum", WithWindowSize(compress.MinWindowSize - 1), errs.ErrInvalidWindowSize},
		{"window above maximum", WithWindowSize(compress.MaxWindowSize + 1), errs.ErrInvalidWindowSize},
		{"block size below minimum", WithDedupeBlockSize(compress.MinBlockSize - 1), errs.ErrInvalidBlockSize},
		{"zero max input", WithMaxInputSize(0), errs.ErrInvalidInput},
		{"negative max input", WithMaxInputSize(-5), errs.ErrInvalidInput},
		{"threshold above one", WithSimilarityThreshold(1.5), errs.ErrInvalidThreshold},
		{"negative threshold", WithSimilarityThreshold(-0.1), errs.ErrInvalidThreshold},
		{"NaN threshold", WithSimilarityThreshold(math.NaN()), errs.ErrInvalidThreshold},
		{"zero oracle timeout", WithOracleTimeout(0), errs.ErrInvalidInput},
		{"negative oracle timeout", WithOracleTimeout(-time.Second), errs.ErrInvalidInput},
		{"bad pool method", WithPoolMethod(format.MethodSemanticLZ), errs.ErrInvalidPoolMethod},
		{"bad digest kind", WithDigestKind(format.DigestKind(0x9)), errs.ErrInvalidDigestKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := NewCompressor(tt.opt)
			require.Nil(t, comp)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, errs.ErrInvalidInput)
		})
	}
}

func TestCompressor_RoundTrip_AllMethods(t *testing.T) {
	comp, err := NewCompressor(
		WithOracle(oracle.LocalOracle{}),
		WithDedupeBlockSize(256),
	)
	require.NoError(t, err)

	testCases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"single_byte", []byte{0x42}},
		{"small_text", []byte("Hello, World!")},
		{"repeated_pattern", bytes.Repeat([]byte("ABCD"), 100)},
		{"binary_data", []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC}},
		{"medium_payload", bytes.Repeat([]byte("metric{host=web01} 42.5 1700000000\n"), 512)},
		{"highly_compressible", make([]byte, 64*1024)},
	}

	methods := []format.Method{
		format.MethodHuffman,
		format.MethodEntropyRun,
		format.MethodSemanticLZ,
		format.MethodSemanticDedupe,
		format.MethodAuto,
	}

	for _, method := range methods {
		t.Run(method.String(), func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					out, err := comp.Compress(tc.data, method)
					require.NoError(t, err)
					require.True(t, out.Method.IsConcrete())
					if method != format.MethodAuto {
						require.Equal(t, method, out.Method)
					}
					require.Equal(t, uint64(len(tc.data)), out.OriginalSize)
					require.Equal(t, hash.Sum64(out.Payload), out.Checksum)
					require.Positive(t, out.Ratio)

					decoded, err := comp.Decompress(out)
					require.NoError(t, err)
					if len(tc.data) == 0 {
						require.Empty(t, decoded)
					} else {
						require.Equal(t, tc.data, decoded)
					}
				})
			}
		})
	}
}

func TestCompressor_Auto_Selection(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	chunk := make([]byte, 4096)
	rng.Read(chunk)

	random2K := make([]byte, 2048)
	rng.Read(random2K)

	tests := []struct {
		name string
		data []byte
		want format.Method
	}{
		{"tiny input", []byte("tiny input"), format.MethodHuffman},
		{"run dominated", bytes.Repeat([]byte{'a'}, 10240), format.MethodEntropyRun},
		{"high entropy", random2K, format.MethodHuffman},
		{"long range repetition", bytes.Repeat(chunk, 256), format.MethodSemanticLZ},
	}

	comp, err := NewCompressor()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := comp.Compress(tt.data, format.MethodAuto)
			require.NoError(t, err)
			require.Equal(t, tt.want, out.Method)

			decoded, err := comp.Decompress(out)
			require.NoError(t, err)
			require.Equal(t, tt.data, decoded)
		})
	}
}

// dedupeFriendly builds a low-entropy input that stays clear of the run
// and repetition rules: a 32-symbol sequence with no identical neighbors,
// small enough that the match codec rule cannot fire.
func dedupeFriendly(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*7 + i/5) % 32)
	}

	return data
}

func TestCompressor_Auto_DedupeOptIn(t *testing.T) {
	data := dedupeFriendly(16384)

	plain, err := NewCompressor()
	require.NoError(t, err)

	out, err := plain.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, format.MethodHuffman, out.Method, "dedupe rule must stay opt-in")

	opted, err := NewCompressor(WithSemanticDedupe(true))
	require.NoError(t, err)

	out, err = opted.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, format.MethodSemanticDedupe, out.Method)
	require.Equal(t, 4, out.Metadata.BlockCount)
	require.Positive(t, out.Metadata.EntropyBits)
	require.LessOrEqual(t, out.Metadata.EntropyBits, 6.0)

	decoded, err := opted.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestCompressor_Auto_Deterministic(t *testing.T) {
	data := bytes.Repeat([]byte("deterministic selection input line\n"), 2048)

	comp, err := NewCompressor(WithSemanticDedupe(true), WithOracle(oracle.LocalOracle{}))
	require.NoError(t, err)

	first, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	second, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)

	require.Equal(t, first.Method, second.Method)
	require.Equal(t, first.Payload, second.Payload)
	require.Equal(t, first.Checksum, second.Checksum)
}

func TestCompressor_Auto_EntropyMetadata(t *testing.T) {
	data := make([]byte, 2048)
	rand.New(rand.NewSource(21)).Read(data)

	comp, err := NewCompressor()
	require.NoError(t, err)

	auto, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, format.MethodHuffman, auto.Method)
	require.Greater(t, auto.Metadata.EntropyBits, 7.0)
	require.LessOrEqual(t, auto.Metadata.EntropyBits, 8.0)

	explicit, err := comp.Compress(data, format.MethodHuffman)
	require.NoError(t, err)
	require.Zero(t, explicit.Metadata.EntropyBits)

	// Histogram reuse must not change the encoding.
	require.Equal(t, explicit.Payload, auto.Payload)
	require.Equal(t, explicit.Params, auto.Params)
}

func TestCompressor_DedupeMetadata(t *testing.T) {
	blockA := bytes.Repeat([]byte{'A'}, 256)
	blockB := make([]byte, 256)
	for i := range blockB {
		blockB[i] = byte(i)
	}
	data := bytes.Join([][]byte{blockA, blockB, blockA, blockA}, nil)

	comp, err := NewCompressor(WithDedupeBlockSize(256))
	require.NoError(t, err)

	out, err := comp.Compress(data, format.MethodSemanticDedupe)
	require.NoError(t, err)
	require.Equal(t, 4, out.Metadata.BlockCount)
	require.Equal(t, 2, out.Metadata.DedupeHits)
	require.Zero(t, out.Metadata.SemanticHits)
	require.Zero(t, out.Metadata.EntropyBits)

	decoded, err := comp.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestCompressor_ExhaustiveAuto(t *testing.T) {
	data := bytes.Repeat(dedupeFriendly(256), 64)

	comp, err := NewCompressor(
		WithExhaustiveAuto(true),
		WithSemanticDedupe(true),
		WithDedupeBlockSize(256),
		WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)

	out, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.True(t, out.Method.IsConcrete())

	for _, method := range []format.Method{
		format.MethodHuffman,
		format.MethodEntropyRun,
		format.MethodSemanticLZ,
		format.MethodSemanticDedupe,
	} {
		alt, err := comp.Compress(data, method)
		require.NoError(t, err)
		require.LessOrEqual(t, len(out.Payload), len(alt.Payload),
			"exhaustive result must not lose to %s", method)
	}

	again, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, out.Method, again.Method)
	require.Equal(t, out.Payload, again.Payload)

	decoded, err := comp.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestCompressor_ExhaustiveAuto_DedupeGate(t *testing.T) {
	data := bytes.Repeat(dedupeFriendly(256), 64)

	comp, err := NewCompressor(WithExhaustiveAuto(true), WithDedupeBlockSize(256))
	require.NoError(t, err)

	out, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.NotEqual(t, format.MethodSemanticDedupe, out.Method,
		"dedupe must stay out of the candidate set unless enabled")
}

func TestCompressor_RatioSanity(t *testing.T) {
	data := make([]byte, 1024*1024)

	comp, err := NewCompressor()
	require.NoError(t, err)

	out, err := comp.Compress(data, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, format.MethodEntropyRun, out.Method)
	require.Greater(t, out.Ratio, 50.0)
	t.Logf("1 MiB of zeros: %d payload bytes, ratio %.1f", len(out.Payload), out.Ratio)

	decoded, err := comp.Decompress(out)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestCompressor_InputTooLarge(t *testing.T) {
	comp, err := NewCompressor(WithMaxInputSize(1024))
	require.NoError(t, err)

	_, err = comp.Compress(make([]byte, 1025), format.MethodAuto)
	require.ErrorIs(t, err, errs.ErrInputTooLarge)
	require.ErrorIs(t, err, errs.ErrInvalidInput)

	out, err := comp.Compress(make([]byte, 1024), format.MethodAuto)
	require.NoError(t, err)

	// A forged declared size must be rejected before any decoding.
	out.OriginalSize = 2048
	_, err = comp.Decompress(out)
	require.ErrorIs(t, err, errs.ErrInputTooLarge)

	stats := comp.Stats()
	require.Equal(t, uint64(1), stats.Compressions, "failed calls must not count")
	require.Zero(t, stats.Decompressions)
}

func TestCompressor_UnknownMethod(t *testing.T) {
	comp, err := NewCompressor()
	require.NoError(t, err)

	for _, method := range []format.Method{0x0, 0x9, 0xFF} {
		_, err := comp.Compress([]byte("payload"), method)
		require.ErrorIs(t, err, errs.ErrUnknownMethod)
	}

	out, err := comp.Compress([]byte("payload"), format.MethodHuffman)
	require.NoError(t, err)

	out.Method = format.Method(0x9)
	_, err = comp.Decompress(out)
	require.ErrorIs(t, err, errs.ErrUnknownMethod)

	_, err = comp.Decompress(nil)
	require.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestCompressor_Decompress_ChecksumMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("checksummed content "), 64)

	comp, err := NewCompressor()
	require.NoError(t, err)

	out, err := comp.Compress(data, format.MethodHuffman)
	require.NoError(t, err)
	require.NotEmpty(t, out.Payload)

	out.Payload[0] ^= 0xFF
	_, err = comp.Decompress(out)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
	require.ErrorIs(t, err, errs.ErrCorruptPayload)
}

func TestCompressor_Decompress_TruncatedPayload(t *testing.T) {
	data := bytes.Repeat([]byte("The quick brown fox jumps over the lazy dog. "), 50)

	comp, err := NewCompressor()
	require.NoError(t, err)

	for _, method := range []format.Method{
		format.MethodHuffman,
		format.MethodEntropyRun,
		format.MethodSemanticLZ,
		format.MethodSemanticDedupe,
	} {
		t.Run(method.String(), func(t *testing.T) {
			out, err := comp.Compress(data, method)
			require.NoError(t, err)
			require.NotEmpty(t, out.Payload)

			out.Payload = out.Payload[:len(out.Payload)-1]
			out.Checksum = hash.Sum64(out.Payload)

			_, err = comp.Decompress(out)
			require.ErrorIs(t, err, errs.ErrCorruptPayload)
		})
	}
}

func TestCompressor_Decompress_WrongParams(t *testing.T) {
	comp, err := NewCompressor()
	require.NoError(t, err)

	out, err := comp.Compress([]byte("mismatched parameter block"), format.MethodHuffman)
	require.NoError(t, err)

	out.Params = &compress.RunParams{}
	_, err = comp.Decompress(out)
	require.ErrorIs(t, err, errs.ErrInvalidParams)

	out.Params = nil
	_, err = comp.Decompress(out)
	require.ErrorIs(t, err, errs.ErrInvalidParams)
}

func TestCompressor_Stats(t *testing.T) {
	comp, err := NewCompressor()
	require.NoError(t, err)

	stats := comp.Stats()
	require.Zero(t, stats.Compressions)
	require.Zero(t, stats.Decompressions)
	require.Zero(t, stats.AverageRatio)
	require.Empty(t, stats.MethodCounts)

	zeros := make([]byte, 8192)
	random := make([]byte, 1024)
	rand.New(rand.NewSource(31)).Read(random)

	first, err := comp.Compress(zeros, format.MethodAuto)
	require.NoError(t, err)
	require.Equal(t, format.MethodEntropyRun, first.Method)

	second, err := comp.Compress(random, format.MethodHuffman)
	require.NoError(t, err)

	decoded, err := comp.Decompress(first)
	require.NoError(t, err)
	require.Equal(t, zeros, decoded)

	stats = comp.Stats()
	require.Equal(t, uint64(2), stats.Compressions)
	require.Equal(t, uint64(1), stats.Decompressions)
	require.Equal(t, uint64(len(zeros)+len(random)), stats.BytesIn)
	require.Equal(t, uint64(len(first.Payload)+len(second.Payload)), stats.BytesOut)
	require.Equal(t, uint64(len(zeros)), stats.BytesDecompressed)
	require.Equal(t, uint64(1), stats.MethodCounts[format.MethodEntropyRun])
	require.Equal(t, uint64(1), stats.MethodCounts[format.MethodHuffman])
	require.InDelta(t, (first.Ratio+second.Ratio)/2, stats.AverageRatio, 1e-9)

	// Snapshots are copies; mutating one must not leak back.
	stats.MethodCounts[format.MethodHuffman] = 99
	require.Equal(t, uint64(1), comp.Stats().MethodCounts[format.MethodHuffman])
}

func TestCompressor_ConcurrentUsage(t *testing.T) {
	comp, err := NewCompressor()
	require.NoError(t, err)

	const numGoroutines = 16
	base := bytes.Repeat([]byte("concurrent compressor input "), 64)

	done := make(chan error, numGoroutines)
	for g := 0; g < numGoroutines; g++ {
		go func(id int) {
			data := append(append([]byte{}, base...), byte(id))
			out, err := comp.Compress(data, format.MethodAuto)
			if err != nil {
				done <- err
				return
			}
			decoded, err := comp.Decompress(out)
			if err != nil {
				done <- err
				return
			}
			if !bytes.Equal(data, decoded) {
				done <- fmt.Errorf("round trip mismatch for goroutine %d", id)
				return
			}
			done <- nil
		}(g)
	}

	for ri := 0; ri < numGoroutines; ri++ {
		require.NoError(t, <-done)
	}

	stats := comp.Stats()
	require.Equal(t, uint64(numGoroutines), stats.Compressions)
	require.Equal(t, uint64(numGoroutines), stats.Decompressions)
	require.Equal(t, uint64(numGoroutines*(len(base)+1)), stats.BytesIn)
}

func TestCompressor_SharedStoreAcrossCompressors(t *testing.T) {
	store := compress.NewDedupeStore()
	data := bytes.Repeat(dedupeFriendly(512), 8)

	first, err := NewCompressor(
		WithSharedDedupeStore(store),
		WithDedupeBlockSize(512),
		WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)

	second, err := NewCompressor(
		WithSharedDedupeStore(store),
		WithDedupeBlockSize(512),
		WithOracle(oracle.LocalOracle{}),
	)
	require.NoError(t, err)

	outA, err := first.Compress(data, format.MethodSemanticDedupe)
	require.NoError(t, err)
	cached := store.CachedEmbeddings()
	require.Positive(t, cached)

	outB, err := second.Compress(data, format.MethodSemanticDedupe)
	require.NoError(t, err)
	require.Equal(t, cached, store.CachedEmbeddings(), "second pass must reuse cached embeddings")
	require.Equal(t, outA.Payload, outB.Payload, "shared store must not change the encoding")

	// Either compressor can decode either output.
	decoded, err := second.Decompress(outA)
	require.NoError(t, err)
	require.Equal(t, data, decoded)

	decoded, err = first.Decompress(outB)
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}
