package analysis

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyze_EmptyInput(t *testing.T) {
	p := Analyze(nil)

	require.Equal(t, 0, p.Size)
	require.Zero(t, p.Entropy)
	require.Zero(t, p.MaxRun)
	require.Zero(t, p.RunRatio)
	require.Zero(t, p.RepeatRatio)
	require.Zero(t, p.Distinct)
}

func TestAnalyze_SingleByte(t *testing.T) {
	p := Analyze([]byte{0x42})

	require.Equal(t, 1, p.Size)
	require.Zero(t, p.Entropy)
	require.Equal(t, 1, p.MaxRun)
	require.Zero(t, p.RunRatio, "a single byte is not a countable run")
	require.Equal(t, 1, p.Distinct)
	require.Equal(t, uint64(1), p.Histogram[0x42])
}

func TestAnalyze_AllIdentical(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 10000)
	p := Analyze(data)

	require.Equal(t, 10000, p.Size)
	require.Zero(t, p.Entropy)
	require.Equal(t, 10000, p.MaxRun)
	require.Equal(t, 1.0, p.RunRatio)
	require.Equal(t, 1, p.Distinct)
	require.Equal(t, uint64(10000), p.Histogram[0xAB])
}

func TestAnalyze_TwoSymbolsEvenSplit(t *testing.T) {
	data := append(bytes.Repeat([]byte{'a'}, 512), bytes.Repeat([]byte{'b'}, 512)...)
	p := Analyze(data)

	require.InDelta(t, 1.0, p.Entropy, 1e-9, "an even two-symbol split is exactly 1 bit/byte")
	require.Equal(t, 2, p.Distinct)
	require.Equal(t, 1.0, p.RunRatio)
	require.Equal(t, 512, p.MaxRun)
}

func TestAnalyze_UniformBytes(t *testing.T) {
	// Every byte value exactly 16 times
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 256)
	}
	p := Analyze(data)

	require.InDelta(t, 8.0, p.Entropy, 1e-9, "uniform byte distribution is exactly 8 bits/byte")
	require.Equal(t, 256, p.Distinct)
	require.Zero(t, p.RunRatio)
	require.Equal(t, 1, p.MaxRun)
}

func TestAnalyze_RunStructure(t *testing.T) {
	// aaaabbbbcc: two countable runs of 4, one run of 2 below the minimum
	data := []byte("aaaabbbbcc")
	p := Analyze(data)

	require.Equal(t, 4, p.MaxRun)
	require.InDelta(t, 0.8, p.RunRatio, 1e-9)
	require.Equal(t, 3, p.Distinct)
}

func TestAnalyze_FinalRunCounted(t *testing.T) {
	// The trailing run must be closed even without a terminating byte change
	data := []byte("xyzzzzzz")
	p := Analyze(data)

	require.Equal(t, 6, p.MaxRun)
	require.InDelta(t, 6.0/8.0, p.RunRatio, 1e-9)
}

func TestAnalyze_RepeatRatio(t *testing.T) {
	t.Run("input shorter than one shingle", func(t *testing.T) {
		p := Analyze([]byte("short"))
		require.Zero(t, p.RepeatRatio)
	})

	t.Run("repeated pattern scores high", func(t *testing.T) {
		pattern := make([]byte, 4096)
		rng := rand.New(rand.NewSource(7))
		rng.Read(pattern)

		data := bytes.Repeat(pattern, 16) // 64 KiB of one 4 KiB pattern
		p := Analyze(data)

		require.Greater(t, p.RepeatRatio, 0.9, "a repeated pattern should be dominated by repeated shingles")
	})

	t.Run("random data scores near zero", func(t *testing.T) {
		data := make([]byte, 1<<20)
		rng := rand.New(rand.NewSource(11))
		rng.Read(data)

		p := Analyze(data)
		require.Less(t, p.RepeatRatio, 0.05)
	})
}

func TestAnalyze_Deterministic(t *testing.T) {
	data := make([]byte, 100000)
	rng := rand.New(rand.NewSource(3))
	rng.Read(data)

	first := Analyze(data)
	second := Analyze(data)
	require.Equal(t, first, second)
}

func TestAnalyze_HistogramTotals(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	p := Analyze(data)

	var total uint64
	for _, c := range p.Histogram {
		total += c
	}
	require.Equal(t, uint64(len(data)), total)
	require.Equal(t, len(data), p.Size)
}

func BenchmarkAnalyze(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"4KB", 4 * 1024},
		{"64KB", 64 * 1024},
		{"1MB", 1024 * 1024},
	}

	for _, tc := range sizes {
		data := make([]byte, tc.size)
		rng := rand.New(rand.NewSource(1))
		rng.Read(data)

		b.Run(tc.name, func(b *testing.B) {
			b.SetBytes(int64(tc.size))
			b.ReportAllocs()
			for bi := 0; bi < b.N; bi++ {
				Analyze(data)
			}
		})
	}
}
