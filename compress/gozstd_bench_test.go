//go:build gozstd

package compress

import (
	"testing"

	"github.com/valyala/gozstd"
)

// CGO-backed zstd baseline. Build with -tags gozstd to compare the pure-Go
// zstd path against the reference C implementation.

func BenchmarkGozstdBaseline_Compress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		8 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "compressible")

		b.Run(byteCountName(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size))
			b.ResetTimer()

			for bi := 0; bi < b.N; bi++ {
				_ = gozstd.CompressLevel(nil, data, 3)
			}
		})
	}
}

func BenchmarkGozstdBaseline_Decompress(b *testing.B) {
	sizes := []int{
		1 * 1024,
		8 * 1024,
		64 * 1024,
		512 * 1024,
	}

	for _, size := range sizes {
		data := generateBenchmarkData(size, "compressible")
		compressed := gozstd.CompressLevel(nil, data, 3)

		b.Run(byteCountName(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(compressed)))
			b.ResetTimer()

			for bi := 0; bi < b.N; bi++ {
				_, _ = gozstd.Decompress(nil, compressed)
			}
		})
	}
}
