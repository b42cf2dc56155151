package engine

import (
	"sync"

	"github.com/iamthegreatdestroyer/sigma-compress/format"
)

// CompressionStats is a point-in-time snapshot of what a Compressor has
// done. Snapshots are value copies; mutating one does not affect the
// Compressor.
type CompressionStats struct {
	// MethodCounts tallies successful Compress calls per concrete method.
	MethodCounts map[format.Method]uint64
	// Compressions is the number of successful Compress calls.
	Compressions uint64
	// Decompressions is the number of successful Decompress calls.
	Decompressions uint64
	// BytesIn is the total raw bytes handed to Compress.
	BytesIn uint64
	// BytesOut is the total payload bytes produced by Compress.
	BytesOut uint64
	// BytesDecompressed is the total bytes reproduced by Decompress.
	BytesDecompressed uint64
	// AverageRatio is the mean compression ratio across Compress calls,
	// or zero before the first call.
	AverageRatio float64
}

// statsCollector accumulates totals behind a mutex so concurrent
// Compress/Decompress calls on one Compressor stay consistent.
type statsCollector struct {
	mu                sync.Mutex
	perMethod         map[format.Method]uint64
	compressions      uint64
	decompressions    uint64
	bytesIn           uint64
	bytesOut          uint64
	bytesDecompressed uint64
	ratioSum          float64
}

func (s *statsCollector) recordCompress(out *CompressedOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.perMethod == nil {
		s.perMethod = make(map[format.Method]uint64, 4)
	}
	s.compressions++
	s.bytesIn += out.OriginalSize
	s.bytesOut += uint64(len(out.Payload))
	s.ratioSum += out.Ratio
	s.perMethod[out.Method]++
}

func (s *statsCollector) recordDecompress(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decompressions++
	s.bytesDecompressed += uint64(n)
}

func (s *statsCollector) snapshot() CompressionStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CompressionStats{
		MethodCounts:      make(map[format.Method]uint64, len(s.perMethod)),
		Compressions:      s.compressions,
		Decompressions:    s.decompressions,
		BytesIn:           s.bytesIn,
		BytesOut:          s.bytesOut,
		BytesDecompressed: s.bytesDecompressed,
	}
	for m, n := range s.perMethod {
		stats.MethodCounts[m] = n
	}
	if s.compressions > 0 {
		stats.AverageRatio = s.ratioSum / float64(s.compressions)
	}

	return stats
}
