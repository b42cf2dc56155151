// Package analysis inspects byte streams and picks compression methods.
//
// Analyze computes a statistical Profile of an input in a single pass:
// byte histogram, Shannon entropy, run structure, and a sampled long-range
// repetition estimate. Select maps a Profile to a concrete compression
// method through a fixed priority of threshold rules.
//
// Both halves are pure: analyzing the same bytes always yields the same
// Profile, and selecting on the same Profile and hints always yields the
// same method. The selector's verdict is recorded in the container at
// compression time, so decompression never re-runs selection.
package analysis

import (
	"math"

	"github.com/iamthegreatdestroyer/sigma-compress/internal/hash"
)

const (
	// minRunLength is the shortest identical-byte run counted by RunRatio.
	minRunLength = 4

	// shingleSize is the window width for the long-range repeat estimate.
	shingleSize = 16

	// maxShingleSamples caps the number of shingles hashed per input, so
	// analysis stays O(1) in memory and roughly constant-time for large
	// inputs.
	maxShingleSamples = 4096
)

// Profile summarizes the statistical structure of an input. It is
// ephemeral: profiles drive method selection and never appear in the
// container format.
type Profile struct {
	// Histogram counts occurrences of each byte value.
	Histogram [256]uint64
	// Size is the input length in bytes.
	Size int
	// Entropy is the Shannon entropy in bits per byte, in [0, 8].
	Entropy float64
	// MaxRun is the length of the longest identical-byte run.
	MaxRun int
	// RunRatio is the fraction of bytes inside runs of at least four
	// identical bytes.
	RunRatio float64
	// RepeatRatio estimates long-range repetition as the repeated fraction
	// of sampled 16-byte shingles. It is a proxy: no match search is done.
	RepeatRatio float64
	// Distinct is the number of distinct byte values present.
	Distinct int
}

// Analyze computes the Profile of data in a single pass over the bytes
// plus one sampled pass for the repeat estimate. Empty input yields the
// zero Profile. Analyze never fails.
func Analyze(data []byte) Profile {
	p := Profile{Size: len(data)}
	if len(data) == 0 {
		return p
	}

	// Histogram and run structure in one pass.
	runStart := 0
	runBytes := 0
	p.Histogram[data[0]]++
	p.MaxRun = 1
	for i := 1; i < len(data); i++ {
		p.Histogram[data[i]]++
		if data[i] == data[i-1] {
			continue
		}

		runLen := i - runStart
		if runLen >= minRunLength {
			runBytes += runLen
		}
		if runLen > p.MaxRun {
			p.MaxRun = runLen
		}
		runStart = i
	}
	// Close the final run
	runLen := len(data) - runStart
	if runLen >= minRunLength {
		runBytes += runLen
	}
	if runLen > p.MaxRun {
		p.MaxRun = runLen
	}
	p.RunRatio = float64(runBytes) / float64(len(data))

	// Shannon entropy over observed symbol frequencies.
	total := float64(len(data))
	for _, count := range p.Histogram {
		if count == 0 {
			continue
		}
		p.Distinct++
		freq := float64(count) / total
		p.Entropy -= freq * math.Log2(freq)
	}

	p.RepeatRatio = repeatEstimate(data)

	return p
}

// repeatEstimate samples fixed-width shingles on a stride and returns the
// fraction whose hash was already seen. Inputs shorter than one shingle
// have no long-range structure to measure and report 0.
func repeatEstimate(data []byte) float64 {
	positions := len(data) - shingleSize + 1
	if positions <= 1 {
		return 0
	}

	stride := 1
	if positions > maxShingleSamples {
		stride = (positions + maxShingleSamples - 1) / maxShingleSamples
	}

	seen := make(map[uint64]struct{}, maxShingleSamples)
	samples := 0
	repeats := 0
	for pos := 0; pos < positions; pos += stride {
		h := hash.Sum64(data[pos : pos+shingleSize])
		if _, ok := seen[h]; ok {
			repeats++
		} else {
			seen[h] = struct{}{}
		}
		samples++
	}

	return float64(repeats) / float64(samples)
}
