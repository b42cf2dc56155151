package analysis

import "github.com/iamthegreatdestroyer/sigma-compress/format"

// Selection thresholds. They are exported so callers can reason about
// method choice (and tests can pin the boundaries), but they are not
// tunable per call: changing them changes which method Auto picks, never
// whether existing containers decode.
const (
	// MinHuffmanSize is the input size below which per-method overhead
	// dominates and plain Huffman always wins.
	MinHuffmanSize = 64

	// RunRatioThreshold routes run-dominated inputs to the run-length
	// entropy codec.
	RunRatioThreshold = 0.5

	// RepeatThreshold is the sampled repeat fraction above which the match
	// codec is preferred for large inputs.
	RepeatThreshold = 0.3

	// LargeBlockSize is the minimum input size for the match codec rule;
	// below it the match-search setup cost is not worth paying.
	LargeBlockSize = 32 * 1024

	// DedupeEntropyMax is the entropy ceiling (bits per byte) for the
	// semantic dedupe rule. Inputs near 8 bits/byte are effectively random
	// and will not contain duplicate blocks.
	DedupeEntropyMax = 6.0
)

// SelectorHints carries caller preferences into method selection.
type SelectorHints struct {
	// DedupeEnabled opts the input into the semantic dedupe rule.
	// Dedupe requires block-granular duplication to pay off, which the
	// profile alone cannot prove, so it stays opt-in.
	DedupeEnabled bool
}

// Select maps a profile to a concrete compression method.
//
// The rules apply in fixed priority order, first match wins:
//
//  1. Size below MinHuffmanSize → Huffman
//  2. RunRatio at or above RunRatioThreshold → run-length entropy
//  3. RepeatRatio at or above RepeatThreshold and Size at least
//     LargeBlockSize → match codec
//  4. Dedupe enabled and Entropy at or below DedupeEntropyMax → semantic
//     dedupe
//  5. Otherwise → Huffman
//
// Select is pure and deterministic: equal profiles and hints always map
// to the same method. It never returns format.MethodAuto.
func Select(p Profile, hints SelectorHints) format.Method {
	switch {
	case p.Size < MinHuffmanSize:
		return format.MethodHuffman
	case p.RunRatio >= RunRatioThreshold:
		return format.MethodEntropyRun
	case p.RepeatRatio >= RepeatThreshold && p.Size >= LargeBlockSize:
		return format.MethodSemanticLZ
	case hints.DedupeEnabled && p.Entropy <= DedupeEntropyMax:
		return format.MethodSemanticDedupe
	default:
		return format.MethodHuffman
	}
}
