// Package oracle defines the similarity oracle boundary used by the
// semantic dedupe codec.
//
// An oracle maps byte blocks to embedding vectors; the codec compares
// vectors with cosine similarity to find blocks that are close but not
// byte-identical. The package ships a deterministic in-process
// LocalOracle; network-backed oracles implement SimilarityOracle outside
// this module and are injected through the engine configuration.
//
// Oracle failures never fail a compression: the dedupe codec degrades to
// exact-match deduplication after the first Embed error.
package oracle

import (
	"context"
	"math"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
)

// Vector is an embedding produced by a similarity oracle.
// Oracles must produce vectors of a fixed dimension; comparing vectors of
// different dimensions yields zero similarity.
type Vector []float32

// SimilarityOracle produces embedding vectors for byte blocks.
//
// Embed is called once per unique block during semantic dedupe encoding.
// Implementations backed by remote services should honor ctx for timeouts
// and cancellation, and return an error wrapping ErrUnavailable when the
// backing service cannot be reached.
type SimilarityOracle interface {
	Embed(ctx context.Context, block []byte) (Vector, error)
}

// ErrUnavailable reports that a similarity oracle cannot serve embedding
// requests. It aliases the errs sentinel so call sites that only import
// this package can still classify oracle failures.
var ErrUnavailable = errs.ErrOracleUnavailable

// Cosine returns the cosine similarity of two vectors in [-1, 1].
//
// Mismatched or empty vectors yield 0. Near-zero magnitudes yield 0
// rather than dividing by a denormal product.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, magA, magB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}

	denom := math.Sqrt(magA) * math.Sqrt(magB)
	if denom < 1e-10 {
		return 0.0
	}

	return dot / denom
}

// SignBucket folds a vector into a 64-bit SimHash-style signature: bit i
// is set when dimension i is positive. Blocks whose embeddings land in
// the same bucket are candidate similarity pairs; blocks in different
// buckets are still compared only when their buckets match, so the bucket
// is a prefilter, not a verdict.
//
// Vectors shorter than 64 dimensions fill only the low bits.
func SignBucket(v Vector) uint64 {
	var bucket uint64

	n := len(v)
	if n > 64 {
		n = 64
	}
	for i := 0; i < n; i++ {
		if v[i] > 0 {
			bucket |= 1 << uint(i)
		}
	}

	return bucket
}
