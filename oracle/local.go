package oracle

import (
	"context"
	"math"
)

// DefaultDim is the embedding dimension used by LocalOracle when none is
// configured.
const DefaultDim = 128

// LocalOracle is a deterministic in-process embedder. It folds block
// bytes into Dim accumulators and L2-normalizes the result, giving
// byte-distribution-sensitive vectors with zero I/O: identical blocks map
// to identical vectors, and blocks differing in a few bytes map to nearby
// vectors.
//
// It is not a learned embedding; it exists so semantic dedupe works
// without a network oracle and so tests are reproducible. The zero value
// is ready to use with DefaultDim dimensions.
type LocalOracle struct {
	// Dim is the embedding dimension; 0 means DefaultDim.
	Dim int
}

var _ SimilarityOracle = LocalOracle{}

// Embed folds block into a normalized Dim-dimensional vector.
// The context is ignored: embedding is instantaneous and never fails.
func (o LocalOracle) Embed(_ context.Context, block []byte) (Vector, error) {
	dim := o.Dim
	if dim <= 0 {
		dim = DefaultDim
	}

	embedding := make(Vector, dim)
	for i, b := range block {
		embedding[i%dim] += float32(b) / 255.0
	}

	// L2 normalization; an all-zero block stays the zero vector
	var sum float64
	for _, v := range embedding {
		sum += float64(v) * float64(v)
	}
	norm := float32(math.Sqrt(sum))
	if norm > 0 {
		for i := range embedding {
			embedding[i] /= norm
		}
	}

	return embedding, nil
}
