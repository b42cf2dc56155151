package compress

import (
	"sync"

	"github.com/iamthegreatdestroyer/sigma-compress/internal/collision"
	"github.com/iamthegreatdestroyer/sigma-compress/oracle"
)

// DedupeStore holds the block identity state of a dedupe encode pass: the
// digest index over unique blocks, the owned block copies, the similarity
// prefilter buckets, and a digest-to-embedding cache.
//
// A fresh store serves exactly one encode pass. A store shared across
// compress calls keeps only its embedding cache between passes; per-pass
// state is reset at the start of each encode, so every produced container
// stays self-contained. Concurrent encodes against a shared store
// serialize on an internal mutex.
type DedupeStore struct {
	tracker    *collision.Tracker
	buckets    map[uint64][]int
	embeddings map[string]oracle.Vector
	uniques    [][]byte
	digests    []string
	mu         sync.Mutex
}

// NewDedupeStore creates an empty store.
func NewDedupeStore() *DedupeStore {
	return &DedupeStore{
		tracker:    collision.NewTracker(),
		buckets:    make(map[uint64][]int),
		embeddings: make(map[string]oracle.Vector),
	}
}

// Len returns the number of unique blocks held from the most recent pass.
func (s *DedupeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.uniques)
}

// Collisions returns the digest collisions observed during the most
// recent pass.
func (s *DedupeStore) Collisions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tracker.Collisions()
}

// CachedEmbeddings returns the number of block embeddings in the cache.
// Unlike pass state, the cache persists across encode passes.
func (s *DedupeStore) CachedEmbeddings() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.embeddings)
}

// Reset drops all state, the embedding cache included.
func (s *DedupeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetPool()
	for k := range s.embeddings {
		delete(s.embeddings, k)
	}
}

// resetPool drops per-pass state while keeping cached embeddings.
// Caller holds mu.
func (s *DedupeStore) resetPool() {
	s.tracker.Reset()
	s.uniques = s.uniques[:0]
	s.digests = s.digests[:0]
	for k := range s.buckets {
		delete(s.buckets, k)
	}
}

// lookup returns the unique index recorded for digest. Caller holds mu.
func (s *DedupeStore) lookup(digest string) (int, bool) {
	return s.tracker.Lookup(digest)
}

// add appends an owned copy of block as the next unique entry and indexes
// its digest. Caller holds mu.
func (s *DedupeStore) add(digest string, block []byte) int {
	owned := make([]byte, len(block))
	copy(owned, block)

	index := len(s.uniques)
	s.uniques = append(s.uniques, owned)
	s.digests = append(s.digests, digest)
	s.tracker.Track(digest, index)

	return index
}

// blockAt returns the unique block at index. Caller holds mu.
func (s *DedupeStore) blockAt(index int) []byte {
	return s.uniques[index]
}

// digestAt returns the digest of the unique block at index. Caller holds mu.
func (s *DedupeStore) digestAt(index int) string {
	return s.digests[index]
}

// recordCollision notes a digest hit whose block content differed.
// Caller holds mu.
func (s *DedupeStore) recordCollision() {
	s.tracker.RecordCollision()
}

// cachedEmbedding returns the cached embedding for digest. Caller holds mu.
func (s *DedupeStore) cachedEmbedding(digest string) (oracle.Vector, bool) {
	v, ok := s.embeddings[digest]

	return v, ok
}

// cacheEmbedding stores the embedding for digest. Caller holds mu.
func (s *DedupeStore) cacheEmbedding(digest string, v oracle.Vector) {
	s.embeddings[digest] = v
}

// addToBucket registers a unique index under its sign bucket. Caller holds mu.
func (s *DedupeStore) addToBucket(bucket uint64, index int) {
	s.buckets[bucket] = append(s.buckets[bucket], index)
}

// bucketCandidates returns the unique indices sharing a sign bucket.
// Caller holds mu.
func (s *DedupeStore) bucketCandidates(bucket uint64) []int {
	return s.buckets[bucket]
}
