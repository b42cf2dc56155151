package collision

// Tracker maintains the digest → pool-index mapping for a dedupe pool and
// detects content-digest collisions during encoding. A collision is two
// distinct block contents producing the same digest under the configured
// digest kind; the store verifies block bytes on every digest hit and
// reports mismatches here.
type Tracker struct {
	indexByDigest map[string]int // Digest → unique pool index
	collisions    int            // Number of collisions observed
}

// NewTracker creates a new digest collision tracker.
func NewTracker() *Tracker {
	return &Tracker{
		indexByDigest: make(map[string]int),
	}
}

// Track records the pool index of a newly added unique block under its
// digest. When the digest is already mapped (a verified collision), the
// existing entry is kept so earlier references stay valid; the new block
// simply becomes unreachable through the digest index.
func (t *Tracker) Track(digest string, index int) {
	if _, exists := t.indexByDigest[digest]; exists {
		return
	}
	t.indexByDigest[digest] = index
}

// Lookup returns the pool index of the block stored under digest.
// The caller must still compare block contents before emitting a
// reference; a digest hit alone is not proof of equality.
func (t *Tracker) Lookup(digest string) (int, bool) {
	index, exists := t.indexByDigest[digest]
	return index, exists
}

// RecordCollision notes a digest hit whose stored block content differed
// from the incoming block. The encoder falls back to storing the block
// as a new unique entry.
func (t *Tracker) RecordCollision() {
	t.collisions++
}

// HasCollision returns true if at least one collision has been detected.
func (t *Tracker) HasCollision() bool {
	return t.collisions > 0
}

// Collisions returns the number of collisions observed since the last Reset.
func (t *Tracker) Collisions() int {
	return t.collisions
}

// Count returns the number of tracked digests.
func (t *Tracker) Count() int {
	return len(t.indexByDigest)
}

// Reset clears all tracked digests and collision state.
// This allows reusing the tracker for encoding a new payload.
func (t *Tracker) Reset() {
	// Clear the map but preserve capacity to avoid allocations
	for k := range t.indexByDigest {
		delete(t.indexByDigest, k)
	}
	t.collisions = 0
}
