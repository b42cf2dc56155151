// Package hash provides content hashing helpers shared by the codecs:
// a fast xxHash64 for checksums and shingle fingerprints, and
// configurable content digests for block deduplication.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
)

// Sum64 computes the xxHash64 of data.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// Digest computes the content digest of data using the given kind.
// The raw digest bytes are returned as a string so the result can be
// used directly as a map key.
//
// Digest sizes: xxHash64 produces 8 bytes, SHA-256 and BLAKE3 produce
// 32 bytes each.
func Digest(kind format.DigestKind, data []byte) (string, error) {
	switch kind {
	case format.DigestXXH64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], xxhash.Sum64(data))
		return string(buf[:]), nil
	case format.DigestSHA256:
		sum := sha256.Sum256(data)
		return string(sum[:]), nil
	case format.DigestBLAKE3:
		sum := blake3.Sum256(data)
		return string(sum[:]), nil
	default:
		return "", fmt.Errorf("%w: 0x%02x", errs.ErrInvalidDigestKind, uint8(kind))
	}
}
