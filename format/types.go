package format

type (
	Method     uint8
	DigestKind uint8
)

const (
	MethodHuffman        Method = 0x1 // MethodHuffman represents canonical Huffman coding over byte symbols.
	MethodEntropyRun     Method = 0x2 // MethodEntropyRun represents run-oriented entropy coding.
	MethodSemanticLZ     Method = 0x3 // MethodSemanticLZ represents windowed dictionary match coding.
	MethodSemanticDedupe Method = 0x4 // MethodSemanticDedupe represents structural block deduplication.

	// MethodAuto is a request-time directive that delegates method selection
	// to the entropy analyzer. It never appears in a stored container;
	// the container always records the concrete method actually used.
	MethodAuto Method = 0xF

	DigestXXH64  DigestKind = 0x1 // DigestXXH64 represents the 64-bit xxHash content digest.
	DigestSHA256 DigestKind = 0x2 // DigestSHA256 represents the SHA-256 content digest.
	DigestBLAKE3 DigestKind = 0x3 // DigestBLAKE3 represents the 256-bit BLAKE3 content digest.
)

func (m Method) String() string {
	switch m {
	case MethodHuffman:
		return "Huffman"
	case MethodEntropyRun:
		return "EntropyRun"
	case MethodSemanticLZ:
		return "SemanticLZ"
	case MethodSemanticDedupe:
		return "SemanticDedupe"
	case MethodAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// IsConcrete reports whether the method is one of the four storable codecs.
// MethodAuto is a selection directive, not a storable method.
func (m Method) IsConcrete() bool {
	switch m {
	case MethodHuffman, MethodEntropyRun, MethodSemanticLZ, MethodSemanticDedupe:
		return true
	default:
		return false
	}
}

func (d DigestKind) String() string {
	switch d {
	case DigestXXH64:
		return "XXH64"
	case DigestSHA256:
		return "SHA256"
	case DigestBLAKE3:
		return "BLAKE3"
	default:
		return "Unknown"
	}
}

// Valid reports whether the digest kind is one of the supported algorithms.
func (d DigestKind) Valid() bool {
	switch d {
	case DigestXXH64, DigestSHA256, DigestBLAKE3:
		return true
	default:
		return false
	}
}

// Size returns the digest length in bytes, or 0 for an unknown kind.
func (d DigestKind) Size() int {
	switch d {
	case DigestXXH64:
		return 8
	case DigestSHA256:
		return 32
	case DigestBLAKE3:
		return 32
	default:
		return 0
	}
}
