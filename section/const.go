package section

import "math"

const (
	// MagicNumber identifies a compressed container. It occupies the first
	// two bytes of every container, little-endian.
	MagicNumber uint16 = 0x03A3

	// Version is the current container format version. Decoders reject
	// containers with a different version rather than guessing at layouts.
	Version uint8 = 1
)

// Byte offsets of the fixed header fields.
const (
	MagicOffset    = 0  // bytes 0-1:   magic number (uint16)
	VersionOffset  = 2  // byte  2:     format version (uint8)
	MethodOffset   = 3  // byte  3:     compression method tag (uint8)
	SizeOffset     = 4  // bytes 4-11:  original input size (uint64)
	ChecksumOffset = 12 // bytes 12-19: xxHash64 of the payload (uint64)
	ParamLenOffset = 20 // bytes 20-23: parameter block length (uint32)
	PayloadOffset  = 24 // bytes 24-27: payload length (uint32)

	// HeaderSize is the fixed container header size in bytes.
	HeaderSize = 28
)

const (
	// MaxParamLen is the maximum parameter block size a header can describe.
	MaxParamLen = math.MaxUint32
	// MaxPayloadLen is the maximum payload size a header can describe.
	MaxPayloadLen = math.MaxUint32
)
