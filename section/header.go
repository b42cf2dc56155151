package section

import (
	"fmt"

	"github.com/iamthegreatdestroyer/sigma-compress/endian"
	"github.com/iamthegreatdestroyer/sigma-compress/errs"
	"github.com/iamthegreatdestroyer/sigma-compress/format"
)

// The container format is always little-endian regardless of host order.
var engine = endian.GetLittleEndianEngine()

// Header represents the fixed-size header section at the start of a
// compressed container.
type Header struct {
	// OriginalSize is the exact byte length of the uncompressed input.
	OriginalSize uint64 // byte offset 4-11
	// PayloadChecksum is the xxHash64 of the payload bytes, verified before
	// any payload decoding is attempted.
	PayloadChecksum uint64 // byte offset 12-19
	// ParamLen is the length of the method parameter block that follows the
	// header.
	ParamLen uint32 // byte offset 20-23
	// PayloadLen is the length of the encoded payload that follows the
	// parameter block.
	PayloadLen uint32 // byte offset 24-27

	// Magic identifies the container format.
	Magic uint16 // byte offset 0-1
	// FormatVersion is the container format version.
	FormatVersion uint8 // byte offset 2
	// Method is the concrete compression method that produced the payload.
	Method format.Method // byte offset 3
}

// NewHeader creates a new Header for the given method and input size.
// Checksum and length fields are filled in when the encoder finishes.
func NewHeader(method format.Method, originalSize uint64) *Header {
	return &Header{
		Magic:         MagicNumber,
		FormatVersion: Version,
		Method:        method,
		OriginalSize:  originalSize,
	}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly 28 bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not 28 bytes, or validation errors
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	h.Magic = engine.Uint16(data[MagicOffset : MagicOffset+2])
	h.FormatVersion = data[VersionOffset]
	h.Method = format.Method(data[MethodOffset])
	h.OriginalSize = engine.Uint64(data[SizeOffset : SizeOffset+8])
	h.PayloadChecksum = engine.Uint64(data[ChecksumOffset : ChecksumOffset+8])
	h.ParamLen = engine.Uint32(data[ParamLenOffset : ParamLenOffset+4])
	h.PayloadLen = engine.Uint32(data[PayloadOffset : PayloadOffset+4])

	return h.Validate()
}

// Validate checks the structural fields of the header.
//
// Returns:
//   - ErrInvalidMagicNumber if the magic number does not match
//   - ErrUnsupportedVersion if the format version is unknown
//   - ErrUnknownMethod if the method tag is not a concrete method
func (h *Header) Validate() error {
	if h.Magic != MagicNumber {
		return fmt.Errorf("%w: got 0x%04x, want 0x%04x", errs.ErrInvalidMagicNumber, h.Magic, MagicNumber)
	}
	if h.FormatVersion != Version {
		return fmt.Errorf("%w: got %d, want %d", errs.ErrUnsupportedVersion, h.FormatVersion, Version)
	}
	if !h.Method.IsConcrete() {
		return fmt.Errorf("%w: 0x%02x", errs.ErrUnknownMethod, uint8(h.Method))
	}

	return nil
}

// Bytes serializes the Header into a new 28-byte slice.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine.PutUint16(b[MagicOffset:MagicOffset+2], h.Magic)
	b[VersionOffset] = h.FormatVersion
	b[MethodOffset] = uint8(h.Method)
	engine.PutUint64(b[SizeOffset:SizeOffset+8], h.OriginalSize)
	engine.PutUint64(b[ChecksumOffset:ChecksumOffset+8], h.PayloadChecksum)
	engine.PutUint32(b[ParamLenOffset:ParamLenOffset+4], h.ParamLen)
	engine.PutUint32(b[PayloadOffset:PayloadOffset+4], h.PayloadLen)

	return b
}

// AppendTo appends the serialized header to buf and returns the extended
// slice. It avoids the intermediate allocation of Bytes() when assembling
// a full container.
func (h *Header) AppendTo(buf []byte) []byte {
	buf = engine.AppendUint16(buf, h.Magic)
	buf = append(buf, h.FormatVersion, uint8(h.Method))
	buf = engine.AppendUint64(buf, h.OriginalSize)
	buf = engine.AppendUint64(buf, h.PayloadChecksum)
	buf = engine.AppendUint32(buf, h.ParamLen)
	buf = engine.AppendUint32(buf, h.PayloadLen)

	return buf
}

// ParseHeader parses a Header from the start of a container byte slice.
//
// Parameters:
//   - data: Byte slice starting with a header (must be at least 28 bytes)
//
// Returns:
//   - Header: Parsed header struct
//   - error: ErrInvalidHeaderSize or validation errors
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, want at least %d", errs.ErrInvalidHeaderSize, len(data), HeaderSize)
	}

	h := Header{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
