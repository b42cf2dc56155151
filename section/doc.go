// Package section defines the low-level binary structure and constants of the
// compressed container format.
//
// This package provides the foundational types and constants that define the
// physical layout of containers. It handles binary serialization and
// deserialization of the fixed header, ensuring consistent byte-level
// representation across platforms.
//
// # Container Structure
//
// A container consists of a fixed-size header followed by two variable-size
// regions:
//
//	┌─────────────────────────────────────────────────────────┐
//	│ Header (28 bytes, fixed)                                │
//	│  - Magic (2 bytes): format identification              │
//	│  - Version (1 byte): format version                    │
//	│  - Method (1 byte): compression method tag             │
//	│  - OriginalSize (8 bytes): uncompressed input length   │
//	│  - PayloadChecksum (8 bytes): xxHash64 of the payload  │
//	│  - ParamLen (4 bytes): parameter block length          │
//	│  - PayloadLen (4 bytes): payload length                │
//	├─────────────────────────────────────────────────────────┤
//	│ Parameter Block (ParamLen bytes)                        │
//	│  - Method-specific decode parameters                    │
//	│  - Code length table, window size, block size, ...      │
//	├─────────────────────────────────────────────────────────┤
//	│ Payload (PayloadLen bytes)                              │
//	│  - Encoded data stream                                  │
//	└─────────────────────────────────────────────────────────┘
//
// # Header Format
//
// Header (28 bytes):
//
//	Bytes  | Field           | Type   | Description
//	-------|-----------------|--------|----------------------------------
//	0-1    | Magic           | uint16 | Always 0x03A3
//	2      | Version         | uint8  | Format version (currently 1)
//	3      | Method          | uint8  | Concrete method tag (never Auto)
//	4-11   | OriginalSize    | uint64 | Uncompressed input length
//	12-19  | PayloadChecksum | uint64 | xxHash64 over payload bytes
//	20-23  | ParamLen        | uint32 | Parameter block length
//	24-27  | PayloadLen      | uint32 | Payload length
//
// All multi-byte fields are little-endian; the format does not carry an
// endianness flag.
//
// The Method byte always names the concrete method that produced the
// payload. The automatic-selection tag is a request-time directive and is
// never stored, so a decoder needs no access to the selection heuristics.
//
// # Checksum
//
// PayloadChecksum covers only the payload region, not the header or the
// parameter block. Decoders verify it before attempting any payload
// decoding, which converts silent bit corruption into a deterministic
// checksum-mismatch error.
//
// # Thread Safety
//
// Header is a plain value type; distinct instances are safe for concurrent
// use. Parsing and serialization never retain references to the input.
//
// Most users should interact with the engine package instead of using
// section directly. Use this package only when you need fine-grained
// control over the binary layout, such as inspecting a container without
// decoding it.
package section
